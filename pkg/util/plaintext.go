package util

import (
	"strings"
)

// 块级标签结束时补空格，避免相邻文本粘连
var blockTags = map[string]bool{
	"p": true, "div": true, "br": true, "li": true, "ul": true, "ol": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"blockquote": true, "pre": true, "tr": true, "table": true,
}

var entityReplacer = strings.NewReplacer(
	"&nbsp;", " ",
	"&amp;", "&",
	"&lt;", "<",
	"&gt;", ">",
	"&quot;", `"`,
	"&#39;", "'",
	"&apos;", "'",
)

// ExtractPlainText 从富文本标记中提取纯文本
// 笔记的检索文本必须始终可由富文本内容推导，每次保存时重新生成
// 规则：去除全部标签，块级标签折算为空格，解码常见实体，压缩空白
func ExtractPlainText(richContent string) string {
	if richContent == "" {
		return ""
	}

	var b strings.Builder
	b.Grow(len(richContent))

	inTag := false
	tagStart := 0
	for i := 0; i < len(richContent); i++ {
		c := richContent[i]
		switch {
		case c == '<' && !inTag:
			inTag = true
			tagStart = i + 1
		case c == '>' && inTag:
			inTag = false
			tag := strings.ToLower(strings.TrimSpace(richContent[tagStart:i]))
			tag = strings.TrimPrefix(tag, "/")
			tag = strings.TrimSuffix(tag, "/")
			if idx := strings.IndexAny(tag, " \t\n"); idx > 0 {
				tag = tag[:idx]
			}
			if blockTags[tag] {
				b.WriteByte(' ')
			}
		case !inTag:
			b.WriteByte(c)
		}
	}

	text := entityReplacer.Replace(b.String())
	return strings.Join(strings.Fields(text), " ")
}
