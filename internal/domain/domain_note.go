package domain

import (
	"strings"

	"github.com/haierkeys/offline-note-vault/pkg/timex"
)

// Note 笔记领域模型，作为 UserRecord 的一部分整体持久化
type Note struct {
	ID         string     `json:"id"`
	Title      string     `json:"title"`
	Content    string     `json:"content"`   // 富文本 HTML
	PlainText  string     `json:"plainText"` // 由 Content 派生的纯文本，用于搜索与摘要
	CategoryID string     `json:"categoryId"`
	Tags       []string   `json:"tags"`
	IsPinned   bool       `json:"isPinned"`
	IsFavorite bool       `json:"isFavorite"`
	CreatedAt  timex.Time `json:"createdAt"`
	UpdatedAt  timex.Time `json:"updatedAt"`
}

// HasTag 判断笔记是否带有指定标签（不区分大小写）
func (n *Note) HasTag(tag string) bool {
	for _, t := range n.Tags {
		if strings.EqualFold(t, tag) {
			return true
		}
	}
	return false
}

// AddTag 添加标签，重复添加不产生副本
func (n *Note) AddTag(tag string) {
	tag = strings.TrimSpace(tag)
	if tag == "" || n.HasTag(tag) {
		return
	}
	n.Tags = append(n.Tags, tag)
}

// RemoveTag 移除标签
func (n *Note) RemoveTag(tag string) {
	out := n.Tags[:0]
	for _, t := range n.Tags {
		if !strings.EqualFold(t, tag) {
			out = append(out, t)
		}
	}
	n.Tags = out
}

// MatchKeyword 标题或纯文本包含关键字（不区分大小写）
func (n *Note) MatchKeyword(keyword string) bool {
	if keyword == "" {
		return true
	}
	kw := strings.ToLower(keyword)
	return strings.Contains(strings.ToLower(n.Title), kw) ||
		strings.Contains(strings.ToLower(n.PlainText), kw)
}
