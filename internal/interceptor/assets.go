package interceptor

import (
	"io/fs"
	"mime"
	"path"
	"strings"

	"github.com/pkg/errors"
)

// EmbedAssets 以 fs.FS（通常是 embed.FS 子树）为后端的同源资源源
// 路径以 / 开头，/ 映射到壳页
type EmbedAssets struct {
	fsys  fs.FS
	shell string
}

// NewEmbedAssets 创建内嵌资源源，shell 为导航请求回退的壳页路径
func NewEmbedAssets(fsys fs.FS, shell string) *EmbedAssets {
	if shell == "" {
		shell = ShellPath
	}
	return &EmbedAssets{fsys: fsys, shell: shell}
}

// Open 读取资源内容，按扩展名推断 Content-Type
func (a *EmbedAssets) Open(p string) ([]byte, string, error) {
	name := strings.TrimPrefix(p, "/")
	if name == "" {
		name = strings.TrimPrefix(a.shell, "/")
	}
	body, err := fs.ReadFile(a.fsys, name)
	if err != nil {
		return nil, "", errors.Wrapf(err, "open embedded asset %s failed", p)
	}
	return body, contentTypeByExt(name), nil
}

// List 列出全部资源路径，预缓存阶段整体写入缓存代
func (a *EmbedAssets) List() []string {
	var paths []string
	_ = fs.WalkDir(a.fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		paths = append(paths, "/"+p)
		return nil
	})
	return paths
}

func contentTypeByExt(name string) string {
	ext := path.Ext(name)
	if ct := mime.TypeByExtension(ext); ct != "" {
		return ct
	}
	switch ext {
	case ".js":
		return "application/javascript"
	case ".css":
		return "text/css; charset=utf-8"
	case ".svg":
		return "image/svg+xml"
	default:
		return "application/octet-stream"
	}
}
