package webdav

import (
	"os"
	"path"

	"github.com/haierkeys/offline-note-vault/pkg/fileurl"

	"github.com/pkg/errors"
)

// PutContent 将二进制内容写入 WebDAV 服务器，必要时创建中间目录
func (w *WebDAV) PutContent(pathKey string, content []byte) (string, error) {

	fileKey := fileurl.PathSuffixCheckAdd(w.Config.CustomPath, "/") + pathKey

	if dir := path.Dir(fileKey); dir != "." {
		if err := w.Client.MkdirAll(dir, 0644); err != nil {
			return "", errors.Wrap(err, "webdav")
		}
	}

	if err := w.Client.Write(fileKey, content, os.ModePerm); err != nil {
		return "", errors.Wrap(err, "webdav")
	}

	return pathKey, nil
}

// GetContent 从 WebDAV 服务器读取内容
func (w *WebDAV) GetContent(pathKey string) ([]byte, error) {

	fileKey := fileurl.PathSuffixCheckAdd(w.Config.CustomPath, "/") + pathKey

	content, err := w.Client.Read(fileKey)
	if err != nil {
		return nil, errors.Wrap(err, "webdav")
	}
	return content, nil
}

// Delete 删除单个键
func (w *WebDAV) Delete(pathKey string) error {
	fileKey := fileurl.PathSuffixCheckAdd(w.Config.CustomPath, "/") + pathKey
	return w.Client.Remove(fileKey)
}

// DeletePrefix 删除前缀目录下的全部内容
func (w *WebDAV) DeletePrefix(prefix string) error {
	fileKey := fileurl.PathSuffixCheckAdd(w.Config.CustomPath, "/") + prefix
	return w.Client.RemoveAll(fileKey)
}

// ListKeys 递归列出前缀下的全部键
func (w *WebDAV) ListKeys(prefix string) ([]string, error) {
	base := fileurl.PathSuffixCheckAdd(w.Config.CustomPath, "/")

	var keys []string
	var walk func(dir string) error
	walk = func(dir string) error {
		files, err := w.Client.ReadDir(base + dir)
		if err != nil {
			return errors.Wrap(err, "webdav")
		}
		for _, f := range files {
			sub := path.Join(dir, f.Name())
			if f.IsDir() {
				if err := walk(sub); err != nil {
					return err
				}
				continue
			}
			keys = append(keys, sub)
		}
		return nil
	}
	if err := walk(prefix); err != nil {
		return nil, err
	}
	return keys, nil
}
