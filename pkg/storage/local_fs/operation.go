package local_fs

import (
	"io/fs"
	"os"
	"path/filepath"

	"github.com/haierkeys/offline-note-vault/pkg/fileurl"

	"github.com/pkg/errors"
)

// PutContent 写入内容，必要时创建中间目录
func (p *LocalFS) PutContent(pathKey string, content []byte) (string, error) {
	dst := p.getSavePath() + pathKey

	if !fileurl.IsExist(filepath.Dir(dst)) {
		if err := fileurl.CreatePath(dst, os.ModePerm); err != nil {
			return "", errors.Wrap(err, "local_fs")
		}
	}

	if err := os.WriteFile(dst, content, 0644); err != nil {
		return "", errors.Wrap(err, "local_fs")
	}
	return pathKey, nil
}

// GetContent 读取内容，键不存在时返回错误
func (p *LocalFS) GetContent(pathKey string) ([]byte, error) {
	dst := p.getSavePath() + pathKey
	content, err := os.ReadFile(dst)
	if err != nil {
		return nil, errors.Wrap(err, "local_fs")
	}
	return content, nil
}

// Delete 删除单个键，不存在时静默返回
func (p *LocalFS) Delete(pathKey string) error {
	dst := p.getSavePath() + pathKey
	if fileurl.IsExist(dst) {
		return os.Remove(dst)
	}
	return nil
}

// DeletePrefix 删除前缀目录下的全部内容
func (p *LocalFS) DeletePrefix(prefix string) error {
	dst := p.getSavePath() + prefix
	if !fileurl.IsExist(dst) {
		return nil
	}
	return os.RemoveAll(dst)
}

// ListKeys 递归列出前缀下的全部键
func (p *LocalFS) ListKeys(prefix string) ([]string, error) {
	root := p.getSavePath() + prefix
	if !fileurl.IsExist(root) {
		return nil, nil
	}

	var keys []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		keys = append(keys, p.keyFromPath(path))
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "local_fs")
	}
	return keys, nil
}
