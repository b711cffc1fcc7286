// Package local_fs 基于本地文件系统的二级存储后端，键映射为保存目录下的相对路径
package local_fs

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/haierkeys/offline-note-vault/pkg/fileurl"

	"github.com/pkg/errors"
)

type Config struct {
	SavePath   string `yaml:"save-path" default:"storage/cache"`
	CustomPath string `yaml:"custom-path"`
}

type LocalFS struct {
	Config *Config
}

// NewClient 创建本地文件系统存储实例，保存目录不存在时自动创建
func NewClient(conf *Config) (*LocalFS, error) {
	if conf.SavePath == "" {
		return nil, errors.New("local_fs: save-path is empty")
	}
	savePath := fileurl.PathSuffixCheckAdd(conf.SavePath, "/")
	if !fileurl.IsExist(savePath) {
		if err := fileurl.CreatePath(savePath, os.ModePerm); err != nil {
			return nil, errors.Wrap(err, "local_fs")
		}
	}
	return &LocalFS{Config: conf}, nil
}

// getSavePath 返回带尾部分隔符的保存根目录
func (p *LocalFS) getSavePath() string {
	root := fileurl.PathSuffixCheckAdd(p.Config.SavePath, "/")
	if p.Config.CustomPath != "" {
		root += fileurl.PathSuffixCheckAdd(p.Config.CustomPath, "/")
	}
	return root
}

// keyFromPath 将磁盘路径还原为逻辑键
func (p *LocalFS) keyFromPath(fullPath string) string {
	rel := strings.TrimPrefix(filepath.ToSlash(fullPath), filepath.ToSlash(p.getSavePath()))
	return strings.TrimPrefix(rel, "/")
}
