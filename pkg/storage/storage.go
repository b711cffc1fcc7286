// Package storage provides a unified content storage interface over
// local FS, S3-compatible object stores, Aliyun OSS and WebDAV.
// Package storage 提供统一的内容存储接口，支持本地文件系统、S3 兼容对象存储、
// 阿里云 OSS 与 WebDAV，用作用户数据镜像与离线资源缓存的二级存储
package storage

import (
	"github.com/haierkeys/offline-note-vault/pkg/code"
	"github.com/haierkeys/offline-note-vault/pkg/storage/aliyun_oss"
	"github.com/haierkeys/offline-note-vault/pkg/storage/aws_s3"
	"github.com/haierkeys/offline-note-vault/pkg/storage/cloudflare_r2"
	"github.com/haierkeys/offline-note-vault/pkg/storage/local_fs"
	"github.com/haierkeys/offline-note-vault/pkg/storage/minio"
	"github.com/haierkeys/offline-note-vault/pkg/storage/webdav"

	"go.uber.org/zap"
)

type Type = string
type CloudType = Type

const OSS CloudType = "oss"
const R2 CloudType = "r2"
const S3 CloudType = "s3"
const LOCAL Type = "localfs"
const MinIO CloudType = "minio"
const WebDAV CloudType = "webdav"

var StorageTypeMap = map[Type]bool{
	OSS:    true,
	R2:     true,
	S3:     true,
	LOCAL:  true,
	MinIO:  true,
	WebDAV: true,
}

// Config Unified storage configuration
// Config 统一存储配置
type Config struct {
	Type Type `yaml:"type" default:"localfs"`

	// Common settings
	CustomPath string `yaml:"custom-path"`

	// Cloud Storage (S3/OSS/MinIO/R2)
	Endpoint        string `yaml:"endpoint"`
	Region          string `yaml:"region"`
	BucketName      string `yaml:"bucket-name"`
	AccessKeyID     string `yaml:"access-key-id"`
	AccessKeySecret string `yaml:"access-key-secret"`
	AccountID       string `yaml:"account-id"` // Cloudflare R2 specific

	// WebDAV
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Path     string `yaml:"path"`

	// Local FS
	SavePath string `yaml:"save-path" default:"storage/cache"`
}

// Storager 二级存储统一接口
// 键是以 / 分隔的逻辑路径；镜像与缓存代通过前缀划分命名空间
type Storager interface {
	// PutContent 写入内容，已存在则覆盖
	PutContent(pathKey string, content []byte) (string, error)
	// GetContent 读取内容，不存在时返回错误
	GetContent(pathKey string) ([]byte, error)
	// Delete 删除单个键，键不存在不算错误
	Delete(pathKey string) error
	// DeletePrefix 删除指定前缀下的全部键
	DeletePrefix(prefix string) error
	// ListKeys 列出指定前缀下的全部键
	ListKeys(prefix string) ([]string, error)
}

// NewClient 根据配置创建对应的存储客户端
func NewClient(config *Config, lg *zap.Logger) (Storager, error) {
	if config == nil {
		return nil, code.ErrorInvalidStorageType
	}

	switch config.Type {
	case LOCAL:
		return local_fs.NewClient(&local_fs.Config{
			SavePath:   config.SavePath,
			CustomPath: config.CustomPath,
		})
	case S3:
		return aws_s3.NewClient(&aws_s3.Config{
			Region:          config.Region,
			BucketName:      config.BucketName,
			AccessKeyID:     config.AccessKeyID,
			AccessKeySecret: config.AccessKeySecret,
			CustomPath:      config.CustomPath,
		}, aws_s3.WithLogger(lg))
	case R2:
		return cloudflare_r2.NewClient(&cloudflare_r2.Config{
			AccountID:       config.AccountID,
			BucketName:      config.BucketName,
			AccessKeyID:     config.AccessKeyID,
			AccessKeySecret: config.AccessKeySecret,
			CustomPath:      config.CustomPath,
		}, cloudflare_r2.WithLogger(lg))
	case MinIO:
		return minio.NewClient(&minio.Config{
			Endpoint:        config.Endpoint,
			Region:          config.Region,
			BucketName:      config.BucketName,
			AccessKeyID:     config.AccessKeyID,
			AccessKeySecret: config.AccessKeySecret,
			CustomPath:      config.CustomPath,
		}, minio.WithLogger(lg))
	case OSS:
		return aliyun_oss.NewClient(&aliyun_oss.Config{
			Endpoint:        config.Endpoint,
			BucketName:      config.BucketName,
			AccessKeyID:     config.AccessKeyID,
			AccessKeySecret: config.AccessKeySecret,
			CustomPath:      config.CustomPath,
		})
	case WebDAV:
		return webdav.NewClient(&webdav.Config{
			Endpoint:   config.Endpoint,
			Path:       config.Path,
			User:       config.User,
			Password:   config.Password,
			CustomPath: config.CustomPath,
		})
	}
	return nil, code.ErrorInvalidStorageType
}
