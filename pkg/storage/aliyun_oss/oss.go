package aliyun_oss

import (
	"github.com/aliyun/aliyun-oss-go-sdk/oss"
	"github.com/pkg/errors"
)

type Config struct {
	Endpoint        string `yaml:"endpoint"`
	BucketName      string `yaml:"bucket-name"`
	AccessKeyID     string `yaml:"access-key-id"`
	AccessKeySecret string `yaml:"access-key-secret"`
	CustomPath      string `yaml:"custom-path"`
}

type OSS struct {
	Client *oss.Client
	Bucket *oss.Bucket
	Config *Config
}

var clients = make(map[string]*OSS)

// NewClient 创建阿里云 OSS 存储实例
func NewClient(conf *Config) (*OSS, error) {

	var accessKeyId = conf.AccessKeyID

	if clients[accessKeyId] != nil {
		return clients[accessKeyId], nil
	}

	client, err := oss.New(conf.Endpoint, conf.AccessKeyID, conf.AccessKeySecret)
	if err != nil {
		return nil, errors.Wrap(err, "aliyun_oss")
	}

	clients[accessKeyId] = &OSS{
		Client: client,
		Config: conf,
	}
	return clients[accessKeyId], nil
}

// GetBucket 获取 bucket 句柄
func (p *OSS) GetBucket(bucketName string) error {
	if len(bucketName) <= 0 {
		bucketName = p.Config.BucketName
	}
	var err error
	p.Bucket, err = p.Client.Bucket(bucketName)
	return err
}
