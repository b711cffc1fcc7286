package aliyun_oss

import (
	"bytes"
	"io"

	"github.com/haierkeys/offline-note-vault/pkg/fileurl"

	"github.com/aliyun/aliyun-oss-go-sdk/oss"
	"github.com/pkg/errors"
)

// PutContent 上传二进制内容
func (p *OSS) PutContent(pathKey string, content []byte) (string, error) {

	if p.Bucket == nil {
		err := p.GetBucket("")
		if err != nil {
			return "", err
		}
	}
	fileKey := fileurl.PathSuffixCheckAdd(p.Config.CustomPath, "/") + pathKey
	err := p.Bucket.PutObject(fileKey, bytes.NewReader(content))
	if err != nil {
		return "", errors.Wrap(err, "aliyun_oss")
	}
	return pathKey, nil
}

// GetContent 读取对象内容
func (p *OSS) GetContent(pathKey string) ([]byte, error) {

	if p.Bucket == nil {
		err := p.GetBucket("")
		if err != nil {
			return nil, err
		}
	}
	fileKey := fileurl.PathSuffixCheckAdd(p.Config.CustomPath, "/") + pathKey

	body, err := p.Bucket.GetObject(fileKey)
	if err != nil {
		return nil, errors.Wrap(err, "aliyun_oss")
	}
	defer body.Close()

	content, err := io.ReadAll(body)
	if err != nil {
		return nil, errors.Wrap(err, "aliyun_oss")
	}
	return content, nil
}

// Delete 删除单个对象
func (p *OSS) Delete(pathKey string) error {
	if p.Bucket == nil {
		err := p.GetBucket("")
		if err != nil {
			return err
		}
	}
	fileKey := fileurl.PathSuffixCheckAdd(p.Config.CustomPath, "/") + pathKey
	return p.Bucket.DeleteObject(fileKey)
}

// DeletePrefix 批量删除前缀下的全部对象
func (p *OSS) DeletePrefix(prefix string) error {
	keys, err := p.ListKeys(prefix)
	if err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}

	base := fileurl.PathSuffixCheckAdd(p.Config.CustomPath, "/")
	fileKeys := make([]string, 0, len(keys))
	for _, k := range keys {
		fileKeys = append(fileKeys, base+k)
	}
	_, err = p.Bucket.DeleteObjects(fileKeys)
	return errors.Wrap(err, "aliyun_oss")
}

// ListKeys 分批列出前缀下的全部键
func (p *OSS) ListKeys(prefix string) ([]string, error) {

	if p.Bucket == nil {
		err := p.GetBucket("")
		if err != nil {
			return nil, err
		}
	}
	base := fileurl.PathSuffixCheckAdd(p.Config.CustomPath, "/")

	var keys []string
	marker := ""
	for {
		lsRes, err := p.Bucket.ListObjects(oss.Prefix(base+prefix), oss.Marker(marker))
		if err != nil {
			return nil, errors.Wrap(err, "aliyun_oss")
		}
		for _, obj := range lsRes.Objects {
			key := obj.Key
			if base != "" {
				key = key[len(base):]
			}
			keys = append(keys, key)
		}
		if !lsRes.IsTruncated {
			break
		}
		marker = lsRes.NextMarker
	}
	return keys, nil
}
