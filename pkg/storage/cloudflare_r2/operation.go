package cloudflare_r2

import (
	"bytes"
	"context"
	"io"

	"github.com/haierkeys/offline-note-vault/pkg/fileurl"
	lg "github.com/haierkeys/offline-note-vault/pkg/logger"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// PutContent 上传二进制内容
func (p *R2) PutContent(pathKey string, content []byte) (string, error) {

	ctx := context.Background()
	bucket := p.Config.BucketName

	fileKey := fileurl.PathSuffixCheckAdd(p.Config.CustomPath, "/") + pathKey

	input := &s3.PutObjectInput{
		Bucket:            aws.String(bucket),
		Key:               aws.String(fileKey),
		Body:              bytes.NewReader(content),
		ChecksumAlgorithm: types.ChecksumAlgorithmSha256,
	}
	_, err := p.S3Manager.Upload(ctx, input)
	if err != nil {
		var noBucket *types.NoSuchBucket
		if errors.As(err, &noBucket) {
			p.logger.Warn("Bucket does not exist",
				zap.String(lg.FieldBucket, bucket),
				zap.Error(err),
			)
			err = noBucket
		}
		return "", errors.Wrap(err, "cloudflare_r2")
	}

	return pathKey, nil
}

// GetContent 读取对象内容
func (p *R2) GetContent(pathKey string) ([]byte, error) {

	ctx := context.Background()
	fileKey := fileurl.PathSuffixCheckAdd(p.Config.CustomPath, "/") + pathKey

	output, err := p.S3Client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(p.Config.BucketName),
		Key:    aws.String(fileKey),
	})
	if err != nil {
		return nil, errors.Wrap(err, "cloudflare_r2")
	}
	defer output.Body.Close()

	content, err := io.ReadAll(output.Body)
	if err != nil {
		return nil, errors.Wrap(err, "cloudflare_r2")
	}
	return content, nil
}

// Delete 删除单个对象
func (p *R2) Delete(pathKey string) error {
	fileKey := fileurl.PathSuffixCheckAdd(p.Config.CustomPath, "/") + pathKey

	_, err := p.S3Client.DeleteObject(context.Background(), &s3.DeleteObjectInput{
		Bucket: aws.String(p.Config.BucketName),
		Key:    aws.String(fileKey),
	})
	return errors.Wrap(err, "cloudflare_r2")
}

// DeletePrefix 批量删除前缀下的全部对象
func (p *R2) DeletePrefix(prefix string) error {
	keys, err := p.ListKeys(prefix)
	if err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}

	base := fileurl.PathSuffixCheckAdd(p.Config.CustomPath, "/")
	objects := make([]types.ObjectIdentifier, 0, len(keys))
	for _, k := range keys {
		objects = append(objects, types.ObjectIdentifier{Key: aws.String(base + k)})
	}

	_, err = p.S3Client.DeleteObjects(context.Background(), &s3.DeleteObjectsInput{
		Bucket: aws.String(p.Config.BucketName),
		Delete: &types.Delete{Objects: objects},
	})
	return errors.Wrap(err, "cloudflare_r2")
}

// ListKeys 翻页列出前缀下的全部键
func (p *R2) ListKeys(prefix string) ([]string, error) {

	ctx := context.Background()
	base := fileurl.PathSuffixCheckAdd(p.Config.CustomPath, "/")

	var keys []string
	paginator := s3.NewListObjectsV2Paginator(p.S3Client, &s3.ListObjectsV2Input{
		Bucket: aws.String(p.Config.BucketName),
		Prefix: aws.String(base + prefix),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, errors.Wrap(err, "cloudflare_r2")
		}
		for _, obj := range page.Contents {
			key := aws.ToString(obj.Key)
			if base != "" {
				key = key[len(base):]
			}
			keys = append(keys, key)
		}
	}
	return keys, nil
}
