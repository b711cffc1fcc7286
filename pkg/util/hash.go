package util

import (
	"crypto/md5"
	"crypto/sha1"
	"encoding/hex"
)

// EncodeMD5 对字符串进行MD5编码
// 返回值: 32位十六进制字符串
func EncodeMD5(str string) string {
	h := md5.New()
	h.Write([]byte(str))
	return hex.EncodeToString(h.Sum(nil))
}

// EncodeSHA1 对字符串进行SHA1编码
// 缓存条目以请求地址的 SHA1 作为存储键
func EncodeSHA1(str string) string {
	h := sha1.New()
	h.Write([]byte(str))
	return hex.EncodeToString(h.Sum(nil))
}
