package util

import (
	"golang.org/x/crypto/bcrypt"
)

// GeneratePasswordDigest 生成密码的单向 bcrypt 摘要
// 摘要不可逆，登录时只做等值校验
func GeneratePasswordDigest(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), 10)
	return string(bytes), err
}

// CheckPasswordDigest 校验密码与摘要是否匹配
// digest: 存储的摘要 // password: 待校验密码
func CheckPasswordDigest(digest, password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(digest), []byte(password))
	return err == nil
}
