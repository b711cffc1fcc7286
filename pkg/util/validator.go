package util

import (
	"regexp"
)

var (
	usernameRegexp = regexp.MustCompile(`^[a-zA-Z0-9_-]{3,32}$`)
	emailRegexp    = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
)

// IsValidUsername 用户名 3-32 位，字母数字下划线横线
func IsValidUsername(username string) bool {
	return usernameRegexp.MatchString(username)
}

// IsValidEmail 校验邮箱格式
func IsValidEmail(email string) bool {
	return emailRegexp.MatchString(email)
}
