package interceptor

import (
	"net/http"
	"strings"
)

// Class 请求分类，决定网关的处理路径
type Class int

const (
	// ClassPassthrough 不处理，交回常规链路
	ClassPassthrough Class = iota
	// ClassNavigation 文档导航请求，永远以应用壳响应
	ClassNavigation
	// ClassSameOrigin 同源静态资源，缓存优先
	ClassSameOrigin
	// ClassThirdParty 允许名单内的第三方资源，缓存优先 + 限时抓取
	ClassThirdParty
)

func (c Class) String() string {
	switch c {
	case ClassNavigation:
		return "navigation"
	case ClassSameOrigin:
		return "same-origin"
	case ClassThirdParty:
		return "third-party"
	default:
		return "passthrough"
	}
}

// TargetParam 网关转发第三方资源时携带目标地址的查询参数
const TargetParam = "url"

// Classify 对进入网关的请求分类
// 带 url 查询参数的请求按目标地址与允许名单匹配，其余按方法与 Accept 头区分导航与静态资源
func Classify(r *http.Request, allowlist []string) Class {
	if target := r.URL.Query().Get(TargetParam); target != "" {
		if MatchAllowlist(target, allowlist) {
			return ClassThirdParty
		}
		return ClassPassthrough
	}
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		return ClassPassthrough
	}
	if strings.Contains(r.Header.Get("Accept"), "text/html") {
		return ClassNavigation
	}
	return ClassSameOrigin
}

// MatchAllowlist 目标地址是否命中允许名单前缀
func MatchAllowlist(target string, allowlist []string) bool {
	for _, prefix := range allowlist {
		if prefix != "" && strings.HasPrefix(target, prefix) {
			return true
		}
	}
	return false
}
