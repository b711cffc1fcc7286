// Package websocket_router 提供控制通道的 WebSocket 处理器
package websocket_router

import (
	"context"
	"strings"

	"github.com/haierkeys/offline-note-vault/internal/app"
	pkgapp "github.com/haierkeys/offline-note-vault/pkg/app"
	"github.com/haierkeys/offline-note-vault/pkg/code"

	"go.uber.org/zap"
)

// WSHandler WebSocket 基础 Handler 结构体，封装 App Container
// 所有 WebSocket Handler 都应该嵌入此结构体以获得依赖注入能力
type WSHandler struct {
	App *app.App
}

// NewWSHandler 创建 WebSocket 基础 Handler 实例
func NewWSHandler(a *app.App) *WSHandler {
	return &WSHandler{App: a}
}

func (h *WSHandler) username(c *pkgapp.WebsocketClient) string {
	if c.User == nil {
		return ""
	}
	return c.User.Username
}

// logError 记录错误日志，连接关闭引起的错误降级为 Debug
func (h *WSHandler) logError(c *pkgapp.WebsocketClient, method string, err error) {
	if isNetworkClosedError(err) {
		h.App.Logger().Debug(method,
			zap.Error(err),
			zap.String("username", h.username(c)),
		)
		return
	}
	h.App.Logger().Error(method,
		zap.Error(err),
		zap.String("username", h.username(c)),
	)
}

// respondError 统一错误响应，记录日志并把 Details 发回客户端
func (h *WSHandler) respondError(c *pkgapp.WebsocketClient, codeErr *code.Code, err error, method string, action string) {
	h.logError(c, method, err)
	c.ToResponse(codeErr.Clone().WithDetails(err.Error()), action)
}

// isNetworkClosedError 检查是否为网络关闭相关的错误
func isNetworkClosedError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "use of closed network connection") ||
		strings.Contains(msg, "connection reset by peer") ||
		strings.Contains(msg, "broken pipe") ||
		err == context.Canceled
}
