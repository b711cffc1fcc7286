// Package api_router 提供 HTTP API 路由处理器
package api_router

import (
	"github.com/haierkeys/offline-note-vault/internal/app"
	"github.com/haierkeys/offline-note-vault/internal/service"
	pkgapp "github.com/haierkeys/offline-note-vault/pkg/app"
	apperrors "github.com/haierkeys/offline-note-vault/pkg/errors"

	"github.com/gin-gonic/gin"
)

// Handler 基础 Handler 结构体，封装 App Container
// 所有 API Handler 都嵌入此结构体以获得依赖注入能力
type Handler struct {
	App *app.App
}

// NewHandler 创建基础 Handler 实例
func NewHandler(a *app.App) *Handler {
	return &Handler{App: a}
}

// svc 构造绑定当前请求的业务服务
func (h *Handler) svc(c *gin.Context) *service.Service {
	return service.New(c, h.App.Store(), h.App.Tokens())
}

// toErrResponse 统一错误输出：业务码与 AppError 带追踪 ID 返回，其余归为服务内部错误
func toErrResponse(response *pkgapp.Response, err error) {
	apperrors.ErrorResponse(response.Ctx, err)
}
