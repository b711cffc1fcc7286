package api_router

import (
	"github.com/haierkeys/offline-note-vault/internal/app"
	pkgapp "github.com/haierkeys/offline-note-vault/pkg/app"
	"github.com/haierkeys/offline-note-vault/pkg/code"

	"github.com/gin-gonic/gin"
)

// VersionHandler 版本信息 API 路由处理器
type VersionHandler struct {
	*Handler
}

// NewVersionHandler 创建 VersionHandler 实例
func NewVersionHandler(a *app.App) *VersionHandler {
	return &VersionHandler{
		Handler: NewHandler(a),
	}
}

// versionRes 版本响应，附带当前缓存代
type versionRes struct {
	Version    string `json:"version"`
	GitTag     string `json:"gitTag"`
	BuildTime  string `json:"buildTime"`
	Generation string `json:"generation"`
}

// ServerVersion 服务端版本号与当前缓存代标识
func (h *VersionHandler) ServerVersion(c *gin.Context) {
	response := pkgapp.NewResponse(c)
	versionInfo := h.App.Version()
	response.ToResponse(code.Success.Clone().WithData(versionRes{
		Version:    versionInfo.Version,
		GitTag:     versionInfo.GitTag,
		BuildTime:  versionInfo.BuildTime,
		Generation: h.App.Interceptor().Generation(),
	}))
}
