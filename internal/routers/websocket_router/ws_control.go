package websocket_router

import (
	"encoding/json"
	"strings"

	"github.com/haierkeys/offline-note-vault/internal/app"
	"github.com/haierkeys/offline-note-vault/internal/interceptor"
	"github.com/haierkeys/offline-note-vault/internal/service"
	pkgapp "github.com/haierkeys/offline-note-vault/pkg/app"
	"github.com/haierkeys/offline-note-vault/pkg/code"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/mod/semver"
)

// 控制通道的消息类型，集合封闭，未注册类型由连接层直接拒绝
const (
	MessageSkipWaiting   = "SkipWaiting"
	MessageGetVersion    = "GetVersion"
	MessageCacheUserData = "CacheUserData"
	MessageClearCache    = "ClearCache"
)

// ControlWSHandler 控制消息处理器
// 使用 App Container 注入依赖
type ControlWSHandler struct {
	*WSHandler
}

// NewControlWSHandler 创建 ControlWSHandler 实例
func NewControlWSHandler(a *app.App) *ControlWSHandler {
	return &ControlWSHandler{
		WSHandler: NewWSHandler(a),
	}
}

// Register 把封闭消息集合挂到 WebSocket 服务上
// 同时校验连接用户在键空间中真实存在
func (h *ControlWSHandler) Register(wss *pkgapp.WebsocketServer) {
	wss.Use(MessageSkipWaiting, h.SkipWaiting)
	wss.Use(MessageGetVersion, h.GetVersion)
	wss.Use(MessageCacheUserData, h.CacheUserData)
	wss.Use(MessageClearCache, h.ClearCache)
	wss.UserDataCheckUse(func(c *pkgapp.WebsocketClient, username string) error {
		if !h.App.Store().Exists(username) {
			return code.ErrorUserNotFound
		}
		return nil
	})
}

// SkipWaiting 立即激活当前缓存代，清掉旧代并向全部连接广播 OfflineReady
func (h *ControlWSHandler) SkipWaiting(c *pkgapp.WebsocketClient, msg *pkgapp.WebSocketMessage) {
	itc := h.App.Interceptor()
	if err := itc.Activate(); err != nil {
		h.respondError(c, code.ErrorCacheClearFailed, err, "websocket_router.control.SkipWaiting", MessageSkipWaiting)
		return
	}
	h.App.Logger().Info("cache generation activated",
		zap.String("username", h.username(c)),
		zap.String("generation", itc.Generation()),
	)
	c.ToResponse(code.Success.Clone().WithData(gin.H{
		"generation": itc.Generation(),
	}), MessageSkipWaiting)
}

// getVersionRequest 客户端可选上报自身版本，服务端据此判断是否需要更新
type getVersionRequest struct {
	Version string `json:"version"`
}

// GetVersion 回复当前服务版本与缓存代
func (h *ControlWSHandler) GetVersion(c *pkgapp.WebsocketClient, msg *pkgapp.WebSocketMessage) {
	v := h.App.Version()
	data := gin.H{
		"version":    v.Version,
		"gitTag":     v.GitTag,
		"buildTime":  v.BuildTime,
		"generation": h.App.Interceptor().Generation(),
	}

	params := &getVersionRequest{}
	if len(msg.Data) > 0 {
		_ = json.Unmarshal(msg.Data, params)
	}
	if params.Version != "" {
		data["updateAvailable"] = semver.Compare(semverTag(v.Version), semverTag(params.Version)) > 0
	}

	c.ToResponse(code.Success.Clone().WithData(data), MessageGetVersion)
}

// semverTag 补全 semver 比较要求的 v 前缀
func semverTag(v string) string {
	if strings.HasPrefix(v, "v") {
		return v
	}
	return "v" + v
}

// CacheUserData 客户端整包上推本地数据，整条写回该用户的键空间记录
func (h *ControlWSHandler) CacheUserData(c *pkgapp.WebsocketClient, msg *pkgapp.WebSocketMessage) {
	params := &service.CacheUserDataRequest{}
	valid, errs := c.BindAndValid(msg.Data, params)
	if !valid {
		c.ToResponse(code.ErrorInvalidParams.Clone().WithDetails(errs.Errors()...), MessageCacheUserData)
		return
	}

	// 共享连接级 SF，合并同一连接上的并发读取
	svc := service.New(c.Ctx, h.App.Store(), h.App.Tokens()).WithSF(c.SF)
	result, err := svc.CacheUserData(c.User.Username, params)
	if err != nil {
		h.toErrResponse(c, err, "websocket_router.control.CacheUserData", MessageCacheUserData)
		return
	}

	c.ToResponse(code.Success.Clone().WithData(result), MessageCacheUserData)
	c.BroadcastResponse(code.Success.Clone().WithData(result), true, interceptor.ActionSyncComplete)
}

// ClearCache 清空全部缓存代与镜像副本，仅影响缓存层，主存不受影响
func (h *ControlWSHandler) ClearCache(c *pkgapp.WebsocketClient, msg *pkgapp.WebSocketMessage) {
	if err := h.App.Interceptor().ClearAll(); err != nil {
		h.respondError(c, code.ErrorCacheClearFailed, err, "websocket_router.control.ClearCache", MessageClearCache)
		return
	}
	h.App.Logger().Info("response cache cleared",
		zap.String("username", h.username(c)),
	)
	c.ToResponse(code.Success.Clone(), MessageClearCache)
}

// toErrResponse 业务错误统一回发，*code.Code 原样下发，其余归为内部错误
func (h *ControlWSHandler) toErrResponse(c *pkgapp.WebsocketClient, err error, method string, action string) {
	if codeErr, ok := err.(*code.Code); ok {
		c.ToResponse(codeErr, action)
		return
	}
	h.respondError(c, code.ErrorServerInternal, err, method, action)
}
