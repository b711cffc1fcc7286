// Package routers HTTP 路由组装
package routers

import (
	"net/http"
	"strings"
	"time"

	"github.com/haierkeys/offline-note-vault/internal/app"
	"github.com/haierkeys/offline-note-vault/internal/middleware"
	"github.com/haierkeys/offline-note-vault/internal/routers/api_router"
	"github.com/haierkeys/offline-note-vault/internal/routers/websocket_router"
	pkgapp "github.com/haierkeys/offline-note-vault/pkg/app"
	"github.com/haierkeys/offline-note-vault/pkg/limiter"

	"github.com/gin-gonic/gin"
	ut "github.com/go-playground/universal-translator"
	"github.com/lxzan/gws"
)

var methodLimiters = limiter.NewMethodLimiter().AddBuckets(
	limiter.BucketRule{
		Key:          "/api/user",
		FillInterval: time.Second,
		Capacity:     10,
		Quantum:      10,
	},
)

func NewRouter(appContainer *app.App, uni *ut.UniversalTranslator) *gin.Engine {

	cfg := appContainer.Config()
	itc := appContainer.Interceptor()

	var wss = pkgapp.NewWebsocketServer(pkgapp.WebsocketServerConfig{
		GWSOption: gws.ServerOption{
			CheckUtf8Enabled:    true,
			ParallelEnabled:     true,                                 // 开启并行消息处理
			Recovery:            gws.Recovery,                         // 开启异常恢复
			PermessageDeflate:   gws.PermessageDeflate{Enabled: true}, // 开启压缩
			ParallelGolimit:     8,
			ReadMaxPayloadSize:  1024 * 1024 * 16,
			WriteMaxPayloadSize: 1024 * 1024 * 16,
		},
		TokenManager: appContainer.Tokens(),
	})

	// 注册控制通道的封闭消息集合
	controlWSHandler := websocket_router.NewControlWSHandler(appContainer)
	controlWSHandler.Register(wss)

	// 缓存更新 / 网络状态等实例广播走 WebSocket 下发
	itc.SetNotifier(wss.BroadcastAll)

	r := gin.New()

	// 应用壳与静态资源统一经由离线网关出站
	// 导航请求回壳页，静态资源按缓存代回放，第三方资源经 /gateway 转发
	r.GET("/", itc.Run())
	r.HEAD("/", itc.Run())
	r.GET("/gateway", itc.Run())

	api := r.Group("/api")
	{
		api.Use(middleware.AppInfo())
		api.Use(middleware.TraceMiddleware(cfg.Tracer.Enabled, cfg.Tracer.Header))
		api.Use(middleware.RateLimiter(methodLimiters))
		api.Use(middleware.ContextTimeout(time.Duration(cfg.App.DefaultContextTimeout) * time.Second))
		api.Use(middleware.Cors())
		api.Use(middleware.LangWithTranslator(uni))
		api.Use(middleware.AccessLog())
		api.Use(middleware.RecoveryWithLogger(appContainer.Logger()))

		// 创建 Handlers（注入 App Container）
		userHandler := api_router.NewUserHandler(appContainer)
		noteHandler := api_router.NewNoteHandler(appContainer)
		categoryHandler := api_router.NewCategoryHandler(appContainer)
		exportHandler := api_router.NewExportHandler(appContainer)
		versionHandler := api_router.NewVersionHandler(appContainer)

		api.POST("/user/register", userHandler.Register)
		api.POST("/user/login", userHandler.Login)
		api.GET("/user/sync", wss.Run())

		// 服务端版本与当前缓存代（无需认证）
		api.GET("/version", versionHandler.ServerVersion)

		auth := middleware.UserAuthTokenWithConfig(cfg.Security.AuthTokenKey)

		api.Use(auth).GET("/user/info", userHandler.Info)
		api.Use(auth).POST("/user/settings", userHandler.UpdateSettings)
		api.Use(auth).DELETE("/user", userHandler.Delete)

		api.Use(auth).POST("/note", noteHandler.Create)
		api.Use(auth).PUT("/note", noteHandler.Modify)
		api.Use(auth).GET("/note", noteHandler.Get)
		api.Use(auth).DELETE("/note", noteHandler.Delete)
		api.Use(auth).GET("/notes", noteHandler.List)
		api.Use(auth).GET("/tags", noteHandler.Tags)

		api.Use(auth).POST("/category", categoryHandler.Create)
		api.Use(auth).PUT("/category", categoryHandler.Rename)
		api.Use(auth).DELETE("/category", categoryHandler.Delete)
		api.Use(auth).GET("/categories", categoryHandler.List)

		api.Use(auth).GET("/export", exportHandler.Export)
		api.Use(auth).POST("/import", exportHandler.Import)
	}

	r.Use(middleware.Cors())
	r.NoRoute(func(c *gin.Context) {
		if strings.HasPrefix(c.Request.URL.Path, "/api") {
			middleware.NoFound()(c)
			return
		}
		// 其余路径全部交给离线网关，网关自身兜底回壳或降级
		itc.Run()(c)
	})

	return r
}

// NewPrivateRouter 内部管理端口的路由：指标、运行时变量与健康检查
func NewPrivateRouter(appContainer *app.App) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	healthHandler := api_router.NewHealthHandler(appContainer)

	r.GET("/metrics", api_router.Metrics())
	r.GET("/debug/vars", api_router.Expvar)
	r.GET("/health", healthHandler.Health)
	r.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, "offline-note-vault private endpoint")
	})

	return r
}
