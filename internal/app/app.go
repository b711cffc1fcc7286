package app

import (
	"context"

	"github.com/haierkeys/offline-note-vault/internal/cache"
	"github.com/haierkeys/offline-note-vault/internal/dao"
	"github.com/haierkeys/offline-note-vault/internal/interceptor"
	"github.com/haierkeys/offline-note-vault/internal/store"
	pkgapp "github.com/haierkeys/offline-note-vault/pkg/app"
	"github.com/haierkeys/offline-note-vault/pkg/storage"
	"github.com/haierkeys/offline-note-vault/pkg/workerpool"
	"github.com/haierkeys/offline-note-vault/pkg/writequeue"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// App 应用容器，持有全部共享依赖
// Handler、任务与控制消息处理器都从这里取依赖，不走包级单例
type App struct {
	config      *AppConfig
	logger      *zap.Logger
	db          *gorm.DB
	dao         *dao.Dao
	wq          *writequeue.Manager
	wp          *workerpool.Pool
	backend     storage.Storager
	store       *store.Store
	cache       *cache.ResponseCache
	interceptor *interceptor.Interceptor
	tokens      pkgapp.TokenManager
}

// NewApp 按依赖顺序装配应用：数据库 → 主存仓库 → 并发组件 → 二级存储 → Durable Store → 缓存 → 网关
// assets 为内嵌前端资源，交给网关作同源资源源
func NewApp(ctx context.Context, cfg *AppConfig, lg *zap.Logger, assets interceptor.AssetSource) (*App, error) {
	daoCfg := daoConfig(cfg)

	db, err := dao.NewDBEngineWithConfig(daoCfg, lg)
	if err != nil {
		return nil, err
	}

	d := dao.New(db, ctx, dao.WithConfig(&daoCfg), dao.WithLogger(lg))
	repo := dao.NewKeyspaceRepository(d)

	wqCfg := cfg.GetWriteQueueConfig()
	wq := writequeue.New(&wqCfg, lg)
	wpCfg := cfg.GetWorkerPoolConfig()
	wp := workerpool.New(&wpCfg, lg)

	// 二级存储承载数据镜像、响应缓存与备份
	backend, err := storage.NewClient(&cfg.Storage, lg)
	if err != nil {
		return nil, err
	}

	st := store.New(repo, wq, wp,
		store.WithMirror(backend),
		store.WithLogger(lg),
		store.WithConfig(store.Config{RecordSizeLimit: cfg.GetUserRecordSizeLimit()}),
	)
	if err := st.Load(ctx); err != nil {
		return nil, err
	}

	responseCache := cache.New(backend, cfg.Interceptor.AppVersion, lg)

	itc := interceptor.New(responseCache, assets, &interceptor.Config{
		ThirdPartyTimeout: cfg.GetThirdPartyTimeout(),
		Allowlist:         cfg.Interceptor.Allowlist,
		PrecacheURLs:      cfg.Interceptor.PrecacheURLs,
	}, lg)

	// 记录变更 → CacheUpdated 广播
	st.OnChange(itc.NotifyCacheUpdated)

	tokens := pkgapp.NewTokenManager(pkgapp.TokenConfig{
		SecretKey: cfg.Security.AuthTokenKey,
		Expiry:    cfg.GetTokenExpiry(),
	})

	return &App{
		config:      cfg,
		logger:      lg,
		db:          db,
		dao:         d,
		wq:          wq,
		wp:          wp,
		backend:     backend,
		store:       st,
		cache:       responseCache,
		interceptor: itc,
		tokens:      tokens,
	}, nil
}

func daoConfig(cfg *AppConfig) dao.DatabaseConfig {
	return dao.DatabaseConfig{
		Type:            cfg.Database.Type,
		Path:            cfg.Database.Path,
		UserName:        cfg.Database.UserName,
		Password:        cfg.Database.Password,
		Host:            cfg.Database.Host,
		Name:            cfg.Database.Name,
		TablePrefix:     cfg.Database.TablePrefix,
		AutoMigrate:     cfg.Database.AutoMigrate,
		Charset:         cfg.Database.Charset,
		ParseTime:       cfg.Database.ParseTime,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		ConnMaxIdleTime: cfg.Database.ConnMaxIdleTime,
		RunMode:         cfg.Server.RunMode,
	}
}

func (a *App) Config() *AppConfig {
	return a.config
}

func (a *App) Logger() *zap.Logger {
	return a.logger
}

func (a *App) Dao() *dao.Dao {
	return a.dao
}

func (a *App) Store() *store.Store {
	return a.store
}

func (a *App) Cache() *cache.ResponseCache {
	return a.cache
}

func (a *App) Interceptor() *interceptor.Interceptor {
	return a.interceptor
}

func (a *App) Tokens() pkgapp.TokenManager {
	return a.tokens
}

// Backend 二级存储客户端，备份任务直接使用
func (a *App) Backend() storage.Storager {
	return a.backend
}

// Version 应用版本信息
func (a *App) Version() pkgapp.VersionInfo {
	return pkgapp.VersionInfo{
		Version:   Version,
		GitTag:    GitTag,
		BuildTime: BuildTime,
	}
}

// Close 按依赖逆序收尾，等待在途的镜像写入与写队列排空
func (a *App) Close(ctx context.Context) error {
	var firstErr error

	if err := a.wq.Shutdown(ctx); err != nil && firstErr == nil {
		firstErr = err
	}
	if err := a.wp.Shutdown(ctx); err != nil && firstErr == nil {
		firstErr = err
	}
	if sqlDB, err := a.db.DB(); err == nil {
		if err := sqlDB.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
