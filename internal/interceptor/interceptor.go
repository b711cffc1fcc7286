// Package interceptor 离线请求网关
// 站在应用与网络之间，分类每一个资源请求，保证断网时应用壳与数据依旧可用
package interceptor

import (
	"context"
	"io"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/haierkeys/offline-note-vault/internal/cache"
	"github.com/haierkeys/offline-note-vault/pkg/code"
	"github.com/haierkeys/offline-note-vault/pkg/logger"
	"github.com/haierkeys/offline-note-vault/pkg/timex"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// 广播动作，推送给所有打开的应用实例
const (
	ActionCacheUpdated   = "cacheUpdated"
	ActionOfflineReady   = "offlineReady"
	ActionSyncComplete   = "syncComplete"
	ActionNetworkStatus  = "networkStatus"
	ActionPeriodicBackup = "periodicBackup"
)

// ShellPath 应用壳在缓存代中的键
const ShellPath = "/index.html"

// offlinePayload 同源资源离线不可用时的 503 响应体
const offlinePayload = `{"code":40005,"status":false,"message":"Resource unavailable offline"}`

// AssetSource 同源静态资源来源，通常由内嵌前端文件实现
type AssetSource interface {
	// Open 返回资源内容与 Content-Type
	Open(path string) ([]byte, string, error)
	// List 全部可预缓存的资源路径
	List() []string
}

// Notifier 向所有打开的应用实例广播一条带动作标记的结果
type Notifier func(codeObj *code.Code, actionType string)

// Config 网关运行参数
type Config struct {
	// 第三方资源抓取超时
	ThirdPartyTimeout time.Duration
	// 允许缓存的第三方资源前缀
	Allowlist []string
	// 安装阶段预抓取的第三方资源
	PrecacheURLs []string
}

// Interceptor 离线请求网关
type Interceptor struct {
	cache  *cache.ResponseCache
	assets AssetSource
	client *http.Client
	config *Config
	online atomic.Bool
	notify Notifier
	logger *zap.Logger
}

type Option func(*Interceptor)

// WithNotifier 注入广播器，网关生命周期事件经由它通知所有实例
func WithNotifier(fn Notifier) Option {
	return func(i *Interceptor) {
		i.notify = fn
	}
}

// WithHTTPClient 替换抓取第三方资源的客户端，测试用
func WithHTTPClient(client *http.Client) Option {
	return func(i *Interceptor) {
		i.client = client
	}
}

func New(responseCache *cache.ResponseCache, assets AssetSource, conf *Config, lg *zap.Logger, options ...Option) *Interceptor {
	if conf.ThirdPartyTimeout <= 0 {
		conf.ThirdPartyTimeout = 5 * time.Second
	}
	if lg == nil {
		lg = zap.NewNop()
	}
	i := &Interceptor{
		cache:  responseCache,
		assets: assets,
		client: &http.Client{},
		config: conf,
		logger: lg,
	}
	i.online.Store(true)
	for _, option := range options {
		option(i)
	}
	return i
}

// Generation 当前缓存代名称
func (i *Interceptor) Generation() string {
	return i.cache.Generation()
}

// SetNotifier 注入广播出口，WebSocket 服务在路由组装阶段才创建
func (i *Interceptor) SetNotifier(fn Notifier) {
	i.notify = fn
}

// SetOnline 网络探测结果回写，状态翻转时广播 NetworkStatus
func (i *Interceptor) SetOnline(online bool) {
	prev := i.online.Swap(online)
	if online {
		metricNetworkOnline.Set(1)
	} else {
		metricNetworkOnline.Set(0)
	}
	if prev != online {
		i.logger.Info("network status changed", zap.Bool("online", online))
		i.broadcast(code.Success.Clone().WithData(gin.H{"online": online}), ActionNetworkStatus)
	}
}

// Online 最近一次探测的网络状态
func (i *Interceptor) Online() bool {
	return i.online.Load()
}

func (i *Interceptor) broadcast(codeObj *code.Code, actionType string) {
	if i.notify != nil {
		i.notify(codeObj, actionType)
	}
}

// NotifyCacheUpdated 持久层记录变更后的实例广播，挂到 store.OnChange
func (i *Interceptor) NotifyCacheUpdated(username string) {
	i.broadcast(code.Success.Clone().WithData(gin.H{"username": username}), ActionCacheUpdated)
}

// NotifyPeriodicBackup 周期备份完成后的实例广播
func (i *Interceptor) NotifyPeriodicBackup(users int, failed int) {
	i.broadcast(code.Success.Clone().WithData(gin.H{
		"users":  users,
		"failed": failed,
	}), ActionPeriodicBackup)
}

// Run 网关入口，按分类分派到对应路径
// 非 GET/HEAD 且不带转发目标的请求原样放行
func (i *Interceptor) Run() gin.HandlerFunc {
	return func(c *gin.Context) {
		class := Classify(c.Request, i.config.Allowlist)
		switch class {
		case ClassNavigation:
			i.serveNavigation(c)
		case ClassSameOrigin:
			i.serveSameOrigin(c, c.Request.URL.Path)
		case ClassThirdParty:
			i.serveThirdParty(c, c.Query(TargetParam))
		default:
			i.passthrough(c)
		}
	}
}

// passthrough 不认识的转发目标重定向回原地址，其余交回常规链路
func (i *Interceptor) passthrough(c *gin.Context) {
	if target := c.Query(TargetParam); target != "" {
		c.Redirect(http.StatusFound, target)
		c.Abort()
		return
	}
	c.Next()
}

// serveNavigation 导航请求：缓存壳 → 资源源壳 → 内联兜底页，永不失败
func (i *Interceptor) serveNavigation(c *gin.Context) {
	if entry, err := i.cache.Get(ShellPath); err == nil {
		metricCacheHits.WithLabelValues(ClassNavigation.String()).Inc()
		i.serveEntry(c, entry, "HIT")
		return
	}
	metricCacheMisses.WithLabelValues(ClassNavigation.String()).Inc()

	if body, contentType, err := i.assets.Open(ShellPath); err == nil {
		i.populateAsync(ShellPath, http.StatusOK, contentType, body)
		i.serveBody(c, http.StatusOK, contentType, body, "MISS")
		return
	}

	// 壳从未缓存且资源源不可用，给出兜底页
	metricFallbacks.WithLabelValues(ClassNavigation.String()).Inc()
	i.serveBody(c, http.StatusOK, "text/html; charset=utf-8", []byte(fallbackShellHTML), "FALLBACK")
}

// serveSameOrigin 同源资源：缓存 → 资源源（成功后异步回填）→ 缓存重试 → 离线 503
func (i *Interceptor) serveSameOrigin(c *gin.Context, path string) {
	if entry, err := i.cache.Get(path); err == nil {
		metricCacheHits.WithLabelValues(ClassSameOrigin.String()).Inc()
		i.serveEntry(c, entry, "HIT")
		return
	}
	metricCacheMisses.WithLabelValues(ClassSameOrigin.String()).Inc()

	if body, contentType, err := i.assets.Open(path); err == nil {
		i.populateAsync(path, http.StatusOK, contentType, body)
		i.serveBody(c, http.StatusOK, contentType, body, "MISS")
		return
	}

	// 与并发缓存写入竞争，再查一次
	if entry, err := i.cache.Get(path); err == nil {
		i.serveEntry(c, entry, "HIT")
		return
	}

	c.Header("X-Cache", "OFFLINE")
	c.Data(http.StatusServiceUnavailable, "application/json; charset=utf-8", []byte(offlinePayload))
	c.Abort()
}

// serveThirdParty 允许名单内的第三方资源：缓存 → 限时抓取 → 合成替代，永不硬失败
func (i *Interceptor) serveThirdParty(c *gin.Context, target string) {
	if entry, err := i.cache.Get(target); err == nil {
		metricCacheHits.WithLabelValues(ClassThirdParty.String()).Inc()
		i.serveEntry(c, entry, "HIT")
		return
	}
	metricCacheMisses.WithLabelValues(ClassThirdParty.String()).Inc()

	if i.online.Load() {
		if entry, err := i.fetch(c.Request.Context(), target); err == nil {
			i.putAsync(entry)
			i.serveEntry(c, entry, "MISS")
			return
		}
	}

	metricFallbacks.WithLabelValues(ClassThirdParty.String()).Inc()
	body, contentType := SynthesizeFallback(target)
	i.logger.Warn("third-party resource synthesized",
		zap.String(logger.FieldURL, target),
	)
	i.serveBody(c, http.StatusOK, contentType, body, "FALLBACK")
}

// fetch 限时抓取一个上游资源
func (i *Interceptor) fetch(ctx context.Context, target string) (*cache.Entry, error) {
	ctx, cancel := context.WithTimeout(ctx, i.config.ThirdPartyTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}
	resp, err := i.client.Do(req)
	if err != nil {
		metricFetchFailures.Inc()
		i.logger.Warn("upstream fetch failed", zap.String(logger.FieldURL, target), zap.Error(err))
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		metricFetchFailures.Inc()
		return nil, err
	}

	header := make(map[string]string, len(resp.Header))
	for name := range resp.Header {
		if strings.EqualFold(name, "Set-Cookie") {
			continue
		}
		header[name] = resp.Header.Get(name)
	}
	return &cache.Entry{
		URL:       target,
		Status:    resp.StatusCode,
		Header:    header,
		Body:      body,
		FetchedAt: timex.Now(),
	}, nil
}

func (i *Interceptor) serveEntry(c *gin.Context, entry *cache.Entry, cacheState string) {
	for name, value := range entry.Header {
		c.Header(name, value)
	}
	contentType := entry.Header["Content-Type"]
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.Header("X-Cache", cacheState)
	c.Data(entry.Status, contentType, entry.Body)
	c.Abort()
}

func (i *Interceptor) serveBody(c *gin.Context, status int, contentType string, body []byte, cacheState string) {
	c.Header("X-Cache", cacheState)
	c.Data(status, contentType, body)
	c.Abort()
}

// populateAsync 异步回填一条同源资源
func (i *Interceptor) populateAsync(path string, status int, contentType string, body []byte) {
	i.putAsync(&cache.Entry{
		URL:       path,
		Status:    status,
		Header:    map[string]string{"Content-Type": contentType},
		Body:      body,
		FetchedAt: timex.Now(),
	})
}

// putAsync 缓存写入不挡响应，失败只记日志
func (i *Interceptor) putAsync(entry *cache.Entry) {
	go func() {
		if err := i.cache.Put(entry); err != nil {
			i.logger.Error("cache populate failed",
				zap.String(logger.FieldURL, entry.URL),
				zap.Error(err),
			)
		}
	}()
}

// Install 安装阶段：把全部壳资源写进当前缓存代，再尽力预抓取第三方允许名单
// 第三方抓取失败不阻断安装
func (i *Interceptor) Install(ctx context.Context) error {
	for _, path := range i.assets.List() {
		body, contentType, err := i.assets.Open(path)
		if err != nil {
			return err
		}
		entry := &cache.Entry{
			URL:       path,
			Status:    http.StatusOK,
			Header:    map[string]string{"Content-Type": contentType},
			Body:      body,
			FetchedAt: timex.Now(),
		}
		if err := i.cache.Put(entry); err != nil {
			return err
		}
	}
	i.logger.Info("shell assets installed",
		zap.String(logger.FieldGeneration, i.cache.Generation()),
		zap.Int("count", len(i.assets.List())),
	)

	for _, target := range i.config.PrecacheURLs {
		entry, err := i.fetch(ctx, target)
		if err != nil {
			continue
		}
		if err := i.cache.Put(entry); err != nil {
			i.logger.Warn("precache write failed", zap.String(logger.FieldURL, target), zap.Error(err))
		}
	}
	return nil
}

// Activate 激活阶段：清掉历史缓存代并广播 OfflineReady
func (i *Interceptor) Activate() error {
	if err := i.cache.PurgeStale(); err != nil {
		return err
	}
	i.broadcast(code.Success.Clone().WithData(gin.H{"generation": i.cache.Generation()}), ActionOfflineReady)
	return nil
}

// ClearAll 清除全部缓存代与数据镜像，用户主动发起的重置
func (i *Interceptor) ClearAll() error {
	return i.cache.PurgeAll()
}
