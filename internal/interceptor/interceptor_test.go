package interceptor

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/haierkeys/offline-note-vault/internal/cache"
	"github.com/haierkeys/offline-note-vault/pkg/code"
	"github.com/haierkeys/offline-note-vault/pkg/storage/local_fs"
	"github.com/haierkeys/offline-note-vault/pkg/timex"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// mapAssets 用内存映射模拟内嵌前端资源
type mapAssets map[string]string

func (m mapAssets) Open(path string) ([]byte, string, error) {
	content, ok := m[path]
	if !ok {
		return nil, "", errors.New("asset not found: " + path)
	}
	contentType := "application/octet-stream"
	switch {
	case len(path) > 5 && path[len(path)-5:] == ".html":
		contentType = "text/html; charset=utf-8"
	case len(path) > 4 && path[len(path)-4:] == ".css":
		contentType = "text/css; charset=utf-8"
	case len(path) > 3 && path[len(path)-3:] == ".js":
		contentType = "application/javascript; charset=utf-8"
	}
	return []byte(content), contentType, nil
}

func (m mapAssets) List() []string {
	paths := make([]string, 0, len(m))
	for path := range m {
		paths = append(paths, path)
	}
	return paths
}

// deadTransport 模拟完全断网的传输层
type deadTransport struct{}

func (deadTransport) RoundTrip(*http.Request) (*http.Response, error) {
	return nil, errors.New("network unreachable")
}

func newTestCache(t *testing.T, version string) *cache.ResponseCache {
	t.Helper()
	backend, err := local_fs.NewClient(&local_fs.Config{SavePath: t.TempDir()})
	require.NoError(t, err)
	return cache.New(backend, version, zap.NewNop())
}

func newTestEngine(itc *Interceptor) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(itc.Run())
	return r
}

func doRequest(r *gin.Engine, method, target, accept string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	if accept != "" {
		req.Header.Set("Accept", accept)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestClassify(t *testing.T) {
	allowlist := []string{"https://cdn.quilljs.com/", "https://unpkg.com/feather-icons"}

	tests := []struct {
		name   string
		method string
		target string
		accept string
		want   Class
	}{
		{"导航请求", http.MethodGet, "/", "text/html,application/xhtml+xml", ClassNavigation},
		{"同源静态资源", http.MethodGet, "/static/app.css", "text/css,*/*", ClassSameOrigin},
		{"名单内第三方", http.MethodGet, "/gateway?url=https://cdn.quilljs.com/1.3.6/quill.min.js", "*/*", ClassThirdParty},
		{"名单外第三方", http.MethodGet, "/gateway?url=https://evil.example/x.js", "*/*", ClassPassthrough},
		{"非GET请求", http.MethodPost, "/api/user/login", "application/json", ClassPassthrough},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.target, nil)
			req.Header.Set("Accept", tt.accept)
			assert.Equal(t, tt.want, Classify(req, allowlist))
		})
	}
}

// 缓存内的同源资源在断网时必须逐字节回放
func TestInterceptor_ServeSameOriginOfflineByteForByte(t *testing.T) {
	responseCache := newTestCache(t, "v3")
	body := []byte("body{background:#fff}\n/* 0x00ff binary-ish \x01\x02 */")
	require.NoError(t, responseCache.Put(&cache.Entry{
		URL:       "/static/app.css",
		Status:    200,
		Header:    map[string]string{"Content-Type": "text/css; charset=utf-8"},
		Body:      body,
		FetchedAt: timex.Now(),
	}))

	// 资源源为空，网络不可达
	itc := New(responseCache, mapAssets{}, &Config{}, zap.NewNop(),
		WithHTTPClient(&http.Client{Transport: deadTransport{}}))
	itc.SetOnline(false)

	w := doRequest(newTestEngine(itc), http.MethodGet, "/static/app.css", "text/css,*/*")

	assert.Equal(t, 200, w.Code)
	assert.Equal(t, body, w.Body.Bytes())
	assert.Equal(t, "HIT", w.Header().Get("X-Cache"))
}

func TestInterceptor_SameOriginMissOffline(t *testing.T) {
	itc := New(newTestCache(t, "v3"), mapAssets{}, &Config{}, zap.NewNop())

	w := doRequest(newTestEngine(itc), http.MethodGet, "/static/missing.js", "*/*")

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "40005")
}

// 第三方资源超时后必须返回非空的合成替代，而不是错误
func TestInterceptor_ThirdPartyTimeoutSynthesized(t *testing.T) {
	slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(500 * time.Millisecond)
		w.Write([]byte("too late"))
	}))
	defer slow.Close()

	target := slow.URL + "/quill.min.js"
	itc := New(newTestCache(t, "v3"), mapAssets{}, &Config{
		ThirdPartyTimeout: 50 * time.Millisecond,
		Allowlist:         []string{slow.URL},
	}, zap.NewNop())

	w := doRequest(newTestEngine(itc), http.MethodGet, "/gateway?url="+target, "*/*")

	assert.Equal(t, 200, w.Code)
	assert.NotEmpty(t, w.Body.Bytes())
	assert.NotEqual(t, "too late", w.Body.String())
	assert.Equal(t, "FALLBACK", w.Header().Get("X-Cache"))
}

func TestInterceptor_ThirdPartyFetchAndReplay(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/javascript")
		w.Write([]byte("window.Quill=1;"))
	}))
	defer upstream.Close()

	target := upstream.URL + "/quill.min.js"
	itc := New(newTestCache(t, "v3"), mapAssets{}, &Config{
		ThirdPartyTimeout: time.Second,
		Allowlist:         []string{upstream.URL},
	}, zap.NewNop())
	r := newTestEngine(itc)

	w := doRequest(r, http.MethodGet, "/gateway?url="+target, "*/*")
	require.Equal(t, 200, w.Code)
	assert.Equal(t, "window.Quill=1;", w.Body.String())
	assert.Equal(t, "MISS", w.Header().Get("X-Cache"))

	// 等异步回填落盘后断网回放
	assert.Eventually(t, func() bool {
		w := doRequest(r, http.MethodGet, "/gateway?url="+target, "*/*")
		return w.Header().Get("X-Cache") == "HIT"
	}, 2*time.Second, 20*time.Millisecond)

	upstream.Close()
	w = doRequest(r, http.MethodGet, "/gateway?url="+target, "*/*")
	assert.Equal(t, 200, w.Code)
	assert.Equal(t, "window.Quill=1;", w.Body.String())
}

// 应用壳彻底丢失时导航必须得到兜底页，永不失败
func TestInterceptor_NavigationTerminalFallback(t *testing.T) {
	itc := New(newTestCache(t, "v3"), mapAssets{}, &Config{}, zap.NewNop())

	w := doRequest(newTestEngine(itc), http.MethodGet, "/", "text/html")

	assert.Equal(t, 200, w.Code)
	assert.Contains(t, w.Body.String(), "Offline Note Vault")
	assert.Equal(t, "FALLBACK", w.Header().Get("X-Cache"))
}

func TestInterceptor_InstallActivate(t *testing.T) {
	backend, err := local_fs.NewClient(&local_fs.Config{SavePath: t.TempDir()})
	require.NoError(t, err)

	// 旧代残留一条
	oldCache := cache.New(backend, "v2", zap.NewNop())
	require.NoError(t, oldCache.Put(&cache.Entry{URL: ShellPath, Status: 200, Body: []byte("old shell")}))

	assets := mapAssets{
		ShellPath:        "<!DOCTYPE html><title>vault</title>",
		"/static/app.js": "console.log('vault')",
	}
	var gotAction string
	newCache := cache.New(backend, "v3", zap.NewNop())
	itc := New(newCache, assets, &Config{}, zap.NewNop(),
		WithNotifier(func(codeObj *code.Code, actionType string) {
			gotAction = actionType
		}))

	require.NoError(t, itc.Install(t.Context()))
	require.NoError(t, itc.Activate())

	assert.Equal(t, ActionOfflineReady, gotAction)

	entry, err := newCache.Get(ShellPath)
	require.NoError(t, err)
	assert.Contains(t, string(entry.Body), "vault")

	_, err = oldCache.Get(ShellPath)
	assert.ErrorIs(t, err, code.ErrorCacheEntryNotFound, "stale generation must be purged on activate")
}

func TestInterceptor_SetOnlineBroadcastsOnFlip(t *testing.T) {
	var actions []string
	itc := New(newTestCache(t, "v3"), mapAssets{}, &Config{}, zap.NewNop(),
		WithNotifier(func(codeObj *code.Code, actionType string) {
			actions = append(actions, actionType)
		}))

	itc.SetOnline(true) // 初始即在线，无翻转
	itc.SetOnline(false)
	itc.SetOnline(false)
	itc.SetOnline(true)

	assert.Equal(t, []string{ActionNetworkStatus, ActionNetworkStatus}, actions)
}
