package task

import (
	"context"
	"net/http"
	"time"

	"github.com/haierkeys/offline-note-vault/internal/app"

	"go.uber.org/zap"
)

// NetworkProbeTask 周期探测外网连通性，翻转结果回写到离线网关
type NetworkProbeTask struct {
	app      *app.App
	logger   *zap.Logger
	client   *http.Client
	probeURL string
	interval time.Duration
}

// NewNetworkProbeTask 创建网络探测任务
func NewNetworkProbeTask(appContainer *app.App) *NetworkProbeTask {
	cfg := appContainer.Config()
	return &NetworkProbeTask{
		app:      appContainer,
		logger:   appContainer.Logger(),
		client:   &http.Client{Timeout: cfg.GetThirdPartyTimeout()},
		probeURL: cfg.Interceptor.ProbeURL,
		interval: cfg.GetProbeInterval(),
	}
}

// Name returns the task name
func (t *NetworkProbeTask) Name() string {
	return "NetworkProbe"
}

// LoopInterval returns the execution interval
func (t *NetworkProbeTask) LoopInterval() time.Duration {
	return t.interval
}

// IsStartupRun 启动即探测一次，尽快纠正默认在线假设
func (t *NetworkProbeTask) IsStartupRun() bool {
	return true
}

// Run 发送探测请求，2xx/3xx 视为在线
func (t *NetworkProbeTask) Run(ctx context.Context) error {
	online := t.probe(ctx)
	t.app.Interceptor().SetOnline(online)
	t.logger.Debug("network probe", zap.Bool("online", online))
	return nil
}

func (t *NetworkProbeTask) probe(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, t.probeURL, nil)
	if err != nil {
		return false
	}
	resp, err := t.client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode < http.StatusBadRequest
}
