package api_router

import (
	"time"

	"github.com/haierkeys/offline-note-vault/internal/app"
	pkgapp "github.com/haierkeys/offline-note-vault/pkg/app"
	"github.com/haierkeys/offline-note-vault/pkg/code"

	"github.com/gin-gonic/gin"
	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/host"
	"github.com/shirou/gopsutil/v4/mem"
)

// HealthHandler 健康检查处理器，挂在内部管理端口
type HealthHandler struct {
	*Handler
}

// NewHealthHandler 创建 HealthHandler 实例
func NewHealthHandler(a *app.App) *HealthHandler {
	return &HealthHandler{
		Handler: NewHandler(a),
	}
}

type healthRes struct {
	Status        string  `json:"status"`
	Users         int     `json:"users"`
	NetworkOnline bool    `json:"networkOnline"`
	UptimeSeconds uint64  `json:"uptimeSeconds"`
	CPUPercent    float64 `json:"cpuPercent"`
	MemUsed       uint64  `json:"memUsed"`
	MemTotal      uint64  `json:"memTotal"`
}

// Health 进程与主机健康状态
func (h *HealthHandler) Health(c *gin.Context) {
	response := pkgapp.NewResponse(c)

	res := healthRes{
		Status:        "ok",
		Users:         h.App.Store().Count(),
		NetworkOnline: h.App.Interceptor().Online(),
	}

	if uptime, err := host.Uptime(); err == nil {
		res.UptimeSeconds = uptime
	}
	if percents, err := cpu.Percent(time.Duration(0), false); err == nil && len(percents) > 0 {
		res.CPUPercent = percents[0]
	}
	if vm, err := mem.VirtualMemory(); err == nil {
		res.MemUsed = vm.Used
		res.MemTotal = vm.Total
	}

	response.ToResponse(code.Success.Clone().WithData(res))
}
