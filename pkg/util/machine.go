package util

import (
	"os"
	"strings"
	"sync"

	"github.com/denisbrodbeck/machineid"
)

var (
	machineID      string
	machineIDMutex sync.Mutex
)

// GetMachineID 获取当前机器的唯一标识符
// 优先使用 machineid 库，Linux 下回退读取主板序列号
// 全部失败时返回空字符串，调用方自行决定回退策略
func GetMachineID() string {
	machineIDMutex.Lock()
	defer machineIDMutex.Unlock()

	if machineID != "" {
		return machineID
	}

	if id, err := machineid.ID(); err == nil && id != "" {
		machineID = id
		return machineID
	}

	if content, err := os.ReadFile("/sys/class/dmi/id/board_serial"); err == nil {
		if id := strings.TrimSpace(string(content)); id != "" {
			machineID = id
			return machineID
		}
	}

	return ""
}
