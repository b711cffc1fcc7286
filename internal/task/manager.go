package task

import (
	"github.com/haierkeys/offline-note-vault/internal/app"
	"github.com/haierkeys/offline-note-vault/pkg/safe_close"

	"go.uber.org/zap"
)

// Manager 任务管理器，负责创建和管理所有任务
type Manager struct {
	scheduler *Scheduler
	app       *app.App
	logger    *zap.Logger
}

// NewManager 创建任务管理器
func NewManager(appContainer *app.App, logger *zap.Logger, sc *safe_close.SafeClose) *Manager {
	return &Manager{
		scheduler: NewScheduler(logger, sc),
		app:       appContainer,
		logger:    logger,
	}
}

// RegisterTasks 注册所有任务
func (m *Manager) RegisterTasks() error {
	probeTask := NewNetworkProbeTask(m.app)
	m.scheduler.AddTask(probeTask)

	backupTask, err := NewBackupTask(m.app)
	if err != nil {
		m.logger.Warn("failed to create backup task", zap.Error(err))
		return err
	}
	if backupTask != nil {
		m.scheduler.AddTask(backupTask)
	} else {
		m.logger.Info("backup task is disabled")
	}

	return nil
}

// Start 启动所有已注册的任务
func (m *Manager) Start() {
	m.scheduler.Start()
}
