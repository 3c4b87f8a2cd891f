package task

import (
	"github.com/haierkeys/miknow-notebook-service/internal/app"
	"github.com/haierkeys/miknow-notebook-service/pkg/safe_close"

	"go.uber.org/zap"
)

// Manager 任务管理器,负责创建和管理所有任务
type Manager struct {
	app       *app.App
	scheduler *Scheduler
	logger    *zap.Logger
}

// NewManager 创建任务管理器
func NewManager(a *app.App, sc *safe_close.SafeClose) *Manager {
	return &Manager{
		app:       a,
		scheduler: NewScheduler(a.Logger(), sc),
		logger:    a.Logger(),
	}
}

// RegisterTasks 通过注册表创建所有任务，单个任务创建失败不影响其它任务
func (m *Manager) RegisterTasks() error {
	var firstErr error
	for _, factory := range GetFactories() {
		t, err := factory(m.app)
		if err != nil {
			m.logger.Warn("failed to create task", zap.Error(err))
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		if t == nil {
			continue
		}
		m.scheduler.AddTask(t)
	}
	return firstErr
}

// Start 启动所有已注册的任务
func (m *Manager) Start() {
	m.scheduler.Start()
}
