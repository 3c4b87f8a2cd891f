package task

import (
	"context"
	"time"

	"github.com/haierkeys/miknow-notebook-service/internal/app"
	"github.com/haierkeys/miknow-notebook-service/internal/domain"
	"github.com/haierkeys/miknow-notebook-service/internal/service"
	"github.com/haierkeys/miknow-notebook-service/pkg/logger"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// ExportSnapshotTask 按 cron 表达式把每个工作区的图谱导出到存储
// 每分钟检查一次，上次执行后的下一个触发时间已过时才执行
type ExportSnapshotTask struct {
	schedule cron.Schedule
	store    domain.Store
	exporter service.ExportService
	logger   *zap.Logger
	now      func() time.Time
	last     time.Time
}

// NewExportSnapshotTask 创建定时导出任务，spec 为标准 5 段 cron 表达式
func NewExportSnapshotTask(spec string, store domain.Store, exporter service.ExportService, lg *zap.Logger) (*ExportSnapshotTask, error) {
	schedule, err := cron.ParseStandard(spec)
	if err != nil {
		return nil, err
	}
	if lg == nil {
		lg = zap.NewNop()
	}
	t := &ExportSnapshotTask{
		schedule: schedule,
		store:    store,
		exporter: exporter,
		logger:   lg,
		now:      time.Now,
	}
	t.last = t.now()
	return t, nil
}

func (t *ExportSnapshotTask) Name() string {
	return "ExportSnapshot"
}

func (t *ExportSnapshotTask) LoopInterval() time.Duration {
	return time.Minute
}

func (t *ExportSnapshotTask) IsStartupRun() bool {
	return false
}

// snapshotName 导出文件名，按触发时间区分
func snapshotName(at time.Time) string {
	return "graph-" + at.Format("20060102-1504")
}

func (t *ExportSnapshotTask) Run(ctx context.Context) error {
	now := t.now()
	if t.schedule.Next(t.last).After(now) {
		return nil
	}
	t.last = now

	uids, err := t.store.UIDsWithKey(ctx, domain.KeyGraphData)
	if err != nil {
		return err
	}

	var exported int
	for _, uid := range uids {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		key, err := t.exporter.Export(ctx, uid, service.ExportGraph, snapshotName(now))
		if err != nil {
			t.logger.Warn("task log",
				zap.String("task", t.Name()),
				zap.Int64(logger.FieldUID, uid),
				zap.Error(err))
			continue
		}
		exported++
		t.logger.Debug("task log", zap.String("task", t.Name()), zap.String(logger.FieldFileKey, key))
	}

	t.logger.Info("task log",
		zap.String("task", t.Name()),
		zap.Int("workspaces", len(uids)),
		zap.Int("exported", exported))
	return nil
}

func init() {
	Register(func(a *app.App) (Task, error) {
		spec := a.Config().Export.Cron
		if spec == "" || !a.ExportService.Enabled() {
			return nil, nil
		}
		return NewExportSnapshotTask(spec, a.Store, a.ExportService, a.Logger())
	})
}
