package task

import (
	"context"
	"time"

	"github.com/go-co-op/gocron/v2"

	"github.com/rodrigogk87/crowdfunding/internal/logger"
)

// EventSyncer 事件同步接口
type EventSyncer interface {
	Sync(ctx context.Context) (int, error)
}

// EventSyncJob 定时把账本事件同步到数据库
type EventSyncJob struct {
	syncer   EventSyncer
	interval time.Duration
}

// NewEventSyncJob 创建事件同步任务
func NewEventSyncJob(syncer EventSyncer, interval time.Duration) *EventSyncJob {
	return &EventSyncJob{
		syncer:   syncer,
		interval: interval,
	}
}

// GetName 获取任务名称
func (j *EventSyncJob) GetName() string {
	return "event_sync"
}

// GetSchedule 获取调度配置
func (j *EventSyncJob) GetSchedule() gocron.JobDefinition {
	return gocron.DurationJob(j.interval)
}

// Execute 执行任务，一直同步到没有新事件
func (j *EventSyncJob) Execute() {
	ctx, cancel := context.WithTimeout(context.Background(), j.interval)
	defer cancel()

	total := 0
	for {
		n, err := j.syncer.Sync(ctx)
		total += n
		if err != nil {
			logger.Error("Event sync failed after %d events: %v", total, err)
			return
		}
		if n == 0 {
			break
		}
	}

	if total > 0 {
		logger.Info("Event sync task completed. Saved %d events", total)
	}
}
