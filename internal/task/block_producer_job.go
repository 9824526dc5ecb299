package task

import (
	"context"
	"time"

	"github.com/go-co-op/gocron/v2"

	"github.com/rodrigogk87/crowdfunding/internal/host"
	"github.com/rodrigogk87/crowdfunding/internal/logger"
)

// BlockSealer 出块接口
type BlockSealer interface {
	Head() (host.Head, error)
	SealBlock(ctx context.Context, timestamp uint64) (host.Head, error)
}

// BlockProducerJob 按墙上时钟出块
type BlockProducerJob struct {
	ledger   BlockSealer
	interval time.Duration
	now      func() time.Time
}

// NewBlockProducerJob 创建出块任务
func NewBlockProducerJob(ledger BlockSealer, interval time.Duration) *BlockProducerJob {
	return &BlockProducerJob{
		ledger:   ledger,
		interval: interval,
		now:      time.Now,
	}
}

// GetName 获取任务名称
func (j *BlockProducerJob) GetName() string {
	return "block_producer"
}

// GetSchedule 获取调度配置
func (j *BlockProducerJob) GetSchedule() gocron.JobDefinition {
	return gocron.DurationJob(j.interval)
}

// Execute 执行任务
func (j *BlockProducerJob) Execute() {
	head, err := j.ledger.Head()
	if err != nil {
		logger.Error("Failed to read chain head: %v", err)
		return
	}

	// 时钟被手动推进过时沿用链上时间
	ts := uint64(j.now().Unix())
	if ts < head.Timestamp {
		ts = head.Timestamp
	}

	ctx, cancel := context.WithTimeout(context.Background(), j.interval)
	defer cancel()

	sealed, err := j.ledger.SealBlock(ctx, ts)
	if err != nil {
		logger.Error("Failed to seal block: %v", err)
		return
	}
	logger.Debug("Produced block %d at %d", sealed.Height, sealed.Timestamp)
}
