package event

import (
	"context"
	"fmt"

	"github.com/rodrigogk87/crowdfunding/internal/crowdfunding"
	"github.com/rodrigogk87/crowdfunding/internal/host"
	"github.com/rodrigogk87/crowdfunding/internal/logger"
	"github.com/rodrigogk87/crowdfunding/internal/logic"
	"github.com/rodrigogk87/crowdfunding/internal/model"
)

// EventSource 有序事件日志
type EventSource interface {
	Events(fromSeq uint64, limit int) ([]host.EventRecord, error)
}

// Processor 单类事件处理器
type Processor interface {
	Process(ctx context.Context, event *model.EventModel) error
}

// Monitor 将账本事件同步到数据库并分发给处理器
type Monitor struct {
	source     EventSource
	eventLogic *logic.EventLogic
	processors map[string]Processor
	batchSize  int
}

// NewMonitor 创建事件同步器
func NewMonitor(source EventSource, eventLogic *logic.EventLogic, batchSize int) *Monitor {
	if batchSize <= 0 {
		batchSize = 500
	}
	return &Monitor{
		source:     source,
		eventLogic: eventLogic,
		processors: make(map[string]Processor),
		batchSize:  batchSize,
	}
}

// Register 为事件类型注册处理器
func (m *Monitor) Register(eventType string, p Processor) {
	m.processors[eventType] = p
}

// NewDefaultMonitor 创建注册了全部处理器的事件同步器
func NewDefaultMonitor(
	ledger interface {
		EventSource
		ContractInspector
	},
	eventLogic *logic.EventLogic,
	contractLogic *logic.ContractLogic,
	contributeLogic *logic.ContributeRecordLogic,
	refundLogic *logic.RefundRecordLogic,
	settlementLogic *logic.SettlementRecordLogic,
	batchSize int,
) *Monitor {
	m := NewMonitor(ledger, eventLogic, batchSize)

	// 创建事件处理器
	m.Register(host.EventContractDeployed, NewContractProcessor(ledger, contractLogic))
	m.Register(crowdfunding.EventFunded, NewContributeProcessor(contributeLogic))
	m.Register(crowdfunding.EventRefunded, NewRefundProcessor(refundLogic))
	m.Register(crowdfunding.EventFundsClaimed, NewSettlementProcessor(settlementLogic))

	return m
}

// Sync 先重试未处理的事件，再拉取新事件，返回本次新记录的事件数
func (m *Monitor) Sync(ctx context.Context) (int, error) {
	if err := m.retryPending(ctx); err != nil {
		return 0, err
	}

	// 获取最后处理的事件序号
	lastSeq, err := m.eventLogic.GetLastSeq()
	if err != nil {
		return 0, err
	}

	records, err := m.source.Events(lastSeq+1, m.batchSize)
	if err != nil {
		return 0, fmt.Errorf("failed to read ledger events: %w", err)
	}

	saved := 0
	for _, rec := range records {
		if err := ctx.Err(); err != nil {
			return saved, err
		}

		event := toEventModel(rec)
		created, err := m.eventLogic.CreateEvent(&event)
		if err != nil {
			return saved, fmt.Errorf("failed to save event %d: %w", rec.Seq, err)
		}
		if !created {
			continue
		}
		saved++

		logger.Debug("Saved event %d: %s in block %d", event.Seq, event.EventType, event.BlockNum)

		if err := m.handleEvent(ctx, &event); err != nil {
			logger.Error("Error processing event %d (%s): %v", event.Seq, event.EventType, err)
		}
	}

	if saved > 0 {
		logger.Info("Synced %d ledger events up to seq %d", saved, records[len(records)-1].Seq)
	}
	return saved, nil
}

// retryPending 按序号重新处理之前失败的事件
func (m *Monitor) retryPending(ctx context.Context) error {
	pending, err := m.eventLogic.GetUnprocessedEvents(m.batchSize)
	if err != nil {
		return err
	}

	for i := range pending {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := m.handleEvent(ctx, &pending[i]); err != nil {
			logger.Warn("Retry of event %d (%s) failed: %v", pending[i].Seq, pending[i].EventType, err)
		}
	}
	return nil
}

// handleEvent 处理事件
func (m *Monitor) handleEvent(ctx context.Context, event *model.EventModel) error {
	p, ok := m.processors[event.EventType]
	if !ok {
		logger.Warn("Unknown event type: %s", event.EventType)
	} else if err := p.Process(ctx, event); err != nil {
		return err
	}

	// 标记事件为已处理
	if err := m.eventLogic.UpdateEventProcessed(event.Id, true); err != nil {
		return fmt.Errorf("failed to mark event as processed: %w", err)
	}
	event.Processed = true

	return nil
}

func toEventModel(rec host.EventRecord) model.EventModel {
	amount := "0"
	if rec.Amount != nil {
		amount = rec.Amount.String()
	}
	return model.EventModel{
		Seq:             rec.Seq,
		ContractAddress: rec.Contract.Hex(),
		EventType:       rec.Name,
		Account:         rec.Account.Hex(),
		Amount:          amount,
		TxHash:          rec.TxHash.Hex(),
		BlockNum:        rec.Height,
		BlockTime:       rec.Timestamp,
	}
}
