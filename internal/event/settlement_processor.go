package event

import (
	"context"

	"github.com/rodrigogk87/crowdfunding/internal/logger"
	"github.com/rodrigogk87/crowdfunding/internal/logic"
	"github.com/rodrigogk87/crowdfunding/internal/model"
)

// SettlementProcessor 所有者领取事件处理器
type SettlementProcessor struct {
	settlementLogic *logic.SettlementRecordLogic
}

// NewSettlementProcessor 创建领取事件处理器
func NewSettlementProcessor(settlementLogic *logic.SettlementRecordLogic) *SettlementProcessor {
	return &SettlementProcessor{
		settlementLogic: settlementLogic,
	}
}

// Process 处理领取事件
func (p *SettlementProcessor) Process(_ context.Context, event *model.EventModel) error {
	settlement := model.SettlementRecordModel{
		ContractAddress: event.ContractAddress,
		Owner:           event.Account,
		Amount:          event.Amount,
		TxHash:          event.TxHash,
		EventSeq:        event.Seq,
		BlockNum:        event.BlockNum,
		BlockTime:       event.BlockTime,
	}

	created, err := p.settlementLogic.CreateSettlementRecord(&settlement)
	if err != nil {
		logger.Error("Failed to create settlement record: %v", err)
		return err
	}

	if created {
		logger.Info("Processed settlement: %s claimed by %s from contract %s",
			settlement.Amount, settlement.Owner, settlement.ContractAddress)
	}

	return nil
}
