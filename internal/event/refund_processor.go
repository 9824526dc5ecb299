package event

import (
	"context"

	"github.com/rodrigogk87/crowdfunding/internal/logger"
	"github.com/rodrigogk87/crowdfunding/internal/logic"
	"github.com/rodrigogk87/crowdfunding/internal/model"
)

// RefundProcessor 退款事件处理器
type RefundProcessor struct {
	refundLogic *logic.RefundRecordLogic
}

// NewRefundProcessor 创建退款事件处理器
func NewRefundProcessor(refundLogic *logic.RefundRecordLogic) *RefundProcessor {
	return &RefundProcessor{
		refundLogic: refundLogic,
	}
}

// Process 处理退款事件
func (p *RefundProcessor) Process(_ context.Context, event *model.EventModel) error {
	refund := model.RefundRecordModel{
		ContractAddress: event.ContractAddress,
		Address:         event.Account,
		Amount:          event.Amount,
		TxHash:          event.TxHash,
		EventSeq:        event.Seq,
		BlockNum:        event.BlockNum,
		BlockTime:       event.BlockTime,
	}

	created, err := p.refundLogic.CreateRefundRecord(&refund)
	if err != nil {
		logger.Error("Failed to create refund record: %v", err)
		return err
	}

	if created {
		logger.Info("Processed refund: %s to %s from contract %s",
			refund.Amount, refund.Address, refund.ContractAddress)
	}

	return nil
}
