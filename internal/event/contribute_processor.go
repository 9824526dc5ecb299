package event

import (
	"context"

	"github.com/rodrigogk87/crowdfunding/internal/logger"
	"github.com/rodrigogk87/crowdfunding/internal/logic"
	"github.com/rodrigogk87/crowdfunding/internal/model"
)

// ContributeProcessor 注资事件处理器
type ContributeProcessor struct {
	contributeLogic *logic.ContributeRecordLogic
}

// NewContributeProcessor 创建注资事件处理器
func NewContributeProcessor(contributeLogic *logic.ContributeRecordLogic) *ContributeProcessor {
	return &ContributeProcessor{
		contributeLogic: contributeLogic,
	}
}

// Process 处理注资事件
func (p *ContributeProcessor) Process(_ context.Context, event *model.EventModel) error {
	contribution := model.ContributeRecordModel{
		ContractAddress: event.ContractAddress,
		Address:         event.Account,
		Amount:          event.Amount,
		TxHash:          event.TxHash,
		EventSeq:        event.Seq,
		BlockNum:        event.BlockNum,
		BlockTime:       event.BlockTime,
	}

	// 通过logic层创建注资记录
	created, err := p.contributeLogic.CreateContributeRecord(&contribution)
	if err != nil {
		logger.Error("Failed to create contribution record: %v", err)
		return err
	}

	if created {
		logger.Info("Processed contribution: %s from %s to contract %s",
			contribution.Amount, contribution.Address, contribution.ContractAddress)
	}

	return nil
}
