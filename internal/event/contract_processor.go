package event

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"github.com/rodrigogk87/crowdfunding/internal/host"
	"github.com/rodrigogk87/crowdfunding/internal/logger"
	"github.com/rodrigogk87/crowdfunding/internal/logic"
	"github.com/rodrigogk87/crowdfunding/internal/model"
)

// ContractInspector 读取合约当前状态
type ContractInspector interface {
	Inspect(ctx context.Context, addr common.Address) (*host.ContractState, error)
}

// ContractProcessor 合约部署事件处理器
type ContractProcessor struct {
	inspector     ContractInspector
	contractLogic *logic.ContractLogic
}

// NewContractProcessor 创建合约部署事件处理器
func NewContractProcessor(inspector ContractInspector, contractLogic *logic.ContractLogic) *ContractProcessor {
	return &ContractProcessor{
		inspector:     inspector,
		contractLogic: contractLogic,
	}
}

// Process 处理合约部署事件，目标和截止时间从账本读取
func (p *ContractProcessor) Process(ctx context.Context, event *model.EventModel) error {
	state, err := p.inspector.Inspect(ctx, common.HexToAddress(event.ContractAddress))
	if err != nil {
		return fmt.Errorf("failed to inspect contract %s: %w", event.ContractAddress, err)
	}

	contract := model.ContractModel{
		Address:    event.ContractAddress,
		Owner:      state.Owner.Hex(),
		Target:     state.Target.String(),
		Deadline:   state.Deadline,
		TxHash:     event.TxHash,
		BlockNum:   event.BlockNum,
		DeployedAt: event.BlockTime,
	}

	created, err := p.contractLogic.CreateContract(&contract)
	if err != nil {
		return err
	}
	if created {
		logger.Info("Indexed contract %s (owner: %s, target: %s, deadline: %d)",
			contract.Address, contract.Owner, contract.Target, contract.Deadline)
	}

	return nil
}
