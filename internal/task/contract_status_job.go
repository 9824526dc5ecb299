package task

import (
	"context"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-co-op/gocron/v2"
	"github.com/panjf2000/ants/v2"

	"github.com/rodrigogk87/crowdfunding/internal/event"
	"github.com/rodrigogk87/crowdfunding/internal/host"
	"github.com/rodrigogk87/crowdfunding/internal/logger"
	"github.com/rodrigogk87/crowdfunding/internal/logic"
	"github.com/rodrigogk87/crowdfunding/internal/model"
)

// inspectWorkers 并发读取合约状态的协程数上限
const inspectWorkers = 8

// StatusReader 读取链头和合约状态
type StatusReader interface {
	event.ContractInspector
	Head() (host.Head, error)
}

// ContractStatusJob 截止后刷新合约投影状态
type ContractStatusJob struct {
	ledger        StatusReader
	contractLogic *logic.ContractLogic
	interval      time.Duration
	batchSize     int
}

// NewContractStatusJob 创建合约状态更新任务
func NewContractStatusJob(ledger StatusReader, contractLogic *logic.ContractLogic, interval time.Duration, batchSize int) *ContractStatusJob {
	return &ContractStatusJob{
		ledger:        ledger,
		contractLogic: contractLogic,
		interval:      interval,
		batchSize:     batchSize,
	}
}

// GetName 获取任务名称
func (j *ContractStatusJob) GetName() string {
	return "contract_status_updater"
}

// GetSchedule 获取调度配置
func (j *ContractStatusJob) GetSchedule() gocron.JobDefinition {
	return gocron.DurationJob(j.interval)
}

// Execute 执行任务
func (j *ContractStatusJob) Execute() {
	head, err := j.ledger.Head()
	if err != nil {
		logger.Error("Failed to read chain head: %v", err)
		return
	}

	// 查找已过截止时间但仍为募集中的合约
	contracts, err := j.contractLogic.GetContractsPastDeadline(head.Timestamp, j.batchSize)
	if err != nil {
		logger.Error("Failed to fetch contracts for status update: %v", err)
		return
	}

	if len(contracts) == 0 {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), j.interval)
	defer cancel()

	states, err := j.inspectAll(ctx, contracts)
	if err != nil {
		logger.Error("Failed to inspect contracts: %v", err)
		return
	}

	updatedCount := 0
	for i, contract := range contracts {
		state := states[i]
		if state == nil {
			continue
		}

		newStatus := model.ContractStatusFrom(state.Status)
		if newStatus == contract.Status {
			continue
		}
		if err := j.contractLogic.UpdateContractStatus(contract.Address, newStatus); err != nil {
			logger.Error("Failed to update contract %s status to %s: %v", contract.Address, newStatus, err)
			continue
		}

		logger.Info("Updated contract %s status from %s to %s (funds: %s, target: %s)",
			contract.Address, contract.Status, newStatus, state.CurrentFunds, state.Target)
		updatedCount++
	}

	if updatedCount > 0 {
		logger.Info("Contract status update completed. Updated %d contracts", updatedCount)
	}
}

// inspectAll 用协程池并发读取合约状态，读取失败的位置为 nil
func (j *ContractStatusJob) inspectAll(ctx context.Context, contracts []model.ContractModel) ([]*host.ContractState, error) {
	size := len(contracts)
	if size > inspectWorkers {
		size = inspectWorkers
	}
	pool, err := ants.NewPool(size)
	if err != nil {
		return nil, err
	}
	defer pool.Release()

	states := make([]*host.ContractState, len(contracts))
	var wg sync.WaitGroup
	for i := range contracts {
		address := contracts[i].Address
		wg.Add(1)
		err := pool.Submit(func() {
			defer wg.Done()
			state, err := j.ledger.Inspect(ctx, common.HexToAddress(address))
			if err != nil {
				logger.Error("Failed to inspect contract %s: %v", address, err)
				return
			}
			states[i] = state
		})
		if err != nil {
			wg.Done()
			logger.Error("Failed to submit inspection of %s: %v", address, err)
		}
	}
	wg.Wait()

	return states, nil
}
