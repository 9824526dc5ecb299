package logic

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/rodrigogk87/crowdfunding/internal/model"
)

// ContractLogic 合约投影业务逻辑
type ContractLogic struct {
	db *gorm.DB
}

// NewContractLogic 创建合约投影业务逻辑
func NewContractLogic(db *gorm.DB) *ContractLogic {
	return &ContractLogic{db: db}
}

// CreateContract 记录新部署的合约，地址已存在时忽略
func (c *ContractLogic) CreateContract(contract *model.ContractModel) (bool, error) {
	// 验证合约数据
	if err := c.validateContract(contract); err != nil {
		return false, err
	}

	// 设置默认值
	contract.Status = model.ContractStatusFundingPeriod
	contract.TotalFunded = "0"
	contract.TotalRefunded = "0"
	contract.TotalClaimed = "0"
	contract.ContributorCount = 0

	result := c.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "address"}},
		DoNothing: true,
	}).Create(contract)
	if result.Error != nil {
		return false, fmt.Errorf("创建合约记录失败: %w", result.Error)
	}

	return result.RowsAffected > 0, nil
}

// GetContract 根据地址获取合约
func (c *ContractLogic) GetContract(address string) (*model.ContractModel, error) {
	var contract model.ContractModel
	if err := c.db.Where("address = ?", address).First(&contract).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrContractNotFound, address)
		}
		return nil, fmt.Errorf("获取合约详情失败: %w", err)
	}

	return &contract, nil
}

// GetContracts 获取合约列表
func (c *ContractLogic) GetContracts(owner, status string, page, pageSize int) ([]model.ContractModel, int64, error) {
	var contracts []model.ContractModel
	var total int64

	filter := func(db *gorm.DB) *gorm.DB {
		if owner != "" {
			db = db.Where("owner = ?", owner)
		}
		if status != "" {
			db = db.Where("status = ?", status)
		}
		return db
	}

	// 获取总数
	if err := c.db.Model(&model.ContractModel{}).Scopes(filter).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("获取合约总数失败: %w", err)
	}

	// 分页查询
	offset, limit := paginate(page, pageSize)
	if err := c.db.Scopes(filter).
		Order("id DESC").
		Offset(offset).
		Limit(limit).
		Find(&contracts).Error; err != nil {
		return nil, 0, fmt.Errorf("获取合约列表失败: %w", err)
	}

	return contracts, total, nil
}

// GetContractsPastDeadline 获取已过截止时间但仍标记为募集中的合约
func (c *ContractLogic) GetContractsPastDeadline(now uint64, limit int) ([]model.ContractModel, error) {
	var contracts []model.ContractModel
	if err := c.db.Where("status = ? AND deadline < ?", model.ContractStatusFundingPeriod, now).
		Order("deadline ASC").
		Limit(limit).
		Find(&contracts).Error; err != nil {
		return nil, fmt.Errorf("获取待结算合约失败: %w", err)
	}

	return contracts, nil
}

// UpdateContractStatus 更新合约状态
func (c *ContractLogic) UpdateContractStatus(address string, status model.ContractStatus) error {
	result := c.db.Model(&model.ContractModel{}).Where("address = ?", address).Update("status", status)
	if result.Error != nil {
		return fmt.Errorf("更新合约状态失败: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: %s", ErrContractNotFound, address)
	}

	return nil
}

// GetAllContractStats 获取所有合约的统计信息
func (c *ContractLogic) GetAllContractStats() (map[string]interface{}, error) {
	// 统计合约总数
	var totalContracts int64
	if err := c.db.Model(&model.ContractModel{}).Count(&totalContracts).Error; err != nil {
		return nil, fmt.Errorf("获取合约总数失败: %w", err)
	}

	// 统计各状态合约数量
	counts := make(map[model.ContractStatus]int64)
	for _, status := range []model.ContractStatus{
		model.ContractStatusFundingPeriod,
		model.ContractStatusSuccessful,
		model.ContractStatusFailed,
	} {
		var n int64
		if err := c.db.Model(&model.ContractModel{}).Where("status = ?", status).Count(&n).Error; err != nil {
			return nil, fmt.Errorf("获取合约状态统计失败: %w", err)
		}
		counts[status] = n
	}

	// 统计总募集金额
	var funded []string
	if err := c.db.Model(&model.ContractModel{}).Pluck("total_funded", &funded).Error; err != nil {
		return nil, fmt.Errorf("获取募集金额失败: %w", err)
	}
	totalFunded, err := sumAmounts(funded)
	if err != nil {
		return nil, err
	}

	// 统计总贡献者数量（去重）
	var totalContributors int64
	if err := c.db.Model(&model.ContributeRecordModel{}).Distinct("address").Count(&totalContributors).Error; err != nil {
		return nil, fmt.Errorf("获取贡献者数量失败: %w", err)
	}

	return map[string]interface{}{
		"totalContracts":      totalContracts,
		"fundingContracts":    counts[model.ContractStatusFundingPeriod],
		"successfulContracts": counts[model.ContractStatusSuccessful],
		"failedContracts":     counts[model.ContractStatusFailed],
		"totalFunded":         totalFunded.String(),
		"totalContributors":   totalContributors,
	}, nil
}

// validateContract 验证合约数据
func (c *ContractLogic) validateContract(contract *model.ContractModel) error {
	if !common.IsHexAddress(contract.Address) {
		return errors.New("合约地址无效")
	}
	if !common.IsHexAddress(contract.Owner) {
		return errors.New("所有者地址无效")
	}
	target, ok := new(big.Int).SetString(contract.Target, 10)
	if !ok || target.Sign() < 0 {
		return errors.New("目标金额必须是非负整数")
	}
	if contract.TxHash == "" {
		return errors.New("交易哈希不能为空")
	}
	return nil
}
