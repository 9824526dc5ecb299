package logic

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/rodrigogk87/crowdfunding/internal/model"
)

// ContributeRecordLogic 注资记录业务逻辑
type ContributeRecordLogic struct {
	db *gorm.DB
}

// NewContributeRecordLogic 创建注资记录业务逻辑
func NewContributeRecordLogic(db *gorm.DB) *ContributeRecordLogic {
	return &ContributeRecordLogic{db: db}
}

// CreateContributeRecord 创建注资记录并累加合约募集金额，同一事件只记录一次
func (c *ContributeRecordLogic) CreateContributeRecord(contributeRecord *model.ContributeRecordModel) (bool, error) {
	// 验证注资数据
	if err := c.validateContributeRecord(contributeRecord); err != nil {
		return false, err
	}

	// 开始事务
	tx := c.db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	// 该地址是否首次注资
	var prior int64
	if err := tx.Model(&model.ContributeRecordModel{}).
		Where("contract_address = ? AND address = ?", contributeRecord.ContractAddress, contributeRecord.Address).
		Count(&prior).Error; err != nil {
		tx.Rollback()
		return false, err
	}

	// 创建注资记录
	result := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "event_seq"}},
		DoNothing: true,
	}).Create(contributeRecord)
	if result.Error != nil {
		tx.Rollback()
		return false, result.Error
	}
	if result.RowsAffected == 0 {
		tx.Rollback()
		return false, nil
	}

	// 更新合约募集金额
	if err := addContractAmount(tx, contributeRecord.ContractAddress, "total_funded", contributeRecord.Amount); err != nil {
		tx.Rollback()
		return false, err
	}

	if prior == 0 {
		if err := tx.Model(&model.ContractModel{}).
			Where("address = ?", contributeRecord.ContractAddress).
			UpdateColumn("contributor_count", gorm.Expr("contributor_count + ?", 1)).Error; err != nil {
			tx.Rollback()
			return false, err
		}
	}

	// 提交事务
	if err := tx.Commit().Error; err != nil {
		return false, err
	}

	return true, nil
}

// GetContractContributeRecords 获取合约注资记录
func (c *ContributeRecordLogic) GetContractContributeRecords(contractAddress string, page, pageSize int) ([]model.ContributeRecordModel, int64, error) {
	var contributions []model.ContributeRecordModel
	var total int64

	// 获取总数
	if err := c.db.Model(&model.ContributeRecordModel{}).Where("contract_address = ?", contractAddress).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	// 获取数据
	offset, limit := paginate(page, pageSize)
	if err := c.db.Where("contract_address = ?", contractAddress).
		Offset(offset).
		Limit(limit).
		Order("event_seq DESC").
		Find(&contributions).Error; err != nil {
		return nil, 0, err
	}

	return contributions, total, nil
}

// GetUserContributeRecords 获取某地址在所有合约上的注资记录
func (c *ContributeRecordLogic) GetUserContributeRecords(address string, page, pageSize int) ([]model.ContributeRecordModel, int64, error) {
	var contributions []model.ContributeRecordModel
	var total int64

	if err := c.db.Model(&model.ContributeRecordModel{}).Where("address = ?", address).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset, limit := paginate(page, pageSize)
	if err := c.db.Where("address = ?", address).
		Offset(offset).
		Limit(limit).
		Order("event_seq DESC").
		Find(&contributions).Error; err != nil {
		return nil, 0, err
	}

	return contributions, total, nil
}

// validateContributeRecord 验证注资数据
func (c *ContributeRecordLogic) validateContributeRecord(contributeRecord *model.ContributeRecordModel) error {
	if contributeRecord.ContractAddress == "" {
		return errors.New("合约地址不能为空")
	}
	if !common.IsHexAddress(contributeRecord.Address) {
		return errors.New("注资者地址无效")
	}
	if _, err := parseAmount(contributeRecord.Amount); err != nil {
		return err
	}
	if contributeRecord.EventSeq == 0 {
		return errors.New("事件序号不能为空")
	}
	return nil
}

// GetContributeStats 获取注资统计信息
func (c *ContributeRecordLogic) GetContributeStats(contractAddress string) (map[string]interface{}, error) {
	var totalContributions int64
	var uniqueContributors int64

	// 总注资记录数
	if err := c.db.Model(&model.ContributeRecordModel{}).Where("contract_address = ?", contractAddress).Count(&totalContributions).Error; err != nil {
		return nil, fmt.Errorf("获取总注资记录数失败: %w", err)
	}

	// 总注资金额，金额可能超过数据库整数范围，在内存中累加
	var amounts []string
	if err := c.db.Model(&model.ContributeRecordModel{}).Where("contract_address = ?", contractAddress).Pluck("amount", &amounts).Error; err != nil {
		return nil, fmt.Errorf("获取总注资金额失败: %w", err)
	}
	totalAmount, err := sumAmounts(amounts)
	if err != nil {
		return nil, err
	}

	// 唯一注资者数量
	if err := c.db.Model(&model.ContributeRecordModel{}).Where("contract_address = ?", contractAddress).Distinct("address").Count(&uniqueContributors).Error; err != nil {
		return nil, fmt.Errorf("获取唯一注资者数量失败: %w", err)
	}

	return map[string]interface{}{
		"total_contributions": totalContributions,
		"total_amount":        totalAmount.String(),
		"unique_contributors": uniqueContributors,
		"average_amount":      average(totalAmount, totalContributions).String(),
	}, nil
}
