package logic

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/rodrigogk87/crowdfunding/internal/model"
)

// SettlementRecordLogic 结算记录业务逻辑
type SettlementRecordLogic struct {
	db *gorm.DB
}

// NewSettlementRecordLogic 创建结算记录业务逻辑
func NewSettlementRecordLogic(db *gorm.DB) *SettlementRecordLogic {
	return &SettlementRecordLogic{db: db}
}

// CreateSettlementRecord 创建结算记录，累加已领取金额并将合约标记为成功
func (s *SettlementRecordLogic) CreateSettlementRecord(record *model.SettlementRecordModel) (bool, error) {
	if record.ContractAddress == "" {
		return false, errors.New("合约地址不能为空")
	}
	if record.EventSeq == 0 {
		return false, errors.New("事件序号不能为空")
	}
	if _, err := parseAmount(record.Amount); err != nil {
		return false, err
	}

	created := false
	err := s.db.Transaction(func(tx *gorm.DB) error {
		result := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "event_seq"}},
			DoNothing: true,
		}).Create(record)
		if result.Error != nil {
			return fmt.Errorf("创建结算记录失败: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return nil
		}

		created = true
		if err := addContractAmount(tx, record.ContractAddress, "total_claimed", record.Amount); err != nil {
			return err
		}

		// 只有成功状态下所有者才能领取
		return tx.Model(&model.ContractModel{}).
			Where("address = ?", record.ContractAddress).
			Update("status", model.ContractStatusSuccessful).Error
	})
	if err != nil {
		return false, err
	}

	return created, nil
}

// GetContractSettlements 获取合约结算记录
func (s *SettlementRecordLogic) GetContractSettlements(contractAddress string, page, pageSize int) ([]model.SettlementRecordModel, int64, error) {
	var settlements []model.SettlementRecordModel
	var total int64

	if err := s.db.Model(&model.SettlementRecordModel{}).Where("contract_address = ?", contractAddress).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("获取结算记录总数失败: %w", err)
	}

	offset, limit := paginate(page, pageSize)
	if err := s.db.Where("contract_address = ?", contractAddress).
		Order("event_seq DESC").
		Offset(offset).
		Limit(limit).
		Find(&settlements).Error; err != nil {
		return nil, 0, fmt.Errorf("获取结算记录失败: %w", err)
	}

	return settlements, total, nil
}
