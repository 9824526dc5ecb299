package logic

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/rodrigogk87/crowdfunding/internal/model"
)

// RefundRecordLogic 退款记录业务逻辑
type RefundRecordLogic struct {
	db *gorm.DB
}

// NewRefundRecordLogic 创建退款记录业务逻辑
func NewRefundRecordLogic(db *gorm.DB) *RefundRecordLogic {
	return &RefundRecordLogic{db: db}
}

// CreateRefundRecord 创建退款记录并累加合约退款金额
func (r *RefundRecordLogic) CreateRefundRecord(refundRecord *model.RefundRecordModel) (bool, error) {
	// 验证退款数据
	if err := r.validateRefundRecord(refundRecord); err != nil {
		return false, err
	}

	created := false
	err := r.db.Transaction(func(tx *gorm.DB) error {
		result := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "event_seq"}},
			DoNothing: true,
		}).Create(refundRecord)
		if result.Error != nil {
			return fmt.Errorf("创建退款记录失败: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return nil
		}

		created = true
		return addContractAmount(tx, refundRecord.ContractAddress, "total_refunded", refundRecord.Amount)
	})
	if err != nil {
		return false, err
	}

	return created, nil
}

// GetContractRefunds 获取合约退款记录
func (r *RefundRecordLogic) GetContractRefunds(contractAddress string, page, pageSize int) ([]model.RefundRecordModel, int64, error) {
	var refunds []model.RefundRecordModel
	var total int64

	// 获取总数
	if err := r.db.Model(&model.RefundRecordModel{}).Where("contract_address = ?", contractAddress).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("获取退款记录总数失败: %w", err)
	}

	// 分页查询
	offset, limit := paginate(page, pageSize)
	if err := r.db.Where("contract_address = ?", contractAddress).
		Order("event_seq DESC").
		Offset(offset).
		Limit(limit).
		Find(&refunds).Error; err != nil {
		return nil, 0, fmt.Errorf("获取退款记录失败: %w", err)
	}

	return refunds, total, nil
}

// GetRefundByAddress 获取某地址在合约上的退款记录
func (r *RefundRecordLogic) GetRefundByAddress(contractAddress, address string) ([]model.RefundRecordModel, error) {
	var refunds []model.RefundRecordModel
	if err := r.db.Where("contract_address = ? AND address = ?", contractAddress, address).
		Order("event_seq ASC").
		Find(&refunds).Error; err != nil {
		return nil, fmt.Errorf("获取退款记录失败: %w", err)
	}

	return refunds, nil
}

// GetRefundStats 获取退款统计信息
func (r *RefundRecordLogic) GetRefundStats(contractAddress string) (map[string]interface{}, error) {
	var totalRefunds int64
	if err := r.db.Model(&model.RefundRecordModel{}).Where("contract_address = ?", contractAddress).Count(&totalRefunds).Error; err != nil {
		return nil, fmt.Errorf("获取退款总数失败: %w", err)
	}

	var amounts []string
	if err := r.db.Model(&model.RefundRecordModel{}).Where("contract_address = ?", contractAddress).Pluck("amount", &amounts).Error; err != nil {
		return nil, fmt.Errorf("获取退款金额失败: %w", err)
	}
	totalAmount, err := sumAmounts(amounts)
	if err != nil {
		return nil, err
	}

	return map[string]interface{}{
		"total_refunds": totalRefunds,
		"total_amount":  totalAmount.String(),
	}, nil
}

// validateRefundRecord 验证退款数据
func (r *RefundRecordLogic) validateRefundRecord(refundRecord *model.RefundRecordModel) error {
	if refundRecord.ContractAddress == "" {
		return errors.New("合约地址不能为空")
	}
	if !common.IsHexAddress(refundRecord.Address) {
		return errors.New("退款地址无效")
	}
	if _, err := parseAmount(refundRecord.Amount); err != nil {
		return err
	}
	if refundRecord.EventSeq == 0 {
		return errors.New("事件序号不能为空")
	}
	return nil
}
