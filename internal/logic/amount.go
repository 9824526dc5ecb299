package logic

import (
	"errors"
	"fmt"
	"math/big"

	"gorm.io/gorm"

	"github.com/rodrigogk87/crowdfunding/internal/model"
)

var (
	// ErrContractNotFound 合约投影不存在
	ErrContractNotFound = errors.New("合约不存在")
	// ErrInvalidAmount 金额不是非负十进制整数
	ErrInvalidAmount = errors.New("金额必须是非负整数")
)

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

// parseAmount 解析十进制整数金额
func parseAmount(s string) (*big.Int, error) {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok || v.Sign() < 0 {
		return nil, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	return v, nil
}

// sumAmounts 累加金额字符串
func sumAmounts(amounts []string) (*big.Int, error) {
	total := new(big.Int)
	for _, a := range amounts {
		v, err := parseAmount(a)
		if err != nil {
			return nil, err
		}
		total.Add(total, v)
	}
	return total, nil
}

// average 整数平均值，向下取整
func average(total *big.Int, count int64) *big.Int {
	if count == 0 {
		return new(big.Int)
	}
	return new(big.Int).Quo(total, big.NewInt(count))
}

// paginate 规范化分页参数
func paginate(page, pageSize int) (offset, limit int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return (page - 1) * pageSize, pageSize
}

// addContractAmount 在事务内累加合约投影上的金额列
func addContractAmount(tx *gorm.DB, address, column, amount string) error {
	delta, err := parseAmount(amount)
	if err != nil {
		return err
	}

	var current []string
	if err := tx.Model(&model.ContractModel{}).Where("address = ?", address).Pluck(column, &current).Error; err != nil {
		return fmt.Errorf("读取合约%s失败: %w", column, err)
	}
	if len(current) == 0 {
		return fmt.Errorf("%w: %s", ErrContractNotFound, address)
	}

	total, err := parseAmount(current[0])
	if err != nil {
		return err
	}
	total.Add(total, delta)

	return tx.Model(&model.ContractModel{}).Where("address = ?", address).Update(column, total.String()).Error
}
