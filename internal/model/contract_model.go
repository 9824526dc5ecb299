package model

import (
	"time"

	"github.com/rodrigogk87/crowdfunding/internal/crowdfunding"
)

// ContractModel 众筹合约投影
type ContractModel struct {
	Id        int64     `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// 合约信息
	Address string `json:"address" gorm:"uniqueIndex;not null"`
	Owner   string `json:"owner" gorm:"index;not null"`

	// 众筹信息，金额为十进制整数字符串
	Target        string `json:"target" gorm:"not null"`
	Deadline      uint64 `json:"deadline" gorm:"not null"`
	TotalFunded   string `json:"total_funded" gorm:"default:'0'"`
	TotalRefunded string `json:"total_refunded" gorm:"default:'0'"`
	TotalClaimed  string `json:"total_claimed" gorm:"default:'0'"`

	ContributorCount int64 `json:"contributor_count" gorm:"default:0"`

	// 状态
	Status ContractStatus `json:"status" gorm:"index;default:'funding_period'"`

	// 区块链信息
	TxHash     string `json:"tx_hash"`
	BlockNum   uint64 `json:"block_num"`
	DeployedAt uint64 `json:"deployed_at"`
}

// ContractStatus 合约状态
type ContractStatus string

const (
	ContractStatusFundingPeriod ContractStatus = "funding_period" // 募集中
	ContractStatusSuccessful    ContractStatus = "successful"     // 达到目标
	ContractStatusFailed        ContractStatus = "failed"         // 未达到目标
)

// ContractStatusFrom 将链上推导出的状态转换为投影状态
func ContractStatusFrom(s crowdfunding.Status) ContractStatus {
	switch s {
	case crowdfunding.Successful:
		return ContractStatusSuccessful
	case crowdfunding.Failed:
		return ContractStatusFailed
	default:
		return ContractStatusFundingPeriod
	}
}

// TableName 自定义表名
func (ContractModel) TableName() string {
	return "contract"
}
