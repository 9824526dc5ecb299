package model

import (
	"time"
)

// SettlementRecordModel 结算记录，对应所有者领取 (FundsClaimed)
type SettlementRecordModel struct {
	Id        int64     `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	ContractAddress string `json:"contract_address" gorm:"index;not null"`
	Owner           string `json:"owner" gorm:"not null"`
	Amount          string `json:"amount" gorm:"not null"` // 领取时合约全部余额
	TxHash          string `json:"tx_hash" gorm:"index"`
	EventSeq        uint64 `json:"event_seq" gorm:"uniqueIndex"`
	BlockNum        uint64 `json:"block_num"`
	BlockTime       uint64 `json:"block_time"`
}

// TableName 自定义表名
func (SettlementRecordModel) TableName() string {
	return "settlement_record"
}
