package model

import (
	"time"
)

// RefundRecordModel 退款记录，对应 Refunded 事件
type RefundRecordModel struct {
	Id        int64     `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	ContractAddress string `json:"contract_address" gorm:"index;not null"`
	Address         string `json:"address" gorm:"index;not null"`
	Amount          string `json:"amount" gorm:"not null"`
	TxHash          string `json:"tx_hash" gorm:"index"`
	EventSeq        uint64 `json:"event_seq" gorm:"uniqueIndex"`
	BlockNum        uint64 `json:"block_num"`
	BlockTime       uint64 `json:"block_time"`
}

// TableName 自定义表名
func (RefundRecordModel) TableName() string {
	return "refund_record"
}
