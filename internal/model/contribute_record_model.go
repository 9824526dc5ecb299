package model

import (
	"time"
)

// ContributeRecordModel 注资记录，对应 Funded 事件
type ContributeRecordModel struct {
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
func (ContributeRecordModel) TableName() string {
	return "contribute_record"
}
