package model

import (
	"time"
)

// EventModel 账本事件记录
type EventModel struct {
	Id        int64     `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Seq             uint64 `json:"seq" gorm:"uniqueIndex;not null"`
	ContractAddress string `json:"contract_address" gorm:"index;not null"`
	EventType       string `json:"event_type" gorm:"index;not null"`
	Account         string `json:"account"`
	Amount          string `json:"amount" gorm:"default:'0'"`
	TxHash          string `json:"tx_hash" gorm:"not null"`
	BlockNum        uint64 `json:"block_num"`
	BlockTime       uint64 `json:"block_time"`
	Processed       bool   `json:"processed" gorm:"default:false"`
}

// TableName 自定义表名
func (EventModel) TableName() string {
	return "event"
}
