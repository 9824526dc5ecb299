package logic

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/rodrigogk87/crowdfunding/internal/model"
)

// EventLogic 事件业务逻辑
type EventLogic struct {
	db *gorm.DB
}

// NewEventLogic 创建事件业务逻辑
func NewEventLogic(db *gorm.DB) *EventLogic {
	return &EventLogic{db: db}
}

// CreateEvent 创建事件记录，序号已存在时返回 false
func (e *EventLogic) CreateEvent(event *model.EventModel) (bool, error) {
	// 验证事件数据
	if err := e.validateEvent(event); err != nil {
		return false, err
	}

	result := e.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "seq"}},
		DoNothing: true,
	}).Create(event)
	if result.Error != nil {
		return false, fmt.Errorf("创建事件记录失败: %w", result.Error)
	}

	return result.RowsAffected > 0, nil
}

// GetEvents 获取事件列表
func (e *EventLogic) GetEvents(contractAddress, eventType string, page, pageSize int) ([]model.EventModel, int64, error) {
	var events []model.EventModel
	var total int64

	// 构建查询条件
	filter := func(db *gorm.DB) *gorm.DB {
		if contractAddress != "" {
			db = db.Where("contract_address = ?", contractAddress)
		}
		if eventType != "" {
			db = db.Where("event_type = ?", eventType)
		}
		return db
	}

	// 获取总数
	if err := e.db.Model(&model.EventModel{}).Scopes(filter).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("获取事件总数失败: %w", err)
	}

	// 分页查询
	offset, limit := paginate(page, pageSize)
	if err := e.db.Scopes(filter).Offset(offset).Limit(limit).Order("seq DESC").Find(&events).Error; err != nil {
		return nil, 0, fmt.Errorf("获取事件列表失败: %w", err)
	}

	return events, total, nil
}

// GetEventBySeq 根据序号获取事件
func (e *EventLogic) GetEventBySeq(seq uint64) (*model.EventModel, error) {
	var event model.EventModel
	if err := e.db.Where("seq = ?", seq).First(&event).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("事件不存在")
		}
		return nil, fmt.Errorf("获取事件失败: %w", err)
	}

	return &event, nil
}

// UpdateEventProcessed 更新事件处理状态
func (e *EventLogic) UpdateEventProcessed(id int64, processed bool) error {
	if err := e.db.Model(&model.EventModel{}).Where("id = ?", id).Update("processed", processed).Error; err != nil {
		return fmt.Errorf("更新事件处理状态失败: %w", err)
	}

	return nil
}

// GetUnprocessedEvents 获取未处理的事件，按序号升序
func (e *EventLogic) GetUnprocessedEvents(limit int) ([]model.EventModel, error) {
	var events []model.EventModel
	if err := e.db.Where("processed = ?", false).
		Order("seq ASC").
		Limit(limit).
		Find(&events).Error; err != nil {
		return nil, fmt.Errorf("获取未处理事件失败: %w", err)
	}

	return events, nil
}

// GetEventStatistics 获取事件统计信息
func (e *EventLogic) GetEventStatistics(contractAddress string) (map[string]interface{}, error) {
	count := func(processed *bool) (int64, error) {
		var n int64
		query := e.db.Model(&model.EventModel{})
		if contractAddress != "" {
			query = query.Where("contract_address = ?", contractAddress)
		}
		if processed != nil {
			query = query.Where("processed = ?", *processed)
		}
		err := query.Count(&n).Error
		return n, err
	}

	yes, no := true, false

	// 总事件数
	totalEvents, err := count(nil)
	if err != nil {
		return nil, fmt.Errorf("获取总事件数失败: %w", err)
	}

	// 已处理事件数
	processedEvents, err := count(&yes)
	if err != nil {
		return nil, fmt.Errorf("获取已处理事件数失败: %w", err)
	}

	// 待处理事件数
	pendingEvents, err := count(&no)
	if err != nil {
		return nil, fmt.Errorf("获取待处理事件数失败: %w", err)
	}

	return map[string]interface{}{
		"total_events":     totalEvents,
		"processed_events": processedEvents,
		"pending_events":   pendingEvents,
	}, nil
}

// validateEvent 验证事件数据
func (e *EventLogic) validateEvent(event *model.EventModel) error {
	if event.Seq == 0 {
		return errors.New("事件序号不能为空")
	}
	if event.ContractAddress == "" {
		return errors.New("合约地址不能为空")
	}
	if event.EventType == "" {
		return errors.New("事件类型不能为空")
	}
	if event.TxHash == "" {
		return errors.New("交易哈希不能为空")
	}

	return nil
}

// GetLastSeq 获取已记录的最大事件序号
func (e *EventLogic) GetLastSeq() (uint64, error) {
	var lastEvent model.EventModel
	err := e.db.Order("seq DESC").First(&lastEvent).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, nil // 没有事件记录，返回0
		}
		return 0, fmt.Errorf("获取最后事件序号失败: %w", err)
	}
	return lastEvent.Seq, nil
}
