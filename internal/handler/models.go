package handler

import (
	"math/big"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rodrigogk87/crowdfunding/internal/host"
	"github.com/rodrigogk87/crowdfunding/internal/model"
)

// 通用响应结构
type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data"`
}

// 分页信息结构
type Pagination struct {
	Page      int   `json:"page"`
	PageSize  int   `json:"pageSize"`
	Total     int64 `json:"total"`
	TotalPage int64 `json:"totalPage"`
}

// Amount 金额：原始整数和按精度换算后的值
type Amount struct {
	Raw   string `json:"raw"`
	Value string `json:"value"`
}

// AmountFormatter 按原生币精度格式化金额
type AmountFormatter struct {
	Decimals int32
}

// Format 格式化整数金额
func (f AmountFormatter) Format(v *big.Int) Amount {
	if v == nil {
		v = new(big.Int)
	}
	return Amount{
		Raw:   v.String(),
		Value: decimal.NewFromBigInt(v, -f.Decimals).String(),
	}
}

// FormatString 格式化十进制字符串金额，无法解析时按 0 处理
func (f AmountFormatter) FormatString(s string) Amount {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		v = new(big.Int)
	}
	return f.Format(v)
}

// 请求模型

// DeployContractRequest 部署合约请求
type DeployContractRequest struct {
	Owner    string `json:"owner" binding:"required"`
	Target   string `json:"target" binding:"required"`
	Deadline uint64 `json:"deadline"`
}

// FundRequest 注资请求
type FundRequest struct {
	From  string `json:"from" binding:"required"`
	Value string `json:"value" binding:"required"`
}

// ClaimRequest 领取请求
type ClaimRequest struct {
	From string `json:"from" binding:"required"`
}

// FaucetRequest 水龙头请求
type FaucetRequest struct {
	Amount string `json:"amount" binding:"required"`
}

// AdvanceTimeRequest 推进时钟请求
type AdvanceTimeRequest struct {
	Seconds uint64 `json:"seconds" binding:"required,min=1"`
}

// 合约相关响应模型

// ContractResponse 合约投影响应模型
type ContractResponse struct {
	ID               int64     `json:"id"`
	Address          string    `json:"address"`
	Owner            string    `json:"owner"`
	Target           Amount    `json:"target"`
	Deadline         uint64    `json:"deadline"`
	Status           string    `json:"status"`
	TotalFunded      Amount    `json:"totalFunded"`
	TotalRefunded    Amount    `json:"totalRefunded"`
	TotalClaimed     Amount    `json:"totalClaimed"`
	ContributorCount int64     `json:"contributorCount"`
	TxHash           string    `json:"txHash"`
	BlockNum         uint64    `json:"blockNum"`
	CreatedAt        time.Time `json:"createdAt"`
}

// ContractStateResponse 合约链上状态
type ContractStateResponse struct {
	Address      string `json:"address"`
	Owner        string `json:"owner"`
	Target       Amount `json:"target"`
	Deadline     uint64 `json:"deadline"`
	CurrentFunds Amount `json:"currentFunds"`
	Status       string `json:"status"`
	StatusCode   uint8  `json:"statusCode"`
	Timestamp    uint64 `json:"timestamp"`
}

// GetContractResponse 获取合约详情响应，投影可能落后于链上状态
type GetContractResponse struct {
	Contract *ContractResponse     `json:"contract,omitempty"`
	State    ContractStateResponse `json:"state"`
}

// GetContractsResponse 获取合约列表响应
type GetContractsResponse struct {
	Contracts  []ContractResponse `json:"contracts"`
	Pagination Pagination         `json:"pagination"`
}

// GetStatsResponse 统计响应
type GetStatsResponse struct {
	Stats map[string]interface{} `json:"stats"`
}

// EventResponse 事件响应模型
type EventResponse struct {
	Seq       uint64 `json:"seq"`
	Name      string `json:"name"`
	Contract  string `json:"contract"`
	Account   string `json:"account"`
	Amount    Amount `json:"amount"`
	TxHash    string `json:"txHash"`
	Height    uint64 `json:"height"`
	Timestamp uint64 `json:"timestamp"`
}

// ReceiptResponse 交易回执响应模型
type ReceiptResponse struct {
	TxHash    string          `json:"txHash"`
	Height    uint64          `json:"height"`
	Timestamp uint64          `json:"timestamp"`
	Contract  string          `json:"contract"`
	Method    string          `json:"method"`
	Events    []EventResponse `json:"events"`
}

// GetEventsResponse 事件列表响应
type GetEventsResponse struct {
	Events     []EventResponse `json:"events"`
	Pagination Pagination      `json:"pagination"`
}

// 记录相关响应模型

// RecordResponse 注资、退款、结算记录通用响应模型
type RecordResponse struct {
	ID        int64     `json:"id"`
	Contract  string    `json:"contract"`
	Address   string    `json:"address"`
	Amount    Amount    `json:"amount"`
	TxHash    string    `json:"txHash"`
	EventSeq  uint64    `json:"eventSeq"`
	BlockNum  uint64    `json:"blockNum"`
	BlockTime uint64    `json:"blockTime"`
	CreatedAt time.Time `json:"createdAt"`
}

// GetRecordsResponse 记录列表响应
type GetRecordsResponse struct {
	Records    []RecordResponse `json:"records"`
	Pagination Pagination       `json:"pagination"`
}

// 账户相关响应模型

// BalanceResponse 余额响应
type BalanceResponse struct {
	Address  string `json:"address"`
	Balance  Amount `json:"balance"`
	Nonce    uint64 `json:"nonce"`
	Contract bool   `json:"contract"`
}

// HeadResponse 链头响应
type HeadResponse struct {
	Height    uint64 `json:"height"`
	Timestamp uint64 `json:"timestamp"`
	Events    uint64 `json:"events"`
}

// 转换函数

// ToContractResponse 将数据库模型转换为响应模型
func (f AmountFormatter) ToContractResponse(contract *model.ContractModel) ContractResponse {
	return ContractResponse{
		ID:               contract.Id,
		Address:          contract.Address,
		Owner:            contract.Owner,
		Target:           f.FormatString(contract.Target),
		Deadline:         contract.Deadline,
		Status:           string(contract.Status),
		TotalFunded:      f.FormatString(contract.TotalFunded),
		TotalRefunded:    f.FormatString(contract.TotalRefunded),
		TotalClaimed:     f.FormatString(contract.TotalClaimed),
		ContributorCount: contract.ContributorCount,
		TxHash:           contract.TxHash,
		BlockNum:         contract.BlockNum,
		CreatedAt:        contract.CreatedAt,
	}
}

// ToContractResponseList 将数据库模型列表转换为响应模型列表
func (f AmountFormatter) ToContractResponseList(contracts []model.ContractModel) []ContractResponse {
	result := make([]ContractResponse, len(contracts))
	for i := range contracts {
		result[i] = f.ToContractResponse(&contracts[i])
	}
	return result
}

// ToContractStateResponse 将链上状态转换为响应模型
func (f AmountFormatter) ToContractStateResponse(state *host.ContractState) ContractStateResponse {
	return ContractStateResponse{
		Address:      state.Address.Hex(),
		Owner:        state.Owner.Hex(),
		Target:       f.Format(state.Target),
		Deadline:     state.Deadline,
		CurrentFunds: f.Format(state.CurrentFunds),
		Status:       state.Status.String(),
		StatusCode:   uint8(state.Status),
		Timestamp:    state.Timestamp,
	}
}

// ToReceiptResponse 将回执转换为响应模型
func (f AmountFormatter) ToReceiptResponse(receipt *host.Receipt) ReceiptResponse {
	events := make([]EventResponse, len(receipt.Events))
	for i, ev := range receipt.Events {
		events[i] = EventResponse{
			Seq:       ev.Seq,
			Name:      ev.Name,
			Contract:  ev.Contract.Hex(),
			Account:   ev.Account.Hex(),
			Amount:    f.Format(ev.Amount),
			TxHash:    ev.TxHash.Hex(),
			Height:    ev.Height,
			Timestamp: ev.Timestamp,
		}
	}
	return ReceiptResponse{
		TxHash:    receipt.TxHash.Hex(),
		Height:    receipt.Height,
		Timestamp: receipt.Timestamp,
		Contract:  receipt.Contract.Hex(),
		Method:    receipt.Method,
		Events:    events,
	}
}

// ToEventResponseList 将事件记录转换为响应模型列表
func (f AmountFormatter) ToEventResponseList(events []model.EventModel) []EventResponse {
	result := make([]EventResponse, len(events))
	for i, ev := range events {
		result[i] = EventResponse{
			Seq:       ev.Seq,
			Name:      ev.EventType,
			Contract:  ev.ContractAddress,
			Account:   ev.Account,
			Amount:    f.FormatString(ev.Amount),
			TxHash:    ev.TxHash,
			Height:    ev.BlockNum,
			Timestamp: ev.BlockTime,
		}
	}
	return result
}

// ToContributeRecordResponseList 将注资记录转换为响应模型列表
func (f AmountFormatter) ToContributeRecordResponseList(records []model.ContributeRecordModel) []RecordResponse {
	result := make([]RecordResponse, len(records))
	for i, r := range records {
		result[i] = RecordResponse{
			ID:        r.Id,
			Contract:  r.ContractAddress,
			Address:   r.Address,
			Amount:    f.FormatString(r.Amount),
			TxHash:    r.TxHash,
			EventSeq:  r.EventSeq,
			BlockNum:  r.BlockNum,
			BlockTime: r.BlockTime,
			CreatedAt: r.CreatedAt,
		}
	}
	return result
}

// ToRefundRecordResponseList 将退款记录转换为响应模型列表
func (f AmountFormatter) ToRefundRecordResponseList(records []model.RefundRecordModel) []RecordResponse {
	result := make([]RecordResponse, len(records))
	for i, r := range records {
		result[i] = RecordResponse{
			ID:        r.Id,
			Contract:  r.ContractAddress,
			Address:   r.Address,
			Amount:    f.FormatString(r.Amount),
			TxHash:    r.TxHash,
			EventSeq:  r.EventSeq,
			BlockNum:  r.BlockNum,
			BlockTime: r.BlockTime,
			CreatedAt: r.CreatedAt,
		}
	}
	return result
}

// ToSettlementRecordResponseList 将结算记录转换为响应模型列表
func (f AmountFormatter) ToSettlementRecordResponseList(records []model.SettlementRecordModel) []RecordResponse {
	result := make([]RecordResponse, len(records))
	for i, r := range records {
		result[i] = RecordResponse{
			ID:        r.Id,
			Contract:  r.ContractAddress,
			Address:   r.Owner,
			Amount:    f.FormatString(r.Amount),
			TxHash:    r.TxHash,
			EventSeq:  r.EventSeq,
			BlockNum:  r.BlockNum,
			BlockTime: r.BlockTime,
			CreatedAt: r.CreatedAt,
		}
	}
	return result
}
