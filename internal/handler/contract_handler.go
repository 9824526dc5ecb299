package handler

import (
	"context"
	"errors"
	"math/big"
	"net/http"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"

	"github.com/rodrigogk87/crowdfunding/internal/crowdfunding"
	"github.com/rodrigogk87/crowdfunding/internal/host"
	"github.com/rodrigogk87/crowdfunding/internal/logic"
)

// Ledger 处理器依赖的账本操作
type Ledger interface {
	Deploy(ctx context.Context, msg host.DeployMsg) (*host.Receipt, error)
	Call(ctx context.Context, msg host.CallMsg) (*host.Receipt, error)
	View(ctx context.Context, to common.Address, input []byte) ([]byte, error)
	Inspect(ctx context.Context, addr common.Address) (*host.ContractState, error)
	Account(addr common.Address) (*host.Account, error)
	Mint(ctx context.Context, to common.Address, amount *big.Int) error
	AdvanceTime(ctx context.Context, seconds uint64) (host.Head, error)
	Head() (host.Head, error)
}

// ContractHandler 合约处理器
type ContractHandler struct {
	ledger        Ledger
	contractLogic *logic.ContractLogic
	formatter     AmountFormatter
}

// NewContractHandler 创建合约处理器
func NewContractHandler(ledger Ledger, contractLogic *logic.ContractLogic, formatter AmountFormatter) *ContractHandler {
	return &ContractHandler{
		ledger:        ledger,
		contractLogic: contractLogic,
		formatter:     formatter,
	}
}

// DeployContract 部署众筹合约
func (h *ContractHandler) DeployContract(c *gin.Context) {
	var req DeployContractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	owner, err := parseAddress(req.Owner)
	if err != nil {
		respondError(c, err)
		return
	}
	target, err := parseAmount(req.Target)
	if err != nil {
		respondError(c, err)
		return
	}

	input, err := crowdfunding.PackInit(target, req.Deadline)
	if err != nil {
		respondError(c, err)
		return
	}

	receipt, err := h.ledger.Deploy(c.Request.Context(), host.DeployMsg{Owner: owner, Input: input})
	if err != nil {
		respondError(c, err)
		return
	}

	SuccessResponse(c, http.StatusCreated, "合约部署成功", h.formatter.ToReceiptResponse(receipt))
}

// GetContracts 获取已索引的合约列表
func (h *ContractHandler) GetContracts(c *gin.Context) {
	owner := c.Query("owner")
	if owner != "" {
		addr, err := parseAddress(owner)
		if err != nil {
			respondError(c, err)
			return
		}
		owner = addr.Hex()
	}
	status := c.Query("status")
	page, pageSize := pageParams(c)

	// 调用logic层获取合约列表
	contracts, total, err := h.contractLogic.GetContracts(owner, status, page, pageSize)
	if err != nil {
		ErrorResponse(c, http.StatusInternalServerError, err.Error())
		return
	}

	SuccessResponse(c, http.StatusOK, "获取合约列表成功", GetContractsResponse{
		Contracts:  h.formatter.ToContractResponseList(contracts),
		Pagination: newPagination(page, pageSize, total),
	})
}

// GetContract 获取合约详情：链上状态和索引投影
func (h *ContractHandler) GetContract(c *gin.Context) {
	addr, err := parseAddress(c.Param("address"))
	if err != nil {
		respondError(c, err)
		return
	}

	state, err := h.ledger.Inspect(c.Request.Context(), addr)
	if err != nil {
		respondError(c, err)
		return
	}

	resp := GetContractResponse{State: h.formatter.ToContractStateResponse(state)}

	// 投影可能尚未同步
	contract, err := h.contractLogic.GetContract(addr.Hex())
	switch {
	case err == nil:
		projection := h.formatter.ToContractResponse(contract)
		resp.Contract = &projection
	case !errors.Is(err, logic.ErrContractNotFound):
		ErrorResponse(c, http.StatusInternalServerError, err.Error())
		return
	}

	SuccessResponse(c, http.StatusOK, "获取合约详情成功", resp)
}

// GetContractStats 获取所有合约的统计信息
func (h *ContractHandler) GetContractStats(c *gin.Context) {
	stats, err := h.contractLogic.GetAllContractStats()
	if err != nil {
		ErrorResponse(c, http.StatusInternalServerError, err.Error())
		return
	}

	SuccessResponse(c, http.StatusOK, "获取合约统计信息成功", GetStatsResponse{Stats: stats})
}

// GetStatus 合约当前状态
func (h *ContractHandler) GetStatus(c *gin.Context) {
	values, ok := h.view(c, crowdfunding.MethodStatus)
	if !ok {
		return
	}
	status := crowdfunding.Status(values[0].(uint8))
	SuccessResponse(c, http.StatusOK, "获取合约状态成功", gin.H{
		"status":     status.String(),
		"statusCode": uint8(status),
	})
}

// GetTarget 众筹目标
func (h *ContractHandler) GetTarget(c *gin.Context) {
	values, ok := h.view(c, crowdfunding.MethodGetTarget)
	if !ok {
		return
	}
	SuccessResponse(c, http.StatusOK, "获取众筹目标成功", gin.H{
		"target": h.formatter.Format(values[0].(*big.Int)),
	})
}

// GetDeadline 截止时间
func (h *ContractHandler) GetDeadline(c *gin.Context) {
	values, ok := h.view(c, crowdfunding.MethodGetDeadline)
	if !ok {
		return
	}
	SuccessResponse(c, http.StatusOK, "获取截止时间成功", gin.H{
		"deadline": values[0].(uint64),
	})
}

// GetFunds 合约当前余额
func (h *ContractHandler) GetFunds(c *gin.Context) {
	values, ok := h.view(c, crowdfunding.MethodGetCurrentFunds)
	if !ok {
		return
	}
	SuccessResponse(c, http.StatusOK, "获取当前资金成功", gin.H{
		"currentFunds": h.formatter.Format(values[0].(*big.Int)),
	})
}

// GetDeposit 某地址的存款
func (h *ContractHandler) GetDeposit(c *gin.Context) {
	depositor, err := parseAddress(c.Param("depositor"))
	if err != nil {
		respondError(c, err)
		return
	}
	values, ok := h.view(c, crowdfunding.MethodGetDeposit, depositor)
	if !ok {
		return
	}
	SuccessResponse(c, http.StatusOK, "获取存款成功", gin.H{
		"depositor": depositor.Hex(),
		"deposit":   h.formatter.Format(values[0].(*big.Int)),
	})
}

// Fund 注资
func (h *ContractHandler) Fund(c *gin.Context) {
	var req FundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}
	from, err := parseAddress(req.From)
	if err != nil {
		respondError(c, err)
		return
	}
	value, err := parseAmount(req.Value)
	if err != nil {
		respondError(c, err)
		return
	}

	h.call(c, from, crowdfunding.MethodFund, value, "注资成功")
}

// Claim 截止后领取：成功时所有者取走全部资金，失败时注资者取回存款
func (h *ContractHandler) Claim(c *gin.Context) {
	var req ClaimRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}
	from, err := parseAddress(req.From)
	if err != nil {
		respondError(c, err)
		return
	}

	h.call(c, from, crowdfunding.MethodClaim, nil, "领取成功")
}

// call 执行合约调用并返回回执
func (h *ContractHandler) call(c *gin.Context, from common.Address, method string, value *big.Int, message string) {
	to, err := parseAddress(c.Param("address"))
	if err != nil {
		respondError(c, err)
		return
	}
	input, err := crowdfunding.PackCall(method)
	if err != nil {
		respondError(c, err)
		return
	}

	receipt, err := h.ledger.Call(c.Request.Context(), host.CallMsg{
		From:  from,
		To:    to,
		Input: input,
		Value: value,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, message, h.formatter.ToReceiptResponse(receipt))
}

// view 执行只读方法并解码返回值，失败时已写入响应
func (h *ContractHandler) view(c *gin.Context, method string, args ...interface{}) ([]interface{}, bool) {
	to, err := parseAddress(c.Param("address"))
	if err != nil {
		respondError(c, err)
		return nil, false
	}
	input, err := crowdfunding.PackCall(method, args...)
	if err != nil {
		respondError(c, err)
		return nil, false
	}
	output, err := h.ledger.View(c.Request.Context(), to, input)
	if err != nil {
		respondError(c, err)
		return nil, false
	}
	values, err := crowdfunding.UnpackResult(method, output)
	if err != nil {
		ErrorResponse(c, http.StatusInternalServerError, err.Error())
		return nil, false
	}
	return values, true
}
