package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/rodrigogk87/crowdfunding/internal/logger"
)

// AccountHandler 账户处理器
type AccountHandler struct {
	ledger    Ledger
	formatter AmountFormatter
}

// NewAccountHandler 创建账户处理器
func NewAccountHandler(ledger Ledger, formatter AmountFormatter) *AccountHandler {
	return &AccountHandler{
		ledger:    ledger,
		formatter: formatter,
	}
}

// GetBalance 获取账户余额
func (h *AccountHandler) GetBalance(c *gin.Context) {
	addr, err := parseAddress(c.Param("address"))
	if err != nil {
		respondError(c, err)
		return
	}

	acct, err := h.ledger.Account(addr)
	if err != nil {
		respondError(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "获取余额成功", BalanceResponse{
		Address:  addr.Hex(),
		Balance:  h.formatter.Format(acct.Balance),
		Nonce:    acct.Nonce,
		Contract: acct.Contract,
	})
}

// Faucet 向外部账户发放原生币
func (h *AccountHandler) Faucet(c *gin.Context) {
	addr, err := parseAddress(c.Param("address"))
	if err != nil {
		respondError(c, err)
		return
	}

	var req FaucetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}
	amount, err := parseAmount(req.Amount)
	if err != nil {
		respondError(c, err)
		return
	}

	if err := h.ledger.Mint(c.Request.Context(), addr, amount); err != nil {
		respondError(c, err)
		return
	}
	logger.Info("Faucet minted %s to %s", amount.String(), addr.Hex())

	acct, err := h.ledger.Account(addr)
	if err != nil {
		respondError(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "发放成功", BalanceResponse{
		Address:  addr.Hex(),
		Balance:  h.formatter.Format(acct.Balance),
		Nonce:    acct.Nonce,
		Contract: acct.Contract,
	})
}
