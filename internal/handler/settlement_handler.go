package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/rodrigogk87/crowdfunding/internal/logic"
)

// SettlementHandler 结算处理器
type SettlementHandler struct {
	settlementLogic *logic.SettlementRecordLogic
	formatter       AmountFormatter
}

// NewSettlementHandler 创建结算处理器
func NewSettlementHandler(settlementLogic *logic.SettlementRecordLogic, formatter AmountFormatter) *SettlementHandler {
	return &SettlementHandler{
		settlementLogic: settlementLogic,
		formatter:       formatter,
	}
}

// GetContractSettlements 获取合约结算记录
func (h *SettlementHandler) GetContractSettlements(c *gin.Context) {
	addr, err := parseAddress(c.Param("address"))
	if err != nil {
		respondError(c, err)
		return
	}
	page, pageSize := pageParams(c)

	records, total, err := h.settlementLogic.GetContractSettlements(addr.Hex(), page, pageSize)
	if err != nil {
		ErrorResponse(c, http.StatusInternalServerError, err.Error())
		return
	}

	SuccessResponse(c, http.StatusOK, "获取结算记录成功", GetRecordsResponse{
		Records:    h.formatter.ToSettlementRecordResponseList(records),
		Pagination: newPagination(page, pageSize, total),
	})
}
