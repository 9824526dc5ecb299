package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/rodrigogk87/crowdfunding/internal/host"
	"github.com/rodrigogk87/crowdfunding/internal/logger"
	"github.com/rodrigogk87/crowdfunding/internal/logic"
)

// LedgerHandler 账本处理器
type LedgerHandler struct {
	ledger     Ledger
	eventLogic *logic.EventLogic
	formatter  AmountFormatter
}

// NewLedgerHandler 创建账本处理器
func NewLedgerHandler(ledger Ledger, eventLogic *logic.EventLogic, formatter AmountFormatter) *LedgerHandler {
	return &LedgerHandler{
		ledger:     ledger,
		eventLogic: eventLogic,
		formatter:  formatter,
	}
}

// GetHead 获取链头
func (h *LedgerHandler) GetHead(c *gin.Context) {
	head, err := h.ledger.Head()
	if err != nil {
		respondError(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "获取链头成功", toHeadResponse(head))
}

// AdvanceTime 推进账本时钟并出块
func (h *LedgerHandler) AdvanceTime(c *gin.Context) {
	var req AdvanceTimeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	head, err := h.ledger.AdvanceTime(c.Request.Context(), req.Seconds)
	if err != nil {
		respondError(c, err)
		return
	}
	logger.Info("Ledger clock advanced by %d seconds to %d", req.Seconds, head.Timestamp)

	SuccessResponse(c, http.StatusOK, "时钟推进成功", toHeadResponse(head))
}

// GetEvents 获取已索引的事件
func (h *LedgerHandler) GetEvents(c *gin.Context) {
	contract := c.Query("contract")
	if contract != "" {
		addr, err := parseAddress(contract)
		if err != nil {
			respondError(c, err)
			return
		}
		contract = addr.Hex()
	}
	eventType := c.Query("type")
	page, pageSize := pageParams(c)

	events, total, err := h.eventLogic.GetEvents(contract, eventType, page, pageSize)
	if err != nil {
		ErrorResponse(c, http.StatusInternalServerError, err.Error())
		return
	}

	SuccessResponse(c, http.StatusOK, "获取事件列表成功", GetEventsResponse{
		Events:     h.formatter.ToEventResponseList(events),
		Pagination: newPagination(page, pageSize, total),
	})
}

// GetEventStats 获取合约事件统计信息
func (h *LedgerHandler) GetEventStats(c *gin.Context) {
	addr, err := parseAddress(c.Param("address"))
	if err != nil {
		respondError(c, err)
		return
	}

	stats, err := h.eventLogic.GetEventStatistics(addr.Hex())
	if err != nil {
		ErrorResponse(c, http.StatusInternalServerError, err.Error())
		return
	}

	SuccessResponse(c, http.StatusOK, "获取事件统计信息成功", GetStatsResponse{Stats: stats})
}

func toHeadResponse(head host.Head) HeadResponse {
	return HeadResponse{Height: head.Height, Timestamp: head.Timestamp, Events: head.EventCount}
}
