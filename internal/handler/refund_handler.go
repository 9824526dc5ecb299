package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/rodrigogk87/crowdfunding/internal/logic"
)

// RefundHandler 退款处理器
type RefundHandler struct {
	refundLogic *logic.RefundRecordLogic
	formatter   AmountFormatter
}

// NewRefundHandler 创建退款处理器
func NewRefundHandler(refundLogic *logic.RefundRecordLogic, formatter AmountFormatter) *RefundHandler {
	return &RefundHandler{
		refundLogic: refundLogic,
		formatter:   formatter,
	}
}

// GetContractRefunds 获取合约退款记录，可按地址过滤
func (h *RefundHandler) GetContractRefunds(c *gin.Context) {
	addr, err := parseAddress(c.Param("address"))
	if err != nil {
		respondError(c, err)
		return
	}

	if account := c.Query("account"); account != "" {
		accountAddr, err := parseAddress(account)
		if err != nil {
			respondError(c, err)
			return
		}
		records, err := h.refundLogic.GetRefundByAddress(addr.Hex(), accountAddr.Hex())
		if err != nil {
			ErrorResponse(c, http.StatusInternalServerError, err.Error())
			return
		}
		SuccessResponse(c, http.StatusOK, "获取退款记录成功", GetRecordsResponse{
			Records:    h.formatter.ToRefundRecordResponseList(records),
			Pagination: Pagination{Page: 1, PageSize: len(records), Total: int64(len(records)), TotalPage: 1},
		})
		return
	}

	page, pageSize := pageParams(c)

	// 调用logic层获取退款记录
	records, total, err := h.refundLogic.GetContractRefunds(addr.Hex(), page, pageSize)
	if err != nil {
		ErrorResponse(c, http.StatusInternalServerError, err.Error())
		return
	}

	SuccessResponse(c, http.StatusOK, "获取退款记录成功", GetRecordsResponse{
		Records:    h.formatter.ToRefundRecordResponseList(records),
		Pagination: newPagination(page, pageSize, total),
	})
}

// GetRefundStats 获取退款统计信息
func (h *RefundHandler) GetRefundStats(c *gin.Context) {
	addr, err := parseAddress(c.Param("address"))
	if err != nil {
		respondError(c, err)
		return
	}

	stats, err := h.refundLogic.GetRefundStats(addr.Hex())
	if err != nil {
		ErrorResponse(c, http.StatusInternalServerError, err.Error())
		return
	}

	SuccessResponse(c, http.StatusOK, "获取退款统计信息成功", GetStatsResponse{Stats: stats})
}
