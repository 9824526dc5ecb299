package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/rodrigogk87/crowdfunding/internal/logic"
)

// ContributeHandler 注资记录处理器
type ContributeHandler struct {
	contributeLogic *logic.ContributeRecordLogic
	formatter       AmountFormatter
}

// NewContributeHandler 创建注资记录处理器
func NewContributeHandler(contributeLogic *logic.ContributeRecordLogic, formatter AmountFormatter) *ContributeHandler {
	return &ContributeHandler{
		contributeLogic: contributeLogic,
		formatter:       formatter,
	}
}

// GetContractContributeRecords 获取合约注资记录
func (h *ContributeHandler) GetContractContributeRecords(c *gin.Context) {
	addr, err := parseAddress(c.Param("address"))
	if err != nil {
		respondError(c, err)
		return
	}
	page, pageSize := pageParams(c)

	// 调用logic层获取合约注资记录
	records, total, err := h.contributeLogic.GetContractContributeRecords(addr.Hex(), page, pageSize)
	if err != nil {
		ErrorResponse(c, http.StatusInternalServerError, err.Error())
		return
	}

	SuccessResponse(c, http.StatusOK, "获取合约注资记录成功", GetRecordsResponse{
		Records:    h.formatter.ToContributeRecordResponseList(records),
		Pagination: newPagination(page, pageSize, total),
	})
}

// GetContributeStats 获取注资统计信息
func (h *ContributeHandler) GetContributeStats(c *gin.Context) {
	addr, err := parseAddress(c.Param("address"))
	if err != nil {
		respondError(c, err)
		return
	}

	// 调用logic层获取统计信息
	stats, err := h.contributeLogic.GetContributeStats(addr.Hex())
	if err != nil {
		ErrorResponse(c, http.StatusInternalServerError, err.Error())
		return
	}

	SuccessResponse(c, http.StatusOK, "获取注资统计信息成功", GetStatsResponse{Stats: stats})
}

// GetUserContributeRecords 获取用户在所有合约中的注资记录
func (h *ContributeHandler) GetUserContributeRecords(c *gin.Context) {
	addr, err := parseAddress(c.Param("address"))
	if err != nil {
		respondError(c, err)
		return
	}
	page, pageSize := pageParams(c)

	records, total, err := h.contributeLogic.GetUserContributeRecords(addr.Hex(), page, pageSize)
	if err != nil {
		ErrorResponse(c, http.StatusInternalServerError, err.Error())
		return
	}

	SuccessResponse(c, http.StatusOK, "获取用户注资记录成功", GetRecordsResponse{
		Records:    h.formatter.ToContributeRecordResponseList(records),
		Pagination: newPagination(page, pageSize, total),
	})
}
