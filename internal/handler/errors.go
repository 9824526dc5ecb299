package handler

import (
	"errors"
	"fmt"
	"math/big"
	"net/http"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"

	"github.com/rodrigogk87/crowdfunding/internal/crowdfunding"
	"github.com/rodrigogk87/crowdfunding/internal/host"
	"github.com/rodrigogk87/crowdfunding/internal/logic"
)

var (
	errInvalidAddress = errors.New("无效的地址")
	errInvalidAmount  = errors.New("金额必须是非负整数")
)

// statusFromError 将合约和账本错误映射为 HTTP 状态码
func statusFromError(err error) int {
	switch {
	case errors.Is(err, crowdfunding.ErrUnauthorized):
		return http.StatusForbidden
	case errors.Is(err, crowdfunding.ErrDeadlinePassed),
		errors.Is(err, crowdfunding.ErrNotYetSettled),
		errors.Is(err, crowdfunding.ErrAlreadyInitialized),
		errors.Is(err, crowdfunding.ErrNotInitialized),
		errors.Is(err, host.ErrTransferRejected),
		errors.Is(err, host.ErrContractExists):
		return http.StatusConflict
	case errors.Is(err, host.ErrNotContract),
		errors.Is(err, logic.ErrContractNotFound):
		return http.StatusNotFound
	case errors.Is(err, crowdfunding.ErrInvalidTarget),
		errors.Is(err, crowdfunding.ErrInvalidInput),
		errors.Is(err, crowdfunding.ErrUnknownMethod),
		errors.Is(err, host.ErrNonPayable),
		errors.Is(err, host.ErrNotView),
		errors.Is(err, host.ErrInvalidValue),
		errors.Is(err, host.ErrInsufficientBalance),
		errors.Is(err, host.ErrTimeRegression),
		errors.Is(err, host.ErrContractSender),
		errors.Is(err, errInvalidAddress),
		errors.Is(err, errInvalidAmount):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// respondError 按错误类型返回错误响应
func respondError(c *gin.Context, err error) {
	ErrorResponse(c, statusFromError(err), err.Error())
}

// parseAddress 解析十六进制地址
func parseAddress(s string) (common.Address, error) {
	if !common.IsHexAddress(s) {
		return common.Address{}, fmt.Errorf("%w: %q", errInvalidAddress, s)
	}
	return common.HexToAddress(s), nil
}

// parseAmount 解析十进制整数金额
func parseAmount(s string) (*big.Int, error) {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok || v.Sign() < 0 {
		return nil, fmt.Errorf("%w: %q", errInvalidAmount, s)
	}
	return v, nil
}
