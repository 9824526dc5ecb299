package crowdfunding

import "errors"

var (
	// ErrDeadlinePassed 截止后仍尝试注资
	ErrDeadlinePassed = errors.New("cannot fund after deadline")
	// ErrNotYetSettled 截止前尝试领取
	ErrNotYetSettled = errors.New("cannot claim before deadline")
	// ErrUnauthorized 非所有者在成功状态下领取
	ErrUnauthorized = errors.New("only owner can claim successful funding")

	ErrAlreadyInitialized = errors.New("contract already initialized")
	ErrNotInitialized     = errors.New("contract not initialized")
	ErrInvalidTarget      = errors.New("target must fit in an unsigned 256-bit integer")
	ErrUnknownMethod      = errors.New("unknown contract method")
	ErrInvalidInput       = errors.New("invalid call input")
)
