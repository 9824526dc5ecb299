package host

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/rodrigogk87/crowdfunding/internal/crowdfunding"
)

// callEnv 一次调用的执行环境
type callEnv struct {
	st       *stateDB
	guard    TransferGuard
	head     *Head
	self     common.Address
	owner    common.Address
	caller   common.Address
	value    *big.Int
	readOnly bool

	events []crowdfunding.Event
	err    error // 第一个无法通过返回值上报的读错误
}

func (e *callEnv) BlockTimestamp() uint64 {
	return e.head.Timestamp
}

func (e *callEnv) Caller() common.Address {
	return e.caller
}

func (e *callEnv) Owner() common.Address {
	return e.owner
}

func (e *callEnv) CallValue() *big.Int {
	return new(big.Int).Set(e.value)
}

func (e *callEnv) SelfBalance() *big.Int {
	acct, err := e.st.account(e.self)
	if err != nil {
		if e.err == nil {
			e.err = fmt.Errorf("read contract balance: %w", err)
		}
		return new(big.Int)
	}
	return acct.Balance
}

func (e *callEnv) TransferNative(to common.Address, amount *big.Int) error {
	if e.readOnly {
		return ErrReadOnly
	}
	if amount == nil || amount.Sign() < 0 {
		return ErrInvalidValue
	}
	if amount.Sign() == 0 {
		return nil
	}

	dest, err := e.st.account(to)
	if err != nil {
		return err
	}
	if dest.Contract {
		return fmt.Errorf("%w: %s is a contract account", ErrTransferRejected, to.Hex())
	}
	if e.guard != nil {
		if err := e.guard(to, amount); err != nil {
			return fmt.Errorf("%w: %v", ErrTransferRejected, err)
		}
	}

	return e.st.transfer(e.self, to, amount)
}

func (e *callEnv) Storage() crowdfunding.Storage {
	return contractStorage{env: e}
}

func (e *callEnv) Emit(event crowdfunding.Event) {
	if e.readOnly {
		return
	}
	e.events = append(e.events, event)
}
