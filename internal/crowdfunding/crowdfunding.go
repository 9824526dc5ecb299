package crowdfunding

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// maxUint256 = 2^256 - 1
var maxUint256 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))

// Crowdfunding 众筹合约
//
// 合约本身无状态，所有数据都在 Environment 提供的存储中，
// 每次宿主调用都应使用新的 Environment 构造实例。
type Crowdfunding struct {
	env Environment
}

// New 创建绑定到一次调用环境的合约实例
func New(env Environment) *Crowdfunding {
	return &Crowdfunding{env: env}
}

func (c *Crowdfunding) target() bigUintMapper {
	return bigUintMapper{store: c.env.Storage(), key: targetKey}
}

func (c *Crowdfunding) deadline() u64Mapper {
	return u64Mapper{store: c.env.Storage(), key: deadlineKey}
}

func (c *Crowdfunding) deposit(donor common.Address) bigUintMapper {
	return bigUintMapper{store: c.env.Storage(), key: depositKey(donor)}
}

// Init 部署时写入目标和截止时间，只能执行一次
func (c *Crowdfunding) Init(target *big.Int, deadline uint64) error {
	if target == nil || target.Sign() < 0 || target.Cmp(maxUint256) > 0 {
		return ErrInvalidTarget
	}

	empty, err := c.target().isEmpty()
	if err != nil {
		return err
	}
	if !empty {
		return ErrAlreadyInitialized
	}

	if err := c.target().set(target); err != nil {
		return err
	}
	return c.deadline().set(deadline)
}

// requireInitialized 未执行 Init 的合约不接受调用
func (c *Crowdfunding) requireInitialized() error {
	empty, err := c.target().isEmpty()
	if err != nil {
		return err
	}
	if empty {
		return ErrNotInitialized
	}
	return nil
}

// Fund 注资，附带的金额计入调用者的存款
func (c *Crowdfunding) Fund() error {
	if err := c.requireInitialized(); err != nil {
		return err
	}
	deadline, err := c.deadline().get()
	if err != nil {
		return err
	}
	if c.env.BlockTimestamp() >= deadline {
		return ErrDeadlinePassed
	}

	payment := c.env.CallValue()
	caller := c.env.Caller()
	if err := c.deposit(caller).update(func(v *big.Int) { v.Add(v, payment) }); err != nil {
		return err
	}

	c.env.Emit(Event{Name: EventFunded, Account: caller, Amount: new(big.Int).Set(payment)})
	return nil
}

// Status 当前状态
func (c *Crowdfunding) Status() (Status, error) {
	if err := c.requireInitialized(); err != nil {
		return FundingPeriod, err
	}
	deadline, err := c.deadline().get()
	if err != nil {
		return FundingPeriod, err
	}
	target, err := c.target().get()
	if err != nil {
		return FundingPeriod, err
	}
	return DeriveStatus(c.env.BlockTimestamp(), deadline, c.CurrentFunds(), target), nil
}

// CurrentFunds 合约当前实际余额
func (c *Crowdfunding) CurrentFunds() *big.Int {
	return c.env.SelfBalance()
}

// Claim 截止后结算
func (c *Crowdfunding) Claim() error {
	status, err := c.Status()
	if err != nil {
		return err
	}

	caller := c.env.Caller()
	switch status {
	case FundingPeriod:
		return ErrNotYetSettled

	case Successful:
		if caller != c.env.Owner() {
			return ErrUnauthorized
		}
		balance := c.CurrentFunds()
		if err := c.env.TransferNative(caller, balance); err != nil {
			return fmt.Errorf("transfer funds to owner: %w", err)
		}
		c.env.Emit(Event{Name: EventFundsClaimed, Account: caller, Amount: balance})

	case Failed:
		amount, err := c.deposit(caller).get()
		if err != nil {
			return err
		}
		if amount.Sign() == 0 {
			return nil
		}
		// 先清零再转账
		if err := c.deposit(caller).clear(); err != nil {
			return err
		}
		if err := c.env.TransferNative(caller, amount); err != nil {
			return fmt.Errorf("refund deposit: %w", err)
		}
		c.env.Emit(Event{Name: EventRefunded, Account: caller, Amount: amount})
	}

	return nil
}

// Target 众筹目标
func (c *Crowdfunding) Target() (*big.Int, error) {
	return c.target().get()
}

// Deadline 截止时间
func (c *Crowdfunding) Deadline() (uint64, error) {
	return c.deadline().get()
}

// Deposit 某个地址的存款
func (c *Crowdfunding) Deposit(donor common.Address) (*big.Int, error) {
	return c.deposit(donor).get()
}
