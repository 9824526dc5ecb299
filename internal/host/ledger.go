package host

import (
	"context"
	"encoding/binary"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/rodrigogk87/crowdfunding/internal/crowdfunding"
	"github.com/rodrigogk87/crowdfunding/internal/logger"
	"github.com/rodrigogk87/crowdfunding/internal/storage"
)

// TransferGuard 出账前的目标地址检查，返回错误即拒绝转账
type TransferGuard func(to common.Address, amount *big.Int) error

// Option 账本选项
type Option func(*Ledger)

// WithTransferGuard 设置转账检查
func WithTransferGuard(guard TransferGuard) Option {
	return func(l *Ledger) {
		l.guard = guard
	}
}

// WithGenesisTime 设置创世区块时间
func WithGenesisTime(ts uint64) Option {
	return func(l *Ledger) {
		l.genesisTime = ts
	}
}

// Ledger 单进程确定性账本
//
// 所有调用串行执行；每次调用在写缓冲上运行，成功后整批提交，失败则全部丢弃。
type Ledger struct {
	mu          sync.Mutex
	db          storage.Database
	guard       TransferGuard
	genesisTime uint64
}

// New 打开账本，数据库为空时写入创世区块
func New(db storage.Database, opts ...Option) (*Ledger, error) {
	l := &Ledger{
		db:          db,
		genesisTime: uint64(time.Now().Unix()),
	}
	for _, opt := range opts {
		opt(l)
	}

	exists, err := db.Has(headKey)
	if err != nil {
		return nil, fmt.Errorf("failed to read chain head: %w", err)
	}
	if !exists {
		st := newStateDB(db)
		if err := st.setHead(&Head{Timestamp: l.genesisTime}); err != nil {
			return nil, err
		}
		if err := st.commit(); err != nil {
			return nil, fmt.Errorf("failed to write genesis: %w", err)
		}
		logger.Info("Initialized ledger genesis at timestamp %d", l.genesisTime)
	}

	return l, nil
}

// atomic 串行执行 fn，成功才提交
func (l *Ledger) atomic(ctx context.Context, fn func(st *stateDB) error) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrExecutionPanic, r)
		}
	}()

	st := newStateDB(l.db)
	if err := fn(st); err != nil {
		return err
	}
	return st.commit()
}

// read 串行执行只读操作，从不提交
func (l *Ledger) read(fn func(st *stateDB) error) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return fn(newStateDB(l.db))
}

func txHash(from common.Address, nonce uint64, to common.Address, input []byte) common.Hash {
	var n [8]byte
	binary.BigEndian.PutUint64(n[:], nonce)
	return crypto.Keccak256Hash(from.Bytes(), n[:], to.Bytes(), input)
}

// commitEvents 将合约事件写入事件日志
func commitEvents(st *stateDB, hash common.Hash, contract common.Address, events []crowdfunding.Event) ([]EventRecord, error) {
	records := make([]EventRecord, 0, len(events))
	for _, ev := range events {
		rec := EventRecord{
			TxHash:   hash,
			Contract: contract,
			Name:     ev.Name,
			Account:  ev.Account,
			Amount:   ev.Amount,
		}
		if err := st.appendEvent(&rec); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}

// Deploy 部署合约并在同一原子单元内执行初始化
func (l *Ledger) Deploy(ctx context.Context, msg DeployMsg) (*Receipt, error) {
	var receipt *Receipt

	err := l.atomic(ctx, func(st *stateDB) error {
		head, err := st.head()
		if err != nil {
			return err
		}

		ownerAcct, err := st.account(msg.Owner)
		if err != nil {
			return err
		}
		if ownerAcct.Contract {
			return fmt.Errorf("%w: %s", ErrContractSender, msg.Owner.Hex())
		}
		nonce := ownerAcct.Nonce
		addr := crypto.CreateAddress(msg.Owner, nonce)

		contractAcct, err := st.account(addr)
		if err != nil {
			return err
		}
		if contractAcct.Contract {
			return fmt.Errorf("%w: %s", ErrContractExists, addr.Hex())
		}

		ownerAcct.Nonce++
		if err := st.setAccount(msg.Owner, ownerAcct); err != nil {
			return err
		}
		contractAcct.Contract = true
		contractAcct.Owner = msg.Owner
		if err := st.setAccount(addr, contractAcct); err != nil {
			return err
		}

		env := &callEnv{
			st:     st,
			guard:  l.guard,
			head:   head,
			self:   addr,
			owner:  msg.Owner,
			caller: msg.Owner,
			value:  new(big.Int),
		}
		if err := crowdfunding.Construct(crowdfunding.New(env), msg.Input); err != nil {
			return err
		}
		if env.err != nil {
			return env.err
		}

		hash := txHash(msg.Owner, nonce, addr, msg.Input)
		events := append([]crowdfunding.Event{{Name: EventContractDeployed, Account: msg.Owner}}, env.events...)
		records, err := commitEvents(st, hash, addr, events)
		if err != nil {
			return err
		}

		receipt = &Receipt{
			TxHash:    hash,
			Height:    head.Height,
			Timestamp: head.Timestamp,
			Contract:  addr,
			Method:    "init",
			Events:    records,
		}
		return nil
	})
	if err != nil {
		logger.Warn("Deploy by %s failed: %v", msg.Owner.Hex(), err)
		return nil, err
	}

	logger.Info("Deployed crowdfunding contract %s (owner: %s, tx: %s)",
		receipt.Contract.Hex(), msg.Owner.Hex(), receipt.TxHash.Hex())
	return receipt, nil
}

// Call 执行合约调用；只有 payable 方法可以附带金额
func (l *Ledger) Call(ctx context.Context, msg CallMsg) (*Receipt, error) {
	method, err := crowdfunding.LookupMethod(msg.Input)
	if err != nil {
		return nil, err
	}

	value := new(big.Int)
	if msg.Value != nil {
		if msg.Value.Sign() < 0 {
			return nil, ErrInvalidValue
		}
		value.Set(msg.Value)
	}
	if value.Sign() > 0 && !method.IsPayable() {
		return nil, fmt.Errorf("%w: %s", ErrNonPayable, method.Name)
	}

	var receipt *Receipt
	err = l.atomic(ctx, func(st *stateDB) error {
		head, err := st.head()
		if err != nil {
			return err
		}

		contractAcct, err := st.account(msg.To)
		if err != nil {
			return err
		}
		if !contractAcct.Contract {
			return fmt.Errorf("%w: %s", ErrNotContract, msg.To.Hex())
		}

		fromAcct, err := st.account(msg.From)
		if err != nil {
			return err
		}
		if fromAcct.Contract {
			return fmt.Errorf("%w: %s", ErrContractSender, msg.From.Hex())
		}
		nonce := fromAcct.Nonce
		fromAcct.Nonce++
		if err := st.setAccount(msg.From, fromAcct); err != nil {
			return err
		}

		// 附带金额先进入合约，再执行入口
		if err := st.transfer(msg.From, msg.To, value); err != nil {
			return err
		}

		env := &callEnv{
			st:     st,
			guard:  l.guard,
			head:   head,
			self:   msg.To,
			owner:  contractAcct.Owner,
			caller: msg.From,
			value:  value,
		}
		output, err := crowdfunding.Dispatch(crowdfunding.New(env), msg.Input)
		if err != nil {
			return err
		}
		if env.err != nil {
			return env.err
		}

		hash := txHash(msg.From, nonce, msg.To, msg.Input)
		records, err := commitEvents(st, hash, msg.To, env.events)
		if err != nil {
			return err
		}

		receipt = &Receipt{
			TxHash:    hash,
			Height:    head.Height,
			Timestamp: head.Timestamp,
			Contract:  msg.To,
			Method:    method.Name,
			Output:    output,
			Events:    records,
		}
		return nil
	})
	if err != nil {
		logger.Warn("Call %s on %s from %s failed: %v", method.Name, msg.To.Hex(), msg.From.Hex(), err)
		return nil, err
	}

	logger.Info("Executed %s on %s from %s (value: %s, tx: %s)",
		method.Name, msg.To.Hex(), msg.From.Hex(), value, receipt.TxHash.Hex())
	return receipt, nil
}

// View 执行只读方法
func (l *Ledger) View(ctx context.Context, to common.Address, input []byte) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	method, err := crowdfunding.LookupMethod(input)
	if err != nil {
		return nil, err
	}
	if !method.IsConstant() {
		return nil, fmt.Errorf("%w: %s", ErrNotView, method.Name)
	}

	var output []byte
	err = l.read(func(st *stateDB) error {
		env, err := viewEnv(st, to)
		if err != nil {
			return err
		}
		output, err = crowdfunding.Dispatch(crowdfunding.New(env), input)
		if err != nil {
			return err
		}
		return env.err
	})
	if err != nil {
		return nil, err
	}
	return output, nil
}

func viewEnv(st *stateDB, to common.Address) (*callEnv, error) {
	head, err := st.head()
	if err != nil {
		return nil, err
	}
	acct, err := st.account(to)
	if err != nil {
		return nil, err
	}
	if !acct.Contract {
		return nil, fmt.Errorf("%w: %s", ErrNotContract, to.Hex())
	}
	return &callEnv{
		st:       st,
		head:     head,
		self:     to,
		owner:    acct.Owner,
		value:    new(big.Int),
		readOnly: true,
	}, nil
}

// Inspect 读取合约的完整状态
func (l *Ledger) Inspect(ctx context.Context, addr common.Address) (*ContractState, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var state *ContractState
	err := l.read(func(st *stateDB) error {
		env, err := viewEnv(st, addr)
		if err != nil {
			return err
		}
		c := crowdfunding.New(env)

		target, err := c.Target()
		if err != nil {
			return err
		}
		deadline, err := c.Deadline()
		if err != nil {
			return err
		}
		status, err := c.Status()
		if err != nil {
			return err
		}

		state = &ContractState{
			Address:      addr,
			Owner:        env.owner,
			Target:       target,
			Deadline:     deadline,
			CurrentFunds: c.CurrentFunds(),
			Status:       status,
			Timestamp:    env.head.Timestamp,
		}
		return env.err
	})
	if err != nil {
		return nil, err
	}
	return state, nil
}

// Mint 开发环境水龙头，给外部账户增发原生币
func (l *Ledger) Mint(ctx context.Context, to common.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidValue
	}
	err := l.atomic(ctx, func(st *stateDB) error {
		acct, err := st.account(to)
		if err != nil {
			return err
		}
		if acct.Contract {
			return fmt.Errorf("%w: cannot mint to contract %s", ErrTransferRejected, to.Hex())
		}
		return st.addBalance(to, amount)
	})
	if err != nil {
		return err
	}
	logger.Info("Minted %s to %s", amount, to.Hex())
	return nil
}

// Send 普通转账；转入合约的金额不会记为存款
func (l *Ledger) Send(ctx context.Context, from, to common.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidValue
	}
	return l.atomic(ctx, func(st *stateDB) error {
		acct, err := st.account(from)
		if err != nil {
			return err
		}
		if acct.Contract {
			return fmt.Errorf("%w: %s", ErrContractSender, from.Hex())
		}
		acct.Nonce++
		if err := st.setAccount(from, acct); err != nil {
			return err
		}
		return st.transfer(from, to, amount)
	})
}

// SealBlock 出一个新区块，时间戳不能倒退
func (l *Ledger) SealBlock(ctx context.Context, timestamp uint64) (Head, error) {
	return l.seal(ctx, func(head *Head) (uint64, error) {
		if timestamp < head.Timestamp {
			return 0, fmt.Errorf("%w: %d < %d", ErrTimeRegression, timestamp, head.Timestamp)
		}
		return timestamp, nil
	})
}

// AdvanceTime 以当前时间加 seconds 出块
func (l *Ledger) AdvanceTime(ctx context.Context, seconds uint64) (Head, error) {
	return l.seal(ctx, func(head *Head) (uint64, error) {
		return head.Timestamp + seconds, nil
	})
}

func (l *Ledger) seal(ctx context.Context, next func(head *Head) (uint64, error)) (Head, error) {
	var sealed Head
	err := l.atomic(ctx, func(st *stateDB) error {
		head, err := st.head()
		if err != nil {
			return err
		}
		ts, err := next(head)
		if err != nil {
			return err
		}
		head.Height++
		head.Timestamp = ts
		sealed = *head
		return st.setHead(head)
	})
	if err != nil {
		return Head{}, err
	}
	logger.Debug("Sealed block %d at timestamp %d", sealed.Height, sealed.Timestamp)
	return sealed, nil
}

// Head 当前链头
func (l *Ledger) Head() (Head, error) {
	var head Head
	err := l.read(func(st *stateDB) error {
		h, err := st.head()
		if err != nil {
			return err
		}
		head = *h
		return nil
	})
	return head, err
}

// Balance 账户余额
func (l *Ledger) Balance(addr common.Address) (*big.Int, error) {
	var balance *big.Int
	err := l.read(func(st *stateDB) error {
		acct, err := st.account(addr)
		if err != nil {
			return err
		}
		balance = new(big.Int).Set(acct.Balance)
		return nil
	})
	return balance, err
}

// Account 账户详情
func (l *Ledger) Account(addr common.Address) (*Account, error) {
	var acct *Account
	err := l.read(func(st *stateDB) error {
		var err error
		acct, err = st.account(addr)
		return err
	})
	return acct, err
}

// Events 返回从 fromSeq 开始的最多 limit 条事件
func (l *Ledger) Events(fromSeq uint64, limit int) ([]EventRecord, error) {
	if fromSeq == 0 {
		fromSeq = 1
	}
	var records []EventRecord
	err := l.read(func(st *stateDB) error {
		head, err := st.head()
		if err != nil {
			return err
		}
		for seq := fromSeq; seq <= head.EventCount && len(records) < limit; seq++ {
			rec, err := st.event(seq)
			if err != nil {
				return err
			}
			records = append(records, *rec)
		}
		return nil
	})
	return records, err
}
