package host

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/rlp"

	"github.com/rodrigogk87/crowdfunding/internal/storage"
)

// 账本键布局:
//
//	"h"                  -> rlp(Head)
//	"a" + address        -> rlp(Account)
//	"s" + address + key  -> 合约存储原始值
//	"e" + uint64(seq)    -> rlp(EventRecord)
var (
	headKey       = []byte("h")
	accountPrefix = []byte("a")
	storagePrefix = []byte("s")
	eventPrefix   = []byte("e")
)

func accountKey(addr common.Address) []byte {
	return append(append([]byte{}, accountPrefix...), addr.Bytes()...)
}

func storageKey(addr common.Address, key []byte) []byte {
	k := make([]byte, 0, len(storagePrefix)+common.AddressLength+len(key))
	k = append(k, storagePrefix...)
	k = append(k, addr.Bytes()...)
	return append(k, key...)
}

func eventKey(seq uint64) []byte {
	k := make([]byte, len(eventPrefix)+8)
	copy(k, eventPrefix)
	binary.BigEndian.PutUint64(k[len(eventPrefix):], seq)
	return k
}

type dirtyValue struct {
	value   []byte
	deleted bool
}

// stateDB 单次调用的写缓冲，commit 前对数据库不可见
type stateDB struct {
	db    storage.Database
	dirty map[string]dirtyValue
}

func newStateDB(db storage.Database) *stateDB {
	return &stateDB{db: db, dirty: make(map[string]dirtyValue)}
}

// get 不存在时返回 nil, nil
func (s *stateDB) get(key []byte) ([]byte, error) {
	if d, ok := s.dirty[string(key)]; ok {
		if d.deleted {
			return nil, nil
		}
		return d.value, nil
	}
	value, err := s.db.Get(key)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	return value, err
}

func (s *stateDB) put(key, value []byte) {
	s.dirty[string(key)] = dirtyValue{value: append([]byte{}, value...)}
}

func (s *stateDB) del(key []byte) {
	s.dirty[string(key)] = dirtyValue{deleted: true}
}

func (s *stateDB) commit() error {
	if len(s.dirty) == 0 {
		return nil
	}
	batch := storage.NewBatch()
	for k, d := range s.dirty {
		if d.deleted {
			batch.Delete([]byte(k))
		} else {
			batch.Put([]byte(k), d.value)
		}
	}
	if err := s.db.Write(batch); err != nil {
		return fmt.Errorf("commit state: %w", err)
	}
	s.dirty = make(map[string]dirtyValue)
	return nil
}

func (s *stateDB) getRLP(key []byte, v interface{}) (bool, error) {
	raw, err := s.get(key)
	if err != nil || raw == nil {
		return false, err
	}
	if err := rlp.DecodeBytes(raw, v); err != nil {
		return false, fmt.Errorf("decode %x: %w", key, err)
	}
	return true, nil
}

func (s *stateDB) putRLP(key []byte, v interface{}) error {
	raw, err := rlp.EncodeToBytes(v)
	if err != nil {
		return fmt.Errorf("encode %x: %w", key, err)
	}
	s.put(key, raw)
	return nil
}

func (s *stateDB) head() (*Head, error) {
	var h Head
	if _, err := s.getRLP(headKey, &h); err != nil {
		return nil, err
	}
	return &h, nil
}

func (s *stateDB) setHead(h *Head) error {
	return s.putRLP(headKey, h)
}

// account 不存在的账户返回余额为 0 的空账户
func (s *stateDB) account(addr common.Address) (*Account, error) {
	var acct Account
	found, err := s.getRLP(accountKey(addr), &acct)
	if err != nil {
		return nil, err
	}
	if !found || acct.Balance == nil {
		acct.Balance = new(big.Int)
	}
	return &acct, nil
}

func (s *stateDB) setAccount(addr common.Address, acct *Account) error {
	return s.putRLP(accountKey(addr), acct)
}

func (s *stateDB) addBalance(addr common.Address, amount *big.Int) error {
	acct, err := s.account(addr)
	if err != nil {
		return err
	}
	acct.Balance.Add(acct.Balance, amount)
	return s.setAccount(addr, acct)
}

func (s *stateDB) subBalance(addr common.Address, amount *big.Int) error {
	acct, err := s.account(addr)
	if err != nil {
		return err
	}
	if acct.Balance.Cmp(amount) < 0 {
		return fmt.Errorf("%w: %s has %s, needs %s", ErrInsufficientBalance, addr.Hex(), acct.Balance, amount)
	}
	acct.Balance.Sub(acct.Balance, amount)
	return s.setAccount(addr, acct)
}

// transfer 原生币转账
func (s *stateDB) transfer(from, to common.Address, amount *big.Int) error {
	if amount.Sign() == 0 {
		return nil
	}
	if err := s.subBalance(from, amount); err != nil {
		return err
	}
	return s.addBalance(to, amount)
}

// appendEvent 追加事件并分配序号
func (s *stateDB) appendEvent(rec *EventRecord) error {
	h, err := s.head()
	if err != nil {
		return err
	}
	h.EventCount++
	rec.Seq = h.EventCount
	rec.Height = h.Height
	rec.Timestamp = h.Timestamp
	if rec.Amount == nil {
		rec.Amount = new(big.Int)
	}
	if err := s.putRLP(eventKey(rec.Seq), rec); err != nil {
		return err
	}
	return s.setHead(h)
}

func (s *stateDB) event(seq uint64) (*EventRecord, error) {
	var rec EventRecord
	found, err := s.getRLP(eventKey(seq), &rec)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("event %d: %w", seq, storage.ErrNotFound)
	}
	return &rec, nil
}

// contractStorage 合约存储视图，实现 crowdfunding.Storage
type contractStorage struct {
	env *callEnv
}

func (c contractStorage) Get(key []byte) ([]byte, error) {
	return c.env.st.get(storageKey(c.env.self, key))
}

func (c contractStorage) Set(key, value []byte) error {
	if c.env.readOnly {
		return ErrReadOnly
	}
	c.env.st.put(storageKey(c.env.self, key), value)
	return nil
}

func (c contractStorage) Clear(key []byte) error {
	if c.env.readOnly {
		return ErrReadOnly
	}
	c.env.st.del(storageKey(c.env.self, key))
	return nil
}
