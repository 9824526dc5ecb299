package crowdfunding

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/rlp"
)

// 合约存储布局:
//
//	"target"             -> rlp(uint256)
//	"deadline"           -> rlp(uint64)
//	"deposit" + address  -> rlp(uint256)，不存在等价于 0
var (
	targetKey     = []byte("target")
	deadlineKey   = []byte("deadline")
	depositPrefix = []byte("deposit")
)

func depositKey(donor common.Address) []byte {
	key := make([]byte, 0, len(depositPrefix)+common.AddressLength)
	key = append(key, depositPrefix...)
	return append(key, donor.Bytes()...)
}

// bigUintMapper 单个 uint256 值
type bigUintMapper struct {
	store Storage
	key   []byte
}

func (m bigUintMapper) isEmpty() (bool, error) {
	raw, err := m.store.Get(m.key)
	if err != nil {
		return false, err
	}
	return raw == nil, nil
}

func (m bigUintMapper) get() (*big.Int, error) {
	raw, err := m.store.Get(m.key)
	if err != nil {
		return nil, err
	}
	v := new(big.Int)
	if raw == nil {
		return v, nil
	}
	if err := rlp.DecodeBytes(raw, v); err != nil {
		return nil, fmt.Errorf("decode %q: %w", m.key, err)
	}
	return v, nil
}

func (m bigUintMapper) set(v *big.Int) error {
	raw, err := rlp.EncodeToBytes(v)
	if err != nil {
		return fmt.Errorf("encode %q: %w", m.key, err)
	}
	return m.store.Set(m.key, raw)
}

func (m bigUintMapper) clear() error {
	return m.store.Clear(m.key)
}

// update 读取、修改并写回；结果为 0 时直接清除
func (m bigUintMapper) update(fn func(v *big.Int)) error {
	v, err := m.get()
	if err != nil {
		return err
	}
	fn(v)
	if v.Sign() == 0 {
		return m.clear()
	}
	return m.set(v)
}

// u64Mapper 单个 uint64 值
type u64Mapper struct {
	store Storage
	key   []byte
}

func (m u64Mapper) get() (uint64, error) {
	raw, err := m.store.Get(m.key)
	if err != nil {
		return 0, err
	}
	if raw == nil {
		return 0, nil
	}
	var v uint64
	if err := rlp.DecodeBytes(raw, &v); err != nil {
		return 0, fmt.Errorf("decode %q: %w", m.key, err)
	}
	return v, nil
}

func (m u64Mapper) set(v uint64) error {
	raw, err := rlp.EncodeToBytes(v)
	if err != nil {
		return fmt.Errorf("encode %q: %w", m.key, err)
	}
	return m.store.Set(m.key, raw)
}
