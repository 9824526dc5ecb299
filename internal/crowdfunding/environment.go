package crowdfunding

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Environment 宿主环境提供给合约的能力
//
// 每次调用都由宿主构造一个新的 Environment，调用内的所有读写都作用于同一个原子单元：
// 调用失败时宿主必须丢弃存储写入和转账。
type Environment interface {
	// BlockTimestamp 当前区块时间（秒）
	BlockTimestamp() uint64
	// Caller 调用者地址
	Caller() common.Address
	// Owner 部署合约的地址
	Owner() common.Address
	// CallValue 本次调用附带的原生币数量
	CallValue() *big.Int
	// SelfBalance 合约当前余额（已包含本次调用附带的金额）
	SelfBalance() *big.Int
	// TransferNative 从合约向 to 转出原生币
	TransferNative(to common.Address, amount *big.Int) error
	// Storage 合约自身地址下的存储
	Storage() Storage
	// Emit 记录合约事件
	Emit(event Event)
}

// Storage 合约存储，key 已经按合约地址隔离
type Storage interface {
	// Get 返回 key 对应的值，不存在时返回 nil, nil
	Get(key []byte) ([]byte, error)
	Set(key, value []byte) error
	Clear(key []byte) error
}

// 合约事件名
const (
	EventFunded       = "Funded"
	EventRefunded     = "Refunded"
	EventFundsClaimed = "FundsClaimed"
)

// Event 合约事件
type Event struct {
	Name    string
	Account common.Address
	Amount  *big.Int
}
