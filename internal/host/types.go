package host

import (
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/rodrigogk87/crowdfunding/internal/crowdfunding"
)

var (
	ErrNotContract         = errors.New("destination is not a contract")
	ErrContractExists      = errors.New("contract already exists at address")
	ErrNonPayable          = errors.New("method does not accept payment")
	ErrNotView             = errors.New("method is not read-only")
	ErrReadOnly            = errors.New("state modification in read-only call")
	ErrInvalidValue        = errors.New("value must be a non-negative integer")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrTransferRejected    = errors.New("destination rejected transfer")
	ErrTimeRegression      = errors.New("block timestamp must not decrease")
	ErrExecutionPanic      = errors.New("contract execution panicked")
	ErrContractSender      = errors.New("sender must be an external account")
)

// 宿主事件名
const EventContractDeployed = "ContractDeployed"

// Account 账户
type Account struct {
	Balance  *big.Int
	Nonce    uint64
	Contract bool
	Owner    common.Address // 仅合约账户：部署者
}

// Head 链头
type Head struct {
	Height     uint64
	Timestamp  uint64
	EventCount uint64
}

// EventRecord 已提交的事件，Seq 从 1 开始连续递增
type EventRecord struct {
	Seq       uint64
	Height    uint64
	Timestamp uint64
	TxHash    common.Hash
	Contract  common.Address
	Name      string
	Account   common.Address
	Amount    *big.Int
}

// DeployMsg 部署请求，Input 为 ABI 编码的构造参数
type DeployMsg struct {
	Owner common.Address
	Input []byte
}

// CallMsg 合约调用，Input 为 4 字节选择器加 ABI 编码参数
type CallMsg struct {
	From  common.Address
	To    common.Address
	Input []byte
	Value *big.Int
}

// Receipt 调用回执
type Receipt struct {
	TxHash    common.Hash
	Height    uint64
	Timestamp uint64
	Contract  common.Address
	Method    string
	Output    []byte
	Events    []EventRecord
}

// ContractState 合约当前状态快照
type ContractState struct {
	Address      common.Address
	Owner        common.Address
	Target       *big.Int
	Deadline     uint64
	CurrentFunds *big.Int
	Status       crowdfunding.Status
	Timestamp    uint64
}
