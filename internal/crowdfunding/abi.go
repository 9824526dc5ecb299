package crowdfunding

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// 合约入口名
const (
	MethodFund            = "fund"
	MethodClaim           = "claim"
	MethodStatus          = "status"
	MethodGetTarget       = "getTarget"
	MethodGetDeadline     = "getDeadline"
	MethodGetCurrentFunds = "getCurrentFunds"
	MethodGetDeposit      = "getDeposit"
)

// ABIJSON 合约接口描述，只有 fund 是 payable
const ABIJSON = `[
	{
		"type": "constructor",
		"stateMutability": "nonpayable",
		"inputs": [
			{"name": "target", "type": "uint256"},
			{"name": "deadline", "type": "uint64"}
		]
	},
	{"type": "function", "name": "fund", "stateMutability": "payable", "inputs": [], "outputs": []},
	{"type": "function", "name": "claim", "stateMutability": "nonpayable", "inputs": [], "outputs": []},
	{"type": "function", "name": "status", "stateMutability": "view", "inputs": [], "outputs": [{"name": "", "type": "uint8"}]},
	{"type": "function", "name": "getTarget", "stateMutability": "view", "inputs": [], "outputs": [{"name": "", "type": "uint256"}]},
	{"type": "function", "name": "getDeadline", "stateMutability": "view", "inputs": [], "outputs": [{"name": "", "type": "uint64"}]},
	{"type": "function", "name": "getCurrentFunds", "stateMutability": "view", "inputs": [], "outputs": [{"name": "", "type": "uint256"}]},
	{
		"type": "function",
		"name": "getDeposit",
		"stateMutability": "view",
		"inputs": [{"name": "donor", "type": "address"}],
		"outputs": [{"name": "", "type": "uint256"}]
	}
]`

var contractABI abi.ABI

func init() {
	parsed, err := abi.JSON(strings.NewReader(ABIJSON))
	if err != nil {
		panic(fmt.Sprintf("crowdfunding: parse ABI: %v", err))
	}
	contractABI = parsed
}

// ABI 返回已解析的合约 ABI
func ABI() abi.ABI {
	return contractABI
}

// PackInit 编码部署参数
func PackInit(target *big.Int, deadline uint64) ([]byte, error) {
	return contractABI.Pack("", target, deadline)
}

// PackCall 编码方法调用（4 字节选择器 + 参数）
func PackCall(method string, args ...interface{}) ([]byte, error) {
	return contractABI.Pack(method, args...)
}

// UnpackResult 解码方法返回值
func UnpackResult(method string, output []byte) ([]interface{}, error) {
	return contractABI.Unpack(method, output)
}

// LookupMethod 根据调用数据找到方法定义
func LookupMethod(input []byte) (*abi.Method, error) {
	if len(input) < 4 {
		return nil, fmt.Errorf("%w: missing method selector", ErrInvalidInput)
	}
	method, err := contractABI.MethodById(input[:4])
	if err != nil {
		return nil, fmt.Errorf("%w: %x", ErrUnknownMethod, input[:4])
	}
	return method, nil
}

// Construct 执行部署调用
func Construct(c *Crowdfunding, input []byte) error {
	args, err := contractABI.Constructor.Inputs.Unpack(input)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	target, ok := args[0].(*big.Int)
	if !ok {
		return fmt.Errorf("%w: target", ErrInvalidInput)
	}
	deadline, ok := args[1].(uint64)
	if !ok {
		return fmt.Errorf("%w: deadline", ErrInvalidInput)
	}
	return c.Init(target, deadline)
}

// Dispatch 解码调用数据，执行对应入口并编码返回值
func Dispatch(c *Crowdfunding, input []byte) ([]byte, error) {
	method, err := LookupMethod(input)
	if err != nil {
		return nil, err
	}
	args, err := method.Inputs.Unpack(input[4:])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	switch method.Name {
	case MethodFund:
		return nil, c.Fund()

	case MethodClaim:
		return nil, c.Claim()

	case MethodStatus:
		status, err := c.Status()
		if err != nil {
			return nil, err
		}
		return method.Outputs.Pack(uint8(status))

	case MethodGetTarget:
		target, err := c.Target()
		if err != nil {
			return nil, err
		}
		return method.Outputs.Pack(target)

	case MethodGetDeadline:
		deadline, err := c.Deadline()
		if err != nil {
			return nil, err
		}
		return method.Outputs.Pack(deadline)

	case MethodGetCurrentFunds:
		return method.Outputs.Pack(c.CurrentFunds())

	case MethodGetDeposit:
		donor, ok := args[0].(common.Address)
		if !ok {
			return nil, fmt.Errorf("%w: donor", ErrInvalidInput)
		}
		amount, err := c.Deposit(donor)
		if err != nil {
			return nil, err
		}
		return method.Outputs.Pack(amount)
	}

	return nil, fmt.Errorf("%w: %s", ErrUnknownMethod, method.Name)
}
