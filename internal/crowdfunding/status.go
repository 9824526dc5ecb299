package crowdfunding

import (
	"fmt"
	"math/big"
)

// Status 众筹状态，只由时间和余额推导，从不落库
type Status uint8

const (
	FundingPeriod Status = iota // 众筹期内（含截止时刻）
	Successful                  // 已截止且达到目标
	Failed                      // 已截止且未达到目标
)

// String 返回状态名称
func (s Status) String() string {
	switch s {
	case FundingPeriod:
		return "FundingPeriod"
	case Successful:
		return "Successful"
	case Failed:
		return "Failed"
	default:
		return fmt.Sprintf("Status(%d)", uint8(s))
	}
}

// MarshalText 以名称形式序列化
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// DeriveStatus 根据当前时间、截止时间、当前资金和目标推导状态
//
// 截止时刻本身仍属于 FundingPeriod，而 Fund 在截止时刻已被拒绝。
func DeriveStatus(now, deadline uint64, currentFunds, target *big.Int) Status {
	if now <= deadline {
		return FundingPeriod
	}
	if currentFunds.Cmp(target) >= 0 {
		return Successful
	}
	return Failed
}
