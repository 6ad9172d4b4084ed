package exchange

import (
	"time"

	"github.com/shopspring/decimal"
)

// Side 表示下单方向。
type Side string

const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

// Candle 代表单根K线，时间从旧到新排列。
type Candle struct {
	Timestamp time.Time
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    float64
}

// ExecutionStatus 区分一次下单的三种结局。
type ExecutionStatus string

const (
	// StatusFilled 订单已成交。
	StatusFilled ExecutionStatus = "filled"
	// StatusRejected 订单被本地校验或交易所业务规则拒绝。
	StatusRejected ExecutionStatus = "rejected"
	// StatusError 传输或鉴权层面失败，订单未被交易所受理。
	StatusError ExecutionStatus = "error"
)

// ExecutionResult 是下单操作的判别结果；Reason 在非成交时给出原因。
type ExecutionResult struct {
	Status ExecutionStatus
	Reason string
}

// Filled 构造成交结果。
func Filled() ExecutionResult {
	return ExecutionResult{Status: StatusFilled}
}

// Rejected 构造业务拒绝结果。
func Rejected(reason string) ExecutionResult {
	return ExecutionResult{Status: StatusRejected, Reason: reason}
}

// Errored 构造传输层失败结果。
func Errored(reason string) ExecutionResult {
	return ExecutionResult{Status: StatusError, Reason: reason}
}

// IsFilled 判断订单是否成交。
func (r ExecutionResult) IsFilled() bool {
	return r.Status == StatusFilled
}

// SymbolFilters 汇总交易所对某交易对的数量及名义金额约束。
type SymbolFilters struct {
	StepSize    decimal.Decimal
	MinQty      decimal.Decimal
	MinNotional decimal.Decimal
}
