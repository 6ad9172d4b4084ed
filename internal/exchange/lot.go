package exchange

import (
	"github.com/shopspring/decimal"
)

// 归一化失败时的拒绝原因，原样写入交易日志。
const (
	ReasonBelowMinQty      = "below minimum quantity"
	ReasonBelowMinNotional = "below minimum notional"
)

// FloorToStep 把原始数量向下对齐到 step 的整数倍。
// step 为零时原样返回（交易所未给出步长约束）。
func FloorToStep(raw, step decimal.Decimal) decimal.Decimal {
	if step.IsZero() {
		return raw
	}
	steps := raw.Div(step).Floor()
	return steps.Mul(step)
}

// NormalizeQuantity 执行精确的数量归一化：向下对齐到步长倍数，
// 再检查最小数量。返回归一化后的数量与拒绝原因（为空表示通过）。
func NormalizeQuantity(raw decimal.Decimal, filters SymbolFilters) (decimal.Decimal, string) {
	quantity := FloorToStep(raw, filters.StepSize)
	if quantity.LessThan(filters.MinQty) {
		return quantity, ReasonBelowMinQty
	}
	return quantity, ""
}

// CheckNotional 校验 quantity*price 是否达到最小名义金额。
// 返回空字符串表示通过。
func CheckNotional(quantity, price, minNotional decimal.Decimal) string {
	if quantity.Mul(price).LessThan(minNotional) {
		return ReasonBelowMinNotional
	}
	return ""
}
