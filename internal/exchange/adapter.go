package exchange

import (
	"context"
	"errors"
)

var (
	// ErrDataUnavailable 表示交易所未返回任何历史数据，
	// 调用方应将订单软失败而不是中断处理循环。
	ErrDataUnavailable = errors.New("exchange: no historic data available")
	// ErrUnknownPlatform 表示平台标识无法解析为适配器。
	ErrUnknownPlatform = errors.New("exchange: unknown platform")
)

// Adapter 抽象单个交易平台。每个订单绑定一个 Adapter，
// 数量以报价货币（如 USDT）计。
type Adapter interface {
	// HistoricData 返回指定周期的K线序列（从旧到新）。
	// 交易所无数据时返回 ErrDataUnavailable。
	HistoricData(ctx context.Context, asset, interval string) ([]Candle, error)

	// PlaceOrder 以市价买入或卖出约 quoteAmount 的资产。
	// 数量归一化失败时返回 Rejected，不会触达下单端点。
	PlaceOrder(ctx context.Context, side Side, asset string, quoteAmount float64) (ExecutionResult, error)

	// BalanceAndValue 返回资产的可用数量及其报价货币估值。
	// 估值失败不影响数量查询，此时估值为0。
	BalanceAndValue(ctx context.Context, asset string) (quantity, quoteValue float64, err error)
}
