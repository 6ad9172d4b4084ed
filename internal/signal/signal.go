package signal

import (
	"context"

	"nightowl-trader/internal/exchange"
)

// Signal 是方向性交易建议。None 表示当前序列给不出建议，
// 消费方必须容忍其无限期持续。
type Signal string

const (
	Buy  Signal = "buy"
	Sell Signal = "sell"
	None Signal = ""
)

// Generator 从价格序列推导最近一次信号。
// 实现不得修改传入的序列。
type Generator interface {
	LastSignal(ctx context.Context, candles []exchange.Candle) (Signal, error)
}
