package signal

import (
	"context"
	"fmt"

	talib "github.com/markcheno/go-talib"

	"nightowl-trader/internal/exchange"
)

// SMACross 是默认信号源：快慢均线在最后一根K线上交叉时给出信号，
// 其余情况返回 None。
type SMACross struct {
	fast int
	slow int
}

// NewSMACross 构造均线交叉信号源，要求 fast < slow。
func NewSMACross(fast, slow int) (*SMACross, error) {
	if fast <= 0 || slow <= 0 {
		return nil, fmt.Errorf("signal: 均线周期必须大于0: fast=%d slow=%d", fast, slow)
	}
	if fast >= slow {
		return nil, fmt.Errorf("signal: 快线周期必须小于慢线周期: fast=%d slow=%d", fast, slow)
	}
	return &SMACross{fast: fast, slow: slow}, nil
}

// LastSignal 实现 Generator。序列长度不足以算出两个慢线点时返回 None。
func (s *SMACross) LastSignal(_ context.Context, candles []exchange.Candle) (Signal, error) {
	if len(candles) < s.slow+1 {
		return None, nil
	}

	closes := make([]float64, len(candles))
	for i, candle := range candles {
		closes[i] = candle.Close
	}

	fastLine := talib.Sma(closes, s.fast)
	slowLine := talib.Sma(closes, s.slow)

	last := len(closes) - 1
	prev := last - 1

	fastAbove := fastLine[last] > slowLine[last]
	fastWasAbove := fastLine[prev] > slowLine[prev]

	switch {
	case fastAbove && !fastWasAbove:
		return Buy, nil
	case !fastAbove && fastWasAbove:
		return Sell, nil
	default:
		return None, nil
	}
}

var _ Generator = (*SMACross)(nil)
