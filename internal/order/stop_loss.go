package order

import (
	"context"

	"nightowl-trader/internal/exchange"
)

// StopLoss 订单与 TakeProfit 对称：Amount 是持仓估值阈值，
// 估值跌到阈值及以下时卖出止损。
type StopLoss struct {
	base
}

// Process 实现 Order。
func (o *StopLoss) Process(ctx context.Context) error {
	if err := o.requireAdapter(); err != nil {
		return err
	}
	if o.state() == StateCompleted {
		return nil
	}

	_, value, err := o.adapter.BalanceAndValue(ctx, o.rec.Asset)
	if err != nil {
		o.note("stop loss valuation failed for %d (%s): %v", o.rec.ID, o.rec.Asset, err)
		return err
	}

	if value <= o.rec.Amount {
		return o.execute(ctx, exchange.SideSell)
	}

	o.setState(StateInProgress)
	o.note("stop loss order %d is waiting for stop value %.2f (current %.2f)", o.rec.ID, o.rec.Amount, value)
	return nil
}
