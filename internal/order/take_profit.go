package order

import (
	"context"

	"nightowl-trader/internal/exchange"
)

// TakeProfit 订单把 Amount 视作持仓估值目标（报价货币绝对值）：
// 每个调度周期评估一次，估值达到目标时卖出。没有重试上限，
// 条件不满足就一直处于 InProgress，直到满足或被删除。
type TakeProfit struct {
	base
}

// Process 实现 Order。
func (o *TakeProfit) Process(ctx context.Context) error {
	if err := o.requireAdapter(); err != nil {
		return err
	}
	if o.state() == StateCompleted {
		return nil
	}

	_, value, err := o.adapter.BalanceAndValue(ctx, o.rec.Asset)
	if err != nil {
		o.note("take profit valuation failed for %d (%s): %v", o.rec.ID, o.rec.Asset, err)
		return err
	}

	if value >= o.rec.Amount {
		return o.execute(ctx, exchange.SideSell)
	}

	o.setState(StateInProgress)
	o.note("take profit order %d is waiting for target value %.2f (current %.2f)", o.rec.ID, o.rec.Amount, value)
	return nil
}
