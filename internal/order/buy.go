package order

import (
	"context"

	"nightowl-trader/internal/exchange"
)

// Buy 订单把 Amount 视作要买入的报价货币数量，成交一次后即终结。
type Buy struct {
	base
}

// Process 实现 Order。已完结的订单不再触碰。
func (o *Buy) Process(ctx context.Context) error {
	if err := o.requireAdapter(); err != nil {
		return err
	}
	if o.state() == StateCompleted {
		return nil
	}
	return o.execute(ctx, exchange.SideBuy)
}
