package order

import (
	"context"
	"errors"

	"nightowl-trader/internal/exchange"
	"nightowl-trader/internal/signal"
)

// Autopilot 是常驻监控订单：每个调度周期以比默认图表更细的K线
// 周期拉取序列，交给信号源评估；信号与上次已执行方向不同时才下单。
// 它永远不会进入 Completed。
type Autopilot struct {
	base
	interval string
}

// Process 实现 Order。空序列视为软失败，不影响调度循环。
func (o *Autopilot) Process(ctx context.Context) error {
	if err := o.requireAdapter(); err != nil {
		return err
	}

	candles, err := o.adapter.HistoricData(ctx, o.rec.Asset, o.interval)
	if err != nil {
		if errors.Is(err, exchange.ErrDataUnavailable) {
			o.setState(StateFailed)
			o.note("no historic data for %s (%s), order %d failed", o.rec.Asset, o.interval, o.rec.ID)
			return nil
		}
		o.note("historic data fetch failed for %d (%s): %v", o.rec.ID, o.rec.Asset, err)
		return err
	}

	sig, err := o.signals.LastSignal(ctx, candles)
	if err != nil {
		// 信号源失败等同于无信号，本周期不动作。
		o.note("signal evaluation failed for %d (%s): %v", o.rec.ID, o.rec.Asset, err)
		sig = signal.None
	}

	switch {
	case sig == signal.Buy && o.lastAction() != ActionBuy:
		if err := o.execute(ctx, exchange.SideBuy); err != nil {
			return err
		}
	case sig == signal.Sell && o.lastAction() != ActionSell:
		if err := o.execute(ctx, exchange.SideSell); err != nil {
			return err
		}
	}

	// 常驻监控：每次成功评估后都回到 InProgress，包括刚执行过动作
	// 的周期，确保订单不会因一次成交而终结。
	o.setState(StateInProgress)
	return nil
}
