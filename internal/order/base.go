package order

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"nightowl-trader/internal/exchange"
	"nightowl-trader/internal/signal"
)

// base 承载各订单种类共享的字段与执行原语。
// 种类实现通过组合嵌入它，而不是各自重复下单逻辑。
type base struct {
	mu  sync.Mutex
	rec Record

	adapter  exchange.Adapter
	signals  signal.Generator
	recorder Recorder
	logger   *zap.Logger
}

// ID 返回订单编号。
func (b *base) ID() int {
	return b.rec.ID
}

// Record 返回订单当前的持久化快照。
func (b *base) Record() Record {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.rec
}

func (b *base) state() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.rec.State
}

func (b *base) setState(s State) {
	b.mu.Lock()
	b.rec.State = s
	b.mu.Unlock()
}

func (b *base) lastAction() Action {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.rec.LastAction
}

func (b *base) complete(action Action) {
	b.mu.Lock()
	b.rec.State = StateCompleted
	b.rec.LastAction = action
	b.mu.Unlock()
}

// requireAdapter 校验订单已绑定适配器；未绑定属于契约违例，
// 对该订单的本次处理是致命的，但不会中断调度循环。
func (b *base) requireAdapter() error {
	if b.adapter == nil {
		return fmt.Errorf("%w: order %d (%s)", ErrNoAdapter, b.rec.ID, b.rec.Asset)
	}
	return nil
}

// note 把一条事件同时写入交易日志与结构化日志。
func (b *base) note(format string, args ...interface{}) {
	message := fmt.Sprintf(format, args...)
	if b.recorder != nil {
		b.recorder.Transaction(message)
	}
	if b.logger != nil {
		b.logger.Info(message, zap.Int("order_id", b.rec.ID), zap.String("asset", b.rec.Asset))
	}
}

// execute 是共享的执行原语：按 Amount（报价货币数量）市价下单。
// 成交则订单完结并记录方向；被拒或传输失败则订单失败并记录原因。
// 仅在上下文取消时返回错误，此时状态保持不变。
func (b *base) execute(ctx context.Context, side exchange.Side) error {
	result, err := b.adapter.PlaceOrder(ctx, side, b.rec.Asset, b.rec.Amount)
	if err != nil {
		b.note("%s order interrupted for %d (%s): %v", side, b.rec.ID, b.rec.Asset, err)
		return err
	}

	if result.IsFilled() {
		b.complete(Action(side))
		b.note("%s order succeeded for %d (%s)", side, b.rec.ID, b.rec.Asset)
		return nil
	}

	b.setState(StateFailed)
	b.note("%s order failed for %d (%s): %s", side, b.rec.ID, b.rec.Asset, result.Reason)
	return nil
}
