package order

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"nightowl-trader/internal/exchange"
	"nightowl-trader/internal/signal"
)

// Deps 汇总订单运行期依赖。这些引用不持久化，
// 加载时依据平台标识重新装配。
type Deps struct {
	Adapter exchange.Adapter
	Signals signal.Generator
	// Recorder 接收订单事件；为空时事件只进结构化日志。
	Recorder Recorder
	Logger   *zap.Logger
	// AutopilotInterval 是自动驾驶订单评估信号所用的K线周期。
	AutopilotInterval string
}

func (b *base) init(rec Record, deps Deps) {
	if rec.State == "" {
		rec.State = StateNew
	}
	b.rec = rec
	b.adapter = deps.Adapter
	b.signals = deps.Signals
	b.recorder = deps.Recorder
	b.logger = deps.Logger
}

// New 依据记录的 position 判别值构造对应种类的订单。
// 不可识别的判别值返回 ErrUnknownKind。
func New(rec Record, deps Deps) (Order, error) {
	interval := deps.AutopilotInterval
	if interval == "" {
		interval = "4h"
	}

	switch Kind(strings.ToLower(strings.TrimSpace(string(rec.Position)))) {
	case KindBuy:
		o := &Buy{}
		o.init(rec, deps)
		return o, nil
	case KindSell:
		o := &Sell{}
		o.init(rec, deps)
		return o, nil
	case KindTakeProfit:
		o := &TakeProfit{}
		o.init(rec, deps)
		return o, nil
	case KindStopLoss:
		o := &StopLoss{}
		o.init(rec, deps)
		return o, nil
	case KindAutopilot:
		o := &Autopilot{interval: interval}
		o.init(rec, deps)
		return o, nil
	case KindSimulate:
		o := &Simulate{}
		o.init(rec, deps)
		return o, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, rec.Position)
	}
}
