package order

import (
	"context"
	"errors"
)

// State 是订单生命周期状态。
type State string

const (
	StateNew        State = "new"
	StateInProgress State = "in_progress"
	StateCompleted  State = "completed"
	StateFailed     State = "failed"
)

// Kind 区分订单种类，持久化文档中以 position 字段承载。
type Kind string

const (
	KindBuy        Kind = "buy"
	KindSell       Kind = "sell"
	KindTakeProfit Kind = "take profit"
	KindStopLoss   Kind = "stop loss"
	KindAutopilot  Kind = "autopilot-4h"
	KindSimulate   Kind = "simulate"
)

// Action 记录订单最近一次已执行的方向，用于避免连续重复动作。
type Action string

const (
	ActionNone Action = ""
	ActionBuy  Action = "buy"
	ActionSell Action = "sell"
)

var (
	// ErrUnknownKind 表示订单种类判别值不可识别。
	ErrUnknownKind = errors.New("order: unknown kind")
	// ErrNoAdapter 表示订单未绑定交易适配器，属于契约违例。
	ErrNoAdapter = errors.New("order: no trading adapter bound")
)

// Record 是订单的持久化形态。适配器与信号源引用不随记录持久化，
// 加载时依据 Platform 重新绑定。JSON 键名沿用既有文档格式。
type Record struct {
	ID         int     `json:"id"`
	Asset      string  `json:"asset"`
	Amount     float64 `json:"amount"`
	Position   Kind    `json:"position"`
	Platform   string  `json:"platform"`
	State      State   `json:"state"`
	LastAction Action  `json:"last_action"`
}

// Order 是一条交易意图。Process 是该种类的状态转移函数，
// 只允许调度器调用。
type Order interface {
	ID() int
	Record() Record
	Process(ctx context.Context) error
}

// Recorder 接收订单处理过程中产生的人类可读事件，
// 由上层路由到交易日志与通知通道。
type Recorder interface {
	Transaction(message string)
}
