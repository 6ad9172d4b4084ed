package notify

import "nightowl-trader/internal/order"

// Notifier 是引擎面向外界的通知出口。实现方（命令行、图形界面、
// 告警通道）据此刷新视图；所有回调都可能来自调度器协程，
// 实现必须自行保证线程安全且不得长时间阻塞。
type Notifier interface {
	// OrdersChanged 在订单集合或任一订单状态变化后触发，
	// 携带变化后的完整快照。
	OrdersChanged(records []order.Record)
	// ProcessingFinished 在调度循环退出后触发一次。
	ProcessingFinished()
	// Transaction 在新的交易日志记录产生时触发。
	Transaction(message string)
}

// Nop 是空实现，用于无人订阅的场合。
type Nop struct{}

func (Nop) OrdersChanged([]order.Record) {}
func (Nop) ProcessingFinished()          {}
func (Nop) Transaction(string)           {}

var _ Notifier = Nop{}
