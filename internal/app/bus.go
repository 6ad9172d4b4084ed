package app

import (
	"context"
	"time"

	"go.uber.org/zap"

	"nightowl-trader/internal/journal"
	"nightowl-trader/internal/notify"
	"nightowl-trader/internal/order"
	"nightowl-trader/internal/store"
)

// bus 把订单与引擎产生的事件扇出到交易历史文档、事件数据库、
// 结构化日志与外部订阅方。它同时实现 order.Recorder 与
// notify.Notifier，是两个方向事件的汇合点。
type bus struct {
	logger     *zap.Logger
	docs       *store.Documents
	journal    *journal.Journal
	subscriber notify.Notifier
}

var (
	_ order.Recorder  = (*bus)(nil)
	_ notify.Notifier = (*bus)(nil)
)

// Transaction 实现 order.Recorder：落历史文档、进事件库、
// 再转发给订阅方。历史写入失败只告警，不打断交易流程。
func (b *bus) Transaction(message string) {
	if err := b.docs.Prepend(store.Transaction{Timestamp: time.Now().UTC(), Message: message}); err != nil {
		b.logger.Warn("交易历史写入失败", zap.Error(err))
	}
	if b.journal != nil {
		b.journal.Transaction(context.Background(), message)
	}
	if b.subscriber != nil {
		b.subscriber.Transaction(message)
	}
}

// OrdersChanged 实现 notify.Notifier。
func (b *bus) OrdersChanged(records []order.Record) {
	if b.subscriber != nil {
		b.subscriber.OrdersChanged(records)
	}
}

// ProcessingFinished 实现 notify.Notifier。
func (b *bus) ProcessingFinished() {
	b.logger.Info("订单处理已全部停止")
	if b.subscriber != nil {
		b.subscriber.ProcessingFinished()
	}
}
