package engine

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"nightowl-trader/internal/notify"
	"nightowl-trader/internal/order"
)

const (
	defaultInterval = 20 * time.Second
	defaultTimeout  = 30 * time.Second
)

// PersistFunc 在每个订单处理完成后接收集合全量快照并落盘。
type PersistFunc func(records []order.Record) error

// ProcessedFunc 在每个订单处理完成后接收其编号与落点状态，
// 用于审计流水等旁路记录。
type ProcessedFunc func(id int, state order.State)

// Config 汇总调度器依赖与参数。
type Config struct {
	Registry *order.Registry
	Persist  PersistFunc
	Notifier notify.Notifier
	Logger   *zap.Logger
	// Interval 是两轮处理之间的等待时长。
	Interval time.Duration
	// Timeout 是单个订单一次处理的最长时长。
	Timeout time.Duration
	// Processed 可选，逐单回调。
	Processed ProcessedFunc
}

// Processor 是订单调度器：运行期间按固定间隔逐个处理集合中的
// 订单。单订单失败不中断本轮，其余订单照常处理；停止请求在
// 轮次间隙与订单间隙均被响应，不会阻塞到下一个完整间隔。
type Processor struct {
	registry  *order.Registry
	persist   PersistFunc
	notifier  notify.Notifier
	logger    *zap.Logger
	interval  time.Duration
	timeout   time.Duration
	processed ProcessedFunc

	mu      sync.Mutex
	running bool
	stop    chan struct{}
	done    chan struct{}
}

// New 创建调度器。
func New(cfg Config) *Processor {
	interval := cfg.Interval
	if interval <= 0 {
		interval = defaultInterval
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	notifier := cfg.Notifier
	if notifier == nil {
		notifier = notify.Nop{}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Processor{
		registry:  cfg.Registry,
		persist:   cfg.Persist,
		notifier:  notifier,
		logger:    logger,
		interval:  interval,
		timeout:   timeout,
		processed: cfg.Processed,
	}
}

// Running 报告调度循环是否在运行。
func (p *Processor) Running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

// Start 启动调度循环。重复启动是无操作，返回 false 且不产生
// 第二个循环。
func (p *Processor) Start(ctx context.Context) bool {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return false
	}
	p.running = true
	p.stop = make(chan struct{})
	p.done = make(chan struct{})
	stop, done := p.stop, p.done
	p.mu.Unlock()

	p.logger.Info("调度循环启动", zap.Duration("interval", p.interval))
	go p.run(ctx, stop, done)
	return true
}

// Stop 请求停止并等待循环退出。未在运行时是无操作。
// 等待时长有界：最多为当前订单的剩余处理时间。
func (p *Processor) Stop() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	stop, done := p.stop, p.done
	p.mu.Unlock()

	select {
	case <-stop:
	default:
		close(stop)
	}
	<-done
}

func (p *Processor) run(ctx context.Context, stop, done chan struct{}) {
	defer func() {
		p.notifier.ProcessingFinished()
		p.logger.Info("调度循环退出")
		p.mu.Lock()
		p.running = false
		p.mu.Unlock()
		close(done)
	}()

	for {
		p.tick(ctx, stop)

		select {
		case <-ctx.Done():
			return
		case <-stop:
			return
		case <-time.After(p.interval):
		}
	}
}

// tick 处理一轮：对集合快照逐单调用 Process，每单落盘一次，
// 本轮结束后广播一次集合变更。
func (p *Processor) tick(ctx context.Context, stop chan struct{}) {
	orders := p.registry.Snapshot()

	for _, o := range orders {
		select {
		case <-ctx.Done():
			return
		case <-stop:
			return
		default:
		}

		octx, cancel := context.WithTimeout(ctx, p.timeout)
		err := o.Process(octx)
		cancel()

		rec := o.Record()
		if err != nil {
			p.logger.Error("订单处理失败",
				zap.Int("order_id", rec.ID),
				zap.String("asset", rec.Asset),
				zap.String("position", string(rec.Position)),
				zap.Error(err))
		}

		if p.processed != nil {
			p.processed(rec.ID, rec.State)
		}
		if p.persist != nil {
			if perr := p.persist(p.registry.Records()); perr != nil {
				p.logger.Error("订单文档落盘失败", zap.Error(perr))
			}
		}
	}

	p.notifier.OrdersChanged(p.registry.Records())
}
