package app

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"nightowl-trader/internal/config"
	"nightowl-trader/internal/engine"
	"nightowl-trader/internal/exchange"
	"nightowl-trader/internal/journal"
	"nightowl-trader/internal/notify"
	"nightowl-trader/internal/order"
	"nightowl-trader/internal/signal"
	"nightowl-trader/internal/store"
)

// App 负责装配交易引擎的全部部件：订单集合、调度器、交易适配器、
// 信号源与持久化，并对外提供增删订单和启停调度的入口。
type App struct {
	cfg      *config.Config
	logger   *zap.Logger
	docs     *store.Documents
	journal  *journal.Journal
	registry *order.Registry
	engine   *engine.Processor
	signals  signal.Generator
	adapters *adapters
	bus      *bus
}

// New 依据配置装配应用。subscriber 可为 nil，此时事件只进日志与
// 持久化通道。
func New(cfg *config.Config, logger *zap.Logger, docs *store.Documents, jnl *journal.Journal, subscriber notify.Notifier) (*App, error) {
	signals, err := newSignalGenerator(cfg, logger)
	if err != nil {
		return nil, err
	}

	a := &App{
		cfg:      cfg,
		logger:   logger,
		docs:     docs,
		journal:  jnl,
		registry: order.NewRegistry(),
		signals:  signals,
	}
	a.adapters = &adapters{app: a}
	a.bus = &bus{
		logger:     logger,
		docs:       docs,
		journal:    jnl,
		subscriber: subscriber,
	}

	a.engine = engine.New(engine.Config{
		Registry: a.registry,
		Persist:  docs.WriteOrders,
		Notifier: a.bus,
		Logger:   logger.Named("engine"),
		Interval: cfg.Scheduler.LoopInterval,
		Timeout:  cfg.Scheduler.ProcessTimeout,
		Processed: func(id int, state order.State) {
			if jnl != nil {
				jnl.OrderProcessed(context.Background(), id, string(state))
			}
		},
	})

	return a, nil
}

func newSignalGenerator(cfg *config.Config, logger *zap.Logger) (signal.Generator, error) {
	switch cfg.Signal.Source {
	case "sma":
		return signal.NewSMACross(cfg.Signal.FastPeriod, cfg.Signal.SlowPeriod)
	case "openai":
		return signal.NewAIGenerator(cfg.Signal.OpenAI, logger.Named("signal"))
	default:
		return nil, fmt.Errorf("不支持的信号源: %q", cfg.Signal.Source)
	}
}

func (a *App) orderDeps(rec order.Record) order.Deps {
	deps := order.Deps{
		Signals:           a.signals,
		Recorder:          a.bus,
		Logger:            a.logger.Named("order"),
		AutopilotInterval: a.cfg.Scheduler.AutopilotInterval,
	}
	adapter, err := a.adapters.forPlatform(rec.Platform)
	if err != nil {
		// 平台不可识别或适配器构造失败时容忍加载，订单在处理时
		// 以未绑定适配器失败，而不是让整个集合无法恢复。
		a.logger.Warn("订单未能绑定交易适配器",
			zap.Int("order_id", rec.ID),
			zap.String("platform", rec.Platform),
			zap.Error(err))
		return deps
	}
	deps.Adapter = adapter
	return deps
}

// LoadOrders 从订单文档恢复集合。单条记录的种类不可识别时跳过
// 该条并告警，不放弃其余记录。
func (a *App) LoadOrders(ctx context.Context) error {
	records, err := a.docs.ReadOrders()
	if err != nil {
		return fmt.Errorf("恢复订单集合失败: %w", err)
	}

	orders := make([]order.Order, 0, len(records))
	for _, rec := range records {
		o, buildErr := order.New(rec, a.orderDeps(rec))
		if buildErr != nil {
			if errors.Is(buildErr, order.ErrUnknownKind) {
				a.logger.Warn("跳过种类不可识别的订单记录",
					zap.Int("order_id", rec.ID),
					zap.String("position", string(rec.Position)))
				if a.journal != nil {
					a.journal.Error(ctx, "订单记录种类不可识别", buildErr)
				}
				continue
			}
			return fmt.Errorf("恢复订单 %d 失败: %w", rec.ID, buildErr)
		}
		orders = append(orders, o)
	}

	a.registry.Load(orders)
	a.logger.Info("订单集合已恢复", zap.Int("count", a.registry.Len()))
	a.bus.OrdersChanged(a.registry.Records())
	return nil
}

// AddOrder 新建订单：分配编号、绑定适配器并立即落盘。平台或种类
// 不可识别时同步报错，不产生半成品记录。
func (a *App) AddOrder(ctx context.Context, template order.Record) (order.Record, error) {
	if _, err := a.adapters.forPlatform(template.Platform); err != nil {
		return order.Record{}, err
	}

	o, err := a.registry.Add(template, func(rec order.Record) (order.Order, error) {
		return order.New(rec, a.orderDeps(rec))
	})
	if err != nil {
		return order.Record{}, err
	}

	rec := o.Record()
	if err := a.docs.WriteOrders(a.registry.Records()); err != nil {
		a.logger.Error("订单文档落盘失败", zap.Error(err))
	}
	if a.journal != nil {
		a.journal.OrderAdded(ctx, rec.ID, rec.Asset, string(rec.Position), rec.Platform)
	}
	a.bus.Transaction(fmt.Sprintf("order %d added: %s %s on %s", rec.ID, rec.Position, rec.Asset, rec.Platform))
	a.bus.OrdersChanged(a.registry.Records())

	return rec, nil
}

// DeleteOrder 按编号删除订单并落盘，编号不存在时安全无操作。
func (a *App) DeleteOrder(ctx context.Context, id int) bool {
	if !a.registry.Remove(id) {
		return false
	}

	if err := a.docs.WriteOrders(a.registry.Records()); err != nil {
		a.logger.Error("订单文档落盘失败", zap.Error(err))
	}
	if a.journal != nil {
		a.journal.OrderRemoved(ctx, id)
	}
	a.bus.Transaction(fmt.Sprintf("order %d removed", id))
	a.bus.OrdersChanged(a.registry.Records())
	return true
}

// Start 启动调度循环，重复启动是无操作。
func (a *App) Start(ctx context.Context) bool {
	if !a.engine.Start(ctx) {
		return false
	}
	if a.journal != nil {
		a.journal.EngineStarted(ctx, a.registry.Len())
	}
	return true
}

// Stop 停止调度循环并等待其退出。
func (a *App) Stop() {
	a.engine.Stop()
	if a.journal != nil {
		a.journal.EngineStopped(context.Background())
	}
}

// Running 报告调度循环是否在运行。
func (a *App) Running() bool {
	return a.engine.Running()
}

// Orders 返回订单集合的持久化快照。
func (a *App) Orders() []order.Record {
	return a.registry.Records()
}

// History 返回交易历史，最新在前。
func (a *App) History() ([]store.Transaction, error) {
	return a.docs.ReadHistory()
}

// ChartData 返回资产在默认图表周期上的K线序列，供前端绘图使用。
func (a *App) ChartData(ctx context.Context, platform, asset string) ([]exchange.Candle, error) {
	adapter, err := a.adapters.forPlatform(platform)
	if err != nil {
		return nil, err
	}
	return adapter.HistoricData(ctx, asset, a.cfg.Scheduler.ChartInterval)
}

// Run 恢复订单、启动调度并阻塞到上下文取消，随后优雅停机。
func (a *App) Run(ctx context.Context) error {
	if err := a.LoadOrders(ctx); err != nil {
		return err
	}

	a.Start(ctx)
	<-ctx.Done()
	a.logger.Info("收到退出信号，停止调度")
	a.Stop()
	return nil
}
