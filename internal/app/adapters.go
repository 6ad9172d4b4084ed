package app

import (
	"fmt"
	"strings"
	"sync"

	"nightowl-trader/internal/exchange"
	"nightowl-trader/internal/exchange/binance"
	"nightowl-trader/internal/exchange/hyperliquid"
)

// PlatformBinance 与 PlatformHyperliquid 是持久化文档中 platform
// 字段的取值。
const (
	PlatformBinance     = "binance"
	PlatformHyperliquid = "hyperliquid"
)

// adapters 按平台标识惰性构造并缓存交易适配器，
// 同一平台的全部订单共享一个适配器实例。
type adapters struct {
	mu    sync.Mutex
	cache map[string]exchange.Adapter
	app   *App
}

func (a *adapters) forPlatform(platform string) (exchange.Adapter, error) {
	key := strings.ToLower(strings.TrimSpace(platform))

	a.mu.Lock()
	defer a.mu.Unlock()

	if adapter, ok := a.cache[key]; ok {
		return adapter, nil
	}

	var (
		adapter exchange.Adapter
		err     error
	)
	switch key {
	case PlatformBinance:
		adapter, err = binance.NewClient(a.app.cfg.Binance, a.app.cfg.Scheduler.CandleLimit, a.app.logger.Named("binance"))
	case PlatformHyperliquid:
		adapter, err = hyperliquid.NewBridge(a.app.cfg.Hyperliquid, a.app.cfg.Scheduler.CandleLimit, a.app.logger.Named("hyperliquid"))
	default:
		return nil, fmt.Errorf("%w: %q", exchange.ErrUnknownPlatform, platform)
	}
	if err != nil {
		return nil, fmt.Errorf("构造 %s 适配器失败: %w", key, err)
	}

	if a.cache == nil {
		a.cache = make(map[string]exchange.Adapter)
	}
	a.cache[key] = adapter
	return adapter, nil
}
