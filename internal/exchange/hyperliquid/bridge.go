package hyperliquid

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	ccxt "github.com/ccxt/ccxt/go/v4"
	"go.uber.org/zap"

	"nightowl-trader/internal/config"
	"nightowl-trader/internal/exchange"
)

const quoteAsset = "USDC"

// Bridge 通过 ccxt 把 Hyperliquid 接入统一的 Adapter 契约。
// 数量与名义金额约束交由 ccxt 与交易所本身校验。
type Bridge struct {
	client      *ccxt.Hyperliquid
	candleLimit int64
	logger      *zap.Logger

	marketsMu     sync.Mutex
	marketsLoaded bool
}

const defaultCandleLimit = 500

// NewBridge 构造 Hyperliquid 适配器。candleLimit 是单次K线拉取的
// 条数上限。
func NewBridge(cfg config.HyperliquidConfig, candleLimit int, logger *zap.Logger) (*Bridge, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if candleLimit <= 0 {
		candleLimit = defaultCandleLimit
	}

	userConfig := map[string]interface{}{
		"enableRateLimit": true,
	}
	if cfg.APIKey != "" {
		userConfig["apiKey"] = cfg.APIKey
	}
	if cfg.APISecret != "" {
		userConfig["secret"] = cfg.APISecret
	}
	if cfg.Wallet != "" {
		userConfig["walletAddress"] = cfg.Wallet
	}
	if cfg.PrivateKey != "" {
		userConfig["privateKey"] = cfg.PrivateKey
	}

	client := ccxt.NewHyperliquid(userConfig)
	if cfg.UseSandbox {
		client.SetSandboxMode(true)
	}

	return &Bridge{
		client:      client,
		candleLimit: int64(candleLimit),
		logger:      logger,
	}, nil
}

func symbolFor(asset string) string {
	return strings.ToUpper(strings.TrimSpace(asset)) + "/" + quoteAsset
}

func (b *Bridge) ensureMarketsLoaded() error {
	b.marketsMu.Lock()
	defer b.marketsMu.Unlock()

	if b.marketsLoaded {
		return nil
	}
	if _, err := b.client.LoadMarkets(); err != nil {
		return fmt.Errorf("hyperliquid: 加载市场元数据失败: %w", err)
	}
	b.marketsLoaded = true
	return nil
}

// HistoricData 拉取K线序列（从旧到新）。
func (b *Bridge) HistoricData(ctx context.Context, asset, interval string) ([]exchange.Candle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := b.ensureMarketsLoaded(); err != nil {
		return nil, err
	}

	rows, err := b.client.FetchOHLCV(
		symbolFor(asset),
		ccxt.WithFetchOHLCVTimeframe(interval),
		ccxt.WithFetchOHLCVLimit(b.candleLimit),
	)
	if err != nil {
		return nil, fmt.Errorf("hyperliquid: 拉取K线失败: %w", err)
	}
	if len(rows) == 0 {
		return nil, exchange.ErrDataUnavailable
	}

	candles := make([]exchange.Candle, 0, len(rows))
	for _, row := range rows {
		candles = append(candles, exchange.Candle{
			Timestamp: msToTime(row.Timestamp),
			Open:      row.Open,
			High:      row.High,
			Low:       row.Low,
			Close:     row.Close,
			Volume:    row.Volume,
		})
	}
	return candles, nil
}

// PlaceOrder 按最近一根1分钟K线的收盘价折算基础资产数量后市价下单。
func (b *Bridge) PlaceOrder(ctx context.Context, side exchange.Side, asset string, quoteAmount float64) (exchange.ExecutionResult, error) {
	if err := ctx.Err(); err != nil {
		return exchange.ExecutionResult{}, err
	}
	if err := b.ensureMarketsLoaded(); err != nil {
		return exchange.Errored(err.Error()), nil
	}

	price, err := b.lastPrice(asset)
	if err != nil {
		return exchange.Errored(fmt.Sprintf("hyperliquid: 取价失败: %v", err)), nil
	}
	if price <= 0 {
		return exchange.Errored("hyperliquid: 交易所返回非正价格"), nil
	}

	amount := quoteAmount / price
	if _, err := b.client.CreateMarketOrder(symbolFor(asset), string(side), amount); err != nil {
		if transportFailure(err) {
			return exchange.Errored(err.Error()), nil
		}
		return exchange.Rejected(err.Error()), nil
	}

	b.logger.Info("市价单已提交",
		zap.String("symbol", symbolFor(asset)),
		zap.String("side", string(side)),
		zap.Float64("amount", amount),
	)
	return exchange.Filled(), nil
}

// BalanceAndValue 返回资产的可用数量及其报价货币估值。
func (b *Bridge) BalanceAndValue(ctx context.Context, asset string) (float64, float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, 0, err
	}
	if err := b.ensureMarketsLoaded(); err != nil {
		return 0, 0, err
	}

	balances, err := b.client.FetchBalance()
	if err != nil {
		return 0, 0, fmt.Errorf("hyperliquid: 获取余额失败: %w", err)
	}

	target := strings.ToUpper(strings.TrimSpace(asset))
	quantity := 0.0
	if balances.Free != nil {
		if free, ok := balances.Free[target]; ok && free != nil {
			quantity = *free
		}
	}

	if target == quoteAsset {
		return quantity, quantity, nil
	}

	price, err := b.lastPrice(target)
	if err != nil {
		b.logger.Warn("估值取价失败，按零计",
			zap.String("asset", target),
			zap.Error(err),
		)
		return quantity, 0, nil
	}
	return quantity, quantity * price, nil
}

func (b *Bridge) lastPrice(asset string) (float64, error) {
	rows, err := b.client.FetchOHLCV(
		symbolFor(asset),
		ccxt.WithFetchOHLCVTimeframe("1m"),
		ccxt.WithFetchOHLCVLimit(1),
	)
	if err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, exchange.ErrDataUnavailable
	}
	return rows[len(rows)-1].Close, nil
}

// transportFailure 区分传输层失败与交易所业务拒绝。
func transportFailure(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var ccxtErr *ccxt.Error
	if errors.As(err, &ccxtErr) {
		switch ccxtErr.Type {
		case ccxt.NetworkErrorErrType,
			ccxt.RequestTimeoutErrType,
			ccxt.ExchangeNotAvailableErrType,
			ccxt.RateLimitExceededErrType,
			ccxt.DDoSProtectionErrType,
			ccxt.BadResponseErrType,
			ccxt.NullResponseErrType,
			ccxt.OnMaintenanceErrType:
			return true
		default:
			return false
		}
	}
	return true
}

var _ exchange.Adapter = (*Bridge)(nil)
