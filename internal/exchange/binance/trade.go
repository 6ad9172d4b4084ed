package binance

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"nightowl-trader/internal/exchange"
)

func normalizeAsset(asset string) string {
	return strings.ToUpper(strings.TrimSpace(asset))
}

// PlaceOrder 以市价执行一笔约 quoteAmount USDT 的买卖。
// 流程：取价与过滤器、精确归一化数量、名义金额闸门、签名下单。
// 归一化或闸门失败直接返回 Rejected，不触达下单端点。
func (c *Client) PlaceOrder(ctx context.Context, side exchange.Side, asset string, quoteAmount float64) (exchange.ExecutionResult, error) {
	symbol := symbolFor(asset)

	var (
		price   decimal.Decimal
		filters exchange.SymbolFilters
	)

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		fetched, err := c.tickerPrice(groupCtx, symbol)
		if err != nil {
			return err
		}
		price = fetched
		return nil
	})
	group.Go(func() error {
		fetched, err := c.symbolFilters(groupCtx, symbol)
		if err != nil {
			return err
		}
		filters = fetched
		return nil
	})
	if err := group.Wait(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return exchange.ExecutionResult{}, ctxErr
		}
		return exchange.Errored(err.Error()), nil
	}

	if price.IsZero() {
		return exchange.Errored("binance: 交易所返回零价格"), nil
	}

	rawQuantity := decimal.NewFromFloat(quoteAmount).Div(price)
	quantity, reason := exchange.NormalizeQuantity(rawQuantity, filters)
	if reason != "" {
		return exchange.Rejected(reason), nil
	}
	if reason := exchange.CheckNotional(quantity, price, c.minNotionalFor(asset, filters)); reason != "" {
		return exchange.Rejected(reason), nil
	}

	params := url.Values{}
	params.Set("symbol", symbol)
	params.Set("side", strings.ToUpper(string(side)))
	params.Set("type", "MARKET")
	params.Set("quantity", quantity.String())

	query, err := c.signedQuery(ctx, params)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return exchange.ExecutionResult{}, ctxErr
		}
		return exchange.Errored(err.Error()), nil
	}

	var placed struct {
		Status string `json:"status"`
	}
	if err := c.doRaw(ctx, http.MethodPost, endpointOrder, query, true, &placed); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return exchange.ExecutionResult{}, ctxErr
		}
		var venueErr *statusError
		if errors.As(err, &venueErr) && venueErr.StatusCode < http.StatusInternalServerError {
			return exchange.Rejected(venueErr.Venue.Message), nil
		}
		return exchange.Errored(err.Error()), nil
	}

	if placed.Status != "FILLED" {
		return exchange.Rejected("order status " + placed.Status), nil
	}

	c.logger.Info("市价单已成交",
		zap.String("symbol", symbol),
		zap.String("side", string(side)),
		zap.String("quantity", quantity.String()),
	)
	return exchange.Filled(), nil
}

// BalanceAndValue 返回资产的可用数量及其 USDT 估值。
// 报价货币本身的估值等于数量；其他资产估值失败时按0计，
// 不影响数量查询本身。
func (c *Client) BalanceAndValue(ctx context.Context, asset string) (float64, float64, error) {
	query, err := c.signedQuery(ctx, url.Values{})
	if err != nil {
		return 0, 0, err
	}

	var account struct {
		Balances []struct {
			Asset string `json:"asset"`
			Free  string `json:"free"`
		} `json:"balances"`
	}
	if err := c.doRaw(ctx, http.MethodGet, endpointAccount, query, true, &account); err != nil {
		return 0, 0, err
	}

	target := normalizeAsset(asset)
	quantity := 0.0
	for _, balance := range account.Balances {
		if balance.Asset == target {
			parsed, parseErr := decimal.NewFromString(balance.Free)
			if parseErr != nil {
				return 0, 0, parseErr
			}
			quantity, _ = parsed.Float64()
			break
		}
	}

	if target == quoteAsset {
		return quantity, quantity, nil
	}

	price, err := c.tickerPrice(ctx, symbolFor(target))
	if err != nil {
		c.logger.Warn("估值取价失败，按零计",
			zap.String("asset", target),
			zap.Error(err),
		)
		return quantity, 0, nil
	}

	value, _ := decimal.NewFromFloat(quantity).Mul(price).Float64()
	return quantity, value, nil
}

var _ exchange.Adapter = (*Client)(nil)
