package binance

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"nightowl-trader/internal/exchange"
)

// HistoricData 拉取K线序列（从旧到新）。交易所返回空数据时报
// ErrDataUnavailable，调用方据此把订单软失败。
func (c *Client) HistoricData(ctx context.Context, asset, interval string) ([]exchange.Candle, error) {
	params := url.Values{}
	params.Set("symbol", symbolFor(asset))
	params.Set("interval", interval)
	params.Set("limit", strconv.Itoa(c.candleLimit))

	var rows []json.RawMessage
	if err := c.getJSON(ctx, endpointKlines, params, false, &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, exchange.ErrDataUnavailable
	}

	candles := make([]exchange.Candle, 0, len(rows))
	for _, row := range rows {
		candle, err := parseKline(row)
		if err != nil {
			return nil, fmt.Errorf("binance: 解析K线失败: %w", err)
		}
		candles = append(candles, candle)
	}
	return candles, nil
}

// kline 行是混合类型数组：时间戳为数值，价格与成交量为字符串。
func parseKline(row json.RawMessage) (exchange.Candle, error) {
	var fields []interface{}
	if err := json.Unmarshal(row, &fields); err != nil {
		return exchange.Candle{}, err
	}
	if len(fields) < 6 {
		return exchange.Candle{}, fmt.Errorf("字段不足: %d", len(fields))
	}

	ts, ok := fields[0].(float64)
	if !ok {
		return exchange.Candle{}, fmt.Errorf("时间戳类型异常: %T", fields[0])
	}

	values := make([]float64, 5)
	for i := 1; i <= 5; i++ {
		text, ok := fields[i].(string)
		if !ok {
			return exchange.Candle{}, fmt.Errorf("第%d列类型异常: %T", i, fields[i])
		}
		parsed, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return exchange.Candle{}, err
		}
		values[i-1] = parsed
	}

	return exchange.Candle{
		Timestamp: time.UnixMilli(int64(ts)).UTC(),
		Open:      values[0],
		High:      values[1],
		Low:       values[2],
		Close:     values[3],
		Volume:    values[4],
	}, nil
}

// tickerPrice 返回交易对的最新价格（精确十进制）。
func (c *Client) tickerPrice(ctx context.Context, symbol string) (decimal.Decimal, error) {
	params := url.Values{}
	params.Set("symbol", symbol)

	var payload struct {
		Price string `json:"price"`
	}
	if err := c.getJSON(ctx, endpointTickerPrice, params, false, &payload); err != nil {
		return decimal.Decimal{}, err
	}

	price, err := decimal.NewFromString(payload.Price)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("binance: 价格解析失败: %w", err)
	}
	return price, nil
}

// symbolFilters 从 exchangeInfo 提取 LOT_SIZE 与 NOTIONAL 约束。
// NOTIONAL 缺失时使用兜底最小名义金额。
func (c *Client) symbolFilters(ctx context.Context, symbol string) (exchange.SymbolFilters, error) {
	params := url.Values{}
	params.Set("symbol", symbol)

	var payload struct {
		Symbols []struct {
			Filters []struct {
				FilterType  string `json:"filterType"`
				MinQty      string `json:"minQty"`
				StepSize    string `json:"stepSize"`
				MinNotional string `json:"minNotional"`
			} `json:"filters"`
		} `json:"symbols"`
	}
	if err := c.getJSON(ctx, endpointExchangeInfo, params, false, &payload); err != nil {
		return exchange.SymbolFilters{}, err
	}
	if len(payload.Symbols) == 0 {
		return exchange.SymbolFilters{}, fmt.Errorf("binance: 未找到交易对 %s 的元数据", symbol)
	}

	filters := exchange.SymbolFilters{}
	lotFound := false
	notionalFound := false
	for _, f := range payload.Symbols[0].Filters {
		switch f.FilterType {
		case "LOT_SIZE":
			minQty, err := decimal.NewFromString(f.MinQty)
			if err != nil {
				return exchange.SymbolFilters{}, fmt.Errorf("binance: minQty 解析失败: %w", err)
			}
			stepSize, err := decimal.NewFromString(f.StepSize)
			if err != nil {
				return exchange.SymbolFilters{}, fmt.Errorf("binance: stepSize 解析失败: %w", err)
			}
			filters.MinQty = minQty
			filters.StepSize = stepSize
			lotFound = true
		case "NOTIONAL", "MIN_NOTIONAL":
			minNotional, err := decimal.NewFromString(f.MinNotional)
			if err != nil {
				return exchange.SymbolFilters{}, fmt.Errorf("binance: minNotional 解析失败: %w", err)
			}
			filters.MinNotional = minNotional
			notionalFound = true
		}
	}

	if !lotFound {
		return exchange.SymbolFilters{}, fmt.Errorf("binance: 交易对 %s 缺少 LOT_SIZE 过滤器", symbol)
	}
	if !notionalFound {
		filters.MinNotional = decimal.RequireFromString(fallbackMinNotional)
	}
	return filters, nil
}

// minNotionalFor 返回资产生效的最小名义金额，配置覆盖优先。
func (c *Client) minNotionalFor(asset string, filters exchange.SymbolFilters) decimal.Decimal {
	if override, ok := c.overrides[normalizeAsset(asset)]; ok {
		return override
	}
	return filters.MinNotional
}
