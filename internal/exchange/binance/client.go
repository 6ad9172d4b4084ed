package binance

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"nightowl-trader/internal/config"
)

const (
	endpointTime         = "/api/v3/time"
	endpointExchangeInfo = "/api/v3/exchangeInfo"
	endpointKlines       = "/api/v3/klines"
	endpointTickerPrice  = "/api/v3/ticker/price"
	endpointAccount      = "/api/v3/account"
	endpointOrder        = "/api/v3/order"

	headerAPIKey = "X-MBX-APIKEY"

	// 交易所未提供 NOTIONAL 过滤器时的兜底最小名义金额。
	fallbackMinNotional = "10"

	defaultCandleLimit = 500
)

// Client 是 Binance 现货的原生 REST 适配器，自行完成请求签名。
type Client struct {
	baseURL    string
	apiKey     string
	apiSecret  string
	recvWindow  int64
	overrides   map[string]decimal.Decimal
	candleLimit int
	httpClient  *http.Client
	logger      *zap.Logger
}

// NewClient 根据配置构造适配器。NotionalOverrides 在此解析一次，
// 非法的十进制串视为配置错误。candleLimit 是单次K线拉取的条数上限。
func NewClient(cfg config.BinanceConfig, candleLimit int, logger *zap.Logger) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("binance: base_url 不能为空")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	recvWindow := cfg.RecvWindow
	if recvWindow <= 0 {
		recvWindow = 10000
	}
	timeout := cfg.HTTPTimeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	if candleLimit <= 0 {
		candleLimit = defaultCandleLimit
	}

	overrides := make(map[string]decimal.Decimal, len(cfg.NotionalOverrides))
	for asset, value := range cfg.NotionalOverrides {
		parsed, err := decimal.NewFromString(value)
		if err != nil {
			return nil, fmt.Errorf("binance: notional_overrides[%s] 解析失败: %w", asset, err)
		}
		overrides[strings.ToUpper(asset)] = parsed
	}

	return &Client{
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:      cfg.APIKey,
		apiSecret:   cfg.APISecret,
		recvWindow:  recvWindow,
		overrides:   overrides,
		candleLimit: candleLimit,
		httpClient:  &http.Client{Timeout: timeout},
		logger:      logger,
	}, nil
}

// sign 对编码后的查询串做 HMAC-SHA256，返回十六进制签名。
// 签名对象必须与最终发送的编码串完全一致。
func (c *Client) sign(encoded string) string {
	mac := hmac.New(sha256.New, []byte(c.apiSecret))
	mac.Write([]byte(encoded))
	return hex.EncodeToString(mac.Sum(nil))
}

// signedQuery 注入时间戳与接收窗口后编码并签名。signature 必须是
// 查询串的最后一个参数，因此在编码结果上手工追加，绝不重新编码。
// 时间戳每次都向交易所现取，避免本地时钟偏差导致拒单。
func (c *Client) signedQuery(ctx context.Context, params url.Values) (string, error) {
	serverTime, err := c.serverTime(ctx)
	if err != nil {
		return "", fmt.Errorf("binance: 获取服务器时间失败: %w", err)
	}

	params.Set("timestamp", fmt.Sprintf("%d", serverTime))
	params.Set("recvWindow", fmt.Sprintf("%d", c.recvWindow))
	encoded := params.Encode()
	return encoded + "&signature=" + c.sign(encoded), nil
}

func (c *Client) serverTime(ctx context.Context) (int64, error) {
	var payload struct {
		ServerTime int64 `json:"serverTime"`
	}
	if err := c.getJSON(ctx, endpointTime, nil, false, &payload); err != nil {
		return 0, err
	}
	return payload.ServerTime, nil
}

// apiError 是交易所返回的标准错误体。
type apiError struct {
	Code    int64  `json:"code"`
	Message string `json:"msg"`
}

// statusError 携带 HTTP 状态码与交易所错误信息。
type statusError struct {
	StatusCode int
	Venue      apiError
}

func (e *statusError) Error() string {
	if e.Venue.Message != "" {
		return fmt.Sprintf("binance: http %d: %s (code %d)", e.StatusCode, e.Venue.Message, e.Venue.Code)
	}
	return fmt.Sprintf("binance: http %d", e.StatusCode)
}

func (c *Client) getJSON(ctx context.Context, endpoint string, params url.Values, signed bool, out interface{}) error {
	return c.doJSON(ctx, http.MethodGet, endpoint, params, signed, out)
}

func (c *Client) doJSON(ctx context.Context, method, endpoint string, params url.Values, signed bool, out interface{}) error {
	query := ""
	if len(params) > 0 {
		query = params.Encode()
	}
	return c.doRaw(ctx, method, endpoint, query, signed, out)
}

// doRaw 以给定的原始查询串发起请求，签名请求的查询串已含 signature，
// 不得再改写。
func (c *Client) doRaw(ctx context.Context, method, endpoint, rawQuery string, signed bool, out interface{}) error {
	requestURL := c.baseURL + endpoint
	if rawQuery != "" {
		requestURL += "?" + rawQuery
	}

	req, err := http.NewRequestWithContext(ctx, method, requestURL, nil)
	if err != nil {
		return fmt.Errorf("binance: 构造请求失败: %w", err)
	}
	if signed {
		req.Header.Set(headerAPIKey, c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("binance: 请求 %s 失败: %w", endpoint, err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("binance: 读取响应失败: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		venueErr := apiError{}
		_ = json.Unmarshal(body, &venueErr)
		return &statusError{StatusCode: resp.StatusCode, Venue: venueErr}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("binance: 解析响应失败: %w", err)
	}
	return nil
}

// symbolFor 把资产符号映射为交易对，报价货币固定为 USDT。
func symbolFor(asset string) string {
	return strings.ToUpper(asset) + quoteAsset
}

const quoteAsset = "USDT"
