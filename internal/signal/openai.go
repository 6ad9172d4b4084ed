package signal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"nightowl-trader/internal/config"
	"nightowl-trader/internal/exchange"
)

// 输入给模型的收盘价数量上限，避免提示词失控。
const maxPromptCloses = 120

// AIGenerator 用大模型替代均线启发式：把最近的收盘价序列交给模型，
// 要求其以严格 JSON 返回方向判断。
type AIGenerator struct {
	cfg    config.OpenAIConfig
	logger *zap.Logger
	sdk    *openai.Client
}

// NewAIGenerator 使用给定配置创建大模型信号源。
func NewAIGenerator(cfg config.OpenAIConfig, logger *zap.Logger) (*AIGenerator, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("signal: openai api_key 不能为空")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}
	clientConfig.HTTPClient = &http.Client{
		Timeout: cfg.Timeout + 5*time.Second,
	}

	return &AIGenerator{
		cfg:    cfg,
		logger: logger,
		sdk:    openai.NewClientWithConfig(clientConfig),
	}, nil
}

type aiVerdict struct {
	Signal string `json:"signal"`
}

// LastSignal 实现 Generator。模型输出无法解析时视为调用失败，
// 由调用方按无信号处理。
func (g *AIGenerator) LastSignal(ctx context.Context, candles []exchange.Candle) (Signal, error) {
	if len(candles) == 0 {
		return None, nil
	}

	response, err := g.sdk.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: g.cfg.Model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleUser,
				Content: buildPrompt(candles),
			},
		},
		Temperature: 0,
	})
	if err != nil {
		return None, fmt.Errorf("signal: 调用OpenAI失败: %w", err)
	}
	if len(response.Choices) == 0 {
		return None, errors.New("signal: OpenAI 返回结果为空")
	}

	content := strings.TrimSpace(response.Choices[0].Message.Content)
	verdict, err := parseVerdict(content)
	if err != nil {
		g.logger.Warn("解析模型信号失败",
			zap.Error(err),
			zap.String("raw_content", content),
		)
		return None, err
	}

	switch strings.ToLower(verdict.Signal) {
	case "buy":
		return Buy, nil
	case "sell":
		return Sell, nil
	default:
		return None, nil
	}
}

func buildPrompt(candles []exchange.Candle) string {
	start := 0
	if len(candles) > maxPromptCloses {
		start = len(candles) - maxPromptCloses
	}

	var sb strings.Builder
	sb.WriteString("You are a trading signal generator. Given the following chronological close prices, ")
	sb.WriteString("answer with strict JSON {\"signal\": \"buy\"|\"sell\"|\"none\"} and nothing else.\n")
	sb.WriteString("closes:")
	for _, candle := range candles[start:] {
		fmt.Fprintf(&sb, " %.8f", candle.Close)
	}
	return sb.String()
}

func parseVerdict(content string) (aiVerdict, error) {
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start == -1 || end == -1 || end <= start {
		return aiVerdict{}, fmt.Errorf("signal: 模型输出未找到有效JSON: %s", content)
	}

	var verdict aiVerdict
	if err := json.Unmarshal([]byte(content[start:end+1]), &verdict); err != nil {
		return aiVerdict{}, fmt.Errorf("signal: 解析信号JSON失败: %w", err)
	}
	return verdict, nil
}

var _ Generator = (*AIGenerator)(nil)
