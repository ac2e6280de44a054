package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"github.com/sony/gobreaker"

	"visitor-pass-service/internal/infrastructure/config"
	Logger "visitor-pass-service/pkg/logger"
)

var errEmptyNarrative = errors.New("模型未返回内容")

// InterfaceNarrativeService 调用大模型生成报告正文
type InterfaceNarrativeService interface {
	GenerateNarrative(ctx context.Context, prompt string) (string, error)
}

// NarrativeService 基于 OpenAI chat completions，单次非流式调用，不重试
type NarrativeService struct {
	client      *openai.Client
	apiKey      string
	model       string
	maxTokens   int
	temperature float32
	timeout     time.Duration
	breaker     *gobreaker.CircuitBreaker
}

// NewNarrativeService 连续失败 5 次后熔断 30 秒
func NewNarrativeService(cfg *config.Config) InterfaceNarrativeService {
	clientCfg := openai.DefaultConfig(cfg.OpenAIAPIKey)
	if cfg.OpenAIBaseURL != "" {
		clientCfg.BaseURL = cfg.OpenAIBaseURL
	}
	clientCfg.HTTPClient = &http.Client{}

	timeout := cfg.NarrativeTimeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	maxTokens := cfg.NarrativeMaxTokens
	if maxTokens <= 0 {
		maxTokens = 2000
	}
	model := cfg.OpenAIModel
	if model == "" {
		model = "gpt-4-turbo-preview"
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "openai-narrative",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			Logger.Warning("熔断器 %s 状态变化: %s -> %s", name, from, to)
		},
	})

	return &NarrativeService{
		client:      openai.NewClientWithConfig(clientCfg),
		apiKey:      cfg.OpenAIAPIKey,
		model:       model,
		maxTokens:   maxTokens,
		temperature: cfg.NarrativeTemperature,
		timeout:     timeout,
		breaker:     breaker,
	}
}

// GenerateNarrative 失败时返回包装了 ErrReportGeneration 的错误
func (s *NarrativeService) GenerateNarrative(ctx context.Context, prompt string) (string, error) {
	if s.apiKey == "" {
		Logger.Error("未配置 OPENAI_API_KEY，无法生成报告")
		return "", fmt.Errorf("%w: 未配置模型密钥", ErrReportGeneration)
	}

	result, err := s.breaker.Execute(func() (interface{}, error) {
		callCtx, cancel := context.WithTimeout(ctx, s.timeout)
		defer cancel()

		resp, err := s.client.CreateChatCompletion(callCtx, openai.ChatCompletionRequest{
			Model: s.model,
			Messages: []openai.ChatCompletionMessage{
				{Role: openai.ChatMessageRoleUser, Content: prompt},
			},
			Temperature: s.temperature,
			MaxTokens:   s.maxTokens,
		})
		if err != nil {
			return nil, err
		}
		if len(resp.Choices) == 0 {
			return nil, errEmptyNarrative
		}
		content := strings.TrimSpace(resp.Choices[0].Message.Content)
		if content == "" {
			return nil, errEmptyNarrative
		}
		return content, nil
	})
	if err != nil {
		Logger.WithContext(ctx).Errorf("调用模型生成报告失败: %v", err)
		return "", fmt.Errorf("%w: %v", ErrReportGeneration, err)
	}

	return result.(string), nil
}
