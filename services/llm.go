package services

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
	"github.com/tmc/langchaingo/schema"
)

// Generator 文本生成客户端，注入以便测试替换为确定性实现
type Generator interface {
	Invoke(ctx context.Context, prompt string) (string, error)
}

// LLMClient 封装 OpenAI 兼容接口的模型客户端
type LLMClient struct {
	model llms.Model
}

func NewLLMClient(apiKey, apiEndpoint, modelName string) (*LLMClient, error) {
	m, err := openai.New(
		openai.WithToken(apiKey),
		openai.WithBaseURL(apiEndpoint),
		openai.WithModel(modelName),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create LLM client: %w", err)
	}

	return &LLMClient{model: m}, nil
}

// Invoke 单次请求，不流式，不重试
func (c *LLMClient) Invoke(ctx context.Context, prompt string) (string, error) {
	messages := []llms.MessageContent{
		{
			Role:  schema.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{llms.TextPart(prompt)},
		},
	}

	response, err := c.model.GenerateContent(ctx, messages, llms.WithTemperature(0.7))
	if err != nil {
		return "", fmt.Errorf("生成内容失败: %w", err)
	}

	if len(response.Choices) == 0 {
		return "", fmt.Errorf("未生成有效内容")
	}

	return response.Choices[0].Content, nil
}
