package translate

import (
	"context"
	"errors"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

type LLMConfig struct {
	APIKey  string
	BaseURL string
	Model   string
}

// LLM translates with an OpenAI-compatible chat completion endpoint
// (OpenRouter by default).
type LLM struct {
	client *openai.Client
	model  string
}

func NewLLM(cfg LLMConfig) (*LLM, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("API key is required")
	}
	if cfg.Model == "" {
		return nil, errors.New("model is required")
	}
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	return &LLM{client: openai.NewClientWithConfig(clientCfg), model: cfg.Model}, nil
}

func (l *LLM) Name() string { return "llm:" + l.model }

func (l *LLM) Translate(ctx context.Context, text, source, target string) (string, error) {
	resp, err := l.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       l.model,
		Temperature: 0.1,
		Messages: []openai.ChatCompletionMessage{
			{
				Role: openai.ChatMessageRoleSystem,
				Content: fmt.Sprintf("Translate the user's text from %s to %s. "+
					"Return ONLY the translation: no quotes, no notes, no explanations.", source, target),
			},
			{Role: openai.ChatMessageRoleUser, Content: text},
		},
	})
	if err != nil {
		return "", fmt.Errorf("chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("no choices in API response")
	}
	out := strings.TrimSpace(resp.Choices[0].Message.Content)
	if out == "" {
		return "", errors.New("empty translation in API response")
	}
	return out, nil
}
