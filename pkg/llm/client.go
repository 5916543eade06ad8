package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
	"github.com/tmc/langchaingo/schema"

	"github.com/zatgpt/zatgpt-backend/pkg/config"
	"github.com/zatgpt/zatgpt-backend/pkg/enums"
	"github.com/zatgpt/zatgpt-backend/pkg/metrics"
)

// ErrEmptyReply is returned when the provider answers without usable content.
var ErrEmptyReply = errors.New("llm returned an empty reply")

// Message is one {role, content} pair of a completion request.
type Message struct {
	Role    enums.MessageRole
	Content string
}

// Completer turns an ordered conversation into the assistant's next reply.
type Completer interface {
	Complete(ctx context.Context, messages []Message) (string, error)
}

// Client is a Completer backed by a langchaingo chat model.
type Client struct {
	model    llms.Model
	provider string
	timeout  time.Duration
	metrics  *metrics.LLMMetrics
}

// New builds an OpenAI or Azure OpenAI backed client from configuration.
func New(cfg config.LLMConfig, m *metrics.LLMMetrics) (*Client, error) {
	model, err := buildModel(cfg)
	if err != nil {
		return nil, err
	}
	return NewWithModel(model, cfg.Provider, cfg.Timeout, m), nil
}

// NewWithModel wraps an already constructed model.
func NewWithModel(model llms.Model, provider string, timeout time.Duration, m *metrics.LLMMetrics) *Client {
	return &Client{model: model, provider: provider, timeout: timeout, metrics: m}
}

func buildModel(cfg config.LLMConfig) (llms.Model, error) {
	opts := []openai.Option{
		openai.WithModel(cfg.Model),
		openai.WithToken(cfg.APIKey),
	}
	if cfg.Endpoint != "" {
		opts = append(opts, openai.WithBaseURL(strings.TrimRight(cfg.Endpoint, "/")))
	}
	if cfg.IsAzure() {
		opts = append(opts,
			openai.WithAPIType(openai.APITypeAzure),
			openai.WithAPIVersion(cfg.APIVersion),
		)
	}
	model, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("init %s llm client: %w", cfg.Provider, err)
	}
	return model, nil
}

// Complete sends the full conversation upstream and returns the first choice.
// No retries are attempted.
func (c *Client) Complete(ctx context.Context, messages []Message) (string, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	start := time.Now()
	reply, err := c.generate(ctx, messages)
	c.metrics.Observe(c.provider, outcomeOf(err), time.Since(start))
	return reply, err
}

func (c *Client) generate(ctx context.Context, messages []Message) (string, error) {
	resp, err := c.model.GenerateContent(ctx, toMessageContent(messages))
	if err != nil {
		return "", fmt.Errorf("llm generate content: %w", err)
	}
	if resp == nil || len(resp.Choices) == 0 || resp.Choices[0] == nil {
		return "", ErrEmptyReply
	}
	content := resp.Choices[0].Content
	if strings.TrimSpace(content) == "" {
		return "", ErrEmptyReply
	}
	return content, nil
}

func toMessageContent(messages []Message) []llms.MessageContent {
	out := make([]llms.MessageContent, 0, len(messages))
	for _, msg := range messages {
		out = append(out, llms.TextParts(chatMessageType(msg.Role), msg.Content))
	}
	return out
}

func chatMessageType(role enums.MessageRole) schema.ChatMessageType {
	switch role {
	case enums.MessageRoleSystem:
		return schema.ChatMessageTypeSystem
	case enums.MessageRoleAssistant:
		return schema.ChatMessageTypeAI
	default:
		return schema.ChatMessageTypeHuman
	}
}

func outcomeOf(err error) string {
	switch {
	case err == nil:
		return metrics.OutcomeSuccess
	case errors.Is(err, context.DeadlineExceeded):
		return metrics.OutcomeTimeout
	case errors.Is(err, ErrEmptyReply):
		return metrics.OutcomeEmpty
	default:
		return metrics.OutcomeError
	}
}
