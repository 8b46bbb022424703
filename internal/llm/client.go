// Package llm wraps the external language-model collaborator behind a small
// completion interface so the mapper's validation pass can be tested with a
// mock and disabled without code changes.
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"golang.org/x/time/rate"

	"github.com/draftforge/relevance-engine/internal/config"
)

// ErrUnavailable indicates the language-model service could not be reached or
// did not answer in time. Callers treat it as a signal to fall back, never as
// a pipeline failure.
var ErrUnavailable = errors.New("language model service unavailable")

// Completer is the text-in/text-out contract with the language-model
// collaborator.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

const minutePerWindow = time.Minute

// AnthropicCompleter is the production Completer backed by the Anthropic API.
type AnthropicCompleter struct {
	client    anthropic.Client
	model     anthropic.Model
	maxTokens int64
	timeout   time.Duration
	limiter   *rate.Limiter
}

// NewAnthropicCompleter creates a Completer from validation settings.
func NewAnthropicCompleter(cfg config.ValidationConfig) *AnthropicCompleter {
	rpm := cfg.RequestsPerMinute
	if rpm <= 0 {
		rpm = 1
	}
	return &AnthropicCompleter{
		client:    anthropic.NewClient(option.WithAPIKey(cfg.APIKey)),
		model:     anthropic.Model(cfg.Model),
		maxTokens: int64(cfg.MaxTokens),
		timeout:   cfg.Timeout,
		limiter:   rate.NewLimiter(rate.Every(minutePerWindow/time.Duration(rpm)), 1),
	}
}

// Complete sends one prompt and returns the concatenated text blocks of the
// response. The call is rate limited and bounded by the configured timeout.
func (c *AnthropicCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("%w: %w", ErrUnavailable, err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	msg, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     c.model,
		MaxTokens: c.maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrUnavailable, err)
	}

	var b strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			b.WriteString(block.Text)
		}
	}
	if b.Len() == 0 {
		return "", fmt.Errorf("%w: empty completion", ErrUnavailable)
	}
	return b.String(), nil
}
