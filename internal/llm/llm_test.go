package llm

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/grant-review/internal/resilience"
	"github.com/sells-group/grant-review/pkg/anthropic"
	anthropicmocks "github.com/sells-group/grant-review/pkg/anthropic/mocks"
)

func TestAnthropicGenerator_Generate(t *testing.T) {
	client := anthropicmocks.NewMockClient(t)
	client.On("CreateMessage", mock.Anything, mock.MatchedBy(func(req anthropic.MessageRequest) bool {
		return req.Model == "claude-haiku-4-5-20251001" &&
			req.MaxTokens == 2048 &&
			len(req.Messages) == 1 &&
			req.Messages[0].Content == "review this" &&
			len(req.System) == 1
	})).Return(&anthropic.MessageResponse{
		Content: []anthropic.ContentBlock{{Type: "text", Text: "CONFIDENCE: 7"}},
		Usage:   anthropic.TokenUsage{InputTokens: 100, OutputTokens: 20},
	}, nil).Once()

	g := NewAnthropicGenerator(client, AnthropicConfig{
		Model:        "claude-haiku-4-5-20251001",
		SystemPrompt: "You are a grant reviewer.",
		Phase:        "perspective",
	}, nil)

	out, err := g.Generate(context.Background(), "review this")
	require.NoError(t, err)
	assert.Equal(t, "CONFIDENCE: 7", out)
}

func TestAnthropicGenerator_EmptyResponse(t *testing.T) {
	client := anthropicmocks.NewMockClient(t)
	client.On("CreateMessage", mock.Anything, mock.Anything).
		Return(&anthropic.MessageResponse{}, nil).Once()

	g := NewAnthropicGenerator(client, AnthropicConfig{Model: "m"}, nil)
	_, err := g.Generate(context.Background(), "p")
	assert.ErrorIs(t, err, ErrEmptyResponse)
}

func TestAnthropicGenerator_BreakerOpens(t *testing.T) {
	client := anthropicmocks.NewMockClient(t)
	client.On("CreateMessage", mock.Anything, mock.Anything).
		Return(nil, errors.New("overloaded")).Twice()

	breaker := resilience.NewBreaker(resilience.BreakerConfig{Name: "anthropic", FailureThreshold: 2, CoolDown: time.Minute})
	g := NewAnthropicGenerator(client, AnthropicConfig{Model: "m"}, breaker)

	for i := 0; i < 2; i++ {
		_, err := g.Generate(context.Background(), "p")
		require.Error(t, err)
	}

	// Third call is rejected without reaching the client.
	_, err := g.Generate(context.Background(), "p")
	assert.ErrorIs(t, err, resilience.ErrBreakerOpen)
}

func TestAnthropicGenerator_WithPhaseSharesBreaker(t *testing.T) {
	breaker := resilience.NewBreaker(resilience.BreakerConfig{Name: "anthropic"})
	g := NewAnthropicGenerator(nil, AnthropicConfig{Model: "m", Phase: "a", RateLimit: 5}, breaker)
	g2 := g.WithPhase("b")

	assert.Equal(t, "b", g2.cfg.Phase)
	assert.Equal(t, "a", g.cfg.Phase)
	assert.Same(t, g.breaker, g2.breaker)
	assert.Same(t, g.limiter, g2.limiter)
}

func TestAnthropicGenerator_RateLimitHonoursContext(t *testing.T) {
	client := anthropicmocks.NewMockClient(t)
	g := NewAnthropicGenerator(client, AnthropicConfig{Model: "m", RateLimit: 0.001}, nil)
	// Drain the single burst token.
	g.limiter.Allow()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := g.Generate(ctx, "p")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limit")
}

func TestGeneratorFunc(t *testing.T) {
	var g Generator = GeneratorFunc(func(_ context.Context, prompt string) (string, error) {
		return "echo: " + prompt, nil
	})
	out, err := g.Generate(context.Background(), "hi")
	require.NoError(t, err)
	assert.Equal(t, "echo: hi", out)
}
