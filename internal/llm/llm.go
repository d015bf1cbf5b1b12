// Package llm defines the text-generation capability consumed by the review
// engine and its Anthropic-backed implementation.
package llm

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/grant-review/internal/resilience"
	"github.com/sells-group/grant-review/pkg/anthropic"
)

// Generator turns a prompt into text. Implementations may be slow, may fail,
// and are not expected to be deterministic.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// GeneratorFunc adapts a plain function to Generator.
type GeneratorFunc func(ctx context.Context, prompt string) (string, error)

// Generate calls f.
func (f GeneratorFunc) Generate(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

// ErrEmptyResponse is returned when the provider answers with no text.
var ErrEmptyResponse = eris.New("llm: empty response")

// AnthropicConfig configures AnthropicGenerator.
type AnthropicConfig struct {
	Model        string
	MaxTokens    int64
	Temperature  *float64
	SystemPrompt string
	// Phase labels cost attribution logs.
	Phase string
	// RateLimit caps requests per second; 0 disables throttling.
	RateLimit float64
}

// AnthropicGenerator implements Generator on top of the Messages API.
type AnthropicGenerator struct {
	client  anthropic.Client
	cfg     AnthropicConfig
	limiter *rate.Limiter
	breaker *resilience.Breaker
}

// NewAnthropicGenerator wires client behind an optional rate limiter and
// circuit breaker. breaker may be nil.
func NewAnthropicGenerator(client anthropic.Client, cfg AnthropicConfig, breaker *resilience.Breaker) *AnthropicGenerator {
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 2048
	}
	g := &AnthropicGenerator{client: client, cfg: cfg, breaker: breaker}
	if cfg.RateLimit > 0 {
		g.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), max(int(cfg.RateLimit), 1))
	}
	return g
}

// WithPhase returns a copy that attributes cost to phase. The limiter and
// breaker are shared with the original.
func (g *AnthropicGenerator) WithPhase(phase string) *AnthropicGenerator {
	cp := *g
	cp.cfg.Phase = phase
	return &cp
}

// Generate sends prompt as a single user message and returns the response text.
func (g *AnthropicGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	if g.limiter != nil {
		if err := g.limiter.Wait(ctx); err != nil {
			return "", eris.Wrap(err, "llm: rate limit wait")
		}
	}

	start := time.Now()
	resp, err := resilience.Call(ctx, g.breaker, func(ctx context.Context) (*anthropic.MessageResponse, error) {
		return g.client.CreateMessage(ctx, anthropic.MessageRequest{
			Model:       g.cfg.Model,
			MaxTokens:   g.cfg.MaxTokens,
			System:      anthropic.BuildCachedSystemBlocks(g.cfg.SystemPrompt),
			Messages:    []anthropic.Message{{Role: "user", Content: prompt}},
			Temperature: g.cfg.Temperature,
		})
	})
	if err != nil {
		return "", eris.Wrap(err, "llm: generate")
	}

	resp.Usage.LogCost(g.cfg.Model, g.cfg.Phase)
	zap.L().Debug("llm: generated",
		zap.String("phase", g.cfg.Phase),
		zap.Duration("elapsed", time.Since(start)),
		zap.String("stop_reason", resp.StopReason),
	)

	text := resp.Text()
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}
