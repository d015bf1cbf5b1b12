package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/grant-review/internal/evaluation"
	"github.com/sells-group/grant-review/internal/llm"
	"github.com/sells-group/grant-review/internal/model"
	"github.com/sells-group/grant-review/internal/normalize"
	"github.com/sells-group/grant-review/internal/perspective"
	"github.com/sells-group/grant-review/internal/resilience"
	"github.com/sells-group/grant-review/internal/store"
	anthropicpkg "github.com/sells-group/grant-review/pkg/anthropic"
)

// reviewEnv holds the clients and engines needed by the analyze, evaluate
// and serve commands.
type reviewEnv struct {
	Store        store.Store // nil unless requested
	Generator    *llm.AnthropicGenerator
	Parser       normalize.Parser
	Perspectives []model.Perspective
	Engine       *evaluation.Engine
}

// Close releases resources held by the environment.
func (e *reviewEnv) Close() {
	if e.Store != nil {
		_ = e.Store.Close()
	}
}

// initEnv builds the Anthropic-backed generator, the input parser, the
// default perspective set and the evaluation engine. When withStore is set
// the store is opened and migrated. Callers should defer env.Close().
func initEnv(ctx context.Context, withStore bool) (*reviewEnv, error) {
	env := &reviewEnv{Generator: newGenerator()}

	perspectives, err := defaultPerspectives()
	if err != nil {
		return nil, err
	}
	env.Perspectives = perspectives
	env.Parser = newParser(env.Generator.WithPhase("normalize"))

	if withStore {
		st, err := initStore(ctx)
		if err != nil {
			return nil, err
		}
		if err := st.Migrate(ctx); err != nil {
			_ = st.Close()
			return nil, eris.Wrap(err, "migrate store")
		}
		env.Store = st
	}

	evalCfg := evaluation.Config{
		CriterionConcurrency: cfg.Evaluation.CriterionConcurrency,
		UserConcurrency:      cfg.Evaluation.UserConcurrency,
	}
	if env.Store != nil {
		env.Engine = evaluation.NewEngine(env.Generator.WithPhase("evaluation"), env.Store, env.Store, evalCfg)
	} else {
		env.Engine = evaluation.NewEngine(env.Generator.WithPhase("evaluation"), nil, nil, evalCfg)
	}

	zap.L().Info("environment ready",
		zap.String("model", cfg.Anthropic.Model),
		zap.Int("perspectives", len(env.Perspectives)),
		zap.Bool("store", env.Store != nil),
	)
	return env, nil
}

func newGenerator() *llm.AnthropicGenerator {
	var opts []anthropicpkg.Option
	if cfg.Anthropic.BaseURL != "" {
		opts = append(opts, anthropicpkg.WithBaseURL(cfg.Anthropic.BaseURL))
	}
	if cfg.Anthropic.TimeoutSecs > 0 {
		opts = append(opts, anthropicpkg.WithTimeout(time.Duration(cfg.Anthropic.TimeoutSecs)*time.Second))
	}
	opts = append(opts, anthropicpkg.WithMaxRetries(cfg.Anthropic.MaxRetries))
	client := anthropicpkg.NewClient(cfg.Anthropic.Key, opts...)

	breaker := resilience.NewBreaker(resilience.FromConfig("anthropic",
		cfg.Resilience.BreakerThreshold, cfg.Resilience.BreakerCooldownSecs))

	temperature := cfg.Anthropic.Temperature
	return llm.NewAnthropicGenerator(client, llm.AnthropicConfig{
		Model:       cfg.Anthropic.Model,
		MaxTokens:   cfg.Anthropic.MaxTokens,
		Temperature: &temperature,
		RateLimit:   cfg.Anthropic.RateLimitRPS,
	}, breaker)
}

func normalizeOptions() normalize.Options {
	return normalize.Options{
		SummaryMaxWords: cfg.Normalize.SummaryMaxWords,
		MaxItems:        cfg.Normalize.MaxItems,
	}
}

// newParser picks the text strategy; structured submissions always bypass it.
func newParser(gen llm.Generator) normalize.Parser {
	opts := normalizeOptions()
	var text normalize.Parser = normalize.NewHeuristicParser(opts)
	if normalize.Strategy(cfg.Normalize.Strategy) == normalize.StrategyLLM {
		text = normalize.NewLLMParser(gen, opts)
	}
	return normalize.NewAuto(text, opts)
}

// defaultPerspectives loads the configured perspective file, or resolves the
// configured names against the registry.
func defaultPerspectives() ([]model.Perspective, error) {
	if cfg.Analysis.PerspectivesFile != "" {
		ps, err := perspective.LoadSet(cfg.Analysis.PerspectivesFile)
		if err != nil {
			return nil, err
		}
		if len(ps) == 0 {
			return nil, eris.Errorf("no valid perspectives in %s", cfg.Analysis.PerspectivesFile)
		}
		return ps, nil
	}

	specs := make([]any, len(cfg.Analysis.Perspectives))
	for i, n := range cfg.Analysis.Perspectives {
		specs[i] = n
	}
	ps := perspective.Resolve(specs...)
	if len(ps) == 0 {
		return nil, eris.New("analysis.perspectives resolves to no known perspective")
	}
	return ps, nil
}

func initStore(ctx context.Context) (store.Store, error) {
	retry := resilience.RetryConfig{
		MaxAttempts:    cfg.Resilience.RetryAttempts,
		InitialBackoff: time.Duration(cfg.Resilience.RetryBackoffMs) * time.Millisecond,
	}

	switch cfg.Store.Driver {
	case "sqlite":
		dsn := cfg.Store.DatabaseURL
		if dsn == "" {
			dsn = "grant-review.db"
		}
		st, err := store.NewSQLite(dsn)
		if err != nil {
			return nil, err
		}
		st.SetRetry(retry)
		return st, nil
	case "postgres":
		st, err := store.NewPostgres(ctx, cfg.Store.DatabaseURL, &store.PoolConfig{
			MaxConns: cfg.Store.MaxConns,
			MinConns: cfg.Store.MinConns,
		})
		if err != nil {
			return nil, err
		}
		st.SetRetry(retry)
		return st, nil
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}
