package config

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
)

// Validate checks the settings required by mode ("analyze", "evaluate",
// "serve", "migrate" or "seed") plus the bounds shared by every mode.
func (c *Config) Validate(mode string) error {
	var errs []string
	require := func(ok bool, msg string) {
		if !ok {
			errs = append(errs, msg)
		}
	}

	switch mode {
	case "analyze":
		require(c.Anthropic.Key != "", "anthropic.key is required")
	case "evaluate":
		require(c.Anthropic.Key != "", "anthropic.key is required")
		require(c.Store.DatabaseURL != "", "store.database_url is required")
	case "serve":
		require(c.Anthropic.Key != "", "anthropic.key is required")
		require(c.Store.DatabaseURL != "", "store.database_url is required")
		require(c.Server.Port > 0 && c.Server.Port < 65536, "server.port must be > 0 and < 65536")
	case "migrate", "seed":
		require(c.Store.DatabaseURL != "", "store.database_url is required")
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	require(c.Store.Driver == "postgres" || c.Store.Driver == "sqlite",
		fmt.Sprintf("store.driver must be postgres or sqlite, got %q", c.Store.Driver))
	require(c.Normalize.Strategy == "heuristic" || c.Normalize.Strategy == "llm",
		fmt.Sprintf("normalize.strategy must be heuristic or llm, got %q", c.Normalize.Strategy))
	require(c.Normalize.SummaryMaxWords > 0, "normalize.summary_max_words must be > 0")
	require(c.Normalize.MaxItems >= 1 && c.Normalize.MaxItems <= 4, "normalize.max_items must be between 1 and 4")
	require(c.Generator.Count >= 1 && c.Generator.Count <= 5, "generator.count must be between 1 and 5")
	require(inRange(c.Analysis.Concurrency), "analysis.concurrency must be between 1 and 50")
	require(inRange(c.Evaluation.CriterionConcurrency), "evaluation.criterion_concurrency must be between 1 and 50")
	require(inRange(c.Evaluation.UserConcurrency), "evaluation.user_concurrency must be between 1 and 50")
	require(c.Anthropic.Temperature >= 0 && c.Anthropic.Temperature <= 1, "anthropic.temperature must be between 0 and 1")
	require(c.Anthropic.RateLimitRPS >= 0, "anthropic.rate_limit_rps must be >= 0")
	require(len(c.Vote.Options) > 0, "vote.options must not be empty")

	if len(errs) > 0 {
		return eris.Errorf("config: %s", strings.Join(errs, "; "))
	}
	return nil
}

func inRange(n int) bool {
	return n >= 1 && n <= 50
}
