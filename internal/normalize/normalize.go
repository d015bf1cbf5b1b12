// Package normalize converts raw analysis input (free text or structured
// submission data) into a model.ParsedInput.
package normalize

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/grant-review/internal/model"
)

// Parser builds a ParsedInput from raw input. Parse is total: it never
// fails and never panics, degrading to a best-effort summary instead.
type Parser interface {
	Parse(ctx context.Context, raw any) model.ParsedInput
}

// Strategy names a text parsing strategy.
type Strategy string

const (
	StrategyHeuristic Strategy = "heuristic"
	StrategyLLM       Strategy = "llm"
)

// Options bound the size of a ParsedInput.
type Options struct {
	// SummaryMaxWords caps the summary. Default: 150.
	SummaryMaxWords int
	// MaxItems caps each list field. Default: 3.
	MaxItems int
}

// DefaultOptions returns the default size bounds.
func DefaultOptions() Options {
	return Options{SummaryMaxWords: 150, MaxItems: 3}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.SummaryMaxWords <= 0 {
		o.SummaryMaxWords = d.SummaryMaxWords
	}
	if o.MaxItems <= 0 {
		o.MaxItems = d.MaxItems
	}
	return o
}

// Auto routes structured submissions to structured passthrough and all other
// input to the configured text parser.
type Auto struct {
	Text       Parser
	Structured *StructuredParser
}

// NewAuto builds the default parser chain for a text strategy.
func NewAuto(text Parser, opts Options) *Auto {
	return &Auto{Text: text, Structured: NewStructuredParser(opts)}
}

// Parse implements Parser.
func (a *Auto) Parse(ctx context.Context, raw any) model.ParsedInput {
	if sub, ok := AsStructured(raw); ok {
		return a.Structured.Parse(ctx, sub)
	}
	return a.Text.Parse(ctx, raw)
}

// safely runs parse and converts a panic into a fallback summary.
func safely(raw any, maxWords int, parse func() model.ParsedInput) (out model.ParsedInput) {
	defer func() {
		if r := recover(); r != nil {
			zap.L().Error("normalize: parser panicked, using raw summary", zap.Any("panic", r))
			out = fallback(raw, maxWords)
		}
	}()
	return parse()
}

// fallback stringifies raw into a truncated summary.
func fallback(raw any, maxWords int) model.ParsedInput {
	s := strings.TrimSpace(fmt.Sprint(raw))
	if len(s) > 2000 {
		s = s[:2000]
	}
	return model.ParsedInput{Summary: truncateWords(s, maxWords)}
}

// textOf extracts analyzable text from raw input.
func textOf(raw any) string {
	switch v := raw.(type) {
	case nil:
		return ""
	case string:
		return v
	case []byte:
		return string(v)
	case fmt.Stringer:
		return v.String()
	case map[string]any:
		for _, k := range []string{"text", "content", "description", "body"} {
			if s, ok := v[k].(string); ok && strings.TrimSpace(s) != "" {
				return s
			}
		}
	}
	b, err := json.Marshal(raw)
	if err != nil {
		return fmt.Sprint(raw)
	}
	return string(b)
}

// truncateWords keeps the first max words of s, preserving the original
// spacing, and appends "..." when anything was cut.
func truncateWords(s string, max int) string {
	s = strings.TrimSpace(s)
	if max <= 0 {
		return s
	}
	words := 0
	inWord := false
	for i, r := range s {
		space := r == ' ' || r == '\n' || r == '\t' || r == '\r'
		switch {
		case !space && !inWord:
			inWord = true
			words++
			if words > max {
				return strings.TrimSpace(s[:i]) + "..."
			}
		case space:
			inWord = false
		}
	}
	return s
}

// capList dedupes by exact text and keeps at most n items.
func capList(items []string, n int) []string {
	out := make([]string, 0, min(len(items), n))
	seen := make(map[string]bool, len(items))
	for _, it := range items {
		it = strings.TrimSpace(it)
		if it == "" || seen[it] {
			continue
		}
		seen[it] = true
		out = append(out, it)
		if len(out) == n {
			break
		}
	}
	return out
}
