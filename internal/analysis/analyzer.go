// Package analysis runs one LLM review per perspective over a shared input
// and folds the results into consensus, dominance and a written synthesis.
package analysis

import (
	"context"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/grant-review/internal/fanout"
	"github.com/sells-group/grant-review/internal/llm"
	"github.com/sells-group/grant-review/internal/model"
	"github.com/sells-group/grant-review/internal/normalize"
	"github.com/sells-group/grant-review/internal/perspective"
)

// ErrNoPerspectives is returned when an Analyzer is built without any
// usable perspective.
var ErrNoPerspectives = eris.New("analysis: at least one perspective is required")

// Analyzer fans a normalized input out to every configured perspective.
// It is safe for concurrent use.
type Analyzer struct {
	gen          llm.Generator
	synthGen     llm.Generator
	parser       normalize.Parser
	perspectives []model.Perspective
	concurrency  int
}

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithConcurrency caps in-flight perspective calls. 0 means unbounded.
func WithConcurrency(n int) Option {
	return func(a *Analyzer) { a.concurrency = n }
}

// WithSynthesisGenerator routes the synthesis call to g instead of the
// perspective generator.
func WithSynthesisGenerator(g llm.Generator) Option {
	return func(a *Analyzer) {
		if g != nil {
			a.synthGen = g
		}
	}
}

// New creates an Analyzer. A nil parser defaults to heuristic parsing with
// structured passthrough.
func New(gen llm.Generator, parser normalize.Parser, perspectives []model.Perspective, opts ...Option) (*Analyzer, error) {
	if len(perspectives) == 0 {
		return nil, ErrNoPerspectives
	}
	if gen == nil {
		return nil, eris.New("analysis: generator is required")
	}
	if parser == nil {
		parser = normalize.NewAuto(normalize.NewHeuristicParser(normalize.Options{}), normalize.Options{})
	}

	a := &Analyzer{
		gen:          gen,
		synthGen:     gen,
		parser:       parser,
		perspectives: append([]model.Perspective(nil), perspectives...),
	}
	for _, o := range opts {
		o(a)
	}
	return a, nil
}

// NewFromSpecs resolves specs of any supported shape (names, legacy enum
// values, name/prompt pairs) and creates an Analyzer from the survivors.
func NewFromSpecs(gen llm.Generator, parser normalize.Parser, specs []any, opts ...Option) (*Analyzer, error) {
	return New(gen, parser, perspective.Resolve(specs...), opts...)
}

// Perspectives returns the perspectives the Analyzer runs, in order.
func (a *Analyzer) Perspectives() []model.Perspective {
	return append([]model.Perspective(nil), a.perspectives...)
}

// Analyze reviews raw from every perspective. It never fails: a perspective
// whose call fails contributes a neutral, zero-confidence record and a
// failed synthesis is reported in the synthesis text.
func (a *Analyzer) Analyze(ctx context.Context, raw any) *model.MultiPerspectiveResult {
	start := time.Now()
	parsed := a.parser.Parse(ctx, raw)

	results := fanout.Map(ctx, a.perspectives, a.concurrency,
		func(ctx context.Context, _ int, p model.Perspective) (model.PerspectiveAnalysis, error) {
			text, err := a.gen.Generate(ctx, perspectivePrompt(p, parsed))
			if err != nil {
				return model.PerspectiveAnalysis{}, err
			}
			return ParseResponse(p.Name, text), nil
		})

	analyses := make([]model.PerspectiveAnalysis, len(results))
	names := make([]string, len(results))
	failed := 0
	for i, r := range results {
		p := a.perspectives[i]
		names[i] = p.Name
		if r.OK() {
			analyses[i] = r.Value
			continue
		}
		failed++
		zap.L().Warn("analysis: perspective failed",
			zap.String("perspective", p.Name),
			zap.Error(r.Err),
		)
		analyses[i] = failedAnalysis(p.Name, r.Err)
	}

	result := &model.MultiPerspectiveResult{
		Analyses:             analyses,
		PerspectivesAnalyzed: names,
		Consensus:            ClassifyConsensus(analyses),
		DominantPerspective:  DominantPerspective(analyses),
		ParsedInput:          &parsed,
	}
	result.Synthesis = a.synthesize(ctx, analyses, result.Consensus, parsed.Summary)

	zap.L().Info("analysis: complete",
		zap.Int("perspectives", len(analyses)),
		zap.Int("failed", failed),
		zap.String("consensus", string(result.Consensus)),
		zap.String("dominant", result.DominantPerspective),
		zap.Duration("elapsed", time.Since(start)),
	)
	return result
}

func (a *Analyzer) synthesize(ctx context.Context, analyses []model.PerspectiveAnalysis, consensus model.Consensus, summary string) string {
	text, err := a.synthGen.Generate(ctx, synthesisPrompt(analyses, consensus, summary))
	if err == nil && strings.TrimSpace(text) == "" {
		err = llm.ErrEmptyResponse
	}
	if err != nil {
		zap.L().Warn("analysis: synthesis failed", zap.Error(err))
		return "Synthesis failed: " + err.Error()
	}
	return strings.TrimSpace(text)
}

func failedAnalysis(name string, err error) model.PerspectiveAnalysis {
	return model.PerspectiveAnalysis{
		Perspective:            name,
		Analysis:               "Analysis failed: " + err.Error(),
		FocusAreas:             []string{},
		KeyConcerns:            []string{},
		KeyBenefits:            []string{},
		RecommendationTendency: model.TendencyNeutral,
		Confidence:             0,
		Error:                  err.Error(),
	}
}
