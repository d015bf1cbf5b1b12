// Package vote turns a multi-perspective analysis into a single vote
// recommendation constrained to a caller-supplied option set.
package vote

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/sells-group/grant-review/internal/llm"
	"github.com/sells-group/grant-review/internal/model"
)

// DefaultOptions is used when the caller supplies no vote options.
var DefaultOptions = []string{"approve", "reject", "abstain"}

const (
	jsonDefaultConfidence  = 5
	textFallbackConfidence = 3
	callFailureConfidence  = 1
	maxRationaleChars      = 500
)

var (
	approveSynonyms = []string{"approve", "yes", "support", "for"}
	rejectSynonyms  = []string{"reject", "no", "oppose", "against"}

	// "t" covers contractions like don't, which tokenize as don + t.
	negations = []string{"not", "never", "t"}
)

// Synthesizer issues the vote synthesis call.
type Synthesizer struct {
	gen llm.Generator
}

// NewSynthesizer creates a Synthesizer.
func NewSynthesizer(gen llm.Generator) *Synthesizer {
	return &Synthesizer{gen: gen}
}

// Synthesize recommends one of options for result. It never fails: an
// unparseable response falls back to a text scan and a failed call yields
// a low-confidence abstention.
func (s *Synthesizer) Synthesize(ctx context.Context, result *model.MultiPerspectiveResult, options []string, submissionID string) model.VoteRecommendation {
	if len(options) == 0 {
		options = DefaultOptions
	}
	if result == nil {
		result = &model.MultiPerspectiveResult{Consensus: model.ConsensusUnknown}
	}
	summary := perspectiveSummary(result.Analyses)

	text, err := s.gen.Generate(ctx, buildPrompt(result, options))
	if err != nil {
		zap.L().Warn("vote: synthesis call failed, abstaining",
			zap.String("submission_id", submissionID),
			zap.Error(err),
		)
		return model.VoteRecommendation{
			SubmissionID:       submissionID,
			RecommendedVote:    Remap("abstain", options),
			Confidence:         callFailureConfidence,
			Rationale:          err.Error(),
			KeyFactors:         []string{},
			PerspectiveSummary: summary,
		}
	}

	if obj, ok := llm.ExtractObject(text); ok {
		rec := fromJSON(obj, options)
		rec.SubmissionID = submissionID
		if rec.PerspectiveSummary == "" {
			rec.PerspectiveSummary = summary
		}
		return rec
	}

	zap.L().Warn("vote: response is not JSON, scanning text",
		zap.String("submission_id", submissionID),
		zap.Int("response_len", len(text)),
	)
	return model.VoteRecommendation{
		SubmissionID:       submissionID,
		RecommendedVote:    scanText(text, options),
		Confidence:         textFallbackConfidence,
		Rationale:          truncate(text, maxRationaleChars),
		KeyFactors:         []string{},
		PerspectiveSummary: summary,
	}
}

func fromJSON(obj string, options []string) model.VoteRecommendation {
	factors := llm.StringList(obj, "key_factors")
	if factors == nil {
		factors = []string{}
	}
	return model.VoteRecommendation{
		RecommendedVote:    Remap(gjson.Get(obj, "recommended_vote").String(), options),
		Confidence:         jsonConfidence(obj),
		Rationale:          strings.TrimSpace(gjson.Get(obj, "rationale").String()),
		KeyFactors:         factors,
		SuggestedComment:   strings.TrimSpace(gjson.Get(obj, "suggested_comment").String()),
		PerspectiveSummary: strings.TrimSpace(gjson.Get(obj, "perspective_summary").String()),
	}
}

// jsonConfidence clamps the reported confidence to [0,10] and defaults it
// when the field is absent.
func jsonConfidence(obj string) int {
	c := gjson.Get(obj, "confidence")
	if !c.Exists() {
		return jsonDefaultConfidence
	}
	return min(max(int(c.Int()), 0), 10)
}

// Remap returns vote when it is one of options (case-insensitively) and
// otherwise maps it through the synonym table: approval words become "for"
// or "approve", rejection words "against" or "reject", and anything else
// "abstain" or, failing that, the first option.
func Remap(vote string, options []string) string {
	if len(options) == 0 {
		options = DefaultOptions
	}
	if o, ok := findOption(strings.TrimSpace(vote), options); ok {
		return o
	}

	words := tokens(vote)
	switch {
	case hasAny(words, approveSynonyms):
		if o, ok := firstOption(options, "for", "approve"); ok {
			return o
		}
	case hasAny(words, rejectSynonyms):
		if o, ok := firstOption(options, "against", "reject"); ok {
			return o
		}
	}
	if o, ok := findOption("abstain", options); ok {
		return o
	}
	return options[0]
}

// scanText picks the first option that appears literally in text and falls
// back to the synonym table over the whole text.
func scanText(text string, options []string) string {
	lower := strings.ToLower(text)
	for _, o := range options {
		if o != "" && strings.Contains(lower, strings.ToLower(o)) {
			return o
		}
	}
	return Remap(text, options)
}

func findOption(v string, options []string) (string, bool) {
	for _, o := range options {
		if strings.EqualFold(o, v) {
			return o, true
		}
	}
	return "", false
}

func firstOption(options []string, candidates ...string) (string, bool) {
	for _, c := range candidates {
		if o, ok := findOption(c, options); ok {
			return o, true
		}
	}
	return "", false
}

func tokens(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r)
	})
}

// hasAny reports whether words contains one of syns that is not directly
// preceded by a negation.
func hasAny(words []string, syns []string) bool {
	for i, w := range words {
		if !slices.Contains(syns, w) {
			continue
		}
		if i > 0 && slices.Contains(negations, words[i-1]) {
			continue
		}
		return true
	}
	return false
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

func perspectiveSummary(analyses []model.PerspectiveAnalysis) string {
	parts := make([]string, 0, len(analyses))
	for _, a := range analyses {
		parts = append(parts, fmt.Sprintf("%s: %s (%d/10)", a.Perspective, a.RecommendationTendency, a.Confidence))
	}
	return strings.Join(parts, "; ")
}

func buildPrompt(result *model.MultiPerspectiveResult, options []string) string {
	var b strings.Builder
	b.WriteString("You are advising a grant committee member on how to vote on a submission.\n\n")
	b.WriteString("PERSPECTIVE ANALYSES:\n")
	for _, a := range result.Analyses {
		fmt.Fprintf(&b, "\n%s (tendency: %s, confidence: %d/10)\n", a.Perspective, a.RecommendationTendency, a.Confidence)
		writeItems(&b, "benefits", a.KeyBenefits)
		writeItems(&b, "concerns", a.KeyConcerns)
	}
	fmt.Fprintf(&b, "\nCONSENSUS: %s\n", result.Consensus)
	fmt.Fprintf(&b, "DOMINANT PERSPECTIVE: %s\n", result.DominantPerspective)
	if result.Synthesis != "" {
		fmt.Fprintf(&b, "\nSYNTHESIS:\n%s\n", result.Synthesis)
	}
	fmt.Fprintf(&b, "\nAllowed votes: %s\n\n", strings.Join(options, ", "))
	b.WriteString(`Respond with a single JSON object:
{
  "recommended_vote": "one of the allowed votes",
  "confidence": 1-10,
  "rationale": "why",
  "key_factors": ["..."],
  "suggested_comment": "a short public comment",
  "perspective_summary": "one sentence per perspective"
}`)
	return b.String()
}

func writeItems(b *strings.Builder, label string, items []string) {
	if len(items) > 3 {
		items = items[:3]
	}
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(b, "  %s: %s\n", label, strings.Join(items, "; "))
}
