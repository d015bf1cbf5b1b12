package perspective

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/grant-review/internal/llm"
	"github.com/sells-group/grant-review/internal/model"
)

const (
	// DefaultCount is the number of perspectives requested when unset.
	DefaultCount = 4
	// MaxCount caps generated perspectives.
	MaxCount = 5

	minFallback         = 3
	maxCriteriaFallback = 4
)

const generatePrompt = `You are designing a review panel for a grant program. Invent %d distinct reviewer
perspectives that together cover how submissions to this program should be judged.

Program: %s
Description: %s
Budget: %s

Submission form fields:
%s

Evaluation criteria (highest weight first):
%s

Each perspective must have a short snake_case name, a one-sentence description, 2-4
focus areas, 2-4 key questions the reviewer should answer, and the names of the criteria
it is most relevant to.

Return ONLY a JSON array:
[{"name": "...", "description": "...", "focus_areas": ["..."], "key_questions": ["..."], "relevant_criteria": ["..."]}]`

// Generator invents program-specific perspectives with one LLM call and
// falls back to criteria-derived perspectives when that fails.
type Generator struct {
	gen   llm.Generator
	count int
}

// NewGenerator creates a Generator asking for count perspectives, clamped to
// [1, MaxCount]. A count <= 0 selects DefaultCount.
func NewGenerator(gen llm.Generator, count int) *Generator {
	if count <= 0 {
		count = DefaultCount
	}
	if count > MaxCount {
		count = MaxCount
	}
	return &Generator{gen: gen, count: count}
}

// Generate returns perspectives for the program. It never fails: any call or
// parse problem yields FallbackPerspectives(criteria).
func (g *Generator) Generate(ctx context.Context, program model.ProgramContext, fields []model.FormField, criteria []model.Criterion) []model.DynamicPerspective {
	log := zap.L().With(zap.String("program", program.Name))

	prompt := fmt.Sprintf(generatePrompt,
		g.count,
		orNone(program.Name),
		orNone(program.Description),
		orNone(program.Budget),
		formatFields(fields),
		formatCriteria(criteria),
	)

	text, err := g.gen.Generate(ctx, prompt)
	if err != nil {
		log.Warn("perspective: generation failed, using fallback", zap.Error(err))
		return FallbackPerspectives(criteria)
	}

	perspectives := parseGenerated(text)
	if len(perspectives) == 0 {
		log.Warn("perspective: unparseable generation response, using fallback")
		return FallbackPerspectives(criteria)
	}
	if len(perspectives) > g.count {
		perspectives = perspectives[:g.count]
	}

	log.Info("perspective: generated", zap.Int("count", len(perspectives)))
	return perspectives
}

func parseGenerated(text string) []model.DynamicPerspective {
	raw, ok := llm.ExtractArray(text)
	if !ok {
		return nil
	}
	var items []model.DynamicPerspective
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return nil
	}
	out := items[:0]
	for _, p := range items {
		p.Name = strings.TrimSpace(p.Name)
		if p.Name == "" {
			continue
		}
		out = append(out, p)
	}
	return out
}

// sortedByWeight returns criteria ordered by descending weight, keeping the
// input order for equal weights.
func sortedByWeight(criteria []model.Criterion) []model.Criterion {
	sorted := make([]model.Criterion, len(criteria))
	copy(sorted, criteria)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Weight > sorted[j].Weight })
	return sorted
}

var genericPerspectives = []model.DynamicPerspective{
	{
		Name:         "technical",
		Description:  "Assesses technical feasibility and the team's ability to deliver.",
		FocusAreas:   []string{"Feasibility", "Architecture", "Team expertise"},
		KeyQuestions: []string{"Can this be built as described?", "Does the team have the required skills?"},
	},
	{
		Name:         "strategic_alignment",
		Description:  "Assesses how well the submission fits the program's goals.",
		FocusAreas:   []string{"Program goals", "Ecosystem impact"},
		KeyQuestions: []string{"Does this advance what the program exists to fund?", "Who benefits if it succeeds?"},
	},
	{
		Name:         "budget",
		Description:  "Assesses whether the requested funding is justified.",
		FocusAreas:   []string{"Cost breakdown", "Value for money", "Sustainability"},
		KeyQuestions: []string{"Is the budget reasonable for the scope?", "What happens when the funding ends?"},
	},
}

// FallbackPerspectives derives perspectives from the highest-weighted
// criteria (up to four), topped up with generic perspectives until there
// are at least three. The result depends only on criteria.
func FallbackPerspectives(criteria []model.Criterion) []model.DynamicPerspective {
	var out []model.DynamicPerspective
	seen := map[string]bool{}

	for _, c := range sortedByWeight(criteria) {
		if len(out) == maxCriteriaFallback {
			break
		}
		name := slug(c.Name)
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true

		desc := "Evaluates the submission against the " + c.Name + " criterion."
		if c.Description != "" {
			desc += " " + c.Description
		}
		focus := []string{c.Name}
		if c.ScoringRules != "" {
			focus = append(focus, "Scoring rules: "+c.ScoringRules)
		}
		out = append(out, model.DynamicPerspective{
			Name:        name,
			Description: desc,
			FocusAreas:  focus,
			KeyQuestions: []string{
				"How well does the submission address " + c.Name + "?",
				"What evidence in the submission supports its claims about " + c.Name + "?",
			},
			RelevantCriteria: []string{c.Name},
		})
	}

	for _, g := range genericPerspectives {
		if len(out) >= minFallback {
			break
		}
		if seen[g.Name] {
			continue
		}
		seen[g.Name] = true
		g.FocusAreas = slices.Clone(g.FocusAreas)
		g.KeyQuestions = slices.Clone(g.KeyQuestions)
		out = append(out, g)
	}
	return out
}

// ToPrompts renders dynamic perspectives into analyzer perspectives.
func ToPrompts(perspectives []model.DynamicPerspective) []model.Perspective {
	out := make([]model.Perspective, 0, len(perspectives))
	for _, p := range perspectives {
		var b strings.Builder
		fmt.Fprintf(&b, "Evaluate this submission from the %s perspective.\n", strings.ReplaceAll(p.Name, "_", " "))
		if p.Description != "" {
			b.WriteString(p.Description + "\n")
		}
		if len(p.FocusAreas) > 0 {
			b.WriteString("\nFocus areas:\n")
			for _, f := range p.FocusAreas {
				b.WriteString("- " + f + "\n")
			}
		}
		if len(p.KeyQuestions) > 0 {
			b.WriteString("\nKey questions to answer:\n")
			for _, q := range p.KeyQuestions {
				b.WriteString("- " + q + "\n")
			}
		}
		out = append(out, model.Perspective{Name: p.Name, Prompt: strings.TrimSpace(b.String())})
	}
	return out
}

func formatFields(fields []model.FormField) string {
	if len(fields) == 0 {
		return "(none)"
	}
	var b strings.Builder
	for _, f := range fields {
		label := f.Label
		if label == "" {
			label = f.Name
		}
		fmt.Fprintf(&b, "- %s (%s", label, f.Name)
		if f.Type != "" {
			b.WriteString(", " + f.Type)
		}
		b.WriteString(")\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func formatCriteria(criteria []model.Criterion) string {
	if len(criteria) == 0 {
		return "(none)"
	}
	var b strings.Builder
	for _, c := range sortedByWeight(criteria) {
		fmt.Fprintf(&b, "- %s (weight %.2f)", c.Name, c.Weight)
		if c.Description != "" {
			b.WriteString(": " + c.Description)
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func slug(s string) string {
	var b strings.Builder
	underscore := false
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			underscore = false
		case !underscore && b.Len() > 0:
			b.WriteByte('_')
			underscore = true
		}
	}
	return strings.TrimSuffix(b.String(), "_")
}

func orNone(s string) string {
	if strings.TrimSpace(s) == "" {
		return "(not provided)"
	}
	return s
}
