package normalize

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sells-group/grant-review/internal/model"
)

// StructuredParser maps structured submissions onto ParsedInput without
// sentence heuristics. Anything else is delegated to the heuristic parser.
type StructuredParser struct {
	heuristic *HeuristicParser
	opts      Options
}

// NewStructuredParser creates a StructuredParser.
func NewStructuredParser(opts Options) *StructuredParser {
	opts = opts.withDefaults()
	return &StructuredParser{heuristic: NewHeuristicParser(opts), opts: opts}
}

// Parse implements Parser.
func (p *StructuredParser) Parse(ctx context.Context, raw any) model.ParsedInput {
	sub, ok := AsStructured(raw)
	if !ok {
		return p.heuristic.Parse(ctx, raw)
	}
	return safely(raw, p.opts.SummaryMaxWords, func() model.ParsedInput {
		return p.parse(sub)
	})
}

func (p *StructuredParser) parse(sub model.StructuredSubmission) model.ParsedInput {
	var risk, opp, econ []string
	for _, c := range sub.Criteria {
		name := strings.TrimSpace(c.Name)
		if name == "" {
			continue
		}
		for _, b := range Classify(name) {
			switch b {
			case BucketRisk:
				risk = append(risk, name)
			case BucketOpportunity:
				opp = append(opp, name)
			case BucketEconomic:
				econ = append(econ, name)
			}
		}
	}

	var lines []string
	if sub.Program.Name != "" {
		lines = append(lines, "program: "+sub.Program.Name)
	}
	for _, a := range sub.Answers {
		v := FormatValue(a.Value)
		if a.Field == "" || v == "" {
			continue
		}
		lines = append(lines, fmt.Sprintf("%s: %s", a.Field, v))
	}
	if len(lines) == 0 {
		lines = contextLines(sub)
	}

	n := p.opts.MaxItems
	return model.ParsedInput{
		Summary:              truncateWords(strings.Join(lines, "\n"), p.opts.SummaryMaxWords),
		Arguments:            model.Arguments{For: []string{}, Against: []string{}},
		RiskFactors:          capList(risk, n),
		OpportunityFactors:   capList(opp, n),
		EconomicImplications: capList(econ, n),
	}
}

// contextLines describes a submission that carries no program name or
// answers, so its summary is never empty while anything else is present.
func contextLines(sub model.StructuredSubmission) []string {
	var lines []string
	if d := strings.TrimSpace(sub.Program.Description); d != "" {
		lines = append(lines, "description: "+d)
	}
	if b := strings.TrimSpace(sub.Program.Budget); b != "" {
		lines = append(lines, "budget: "+b)
	}
	var names []string
	for _, c := range sub.Criteria {
		if n := strings.TrimSpace(c.Name); n != "" {
			names = append(names, n)
		}
	}
	if len(names) > 0 {
		lines = append(lines, "criteria: "+strings.Join(names, ", "))
	}
	return lines
}

// AsStructured reports whether raw is a structured submission and converts
// it. Maps qualify when they carry program, answers or criteria keys.
func AsStructured(raw any) (model.StructuredSubmission, bool) {
	switch v := raw.(type) {
	case model.StructuredSubmission:
		return v, true
	case *model.StructuredSubmission:
		if v == nil {
			return model.StructuredSubmission{}, false
		}
		return *v, true
	case map[string]any:
		_, hasProgram := v["program"]
		_, hasAnswers := v["answers"]
		_, hasCriteria := v["criteria"]
		if !hasProgram && !hasAnswers && !hasCriteria {
			return model.StructuredSubmission{}, false
		}
		b, err := json.Marshal(v)
		if err != nil {
			return model.StructuredSubmission{}, false
		}
		var sub model.StructuredSubmission
		if err := json.Unmarshal(b, &sub); err != nil {
			return model.StructuredSubmission{}, false
		}
		return sub, true
	}
	return model.StructuredSubmission{}, false
}

// FormatValue renders an answer value for a prompt line. Strings are
// trimmed, lists joined with ", " and other composites JSON-encoded.
func FormatValue(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case []string:
		return strings.Join(t, ", ")
	case []any:
		parts := make([]string, 0, len(t))
		for _, e := range t {
			if s := FormatValue(e); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, ", ")
	case map[string]any:
		b, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprint(t)
		}
		return string(b)
	default:
		return fmt.Sprint(t)
	}
}
