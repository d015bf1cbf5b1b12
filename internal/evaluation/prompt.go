package evaluation

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/sells-group/grant-review/internal/model"
)

const scoringInstructions = `Score the submission on this criterion using exactly one of these values:
0 (not addressed), 20 (very weak), 33 (weak), 50 (adequate), 66 (good), 80 (very good), 100 (excellent).

Respond with a single JSON object and nothing else:
{"score": <one of 0, 20, 33, 50, 66, 80, 100>, "reasoning": "<two or three sentences>"}`

func criterionPrompt(c model.Criterion, form *model.Form, answerBlock string) string {
	var b strings.Builder
	b.WriteString("You are evaluating a grant application against one criterion.\n\n")
	fmt.Fprintf(&b, "CRITERION: %s\n", c.Name)
	if c.Description != "" {
		fmt.Fprintf(&b, "DESCRIPTION: %s\n", c.Description)
	}
	if c.ScoringRules != "" {
		fmt.Fprintf(&b, "SCORING RULES:\n%s\n", c.ScoringRules)
	}
	fmt.Fprintf(&b, "\nFORM: %s\n", orUntitled(form.Title))
	if form.Description != "" {
		fmt.Fprintf(&b, "%s\n", form.Description)
	}
	b.WriteString("\nAPPLICANT ANSWERS:\n")
	b.WriteString(answerBlock)
	b.WriteString("\n\n")
	b.WriteString(scoringInstructions)
	return b.String()
}

// formatAnswers groups answers by form step in step order and renders each
// as "label: value". Steps missing from the form are titled "Other".
func formatAnswers(form *model.Form, answers []model.Answer) string {
	if len(answers) == 0 {
		return "(no answers submitted)"
	}

	byStep := map[int][]model.Answer{}
	var steps []int
	for _, a := range answers {
		if _, ok := byStep[a.Step]; !ok {
			steps = append(steps, a.Step)
		}
		byStep[a.Step] = append(byStep[a.Step], a)
	}
	sort.Ints(steps)

	var b strings.Builder
	for i, step := range steps {
		if i > 0 {
			b.WriteString("\n")
		}
		title := form.StepTitle(step)
		if title == "" {
			title = "Other"
		}
		fmt.Fprintf(&b, "Step %d: %s\n", step, title)
		for _, a := range byStep[step] {
			fmt.Fprintf(&b, "%s: %s\n", form.Label(a.Field), renderValue(a.Value))
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

// renderValue prints scalars as-is and JSON-encodes structured values.
func renderValue(v any) string {
	switch t := v.(type) {
	case nil:
		return "(no answer)"
	case string:
		if strings.TrimSpace(t) == "" {
			return "(no answer)"
		}
		return t
	case map[string]any, []any, []string, []map[string]any:
		b, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprint(t)
		}
		return string(b)
	default:
		return fmt.Sprint(t)
	}
}

func orUntitled(s string) string {
	if s == "" {
		return "(untitled)"
	}
	return s
}
