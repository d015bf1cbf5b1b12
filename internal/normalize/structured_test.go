package normalize

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/grant-review/internal/model"
)

var testSubmission = model.StructuredSubmission{
	Program: model.ProgramContext{Name: "Builders Fund"},
	Answers: []model.FieldAnswer{
		{Field: "title", Value: "  Indexer  "},
		{Field: "tags", Value: []any{"infra", "data"}},
		{Field: "empty", Value: nil},
		{Field: "team_size", Value: 4},
	},
	Criteria: []model.Criterion{
		{Name: "Risk Assessment"},
		{Name: "Growth Potential"},
		{Name: "Budget Efficiency"},
		{Name: "Team"},
	},
}

func TestStructuredParser(t *testing.T) {
	got := NewStructuredParser(Options{}).Parse(context.Background(), testSubmission)

	assert.Equal(t, "program: Builders Fund\ntitle: Indexer\ntags: infra, data\nteam_size: 4", got.Summary)
	assert.Equal(t, []string{"Risk Assessment"}, got.RiskFactors)
	assert.Equal(t, []string{"Growth Potential"}, got.OpportunityFactors)
	assert.Equal(t, []string{"Budget Efficiency"}, got.EconomicImplications)
	assert.Empty(t, got.Arguments.For)
	assert.Empty(t, got.Arguments.Against)
}

func TestStructuredParser_CriteriaOnlySummary(t *testing.T) {
	raw := map[string]any{"criteria": []any{map[string]any{"name": "Budget risk", "weight": 1}}}

	got := NewAuto(NewHeuristicParser(Options{}), Options{}).Parse(context.Background(), raw)

	assert.Equal(t, "criteria: Budget risk", got.Summary)
	assert.Equal(t, []string{"Budget risk"}, got.RiskFactors)
	assert.Equal(t, []string{"Budget risk"}, got.EconomicImplications)
}

func TestStructuredParser_ProgramContextSummary(t *testing.T) {
	sub := model.StructuredSubmission{
		Program:  model.ProgramContext{Description: "Public goods fund", Budget: "50k USD"},
		Criteria: []model.Criterion{{Name: "Impact"}},
	}

	got := NewStructuredParser(Options{}).Parse(context.Background(), sub)

	assert.Equal(t, "description: Public goods fund\nbudget: 50k USD\ncriteria: Impact", got.Summary)
}

func TestStructuredParser_DelegatesText(t *testing.T) {
	got := NewStructuredParser(Options{}).Parse(context.Background(), sampleProposal)
	assert.Equal(t, []string{"There is a risk of delays in delivery."}, got.RiskFactors)
}

func TestAsStructured(t *testing.T) {
	sub, ok := AsStructured(map[string]any{
		"program": map[string]any{"name": "Builders Fund"},
		"answers": []any{map[string]any{"field": "title", "value": "Indexer"}},
	})
	require.True(t, ok)
	assert.Equal(t, "Builders Fund", sub.Program.Name)
	require.Len(t, sub.Answers, 1)
	assert.Equal(t, "Indexer", sub.Answers[0].Value)

	_, ok = AsStructured(map[string]any{"text": "plain"})
	assert.False(t, ok)

	_, ok = AsStructured(&testSubmission)
	assert.True(t, ok)

	_, ok = AsStructured("plain")
	assert.False(t, ok)
}

func TestFormatValue(t *testing.T) {
	assert.Equal(t, "", FormatValue(nil))
	assert.Equal(t, "x", FormatValue(" x "))
	assert.Equal(t, "a, b", FormatValue([]string{"a", "b"}))
	assert.Equal(t, `{"k":1}`, FormatValue(map[string]any{"k": 1}))
	assert.Equal(t, "true", FormatValue(true))
}

func TestAuto(t *testing.T) {
	p := NewAuto(NewHeuristicParser(Options{}), Options{})

	structured := p.Parse(context.Background(), testSubmission)
	assert.Equal(t, []string{"Budget Efficiency"}, structured.EconomicImplications)

	text := p.Parse(context.Background(), sampleProposal)
	assert.Equal(t, []string{"The budget is $50k in USD."}, text.EconomicImplications)
}
