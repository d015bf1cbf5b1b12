package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestIsScoreLevel(t *testing.T) {
	for _, l := range ScoreLevels {
		assert.True(t, IsScoreLevel(l), "level %d", l)
	}
	for _, bad := range []int{-1, 1, 25, 65, 99, 101} {
		assert.False(t, IsScoreLevel(bad), "level %d", bad)
	}
}

func TestAggregatedScore_ErrorCount(t *testing.T) {
	s := &AggregatedScore{CriteriaEvaluations: []CriteriaEvaluationResult{
		{CriterionID: "a"},
		{CriterionID: "b", IsError: true},
		{CriterionID: "c", IsError: true},
	}}
	assert.Equal(t, 2, s.ErrorCount())
	assert.Equal(t, 0, (&AggregatedScore{}).ErrorCount())
}

func TestPerspectiveAnalysis_Failed(t *testing.T) {
	assert.False(t, PerspectiveAnalysis{Perspective: "technical"}.Failed())
	assert.True(t, PerspectiveAnalysis{Perspective: "technical", Error: "timeout"}.Failed())
}

func TestForm_Lookups(t *testing.T) {
	f := &Form{Steps: []FormStep{
		{Index: 1, Title: "Project", Fields: []FormField{{Name: "title", Label: "Project title"}, {Name: "url"}}},
		{Index: 2, Title: "Budget", Fields: []FormField{{Name: "amount", Label: "Amount"}}},
	}}

	fields := f.Fields()
	require.Len(t, fields, 3)
	assert.Equal(t, "amount", fields[2].Name)

	assert.Equal(t, "Project title", f.Label("title"))
	assert.Equal(t, "url", f.Label("url"), "empty label falls back to the name")
	assert.Equal(t, "missing", f.Label("missing"))

	assert.Equal(t, "Budget", f.StepTitle(2))
	assert.Empty(t, f.StepTitle(7))
}

func TestPerspectiveSpec_UnmarshalJSON(t *testing.T) {
	var specs []PerspectiveSpec
	require.NoError(t, json.Unmarshal([]byte(`["technical", {"name": "ops", "prompt": "Look at operations."}]`), &specs))

	require.Len(t, specs, 2)
	assert.Equal(t, PerspectiveSpec{Name: "technical"}, specs[0])
	assert.False(t, specs[0].IsCustom())
	assert.Equal(t, PerspectiveSpec{Name: "ops", Prompt: "Look at operations."}, specs[1])
	assert.True(t, specs[1].IsCustom())

	var bad PerspectiveSpec
	assert.Error(t, json.Unmarshal([]byte(`42`), &bad))
}

func TestPerspectiveSpec_UnmarshalYAML(t *testing.T) {
	var doc struct {
		Perspectives []PerspectiveSpec `yaml:"perspectives"`
	}
	src := `perspectives:
  - economic
  - name: treasury
    prompt: Guard the treasury.
`
	require.NoError(t, yaml.Unmarshal([]byte(src), &doc))

	require.Len(t, doc.Perspectives, 2)
	assert.Equal(t, "economic", doc.Perspectives[0].Name)
	assert.Equal(t, "Guard the treasury.", doc.Perspectives[1].Prompt)
}

func TestMultiPerspectiveResult_JSONShape(t *testing.T) {
	r := MultiPerspectiveResult{
		Analyses:             []PerspectiveAnalysis{{Perspective: "technical", RecommendationTendency: TendencyFor, Confidence: 7}},
		PerspectivesAnalyzed: []string{"technical"},
		Consensus:            ConsensusUnanimous,
		DominantPerspective:  "technical",
	}
	data, err := json.Marshal(r)
	require.NoError(t, err)

	s := string(data)
	assert.Contains(t, s, `"recommendation_tendency":"for"`)
	assert.Contains(t, s, `"consensus":"unanimous"`)
	assert.NotContains(t, s, `"parsed_input"`)
	assert.NotContains(t, s, `"error"`)
}
