package perspective

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/grant-review/internal/llm/mocks"
	"github.com/sells-group/grant-review/internal/model"
)

var testCriteria = []model.Criterion{
	{ID: "c1", Name: "Impact", Description: "Benefit to the ecosystem", Weight: 2},
	{ID: "c2", Name: "Team Experience", Weight: 3},
	{ID: "c3", Name: "Budget", Weight: 1},
	{ID: "c4", Name: "Feasibility", Weight: 2},
	{ID: "c5", Name: "Novelty", Weight: 0.5},
}

var testProgram = model.ProgramContext{Name: "Builders Fund", Description: "Funds tooling", Budget: "$500k"}

func TestGenerator_ParsesFencedArray(t *testing.T) {
	gen := mocks.NewMockGenerator(t)
	gen.On("Generate", mock.Anything, mock.MatchedBy(func(p string) bool {
		// Criteria listed by descending weight.
		return strings.Index(p, "Team Experience") < strings.Index(p, "Impact") &&
			strings.Contains(p, "Builders Fund")
	})).Return("Here is the panel:\n```json\n"+
		`[{"name": "ecosystem_value", "description": "d1", "focus_areas": ["a"], "key_questions": ["q"], "relevant_criteria": ["Impact"]},`+
		`{"name": "delivery_risk", "description": "d2"},`+
		`{"name": "", "description": "dropped"}]`+
		"\n```", nil).Once()

	got := NewGenerator(gen, 4).Generate(context.Background(), testProgram, nil, testCriteria)
	require.Len(t, got, 2)
	assert.Equal(t, "ecosystem_value", got[0].Name)
	assert.Equal(t, []string{"Impact"}, got[0].RelevantCriteria)
	assert.Equal(t, "delivery_risk", got[1].Name)
}

func TestGenerator_TruncatesToCount(t *testing.T) {
	gen := mocks.NewMockGenerator(t)
	gen.On("Generate", mock.Anything, mock.Anything).
		Return(`[{"name":"a"},{"name":"b"},{"name":"c"},{"name":"d"}]`, nil).Once()

	got := NewGenerator(gen, 3).Generate(context.Background(), testProgram, nil, testCriteria)
	assert.Len(t, got, 3)
}

func TestGenerator_FallbackOnCallFailure(t *testing.T) {
	gen := mocks.NewMockGenerator(t)
	gen.On("Generate", mock.Anything, mock.Anything).Return("", errors.New("timeout")).Once()

	got := NewGenerator(gen, 4).Generate(context.Background(), testProgram, nil, testCriteria)
	assert.Equal(t, FallbackPerspectives(testCriteria), got)
}

func TestGenerator_FallbackOnGarbage(t *testing.T) {
	for _, resp := range []string{"I can't help with that.", "[]", `{"name": "object not array"}`} {
		gen := mocks.NewMockGenerator(t)
		gen.On("Generate", mock.Anything, mock.Anything).Return(resp, nil).Once()

		got := NewGenerator(gen, 4).Generate(context.Background(), testProgram, nil, testCriteria)
		assert.Equal(t, FallbackPerspectives(testCriteria), got, resp)
	}
}

func TestNewGenerator_ClampsCount(t *testing.T) {
	assert.Equal(t, DefaultCount, NewGenerator(nil, 0).count)
	assert.Equal(t, MaxCount, NewGenerator(nil, 9).count)
	assert.Equal(t, 3, NewGenerator(nil, 3).count)
}

func TestFallbackPerspectives_TopWeightedCriteria(t *testing.T) {
	got := FallbackPerspectives(testCriteria)
	require.Len(t, got, 4)
	assert.Equal(t, "team_experience", got[0].Name)
	assert.Equal(t, "impact", got[1].Name)
	assert.Equal(t, "feasibility", got[2].Name)
	assert.Equal(t, "budget", got[3].Name)
	assert.Contains(t, got[1].Description, "Benefit to the ecosystem")
}

func TestFallbackPerspectives_TopsUpWithGenerics(t *testing.T) {
	got := FallbackPerspectives([]model.Criterion{{Name: "Budget", Weight: 1}})
	require.Len(t, got, 3)
	assert.Equal(t, "budget", got[0].Name)
	assert.Equal(t, "technical", got[1].Name)
	assert.Equal(t, "strategic_alignment", got[2].Name)

	none := FallbackPerspectives(nil)
	require.Len(t, none, 3)
	assert.Equal(t, "technical", none[0].Name)
	assert.Equal(t, "budget", none[2].Name)
}

func TestFallbackPerspectives_Deterministic(t *testing.T) {
	a := FallbackPerspectives(testCriteria)
	b := FallbackPerspectives(testCriteria)
	assert.Equal(t, a, b)

	// Mutating a result must not leak into later calls.
	c := FallbackPerspectives(nil)
	c[0].FocusAreas[0] = "mutated"
	assert.Equal(t, "Feasibility", FallbackPerspectives(nil)[0].FocusAreas[0])
}

func TestToPrompts(t *testing.T) {
	got := ToPrompts([]model.DynamicPerspective{{
		Name:         "delivery_risk",
		Description:  "Judges delivery risk.",
		FocusAreas:   []string{"Milestones"},
		KeyQuestions: []string{"Are milestones verifiable?"},
	}})
	require.Len(t, got, 1)
	assert.Equal(t, "delivery_risk", got[0].Name)
	assert.Contains(t, got[0].Prompt, "from the delivery risk perspective")
	assert.Contains(t, got[0].Prompt, "Focus areas:\n- Milestones")
	assert.Contains(t, got[0].Prompt, "Key questions to answer:\n- Are milestones verifiable?")
}

func TestSlug(t *testing.T) {
	assert.Equal(t, "team_experience", slug("Team  Experience!"))
	assert.Equal(t, "r_d_budget", slug("R&D Budget"))
	assert.Equal(t, "", slug("  ***  "))
}
