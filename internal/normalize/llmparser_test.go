package normalize

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/sells-group/grant-review/internal/llm/mocks"
)

func TestLLMParser_ParsesFencedJSON(t *testing.T) {
	gen := mocks.NewMockGenerator(t)
	gen.On("Generate", mock.Anything, mock.MatchedBy(func(p string) bool {
		return strings.Contains(p, sampleProposal)
	})).Return("Sure.\n```json\n"+`{
		"summary": "Tooling grant",
		"arguments": {"for": ["a", "b", "c", "d"], "against": []},
		"risk_factors": ["delays"],
		"opportunity_factors": ["adoption", "adoption"],
		"economic_implications": ["$50k"]
	}`+"\n```", nil).Once()

	got := NewLLMParser(gen, Options{}).Parse(context.Background(), sampleProposal)

	assert.Equal(t, "Tooling grant", got.Summary)
	assert.Equal(t, []string{"a", "b", "c"}, got.Arguments.For)
	assert.Empty(t, got.Arguments.Against)
	assert.Equal(t, []string{"delays"}, got.RiskFactors)
	assert.Equal(t, []string{"adoption"}, got.OpportunityFactors)
	assert.Equal(t, []string{"$50k"}, got.EconomicImplications)
}

func TestLLMParser_MissingSummaryUsesText(t *testing.T) {
	gen := mocks.NewMockGenerator(t)
	gen.On("Generate", mock.Anything, mock.Anything).Return(`{"risk_factors": ["x"]}`, nil).Once()

	got := NewLLMParser(gen, Options{}).Parse(context.Background(), "short text")
	assert.Equal(t, "short text", got.Summary)
	assert.Equal(t, []string{"x"}, got.RiskFactors)
}

func TestLLMParser_FallsBackToHeuristic(t *testing.T) {
	want := NewHeuristicParser(Options{}).Parse(context.Background(), sampleProposal)

	tests := []struct {
		name string
		resp string
		err  error
	}{
		{"call error", "", errors.New("provider down")},
		{"not json", "I cannot help with that.", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := mocks.NewMockGenerator(t)
			gen.On("Generate", mock.Anything, mock.Anything).Return(tt.resp, tt.err).Once()

			got := NewLLMParser(gen, Options{}).Parse(context.Background(), sampleProposal)
			assert.Equal(t, want, got)
		})
	}
}

func TestLLMParser_EmptyInputSkipsCall(t *testing.T) {
	gen := mocks.NewMockGenerator(t)

	got := NewLLMParser(gen, Options{}).Parse(context.Background(), "")
	assert.Empty(t, got.Summary)
	gen.AssertNotCalled(t, "Generate", mock.Anything, mock.Anything)
}
