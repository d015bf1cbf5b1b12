package vote

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/sells-group/grant-review/internal/llm/mocks"
	"github.com/sells-group/grant-review/internal/model"
)

var testResult = &model.MultiPerspectiveResult{
	Analyses: []model.PerspectiveAnalysis{
		{Perspective: "technical", RecommendationTendency: model.TendencyFor, Confidence: 8,
			KeyBenefits: []string{"b1", "b2", "b3", "b4"}},
		{Perspective: "economic", RecommendationTendency: model.TendencyAgainst, Confidence: 6},
	},
	Consensus:           model.ConsensusMixed,
	DominantPerspective: "technical",
}

func TestSynthesize_JSON(t *testing.T) {
	gen := mocks.NewMockGenerator(t)
	gen.On("Generate", mock.Anything, mock.MatchedBy(func(p string) bool {
		return strings.Contains(p, "DOMINANT PERSPECTIVE: technical") &&
			strings.Contains(p, "benefits: b1; b2; b3\n") &&
			strings.Contains(p, "Allowed votes: approve, reject, abstain")
	})).Return("```json\n"+`{"recommended_vote": "approve", "confidence": 7, "rationale": "Strong team.",
		"key_factors": ["team", "scope"], "suggested_comment": "Good luck", "perspective_summary": "mostly positive"}`+"\n```", nil).Once()

	got := NewSynthesizer(gen).Synthesize(context.Background(), testResult, nil, "sub-1")

	assert.Equal(t, model.VoteRecommendation{
		SubmissionID:       "sub-1",
		RecommendedVote:    "approve",
		Confidence:         7,
		Rationale:          "Strong team.",
		KeyFactors:         []string{"team", "scope"},
		SuggestedComment:   "Good luck",
		PerspectiveSummary: "mostly positive",
	}, got)
}

func TestSynthesize_RemapsApproveToFor(t *testing.T) {
	gen := mocks.NewMockGenerator(t)
	gen.On("Generate", mock.Anything, mock.Anything).
		Return(`Answer: {"recommended_vote": "approve", "confidence": 6}`, nil).Once()

	got := NewSynthesizer(gen).Synthesize(context.Background(), testResult, []string{"for", "against", "abstain"}, "s")

	assert.Equal(t, "for", got.RecommendedVote)
	assert.Equal(t, 6, got.Confidence)
	assert.Equal(t, "technical: for (8/10); economic: against (6/10)", got.PerspectiveSummary)
}

func TestSynthesize_ConfidenceDefaultsWhenAbsent(t *testing.T) {
	gen := mocks.NewMockGenerator(t)
	gen.On("Generate", mock.Anything, mock.Anything).
		Return(`{"recommended_vote": "reject", "rationale": "Budget is unclear."}`, nil).Once()

	got := NewSynthesizer(gen).Synthesize(context.Background(), testResult, nil, "s")

	assert.Equal(t, "reject", got.RecommendedVote)
	assert.Equal(t, 5, got.Confidence)
}

func TestSynthesize_ConfidenceClamped(t *testing.T) {
	gen := mocks.NewMockGenerator(t)
	gen.On("Generate", mock.Anything, mock.Anything).
		Return(`{"recommended_vote": "approve", "confidence": 42}`, nil).Once()

	got := NewSynthesizer(gen).Synthesize(context.Background(), testResult, nil, "s")

	assert.Equal(t, 10, got.Confidence)
}

func TestSynthesize_TextFallback(t *testing.T) {
	long := "I would reject this proposal. " + strings.Repeat("x", 600)
	gen := mocks.NewMockGenerator(t)
	gen.On("Generate", mock.Anything, mock.Anything).Return(long, nil).Once()

	got := NewSynthesizer(gen).Synthesize(context.Background(), testResult, nil, "s")

	assert.Equal(t, "reject", got.RecommendedVote)
	assert.Equal(t, 3, got.Confidence)
	assert.Equal(t, long[:500], got.Rationale)
}

func TestSynthesize_TextFallbackSynonyms(t *testing.T) {
	gen := mocks.NewMockGenerator(t)
	gen.On("Generate", mock.Anything, mock.Anything).Return("Yes, go ahead.", nil).Once()

	got := NewSynthesizer(gen).Synthesize(context.Background(), testResult, []string{"fund", "decline"}, "s")
	assert.Equal(t, "fund", got.RecommendedVote)
}

func TestSynthesize_CallFailure(t *testing.T) {
	gen := mocks.NewMockGenerator(t)
	gen.On("Generate", mock.Anything, mock.Anything).Return("", errors.New("timeout")).Once()

	got := NewSynthesizer(gen).Synthesize(context.Background(), testResult, []string{"yes", "no"}, "s")

	assert.Equal(t, "yes", got.RecommendedVote)
	assert.Equal(t, 1, got.Confidence)
	assert.Equal(t, "timeout", got.Rationale)
}

func TestSynthesize_NilResult(t *testing.T) {
	gen := mocks.NewMockGenerator(t)
	gen.On("Generate", mock.Anything, mock.Anything).Return(`{"recommended_vote": "abstain", "confidence": 2}`, nil).Once()

	got := NewSynthesizer(gen).Synthesize(context.Background(), nil, nil, "s")
	assert.Equal(t, "abstain", got.RecommendedVote)
}

func TestRemap(t *testing.T) {
	tests := []struct {
		vote    string
		options []string
		want    string
	}{
		{"approve", []string{"for", "against", "abstain"}, "for"},
		{"Approve", []string{"approve", "reject"}, "approve"},
		{"yes", []string{"approve", "reject", "abstain"}, "approve"},
		{"oppose", []string{"for", "against", "abstain"}, "against"},
		{"no", []string{"approve", "reject"}, "reject"},
		{"maybe", []string{"for", "against", "abstain"}, "abstain"},
		{"maybe", []string{"fund", "decline"}, "fund"},
		{"support", []string{"fund", "decline"}, "fund"},
		{"", nil, "abstain"},
		{"not approved", []string{"for", "against", "abstain"}, "abstain"},
		{"do not approve", []string{"approve", "reject", "abstain"}, "abstain"},
		{"I don't support this", []string{"for", "against", "abstain"}, "abstain"},
		{"not approve, reject", []string{"approve", "reject", "abstain"}, "reject"},
	}
	for _, tt := range tests {
		t.Run(tt.vote, func(t *testing.T) {
			assert.Equal(t, tt.want, Remap(tt.vote, tt.options))
		})
	}
}
