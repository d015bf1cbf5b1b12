package evaluation

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	llmmocks "github.com/sells-group/grant-review/internal/llm/mocks"
	"github.com/sells-group/grant-review/internal/model"
	storemocks "github.com/sells-group/grant-review/internal/store/mocks"
)

var testForm = &model.Form{
	ID:    "form-1",
	OrgID: "org-1",
	Title: "Builders Grant",
	Steps: []model.FormStep{
		{Index: 1, Title: "Project", Fields: []model.FormField{{Name: "title", Label: "Project title"}}},
		{Index: 2, Title: "Budget", Fields: []model.FormField{{Name: "budget", Label: "Budget breakdown"}}},
	},
}

var testCriteria = []model.Criterion{
	{ID: "c1", Name: "Impact", Weight: 2},
	{ID: "c2", Name: "Feasibility", Weight: 1},
}

var testAnswers = []model.Answer{
	{Step: 2, Field: "budget", Value: map[string]any{"dev": 40000}},
	{Step: 1, Field: "title", Value: "Indexer"},
}

func forCriterion(name string) any {
	return mock.MatchedBy(func(p string) bool {
		return strings.Contains(p, "CRITERION: "+name+"\n")
	})
}

func TestEvaluateWithData_IsolatesCriterionFailure(t *testing.T) {
	gen := llmmocks.NewMockGenerator(t)
	gen.On("Generate", mock.Anything, forCriterion("Impact")).
		Return(`{"score": 66, "reasoning": "ok"}`, nil).Once()
	gen.On("Generate", mock.Anything, forCriterion("Feasibility")).
		Return(`{"score": 66, "reasoning": "trunc`, nil).Once()

	got := NewEngine(gen, nil, nil, Config{}).EvaluateWithData(context.Background(), testForm, testCriteria, testAnswers, "u1", "")

	require.Len(t, got.CriteriaEvaluations, 2)
	impact := got.CriteriaEvaluations[0]
	assert.Equal(t, "c1", impact.CriterionID)
	assert.Equal(t, 66, impact.RawScore)
	assert.InDelta(t, 132.0, impact.WeightedScore, 1e-9)
	assert.False(t, impact.IsError)
	assert.Equal(t, "ok", impact.Reasoning)

	feas := got.CriteriaEvaluations[1]
	assert.True(t, feas.IsError)
	assert.Equal(t, 0, feas.RawScore)
	assert.NotEmpty(t, feas.ErrorMessage)

	assert.InDelta(t, 132.0, got.TotalWeightedScore, 1e-9)
	assert.InDelta(t, 300.0, got.MaxPossibleScore, 1e-9)
	assert.InDelta(t, 44.0, got.NormalizedScore, 1e-9)
	assert.Equal(t, 1, got.ErrorCount())
	assert.Equal(t, "form-1", got.FormID)
}

func TestEvaluateWithData_CallFailure(t *testing.T) {
	gen := llmmocks.NewMockGenerator(t)
	gen.On("Generate", mock.Anything, mock.Anything).Return("", errors.New("overloaded")).Times(2)

	got := NewEngine(gen, nil, nil, Config{CriterionConcurrency: 1}).
		EvaluateWithData(context.Background(), testForm, testCriteria, nil, "u1", "t1")

	for _, c := range got.CriteriaEvaluations {
		assert.True(t, c.IsError)
		assert.Contains(t, c.ErrorMessage, "overloaded")
	}
	assert.Zero(t, got.NormalizedScore)
	assert.Equal(t, "t1", got.TeamID)
}

func TestAggregate(t *testing.T) {
	got := Aggregate("f", "u", "", []model.CriteriaEvaluationResult{
		{RawScore: 100, Weight: 1, WeightedScore: 100},
		{RawScore: 0, Weight: 1, WeightedScore: 0},
	})
	assert.InDelta(t, 100.0, got.TotalWeightedScore, 1e-9)
	assert.InDelta(t, 200.0, got.MaxPossibleScore, 1e-9)
	assert.InDelta(t, 50.0, got.NormalizedScore, 1e-9)

	empty := Aggregate("f", "u", "", nil)
	assert.Zero(t, empty.TotalWeightedScore)
	assert.Zero(t, empty.MaxPossibleScore)
	assert.Zero(t, empty.NormalizedScore)
	assert.NotNil(t, empty.CriteriaEvaluations)
}

func TestEvaluateSubmission_PersistsAndSurvivesSaveFailure(t *testing.T) {
	ctx := context.Background()
	st := storemocks.NewMockStore(t)
	st.On("GetCriteria", ctx, "org-1", "form-1").Return(testCriteria[:1], nil).Once()
	st.On("GetForm", ctx, "org-1", "form-1").Return(testForm, nil).Once()
	st.On("GetAnswers", ctx, "form-1", "u1").Return(testAnswers, nil).Once()
	st.On("SaveEvaluation", ctx, mock.MatchedBy(func(s *model.AggregatedScore) bool {
		return s.UserID == "u1" && s.OrgID == "org-1"
	})).Return(errors.New("db down")).Once()

	gen := llmmocks.NewMockGenerator(t)
	gen.On("Generate", mock.Anything, mock.Anything).Return(`{"score": 100, "reasoning": "great"}`, nil).Once()

	got, err := NewEngine(gen, st, st, Config{}).EvaluateSubmission(ctx, "org-1", "form-1", "u1", "")
	require.NoError(t, err)
	assert.InDelta(t, 100.0, got.NormalizedScore, 1e-9)
	assert.Equal(t, "org-1", got.OrgID)
}

func TestEvaluateSubmission_DataFailure(t *testing.T) {
	ctx := context.Background()
	st := storemocks.NewMockStore(t)
	st.On("GetCriteria", ctx, "org-1", "form-1").Return(nil, errors.New("no such form")).Once()
	gen := llmmocks.NewMockGenerator(t)

	got, err := NewEngine(gen, st, st, Config{}).EvaluateSubmission(ctx, "org-1", "form-1", "u1", "team")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "org-1", got.OrgID)
	assert.Equal(t, "form-1", got.FormID)
	assert.Equal(t, "u1", got.UserID)
	assert.Equal(t, "team", got.TeamID)
	assert.Empty(t, got.CriteriaEvaluations)
	assert.Zero(t, got.NormalizedScore)
	assert.False(t, got.EvaluationTimestamp.IsZero())
}

func TestEvaluateSubmission_AnswersFailure(t *testing.T) {
	ctx := context.Background()
	st := storemocks.NewMockStore(t)
	st.On("GetCriteria", ctx, "org-1", "form-1").Return(testCriteria, nil).Once()
	st.On("GetForm", ctx, "org-1", "form-1").Return(testForm, nil).Once()
	st.On("GetAnswers", ctx, "form-1", "u1").Return(nil, errors.New("timeout")).Once()
	gen := llmmocks.NewMockGenerator(t)

	got, err := NewEngine(gen, st, st, Config{}).EvaluateSubmission(ctx, "org-1", "form-1", "u1", "")
	require.NoError(t, err)
	assert.Empty(t, got.CriteriaEvaluations)
	assert.Zero(t, got.MaxPossibleScore)
	gen.AssertNotCalled(t, "Generate", mock.Anything, mock.Anything)
	st.AssertNotCalled(t, "SaveEvaluation", mock.Anything, mock.Anything)
}

func TestEvaluateSubmission_MissingIDs(t *testing.T) {
	_, err := NewEngine(llmmocks.NewMockGenerator(t), nil, nil, Config{}).
		EvaluateSubmission(context.Background(), "org", "", "u", "")
	assert.ErrorIs(t, err, ErrMissingContext)
}

func TestEvaluateBatch(t *testing.T) {
	st := storemocks.NewMockStore(t)
	st.On("GetCriteria", mock.Anything, "org-1", "form-1").Return(testCriteria[:1], nil)
	st.On("GetForm", mock.Anything, "org-1", "form-1").Return(testForm, nil)
	st.On("GetAnswers", mock.Anything, "form-1", "u1").Return(testAnswers, nil)
	st.On("GetAnswers", mock.Anything, "form-1", "u2").Return(nil, errors.New("timeout"))
	st.On("GetAnswers", mock.Anything, "form-1", "u3").Return(testAnswers, nil)
	st.On("SaveEvaluation", mock.Anything, mock.Anything).Return(nil).Times(2)

	gen := llmmocks.NewMockGenerator(t)
	gen.On("Generate", mock.Anything, mock.Anything).Return(`{"score": 50, "reasoning": "ok"}`, nil).Times(2)

	got := NewEngine(gen, st, st, Config{UserConcurrency: 2}).
		EvaluateBatch(context.Background(), "org-1", "form-1", []string{"u1", "u2", "u3"}, "team")

	require.Len(t, got, 3)
	assert.Equal(t, []string{"u1", "u2", "u3"}, []string{got[0].UserID, got[1].UserID, got[2].UserID})
	assert.InDelta(t, 50.0, got[0].NormalizedScore, 1e-9)
	assert.Empty(t, got[1].CriteriaEvaluations)
	assert.Zero(t, got[1].NormalizedScore)
	assert.Equal(t, "team", got[1].TeamID)
	assert.InDelta(t, 50.0, got[2].NormalizedScore, 1e-9)
}

func TestFormatAnswers(t *testing.T) {
	got := formatAnswers(testForm, append(testAnswers, model.Answer{Step: 9, Field: "extra", Value: ""}))

	assert.Equal(t, "Step 1: Project\n"+
		"Project title: Indexer\n"+
		"\n"+
		"Step 2: Budget\n"+
		`Budget breakdown: {"dev":40000}`+"\n"+
		"\n"+
		"Step 9: Other\n"+
		"extra: (no answer)", got)

	assert.Equal(t, "(no answers submitted)", formatAnswers(testForm, nil))
}
