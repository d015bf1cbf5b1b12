// Package evaluation scores a participant's answers against weighted
// criteria, one LLM call per criterion, and rolls the scores up into a
// normalized percentage.
package evaluation

import (
	"context"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/grant-review/internal/fanout"
	"github.com/sells-group/grant-review/internal/llm"
	"github.com/sells-group/grant-review/internal/model"
	"github.com/sells-group/grant-review/internal/store"
)

// ErrMissingContext is returned when a submission is identified without an
// organization, form or user.
var ErrMissingContext = eris.New("evaluation: org_id, form_id and user_id are required")

// Config bounds evaluation concurrency. Zero values mean unbounded.
type Config struct {
	CriterionConcurrency int
	UserConcurrency      int
}

// Engine evaluates submissions. data and sink may be nil for callers that
// only use EvaluateWithData.
type Engine struct {
	gen  llm.Generator
	data store.DataProvider
	sink store.EvaluationSink
	cfg  Config
	now  func() time.Time
}

// NewEngine creates an Engine.
func NewEngine(gen llm.Generator, data store.DataProvider, sink store.EvaluationSink, cfg Config) *Engine {
	return &Engine{
		gen:  gen,
		data: data,
		sink: sink,
		cfg:  cfg,
		now:  func() time.Time { return time.Now().UTC() },
	}
}

// EvaluateSubmission fetches one participant's data, scores every criterion
// and persists the result. Only missing identifiers or a missing data
// provider are returned as errors. A data-fetch failure is logged and yields
// an empty zero score that is not persisted; criterion failures are recorded
// in the result and a failed save is logged.
func (e *Engine) EvaluateSubmission(ctx context.Context, orgID, formID, userID, teamID string) (*model.AggregatedScore, error) {
	if orgID == "" || formID == "" || userID == "" {
		return nil, ErrMissingContext
	}
	if e.data == nil {
		return nil, eris.New("evaluation: no data provider configured")
	}

	form, criteria, answers, err := e.fetch(ctx, orgID, formID, userID)
	if err != nil {
		zap.L().Error("evaluation: failed to fetch submission data",
			zap.String("org_id", orgID),
			zap.String("form_id", formID),
			zap.String("user_id", userID),
			zap.Error(err),
		)
		return e.empty(orgID, formID, userID, teamID), nil
	}

	score := e.EvaluateWithData(ctx, form, criteria, answers, userID, teamID)
	score.OrgID = orgID

	if e.sink != nil {
		if err := e.sink.SaveEvaluation(ctx, score); err != nil {
			zap.L().Error("evaluation: failed to persist evaluation",
				zap.String("form_id", formID),
				zap.String("user_id", userID),
				zap.Error(err),
			)
		}
	}
	return score, nil
}

func (e *Engine) fetch(ctx context.Context, orgID, formID, userID string) (*model.Form, []model.Criterion, []model.Answer, error) {
	criteria, err := e.data.GetCriteria(ctx, orgID, formID)
	if err != nil {
		return nil, nil, nil, eris.Wrapf(err, "evaluation: get criteria for form %s", formID)
	}
	form, err := e.data.GetForm(ctx, orgID, formID)
	if err != nil {
		return nil, nil, nil, eris.Wrapf(err, "evaluation: get form %s", formID)
	}
	answers, err := e.data.GetAnswers(ctx, formID, userID)
	if err != nil {
		return nil, nil, nil, eris.Wrapf(err, "evaluation: get answers for user %s", userID)
	}
	return form, criteria, answers, nil
}

// empty is the zero score reported for a participant whose data is
// unavailable.
func (e *Engine) empty(orgID, formID, userID, teamID string) *model.AggregatedScore {
	score := Aggregate(formID, userID, teamID, nil)
	score.OrgID = orgID
	score.EvaluationTimestamp = e.now()
	return score
}

// EvaluateWithData scores answers against criteria without touching the
// store. It never fails.
func (e *Engine) EvaluateWithData(ctx context.Context, form *model.Form, criteria []model.Criterion, answers []model.Answer, userID, teamID string) *model.AggregatedScore {
	if form == nil {
		form = &model.Form{}
	}
	start := time.Now()
	answerBlock := formatAnswers(form, answers)

	results := fanout.Map(ctx, criteria, e.cfg.CriterionConcurrency,
		func(ctx context.Context, _ int, c model.Criterion) (model.CriteriaEvaluationResult, error) {
			return e.evaluateCriterion(ctx, c, form, answerBlock)
		})

	evals := make([]model.CriteriaEvaluationResult, len(results))
	for i, r := range results {
		if r.OK() {
			evals[i] = r.Value
			continue
		}
		zap.L().Warn("evaluation: criterion failed",
			zap.String("criterion_id", criteria[i].ID),
			zap.String("user_id", userID),
			zap.Error(r.Err),
		)
		evals[i] = errorResult(criteria[i], r.Err)
	}

	score := Aggregate(form.ID, userID, teamID, evals)
	score.EvaluationTimestamp = e.now()

	zap.L().Info("evaluation: submission scored",
		zap.String("form_id", form.ID),
		zap.String("user_id", userID),
		zap.Int("criteria", len(evals)),
		zap.Int("errors", score.ErrorCount()),
		zap.Float64("normalized_score", score.NormalizedScore),
		zap.Duration("elapsed", time.Since(start)),
	)
	return score
}

// EvaluateBatch evaluates every user concurrently. A user whose data cannot
// be fetched, or who fails validation, gets an empty aggregate; the batch
// itself never fails. Results
// follow the order of userIDs.
func (e *Engine) EvaluateBatch(ctx context.Context, orgID, formID string, userIDs []string, teamID string) []model.AggregatedScore {
	results := fanout.Map(ctx, userIDs, e.cfg.UserConcurrency,
		func(ctx context.Context, _ int, userID string) (*model.AggregatedScore, error) {
			return e.EvaluateSubmission(ctx, orgID, formID, userID, teamID)
		})

	out := make([]model.AggregatedScore, len(results))
	for i, r := range results {
		if r.OK() && r.Value != nil {
			out[i] = *r.Value
			continue
		}
		zap.L().Error("evaluation: batch entry failed",
			zap.String("form_id", formID),
			zap.String("user_id", userIDs[i]),
			zap.Error(r.Err),
		)
		out[i] = *e.empty(orgID, formID, userIDs[i], teamID)
	}
	return out
}

func (e *Engine) evaluateCriterion(ctx context.Context, c model.Criterion, form *model.Form, answerBlock string) (model.CriteriaEvaluationResult, error) {
	text, err := e.gen.Generate(ctx, criterionPrompt(c, form, answerBlock))
	if err != nil {
		return model.CriteriaEvaluationResult{}, eris.Wrap(err, "evaluation: llm call")
	}
	score, reasoning, err := ParseScore(text)
	if err != nil {
		return model.CriteriaEvaluationResult{}, err
	}
	return model.CriteriaEvaluationResult{
		CriterionID:          c.ID,
		CriterionName:        c.Name,
		CriterionDescription: c.Description,
		RawScore:             score,
		Weight:               c.Weight,
		WeightedScore:        float64(score) * c.Weight,
		Reasoning:            reasoning,
	}, nil
}

func errorResult(c model.Criterion, err error) model.CriteriaEvaluationResult {
	return model.CriteriaEvaluationResult{
		CriterionID:          c.ID,
		CriterionName:        c.Name,
		CriterionDescription: c.Description,
		RawScore:             0,
		Weight:               c.Weight,
		WeightedScore:        0,
		Reasoning:            "",
		IsError:              true,
		ErrorMessage:         strings.TrimSpace(err.Error()),
	}
}

// Aggregate rolls criterion results up into an AggregatedScore. The
// normalized score is 0 when the maximum possible score is 0.
func Aggregate(formID, userID, teamID string, results []model.CriteriaEvaluationResult) *model.AggregatedScore {
	if results == nil {
		results = []model.CriteriaEvaluationResult{}
	}
	var total, maxScore float64
	for _, r := range results {
		total += r.WeightedScore
		maxScore += 100 * r.Weight
	}
	normalized := 0.0
	if maxScore > 0 {
		normalized = total / maxScore * 100
	}
	return &model.AggregatedScore{
		FormID:              formID,
		UserID:              userID,
		TeamID:              teamID,
		TotalWeightedScore:  total,
		MaxPossibleScore:    maxScore,
		NormalizedScore:     normalized,
		CriteriaEvaluations: results,
		EvaluationTimestamp: time.Now().UTC(),
	}
}
