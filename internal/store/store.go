package store

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/grant-review/internal/model"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = eris.New("store: not found")

// DataProvider supplies the inputs of a criteria evaluation.
type DataProvider interface {
	GetCriteria(ctx context.Context, orgID, formID string) ([]model.Criterion, error)
	GetForm(ctx context.Context, orgID, formID string) (*model.Form, error)
	GetAnswers(ctx context.Context, formID, userID string) ([]model.Answer, error)
}

// EvaluationSink persists completed evaluations.
type EvaluationSink interface {
	// SaveEvaluation stores score and its criterion rows, assigning score.ID
	// when it is empty.
	SaveEvaluation(ctx context.Context, score *model.AggregatedScore) error
}

// Store defines the persistence interface for the review engine.
type Store interface {
	DataProvider
	EvaluationSink

	// Evaluations
	GetLatestEvaluation(ctx context.Context, formID, userID string) (*model.AggregatedScore, error)

	// Seeding
	SaveForm(ctx context.Context, form *model.Form) error
	SaveCriteria(ctx context.Context, orgID, formID string, criteria []model.Criterion) error
	SaveAnswers(ctx context.Context, formID, userID string, answers []model.Answer) error

	// Lifecycle
	Ping(ctx context.Context) error
	Migrate(ctx context.Context) error
	Close() error
}
