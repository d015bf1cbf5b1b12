package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/grant-review/internal/db"
	"github.com/sells-group/grant-review/internal/model"
	"github.com/sells-group/grant-review/internal/resilience"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
	retry   resilience.RetryConfig
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

const (
	sqlGetForm = `SELECT id, org_id, title, description, steps FROM forms WHERE id = $1 AND org_id = $2`

	sqlUpsertForm = `INSERT INTO forms (id, org_id, title, description, steps, updated_at)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (id) DO UPDATE SET org_id = EXCLUDED.org_id, title = EXCLUDED.title,
	description = EXCLUDED.description, steps = EXCLUDED.steps, updated_at = EXCLUDED.updated_at`

	sqlGetCriteria = `SELECT id, name, description, scoring_rules, weight FROM criteria
WHERE org_id = $1 AND form_id = $2 ORDER BY position`

	sqlGetAnswers = `SELECT step, field, type, value FROM answers
WHERE form_id = $1 AND user_id = $2 ORDER BY step, position`

	sqlInsertEvaluation = `INSERT INTO evaluations (id, org_id, form_id, user_id, team_id,
	total_weighted_score, max_possible_score, normalized_score, evaluated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	sqlLatestEvaluation = `SELECT id, org_id, form_id, user_id, team_id,
	total_weighted_score, max_possible_score, normalized_score, evaluated_at
FROM evaluations WHERE form_id = $1 AND user_id = $2 ORDER BY evaluated_at DESC LIMIT 1`

	sqlCriterionResults = `SELECT criterion_id, criterion_name, criterion_description, raw_score,
	weight, weighted_score, reasoning, is_error, error_message
FROM criterion_results WHERE evaluation_id = $1 ORDER BY position`
)

// preparedStatements lists queries to prepare on each new connection.
var preparedStatements = map[string]string{
	"get_form":          sqlGetForm,
	"get_criteria":      sqlGetCriteria,
	"get_answers":       sqlGetAnswers,
	"latest_evaluation": sqlLatestEvaluation,
	"criterion_results": sqlCriterionResults,
}

var criterionResultColumns = []string{
	"evaluation_id", "position", "criterion_id", "criterion_name", "criterion_description",
	"raw_score", "weight", "weighted_score", "reasoning", "is_error", "error_message",
}

var criteriaUpsert = db.UpsertConfig{
	Table:        "criteria",
	Columns:      []string{"form_id", "id", "org_id", "name", "description", "scoring_rules", "weight", "position"},
	ConflictKeys: []string{"form_id", "id"},
}

var answersUpsert = db.UpsertConfig{
	Table:        "answers",
	Columns:      []string{"form_id", "user_id", "field", "step", "type", "value", "position"},
	ConflictKeys: []string{"form_id", "user_id", "field"},
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pgxCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		for name, sql := range preparedStatements {
			if _, err := conn.Prepare(ctx, name, sql); err != nil {
				return eris.Wrapf(err, "postgres: prepare %s", name)
			}
		}
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

// NewPostgresWithPool wraps an existing pool. The caller keeps ownership of
// the pool's lifecycle.
func NewPostgresWithPool(pool db.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// SetRetry overrides the retry policy applied to writes.
func (s *PostgresStore) SetRetry(cfg resilience.RetryConfig) {
	s.retry = cfg
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS forms (
	id          TEXT PRIMARY KEY,
	org_id      TEXT NOT NULL,
	title       TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	steps       JSONB NOT NULL DEFAULT '[]',
	updated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS criteria (
	form_id       TEXT NOT NULL,
	id            TEXT NOT NULL,
	org_id        TEXT NOT NULL,
	name          TEXT NOT NULL,
	description   TEXT NOT NULL DEFAULT '',
	scoring_rules TEXT NOT NULL DEFAULT '',
	weight        DOUBLE PRECISION NOT NULL DEFAULT 1,
	position      INTEGER NOT NULL DEFAULT 0,
	PRIMARY KEY (form_id, id)
);

CREATE TABLE IF NOT EXISTS answers (
	form_id  TEXT NOT NULL,
	user_id  TEXT NOT NULL,
	field    TEXT NOT NULL,
	step     INTEGER NOT NULL DEFAULT 0,
	type     TEXT NOT NULL DEFAULT '',
	value    JSONB,
	position INTEGER NOT NULL DEFAULT 0,
	PRIMARY KEY (form_id, user_id, field)
);

CREATE TABLE IF NOT EXISTS evaluations (
	id                   TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	org_id               TEXT NOT NULL,
	form_id              TEXT NOT NULL,
	user_id              TEXT NOT NULL,
	team_id              TEXT NOT NULL DEFAULT '',
	total_weighted_score DOUBLE PRECISION NOT NULL,
	max_possible_score   DOUBLE PRECISION NOT NULL,
	normalized_score     DOUBLE PRECISION NOT NULL,
	evaluated_at         TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS criterion_results (
	evaluation_id         TEXT NOT NULL REFERENCES evaluations(id) ON DELETE CASCADE,
	position              INTEGER NOT NULL,
	criterion_id          TEXT NOT NULL,
	criterion_name        TEXT NOT NULL,
	criterion_description TEXT NOT NULL DEFAULT '',
	raw_score             INTEGER NOT NULL,
	weight                DOUBLE PRECISION NOT NULL,
	weighted_score        DOUBLE PRECISION NOT NULL,
	reasoning             TEXT NOT NULL DEFAULT '',
	is_error              BOOLEAN NOT NULL DEFAULT false,
	error_message         TEXT NOT NULL DEFAULT '',
	PRIMARY KEY (evaluation_id, position)
);

CREATE INDEX IF NOT EXISTS idx_criteria_org_form ON criteria(org_id, form_id);
CREATE INDEX IF NOT EXISTS idx_evaluations_form_user ON evaluations(form_id, user_id, evaluated_at DESC);
`

func (s *PostgresStore) Ping(ctx context.Context) error {
	return eris.Wrap(s.pool.Ping(ctx), "postgres: ping")
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) GetForm(ctx context.Context, orgID, formID string) (*model.Form, error) {
	var f model.Form
	var stepsJSON []byte
	err := s.pool.QueryRow(ctx, sqlGetForm, formID, orgID).
		Scan(&f.ID, &f.OrgID, &f.Title, &f.Description, &stepsJSON)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, eris.Wrapf(ErrNotFound, "postgres: form %s", formID)
		}
		return nil, eris.Wrapf(err, "postgres: get form %s", formID)
	}
	if err := json.Unmarshal(stepsJSON, &f.Steps); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal form steps")
	}
	return &f, nil
}

func (s *PostgresStore) GetCriteria(ctx context.Context, orgID, formID string) ([]model.Criterion, error) {
	rows, err := s.pool.Query(ctx, sqlGetCriteria, orgID, formID)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get criteria for form %s", formID)
	}
	defer rows.Close()

	criteria := []model.Criterion{}
	for rows.Next() {
		var c model.Criterion
		if err := rows.Scan(&c.ID, &c.Name, &c.Description, &c.ScoringRules, &c.Weight); err != nil {
			return nil, eris.Wrap(err, "postgres: scan criterion")
		}
		criteria = append(criteria, c)
	}
	return criteria, eris.Wrap(rows.Err(), "postgres: iterate criteria")
}

func (s *PostgresStore) GetAnswers(ctx context.Context, formID, userID string) ([]model.Answer, error) {
	rows, err := s.pool.Query(ctx, sqlGetAnswers, formID, userID)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get answers for user %s", userID)
	}
	defer rows.Close()

	answers := []model.Answer{}
	for rows.Next() {
		var a model.Answer
		var valueJSON []byte
		if err := rows.Scan(&a.Step, &a.Field, &a.Type, &valueJSON); err != nil {
			return nil, eris.Wrap(err, "postgres: scan answer")
		}
		if err := decodeValue(valueJSON, &a.Value); err != nil {
			return nil, eris.Wrapf(err, "postgres: decode answer %s", a.Field)
		}
		answers = append(answers, a)
	}
	return answers, eris.Wrap(rows.Err(), "postgres: iterate answers")
}

func (s *PostgresStore) SaveEvaluation(ctx context.Context, score *model.AggregatedScore) error {
	if score.ID == "" {
		score.ID = uuid.New().String()
	}
	if score.EvaluationTimestamp.IsZero() {
		score.EvaluationTimestamp = time.Now().UTC()
	}
	rows := criterionRows(score)

	cfg := s.retry
	cfg.Operation = "postgres: save evaluation"
	return resilience.Retry(ctx, cfg, func(ctx context.Context) error {
		return db.InTx(ctx, s.pool, func(tx pgx.Tx) error {
			_, err := tx.Exec(ctx, sqlInsertEvaluation,
				score.ID, score.OrgID, score.FormID, score.UserID, score.TeamID,
				score.TotalWeightedScore, score.MaxPossibleScore, score.NormalizedScore,
				score.EvaluationTimestamp,
			)
			if err != nil {
				return eris.Wrapf(err, "postgres: insert evaluation %s", score.ID)
			}
			if _, err := db.CopyFrom(ctx, tx, "criterion_results", criterionResultColumns, rows); err != nil {
				return eris.Wrapf(err, "postgres: copy criterion results for %s", score.ID)
			}
			return nil
		})
	})
}

func (s *PostgresStore) GetLatestEvaluation(ctx context.Context, formID, userID string) (*model.AggregatedScore, error) {
	var sc model.AggregatedScore
	err := s.pool.QueryRow(ctx, sqlLatestEvaluation, formID, userID).Scan(
		&sc.ID, &sc.OrgID, &sc.FormID, &sc.UserID, &sc.TeamID,
		&sc.TotalWeightedScore, &sc.MaxPossibleScore, &sc.NormalizedScore, &sc.EvaluationTimestamp,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, eris.Wrapf(ErrNotFound, "postgres: evaluation for %s/%s", formID, userID)
		}
		return nil, eris.Wrap(err, "postgres: get latest evaluation")
	}

	rows, err := s.pool.Query(ctx, sqlCriterionResults, sc.ID)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get criterion results for %s", sc.ID)
	}
	defer rows.Close()

	sc.CriteriaEvaluations = []model.CriteriaEvaluationResult{}
	for rows.Next() {
		var r model.CriteriaEvaluationResult
		if err := rows.Scan(&r.CriterionID, &r.CriterionName, &r.CriterionDescription, &r.RawScore,
			&r.Weight, &r.WeightedScore, &r.Reasoning, &r.IsError, &r.ErrorMessage); err != nil {
			return nil, eris.Wrap(err, "postgres: scan criterion result")
		}
		sc.CriteriaEvaluations = append(sc.CriteriaEvaluations, r)
	}
	return &sc, eris.Wrap(rows.Err(), "postgres: iterate criterion results")
}

func (s *PostgresStore) SaveForm(ctx context.Context, form *model.Form) error {
	stepsJSON, err := json.Marshal(form.Steps)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal form steps")
	}

	cfg := s.retry
	cfg.Operation = "postgres: save form"
	return resilience.Retry(ctx, cfg, func(ctx context.Context) error {
		_, err := s.pool.Exec(ctx, sqlUpsertForm,
			form.ID, form.OrgID, form.Title, form.Description, stepsJSON, time.Now().UTC())
		return eris.Wrapf(err, "postgres: upsert form %s", form.ID)
	})
}

func (s *PostgresStore) SaveCriteria(ctx context.Context, orgID, formID string, criteria []model.Criterion) error {
	rows := make([][]any, len(criteria))
	for i, c := range criteria {
		rows[i] = []any{formID, c.ID, orgID, c.Name, c.Description, c.ScoringRules, c.Weight, i}
	}

	cfg := s.retry
	cfg.Operation = "postgres: save criteria"
	return resilience.Retry(ctx, cfg, func(ctx context.Context) error {
		_, err := db.BulkUpsert(ctx, s.pool, criteriaUpsert, rows)
		return err
	})
}

func (s *PostgresStore) SaveAnswers(ctx context.Context, formID, userID string, answers []model.Answer) error {
	rows := make([][]any, len(answers))
	for i, a := range answers {
		valueJSON, err := json.Marshal(a.Value)
		if err != nil {
			return eris.Wrapf(err, "postgres: marshal answer %s", a.Field)
		}
		rows[i] = []any{formID, userID, a.Field, a.Step, a.Type, valueJSON, i}
	}

	cfg := s.retry
	cfg.Operation = "postgres: save answers"
	return resilience.Retry(ctx, cfg, func(ctx context.Context) error {
		_, err := db.BulkUpsert(ctx, s.pool, answersUpsert, rows)
		return err
	})
}

func criterionRows(score *model.AggregatedScore) [][]any {
	rows := make([][]any, len(score.CriteriaEvaluations))
	for i, r := range score.CriteriaEvaluations {
		rows[i] = []any{
			score.ID, i, r.CriterionID, r.CriterionName, r.CriterionDescription,
			r.RawScore, r.Weight, r.WeightedScore, r.Reasoning, r.IsError, r.ErrorMessage,
		}
	}
	return rows
}

// decodeValue unmarshals a stored answer value; NULL decodes to nil.
func decodeValue(raw []byte, v *any) error {
	if len(raw) == 0 {
		*v = nil
		return nil
	}
	return json.Unmarshal(raw, v)
}
