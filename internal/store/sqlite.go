package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/grant-review/internal/model"
	"github.com/sells-group/grant-review/internal/resilience"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db    *sql.DB
	retry resilience.RetryConfig
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

// SetRetry overrides the retry policy applied to writes.
func (s *SQLiteStore) SetRetry(cfg resilience.RetryConfig) {
	s.retry = cfg
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS forms (
	id          TEXT PRIMARY KEY,
	org_id      TEXT NOT NULL,
	title       TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	steps       TEXT NOT NULL DEFAULT '[]',
	updated_at  DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS criteria (
	form_id       TEXT NOT NULL,
	id            TEXT NOT NULL,
	org_id        TEXT NOT NULL,
	name          TEXT NOT NULL,
	description   TEXT NOT NULL DEFAULT '',
	scoring_rules TEXT NOT NULL DEFAULT '',
	weight        REAL NOT NULL DEFAULT 1,
	position      INTEGER NOT NULL DEFAULT 0,
	PRIMARY KEY (form_id, id)
);

CREATE TABLE IF NOT EXISTS answers (
	form_id  TEXT NOT NULL,
	user_id  TEXT NOT NULL,
	field    TEXT NOT NULL,
	step     INTEGER NOT NULL DEFAULT 0,
	type     TEXT NOT NULL DEFAULT '',
	value    TEXT,
	position INTEGER NOT NULL DEFAULT 0,
	PRIMARY KEY (form_id, user_id, field)
);

CREATE TABLE IF NOT EXISTS evaluations (
	id                   TEXT PRIMARY KEY,
	org_id               TEXT NOT NULL,
	form_id              TEXT NOT NULL,
	user_id              TEXT NOT NULL,
	team_id              TEXT NOT NULL DEFAULT '',
	total_weighted_score REAL NOT NULL,
	max_possible_score   REAL NOT NULL,
	normalized_score     REAL NOT NULL,
	evaluated_at         DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS criterion_results (
	evaluation_id         TEXT NOT NULL REFERENCES evaluations(id) ON DELETE CASCADE,
	position              INTEGER NOT NULL,
	criterion_id          TEXT NOT NULL,
	criterion_name        TEXT NOT NULL,
	criterion_description TEXT NOT NULL DEFAULT '',
	raw_score             INTEGER NOT NULL,
	weight                REAL NOT NULL,
	weighted_score        REAL NOT NULL,
	reasoning             TEXT NOT NULL DEFAULT '',
	is_error              INTEGER NOT NULL DEFAULT 0,
	error_message         TEXT NOT NULL DEFAULT '',
	PRIMARY KEY (evaluation_id, position)
);

CREATE INDEX IF NOT EXISTS idx_criteria_org_form ON criteria(org_id, form_id);
CREATE INDEX IF NOT EXISTS idx_evaluations_form_user ON evaluations(form_id, user_id, evaluated_at);
`

func (s *SQLiteStore) Ping(ctx context.Context) error {
	return eris.Wrap(s.db.PingContext(ctx), "sqlite: ping")
}

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) GetForm(ctx context.Context, orgID, formID string) (*model.Form, error) {
	var f model.Form
	var stepsJSON string
	err := s.db.QueryRowContext(ctx,
		`SELECT id, org_id, title, description, steps FROM forms WHERE id = ? AND org_id = ?`,
		formID, orgID,
	).Scan(&f.ID, &f.OrgID, &f.Title, &f.Description, &stepsJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, eris.Wrapf(ErrNotFound, "sqlite: form %s", formID)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get form %s", formID)
	}
	if err := json.Unmarshal([]byte(stepsJSON), &f.Steps); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal form steps")
	}
	return &f, nil
}

func (s *SQLiteStore) GetCriteria(ctx context.Context, orgID, formID string) ([]model.Criterion, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, description, scoring_rules, weight FROM criteria
		 WHERE org_id = ? AND form_id = ? ORDER BY position`,
		orgID, formID,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get criteria for form %s", formID)
	}
	defer rows.Close()

	criteria := []model.Criterion{}
	for rows.Next() {
		var c model.Criterion
		if err := rows.Scan(&c.ID, &c.Name, &c.Description, &c.ScoringRules, &c.Weight); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan criterion")
		}
		criteria = append(criteria, c)
	}
	return criteria, eris.Wrap(rows.Err(), "sqlite: iterate criteria")
}

func (s *SQLiteStore) GetAnswers(ctx context.Context, formID, userID string) ([]model.Answer, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT step, field, type, value FROM answers
		 WHERE form_id = ? AND user_id = ? ORDER BY step, position`,
		formID, userID,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get answers for user %s", userID)
	}
	defer rows.Close()

	answers := []model.Answer{}
	for rows.Next() {
		var a model.Answer
		var value sql.NullString
		if err := rows.Scan(&a.Step, &a.Field, &a.Type, &value); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan answer")
		}
		if value.Valid {
			if err := decodeValue([]byte(value.String), &a.Value); err != nil {
				return nil, eris.Wrapf(err, "sqlite: decode answer %s", a.Field)
			}
		}
		answers = append(answers, a)
	}
	return answers, eris.Wrap(rows.Err(), "sqlite: iterate answers")
}

func (s *SQLiteStore) SaveEvaluation(ctx context.Context, score *model.AggregatedScore) error {
	if score.ID == "" {
		score.ID = uuid.New().String()
	}
	if score.EvaluationTimestamp.IsZero() {
		score.EvaluationTimestamp = time.Now().UTC()
	}

	cfg := s.retry
	cfg.Operation = "sqlite: save evaluation"
	return resilience.Retry(ctx, cfg, func(ctx context.Context) error {
		return s.inTx(ctx, func(tx *sql.Tx) error {
			_, err := tx.ExecContext(ctx,
				`INSERT INTO evaluations (id, org_id, form_id, user_id, team_id,
				 total_weighted_score, max_possible_score, normalized_score, evaluated_at)
				 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				score.ID, score.OrgID, score.FormID, score.UserID, score.TeamID,
				score.TotalWeightedScore, score.MaxPossibleScore, score.NormalizedScore,
				score.EvaluationTimestamp.UTC(),
			)
			if err != nil {
				return eris.Wrapf(err, "sqlite: insert evaluation %s", score.ID)
			}

			stmt, err := tx.PrepareContext(ctx,
				`INSERT INTO criterion_results (evaluation_id, position, criterion_id, criterion_name,
				 criterion_description, raw_score, weight, weighted_score, reasoning, is_error, error_message)
				 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
			if err != nil {
				return eris.Wrap(err, "sqlite: prepare criterion result insert")
			}
			defer stmt.Close()

			for _, row := range criterionRows(score) {
				if _, err := stmt.ExecContext(ctx, row...); err != nil {
					return eris.Wrapf(err, "sqlite: insert criterion result for %s", score.ID)
				}
			}
			return nil
		})
	})
}

func (s *SQLiteStore) GetLatestEvaluation(ctx context.Context, formID, userID string) (*model.AggregatedScore, error) {
	var sc model.AggregatedScore
	err := s.db.QueryRowContext(ctx,
		`SELECT id, org_id, form_id, user_id, team_id,
		 total_weighted_score, max_possible_score, normalized_score, evaluated_at
		 FROM evaluations WHERE form_id = ? AND user_id = ?
		 ORDER BY evaluated_at DESC, rowid DESC LIMIT 1`,
		formID, userID,
	).Scan(&sc.ID, &sc.OrgID, &sc.FormID, &sc.UserID, &sc.TeamID,
		&sc.TotalWeightedScore, &sc.MaxPossibleScore, &sc.NormalizedScore, &sc.EvaluationTimestamp)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, eris.Wrapf(ErrNotFound, "sqlite: evaluation for %s/%s", formID, userID)
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: get latest evaluation")
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT criterion_id, criterion_name, criterion_description, raw_score,
		 weight, weighted_score, reasoning, is_error, error_message
		 FROM criterion_results WHERE evaluation_id = ? ORDER BY position`,
		sc.ID,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get criterion results for %s", sc.ID)
	}
	defer rows.Close()

	sc.CriteriaEvaluations = []model.CriteriaEvaluationResult{}
	for rows.Next() {
		var r model.CriteriaEvaluationResult
		if err := rows.Scan(&r.CriterionID, &r.CriterionName, &r.CriterionDescription, &r.RawScore,
			&r.Weight, &r.WeightedScore, &r.Reasoning, &r.IsError, &r.ErrorMessage); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan criterion result")
		}
		sc.CriteriaEvaluations = append(sc.CriteriaEvaluations, r)
	}
	return &sc, eris.Wrap(rows.Err(), "sqlite: iterate criterion results")
}

func (s *SQLiteStore) SaveForm(ctx context.Context, form *model.Form) error {
	stepsJSON, err := json.Marshal(form.Steps)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal form steps")
	}

	cfg := s.retry
	cfg.Operation = "sqlite: save form"
	return resilience.Retry(ctx, cfg, func(ctx context.Context) error {
		_, err := s.db.ExecContext(ctx,
			`INSERT INTO forms (id, org_id, title, description, steps, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?)
			 ON CONFLICT (id) DO UPDATE SET org_id = excluded.org_id, title = excluded.title,
			 description = excluded.description, steps = excluded.steps, updated_at = excluded.updated_at`,
			form.ID, form.OrgID, form.Title, form.Description, string(stepsJSON), time.Now().UTC(),
		)
		return eris.Wrapf(err, "sqlite: upsert form %s", form.ID)
	})
}

func (s *SQLiteStore) SaveCriteria(ctx context.Context, orgID, formID string, criteria []model.Criterion) error {
	cfg := s.retry
	cfg.Operation = "sqlite: save criteria"
	return resilience.Retry(ctx, cfg, func(ctx context.Context) error {
		return s.inTx(ctx, func(tx *sql.Tx) error {
			for i, c := range criteria {
				_, err := tx.ExecContext(ctx,
					`INSERT INTO criteria (form_id, id, org_id, name, description, scoring_rules, weight, position)
					 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
					 ON CONFLICT (form_id, id) DO UPDATE SET org_id = excluded.org_id, name = excluded.name,
					 description = excluded.description, scoring_rules = excluded.scoring_rules,
					 weight = excluded.weight, position = excluded.position`,
					formID, c.ID, orgID, c.Name, c.Description, c.ScoringRules, c.Weight, i,
				)
				if err != nil {
					return eris.Wrapf(err, "sqlite: upsert criterion %s", c.ID)
				}
			}
			return nil
		})
	})
}

func (s *SQLiteStore) SaveAnswers(ctx context.Context, formID, userID string, answers []model.Answer) error {
	values := make([]string, len(answers))
	for i, a := range answers {
		b, err := json.Marshal(a.Value)
		if err != nil {
			return eris.Wrapf(err, "sqlite: marshal answer %s", a.Field)
		}
		values[i] = string(b)
	}

	cfg := s.retry
	cfg.Operation = "sqlite: save answers"
	return resilience.Retry(ctx, cfg, func(ctx context.Context) error {
		return s.inTx(ctx, func(tx *sql.Tx) error {
			for i, a := range answers {
				_, err := tx.ExecContext(ctx,
					`INSERT INTO answers (form_id, user_id, field, step, type, value, position)
					 VALUES (?, ?, ?, ?, ?, ?, ?)
					 ON CONFLICT (form_id, user_id, field) DO UPDATE SET step = excluded.step,
					 type = excluded.type, value = excluded.value, position = excluded.position`,
					formID, userID, a.Field, a.Step, a.Type, values[i], i,
				)
				if err != nil {
					return eris.Wrapf(err, "sqlite: upsert answer %s", a.Field)
				}
			}
			return nil
		})
	})
}

func (s *SQLiteStore) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin tx")
	}
	defer tx.Rollback() //nolint:errcheck

	if err := fn(tx); err != nil {
		return err
	}
	return eris.Wrap(tx.Commit(), "sqlite: commit tx")
}
