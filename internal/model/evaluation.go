package model

import "time"

// ScoreLevels are the only valid raw criterion scores.
var ScoreLevels = []int{0, 20, 33, 50, 66, 80, 100}

// IsScoreLevel reports whether score is one of ScoreLevels.
func IsScoreLevel(score int) bool {
	for _, l := range ScoreLevels {
		if l == score {
			return true
		}
	}
	return false
}

// Criterion is one weighted evaluation dimension of a form.
type Criterion struct {
	ID           string  `json:"id" yaml:"id"`
	Name         string  `json:"name" yaml:"name"`
	Description  string  `json:"description,omitempty" yaml:"description,omitempty"`
	ScoringRules string  `json:"scoring_rules,omitempty" yaml:"scoring_rules,omitempty"`
	Weight       float64 `json:"weight" yaml:"weight"`
}

// CriteriaEvaluationResult is one criterion's score for one participant.
type CriteriaEvaluationResult struct {
	CriterionID          string  `json:"criterion_id"`
	CriterionName        string  `json:"criterion_name"`
	CriterionDescription string  `json:"criterion_description,omitempty"`
	RawScore             int     `json:"raw_score"`
	Weight               float64 `json:"weight"`
	WeightedScore        float64 `json:"weighted_score"`
	Reasoning            string  `json:"reasoning"`
	IsError              bool    `json:"is_error"`
	ErrorMessage         string  `json:"error_message,omitempty"`
}

// AggregatedScore is the rollup of every criterion for one participant/form pair.
type AggregatedScore struct {
	ID                  string                     `json:"id,omitempty"`
	OrgID               string                     `json:"org_id,omitempty"`
	FormID              string                     `json:"form_id"`
	UserID              string                     `json:"user_id"`
	TeamID              string                     `json:"team_id,omitempty"`
	TotalWeightedScore  float64                    `json:"total_weighted_score"`
	MaxPossibleScore    float64                    `json:"max_possible_score"`
	NormalizedScore     float64                    `json:"normalized_score"`
	CriteriaEvaluations []CriteriaEvaluationResult `json:"criteria_evaluations"`
	EvaluationTimestamp time.Time                  `json:"evaluation_timestamp"`
}

// ErrorCount returns how many criteria failed to evaluate.
func (s *AggregatedScore) ErrorCount() int {
	n := 0
	for _, c := range s.CriteriaEvaluations {
		if c.IsError {
			n++
		}
	}
	return n
}
