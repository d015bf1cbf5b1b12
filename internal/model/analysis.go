package model

// Tendency is the recommendation direction extracted from one perspective.
type Tendency string

const (
	TendencyFor     Tendency = "for"
	TendencyAgainst Tendency = "against"
	TendencyAbstain Tendency = "abstain"
	TendencyNeutral Tendency = "neutral"
)

// Consensus describes how strongly the perspectives agree.
type Consensus string

const (
	ConsensusUnanimous Consensus = "unanimous"
	ConsensusMajority  Consensus = "majority"
	ConsensusMixed     Consensus = "mixed"
	ConsensusSplit     Consensus = "split"
	ConsensusUnknown   Consensus = "unknown"
)

// Arguments groups supporting and opposing statements found in the input.
type Arguments struct {
	For     []string `json:"for"`
	Against []string `json:"against"`
}

// ParsedInput is the canonical subject of a multi-perspective analysis.
// It is built once per Analyze call and never mutated afterwards.
type ParsedInput struct {
	Summary              string    `json:"summary"`
	Arguments            Arguments `json:"arguments"`
	RiskFactors          []string  `json:"risk_factors"`
	OpportunityFactors   []string  `json:"opportunity_factors"`
	EconomicImplications []string  `json:"economic_implications"`
}

// PerspectiveAnalysis is one perspective's structured verdict.
type PerspectiveAnalysis struct {
	Perspective            string   `json:"perspective"`
	Analysis               string   `json:"analysis"`
	FocusAreas             []string `json:"focus_areas"`
	KeyConcerns            []string `json:"key_concerns"`
	KeyBenefits            []string `json:"key_benefits"`
	RecommendationTendency Tendency `json:"recommendation_tendency"`
	Confidence             int      `json:"confidence"`
	Error                  string   `json:"error,omitempty"`
}

// Failed reports whether the record was substituted for a failed call.
func (a PerspectiveAnalysis) Failed() bool {
	return a.Error != ""
}

// MultiPerspectiveResult aggregates every perspective's analysis.
type MultiPerspectiveResult struct {
	Analyses             []PerspectiveAnalysis `json:"analyses"`
	Synthesis            string                `json:"synthesis"`
	PerspectivesAnalyzed []string              `json:"perspectives_analyzed"`
	Consensus            Consensus             `json:"consensus"`
	DominantPerspective  string                `json:"dominant_perspective"`
	ParsedInput          *ParsedInput          `json:"parsed_input,omitempty"`
}

// VoteRecommendation is the final output of vote synthesis.
type VoteRecommendation struct {
	SubmissionID       string   `json:"submission_id"`
	RecommendedVote    string   `json:"recommended_vote"`
	Confidence         int      `json:"confidence"`
	Rationale          string   `json:"rationale"`
	KeyFactors         []string `json:"key_factors"`
	SuggestedComment   string   `json:"suggested_comment"`
	PerspectiveSummary string   `json:"perspective_summary"`
}
