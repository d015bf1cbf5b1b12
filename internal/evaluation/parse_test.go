package evaluation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseScore(t *testing.T) {
	tests := []struct {
		name      string
		text      string
		score     int
		reasoning string
	}{
		{"bare", `{"score": 66, "reasoning": "ok"}`, 66, "ok"},
		{"fenced", "Here you go:\n```json\n{\"score\": 80, \"reasoning\": \"Strong plan.\"}\n```", 80, "Strong plan."},
		{"prose around", `I'd say {"score": 20, "reasoning": "thin"} overall.`, 20, "thin"},
		{"float level", `{"score": 50.0, "reasoning": "fine"}`, 50, "fine"},
		{"regex fallback", `{"analysis": {"score": 33, "reasoning": "weak"}`, 33, "weak"},
		{"regex reversed", `{ oops {"reasoning": "solid", "score": 100}`, 100, "solid"},
		{"zero", `{"score": 0, "reasoning": "missing"}`, 0, "missing"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			score, reasoning, err := ParseScore(tt.text)
			require.NoError(t, err)
			assert.Equal(t, tt.score, score)
			assert.Equal(t, tt.reasoning, reasoning)
		})
	}
}

func TestParseScore_Errors(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"not a level", `{"score": 70, "reasoning": "x"}`},
		{"fractional", `{"score": 66.5, "reasoning": "x"}`},
		{"string score", `{"score": "66", "reasoning": "x"}`},
		{"truncated", `{"score": 66, "reasoning": "ok`},
		{"no json", "Score: 66"},
		{"no score field", `{"rating": 66, "reasoning": "x"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := ParseScore(tt.text)
			assert.Error(t, err)
		})
	}
}
