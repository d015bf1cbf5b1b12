package evaluation

import (
	"math"
	"regexp"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tidwall/gjson"

	"github.com/sells-group/grant-review/internal/llm"
	"github.com/sells-group/grant-review/internal/model"
)

// ErrUnparseable is returned when no score object can be found.
var ErrUnparseable = eris.New("evaluation: no score object in response")

var (
	scoreFirstRe     = regexp.MustCompile(`\{[^{}]*"score"[^{}]*"reasoning"[^{}]*\}`)
	reasoningFirstRe = regexp.MustCompile(`\{[^{}]*"reasoning"[^{}]*"score"[^{}]*\}`)
)

// ParseScore extracts {score, reasoning} from a criterion response. The
// object is looked for in a fenced block, then as bare JSON, then by a
// regex over flat objects naming both fields. score must be one of
// model.ScoreLevels.
func ParseScore(text string) (int, string, error) {
	for _, obj := range scoreCandidates(text) {
		if !gjson.Get(obj, "score").Exists() {
			continue
		}
		return validateScore(obj)
	}
	return 0, "", ErrUnparseable
}

func scoreCandidates(text string) []string {
	var out []string
	if obj, ok := llm.ExtractObject(text); ok {
		out = append(out, obj)
	}
	for _, re := range []*regexp.Regexp{scoreFirstRe, reasoningFirstRe} {
		if m := re.FindString(text); m != "" && gjson.Valid(m) {
			out = append(out, m)
		}
	}
	return out
}

func validateScore(obj string) (int, string, error) {
	s := gjson.Get(obj, "score")
	if s.Type != gjson.Number {
		return 0, "", eris.Errorf("evaluation: score is not a number: %s", s.Raw)
	}
	f := s.Float()
	if f != math.Trunc(f) || !model.IsScoreLevel(int(f)) {
		return 0, "", eris.Errorf("evaluation: score %s is not one of %v", s.Raw, model.ScoreLevels)
	}
	return int(f), strings.TrimSpace(gjson.Get(obj, "reasoning").String()), nil
}
