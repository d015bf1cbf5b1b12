package analysis

import (
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/sells-group/grant-review/internal/model"
)

// Section headers of a perspective response, in the order the prompt asks
// for them.
const (
	headerFocusAreas = "FOCUS AREAS:"
	headerConcerns   = "KEY CONCERNS:"
	headerBenefits   = "KEY BENEFITS:"
	headerTendency   = "RECOMMENDATION TENDENCY:"
	headerConfidence = "CONFIDENCE:"
	headerDetailed   = "DETAILED ANALYSIS:"
)

var knownHeaders = []string{
	headerFocusAreas, headerConcerns, headerBenefits,
	headerTendency, headerConfidence, headerDetailed,
}

const (
	maxListItems      = 3
	minLineLen        = 6
	defaultConfidence = 5
)

var confidenceRe = regexp.MustCompile(`\b(10|[1-9])\b`)

// section extracts one field of a PerspectiveAnalysis. The span runs from
// start to the next known header, whichever it is, or the end of the text.
// found is false when start is absent.
type section struct {
	start string
	apply func(a *model.PerspectiveAnalysis, span string, found bool)
}

var sections = []section{
	{
		start: headerFocusAreas,
		apply: func(a *model.PerspectiveAnalysis, span string, _ bool) { a.FocusAreas = listLines(span) },
	},
	{
		start: headerConcerns,
		apply: func(a *model.PerspectiveAnalysis, span string, _ bool) { a.KeyConcerns = listLines(span) },
	},
	{
		start: headerBenefits,
		apply: func(a *model.PerspectiveAnalysis, span string, _ bool) { a.KeyBenefits = listLines(span) },
	},
	{
		start: headerTendency,
		apply: func(a *model.PerspectiveAnalysis, span string, _ bool) { a.RecommendationTendency = ClassifyTendency(span) },
	},
	{
		start: headerConfidence,
		apply: func(a *model.PerspectiveAnalysis, span string, found bool) {
			a.Confidence = defaultConfidence
			if !found {
				return
			}
			if m := confidenceRe.FindString(span); m != "" {
				a.Confidence, _ = strconv.Atoi(m)
			}
		},
	},
}

// ParseResponse builds a PerspectiveAnalysis from a raw perspective response.
// Missing sections yield empty lists, a neutral tendency and confidence 5.
func ParseResponse(perspective, text string) model.PerspectiveAnalysis {
	a := model.PerspectiveAnalysis{
		Perspective: perspective,
		Analysis:    text,
	}
	for _, s := range sections {
		span, found := s.span(text)
		s.apply(&a, span, found)
	}
	return a
}

func (s section) span(text string) (string, bool) {
	i := strings.Index(text, s.start)
	if i < 0 {
		return "", false
	}
	rest := text[i+len(s.start):]

	cut := len(rest)
	for _, e := range knownHeaders {
		if j := strings.Index(rest, e); j >= 0 && j < cut {
			cut = j
		}
	}
	return rest[:cut], true
}

// listLines splits span into lines, strips a leading "- " marker and keeps
// at most three lines longer than five characters.
func listLines(span string) []string {
	out := []string{}
	for _, line := range strings.Split(span, "\n") {
		line = strings.TrimSpace(line)
		line = strings.TrimSpace(strings.TrimPrefix(line, "- "))
		if utf8.RuneCountInString(line) < minLineLen {
			continue
		}
		out = append(out, line)
		if len(out) == maxListItems {
			break
		}
	}
	return out
}

// ClassifyTendency maps a tendency span to a Tendency by substring. "for" is
// checked before "against", which is checked before "abstain".
func ClassifyTendency(span string) model.Tendency {
	s := strings.ToLower(span)
	switch {
	case containsAny(s, "for", "support", "yes"):
		return model.TendencyFor
	case containsAny(s, "against", "oppose", "no"):
		return model.TendencyAgainst
	case strings.Contains(s, "abstain"):
		return model.TendencyAbstain
	default:
		return model.TendencyNeutral
	}
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
