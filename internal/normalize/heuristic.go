package normalize

import (
	"context"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/sells-group/grant-review/internal/model"
)

// Bucket is a ParsedInput list a sentence can be classified into.
type Bucket int

const (
	BucketFor Bucket = iota
	BucketAgainst
	BucketRisk
	BucketOpportunity
	BucketEconomic
)

// keywords drive sentence classification. A sentence joins every bucket for
// which it contains at least one keyword.
var keywords = map[Bucket][]string{
	BucketFor: {
		"support", "benefit", "advantage", "improve", "enable", "valuable",
		"strength", "in favor", "in favour", "proven", "positive",
	},
	BucketAgainst: {
		"oppose", "against", "drawback", "disadvantage", "lack", "weak",
		"unclear", "overpriced", "insufficient", "negative",
	},
	BucketRisk: {
		"risk", "concern", "threat", "danger", "vulnerab", "uncertain",
		"fail", "delay", "exploit",
	},
	BucketOpportunity: {
		"opportunit", "potential", "growth", "innovat", "expand", "adoption",
		"new market", "partnership",
	},
	BucketEconomic: {
		"cost", "budget", "fund", "price", "revenue", "economic", "treasury",
		"usd", "$", "spend", "financial",
	},
}

var bucketOrder = []Bucket{BucketFor, BucketAgainst, BucketRisk, BucketOpportunity, BucketEconomic}

// Classify returns the buckets text belongs to, in bucket order.
func Classify(text string) []Bucket {
	lower := strings.ToLower(text)
	var out []Bucket
	for _, b := range bucketOrder {
		for _, kw := range keywords[b] {
			if strings.Contains(lower, kw) {
				out = append(out, b)
				break
			}
		}
	}
	return out
}

// HeuristicParser classifies sentences by keyword without calling an LLM.
type HeuristicParser struct {
	opts Options
}

// NewHeuristicParser creates a HeuristicParser.
func NewHeuristicParser(opts Options) *HeuristicParser {
	return &HeuristicParser{opts: opts.withDefaults()}
}

// Parse implements Parser.
func (p *HeuristicParser) Parse(_ context.Context, raw any) model.ParsedInput {
	return safely(raw, p.opts.SummaryMaxWords, func() model.ParsedInput {
		return p.parseText(textOf(raw))
	})
}

func (p *HeuristicParser) parseText(text string) model.ParsedInput {
	text = strings.TrimSpace(norm.NFKC.String(text))
	if text == "" {
		return model.ParsedInput{}
	}

	buckets := map[Bucket][]string{}
	for _, s := range SplitSentences(text) {
		for _, b := range Classify(s) {
			buckets[b] = append(buckets[b], s)
		}
	}

	n := p.opts.MaxItems
	return model.ParsedInput{
		Summary: truncateWords(strings.Join(strings.Fields(text), " "), p.opts.SummaryMaxWords),
		Arguments: model.Arguments{
			For:     capList(buckets[BucketFor], n),
			Against: capList(buckets[BucketAgainst], n),
		},
		RiskFactors:          capList(buckets[BucketRisk], n),
		OpportunityFactors:   capList(buckets[BucketOpportunity], n),
		EconomicImplications: capList(buckets[BucketEconomic], n),
	}
}

// SplitSentences splits text at '.', '!' or '?' followed by whitespace, and
// at line breaks. Leading list markers are stripped and blanks dropped.
func SplitSentences(text string) []string {
	var out []string
	emit := func(s string) {
		s = strings.TrimSpace(s)
		s = strings.TrimLeft(s, "-*• ")
		s = strings.TrimSpace(s)
		if s != "" {
			out = append(out, s)
		}
	}

	runes := []rune(text)
	start := 0
	for i, r := range runes {
		switch {
		case r == '\n':
			emit(string(runes[start:i]))
			start = i + 1
		case r == '.' || r == '!' || r == '?':
			if i+1 == len(runes) || runes[i+1] == ' ' || runes[i+1] == '\n' || runes[i+1] == '\t' {
				emit(string(runes[start : i+1]))
				start = i + 1
			}
		}
	}
	if start < len(runes) {
		emit(string(runes[start:]))
	}
	return out
}
