package analysis

import (
	"fmt"
	"strings"

	"github.com/sells-group/grant-review/internal/model"
)

const responseFormat = `Respond using exactly the following sections, in this order:

FOCUS AREAS:
- (up to 3 areas you focused on)

KEY CONCERNS:
- (up to 3 concerns)

KEY BENEFITS:
- (up to 3 benefits)

RECOMMENDATION TENDENCY: (for, against, abstain or neutral)

CONFIDENCE: (an integer from 1 to 10)

DETAILED ANALYSIS:
(your reasoning in a few paragraphs)`

func perspectivePrompt(p model.Perspective, in model.ParsedInput) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are reviewing a grant submission from the %q perspective.\n", p.Name)
	b.WriteString(p.Prompt)
	b.WriteString("\n\nSUBMISSION SUMMARY:\n")
	b.WriteString(orNone(in.Summary))
	writeList(&b, "ARGUMENTS FOR", in.Arguments.For)
	writeList(&b, "ARGUMENTS AGAINST", in.Arguments.Against)
	writeList(&b, "RISK FACTORS", in.RiskFactors)
	writeList(&b, "OPPORTUNITY FACTORS", in.OpportunityFactors)
	writeList(&b, "ECONOMIC IMPLICATIONS", in.EconomicImplications)
	b.WriteString("\n\n")
	b.WriteString(responseFormat)
	return b.String()
}

func synthesisPrompt(analyses []model.PerspectiveAnalysis, consensus model.Consensus, summary string) string {
	var b strings.Builder
	b.WriteString("Several reviewers assessed the same grant submission from different perspectives.\n\n")
	b.WriteString("SUBMISSION SUMMARY:\n")
	b.WriteString(orNone(summary))
	b.WriteString("\n\nPERSPECTIVES:\n")
	for _, a := range analyses {
		fmt.Fprintf(&b, "- %s: tendency %s, confidence %d/10\n", a.Perspective, a.RecommendationTendency, a.Confidence)
		if c := top(a.KeyConcerns, 2); len(c) > 0 {
			fmt.Fprintf(&b, "  concerns: %s\n", strings.Join(c, "; "))
		}
		if bn := top(a.KeyBenefits, 2); len(bn) > 0 {
			fmt.Fprintf(&b, "  benefits: %s\n", strings.Join(bn, "; "))
		}
	}
	fmt.Fprintf(&b, "\nCONSENSUS: %s\n\n", consensus)
	b.WriteString("Write a balanced synthesis of these perspectives in two or three short paragraphs. " +
		"Highlight where they agree, where they conflict, and the most important open questions.")
	return b.String()
}

func writeList(b *strings.Builder, title string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(b, "\n\n%s:", title)
	for _, it := range items {
		b.WriteString("\n- ")
		b.WriteString(it)
	}
}

func top(items []string, n int) []string {
	if len(items) > n {
		return items[:n]
	}
	return items
}

func orNone(s string) string {
	if strings.TrimSpace(s) == "" {
		return "(none provided)"
	}
	return s
}
