// Package perspective holds the predefined reviewer lenses, resolves caller
// supplied perspective specs into analyzer-ready pairs, and generates
// program-specific perspectives.
package perspective

import (
	"sort"

	"github.com/sells-group/grant-review/internal/model"
)

// registry maps a predefined perspective name to its prompt fragment.
var registry = map[string]string{
	"conservative": `Evaluate this proposal from a fiscally conservative standpoint. Prioritize
treasury preservation, proven teams, measurable deliverables and downside risk. Be
skeptical of open-ended scope, vague milestones and unjustified costs.`,

	"progressive": `Evaluate this proposal from a growth-oriented standpoint. Prioritize
ecosystem expansion, experimentation, new contributors and long-term upside. Accept
reasonable risk when the potential impact is significant.`,

	"technical": `Evaluate this proposal from a technical standpoint. Assess feasibility,
architecture, security implications, maintainability, and whether the team has the
expertise to deliver what is described.`,

	"economic": `Evaluate this proposal from an economic standpoint. Assess cost versus
expected value, budget breakdown, market rates, sustainability after funding ends, and
the opportunity cost of the spend.`,

	"community": `Evaluate this proposal from the community's standpoint. Assess who benefits,
how broadly, whether the community asked for this, and how transparently the team
communicates and reports progress.`,

	"security": `Evaluate this proposal from a security and risk standpoint. Identify attack
surface, operational risks, dependency risks, and what could go wrong if the team fails
or acts in bad faith.`,

	"governance": `Evaluate this proposal from a governance standpoint. Assess accountability,
milestone-based payment structure, oversight mechanisms, conflicts of interest, and
alignment with the program's stated rules.`,

	"innovation": `Evaluate this proposal from an innovation standpoint. Assess novelty,
differentiation from existing work, research value, and whether it opens new
possibilities for the ecosystem.`,
}

// Lookup returns the prompt fragment of a predefined perspective.
func Lookup(name string) (string, bool) {
	p, ok := registry[name]
	return p, ok
}

// Names returns every predefined perspective name, sorted.
func Names() []string {
	names := make([]string, 0, len(registry))
	for n := range registry {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Predefined returns the named predefined perspective.
func Predefined(name string) (model.Perspective, bool) {
	p, ok := registry[name]
	if !ok {
		return model.Perspective{}, false
	}
	return model.Perspective{Name: name, Prompt: p}, true
}

// Legacy is the enum used by older callers to select a perspective.
type Legacy int

const (
	LegacyConservative Legacy = iota + 1
	LegacyProgressive
	LegacyTechnical
	LegacyEconomic
	LegacyCommunity
)

var legacyNames = map[Legacy]string{
	LegacyConservative: "conservative",
	LegacyProgressive:  "progressive",
	LegacyTechnical:    "technical",
	LegacyEconomic:     "economic",
	LegacyCommunity:    "community",
}

// String returns the registry name of l, or "" if l is unknown.
func (l Legacy) String() string {
	return legacyNames[l]
}
