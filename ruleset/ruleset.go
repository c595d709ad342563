// Package ruleset resolves the RULES column of a zone line into either a
// fixed local offset or the ordered group of named rule lines that govern
// it, mirroring the RuleSet resolver described for the period builder.
package ruleset

import (
	"sort"
	"time"

	"github.com/tzcore/tzperiod/tzdata"
)

// Resolver groups a tzdata file's rule lines by name so PeriodBuilder can
// look up the rules a zone line's RULES column refers to.
type Resolver struct {
	byName map[string][]tzdata.RuleLine
}

// NewResolver builds a Resolver from every rule line in a parsed tzdata
// file. Rules sharing a name are grouped together and sorted by their FROM
// year so later expansion sees them in a stable, deterministic order.
func NewResolver(rules []tzdata.RuleLine) *Resolver {
	byName := make(map[string][]tzdata.RuleLine)
	for _, r := range rules {
		byName[r.Name] = append(byName[r.Name], r)
	}
	for _, group := range byName {
		sort.Slice(group, func(i, j int) bool {
			if group[i].From != group[j].From {
				return group[i].From < group[j].From
			}
			return group[i].In < group[j].In
		})
	}
	return &Resolver{byName: byName}
}

// Resolution is the result of resolving a zone line's RULES column.
type Resolution struct {
	// Fixed is true when the column named a literal offset (or "-"), in
	// which case FixedOffset is the whole answer and Rules is empty.
	Fixed       bool
	FixedOffset time.Duration
	// Rules holds the named group's recurring rule lines, unexpanded, in
	// the order PeriodBuilder should consider them.
	Rules []tzdata.RuleLine
}

// Resolve dispatches on zr.Form and returns the corresponding Resolution.
// A ZoneRulesName reference to a name with no matching rule lines resolves
// to an empty rule group rather than an error; the builder treats an empty
// group the same as ZoneRulesStandard once padding is applied.
func (r *Resolver) Resolve(zr tzdata.ZoneRules) Resolution {
	switch zr.Form {
	case tzdata.ZoneRulesStandard:
		return Resolution{Fixed: true}
	case tzdata.ZoneRulesTime:
		return Resolution{Fixed: true, FixedOffset: zr.Time.Duration}
	case tzdata.ZoneRulesName:
		return Resolution{Rules: r.byName[zr.Name]}
	default:
		return Resolution{Fixed: true}
	}
}
