// Package dynamic implements DynamicExtender: when a zone's compiled period
// list ends in the perpetually recurring DST/standard-time pair (the two
// trailing regular periods carry the recurring rules, and the last of them
// ends at {max}), it rematerializes concrete periods
// covering a specific query year on demand instead of expanding the
// recurrence forever up front.
package dynamic

import (
	"sync"

	"github.com/tzcore/tzperiod/builder"
	"github.com/tzcore/tzperiod/internal/tzexpand"
	"github.com/tzcore/tzperiod/period"
	"github.com/tzcore/tzperiod/ruleset"
	"github.com/tzcore/tzperiod/shrinker"
	"github.com/tzcore/tzperiod/tzdata"
)

// Extender materializes a short, ephemeral period list covering a single
// year for a zone whose tail recurs forever. It is stateless except for an
// optional result cache; the zero value (with Cache left nil) works.
type Extender struct {
	// Cache, if non-nil, is consulted and populated by Extend, keyed by
	// zone name and query year. Correctness never depends on it: a cache
	// miss just redoes the (cheap) rebuild.
	Cache *sync.Map // key: cacheKey, value: []period.CompiledPeriod
}

type cacheKey struct {
	zone string
	year int
}

// New returns an Extender with no result cache.
func New() *Extender {
	return &Extender{}
}

// NewCached returns an Extender that caches rematerialized years per
// (zone, year).
func NewCached() *Extender {
	return &Extender{Cache: &sync.Map{}}
}

// Extend rematerializes the periods covering year for a zone whose two
// trailing regular periods form its recurring tail (the last one ending at
// {max}). tail must be exactly those two periods, oldest first, each carrying RawRule/ZoneLine as attached by
// PeriodBuilder. It returns the small compiled period list PeriodIndex
// should re-query against for that year; the result is not retained by
// Extender unless a Cache was supplied.
func (e *Extender) Extend(zoneName string, tail []period.CompiledPeriod, year int) ([]period.CompiledPeriod, error) {
	if e.Cache != nil {
		if v, ok := e.Cache.Load(cacheKey{zoneName, year}); ok {
			return v.([]period.CompiledPeriod), nil
		}
	}

	if len(tail) != 2 {
		return nil, period.Structuralf(zoneName, "dynamic extension requires exactly two trailing :max periods, got %d", len(tail))
	}
	zl, ok := tail[0].ZoneLine.(tzdata.ZoneLine)
	if !ok {
		zl, ok = tail[1].ZoneLine.(tzdata.ZoneLine)
	}
	if !ok {
		return nil, period.Structuralf(zoneName, "trailing :max periods carry no zone line for dynamic extension")
	}

	var rawRules []tzdata.RuleLine
	for _, p := range tail {
		if rr, ok := p.RawRule.(tzdata.RuleLine); ok {
			rawRules = append(rawRules, rr)
		}
	}
	if len(rawRules) == 0 {
		return nil, period.Structuralf(zoneName, "trailing :max periods carry no raw rule for dynamic extension")
	}

	window := tzexpand.Moment{Year: year - 1}
	limit := tzexpand.Moment{Year: year + 1}
	expanded := tzexpand.ExpandRules(window, limit, rawRules)
	if len(expanded) == 0 {
		return nil, period.Structuralf(zoneName, "no rule occurrences in %d..%d for dynamic extension", year-1, year+1)
	}

	// zl.Until is cleared so builder.Build treats this synthetic
	// single-line zone as still open-ended, matching the real zone it was
	// extracted from.
	synthetic := zl
	synthetic.Until = tzdata.Until{}

	b := builder.New(ruleset.NewResolver(expanded))
	// The synthetic zone line is open-ended, so Build's own rule-expansion
	// window would otherwise clip it to builder.HorizonYear regardless of
	// which year was actually asked for; override it to cover year itself.
	b.Horizon = year + 1
	raw, err := b.Build(zoneName, []tzdata.ZoneLine{synthetic})
	if err != nil {
		return nil, err
	}
	compiled := shrinker.Shrink(raw)

	if e.Cache != nil {
		e.Cache.Store(cacheKey{zoneName, year}, compiled)
	}
	return compiled, nil
}
