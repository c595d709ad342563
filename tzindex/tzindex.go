// Package tzindex implements PeriodIndex: it holds a zone's compiled period
// list and answers lookup_by_utc and lookup_by_wall queries against it,
// invoking DynamicExtender when a query falls into the perpetually
// recurring tail of a zone's timeline.
package tzindex

import (
	"github.com/tzcore/tzperiod/dynamic"
	"github.com/tzcore/tzperiod/period"
)

// earlyExitMargin backs the §4.8 early-exit heuristic: once a match has been
// found and the period currently being examined ends more than this far
// before the query, the reversed-list walk stops (no earlier period could
// possibly contain it, since periods are contiguous and sorted).
const earlyExitMargin = 24 * 60 * 60 // one day, in seconds

// Index holds one zone's compiled, reverse-chronological period list.
type Index struct {
	Zone     string
	Periods  []period.CompiledPeriod // newest first, as produced by shrinker.Shrink
	Extender *dynamic.Extender
}

// New returns an Index over an already-compiled (shrunk, reversed) period
// list for zone.
func New(zone string, periods []period.CompiledPeriod) *Index {
	return &Index{Zone: zone, Periods: periods, Extender: dynamic.New()}
}

// openTail reports whether idx's last period ends at {max} and is part of a
// perpetually alternating DST/standard-time recurring pair — the last period
// and the one before it both carry a RawRule/ZoneLine (I1/I2 allow only the
// single chronologically last period to literally have To = {max}; the one
// before it still references the other half of the alternating pair so
// DynamicExtender can rematerialize both rules). Periods is newest-first, so
// these are the first two regular entries; the gap or overlap period
// synthesized between them is skipped.
func (idx *Index) openTail() []period.CompiledPeriod {
	var regular []period.CompiledPeriod
	for _, p := range idx.Periods {
		if p.Type == period.Regular {
			regular = append(regular, p)
			if len(regular) == 2 {
				break
			}
		}
	}
	if len(regular) < 2 {
		return nil
	}
	last, prev := regular[0], regular[1]
	if last.To.IsMax() && last.RawRule != nil && prev.RawRule != nil {
		// Restore chronological (oldest-first) order for Extend, which
		// feeds them to the builder as a coherent "tail" in time order.
		return []period.CompiledPeriod{prev, last}
	}
	return nil
}

// PeriodForUTCInstant implements lookup_by_utc (§4.8).
func (idx *Index) PeriodForUTCInstant(unixTime int64) (period.CompiledPeriod, error) {
	p, err := idx.findByUnix(unixTime)
	if err != nil {
		return period.CompiledPeriod{}, err
	}
	if p.To.IsMax() {
		if tail := idx.openTail(); tail != nil {
			year := yearOfUnix(unixTime)
			extended, err := idx.Extender.Extend(idx.Zone, tail, year)
			if err != nil {
				return period.CompiledPeriod{}, err
			}
			return findByUnixIn(idx.Zone, extended, unixTime)
		}
	}
	return p, nil
}

func (idx *Index) findByUnix(unixTime int64) (period.CompiledPeriod, error) {
	return findByUnixIn(idx.Zone, idx.Periods, unixTime)
}

// findByUnixIn walks periods (newest first) looking for the one period
// whose [from, to) unix-time span contains unixTime. Once a match has been
// seen, the walk keeps going only long enough to confirm uniqueness: once
// an older period's `to` falls more than a day before unixTime, no further
// (even older) period can possibly match, so the walk stops rather than
// continuing all the way back to {min}.
func findByUnixIn(zone string, periods []period.CompiledPeriod, unixTime int64) (period.CompiledPeriod, error) {
	var match *period.CompiledPeriod
	matches := 0
	for i := range periods {
		p := &periods[i]
		if p.From.UnixAtMost(unixTime) && p.To.UnixAfter(unixTime) {
			match = p
			matches++
		}
		if match != nil && p.To.IsFinite() && unixTime-p.To.UnixTime > earlyExitMargin {
			break
		}
	}
	if matches != 1 {
		return period.CompiledPeriod{}, period.Structuralf(zone, "lookup_by_utc(%d) matched %d periods, want exactly 1", unixTime, matches)
	}
	return *match, nil
}

// WallResult is the trichotomous result of PeriodsForWallDatetime.
type WallResult struct {
	// Kind is one of "ok", "gap", or "ambiguous".
	Kind string

	// Ok holds the matched period when Kind == "ok".
	Ok period.CompiledPeriod

	// Gap holds the surrounding periods' offsets and the non-existent wall
	// interval when Kind == "gap".
	Before, After period.OffsetPair
	From, To      period.Boundary

	// Earlier/Later hold the two candidate regular periods when
	// Kind == "ambiguous".
	Earlier, Later period.CompiledPeriod
}

// PeriodsForWallDatetime implements lookup_by_wall (§4.9).
func (idx *Index) PeriodsForWallDatetime(wallGregorianSeconds int64) (WallResult, error) {
	res, err := idx.findByWall(idx.Periods, wallGregorianSeconds)
	if err != nil {
		return WallResult{}, err
	}
	if res.Kind == "ok" && res.Ok.To.IsMax() {
		if tail := idx.openTail(); tail != nil {
			year := yearOfWallGregorianSeconds(wallGregorianSeconds)
			extended, err := idx.Extender.Extend(idx.Zone, tail, year)
			if err != nil {
				return WallResult{}, err
			}
			return idx.findByWall(extended, wallGregorianSeconds)
		}
	}
	return res, nil
}

func (idx *Index) findByWall(periods []period.CompiledPeriod, g int64) (WallResult, error) {
	var matched []period.CompiledPeriod
	for _, p := range periods {
		if p.From.WallGregorianAtMost(g) && p.To.WallGregorianAfter(g) {
			matched = append(matched, p)
		}
	}

	switch len(matched) {
	case 1:
		p := matched[0]
		if p.Type == period.Gap {
			return WallResult{
				Kind:   "gap",
				Before: *p.PeriodBeforeGap,
				After:  *p.PeriodAfterGap,
				From:   p.From,
				To:     p.To,
			}, nil
		}
		return WallResult{Kind: "ok", Ok: p}, nil
	case 3:
		if matched[1].Type != period.Overlap {
			return WallResult{}, period.Structuralf(idx.Zone, "lookup_by_wall(%d) matched 3 periods but the middle one is not an overlap", g)
		}
		// periods is newest-first, so matched[0] is chronologically the
		// later of the two candidate regular periods and matched[2] the
		// earlier one.
		return WallResult{Kind: "ambiguous", Earlier: matched[2], Later: matched[0]}, nil
	default:
		return WallResult{}, period.Structuralf(idx.Zone, "lookup_by_wall(%d) matched %d periods, want 1 or 3", g, len(matched))
	}
}

// yearOfUnix and yearOfWallGregorianSeconds approximate a calendar year from
// an integer sort key without invoking CalendarOps, which is enough
// precision for picking which year to ask DynamicExtender to rematerialize
// (off-by-one near a year boundary just means the [year-1, year+1] window
// ExpandRules is called with still covers the query).
const secondsPerYear = 365.2425 * 24 * 60 * 60

func yearOfUnix(unixTime int64) int {
	return 1970 + int(float64(unixTime)/secondsPerYear)
}

func yearOfWallGregorianSeconds(g int64) int {
	return int(float64(g) / secondsPerYear)
}
