// Package shrinker implements PeriodShrinker: the post-processing pass that
// turns PeriodBuilder's raw output into the external CompiledPeriod shape
// and reverses it for newest-to-oldest lookup.
package shrinker

import (
	"github.com/tzcore/tzperiod/calendarops"
	"github.com/tzcore/tzperiod/period"
)

// Shrink converts a builder's raw period list into the compiled shape
// PeriodIndex stores: fields are renamed to their external Calendar
// convention, redundant boundary representations are dropped, and the list
// is reversed so PeriodIndex can walk it newest-to-oldest.
func Shrink(raw []period.RawPeriod) []period.CompiledPeriod {
	out := make([]period.CompiledPeriod, len(raw))
	for i, rp := range raw {
		out[len(raw)-1-i] = shrinkOne(rp)
	}
	return out
}

func shrinkOne(rp period.RawPeriod) period.CompiledPeriod {
	cp := period.CompiledPeriod{
		Type:      rp.Type,
		From:      trimFrom(rp.From, rp.Type),
		To:        trimTo(rp.To, rp.Type),
		UTCOffset: rp.StdOffsetFromUTC,
		StdOffset: rp.LocalOffsetFromStdTime,
		ZoneAbbr:  rp.ZoneAbbr,
		RawRule:   rp.RawRule,
		ZoneLine:  rp.ZoneLine,
	}
	if rp.PeriodBeforeGap != nil {
		before := *rp.PeriodBeforeGap
		cp.PeriodBeforeGap = &before
	}
	if rp.PeriodAfterGap != nil {
		after := *rp.PeriodAfterGap
		cp.PeriodAfterGap = &after
	}
	return cp
}

// trimFrom drops the redundant standard/utc representations of a finite
// `from` boundary, keeping wall only for gap periods, which need it for
// ambiguity reporting.
func trimFrom(b period.Boundary, t period.Type) period.Boundary {
	if !b.IsFinite() {
		return b
	}
	b.Standard = calendarops.CivilDateTime{}
	b.UTC = calendarops.CivilDateTime{}
	if t != period.Gap {
		b.Wall = calendarops.CivilDateTime{}
	}
	return b
}

// trimTo is trimFrom's symmetric counterpart for `to`.
func trimTo(b period.Boundary, t period.Type) period.Boundary {
	if !b.IsFinite() {
		return b
	}
	b.Standard = calendarops.CivilDateTime{}
	b.UTC = calendarops.CivilDateTime{}
	if t != period.Gap {
		b.Wall = calendarops.CivilDateTime{}
	}
	return b
}
