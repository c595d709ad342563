// Package period defines the data model produced by the period builder: the
// tagged Boundary sentinel ({min}/{max}/finite), and the two-stage
// RawPeriod/CompiledPeriod pair that package shrinker converts between.
package period

import (
	"errors"
	"fmt"
	"time"

	"github.com/tzcore/tzperiod/calendarops"
)

// Sentinel tags whether a Boundary is a concrete instant or one of the two
// open-ended markers.
type Sentinel int

const (
	// SentinelNone means the Boundary carries a concrete instant.
	SentinelNone Sentinel = iota
	// SentinelMin means the indefinite past.
	SentinelMin
	// SentinelMax means the open future.
	SentinelMax
)

// Boundary represents a single instant in three civil representations plus
// the two integer sorts periods are indexed by, or one of the {min, max}
// sentinels. Non-sentinel boundaries always carry all five fields.
type Boundary struct {
	Sentinel Sentinel

	Wall     calendarops.CivilDateTime
	Standard calendarops.CivilDateTime
	UTC      calendarops.CivilDateTime

	UnixTime             int64
	WallGregorianSeconds int64
}

// Min is the {min} sentinel boundary (the indefinite past).
func Min() Boundary { return Boundary{Sentinel: SentinelMin} }

// Max is the {max} sentinel boundary (the open future).
func Max() Boundary { return Boundary{Sentinel: SentinelMax} }

// IsMin reports whether b is the {min} sentinel.
func (b Boundary) IsMin() bool { return b.Sentinel == SentinelMin }

// IsMax reports whether b is the {max} sentinel.
func (b Boundary) IsMax() bool { return b.Sentinel == SentinelMax }

// IsFinite reports whether b carries a concrete instant.
func (b Boundary) IsFinite() bool { return b.Sentinel == SentinelNone }

// UnixAtMost reports whether b, treating {min} as -infinity and {max} as
// +infinity, is at or before t.
func (b Boundary) UnixAtMost(t int64) bool {
	switch b.Sentinel {
	case SentinelMin:
		return true
	case SentinelMax:
		return false
	default:
		return b.UnixTime <= t
	}
}

// UnixAfter reports whether b, treating {min} as -infinity and {max} as
// +infinity, is strictly after t.
func (b Boundary) UnixAfter(t int64) bool {
	switch b.Sentinel {
	case SentinelMin:
		return false
	case SentinelMax:
		return true
	default:
		return b.UnixTime > t
	}
}

// WallGregorianAtMost is the wall-clock-axis analogue of UnixAtMost.
func (b Boundary) WallGregorianAtMost(g int64) bool {
	switch b.Sentinel {
	case SentinelMin:
		return true
	case SentinelMax:
		return false
	default:
		return b.WallGregorianSeconds <= g
	}
}

// WallGregorianAfter is the wall-clock-axis analogue of UnixAfter.
func (b Boundary) WallGregorianAfter(g int64) bool {
	switch b.Sentinel {
	case SentinelMin:
		return false
	case SentinelMax:
		return true
	default:
		return b.WallGregorianSeconds > g
	}
}

// UnixEqual reports whether two finite boundaries denote the same instant.
// Sentinels are never considered equal to anything, including each other,
// since {min} == {min} carries no useful meaning as an instant.
func (b Boundary) UnixEqual(o Boundary) bool {
	return b.Sentinel == SentinelNone && o.Sentinel == SentinelNone && b.UnixTime == o.UnixTime
}

// Type discriminates the three period variants.
type Type int

const (
	// Regular is an ordinary interval of uniform local-clock behavior.
	Regular Type = iota
	// Gap is a synthesized wall-clock interval that does not exist because
	// the clock jumped forward.
	Gap
	// Overlap is a synthesized wall-clock interval that occurs twice because
	// the clock jumped back.
	Overlap
)

func (t Type) String() string {
	switch t {
	case Regular:
		return "regular"
	case Gap:
		return "gap"
	case Overlap:
		return "overlap"
	default:
		return "<invalid period type>"
	}
}

// OffsetPair is the projection of a regular period carried by gap periods so
// callers can explain the jump without a pointer back into the period list.
type OffsetPair struct {
	StdOffset   time.Duration // offset from UTC to standard time
	LocalOffset time.Duration // DST adjustment on top of standard time; 0 = standard time
}

// TotalOffset is the offset from UTC to the local wall clock.
func (p OffsetPair) TotalOffset() time.Duration { return p.StdOffset + p.LocalOffset }

// RawPeriod is the shape PeriodBuilder emits, before PeriodShrinker renames
// and prunes fields for external consumption.
type RawPeriod struct {
	Type Type
	From Boundary
	To   Boundary

	// StdOffsetFromUTC is the zone line's STDOFF: the offset to UTC ignoring
	// any DST adjustment.
	StdOffsetFromUTC time.Duration
	// LocalOffsetFromStdTime is the DST adjustment on top of standard time;
	// 0 means standard time is in effect.
	LocalOffsetFromStdTime time.Duration
	ZoneAbbr               string

	// PeriodBeforeGap/PeriodAfterGap are set only when Type == Gap.
	PeriodBeforeGap *OffsetPair
	PeriodAfterGap  *OffsetPair

	// RawRule/ZoneLine are set only on the trailing one or two regular
	// periods of an open-ended zone line whose rules recur forever (the last
	// of them has To {max}), so DynamicExtender can rematerialize them for a
	// concrete year. The concrete types live in package tzdata; this package
	// stores them as opaque values and does not import tzdata.
	RawRule  any
	ZoneLine any
}

// CompiledPeriod is the external shape produced by PeriodShrinker.
type CompiledPeriod struct {
	Type Type
	From Boundary
	To   Boundary

	// UTCOffset is the zone's offset from UTC ignoring DST (renamed from
	// RawPeriod.StdOffsetFromUTC to match the external Calendar convention).
	UTCOffset time.Duration
	// StdOffset is the DST adjustment on top of standard time; 0 means
	// standard time (renamed from RawPeriod.LocalOffsetFromStdTime).
	StdOffset time.Duration
	ZoneAbbr  string

	PeriodBeforeGap *OffsetPair
	PeriodAfterGap  *OffsetPair

	RawRule  any
	ZoneLine any
}

// TotalOffset is the offset from UTC to this period's local wall clock.
func (p CompiledPeriod) TotalOffset() time.Duration { return p.UTCOffset + p.StdOffset }

// ErrZoneNotFound is the sentinel error for a zone name with no compiled
// periods. No function in this module returns it: an Index is built per
// zone, and tzc.Compile returns a map keyed by zone name.
var ErrZoneNotFound = errors.New("period: zone not found")

// StructuralError reports a violated invariant: a corrupt input database or
// a programming error in the builder/lookup layer. It is never retried.
type StructuralError struct {
	Zone string
	Msg  string
}

func (e *StructuralError) Error() string {
	if e.Zone == "" {
		return fmt.Sprintf("structural error: %s", e.Msg)
	}
	return fmt.Sprintf("structural error in zone %q: %s", e.Zone, e.Msg)
}

// Structuralf builds a *StructuralError with a formatted message.
func Structuralf(zone, format string, args ...any) *StructuralError {
	return &StructuralError{Zone: zone, Msg: fmt.Sprintf(format, args...)}
}
