// Package calendarops provides the small set of proleptic-Gregorian civil
// datetime primitives the period builder needs: adding a duration to a
// civil datetime, converting a datetime between the wall/standard/utc
// modifiers given a zone's offsets, and the two integer sorts (unix time and
// gregorian-since-year-zero seconds) periods are indexed by.
//
// It is kept separate from package period/builder because spec.md describes
// CalendarOps as a small interface assumed to be supplied by the
// environment; Default is this repository's own implementation of that
// interface, used unless a caller supplies another one.
package calendarops

import (
	"time"

	"github.com/tzcore/tzperiod/internal/unixtime"
)

// Modifier tags how a CivilDateTime is to be interpreted with respect to a
// zone's offsets.
type Modifier int

const (
	// Wall is local observed (clock-on-the-wall) time.
	Wall Modifier = iota
	// Standard is local standard time, ignoring any DST adjustment.
	Standard
	// UTC is universal time.
	UTC
)

func (m Modifier) String() string {
	switch m {
	case Wall:
		return "wall"
	case Standard:
		return "standard"
	case UTC:
		return "utc"
	default:
		return "<invalid modifier>"
	}
}

// CivilDateTime is a date and time of day with no associated offset or
// location, interpreted in the proleptic Gregorian calendar.
type CivilDateTime struct {
	Year, Month, Day, Hour, Minute, Second int
}

// Ops is the set of calendar primitives the period builder depends on.
// Implementations must agree on the relationship
//
//	wall = standard + localOffset = utc + stdOffset + localOffset
//
// where stdOffset is the zone's offset from UTC ignoring DST and localOffset
// is the DST adjustment on top of standard time (0 when standard time is in
// effect).
type Ops interface {
	// AddSeconds returns t shifted by seconds (which may be negative),
	// with no offset interpretation applied.
	AddSeconds(t CivilDateTime, seconds int64) CivilDateTime

	// Convert reinterprets t, given as modifier `from`, as the equivalent
	// datetime under modifier `to`, using the supplied standard/local
	// offsets to relate the three modifiers.
	Convert(t CivilDateTime, from, to Modifier, stdOffset, localOffset time.Duration) CivilDateTime

	// ToUnix returns the number of seconds between the Unix epoch
	// (1970-01-01 00:00:00 UTC) and t, which must already be a UTC civil
	// datetime.
	ToUnix(utc CivilDateTime) int64

	// GregorianSeconds returns the number of seconds between
	// 0000-01-01 00:00:00 and t.
	GregorianSeconds(wall CivilDateTime) int64
}

// Default is the CalendarOps implementation used throughout this module
// unless a caller supplies another one. It is stateless and safe for
// concurrent use.
type Default struct{}

var _ Ops = Default{}

// gregorianEpochUnix is the Unix time of 0000-01-01 00:00:00, i.e. the
// constant offset between the two integer sorts a BoundaryInstant carries.
var gregorianEpochUnix = unixtime.FromDateTime(0, 1, 1, 0, 0, 0)

// AddSeconds implements Ops.
func (Default) AddSeconds(t CivilDateTime, seconds int64) CivilDateTime {
	unix := unixtime.FromDateTime(t.Year, t.Month, t.Day, t.Hour, t.Minute, t.Second) + seconds
	return civilFromUnix(unix)
}

// Convert implements Ops.
//
// t is first reduced to a UTC unix time by undoing whatever offset `from`
// implies, then re-expressed through the offset `to` implies.
func (Default) Convert(t CivilDateTime, from, to Modifier, stdOffset, localOffset time.Duration) CivilDateTime {
	unix := unixtime.FromDateTime(t.Year, t.Month, t.Day, t.Hour, t.Minute, t.Second)
	utcUnix := unix - modifierOffset(from, stdOffset, localOffset)
	targetUnix := utcUnix + modifierOffset(to, stdOffset, localOffset)
	return civilFromUnix(targetUnix)
}

// modifierOffset returns the number of seconds that must be added to a UTC
// unix time to obtain the given modifier's representation of the same
// instant.
func modifierOffset(m Modifier, stdOffset, localOffset time.Duration) int64 {
	switch m {
	case UTC:
		return 0
	case Standard:
		return int64(stdOffset / time.Second)
	case Wall:
		return int64((stdOffset + localOffset) / time.Second)
	default:
		panic("calendarops: invalid modifier")
	}
}

// ToUnix implements Ops.
func (Default) ToUnix(utc CivilDateTime) int64 {
	return unixtime.FromDateTime(utc.Year, utc.Month, utc.Day, utc.Hour, utc.Minute, utc.Second)
}

// GregorianSeconds implements Ops.
func (Default) GregorianSeconds(wall CivilDateTime) int64 {
	unix := unixtime.FromDateTime(wall.Year, wall.Month, wall.Day, wall.Hour, wall.Minute, wall.Second)
	return unix - gregorianEpochUnix
}

// civilFromUnix is the inverse of unixtime.FromDateTime. The teacher's
// internal/unixtime package only ever needed the forward direction (it fed
// TZif transition instants, which are unix timestamps by construction); the
// period model here also needs the reverse, and reimplementing the Gregorian
// calendar breakdown by hand would just recreate what time.Unix(...).UTC()
// already does correctly, so it is used directly instead.
func civilFromUnix(unix int64) CivilDateTime {
	t := time.Unix(unix, 0).UTC()
	return CivilDateTime{
		Year:   t.Year(),
		Month:  int(t.Month()),
		Day:    t.Day(),
		Hour:   t.Hour(),
		Minute: t.Minute(),
		Second: t.Second(),
	}
}
