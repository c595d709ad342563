// Package tzexpand resolves the symbolic day/month forms used in tzdata rule
// and zone lines (e.g. "lastSun", "Sun>=8") into concrete calendar dates, and
// expands a recurring rule line into one concrete rule line per year it is
// active in.
package tzexpand

import (
	"sort"
	"time"

	"github.com/tzcore/tzperiod/tzdata"
)

// DayOfMonth resolves the ON field of a rule or UNTIL line (d) within the
// given year and month to a concrete day of month. The "Day<=" and "Day>="
// forms may land in a neighboring month or year; the returned year/month
// reflect that.
func DayOfMonth(year int, month time.Month, d tzdata.Day) (y int, m time.Month, day int) {
	switch d.Form {
	case tzdata.DayFormDayNum:
		return year, month, d.Num
	case tzdata.DayFormLast:
		return year, month, lastWeekdayOfMonth(year, int(month), int(d.Day))
	case tzdata.DayFormAfter:
		y, m, day := nextWeekday(year, int(month), d.Num, int(d.Day))
		return y, time.Month(m), day
	case tzdata.DayFormBefore:
		y, m, day := lastWeekday(year, int(month), d.Num, int(d.Day))
		return y, time.Month(m), day
	}
	// Unreachable for well-formed input produced by tzdata.Parse.
	return year, month, d.Num
}

// ResolveUntil fills in the parts of a zone line's UNTIL column that were
// left unspecified, defaulting each to its earliest possible value, exactly
// as the tzdata format spec describes: "trailing fields can be omitted, and
// default to the earliest possible value for the missing fields." The
// returned Until always has all parts set and its Day always in DayFormDayNum
// form, ready to feed into CalendarOps.
func ResolveUntil(u tzdata.Until) tzdata.Until {
	if !u.Defined {
		return u
	}

	if !u.Parts.Has(tzdata.UntilMonth) {
		u.Month = time.January
	}
	if u.Parts.Has(tzdata.UntilDay) {
		if u.Day.Form != tzdata.DayFormDayNum {
			var num int
			u.Year, u.Month, num = DayOfMonth(u.Year, u.Month, u.Day)
			u.Day = tzdata.Day{Form: tzdata.DayFormDayNum, Num: num}
		}
	} else {
		u.Day = tzdata.Day{Form: tzdata.DayFormDayNum, Num: 1}
	}
	if !u.Parts.Has(tzdata.UntilTime) {
		u.Time = tzdata.Time{Duration: 0, Form: tzdata.WallClock}
	}
	u.Parts = tzdata.UntilTime
	return u
}

// Moment is a half-expanded limit: a year, with an optional month and day
// narrowing it further. The zero value for Month/Day means "unbounded within
// the year".
type Moment struct {
	Year  int
	Month time.Month
	Day   int
}

// ExpandRules expands every rule in r into one concrete-year rule line per
// occurrence between min and max (inclusive), sorted chronologically by
// effective year, month, and day of month. Rules with From/To of
// tzdata.MinYear/tzdata.MaxYear are clipped to min.Year/max.Year first.
func ExpandRules(min, max Moment, r []tzdata.RuleLine) []tzdata.RuleLine {
	var out []tzdata.RuleLine
	for _, rule := range r {
		out = append(out, expandRule(min, max, rule)...)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].From != out[j].From {
			return out[i].From < out[j].From
		}
		if out[i].In != out[j].In {
			return out[i].In < out[j].In
		}
		return out[i].On.Num < out[j].On.Num
	})
	return out
}

// expandRule expands a single rule line into one rule line per year it is
// active in, restricted to [min, max].
func expandRule(min, max Moment, rl tzdata.RuleLine) []tzdata.RuleLine {
	from, to := rl.From, rl.To
	if from == tzdata.MinYear {
		from = tzdata.Year(min.Year)
	}
	if to == tzdata.MaxYear {
		to = tzdata.Year(max.Year)
	}

	var out []tzdata.RuleLine
	for year := from; year <= to; year++ {
		y, m, d := DayOfMonth(int(year), rl.In, rl.On)

		if y < min.Year || y > max.Year {
			continue
		}
		if y == max.Year && afterLimit(m, d, max.Month, max.Day) {
			continue
		}
		if y == min.Year && beforeLimit(m, d, min.Month, min.Day) {
			continue
		}

		out = append(out, tzdata.RuleLine{
			Name:   rl.Name,
			From:   tzdata.Year(y),
			To:     tzdata.Year(y),
			In:     m,
			On:     tzdata.Day{Form: tzdata.DayFormDayNum, Num: d},
			At:     rl.At,
			Save:   rl.Save,
			Letter: rl.Letter,
		})
	}
	return out
}

// afterLimit reports whether month/day falls strictly after limitMonth/limitDay.
// A zero limitMonth means "no month limit" (the limit is just the year).
func afterLimit(month time.Month, day int, limitMonth time.Month, limitDay int) bool {
	if limitMonth == 0 {
		return false
	}
	if month != limitMonth {
		return month > limitMonth
	}
	if limitDay == 0 {
		return false
	}
	return day > limitDay
}

// beforeLimit reports whether month/day falls strictly before limitMonth/limitDay.
func beforeLimit(month time.Month, day int, limitMonth time.Month, limitDay int) bool {
	if limitMonth == 0 {
		return false
	}
	if month != limitMonth {
		return month < limitMonth
	}
	if limitDay == 0 {
		return false
	}
	return day < limitDay
}
