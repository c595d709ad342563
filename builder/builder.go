// Package builder implements PeriodBuilder: it walks the zone lines of a
// single zone in order and emits a contiguous sequence of regular, gap, and
// overlap periods, synthesizing the gap/overlap periods exactly where the
// local clock discontinues.
package builder

import (
	"sort"
	"strings"
	"time"

	"github.com/tzcore/tzperiod/calendarops"
	"github.com/tzcore/tzperiod/internal/tzexpand"
	"github.com/tzcore/tzperiod/period"
	"github.com/tzcore/tzperiod/ruleset"
	"github.com/tzcore/tzperiod/tzdata"
)

// HorizonYear bounds how far into the future a recurring rule group is
// expanded before its tail is cut over to the {max} sentinel and handed off
// to DynamicExtender. It has no bearing on correctness, only on how much
// work Build does up front for zones whose last zone line has no UNTIL.
//
// DynamicExtender overrides this per call (via Builder.Horizon) to whatever
// year it was asked to rematerialize, however far past HorizonYear that may
// be: the synthetic single-line zone it builds is open-ended regardless of
// HorizonYear's value, and nothing should ever clip that rebuild short of
// the very year it exists to cover.
const HorizonYear = 2037

// Builder turns a zone's lines into a raw period list. It holds no
// zone-specific state and is safe to reuse (and share) across zones.
type Builder struct {
	Calendar calendarops.Ops
	Resolver *ruleset.Resolver

	// Horizon overrides HorizonYear for this Builder's open-ended rule
	// groups. Zero means "use HorizonYear".
	Horizon int
}

// New returns a Builder using the default calendar arithmetic.
func New(resolver *ruleset.Resolver) *Builder {
	return &Builder{Calendar: calendarops.Default{}, Resolver: resolver}
}

// horizon returns the effective horizon year for this Builder.
func (b *Builder) horizon() int {
	if b.Horizon != 0 {
		return b.Horizon
	}
	return HorizonYear
}

// Build implements PeriodBuilder's public contract for a single zone named
// zoneName, whose continuation lines are lines, in file order.
func (b *Builder) Build(zoneName string, lines []tzdata.ZoneLine) ([]period.RawPeriod, error) {
	if len(lines) == 0 {
		return nil, period.Structuralf(zoneName, "zone has no zone lines")
	}

	var periods []period.RawPeriod
	var prev *period.RawPeriod
	for i := range lines {
		zl := lines[i]
		var err error
		prev, err = b.buildZoneLine(zoneName, zl, prev, &periods)
		if err != nil {
			return nil, err
		}
	}

	if len(periods) == 0 || !periods[0].From.IsMin() {
		return nil, period.Structuralf(zoneName, "first period does not start at :min")
	}
	if !periods[len(periods)-1].To.IsMax() {
		return nil, period.Structuralf(zoneName, "last period does not end at :max")
	}
	return periods, nil
}

// buildZoneLine emits the period(s) for one zone line, appending them (and
// any synthesized gap/overlap) to *periods, and returns the new prev_period
// for whichever zone line follows.
func (b *Builder) buildZoneLine(zoneName string, zl tzdata.ZoneLine, prev *period.RawPeriod, periods *[]period.RawPeriod) (*period.RawPeriod, error) {
	res := b.Resolver.Resolve(zl.Rules)
	if res.Fixed {
		return b.emitFixedOffset(zoneName, zl, res.FixedOffset, prev, periods)
	}
	return b.emitRuleGroup(zoneName, zl, res.Rules, prev, periods)
}

// emitFixedOffset handles a zone line whose RULES column is "-" or a
// literal SAVE-style offset: a single regular period for the whole line.
func (b *Builder) emitFixedOffset(zoneName string, zl tzdata.ZoneLine, localOffset time.Duration, prev *period.RawPeriod, periods *[]period.RawPeriod) (*period.RawPeriod, error) {
	stdOffset := zl.Offset
	to := b.zoneLineTo(zl, stdOffset, localOffset)
	abbr := formatAbbr(zl.Format, localOffset, "")
	return b.emitRegular(zoneName, periods, prev, to, stdOffset, localOffset, abbr, nil, nil)
}

// ruleInstance pairs one concrete, single-year occurrence of a rule with
// the original recurring rule line it was expanded from, so an
// open-ended (:max) tail can be handed to DynamicExtender later.
type ruleInstance struct {
	line tzdata.RuleLine
	raw  tzdata.RuleLine
}

// emitRuleGroup handles a zone line whose RULES column names a rule group:
// one regular period per applicable rule occurrence, chained so that
// PeriodBuilder's uniform prev_period-based synthesis naturally produces
// the gap/overlap period between every pair of consecutive DST transitions.
func (b *Builder) emitRuleGroup(zoneName string, zl tzdata.ZoneLine, rules []tzdata.RuleLine, prev *period.RawPeriod, periods *[]period.RawPeriod) (*period.RawPeriod, error) {
	minYear, maxYear, openEnded := b.ruleExpansionWindow(zl, prev)
	instances := expandNamedRules(rules, minYear-1, maxYear+1)
	instances = clipToZoneLine(instances, zl)

	if len(instances) == 0 {
		// No DST ever applies during this zone line: standard time throughout.
		return b.emitRegular(zoneName, periods, prev, b.zoneLineTo(zl, zl.Offset, 0), zl.Offset, 0, formatAbbr(zl.Format, 0, ""), nil, nil)
	}

	cur := prev
	var err error

	// Left pad: if this is the very first period the zone will ever have
	// (prev_period absent, so its From will be {min}) and the earliest rule
	// occurrence is not already standard time, a synthetic standard-time
	// lead-in period keeps history before the first recorded transition
	// from being misrepresented as DST.
	if cur == nil && instances[0].line.Save.Duration != 0 {
		first := instances[0].line
		civil := dateTimeOf(first.From, first.In, first.On, first.At.Duration)
		to := b.boundaryFromCivilAt(civil, modifierFor(first.At.Form), zl.Offset, 0)
		// The lead-in borrows the letter of the group's first standard-time
		// rule; it stays empty if the group has none.
		letter := ""
		for _, r := range rules {
			if r.Save.Duration == 0 {
				letter = r.Letter
				break
			}
		}
		cur, err = b.emitRegular(zoneName, periods, nil, to, zl.Offset, 0, formatAbbr(zl.Format, 0, letter), nil, nil)
		if err != nil {
			return nil, err
		}
	}

	// If this zone line is open-ended, the trailing one or two periods whose
	// originating rule recurs forever (TO = max) keep recurring forever too:
	// they carry raw_rule/zone_line, and the last of them has its To forced
	// to {max} rather than cut off at HorizonYear, so DynamicExtender has
	// what it needs to rematerialize them and lookup_by_utc's recurring-tail
	// check (§4.8) applies.
	openTailStart := len(instances)
	if openEnded {
		n := len(instances)
		switch {
		case n >= 2 && instances[n-1].raw.To == tzdata.MaxYear && instances[n-2].raw.To == tzdata.MaxYear:
			openTailStart = n - 2
		case n >= 1 && instances[n-1].raw.To == tzdata.MaxYear:
			openTailStart = n - 1
		}
	}

	for idx, inst := range instances {
		// Only the actual last instance's To ever becomes {max} (I2 allows
		// exactly one such period); instances[openTailStart:] still carry
		// raw_rule/zone_line even when their own To is finite, since
		// DynamicExtender needs both halves of an alternating recurring pair
		// to rematerialize a correct window going forward.
		var to period.Boundary
		switch {
		case idx == len(instances)-1 && idx >= openTailStart:
			to = period.Max()
		case idx+1 < len(instances):
			next := instances[idx+1].line
			civil := dateTimeOf(next.From, next.In, next.On, next.At.Duration)
			to = b.boundaryFromCivilAt(civil, modifierFor(next.At.Form), zl.Offset, inst.line.Save.Duration)
		default:
			to = b.zoneLineTo(zl, zl.Offset, inst.line.Save.Duration)
		}

		abbr := formatAbbr(zl.Format, inst.line.Save.Duration, inst.line.Letter)
		var rawRule, zoneLine any
		if idx >= openTailStart {
			rawRule, zoneLine = inst.raw, zl
		}
		cur, err = b.emitRegular(zoneName, periods, cur, to, zl.Offset, inst.line.Save.Duration, abbr, rawRule, zoneLine)
		if err != nil {
			return nil, err
		}
	}
	return cur, nil
}

// ruleExpansionWindow picks the calendar-year window emitRuleGroup expands
// rules over: from the year of the zone line's own start (or the earliest
// year any rule could plausibly apply, if the zone line starts at {min}) to
// the year of its UNTIL column, or b.horizon() if it is the open-ended last
// zone line.
func (b *Builder) ruleExpansionWindow(zl tzdata.ZoneLine, prev *period.RawPeriod) (min, max int, openEnded bool) {
	// 1900 is an arbitrary but generous floor: no IANA rule group predates
	// it, and it keeps a zone whose very first line names a rule group (no
	// prior zone line to anchor on) from expanding rules across millennia.
	min = 1900
	if prev != nil && prev.To.IsFinite() {
		min = prev.To.Wall.Year
	}
	if zl.Until.Defined {
		return min, zl.Until.Year, false
	}
	return min, b.horizon(), true
}

// expandNamedRules expands every rule line in rules into one ruleInstance
// per concrete year it is active in, within [minYear, maxYear], sorted
// chronologically. It keeps a pointer back to the original recurring rule
// line so a never-ending group can be identified later.
func expandNamedRules(rules []tzdata.RuleLine, minYear, maxYear int) []ruleInstance {
	window := tzexpand.Moment{Year: minYear}
	limit := tzexpand.Moment{Year: maxYear}

	var out []ruleInstance
	for _, raw := range rules {
		for _, line := range tzexpand.ExpandRules(window, limit, []tzdata.RuleLine{raw}) {
			out = append(out, ruleInstance{line: line, raw: raw})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].line.From != out[j].line.From {
			return out[i].line.From < out[j].line.From
		}
		if out[i].line.In != out[j].line.In {
			return out[i].line.In < out[j].line.In
		}
		return out[i].line.On.Num < out[j].line.On.Num
	})
	return out
}

// clipToZoneLine drops any rule occurrence whose calendar date falls on or
// after the zone line's UNTIL date (the builder's prev_period/gap-overlap
// machinery reconciles the exact instant). Only the end of the zone line is
// clipped here: occurrences before the zone line's start are not dropped,
// and are bounded only by the year window from ruleExpansionWindow.
func clipToZoneLine(instances []ruleInstance, zl tzdata.ZoneLine) []ruleInstance {
	if !zl.Until.Defined {
		return instances
	}
	u := tzexpand.ResolveUntil(zl.Until)
	limit := dateKey(u.Year, u.Month, u.Day.Num)
	out := instances[:0:0]
	for _, inst := range instances {
		if dateKey(int(inst.line.From), inst.line.In, inst.line.On.Num) < limit {
			out = append(out, inst)
		}
	}
	return out
}

func dateKey(year int, month time.Month, day int) int {
	return year*372 + int(month)*31 + day
}

func dateTimeOf(year tzdata.Year, month time.Month, day tzdata.Day, timeOfDay time.Duration) calendarops.CivilDateTime {
	return calendarops.CivilDateTime{
		Year: int(year), Month: int(month), Day: day.Num,
		Hour: int(timeOfDay / time.Hour), Minute: int((timeOfDay % time.Hour) / time.Minute), Second: int((timeOfDay % time.Minute) / time.Second),
	}
}

// emitRegular appends the regular period running from prev_period's end to
// `to`, synthesizing a gap or overlap before it first if the total offset
// changed, and returns a pointer to the newly appended regular period for
// use as the next call's prev_period.
func (b *Builder) emitRegular(zoneName string, periods *[]period.RawPeriod, prev *period.RawPeriod, to period.Boundary, stdOffset, localOffset time.Duration, abbr string, rawRule, zoneLine any) (*period.RawPeriod, error) {
	from, err := b.computeFrom(zoneName, prev, stdOffset, localOffset)
	if err != nil {
		return nil, err
	}
	if prev != nil {
		if err := b.synthesizeTransition(zoneName, periods, *prev, from, stdOffset, localOffset); err != nil {
			return nil, err
		}
	}

	if from.IsFinite() && to.IsFinite() && from.UnixTime == to.UnixTime {
		return nil, period.Structuralf(zoneName, "degenerate regular period: from and to both equal unix time %d", from.UnixTime)
	}

	rp := period.RawPeriod{
		Type:                   period.Regular,
		From:                   from,
		To:                     to,
		StdOffsetFromUTC:       stdOffset,
		LocalOffsetFromStdTime: localOffset,
		ZoneAbbr:               abbr,
	}
	rp.RawRule, rp.ZoneLine = rawRule, zoneLine
	*periods = append(*periods, rp)
	return &(*periods)[len(*periods)-1], nil
}

// computeFrom derives a new period's `from` boundary: {min} if there is no
// prev_period, otherwise prev_period's wall end shifted by the change in
// total offset and reconverted through the new offsets (§4.2's "Computing
// Q.from"), which by construction keeps the same UTC instant as
// prev_period.To.
func (b *Builder) computeFrom(zoneName string, prev *period.RawPeriod, stdOffset, localOffset time.Duration) (period.Boundary, error) {
	if prev == nil {
		return period.Min(), nil
	}
	if prev.To.IsMax() {
		return period.Boundary{}, period.Structuralf(zoneName, "a period was requested to start after an open-ended (:max) period")
	}
	diff := (stdOffset + localOffset) - (prev.StdOffsetFromUTC + prev.LocalOffsetFromStdTime)
	wall := b.Calendar.AddSeconds(prev.To.Wall, int64(diff/time.Second))
	return b.boundaryFromWall(wall, stdOffset, localOffset), nil
}

// synthesizeTransition inserts the gap or overlap period (if any) between
// prev and the period about to start at qFrom, per I3/I4.
func (b *Builder) synthesizeTransition(zoneName string, periods *[]period.RawPeriod, prev period.RawPeriod, qFrom period.Boundary, qStd, qLocal time.Duration) error {
	if prev.To.IsMax() {
		return period.Structuralf(zoneName, "cannot synthesize a transition after an open-ended (:max) period")
	}
	if prev.To.IsFinite() && qFrom.IsFinite() && prev.To.UnixTime != qFrom.UnixTime {
		return period.Structuralf(zoneName, "non-coincident UTC boundary around a transition (prev.to=%d, next.from=%d)", prev.To.UnixTime, qFrom.UnixTime)
	}

	pTotal := prev.StdOffsetFromUTC + prev.LocalOffsetFromStdTime
	qTotal := qStd + qLocal
	diff := qTotal - pTotal
	switch {
	case diff == 0:
		return nil
	case diff > 0:
		*periods = append(*periods, period.RawPeriod{
			Type: period.Gap, From: prev.To, To: qFrom,
			PeriodBeforeGap: &period.OffsetPair{StdOffset: prev.StdOffsetFromUTC, LocalOffset: prev.LocalOffsetFromStdTime},
			PeriodAfterGap:  &period.OffsetPair{StdOffset: qStd, LocalOffset: qLocal},
		})
	default:
		*periods = append(*periods, period.RawPeriod{Type: period.Overlap, From: qFrom, To: prev.To})
	}
	return nil
}

// zoneLineTo converts a zone line's UNTIL column (or {max}, if undefined)
// into a Boundary, using the offsets of the period that is ending there, per
// the tzdata spec's "interpreted using the rules in effect just before the
// transition."
func (b *Builder) zoneLineTo(zl tzdata.ZoneLine, stdOffset, localOffset time.Duration) period.Boundary {
	if !zl.Until.Defined {
		return period.Max()
	}
	u := tzexpand.ResolveUntil(zl.Until)
	civil := dateTimeOf(tzdata.Year(u.Year), u.Month, u.Day, u.Time.Duration)
	return b.boundaryFromCivilAt(civil, modifierFor(u.Time.Form), stdOffset, localOffset)
}

// boundaryFromCivilAt builds a full Boundary from a civil datetime known to
// be in modifier mod.
func (b *Builder) boundaryFromCivilAt(civil calendarops.CivilDateTime, mod calendarops.Modifier, stdOffset, localOffset time.Duration) period.Boundary {
	wall := b.Calendar.Convert(civil, mod, calendarops.Wall, stdOffset, localOffset)
	return b.boundaryFromWall(wall, stdOffset, localOffset)
}

// boundaryFromWall builds a full Boundary given its wall representation.
func (b *Builder) boundaryFromWall(wall calendarops.CivilDateTime, stdOffset, localOffset time.Duration) period.Boundary {
	standard := b.Calendar.Convert(wall, calendarops.Wall, calendarops.Standard, stdOffset, localOffset)
	utc := b.Calendar.Convert(wall, calendarops.Wall, calendarops.UTC, stdOffset, localOffset)
	return period.Boundary{
		Wall: wall, Standard: standard, UTC: utc,
		UnixTime:             b.Calendar.ToUnix(utc),
		WallGregorianSeconds: b.Calendar.GregorianSeconds(wall),
	}
}

// modifierFor maps a tzdata time-of-day form onto the calendarops modifier
// it is interpreted relative to. DaylightSavingTime, like WallClock, is a
// wall-clock reading (the "daylight saving" qualifier only matters for SAVE
// columns, not for AT/UNTIL times).
func modifierFor(f tzdata.TimeForm) calendarops.Modifier {
	switch f {
	case tzdata.UniversalTime:
		return calendarops.UTC
	case tzdata.StandardTime:
		return calendarops.Standard
	default:
		return calendarops.Wall
	}
}

// formatAbbr implements §4.6: resolve a zone line's FORMAT template, either
// by choosing a side of a std/dst split based on whether localOffset
// indicates DST is in effect, or by substituting the rule's letter into a
// %s placeholder.
func formatAbbr(format string, localOffset time.Duration, letter string) string {
	if std, dst, ok := strings.Cut(format, "/"); ok {
		if localOffset == 0 {
			return std
		}
		return dst
	}
	if letterIdx := strings.Index(format, "%s"); letterIdx >= 0 {
		return format[:letterIdx] + letter + format[letterIdx+2:]
	}
	return format
}
