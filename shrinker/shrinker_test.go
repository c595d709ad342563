package shrinker

import (
	"testing"
	"time"

	"github.com/tzcore/tzperiod/calendarops"
	"github.com/tzcore/tzperiod/period"
)

func TestShrink_RenamesOffsetsAndReverses(t *testing.T) {
	raw := []period.RawPeriod{
		{Type: period.Regular, From: period.Min(), To: period.Boundary{UnixTime: 100}, StdOffsetFromUTC: time.Hour, LocalOffsetFromStdTime: 0, ZoneAbbr: "STD"},
		{Type: period.Regular, From: period.Boundary{UnixTime: 100}, To: period.Max(), StdOffsetFromUTC: time.Hour, LocalOffsetFromStdTime: time.Hour, ZoneAbbr: "DST"},
	}

	got := Shrink(raw)
	if len(got) != 2 {
		t.Fatalf("len(got) = %d, want 2", len(got))
	}

	// Reversed: newest (originally last) period comes first.
	if got[0].ZoneAbbr != "DST" || got[1].ZoneAbbr != "STD" {
		t.Errorf("Shrink did not reverse the list: got[0]=%q, got[1]=%q", got[0].ZoneAbbr, got[1].ZoneAbbr)
	}
	if got[0].UTCOffset != time.Hour || got[0].StdOffset != time.Hour {
		t.Errorf("offsets not renamed correctly: %+v", got[0])
	}
	if got[0].TotalOffset() != 2*time.Hour {
		t.Errorf("TotalOffset() = %v, want 2h", got[0].TotalOffset())
	}
}

func TestShrink_CopiesGapOffsetPairsByValue(t *testing.T) {
	raw := []period.RawPeriod{
		{
			Type: period.Gap,
			From: period.Boundary{UnixTime: 100}, To: period.Boundary{UnixTime: 100},
			PeriodBeforeGap: &period.OffsetPair{StdOffset: 0},
			PeriodAfterGap:  &period.OffsetPair{StdOffset: time.Hour},
		},
	}
	got := Shrink(raw)
	before, after := raw[0].PeriodBeforeGap, raw[0].PeriodAfterGap
	before.StdOffset = 99 * time.Hour
	after.StdOffset = 99 * time.Hour

	if got[0].PeriodBeforeGap.StdOffset == 99*time.Hour || got[0].PeriodAfterGap.StdOffset == 99*time.Hour {
		t.Error("Shrink aliased the gap offset pairs instead of copying them by value")
	}
}

func TestTrimFromTo_DropsStandardAndUTC_KeepsWallOnlyForGap(t *testing.T) {
	civil := calendarops.CivilDateTime{Year: 2000, Month: 1, Day: 1}
	finite := period.Boundary{Wall: civil, Standard: civil, UTC: civil, UnixTime: 1000}

	regTrimmed := trimFrom(finite, period.Regular)
	if regTrimmed.Wall != (calendarops.CivilDateTime{}) {
		t.Error("trimFrom should drop Wall for a regular period")
	}
	if regTrimmed.Standard != (calendarops.CivilDateTime{}) || regTrimmed.UTC != (calendarops.CivilDateTime{}) {
		t.Error("trimFrom should always drop Standard and UTC")
	}
	if regTrimmed.UnixTime != 1000 {
		t.Error("trimFrom should preserve UnixTime")
	}

	gapTrimmed := trimTo(finite, period.Gap)
	if gapTrimmed.Wall != civil {
		t.Error("trimTo should keep Wall for a gap period")
	}
	if gapTrimmed.Standard != (calendarops.CivilDateTime{}) || gapTrimmed.UTC != (calendarops.CivilDateTime{}) {
		t.Error("trimTo should always drop Standard and UTC")
	}
}

func TestTrimFromTo_SentinelsUnchanged(t *testing.T) {
	if trimFrom(period.Min(), period.Regular) != period.Min() {
		t.Error("trimFrom should not touch a {min} sentinel")
	}
	if trimTo(period.Max(), period.Regular) != period.Max() {
		t.Error("trimTo should not touch a {max} sentinel")
	}
}
