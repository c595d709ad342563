package tzindex

import (
	"testing"
	"time"

	"github.com/tzcore/tzperiod/period"
	"github.com/tzcore/tzperiod/tzdata"
)

// newestFirst builds an Index from periods given oldest-first, for
// readability, reversing them into the newest-first order Index.Periods
// expects.
func newestFirst(periods ...period.CompiledPeriod) []period.CompiledPeriod {
	out := make([]period.CompiledPeriod, len(periods))
	for i, p := range periods {
		out[len(periods)-1-i] = p
	}
	return out
}

func TestPeriodForUTCInstant_Totality(t *testing.T) {
	p0 := period.CompiledPeriod{Type: period.Regular, From: period.Min(), To: period.Boundary{UnixTime: 100}, UTCOffset: 0}
	gap := period.CompiledPeriod{
		Type: period.Gap, From: period.Boundary{UnixTime: 100}, To: period.Boundary{UnixTime: 103600},
		PeriodBeforeGap: &period.OffsetPair{StdOffset: 0},
		PeriodAfterGap:  &period.OffsetPair{StdOffset: time.Hour},
	}
	p1 := period.CompiledPeriod{Type: period.Regular, From: period.Boundary{UnixTime: 103600}, To: period.Max(), UTCOffset: time.Hour}

	idx := New("Test/Zone", newestFirst(p0, gap, p1))

	for _, tc := range []struct {
		unix int64
		want period.Type
	}{
		{-1_000_000, period.Regular}, // far past, inside p0
		{50, period.Regular},
		{101000, period.Gap},
		{200_000_000, period.Regular}, // far future, inside p1
	} {
		got, err := idx.PeriodForUTCInstant(tc.unix)
		if err != nil {
			t.Fatalf("PeriodForUTCInstant(%d): %v", tc.unix, err)
		}
		if got.Type != tc.want {
			t.Errorf("PeriodForUTCInstant(%d).Type = %v, want %v", tc.unix, got.Type, tc.want)
		}
	}
}

func TestPeriodForUTCInstant_NoMatchIsStructuralError(t *testing.T) {
	// A period list with a hole in it (not contiguous) should surface as a
	// structural error rather than silently matching the wrong thing.
	p0 := period.CompiledPeriod{Type: period.Regular, From: period.Min(), To: period.Boundary{UnixTime: 100}}
	p1 := period.CompiledPeriod{Type: period.Regular, From: period.Boundary{UnixTime: 200}, To: period.Max()}
	idx := New("Test/Zone", newestFirst(p0, p1))

	if _, err := idx.PeriodForUTCInstant(150); err == nil {
		t.Fatal("PeriodForUTCInstant over a hole in the timeline: want error, got nil")
	}
}

func TestPeriodsForWallDatetime_Ok(t *testing.T) {
	p0 := period.CompiledPeriod{Type: period.Regular, From: period.Min(), To: period.Boundary{WallGregorianSeconds: 1000}}
	p1 := period.CompiledPeriod{Type: period.Regular, From: period.Boundary{WallGregorianSeconds: 1000}, To: period.Max()}
	idx := New("Test/Zone", newestFirst(p0, p1))

	res, err := idx.PeriodsForWallDatetime(500)
	if err != nil {
		t.Fatalf("PeriodsForWallDatetime: %v", err)
	}
	if res.Kind != "ok" {
		t.Fatalf("Kind = %q, want ok", res.Kind)
	}
}

func TestPeriodsForWallDatetime_Gap(t *testing.T) {
	p0 := period.CompiledPeriod{Type: period.Regular, From: period.Min(), To: period.Boundary{WallGregorianSeconds: 1000}}
	gap := period.CompiledPeriod{
		Type: period.Gap, From: period.Boundary{WallGregorianSeconds: 1000}, To: period.Boundary{WallGregorianSeconds: 1100},
		PeriodBeforeGap: &period.OffsetPair{StdOffset: 0},
		PeriodAfterGap:  &period.OffsetPair{StdOffset: time.Hour},
	}
	p1 := period.CompiledPeriod{Type: period.Regular, From: period.Boundary{WallGregorianSeconds: 1100}, To: period.Max()}
	idx := New("Test/Zone", newestFirst(p0, gap, p1))

	res, err := idx.PeriodsForWallDatetime(1050)
	if err != nil {
		t.Fatalf("PeriodsForWallDatetime: %v", err)
	}
	if res.Kind != "gap" {
		t.Fatalf("Kind = %q, want gap", res.Kind)
	}
	if res.Before.StdOffset != 0 || res.After.StdOffset != time.Hour {
		t.Errorf("Before/After = %+v / %+v, want 0 / 1h", res.Before, res.After)
	}
}

func TestPeriodsForWallDatetime_Ambiguous(t *testing.T) {
	earlier := period.CompiledPeriod{
		Type: period.Regular, From: period.Min(), To: period.Boundary{UnixTime: 1000, WallGregorianSeconds: 1100},
		ZoneAbbr: "EARLIER",
	}
	overlap := period.CompiledPeriod{
		Type: period.Overlap, From: period.Boundary{UnixTime: 900, WallGregorianSeconds: 1000}, To: period.Boundary{UnixTime: 1000, WallGregorianSeconds: 1100},
	}
	later := period.CompiledPeriod{
		Type: period.Regular, From: period.Boundary{UnixTime: 1000, WallGregorianSeconds: 1000}, To: period.Max(),
		ZoneAbbr: "LATER",
	}
	idx := New("Test/Zone", newestFirst(earlier, overlap, later))

	res, err := idx.PeriodsForWallDatetime(1050)
	if err != nil {
		t.Fatalf("PeriodsForWallDatetime: %v", err)
	}
	if res.Kind != "ambiguous" {
		t.Fatalf("Kind = %q, want ambiguous", res.Kind)
	}
	if res.Earlier.ZoneAbbr != "EARLIER" || res.Later.ZoneAbbr != "LATER" {
		t.Errorf("Earlier/Later swapped: Earlier=%q, Later=%q", res.Earlier.ZoneAbbr, res.Later.ZoneAbbr)
	}
}

// TestPeriodForUTCInstant_DynamicExtension builds an Index whose two
// chronologically last periods both carry a RawRule/ZoneLine pair, the last
// of them ending at {max}, as PeriodBuilder attaches to a zone's open-ended
// recurring tail, and checks a query that lands in that tail is served via
// DynamicExtender rather than matching the overly broad {max}-ended period
// directly.
func TestPeriodForUTCInstant_DynamicExtension(t *testing.T) {
	zl := tzdata.ZoneLine{Name: "Test/EU", Offset: time.Hour, Rules: tzdata.ZoneRules{Form: tzdata.ZoneRulesName, Name: "EU"}, Format: "CE%sT"}
	springForward := tzdata.RuleLine{
		Name: "EU", From: 1981, To: tzdata.MaxYear, In: time.March,
		On:     tzdata.Day{Form: tzdata.DayFormLast, Day: time.Sunday},
		At:     tzdata.Time{Duration: time.Hour, Form: tzdata.UniversalTime},
		Save:   tzdata.Time{Duration: time.Hour},
		Letter: "S",
	}
	fallBack := tzdata.RuleLine{
		Name: "EU", From: 1996, To: tzdata.MaxYear, In: time.October,
		On:     tzdata.Day{Form: tzdata.DayFormLast, Day: time.Sunday},
		At:     tzdata.Time{Duration: time.Hour, Form: tzdata.UniversalTime},
		Save:   tzdata.Time{Duration: 0},
		Letter: "",
	}

	// A single finite regular period stands in for the zone's whole earlier
	// history; only the tail mechanics under test matter here. Per I1/I2,
	// only the actual last period's To is {max} — the one before it still
	// carries RawRule/ZoneLine so DynamicExtender sees both alternating
	// rules, matching what PeriodBuilder itself produces.
	history := period.CompiledPeriod{Type: period.Regular, From: period.Min(), To: period.Boundary{UnixTime: 0}}
	dstTail := period.CompiledPeriod{Type: period.Regular, From: period.Boundary{UnixTime: 0}, To: period.Boundary{UnixTime: 1000}, RawRule: springForward, ZoneLine: zl}
	stdTail := period.CompiledPeriod{Type: period.Regular, From: period.Boundary{UnixTime: 1000}, To: period.Max(), RawRule: fallBack, ZoneLine: zl}

	idx := New("Test/EU", newestFirst(history, dstTail, stdTail))

	// A query far in the future (year ~2030) must be served via
	// DynamicExtender rather than returned as the raw {max}-ended period.
	future := int64(60 * 60 * 24 * 365 * 60) // roughly year 2030
	got, err := idx.PeriodForUTCInstant(future)
	if err != nil {
		t.Fatalf("PeriodForUTCInstant: %v", err)
	}
	if got.To.IsMax() {
		t.Error("a query in the recurring tail should resolve to a concrete rematerialized period, not the raw {max}-ended one")
	}
}
