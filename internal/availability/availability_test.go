package availability

import (
	"testing"
	"time"
)

func day(t *testing.T) time.Time {
	t.Helper()
	return time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC) // a Monday
}

func at(d time.Time, hour, min int) time.Time {
	return d.Add(time.Duration(hour)*time.Hour + time.Duration(min)*time.Minute)
}

func TestComputeSlots_ThirtyMinuteCadence(t *testing.T) {
	d := day(t)
	windows := []Window{{Start: at(d, 8, 0), End: at(d, 10, 0)}}

	slots := ComputeSlots(windows, 60*time.Minute, nil, nil, d)
	if len(slots) != 3 {
		t.Fatalf("expected 3 slots, got %d", len(slots))
	}

	want := []time.Time{at(d, 8, 0), at(d, 8, 30), at(d, 9, 0)}
	for i, s := range slots {
		if !s.Start.Equal(want[i]) {
			t.Fatalf("slot %d: expected start %s, got %s", i, want[i].Format("15:04"), s.Start.Format("15:04"))
		}
		if got := s.End.Sub(s.Start); got != 60*time.Minute {
			t.Fatalf("slot %d: expected 60m length, got %s", i, got)
		}
	}
}

func TestComputeSlots_BlockedIntervalRemovesOverlapping(t *testing.T) {
	d := day(t)
	windows := []Window{{Start: at(d, 8, 0), End: at(d, 10, 0)}}
	blocked := []Busy{{Start: at(d, 9, 0), End: at(d, 9, 30)}}

	slots := ComputeSlots(windows, 60*time.Minute, blocked, nil, d)

	// 08:30-09:30 and 09:00-10:00 overlap the block; 08:00-09:00 only
	// touches its start and survives.
	if len(slots) != 1 {
		t.Fatalf("expected 1 slot, got %d", len(slots))
	}
	if !slots[0].Start.Equal(at(d, 8, 0)) {
		t.Fatalf("expected 08:00 slot, got %s", slots[0].Start.Format("15:04"))
	}
}

func TestComputeSlots_BackToBackWithBookingAllowed(t *testing.T) {
	d := day(t)
	windows := []Window{{Start: at(d, 8, 0), End: at(d, 11, 0)}}
	booked := []Busy{{Start: at(d, 9, 0), End: at(d, 10, 0)}}

	slots := ComputeSlots(windows, 60*time.Minute, nil, booked, d)

	// 08:00-09:00 ends exactly when the booking starts and 10:00-11:00
	// starts exactly when it ends: both must be offered.
	found := map[string]bool{}
	for _, s := range slots {
		found[s.Start.Format("15:04")] = true
		if Overlaps(s.Start, s.End, booked[0].Start, booked[0].End) {
			t.Fatalf("slot %s overlaps the booking", s.Start.Format("15:04"))
		}
	}
	if !found["08:00"] || !found["10:00"] {
		t.Fatalf("expected back-to-back slots 08:00 and 10:00, got %v", found)
	}
	if found["08:30"] || found["09:00"] || found["09:30"] {
		t.Fatalf("conflicting slot offered: %v", found)
	}
}

func TestComputeSlots_SlotStartingAtNowExcluded(t *testing.T) {
	d := day(t)
	windows := []Window{{Start: at(d, 8, 0), End: at(d, 10, 0)}}

	now := at(d, 8, 30)
	slots := ComputeSlots(windows, 60*time.Minute, nil, nil, now)

	// 08:00 is past, 08:30 starts exactly at now and is excluded too.
	if len(slots) != 1 {
		t.Fatalf("expected 1 slot, got %d", len(slots))
	}
	if !slots[0].Start.Equal(at(d, 9, 0)) {
		t.Fatalf("expected 09:00 slot, got %s", slots[0].Start.Format("15:04"))
	}
	for _, s := range slots {
		if !s.Start.After(now) {
			t.Fatalf("slot %s does not start strictly after now", s.Start.Format("15:04"))
		}
	}
}

func TestComputeSlots_ShortServiceTilesWindow(t *testing.T) {
	d := day(t)
	windows := []Window{{Start: at(d, 9, 0), End: at(d, 10, 0)}}

	slots := ComputeSlots(windows, 15*time.Minute, nil, nil, d)
	if len(slots) != 4 {
		t.Fatalf("expected 4 slots at 15m cadence, got %d", len(slots))
	}
	for i, s := range slots {
		want := at(d, 9, i*15)
		if !s.Start.Equal(want) {
			t.Fatalf("slot %d: expected %s, got %s", i, want.Format("15:04"), s.Start.Format("15:04"))
		}
	}
}

func TestComputeSlots_FortyFiveMinuteServiceInOneHourWindow(t *testing.T) {
	d := day(t)
	windows := []Window{{Start: at(d, 8, 0), End: at(d, 9, 0)}}

	slots := ComputeSlots(windows, 45*time.Minute, nil, nil, d)

	// Step is min(30, 45) = 30; 08:30+45 = 09:15 spills past the window.
	if len(slots) != 1 {
		t.Fatalf("expected 1 slot, got %d", len(slots))
	}
	if !slots[0].Start.Equal(at(d, 8, 0)) || !slots[0].End.Equal(at(d, 8, 45)) {
		t.Fatalf("expected 08:00-08:45, got %s-%s", slots[0].Start.Format("15:04"), slots[0].End.Format("15:04"))
	}
}

func TestComputeSlots_NoWindows(t *testing.T) {
	d := day(t)
	slots := ComputeSlots(nil, 60*time.Minute, nil, nil, d)
	if len(slots) != 0 {
		t.Fatalf("expected no slots, got %d", len(slots))
	}
}

func TestComputeSlots_WindowShorterThanService(t *testing.T) {
	d := day(t)
	windows := []Window{{Start: at(d, 8, 0), End: at(d, 8, 30)}}

	slots := ComputeSlots(windows, 60*time.Minute, nil, nil, d)
	if len(slots) != 0 {
		t.Fatalf("expected no slots, got %d", len(slots))
	}
}

func TestComputeSlots_MultipleWindowsConcatenateInOrder(t *testing.T) {
	d := day(t)
	windows := []Window{
		{Start: at(d, 8, 0), End: at(d, 9, 0)},
		{Start: at(d, 14, 0), End: at(d, 15, 0)},
	}

	slots := ComputeSlots(windows, 60*time.Minute, nil, nil, d)
	if len(slots) != 2 {
		t.Fatalf("expected 2 slots, got %d", len(slots))
	}
	if !slots[0].Start.Equal(at(d, 8, 0)) || !slots[1].Start.Equal(at(d, 14, 0)) {
		t.Fatalf("slots out of order: %s then %s", slots[0].Start.Format("15:04"), slots[1].Start.Format("15:04"))
	}
}

func TestComputeSlots_Deterministic(t *testing.T) {
	d := day(t)
	windows := []Window{{Start: at(d, 8, 0), End: at(d, 12, 0)}}
	blocked := []Busy{{Start: at(d, 9, 0), End: at(d, 9, 30)}}
	booked := []Busy{{Start: at(d, 10, 30), End: at(d, 11, 30)}}
	now := at(d, 8, 15)

	a := ComputeSlots(windows, 60*time.Minute, blocked, booked, now)
	b := ComputeSlots(windows, 60*time.Minute, blocked, booked, now)

	if len(a) != len(b) {
		t.Fatalf("call lengths differ: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if !a[i].Start.Equal(b[i].Start) || !a[i].End.Equal(b[i].End) {
			t.Fatalf("slot %d differs between identical calls", i)
		}
	}
}

func TestComputeSlots_NonPositiveDuration(t *testing.T) {
	d := day(t)
	windows := []Window{{Start: at(d, 8, 0), End: at(d, 10, 0)}}

	if slots := ComputeSlots(windows, 0, nil, nil, d); slots != nil {
		t.Fatalf("expected nil for zero duration, got %v", slots)
	}
	if slots := ComputeSlots(windows, -time.Minute, nil, nil, d); slots != nil {
		t.Fatalf("expected nil for negative duration, got %v", slots)
	}
}

func TestOverlaps(t *testing.T) {
	d := day(t)
	cases := []struct {
		name                       string
		aStart, aEnd, bStart, bEnd time.Time
		want                       bool
	}{
		{"disjoint", at(d, 8, 0), at(d, 9, 0), at(d, 10, 0), at(d, 11, 0), false},
		{"touching end to start", at(d, 8, 0), at(d, 9, 0), at(d, 9, 0), at(d, 10, 0), false},
		{"touching start to end", at(d, 9, 0), at(d, 10, 0), at(d, 8, 0), at(d, 9, 0), false},
		{"partial overlap", at(d, 8, 30), at(d, 9, 30), at(d, 9, 0), at(d, 10, 0), true},
		{"contained", at(d, 9, 0), at(d, 9, 30), at(d, 8, 0), at(d, 11, 0), true},
		{"containing", at(d, 8, 0), at(d, 11, 0), at(d, 9, 0), at(d, 9, 30), true},
		{"identical", at(d, 8, 0), at(d, 9, 0), at(d, 8, 0), at(d, 9, 0), true},
	}

	for _, tc := range cases {
		if got := Overlaps(tc.aStart, tc.aEnd, tc.bStart, tc.bEnd); got != tc.want {
			t.Errorf("%s: Overlaps = %v, want %v", tc.name, got, tc.want)
		}
	}
}
