// Package availability computes bookable time slots for a single calendar
// day. It is a pure package: no storage, no clock reads, no goroutines. The
// caller loads the day's windows, blocked intervals and occupying
// appointments, and injects the current time.
package availability

import "time"

// DefaultStep is the slot cadence. Slots start on 30-minute boundaries
// unless the service itself is shorter than 30 minutes, in which case the
// cadence shrinks to the service length so a window tiles without gaps.
const DefaultStep = 30 * time.Minute

// Slot is a candidate bookable interval, exactly one service duration long.
type Slot struct {
	Start time.Time
	End   time.Time
}

// Window is a recurring weekly open period already combined with the
// requested date by the caller. Windows for one day must not overlap each
// other; ComputeSlots does not deduplicate across windows.
type Window struct {
	Start time.Time
	End   time.Time
}

// Busy is an interval that a candidate slot must not overlap: a blocked
// interval, or a pending/confirmed appointment.
type Busy struct {
	Start time.Time
	End   time.Time
}

// Overlaps reports whether [aStart, aEnd) and [bStart, bEnd) intersect.
// The test is strict on both sides, so intervals that only touch at a
// boundary do not overlap: a slot ending exactly when a booking starts is
// allowed. Booking creation uses the same predicate for its conflict check
// so the two can never disagree.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && aEnd.After(bStart)
}

// ComputeSlots returns the free slots of length duration inside the given
// windows, skipping any candidate that starts at or before now, or that
// overlaps a blocked interval or an occupying appointment. Windows are
// processed in order and candidates are emitted in generation order, so the
// result is ascending as long as the windows themselves are sorted and
// non-overlapping.
//
// A window shorter than duration yields no slots. No windows yields an
// empty result, not an error.
func ComputeSlots(windows []Window, duration time.Duration, blocked, booked []Busy, now time.Time) []Slot {
	if duration <= 0 {
		return nil
	}

	step := DefaultStep
	if duration < step {
		step = duration
	}

	slots := []Slot{}
	for _, w := range windows {
		for start := w.Start; !start.Add(duration).After(w.End); start = start.Add(step) {
			end := start.Add(duration)

			// A slot must start strictly in the future.
			if !start.After(now) {
				continue
			}
			if overlapsAny(start, end, blocked) {
				continue
			}
			if overlapsAny(start, end, booked) {
				continue
			}

			slots = append(slots, Slot{Start: start, End: end})
		}
	}
	return slots
}

func overlapsAny(start, end time.Time, busy []Busy) bool {
	for _, b := range busy {
		if Overlaps(start, end, b.Start, b.End) {
			return true
		}
	}
	return false
}
