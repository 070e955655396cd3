package calendar

import (
	"strconv"
	"strings"
	"time"

	"studycal/internal/model"
)

// HourRange is the visible hour window of the week view, [Start, End).
type HourRange struct {
	Start int
	End   int
}

// SlotKey addresses one hour slot in the week view.
type SlotKey struct {
	// Weekday is the column index into the week grid (0 = the grid's
	// first day, conventionally Sunday).
	Weekday int
	// Hour is the slot's hour of day.
	Hour int
}

// WeekSlotMap is the result of bucketing events into week-view slots.
type WeekSlotMap struct {
	// Slots maps (weekday, hour) to the events overlapping that hour.
	Slots map[SlotKey][]model.Event

	// Overflow counts, per weekday column, events that fell on that day
	// but lie entirely outside the visible hour range. They are hidden
	// from Slots; callers may render an overflow marker from this tally.
	Overflow [DaysPerWeek]int
}

// EventsOnDay returns the events whose date matches the given day
// exactly (year, month and day). The linear filter is equivalent to a
// pre-indexed map at the data volumes involved (tens to low hundreds of
// events per horizon).
func EventsOnDay(events []model.Event, day time.Time) []model.Event {
	var out []model.Event
	for _, ev := range events {
		if model.SameDay(ev.Date, day) {
			out = append(out, ev)
		}
	}
	return out
}

// WeekSlots assigns events to (weekday, hour) slots of a week grid.
//
// An event is matched to a column by its actual calendar date, never by
// weekday number alone, so events from other weeks cannot bleed in. Its
// start/end hours are clipped to hr; an end time of "00:00" counts as
// hour 24 (midnight rollover belongs to the last visible hour). Ranges
// that are empty after clipping contribute no slots; that is not an
// error. Events whose whole span lies outside the window are tallied in
// Overflow instead of being silently dropped. An event is registered at
// most once per slot even if the input contains duplicates.
func WeekSlots(events []model.Event, week []Cell, hr HourRange) WeekSlotMap {
	out := WeekSlotMap{Slots: make(map[SlotKey][]model.Event)}
	if len(week) == 0 || hr.End <= hr.Start {
		return out
	}

	type slotEvent struct {
		key SlotKey
		id  string
	}
	seen := make(map[slotEvent]bool)

	for _, ev := range events {
		col := -1
		for i := range week {
			if i >= DaysPerWeek {
				break
			}
			if model.SameDay(ev.Date, week[i].Date) {
				col = i
				break
			}
		}
		if col < 0 {
			continue
		}

		startHour, ok := parseHour(ev.StartTime, false)
		if !ok {
			continue
		}
		endHour, ok := parseHour(ev.EndTime, true)
		if !ok {
			continue
		}

		// Whole span outside the window: hidden, but counted.
		if endHour <= hr.Start || startHour >= hr.End {
			out.Overflow[col]++
			continue
		}

		s := startHour
		if s < hr.Start {
			s = hr.Start
		}
		e := endHour
		if e > hr.End {
			e = hr.End
		}
		if e <= s {
			continue
		}

		for h := s; h < e; h++ {
			key := SlotKey{Weekday: col, Hour: h}
			se := slotEvent{key: key, id: ev.ID}
			if seen[se] {
				continue
			}
			seen[se] = true
			out.Slots[key] = append(out.Slots[key], ev)
		}
	}

	return out
}

// parseHour extracts the hour component from an "HH:MM" time-of-day
// string. When end is true, "00:00" maps to 24 so that an event ending
// at midnight occupies slots up to the end of the day. Malformed values
// report false; the event then simply contributes no slots.
func parseHour(s string, end bool) (int, bool) {
	hh, _, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok {
		return 0, false
	}
	h, err := strconv.Atoi(hh)
	if err != nil || h < 0 || h > 23 {
		return 0, false
	}
	if end && h == 0 {
		return 24, true
	}
	return h, true
}
