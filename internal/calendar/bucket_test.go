package calendar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studycal/internal/model"
)

func testWeek(t *testing.T) []Cell {
	t.Helper()
	// 2025-03-02 is a Sunday.
	week := WeekGrid(date(2025, time.March, 2), time.March, date(2000, time.January, 1))
	require.Len(t, week, DaysPerWeek)
	return week
}

func ev(id string, day time.Time, start, end string) model.Event {
	return model.Event{
		ID:        id,
		Title:     id,
		Category:  model.CategoryLecture,
		Date:      day,
		StartTime: start,
		EndTime:   end,
	}
}

func TestEventsOnDay(t *testing.T) {
	monday := date(2025, time.March, 3)
	events := []model.Event{
		ev("a", monday, "09:00", "10:00"),
		ev("b", date(2025, time.March, 4), "09:00", "10:00"),
		ev("c", monday, "13:00", "14:00"),
	}

	got := EventsOnDay(events, monday)
	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].ID)
	assert.Equal(t, "c", got[1].ID)

	assert.Empty(t, EventsOnDay(events, date(2026, time.March, 3)))
}

func TestWeekSlotsClipping(t *testing.T) {
	week := testWeek(t)
	monday := week[1].Date

	events := []model.Event{ev("long", monday, "06:00", "23:00")}
	got := WeekSlots(events, week, HourRange{Start: 8, End: 16})

	// Appears in hours 8..15 inclusive and nowhere else.
	require.Len(t, got.Slots, 8)
	for h := 8; h < 16; h++ {
		slot := got.Slots[SlotKey{Weekday: 1, Hour: h}]
		require.Len(t, slot, 1, "hour %d", h)
		assert.Equal(t, "long", slot[0].ID)
	}
	assert.Zero(t, got.Overflow[1])
}

func TestWeekSlotsMidnightEnd(t *testing.T) {
	week := testWeek(t)
	friday := week[5].Date

	// End of "00:00" means midnight rollover: the event runs to the end
	// of the visible window, not to hour 0.
	events := []model.Event{ev("late", friday, "14:00", "00:00")}
	got := WeekSlots(events, week, HourRange{Start: 8, End: 16})

	require.Len(t, got.Slots, 2)
	assert.Len(t, got.Slots[SlotKey{Weekday: 5, Hour: 14}], 1)
	assert.Len(t, got.Slots[SlotKey{Weekday: 5, Hour: 15}], 1)
}

func TestWeekSlotsMatchesByDateNotWeekday(t *testing.T) {
	week := testWeek(t)

	// Same weekday (Monday) but a different week: must not bleed in.
	otherMonday := date(2025, time.March, 10)
	got := WeekSlots([]model.Event{ev("x", otherMonday, "09:00", "10:00")}, week, HourRange{Start: 8, End: 16})

	assert.Empty(t, got.Slots)
	for _, n := range got.Overflow {
		assert.Zero(t, n)
	}
}

func TestWeekSlotsOutsideWindowCountsOverflow(t *testing.T) {
	week := testWeek(t)
	tuesday := week[2].Date

	events := []model.Event{
		ev("evening", tuesday, "17:00", "19:00"),
		ev("early", tuesday, "06:00", "08:00"),
	}
	got := WeekSlots(events, week, HourRange{Start: 8, End: 16})

	assert.Empty(t, got.Slots)
	assert.Equal(t, 2, got.Overflow[2])
}

func TestWeekSlotsDegenerateRanges(t *testing.T) {
	week := testWeek(t)
	monday := week[1].Date

	events := []model.Event{
		ev("zero", monday, "10:00", "10:00"),
		ev("inverted", monday, "12:00", "09:00"),
		ev("garbage", monday, "banana", "10:00"),
		ev("empty", monday, "", ""),
	}
	got := WeekSlots(events, week, HourRange{Start: 8, End: 16})

	// None of these contribute slots, and none of them is an error.
	assert.Empty(t, got.Slots)
}

func TestWeekSlotsDedup(t *testing.T) {
	week := testWeek(t)
	monday := week[1].Date

	dup := ev("dup", monday, "09:00", "11:00")
	got := WeekSlots([]model.Event{dup, dup}, week, HourRange{Start: 8, End: 16})

	for h := 9; h < 11; h++ {
		assert.Len(t, got.Slots[SlotKey{Weekday: 1, Hour: h}], 1, "hour %d", h)
	}
}

func TestWeekSlotsEmptyWindow(t *testing.T) {
	week := testWeek(t)
	got := WeekSlots([]model.Event{ev("a", week[0].Date, "09:00", "10:00")}, week, HourRange{Start: 16, End: 8})
	assert.Empty(t, got.Slots)
}
