package calendar

import "time"

const (
	// MonthGridCells is the fixed size of a month grid: 6 rows of 7.
	MonthGridCells = 42
	// DaysPerWeek is the number of cells in a week grid.
	DaysPerWeek = 7
)

// Cell is a single day slot in a month or week grid. Cells are built
// fresh on every call and never mutated afterwards.
type Cell struct {
	// Date is midnight of the cell's day in the caller's timezone.
	Date time.Time

	// InPeriod is true when the cell belongs to the month (or reference
	// month, for week grids) being displayed. Spillover days from
	// adjacent months carry false.
	InPeriod bool

	// Today is true when Date matches the caller-supplied current date.
	Today bool
}

// midnight truncates t to 00:00 of its calendar day, keeping the location.
func midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// MonthGrid builds the 6x7 cell grid for the given month.
//
// month is zero-based (0 = January, 11 = December), matching the view
// state the UI navigates with. The grid starts on the Sunday on or
// before the 1st and always contains exactly 42 cells, so months of any
// length (28-31 days) render with stable geometry. today determines the
// Today flag; pass the current time in the display timezone.
func MonthGrid(year, month int, today time.Time) []Cell {
	first := time.Date(year, time.Month(month+1), 1, 0, 0, 0, 0, today.Location())

	// time.Weekday already uses Sunday=0.
	lead := int(first.Weekday())
	start := first.AddDate(0, 0, -lead)

	cells := make([]Cell, 0, MonthGridCells)
	for i := 0; i < MonthGridCells; i++ {
		d := start.AddDate(0, 0, i)
		cells = append(cells, Cell{
			Date:     d,
			InPeriod: d.Month() == first.Month() && d.Year() == first.Year(),
			Today:    sameDay(d, today),
		})
	}
	return cells
}

// WeekGrid builds the 7-cell grid for the week containing weekStart.
//
// weekStart is expected to be a Sunday; if it is not, it is rolled back
// to the previous Sunday instead of trusting the caller, so slot lookups
// downstream can never be column-shifted by a misaligned input.
// refMonth decides the InPeriod flag, since a week can straddle two
// months.
func WeekGrid(weekStart time.Time, refMonth time.Month, today time.Time) []Cell {
	start := midnight(weekStart)
	start = start.AddDate(0, 0, -int(start.Weekday()))

	cells := make([]Cell, 0, DaysPerWeek)
	for i := 0; i < DaysPerWeek; i++ {
		d := start.AddDate(0, 0, i)
		cells = append(cells, Cell{
			Date:     d,
			InPeriod: d.Month() == refMonth,
			Today:    sameDay(d, today),
		})
	}
	return cells
}

// PrevMonth shifts a zero-based (year, month) pair back one month,
// rolling over the year boundary at January.
func PrevMonth(year, month int) (int, int) {
	month--
	if month < 0 {
		return year - 1, 11
	}
	return year, month
}

// NextMonth shifts a zero-based (year, month) pair forward one month,
// rolling over the year boundary at December.
func NextMonth(year, month int) (int, int) {
	month++
	if month > 11 {
		return year + 1, 0
	}
	return year, month
}

// PrevWeek returns the week start seven days earlier.
func PrevWeek(weekStart time.Time) time.Time {
	return midnight(weekStart).AddDate(0, 0, -DaysPerWeek)
}

// NextWeek returns the week start seven days later.
func NextWeek(weekStart time.Time) time.Time {
	return midnight(weekStart).AddDate(0, 0, DaysPerWeek)
}

func sameDay(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month() && a.Day() == b.Day()
}
