package model

import "time"

// Category classifies an event or task for display grouping/coloring.
// The set is fixed; anything unrecognized maps to CategoryOther.
type Category string

const (
	CategoryLecture   Category = "lecture"
	CategoryLab       Category = "lab"
	CategoryDeadline  Category = "deadline"
	CategoryTutorial  Category = "tutorial"
	CategoryCompleted Category = "completed"
	CategoryOther     Category = "other"
)

// ParseCategory maps a raw category/type string onto the fixed set.
func ParseCategory(s string) Category {
	switch Category(s) {
	case CategoryLecture, CategoryLab, CategoryDeadline, CategoryTutorial, CategoryCompleted:
		return Category(s)
	default:
		return CategoryOther
	}
}

// Event is a normalized calendar event as produced by the ingestion
// boundary (REST or ICS source). All duck-typed field aliasing is
// resolved before an Event exists; downstream bucketing never sees raw
// source records.
type Event struct {
	ID       string
	SourceID string

	Title       string
	Description string
	Location    string
	Course      string

	Category Category

	// Date is the calendar day the event occurs on, at midnight in the
	// display timezone. Only year/month/day are meaningful.
	Date time.Time

	// StartTime / EndTime are display times of day in "HH:MM" form.
	// An EndTime of "00:00" means end-of-day (midnight rollover).
	// Empty or malformed values are tolerated by the bucketing engine.
	StartTime string
	EndTime   string

	AllDay bool
}

// Task is a normalized to-do item with a due date.
type Task struct {
	ID     string
	Title  string
	Course string

	Category  Category
	Completed bool

	// Due is the due timestamp in the display timezone. A zero Due
	// marks a task whose date could not be resolved; such tasks are
	// excluded from grouping.
	Due time.Time
}

// SameDay reports whether a and b fall on the same calendar date,
// ignoring time of day.
func SameDay(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month() && a.Day() == b.Day()
}

// DateKey returns the ISO calendar date (YYYY-MM-DD) for t.
func DateKey(t time.Time) string {
	return t.Format("2006-01-02")
}
