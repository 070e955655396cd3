package source

import (
	"strings"
	"time"

	"studycal/internal/log"
	"studycal/internal/model"
)

// Record is the duck-typed JSON shape REST collaborators return. Field
// names vary between deployments ("_id" vs "id", "date" vs "dueDate");
// every alias is declared here once and resolved by a single priority
// rule instead of scattering fallbacks through the bucketing logic.
type Record struct {
	ID    string `json:"id"`
	AltID string `json:"_id"`

	Title string `json:"title"`
	Name  string `json:"name"`

	Description string `json:"description"`
	Location    string `json:"location"`
	Course      string `json:"course"`

	// DueDate takes priority over Date when both are present.
	Date    string `json:"date"`
	DueDate string `json:"dueDate"`

	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`

	// Category takes priority over Type when both are present.
	Type     string `json:"type"`
	Category string `json:"category"`

	Completed bool `json:"completed"`
	AllDay    bool `json:"allDay"`
}

func (r Record) resolveID() string {
	if r.ID != "" {
		return r.ID
	}
	return r.AltID
}

func (r Record) resolveTitle() string {
	if r.Title != "" {
		return r.Title
	}
	return r.Name
}

func (r Record) resolveCategory() model.Category {
	if r.Completed {
		return model.CategoryCompleted
	}
	if r.Category != "" {
		return model.ParseCategory(r.Category)
	}
	return model.ParseCategory(r.Type)
}

// dateLayouts are the timestamp forms seen in the wild from the REST
// collaborators, tried in order.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// resolveDate parses the record's date, preferring dueDate over date.
// The zero time and false signal an unresolvable date; callers exclude
// the record and emit a diagnostic rather than guessing.
func (r Record) resolveDate(loc *time.Location) (time.Time, bool) {
	raw := r.DueDate
	if raw == "" {
		raw = r.Date
	}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}

	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, raw, loc); err == nil {
			return t.In(loc), true
		}
	}
	return time.Time{}, false
}

// NormalizeEvents converts raw records into calendar events in the
// display timezone. Records with unresolvable dates are excluded and
// counted, never dropped silently.
func NormalizeEvents(sourceID string, recs []Record, loc *time.Location) ([]model.Event, int) {
	events := make([]model.Event, 0, len(recs))
	excluded := 0

	for _, r := range recs {
		when, ok := r.resolveDate(loc)
		if !ok {
			excluded++
			log.Warn("event excluded: unresolvable date", "source", sourceID, "id", r.resolveID(), "title", r.resolveTitle())
			continue
		}

		id := r.resolveID()
		if id == "" {
			// Synthesize a stable key so slot dedup still works.
			id = sourceID + "/" + model.DateKey(when) + "/" + r.resolveTitle()
		}

		start := r.StartTime
		if start == "" && !r.AllDay {
			start = when.Format("15:04")
		}

		events = append(events, model.Event{
			ID:          id,
			SourceID:    sourceID,
			Title:       r.resolveTitle(),
			Description: r.Description,
			Location:    r.Location,
			Course:      r.Course,
			Category:    r.resolveCategory(),
			Date:        time.Date(when.Year(), when.Month(), when.Day(), 0, 0, 0, 0, loc),
			StartTime:   start,
			EndTime:     r.EndTime,
			AllDay:      r.AllDay,
		})
	}

	return events, excluded
}

// NormalizeTasks converts raw records into tasks. Unresolvable dates
// leave Due at the zero value; grouping excludes and logs those, so the
// exclusion count surfaces there rather than here.
func NormalizeTasks(sourceID string, recs []Record, loc *time.Location) []model.Task {
	tasks := make([]model.Task, 0, len(recs))

	for _, r := range recs {
		due, ok := r.resolveDate(loc)
		if !ok {
			due = time.Time{}
		}

		id := r.resolveID()
		if id == "" {
			id = sourceID + "/" + r.resolveTitle()
		}

		tasks = append(tasks, model.Task{
			ID:        id,
			Title:     r.resolveTitle(),
			Course:    r.Course,
			Category:  r.resolveCategory(),
			Completed: r.Completed,
			Due:       due,
		})
	}

	return tasks
}
