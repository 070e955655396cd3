package calendar

import (
	"studycal/internal/log"
	"studycal/internal/model"
)

// TaskGroup is one bucket of the group-by-date partition: all tasks due
// on the same calendar date, in input order.
type TaskGroup struct {
	// Date is the ISO calendar date key (YYYY-MM-DD).
	Date string
	// Tasks preserves the encounter order of the input.
	Tasks []model.Task
}

// GroupResult carries the partition plus the count of tasks that were
// excluded for lacking a resolvable date.
type GroupResult struct {
	Groups   []TaskGroup
	Excluded int
}

// GroupByDate partitions tasks by calendar date.
//
// The grouping is stable: groups appear in the order their date was
// first encountered, and tasks keep their input order within a group.
// Two tasks at different times on the same day share a group, since the
// key drops the time-of-day component. Tasks with a zero due date (the
// ingestion boundary's marker for missing/invalid dates) are excluded
// and logged, never merged into a wrong group. The partition property
// holds: sum of group sizes + Excluded == len(tasks).
func GroupByDate(tasks []model.Task) GroupResult {
	var res GroupResult
	index := make(map[string]int)

	for _, t := range tasks {
		if t.Due.IsZero() {
			res.Excluded++
			log.Warn("task excluded from grouping: no resolvable date", "task_id", t.ID, "title", t.Title)
			continue
		}
		key := model.DateKey(t.Due)
		i, ok := index[key]
		if !ok {
			i = len(res.Groups)
			index[key] = i
			res.Groups = append(res.Groups, TaskGroup{Date: key})
		}
		res.Groups[i].Tasks = append(res.Groups[i].Tasks, t)
	}

	return res
}
