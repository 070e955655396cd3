package calendar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studycal/internal/model"
)

func task(id string, due time.Time) model.Task {
	return model.Task{ID: id, Title: id, Category: model.CategoryDeadline, Due: due}
}

func TestGroupByDateSameDayDifferentTimes(t *testing.T) {
	tasks := []model.Task{
		task("a", time.Date(2025, time.March, 1, 10, 0, 0, 0, time.UTC)),
		task("b", time.Date(2025, time.March, 1, 22, 0, 0, 0, time.UTC)),
		task("c", time.Date(2025, time.March, 2, 1, 0, 0, 0, time.UTC)),
	}

	res := GroupByDate(tasks)
	require.Len(t, res.Groups, 2)
	assert.Equal(t, "2025-03-01", res.Groups[0].Date)
	assert.Len(t, res.Groups[0].Tasks, 2)
	assert.Equal(t, "2025-03-02", res.Groups[1].Date)
	assert.Len(t, res.Groups[1].Tasks, 1)
	assert.Zero(t, res.Excluded)
}

func TestGroupByDateIsPartition(t *testing.T) {
	tasks := []model.Task{
		task("a", time.Date(2025, time.March, 1, 9, 0, 0, 0, time.UTC)),
		task("bad", time.Time{}), // unresolvable date
		task("b", time.Date(2025, time.March, 3, 9, 0, 0, 0, time.UTC)),
		task("c", time.Date(2025, time.March, 1, 15, 0, 0, 0, time.UTC)),
		task("bad2", time.Time{}),
	}

	res := GroupByDate(tasks)

	total := 0
	for _, g := range res.Groups {
		total += len(g.Tasks)
	}
	assert.Equal(t, len(tasks), total+res.Excluded)
	assert.Equal(t, 2, res.Excluded)
}

func TestGroupByDateStableOrder(t *testing.T) {
	// Groups appear in first-encounter order, not sorted; tasks keep
	// input order within a group.
	tasks := []model.Task{
		task("z", time.Date(2025, time.March, 9, 9, 0, 0, 0, time.UTC)),
		task("a", time.Date(2025, time.March, 1, 9, 0, 0, 0, time.UTC)),
		task("z2", time.Date(2025, time.March, 9, 12, 0, 0, 0, time.UTC)),
	}

	res := GroupByDate(tasks)
	require.Len(t, res.Groups, 2)
	assert.Equal(t, "2025-03-09", res.Groups[0].Date)
	assert.Equal(t, []string{"z", "z2"}, []string{res.Groups[0].Tasks[0].ID, res.Groups[0].Tasks[1].ID})
	assert.Equal(t, "2025-03-01", res.Groups[1].Date)
}

func TestGroupByDateEmpty(t *testing.T) {
	res := GroupByDate(nil)
	assert.Empty(t, res.Groups)
	assert.Zero(t, res.Excluded)
}
