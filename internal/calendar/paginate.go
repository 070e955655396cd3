package calendar

import "studycal/internal/model"

// Viewport breakpoints (pixels) and the page sizes they select.
const (
	breakpointNarrow = 768
	breakpointMedium = 1199
)

// PageSizeForWidth derives a page size from the viewport width:
// below 768px one item per page, below 1199px two, otherwise three.
func PageSizeForWidth(px int) int {
	switch {
	case px < breakpointNarrow:
		return 1
	case px < breakpointMedium:
		return 2
	default:
		return 3
	}
}

// Page is one visible slice of a TaskGroup.
type Page struct {
	// Tasks is the visible slice for the (possibly clamped) page.
	Tasks []model.Task
	// PageCount is ceil(len(group.Tasks) / pageSize).
	PageCount int
	// PageIndex is the effective zero-based page after clamping.
	PageIndex int
}

// Paginate returns the pageIndex'th slice of the group's tasks.
//
// An out-of-range pageIndex is clamped into [0, PageCount-1] rather than
// treated as an error, so a group that shrank after a deletion or a
// viewport change still shows its last valid page. The call is pure:
// identical arguments always yield identical output.
func Paginate(g TaskGroup, pageSize, pageIndex int) Page {
	if pageSize < 1 {
		pageSize = 1
	}

	n := len(g.Tasks)
	pageCount := (n + pageSize - 1) / pageSize
	if pageCount == 0 {
		return Page{Tasks: nil, PageCount: 0, PageIndex: 0}
	}

	idx := clamp(pageIndex, 0, pageCount-1)
	lo := idx * pageSize
	hi := lo + pageSize
	if hi > n {
		hi = n
	}

	return Page{Tasks: g.Tasks[lo:hi], PageCount: pageCount, PageIndex: idx}
}

// Pager is the per-group page cursor. Each group keeps its own Pager
// because group task counts are independent; a viewport resize must
// re-clamp every pager separately (see Clamp).
type Pager struct {
	index int
}

// Index returns the current zero-based page.
func (p *Pager) Index() int {
	return p.index
}

// Next advances one page, clamped at the last valid page.
func (p *Pager) Next(pageCount int) {
	p.index = clampIndex(p.index+1, pageCount)
}

// Prev moves back one page, clamped at zero.
func (p *Pager) Prev(pageCount int) {
	p.index = clampIndex(p.index-1, pageCount)
}

// Jump moves to page n, clamped into range.
func (p *Pager) Jump(n, pageCount int) {
	p.index = clampIndex(n, pageCount)
}

// Clamp re-fits the cursor after the underlying task count or the page
// size changed. It never resets to zero on its own; only Reset does.
func (p *Pager) Clamp(pageCount int) {
	p.index = clampIndex(p.index, pageCount)
}

// Reset returns the cursor to the first page. Only called when the
// caller explicitly asks for it, never implicitly on data change.
func (p *Pager) Reset() {
	p.index = 0
}

func clampIndex(i, pageCount int) int {
	if pageCount < 1 {
		return 0
	}
	return clamp(i, 0, pageCount-1)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
