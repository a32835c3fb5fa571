package report

import (
	"sync"

	"github.com/2beens/jogtracker/internal/jogs"
)

// Collection holds the current set of weekly reports and their sort order.
// It is safe for concurrent use; readers always get a copy.
type Collection struct {
	mu        sync.RWMutex
	reports   []WeeklyReport
	ascending bool
	version   uint64
}

func NewCollection() *Collection {
	return &Collection{
		reports:   []WeeklyReport{},
		ascending: true,
	}
}

// Replace rebuilds all reports from the given jogs and resets the order to ascending.
func (c *Collection) Replace(all []jogs.Jog) {
	reports := Aggregate(all)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.reports = reports
	c.ascending = true
	c.version++
}

// ToggleSortOrder flips between ascending and descending week order,
// re-sorting the reports already built.
func (c *Collection) ToggleSortOrder() (ascending bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.ascending = !c.ascending
	sorted := make([]WeeklyReport, len(c.reports))
	copy(sorted, c.reports)
	sortReports(sorted, c.ascending)
	c.reports = sorted
	c.version++

	return c.ascending
}

func (c *Collection) Reports() []WeeklyReport {
	c.mu.RLock()
	defer c.mu.RUnlock()
	reports := make([]WeeklyReport, len(c.reports))
	copy(reports, c.reports)
	return reports
}

func (c *Collection) Ascending() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.ascending
}

// Version changes every time the reports or their order change.
func (c *Collection) Version() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.version
}

// ReportsInOrder returns a copy of the reports sorted in the requested order,
// together with the version they belong to. The collection's own order is kept.
func (c *Collection) ReportsInOrder(ascending bool) ([]WeeklyReport, uint64) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	reports := make([]WeeklyReport, len(c.reports))
	copy(reports, c.reports)
	if ascending != c.ascending {
		sortReports(reports, ascending)
	}
	return reports, c.version
}
