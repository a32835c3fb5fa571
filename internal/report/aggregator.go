package report

import (
	"sort"
	"time"

	"github.com/2beens/jogtracker/internal/jogs"
)

// Weeks are ISO-8601 weeks (Monday start) evaluated in UTC, so the result
// never depends on the locale or time zone of the machine building it.

const week = 7 * 24 * time.Hour

// WeekInterval is a half-open [Start, End) range covering one calendar week.
type WeekInterval struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

func (wi WeekInterval) Contains(t time.Time) bool {
	return !t.Before(wi.Start) && t.Before(wi.End)
}

// WeekOf returns the week interval the given day falls into.
func WeekOf(t time.Time) WeekInterval {
	day := jogs.Day(t)
	sinceMonday := (int(day.Weekday()) + 6) % 7
	start := day.AddDate(0, 0, -sinceMonday)
	return WeekInterval{
		Start: start,
		End:   start.Add(week),
	}
}

// Aggregate groups the jogs by week and returns one report per non-empty week,
// sorted by week start ascending. Jogs without a date are left out.
func Aggregate(all []jogs.Jog) []WeeklyReport {
	week2jogs := make(map[time.Time][]jogs.Jog)
	for _, j := range all {
		if j.Date == nil {
			continue
		}
		start := WeekOf(*j.Date).Start
		week2jogs[start] = append(week2jogs[start], j)
	}

	reports := make([]WeeklyReport, 0, len(week2jogs))
	for start, weekJogs := range week2jogs {
		reports = append(reports, WeeklyReport{
			WeekInterval: WeekInterval{Start: start, End: start.Add(week)},
			Jogs:         weekJogs,
		})
	}

	sortReports(reports, true)
	return reports
}

func sortReports(reports []WeeklyReport, ascending bool) {
	sort.SliceStable(reports, func(i, j int) bool {
		if ascending {
			return reports[i].WeekInterval.Start.Before(reports[j].WeekInterval.Start)
		}
		return reports[i].WeekInterval.Start.After(reports[j].WeekInterval.Start)
	})
}
