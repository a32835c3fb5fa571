package report

import (
	"fmt"

	"github.com/2beens/jogtracker/internal/jogs"
)

// WeeklyReport holds the jogs of one week. All statistics are derived on
// demand; a report is never changed after it is built.
type WeeklyReport struct {
	WeekInterval WeekInterval
	Jogs         []jogs.Jog
}

// TotalDistance sums the jog distances, counting missing values as 0.
func (r WeeklyReport) TotalDistance() float64 {
	var total float64
	for _, j := range r.Jogs {
		if j.Distance != nil {
			total += *j.Distance
		}
	}
	return total
}

// TotalTime sums the jog durations, counting missing values as 0.
func (r WeeklyReport) TotalTime() float64 {
	var total float64
	for _, j := range r.Jogs {
		if j.Time != nil {
			total += float64(*j.Time)
		}
	}
	return total
}

// AverageSpeed is total distance over total time; ok is false when the total time is 0.
func (r WeeklyReport) AverageSpeed() (speed float64, ok bool) {
	totalTime := r.TotalTime()
	if totalTime == 0 {
		return 0, false
	}
	return r.TotalDistance() / totalTime, true
}

// AverageTime is total time over the number of jogs; ok is false for an empty report.
func (r WeeklyReport) AverageTime() (avg float64, ok bool) {
	if len(r.Jogs) == 0 {
		return 0, false
	}
	return r.TotalTime() / float64(len(r.Jogs)), true
}

// WeekNumber is the ISO week number of the first jog's date.
func (r WeeklyReport) WeekNumber() (int, bool) {
	if len(r.Jogs) == 0 || r.Jogs[0].Date == nil {
		return 0, false
	}
	_, w := r.Jogs[0].Date.UTC().ISOWeek()
	return w, true
}

// Label renders the report heading, e.g. "Week 1: (2024-01-01/2024-01-07)".
func (r WeeklyReport) Label() string {
	interval := fmt.Sprintf(
		"%s/%s",
		r.WeekInterval.Start.Format(jogs.DateLayout),
		r.WeekInterval.End.AddDate(0, 0, -1).Format(jogs.DateLayout),
	)
	if n, ok := r.WeekNumber(); ok {
		return fmt.Sprintf("Week %d: (%s)", n, interval)
	}
	return fmt.Sprintf("(%s)", interval)
}

// View is the JSON representation of a weekly report.
type View struct {
	Week          int        `json:"week,omitempty"`
	Label         string     `json:"label"`
	Start         string     `json:"start"`
	End           string     `json:"end"`
	Jogs          []jogs.Jog `json:"jogs"`
	TotalDistance float64    `json:"totalDistance"`
	TotalTime     float64    `json:"totalTime"`
	AverageSpeed  *float64   `json:"averageSpeed"`
	AverageTime   *float64   `json:"averageTime"`
}

func (r WeeklyReport) View() View {
	v := View{
		Label:         r.Label(),
		Start:         r.WeekInterval.Start.Format(jogs.DateLayout),
		End:           r.WeekInterval.End.Format(jogs.DateLayout),
		Jogs:          r.Jogs,
		TotalDistance: r.TotalDistance(),
		TotalTime:     r.TotalTime(),
	}
	if n, ok := r.WeekNumber(); ok {
		v.Week = n
	}
	if speed, ok := r.AverageSpeed(); ok {
		v.AverageSpeed = &speed
	}
	if avg, ok := r.AverageTime(); ok {
		v.AverageTime = &avg
	}
	return v
}

func Views(reports []WeeklyReport) []View {
	views := make([]View, 0, len(reports))
	for _, r := range reports {
		views = append(views, r.View())
	}
	return views
}
