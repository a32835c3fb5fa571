package jogs

import (
	"strconv"
	"strings"
	"time"
)

const (
	DateLayout     = "2006-01-02"
	FormDateLayout = "Jan 2, 2006"
)

// Form holds the raw text of an edit form, before parsing.
type Form struct {
	Date     string
	Time     string
	Distance string
}

// FormFromJog fills a form with the current values of j, used when editing.
func FormFromJog(j Jog) Form {
	var f Form
	if j.Date != nil {
		f.Date = j.Date.Format(DateLayout)
	}
	if j.Time != nil {
		f.Time = strconv.Itoa(*j.Time)
	}
	if j.Distance != nil {
		f.Distance = strconv.FormatFloat(*j.Distance, 'f', -1, 64)
	}
	return f
}

// ParseForm builds a validated submission from the form fields. base carries
// the identifiers of the jog being edited and may be the zero Jog for new ones.
func ParseForm(f Form, base Jog) (Jog, Submission, error) {
	date, err := ParseDate(f.Date)
	if err != nil {
		return Jog{}, Submission{}, err
	}

	timeStr := strings.TrimSpace(f.Time)
	if timeStr == "" {
		return Jog{}, Submission{}, &ValidationError{Field: "time", Reason: "missing"}
	}
	minutes, err := strconv.Atoi(timeStr)
	if err != nil {
		return Jog{}, Submission{}, &ValidationError{Field: "time", Reason: "not a whole number"}
	}

	distance, err := ParseDistance(f.Distance)
	if err != nil {
		return Jog{}, Submission{}, err
	}

	jog := Jog{
		ID:       base.ID,
		UserID:   base.UserID,
		Date:     &date,
		Time:     &minutes,
		Distance: &distance,
	}
	sub, err := jog.Submission()
	if err != nil {
		return Jog{}, Submission{}, err
	}
	return jog, sub, nil
}

// ParseDate accepts both the ISO layout and the "Jan 2, 2006" layout.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, &ValidationError{Field: "date", Reason: "missing"}
	}
	for _, layout := range []string{DateLayout, FormDateLayout} {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return Day(t), nil
		}
	}
	return time.Time{}, &ValidationError{Field: "date", Reason: "expected YYYY-MM-DD or 'Jan 2, 2006'"}
}

// ParseDistance reads a positive, finite distance.
func ParseDistance(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, &ValidationError{Field: "distance", Reason: "missing"}
	}
	distance, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, &ValidationError{Field: "distance", Reason: "not a number"}
	}
	if err := checkDistance(distance); err != nil {
		return 0, err
	}
	return distance, nil
}
