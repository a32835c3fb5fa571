package jogs

import (
	"errors"
	"fmt"
	"math"
	"time"
)

var (
	ErrInvalidJog        = errors.New("invalid jog")
	ErrMissingIdentifier = errors.New("jog identifier missing")
)

// Jog is a single logged run. ID and UserID are assigned server side,
// so they are nil for jogs created locally and not yet submitted.
type Jog struct {
	ID       *int       `json:"id,omitempty"`
	UserID   *string    `json:"userId,omitempty"`
	Distance *float64   `json:"distance,omitempty"`
	Time     *int       `json:"time,omitempty"`
	Date     *time.Time `json:"date,omitempty"`
}

// Submission is a jog that passed validation and can be sent to the remote service.
type Submission struct {
	ID       int
	UserID   string
	Date     time.Time
	Time     int
	Distance float64
}

type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid jog %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidJog
}

// Submission validates the jog fields needed to create it remotely.
func (j Jog) Submission() (Submission, error) {
	if j.Date == nil || j.Date.IsZero() {
		return Submission{}, &ValidationError{Field: "date", Reason: "missing"}
	}
	if j.Time == nil {
		return Submission{}, &ValidationError{Field: "time", Reason: "missing"}
	}
	if *j.Time < 0 {
		return Submission{}, &ValidationError{Field: "time", Reason: "must not be negative"}
	}
	if j.Distance == nil {
		return Submission{}, &ValidationError{Field: "distance", Reason: "missing"}
	}
	if err := checkDistance(*j.Distance); err != nil {
		return Submission{}, err
	}

	sub := Submission{
		Date:     Day(*j.Date),
		Time:     *j.Time,
		Distance: *j.Distance,
	}
	if j.ID != nil {
		sub.ID = *j.ID
	}
	if j.UserID != nil {
		sub.UserID = *j.UserID
	}
	return sub, nil
}

func checkDistance(distance float64) error {
	if math.IsNaN(distance) || math.IsInf(distance, 0) {
		return &ValidationError{Field: "distance", Reason: "must be a finite number"}
	}
	if distance <= 0 {
		return &ValidationError{Field: "distance", Reason: "must be positive"}
	}
	return nil
}

// Identified checks the server assigned fields required to update or delete a jog.
func (j Jog) Identified() (id int, userID string, err error) {
	if j.ID == nil {
		return 0, "", fmt.Errorf("%w: id", ErrMissingIdentifier)
	}
	if j.UserID == nil || *j.UserID == "" {
		return 0, "", fmt.Errorf("%w: user id", ErrMissingIdentifier)
	}
	return *j.ID, *j.UserID, nil
}

func (j Jog) BelongsTo(userID string) bool {
	return j.UserID != nil && *j.UserID == userID
}

// FilterByUser keeps the jogs owned by userID, in their original order.
func FilterByUser(all []Jog, userID string) []Jog {
	filtered := make([]Jog, 0, len(all))
	for _, j := range all {
		if j.BelongsTo(userID) {
			filtered = append(filtered, j)
		}
	}
	return filtered
}

// Day truncates t to the start of its calendar day in UTC.
func Day(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// FromUnix converts the epoch seconds used by the sync payload into a calendar day.
func FromUnix(sec int64) time.Time {
	return Day(time.Unix(sec, 0))
}

func Ptr[T any](v T) *T {
	return &v
}
