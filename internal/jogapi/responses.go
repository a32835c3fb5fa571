package jogapi

import (
	"time"

	"github.com/2beens/jogtracker/internal/jogs"
)

// every response of the remote service is wrapped like {"response": {...}, "timestamp": 1571990873}
type envelope[T any] struct {
	Response  *T    `json:"response"`
	Timestamp int64 `json:"timestamp"`
}

type authResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
	Scope       string `json:"scope"`
	CreatedAt   int64  `json:"created_at"`
}

type userResponse struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Role      string `json:"role"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

type jogResponse struct {
	ID       *int     `json:"id"`
	UserID   *string  `json:"user_id"`
	Distance *float64 `json:"distance"`
	Time     *int     `json:"time"`
	Date     *int64   `json:"date"` // unix seconds
}

type syncResponse struct {
	Jogs  []jogResponse  `json:"jogs"`
	Users []userResponse `json:"users"`
}

func (r authResponse) toSession() *jogs.AuthSession {
	s := &jogs.AuthSession{
		AccessToken: r.AccessToken,
		TokenType:   r.TokenType,
		ExpiresIn:   r.ExpiresIn,
		Scope:       r.Scope,
	}
	if r.CreatedAt > 0 {
		s.CreatedAt = time.Unix(r.CreatedAt, 0).UTC()
	}
	return s
}

func (r userResponse) toUser() jogs.User {
	return jogs.User{
		ID:        r.ID,
		Email:     r.Email,
		Phone:     r.Phone,
		Role:      r.Role,
		FirstName: r.FirstName,
		LastName:  r.LastName,
	}
}

// toJog keeps a jog without a date, the report builder skips it later.
func (r jogResponse) toJog() jogs.Jog {
	j := jogs.Jog{
		ID:       r.ID,
		UserID:   r.UserID,
		Distance: r.Distance,
		Time:     r.Time,
	}
	if r.Date != nil {
		j.Date = jogs.Ptr(jogs.FromUnix(*r.Date))
	}
	return j
}

func (r syncResponse) toSyncData() *jogs.SyncData {
	data := &jogs.SyncData{
		Jogs:  make([]jogs.Jog, 0, len(r.Jogs)),
		Users: make([]jogs.User, 0, len(r.Users)),
	}
	for _, j := range r.Jogs {
		data.Jogs = append(data.Jogs, j.toJog())
	}
	for _, u := range r.Users {
		data.Users = append(data.Users, u.toUser())
	}
	return data
}
