package jogs

import "time"

type User struct {
	ID        string `json:"id"`
	Email     string `json:"email,omitempty"`
	Phone     string `json:"phone,omitempty"`
	Role      string `json:"role,omitempty"`
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
}

// AuthSession is what a successful UUID login yields. The access token is
// opaque and only ever passed back to the remote service as a bearer credential.
type AuthSession struct {
	AccessToken string    `json:"accessToken"`
	TokenType   string    `json:"tokenType"`
	ExpiresIn   int       `json:"expiresIn"`
	Scope       string    `json:"scope"`
	CreatedAt   time.Time `json:"createdAt"`
	User        *User     `json:"user,omitempty"`
}

// SyncData is the full cross-user data set returned by the remote sync endpoint.
type SyncData struct {
	Jogs  []Jog
	Users []User
}
