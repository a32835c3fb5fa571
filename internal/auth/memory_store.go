package auth

import (
	"context"
	"strconv"
	"sync"
	"time"
)

// MemoryStore is an in-process SessionStore, used for local development
// without redis and in tests.
type MemoryStore struct {
	mutex    sync.Mutex
	ttl      time.Duration
	sessions map[string]Session
	counter  int
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		ttl:      ttl,
		sessions: map[string]Session{},
	}
}

func (s *MemoryStore) Login(_ context.Context, accessToken, userID string, createdAt time.Time) (string, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.counter++
	token := "session-" + strconv.Itoa(s.counter)
	s.sessions[token] = Session{
		Token:       token,
		AccessToken: accessToken,
		UserID:      userID,
		CreatedAt:   createdAt,
	}
	return token, nil
}

func (s *MemoryStore) Get(_ context.Context, token string) (*Session, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	session, ok := s.sessions[token]
	if !ok {
		return nil, ErrSessionNotFound
	}
	if time.Since(session.CreatedAt) > s.ttl {
		delete(s.sessions, token)
		return nil, ErrSessionExpired
	}
	return &session, nil
}

func (s *MemoryStore) Logout(_ context.Context, token string) (bool, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	_, ok := s.sessions[token]
	delete(s.sessions, token)
	return ok, nil
}
