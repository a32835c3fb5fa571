package tracker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/2beens/jogtracker/internal/auth"
	"github.com/2beens/jogtracker/internal/jogs"
	"github.com/2beens/jogtracker/internal/jogsync"
	"github.com/2beens/jogtracker/internal/report"
	"github.com/2beens/jogtracker/internal/telemetry/metrics"
	"github.com/2beens/jogtracker/internal/telemetry/tracing"

	"github.com/goccy/go-json"
	log "github.com/sirupsen/logrus"
)

var ErrUserMismatch = errors.New("remote user does not match the session")

// Session is the live state behind a login: the sync coordinator and the
// weekly reports built from its jogs.
type Session struct {
	Token       string
	Coordinator *jogsync.Coordinator
	Reports     *report.Collection
	StartedAt   time.Time

	unsubscribe func()
}

func (s *Session) UserID() string {
	if u := s.Coordinator.User(); u != nil {
		return u.ID
	}
	return ""
}

func (s *Session) close() {
	s.unsubscribe()
	s.Coordinator.Close()
}

// StreamMessage is what stream clients receive after every successful sync.
type StreamMessage struct {
	Type   string     `json:"type"`
	UserID string     `json:"userId"`
	Jogs   []jogs.Jog `json:"jogs"`
	SentAt int64      `json:"sentAt"`
}

// Registry keeps one Session per login token. Sessions outlive the requests
// that use them, and are rebuilt on demand for tokens that are still valid in
// the session store (after a restart, or on another instance).
type Registry struct {
	client  jogsync.NetworkClient
	hub     *Hub
	metrics *metrics.Manager

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewRegistry creates the registry; hub and metricsManager may be nil.
func NewRegistry(client jogsync.NetworkClient, hub *Hub, metricsManager *metrics.Manager) *Registry {
	return &Registry{
		client:   client,
		hub:      hub,
		metrics:  metricsManager,
		sessions: map[string]*Session{},
	}
}

// Start builds a session for accessToken, loads the user and their jogs.
// The session is not registered yet, see Attach. A failed jog sync is not
// fatal: the session is returned and the error is kept by the coordinator.
func (r *Registry) Start(ctx context.Context, accessToken string) (_ *Session, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "registry.start")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	coordinator := jogsync.NewCoordinator(r.client, accessToken, r.metrics)
	reports := report.NewCollection()

	s := &Session{
		Coordinator: coordinator,
		Reports:     reports,
		StartedAt:   time.Now(),
	}
	s.unsubscribe = coordinator.Subscribe(func(userJogs []jogs.Jog) {
		reports.Replace(userJogs)
		r.publish(coordinator, userJogs)
	})

	user, err := coordinator.LoadUser(ctx)
	if user == nil {
		s.close()
		return nil, err
	}
	if err != nil {
		log.Warnf("registry: user [%s] loaded, but the first sync failed: %s", user.ID, err)
	}

	return s, nil
}

// Attach registers s under token. If another session got registered for the
// same token in the meantime, s is closed and the existing one is returned.
func (r *Registry) Attach(token string, s *Session) *Session {
	r.mu.Lock()
	existing, ok := r.sessions[token]
	if !ok {
		s.Token = token
		r.sessions[token] = s
		r.updateGauge()
	}
	r.mu.Unlock()

	if ok {
		s.close()
		return existing
	}
	return s
}

// Get returns the live session for the stored login session, rebuilding it if needed.
func (r *Registry) Get(ctx context.Context, authSession *auth.Session) (*Session, error) {
	r.mu.Lock()
	s, ok := r.sessions[authSession.Token]
	r.mu.Unlock()
	if ok {
		return s, nil
	}

	log.Debugf("registry: rebuilding session for user [%s]", authSession.UserID)
	s, err := r.Start(ctx, authSession.AccessToken)
	if err != nil {
		return nil, fmt.Errorf("rebuild session: %w", err)
	}
	if s.UserID() != authSession.UserID {
		s.close()
		return nil, ErrUserMismatch
	}

	return r.Attach(authSession.Token, s), nil
}

// Remove closes and forgets the session of token, reporting whether there was one.
func (r *Registry) Remove(token string) bool {
	r.mu.Lock()
	s, ok := r.sessions[token]
	delete(r.sessions, token)
	r.updateGauge()
	r.mu.Unlock()

	if ok {
		s.close()
	}
	return ok
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

func (r *Registry) CloseAll() {
	r.mu.Lock()
	sessions := r.sessions
	r.sessions = map[string]*Session{}
	r.updateGauge()
	r.mu.Unlock()

	var wg sync.WaitGroup
	for _, s := range sessions {
		wg.Add(1)
		go func(s *Session) {
			defer wg.Done()
			s.close()
		}(s)
	}
	wg.Wait()
}

func (r *Registry) updateGauge() {
	if r.metrics != nil {
		r.metrics.GaugeActiveSessions.Set(float64(len(r.sessions)))
	}
}

// publish runs on the sync goroutine and must not block.
func (r *Registry) publish(coordinator *jogsync.Coordinator, userJogs []jogs.Jog) {
	if r.hub == nil {
		return
	}
	user := coordinator.User()
	if user == nil {
		return
	}

	payload, err := json.Marshal(StreamMessage{
		Type:   "jogs",
		UserID: user.ID,
		Jogs:   userJogs,
		SentAt: time.Now().Unix(),
	})
	if err != nil {
		log.Errorf("registry: marshal stream message: %s", err)
		return
	}
	r.hub.Broadcast(user.ID, payload)
}
