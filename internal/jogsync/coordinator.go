package jogsync

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/2beens/jogtracker/internal/jogs"
	"github.com/2beens/jogtracker/internal/telemetry/metrics"
	"github.com/2beens/jogtracker/internal/telemetry/tracing"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

var (
	ErrClosed       = errors.New("sync coordinator closed")
	ErrNoUser       = errors.New("current user not loaded")
	ErrResyncFailed = errors.New("mutation applied, but the following sync failed")
)

const (
	opCreate = "create"
	opUpdate = "update"
	opDelete = "delete"
)

// Listener is called with the user's jogs after every successful sync.
// Listeners run on the sync goroutine, so they must not block or call Sync.
type Listener func(userJogs []jogs.Jog)

type syncCall struct {
	done    chan struct{}
	waiters int
	jogs    []jogs.Jog
	err     error
}

func newSyncCall() *syncCall {
	return &syncCall{done: make(chan struct{})}
}

// Coordinator keeps the server-reconciled jogs of the current user.
//
// At most one sync is in flight at any time. Syncs requested while one is
// running are coalesced into a single follow-up sync, so the held jogs always
// reflect a fetch that started after the latest mutation finished.
type Coordinator struct {
	client      NetworkClient
	accessToken string
	metrics     *metrics.Manager

	// lifetime of the coordinator, independent of any caller
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu        sync.Mutex
	closed    bool
	state     State
	lastErr   error
	user      *jogs.User
	userJogs  []jogs.Jog
	inflight  *syncCall
	pending   *syncCall
	listeners map[int]Listener
	nextLisID int
}

// NewCoordinator creates a coordinator for the given access token.
// metricsManager may be nil.
func NewCoordinator(client NetworkClient, accessToken string, metricsManager *metrics.Manager) *Coordinator {
	ctx, cancel := context.WithCancel(context.Background())
	return &Coordinator{
		client:      client,
		accessToken: accessToken,
		metrics:     metricsManager,
		ctx:         ctx,
		cancel:      cancel,
		state:       StateUninitialized,
		userJogs:    []jogs.Jog{},
		listeners:   make(map[int]Listener),
	}
}

// LoadUser fetches the current user and then syncs their jogs. When only the
// sync fails, the loaded user is returned together with the error.
func (c *Coordinator) LoadUser(ctx context.Context) (_ *jogs.User, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "jogsync.loadUser")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	ctx, done, err := c.begin(ctx)
	if err != nil {
		return nil, err
	}
	defer done()

	c.setState(StateLoadingUser)
	user, err := c.client.FetchCurrentUser(ctx, c.accessToken)
	if err != nil {
		err = c.closedOr(fmt.Errorf("fetch current user: %w", err))
		c.fail(err)
		return nil, err
	}
	if user == nil || user.ID == "" {
		err = errors.New("fetch current user: empty user")
		c.fail(err)
		return nil, err
	}

	c.mu.Lock()
	c.user = user
	c.state = StateUserLoaded
	c.mu.Unlock()
	span.SetAttributes(attribute.String("user.id", user.ID))
	log.Debugf("jogsync: user [%s] loaded", user.ID)

	if _, err := c.Sync(ctx); err != nil {
		return user, fmt.Errorf("sync jogs: %w", err)
	}
	return user, nil
}

// Sync fetches all remote data and keeps only the current user's jogs, in server order.
// Cancelling ctx stops the wait, not the sync itself.
func (c *Coordinator) Sync(ctx context.Context) ([]jogs.Jog, error) {
	call, err := c.requestSync()
	if err != nil {
		return nil, err
	}

	select {
	case <-call.done:
		if call.err != nil {
			return nil, call.err
		}
		return slices.Clone(call.jogs), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (c *Coordinator) requestSync() (*syncCall, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil, ErrClosed
	}

	if c.inflight == nil {
		c.inflight = newSyncCall()
		c.inflight.waiters++
		c.wg.Add(1)
		go c.runSyncs(c.inflight)
		return c.inflight, nil
	}

	if c.pending == nil {
		c.pending = newSyncCall()
	}
	c.pending.waiters++
	return c.pending, nil
}

func (c *Coordinator) runSyncs(call *syncCall) {
	defer c.wg.Done()
	for call != nil {
		c.execute(call)

		c.mu.Lock()
		call = c.pending
		c.pending = nil
		c.inflight = call
		c.mu.Unlock()
	}
}

func (c *Coordinator) execute(call *syncCall) {
	defer close(call.done)

	c.mu.Lock()
	user := c.user
	if user == nil {
		c.mu.Unlock()
		call.err = ErrNoUser
		return
	}
	c.state = StateSyncingJogs
	c.mu.Unlock()

	start := time.Now()
	synced, err := c.fetchUserJogs(c.ctx, user.ID)
	if err != nil {
		err = c.closedOr(err)
	}
	c.observeSync(start, err)

	c.mu.Lock()
	if err != nil {
		if !errors.Is(err, ErrClosed) {
			c.state = StateError
			c.lastErr = err
		}
		c.mu.Unlock()
		log.Warnf("jogsync: sync for user [%s] failed: %s", user.ID, err)
		call.err = err
		return
	}
	c.userJogs = synced
	c.state = StateReady
	c.lastErr = nil
	listeners := make([]Listener, 0, len(c.listeners))
	for _, l := range c.listeners {
		listeners = append(listeners, l)
	}
	c.mu.Unlock()

	call.jogs = synced
	for _, l := range listeners {
		l(slices.Clone(synced))
	}
}

func (c *Coordinator) fetchUserJogs(ctx context.Context, userID string) (_ []jogs.Jog, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "jogsync.sync")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	data, err := c.client.FetchAllData(ctx, c.accessToken)
	if err != nil {
		return nil, fmt.Errorf("fetch all data: %w", err)
	}
	if data == nil {
		return []jogs.Jog{}, nil
	}

	userJogs := jogs.FilterByUser(data.Jogs, userID)
	span.SetAttributes(
		attribute.Int("jogs.total", len(data.Jogs)),
		attribute.Int("jogs.user", len(userJogs)),
	)
	log.Tracef("jogsync: synced %d/%d jogs for user [%s]", len(userJogs), len(data.Jogs), userID)

	return userJogs, nil
}

// Create submits a new jog and resyncs. The jog is validated before any request is sent.
func (c *Coordinator) Create(ctx context.Context, jog jogs.Jog) ([]jogs.Jog, error) {
	sub, err := jog.Submission()
	if err != nil {
		c.observeMutation(opCreate, err)
		return nil, err
	}
	return c.mutate(ctx, opCreate, func(ctx context.Context) error {
		return c.client.CreateJog(ctx, sub, c.accessToken)
	})
}

// Update submits an edited jog and resyncs. The jog must carry its server assigned ids.
func (c *Coordinator) Update(ctx context.Context, jog jogs.Jog) ([]jogs.Jog, error) {
	id, userID, err := jog.Identified()
	if err != nil {
		c.observeMutation(opUpdate, err)
		return nil, err
	}
	sub, err := jog.Submission()
	if err != nil {
		c.observeMutation(opUpdate, err)
		return nil, err
	}
	sub.ID, sub.UserID = id, userID

	return c.mutate(ctx, opUpdate, func(ctx context.Context) error {
		return c.client.UpdateJog(ctx, sub, c.accessToken)
	})
}

// Delete removes the jog remotely and resyncs.
func (c *Coordinator) Delete(ctx context.Context, jog jogs.Jog) ([]jogs.Jog, error) {
	id, userID, err := jog.Identified()
	if err != nil {
		c.observeMutation(opDelete, err)
		return nil, err
	}
	return c.mutate(ctx, opDelete, func(ctx context.Context) error {
		return c.client.DeleteJog(ctx, id, userID, c.accessToken)
	})
}

// mutate runs the remote call and, only when it succeeds, a full resync.
// Local state is never patched with the submitted jog.
func (c *Coordinator) mutate(ctx context.Context, op string, call func(ctx context.Context) error) (_ []jogs.Jog, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "jogsync."+op)
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	ctx, done, err := c.begin(ctx)
	if err != nil {
		return nil, err
	}
	defer done()

	if err := call(ctx); err != nil {
		err = c.closedOr(fmt.Errorf("%s jog: %w", op, err))
		c.observeMutation(op, err)
		return nil, err
	}
	c.observeMutation(op, nil)

	synced, err := c.Sync(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrResyncFailed, err)
	}
	return synced, nil
}

// Subscribe registers l for successful syncs and returns the func that removes it.
func (c *Coordinator) Subscribe(l Listener) (unsubscribe func()) {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := c.nextLisID
	c.nextLisID++
	c.listeners[id] = l

	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.listeners, id)
	}
}

func (c *Coordinator) User() *jogs.User {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.user == nil {
		return nil
	}
	u := *c.user
	return &u
}

// Jogs returns the jogs held since the last successful sync.
func (c *Coordinator) Jogs() []jogs.Jog {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.userJogs)
}

func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// LastError is the error of the last failed step, reset by a successful sync.
func (c *Coordinator) LastError() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

// Close cancels in-flight work and waits for it to finish. Later calls return ErrClosed.
func (c *Coordinator) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.listeners = make(map[int]Listener)
	c.mu.Unlock()

	c.cancel()
	c.wg.Wait()
}

// begin registers an operation with the coordinator and derives a context
// that is cancelled by either the caller or Close.
func (c *Coordinator) begin(ctx context.Context) (context.Context, func(), error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil, nil, ErrClosed
	}
	c.wg.Add(1)

	opCtx, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(c.ctx, cancel)
	return opCtx, func() {
		stop()
		cancel()
		c.wg.Done()
	}, nil
}

func (c *Coordinator) closedOr(err error) error {
	if c.ctx.Err() != nil {
		return ErrClosed
	}
	return err
}

func (c *Coordinator) setState(s State) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = s
}

func (c *Coordinator) fail(err error) {
	if errors.Is(err, ErrClosed) {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = StateError
	c.lastErr = err
}

func (c *Coordinator) observeSync(start time.Time, err error) {
	if c.metrics == nil {
		return
	}
	c.metrics.HistSyncDuration.Observe(time.Since(start).Seconds())
	c.metrics.CounterSyncs.WithLabelValues(status(err)).Inc()
}

func (c *Coordinator) observeMutation(op string, err error) {
	if c.metrics == nil {
		return
	}
	c.metrics.CounterMutations.WithLabelValues(op, status(err)).Inc()
}

func status(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, jogs.ErrInvalidJog), errors.Is(err, jogs.ErrMissingIdentifier):
		return "invalid"
	case errors.Is(err, ErrClosed):
		return "closed"
	default:
		return "error"
	}
}
