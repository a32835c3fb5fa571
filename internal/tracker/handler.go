package tracker

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/2beens/jogtracker/internal/auth"
	"github.com/2beens/jogtracker/internal/cache"
	"github.com/2beens/jogtracker/internal/jogapi"
	"github.com/2beens/jogtracker/internal/jogs"
	"github.com/2beens/jogtracker/internal/jogsync"
	"github.com/2beens/jogtracker/internal/middleware"
	"github.com/2beens/jogtracker/internal/report"
	"github.com/2beens/jogtracker/internal/telemetry/metrics"
	"github.com/2beens/jogtracker/internal/telemetry/tracing"
	"github.com/2beens/jogtracker/pkg"

	"github.com/goccy/go-json"
	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// RemoteService is the remote jog tracker API as the http layer uses it.
type RemoteService interface {
	jogsync.NetworkClient
	Login(ctx context.Context, uuid string) (*jogs.AuthSession, error)
	SendFeedback(ctx context.Context, feedback jogs.Feedback, accessToken string) error
}

type Handler struct {
	remote      RemoteService
	sessions    auth.SessionStore
	registry    *Registry
	hub         *Hub
	reportCache cache.Cache
	metrics     *metrics.Manager
	versionInfo string
}

func NewHandler(
	remote RemoteService,
	sessions auth.SessionStore,
	registry *Registry,
	hub *Hub,
	reportCache cache.Cache,
	metricsManager *metrics.Manager,
	versionInfo string,
) *Handler {
	if reportCache == nil {
		reportCache = cache.NoopCache{}
	}
	return &Handler{
		remote:      remote,
		sessions:    sessions,
		registry:    registry,
		hub:         hub,
		reportCache: reportCache,
		metrics:     metricsManager,
		versionInfo: versionInfo,
	}
}

func (handler *Handler) SetupRoutes(
	mainRouter *mux.Router,
	rateLimiter middleware.RequestRateLimiter,
	loginRateLimitAllowedPerMin int,
) {
	mainRouter.HandleFunc("/", handler.handleRoot).Methods("GET", "OPTIONS").Name("root")
	mainRouter.HandleFunc("/version", handler.handleVersion).Methods("GET").Name("version")
	mainRouter.HandleFunc("/topics", handler.handleTopics).Methods("GET", "OPTIONS").Name("topics")

	mainRouter.HandleFunc("/jogs", handler.handleListJogs).Methods("GET", "OPTIONS").Name("list-jogs")
	mainRouter.HandleFunc("/jogs", handler.handleCreateJog).Methods("POST", "OPTIONS").Name("new-jog")
	mainRouter.HandleFunc("/jogs/sync", handler.handleSync).Methods("POST", "OPTIONS").Name("sync-jogs")
	mainRouter.HandleFunc("/jogs/stream", handler.handleStream).Methods("GET").Name("stream-jogs")
	mainRouter.HandleFunc("/jogs/{id}", handler.handleUpdateJog).Methods("PUT", "OPTIONS").Name("update-jog")
	mainRouter.HandleFunc("/jogs/{id}", handler.handleDeleteJog).Methods("DELETE", "OPTIONS").Name("delete-jog")

	mainRouter.HandleFunc("/reports", handler.handleReports).Methods("GET", "OPTIONS").Name("reports")
	mainRouter.HandleFunc("/reports/toggle", handler.handleToggleReports).Methods("POST", "OPTIONS").Name("toggle-reports")

	mainRouter.HandleFunc("/feedback", handler.handleFeedback).Methods("POST", "OPTIONS").Name("feedback")

	loginSubrouter := mainRouter.PathPrefix("/a").Subrouter()
	loginSubrouter.
		HandleFunc("/login", handler.handleLogin).
		Methods("POST", "OPTIONS").Name("login")
	loginSubrouter.
		HandleFunc("/logout", handler.handleLogout).
		Methods("GET", "OPTIONS").Name("logout")

	// rate limit the login endpoints, every login hits the remote service
	if rateLimiter != nil {
		loginSubrouter.Use(middleware.RateLimit(rateLimiter, "login", loginRateLimitAllowedPerMin, handler.metrics))
	}
}

type jogsResponse struct {
	Jogs      []jogs.Jog    `json:"jogs"`
	Total     int           `json:"total"`
	State     jogsync.State `json:"state"`
	LastError string        `json:"lastError,omitempty"`
	Warning   string        `json:"warning,omitempty"`
}

type loginResponse struct {
	Token string        `json:"token"`
	User  *jogs.User    `json:"user"`
	State jogsync.State `json:"state"`
}

type reportsResponse struct {
	Ascending bool          `json:"ascending"`
	Reports   []report.View `json:"reports"`
	Total     int           `json:"total"`
}

type topicResponse struct {
	ID   jogs.TopicID `json:"id"`
	Name string       `json:"name"`
}

func (handler *Handler) handleRoot(w http.ResponseWriter, _ *http.Request) {
	pkg.WriteTextResponseOK(w, "I'm running, thanks ;)")
}

func (handler *Handler) handleVersion(w http.ResponseWriter, _ *http.Request) {
	pkg.WriteTextResponseOK(w, handler.versionInfo)
}

func (handler *Handler) handleTopics(w http.ResponseWriter, _ *http.Request) {
	topics := make([]topicResponse, 0, len(jogs.AllTopics()))
	for _, t := range jogs.AllTopics() {
		topics = append(topics, topicResponse{ID: t, Name: "Topic " + t.String()})
	}
	writeJSON(w, http.StatusOK, topics)
}

func (handler *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "trackerHandler.login")
	defer span.End()

	if r.Method == http.MethodOptions {
		w.Header().Add("Allow", "POST, OPTIONS")
		w.WriteHeader(http.StatusOK)
		return
	}

	if err := r.ParseForm(); err != nil {
		log.Errorf("login failed, parse form error: %s", err)
		http.Error(w, "parse form error", http.StatusBadRequest)
		return
	}
	uuid := strings.TrimSpace(r.Form.Get("uuid"))
	if uuid == "" {
		http.Error(w, "error, uuid empty", http.StatusBadRequest)
		return
	}

	authSession, err := handler.remote.Login(ctx, uuid)
	if err != nil {
		handler.countLogin("failed")
		span.SetStatus(codes.Error, "remote-login-failed")
		span.RecordError(err)
		log.Warnf("remote login failed: %s", err)
		http.Error(w, "login failed", remoteErrorStatus(err))
		return
	}

	s, err := handler.registry.Start(ctx, authSession.AccessToken)
	if err != nil {
		handler.countLogin("failed")
		span.SetStatus(codes.Error, "load-user-failed")
		span.RecordError(err)
		log.Errorf("login, load user: %s", err)
		http.Error(w, "failed to load user", remoteErrorStatus(err))
		return
	}

	user := s.Coordinator.User()
	token, err := handler.sessions.Login(ctx, authSession.AccessToken, user.ID, time.Now())
	if err != nil {
		s.close()
		handler.countLogin("failed")
		span.SetStatus(codes.Error, "store-session-failed")
		span.RecordError(err)
		log.Errorf("login, store session: %s", err)
		http.Error(w, "failed to store session", http.StatusInternalServerError)
		return
	}
	s = handler.registry.Attach(token, s)

	handler.countLogin("ok")
	span.SetAttributes(attribute.String("user.id", user.ID))
	span.SetStatus(codes.Ok, "ok")
	log.Debugf("new login for user [%s]", user.ID)

	writeJSON(w, http.StatusOK, loginResponse{
		Token: token,
		User:  user,
		State: s.Coordinator.State(),
	})
}

func (handler *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "trackerHandler.logout")
	defer span.End()

	if r.Method == http.MethodOptions {
		w.Header().Add("Allow", "GET, OPTIONS")
		w.WriteHeader(http.StatusOK)
		return
	}

	authToken := r.Header.Get(auth.TokenHeader)
	if authToken == "" {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	loggedOut, err := handler.sessions.Logout(ctx, authToken)
	if err != nil {
		log.Errorf("logout failed: %s", err)
		http.Error(w, "logout failed", http.StatusInternalServerError)
		return
	}
	removed := handler.registry.Remove(authToken)
	if !loggedOut && !removed {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	log.Debugf("logout success")
	pkg.WriteTextResponseOK(w, "logged-out")
}

func (handler *Handler) handleListJogs(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		w.Header().Add("Allow", "GET, POST, OPTIONS")
		w.WriteHeader(http.StatusOK)
		return
	}

	s, ok := handler.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, newJogsResponse(s, s.Coordinator.Jogs(), ""))
}

func (handler *Handler) handleSync(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "trackerHandler.sync")
	defer span.End()

	if r.Method == http.MethodOptions {
		w.Header().Add("Allow", "POST, OPTIONS")
		w.WriteHeader(http.StatusOK)
		return
	}

	s, ok := handler.session(w, r)
	if !ok {
		return
	}

	synced, err := s.Coordinator.Sync(ctx)
	if err != nil {
		span.SetStatus(codes.Error, "sync-failed")
		span.RecordError(err)
		log.Errorf("sync jogs for user [%s]: %s", s.UserID(), err)
		http.Error(w, "sync failed", remoteErrorStatus(err))
		return
	}

	span.SetStatus(codes.Ok, "ok")
	writeJSON(w, http.StatusOK, newJogsResponse(s, synced, ""))
}

func (handler *Handler) handleCreateJog(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "trackerHandler.createJog")
	defer span.End()

	s, ok := handler.session(w, r)
	if !ok {
		return
	}

	if err := r.ParseForm(); err != nil {
		log.Errorf("add new jog failed, parse form error: %s", err)
		http.Error(w, "parse form error", http.StatusBadRequest)
		return
	}

	jog, _, err := jogs.ParseForm(formFromRequest(r, jogs.Form{}), jogs.Jog{})
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	synced, err := s.Coordinator.Create(ctx, jog)
	handler.writeMutationResult(w, s, "create", synced, err, http.StatusCreated)
}

func (handler *Handler) handleUpdateJog(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "trackerHandler.updateJog")
	defer span.End()

	s, ok := handler.session(w, r)
	if !ok {
		return
	}

	existing, ok := handler.jogFromPath(w, r, s)
	if !ok {
		return
	}

	if err := r.ParseForm(); err != nil {
		log.Errorf("update jog failed, parse form error: %s", err)
		http.Error(w, "parse form error", http.StatusBadRequest)
		return
	}

	// fields not sent keep their current values
	jog, _, err := jogs.ParseForm(formFromRequest(r, jogs.FormFromJog(existing)), existing)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	synced, err := s.Coordinator.Update(ctx, jog)
	handler.writeMutationResult(w, s, "update", synced, err, http.StatusOK)
}

func (handler *Handler) handleDeleteJog(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "trackerHandler.deleteJog")
	defer span.End()

	s, ok := handler.session(w, r)
	if !ok {
		return
	}

	existing, ok := handler.jogFromPath(w, r, s)
	if !ok {
		return
	}

	synced, err := s.Coordinator.Delete(ctx, existing)
	handler.writeMutationResult(w, s, "delete", synced, err, http.StatusOK)
}

func (handler *Handler) handleReports(w http.ResponseWriter, r *http.Request) {
	_, span := tracing.GlobalTracer.Start(r.Context(), "trackerHandler.reports")
	defer span.End()

	if r.Method == http.MethodOptions {
		w.Header().Add("Allow", "GET, OPTIONS")
		w.WriteHeader(http.StatusOK)
		return
	}

	s, ok := handler.session(w, r)
	if !ok {
		return
	}

	ascending := s.Reports.Ascending()
	switch order := r.URL.Query().Get("order"); order {
	case "":
	case "asc":
		ascending = true
	case "desc":
		ascending = false
	default:
		http.Error(w, "error, order must be asc or desc", http.StatusBadRequest)
		return
	}

	reports, version := s.Reports.ReportsInOrder(ascending)
	cacheKey := fmt.Sprintf("reports::%s::%d::%t", s.Token, version, ascending)
	if cached, found := handler.reportCache.Get(cacheKey); found {
		span.SetAttributes(attribute.Bool("cache.hit", true))
		pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, cached)
		return
	}

	respBytes, err := json.Marshal(reportsResponse{
		Ascending: ascending,
		Reports:   report.Views(reports),
		Total:     len(reports),
	})
	if err != nil {
		log.Errorf("marshal reports: %s", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	if err := handler.reportCache.Set(cacheKey, respBytes); err != nil {
		log.Warnf("cache reports: %s", err)
	}
	if handler.metrics != nil {
		handler.metrics.GaugeReportCache.Set(float64(handler.reportCache.EntryCount()))
	}
	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, respBytes)
}

func (handler *Handler) handleToggleReports(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		w.Header().Add("Allow", "POST, OPTIONS")
		w.WriteHeader(http.StatusOK)
		return
	}

	s, ok := handler.session(w, r)
	if !ok {
		return
	}

	ascending := s.Reports.ToggleSortOrder()
	writeJSON(w, http.StatusOK, map[string]bool{"ascending": ascending})
}

func (handler *Handler) handleFeedback(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "trackerHandler.feedback")
	defer span.End()

	if r.Method == http.MethodOptions {
		w.Header().Add("Allow", "POST, OPTIONS")
		w.WriteHeader(http.StatusOK)
		return
	}

	authSession, ok := auth.SessionFromContext(r.Context())
	if !ok {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	if err := r.ParseForm(); err != nil {
		log.Errorf("send feedback failed, parse form error: %s", err)
		http.Error(w, "parse form error", http.StatusBadRequest)
		return
	}

	topicID, err := jogs.ParseTopicID(r.Form.Get("topic_id"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	feedback := jogs.Feedback{TopicID: topicID, Text: r.Form.Get("text")}
	if err := feedback.Validate(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := handler.remote.SendFeedback(ctx, feedback, authSession.AccessToken); err != nil {
		span.SetStatus(codes.Error, "send-feedback-failed")
		span.RecordError(err)
		log.Errorf("send feedback: %s", err)
		http.Error(w, "failed to send feedback", remoteErrorStatus(err))
		return
	}

	span.SetStatus(codes.Ok, "ok")
	pkg.WriteTextResponseOK(w, "feedback-sent")
}

// session returns the live session of the request, rebuilding it if needed.
func (handler *Handler) session(w http.ResponseWriter, r *http.Request) (*Session, bool) {
	authSession, ok := auth.SessionFromContext(r.Context())
	if !ok {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return nil, false
	}

	s, err := handler.registry.Get(r.Context(), authSession)
	if err != nil {
		log.Errorf("get session for user [%s]: %s", authSession.UserID, err)
		if errors.Is(err, ErrUserMismatch) {
			http.Error(w, "no can do", http.StatusUnauthorized)
			return nil, false
		}
		http.Error(w, "failed to load session", remoteErrorStatus(err))
		return nil, false
	}
	return s, true
}

func (handler *Handler) jogFromPath(w http.ResponseWriter, r *http.Request, s *Session) (jogs.Jog, bool) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "error, jog id NaN", http.StatusBadRequest)
		return jogs.Jog{}, false
	}
	for _, j := range s.Coordinator.Jogs() {
		if j.ID != nil && *j.ID == id {
			return j, true
		}
	}
	http.Error(w, "error, jog not found", http.StatusNotFound)
	return jogs.Jog{}, false
}

func (handler *Handler) writeMutationResult(
	w http.ResponseWriter,
	s *Session,
	op string,
	synced []jogs.Jog,
	err error,
	okStatus int,
) {
	switch {
	case err == nil:
		writeJSON(w, okStatus, newJogsResponse(s, synced, ""))
	case errors.Is(err, jogsync.ErrResyncFailed):
		// the change is stored remotely, only the refreshed list is missing
		log.Warnf("%s jog for user [%s]: %s", op, s.UserID(), err)
		writeJSON(w, http.StatusAccepted, newJogsResponse(s, s.Coordinator.Jogs(), err.Error()))
	default:
		log.Errorf("%s jog for user [%s]: %s", op, s.UserID(), err)
		http.Error(w, fmt.Sprintf("failed to %s jog", op), remoteErrorStatus(err))
	}
}

func (handler *Handler) countLogin(status string) {
	if handler.metrics != nil {
		handler.metrics.CounterLogins.WithLabelValues(status).Inc()
	}
}

func newJogsResponse(s *Session, userJogs []jogs.Jog, warning string) jogsResponse {
	resp := jogsResponse{
		Jogs:    userJogs,
		Total:   len(userJogs),
		State:   s.Coordinator.State(),
		Warning: warning,
	}
	if err := s.Coordinator.LastError(); err != nil {
		resp.LastError = err.Error()
	}
	return resp
}

// formFromRequest overrides the fields of base with the ones sent in the request.
func formFromRequest(r *http.Request, base jogs.Form) jogs.Form {
	if v := r.Form.Get("date"); v != "" {
		base.Date = v
	}
	if v := r.Form.Get("time"); v != "" {
		base.Time = v
	}
	if v := r.Form.Get("distance"); v != "" {
		base.Distance = v
	}
	return base
}

// remoteErrorStatus maps a failed jog operation to the status returned to the client.
func remoteErrorStatus(err error) int {
	var reqErr *jogapi.RequestError
	switch {
	case errors.Is(err, jogs.ErrInvalidJog),
		errors.Is(err, jogs.ErrMissingIdentifier),
		errors.Is(err, jogs.ErrInvalidTopic),
		errors.Is(err, jogs.ErrEmptyFeedback):
		return http.StatusBadRequest
	case errors.Is(err, jogsync.ErrClosed), errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable
	case errors.As(err, &reqErr) && reqErr.StatusCode == http.StatusUnauthorized:
		return http.StatusUnauthorized
	default:
		return http.StatusBadGateway
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	respBytes, err := json.Marshal(v)
	if err != nil {
		log.Errorf("marshal response: %s", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, respBytes, status)
}
