package tracker_test

import (
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"
)

type remoteJog struct {
	ID       int     `json:"id"`
	UserID   string  `json:"user_id"`
	Distance float64 `json:"distance"`
	Time     int     `json:"time"`
	Date     int64   `json:"date"`
}

type remoteFeedback struct {
	TopicID string
	Text    string
}

// fakeRemote is an in-memory stand-in for the remote jog tracker service.
// Logging in with uuid X yields access token "token-X" for user "user-X".
type fakeRemote struct {
	srv *httptest.Server

	mu        sync.Mutex
	jogs      []remoteJog
	nextID    int
	failSync  bool
	syncCalls int
	feedback  []remoteFeedback
}

func newFakeRemote(t *testing.T) *fakeRemote {
	t.Helper()
	f := &fakeRemote{nextID: 100}
	f.srv = httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(f.srv.Close)
	return f
}

func unixDay(year int, month time.Month, day int) int64 {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC).Unix()
}

func (f *fakeRemote) addJog(j remoteJog) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.jogs = append(f.jogs, j)
}

func (f *fakeRemote) setFailSync(fail bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failSync = fail
}

func (f *fakeRemote) syncCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.syncCalls
}

func (f *fakeRemote) receivedFeedback() []remoteFeedback {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]remoteFeedback(nil), f.feedback...)
}

func (f *fakeRemote) serve(w http.ResponseWriter, r *http.Request) {
	// DELETE bodies are not parsed by ParseForm
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	form, err := url.ParseQuery(string(body))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	r.PostForm = form

	if r.URL.Path == "/api/v1/auth/uuidLogin" {
		uuid := r.PostForm.Get("uuid")
		if uuid == "" || uuid == "unknown" {
			http.Error(w, "bad uuid", http.StatusBadRequest)
			return
		}
		writeEnvelope(w, map[string]any{
			"access_token": "token-" + uuid,
			"token_type":   "bearer",
			"expires_in":   7200,
			"scope":        "",
			"created_at":   time.Now().Unix(),
		})
		return
	}

	token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !strings.HasPrefix(token, "token-") {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	userID := "user-" + strings.TrimPrefix(token, "token-")

	f.mu.Lock()
	defer f.mu.Unlock()

	switch {
	case r.URL.Path == "/api/v1/auth/user":
		writeEnvelope(w, map[string]any{"id": userID, "email": userID + "@jogs.test"})
	case r.URL.Path == "/api/v1/data/sync":
		f.syncCalls++
		if f.failSync {
			http.Error(w, "sync is down", http.StatusInternalServerError)
			return
		}
		writeEnvelope(w, map[string]any{"jogs": f.jogs, "users": []any{}})
	case r.URL.Path == "/api/v1/data/jog" && r.Method == http.MethodPost:
		j, err := jogFromForm(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		f.nextID++
		j.ID, j.UserID = f.nextID, userID
		f.jogs = append(f.jogs, j)
		writeEnvelope(w, j)
	case r.URL.Path == "/api/v1/data/jog" && r.Method == http.MethodPut:
		j, err := jogFromForm(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		id, _ := strconv.Atoi(r.PostForm.Get("jog_id"))
		for i := range f.jogs {
			if f.jogs[i].ID == id && f.jogs[i].UserID == r.PostForm.Get("user_id") {
				j.ID, j.UserID = id, f.jogs[i].UserID
				f.jogs[i] = j
				writeEnvelope(w, j)
				return
			}
		}
		http.Error(w, "no such jog", http.StatusNotFound)
	case r.URL.Path == "/api/v1/data/jog" && r.Method == http.MethodDelete:
		id, _ := strconv.Atoi(r.PostForm.Get("jog_id"))
		for i := range f.jogs {
			if f.jogs[i].ID == id {
				f.jogs = append(f.jogs[:i], f.jogs[i+1:]...)
				writeEnvelope(w, map[string]any{})
				return
			}
		}
		http.Error(w, "no such jog", http.StatusNotFound)
	case r.URL.Path == "/api/v1/feedback/send":
		f.feedback = append(f.feedback, remoteFeedback{
			TopicID: r.PostForm.Get("topic_id"),
			Text:    r.PostForm.Get("text"),
		})
		writeEnvelope(w, map[string]any{})
	default:
		http.NotFound(w, r)
	}
}

func jogFromForm(r *http.Request) (remoteJog, error) {
	date, err := time.Parse("2006-01-02", r.PostForm.Get("date"))
	if err != nil {
		return remoteJog{}, fmt.Errorf("date: %w", err)
	}
	minutes, err := strconv.Atoi(r.PostForm.Get("time"))
	if err != nil {
		return remoteJog{}, fmt.Errorf("time: %w", err)
	}
	distance, err := strconv.ParseFloat(r.PostForm.Get("distance"), 64)
	if err != nil {
		return remoteJog{}, fmt.Errorf("distance: %w", err)
	}
	return remoteJog{Distance: distance, Time: minutes, Date: date.Unix()}, nil
}

func writeEnvelope(w http.ResponseWriter, v any) {
	body, err := json.Marshal(map[string]any{"response": v, "timestamp": time.Now().Unix()})
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(body)
}
