package cli

import (
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

type fakeJog struct {
	ID       int     `json:"id"`
	UserID   string  `json:"user_id"`
	Distance float64 `json:"distance"`
	Time     int     `json:"time"`
	Date     *int64  `json:"date"`
}

type fakeRequest struct {
	method string
	path   string
	form   url.Values
}

// fakeJogAPI accepts any uuid; the access token is "token-<uuid>" and the user "user-<uuid>".
type fakeJogAPI struct {
	srv *httptest.Server

	mu       sync.Mutex
	jogs     []fakeJog
	nextID   int
	requests []fakeRequest
}

func newFakeJogAPI(t *testing.T, seed ...fakeJog) *fakeJogAPI {
	t.Helper()
	f := &fakeJogAPI{jogs: seed, nextID: 500}
	f.srv = httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fakeJogAPI) baseURL() string {
	return f.srv.URL + "/api"
}

func (f *fakeJogAPI) mutations() []fakeRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	var mutations []fakeRequest
	for _, r := range f.requests {
		if r.method != http.MethodGet {
			mutations = append(mutations, r)
		}
	}
	return mutations
}

func dateOf(year int, month time.Month, day int) *int64 {
	sec := time.Date(year, month, day, 0, 0, 0, 0, time.UTC).Unix()
	return &sec
}

func (f *fakeJogAPI) serve(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	form, _ := url.ParseQuery(string(body))

	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, fakeRequest{method: r.Method, path: r.URL.Path, form: form})

	if r.URL.Path == "/api/v1/auth/uuidLogin" {
		writeFakeEnvelope(w, map[string]any{"access_token": "token-" + form.Get("uuid"), "token_type": "bearer"})
		return
	}

	token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer token-")
	if token == r.Header.Get("Authorization") || token == "" {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	userID := "user-" + token

	switch {
	case r.URL.Path == "/api/v1/auth/user":
		writeFakeEnvelope(w, map[string]any{"id": userID, "email": token + "@jogs.test"})
	case r.URL.Path == "/api/v1/data/sync":
		writeFakeEnvelope(w, map[string]any{"jogs": f.jogs, "users": []any{}})
	case r.URL.Path == "/api/v1/data/jog" && r.Method == http.MethodPost:
		f.nextID++
		f.jogs = append(f.jogs, fakeJogFromForm(f.nextID, userID, form))
		writeFakeEnvelope(w, map[string]any{})
	case r.URL.Path == "/api/v1/data/jog" && r.Method == http.MethodPut:
		id, _ := strconv.Atoi(form.Get("jog_id"))
		for i := range f.jogs {
			if f.jogs[i].ID == id {
				f.jogs[i] = fakeJogFromForm(id, form.Get("user_id"), form)
			}
		}
		writeFakeEnvelope(w, map[string]any{})
	case r.URL.Path == "/api/v1/data/jog" && r.Method == http.MethodDelete:
		id, _ := strconv.Atoi(form.Get("jog_id"))
		kept := f.jogs[:0]
		for _, j := range f.jogs {
			if j.ID != id {
				kept = append(kept, j)
			}
		}
		f.jogs = kept
		writeFakeEnvelope(w, map[string]any{})
	case r.URL.Path == "/api/v1/feedback/send":
		writeFakeEnvelope(w, map[string]any{})
	default:
		http.NotFound(w, r)
	}
}

func fakeJogFromForm(id int, userID string, form url.Values) fakeJog {
	date, _ := time.Parse("2006-01-02", form.Get("date"))
	sec := date.Unix()
	minutes, _ := strconv.Atoi(form.Get("time"))
	distance, _ := strconv.ParseFloat(form.Get("distance"), 64)
	return fakeJog{ID: id, UserID: userID, Distance: distance, Time: minutes, Date: &sec}
}

func writeFakeEnvelope(w http.ResponseWriter, v any) {
	body, _ := json.Marshal(map[string]any{"response": v, "timestamp": time.Now().Unix()})
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(body)
}
