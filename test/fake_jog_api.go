//go:build integration

package test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"sync"
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

// fakeJogAPI stands in for the remote jog service, one user and a handful of jogs.
type fakeJogAPI struct {
	srv *httptest.Server

	mu     sync.Mutex
	jogs   []remoteJog
	nextID int
}

const (
	remoteUserID = "runner-1"
	remoteToken  = "remote-token"
)

func newFakeJogAPI() *fakeJogAPI {
	day := func(month time.Month, d int) int64 {
		return time.Date(2024, month, d, 0, 0, 0, 0, time.UTC).Unix()
	}

	f := &fakeJogAPI{
		nextID: 10,
		jogs: []remoteJog{
			{ID: 1, UserID: remoteUserID, Distance: 5, Time: 30, Date: day(time.April, 1)},
			{ID: 2, UserID: remoteUserID, Distance: 10, Time: 60, Date: day(time.April, 3)},
			{ID: 3, UserID: remoteUserID, Distance: 4, Time: 20, Date: day(time.April, 9)},
			{ID: 4, UserID: "runner-2", Distance: 21, Time: 120, Date: day(time.April, 2)},
		},
	}
	f.srv = httptest.NewServer(http.HandlerFunc(f.serve))
	return f
}

func (f *fakeJogAPI) serve(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	form, _ := url.ParseQuery(string(body))

	if r.URL.Path == "/api/v1/auth/uuidLogin" {
		writeEnvelope(w, map[string]any{"access_token": remoteToken, "token_type": "bearer"})
		return
	}
	if r.Header.Get("Authorization") != "Bearer "+remoteToken {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	switch {
	case r.URL.Path == "/api/v1/auth/user":
		writeEnvelope(w, map[string]any{"id": remoteUserID, "email": "runner@jogs.test"})
	case r.URL.Path == "/api/v1/data/sync":
		writeEnvelope(w, map[string]any{"jogs": f.jogs, "users": []any{}})
	case r.URL.Path == "/api/v1/data/jog" && r.Method == http.MethodPost:
		date, err := time.Parse("2006-01-02", form.Get("date"))
		if err != nil {
			http.Error(w, "bad date", http.StatusBadRequest)
			return
		}
		minutes, _ := strconv.Atoi(form.Get("time"))
		distance, _ := strconv.ParseFloat(form.Get("distance"), 64)
		f.nextID++
		f.jogs = append(f.jogs, remoteJog{ID: f.nextID, UserID: remoteUserID, Distance: distance, Time: minutes, Date: date.Unix()})
		writeEnvelope(w, map[string]any{})
	case r.URL.Path == "/api/v1/data/jog" && r.Method == http.MethodDelete:
		id, _ := strconv.Atoi(form.Get("jog_id"))
		kept := f.jogs[:0]
		for _, j := range f.jogs {
			if j.ID != id {
				kept = append(kept, j)
			}
		}
		f.jogs = kept
		writeEnvelope(w, map[string]any{})
	default:
		http.NotFound(w, r)
	}
}

func writeEnvelope(w http.ResponseWriter, v any) {
	body, _ := json.Marshal(map[string]any{"response": v, "timestamp": time.Now().Unix()})
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(body)
}
