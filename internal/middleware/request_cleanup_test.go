package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

type trackingBody struct {
	io.Reader
	closed bool
}

func (b *trackingBody) Close() error {
	b.closed = true
	return nil
}

func TestDrainAndCloseRequest(t *testing.T) {
	body := &trackingBody{Reader: strings.NewReader("date=2024-01-02&time=30&distance=5")}
	req := httptest.NewRequest("POST", "/jogs", nil)
	req.Body = body

	handler := DrainAndCloseRequest()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// handler reads nothing
	}))
	handler.ServeHTTP(httptest.NewRecorder(), req)

	assert.True(t, body.closed)
	rest, _ := io.ReadAll(body.Reader)
	assert.Empty(t, rest)
}
