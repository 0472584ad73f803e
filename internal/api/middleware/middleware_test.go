package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIdentity(t *testing.T) {
	var (
		sid    string
		hasSID bool
		guid   *string
	)
	h := Identity(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sid, hasSID = GetSessionID(r.Context())
		guid = GetUserGUID(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(HeaderSessionID, " s1 ")
	req.Header.Set(HeaderUserGUID, "user-1")
	h.ServeHTTP(httptest.NewRecorder(), req)

	assert.True(t, hasSID)
	assert.Equal(t, "s1", sid)
	require.NotNil(t, guid)
	assert.Equal(t, "user-1", *guid)

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.False(t, hasSID)
	assert.Nil(t, guid)
}

type observed struct {
	method string
	path   string
	status int
}

type fakeHTTPMetrics struct {
	calls []observed
}

func (m *fakeHTTPMetrics) ObserveHTTPRequest(method, path string, status int, _ time.Duration) {
	m.calls = append(m.calls, observed{method: method, path: path, status: status})
}

func TestMetricsMiddleware_UsesRouteTemplate(t *testing.T) {
	m := &fakeHTTPMetrics{}
	r := mux.NewRouter()
	r.Use(MetricsMiddleware(m))
	r.HandleFunc("/api/v1/holds/{token}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}).Methods(http.MethodDelete)

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodDelete, "/api/v1/holds/abc", nil))

	require.Len(t, m.calls, 1)
	assert.Equal(t, observed{method: http.MethodDelete, path: "/api/v1/holds/{token}", status: http.StatusNoContent}, m.calls[0])
}

func TestRateLimiter_PerSession(t *testing.T) {
	l := NewRateLimiter(1, 2, time.Minute)
	now := time.Date(2026, 3, 4, 10, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }

	h := Identity(l.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	})))

	send := func(session string) int {
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		req.Header.Set(HeaderSessionID, session)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusCreated, send("a"))
	assert.Equal(t, http.StatusCreated, send("a"))
	assert.Equal(t, http.StatusTooManyRequests, send("a"))
	assert.Equal(t, http.StatusCreated, send("b"))

	now = now.Add(time.Second)
	assert.Equal(t, http.StatusCreated, send("a"))
}

func TestRateLimiter_Cleanup(t *testing.T) {
	l := NewRateLimiter(1, 1, time.Minute)
	now := time.Date(2026, 3, 4, 10, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }

	l.Allow("a")
	now = now.Add(30 * time.Second)
	l.Allow("b")
	now = now.Add(45 * time.Second)

	assert.Equal(t, 1, l.Cleanup())
	assert.Len(t, l.entries, 1)
}
