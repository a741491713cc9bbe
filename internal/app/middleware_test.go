package app

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dailyflow/dailyflow/internal/shared"
)

func newStackRouter(t *testing.T) (chi.Router, *shared.SessionManager) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	sessions := shared.NewSessionManager(client, "dailyflow_session", time.Hour, false)
	csrf := shared.NewCSRFManager("csrf-secret")

	r := chi.NewRouter()
	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Config:         &Config{AppEnv: "test", AppRequestTimeout: 5 * time.Second},
		SessionManager: sessions,
		CSRFManager:    csrf,
	}) {
		r.Use(mw)
	}
	r.Get("/token", func(w http.ResponseWriter, r *http.Request) {
		token, err := csrf.EnsureToken(shared.SessionFromContext(r.Context()))
		require.NoError(t, err)
		_, _ = w.Write([]byte(token))
	})
	r.Post("/submit", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	return r, sessions
}

func TestMiddlewareSetsSecurityHeadersAndSession(t *testing.T) {
	r, sessions := newStackRouter(t)

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/token", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "DENY", rr.Header().Get("X-Frame-Options"))
	assert.Contains(t, rr.Header().Get("Content-Security-Policy"), "img-src 'self' https: data:")
	cookies := rr.Result().Cookies()
	require.NotEmpty(t, cookies)
	assert.Equal(t, sessions.CookieName(), cookies[0].Name)
}

func TestMiddlewareCSRF(t *testing.T) {
	r, sessions := newStackRouter(t)

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/token", nil))
	token := rr.Body.String()
	var cookie *http.Cookie
	for _, c := range rr.Result().Cookies() {
		if c.Name == sessions.CookieName() {
			cookie = c
		}
	}
	require.NotNil(t, cookie)

	post := func(form url.Values) int {
		req := httptest.NewRequest(http.MethodPost, "/submit", strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		req.AddCookie(cookie)
		res := httptest.NewRecorder()
		r.ServeHTTP(res, req)
		return res.Code
	}

	assert.Equal(t, http.StatusForbidden, post(url.Values{}))
	assert.Equal(t, http.StatusForbidden, post(url.Values{shared.CSRFFormField: {"forged"}}))
	assert.Equal(t, http.StatusNoContent, post(url.Values{shared.CSRFFormField: {token}}))
}
