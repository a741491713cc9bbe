package auth_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"

	"github.com/dailyflow/dailyflow/internal/auth"
	"github.com/dailyflow/dailyflow/internal/shared"
	"github.com/dailyflow/dailyflow/internal/view"
	_ "github.com/dailyflow/dailyflow/testing"
)

type stubRepo struct {
	user     *auth.User
	created  []string
	deleted  []string
	lastUser uuid.UUID
	lastIP   string
	failWith error
}

func (s *stubRepo) FindByEmail(ctx context.Context, email string) (*auth.User, error) {
	if s.failWith != nil {
		return nil, s.failWith
	}
	if s.user == nil || !strings.EqualFold(s.user.Email, email) {
		return nil, shared.ErrInvalidCredentials
	}
	return s.user, nil
}

func (s *stubRepo) CreateSession(ctx context.Context, info auth.SessionInfo) error {
	s.created = append(s.created, info.ID)
	s.lastUser = info.UserID
	s.lastIP = info.IP
	return nil
}

func (s *stubRepo) DeleteSession(ctx context.Context, id string) error {
	s.deleted = append(s.deleted, id)
	return nil
}

func newAuthHandler(t *testing.T, repo auth.Repository) (*auth.Handler, *shared.SessionManager) {
	t.Helper()
	mr := miniredis.RunT(t)
	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = redisClient.Close() })
	sessionManager := shared.NewSessionManager(redisClient, "test_session", time.Hour, false)
	csrfManager := shared.NewCSRFManager("csrfsecret")
	templates, err := view.NewEngine(nil)
	if err != nil {
		t.Fatalf("templates: %v", err)
	}
	handler := auth.NewHandler(nil, auth.NewService(repo), templates, sessionManager, csrfManager)
	return handler, sessionManager
}

func activeUser(t *testing.T, role shared.Role) *auth.User {
	t.Helper()
	hashed, err := bcrypt.GenerateFromPassword([]byte("correctpass"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	return &auth.User{ID: uuid.New(), Email: "user@test.local", PasswordHash: string(hashed), Role: role, IsActive: true}
}

// primeSession runs the login page once so the session exists in redis with a
// csrf token, and returns it.
func primeSession(t *testing.T, handler *auth.Handler, sessionManager *shared.SessionManager) *shared.Session {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/auth/login", nil)
	sess, err := sessionManager.Load(context.Background(), req)
	if err != nil {
		t.Fatalf("load session: %v", err)
	}
	ctx := shared.ContextWithSession(req.Context(), sess)
	res := httptest.NewRecorder()
	handler.ShowLoginForTest(res, req.WithContext(ctx))
	if err := sessionManager.Commit(ctx, res, sess); err != nil {
		t.Fatalf("commit session: %v", err)
	}
	if res.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", res.Code)
	}
	return sess
}

func postLogin(t *testing.T, handler *auth.Handler, sessionManager *shared.SessionManager, sess *shared.Session, email, password string) (*httptest.ResponseRecorder, *shared.Session) {
	t.Helper()
	form := url.Values{}
	form.Set("email", email)
	form.Set("password", password)
	form.Set(shared.CSRFFormField, sess.Get(shared.CSRFSessionKey))

	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.AddCookie(&http.Cookie{Name: sessionManager.CookieName(), Value: sess.ID})

	loaded, err := sessionManager.Load(context.Background(), req)
	if err != nil {
		t.Fatalf("load session for post: %v", err)
	}
	ctx := shared.ContextWithSession(req.Context(), loaded)
	res := httptest.NewRecorder()
	handler.HandleLoginForTest(res, req.WithContext(ctx))
	if err := sessionManager.Commit(ctx, res, loaded); err != nil {
		t.Fatalf("commit session post: %v", err)
	}
	return res, loaded
}

func TestLoginPage(t *testing.T) {
	handler, sessionManager := newAuthHandler(t, &stubRepo{})
	sess := primeSession(t, handler, sessionManager)
	if sess.Get(shared.CSRFSessionKey) == "" {
		t.Fatalf("csrf token not set")
	}
}

func TestLoginPageRedirectsAuthenticatedUser(t *testing.T) {
	handler, sessionManager := newAuthHandler(t, &stubRepo{})

	req := httptest.NewRequest(http.MethodGet, "/auth/login", nil)
	sess, err := sessionManager.Load(context.Background(), req)
	if err != nil {
		t.Fatalf("load session: %v", err)
	}
	sess.SetUser(uuid.New())
	res := httptest.NewRecorder()
	handler.ShowLoginForTest(res, req.WithContext(shared.ContextWithSession(req.Context(), sess)))

	if res.Code != http.StatusSeeOther || res.Header().Get("Location") != "/" {
		t.Fatalf("expected redirect to /, got %d %q", res.Code, res.Header().Get("Location"))
	}
}

func TestLoginInvalidCredentials(t *testing.T) {
	repo := &stubRepo{user: activeUser(t, shared.RoleEmployee)}
	handler, sessionManager := newAuthHandler(t, repo)
	sess := primeSession(t, handler, sessionManager)

	res, loaded := postLogin(t, handler, sessionManager, sess, "user@test.local", "wrongpass")

	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", res.Code)
	}
	if !strings.Contains(res.Body.String(), "Correo o contraseña incorrectos") {
		t.Fatalf("expected error message in response")
	}
	if _, ok := loaded.UserID(); ok {
		t.Fatalf("session must stay anonymous after failed login")
	}
	if len(repo.created) != 0 {
		t.Fatalf("no session should be registered, got %v", repo.created)
	}
}

func TestLoginValidationErrors(t *testing.T) {
	handler, sessionManager := newAuthHandler(t, &stubRepo{})
	sess := primeSession(t, handler, sessionManager)

	res, _ := postLogin(t, handler, sessionManager, sess, "no-es-correo", "corto")

	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", res.Code)
	}
	body := res.Body.String()
	if !strings.Contains(body, "Correo no válido") {
		t.Fatalf("expected email error in body")
	}
}

func TestLoginSuccessRedirectsByRole(t *testing.T) {
	cases := map[shared.Role]string{
		shared.RoleAdmin:    "/admin/dashboard",
		shared.RoleEmployee: "/employee/dashboard",
	}
	for role, want := range cases {
		t.Run(string(role), func(t *testing.T) {
			repo := &stubRepo{user: activeUser(t, role)}
			handler, sessionManager := newAuthHandler(t, repo)
			sess := primeSession(t, handler, sessionManager)
			previousID := sess.ID

			res, loaded := postLogin(t, handler, sessionManager, sess, "USER@test.local", "correctpass")

			if res.Code != http.StatusSeeOther {
				t.Fatalf("expected 303, got %d", res.Code)
			}
			if got := res.Header().Get("Location"); got != want {
				t.Fatalf("expected redirect to %s, got %s", want, got)
			}
			userID, ok := loaded.UserID()
			if !ok || userID != repo.user.ID {
				t.Fatalf("session user not set")
			}
			if loaded.ID == previousID {
				t.Fatalf("session id must rotate on login")
			}
			if len(repo.created) != 1 || repo.created[0] != loaded.ID || repo.lastUser != repo.user.ID {
				t.Fatalf("expected session registration for %s, got %v", loaded.ID, repo.created)
			}
			if repo.lastIP != "192.0.2.1" {
				t.Fatalf("expected client ip without port, got %q", repo.lastIP)
			}
		})
	}
}

func TestLoginRejectsInactiveUser(t *testing.T) {
	user := activeUser(t, shared.RoleEmployee)
	user.IsActive = false
	handler, sessionManager := newAuthHandler(t, &stubRepo{user: user})
	sess := primeSession(t, handler, sessionManager)

	res, _ := postLogin(t, handler, sessionManager, sess, "user@test.local", "correctpass")
	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", res.Code)
	}
}

func TestLoginStoreFailureIs500(t *testing.T) {
	handler, sessionManager := newAuthHandler(t, &stubRepo{failWith: errors.New("connection refused")})
	sess := primeSession(t, handler, sessionManager)

	res, _ := postLogin(t, handler, sessionManager, sess, "user@test.local", "correctpass")
	if res.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", res.Code)
	}
}

func TestLogoutDestroysSession(t *testing.T) {
	repo := &stubRepo{}
	handler, sessionManager := newAuthHandler(t, repo)
	sess := primeSession(t, handler, sessionManager)

	req := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
	req.AddCookie(&http.Cookie{Name: sessionManager.CookieName(), Value: sess.ID})
	loaded, err := sessionManager.Load(context.Background(), req)
	if err != nil {
		t.Fatalf("load session: %v", err)
	}
	ctx := shared.ContextWithSession(req.Context(), loaded)
	res := httptest.NewRecorder()
	handler.HandleLogoutForTest(res, req.WithContext(ctx))
	if err := sessionManager.Commit(ctx, res, loaded); err != nil {
		t.Fatalf("commit: %v", err)
	}

	if res.Code != http.StatusSeeOther || res.Header().Get("Location") != "/auth/login" {
		t.Fatalf("expected redirect to login, got %d %q", res.Code, res.Header().Get("Location"))
	}
	if len(repo.deleted) != 1 || repo.deleted[0] != sess.ID {
		t.Fatalf("expected session %s removed, got %v", sess.ID, repo.deleted)
	}

	again := httptest.NewRequest(http.MethodGet, "/", nil)
	again.AddCookie(&http.Cookie{Name: sessionManager.CookieName(), Value: sess.ID})
	reloaded, err := sessionManager.Load(context.Background(), again)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if reloaded.ID == sess.ID {
		t.Fatalf("destroyed session must not be reloaded")
	}
}
