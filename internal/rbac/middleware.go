package rbac

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/dailyflow/dailyflow/internal/shared"
)

// LoginPath is where anonymous callers are sent.
const LoginPath = "/auth/login"

// Middleware gates page routes by session and role. Failures redirect rather
// than answer with a status code since the routes serve HTML.
type Middleware struct {
	Service RoleResolver
	Logger  *slog.Logger
}

// RequireUser ensures the request carries an authenticated, active user and
// stores the resolved principal in the request context.
func (m Middleware) RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		principal, ok := m.resolve(w, r)
		if !ok {
			return
		}
		next.ServeHTTP(w, r.WithContext(shared.ContextWithPrincipal(r.Context(), principal)))
	})
}

// RequireRole ensures the authenticated user holds role. Users with another
// role are redirected to their own home page.
func (m Middleware) RequireRole(role shared.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, ok := m.resolve(w, r)
			if !ok {
				return
			}
			if principal.Role != role {
				http.Redirect(w, r, principal.Role.HomePath(), http.StatusSeeOther)
				return
			}
			next.ServeHTTP(w, r.WithContext(shared.ContextWithPrincipal(r.Context(), principal)))
		})
	}
}

func (m Middleware) resolve(w http.ResponseWriter, r *http.Request) (shared.Principal, bool) {
	if p, ok := shared.PrincipalFromContext(r.Context()); ok {
		return p, true
	}
	sess := shared.SessionFromContext(r.Context())
	userID, ok := sess.UserID()
	if !ok {
		http.Redirect(w, r, LoginPath, http.StatusSeeOther)
		return shared.Principal{}, false
	}
	role, err := m.Service.Role(r.Context(), userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			http.Redirect(w, r, LoginPath, http.StatusSeeOther)
			return shared.Principal{}, false
		}
		if m.Logger != nil {
			m.Logger.Error("rbac resolve role", slog.Any("error", err), slog.String("user_id", userID.String()))
		}
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return shared.Principal{}, false
	}
	return shared.Principal{UserID: userID, Role: role}, true
}
