package app

import (
	"io/fs"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	auth "github.com/dailyflow/dailyflow/internal/auth"
	"github.com/dailyflow/dailyflow/internal/dailyreport"
	reporthttp "github.com/dailyflow/dailyflow/internal/dailyreport/http"
	"github.com/dailyflow/dailyflow/internal/observability"
	"github.com/dailyflow/dailyflow/internal/rbac"
	"github.com/dailyflow/dailyflow/internal/shared"
	"github.com/dailyflow/dailyflow/jobs"
	"github.com/dailyflow/dailyflow/report"
	"github.com/dailyflow/dailyflow/web"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger         *slog.Logger
	Config         *Config
	SessionManager *shared.SessionManager
	CSRFManager    *shared.CSRFManager
	RBACMiddleware rbac.Middleware

	AuthHandler   *auth.Handler
	PagesHandler  *dailyreport.Handler
	ExportHandler *reporthttp.Handler
	ReportHandler *report.Handler
	JobHandler    *jobs.Handler
	Metrics       *observability.Metrics
}

// NewRouter constructs the chi.Router with DailyFlow defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:         params.Logger,
		Config:         params.Config,
		SessionManager: params.SessionManager,
		CSRFManager:    params.CSRFManager,
		Metrics:        params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.With(params.RBACMiddleware.RequireUser).Get("/", func(w http.ResponseWriter, r *http.Request) {
		p, _ := shared.PrincipalFromContext(r.Context())
		http.Redirect(w, r, p.Role.HomePath(), http.StatusSeeOther)
	})

	r.Route("/auth", params.AuthHandler.MountRoutes)

	if params.PagesHandler != nil {
		r.Route("/employee", func(r chi.Router) {
			r.Use(params.RBACMiddleware.RequireUser)
			params.PagesHandler.MountEmployeeRoutes(r)
		})
	}

	r.Route("/admin", func(r chi.Router) {
		// Export and archive answer JSON problems instead of redirects, so they
		// stay outside the page guard and authorize on their own.
		if params.ExportHandler != nil {
			params.ExportHandler.MountRoutes(r)
		}
		if params.PagesHandler != nil {
			r.Group(func(r chi.Router) {
				r.Use(params.RBACMiddleware.RequireRole(shared.RoleAdmin))
				params.PagesHandler.MountAdminRoutes(r)
			})
		}
	})

	if params.ReportHandler != nil {
		r.Route("/report", params.ReportHandler.MountRoutes)
	}
	if params.JobHandler != nil {
		r.Route("/jobs", params.JobHandler.MountRoutes)
	}
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	staticFS, err := fs.Sub(web.Static, "static")
	if err != nil {
		params.Logger.Error("create static sub filesystem", slog.Any("error", err))
	} else {
		fileServer := http.StripPrefix("/static/", http.FileServer(http.FS(staticFS)))
		r.Handle("/static/*", staticCacheHandler(fileServer))
	}

	return r
}

// staticCacheHandler marks static assets cacheable for one hour.
func staticCacheHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "public, max-age=3600")
		next.ServeHTTP(w, r)
	})
}
