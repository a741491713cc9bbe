package dailyreport

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/dailyflow/dailyflow/internal/shared"
	"github.com/dailyflow/dailyflow/internal/view"
)

const dashboardReportLimit = 50

// PageStore is the read side used by the HTML pages.
type PageStore interface {
	ListUserReports(ctx context.Context, userID uuid.UUID, limit int) ([]Report, error)
	GetReport(ctx context.Context, id uuid.UUID) (ReportDetail, error)
	FindProfile(ctx context.Context, userID uuid.UUID) (Profile, error)
	ListAreaSummaries(ctx context.Context, from, to time.Time) ([]AreaSummary, error)
	ListAreaMembers(ctx context.Context, areaID uuid.UUID) ([]Member, error)
}

// Submitter stores new reports.
type Submitter interface {
	Submit(ctx context.Context, userID uuid.UUID, in Submission) (uuid.UUID, error)
}

// Handler serves the employee and admin report pages.
type Handler struct {
	logger    *slog.Logger
	store     PageStore
	submitter Submitter
	templates *view.Engine
	csrf      *shared.CSRFManager
	location  *time.Location
	now       func() time.Time
}

// NewHandler builds a Handler. Weeks are computed in loc.
func NewHandler(logger *slog.Logger, store PageStore, submitter Submitter, templates *view.Engine, csrf *shared.CSRFManager, loc *time.Location) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	if loc == nil {
		loc = time.Local
	}
	return &Handler{
		logger:    logger,
		store:     store,
		submitter: submitter,
		templates: templates,
		csrf:      csrf,
		location:  loc,
		now:       time.Now,
	}
}

// WithNow overrides the clock for deterministic tests.
func (h *Handler) WithNow(now func() time.Time) *Handler {
	if now != nil {
		h.now = now
	}
	return h
}

// MountEmployeeRoutes registers the employee pages.
func (h *Handler) MountEmployeeRoutes(r chi.Router) {
	r.Get("/dashboard", h.employeeDashboard)
	r.Get("/reports/new", h.newReport)
	r.Post("/reports", h.createReport)
	r.Get("/reports/{id}", h.employeeReport)
}

// MountAdminRoutes registers the admin pages.
func (h *Handler) MountAdminRoutes(r chi.Router) {
	r.Get("/dashboard", h.adminDashboard)
	r.Get("/reports/{id}", h.adminReport)
	r.Get("/employees/{id}", h.adminEmployee)
}

type employeeDashboardData struct {
	Profile Profile
	Reports []Report
}

type reportForm struct {
	Title   string
	Content string
	Mood    string
	Images  []string
}

type reportFormData struct {
	Form   reportForm
	Errors map[string]string
	Moods  []Mood
}

type adminDashboardData struct {
	Week      Week
	WeekParam string
	Areas     []AreaSummary
	// Selected is the area whose members are listed, nil when none is chosen.
	Selected *AreaSummary
	Members  []Member
}

type adminEmployeeData struct {
	UserID  uuid.UUID
	Profile Profile
	Reports []Report
}

func (h *Handler) employeeDashboard(w http.ResponseWriter, r *http.Request) {
	principal, _ := shared.PrincipalFromContext(r.Context())
	profile, err := h.store.FindProfile(r.Context(), principal.UserID)
	if err != nil && !errors.Is(err, ErrNotFound) {
		h.serverError(w, "load profile", err)
		return
	}
	reports, err := h.store.ListUserReports(r.Context(), principal.UserID, dashboardReportLimit)
	if err != nil {
		h.serverError(w, "list user reports", err)
		return
	}
	h.render(w, r, http.StatusOK, "pages/employee_dashboard.html", "Mis reportes", employeeDashboardData{Profile: profile, Reports: reports})
}

func (h *Handler) newReport(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, "pages/employee_report_new.html", "Nuevo reporte", newReportFormData(reportForm{}, nil))
}

func (h *Handler) createReport(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	principal, _ := shared.PrincipalFromContext(r.Context())
	form := reportForm{
		Title:   r.PostFormValue("title"),
		Content: r.PostFormValue("content"),
		Mood:    r.PostFormValue("mood"),
		Images:  r.PostForm["images"],
	}
	id, err := h.submitter.Submit(r.Context(), principal.UserID, Submission(form))
	if err != nil {
		var verr *ValidationError
		if errors.As(err, &verr) {
			h.render(w, r, http.StatusBadRequest, "pages/employee_report_new.html", "Nuevo reporte", newReportFormData(form, verr.Fields))
			return
		}
		h.logger.Error("create report", slog.Any("error", err), slog.String("user_id", principal.UserID.String()))
		h.render(w, r, http.StatusInternalServerError, "pages/employee_report_new.html", "Nuevo reporte",
			newReportFormData(form, map[string]string{"general": "No se pudo guardar el reporte, intenta de nuevo"}))
		return
	}
	if sess := shared.SessionFromContext(r.Context()); sess != nil {
		sess.AddFlash(shared.FlashMessage{Kind: "success", Message: "Reporte enviado"})
	}
	http.Redirect(w, r, "/employee/reports/"+id.String(), http.StatusSeeOther)
}

func newReportFormData(form reportForm, errs map[string]string) reportFormData {
	images := make([]string, MaxImagesPerReport)
	copy(images, form.Images)
	form.Images = images
	return reportFormData{Form: form, Errors: errs, Moods: Moods()}
}

func (h *Handler) employeeReport(w http.ResponseWriter, r *http.Request) {
	principal, _ := shared.PrincipalFromContext(r.Context())
	detail, ok := h.loadReport(w, r)
	if !ok {
		return
	}
	if detail.EmployeeID != principal.UserID {
		http.NotFound(w, r)
		return
	}
	h.render(w, r, http.StatusOK, "pages/employee_report_detail.html", "Reporte", detail)
}

func (h *Handler) adminDashboard(w http.ResponseWriter, r *http.Request) {
	ref := h.now().In(h.location)
	if raw := r.URL.Query().Get("week"); raw != "" {
		parsed, err := time.ParseInLocation("2006-01-02", raw, h.location)
		if err != nil {
			http.Error(w, "semana inválida", http.StatusBadRequest)
			return
		}
		ref = parsed
	}
	var selectedID uuid.UUID
	if raw := r.URL.Query().Get("area"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			http.Error(w, "área inválida", http.StatusBadRequest)
			return
		}
		selectedID = id
	}
	week := WorkWeek(ref)
	areas, err := h.store.ListAreaSummaries(r.Context(), week.Start, week.End)
	if err != nil {
		h.serverError(w, "list area summaries", err)
		return
	}
	data := adminDashboardData{
		Week:      week,
		WeekParam: week.Start.Format("2006-01-02"),
		Areas:     areas,
	}
	if selectedID != uuid.Nil {
		for i := range areas {
			if areas[i].ID == selectedID {
				data.Selected = &areas[i]
				break
			}
		}
		if data.Selected == nil {
			http.NotFound(w, r)
			return
		}
		data.Members, err = h.store.ListAreaMembers(r.Context(), selectedID)
		if err != nil {
			h.serverError(w, "list area members", err)
			return
		}
	}
	h.render(w, r, http.StatusOK, "pages/admin_dashboard.html", "Áreas", data)
}

func (h *Handler) adminEmployee(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.NotFound(w, r)
		return
	}
	profile, err := h.store.FindProfile(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		h.serverError(w, "load profile", err)
		return
	}
	reports, err := h.store.ListUserReports(r.Context(), id, dashboardReportLimit)
	if err != nil {
		h.serverError(w, "list user reports", err)
		return
	}
	h.render(w, r, http.StatusOK, "pages/admin_employee_detail.html", profile.FullName, adminEmployeeData{
		UserID:  id,
		Profile: profile,
		Reports: reports,
	})
}

func (h *Handler) adminReport(w http.ResponseWriter, r *http.Request) {
	detail, ok := h.loadReport(w, r)
	if !ok {
		return
	}
	h.render(w, r, http.StatusOK, "pages/admin_report_detail.html", "Reporte", detail)
}

func (h *Handler) loadReport(w http.ResponseWriter, r *http.Request) (ReportDetail, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.NotFound(w, r)
		return ReportDetail{}, false
	}
	detail, err := h.store.GetReport(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			http.NotFound(w, r)
			return ReportDetail{}, false
		}
		h.serverError(w, "get report", err)
		return ReportDetail{}, false
	}
	return detail, true
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, status int, name, title string, data any) {
	sess := shared.SessionFromContext(r.Context())
	csrfToken, _ := h.csrf.EnsureToken(sess)
	var flash *shared.FlashMessage
	if sess != nil {
		flash = sess.PopFlash()
	}
	principal, _ := shared.PrincipalFromContext(r.Context())
	viewData := view.TemplateData{
		Title:       title,
		CSRFToken:   csrfToken,
		Flash:       flash,
		CurrentPath: r.URL.Path,
		Role:        principal.Role,
		Data:        data,
	}
	if err := h.templates.Render(w, status, name, viewData); err != nil {
		h.logger.Error("render page", slog.String("template", name), slog.Any("error", err))
	}
}

func (h *Handler) serverError(w http.ResponseWriter, msg string, err error) {
	h.logger.Error(msg, slog.Any("error", err))
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}
