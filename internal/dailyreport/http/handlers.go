package reporthttp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/dailyflow/dailyflow/internal/dailyreport"
	"github.com/dailyflow/dailyflow/internal/dailyreport/export"
	"github.com/dailyflow/dailyflow/internal/platform/httpx"
	"github.com/dailyflow/dailyflow/internal/rbac"
	"github.com/dailyflow/dailyflow/internal/shared"
	"github.com/dailyflow/dailyflow/jobs"
)

const (
	weekLayout         = "2006-01-02"
	defaultTimeout     = 25 * time.Second
	noReportsDetail    = "No hay reportes en esta semana laboral"
	exportFailedDetail = "No se pudo generar el reporte"
)

var errNotAdmin = errors.New("reporthttp: caller is not an admin")

// Exporter produces weekly area files.
type Exporter interface {
	ExportPDF(ctx context.Context, req export.Request) (export.Result, error)
	ExportXLSX(ctx context.Context, req export.Request) (export.Result, error)
}

// ArchiveQueue enqueues weekly archive tasks.
type ArchiveQueue interface {
	EnqueueWeeklyArchive(ctx context.Context, payload jobs.WeeklyArchivePayload) (*asynq.TaskInfo, error)
}

// Handler serves the weekly export endpoints.
type Handler struct {
	logger   *slog.Logger
	exporter Exporter
	roles    rbac.RoleResolver
	queue    ArchiveQueue
	location *time.Location
	timeout  time.Duration
	validate *validator.Validate
	now      func() time.Time
}

// NewHandler constructs the export handler. queue may be nil when the worker
// is not deployed; the archive endpoint then answers 503.
func NewHandler(logger *slog.Logger, exporter Exporter, roles rbac.RoleResolver, queue ArchiveQueue, loc *time.Location, timeout time.Duration) *Handler {
	if loc == nil {
		loc = time.Local
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Handler{
		logger:   logger,
		exporter: exporter,
		roles:    roles,
		queue:    queue,
		location: loc,
		timeout:  timeout,
		validate: validator.New(),
		now:      time.Now,
	}
}

// WithNow overrides the clock used when no week is requested.
func (h *Handler) WithNow(fn func() time.Time) {
	if fn != nil {
		h.now = fn
	}
}

type exportQuery struct {
	Area string `validate:"required,uuid"`
	Week string `validate:"omitempty,datetime=2006-01-02"`
}

type exportFunc func(ctx context.Context, req export.Request) (export.Result, error)

func (h *Handler) handlePDF(w http.ResponseWriter, r *http.Request) {
	h.serveExport(w, r, "pdf", h.exporter.ExportPDF)
}

func (h *Handler) handleXLSX(w http.ResponseWriter, r *http.Request) {
	h.serveExport(w, r, "xlsx", h.exporter.ExportXLSX)
}

func (h *Handler) serveExport(w http.ResponseWriter, r *http.Request, format string, run exportFunc) {
	if err := h.authorize(r.Context()); err != nil {
		h.respondAuthError(w, err)
		return
	}
	req, err := h.parseRequest(r.URL.Query().Get("area"), r.URL.Query().Get("week"))
	if err != nil {
		httpx.RespondError(w, httpx.ErrValidation, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	key := fmt.Sprintf("%s|%s|%s", format, req.AreaID, dailyreport.WorkWeek(req.Reference).Start.Format(weekLayout))
	res, err, _ := singleflightExport(ctx, key, h.timeout, func(ctx context.Context) (export.Result, error) {
		return run(ctx, req)
	})
	if err != nil {
		if errors.Is(err, export.ErrNoReports) {
			httpx.RespondError(w, httpx.ErrNotFound, noReportsDetail)
			return
		}
		h.logError("export weekly", err, slog.String("format", format), slog.String("area_id", req.AreaID.String()))
		httpx.RespondError(w, err, exportFailedDetail)
		return
	}

	w.Header().Set("Content-Type", res.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", res.Filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(res.Body)))
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(res.Body); err != nil {
		h.logError("stream export", err)
	}
}

func (h *Handler) handleArchive(w http.ResponseWriter, r *http.Request) {
	if err := h.authorize(r.Context()); err != nil {
		h.respondAuthError(w, err)
		return
	}
	if h.queue == nil {
		httpx.Problem(w, http.StatusServiceUnavailable, "Servicio no disponible", "La cola de trabajos no está configurada")
		return
	}
	if err := r.ParseForm(); err != nil {
		httpx.RespondError(w, httpx.ErrValidation, "formulario inválido")
		return
	}
	req, err := h.parseRequest(r.PostFormValue("area"), r.PostFormValue("week"))
	if err != nil {
		httpx.RespondError(w, httpx.ErrValidation, err.Error())
		return
	}
	payload := jobs.WeeklyArchivePayload{
		AreaID:    req.AreaID.String(),
		Reference: req.Reference.Format(jobs.ReferenceLayout),
	}
	info, err := h.queue.EnqueueWeeklyArchive(r.Context(), payload)
	if err != nil {
		h.handleServerError(w, "enqueue weekly archive", err)
		return
	}
	if h.logger != nil && info != nil {
		h.logger.Info("weekly archive enqueued", slog.String("task_id", info.ID), slog.String("area_id", payload.AreaID))
	}
	if sess := shared.SessionFromContext(r.Context()); sess != nil {
		sess.AddFlash(shared.FlashMessage{Kind: "success", Message: "El archivo semanal se generará en segundo plano"})
	}
	http.Redirect(w, r, "/admin/dashboard", http.StatusSeeOther)
}

func (h *Handler) parseRequest(area, week string) (export.Request, error) {
	q := exportQuery{Area: strings.TrimSpace(area), Week: strings.TrimSpace(week)}
	if err := h.validate.Struct(q); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			switch verrs[0].StructField() {
			case "Area":
				return export.Request{}, errors.New("el parámetro area debe ser un UUID")
			case "Week":
				return export.Request{}, errors.New("el parámetro week debe tener formato AAAA-MM-DD")
			}
		}
		return export.Request{}, err
	}
	areaID := uuid.MustParse(q.Area)
	ref := h.now().In(h.location)
	if q.Week != "" {
		parsed, err := time.ParseInLocation(weekLayout, q.Week, h.location)
		if err != nil {
			return export.Request{}, err
		}
		ref = parsed
	}
	return export.Request{AreaID: areaID, Reference: ref}, nil
}

func (h *Handler) authorize(ctx context.Context) error {
	if h.roles == nil {
		return fmt.Errorf("role resolver missing")
	}
	if p, ok := shared.PrincipalFromContext(ctx); ok {
		if p.Role != shared.RoleAdmin {
			return errNotAdmin
		}
		return nil
	}
	userID, ok := shared.SessionFromContext(ctx).UserID()
	if !ok {
		return errNotAdmin
	}
	role, err := h.roles.Role(ctx, userID)
	if err != nil {
		if errors.Is(err, rbac.ErrNotFound) {
			return errNotAdmin
		}
		return err
	}
	if role != shared.RoleAdmin {
		return errNotAdmin
	}
	return nil
}

func (h *Handler) respondAuthError(w http.ResponseWriter, err error) {
	if errors.Is(err, errNotAdmin) {
		httpx.RespondError(w, httpx.ErrUnauthorized, "Se requiere una sesión de administrador")
		return
	}
	h.handleServerError(w, "authorization", err)
}

func (h *Handler) handleServerError(w http.ResponseWriter, context string, err error) {
	h.logError(context, err)
	httpx.RespondError(w, err, "")
}

func (h *Handler) logError(context string, err error, attrs ...any) {
	if h.logger != nil {
		h.logger.Error(context, append([]any{slog.Any("error", err)}, attrs...)...)
	}
}

// HandlePDFForTest exposes the PDF handler for tests.
func (h *Handler) HandlePDFForTest(w http.ResponseWriter, r *http.Request) { h.handlePDF(w, r) }

// HandleXLSXForTest exposes the spreadsheet handler for tests.
func (h *Handler) HandleXLSXForTest(w http.ResponseWriter, r *http.Request) { h.handleXLSX(w, r) }
