package view

import (
	"bytes"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"github.com/dailyflow/dailyflow/internal/platform/locale"
	"github.com/dailyflow/dailyflow/internal/shared"
	"github.com/dailyflow/dailyflow/web"
)

// Engine renders HTML templates.
type Engine struct {
	templates *template.Template
	location  *time.Location
}

// TemplateData contains values shared across templates.
type TemplateData struct {
	Title       string
	CSRFToken   string
	Flash       *shared.FlashMessage
	CurrentPath string
	Role        shared.Role
	Data        any
}

// NewEngine parses the page templates. Dates are shown in loc; nil keeps
// each value's own location.
func NewEngine(loc *time.Location) (*Engine, error) {
	e := &Engine{location: loc}
	funcMap := template.FuncMap{
		"formatDate":     func(t time.Time) string { return locale.LongDate(locale.In(t, e.location)) },
		"formatDateTime": func(t time.Time) string { return locale.DateTime(locale.In(t, e.location)) },
		"deref": func(s *string) string {
			if s == nil {
				return ""
			}
			return *s
		},
	}
	tpl, err := template.New("root").Funcs(funcMap).ParseFS(web.Templates, "templates/layouts/*.html", "templates/partials/*.html", "templates/pages/*.html")
	if err != nil {
		return nil, err
	}
	e.templates = tpl
	return e, nil
}

// Render executes a named template with TemplateData. Output is buffered so a
// template error never leaves a half-written page behind.
func (e *Engine) Render(w http.ResponseWriter, status int, name string, data TemplateData) error {
	if e == nil {
		return fmt.Errorf("template engine not initialised")
	}
	var buf bytes.Buffer
	if err := e.templates.ExecuteTemplate(&buf, name, data); err != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return err
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err := buf.WriteTo(w)
	return err
}
