package export

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"strings"

	"github.com/dailyflow/dailyflow/internal/platform/locale"
	"github.com/dailyflow/dailyflow/web"
)

// ErrEmptyDocument is returned when asked to render a document with no sections.
var ErrEmptyDocument = errors.New("export: document has no employee sections")

const weeklyTemplate = "reports/weekly_area.html"

// HTMLRenderer turns a Document into a self-contained HTML page ready for PDF
// conversion. Rendering is pure: identical documents give identical bytes.
type HTMLRenderer struct {
	tpl *template.Template
}

// NewHTMLRenderer parses the weekly area template.
func NewHTMLRenderer() (*HTMLRenderer, error) {
	funcMap := template.FuncMap{
		"longDate": locale.LongDate,
		"dateTime": locale.DateTime,
		"dataURI": func(s string) template.URL {
			if !strings.HasPrefix(s, "data:image/") {
				return ""
			}
			return template.URL(s)
		},
	}
	tpl, err := template.New("weekly").Funcs(funcMap).ParseFS(web.Templates, "templates/reports/weekly_area.html")
	if err != nil {
		return nil, fmt.Errorf("parse weekly template: %w", err)
	}
	return &HTMLRenderer{tpl: tpl}, nil
}

// Render executes the template for doc.
func (r *HTMLRenderer) Render(doc Document) ([]byte, error) {
	if r == nil || r.tpl == nil {
		return nil, fmt.Errorf("export renderer not initialised")
	}
	if len(doc.Sections) == 0 {
		return nil, ErrEmptyDocument
	}
	var buf bytes.Buffer
	if err := r.tpl.ExecuteTemplate(&buf, weeklyTemplate, doc); err != nil {
		return nil, fmt.Errorf("render weekly template: %w", err)
	}
	return buf.Bytes(), nil
}
