package dailyreport

import (
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSlug(t *testing.T) {
	cases := map[string]string{
		"Desarrollo Web":           "desarrollo-web",
		"  Diseño & Comunicación ": "diseno-comunicacion",
		"Área de Atención":         "area-de-atencion",
		"--Ops//Infra--":           "ops-infra",
		"Ventas 2026":              "ventas-2026",
		"ÑANDÚ":                    "nandu",
		"¿?":                       "",
	}
	pattern := regexp.MustCompile(`^([a-z0-9]+(-[a-z0-9]+)*)?$`)
	for in, want := range cases {
		got := Slug(in)
		assert.Equal(t, want, got, in)
		assert.Regexp(t, pattern, got)
		assert.Equal(t, got, Slug(in), "deterministic")
	}
}

func TestExportFilename(t *testing.T) {
	week := WorkWeek(time.Date(2026, 1, 21, 12, 0, 0, 0, time.UTC))
	assert.Equal(t, "reporte-semanal-desarrollo-web-2026-01-19_a_2026-01-23.pdf", ExportFilename("Desarrollo Web", week, "pdf"))
	assert.Equal(t, "reporte-semanal-desarrollo-web-2026-01-19_a_2026-01-23.xlsx", ExportFilename("Desarrollo Web", week, ".xlsx"))
	assert.Equal(t, "reporte-semanal-area-2026-01-19_a_2026-01-23.pdf", ExportFilename("¿?", week, "pdf"))
}
