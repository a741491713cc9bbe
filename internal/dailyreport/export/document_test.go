package export

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dailyflow/dailyflow/internal/dailyreport"
)

func strPtr(s string) *string { return &s }

func sampleRows() []dailyreport.ReportRow {
	ana, luis := uuid.New(), uuid.New()
	return []dailyreport.ReportRow{
		{
			ReportID: uuid.New(), Title: strPtr("Integración con pagos"), Content: "Terminé la API\n- pruebas\n- docs",
			Mood: dailyreport.MoodSuccess, CreatedAt: time.Date(2026, 1, 19, 23, 30, 0, 0, time.UTC),
			EmployeeID: ana, EmployeeName: "Ana Pérez", EmployeeRole: strPtr("Backend"), AreaName: "Desarrollo Web",
			Images: []string{"https://cdn.example.com/1.png", "https://cdn.example.com/2.png", "https://cdn.example.com/3.png"},
		},
		{
			ReportID: uuid.New(), Content: "Bloqueada por accesos", Mood: dailyreport.MoodBlocked,
			CreatedAt:  time.Date(2026, 1, 21, 16, 0, 0, 0, time.UTC),
			EmployeeID: ana, EmployeeName: "Ana Pérez", AreaName: "Desarrollo Web",
		},
		{
			ReportID: uuid.New(), Content: "Soporte <b>nivel 2</b>", Mood: dailyreport.MoodNeutral,
			CreatedAt:  time.Date(2026, 1, 20, 15, 5, 0, 0, time.UTC),
			EmployeeID: luis, EmployeeName: "Luis Gómez", AreaName: "Desarrollo Web",
		},
	}
}

func TestBuildDocument(t *testing.T) {
	loc := time.FixedZone("CST", -6*3600)
	rows := sampleRows()
	week := dailyreport.WorkWeek(time.Date(2026, 1, 21, 12, 0, 0, 0, loc))
	images := map[uuid.UUID][]Image{rows[0].ReportID: {{MIMEType: "image/png", DataURI: "data:image/png;base64,AA=="}}}

	doc := BuildDocument("Desarrollo Web", week, dailyreport.GroupByEmployee(rows), images, loc)

	assert.Equal(t, "Desarrollo Web", doc.AreaName)
	require.Len(t, doc.Sections, 2)
	assert.Equal(t, 3, doc.Reports())

	ana := doc.Sections[0]
	assert.Equal(t, "Ana Pérez", ana.EmployeeName)
	assert.Equal(t, "Backend", ana.EmployeeRole)
	require.Len(t, ana.Cards, 2)
	assert.Equal(t, "Integración con pagos", ana.Cards[0].Title)
	assert.Equal(t, "Productivo", ana.Cards[0].MoodLabel)
	assert.Equal(t, 3, ana.Cards[0].ImageCount)
	assert.Len(t, ana.Cards[0].Images, 1)
	assert.Equal(t, 17, ana.Cards[0].CreatedAt.Hour(), "timestamps moved to the export zone")
	assert.Equal(t, "Reporte diario", ana.Cards[1].Title)
	assert.Empty(t, ana.Cards[1].Images)

	assert.Equal(t, "Sin puesto", doc.Sections[1].EmployeeRole)
}
