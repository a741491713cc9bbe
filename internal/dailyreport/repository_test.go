package dailyreport

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validRow() ReportRow {
	return ReportRow{
		ReportID:     uuid.New(),
		Content:      "Avance del día",
		Mood:         MoodSuccess,
		CreatedAt:    time.Date(2026, 1, 20, 10, 0, 0, 0, time.UTC),
		EmployeeID:   uuid.New(),
		EmployeeName: "Ana Pérez",
		AreaID:       uuid.New(),
		AreaName:     "Desarrollo",
	}
}

func TestReportRowValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*ReportRow)
	}{
		{"unknown mood", func(r *ReportRow) { r.Mood = "happy" }},
		{"empty mood", func(r *ReportRow) { r.Mood = "" }},
		{"blank employee name", func(r *ReportRow) { r.EmployeeName = "   " }},
		{"blank area name", func(r *ReportRow) { r.AreaName = "" }},
		{"nil report id", func(r *ReportRow) { r.ReportID = uuid.Nil }},
		{"nil employee id", func(r *ReportRow) { r.EmployeeID = uuid.Nil }},
		{"zero created at", func(r *ReportRow) { r.CreatedAt = time.Time{} }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			row := validRow()
			tc.mutate(&row)
			err := row.validate()
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidRow), "got %v", err)
		})
	}

	t.Run("valid", func(t *testing.T) {
		row := validRow()
		row.Title = nil
		row.EmployeeRole = nil
		assert.NoError(t, row.validate())
	})
}

// fakeRows serves fixed column values to Scan in query order.
type fakeRows struct {
	data [][]any
	pos  int
}

func (r *fakeRows) Close()                                       {}
func (r *fakeRows) Err() error                                   { return nil }
func (r *fakeRows) CommandTag() pgconn.CommandTag                { return pgconn.CommandTag{} }
func (r *fakeRows) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (r *fakeRows) RawValues() [][]byte                          { return nil }
func (r *fakeRows) Conn() *pgx.Conn                              { return nil }
func (r *fakeRows) Values() ([]any, error)                       { return r.data[r.pos-1], nil }

func (r *fakeRows) Next() bool {
	if r.pos >= len(r.data) {
		return false
	}
	r.pos++
	return true
}

func (r *fakeRows) Scan(dest ...any) error {
	values := r.data[r.pos-1]
	if len(dest) != len(values) {
		return fmt.Errorf("scan: %d destinations for %d columns", len(dest), len(values))
	}
	for i, v := range values {
		target := reflect.ValueOf(dest[i]).Elem()
		if v == nil {
			target.Set(reflect.Zero(target.Type()))
			continue
		}
		target.Set(reflect.ValueOf(v))
	}
	return nil
}

type fakePool struct {
	rows *fakeRows
	args []any
}

func (p *fakePool) Exec(context.Context, string, ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, errors.New("not supported")
}

func (p *fakePool) Query(_ context.Context, _ string, args ...any) (pgx.Rows, error) {
	p.args = args
	return p.rows, nil
}

func (p *fakePool) QueryRow(context.Context, string, ...any) pgx.Row { return nil }

func (p *fakePool) BeginTx(context.Context, pgx.TxOptions) (pgx.Tx, error) {
	return nil, errors.New("not supported")
}

func columns(r ReportRow) []any {
	return []any{
		r.ReportID, r.Title, r.Content, string(r.Mood), r.CreatedAt,
		r.EmployeeID, r.EmployeeName, r.EmployeeRole, r.AreaID, r.AreaName, r.Images,
	}
}

func TestFetchAreaReportsRejectsInvalidRow(t *testing.T) {
	good := validRow()
	bad := validRow()
	bad.Mood = "excited"
	pool := &fakePool{rows: &fakeRows{data: [][]any{columns(good), columns(bad)}}}

	rows, err := NewRepository(pool).FetchAreaReports(context.Background(), good.AreaID, good.CreatedAt, good.CreatedAt)
	require.ErrorIs(t, err, ErrInvalidRow)
	assert.Nil(t, rows)
}

func TestFetchAreaReportsReturnsTypedRows(t *testing.T) {
	row := validRow()
	row.Images = []string{"https://cdn.example.com/a.png"}
	pool := &fakePool{rows: &fakeRows{data: [][]any{columns(row)}}}
	from := time.Date(2026, 1, 19, 0, 0, 0, 0, time.UTC)
	to := from.Add(5*24*time.Hour - time.Millisecond)

	rows, err := NewRepository(pool).FetchAreaReports(context.Background(), row.AreaID, from, to)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, row, rows[0])
	assert.Equal(t, []any{row.AreaID, from, to}, pool.args)
}

func TestFetchAreaReportsEmptyIsNotError(t *testing.T) {
	pool := &fakePool{rows: &fakeRows{}}
	rows, err := NewRepository(pool).FetchAreaReports(context.Background(), uuid.New(), time.Now(), time.Now())
	require.NoError(t, err)
	assert.NotNil(t, rows)
	assert.Empty(t, rows)
}
