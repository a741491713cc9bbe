package dailyreport

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// MaxImagesPerReport caps attachments accepted on submission.
const MaxImagesPerReport = 3

var (
	// ErrNotFound indicates the report does not exist or is not visible to the caller.
	ErrNotFound = errors.New("dailyreport: not found")
	// ErrInvalidRow indicates a persisted row failed validation at the repository boundary.
	ErrInvalidRow = errors.New("dailyreport: invalid report row")
)

// Mood is the self-reported sentiment tag on a daily report.
type Mood string

const (
	MoodSuccess Mood = "success"
	MoodNeutral Mood = "neutral"
	MoodBlocked Mood = "blocked"
)

// Moods lists the valid moods in display order.
func Moods() []Mood {
	return []Mood{MoodSuccess, MoodNeutral, MoodBlocked}
}

// Valid reports whether m is one of the three known moods.
func (m Mood) Valid() bool {
	switch m {
	case MoodSuccess, MoodNeutral, MoodBlocked:
		return true
	}
	return false
}

// Label returns the Spanish badge text shown on documents and pages.
func (m Mood) Label() string {
	switch m {
	case MoodSuccess:
		return "Productivo"
	case MoodNeutral:
		return "Neutral"
	case MoodBlocked:
		return "Bloqueado"
	}
	return ""
}

// ReportRow is one report joined with its author, area and image URLs.
type ReportRow struct {
	ReportID     uuid.UUID
	Title        *string
	Content      string
	Mood         Mood
	CreatedAt    time.Time
	EmployeeID   uuid.UUID
	EmployeeName string
	EmployeeRole *string
	AreaID       uuid.UUID
	AreaName     string
	Images       []string
}

// DisplayTitle returns the title or the generic fallback label.
func (r ReportRow) DisplayTitle() string {
	if r.Title == nil || *r.Title == "" {
		return "Reporte diario"
	}
	return *r.Title
}

// EmployeeGroup collects one employee's reports for a document section.
type EmployeeGroup struct {
	EmployeeID   uuid.UUID
	EmployeeName string
	EmployeeRole *string
	Reports      []ReportRow
}

// DisplayRole returns the role or the fallback used when none is recorded.
func (g EmployeeGroup) DisplayRole() string {
	if g.EmployeeRole == nil || *g.EmployeeRole == "" {
		return "Sin puesto"
	}
	return *g.EmployeeRole
}

// Report is a report as seen by its author.
type Report struct {
	ID        uuid.UUID
	Title     *string
	Content   string
	Mood      Mood
	CreatedAt time.Time
	Images    []string
}

// ReportDetail is a single report with author and area context.
type ReportDetail struct {
	Report
	EmployeeID   uuid.UUID
	EmployeeName string
	EmployeeRole *string
	AreaName     string
}

// Area is an organizational unit that scopes exports.
type Area struct {
	ID   uuid.UUID
	Name string
}

// AreaSummary feeds the admin dashboard.
type AreaSummary struct {
	Area
	Members     int
	WeekReports int
}

// Member is an employee listed under an area on the admin dashboard.
type Member struct {
	UserID       uuid.UUID
	FullName     string
	JobTitle     *string
	Email        string
	Active       bool
	LastReportAt *time.Time
}

// DisplayRole returns the job title or the "Sin puesto" fallback.
func (m Member) DisplayRole() string {
	if m.JobTitle == nil || *m.JobTitle == "" {
		return "Sin puesto"
	}
	return *m.JobTitle
}

// Profile is the employee header shown on their dashboard.
type Profile struct {
	FullName string
	JobTitle *string
	AreaName *string
}

// NewReport is a validated submission ready to persist.
type NewReport struct {
	UserID  uuid.UUID
	Title   *string
	Content string
	Mood    Mood
	Images  []string
}
