package dailyreport

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/dailyflow/dailyflow/internal/platform/db"
)

// DBTX is satisfied by *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Pool is the connection pool the repository is built on.
type Pool interface {
	DBTX
	db.TxBeginner
}

// Repository reads and writes daily reports.
type Repository struct {
	pool Pool
}

// NewRepository constructs a repository over an injected pool.
func NewRepository(pool Pool) *Repository {
	return &Repository{pool: pool}
}

const reportImagesAgg = `COALESCE(ARRAY_AGG(i.url ORDER BY i.position) FILTER (WHERE i.url IS NOT NULL), '{}')`

// FetchAreaReports returns every report authored by members of the area with
// createdAt inside [from, to], ordered by employee name, employee id, then
// creation time. An empty result is not an error.
func (r *Repository) FetchAreaReports(ctx context.Context, areaID uuid.UUID, from, to time.Time) ([]ReportRow, error) {
	if r == nil || r.pool == nil {
		return nil, fmt.Errorf("dailyreport: repository not initialised")
	}
	query := `SELECT
    r.id,
    r.title,
    r.content,
    r.mood,
    r.created_at,
    p.user_id,
    p.full_name,
    p.job_title,
    a.id,
    a.name,
    ` + reportImagesAgg + `
FROM daily_reports r
JOIN profiles p ON p.user_id = r.user_id
JOIN areas a ON a.id = p.area_id
LEFT JOIN report_images i ON i.report_id = r.id
WHERE a.id = $1 AND r.created_at >= $2 AND r.created_at <= $3
GROUP BY r.id, p.user_id, a.id
ORDER BY p.full_name ASC, p.user_id ASC, r.created_at ASC`
	rows, err := r.pool.Query(ctx, query, areaID, from, to)
	if err != nil {
		return nil, fmt.Errorf("dailyreport: query area reports: %w", err)
	}
	defer rows.Close()
	result := make([]ReportRow, 0)
	for rows.Next() {
		row, err := scanReportRow(rows)
		if err != nil {
			return nil, err
		}
		if err := row.validate(); err != nil {
			return nil, err
		}
		result = append(result, row)
	}
	return result, rows.Err()
}

func scanReportRow(row pgx.Row) (ReportRow, error) {
	var (
		out  ReportRow
		mood string
	)
	if err := row.Scan(
		&out.ReportID,
		&out.Title,
		&out.Content,
		&mood,
		&out.CreatedAt,
		&out.EmployeeID,
		&out.EmployeeName,
		&out.EmployeeRole,
		&out.AreaID,
		&out.AreaName,
		&out.Images,
	); err != nil {
		return ReportRow{}, err
	}
	out.Mood = Mood(mood)
	return out, nil
}

func (r ReportRow) validate() error {
	switch {
	case r.ReportID == uuid.Nil:
		return fmt.Errorf("%w: missing report id", ErrInvalidRow)
	case r.EmployeeID == uuid.Nil:
		return fmt.Errorf("%w: report %s missing employee", ErrInvalidRow, r.ReportID)
	case strings.TrimSpace(r.EmployeeName) == "":
		return fmt.Errorf("%w: report %s missing employee name", ErrInvalidRow, r.ReportID)
	case strings.TrimSpace(r.AreaName) == "":
		return fmt.Errorf("%w: report %s missing area name", ErrInvalidRow, r.ReportID)
	case r.CreatedAt.IsZero():
		return fmt.Errorf("%w: report %s missing created_at", ErrInvalidRow, r.ReportID)
	case !r.Mood.Valid():
		return fmt.Errorf("%w: report %s has unknown mood %q", ErrInvalidRow, r.ReportID, r.Mood)
	}
	return nil
}

// GetArea loads a single area by id.
func (r *Repository) GetArea(ctx context.Context, id uuid.UUID) (Area, error) {
	if r == nil || r.pool == nil {
		return Area{}, fmt.Errorf("dailyreport: repository not initialised")
	}
	var area Area
	err := r.pool.QueryRow(ctx, `SELECT id, name FROM areas WHERE id = $1`, id).Scan(&area.ID, &area.Name)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Area{}, ErrNotFound
		}
		return Area{}, err
	}
	return area, nil
}

// ListAreas returns every area ordered by name.
func (r *Repository) ListAreas(ctx context.Context) ([]Area, error) {
	if r == nil || r.pool == nil {
		return nil, fmt.Errorf("dailyreport: repository not initialised")
	}
	rows, err := r.pool.Query(ctx, `SELECT id, name FROM areas ORDER BY name, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var areas []Area
	for rows.Next() {
		var a Area
		if err := rows.Scan(&a.ID, &a.Name); err != nil {
			return nil, err
		}
		areas = append(areas, a)
	}
	return areas, rows.Err()
}

// ListAreaSummaries returns every area with its active member count and the
// number of reports created inside [from, to].
func (r *Repository) ListAreaSummaries(ctx context.Context, from, to time.Time) ([]AreaSummary, error) {
	if r == nil || r.pool == nil {
		return nil, fmt.Errorf("dailyreport: repository not initialised")
	}
	const query = `SELECT
    a.id,
    a.name,
    (SELECT COUNT(*) FROM profiles p JOIN users u ON u.id = p.user_id
        WHERE p.area_id = a.id AND u.is_active),
    (SELECT COUNT(*) FROM daily_reports r JOIN profiles p ON p.user_id = r.user_id
        WHERE p.area_id = a.id AND r.created_at >= $1 AND r.created_at <= $2)
FROM areas a
ORDER BY a.name, a.id`
	rows, err := r.pool.Query(ctx, query, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var summaries []AreaSummary
	for rows.Next() {
		var s AreaSummary
		if err := rows.Scan(&s.ID, &s.Name, &s.Members, &s.WeekReports); err != nil {
			return nil, err
		}
		summaries = append(summaries, s)
	}
	return summaries, rows.Err()
}

// ListAreaMembers returns the employees of an area ordered by name, with the
// time of their latest report. Inactive accounts are included and flagged.
func (r *Repository) ListAreaMembers(ctx context.Context, areaID uuid.UUID) ([]Member, error) {
	if r == nil || r.pool == nil {
		return nil, fmt.Errorf("dailyreport: repository not initialised")
	}
	const query = `SELECT
    p.user_id,
    p.full_name,
    p.job_title,
    u.email,
    u.is_active,
    (SELECT MAX(r.created_at) FROM daily_reports r WHERE r.user_id = p.user_id)
FROM profiles p
JOIN users u ON u.id = p.user_id
WHERE p.area_id = $1
ORDER BY p.full_name, p.user_id`
	rows, err := r.pool.Query(ctx, query, areaID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var members []Member
	for rows.Next() {
		var m Member
		if err := rows.Scan(&m.UserID, &m.FullName, &m.JobTitle, &m.Email, &m.Active, &m.LastReportAt); err != nil {
			return nil, err
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

// CreateReport inserts the report and its images in one transaction and
// returns the new report id. Image order is kept in the position column.
func (r *Repository) CreateReport(ctx context.Context, in NewReport) (uuid.UUID, error) {
	if r == nil || r.pool == nil {
		return uuid.Nil, fmt.Errorf("dailyreport: repository not initialised")
	}
	var id uuid.UUID
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		const insertReport = `INSERT INTO daily_reports (user_id, title, content, mood)
VALUES ($1, $2, $3, $4)
RETURNING id`
		if err := tx.QueryRow(ctx, insertReport, in.UserID, in.Title, in.Content, string(in.Mood)).Scan(&id); err != nil {
			return fmt.Errorf("insert report: %w", err)
		}
		if len(in.Images) == 0 {
			return nil
		}
		batch := &pgx.Batch{}
		for i, url := range in.Images {
			batch.Queue(`INSERT INTO report_images (report_id, url, position) VALUES ($1, $2, $3)`, id, url, i)
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("insert report images: %w", err)
		}
		return nil
	})
	if err != nil {
		return uuid.Nil, err
	}
	return id, nil
}

// ListUserReports returns the user's reports newest first.
func (r *Repository) ListUserReports(ctx context.Context, userID uuid.UUID, limit int) ([]Report, error) {
	if r == nil || r.pool == nil {
		return nil, fmt.Errorf("dailyreport: repository not initialised")
	}
	query := `SELECT r.id, r.title, r.content, r.mood, r.created_at, ` + reportImagesAgg + `
FROM daily_reports r
LEFT JOIN report_images i ON i.report_id = r.id
WHERE r.user_id = $1
GROUP BY r.id
ORDER BY r.created_at DESC
LIMIT $2`
	rows, err := r.pool.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var reports []Report
	for rows.Next() {
		var (
			rep  Report
			mood string
		)
		if err := rows.Scan(&rep.ID, &rep.Title, &rep.Content, &mood, &rep.CreatedAt, &rep.Images); err != nil {
			return nil, err
		}
		rep.Mood = Mood(mood)
		reports = append(reports, rep)
	}
	return reports, rows.Err()
}

// GetReport loads a report with author and area details.
func (r *Repository) GetReport(ctx context.Context, id uuid.UUID) (ReportDetail, error) {
	if r == nil || r.pool == nil {
		return ReportDetail{}, fmt.Errorf("dailyreport: repository not initialised")
	}
	query := `SELECT r.id, r.title, r.content, r.mood, r.created_at, ` + reportImagesAgg + `,
    r.user_id, COALESCE(p.full_name, ''), p.job_title, COALESCE(a.name, '')
FROM daily_reports r
LEFT JOIN profiles p ON p.user_id = r.user_id
LEFT JOIN areas a ON a.id = p.area_id
LEFT JOIN report_images i ON i.report_id = r.id
WHERE r.id = $1
GROUP BY r.id, p.user_id, a.id`
	var (
		out  ReportDetail
		mood string
	)
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&out.ID, &out.Title, &out.Content, &mood, &out.CreatedAt, &out.Images,
		&out.EmployeeID, &out.EmployeeName, &out.EmployeeRole, &out.AreaName,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ReportDetail{}, ErrNotFound
		}
		return ReportDetail{}, err
	}
	out.Mood = Mood(mood)
	return out, nil
}

// FindProfile loads the profile header for a user.
func (r *Repository) FindProfile(ctx context.Context, userID uuid.UUID) (Profile, error) {
	if r == nil || r.pool == nil {
		return Profile{}, fmt.Errorf("dailyreport: repository not initialised")
	}
	const query = `SELECT p.full_name, p.job_title, a.name
FROM profiles p
LEFT JOIN areas a ON a.id = p.area_id
WHERE p.user_id = $1`
	var p Profile
	if err := r.pool.QueryRow(ctx, query, userID).Scan(&p.FullName, &p.JobTitle, &p.AreaName); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Profile{}, ErrNotFound
		}
		return Profile{}, err
	}
	return p, nil
}
