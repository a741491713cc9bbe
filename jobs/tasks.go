package jobs

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskWeeklyArchive renders weekly area PDFs into the archive directory.
	TaskWeeklyArchive = "reports:weekly_archive"
)

const (
	archiveMaxRetry = 3
	archiveTimeout  = 10 * time.Minute
)

// ReferenceLayout is the date format of WeeklyArchivePayload.Reference.
const ReferenceLayout = "2006-01-02"

// WeeklyArchivePayload selects what to archive. An empty AreaID archives every
// area; an empty Reference uses the week that contains the run time.
type WeeklyArchivePayload struct {
	AreaID    string `json:"area_id,omitempty"`
	Reference string `json:"reference,omitempty"`
}

// Area parses AreaID. ok is false when the payload targets every area.
func (p WeeklyArchivePayload) Area() (id uuid.UUID, ok bool, err error) {
	if p.AreaID == "" {
		return uuid.Nil, false, nil
	}
	id, err = uuid.Parse(p.AreaID)
	if err != nil {
		return uuid.Nil, false, fmt.Errorf("area_id: %w", err)
	}
	return id, true, nil
}

// ReferenceIn parses Reference in loc, falling back to now.
func (p WeeklyArchivePayload) ReferenceIn(loc *time.Location, now time.Time) (time.Time, error) {
	if p.Reference == "" {
		return now.In(loc), nil
	}
	t, err := time.ParseInLocation(ReferenceLayout, p.Reference, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("reference: %w", err)
	}
	return t, nil
}

// NewWeeklyArchiveTask constructs an Asynq task.
func NewWeeklyArchiveTask(payload WeeklyArchivePayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskWeeklyArchive, data, asynq.MaxRetry(archiveMaxRetry), asynq.Timeout(archiveTimeout)), nil
}
