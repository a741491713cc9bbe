package export

import (
	"time"

	"github.com/google/uuid"

	"github.com/dailyflow/dailyflow/internal/dailyreport"
)

// Document is the render-ready view of one area's week.
type Document struct {
	AreaName  string
	WeekStart time.Time
	WeekEnd   time.Time
	Sections  []Section
}

// Section holds one employee's cards.
type Section struct {
	EmployeeName string
	EmployeeRole string
	Cards        []Card
}

// Card is one report as printed.
type Card struct {
	ReportID   uuid.UUID
	Title      string
	CreatedAt  time.Time
	Content    string
	Mood       dailyreport.Mood
	MoodLabel  string
	Images     []Image
	ImageCount int
}

// Reports counts the cards across sections.
func (d Document) Reports() int {
	n := 0
	for _, s := range d.Sections {
		n += len(s.Cards)
	}
	return n
}

// BuildDocument converts grouped rows into a Document. Timestamps are moved
// into loc so rendering never needs a clock or a zone. images may be nil.
func BuildDocument(areaName string, week dailyreport.Week, groups []dailyreport.EmployeeGroup, images map[uuid.UUID][]Image, loc *time.Location) Document {
	if loc == nil {
		loc = week.Start.Location()
	}
	doc := Document{
		AreaName:  areaName,
		WeekStart: week.Start.In(loc),
		WeekEnd:   week.End.In(loc),
		Sections:  make([]Section, 0, len(groups)),
	}
	for _, g := range groups {
		section := Section{
			EmployeeName: g.EmployeeName,
			EmployeeRole: g.DisplayRole(),
			Cards:        make([]Card, 0, len(g.Reports)),
		}
		for _, row := range g.Reports {
			section.Cards = append(section.Cards, Card{
				ReportID:   row.ReportID,
				Title:      row.DisplayTitle(),
				CreatedAt:  row.CreatedAt.In(loc),
				Content:    row.Content,
				Mood:       row.Mood,
				MoodLabel:  row.Mood.Label(),
				Images:     images[row.ReportID],
				ImageCount: len(row.Images),
			})
		}
		doc.Sections = append(doc.Sections, section)
	}
	return doc
}
