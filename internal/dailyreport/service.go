package dailyreport

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// ValidationError carries per-field messages for a rejected submission.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for field, msg := range e.Fields {
		parts = append(parts, field+": "+msg)
	}
	return "dailyreport: invalid submission (" + strings.Join(parts, ", ") + ")"
}

// Submission is the raw form input for a new report.
type Submission struct {
	Title   string   `validate:"max=120"`
	Content string   `validate:"required"`
	Mood    string   `validate:"required,oneof=success neutral blocked"`
	Images  []string `validate:"max=3,dive,url,startswith=https://"`
}

// Store persists new reports.
type Store interface {
	CreateReport(ctx context.Context, in NewReport) (uuid.UUID, error)
}

// Service applies submission rules before persisting.
type Service struct {
	store    Store
	validate *validator.Validate
}

// NewService constructs a Service.
func NewService(store Store) *Service {
	return &Service{store: store, validate: validator.New()}
}

// Normalize trims the fields and drops blank image inputs.
func (s Submission) Normalize() Submission {
	out := Submission{
		Title:   strings.TrimSpace(s.Title),
		Content: strings.TrimSpace(s.Content),
		Mood:    strings.TrimSpace(s.Mood),
	}
	for _, img := range s.Images {
		if img = strings.TrimSpace(img); img != "" {
			out.Images = append(out.Images, img)
		}
	}
	return out
}

// Submit validates the submission and stores it for the user.
func (s *Service) Submit(ctx context.Context, userID uuid.UUID, in Submission) (uuid.UUID, error) {
	in = in.Normalize()
	if err := s.validate.Struct(in); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return uuid.Nil, err
		}
		fields := make(map[string]string, len(verrs))
		for _, fe := range verrs {
			name := fe.StructField()
			if strings.HasPrefix(fe.Namespace(), "Submission.Images") {
				name = "Images"
			}
			if _, seen := fields[name]; !seen {
				fields[name] = submissionMessage(fe)
			}
		}
		return uuid.Nil, &ValidationError{Fields: fields}
	}
	var title *string
	if in.Title != "" {
		title = &in.Title
	}
	id, err := s.store.CreateReport(ctx, NewReport{
		UserID:  userID,
		Title:   title,
		Content: in.Content,
		Mood:    Mood(in.Mood),
		Images:  in.Images,
	})
	if err != nil {
		return uuid.Nil, fmt.Errorf("dailyreport: create report: %w", err)
	}
	return id, nil
}

func submissionMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "Campo obligatorio"
	case "max":
		if fe.StructField() == "Images" {
			return fmt.Sprintf("Máximo %s imágenes", fe.Param())
		}
		return fmt.Sprintf("Máximo %s caracteres", fe.Param())
	case "oneof":
		return "Selecciona un estado válido"
	case "url", "startswith":
		return "Las imágenes deben ser enlaces https"
	}
	return fe.Error()
}
