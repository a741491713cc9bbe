package dailyreport

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubStore struct {
	got NewReport
	err error
}

func (s *stubStore) CreateReport(_ context.Context, in NewReport) (uuid.UUID, error) {
	s.got = in
	if s.err != nil {
		return uuid.Nil, s.err
	}
	return uuid.New(), nil
}

func TestSubmitNormalizesAndStores(t *testing.T) {
	store := &stubStore{}
	svc := NewService(store)
	user := uuid.New()

	id, err := svc.Submit(context.Background(), user, Submission{
		Title:   "  ",
		Content: " Cerré el sprint\n\ncon demo ",
		Mood:    "success",
		Images:  []string{"", "https://cdn.example.com/a.png", " https://cdn.example.com/b.jpg "},
	})
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, id)
	assert.Equal(t, user, store.got.UserID)
	assert.Nil(t, store.got.Title)
	assert.Equal(t, "Cerré el sprint\n\ncon demo", store.got.Content)
	assert.Equal(t, MoodSuccess, store.got.Mood)
	assert.Equal(t, []string{"https://cdn.example.com/a.png", "https://cdn.example.com/b.jpg"}, store.got.Images)
}

func TestSubmitValidation(t *testing.T) {
	cases := []struct {
		name  string
		in    Submission
		field string
	}{
		{"missing content", Submission{Mood: "neutral"}, "Content"},
		{"bad mood", Submission{Content: "x", Mood: "happy"}, "Mood"},
		{"long title", Submission{Title: strings.Repeat("a", 121), Content: "x", Mood: "neutral"}, "Title"},
		{"http image", Submission{Content: "x", Mood: "neutral", Images: []string{"http://example.com/a.png"}}, "Images"},
		{"too many images", Submission{Content: "x", Mood: "neutral", Images: []string{
			"https://a.example/1.png", "https://a.example/2.png", "https://a.example/3.png", "https://a.example/4.png",
		}}, "Images"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			store := &stubStore{}
			_, err := NewService(store).Submit(context.Background(), uuid.New(), tc.in)
			var verr *ValidationError
			require.True(t, errors.As(err, &verr), "got %v", err)
			assert.Contains(t, verr.Fields, tc.field)
			assert.Equal(t, NewReport{}, store.got, "store must not be called")
		})
	}
}

func TestSubmitWrapsStoreError(t *testing.T) {
	boom := errors.New("boom")
	_, err := NewService(&stubStore{err: boom}).Submit(context.Background(), uuid.New(), Submission{Content: "x", Mood: "blocked"})
	assert.ErrorIs(t, err, boom)
}
