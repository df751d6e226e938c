package events

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ms-bulletin/internal/models"
)

func TestSanitize(t *testing.T) {
	assert.Equal(t, "Tom &amp; Jerry&#039;s &quot;show&quot;", Sanitize(`  Tom & Jerry's "show"  `))
	assert.Equal(t, "&lt;script&gt;", Sanitize("<script>"))
	assert.Equal(t, "", Sanitize("   "))
}

func TestBuildCombinesDateAndTimeInZone(t *testing.T) {
	la, err := time.LoadLocation("America/Los_Angeles")
	require.NoError(t, err)
	b := NewDraftBuilder(la)

	draft, err := b.Build(models.SubmitEventRequest{
		Title: "Rally",
		Date:  "2025-06-12",
		Time:  "18:00",
		Link:  " https://example.org/rally ",
	})
	require.NoError(t, err)

	assert.True(t, time.Date(2025, 6, 12, 18, 0, 0, 0, la).Equal(draft.Timestamp))
	assert.Equal(t, "https://example.org/rally", draft.Link)
}

func TestBuildAcceptsSeconds(t *testing.T) {
	b := NewDraftBuilder(time.UTC)
	draft, err := b.Build(models.SubmitEventRequest{Title: "x", Date: "2025-06-12", Time: "18:00:30"})
	require.NoError(t, err)
	assert.Equal(t, 30, draft.Timestamp.Second())
}

func TestBuildValidation(t *testing.T) {
	b := NewDraftBuilder(time.UTC)
	valid := models.SubmitEventRequest{Title: "x", Date: "2025-06-12", Time: "18:00"}

	tests := []struct {
		name  string
		edit  func(r *models.SubmitEventRequest)
		field string
	}{
		{"missing title", func(r *models.SubmitEventRequest) { r.Title = "" }, "title"},
		{"missing date", func(r *models.SubmitEventRequest) { r.Date = "" }, "date"},
		{"missing time", func(r *models.SubmitEventRequest) { r.Time = "" }, "time"},
		{"bad date", func(r *models.SubmitEventRequest) { r.Date = "06/12/2025" }, "date"},
		{"impossible date", func(r *models.SubmitEventRequest) { r.Date = "2025-02-30" }, "date"},
		{"bad time", func(r *models.SubmitEventRequest) { r.Time = "6pm" }, "time"},
		{"non-http link", func(r *models.SubmitEventRequest) { r.Link = "javascript:alert(1)" }, "link"},
		{"long title", func(r *models.SubmitEventRequest) {
			r.Title = strings.Repeat("a", 201)
		}, "title"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := valid
			tt.edit(&req)

			_, err := b.Build(req)
			assert.ErrorIs(t, err, ErrValidation)

			var verr *ValidationError
			require.True(t, errors.As(err, &verr))
			assert.Contains(t, verr.Fields, tt.field)
		})
	}
}
