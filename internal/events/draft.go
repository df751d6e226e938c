package events

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"ms-bulletin/internal/bucket"
	"ms-bulletin/internal/models"
)

var ErrValidation = errors.New("validation failed")

// ValidationError lists the submitted fields that were rejected.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, fmt.Sprintf("%s %s", name, e.Fields[name]))
	}
	return fmt.Sprintf("%v: %s", ErrValidation, strings.Join(parts, ", "))
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

var htmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&#039;",
)

// Sanitize trims s and escapes the characters significant in HTML.
func Sanitize(s string) string {
	return htmlEscaper.Replace(strings.TrimSpace(s))
}

// DraftBuilder turns a raw submission into a storable draft.
type DraftBuilder struct {
	validate *validator.Validate
	loc      *time.Location
}

func NewDraftBuilder(loc *time.Location) *DraftBuilder {
	if loc == nil {
		loc = time.Local
	}
	return &DraftBuilder{validate: validator.New(), loc: loc}
}

// Build validates req and combines its date and time in the bulletin
// timezone. Text fields are sanitized; the link is only trimmed.
func (b *DraftBuilder) Build(req models.SubmitEventRequest) (models.EventDraft, error) {
	req.Title = strings.TrimSpace(req.Title)
	req.Date = strings.TrimSpace(req.Date)
	req.Time = strings.TrimSpace(req.Time)
	req.Location = strings.TrimSpace(req.Location)
	req.Description = strings.TrimSpace(req.Description)
	req.Link = strings.TrimSpace(req.Link)

	fields := map[string]string{}
	if err := b.validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return models.EventDraft{}, err
		}
		for _, fe := range verrs {
			fields[jsonName(fe.Field())] = describe(fe)
		}
	}

	var ts time.Time
	if _, bad := fields["date"]; !bad && req.Date != "" {
		if _, err := time.Parse("2006-01-02", req.Date); err != nil {
			fields["date"] = "must be YYYY-MM-DD"
		}
	}
	if _, bad := fields["time"]; !bad && req.Time != "" {
		if !validClock(req.Time) {
			fields["time"] = "must be HH:MM"
		}
	}
	if len(fields) == 0 {
		parsed, err := bucket.ParseTimestamp(req.Date+"T"+req.Time, b.loc)
		if err != nil {
			fields["date"] = "is not a valid date and time"
		} else {
			ts = parsed
		}
	}

	if len(fields) > 0 {
		return models.EventDraft{}, &ValidationError{Fields: fields}
	}

	return models.EventDraft{
		Title:       Sanitize(req.Title),
		Timestamp:   ts,
		Location:    Sanitize(req.Location),
		Description: Sanitize(req.Description),
		Link:        req.Link,
	}, nil
}

func validClock(s string) bool {
	for _, layout := range []string{"15:04", "15:04:05"} {
		if _, err := time.Parse(layout, s); err == nil {
			return true
		}
	}
	return false
}

func jsonName(field string) string {
	return strings.ToLower(field)
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "http_url", "url":
		return "must be an http(s) URL"
	default:
		return "is invalid"
	}
}
