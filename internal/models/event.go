package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Event is one submitted occurrence on the bulletin. ID, CreatedAt and
// Approved are owned by the repository.
type Event struct {
	bun.BaseModel `bun:"table:events"`

	ID          string    `bun:"id,pk" json:"_id"`
	Title       string    `bun:"title,notnull" json:"title"`
	Timestamp   time.Time `bun:"timestamp,notnull" json:"timestamp"`
	Location    string    `bun:"location" json:"location"`
	Description string    `bun:"description" json:"description"`
	Link        string    `bun:"link,nullzero" json:"link,omitempty"`
	Approved    bool      `bun:"approved,notnull,default:false" json:"approved"`
	CreatedAt   time.Time `bun:"created_at,notnull" json:"createdAt"`
}

// EventDraft is what a visitor submits before the repository assigns
// identity and approval state.
type EventDraft struct {
	Title       string
	Timestamp   time.Time
	Location    string
	Description string
	Link        string
}

// SubmitEventRequest is the raw body of POST /api/add.
type SubmitEventRequest struct {
	Title       string `json:"title" validate:"required,max=200"`
	Date        string `json:"date" validate:"required"`
	Time        string `json:"time" validate:"required"`
	Location    string `json:"location" validate:"max=300"`
	Description string `json:"description" validate:"max=5000"`
	Link        string `json:"link,omitempty" validate:"omitempty,max=2000,http_url"`
}

// SubmitEventResponse is the reply to a successful submission.
type SubmitEventResponse struct {
	Message string `json:"message"`
	ID      string `json:"id"`
}

// UpcomingEvents is the bucketed public listing.
type UpcomingEvents struct {
	Today []Event `json:"today"`
	Week  []Event `json:"week"`
	Month []Event `json:"month"`
}
