// Package events holds the bulletin operations: submission, moderation and
// the public listings.
package events

import (
	"context"
	"fmt"
	"time"

	"ms-bulletin/internal/bucket"
	"ms-bulletin/internal/logger"
	"ms-bulletin/internal/models"
	"ms-bulletin/internal/store"
)

const (
	ActionSubmitted = "event.submitted"
	ActionApproved  = "event.approved"
	ActionDeleted   = "event.deleted"
)

// Notifier is told about lifecycle changes after they are stored.
type Notifier interface {
	Notify(ctx context.Context, action string, event models.Event)
}

// Notifiers tells each of its members in order.
type Notifiers []Notifier

func (ns Notifiers) Notify(ctx context.Context, action string, ev models.Event) {
	for _, n := range ns {
		n.Notify(ctx, action, ev)
	}
}

// Observer receives the result of each upcoming listing.
type Observer interface {
	ObserveUpcoming(u models.UpcomingEvents, skipped int)
}

type EventService struct {
	Store     *store.Handle
	Drafts    *DraftBuilder
	Notifier  Notifier
	Observer  Observer
	Logger    *logger.Logger
	Location  *time.Location
	OpTimeout time.Duration
	Now       func() time.Time
}

func NewEventService(h *store.Handle, loc *time.Location, log *logger.Logger) *EventService {
	if loc == nil {
		loc = time.Local
	}
	if log == nil {
		log = logger.NewDiscard()
	}
	return &EventService{
		Store:     h,
		Drafts:    NewDraftBuilder(loc),
		Logger:    log,
		Location:  loc,
		OpTimeout: 5 * time.Second,
		Now:       time.Now,
	}
}

func (s *EventService) repo(ctx context.Context) (store.Repository, context.Context, context.CancelFunc, error) {
	r, err := s.Store.Get()
	if err != nil {
		return nil, ctx, func() {}, err
	}
	if s.OpTimeout <= 0 {
		return r, ctx, func() {}, nil
	}
	ctx, cancel := context.WithTimeout(ctx, s.OpTimeout)
	return r, ctx, cancel, nil
}

// ListApproved returns approved events in ascending timestamp order.
func (s *EventService) ListApproved(ctx context.Context) ([]models.Event, error) {
	r, ctx, cancel, err := s.repo(ctx)
	if err != nil {
		return nil, err
	}
	defer cancel()

	evs, err := r.FindApproved(ctx)
	if err != nil {
		return nil, err
	}
	return bucket.SortByTimestamp(evs), nil
}

// ListAll returns every event, approved or not, for moderation.
func (s *EventService) ListAll(ctx context.Context) ([]models.Event, error) {
	r, ctx, cancel, err := s.repo(ctx)
	if err != nil {
		return nil, err
	}
	defer cancel()

	evs, err := r.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	return bucket.SortByTimestamp(evs), nil
}

// Upcoming groups the approved events into today, this week and this
// month relative to the current time in the bulletin timezone.
func (s *EventService) Upcoming(ctx context.Context) (models.UpcomingEvents, error) {
	evs, err := s.ListApproved(ctx)
	if err != nil {
		return models.UpcomingEvents{}, err
	}

	now := s.Now().In(s.Location)
	grouped, skipped := bucket.Group(evs, now, s.Logger)
	if s.Observer != nil {
		s.Observer.ObserveUpcoming(grouped, skipped)
	}
	return grouped, nil
}

func (s *EventService) Get(ctx context.Context, id string) (*models.Event, error) {
	r, ctx, cancel, err := s.repo(ctx)
	if err != nil {
		return nil, err
	}
	defer cancel()

	return r.FindByID(ctx, id)
}

// Submit stores a new unapproved event.
func (s *EventService) Submit(ctx context.Context, req models.SubmitEventRequest) (*models.Event, error) {
	draft, err := s.Drafts.Build(req)
	if err != nil {
		return nil, err
	}

	r, ctx, cancel, err := s.repo(ctx)
	if err != nil {
		return nil, err
	}
	defer cancel()

	ev, err := r.Insert(ctx, draft)
	if err != nil {
		return nil, err
	}

	s.Logger.LogEvent("SUBMITTED", ev.ID, fmt.Sprintf("title=%q timestamp=%s", ev.Title, ev.Timestamp.Format(time.RFC3339)))
	s.notify(ActionSubmitted, *ev)
	return ev, nil
}

// Approve marks id approved. Approving twice is not an error.
func (s *EventService) Approve(ctx context.Context, id string) error {
	r, ctx, cancel, err := s.repo(ctx)
	if err != nil {
		return err
	}
	defer cancel()

	if err := r.SetApproved(ctx, id); err != nil {
		return err
	}
	s.Logger.LogEvent("APPROVED", id, "Event approved")

	if s.Notifier != nil {
		ev, err := r.FindByID(ctx, id)
		if err != nil {
			s.Logger.Warn("EVENT", fmt.Sprintf("Approved event %s could not be reloaded for notification: %v", id, err))
			ev = &models.Event{ID: id, Approved: true}
		}
		s.notify(ActionApproved, *ev)
	}
	return nil
}

func (s *EventService) Delete(ctx context.Context, id string) error {
	r, ctx, cancel, err := s.repo(ctx)
	if err != nil {
		return err
	}
	defer cancel()

	if err := r.DeleteByID(ctx, id); err != nil {
		return err
	}
	s.Logger.LogEvent("DELETED", id, "Event deleted")
	s.notify(ActionDeleted, models.Event{ID: id})
	return nil
}

// notify runs detached from the request so a slow broker never delays the
// response.
func (s *EventService) notify(action string, ev models.Event) {
	if s.Notifier == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	go func() {
		defer cancel()
		s.Notifier.Notify(ctx, action, ev)
	}()
}
