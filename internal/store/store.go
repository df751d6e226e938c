package store

import (
	"context"
	"errors"
	"sync/atomic"

	"ms-bulletin/internal/models"
)

var (
	ErrNotFound    = errors.New("event not found")
	ErrInvalidID   = errors.New("invalid event id")
	ErrNotReady    = errors.New("database not connected")
	ErrUnavailable = errors.New("event store unavailable")
)

// Repository is the single owner of persisted events. Implementations must
// make each call atomic on one document; no cross-document coordination is
// expected.
type Repository interface {
	FindApproved(ctx context.Context) ([]models.Event, error)
	FindAll(ctx context.Context) ([]models.Event, error)
	FindByID(ctx context.Context, id string) (*models.Event, error)
	Insert(ctx context.Context, draft models.EventDraft) (*models.Event, error)
	DeleteByID(ctx context.Context, id string) error
	SetApproved(ctx context.Context, id string) error
	Ping(ctx context.Context) error
	Close() error
}

// Handle holds the repository once the background connection succeeds.
// Until then Get reports ErrNotReady.
type Handle struct {
	repo atomic.Pointer[holder]
}

type holder struct {
	Repository
}

func NewHandle() *Handle {
	return &Handle{}
}

// Ready returns a handle that already holds repo.
func Ready(repo Repository) *Handle {
	h := NewHandle()
	h.Set(repo)
	return h
}

func (h *Handle) Set(repo Repository) {
	h.repo.Store(&holder{Repository: repo})
}

func (h *Handle) Get() (Repository, error) {
	cur := h.repo.Load()
	if cur == nil {
		return nil, ErrNotReady
	}
	return cur.Repository, nil
}

func (h *Handle) IsReady() bool {
	return h.repo.Load() != nil
}

// Close releases the held repository, if any.
func (h *Handle) Close() error {
	cur := h.repo.Swap(nil)
	if cur == nil {
		return nil
	}
	return cur.Close()
}
