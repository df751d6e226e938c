package store

import (
	"context"
	"database/sql/driver"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ms-bulletin/internal/models"
)

type fakeRepo struct {
	closed bool
}

func (f *fakeRepo) FindApproved(context.Context) ([]models.Event, error) {
	return nil, nil
}

func (f *fakeRepo) FindAll(context.Context) ([]models.Event, error) {
	return nil, nil
}

func (f *fakeRepo) FindByID(context.Context, string) (*models.Event, error) {
	return nil, ErrNotFound
}

func (f *fakeRepo) Insert(context.Context, models.EventDraft) (*models.Event, error) {
	return &models.Event{}, nil
}

func (f *fakeRepo) DeleteByID(context.Context, string) error {
	return nil
}

func (f *fakeRepo) SetApproved(context.Context, string) error {
	return nil
}

func (f *fakeRepo) Ping(context.Context) error {
	return nil
}

func (f *fakeRepo) Close() error {
	f.closed = true
	return nil
}

func TestHandleNotReadyUntilSet(t *testing.T) {
	h := NewHandle()
	assert.False(t, h.IsReady())

	_, err := h.Get()
	assert.ErrorIs(t, err, ErrNotReady)

	repo := &fakeRepo{}
	h.Set(repo)
	assert.True(t, h.IsReady())

	got, err := h.Get()
	require.NoError(t, err)
	assert.Same(t, repo, got)
}

func TestHandleClose(t *testing.T) {
	repo := &fakeRepo{}
	h := Ready(repo)

	require.NoError(t, h.Close())
	assert.True(t, repo.closed)
	assert.False(t, h.IsReady())
	assert.NoError(t, h.Close())
}

func TestWrapUnavailable(t *testing.T) {
	assert.NoError(t, WrapUnavailable("op", nil))
	assert.Equal(t, ErrNotFound, WrapUnavailable("op", ErrNotFound))

	err := WrapUnavailable("find", driver.ErrBadConn)
	assert.ErrorIs(t, err, ErrUnavailable)

	err = WrapUnavailable("find", context.DeadlineExceeded)
	assert.ErrorIs(t, err, ErrUnavailable)

	other := errors.New("syntax error")
	err = WrapUnavailable("find", other)
	assert.ErrorIs(t, err, other)
	assert.NotErrorIs(t, err, ErrUnavailable)
}
