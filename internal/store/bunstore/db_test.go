package bunstore_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ms-bulletin/internal/models"
	"ms-bulletin/internal/store"
	"ms-bulletin/internal/store/bunstore"
)

func setupTestDB(t *testing.T) *bunstore.DB {
	t.Helper()
	ctx := context.Background()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := bunstore.Open(ctx, bunstore.DriverSQLite, dsn, bunstore.Options{MaxOpenConns: 1})
	require.NoError(t, err)
	require.NoError(t, db.CreateSchema(ctx))

	t.Cleanup(func() { db.Close() })
	return db
}

func draft(title string, ts time.Time) models.EventDraft {
	return models.EventDraft{
		Title:       title,
		Timestamp:   ts,
		Location:    "Community Hall",
		Description: "Bring a friend",
	}
}

func TestInsertAssignsIdentity(t *testing.T) {
	db := setupTestDB(t)
	created := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	db.Now = func() time.Time { return created }

	ts := time.Date(2025, 6, 12, 18, 0, 0, 0, time.UTC)
	ev, err := db.Insert(context.Background(), draft("Potluck", ts))
	require.NoError(t, err)

	_, err = uuid.Parse(ev.ID)
	assert.NoError(t, err)
	assert.False(t, ev.Approved)
	assert.Equal(t, created, ev.CreatedAt)

	got, err := db.FindByID(context.Background(), ev.ID)
	require.NoError(t, err)
	assert.Equal(t, "Potluck", got.Title)
	assert.True(t, ts.Equal(got.Timestamp))
	assert.False(t, got.Approved)
}

func TestFindApprovedOnlyReturnsApproved(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	base := time.Date(2025, 6, 12, 18, 0, 0, 0, time.UTC)

	later, err := db.Insert(ctx, draft("Later", base.Add(48*time.Hour)))
	require.NoError(t, err)
	pending, err := db.Insert(ctx, draft("Pending", base))
	require.NoError(t, err)
	earlier, err := db.Insert(ctx, draft("Earlier", base.Add(-24*time.Hour)))
	require.NoError(t, err)

	require.NoError(t, db.SetApproved(ctx, later.ID))
	require.NoError(t, db.SetApproved(ctx, earlier.ID))

	approved, err := db.FindApproved(ctx)
	require.NoError(t, err)
	require.Len(t, approved, 2)
	assert.Equal(t, earlier.ID, approved[0].ID)
	assert.Equal(t, later.ID, approved[1].ID)

	all, err := db.FindAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)
	assert.Equal(t, pending.ID, all[1].ID)
}

func TestSetApprovedIsOneWayAndIdempotent(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	ev, err := db.Insert(ctx, draft("Rally", time.Now().Add(time.Hour)))
	require.NoError(t, err)

	require.NoError(t, db.SetApproved(ctx, ev.ID))
	require.NoError(t, db.SetApproved(ctx, ev.ID))

	got, err := db.FindByID(ctx, ev.ID)
	require.NoError(t, err)
	assert.True(t, got.Approved)
}

func TestMissingIDsReportNotFound(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	missing := uuid.NewString()

	assert.ErrorIs(t, db.SetApproved(ctx, missing), store.ErrNotFound)
	assert.ErrorIs(t, db.DeleteByID(ctx, missing), store.ErrNotFound)

	_, err := db.FindByID(ctx, missing)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestMalformedIDsAreRejected(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	assert.ErrorIs(t, db.SetApproved(ctx, "not-an-id"), store.ErrInvalidID)
	assert.ErrorIs(t, db.DeleteByID(ctx, "not-an-id"), store.ErrInvalidID)
}

func TestDeleteRemovesEvent(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	ev, err := db.Insert(ctx, draft("Cleanup", time.Now()))
	require.NoError(t, err)

	require.NoError(t, db.DeleteByID(ctx, ev.ID))
	assert.ErrorIs(t, db.DeleteByID(ctx, ev.ID), store.ErrNotFound)

	all, err := db.FindAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestPing(t *testing.T) {
	db := setupTestDB(t)
	assert.NoError(t, db.Ping(context.Background()))
}
