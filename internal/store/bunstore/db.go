package bunstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	"ms-bulletin/internal/models"
	"ms-bulletin/internal/store"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

type DB struct {
	Bun *bun.DB
	Now func() time.Time
}

type Options struct {
	MaxOpenConns int
	MaxIdleConns int
}

// Open connects to postgres (lib/pq) or sqlite (sqliteshim) and verifies
// the connection with a ping.
func Open(ctx context.Context, driverName, dsn string, opts Options) (*DB, error) {
	var (
		sqldb *sql.DB
		err   error
		bunDB *bun.DB
	)

	switch driverName {
	case DriverPostgres:
		sqldb, err = sql.Open("postgres", dsn)
		if err != nil {
			return nil, fmt.Errorf("failed to open PostgreSQL: %w", err)
		}
		bunDB = bun.NewDB(sqldb, pgdialect.New())
	case DriverSQLite:
		sqldb, err = sql.Open(sqliteshim.ShimName, dsn)
		if err != nil {
			return nil, fmt.Errorf("failed to open SQLite: %w", err)
		}
		bunDB = bun.NewDB(sqldb, sqlitedialect.New())
	default:
		return nil, fmt.Errorf("unsupported sql driver %q", driverName)
	}

	if opts.MaxOpenConns > 0 {
		sqldb.SetMaxOpenConns(opts.MaxOpenConns)
	}
	if opts.MaxIdleConns > 0 {
		sqldb.SetMaxIdleConns(opts.MaxIdleConns)
	}

	if err := sqldb.PingContext(ctx); err != nil {
		sqldb.Close()
		return nil, store.WrapUnavailable("ping", err)
	}

	return New(bunDB), nil
}

func New(bunDB *bun.DB) *DB {
	return &DB{Bun: bunDB, Now: time.Now}
}

// CreateSchema creates the events table when missing. Postgres deployments
// normally use the migrations package instead.
func (d *DB) CreateSchema(ctx context.Context) error {
	_, err := d.Bun.NewCreateTable().
		Model((*models.Event)(nil)).
		IfNotExists().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("create events table: %w", err)
	}

	_, err = d.Bun.NewCreateIndex().
		Model((*models.Event)(nil)).
		Index("events_approved_timestamp_idx").
		Column("approved", "timestamp").
		IfNotExists().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("create events index: %w", err)
	}
	return nil
}

func (d *DB) FindApproved(ctx context.Context) ([]models.Event, error) {
	events := make([]models.Event, 0)
	err := d.Bun.NewSelect().
		Model(&events).
		Where("approved = ?", true).
		OrderExpr("? ASC", bun.Ident("timestamp")).
		Scan(ctx)
	if err != nil {
		return nil, store.WrapUnavailable("find approved events", err)
	}
	return events, nil
}

func (d *DB) FindAll(ctx context.Context) ([]models.Event, error) {
	events := make([]models.Event, 0)
	err := d.Bun.NewSelect().
		Model(&events).
		OrderExpr("? ASC", bun.Ident("timestamp")).
		Scan(ctx)
	if err != nil {
		return nil, store.WrapUnavailable("find events", err)
	}
	return events, nil
}

func (d *DB) FindByID(ctx context.Context, id string) (*models.Event, error) {
	if err := validateID(id); err != nil {
		return nil, err
	}

	var event models.Event
	err := d.Bun.NewSelect().
		Model(&event).
		Where("id = ?", id).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, store.WrapUnavailable("find event", err)
	}
	return &event, nil
}

func (d *DB) Insert(ctx context.Context, draft models.EventDraft) (*models.Event, error) {
	event := models.Event{
		ID:          uuid.New().String(),
		Title:       draft.Title,
		Timestamp:   draft.Timestamp.UTC(),
		Location:    draft.Location,
		Description: draft.Description,
		Link:        draft.Link,
		Approved:    false,
		CreatedAt:   d.Now().UTC(),
	}

	if _, err := d.Bun.NewInsert().Model(&event).Exec(ctx); err != nil {
		return nil, store.WrapUnavailable("insert event", err)
	}
	return &event, nil
}

func (d *DB) DeleteByID(ctx context.Context, id string) error {
	if err := validateID(id); err != nil {
		return err
	}

	res, err := d.Bun.NewDelete().
		Model((*models.Event)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return store.WrapUnavailable("delete event", err)
	}
	return requireAffected(res)
}

func (d *DB) SetApproved(ctx context.Context, id string) error {
	if err := validateID(id); err != nil {
		return err
	}

	res, err := d.Bun.NewUpdate().
		Model((*models.Event)(nil)).
		Set("approved = ?", true).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return store.WrapUnavailable("approve event", err)
	}
	return requireAffected(res)
}

func (d *DB) Ping(ctx context.Context) error {
	return store.WrapUnavailable("ping", d.Bun.PingContext(ctx))
}

func (d *DB) Close() error {
	return d.Bun.Close()
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func validateID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("%w: %q", store.ErrInvalidID, id)
	}
	return nil
}
