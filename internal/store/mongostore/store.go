// Package mongostore keeps events in a MongoDB collection, the layout the
// bulletin used before the SQL backend existed.
package mongostore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"ms-bulletin/internal/bucket"
	"ms-bulletin/internal/models"
	"ms-bulletin/internal/store"
)

type Store struct {
	Client     *mongo.Client
	Collection *mongo.Collection
	Location   *time.Location
	Now        func() time.Time
}

// insertDoc is the shape written by Insert.
type insertDoc struct {
	Title       string    `bson:"title"`
	Timestamp   time.Time `bson:"timestamp"`
	Location    string    `bson:"location"`
	Description string    `bson:"description"`
	Link        string    `bson:"link,omitempty"`
	Approved    bool      `bson:"approved"`
	CreatedAt   time.Time `bson:"createdAt"`
}

// eventDoc is the shape read back. Older documents may carry the
// timestamp as a string, so it is decoded lazily.
type eventDoc struct {
	ID          primitive.ObjectID `bson:"_id"`
	Title       string             `bson:"title"`
	Timestamp   bson.RawValue      `bson:"timestamp"`
	Location    string             `bson:"location"`
	Description string             `bson:"description"`
	Link        string             `bson:"link,omitempty"`
	Approved    bool               `bson:"approved"`
	CreatedAt   time.Time          `bson:"createdAt"`
}

func Connect(ctx context.Context, uri, database, collection string) (*Store, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to create MongoDB client: %w", err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, wrap("ping", err)
	}

	return &Store{
		Client:     client,
		Collection: client.Database(database).Collection(collection),
		Location:   time.Local,
		Now:        time.Now,
	}, nil
}

func (s *Store) FindApproved(ctx context.Context) ([]models.Event, error) {
	return s.find(ctx, bson.M{"approved": true})
}

func (s *Store) FindAll(ctx context.Context) ([]models.Event, error) {
	return s.find(ctx, bson.M{})
}

func (s *Store) find(ctx context.Context, filter bson.M) ([]models.Event, error) {
	opts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: 1}})
	cursor, err := s.Collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, wrap("find events", err)
	}
	defer cursor.Close(ctx)

	var docs []eventDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, wrap("decode events", err)
	}

	events := make([]models.Event, 0, len(docs))
	for _, doc := range docs {
		events = append(events, doc.toModel(s.Location))
	}
	return events, nil
}

func (s *Store) FindByID(ctx context.Context, id string) (*models.Event, error) {
	oid, err := parseID(id)
	if err != nil {
		return nil, err
	}

	var doc eventDoc
	err = s.Collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, wrap("find event", err)
	}

	event := doc.toModel(s.Location)
	return &event, nil
}

func (s *Store) Insert(ctx context.Context, draft models.EventDraft) (*models.Event, error) {
	doc := insertDoc{
		Title:       draft.Title,
		Timestamp:   draft.Timestamp.UTC(),
		Location:    draft.Location,
		Description: draft.Description,
		Link:        draft.Link,
		Approved:    false,
		CreatedAt:   s.Now().UTC(),
	}

	res, err := s.Collection.InsertOne(ctx, doc)
	if err != nil {
		return nil, wrap("insert event", err)
	}

	oid, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return nil, fmt.Errorf("unexpected inserted id type %T", res.InsertedID)
	}

	return &models.Event{
		ID:          oid.Hex(),
		Title:       doc.Title,
		Timestamp:   doc.Timestamp,
		Location:    doc.Location,
		Description: doc.Description,
		Link:        doc.Link,
		Approved:    false,
		CreatedAt:   doc.CreatedAt,
	}, nil
}

func (s *Store) DeleteByID(ctx context.Context, id string) error {
	oid, err := parseID(id)
	if err != nil {
		return err
	}

	res, err := s.Collection.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return wrap("delete event", err)
	}
	if res.DeletedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) SetApproved(ctx context.Context, id string) error {
	oid, err := parseID(id)
	if err != nil {
		return err
	}

	res, err := s.Collection.UpdateOne(ctx,
		bson.M{"_id": oid},
		bson.M{"$set": bson.M{"approved": true}},
	)
	if err != nil {
		return wrap("approve event", err)
	}
	if res.MatchedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return wrap("ping", s.Client.Ping(ctx, readpref.Primary()))
}

func (s *Store) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.Client.Disconnect(ctx)
}

// toModel converts a stored document. A timestamp that is neither a BSON
// date nor a parseable string becomes the zero time, which the bucketer
// skips.
func (d eventDoc) toModel(loc *time.Location) models.Event {
	return models.Event{
		ID:          d.ID.Hex(),
		Title:       d.Title,
		Timestamp:   decodeTimestamp(d.Timestamp, loc),
		Location:    d.Location,
		Description: d.Description,
		Link:        d.Link,
		Approved:    d.Approved,
		CreatedAt:   d.CreatedAt,
	}
}

func decodeTimestamp(raw bson.RawValue, loc *time.Location) time.Time {
	if ms, ok := raw.DateTimeOK(); ok {
		return time.UnixMilli(ms).UTC()
	}
	if str, ok := raw.StringValueOK(); ok {
		if t, err := bucket.ParseTimestamp(str, loc); err == nil {
			return t
		}
	}
	return time.Time{}
}

func parseID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("%w: %q", store.ErrInvalidID, id)
	}
	return oid, nil
}

func wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	if mongo.IsNetworkError(err) || mongo.IsTimeout(err) || errors.Is(err, mongo.ErrClientDisconnected) {
		return fmt.Errorf("%s: %w: %v", op, store.ErrUnavailable, err)
	}
	return store.WrapUnavailable(op, err)
}
