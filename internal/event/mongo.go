package event

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
)

// EventsCollection is the MongoDB collection name for events.
const EventsCollection = "events"

// MongoRepository implements Repository backed by a MongoDB collection.
type MongoRepository struct {
	coll *mongo.Collection
}

// NewMongoRepository creates a Mongo-backed event repository on the given database.
func NewMongoRepository(db *mongo.Database) *MongoRepository {
	return &MongoRepository{coll: db.Collection(EventsCollection)}
}

// Insert stores a new event. Returns ErrDuplicateID when the ID is taken.
func (r *MongoRepository) Insert(ctx context.Context, e *Event) error {
	_, err := r.coll.InsertOne(ctx, e)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicateID
		}
		return fmt.Errorf("insert event %s: %w", e.ID, err)
	}
	return nil
}

// GetByID retrieves an event by ID. Returns ErrNotFound if absent.
func (r *MongoRepository) GetByID(ctx context.Context, id string) (*Event, error) {
	var e Event
	err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&e)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get event %s: %w", id, err)
	}
	return &e, nil
}

// Update overwrites an existing event. Returns ErrNotFound if absent.
func (r *MongoRepository) Update(ctx context.Context, e *Event) error {
	res, err := r.coll.ReplaceOne(ctx, bson.M{"_id": e.ID}, e)
	if err != nil {
		return fmt.Errorf("update event %s: %w", e.ID, err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes an event by ID. Returns ErrNotFound if absent.
func (r *MongoRepository) Delete(ctx context.Context, id string) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete event %s: %w", id, err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// List returns all events matching the filter.
func (r *MongoRepository) List(ctx context.Context, f Filter) ([]*Event, error) {
	query := bson.M{}
	if f.SerieID != "" {
		query["serie_id"] = f.SerieID
	}
	if f.OwnerID != "" {
		query["owner_id"] = f.OwnerID
	}
	if f.ParticipantID != "" {
		query["participants"] = f.ParticipantID
	}
	if f.Visibility != "" {
		query["visibility"] = f.Visibility
	}

	cursor, err := r.coll.Find(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer cursor.Close(ctx)

	var events []*Event
	if err := cursor.All(ctx, &events); err != nil {
		return nil, fmt.Errorf("decode events: %w", err)
	}
	return events, nil
}
