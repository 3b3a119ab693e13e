package series

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
)

// SeriesCollection is the MongoDB collection name for series.
const SeriesCollection = "series"

// MongoRepository implements Repository backed by a MongoDB collection.
type MongoRepository struct {
	coll *mongo.Collection
}

// NewMongoRepository creates a Mongo-backed serie repository on the given database.
func NewMongoRepository(db *mongo.Database) *MongoRepository {
	return &MongoRepository{coll: db.Collection(SeriesCollection)}
}

// Insert stores a new serie. Returns ErrDuplicateID when the ID is taken.
func (r *MongoRepository) Insert(ctx context.Context, s *Serie) error {
	_, err := r.coll.InsertOne(ctx, s)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicateID
		}
		return fmt.Errorf("insert serie %s: %w", s.ID, err)
	}
	return nil
}

// GetByID retrieves a serie by ID. Returns ErrNotFound if absent.
func (r *MongoRepository) GetByID(ctx context.Context, id string) (*Serie, error) {
	var s Serie
	err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&s)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get serie %s: %w", id, err)
	}
	return &s, nil
}

// Update overwrites an existing serie. Returns ErrNotFound if absent.
func (r *MongoRepository) Update(ctx context.Context, s *Serie) error {
	res, err := r.coll.ReplaceOne(ctx, bson.M{"_id": s.ID}, s)
	if err != nil {
		return fmt.Errorf("update serie %s: %w", s.ID, err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a serie by ID. Refuses while member events remain; the
// membership guard runs on the loaded document before the delete is issued.
func (r *MongoRepository) Delete(ctx context.Context, id string) error {
	s, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if len(s.EventIDs) > 0 {
		return ErrHasMemberEvents
	}

	// Conditional delete so a member added between the read and the delete
	// still blocks removal.
	res, err := r.coll.DeleteOne(ctx, bson.M{
		"_id": id,
		"$or": bson.A{
			bson.M{"event_ids": bson.M{"$size": 0}},
			bson.M{"event_ids": bson.M{"$exists": false}},
		},
	})
	if err != nil {
		return fmt.Errorf("delete serie %s: %w", id, err)
	}
	if res.DeletedCount == 0 {
		return ErrHasMemberEvents
	}
	return nil
}

// ListByOwner returns all series owned by the given user.
func (r *MongoRepository) ListByOwner(ctx context.Context, ownerID string) ([]*Serie, error) {
	cursor, err := r.coll.Find(ctx, bson.M{"owner_id": ownerID})
	if err != nil {
		return nil, fmt.Errorf("list series: %w", err)
	}
	defer cursor.Close(ctx)

	var out []*Serie
	if err := cursor.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode series: %w", err)
	}
	return out, nil
}
