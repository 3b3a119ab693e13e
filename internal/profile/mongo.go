package profile

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
)

// ProfilesCollection is the MongoDB collection name for profiles.
const ProfilesCollection = "profiles"

// MongoRepository implements Repository backed by a MongoDB collection.
type MongoRepository struct {
	coll *mongo.Collection
}

// NewMongoRepository creates a Mongo-backed profile repository on the given database.
func NewMongoRepository(db *mongo.Database) *MongoRepository {
	return &MongoRepository{coll: db.Collection(ProfilesCollection)}
}

// Insert stores a new profile. Returns ErrDuplicateID when the ID is taken.
func (r *MongoRepository) Insert(ctx context.Context, p *Profile) error {
	_, err := r.coll.InsertOne(ctx, p)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicateID
		}
		return fmt.Errorf("insert profile %s: %w", p.ID, err)
	}
	return nil
}

// GetByID retrieves a profile by ID. Returns ErrNotFound if absent.
func (r *MongoRepository) GetByID(ctx context.Context, id string) (*Profile, error) {
	var p Profile
	err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&p)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get profile %s: %w", id, err)
	}
	return &p, nil
}

// Update overwrites an existing profile. Returns ErrNotFound if absent.
func (r *MongoRepository) Update(ctx context.Context, p *Profile) error {
	res, err := r.coll.ReplaceOne(ctx, bson.M{"_id": p.ID}, p)
	if err != nil {
		return fmt.Errorf("update profile %s: %w", p.ID, err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a profile by ID. Returns ErrNotFound if absent.
func (r *MongoRepository) Delete(ctx context.Context, id string) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete profile %s: %w", id, err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}
