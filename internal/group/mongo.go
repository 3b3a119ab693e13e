package group

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
)

// GroupsCollection is the MongoDB collection name for groups.
const GroupsCollection = "groups"

// MongoReader implements Reader backed by a MongoDB collection.
type MongoReader struct {
	coll *mongo.Collection
}

// NewMongoReader creates a Mongo-backed group reader on the given database.
func NewMongoReader(db *mongo.Database) *MongoReader {
	return &MongoReader{coll: db.Collection(GroupsCollection)}
}

// GetByID retrieves a group by ID. Returns ErrNotFound if absent.
func (r *MongoReader) GetByID(ctx context.Context, id string) (*Group, error) {
	var g Group
	err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&g)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get group %s: %w", id, err)
	}
	return &g, nil
}
