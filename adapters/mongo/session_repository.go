package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/echocanvas/echocanvas/server/domain/entities"
	"github.com/echocanvas/echocanvas/server/domain/repositories"
)

// SessionRepository implements repositories.SessionRepository on a MongoDB
// collection, one document per named session.
type SessionRepository struct {
	collection *mongo.Collection
}

var _ repositories.SessionRepository = (*SessionRepository)(nil)

// NewSessionRepository creates a MongoDB session repository.
func NewSessionRepository(db *mongo.Database) *SessionRepository {
	return &SessionRepository{collection: db.Collection("sessions")}
}

// Append pushes an item onto the named session document, creating it on
// first use.
func (r *SessionRepository) Append(ctx context.Context, session string, item entities.SessionItem) error {
	filter := bson.M{"name": session}
	update := bson.M{
		"$push":        bson.M{"items": item},
		"$setOnInsert": bson.M{"name": session, "started_at": time.Now()},
	}

	_, err := r.collection.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to append session item: %w", err)
	}
	return nil
}

// List returns the most recently started sessions, newest first.
func (r *SessionRepository) List(ctx context.Context, limit int) ([]entities.SessionRecord, error) {
	opts := options.Find().
		SetSort(bson.M{"started_at": -1}).
		SetLimit(int64(limit))

	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer cursor.Close(ctx)

	var records []entities.SessionRecord
	if err := cursor.All(ctx, &records); err != nil {
		return nil, fmt.Errorf("failed to decode sessions: %w", err)
	}
	return records, nil
}
