package store

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ayush/app-store/backend/internal/models"
)

// MongoJournal stores user activity entries in MongoDB.
type MongoJournal struct {
	col *mongo.Collection
}

func NewMongoJournal(db *mongo.Database) *MongoJournal {
	return &MongoJournal{col: db.Collection("activity")}
}

// EnsureIndexes creates the (user_id, created_at) index used by ListByUser.
func (s *MongoJournal) EnsureIndexes(ctx context.Context) error {
	_, err := s.col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}},
	})
	if err != nil {
		return fmt.Errorf("mongo index: %w", err)
	}
	return nil
}

func (s *MongoJournal) Record(ctx context.Context, a *models.Activity) error {
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	if _, err := s.col.InsertOne(ctx, a); err != nil {
		return fmt.Errorf("mongo insert: %w", err)
	}
	return nil
}

// ListByUser returns the user's entries, newest first.
func (s *MongoJournal) ListByUser(ctx context.Context, userID int64) ([]models.Activity, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cur, err := s.col.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, fmt.Errorf("mongo find: %w", err)
	}
	defer cur.Close(ctx)

	var entries []models.Activity
	if err := cur.All(ctx, &entries); err != nil {
		return nil, fmt.Errorf("mongo decode: %w", err)
	}
	return entries, nil
}
