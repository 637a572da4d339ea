package mongodb

import (
	"context"
	"errors"
	"time"

	"github.com/lenshub/lenshub-backend/internal/models"
	"github.com/lenshub/lenshub-backend/internal/repositories"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ImpressionHistoryRepository implements
// repositories.ImpressionHistoryRepository on MongoDB. Records are keyed
// (campaignId, visitorId, day) and bumped with $inc upserts.
type ImpressionHistoryRepository struct {
	collection *mongo.Collection
}

// NewImpressionHistoryRepository creates a new ImpressionHistoryRepository
func NewImpressionHistoryRepository(db *mongo.Database) repositories.ImpressionHistoryRepository {
	return &ImpressionHistoryRepository{
		collection: db.Collection("impression_history"),
	}
}

// Increment bumps the day's count for the (campaign, visitor) pair and
// returns the new count. Upsert plus $inc keeps concurrent page views from
// losing updates.
func (r *ImpressionHistoryRepository) Increment(ctx context.Context, campaignID primitive.ObjectID, visitorID, day string) (int, error) {
	filter := bson.M{
		"campaignId": campaignID,
		"visitorId":  visitorID,
		"day":        day,
	}
	update := bson.M{
		"$inc": bson.M{"count": 1},
		"$set": bson.M{"updatedAt": time.Now()},
	}
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var record models.ImpressionRecord
	if err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&record); err != nil {
		return 0, err
	}
	return record.Count, nil
}

// CountForDay returns the day's impression count, 0 when no record exists.
func (r *ImpressionHistoryRepository) CountForDay(ctx context.Context, campaignID primitive.ObjectID, visitorID, day string) (int, error) {
	filter := bson.M{
		"campaignId": campaignID,
		"visitorId":  visitorID,
		"day":        day,
	}
	var record models.ImpressionRecord
	err := r.collection.FindOne(ctx, filter).Decode(&record)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return 0, nil
		}
		return 0, err
	}
	return record.Count, nil
}
