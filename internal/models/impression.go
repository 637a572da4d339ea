package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ImpressionRecord is a per-day impression counter for one (campaign,
// visitor) pair. Day is the UTC calendar day in YYYY-MM-DD form; counts are
// bumped with atomic upserts so concurrent page views never lose updates.
type ImpressionRecord struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	CampaignID primitive.ObjectID `bson:"campaignId" json:"campaignId"`
	VisitorID  string             `bson:"visitorId" json:"visitorId"`
	Day        string             `bson:"day" json:"day"`
	Count      int                `bson:"count" json:"count"`
	UpdatedAt  time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// ImpressionDay formats t as an impression-history day key.
func ImpressionDay(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}
