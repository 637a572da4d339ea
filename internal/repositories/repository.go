package repositories

import (
	"context"
	"time"

	"github.com/lenshub/lenshub-backend/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CampaignQuery narrows and pages campaign listings.
type CampaignQuery struct {
	Filter   models.CampaignFilter
	SortBy   string // field name, e.g. "createdAt", "priority"
	SortDesc bool
	Page     int // 1-based
	Limit    int
}

// CampaignRepository defines the interface for campaign persistence.
//
// IncrementAnalytics is the atomic counter contract: implementations must
// apply the deltas in a single round trip (no read-modify-write) and return
// the counters as they stood after the increment. UpdateStatus is a
// compare-and-set on the current status so lifecycle transitions are atomic
// with respect to a single campaign.
type CampaignRepository interface {
	Create(ctx context.Context, campaign *models.Campaign) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Campaign, error)
	Update(ctx context.Context, campaign *models.Campaign) error
	// Delete removes the campaign unless its status equals exclude.
	// It returns false when nothing was deleted.
	Delete(ctx context.Context, id primitive.ObjectID, exclude models.CampaignStatus) (bool, error)
	Query(ctx context.Context, q CampaignQuery) ([]*models.Campaign, int64, error)
	FindActiveByPlacement(ctx context.Context, placement string) ([]*models.Campaign, error)
	// FindExpiring lists active or scheduled campaigns whose endDate has
	// passed, for the background expirer.
	FindExpiring(ctx context.Context, now time.Time) ([]*models.Campaign, error)
	// UpdateStatus moves the campaign from `from` to `to`, optionally
	// replacing its schedule, and stamps updatedAt. It returns nil when
	// the campaign is no longer in `from`.
	UpdateStatus(ctx context.Context, id primitive.ObjectID, from, to models.CampaignStatus, schedule *models.Schedule) (*models.Campaign, error)
	IncrementAnalytics(ctx context.Context, id primitive.ObjectID, deltas map[string]float64) (*models.Analytics, error)
	Count(ctx context.Context) (int64, error)
}

// ImpressionHistoryRepository tracks per-day impression counts for
// (campaign, visitor) pairs, backing the frequency cap.
type ImpressionHistoryRepository interface {
	// Increment bumps the day's count by one atomically (upserting the
	// record) and returns the new count.
	Increment(ctx context.Context, campaignID primitive.ObjectID, visitorID, day string) (int, error)
	CountForDay(ctx context.Context, campaignID primitive.ObjectID, visitorID, day string) (int, error)
}

// AdminUserRepository defines the interface for admin account persistence.
type AdminUserRepository interface {
	Create(ctx context.Context, user *models.AdminUser) error
	FindByEmail(ctx context.Context, email string) (*models.AdminUser, error)
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.AdminUser, error)
}
