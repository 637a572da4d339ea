package services

import (
	"context"
	"time"

	"github.com/lenshub/lenshub-backend/internal/models"
	"github.com/lenshub/lenshub-backend/internal/repositories"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CampaignService defines campaign CRUD, the lifecycle transitions and the
// bulk coordinator. The status field is only ever changed through the named
// transition methods.
type CampaignService interface {
	CreateCampaign(ctx context.Context, actor models.Actor, campaign *models.Campaign) (*models.Campaign, error)
	GetCampaignByID(ctx context.Context, id primitive.ObjectID) (*models.Campaign, error)
	UpdateCampaign(ctx context.Context, actor models.Actor, campaign *models.Campaign) (*models.Campaign, error)
	DeleteCampaign(ctx context.Context, actor models.Actor, id primitive.ObjectID) error
	ListCampaigns(ctx context.Context, q repositories.CampaignQuery) ([]*models.Campaign, int64, error)

	SubmitForReview(ctx context.Context, actor models.Actor, id primitive.ObjectID) (*models.Campaign, error)
	Approve(ctx context.Context, actor models.Actor, id primitive.ObjectID) (*models.Campaign, error)
	Reject(ctx context.Context, actor models.Actor, id primitive.ObjectID) (*models.Campaign, error)
	Schedule(ctx context.Context, actor models.Actor, id primitive.ObjectID, schedule models.Schedule) (*models.Campaign, error)
	Unschedule(ctx context.Context, actor models.Actor, id primitive.ObjectID) (*models.Campaign, error)
	Activate(ctx context.Context, actor models.Actor, id primitive.ObjectID, force bool) (*models.Campaign, error)
	Deactivate(ctx context.Context, actor models.Actor, id primitive.ObjectID) (*models.Campaign, error)
	Complete(ctx context.Context, actor models.Actor, id primitive.ObjectID) (*models.Campaign, error)
	// Expire is system-driven: it moves an active or scheduled campaign
	// past its endDate to expired.
	Expire(ctx context.Context, id primitive.ObjectID) (*models.Campaign, error)

	// NextOccurrence reports the campaign's next recurrence boundary
	// after t, for scheduling UIs.
	NextOccurrence(ctx context.Context, id primitive.ObjectID, t time.Time) (time.Time, bool, error)

	BulkApply(ctx context.Context, actor models.Actor, op models.BulkOperation, ids []string) (*models.BulkResult, error)
}

// SelectionService answers which campaigns should render in a placement for
// a visitor at a given instant. Pure read path, safe for concurrent callers.
type SelectionService interface {
	Select(ctx context.Context, placement string, visitor models.VisitorContext, now time.Time) ([]*models.Campaign, error)
}

// AnalyticsService records display and interaction events and reads
// aggregated performance numbers.
type AnalyticsService interface {
	// RecordImpression bumps the impression counter; when visitorID is
	// non-empty it also bumps the visitor's frequency-cap history.
	RecordImpression(ctx context.Context, id primitive.ObjectID, visitorID string) error
	RecordClick(ctx context.Context, id primitive.ObjectID, ctaLabel string) error
	RecordConversion(ctx context.Context, id primitive.ObjectID, revenue float64) error
	GetAnalytics(ctx context.Context, id primitive.ObjectID) (*models.Analytics, error)
	Summary(ctx context.Context, filter models.CampaignFilter) (*AnalyticsSummary, error)
}

// AnalyticsSummary aggregates counters across a set of campaigns.
type AnalyticsSummary struct {
	Campaigns      int64   `json:"campaigns"`
	Impressions    int64   `json:"impressions"`
	Clicks         int64   `json:"clicks"`
	Conversions    int64   `json:"conversions"`
	Revenue        float64 `json:"revenue"`
	CTR            float64 `json:"ctr"`
	ConversionRate float64 `json:"conversionRate"`
}

// AuthService defines the interface for admin authentication.
type AuthService interface {
	Login(ctx context.Context, req *models.LoginRequest) (string, error) // returns a JWT
}
