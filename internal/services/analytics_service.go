package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/lenshub/lenshub-backend/internal/apperrors"
	"github.com/lenshub/lenshub-backend/internal/engine"
	"github.com/lenshub/lenshub-backend/internal/models"
	"github.com/lenshub/lenshub-backend/internal/repositories"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/exp/slog"
)

// Compile-time check to ensure AnalyticsServiceImpl implements AnalyticsService
var _ AnalyticsService = (*AnalyticsServiceImpl)(nil)

// AnalyticsServiceImpl records impression, click and conversion events.
// Counters only move through the store's atomic increment, never a read
// followed by a write, so concurrent events cannot lose updates. Derived
// rates are recomputed from the returned counters on every event.
type AnalyticsServiceImpl struct {
	campaignRepo repositories.CampaignRepository
	historyRepo  repositories.ImpressionHistoryRepository
	clock        engine.Clock
}

// NewAnalyticsService creates a new AnalyticsServiceImpl
func NewAnalyticsService(campaignRepo repositories.CampaignRepository, historyRepo repositories.ImpressionHistoryRepository, clock engine.Clock) *AnalyticsServiceImpl {
	return &AnalyticsServiceImpl{
		campaignRepo: campaignRepo,
		historyRepo:  historyRepo,
		clock:        clock,
	}
}

func (s *AnalyticsServiceImpl) increment(ctx context.Context, id primitive.ObjectID, deltas map[string]float64) (*models.Analytics, error) {
	analytics, err := s.campaignRepo.IncrementAnalytics(ctx, id, deltas)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperrors.NotFound("campaign %s not found", id.Hex())
		}
		return nil, fmt.Errorf("failed to increment analytics: %w", err)
	}
	analytics.Recompute()
	return analytics, nil
}

// RecordImpression counts one display of the campaign. A non-empty
// visitorID also bumps the visitor's per-day history so the frequency cap
// sees it.
func (s *AnalyticsServiceImpl) RecordImpression(ctx context.Context, id primitive.ObjectID, visitorID string) error {
	if _, err := s.increment(ctx, id, map[string]float64{"impressions": 1}); err != nil {
		return err
	}
	if visitorID != "" {
		day := models.ImpressionDay(s.clock.Now())
		if _, err := s.historyRepo.Increment(ctx, id, visitorID, day); err != nil {
			// The campaign counter already moved; a history failure
			// only loosens capping for this visitor.
			slog.Warn("Failed to record impression history", "campaignId", id.Hex(), "visitorId", visitorID, "error", err)
		}
	}
	return nil
}

// RecordClick counts one CTA interaction.
func (s *AnalyticsServiceImpl) RecordClick(ctx context.Context, id primitive.ObjectID, ctaLabel string) error {
	analytics, err := s.increment(ctx, id, map[string]float64{"clicks": 1})
	if err != nil {
		return err
	}
	slog.Debug("Click recorded", "campaignId", id.Hex(), "ctaLabel", ctaLabel, "ctr", analytics.CTR)
	return nil
}

// RecordConversion counts one conversion, with optional revenue.
func (s *AnalyticsServiceImpl) RecordConversion(ctx context.Context, id primitive.ObjectID, revenue float64) error {
	if revenue < 0 {
		return apperrors.Validation("conversion revenue cannot be negative")
	}
	deltas := map[string]float64{"conversions": 1}
	if revenue > 0 {
		deltas["revenue"] = revenue
	}
	_, err := s.increment(ctx, id, deltas)
	return err
}

// GetAnalytics returns the campaign's counters with derived rates
// recomputed.
func (s *AnalyticsServiceImpl) GetAnalytics(ctx context.Context, id primitive.ObjectID) (*models.Analytics, error) {
	campaign, err := s.campaignRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperrors.NotFound("campaign %s not found", id.Hex())
		}
		return nil, err
	}
	campaign.Analytics.Recompute()
	return &campaign.Analytics, nil
}

// Summary aggregates counters across every campaign matching the filter.
func (s *AnalyticsServiceImpl) Summary(ctx context.Context, filter models.CampaignFilter) (*AnalyticsSummary, error) {
	const pageSize = 200
	summary := &AnalyticsSummary{}
	for page := 1; ; page++ {
		campaigns, total, err := s.campaignRepo.Query(ctx, repositories.CampaignQuery{
			Filter: filter,
			Page:   page,
			Limit:  pageSize,
		})
		if err != nil {
			return nil, err
		}
		summary.Campaigns = total
		for _, c := range campaigns {
			summary.Impressions += c.Analytics.Impressions
			summary.Clicks += c.Analytics.Clicks
			summary.Conversions += c.Analytics.Conversions
			summary.Revenue += c.Analytics.Revenue
		}
		if len(campaigns) < pageSize {
			break
		}
	}
	if summary.Impressions > 0 {
		summary.CTR = float64(summary.Clicks) / float64(summary.Impressions)
	}
	if summary.Clicks > 0 {
		summary.ConversionRate = float64(summary.Conversions) / float64(summary.Clicks)
	}
	return summary, nil
}
