package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/lenshub/lenshub-backend/internal/apperrors"
	"github.com/lenshub/lenshub-backend/internal/engine"
	"github.com/lenshub/lenshub-backend/internal/models"
	"github.com/lenshub/lenshub-backend/internal/repositories"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/exp/slog"
)

// bulkWorkers bounds the concurrency of bulk lifecycle operations.
const bulkWorkers = 8

// Compile-time check to ensure CampaignServiceImpl implements CampaignService
var _ CampaignService = (*CampaignServiceImpl)(nil)

// CampaignServiceImpl handles campaign CRUD, lifecycle transitions and bulk
// operations.
type CampaignServiceImpl struct {
	campaignRepo repositories.CampaignRepository
	clock        engine.Clock
}

// NewCampaignService creates a new CampaignServiceImpl
func NewCampaignService(campaignRepo repositories.CampaignRepository, clock engine.Clock) *CampaignServiceImpl {
	return &CampaignServiceImpl{
		campaignRepo: campaignRepo,
		clock:        clock,
	}
}

// findCampaign loads a campaign, mapping the store's not-found sentinel to a
// typed not-found error. Transient store errors propagate unchanged.
func (s *CampaignServiceImpl) findCampaign(ctx context.Context, id primitive.ObjectID) (*models.Campaign, error) {
	campaign, err := s.campaignRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperrors.NotFound("campaign %s not found", id.Hex())
		}
		return nil, err
	}
	return campaign, nil
}

// validateCampaign rejects malformed campaign input at construction time so
// invalid configurations never become silent runtime no-ops.
func validateCampaign(c *models.Campaign) error {
	if c.Name == "" {
		return apperrors.Validation("campaign name is required")
	}
	if c.Placement == "" {
		return apperrors.Validation("campaign placement is required")
	}
	switch c.Type {
	case models.TypeBanner, models.TypePopup, models.TypeEmail, models.TypeInline:
	default:
		return apperrors.Validation("unknown campaign type %q", c.Type)
	}
	for _, rule := range c.Targeting.BehavioralRules {
		if rule.Rule == "" {
			return apperrors.Validation("behavioral rule name is required")
		}
		switch rule.Operator {
		case models.OperatorEquals, models.OperatorNotEquals, models.OperatorGreaterThan,
			models.OperatorLessThan, models.OperatorContains:
		default:
			return apperrors.Validation("unknown behavioral rule operator %q", rule.Operator)
		}
	}
	if c.Targeting.MaxFrequency < 0 {
		return apperrors.Validation("targeting maxFrequency cannot be negative")
	}
	for _, r := range c.Targeting.AgeRanges {
		if r.Min < 0 || r.Max < r.Min {
			return apperrors.Validation("invalid age range %d..%d", r.Min, r.Max)
		}
	}
	if !c.Schedule.StartDate.IsZero() {
		if err := engine.ValidateSchedule(c.Schedule); err != nil {
			return err
		}
	}
	return nil
}

// CreateCampaign creates a campaign in draft for the acting admin.
func (s *CampaignServiceImpl) CreateCampaign(ctx context.Context, actor models.Actor, campaign *models.Campaign) (*models.Campaign, error) {
	if err := validateCampaign(campaign); err != nil {
		return nil, err
	}
	campaign.Status = models.StatusDraft
	campaign.Analytics = models.Analytics{}
	campaign.CreatedBy = actor.ID
	if err := s.campaignRepo.Create(ctx, campaign); err != nil {
		slog.Error("Failed to create campaign", "error", err, "name", campaign.Name)
		return nil, fmt.Errorf("failed to create campaign: %w", err)
	}
	slog.Info("Campaign created", "campaignId", campaign.ID.Hex(), "name", campaign.Name, "actor", actor.ID)
	return campaign, nil
}

// GetCampaignByID retrieves a campaign with derived metrics refreshed.
func (s *CampaignServiceImpl) GetCampaignByID(ctx context.Context, id primitive.ObjectID) (*models.Campaign, error) {
	campaign, err := s.findCampaign(ctx, id)
	if err != nil {
		return nil, err
	}
	campaign.Analytics.Recompute()
	return campaign, nil
}

// UpdateCampaign edits a campaign's content, targeting and metadata. Status
// and analytics are never writable here; the stored values win.
func (s *CampaignServiceImpl) UpdateCampaign(ctx context.Context, actor models.Actor, campaign *models.Campaign) (*models.Campaign, error) {
	existing, err := s.findCampaign(ctx, campaign.ID)
	if err != nil {
		return nil, err
	}
	if err := validateCampaign(campaign); err != nil {
		return nil, err
	}
	campaign.Status = existing.Status
	campaign.Analytics = existing.Analytics
	campaign.CreatedBy = existing.CreatedBy
	campaign.CreatedAt = existing.CreatedAt
	if err := s.campaignRepo.Update(ctx, campaign); err != nil {
		slog.Error("Failed to update campaign", "error", err, "campaignId", campaign.ID.Hex())
		return nil, fmt.Errorf("failed to update campaign: %w", err)
	}
	slog.Info("Campaign updated", "campaignId", campaign.ID.Hex(), "actor", actor.ID)
	return campaign, nil
}

// DeleteCampaign removes a campaign. Active campaigns are refused with a
// conflict error; the status guard is enforced inside the store's delete so
// a concurrent activation cannot slip through.
func (s *CampaignServiceImpl) DeleteCampaign(ctx context.Context, actor models.Actor, id primitive.ObjectID) error {
	campaign, err := s.findCampaign(ctx, id)
	if err != nil {
		return err
	}
	if err := engine.CanDelete(campaign.Status); err != nil {
		return err
	}
	deleted, err := s.campaignRepo.Delete(ctx, id, models.StatusActive)
	if err != nil {
		return fmt.Errorf("failed to delete campaign: %w", err)
	}
	if !deleted {
		// The campaign went active (or away) between the read and the
		// delete.
		if _, err := s.findCampaign(ctx, id); err != nil {
			return err
		}
		return apperrors.Conflict("cannot delete an active campaign; deactivate it first")
	}
	slog.Info("Campaign deleted", "campaignId", id.Hex(), "actor", actor.ID)
	return nil
}

// ListCampaigns lists campaigns matching the query.
func (s *CampaignServiceImpl) ListCampaigns(ctx context.Context, q repositories.CampaignQuery) ([]*models.Campaign, int64, error) {
	campaigns, total, err := s.campaignRepo.Query(ctx, q)
	if err != nil {
		return nil, 0, err
	}
	for _, c := range campaigns {
		c.Analytics.Recompute()
	}
	return campaigns, total, nil
}

// transition applies a lifecycle operation. The compare-and-set in
// UpdateStatus keeps the transition atomic for the campaign: if the status
// moved underneath us the operation is re-validated against the new status.
func (s *CampaignServiceImpl) transition(ctx context.Context, id primitive.ObjectID, op engine.Operation, schedule *models.Schedule) (*models.Campaign, error) {
	campaign, err := s.findCampaign(ctx, id)
	if err != nil {
		return nil, err
	}
	next, err := engine.NextStatus(op, campaign.Status)
	if err != nil {
		return nil, err
	}
	updated, err := s.campaignRepo.UpdateStatus(ctx, id, campaign.Status, next, schedule)
	if err != nil {
		return nil, fmt.Errorf("failed to apply %s: %w", op, err)
	}
	if updated == nil {
		return nil, apperrors.InvalidTransition("campaign %s changed status while applying %s", id.Hex(), op)
	}
	slog.Info("Campaign transitioned", "campaignId", id.Hex(), "operation", string(op), "status", string(updated.Status))
	return updated, nil
}

// SubmitForReview moves a draft into review.
func (s *CampaignServiceImpl) SubmitForReview(ctx context.Context, actor models.Actor, id primitive.ObjectID) (*models.Campaign, error) {
	return s.transition(ctx, id, engine.OpSubmitForReview, nil)
}

// Approve accepts a campaign under review. Elevated role required.
func (s *CampaignServiceImpl) Approve(ctx context.Context, actor models.Actor, id primitive.ObjectID) (*models.Campaign, error) {
	if !actor.Elevated() {
		return nil, apperrors.Permission("approving campaigns requires the admin role")
	}
	return s.transition(ctx, id, engine.OpApprove, nil)
}

// Reject declines a campaign under review. Elevated role required.
func (s *CampaignServiceImpl) Reject(ctx context.Context, actor models.Actor, id primitive.ObjectID) (*models.Campaign, error) {
	if !actor.Elevated() {
		return nil, apperrors.Permission("rejecting campaigns requires the admin role")
	}
	return s.transition(ctx, id, engine.OpReject, nil)
}

// Schedule attaches a validated schedule to an approved campaign. Invalid
// input leaves the campaign untouched.
func (s *CampaignServiceImpl) Schedule(ctx context.Context, actor models.Actor, id primitive.ObjectID, schedule models.Schedule) (*models.Campaign, error) {
	if err := engine.ValidateSchedule(schedule); err != nil {
		return nil, err
	}
	return s.transition(ctx, id, engine.OpSchedule, &schedule)
}

// Unschedule returns a scheduled campaign to approved.
func (s *CampaignServiceImpl) Unschedule(ctx context.Context, actor models.Actor, id primitive.ObjectID) (*models.Campaign, error) {
	return s.transition(ctx, id, engine.OpUnschedule, nil)
}

// Activate starts an approved or paused campaign. A future startDate is a
// scheduling error unless an elevated actor force-starts it.
func (s *CampaignServiceImpl) Activate(ctx context.Context, actor models.Actor, id primitive.ObjectID, force bool) (*models.Campaign, error) {
	campaign, err := s.findCampaign(ctx, id)
	if err != nil {
		return nil, err
	}
	if campaign.Schedule.StartDate.After(s.clock.Now()) {
		if !force {
			return nil, apperrors.Validation("campaign startDate %s is in the future", campaign.Schedule.StartDate.Format(time.RFC3339))
		}
		if !actor.Elevated() {
			return nil, apperrors.Permission("force-activating a future campaign requires the admin role")
		}
	}
	return s.transition(ctx, id, engine.OpActivate, nil)
}

// Deactivate pauses an active campaign.
func (s *CampaignServiceImpl) Deactivate(ctx context.Context, actor models.Actor, id primitive.ObjectID) (*models.Campaign, error) {
	return s.transition(ctx, id, engine.OpDeactivate, nil)
}

// Complete closes out an active or paused campaign.
func (s *CampaignServiceImpl) Complete(ctx context.Context, actor models.Actor, id primitive.ObjectID) (*models.Campaign, error) {
	return s.transition(ctx, id, engine.OpComplete, nil)
}

// Expire moves a campaign past its endDate to expired. System-driven; no
// actor gate.
func (s *CampaignServiceImpl) Expire(ctx context.Context, id primitive.ObjectID) (*models.Campaign, error) {
	return s.transition(ctx, id, engine.OpExpire, nil)
}

// NextOccurrence reports the campaign's next recurrence boundary after t.
func (s *CampaignServiceImpl) NextOccurrence(ctx context.Context, id primitive.ObjectID, t time.Time) (time.Time, bool, error) {
	campaign, err := s.findCampaign(ctx, id)
	if err != nil {
		return time.Time{}, false, err
	}
	next, ok := engine.NextOccurrence(campaign.Schedule, t)
	return next, ok, nil
}

// BulkApply applies a lifecycle operation to each ID independently with
// bounded concurrency. One ID's failure never aborts the rest; every input
// ID lands in exactly one of the result buckets.
func (s *CampaignServiceImpl) BulkApply(ctx context.Context, actor models.Actor, op models.BulkOperation, ids []string) (*models.BulkResult, error) {
	switch op {
	case models.BulkActivate, models.BulkDeactivate, models.BulkApprove, models.BulkDelete:
	default:
		return nil, apperrors.Validation("unknown bulk operation %q", op)
	}

	result := &models.BulkResult{
		SucceededIDs: []string{},
		FailedIDs:    []string{},
		ErrorsByID:   map[string]models.BulkError{},
	}
	var mu sync.Mutex
	var wg sync.WaitGroup
	sem := make(chan struct{}, bulkWorkers)

	for _, rawID := range ids {
		rawID := rawID
		wg.Add(1)
		sem <- struct{}{}
		go func() {
			defer wg.Done()
			defer func() { <-sem }()

			err := s.applyOne(ctx, actor, op, rawID)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				kind := apperrors.KindOf(err)
				if kind == "" {
					kind = "INTERNAL"
				}
				result.FailedIDs = append(result.FailedIDs, rawID)
				result.ErrorsByID[rawID] = models.BulkError{Kind: string(kind), Message: err.Error()}
				return
			}
			result.SucceededIDs = append(result.SucceededIDs, rawID)
		}()
	}
	wg.Wait()

	slog.Info("Bulk operation finished", "operation", string(op),
		"requested", len(ids), "succeeded", len(result.SucceededIDs), "failed", len(result.FailedIDs))
	return result, nil
}

func (s *CampaignServiceImpl) applyOne(ctx context.Context, actor models.Actor, op models.BulkOperation, rawID string) error {
	id, err := primitive.ObjectIDFromHex(rawID)
	if err != nil {
		return apperrors.Validation("invalid campaign ID %q", rawID)
	}
	switch op {
	case models.BulkActivate:
		_, err = s.Activate(ctx, actor, id, false)
	case models.BulkDeactivate:
		_, err = s.Deactivate(ctx, actor, id)
	case models.BulkApprove:
		_, err = s.Approve(ctx, actor, id)
	case models.BulkDelete:
		err = s.DeleteCampaign(ctx, actor, id)
	}
	return err
}
