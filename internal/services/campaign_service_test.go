package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/lenshub/lenshub-backend/internal/apperrors"
	"github.com/lenshub/lenshub-backend/internal/engine"
	"github.com/lenshub/lenshub-backend/internal/models"
	"github.com/lenshub/lenshub-backend/internal/repositories/memory"
	"github.com/lenshub/lenshub-backend/internal/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	admin   = models.Actor{ID: "admin-1", Role: models.RoleAdmin}
	manager = models.Actor{ID: "manager-1", Role: models.RoleManager}
)

var testNow = time.Date(2026, time.March, 15, 12, 0, 0, 0, time.UTC)

func newCampaignService() (*services.CampaignServiceImpl, *memory.CampaignRepository, *engine.FrozenClock) {
	repo := memory.NewCampaignRepository()
	clock := engine.NewFrozenClock(testNow)
	return services.NewCampaignService(repo, clock), repo, clock
}

// seedCampaign plants a campaign directly in the store, bypassing the
// service's draft-forcing create path.
func seedCampaign(t *testing.T, repo *memory.CampaignRepository, status models.CampaignStatus, mutate func(*models.Campaign)) *models.Campaign {
	t.Helper()
	c := &models.Campaign{
		Name:      "Lens launch",
		Placement: "homepage_hero",
		Type:      models.TypeBanner,
		Status:    status,
	}
	if mutate != nil {
		mutate(c)
	}
	require.NoError(t, repo.Create(context.Background(), c))
	return c
}

func TestCreateCampaignForcesDraft(t *testing.T) {
	svc, _, _ := newCampaignService()
	in := &models.Campaign{
		Name:      "Spring rentals",
		Placement: "homepage_hero",
		Type:      models.TypePopup,
		Status:    models.StatusActive,
		Analytics: models.Analytics{Impressions: 999},
	}

	created, err := svc.CreateCampaign(context.Background(), manager, in)
	require.NoError(t, err)
	assert.Equal(t, models.StatusDraft, created.Status)
	assert.Equal(t, models.Analytics{}, created.Analytics)
	assert.Equal(t, manager.ID, created.CreatedBy)
	assert.False(t, created.ID.IsZero())
}

func TestCreateCampaignValidation(t *testing.T) {
	svc, _, _ := newCampaignService()
	cases := []struct {
		name     string
		campaign *models.Campaign
	}{
		{"missing name", &models.Campaign{Placement: "p", Type: models.TypeBanner}},
		{"missing placement", &models.Campaign{Name: "n", Type: models.TypeBanner}},
		{"unknown type", &models.Campaign{Name: "n", Placement: "p", Type: "billboard"}},
		{"unknown rule operator", &models.Campaign{
			Name: "n", Placement: "p", Type: models.TypeBanner,
			Targeting: models.Targeting{BehavioralRules: []models.BehavioralRule{
				{Rule: "rentalCount", Operator: "matches", Value: "5"},
			}},
		}},
		{"negative max frequency", &models.Campaign{
			Name: "n", Placement: "p", Type: models.TypeBanner,
			Targeting: models.Targeting{MaxFrequency: -1},
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.CreateCampaign(context.Background(), manager, tc.campaign)
			require.Error(t, err)
			assert.True(t, apperrors.IsKind(err, apperrors.KindValidation), "got %v", err)
		})
	}
}

func TestLifecycleHappyPath(t *testing.T) {
	svc, repo, _ := newCampaignService()
	ctx := context.Background()
	c := seedCampaign(t, repo, models.StatusDraft, nil)

	updated, err := svc.SubmitForReview(ctx, manager, c.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPendingReview, updated.Status)

	updated, err = svc.Approve(ctx, admin, c.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusApproved, updated.Status)

	sched := models.Schedule{StartDate: testNow.Add(24 * time.Hour)}
	updated, err = svc.Schedule(ctx, manager, c.ID, sched)
	require.NoError(t, err)
	assert.Equal(t, models.StatusScheduled, updated.Status)
	assert.Equal(t, sched.StartDate, updated.Schedule.StartDate)

	updated, err = svc.Unschedule(ctx, manager, c.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusApproved, updated.Status)
}

func TestActivateGuards(t *testing.T) {
	svc, repo, _ := newCampaignService()
	ctx := context.Background()
	c := seedCampaign(t, repo, models.StatusApproved, func(c *models.Campaign) {
		c.Schedule = models.Schedule{StartDate: testNow.Add(48 * time.Hour)}
	})

	_, err := svc.Activate(ctx, manager, c.ID, false)
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindValidation), "future start without force")

	_, err = svc.Activate(ctx, manager, c.ID, true)
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindPermission), "force needs the admin role")

	updated, err := svc.Activate(ctx, admin, c.ID, true)
	require.NoError(t, err)
	assert.Equal(t, models.StatusActive, updated.Status)

	updated, err = svc.Deactivate(ctx, manager, c.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPaused, updated.Status)

	updated, err = svc.Complete(ctx, manager, c.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, updated.Status)
}

func TestActivatePastStartNeedsNoForce(t *testing.T) {
	svc, repo, _ := newCampaignService()
	c := seedCampaign(t, repo, models.StatusApproved, func(c *models.Campaign) {
		c.Schedule = models.Schedule{StartDate: testNow.Add(-time.Hour)}
	})

	updated, err := svc.Activate(context.Background(), manager, c.ID, false)
	require.NoError(t, err)
	assert.Equal(t, models.StatusActive, updated.Status)
}

func TestApproveRejectRequireAdminRole(t *testing.T) {
	svc, repo, _ := newCampaignService()
	ctx := context.Background()
	c := seedCampaign(t, repo, models.StatusPendingReview, nil)

	_, err := svc.Approve(ctx, manager, c.ID)
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindPermission))

	_, err = svc.Reject(ctx, manager, c.ID)
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindPermission))

	updated, err := svc.Reject(ctx, admin, c.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusRejected, updated.Status)
}

func TestTransitionFromWrongStatus(t *testing.T) {
	svc, repo, _ := newCampaignService()
	c := seedCampaign(t, repo, models.StatusDraft, nil)

	_, err := svc.Activate(context.Background(), admin, c.ID, false)
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindInvalidTransition))
}

func TestScheduleRejectsInvalidInput(t *testing.T) {
	svc, repo, _ := newCampaignService()
	c := seedCampaign(t, repo, models.StatusApproved, nil)

	_, err := svc.Schedule(context.Background(), manager, c.ID, models.Schedule{})
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindValidation))

	// The failed schedule attempt must not have moved the status.
	got, err := svc.GetCampaignByID(context.Background(), c.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusApproved, got.Status)
}

func TestUpdateCampaignPreservesProtectedFields(t *testing.T) {
	svc, repo, _ := newCampaignService()
	ctx := context.Background()
	c := seedCampaign(t, repo, models.StatusActive, func(c *models.Campaign) {
		c.Analytics = models.Analytics{Impressions: 50, Clicks: 5}
		c.CreatedBy = "admin-1"
	})

	edit := &models.Campaign{
		ID:        c.ID,
		Name:      "Renamed",
		Placement: "checkout_banner",
		Type:      models.TypeInline,
		Status:    models.StatusDraft,
		Analytics: models.Analytics{Impressions: 1},
		CreatedBy: "intruder",
	}
	updated, err := svc.UpdateCampaign(ctx, manager, edit)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Name)
	assert.Equal(t, models.StatusActive, updated.Status)
	assert.Equal(t, int64(50), updated.Analytics.Impressions)
	assert.Equal(t, "admin-1", updated.CreatedBy)
}

func TestDeleteCampaign(t *testing.T) {
	svc, repo, _ := newCampaignService()
	ctx := context.Background()

	active := seedCampaign(t, repo, models.StatusActive, nil)
	err := svc.DeleteCampaign(ctx, manager, active.ID)
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindConflict))

	draft := seedCampaign(t, repo, models.StatusDraft, nil)
	require.NoError(t, svc.DeleteCampaign(ctx, manager, draft.ID))

	_, err = svc.GetCampaignByID(ctx, draft.ID)
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindNotFound))
}

func TestDeleteMissingCampaign(t *testing.T) {
	svc, _, _ := newCampaignService()
	err := svc.DeleteCampaign(context.Background(), manager, primitive.NewObjectID())
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindNotFound))
}

// A bulk run mixing a valid target, an ineligible target, a missing target
// and a malformed ID must land every input in exactly one bucket with a
// distinct error kind.
func TestBulkApplyMixedResults(t *testing.T) {
	svc, repo, _ := newCampaignService()
	ctx := context.Background()

	eligible := seedCampaign(t, repo, models.StatusApproved, nil)
	alreadyActive := seedCampaign(t, repo, models.StatusActive, nil)
	missing := primitive.NewObjectID().Hex()
	malformed := "not-a-hex-id"

	result, err := svc.BulkApply(ctx, admin, models.BulkActivate,
		[]string{eligible.ID.Hex(), alreadyActive.ID.Hex(), missing, malformed})
	require.NoError(t, err, "one ID's failure never fails the batch")

	assert.ElementsMatch(t, []string{eligible.ID.Hex()}, result.SucceededIDs)
	assert.ElementsMatch(t, []string{alreadyActive.ID.Hex(), missing, malformed}, result.FailedIDs)
	assert.Equal(t, string(apperrors.KindInvalidTransition), result.ErrorsByID[alreadyActive.ID.Hex()].Kind)
	assert.Equal(t, string(apperrors.KindNotFound), result.ErrorsByID[missing].Kind)
	assert.Equal(t, string(apperrors.KindValidation), result.ErrorsByID[malformed].Kind)

	got, err := svc.GetCampaignByID(ctx, eligible.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusActive, got.Status)
}

func TestBulkApplyDelete(t *testing.T) {
	svc, repo, _ := newCampaignService()
	ctx := context.Background()

	paused := seedCampaign(t, repo, models.StatusPaused, nil)
	active := seedCampaign(t, repo, models.StatusActive, nil)

	result, err := svc.BulkApply(ctx, admin, models.BulkDelete,
		[]string{paused.ID.Hex(), active.ID.Hex()})
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{paused.ID.Hex()}, result.SucceededIDs)
	assert.Equal(t, string(apperrors.KindConflict), result.ErrorsByID[active.ID.Hex()].Kind)
}

func TestBulkApplyUnknownOperation(t *testing.T) {
	svc, _, _ := newCampaignService()
	_, err := svc.BulkApply(context.Background(), admin, models.BulkOperation("archive"), []string{"x"})
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindValidation))
}

func TestNextOccurrencePassthrough(t *testing.T) {
	svc, repo, _ := newCampaignService()
	start := time.Date(2026, time.April, 6, 0, 0, 0, 0, time.UTC) // a Monday
	c := seedCampaign(t, repo, models.StatusScheduled, func(c *models.Campaign) {
		c.Schedule = models.Schedule{
			StartDate:   start,
			IsRecurring: true,
			Recurrence: &models.Recurrence{
				Frequency:  models.FrequencyWeekly,
				Interval:   1,
				DaysOfWeek: []int{1},
			},
		}
	})

	next, ok, err := svc.NextOccurrence(context.Background(), c.ID, testNow)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, start, next)
}
