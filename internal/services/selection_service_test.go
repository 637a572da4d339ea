package services_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/lenshub/lenshub-backend/internal/models"
	"github.com/lenshub/lenshub-backend/internal/repositories/memory"
	"github.com/lenshub/lenshub-backend/internal/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSelectionFixture() (*services.SelectionServiceImpl, *memory.CampaignRepository, *memory.ImpressionHistoryRepository) {
	campaigns := memory.NewCampaignRepository()
	history := memory.NewImpressionHistoryRepository()
	// Cache disabled so every test call sees the latest writes.
	return services.NewSelectionService(campaigns, history, 0), campaigns, history
}

// seedActive plants an active campaign in the placement with an always-on
// window around testNow.
func seedActive(t *testing.T, repo *memory.CampaignRepository, name string, mutate func(*models.Campaign)) *models.Campaign {
	t.Helper()
	c := &models.Campaign{
		Name:      name,
		Placement: "homepage_hero",
		Type:      models.TypeBanner,
		Status:    models.StatusActive,
		Schedule:  models.Schedule{StartDate: testNow.Add(-24 * time.Hour)},
	}
	if mutate != nil {
		mutate(c)
	}
	require.NoError(t, repo.Create(context.Background(), c))
	return c
}

func names(campaigns []*models.Campaign) []string {
	out := make([]string, len(campaigns))
	for i, c := range campaigns {
		out[i] = c.Name
	}
	return out
}

func TestSelectOrdersByPriorityThenAge(t *testing.T) {
	svc, repo, _ := newSelectionFixture()
	ctx := context.Background()

	older := seedActive(t, repo, "older-low", func(c *models.Campaign) { c.Priority = 5 })
	seedActive(t, repo, "high", func(c *models.Campaign) { c.Priority = 10 })
	newer := seedActive(t, repo, "newer-low", func(c *models.Campaign) { c.Priority = 5 })

	// Pin distinct creation instants for the tie-break.
	older.CreatedAt = testNow.Add(-2 * time.Hour)
	require.NoError(t, repo.Update(ctx, older))
	newer.CreatedAt = testNow.Add(-1 * time.Hour)
	require.NoError(t, repo.Update(ctx, newer))

	got, err := svc.Select(ctx, "homepage_hero", models.VisitorContext{}, testNow)
	require.NoError(t, err)
	assert.Equal(t, []string{"high", "older-low", "newer-low"}, names(got))
}

func TestSelectFiltersByScheduleWindow(t *testing.T) {
	svc, repo, _ := newSelectionFixture()
	ctx := context.Background()

	seedActive(t, repo, "in-window", nil)
	seedActive(t, repo, "not-started", func(c *models.Campaign) {
		c.Schedule = models.Schedule{StartDate: testNow.Add(time.Hour)}
	})
	ended := testNow.Add(-time.Hour)
	seedActive(t, repo, "ended", func(c *models.Campaign) {
		c.Schedule = models.Schedule{StartDate: testNow.Add(-48 * time.Hour), EndDate: &ended}
	})

	got, err := svc.Select(ctx, "homepage_hero", models.VisitorContext{}, testNow)
	require.NoError(t, err)
	assert.Equal(t, []string{"in-window"}, names(got))
}

func TestSelectFiltersByRecurrence(t *testing.T) {
	svc, repo, _ := newSelectionFixture()
	ctx := context.Background()

	// testNow (2026-03-15) is a Sunday.
	seedActive(t, repo, "weekends", func(c *models.Campaign) {
		c.Schedule = models.Schedule{
			StartDate:   testNow.Add(-14 * 24 * time.Hour),
			IsRecurring: true,
			Recurrence:  &models.Recurrence{Frequency: models.FrequencyWeekly, Interval: 1, DaysOfWeek: []int{0, 6}},
		}
	})
	seedActive(t, repo, "weekdays", func(c *models.Campaign) {
		c.Schedule = models.Schedule{
			StartDate:   testNow.Add(-14 * 24 * time.Hour),
			IsRecurring: true,
			Recurrence:  &models.Recurrence{Frequency: models.FrequencyWeekly, Interval: 1, DaysOfWeek: []int{1, 2, 3, 4, 5}},
		}
	})

	got, err := svc.Select(ctx, "homepage_hero", models.VisitorContext{}, testNow)
	require.NoError(t, err)
	assert.Equal(t, []string{"weekends"}, names(got))
}

func TestSelectFiltersByTargeting(t *testing.T) {
	svc, repo, _ := newSelectionFixture()
	ctx := context.Background()

	seedActive(t, repo, "nigeria-only", func(c *models.Campaign) {
		c.Targeting = models.Targeting{Countries: []string{"NG"}}
	})
	seedActive(t, repo, "everyone", nil)

	got, err := svc.Select(ctx, "homepage_hero", models.VisitorContext{Country: "GH"}, testNow)
	require.NoError(t, err)
	assert.Equal(t, []string{"everyone"}, names(got))

	got, err = svc.Select(ctx, "homepage_hero", models.VisitorContext{Country: "NG"}, testNow)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"nigeria-only", "everyone"}, names(got))
}

func TestSelectSkipsMisconfiguredTargeting(t *testing.T) {
	svc, repo, _ := newSelectionFixture()
	ctx := context.Background()

	seedActive(t, repo, "broken", func(c *models.Campaign) {
		c.Targeting = models.Targeting{BehavioralRules: []models.BehavioralRule{
			{Rule: "rentalCount", Operator: "matches", Value: "5"},
		}}
	})
	seedActive(t, repo, "healthy", nil)

	got, err := svc.Select(ctx, "homepage_hero", models.VisitorContext{
		Facts: map[string]string{"rentalCount": "3"},
	}, testNow)
	require.NoError(t, err, "a misconfigured campaign never breaks selection")
	assert.Equal(t, []string{"healthy"}, names(got))
}

func TestSelectHonorsFrequencyCap(t *testing.T) {
	svc, repo, history := newSelectionFixture()
	ctx := context.Background()

	capped := seedActive(t, repo, "capped", func(c *models.Campaign) {
		c.Targeting = models.Targeting{MaxFrequency: 3}
	})
	visitor := models.VisitorContext{VisitorID: "visitor-1"}
	day := models.ImpressionDay(testNow)

	for i := 0; i < 3; i++ {
		got, err := svc.Select(ctx, "homepage_hero", visitor, testNow)
		require.NoError(t, err)
		require.Equal(t, []string{"capped"}, names(got), "impression %d", i+1)
		_, err = history.Increment(ctx, capped.ID, visitor.VisitorID, day)
		require.NoError(t, err)
	}

	got, err := svc.Select(ctx, "homepage_hero", visitor, testNow)
	require.NoError(t, err)
	assert.Empty(t, got, "fourth view of the day is capped")

	// A different visitor still sees the campaign.
	got, err = svc.Select(ctx, "homepage_hero", models.VisitorContext{VisitorID: "visitor-2"}, testNow)
	require.NoError(t, err)
	assert.Equal(t, []string{"capped"}, names(got))

	// The cap resets on the next rolling day.
	tomorrow := testNow.Add(24 * time.Hour)
	got, err = svc.Select(ctx, "homepage_hero", visitor, tomorrow)
	require.NoError(t, err)
	assert.Equal(t, []string{"capped"}, names(got))
}

func TestSelectAnonymousVisitorBypassesCap(t *testing.T) {
	svc, repo, _ := newSelectionFixture()
	ctx := context.Background()

	seedActive(t, repo, "capped", func(c *models.Campaign) {
		c.Targeting = models.Targeting{MaxFrequency: 1}
	})

	got, err := svc.Select(ctx, "homepage_hero", models.VisitorContext{}, testNow)
	require.NoError(t, err)
	assert.Equal(t, []string{"capped"}, names(got), "no visitor identity, no cap accounting")
}

// Concurrent callers of a cache-enabled service share the cached
// candidates; results must be per-caller copies so no caller ever writes
// to a shared campaign. Run with -race.
func TestConcurrentSelectWithCacheEnabled(t *testing.T) {
	campaigns := memory.NewCampaignRepository()
	history := memory.NewImpressionHistoryRepository()
	svc := services.NewSelectionService(campaigns, history, 30*time.Second)
	ctx := context.Background()

	seedActive(t, campaigns, "shared", func(c *models.Campaign) {
		c.Analytics = models.Analytics{Impressions: 100, Clicks: 25}
	})

	const callers = 8
	results := make([][]*models.Campaign, callers)
	var wg sync.WaitGroup
	wg.Add(callers)
	for i := 0; i < callers; i++ {
		i := i
		go func() {
			defer wg.Done()
			got, err := svc.Select(ctx, "homepage_hero", models.VisitorContext{}, testNow)
			assert.NoError(t, err)
			results[i] = got
		}()
	}
	wg.Wait()

	for i, got := range results {
		require.Len(t, got, 1, "caller %d", i)
		assert.InDelta(t, 0.25, got[0].Analytics.CTR, 0.001, "caller %d", i)
		for j := 0; j < i; j++ {
			assert.NotSame(t, results[j][0], got[0], "callers %d and %d share a campaign", j, i)
		}
	}
}

func TestSelectCacheServesStaleCandidatesWithinTTL(t *testing.T) {
	campaigns := memory.NewCampaignRepository()
	history := memory.NewImpressionHistoryRepository()
	svc := services.NewSelectionService(campaigns, history, 30*time.Second)
	ctx := context.Background()

	first := seedActive(t, campaigns, "first", nil)

	got, err := svc.Select(ctx, "homepage_hero", models.VisitorContext{}, testNow)
	require.NoError(t, err)
	require.Equal(t, []string{"first"}, names(got))

	// A delete inside the TTL is invisible; after the TTL it is seen.
	_, err = campaigns.Delete(ctx, first.ID, "")
	require.NoError(t, err)

	got, err = svc.Select(ctx, "homepage_hero", models.VisitorContext{}, testNow.Add(10*time.Second))
	require.NoError(t, err)
	assert.Equal(t, []string{"first"}, names(got))

	got, err = svc.Select(ctx, "homepage_hero", models.VisitorContext{}, testNow.Add(31*time.Second))
	require.NoError(t, err)
	assert.Empty(t, got)
}
