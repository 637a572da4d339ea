package services

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/lenshub/lenshub-backend/internal/engine"
	"github.com/lenshub/lenshub-backend/internal/models"
	"github.com/lenshub/lenshub-backend/internal/repositories"
	"golang.org/x/exp/slog"
)

// Compile-time check to ensure SelectionServiceImpl implements SelectionService
var _ SelectionService = (*SelectionServiceImpl)(nil)

// SelectionServiceImpl decides which campaigns render in a placement for a
// visitor. The decision is a pure read: nothing is mutated, so it is safe
// for many concurrent page views.
type SelectionServiceImpl struct {
	campaignRepo repositories.CampaignRepository
	historyRepo  repositories.ImpressionHistoryRepository

	// cacheTTL bounds the candidate cache. Activation state is
	// time-dependent, so entries must stay short-lived; 0 disables the
	// cache.
	cacheTTL time.Duration
	cacheMu  sync.RWMutex
	cache    map[string]candidateCacheEntry
}

type candidateCacheEntry struct {
	campaigns []*models.Campaign
	loadedAt  time.Time
}

// NewSelectionService creates a new SelectionServiceImpl
func NewSelectionService(campaignRepo repositories.CampaignRepository, historyRepo repositories.ImpressionHistoryRepository, cacheTTL time.Duration) *SelectionServiceImpl {
	return &SelectionServiceImpl{
		campaignRepo: campaignRepo,
		historyRepo:  historyRepo,
		cacheTTL:     cacheTTL,
		cache:        make(map[string]candidateCacheEntry),
	}
}

// Select returns the campaigns eligible for the placement, visitor and
// instant, ordered by priority descending with createdAt ascending breaking
// ties. No match is an empty list, never an error. The returned campaigns
// are copies: cached candidates are shared across concurrent callers and
// must never be written to.
func (s *SelectionServiceImpl) Select(ctx context.Context, placement string, visitor models.VisitorContext, now time.Time) ([]*models.Campaign, error) {
	candidates, err := s.loadCandidates(ctx, placement, now)
	if err != nil {
		return nil, err
	}

	day := models.ImpressionDay(now)
	survivors := make([]*models.Campaign, 0, len(candidates))
	for _, c := range candidates {
		if !engine.ActiveAt(c.Schedule, now) {
			continue
		}
		ok, err := engine.Matches(c.Targeting, visitor)
		if err != nil {
			// A misconfigured campaign must not break visitor-facing
			// selection; surface it in logs and skip the campaign.
			slog.Warn("Skipping campaign with invalid targeting", "campaignId", c.ID.Hex(), "error", err)
			continue
		}
		if !ok {
			continue
		}
		if c.Targeting.MaxFrequency > 0 && visitor.VisitorID != "" {
			shown, err := s.historyRepo.CountForDay(ctx, c.ID, visitor.VisitorID, day)
			if err != nil {
				return nil, err
			}
			if !engine.AllowImpression(c.Targeting.MaxFrequency, shown) {
				continue
			}
		}
		cp := *c
		cp.Analytics.Recompute()
		survivors = append(survivors, &cp)
	}

	sort.SliceStable(survivors, func(i, j int) bool {
		if survivors[i].Priority != survivors[j].Priority {
			return survivors[i].Priority > survivors[j].Priority
		}
		return survivors[i].CreatedAt.Before(survivors[j].CreatedAt)
	})
	return survivors, nil
}

// loadCandidates fetches active campaigns for the placement, through the
// short-TTL cache when enabled.
func (s *SelectionServiceImpl) loadCandidates(ctx context.Context, placement string, now time.Time) ([]*models.Campaign, error) {
	if s.cacheTTL <= 0 {
		return s.campaignRepo.FindActiveByPlacement(ctx, placement)
	}

	s.cacheMu.RLock()
	entry, ok := s.cache[placement]
	s.cacheMu.RUnlock()
	if ok && now.Sub(entry.loadedAt) < s.cacheTTL {
		return entry.campaigns, nil
	}

	campaigns, err := s.campaignRepo.FindActiveByPlacement(ctx, placement)
	if err != nil {
		return nil, err
	}
	s.cacheMu.Lock()
	s.cache[placement] = candidateCacheEntry{campaigns: campaigns, loadedAt: now}
	s.cacheMu.Unlock()
	return campaigns, nil
}
