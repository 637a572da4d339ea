package jobs

import (
	"context"
	"time"

	"github.com/lenshub/lenshub-backend/internal/apperrors"
	"github.com/lenshub/lenshub-backend/internal/engine"
	"github.com/lenshub/lenshub-backend/internal/repositories"
	"github.com/lenshub/lenshub-backend/internal/services"
	"golang.org/x/exp/slog"
)

// Expirer periodically moves active and scheduled campaigns whose endDate
// has passed into the expired state. Selection already excludes them
// lazily; the sweep keeps the stored status honest for admins and reports.
type Expirer struct {
	campaignRepo    repositories.CampaignRepository
	campaignService services.CampaignService
	clock           engine.Clock
	interval        time.Duration
}

// NewExpirer creates a new Expirer
func NewExpirer(campaignRepo repositories.CampaignRepository, campaignService services.CampaignService, clock engine.Clock, interval time.Duration) *Expirer {
	return &Expirer{
		campaignRepo:    campaignRepo,
		campaignService: campaignService,
		clock:           clock,
		interval:        interval,
	}
}

// Run sweeps on the configured interval until ctx is cancelled.
func (e *Expirer) Run(ctx context.Context) {
	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()

	slog.Info("Campaign expirer started", "interval", e.interval.String())
	for {
		select {
		case <-ctx.Done():
			slog.Info("Campaign expirer stopped")
			return
		case <-ticker.C:
			e.Sweep(ctx)
		}
	}
}

// Sweep runs one expiration pass. Per-campaign failures are logged and do
// not stop the rest of the pass.
func (e *Expirer) Sweep(ctx context.Context) {
	now := e.clock.Now()
	campaigns, err := e.campaignRepo.FindExpiring(ctx, now)
	if err != nil {
		slog.Error("Expirer failed to load campaigns", "error", err)
		return
	}
	for _, c := range campaigns {
		if _, err := e.campaignService.Expire(ctx, c.ID); err != nil {
			// A concurrent transition already moved it; nothing to do.
			if apperrors.IsKind(err, apperrors.KindInvalidTransition) {
				continue
			}
			slog.Error("Failed to expire campaign", "campaignId", c.ID.Hex(), "error", err)
			continue
		}
		slog.Info("Campaign expired", "campaignId", c.ID.Hex(), "endDate", c.Schedule.EndDate)
	}
}
