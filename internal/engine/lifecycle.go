package engine

import (
	"github.com/lenshub/lenshub-backend/internal/apperrors"
	"github.com/lenshub/lenshub-backend/internal/models"
)

// Operation is a named lifecycle transition.
type Operation string

const (
	OpSubmitForReview Operation = "submit_for_review"
	OpApprove         Operation = "approve"
	OpReject          Operation = "reject"
	OpSchedule        Operation = "schedule"
	OpUnschedule      Operation = "unschedule"
	OpActivate        Operation = "activate"
	OpDeactivate      Operation = "deactivate"
	OpExpire          Operation = "expire"
	OpComplete        Operation = "complete"
)

type transition struct {
	from []models.CampaignStatus
	to   models.CampaignStatus
}

// transitions is the single source of truth for legal status edges. Every
// lifecycle operation is validated here, not at call sites.
var transitions = map[Operation]transition{
	OpSubmitForReview: {
		from: []models.CampaignStatus{models.StatusDraft},
		to:   models.StatusPendingReview,
	},
	OpApprove: {
		from: []models.CampaignStatus{models.StatusPendingReview},
		to:   models.StatusApproved,
	},
	OpReject: {
		from: []models.CampaignStatus{models.StatusPendingReview},
		to:   models.StatusRejected,
	},
	OpSchedule: {
		from: []models.CampaignStatus{models.StatusApproved},
		to:   models.StatusScheduled,
	},
	OpUnschedule: {
		from: []models.CampaignStatus{models.StatusScheduled},
		to:   models.StatusApproved,
	},
	OpActivate: {
		from: []models.CampaignStatus{models.StatusApproved, models.StatusPaused},
		to:   models.StatusActive,
	},
	OpDeactivate: {
		from: []models.CampaignStatus{models.StatusActive},
		to:   models.StatusPaused,
	},
	OpExpire: {
		from: []models.CampaignStatus{models.StatusActive, models.StatusScheduled},
		to:   models.StatusExpired,
	},
	OpComplete: {
		from: []models.CampaignStatus{models.StatusActive, models.StatusPaused},
		to:   models.StatusCompleted,
	},
}

// NextStatus returns the destination status for applying op from the given
// status, or an invalid-transition error when the edge does not exist.
func NextStatus(op Operation, from models.CampaignStatus) (models.CampaignStatus, error) {
	tr, ok := transitions[op]
	if !ok {
		return "", apperrors.Validation("unknown lifecycle operation %q", op)
	}
	for _, s := range tr.from {
		if s == from {
			return tr.to, nil
		}
	}
	return "", apperrors.InvalidTransition("cannot %s a campaign in status %q", op, from)
}

// CanDelete reports whether a campaign in the given status may be deleted.
// Active campaigns must be deactivated first.
func CanDelete(status models.CampaignStatus) error {
	if status == models.StatusActive {
		return apperrors.Conflict("cannot delete an active campaign; deactivate it first")
	}
	return nil
}
