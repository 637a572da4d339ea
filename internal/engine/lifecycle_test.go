package engine

import (
	"testing"

	"github.com/lenshub/lenshub-backend/internal/apperrors"
	"github.com/lenshub/lenshub-backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var allStatuses = []models.CampaignStatus{
	models.StatusDraft, models.StatusPendingReview, models.StatusApproved,
	models.StatusScheduled, models.StatusActive, models.StatusPaused,
	models.StatusCompleted, models.StatusRejected, models.StatusExpired,
}

func TestNextStatusLegalEdges(t *testing.T) {
	cases := []struct {
		op   Operation
		from models.CampaignStatus
		to   models.CampaignStatus
	}{
		{OpSubmitForReview, models.StatusDraft, models.StatusPendingReview},
		{OpApprove, models.StatusPendingReview, models.StatusApproved},
		{OpReject, models.StatusPendingReview, models.StatusRejected},
		{OpSchedule, models.StatusApproved, models.StatusScheduled},
		{OpUnschedule, models.StatusScheduled, models.StatusApproved},
		{OpActivate, models.StatusApproved, models.StatusActive},
		{OpActivate, models.StatusPaused, models.StatusActive},
		{OpDeactivate, models.StatusActive, models.StatusPaused},
		{OpExpire, models.StatusActive, models.StatusExpired},
		{OpExpire, models.StatusScheduled, models.StatusExpired},
		{OpComplete, models.StatusActive, models.StatusCompleted},
		{OpComplete, models.StatusPaused, models.StatusCompleted},
	}
	for _, tc := range cases {
		got, err := NextStatus(tc.op, tc.from)
		require.NoError(t, err, "%s from %s", tc.op, tc.from)
		assert.Equal(t, tc.to, got)
	}
}

// Every (source, operation) pair outside the transition table must be
// rejected as an invalid transition.
func TestNextStatusIllegalEdges(t *testing.T) {
	legal := map[Operation][]models.CampaignStatus{
		OpSubmitForReview: {models.StatusDraft},
		OpApprove:         {models.StatusPendingReview},
		OpReject:          {models.StatusPendingReview},
		OpSchedule:        {models.StatusApproved},
		OpUnschedule:      {models.StatusScheduled},
		OpActivate:        {models.StatusApproved, models.StatusPaused},
		OpDeactivate:      {models.StatusActive},
		OpExpire:          {models.StatusActive, models.StatusScheduled},
		OpComplete:        {models.StatusActive, models.StatusPaused},
	}
	for op, sources := range legal {
		for _, from := range allStatuses {
			allowed := false
			for _, s := range sources {
				if s == from {
					allowed = true
				}
			}
			if allowed {
				continue
			}
			_, err := NextStatus(op, from)
			require.Error(t, err, "%s from %s should be rejected", op, from)
			assert.True(t, apperrors.IsKind(err, apperrors.KindInvalidTransition),
				"%s from %s: expected invalid transition, got %v", op, from, err)
		}
	}
}

func TestNextStatusUnknownOperation(t *testing.T) {
	_, err := NextStatus(Operation("archive"), models.StatusDraft)
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindValidation))
}

func TestCanDelete(t *testing.T) {
	for _, status := range allStatuses {
		err := CanDelete(status)
		if status == models.StatusActive {
			require.Error(t, err)
			assert.True(t, apperrors.IsKind(err, apperrors.KindConflict))
			continue
		}
		assert.NoError(t, err, "delete from %s", status)
	}
}
