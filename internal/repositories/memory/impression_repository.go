package memory

import (
	"context"
	"sync"

	"github.com/lenshub/lenshub-backend/internal/repositories"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ImpressionHistoryRepository is an in-memory
// repositories.ImpressionHistoryRepository.
type ImpressionHistoryRepository struct {
	mu     sync.Mutex
	counts map[string]int
}

// NewImpressionHistoryRepository creates an empty in-memory history store.
func NewImpressionHistoryRepository() *ImpressionHistoryRepository {
	return &ImpressionHistoryRepository{counts: make(map[string]int)}
}

var _ repositories.ImpressionHistoryRepository = (*ImpressionHistoryRepository)(nil)

func key(campaignID primitive.ObjectID, visitorID, day string) string {
	return campaignID.Hex() + "|" + visitorID + "|" + day
}

func (r *ImpressionHistoryRepository) Increment(ctx context.Context, campaignID primitive.ObjectID, visitorID, day string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	k := key(campaignID, visitorID, day)
	r.counts[k]++
	return r.counts[k], nil
}

func (r *ImpressionHistoryRepository) CountForDay(ctx context.Context, campaignID primitive.ObjectID, visitorID, day string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.counts[key(campaignID, visitorID, day)], nil
}
