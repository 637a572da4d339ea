// Package memory holds in-memory repository implementations that honor the
// same contracts as the mongodb package, including atomic increments and
// compare-and-set status updates. They back the engine tests so the engine
// stays testable without a running database.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/lenshub/lenshub-backend/internal/models"
	"github.com/lenshub/lenshub-backend/internal/repositories"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// CampaignRepository is an in-memory repositories.CampaignRepository.
type CampaignRepository struct {
	mu        sync.Mutex
	campaigns map[primitive.ObjectID]*models.Campaign
}

// NewCampaignRepository creates an empty in-memory campaign store.
func NewCampaignRepository() *CampaignRepository {
	return &CampaignRepository{campaigns: make(map[primitive.ObjectID]*models.Campaign)}
}

var _ repositories.CampaignRepository = (*CampaignRepository)(nil)

func (r *CampaignRepository) Create(ctx context.Context, campaign *models.Campaign) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if campaign.ID.IsZero() {
		campaign.ID = primitive.NewObjectID()
	}
	campaign.CreatedAt = time.Now()
	campaign.UpdatedAt = time.Now()
	cp := *campaign
	r.campaigns[campaign.ID] = &cp
	return nil
}

func (r *CampaignRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Campaign, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.campaigns[id]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	cp := *c
	return &cp, nil
}

func (r *CampaignRepository) Update(ctx context.Context, campaign *models.Campaign) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.campaigns[campaign.ID]; !ok {
		return mongo.ErrNoDocuments
	}
	campaign.UpdatedAt = time.Now()
	cp := *campaign
	r.campaigns[campaign.ID] = &cp
	return nil
}

func (r *CampaignRepository) Delete(ctx context.Context, id primitive.ObjectID, exclude models.CampaignStatus) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.campaigns[id]
	if !ok {
		return false, nil
	}
	if exclude != "" && c.Status == exclude {
		return false, nil
	}
	delete(r.campaigns, id)
	return true, nil
}

func (r *CampaignRepository) Query(ctx context.Context, q repositories.CampaignQuery) ([]*models.Campaign, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var matched []*models.Campaign
	for _, c := range r.campaigns {
		if q.Filter.Status != "" && c.Status != q.Filter.Status {
			continue
		}
		if q.Filter.Placement != "" && c.Placement != q.Filter.Placement {
			continue
		}
		if q.Filter.Type != "" && c.Type != q.Filter.Type {
			continue
		}
		if q.Filter.Tag != "" && !containsTag(c.Tags, q.Filter.Tag) {
			continue
		}
		if q.Filter.CreatedBy != "" && c.CreatedBy != q.Filter.CreatedBy {
			continue
		}
		cp := *c
		matched = append(matched, &cp)
	}
	total := int64(len(matched))

	sortBy := q.SortBy
	if sortBy == "" {
		sortBy = "createdAt"
	}
	sort.SliceStable(matched, func(i, j int) bool {
		less := lessBy(sortBy, matched[i], matched[j])
		if q.SortDesc {
			return !less
		}
		return less
	})

	page := q.Page
	if page < 1 {
		page = 1
	}
	limit := q.Limit
	if limit < 1 {
		limit = 20
	}
	start := (page - 1) * limit
	if start >= len(matched) {
		return []*models.Campaign{}, total, nil
	}
	end := start + limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], total, nil
}

func lessBy(field string, a, b *models.Campaign) bool {
	switch field {
	case "priority":
		return a.Priority < b.Priority
	case "name":
		return a.Name < b.Name
	case "updatedAt":
		return a.UpdatedAt.Before(b.UpdatedAt)
	default:
		return a.CreatedAt.Before(b.CreatedAt)
	}
}

func containsTag(tags []string, tag string) bool {
	for _, t := range tags {
		if t == tag {
			return true
		}
	}
	return false
}

func (r *CampaignRepository) FindActiveByPlacement(ctx context.Context, placement string) ([]*models.Campaign, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Campaign
	for _, c := range r.campaigns {
		if c.Placement == placement && c.Status == models.StatusActive {
			cp := *c
			out = append(out, &cp)
		}
	}
	if out == nil {
		out = []*models.Campaign{}
	}
	return out, nil
}

func (r *CampaignRepository) FindExpiring(ctx context.Context, now time.Time) ([]*models.Campaign, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Campaign
	for _, c := range r.campaigns {
		if c.Status != models.StatusActive && c.Status != models.StatusScheduled {
			continue
		}
		if c.Schedule.EndDate == nil || !c.Schedule.EndDate.Before(now) {
			continue
		}
		cp := *c
		out = append(out, &cp)
	}
	if out == nil {
		out = []*models.Campaign{}
	}
	return out, nil
}

func (r *CampaignRepository) UpdateStatus(ctx context.Context, id primitive.ObjectID, from, to models.CampaignStatus, schedule *models.Schedule) (*models.Campaign, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.campaigns[id]
	if !ok || c.Status != from {
		return nil, nil
	}
	c.Status = to
	if schedule != nil {
		c.Schedule = *schedule
	}
	c.UpdatedAt = time.Now()
	cp := *c
	return &cp, nil
}

func (r *CampaignRepository) IncrementAnalytics(ctx context.Context, id primitive.ObjectID, deltas map[string]float64) (*models.Analytics, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.campaigns[id]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	for field, delta := range deltas {
		switch field {
		case "impressions":
			c.Analytics.Impressions += int64(delta)
		case "clicks":
			c.Analytics.Clicks += int64(delta)
		case "conversions":
			c.Analytics.Conversions += int64(delta)
		case "revenue":
			c.Analytics.Revenue += delta
		}
	}
	analytics := c.Analytics
	return &analytics, nil
}

func (r *CampaignRepository) Count(ctx context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.campaigns)), nil
}
