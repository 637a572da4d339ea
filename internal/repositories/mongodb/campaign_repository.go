package mongodb

import (
	"context"
	"errors"
	"time"

	"github.com/lenshub/lenshub-backend/internal/models"
	"github.com/lenshub/lenshub-backend/internal/repositories"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// CampaignRepository implements repositories.CampaignRepository on MongoDB.
type CampaignRepository struct {
	collection *mongo.Collection
}

// NewCampaignRepository creates a new CampaignRepository
func NewCampaignRepository(db *mongo.Database) repositories.CampaignRepository {
	return &CampaignRepository{
		collection: db.Collection("campaigns"),
	}
}

// Create inserts a new campaign document.
func (r *CampaignRepository) Create(ctx context.Context, campaign *models.Campaign) error {
	campaign.CreatedAt = time.Now()
	campaign.UpdatedAt = time.Now()
	res, err := r.collection.InsertOne(ctx, campaign)
	if err != nil {
		return err
	}
	if id, ok := res.InsertedID.(primitive.ObjectID); ok {
		campaign.ID = id
	}
	return nil
}

// FindByID finds a campaign by ID.
func (r *CampaignRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Campaign, error) {
	var campaign models.Campaign
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&campaign)
	if err != nil {
		return nil, err
	}
	return &campaign, nil
}

// Update replaces a campaign document.
func (r *CampaignRepository) Update(ctx context.Context, campaign *models.Campaign) error {
	campaign.UpdatedAt = time.Now()
	_, err := r.collection.ReplaceOne(ctx, bson.M{"_id": campaign.ID}, campaign)
	return err
}

// Delete removes a campaign unless its status equals exclude. The status
// guard rides in the delete filter so it cannot race a concurrent
// activation.
func (r *CampaignRepository) Delete(ctx context.Context, id primitive.ObjectID, exclude models.CampaignStatus) (bool, error) {
	filter := bson.M{"_id": id}
	if exclude != "" {
		filter["status"] = bson.M{"$ne": exclude}
	}
	res, err := r.collection.DeleteOne(ctx, filter)
	if err != nil {
		return false, err
	}
	return res.DeletedCount > 0, nil
}

// Query lists campaigns matching the filter with sort and pagination,
// returning the page and the total match count.
func (r *CampaignRepository) Query(ctx context.Context, q repositories.CampaignQuery) ([]*models.Campaign, int64, error) {
	filter := bson.M{}
	if q.Filter.Status != "" {
		filter["status"] = q.Filter.Status
	}
	if q.Filter.Placement != "" {
		filter["placement"] = q.Filter.Placement
	}
	if q.Filter.Type != "" {
		filter["type"] = q.Filter.Type
	}
	if q.Filter.Tag != "" {
		filter["tags"] = q.Filter.Tag
	}
	if q.Filter.CreatedBy != "" {
		filter["createdBy"] = q.Filter.CreatedBy
	}

	total, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	sortBy := q.SortBy
	if sortBy == "" {
		sortBy = "createdAt"
	}
	order := 1
	if q.SortDesc {
		order = -1
	}
	page := q.Page
	if page < 1 {
		page = 1
	}
	limit := q.Limit
	if limit < 1 {
		limit = 20
	}
	opts := options.Find().
		SetSkip(int64((page - 1) * limit)).
		SetLimit(int64(limit)).
		SetSort(bson.D{{Key: sortBy, Value: order}})

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, err
	}
	defer cursor.Close(ctx)

	var campaigns []*models.Campaign
	if err := cursor.All(ctx, &campaigns); err != nil {
		return nil, 0, err
	}
	if campaigns == nil {
		campaigns = []*models.Campaign{}
	}
	return campaigns, total, nil
}

// FindActiveByPlacement loads the selection candidates for a placement.
func (r *CampaignRepository) FindActiveByPlacement(ctx context.Context, placement string) ([]*models.Campaign, error) {
	filter := bson.M{
		"placement": placement,
		"status":    models.StatusActive,
	}
	cursor, err := r.collection.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var campaigns []*models.Campaign
	if err := cursor.All(ctx, &campaigns); err != nil {
		return nil, err
	}
	if campaigns == nil {
		campaigns = []*models.Campaign{}
	}
	return campaigns, nil
}

// FindExpiring lists active or scheduled campaigns whose endDate has
// passed.
func (r *CampaignRepository) FindExpiring(ctx context.Context, now time.Time) ([]*models.Campaign, error) {
	filter := bson.M{
		"status":           bson.M{"$in": []models.CampaignStatus{models.StatusActive, models.StatusScheduled}},
		"schedule.endDate": bson.M{"$ne": nil, "$lt": now},
	}
	cursor, err := r.collection.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var campaigns []*models.Campaign
	if err := cursor.All(ctx, &campaigns); err != nil {
		return nil, err
	}
	if campaigns == nil {
		campaigns = []*models.Campaign{}
	}
	return campaigns, nil
}

// UpdateStatus compare-and-sets the campaign status. The `from` status
// rides in the update filter, so two concurrent transitions can never both
// succeed. Returns nil when the campaign is no longer in `from`.
func (r *CampaignRepository) UpdateStatus(ctx context.Context, id primitive.ObjectID, from, to models.CampaignStatus, schedule *models.Schedule) (*models.Campaign, error) {
	set := bson.M{
		"status":    to,
		"updatedAt": time.Now(),
	}
	if schedule != nil {
		set["schedule"] = schedule
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var updated models.Campaign
	err := r.collection.FindOneAndUpdate(ctx,
		bson.M{"_id": id, "status": from},
		bson.M{"$set": set},
		opts,
	).Decode(&updated)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return &updated, nil
}

// IncrementAnalytics applies counter deltas with a single $inc and returns
// the analytics block as it stood after the update.
func (r *CampaignRepository) IncrementAnalytics(ctx context.Context, id primitive.ObjectID, deltas map[string]float64) (*models.Analytics, error) {
	inc := bson.M{}
	for field, delta := range deltas {
		inc["analytics."+field] = delta
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var updated models.Campaign
	err := r.collection.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$inc": inc},
		opts,
	).Decode(&updated)
	if err != nil {
		return nil, err
	}
	return &updated.Analytics, nil
}

// Count counts all campaigns.
func (r *CampaignRepository) Count(ctx context.Context) (int64, error) {
	return r.collection.CountDocuments(ctx, bson.M{})
}
