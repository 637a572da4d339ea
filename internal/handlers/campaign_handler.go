package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lenshub/lenshub-backend/internal/engine"
	"github.com/lenshub/lenshub-backend/internal/middleware"
	"github.com/lenshub/lenshub-backend/internal/models"
	"github.com/lenshub/lenshub-backend/internal/repositories"
	"github.com/lenshub/lenshub-backend/internal/services"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CampaignHandler handles campaign administration HTTP requests
type CampaignHandler struct {
	campaignService services.CampaignService
	clock           engine.Clock
}

// NewCampaignHandler creates a new CampaignHandler
func NewCampaignHandler(campaignService services.CampaignService, clock engine.Clock) *CampaignHandler {
	return &CampaignHandler{
		campaignService: campaignService,
		clock:           clock,
	}
}

func campaignID(c *gin.Context) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid ID format"})
		return primitive.NilObjectID, false
	}
	return id, true
}

// CreateCampaign handles POST /campaigns
func (h *CampaignHandler) CreateCampaign(c *gin.Context) {
	var campaign models.Campaign
	if err := c.ShouldBindJSON(&campaign); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	actor := middleware.ActorFromContext(c)
	created, err := h.campaignService.CreateCampaign(c.Request.Context(), actor, &campaign)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

// GetCampaignByID handles GET /campaigns/:id
func (h *CampaignHandler) GetCampaignByID(c *gin.Context) {
	id, ok := campaignID(c)
	if !ok {
		return
	}
	campaign, err := h.campaignService.GetCampaignByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, campaign)
}

// ListCampaigns handles GET /campaigns
func (h *CampaignHandler) ListCampaigns(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	q := repositories.CampaignQuery{
		Filter: models.CampaignFilter{
			Status:    models.CampaignStatus(c.Query("status")),
			Placement: c.Query("placement"),
			Type:      models.CampaignType(c.Query("type")),
			Tag:       c.Query("tag"),
			CreatedBy: c.Query("createdBy"),
		},
		SortBy:   c.DefaultQuery("sortBy", "createdAt"),
		SortDesc: c.DefaultQuery("order", "desc") == "desc",
		Page:     page,
		Limit:    limit,
	}
	campaigns, total, err := h.campaignService.ListCampaigns(c.Request.Context(), q)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": campaigns, "totalCount": total, "page": page, "limit": limit})
}

// UpdateCampaign handles PUT /campaigns/:id
func (h *CampaignHandler) UpdateCampaign(c *gin.Context) {
	id, ok := campaignID(c)
	if !ok {
		return
	}
	var campaign models.Campaign
	if err := c.ShouldBindJSON(&campaign); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	campaign.ID = id
	actor := middleware.ActorFromContext(c)
	updated, err := h.campaignService.UpdateCampaign(c.Request.Context(), actor, &campaign)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

// DeleteCampaign handles DELETE /campaigns/:id
func (h *CampaignHandler) DeleteCampaign(c *gin.Context) {
	id, ok := campaignID(c)
	if !ok {
		return
	}
	actor := middleware.ActorFromContext(c)
	if err := h.campaignService.DeleteCampaign(c.Request.Context(), actor, id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Campaign deleted"})
}

// transitionHandler builds a gin handler for a no-payload lifecycle
// transition.
func (h *CampaignHandler) transitionHandler(apply func(*gin.Context, models.Actor, primitive.ObjectID) (*models.Campaign, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := campaignID(c)
		if !ok {
			return
		}
		actor := middleware.ActorFromContext(c)
		campaign, err := apply(c, actor, id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, campaign)
	}
}

// SubmitForReview handles POST /campaigns/:id/submit
func (h *CampaignHandler) SubmitForReview(c *gin.Context) {
	h.transitionHandler(func(c *gin.Context, actor models.Actor, id primitive.ObjectID) (*models.Campaign, error) {
		return h.campaignService.SubmitForReview(c.Request.Context(), actor, id)
	})(c)
}

// Approve handles POST /campaigns/:id/approve
func (h *CampaignHandler) Approve(c *gin.Context) {
	h.transitionHandler(func(c *gin.Context, actor models.Actor, id primitive.ObjectID) (*models.Campaign, error) {
		return h.campaignService.Approve(c.Request.Context(), actor, id)
	})(c)
}

// Reject handles POST /campaigns/:id/reject
func (h *CampaignHandler) Reject(c *gin.Context) {
	h.transitionHandler(func(c *gin.Context, actor models.Actor, id primitive.ObjectID) (*models.Campaign, error) {
		return h.campaignService.Reject(c.Request.Context(), actor, id)
	})(c)
}

// Schedule handles POST /campaigns/:id/schedule
func (h *CampaignHandler) Schedule(c *gin.Context) {
	id, ok := campaignID(c)
	if !ok {
		return
	}
	var schedule models.Schedule
	if err := c.ShouldBindJSON(&schedule); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	actor := middleware.ActorFromContext(c)
	campaign, err := h.campaignService.Schedule(c.Request.Context(), actor, id, schedule)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, campaign)
}

// Unschedule handles POST /campaigns/:id/unschedule
func (h *CampaignHandler) Unschedule(c *gin.Context) {
	h.transitionHandler(func(c *gin.Context, actor models.Actor, id primitive.ObjectID) (*models.Campaign, error) {
		return h.campaignService.Unschedule(c.Request.Context(), actor, id)
	})(c)
}

// ActivateRequest is the body for POST /campaigns/:id/activate
type ActivateRequest struct {
	Force bool `json:"force"`
}

// Activate handles POST /campaigns/:id/activate
func (h *CampaignHandler) Activate(c *gin.Context) {
	id, ok := campaignID(c)
	if !ok {
		return
	}
	var request ActivateRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&request); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}
	actor := middleware.ActorFromContext(c)
	campaign, err := h.campaignService.Activate(c.Request.Context(), actor, id, request.Force)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, campaign)
}

// Deactivate handles POST /campaigns/:id/deactivate
func (h *CampaignHandler) Deactivate(c *gin.Context) {
	h.transitionHandler(func(c *gin.Context, actor models.Actor, id primitive.ObjectID) (*models.Campaign, error) {
		return h.campaignService.Deactivate(c.Request.Context(), actor, id)
	})(c)
}

// Complete handles POST /campaigns/:id/complete
func (h *CampaignHandler) Complete(c *gin.Context) {
	h.transitionHandler(func(c *gin.Context, actor models.Actor, id primitive.ObjectID) (*models.Campaign, error) {
		return h.campaignService.Complete(c.Request.Context(), actor, id)
	})(c)
}

// NextOccurrence handles GET /campaigns/:id/schedule/next
func (h *CampaignHandler) NextOccurrence(c *gin.Context) {
	id, ok := campaignID(c)
	if !ok {
		return
	}
	next, found, err := h.campaignService.NextOccurrence(c.Request.Context(), id, h.clock.Now())
	if err != nil {
		respondError(c, err)
		return
	}
	if !found {
		c.JSON(http.StatusOK, gin.H{"nextOccurrence": nil})
		return
	}
	c.JSON(http.StatusOK, gin.H{"nextOccurrence": next.Format(time.RFC3339)})
}

// BulkRequest is the body for POST /campaigns/bulk
type BulkRequest struct {
	Operation   models.BulkOperation `json:"operation" binding:"required"`
	CampaignIDs []string             `json:"campaignIds" binding:"required"`
}

// BulkApply handles POST /campaigns/bulk
func (h *CampaignHandler) BulkApply(c *gin.Context) {
	var request BulkRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	actor := middleware.ActorFromContext(c)
	result, err := h.campaignService.BulkApply(c.Request.Context(), actor, request.Operation, request.CampaignIDs)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
