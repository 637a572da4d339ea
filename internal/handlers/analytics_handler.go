package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lenshub/lenshub-backend/internal/models"
	"github.com/lenshub/lenshub-backend/internal/services"
)

// AnalyticsHandler handles campaign event tracking and reporting.
type AnalyticsHandler struct {
	analyticsService services.AnalyticsService
}

// NewAnalyticsHandler creates a new AnalyticsHandler
func NewAnalyticsHandler(analyticsService services.AnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{
		analyticsService: analyticsService,
	}
}

// TrackImpression handles POST /campaigns/:id/track/impression
func (h *AnalyticsHandler) TrackImpression(c *gin.Context) {
	id, ok := campaignID(c)
	if !ok {
		return
	}
	visitorID := c.GetHeader("X-Visitor-ID")
	if err := h.analyticsService.RecordImpression(c.Request.Context(), id, visitorID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Impression recorded"})
}

// ClickRequest is the body for POST /campaigns/:id/track/click
type ClickRequest struct {
	CTALabel string `json:"ctaLabel"`
}

// TrackClick handles POST /campaigns/:id/track/click
func (h *AnalyticsHandler) TrackClick(c *gin.Context) {
	id, ok := campaignID(c)
	if !ok {
		return
	}
	var request ClickRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&request); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}
	if err := h.analyticsService.RecordClick(c.Request.Context(), id, request.CTALabel); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Click recorded"})
}

// ConversionRequest is the body for POST /campaigns/:id/track/conversion
type ConversionRequest struct {
	Revenue float64 `json:"revenue"`
}

// TrackConversion handles POST /campaigns/:id/track/conversion
func (h *AnalyticsHandler) TrackConversion(c *gin.Context) {
	id, ok := campaignID(c)
	if !ok {
		return
	}
	var request ConversionRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&request); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}
	if err := h.analyticsService.RecordConversion(c.Request.Context(), id, request.Revenue); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Conversion recorded"})
}

// GetAnalytics handles GET /campaigns/:id/analytics
func (h *AnalyticsHandler) GetAnalytics(c *gin.Context) {
	id, ok := campaignID(c)
	if !ok {
		return
	}
	analytics, err := h.analyticsService.GetAnalytics(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, analytics)
}

// Summary handles GET /campaigns/analytics/summary
func (h *AnalyticsHandler) Summary(c *gin.Context) {
	filter := models.CampaignFilter{
		Status:    models.CampaignStatus(c.Query("status")),
		Placement: c.Query("placement"),
		Type:      models.CampaignType(c.Query("type")),
		Tag:       c.Query("tag"),
		CreatedBy: c.Query("createdBy"),
	}
	summary, err := h.analyticsService.Summary(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}
