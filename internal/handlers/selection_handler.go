package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/lenshub/lenshub-backend/internal/engine"
	"github.com/lenshub/lenshub-backend/internal/models"
	"github.com/lenshub/lenshub-backend/internal/services"
)

// SelectionHandler answers the storefront's "what should render here"
// requests.
type SelectionHandler struct {
	selectionService services.SelectionService
	clock            engine.Clock
}

// NewSelectionHandler creates a new SelectionHandler
func NewSelectionHandler(selectionService services.SelectionService, clock engine.Clock) *SelectionHandler {
	return &SelectionHandler{
		selectionService: selectionService,
		clock:            clock,
	}
}

// visitorFromRequest resolves request metadata into the VisitorContext the
// targeting matcher consumes. Behavioral facts arrive as fact_<name> query
// parameters. A missing visitor ID gets minted so anonymous traffic can
// still be frequency-capped, and is echoed back in the X-Visitor-ID header.
func visitorFromRequest(c *gin.Context) models.VisitorContext {
	visitorID := c.GetHeader("X-Visitor-ID")
	if visitorID == "" {
		visitorID = c.Query("visitorId")
	}
	if visitorID == "" {
		visitorID = uuid.NewString()
	}
	c.Writer.Header().Set("X-Visitor-ID", visitorID)

	visitor := models.VisitorContext{
		VisitorID:          visitorID,
		Role:               c.Query("role"),
		UserType:           c.Query("userType"),
		Country:            c.Query("country"),
		State:              c.Query("state"),
		City:               c.Query("city"),
		ZipCode:            c.Query("zipCode"),
		Device:             c.Query("device"),
		Browser:            c.Query("browser"),
		Gender:             c.Query("gender"),
		IncomeRange:        c.Query("incomeRange"),
		IsExistingCustomer: c.Query("existingCustomer") == "true",
		IsSubscriber:       c.Query("subscriber") == "true",
	}
	if age, err := strconv.Atoi(c.Query("age")); err == nil {
		visitor.Age = age
	}
	if interests := c.Query("interests"); interests != "" {
		visitor.Interests = strings.Split(interests, ",")
	}
	lat, errLat := strconv.ParseFloat(c.Query("lat"), 64)
	lon, errLon := strconv.ParseFloat(c.Query("lon"), 64)
	if errLat == nil && errLon == nil {
		visitor.Coordinates = &models.GeoPoint{Latitude: lat, Longitude: lon}
	}
	facts := map[string]string{}
	for key, values := range c.Request.URL.Query() {
		if strings.HasPrefix(key, "fact_") && len(values) > 0 {
			facts[strings.TrimPrefix(key, "fact_")] = values[0]
		}
	}
	if len(facts) > 0 {
		visitor.Facts = facts
	}
	return visitor
}

// Serve handles GET /campaigns/serve
func (h *SelectionHandler) Serve(c *gin.Context) {
	placement := c.Query("placement")
	if placement == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing placement query parameter"})
		return
	}
	visitor := visitorFromRequest(c)

	campaigns, err := h.selectionService.Select(c.Request.Context(), placement, visitor, h.clock.Now())
	if err != nil {
		respondError(c, err)
		return
	}
	if limit, err := strconv.Atoi(c.Query("limit")); err == nil && limit > 0 && limit < len(campaigns) {
		campaigns = campaigns[:limit]
	}
	c.JSON(http.StatusOK, gin.H{"items": campaigns, "visitorId": visitor.VisitorID})
}
