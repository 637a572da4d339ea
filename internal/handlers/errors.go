package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lenshub/lenshub-backend/internal/apperrors"
	"go.mongodb.org/mongo-driver/mongo"
)

// respondError maps engine error kinds onto HTTP statuses. Anything
// untyped (including transient storage failures) is a 500.
func respondError(c *gin.Context, err error) {
	switch apperrors.KindOf(err) {
	case apperrors.KindValidation:
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case apperrors.KindPermission:
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case apperrors.KindNotFound:
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case apperrors.KindInvalidTransition, apperrors.KindConflict:
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		if errors.Is(err, mongo.ErrNoDocuments) {
			c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
