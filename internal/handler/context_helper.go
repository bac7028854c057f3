package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/Rzouga01/learnhub-api/internal/middleware"
	"github.com/Rzouga01/learnhub-api/internal/models"
)

// currentClaims extracts the authenticated JWT claims from the context.
func currentClaims(c *gin.Context) (*models.JWTClaims, bool) {
	claimsValue, exists := c.Get(middleware.ContextUserKey)
	if !exists {
		return nil, false
	}
	claims, ok := claimsValue.(*models.JWTClaims)
	return claims, ok
}
