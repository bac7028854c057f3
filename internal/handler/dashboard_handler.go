package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Rzouga01/learnhub-api/internal/dto"
	"github.com/Rzouga01/learnhub-api/internal/middleware"
	"github.com/Rzouga01/learnhub-api/internal/models"
	appErrors "github.com/Rzouga01/learnhub-api/pkg/errors"
	"github.com/Rzouga01/learnhub-api/pkg/response"
)

type dashboardService interface {
	Summary(ctx context.Context, userID int64, role models.UserRole) (interface{}, bool, error)
	Student(ctx context.Context, userID int64) (*dto.StudentDashboardResponse, bool, error)
	Trainer(ctx context.Context, userID int64) (*dto.TrainerDashboardResponse, bool, error)
	Coordinator(ctx context.Context) (*dto.CoordinatorDashboardResponse, bool, error)
	RecentActivity(ctx context.Context, userID int64) ([]dto.ActivityItem, error)
}

// DashboardHandler wires dashboard service to HTTP endpoints.
type DashboardHandler struct {
	service dashboardService
}

// NewDashboardHandler constructs the handler.
func NewDashboardHandler(service dashboardService) *DashboardHandler {
	return &DashboardHandler{service: service}
}

// Summary godoc
// @Summary Role-specific dashboard summary
// @Tags Dashboard
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /dashboard [get]
func (h *DashboardHandler) Summary(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	claims, ok := currentClaims(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	start := time.Now()
	summary, cacheHit, err := h.service.Summary(c.Request.Context(), claims.UserID, claims.Role)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, cacheHit)
	meta := middleware.ExtractMeta(c)
	if meta == nil {
		meta = map[string]interface{}{}
	}
	meta["processing_time_ms"] = time.Since(start).Milliseconds()
	response.JSON(c, http.StatusOK, summary, nil, meta)
}

// Activity godoc
// @Summary Recent activity feed
// @Tags Dashboard
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /dashboard/activity [get]
func (h *DashboardHandler) Activity(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	claims, ok := currentClaims(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	items, err := h.service.RecentActivity(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil, middleware.ExtractMeta(c))
}
