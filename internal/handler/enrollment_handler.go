package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/Rzouga01/learnhub-api/internal/models"
	appErrors "github.com/Rzouga01/learnhub-api/pkg/errors"
	"github.com/Rzouga01/learnhub-api/pkg/response"
)

type enrollmentService interface {
	List(ctx context.Context, filter models.EnrollmentFilter) ([]models.EnrollmentDetail, error)
	Apply(ctx context.Context, userID, trainingID int64) (*models.Enrollment, error)
	UpdateStatus(ctx context.Context, id int64, status models.EnrollmentStatus) error
	UpdateProgress(ctx context.Context, id int64, progress int) error
}

// EnrollmentHandler serves enrollment lifecycle endpoints.
type EnrollmentHandler struct {
	service enrollmentService
}

// NewEnrollmentHandler constructs the handler.
func NewEnrollmentHandler(service enrollmentService) *EnrollmentHandler {
	return &EnrollmentHandler{service: service}
}

type applyRequest struct {
	TrainingID int64 `json:"training_id" binding:"required"`
}

type statusRequest struct {
	Status models.EnrollmentStatus `json:"status" binding:"required"`
}

type progressRequest struct {
	Progress int `json:"progress"`
}

// List godoc
// @Summary List enrollments
// @Tags Enrollments
// @Produce json
// @Param training_id query int false "Training ID"
// @Param status query string false "Enrollment status"
// @Success 200 {object} response.Envelope
// @Router /enrollments [get]
func (h *EnrollmentHandler) List(c *gin.Context) {
	var filter models.EnrollmentFilter
	if raw := c.Query("training_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "training_id must be an integer"))
			return
		}
		filter.TrainingID = id
	}
	filter.Status = models.EnrollmentStatus(c.Query("status"))
	rows, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rows, nil)
}

// Apply godoc
// @Summary Apply for a training
// @Tags Enrollments
// @Accept json
// @Produce json
// @Param request body applyRequest true "Application"
// @Success 201 {object} response.Envelope
// @Router /enrollments [post]
func (h *EnrollmentHandler) Apply(c *gin.Context) {
	claims, ok := currentClaims(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req applyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "training_id is required"))
		return
	}
	enrollment, err := h.service.Apply(c.Request.Context(), claims.UserID, req.TrainingID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, enrollment)
}

// UpdateStatus godoc
// @Summary Update enrollment status
// @Tags Enrollments
// @Accept json
// @Produce json
// @Param id path int true "Enrollment ID"
// @Param request body statusRequest true "New status"
// @Success 204
// @Router /enrollments/{id}/status [patch]
func (h *EnrollmentHandler) UpdateStatus(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid enrollment id"))
		return
	}
	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "status is required"))
		return
	}
	if err := h.service.UpdateStatus(c.Request.Context(), id, req.Status); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// UpdateProgress godoc
// @Summary Update enrollment progress
// @Tags Enrollments
// @Accept json
// @Produce json
// @Param id path int true "Enrollment ID"
// @Param request body progressRequest true "Progress value"
// @Success 204
// @Router /enrollments/{id}/progress [patch]
func (h *EnrollmentHandler) UpdateProgress(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid enrollment id"))
		return
	}
	var req progressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid progress payload"))
		return
	}
	if err := h.service.UpdateProgress(c.Request.Context(), id, req.Progress); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
