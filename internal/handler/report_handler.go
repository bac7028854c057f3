package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Rzouga01/learnhub-api/internal/dto"
	"github.com/Rzouga01/learnhub-api/internal/middleware"
	"github.com/Rzouga01/learnhub-api/internal/models"
	"github.com/Rzouga01/learnhub-api/internal/service"
	appErrors "github.com/Rzouga01/learnhub-api/pkg/errors"
	"github.com/Rzouga01/learnhub-api/pkg/response"
)

type reportService interface {
	Enrollments(ctx context.Context, filter service.ReportFilter) (*dto.EnrollmentReportResponse, bool, error)
	Attendance(ctx context.Context, filter service.ReportFilter) (*dto.AttendanceReportResponse, bool, error)
	Revenue(ctx context.Context, filter service.ReportFilter) (*dto.RevenueReportResponse, bool, error)
	UserActivity(ctx context.Context, filter service.ReportFilter) (*dto.UserActivityReportResponse, bool, error)
}

type exportService interface {
	CreateJob(ctx context.Context, req dto.ExportRequest, userID int64) (*dto.ExportJobResponse, error)
	GetStatus(ctx context.Context, jobID string, userID int64, role models.UserRole) (*dto.ExportStatusResponse, error)
	ResolveDownload(ctx context.Context, token string) (string, []byte, error)
}

// ReportHandler serves the ad-hoc report endpoints and exports.
type ReportHandler struct {
	reports reportService
	exports exportService
}

// NewReportHandler constructs the handler.
func NewReportHandler(reports reportService, exports exportService) *ReportHandler {
	return &ReportHandler{reports: reports, exports: exports}
}

// filterFromQuery collects the recognized filter keys; everything else
// in the query string is ignored.
func filterFromQuery(c *gin.Context) (service.ReportFilter, error) {
	return service.ParseReportFilter(service.RawReportFilter{
		TrainingID:    c.Query("training_id"),
		SessionID:     c.Query("session_id"),
		Status:        c.Query("status"),
		PaymentStatus: c.Query("payment_status"),
		Role:          c.Query("role"),
		DateFrom:      c.Query("date_from"),
		DateTo:        c.Query("date_to"),
	})
}

// Enrollments godoc
// @Summary Enrollment report
// @Tags Reports
// @Produce json
// @Param training_id query int false "Training ID"
// @Param status query string false "Enrollment status"
// @Param payment_status query string false "Payment status"
// @Param date_from query string false "ISO date lower bound"
// @Param date_to query string false "ISO date upper bound"
// @Success 200 {object} response.Envelope
// @Router /reports/enrollments [get]
func (h *ReportHandler) Enrollments(c *gin.Context) {
	filter, err := filterFromQuery(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	start := time.Now()
	report, cacheHit, err := h.reports.Enrollments(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	respondWithMeta(c, report, cacheHit, start)
}

// Attendance godoc
// @Summary Attendance report
// @Tags Reports
// @Produce json
// @Param training_id query int false "Training ID"
// @Param session_id query int false "Session ID"
// @Param status query string false "Attendance status"
// @Success 200 {object} response.Envelope
// @Router /reports/attendance [get]
func (h *ReportHandler) Attendance(c *gin.Context) {
	filter, err := filterFromQuery(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	start := time.Now()
	report, cacheHit, err := h.reports.Attendance(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	respondWithMeta(c, report, cacheHit, start)
}

// Revenue godoc
// @Summary Revenue report
// @Tags Reports
// @Produce json
// @Param training_id query int false "Training ID"
// @Param date_from query string false "ISO date lower bound"
// @Param date_to query string false "ISO date upper bound"
// @Success 200 {object} response.Envelope
// @Router /reports/revenue [get]
func (h *ReportHandler) Revenue(c *gin.Context) {
	filter, err := filterFromQuery(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	start := time.Now()
	report, cacheHit, err := h.reports.Revenue(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	respondWithMeta(c, report, cacheHit, start)
}

// UserActivity godoc
// @Summary User activity report
// @Tags Reports
// @Produce json
// @Param role query string false "User role"
// @Success 200 {object} response.Envelope
// @Router /reports/user-activity [get]
func (h *ReportHandler) UserActivity(c *gin.Context) {
	filter, err := filterFromQuery(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	start := time.Now()
	report, cacheHit, err := h.reports.UserActivity(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	respondWithMeta(c, report, cacheHit, start)
}

// Export godoc
// @Summary Queue a report export
// @Tags Reports
// @Accept json
// @Produce json
// @Param request body dto.ExportRequest true "Export request"
// @Success 201 {object} response.Envelope
// @Router /reports/export [post]
func (h *ReportHandler) Export(c *gin.Context) {
	claims, ok := currentClaims(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.ExportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid export payload"))
		return
	}
	job, err := h.exports.CreateJob(c.Request.Context(), req, claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, job)
}

// ExportStatus godoc
// @Summary Export job status
// @Tags Reports
// @Produce json
// @Param id path string true "Job ID"
// @Success 200 {object} response.Envelope
// @Router /reports/export/{id} [get]
func (h *ReportHandler) ExportStatus(c *gin.Context) {
	claims, ok := currentClaims(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	status, err := h.exports.GetStatus(c.Request.Context(), c.Param("id"), claims.UserID, claims.Role)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, status, nil, middleware.ExtractMeta(c))
}

// Download godoc
// @Summary Download an exported report
// @Tags Reports
// @Produce octet-stream
// @Param token path string true "Signed download token"
// @Success 200 {file} binary
// @Router /reports/download/{token} [get]
func (h *ReportHandler) Download(c *gin.Context) {
	filename, data, err := h.exports.ResolveDownload(c.Request.Context(), c.Param("token"))
	if err != nil {
		response.Error(c, err)
		return
	}
	contentType := "text/csv"
	if strings.HasSuffix(filename, ".pdf") {
		contentType = "application/pdf"
	}
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, contentType, data)
}

func respondWithMeta(c *gin.Context, payload interface{}, cacheHit bool, start time.Time) {
	middleware.SetCacheHit(c, cacheHit)
	meta := middleware.ExtractMeta(c)
	if meta == nil {
		meta = map[string]interface{}{}
	}
	meta["processing_time_ms"] = time.Since(start).Milliseconds()
	response.JSON(c, http.StatusOK, payload, nil, meta)
}
