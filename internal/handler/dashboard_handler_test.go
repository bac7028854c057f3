package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/Rzouga01/learnhub-api/internal/dto"
	"github.com/Rzouga01/learnhub-api/internal/middleware"
	"github.com/Rzouga01/learnhub-api/internal/models"
)

type fakeDashboardSrv struct {
	summary  interface{}
	hit      bool
	err      error
	activity []dto.ActivityItem
	lastRole models.UserRole
}

func (f *fakeDashboardSrv) Summary(_ context.Context, _ int64, role models.UserRole) (interface{}, bool, error) {
	f.lastRole = role
	return f.summary, f.hit, f.err
}

func (f *fakeDashboardSrv) Student(context.Context, int64) (*dto.StudentDashboardResponse, bool, error) {
	return nil, false, nil
}

func (f *fakeDashboardSrv) Trainer(context.Context, int64) (*dto.TrainerDashboardResponse, bool, error) {
	return nil, false, nil
}

func (f *fakeDashboardSrv) Coordinator(context.Context) (*dto.CoordinatorDashboardResponse, bool, error) {
	return nil, false, nil
}

func (f *fakeDashboardSrv) RecentActivity(context.Context, int64) ([]dto.ActivityItem, error) {
	return f.activity, f.err
}

type responseEnvelope struct {
	Data interface{}            `json:"data"`
	Meta map[string]interface{} `json:"meta"`
}

func TestDashboardSummaryRequiresAuth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewDashboardHandler(&fakeDashboardSrv{})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/dashboard", nil)

	handler.Summary(c)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestDashboardSummarySuccess(t *testing.T) {
	gin.SetMode(gin.TestMode)
	fake := &fakeDashboardSrv{
		summary: &dto.StudentDashboardResponse{CoursesEnrolled: 3, Level: 1, NextLevelXP: 1000},
		hit:     true,
	}
	handler := NewDashboardHandler(fake)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: 7, Role: models.RoleStudent})

	handler.Summary(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, models.RoleStudent, fake.lastRole)

	var envelope responseEnvelope
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, true, envelope.Meta["cache_hit"])
	data, ok := envelope.Data.(map[string]interface{})
	assert.True(t, ok)
	assert.Equal(t, float64(3), data["coursesEnrolled"])
	assert.Equal(t, float64(1000), data["nextLevelXp"])
}

func TestDashboardActivity(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewDashboardHandler(&fakeDashboardSrv{
		activity: []dto.ActivityItem{
			{ID: 2, Title: "Enrolled in Go Fundamentals", RelativeTime: "2 hours ago", Icon: "book"},
		},
	})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/dashboard/activity", nil)
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: 7, Role: models.RoleStudent})

	handler.Activity(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	var envelope responseEnvelope
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	items, ok := envelope.Data.([]interface{})
	assert.True(t, ok)
	assert.Len(t, items, 1)
}
