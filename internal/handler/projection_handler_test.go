package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tutorhive/scheduling-api/internal/models"
	"github.com/tutorhive/scheduling-api/internal/service"
)

type projectionServiceMock struct {
	windows      []models.AvailabilityWindow
	projectErr   error
	validateResp *service.BookingValidationResult
	validateErr  error
	exportBody   []byte
	exportType   string
	exportErr    error

	lastTeacherID string
	lastFrom      models.DateOnly
	lastTo        models.DateOnly
	lastFormat    string
}

func (m *projectionServiceMock) Project(ctx context.Context, teacherID string, from, to models.DateOnly) ([]models.AvailabilityWindow, error) {
	m.lastTeacherID = teacherID
	m.lastFrom = from
	m.lastTo = to
	return m.windows, m.projectErr
}

func (m *projectionServiceMock) ValidateBooking(ctx context.Context, teacherID string, req service.BookingValidationRequest) (*service.BookingValidationResult, error) {
	m.lastTeacherID = teacherID
	return m.validateResp, m.validateErr
}

func (m *projectionServiceMock) ExportTimetable(ctx context.Context, teacherID string, from, to models.DateOnly, format string) ([]byte, string, error) {
	m.lastTeacherID = teacherID
	m.lastFormat = format
	return m.exportBody, m.exportType, m.exportErr
}

func TestProjectionHandlerWindowsExplicitHorizon(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &projectionServiceMock{
		windows: []models.AvailabilityWindow{{
			StartTime: models.ClockTime(9 * 60), EndTime: models.ClockTime(12 * 60),
		}},
	}
	handler := NewProjectionHandler(mockSvc, true)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/teachers/teacher-1/availability/windows?from=2026-09-07&to=2026-09-14", nil)
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "teacher-1"}}

	handler.Windows(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "teacher-1", mockSvc.lastTeacherID)
	assert.Equal(t, "2026-09-07", mockSvc.lastFrom.String())
	assert.Equal(t, "2026-09-14", mockSvc.lastTo.String())
}

func TestProjectionHandlerWindowsDefaultHorizon(t *testing.T) {
	gin.SetMode(gin.TestMode)
	restore := timeNow
	timeNow = func() time.Time { return time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC) }
	defer func() { timeNow = restore }()

	mockSvc := &projectionServiceMock{}
	handler := NewProjectionHandler(mockSvc, true)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/teachers/teacher-1/availability/windows", nil)
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "teacher-1"}}

	handler.Windows(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "2026-09-01", mockSvc.lastFrom.String())
	assert.Equal(t, "2026-09-14", mockSvc.lastTo.String())
}

func TestProjectionHandlerWindowsBadDate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewProjectionHandler(&projectionServiceMock{}, true)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/teachers/teacher-1/availability/windows?from=today", nil)
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "teacher-1"}}

	handler.Windows(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestProjectionHandlerValidate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &projectionServiceMock{
		validateResp: &service.BookingValidationResult{Valid: true},
	}
	handler := NewProjectionHandler(mockSvc, true)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	body := `{"date":"2026-09-07","start_time":"10:00","end_time":"11:00"}`
	req, _ := http.NewRequest(http.MethodPost, "/teachers/teacher-1/availability/validate", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "teacher-1"}}

	handler.Validate(c)
	require.Equal(t, http.StatusOK, w.Code)

	var envelope struct {
		Data struct {
			Valid bool `json:"valid"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.True(t, envelope.Data.Valid)
}

func TestProjectionHandlerExport(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &projectionServiceMock{
		exportBody: []byte("Date,Day,Start,End\n"),
		exportType: "text/csv",
	}
	handler := NewProjectionHandler(mockSvc, true)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/teachers/teacher-1/availability/export?from=2026-09-07&to=2026-09-14&format=csv", nil)
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "teacher-1"}}

	handler.Export(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "csv", mockSvc.lastFormat)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "availability_2026-09-07_2026-09-14.csv")
	assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))
}

func TestProjectionHandlerExportDisabled(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &projectionServiceMock{}
	handler := NewProjectionHandler(mockSvc, false)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/teachers/teacher-1/availability/export", nil)
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "teacher-1"}}

	handler.Export(c)
	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Empty(t, mockSvc.lastTeacherID)
}
