package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/homeplanner/settlement-scheduler/internal/settlement"
)

// MockRunner for testing
type MockRunner struct {
	mock.Mock
}

func (m *MockRunner) RunEngine(ctx context.Context, name string, targetDate time.Time) (settlement.RunSummary, error) {
	args := m.Called(ctx, name, targetDate)
	return args.Get(0).(settlement.RunSummary), args.Error(1)
}

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelWarn}))
}

func setupTestRouter(runner SettlementRunner) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := NewSettlementHandler(newTestLogger(), runner)
	r.POST("/api/v1/settlements/savings", h.TriggerSavings)
	r.POST("/api/v1/settlements/joint-savings", h.TriggerJointSavings)
	r.POST("/api/v1/settlements/loans", h.TriggerLoans)
	return r
}

func TestSettlementHandler_TriggerWithDate(t *testing.T) {
	runner := &MockRunner{}
	router := setupTestRouter(runner)

	wantDate, _ := time.Parse("2006-01-02", "2026-08-15")
	summary := settlement.RunSummary{RunID: "run-1", Engine: settlement.EngineSavings, SuccessCount: 3}
	runner.On("RunEngine", mock.Anything, settlement.EngineSavings, wantDate).Return(summary, nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/settlements/savings?date=2026-08-15", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data, err := json.Marshal(resp.Data)
	require.NoError(t, err)
	var got settlement.RunSummary
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, "run-1", got.RunID)
	assert.Equal(t, 3, got.SuccessCount)

	runner.AssertExpectations(t)
}

func TestSettlementHandler_TriggerDefaultsToToday(t *testing.T) {
	runner := &MockRunner{}
	router := setupTestRouter(runner)

	summary := settlement.RunSummary{RunID: "run-2", Engine: settlement.EngineLoan}
	// Default is midnight of the local calendar day, not the UTC day
	runner.On("RunEngine", mock.Anything, settlement.EngineLoan, mock.MatchedBy(func(d time.Time) bool {
		now := time.Now()
		want := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
		return d.Equal(want)
	})).Return(summary, nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/settlements/loans", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	runner.AssertExpectations(t)
}

func TestSettlementHandler_InvalidDate(t *testing.T) {
	runner := &MockRunner{}
	router := setupTestRouter(runner)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/settlements/savings?date=15-08-2026", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	runner.AssertNotCalled(t, "RunEngine")
}

func TestSettlementHandler_UnknownEngine(t *testing.T) {
	runner := &MockRunner{}
	router := setupTestRouter(runner)

	runner.On("RunEngine", mock.Anything, settlement.EngineJointSavings, mock.AnythingOfType("time.Time")).
		Return(settlement.RunSummary{}, settlement.ErrUnknownEngine{Name: settlement.EngineJointSavings})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/settlements/joint-savings", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}
