// Package handler contains the admin API handlers for triggering settlement
// runs out of band, such as replaying a missed day.
package handler

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/homeplanner/settlement-scheduler/internal/settlement"
)

// SettlementRunner abstracts the settlement runner for testability.
type SettlementRunner interface {
	RunEngine(ctx context.Context, name string, targetDate time.Time) (settlement.RunSummary, error)
}

// SettlementHandler handles manual settlement run requests.
type SettlementHandler struct {
	logger *slog.Logger
	runner SettlementRunner
}

// NewSettlementHandler creates a new settlement handler
func NewSettlementHandler(logger *slog.Logger, runner SettlementRunner) *SettlementHandler {
	return &SettlementHandler{
		logger: logger,
		runner: runner,
	}
}

// TriggerSavings handles POST /api/v1/settlements/savings
func (h *SettlementHandler) TriggerSavings(c *gin.Context) {
	h.trigger(c, settlement.EngineSavings)
}

// TriggerJointSavings handles POST /api/v1/settlements/joint-savings
func (h *SettlementHandler) TriggerJointSavings(c *gin.Context) {
	h.trigger(c, settlement.EngineJointSavings)
}

// TriggerLoans handles POST /api/v1/settlements/loans
func (h *SettlementHandler) TriggerLoans(c *gin.Context) {
	h.trigger(c, settlement.EngineLoan)
}

// trigger runs one engine against the requested target date. The optional
// "date" query parameter ("YYYY-MM-DD") defaults to the local calendar day.
func (h *SettlementHandler) trigger(c *gin.Context, engine string) {
	now := time.Now()
	targetDate := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	if raw := c.Query("date"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			RespondBadRequest(c, "date must be in YYYY-MM-DD format")
			return
		}
		targetDate = parsed
	}

	h.logger.Info("Manual settlement run requested",
		"engine", engine,
		"target_date", targetDate.Format("2006-01-02"),
		"correlation_id", c.GetString("correlation_id"))

	summary, err := h.runner.RunEngine(c.Request.Context(), engine, targetDate)
	if err != nil {
		var unknown settlement.ErrUnknownEngine
		if errors.As(err, &unknown) {
			RespondNotFound(c, err.Error())
			return
		}
		h.logger.Error("Manual settlement run failed", "engine", engine, "error", err)
		RespondInternalError(c)
		return
	}

	RespondOK(c, summary)
}
