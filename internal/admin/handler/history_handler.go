package handler

import (
	"context"
	"log/slog"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/homeplanner/settlement-scheduler/internal/domain/history"
)

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 200
)

// HistoryReader abstracts the transaction history store for the admin API.
type HistoryReader interface {
	ListByAccountID(ctx context.Context, accountID string, limit, offset int) ([]*history.Entry, error)
}

// HistoryHandler serves the settlement transaction history of an account.
type HistoryHandler struct {
	logger    *slog.Logger
	histories HistoryReader
}

// NewHistoryHandler creates a new history handler
func NewHistoryHandler(logger *slog.Logger, histories HistoryReader) *HistoryHandler {
	return &HistoryHandler{
		logger:    logger,
		histories: histories,
	}
}

// ListTransactions handles GET /api/v1/accounts/:account_id/transactions.
// Optional "limit" and "offset" query parameters page through the entries,
// newest first.
func (h *HistoryHandler) ListTransactions(c *gin.Context) {
	accountID := c.Param("account_id")

	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultHistoryLimit)))
	if err != nil || limit <= 0 || limit > maxHistoryLimit {
		RespondBadRequest(c, "limit must be a positive integer up to 200")
		return
	}
	offset, err := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if err != nil || offset < 0 {
		RespondBadRequest(c, "offset must be a non-negative integer")
		return
	}

	entries, err := h.histories.ListByAccountID(c.Request.Context(), accountID, limit, offset)
	if err != nil {
		h.logger.Error("Failed to list transaction history",
			"account_id", accountID,
			"error", err,
			"correlation_id", c.GetString("correlation_id"))
		RespondInternalError(c)
		return
	}
	if entries == nil {
		entries = []*history.Entry{}
	}

	RespondOK(c, entries)
}
