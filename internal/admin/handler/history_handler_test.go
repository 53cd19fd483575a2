package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/homeplanner/settlement-scheduler/internal/domain/history"
)

// MockHistoryReader for testing
type MockHistoryReader struct {
	mock.Mock
}

func (m *MockHistoryReader) ListByAccountID(ctx context.Context, accountID string, limit, offset int) ([]*history.Entry, error) {
	args := m.Called(ctx, accountID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*history.Entry), args.Error(1)
}

func setupHistoryRouter(reader HistoryReader) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := NewHistoryHandler(newTestLogger(), reader)
	r.GET("/api/v1/accounts/:account_id/transactions", h.ListTransactions)
	return r
}

func TestHistoryHandler_ListTransactions(t *testing.T) {
	reader := &MockHistoryReader{}
	router := setupHistoryRouter(reader)

	entries := []*history.Entry{
		{TransactionID: "txn-2", AccountID: "acc-1", Amount: 100_000, Description: "Savings deposit from account 110-001"},
		{TransactionID: "txn-1", AccountID: "acc-1", Amount: -50_000, Description: "Savings auto-debit to account 210-001"},
	}
	reader.On("ListByAccountID", mock.Anything, "acc-1", 50, 0).Return(entries, nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/accounts/acc-1/transactions", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data, err := json.Marshal(resp.Data)
	require.NoError(t, err)
	var got []*history.Entry
	require.NoError(t, json.Unmarshal(data, &got))
	require.Len(t, got, 2)
	assert.Equal(t, "txn-2", got[0].TransactionID)

	reader.AssertExpectations(t)
}

func TestHistoryHandler_ListTransactionsWithPagination(t *testing.T) {
	reader := &MockHistoryReader{}
	router := setupHistoryRouter(reader)

	reader.On("ListByAccountID", mock.Anything, "acc-1", 10, 20).Return([]*history.Entry{}, nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/accounts/acc-1/transactions?limit=10&offset=20", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	reader.AssertExpectations(t)
}

func TestHistoryHandler_InvalidPagination(t *testing.T) {
	reader := &MockHistoryReader{}
	router := setupHistoryRouter(reader)

	for _, query := range []string{"limit=0", "limit=abc", "limit=5000", "offset=-1"} {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/v1/accounts/acc-1/transactions?"+query, nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code, "query %q", query)
	}
	reader.AssertNotCalled(t, "ListByAccountID")
}

func TestHistoryHandler_StoreError(t *testing.T) {
	reader := &MockHistoryReader{}
	router := setupHistoryRouter(reader)

	reader.On("ListByAccountID", mock.Anything, "acc-1", 50, 0).Return(nil, assert.AnError)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/accounts/acc-1/transactions", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
