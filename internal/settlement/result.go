package settlement

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// SettlementDetail carries the full audit record of one successful transfer.
type SettlementDetail struct {
	ScheduleID          string    `json:"schedule_id"`
	UserID              string    `json:"user_id,omitempty"`
	LoanID              string    `json:"loan_id,omitempty"`
	FromAccountID       string    `json:"from_account_id"`
	ToAccountID         string    `json:"to_account_id"`
	FromAccountNum      string    `json:"from_account_num"`
	ToAccountNum        string    `json:"to_account_num"`
	DebitTransactionID  string    `json:"debit_transaction_id"`
	CreditTransactionID string    `json:"credit_transaction_id"`
	Amount              int64     `json:"amount"`
	PrincipalDue        int64     `json:"principal_due,omitempty"`
	InterestDue         int64     `json:"interest_due,omitempty"`
	FromAccountBalance  int64     `json:"from_account_balance"`
	ToAccountBalance    int64     `json:"to_account_balance"`
	ProcessedAt         time.Time `json:"processed_at"`
}

// OutcomeNote records a failure or error against the id of the offending
// entity (schedule, account, participant, or contract).
type OutcomeNote struct {
	ID     string `json:"id"`
	Reason string `json:"reason"`
}

// RunResult aggregates the outcomes of one engine invocation. It is
// process-scoped: created at the start of a run, read by the reporter at
// the end, never persisted. Add methods are safe for concurrent use since
// accounts may be settled in parallel.
type RunResult struct {
	RunID      string
	Engine     string
	ExecutedAt time.Time
	TargetDate time.Time

	mu           sync.Mutex
	successes    []SettlementDetail
	failures     []OutcomeNote
	errors       []OutcomeNote
	globalErrors []string
	totalAmount  int64
}

// NewRunResult creates a result for one engine run against the target date.
func NewRunResult(engine string, targetDate time.Time) *RunResult {
	return &RunResult{
		RunID:      uuid.New().String(),
		Engine:     engine,
		ExecutedAt: time.Now(),
		TargetDate: targetDate,
	}
}

// AddSuccess records a completed transfer and accumulates the run total.
func (r *RunResult) AddSuccess(detail SettlementDetail) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.successes = append(r.successes, detail)
	r.totalAmount += detail.Amount
}

// AddFailure records an expected business failure (insufficient funds,
// retry exhaustion) against a schedule id.
func (r *RunResult) AddFailure(id, reason string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failures = append(r.failures, OutcomeNote{ID: id, Reason: reason})
}

// AddError records an unexpected operational error against an entity id.
func (r *RunResult) AddError(id, reason string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errors = append(r.errors, OutcomeNote{ID: id, Reason: reason})
}

// AddGlobalError records a failure of the run itself, such as the account
// enumeration being unavailable.
func (r *RunResult) AddGlobalError(reason string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.globalErrors = append(r.globalErrors, reason)
}

// Record folds a transfer outcome into the result.
func (r *RunResult) Record(out Outcome) {
	switch out.Kind {
	case OutcomeSuccess:
		r.AddSuccess(*out.Detail)
	case OutcomeFailure:
		r.AddFailure(out.ID, out.Reason)
	case OutcomeError:
		r.AddError(out.ID, out.Reason)
	}
}

// SuccessCount returns the number of successful settlements.
func (r *RunResult) SuccessCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.successes)
}

// FailureCount returns the number of business failures.
func (r *RunResult) FailureCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.failures)
}

// ErrorCount returns the number of operational errors.
func (r *RunResult) ErrorCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.errors)
}

// TotalAmount returns the total amount moved by successful settlements.
func (r *RunResult) TotalAmount() int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.totalAmount
}

// RunSummary is the exported snapshot of a RunResult, consumed by the
// reporter and the admin API.
type RunSummary struct {
	RunID        string             `json:"run_id"`
	Engine       string             `json:"engine"`
	ExecutedAt   time.Time          `json:"executed_at"`
	TargetDate   string             `json:"target_date"`
	SuccessCount int                `json:"success_count"`
	FailureCount int                `json:"failure_count"`
	ErrorCount   int                `json:"error_count"`
	TotalAmount  int64              `json:"total_amount"`
	Successes    []SettlementDetail `json:"successes,omitempty"`
	Failures     []OutcomeNote      `json:"failures,omitempty"`
	Errors       []OutcomeNote      `json:"errors,omitempty"`
	GlobalErrors []string           `json:"global_errors,omitempty"`
}

// Snapshot copies the result into an exportable summary.
func (r *RunResult) Snapshot() RunSummary {
	r.mu.Lock()
	defer r.mu.Unlock()

	summary := RunSummary{
		RunID:        r.RunID,
		Engine:       r.Engine,
		ExecutedAt:   r.ExecutedAt,
		TargetDate:   r.TargetDate.Format("2006-01-02"),
		SuccessCount: len(r.successes),
		FailureCount: len(r.failures),
		ErrorCount:   len(r.errors),
		TotalAmount:  r.totalAmount,
	}
	summary.Successes = append(summary.Successes, r.successes...)
	summary.Failures = append(summary.Failures, r.failures...)
	summary.Errors = append(summary.Errors, r.errors...)
	summary.GlobalErrors = append(summary.GlobalErrors, r.globalErrors...)
	return summary
}
