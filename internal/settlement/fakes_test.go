package settlement

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/homeplanner/settlement-scheduler/internal/domain/account"
	"github.com/homeplanner/settlement-scheduler/internal/domain/history"
	"github.com/homeplanner/settlement-scheduler/internal/domain/loan"
	"github.com/homeplanner/settlement-scheduler/internal/domain/savings"
	"github.com/homeplanner/settlement-scheduler/internal/domain/shared"
)

// restorable lets the fake transaction runner roll state back when the
// transactional function fails, mirroring a real database rollback.
type restorable interface {
	snapshot() interface{}
	restore(interface{})
}

// fakeTxRunner executes the function with a nil transaction and restores the
// registered stores when it fails. History appends are deliberately not
// rolled back: the real history store lives outside the transaction too.
// commitFailures makes the first N transactions fail after the function
// succeeded, emulating a commit-stage error that rolls everything back.
type fakeTxRunner struct {
	stores         []restorable
	beginErr       error
	commitFailures int
}

func (r *fakeTxRunner) ExecuteTx(_ context.Context, fn func(tx pgx.Tx) error) error {
	if r.beginErr != nil {
		return r.beginErr
	}
	snaps := make([]interface{}, len(r.stores))
	for i, s := range r.stores {
		snaps[i] = s.snapshot()
	}
	rollback := func() {
		for i, s := range r.stores {
			s.restore(snaps[i])
		}
	}
	if err := fn(nil); err != nil {
		rollback()
		return err
	}
	if r.commitFailures > 0 {
		r.commitFailures--
		rollback()
		return errors.New("commit failed: connection reset by peer")
	}
	return nil
}

// memAccountRepo is an in-memory account.Repository. Reads return copies and
// Update writes copies back, so uncommitted mutations never leak into the
// store.
type memAccountRepo struct {
	mu             sync.Mutex
	byID           map[string]*account.Account
	order          []string
	updateFailures int // first N Update calls fail with a transient error
}

func newMemAccountRepo(accounts ...*account.Account) *memAccountRepo {
	r := &memAccountRepo{byID: make(map[string]*account.Account)}
	for _, acc := range accounts {
		clone := *acc
		r.byID[acc.ID] = &clone
		r.order = append(r.order, acc.ID)
	}
	return r
}

func (r *memAccountRepo) GetByID(_ context.Context, id string) (*account.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	acc, ok := r.byID[id]
	if !ok {
		return nil, account.ErrAccountNotFound{AccountID: id}
	}
	clone := *acc
	return &clone, nil
}

func (r *memAccountRepo) GetByAccountNum(_ context.Context, accountNum string) (*account.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, id := range r.order {
		if r.byID[id].AccountNum == accountNum {
			clone := *r.byID[id]
			return &clone, nil
		}
	}
	return nil, account.ErrAccountNotFound{AccountID: accountNum}
}

func (r *memAccountRepo) ListByType(_ context.Context, accountType account.Type) ([]*account.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*account.Account
	for _, id := range r.order {
		if r.byID[id].Type == accountType {
			clone := *r.byID[id]
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (r *memAccountRepo) Update(_ context.Context, acc *account.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.updateFailures > 0 {
		r.updateFailures--
		return errors.New("connection reset by peer")
	}
	stored, ok := r.byID[acc.ID]
	if !ok {
		return account.ErrAccountNotFound{AccountID: acc.ID}
	}
	if stored.Version != acc.Version-1 {
		return account.ErrConcurrentModification{AccountID: acc.ID}
	}
	clone := *acc
	r.byID[acc.ID] = &clone
	return nil
}

func (r *memAccountRepo) LockForUpdate(ctx context.Context, id string) (*account.Account, error) {
	return r.GetByID(ctx, id)
}

func (r *memAccountRepo) WithTx(pgx.Tx) account.Repository { return r }

func (r *memAccountRepo) balance(id string) int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.byID[id].Balance
}

func (r *memAccountRepo) snapshot() interface{} {
	r.mu.Lock()
	defer r.mu.Unlock()
	snap := make(map[string]account.Account, len(r.byID))
	for id, acc := range r.byID {
		snap[id] = *acc
	}
	return snap
}

func (r *memAccountRepo) restore(v interface{}) {
	snap := v.(map[string]account.Account)
	r.mu.Lock()
	defer r.mu.Unlock()
	for id := range r.byID {
		acc := snap[id]
		r.byID[id] = &acc
	}
}

// memHistoryRepo is an in-memory history.Repository with the same
// idempotency-key replacement semantics as the MongoDB implementation.
type memHistoryRepo struct {
	mu      sync.Mutex
	entries []*history.Entry
}

func (r *memHistoryRepo) Append(_ context.Context, entry *history.Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *entry
	if entry.IdempotencyKey != "" {
		for i, existing := range r.entries {
			if existing.IdempotencyKey == entry.IdempotencyKey {
				r.entries[i] = &clone
				return nil
			}
		}
	}
	r.entries = append(r.entries, &clone)
	return nil
}

func (r *memHistoryRepo) ListByAccountID(_ context.Context, accountID string, _, _ int) ([]*history.Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*history.Entry
	for _, e := range r.entries {
		if e.AccountID == accountID {
			clone := *e
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (r *memHistoryRepo) all() []*history.Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*history.Entry, len(r.entries))
	copy(out, r.entries)
	return out
}

// memPaymentScheduleRepo is an in-memory savings.ScheduleRepository applying
// the same due filter as the PostgreSQL implementation.
type memPaymentScheduleRepo struct {
	mu    sync.Mutex
	byID  map[string]*savings.PaymentSchedule
	order []string
}

func newMemPaymentScheduleRepo(schedules ...*savings.PaymentSchedule) *memPaymentScheduleRepo {
	r := &memPaymentScheduleRepo{byID: make(map[string]*savings.PaymentSchedule)}
	for _, s := range schedules {
		clone := *s
		r.byID[s.PaymentID] = &clone
		r.order = append(r.order, s.PaymentID)
	}
	return r
}

func scheduleDue(s *savings.PaymentSchedule, targetDate time.Time) bool {
	switch s.Status {
	case shared.ScheduleStatusPending:
		return !s.DueDate.After(targetDate)
	case shared.ScheduleStatusOverdue:
		return s.DueDate.Before(targetDate)
	default:
		return false
	}
}

func (r *memPaymentScheduleRepo) ListDue(_ context.Context, accountID string, targetDate time.Time) ([]*savings.PaymentSchedule, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*savings.PaymentSchedule
	for _, id := range r.order {
		s := r.byID[id]
		if s.AccountID == accountID && scheduleDue(s, targetDate) {
			clone := *s
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (r *memPaymentScheduleRepo) ListDueForUser(_ context.Context, accountID, userID string, targetDate time.Time) ([]*savings.PaymentSchedule, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*savings.PaymentSchedule
	for _, id := range r.order {
		s := r.byID[id]
		if s.AccountID == accountID && s.UserID == userID && scheduleDue(s, targetDate) {
			clone := *s
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (r *memPaymentScheduleRepo) UpdateStatus(_ context.Context, schedule *savings.PaymentSchedule) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.byID[schedule.PaymentID]
	if !ok {
		return errors.New("payment schedule not found: " + schedule.PaymentID)
	}
	stored.Status = schedule.Status
	stored.PaidAt = schedule.PaidAt
	return nil
}

func (r *memPaymentScheduleRepo) WithTx(pgx.Tx) savings.ScheduleRepository { return r }

func (r *memPaymentScheduleRepo) status(paymentID string) shared.ScheduleStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.byID[paymentID].Status
}

func (r *memPaymentScheduleRepo) snapshot() interface{} {
	r.mu.Lock()
	defer r.mu.Unlock()
	snap := make(map[string]savings.PaymentSchedule, len(r.byID))
	for id, s := range r.byID {
		snap[id] = *s
	}
	return snap
}

func (r *memPaymentScheduleRepo) restore(v interface{}) {
	snap := v.(map[string]savings.PaymentSchedule)
	r.mu.Lock()
	defer r.mu.Unlock()
	for id := range r.byID {
		s := snap[id]
		r.byID[id] = &s
	}
}

// memUserSavingsRepo is an in-memory savings.UserSavingsRepository.
type memUserSavingsRepo struct {
	enrollments []*savings.UserSavings
}

func (r *memUserSavingsRepo) GetByAccountID(_ context.Context, accountID string) (*savings.UserSavings, error) {
	for _, e := range r.enrollments {
		if e.AccountID == accountID {
			clone := *e
			return &clone, nil
		}
	}
	return nil, savings.ErrSavingsNotFound{AccountID: accountID}
}

func (r *memUserSavingsRepo) GetByAccountAndUser(_ context.Context, accountID, userID string) (*savings.UserSavings, error) {
	for _, e := range r.enrollments {
		if e.AccountID == accountID && e.UserID == userID {
			clone := *e
			return &clone, nil
		}
	}
	return nil, savings.ErrSavingsNotFound{AccountID: accountID, UserID: userID}
}

// memParticipantRepo is an in-memory account.ParticipantRepository.
type memParticipantRepo struct {
	participants []*account.Participant
}

func (r *memParticipantRepo) ListByAccountID(_ context.Context, accountID string) ([]*account.Participant, error) {
	var out []*account.Participant
	for _, p := range r.participants {
		if p.AccountID == accountID {
			clone := *p
			out = append(out, &clone)
		}
	}
	return out, nil
}

// memLoanContractRepo is an in-memory loan.ContractRepository.
type memLoanContractRepo struct {
	contracts []*loan.Contract
}

func (r *memLoanContractRepo) ListByDisburseAccount(_ context.Context, accountID string) ([]*loan.Contract, error) {
	var out []*loan.Contract
	for _, c := range r.contracts {
		if c.DisburseAccountID == accountID {
			clone := *c
			out = append(out, &clone)
		}
	}
	return out, nil
}

// memLoanScheduleRepo is an in-memory loan.ScheduleRepository.
type memLoanScheduleRepo struct {
	mu    sync.Mutex
	byID  map[string]*loan.RepaymentSchedule
	order []string
}

func newMemLoanScheduleRepo(schedules ...*loan.RepaymentSchedule) *memLoanScheduleRepo {
	r := &memLoanScheduleRepo{byID: make(map[string]*loan.RepaymentSchedule)}
	for _, s := range schedules {
		clone := *s
		r.byID[s.RepayID] = &clone
		r.order = append(r.order, s.RepayID)
	}
	return r
}

func (r *memLoanScheduleRepo) ListDue(_ context.Context, loanID string, targetDate time.Time) ([]*loan.RepaymentSchedule, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*loan.RepaymentSchedule
	for _, id := range r.order {
		s := r.byID[id]
		due := (s.Status == shared.ScheduleStatusPending || s.Status == shared.ScheduleStatusOverdue) &&
			!s.DueDate.After(targetDate)
		if s.LoanID == loanID && due {
			clone := *s
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (r *memLoanScheduleRepo) UpdateStatus(_ context.Context, schedule *loan.RepaymentSchedule) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.byID[schedule.RepayID]
	if !ok {
		return errors.New("loan repayment schedule not found: " + schedule.RepayID)
	}
	stored.Status = schedule.Status
	stored.PaidAt = schedule.PaidAt
	return nil
}

func (r *memLoanScheduleRepo) WithTx(pgx.Tx) loan.ScheduleRepository { return r }

func (r *memLoanScheduleRepo) status(repayID string) shared.ScheduleStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.byID[repayID].Status
}

func (r *memLoanScheduleRepo) snapshot() interface{} {
	r.mu.Lock()
	defer r.mu.Unlock()
	snap := make(map[string]loan.RepaymentSchedule, len(r.byID))
	for id, s := range r.byID {
		snap[id] = *s
	}
	return snap
}

func (r *memLoanScheduleRepo) restore(v interface{}) {
	snap := v.(map[string]loan.RepaymentSchedule)
	r.mu.Lock()
	defer r.mu.Unlock()
	for id := range r.byID {
		s := snap[id]
		r.byID[id] = &s
	}
}

// recordingMarker records marker calls for transfer protocol tests.
type recordingMarker struct {
	mu           sync.Mutex
	paidCalls    int
	overdueCalls int
	overdueTxNil bool
	paidErr      error
	overdueErr   error
}

func (m *recordingMarker) MarkPaid(_ context.Context, _ pgx.Tx, _ time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.paidErr != nil {
		return m.paidErr
	}
	m.paidCalls++
	return nil
}

func (m *recordingMarker) MarkOverdue(_ context.Context, tx pgx.Tx) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.overdueErr != nil {
		return m.overdueErr
	}
	m.overdueCalls++
	m.overdueTxNil = tx == nil
	return nil
}
