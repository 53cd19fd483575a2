package loan

import "time"

// RepaymentType is the amortization method of a loan contract.
type RepaymentType string

const (
	RepaymentTypeEqualPrincipal   RepaymentType = "EQ_PRINCIPAL"
	RepaymentTypeEqualInstallment RepaymentType = "EQ_INSTALLMENT"
	RepaymentTypeBullet           RepaymentType = "BULLET"
)

// ContractStatus is the lifecycle state of a loan contract.
type ContractStatus string

const (
	ContractStatusActive    ContractStatus = "ACTIVE"
	ContractStatusDisbursed ContractStatus = "DISBURSED"
	ContractStatusCompleted ContractStatus = "COMPLETED"
	ContractStatusDefault   ContractStatus = "DEFAULT"
	ContractStatusCancelled ContractStatus = "CANCELLED"
)

// Contract links a loan to its funding (disbursement) account and its own
// collection account. Repayments pull from the disbursement account and push
// into the loan account.
type Contract struct {
	LoanID            string         `json:"loan_id"`
	AppID             string         `json:"app_id"`
	UserID            string         `json:"user_id"`
	ProductID         string         `json:"product_id"`
	Amount            int64          `json:"amount"`
	InterestRate      float64        `json:"interest_rate"` // annual percentage
	StartDate         time.Time      `json:"start_date"`
	EndDate           time.Time      `json:"end_date"`
	RepayType         RepaymentType  `json:"repay_type"`
	DisburseAccountID string         `json:"disburse_account_id"`
	LoanAccountID     string         `json:"loan_account_id"`
	Status            ContractStatus `json:"status"`
	CreatedAt         time.Time      `json:"created_at"`
}
