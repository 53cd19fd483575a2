package shared

// FailureReason categorizes expected business failures recorded against a
// settlement run. Operational errors carry free-text messages instead.
type FailureReason string

const (
	FailureReasonInsufficientFunds FailureReason = "INSUFFICIENT_FUNDS"
	FailureReasonRetryExhausted    FailureReason = "RETRY_EXHAUSTED"
)
