package account

import "time"

// Role of a user in a joint account.
type Role string

const (
	RolePrimary Role = "PRIMARY"
	RoleJoint   Role = "JOINT"
)

// Participant records a user's membership in a joint account. Creation order
// determines fan-out processing order within a settlement run.
type Participant struct {
	ID        string    `json:"id"`
	AccountID string    `json:"account_id"`
	UserID    string    `json:"user_id"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}
