package fuel

import (
	"time"

	"github.com/google/uuid"
)

// CreditType names the pool a transaction drew from or credited.
type CreditType string

const (
	CreditTypeDaily     CreditType = "daily"
	CreditTypePermanent CreditType = "permanent"
)

// UserCredits is the per-user balance row.
type UserCredits struct {
	UserID         uuid.UUID `db:"user_id" json:"user_id"`
	DailyFuel      int       `db:"daily_fuel" json:"daily_fuel"`
	PermanentFuel  int       `db:"permanent_fuel" json:"permanent_fuel"`
	PingsToday     int       `db:"pings_today" json:"pings_today"`
	LastRefillDate string    `db:"last_refill_date" json:"last_refill_date"` // YYYY-MM-DD, UTC
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

// Total is the spendable balance across both pools.
func (c *UserCredits) Total() int {
	return c.DailyFuel + c.PermanentFuel
}

// CreditTransaction is an append-only audit row.
type CreditTransaction struct {
	ID          uuid.UUID  `db:"id" json:"id"`
	UserID      uuid.UUID  `db:"user_id" json:"user_id"`
	Amount      int        `db:"amount" json:"amount"`
	CreditType  CreditType `db:"credit_type" json:"credit_type"`
	ActionType  string     `db:"action_type" json:"action_type"`
	Description string     `db:"description" json:"description"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
}

// TransactionEntry is a transaction yet to be written.
type TransactionEntry struct {
	Amount      int
	CreditType  CreditType
	ActionType  string
	Description string
}

// DeductResult is the post-commit view returned to callers of Deduct.
type DeductResult struct {
	Deducted          int
	DailyDeducted     int
	PermanentDeducted int
	DailyFuel         int
	PermanentFuel     int
	TotalCredits      int
	PingsToday        int
	FreePing          bool
}

// Pagination controls simple list pagination.
type Pagination struct {
	Limit  int
	Offset int
}
