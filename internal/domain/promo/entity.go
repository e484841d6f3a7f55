package promo

import (
	"time"

	"github.com/google/uuid"
)

// Type is what a code does when redeemed.
type Type string

const (
	TypeUnlimited Type = "unlimited"
	TypeBonus     Type = "bonus"
)

// Types lists every redeemable type.
var Types = []Type{TypeUnlimited, TypeBonus}

// UnlimitedFuel is written to both pools by an unlimited code.
const UnlimitedFuel = 999999

// MaxCodeLength bounds the user-supplied code before hashing.
const MaxCodeLength = 100

// PromoCode is an admin-issued code. Only the keyed hash of the code is stored.
type PromoCode struct {
	ID          uuid.UUID  `db:"id"`
	CodeHash    string     `db:"code_hash"`
	CodeHint    string     `db:"code_hint"`
	Type        Type       `db:"type"`
	Amount      int        `db:"amount"`
	MaxUses     *int       `db:"max_uses"`
	UsesCount   int        `db:"uses_count"`
	ExpiresAt   *time.Time `db:"expires_at"`
	IsActive    bool       `db:"is_active"`
	Description string     `db:"description"`
	CreatedAt   time.Time  `db:"created_at"`
}

// IsExpired reports whether the code expired at or before now.
func (p *PromoCode) IsExpired(now time.Time) bool {
	return p.ExpiresAt != nil && !now.Before(*p.ExpiresAt)
}

// IsExhausted reports whether max_uses has been reached.
func (p *PromoCode) IsExhausted() bool {
	return p.MaxUses != nil && p.UsesCount >= *p.MaxUses
}

// Redemption records that a user consumed a code. (user_id, promo_code_id) is unique.
type Redemption struct {
	ID             uuid.UUID `db:"id"`
	UserID         uuid.UUID `db:"user_id"`
	PromoCodeID    uuid.UUID `db:"promo_code_id"`
	CreditsAwarded int       `db:"credits_awarded"`
	CreatedAt      time.Time `db:"created_at"`
}

// RedeemResult is returned to the caller after a successful redemption.
type RedeemResult struct {
	CreditsAwarded int
	Message        string
	DailyFuel      int
	PermanentFuel  int
}
