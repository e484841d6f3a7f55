package promo

import (
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/plug/fuel-api/internal/domain/fuel"
	"github.com/plug/fuel-api/internal/pkg/codehash"
)

// ActionPromoCode tags the credit transaction written by a redemption.
const ActionPromoCode = "promo_code"

// NormalizeCode trims and upper-cases a user-supplied code and checks its length.
func NormalizeCode(raw string) (string, error) {
	code := codehash.Normalize(raw)
	if code == "" || utf8.RuneCountInString(code) > MaxCodeLength {
		return "", ErrInvalidCodeFormat
	}
	return code, nil
}

// Check applies the redemption rules to a locked promo row. The first failing
// rule decides the error. p is nil when no code matched.
func Check(p *PromoCode, alreadyRedeemed bool, now time.Time) error {
	if p == nil || !p.IsActive {
		return ErrInvalidPromoCode
	}
	if p.IsExpired(now) {
		return ErrCodeExpired
	}
	if p.IsExhausted() {
		return ErrCodeExhausted
	}
	if alreadyRedeemed {
		return ErrAlreadyRedeemed
	}
	return nil
}

// Apply writes the code's effect to c and returns the credits awarded together
// with the audit entry for credit_transactions.
func Apply(p *PromoCode, c *fuel.UserCredits) (int, []fuel.TransactionEntry, error) {
	var awarded int
	var description string

	switch p.Type {
	case TypeUnlimited:
		c.DailyFuel = UnlimitedFuel
		c.PermanentFuel = UnlimitedFuel
		awarded = UnlimitedFuel
		description = "Promo code: unlimited fuel"
	case TypeBonus:
		if p.Amount <= 0 {
			return 0, nil, fmt.Errorf("%w: bonus amount %d", ErrInvalidPromo, p.Amount)
		}
		c.PermanentFuel += p.Amount
		awarded = p.Amount
		description = fmt.Sprintf("Promo code: +%d fuel", p.Amount)
	default:
		return 0, nil, fmt.Errorf("%w: unknown type %q", ErrInvalidPromo, p.Type)
	}

	return awarded, []fuel.TransactionEntry{{
		Amount:      awarded,
		CreditType:  fuel.CreditTypePermanent,
		ActionType:  ActionPromoCode,
		Description: description,
	}}, nil
}

// SuccessMessage is the user-facing copy for a redeemed code.
func SuccessMessage(p *PromoCode, awarded int) string {
	if p.Type == TypeUnlimited {
		return "Unlimited fuel activated!"
	}
	return fmt.Sprintf("%d fuel added to your balance!", awarded)
}
