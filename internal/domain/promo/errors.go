package promo

import "errors"

var (
	ErrInvalidCodeFormat = errors.New("invalid promo code format")
	ErrInvalidPromoCode  = errors.New("invalid promo code")
	ErrCodeExpired       = errors.New("promo code has expired")
	ErrCodeExhausted     = errors.New("promo code has reached its usage limit")
	ErrAlreadyRedeemed   = errors.New("promo code already redeemed")

	ErrPromoNotFound = errors.New("promo code not found")
	ErrDuplicateCode = errors.New("promo code already exists")
	ErrInvalidPromo  = errors.New("invalid promo code definition")
	ErrRedeemBusy    = errors.New("redemption in progress, retry shortly")
	ErrInternal      = errors.New("internal error")
)

// Reason is the machine-readable rejection reason returned to the client.
func Reason(err error) string {
	switch {
	case errors.Is(err, ErrInvalidCodeFormat):
		return "invalid_format"
	case errors.Is(err, ErrInvalidPromoCode):
		return "invalid_code"
	case errors.Is(err, ErrCodeExpired):
		return "expired"
	case errors.Is(err, ErrCodeExhausted):
		return "exhausted"
	case errors.Is(err, ErrAlreadyRedeemed):
		return "already_redeemed"
	default:
		return ""
	}
}
