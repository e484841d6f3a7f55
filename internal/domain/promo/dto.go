package promo

import (
	"time"

	"github.com/google/uuid"

	"github.com/plug/fuel-api/internal/pkg/validator"
)

func init() {
	names := make([]string, 0, len(Types))
	for _, t := range Types {
		names = append(names, string(t))
	}
	validator.RegisterPromoTypes(names...)
}

// RedeemRequest is the body of POST /functions/v1/redeem-promo-code
type RedeemRequest struct {
	Code string `json:"code"`
}

type redeemResponse struct {
	Success        bool   `json:"success"`
	CreditsAwarded int    `json:"creditsAwarded"`
	Message        string `json:"message"`
}

type redeemError struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Reason  string `json:"reason,omitempty"`
}

// CreateRequest is the admin body for POST /api/admin/promo-codes
type CreateRequest struct {
	Code        string     `json:"code" validate:"required,max=100"`
	Type        string     `json:"type" validate:"required,promo_type"`
	Amount      int        `json:"amount" validate:"gte=0,lte=1000000"`
	MaxUses     *int       `json:"max_uses" validate:"omitempty,gt=0"`
	ExpiresAt   *time.Time `json:"expires_at"`
	Description string     `json:"description" validate:"max=500"`
}

func (r CreateRequest) toInput() CreateInput {
	return CreateInput{
		Code:        r.Code,
		Type:        Type(r.Type),
		Amount:      r.Amount,
		MaxUses:     r.MaxUses,
		ExpiresAt:   r.ExpiresAt,
		Description: r.Description,
	}
}

// Response is the admin view of a code. The plaintext is never returned.
type Response struct {
	ID          uuid.UUID  `json:"id"`
	CodeHint    string     `json:"code_hint"`
	Type        Type       `json:"type"`
	Amount      int        `json:"amount"`
	MaxUses     *int       `json:"max_uses,omitempty"`
	UsesCount   int        `json:"uses_count"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
	IsActive    bool       `json:"is_active"`
	Description string     `json:"description,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

func (p *PromoCode) ToResponse() *Response {
	return &Response{
		ID:          p.ID,
		CodeHint:    p.CodeHint,
		Type:        p.Type,
		Amount:      p.Amount,
		MaxUses:     p.MaxUses,
		UsesCount:   p.UsesCount,
		ExpiresAt:   p.ExpiresAt,
		IsActive:    p.IsActive,
		Description: p.Description,
		CreatedAt:   p.CreatedAt,
	}
}
