package promo

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/plug/fuel-api/internal/domain/fuel"
	"github.com/plug/fuel-api/internal/pkg/codehash"
	"github.com/plug/fuel-api/internal/pkg/locker"
	"github.com/plug/fuel-api/internal/pkg/logger"
	"github.com/plug/fuel-api/internal/pkg/metrics"
)

// Service redeems promo codes and manages their lifecycle.
type Service struct {
	repo    Repository
	ledger  *fuel.Service
	hasher  *codehash.Hasher
	locker  locker.Locker
	now     func() time.Time
	metrics *metrics.LedgerMetrics
}

type Option func(*Service)

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService wires the promo engine. ledger publishes the post-redemption balance;
// it must share lk with this service so redemptions and deductions serialise per user.
func NewService(repo Repository, ledger *fuel.Service, hasher *codehash.Hasher, lk locker.Locker, opts ...Option) *Service {
	if lk == nil {
		lk = locker.Noop{}
	}
	s := &Service{
		repo:    repo,
		ledger:  ledger,
		hasher:  hasher,
		locker:  lk,
		now:     time.Now,
		metrics: metrics.Get(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Redeem applies code to userID's balance exactly once.
func (s *Service) Redeem(ctx context.Context, userID uuid.UUID, rawCode string) (*RedeemResult, error) {
	code, err := NormalizeCode(rawCode)
	if err != nil {
		s.metrics.RedeemTotal.WithLabelValues(Reason(err)).Inc()
		return nil, err
	}

	unlock, err := s.locker.Lock(ctx, fuel.LockKey(userID))
	if err != nil {
		s.metrics.RedeemTotal.WithLabelValues(metrics.ResultError).Inc()
		return nil, fmt.Errorf("%w: %v", ErrRedeemBusy, err)
	}
	defer unlock()

	now := s.now()
	today := fuel.DayOf(now)

	var promo *PromoCode
	redemption, credits, err := s.repo.Redeem(ctx, userID, s.hasher.Hash(code), today,
		func(p *PromoCode, alreadyRedeemed bool) error {
			return Check(p, alreadyRedeemed, now)
		},
		func(p *PromoCode, c *fuel.UserCredits) (int, []fuel.TransactionEntry, error) {
			promo = p
			fuel.Refill(c, today)
			return Apply(p, c)
		},
	)
	if err != nil {
		if reason := Reason(err); reason != "" {
			s.metrics.RedeemTotal.WithLabelValues(reason).Inc()
			logger.FromContext(ctx).Info().
				Str("user_id", userID.String()).
				Str("reason", reason).
				Msg("promo code rejected")
			return nil, err
		}
		s.metrics.RedeemTotal.WithLabelValues(metrics.ResultError).Inc()
		return nil, err
	}

	if s.ledger != nil {
		s.ledger.Publish(ctx, credits)
	}
	s.metrics.RedeemTotal.WithLabelValues(metrics.ResultSuccess).Inc()
	s.metrics.GrantedTotal.WithLabelValues(ActionPromoCode).Add(float64(redemption.CreditsAwarded))

	logger.FromContext(ctx).Info().
		Str("user_id", userID.String()).
		Str("promo_code_id", redemption.PromoCodeID.String()).
		Str("type", string(promo.Type)).
		Int("credits_awarded", redemption.CreditsAwarded).
		Msg("promo code redeemed")

	return &RedeemResult{
		CreditsAwarded: redemption.CreditsAwarded,
		Message:        SuccessMessage(promo, redemption.CreditsAwarded),
		DailyFuel:      credits.DailyFuel,
		PermanentFuel:  credits.PermanentFuel,
	}, nil
}

// CreateInput describes a new code. Code is the plaintext handed to users.
type CreateInput struct {
	Code        string
	Type        Type
	Amount      int
	MaxUses     *int
	ExpiresAt   *time.Time
	Description string
}

// Create stores a new active code.
func (s *Service) Create(ctx context.Context, in CreateInput) (*PromoCode, error) {
	code, err := NormalizeCode(in.Code)
	if err != nil {
		return nil, err
	}

	switch in.Type {
	case TypeBonus:
		if in.Amount <= 0 {
			return nil, fmt.Errorf("%w: bonus amount must be greater than 0", ErrInvalidPromo)
		}
	case TypeUnlimited:
		in.Amount = UnlimitedFuel
	default:
		return nil, fmt.Errorf("%w: unknown type %q", ErrInvalidPromo, in.Type)
	}
	if in.MaxUses != nil && *in.MaxUses <= 0 {
		return nil, fmt.Errorf("%w: max_uses must be greater than 0", ErrInvalidPromo)
	}
	if in.ExpiresAt != nil && !in.ExpiresAt.After(s.now()) {
		return nil, fmt.Errorf("%w: expires_at must be in the future", ErrInvalidPromo)
	}

	p := &PromoCode{
		ID:          uuid.New(),
		CodeHash:    s.hasher.Hash(code),
		CodeHint:    codehash.Hint(code),
		Type:        in.Type,
		Amount:      in.Amount,
		MaxUses:     in.MaxUses,
		ExpiresAt:   in.ExpiresAt,
		IsActive:    true,
		Description: in.Description,
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}

	logger.FromContext(ctx).Info().
		Str("promo_code_id", p.ID.String()).
		Str("hint", p.CodeHint).
		Str("type", string(p.Type)).
		Msg("promo code created")
	return p, nil
}

func (s *Service) List(ctx context.Context, limit, offset int) ([]PromoCode, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.List(ctx, limit, offset)
}

// Deactivate stops a code from being redeemed. Past redemptions stand.
func (s *Service) Deactivate(ctx context.Context, id uuid.UUID) (*PromoCode, error) {
	p, err := s.repo.Deactivate(ctx, id)
	if err != nil {
		return nil, err
	}

	logger.FromContext(ctx).Info().
		Str("promo_code_id", p.ID.String()).
		Msg("promo code deactivated")
	return p, nil
}
