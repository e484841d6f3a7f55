package fuel

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/plug/fuel-api/internal/pkg/locker"
	"github.com/plug/fuel-api/internal/pkg/logger"
	"github.com/plug/fuel-api/internal/pkg/metrics"
)

// Service owns every mutation of user_credits.
type Service struct {
	repo    Repository
	cache   BalanceCache
	locker  locker.Locker
	pricing PricingPolicy
	now     func() time.Time
	metrics *metrics.LedgerMetrics
}

type Option func(*Service)

// WithClock replaces time.Now, used to pin the UTC day in tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func WithPricing(p PricingPolicy) Option {
	return func(s *Service) { s.pricing = p }
}

func NewService(repo Repository, cache BalanceCache, lk locker.Locker, opts ...Option) *Service {
	if cache == nil {
		cache = noopCache{}
	}
	if lk == nil {
		lk = locker.Noop{}
	}
	s := &Service{
		repo:    repo,
		cache:   cache,
		locker:  lk,
		pricing: DefaultPricing(),
		now:     time.Now,
		metrics: metrics.Get(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Today is the UTC day the service currently refills against.
func (s *Service) Today() string {
	return DayOf(s.now())
}

// Deduct charges userID for action. The first FreePingsPerDay pings of a day are
// free and only bump pings_today; everything else is split daily-first across the
// two pools. Nothing is written when the balance is short.
func (s *Service) Deduct(ctx context.Context, userID uuid.UUID, action string, customAmount *int) (*DeductResult, error) {
	start := time.Now()
	defer func() { s.metrics.DeductDuration.Observe(time.Since(start).Seconds()) }()

	action = strings.TrimSpace(action)
	if action == "" {
		return nil, ErrUnknownAction
	}
	if customAmount == nil && !s.pricing.Known(action) {
		return nil, ErrUnknownAction
	}

	unlock, err := s.locker.Lock(ctx, LockKey(userID))
	if err != nil {
		s.metrics.DeductTotal.WithLabelValues(action, metrics.ResultError).Inc()
		return nil, fmt.Errorf("%w: %v", ErrLedgerBusy, err)
	}
	defer unlock()

	today := s.Today()
	var result DeductResult

	credits, err := s.repo.Mutate(ctx, userID, today, func(c *UserCredits) ([]TransactionEntry, error) {
		result = DeductResult{}
		Refill(c, today)

		quote, err := s.pricing.Quote(action, customAmount, c.PingsToday)
		if err != nil {
			return nil, err
		}
		if quote.FreePing {
			c.PingsToday++
			result.FreePing = true
			return nil, nil
		}

		split, err := SplitDeduction(c.DailyFuel, c.PermanentFuel, quote.Amount)
		if err != nil {
			return nil, err
		}
		split.Apply(c)

		result.Deducted = quote.Amount
		result.DailyDeducted = split.Daily
		result.PermanentDeducted = split.Permanent
		return split.Entries(action), nil
	})
	if err != nil {
		s.metrics.DeductTotal.WithLabelValues(action, deductResultLabel(err)).Inc()
		return nil, err
	}

	result.DailyFuel = credits.DailyFuel
	result.PermanentFuel = credits.PermanentFuel
	result.TotalCredits = credits.Total()
	result.PingsToday = credits.PingsToday

	s.cache.Set(ctx, credits)

	if result.FreePing {
		s.metrics.DeductTotal.WithLabelValues(action, metrics.ResultFree).Inc()
	} else {
		s.metrics.DeductTotal.WithLabelValues(action, metrics.ResultCharged).Inc()
		s.metrics.DeductAmount.WithLabelValues(string(CreditTypeDaily)).Add(float64(result.DailyDeducted))
		s.metrics.DeductAmount.WithLabelValues(string(CreditTypePermanent)).Add(float64(result.PermanentDeducted))
	}

	logger.FromContext(ctx).Info().
		Str("user_id", userID.String()).
		Str("action", action).
		Int("deducted", result.Deducted).
		Int("daily_deducted", result.DailyDeducted).
		Int("permanent_deducted", result.PermanentDeducted).
		Bool("free_ping", result.FreePing).
		Msg("fuel deducted")

	return &result, nil
}

func deductResultLabel(err error) string {
	switch {
	case errors.Is(err, ErrInsufficientCredits):
		return metrics.ResultInsufficient
	case errors.Is(err, ErrUnknownAction), errors.Is(err, ErrInvalidAmount):
		return metrics.ResultRejected
	default:
		return metrics.ResultError
	}
}

// GetBalance returns the refill-aware balance, creating the row on first sight.
// A cache miss is resolved under the user's lock so the projection written back
// can never be older than one cached by a concurrent mutation.
func (s *Service) GetBalance(ctx context.Context, userID uuid.UUID) (*UserCredits, error) {
	today := s.Today()

	if cached, ok := s.cache.Get(ctx, userID); ok && StateOf(cached.LastRefillDate, today) == Fresh {
		return cached, nil
	}

	unlock, err := s.locker.Lock(ctx, LockKey(userID))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLedgerBusy, err)
	}
	defer unlock()

	credits, err := s.repo.Get(ctx, userID)
	if err != nil && !errors.Is(err, ErrCreditsNotFound) {
		return nil, err
	}

	if credits == nil || StateOf(credits.LastRefillDate, today) == Stale {
		credits, err = s.repo.Mutate(ctx, userID, today, func(c *UserCredits) ([]TransactionEntry, error) {
			Refill(c, today)
			return nil, nil
		})
		if err != nil {
			return nil, err
		}
	}

	s.cache.Set(ctx, credits)
	return credits, nil
}

// Grant credits permanent fuel for earned rewards and admin adjustments.
func (s *Service) Grant(ctx context.Context, userID uuid.UUID, amount int, actionType, description string) (*UserCredits, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}
	actionType = strings.TrimSpace(actionType)
	if actionType == "" {
		actionType = "admin_grant"
	}

	unlock, err := s.locker.Lock(ctx, LockKey(userID))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLedgerBusy, err)
	}
	defer unlock()

	today := s.Today()
	credits, err := s.repo.Mutate(ctx, userID, today, func(c *UserCredits) ([]TransactionEntry, error) {
		Refill(c, today)
		c.PermanentFuel += amount
		return []TransactionEntry{{
			Amount:      amount,
			CreditType:  CreditTypePermanent,
			ActionType:  actionType,
			Description: description,
		}}, nil
	})
	if err != nil {
		return nil, err
	}

	s.cache.Set(ctx, credits)
	s.metrics.GrantedTotal.WithLabelValues(actionType).Add(float64(amount))

	logger.FromContext(ctx).Info().
		Str("user_id", userID.String()).
		Int("amount", amount).
		Str("action", actionType).
		Msg("fuel granted")

	return credits, nil
}

// Publish refreshes the cached projection after a mutation made outside this
// service (promo redemption commits its own transaction).
func (s *Service) Publish(ctx context.Context, credits *UserCredits) {
	if credits != nil {
		s.cache.Set(ctx, credits)
	}
}

// ListTransactions returns the user's audit history, newest first.
func (s *Service) ListTransactions(ctx context.Context, userID uuid.UUID, limit, offset int) ([]CreditTransaction, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.ListTransactions(ctx, userID, Pagination{Limit: limit, Offset: offset})
}

// RefillStale resets all rows not yet refilled today.
func (s *Service) RefillStale(ctx context.Context) (int64, error) {
	n, err := s.repo.RefillStale(ctx, s.Today())
	if err != nil {
		return 0, err
	}
	s.metrics.RefilledRowsTotal.Add(float64(n))
	return n, nil
}
