package fuel

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/plug/fuel-api/internal/pkg/database"
)

const queryTimeout = 3 * time.Second

// MutateFunc changes a locked balance row in memory. The returned entries are
// appended to credit_transactions. A non-nil error rolls everything back.
type MutateFunc func(c *UserCredits) ([]TransactionEntry, error)

type Repository interface {
	// Mutate locks the user's row (creating it if missing), applies fn and
	// persists the result and its audit rows in one transaction.
	Mutate(ctx context.Context, userID uuid.UUID, today string, fn MutateFunc) (*UserCredits, error)
	Get(ctx context.Context, userID uuid.UUID) (*UserCredits, error)
	ListTransactions(ctx context.Context, userID uuid.UUID, pagination Pagination) ([]CreditTransaction, error)
	RefillStale(ctx context.Context, today string) (int64, error)
}

// CreditsRepository stores balances and the audit log in Postgres.
type CreditsRepository struct {
	db      *sqlx.DB
	timeout time.Duration
}

func NewRepository(db *sqlx.DB) *CreditsRepository {
	return &CreditsRepository{db: db, timeout: queryTimeout}
}

// WithTimeout overrides the per-call database timeout.
func (r *CreditsRepository) WithTimeout(d time.Duration) *CreditsRepository {
	if d > 0 {
		r.timeout = d
	}
	return r
}

const selectCredits = `
	SELECT user_id, daily_fuel, permanent_fuel, pings_today,
	       to_char(last_refill_date, 'YYYY-MM-DD') AS last_refill_date, updated_at
	FROM user_credits`

func (r *CreditsRepository) Mutate(ctx context.Context, userID uuid.UUID, today string, fn MutateFunc) (*UserCredits, error) {
	ctx2, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	tx, err := r.db.BeginTxx(ctx2, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return nil, fmt.Errorf("%w: begin tx: %v", ErrInternal, err)
	}
	defer tx.Rollback()

	credits, err := r.MutateTx(ctx2, tx, userID, today, fn)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("%w: commit tx: %v", ErrInternal, err)
	}
	return credits, nil
}

// MutateTx is Mutate within an external transaction. The caller commits or rolls
// back; used when a balance change must be atomic with other writes (promo redemption).
func (r *CreditsRepository) MutateTx(ctx context.Context, tx *sqlx.Tx, userID uuid.UUID, today string, fn MutateFunc) (*UserCredits, error) {
	credits, err := r.lockCredits(ctx, tx, userID, today)
	if err != nil {
		return nil, err
	}

	before := *credits
	entries, err := fn(credits)
	if err != nil {
		return nil, err
	}

	if *credits != before {
		if err := r.updateCredits(ctx, tx, credits); err != nil {
			return nil, err
		}
	}

	for _, e := range entries {
		if err := r.insertTransaction(ctx, tx, userID, e); err != nil {
			return nil, err
		}
	}

	return credits, nil
}

func (r *CreditsRepository) lockCredits(ctx context.Context, tx *sqlx.Tx, userID uuid.UUID, today string) (*UserCredits, error) {
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO user_credits (user_id, daily_fuel, permanent_fuel, pings_today, last_refill_date)
		VALUES ($1, $2, 0, 0, $3::date)
		ON CONFLICT (user_id) DO NOTHING
	`, userID, DailyAllotment, today); err != nil {
		return nil, fmt.Errorf("%w: ensure credits row: %v", ErrInternal, err)
	}

	var credits UserCredits
	if err := tx.GetContext(ctx, &credits, selectCredits+` WHERE user_id = $1 FOR UPDATE`, userID); err != nil {
		return nil, fmt.Errorf("%w: lock credits row: %v", ErrInternal, err)
	}
	return &credits, nil
}

func (r *CreditsRepository) updateCredits(ctx context.Context, tx *sqlx.Tx, c *UserCredits) error {
	if c.DailyFuel < 0 || c.PermanentFuel < 0 || c.PingsToday < 0 {
		return ErrInsufficientCredits
	}

	err := tx.QueryRowxContext(ctx, `
		UPDATE user_credits
		SET daily_fuel = $2, permanent_fuel = $3, pings_today = $4,
		    last_refill_date = $5::date, updated_at = now()
		WHERE user_id = $1
		RETURNING updated_at
	`, c.UserID, c.DailyFuel, c.PermanentFuel, c.PingsToday, c.LastRefillDate).Scan(&c.UpdatedAt)
	if err != nil {
		if database.IsCheckViolation(err) {
			return ErrInsufficientCredits
		}
		return fmt.Errorf("%w: update credits: %v", ErrInternal, err)
	}
	return nil
}

func (r *CreditsRepository) insertTransaction(ctx context.Context, tx *sqlx.Tx, userID uuid.UUID, e TransactionEntry) error {
	if e.Amount == 0 {
		return nil
	}
	if e.CreditType != CreditTypeDaily && e.CreditType != CreditTypePermanent {
		return fmt.Errorf("%w: unknown credit type %q", ErrInternal, e.CreditType)
	}
	if strings.TrimSpace(e.Description) == "" {
		e.Description = e.ActionType
	}

	_, err := tx.ExecContext(ctx, `
		INSERT INTO credit_transactions (id, user_id, amount, credit_type, action_type, description)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, uuid.New(), userID, e.Amount, string(e.CreditType), e.ActionType, e.Description)
	if err != nil {
		return fmt.Errorf("%w: insert transaction: %v", ErrInternal, err)
	}
	return nil
}

func (r *CreditsRepository) Get(ctx context.Context, userID uuid.UUID) (*UserCredits, error) {
	ctx2, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var credits UserCredits
	err := r.db.GetContext(ctx2, &credits, selectCredits+` WHERE user_id = $1`, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCreditsNotFound
		}
		return nil, fmt.Errorf("%w: get credits: %v", ErrInternal, err)
	}
	return &credits, nil
}

func (r *CreditsRepository) ListTransactions(ctx context.Context, userID uuid.UUID, pagination Pagination) ([]CreditTransaction, error) {
	ctx2, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	limit := pagination.Limit
	if limit <= 0 {
		limit = 20
	}

	transactions := make([]CreditTransaction, 0)
	err := r.db.SelectContext(ctx2, &transactions, `
		SELECT id, user_id, amount, credit_type, action_type, description, created_at
		FROM credit_transactions
		WHERE user_id = $1
		ORDER BY created_at DESC, id
		LIMIT $2 OFFSET $3
	`, userID, limit, pagination.Offset)
	if err != nil {
		return nil, fmt.Errorf("%w: list transactions: %v", ErrInternal, err)
	}
	return transactions, nil
}

// RefillStale resets every row last refilled before today in a single statement.
// Rows locked by an in-flight Mutate are re-checked after the lock is released.
func (r *CreditsRepository) RefillStale(ctx context.Context, today string) (int64, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE user_credits
		SET daily_fuel = $2, pings_today = 0, last_refill_date = $1::date, updated_at = now()
		WHERE last_refill_date < $1::date
	`, today, DailyAllotment)
	if err != nil {
		return 0, fmt.Errorf("%w: refill stale: %v", ErrInternal, err)
	}
	return result.RowsAffected()
}
