package promo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/plug/fuel-api/internal/domain/fuel"
	"github.com/plug/fuel-api/internal/pkg/database"
)

// CheckFunc validates the locked promo row. p is nil when the hash matched nothing.
type CheckFunc func(p *PromoCode, alreadyRedeemed bool) error

// ApplyFunc applies a validated code to the locked balance row.
type ApplyFunc func(p *PromoCode, c *fuel.UserCredits) (int, []fuel.TransactionEntry, error)

type Repository interface {
	// Redeem locks the promo and balance rows, runs check and apply, bumps
	// uses_count and records the redemption in one transaction.
	Redeem(ctx context.Context, userID uuid.UUID, codeHash, today string, check CheckFunc, apply ApplyFunc) (*Redemption, *fuel.UserCredits, error)
	Create(ctx context.Context, p *PromoCode) error
	List(ctx context.Context, limit, offset int) ([]PromoCode, error)
	Deactivate(ctx context.Context, id uuid.UUID) (*PromoCode, error)
}

// PostgresRepository stores promo codes and redemptions.
type PostgresRepository struct {
	db      *sqlx.DB
	credits *fuel.CreditsRepository
	timeout time.Duration
}

func NewRepository(db *sqlx.DB, credits *fuel.CreditsRepository) *PostgresRepository {
	return &PostgresRepository{db: db, credits: credits, timeout: 3 * time.Second}
}

// WithTimeout overrides the per-call database timeout.
func (r *PostgresRepository) WithTimeout(d time.Duration) *PostgresRepository {
	if d > 0 {
		r.timeout = d
	}
	return r
}

const selectPromo = `
	SELECT id, code_hash, code_hint, type, amount, max_uses, uses_count,
	       expires_at, is_active, description, created_at
	FROM promo_codes`

func (r *PostgresRepository) Redeem(ctx context.Context, userID uuid.UUID, codeHash, today string, check CheckFunc, apply ApplyFunc) (*Redemption, *fuel.UserCredits, error) {
	ctx2, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	tx, err := r.db.BeginTxx(ctx2, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return nil, nil, fmt.Errorf("%w: begin tx: %v", ErrInternal, err)
	}
	defer tx.Rollback()

	promo, err := r.lockPromo(ctx2, tx, codeHash)
	if err != nil {
		return nil, nil, err
	}

	redeemed := false
	if promo != nil {
		if redeemed, err = r.hasRedeemed(ctx2, tx, userID, promo.ID); err != nil {
			return nil, nil, err
		}
	}
	if err := check(promo, redeemed); err != nil {
		return nil, nil, err
	}

	var awarded int
	credits, err := r.credits.MutateTx(ctx2, tx, userID, today, func(c *fuel.UserCredits) ([]fuel.TransactionEntry, error) {
		n, entries, err := apply(promo, c)
		awarded = n
		return entries, err
	})
	if err != nil {
		return nil, nil, err
	}

	if _, err := tx.ExecContext(ctx2, `
		UPDATE promo_codes SET uses_count = uses_count + 1 WHERE id = $1
	`, promo.ID); err != nil {
		return nil, nil, fmt.Errorf("%w: bump uses_count: %v", ErrInternal, err)
	}

	redemption := &Redemption{
		ID:             uuid.New(),
		UserID:         userID,
		PromoCodeID:    promo.ID,
		CreditsAwarded: awarded,
	}
	err = tx.QueryRowxContext(ctx2, `
		INSERT INTO promo_code_redemptions (id, user_id, promo_code_id, credits_awarded)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at
	`, redemption.ID, userID, promo.ID, awarded).Scan(&redemption.CreatedAt)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return nil, nil, ErrAlreadyRedeemed
		}
		return nil, nil, fmt.Errorf("%w: insert redemption: %v", ErrInternal, err)
	}

	if err := tx.Commit(); err != nil {
		return nil, nil, fmt.Errorf("%w: commit tx: %v", ErrInternal, err)
	}
	return redemption, credits, nil
}

func (r *PostgresRepository) lockPromo(ctx context.Context, tx *sqlx.Tx, codeHash string) (*PromoCode, error) {
	var p PromoCode
	err := tx.GetContext(ctx, &p, selectPromo+` WHERE code_hash = $1 FOR UPDATE`, codeHash)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: lock promo: %v", ErrInternal, err)
	}
	return &p, nil
}

func (r *PostgresRepository) hasRedeemed(ctx context.Context, tx *sqlx.Tx, userID, promoID uuid.UUID) (bool, error) {
	var exists bool
	err := tx.GetContext(ctx, &exists, `
		SELECT EXISTS (
			SELECT 1 FROM promo_code_redemptions
			WHERE user_id = $1 AND promo_code_id = $2
		)
	`, userID, promoID)
	if err != nil {
		return false, fmt.Errorf("%w: check redemption: %v", ErrInternal, err)
	}
	return exists, nil
}

func (r *PostgresRepository) Create(ctx context.Context, p *PromoCode) error {
	ctx2, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	err := r.db.QueryRowxContext(ctx2, `
		INSERT INTO promo_codes (id, code_hash, code_hint, type, amount, max_uses,
		                         uses_count, expires_at, is_active, description)
		VALUES ($1, $2, $3, $4, $5, $6, 0, $7, $8, $9)
		RETURNING created_at
	`, p.ID, p.CodeHash, p.CodeHint, string(p.Type), p.Amount, p.MaxUses,
		p.ExpiresAt, p.IsActive, p.Description).Scan(&p.CreatedAt)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return ErrDuplicateCode
		}
		return fmt.Errorf("%w: create promo: %v", ErrInternal, err)
	}
	return nil
}

func (r *PostgresRepository) List(ctx context.Context, limit, offset int) ([]PromoCode, error) {
	ctx2, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	codes := make([]PromoCode, 0)
	err := r.db.SelectContext(ctx2, &codes, selectPromo+`
		ORDER BY created_at DESC, id
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%w: list promos: %v", ErrInternal, err)
	}
	return codes, nil
}

func (r *PostgresRepository) Deactivate(ctx context.Context, id uuid.UUID) (*PromoCode, error) {
	ctx2, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var p PromoCode
	err := r.db.GetContext(ctx2, &p, `
		UPDATE promo_codes SET is_active = false
		WHERE id = $1
		RETURNING id, code_hash, code_hint, type, amount, max_uses, uses_count,
		          expires_at, is_active, description, created_at
	`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPromoNotFound
		}
		return nil, fmt.Errorf("%w: deactivate promo: %v", ErrInternal, err)
	}
	return &p, nil
}
