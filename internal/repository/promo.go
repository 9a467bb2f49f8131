package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/greenbasket/storefront/internal/domain/promo"
)

const (
	getPromoByCodeSQL = `SELECT code, rate, description
		FROM promo_codes WHERE UPPER(code) = UPPER($1) AND active = TRUE`

	upsertPromoSQL = `INSERT INTO promo_codes (code, rate, description, active)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (code) DO UPDATE SET
			rate = EXCLUDED.rate,
			description = EXCLUDED.description,
			active = EXCLUDED.active`
)

var _ promo.Repository = (*PromoRepository)(nil)

// PromoRepository implements promo.Repository backed by PostgreSQL.
type PromoRepository struct {
	pool *pgxpool.Pool
}

// NewPromoRepository returns a PromoRepository that uses the given pool.
func NewPromoRepository(pool *pgxpool.Pool) *PromoRepository {
	return &PromoRepository{pool: pool}
}

// FindByCode looks up an active promo rule by its code (case-insensitive).
// Returns promo.ErrInvalidCode when no matching active rule exists.
func (r *PromoRepository) FindByCode(ctx context.Context, code string) (*promo.Rule, error) {
	rows, err := r.pool.Query(ctx, getPromoByCodeSQL, code)
	if err != nil {
		return nil, fmt.Errorf("finding promo code %q: %w", code, err)
	}

	rule, err := pgx.CollectExactlyOneRow(rows, scanPromoRule)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, promo.ErrInvalidCode
		}
		return nil, fmt.Errorf("finding promo code %q: %w", code, err)
	}
	return &rule, nil
}

// Upsert inserts or replaces a promo rule. Used by the seed and ingest tools.
func (r *PromoRepository) Upsert(ctx context.Context, rule promo.Rule, active bool) error {
	if _, err := r.pool.Exec(ctx, upsertPromoSQL, rule.Code, rule.Rate, rule.Description, active); err != nil {
		return fmt.Errorf("upserting promo code %q: %w", rule.Code, err)
	}
	return nil
}

func scanPromoRule(row pgx.CollectableRow) (promo.Rule, error) {
	var rule promo.Rule
	err := row.Scan(&rule.Code, &rule.Rate, &rule.Description)
	return rule, err
}
