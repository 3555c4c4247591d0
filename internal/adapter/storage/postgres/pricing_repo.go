package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"spareparts-billing/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// PricingRepo implements ports.PricingConfigRepository. The rate table is
// a single versioned row; brand overrides live in their own table keyed by
// brand id.
type PricingRepo struct {
	pool Pool
}

// NewPricingRepo creates a new PricingRepo.
func NewPricingRepo(pool Pool) *PricingRepo {
	return &PricingRepo{pool: pool}
}

// GetConfig returns the persisted rate patch and its version, or (nil, 0)
// when no record exists yet.
func (r *PricingRepo) GetConfig(ctx context.Context) (*domain.PricingConfigPatch, int, error) {
	query := `SELECT payload, version FROM pricing_configs WHERE key = $1`

	var payload []byte
	var version int
	err := r.pool.QueryRow(ctx, query, domain.PricingConfigKey).Scan(&payload, &version)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, 0, nil
		}
		return nil, 0, fmt.Errorf("get pricing config: %w", err)
	}

	patch := &domain.PricingConfigPatch{}
	if err := json.Unmarshal(payload, patch); err != nil {
		return nil, 0, fmt.Errorf("decode pricing config payload: %w", err)
	}
	return patch, version, nil
}

// UpsertConfig stores a rate patch, bumping the version, and returns the
// new version.
func (r *PricingRepo) UpsertConfig(ctx context.Context, patch *domain.PricingConfigPatch) (int, error) {
	payload, err := json.Marshal(patch)
	if err != nil {
		return 0, fmt.Errorf("encode pricing config payload: %w", err)
	}

	query := `INSERT INTO pricing_configs (key, version, payload, updated_at)
		VALUES ($1, 1, $2, NOW())
		ON CONFLICT (key) DO UPDATE
		SET payload = EXCLUDED.payload, version = pricing_configs.version + 1, updated_at = NOW()
		RETURNING version`

	var version int
	if err := r.pool.QueryRow(ctx, query, domain.PricingConfigKey, payload).Scan(&version); err != nil {
		return 0, fmt.Errorf("upsert pricing config: %w", err)
	}
	return version, nil
}

// GetBrandOverride fetches a brand's forward rate override, or nil when
// none exists.
func (r *PricingRepo) GetBrandOverride(ctx context.Context, brandID uuid.UUID) (*domain.BrandRateOverride, error) {
	query := `SELECT brand_id, rate_per_piece::text, is_active, updated_at
		FROM brand_rate_overrides WHERE brand_id = $1`

	o := &domain.BrandRateOverride{}
	var rate string
	err := r.pool.QueryRow(ctx, query, brandID).Scan(&o.BrandID, &rate, &o.IsActive, &o.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get brand override: %w", err)
	}
	if o.RatePerPiece, err = decimal.NewFromString(rate); err != nil {
		return nil, fmt.Errorf("parse override rate: %w", err)
	}
	return o, nil
}

// UpsertBrandOverride stores or replaces a brand's rate override.
func (r *PricingRepo) UpsertBrandOverride(ctx context.Context, o *domain.BrandRateOverride) error {
	query := `INSERT INTO brand_rate_overrides (brand_id, rate_per_piece, is_active, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (brand_id) DO UPDATE
		SET rate_per_piece = EXCLUDED.rate_per_piece, is_active = EXCLUDED.is_active, updated_at = EXCLUDED.updated_at`

	_, err := r.pool.Exec(ctx, query, o.BrandID, o.RatePerPiece.String(), o.IsActive, o.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upsert brand override: %w", err)
	}
	return nil
}
