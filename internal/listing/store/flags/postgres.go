package flags

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"trustgate/internal/listing/models"
	id "trustgate/pkg/domain"
	"trustgate/pkg/platform/sentinel"
)

// PostgresStore persists the promotion read model. It runs on a pgx pool:
// sweeps rewrite many rows in bursts and the resolver is the hot write path.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) Get(ctx context.Context, target id.TargetID) (*models.Promotion, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT target_id, featured_active, featured_expires_at,
		       premium_active, premium_expires_at,
		       elite_active, elite_expires_at,
		       verified_active, verified_expires_at,
		       ai_enhanced, spec_sheet, created_at, updated_at
		FROM listing_promotions
		WHERE target_id = $1
	`, uuid.UUID(target))

	var p models.Promotion
	var targetID uuid.UUID
	err := row.Scan(&targetID,
		&p.Featured.Active, &p.Featured.ExpiresAt,
		&p.Premium.Active, &p.Premium.ExpiresAt,
		&p.Elite.Active, &p.Elite.ExpiresAt,
		&p.VerifiedBadge.Active, &p.VerifiedBadge.ExpiresAt,
		&p.AIEnhanced, &p.SpecSheet, &p.CreatedAt, &p.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get promotion: %w", err)
	}
	p.TargetID = id.TargetID(targetID)
	return &p, nil
}

// PutCapabilities upserts the materialized capability flags, leaving the
// enhancement booleans and creation date untouched on existing rows.
func (s *PostgresStore) PutCapabilities(ctx context.Context, target id.TargetID, states map[id.Tier]models.CapabilityState, now time.Time) error {
	featured := states[id.TierFeatured]
	premium := states[id.TierPremium]
	elite := states[id.TierElite]
	verified := states[id.TierVerifiedBadge]

	_, err := s.pool.Exec(ctx, `
		INSERT INTO listing_promotions
			(target_id, featured_active, featured_expires_at,
			 premium_active, premium_expires_at,
			 elite_active, elite_expires_at,
			 verified_active, verified_expires_at,
			 ai_enhanced, spec_sheet, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, FALSE, FALSE, $10, $10)
		ON CONFLICT (target_id) DO UPDATE SET
			featured_active = EXCLUDED.featured_active,
			featured_expires_at = EXCLUDED.featured_expires_at,
			premium_active = EXCLUDED.premium_active,
			premium_expires_at = EXCLUDED.premium_expires_at,
			elite_active = EXCLUDED.elite_active,
			elite_expires_at = EXCLUDED.elite_expires_at,
			verified_active = EXCLUDED.verified_active,
			verified_expires_at = EXCLUDED.verified_expires_at,
			updated_at = EXCLUDED.updated_at
	`,
		uuid.UUID(target),
		featured.Active, featured.ExpiresAt,
		premium.Active, premium.ExpiresAt,
		elite.Active, elite.ExpiresAt,
		verified.Active, verified.ExpiresAt,
		now,
	)
	if err != nil {
		return fmt.Errorf("put capabilities: %w", err)
	}
	return nil
}

func (s *PostgresStore) SetEnhancements(ctx context.Context, target id.TargetID, aiEnhanced, specSheet bool, now time.Time) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO listing_promotions (target_id, ai_enhanced, spec_sheet, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $4)
		ON CONFLICT (target_id) DO UPDATE SET
			ai_enhanced = EXCLUDED.ai_enhanced,
			spec_sheet = EXCLUDED.spec_sheet,
			updated_at = EXCLUDED.updated_at
	`, uuid.UUID(target), aiEnhanced, specSheet, now)
	if err != nil {
		return fmt.Errorf("set enhancements: %w", err)
	}
	return nil
}
