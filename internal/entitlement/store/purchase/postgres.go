package purchase

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"trustgate/internal/entitlement/models"
	id "trustgate/pkg/domain"
	"trustgate/pkg/platform/sentinel"
	txcontext "trustgate/pkg/platform/tx"
)

// PostgresStore persists entitlement purchases in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed purchase store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *PostgresStore) executor(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

const purchaseColumns = `id, owner_id, target_id, tier, amount_cents, status,
	started_at, expires_at, payment_ref, created_at, updated_at`

func (s *PostgresStore) Create(ctx context.Context, p *models.EntitlementPurchase) error {
	_, err := s.executor(ctx).ExecContext(ctx, `
		INSERT INTO entitlement_purchases (`+purchaseColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`,
		uuid.UUID(p.ID), uuid.UUID(p.OwnerID), uuid.UUID(p.TargetID),
		string(p.Tier), p.AmountCents, string(p.Status), p.StartedAt,
		nullTime(p.ExpiresAt), p.PaymentRef, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("create purchase: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, purchaseID id.PurchaseID) (*models.EntitlementPurchase, error) {
	row := s.executor(ctx).QueryRowContext(ctx, `
		SELECT `+purchaseColumns+` FROM entitlement_purchases WHERE id = $1
	`, uuid.UUID(purchaseID))
	return scanPurchase(row)
}

func (s *PostgresStore) FindByPaymentRef(ctx context.Context, ref string) (*models.EntitlementPurchase, error) {
	if ref == "" {
		return nil, sentinel.ErrNotFound
	}
	row := s.executor(ctx).QueryRowContext(ctx, `
		SELECT `+purchaseColumns+` FROM entitlement_purchases WHERE payment_ref = $1
	`, ref)
	return scanPurchase(row)
}

func (s *PostgresStore) ListActiveByTarget(ctx context.Context, target id.TargetID) ([]*models.EntitlementPurchase, error) {
	rows, err := s.executor(ctx).QueryContext(ctx, `
		SELECT `+purchaseColumns+`
		FROM entitlement_purchases
		WHERE target_id = $1 AND status = $2
		ORDER BY created_at
	`, uuid.UUID(target), string(models.StatusActive))
	if err != nil {
		return nil, fmt.Errorf("list active purchases: %w", err)
	}
	defer rows.Close()
	return scanPurchases(rows)
}

// ListDue selects active purchases whose expiry has passed, oldest first, in
// a bounded chunk. The predicate excludes already-expired records, which is
// what makes the sweep idempotent by construction.
func (s *PostgresStore) ListDue(ctx context.Context, now time.Time, limit int) ([]*models.EntitlementPurchase, error) {
	rows, err := s.executor(ctx).QueryContext(ctx, `
		SELECT `+purchaseColumns+`
		FROM entitlement_purchases
		WHERE status = $1 AND expires_at IS NOT NULL AND expires_at <= $2
		ORDER BY expires_at
		LIMIT $3
	`, string(models.StatusActive), now, limit)
	if err != nil {
		return nil, fmt.Errorf("list due purchases: %w", err)
	}
	defer rows.Close()
	return scanPurchases(rows)
}

// Transition persists p guarded on the record still holding the expected
// prior status. Zero rows affected means a concurrent writer got there first.
func (s *PostgresStore) Transition(ctx context.Context, p *models.EntitlementPurchase, from models.PurchaseStatus) error {
	res, err := s.executor(ctx).ExecContext(ctx, `
		UPDATE entitlement_purchases
		SET status = $1, started_at = $2, expires_at = $3, payment_ref = $4, updated_at = $5
		WHERE id = $6 AND status = $7
	`,
		string(p.Status), p.StartedAt, nullTime(p.ExpiresAt), p.PaymentRef,
		p.UpdatedAt, uuid.UUID(p.ID), string(from),
	)
	if err != nil {
		return fmt.Errorf("transition purchase: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("transition purchase: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrInvalidState
	}
	return nil
}

func scanPurchase(row *sql.Row) (*models.EntitlementPurchase, error) {
	var p models.EntitlementPurchase
	var purchaseID, ownerID, targetID uuid.UUID
	var tier, status string
	var expiresAt sql.NullTime
	err := row.Scan(&purchaseID, &ownerID, &targetID, &tier, &p.AmountCents,
		&status, &p.StartedAt, &expiresAt, &p.PaymentRef, &p.CreatedAt, &p.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan purchase: %w", err)
	}
	p.ID = id.PurchaseID(purchaseID)
	p.OwnerID = id.ActorID(ownerID)
	p.TargetID = id.TargetID(targetID)
	p.Tier = id.Tier(tier)
	p.Status = models.PurchaseStatus(status)
	if expiresAt.Valid {
		t := expiresAt.Time
		p.ExpiresAt = &t
	}
	return &p, nil
}

func scanPurchases(rows *sql.Rows) ([]*models.EntitlementPurchase, error) {
	var out []*models.EntitlementPurchase
	for rows.Next() {
		var p models.EntitlementPurchase
		var purchaseID, ownerID, targetID uuid.UUID
		var tier, status string
		var expiresAt sql.NullTime
		err := rows.Scan(&purchaseID, &ownerID, &targetID, &tier, &p.AmountCents,
			&status, &p.StartedAt, &expiresAt, &p.PaymentRef, &p.CreatedAt, &p.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("scan purchase: %w", err)
		}
		p.ID = id.PurchaseID(purchaseID)
		p.OwnerID = id.ActorID(ownerID)
		p.TargetID = id.TargetID(targetID)
		p.Tier = id.Tier(tier)
		p.Status = models.PurchaseStatus(status)
		if expiresAt.Valid {
			t := expiresAt.Time
			p.ExpiresAt = &t
		}
		out = append(out, &p)
	}
	return out, rows.Err()
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
