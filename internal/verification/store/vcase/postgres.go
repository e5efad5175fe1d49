package vcase

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"trustgate/internal/verification/models"
	id "trustgate/pkg/domain"
	"trustgate/pkg/platform/sentinel"
	txcontext "trustgate/pkg/platform/tx"
)

// PostgresStore persists verification cases. Document sets, review results,
// and the status history live in JSONB; the version column carries the
// optimistic guard.
type PostgresStore struct {
	db *sql.DB
}

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

const caseColumns = `id, actor_id, actor_type, status, documents, ai_review,
	admin_review, history, payment_ref, activated_at, expires_at, created_at,
	updated_at, version`

func (s *PostgresStore) Create(ctx context.Context, c *models.VerificationCase) error {
	docs, aiReview, adminReview, history, err := marshalCase(c)
	if err != nil {
		return err
	}
	_, err = s.executor(ctx).ExecContext(ctx, `
		INSERT INTO verification_cases (`+caseColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`,
		uuid.UUID(c.ID), uuid.UUID(c.ActorID), string(c.ActorType), string(c.Status),
		docs, aiReview, adminReview, history, c.PaymentRef,
		c.ActivatedAt, c.ExpiresAt, c.CreatedAt, c.UpdatedAt, c.Version,
	)
	if err != nil {
		return fmt.Errorf("create case: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, caseID id.CaseID) (*models.VerificationCase, error) {
	row := s.executor(ctx).QueryRowContext(ctx, `
		SELECT `+caseColumns+` FROM verification_cases WHERE id = $1
	`, uuid.UUID(caseID))
	return scanCase(row)
}

// FindOpenByActor keys the one-open-case rule on (actor, actor type): the
// same actor may run a buyer case and a seller case concurrently.
func (s *PostgresStore) FindOpenByActor(ctx context.Context, actor id.ActorID, actorType id.ActorType) (*models.VerificationCase, error) {
	row := s.executor(ctx).QueryRowContext(ctx, `
		SELECT `+caseColumns+`
		FROM verification_cases
		WHERE actor_id = $1 AND actor_type = $2 AND status NOT IN ($3, $4)
		ORDER BY created_at DESC
		LIMIT 1
	`, uuid.UUID(actor), string(actorType),
		string(models.StatusExpired), string(models.StatusRevoked))
	return scanCase(row)
}

// FindActiveByPaymentRef returns the active case funded by a subscription.
func (s *PostgresStore) FindActiveByPaymentRef(ctx context.Context, paymentRef string) (*models.VerificationCase, error) {
	row := s.executor(ctx).QueryRowContext(ctx, `
		SELECT `+caseColumns+`
		FROM verification_cases
		WHERE payment_ref = $1 AND status = $2
		LIMIT 1
	`, paymentRef, string(models.StatusActive))
	return scanCase(row)
}

func (s *PostgresStore) ListByStatus(ctx context.Context, status models.CaseStatus, limit int) ([]*models.VerificationCase, error) {
	rows, err := s.executor(ctx).QueryContext(ctx, `
		SELECT `+caseColumns+`
		FROM verification_cases
		WHERE status = $1
		ORDER BY updated_at
		LIMIT $2
	`, string(status), limit)
	if err != nil {
		return nil, fmt.Errorf("list cases by status: %w", err)
	}
	defer rows.Close()

	var out []*models.VerificationCase
	for rows.Next() {
		c, err := scanCaseRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// Update writes the case back guarded on the version it was read at. Zero
// rows affected means another writer got in between read and write.
func (s *PostgresStore) Update(ctx context.Context, c *models.VerificationCase) error {
	docs, aiReview, adminReview, history, err := marshalCase(c)
	if err != nil {
		return err
	}
	res, err := s.executor(ctx).ExecContext(ctx, `
		UPDATE verification_cases
		SET status = $1, documents = $2, ai_review = $3, admin_review = $4,
		    history = $5, payment_ref = $6, activated_at = $7, expires_at = $8,
		    updated_at = $9, version = version + 1
		WHERE id = $10 AND version = $11
	`,
		string(c.Status), docs, aiReview, adminReview, history, c.PaymentRef,
		c.ActivatedAt, c.ExpiresAt, c.UpdatedAt, uuid.UUID(c.ID), c.Version,
	)
	if err != nil {
		return fmt.Errorf("update case: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update case: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrConflict
	}
	c.Version++
	return nil
}

func marshalCase(c *models.VerificationCase) (docs, aiReview, adminReview, history []byte, err error) {
	if docs, err = json.Marshal(c.Documents); err != nil {
		return nil, nil, nil, nil, fmt.Errorf("marshal documents: %w", err)
	}
	if c.AIReview != nil {
		if aiReview, err = json.Marshal(c.AIReview); err != nil {
			return nil, nil, nil, nil, fmt.Errorf("marshal ai review: %w", err)
		}
	}
	if c.AdminReview != nil {
		if adminReview, err = json.Marshal(c.AdminReview); err != nil {
			return nil, nil, nil, nil, fmt.Errorf("marshal admin review: %w", err)
		}
	}
	if history, err = json.Marshal(c.History); err != nil {
		return nil, nil, nil, nil, fmt.Errorf("marshal history: %w", err)
	}
	return docs, aiReview, adminReview, history, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCase(row *sql.Row) (*models.VerificationCase, error) {
	c, err := scanCaseRow(row)
	if err == sql.ErrNoRows {
		return nil, sentinel.ErrNotFound
	}
	return c, err
}

func scanCaseRow(row rowScanner) (*models.VerificationCase, error) {
	var c models.VerificationCase
	var caseID, actorID uuid.UUID
	var actorType, status string
	var docs, history []byte
	var aiReview, adminReview []byte
	var activatedAt, expiresAt sql.NullTime

	err := row.Scan(&caseID, &actorID, &actorType, &status, &docs, &aiReview,
		&adminReview, &history, &c.PaymentRef, &activatedAt, &expiresAt,
		&c.CreatedAt, &c.UpdatedAt, &c.Version)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("scan case: %w", err)
	}

	c.ID = id.CaseID(caseID)
	c.ActorID = id.ActorID(actorID)
	c.ActorType = id.ActorType(actorType)
	c.Status = models.CaseStatus(status)
	if err := json.Unmarshal(docs, &c.Documents); err != nil {
		return nil, fmt.Errorf("unmarshal documents: %w", err)
	}
	if err := json.Unmarshal(history, &c.History); err != nil {
		return nil, fmt.Errorf("unmarshal history: %w", err)
	}
	if len(aiReview) > 0 {
		c.AIReview = &models.AIReview{}
		if err := json.Unmarshal(aiReview, c.AIReview); err != nil {
			return nil, fmt.Errorf("unmarshal ai review: %w", err)
		}
	}
	if len(adminReview) > 0 {
		c.AdminReview = &models.AdminReview{}
		if err := json.Unmarshal(adminReview, c.AdminReview); err != nil {
			return nil, fmt.Errorf("unmarshal admin review: %w", err)
		}
	}
	if activatedAt.Valid {
		t := activatedAt.Time
		c.ActivatedAt = &t
	}
	if expiresAt.Valid {
		t := expiresAt.Time
		c.ExpiresAt = &t
	}
	return &c, nil
}
