package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	audit "trustgate/pkg/platform/audit"
	txcontext "trustgate/pkg/platform/tx"
)

// Store implements audit.Store on PostgreSQL. Writes join any transaction
// carried in the context so an audit record commits atomically with the state
// transition it describes.
type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func (s *Store) executor(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

func (s *Store) Append(ctx context.Context, event audit.Event) error {
	_, err := s.executor(ctx).ExecContext(ctx, `
		INSERT INTO audit_events
			(id, category, occurred_at, actor_id, reviewer_id, case_id, purchase_id,
			 target_id, tier, action, decision, reason, request_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`,
		uuid.New(), string(event.Category), event.Timestamp, event.ActorID,
		event.ReviewerID, event.CaseID, event.PurchaseID, event.TargetID,
		event.Tier, event.Action, event.Decision, event.Reason, event.RequestID,
	)
	if err != nil {
		return fmt.Errorf("append audit event: %w", err)
	}
	return nil
}

func (s *Store) ListByActor(ctx context.Context, actorID string) ([]audit.Event, error) {
	rows, err := s.executor(ctx).QueryContext(ctx, `
		SELECT category, occurred_at, actor_id, reviewer_id, case_id, purchase_id,
		       target_id, tier, action, decision, reason, request_id
		FROM audit_events
		WHERE actor_id = $1
		ORDER BY occurred_at
	`, actorID)
	if err != nil {
		return nil, fmt.Errorf("list audit events: %w", err)
	}
	defer rows.Close()

	var events []audit.Event
	for rows.Next() {
		var e audit.Event
		var category string
		if err := rows.Scan(&category, &e.Timestamp, &e.ActorID, &e.ReviewerID,
			&e.CaseID, &e.PurchaseID, &e.TargetID, &e.Tier, &e.Action,
			&e.Decision, &e.Reason, &e.RequestID); err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		e.Category = audit.EventCategory(category)
		events = append(events, e)
	}
	return events, rows.Err()
}
