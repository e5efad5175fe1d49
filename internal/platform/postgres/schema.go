package postgres

import (
	"context"
	"database/sql"
	"fmt"
)

// Schema holds the DDL for every table this service owns. Applied with
// IF NOT EXISTS so startup and integration tests can both run it.
const Schema = `
CREATE TABLE IF NOT EXISTS verification_cases (
	id            UUID PRIMARY KEY,
	actor_id      UUID        NOT NULL,
	actor_type    TEXT        NOT NULL,
	status        TEXT        NOT NULL,
	documents     JSONB       NOT NULL DEFAULT '[]',
	ai_review     JSONB,
	admin_review  JSONB,
	history       JSONB       NOT NULL DEFAULT '[]',
	payment_ref   TEXT        NOT NULL DEFAULT '',
	activated_at  TIMESTAMPTZ,
	expires_at    TIMESTAMPTZ,
	created_at    TIMESTAMPTZ NOT NULL,
	updated_at    TIMESTAMPTZ NOT NULL,
	version       INT         NOT NULL DEFAULT 1
);
CREATE INDEX IF NOT EXISTS idx_cases_actor ON verification_cases (actor_id, actor_type, created_at DESC);
CREATE INDEX IF NOT EXISTS idx_cases_payment_ref ON verification_cases (payment_ref) WHERE payment_ref <> '';

CREATE TABLE IF NOT EXISTS entitlement_purchases (
	id           UUID PRIMARY KEY,
	owner_id     UUID        NOT NULL,
	target_id    UUID        NOT NULL,
	tier         TEXT        NOT NULL,
	amount_cents BIGINT      NOT NULL,
	status       TEXT        NOT NULL,
	started_at   TIMESTAMPTZ NOT NULL,
	expires_at   TIMESTAMPTZ,
	payment_ref  TEXT        NOT NULL DEFAULT '',
	created_at   TIMESTAMPTZ NOT NULL,
	updated_at   TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_purchases_target ON entitlement_purchases (target_id) WHERE status = 'active';
CREATE INDEX IF NOT EXISTS idx_purchases_due ON entitlement_purchases (expires_at) WHERE status = 'active';
CREATE INDEX IF NOT EXISTS idx_purchases_payment_ref ON entitlement_purchases (payment_ref) WHERE payment_ref <> '';

CREATE TABLE IF NOT EXISTS listing_promotions (
	target_id          UUID PRIMARY KEY,
	featured_active    BOOLEAN     NOT NULL DEFAULT FALSE,
	featured_expires_at TIMESTAMPTZ,
	premium_active     BOOLEAN     NOT NULL DEFAULT FALSE,
	premium_expires_at TIMESTAMPTZ,
	elite_active       BOOLEAN     NOT NULL DEFAULT FALSE,
	elite_expires_at   TIMESTAMPTZ,
	verified_active    BOOLEAN     NOT NULL DEFAULT FALSE,
	verified_expires_at TIMESTAMPTZ,
	ai_enhanced        BOOLEAN     NOT NULL DEFAULT FALSE,
	spec_sheet         BOOLEAN     NOT NULL DEFAULT FALSE,
	created_at         TIMESTAMPTZ NOT NULL,
	updated_at         TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS audit_events (
	id          UUID PRIMARY KEY,
	category    TEXT        NOT NULL,
	occurred_at TIMESTAMPTZ NOT NULL,
	actor_id    TEXT        NOT NULL DEFAULT '',
	reviewer_id TEXT        NOT NULL DEFAULT '',
	case_id     TEXT        NOT NULL DEFAULT '',
	purchase_id TEXT        NOT NULL DEFAULT '',
	target_id   TEXT        NOT NULL DEFAULT '',
	tier        TEXT        NOT NULL DEFAULT '',
	action      TEXT        NOT NULL,
	decision    TEXT        NOT NULL DEFAULT '',
	reason      TEXT        NOT NULL DEFAULT '',
	request_id  TEXT        NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_audit_actor ON audit_events (actor_id, occurred_at);
`

// Migrate applies the schema.
func Migrate(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}
