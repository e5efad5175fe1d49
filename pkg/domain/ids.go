package domain

import (
	"github.com/google/uuid"

	dErrors "trustgate/pkg/domain-errors"
)

// Typed identifiers for the core aggregates. Construct via the Parse functions
// at trust boundaries; direct casting bypasses validation.
type (
	// ActorID identifies a marketplace participant (buyer, seller, contractor).
	ActorID uuid.UUID

	// CaseID identifies a verification case.
	CaseID uuid.UUID

	// PurchaseID identifies an entitlement purchase in the ledger.
	PurchaseID uuid.UUID

	// TargetID identifies the subject of an entitlement: a listing or a
	// profile. Profile targets reuse the owning actor's UUID.
	TargetID uuid.UUID
)

// ParseActorID validates and returns an ActorID.
func ParseActorID(s string) (ActorID, error) {
	u, err := parseUUID(s, "actor id")
	return ActorID(u), err
}

// ParseCaseID validates and returns a CaseID.
func ParseCaseID(s string) (CaseID, error) {
	u, err := parseUUID(s, "case id")
	return CaseID(u), err
}

// ParsePurchaseID validates and returns a PurchaseID.
func ParsePurchaseID(s string) (PurchaseID, error) {
	u, err := parseUUID(s, "purchase id")
	return PurchaseID(u), err
}

// ParseTargetID validates and returns a TargetID.
func ParseTargetID(s string) (TargetID, error) {
	u, err := parseUUID(s, "target id")
	return TargetID(u), err
}

func parseUUID(s, what string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, what+" cannot be empty")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "invalid "+what)
	}
	return u, nil
}

// ProfileTarget derives the read-model target for an actor's own profile.
// Verified-badge entitlements attach to this target.
func ProfileTarget(actorID ActorID) TargetID {
	return TargetID(actorID)
}

func (id ActorID) String() string    { return uuid.UUID(id).String() }
func (id CaseID) String() string     { return uuid.UUID(id).String() }
func (id PurchaseID) String() string { return uuid.UUID(id).String() }
func (id TargetID) String() string   { return uuid.UUID(id).String() }

func (id ActorID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }
func (id CaseID) IsNil() bool     { return uuid.UUID(id) == uuid.Nil }
func (id PurchaseID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id TargetID) IsNil() bool   { return uuid.UUID(id) == uuid.Nil }
