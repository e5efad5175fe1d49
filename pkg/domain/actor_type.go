package domain

import dErrors "trustgate/pkg/domain-errors"

// ActorType is a domain value identifying which side of the marketplace an
// actor operates on. Verification requirements and pricing vary per type.
//
// Usage: construct via ParseActorType at trust boundaries to enforce the
// allowlist; direct casting bypasses validation.
type ActorType string

// Supported actor types.
const (
	ActorTypeBuyer      ActorType = "buyer"
	ActorTypeSeller     ActorType = "seller"
	ActorTypeContractor ActorType = "contractor"
)

// validActorTypes is the single source of truth for valid actor types.
var validActorTypes = map[ActorType]bool{
	ActorTypeBuyer:      true,
	ActorTypeSeller:     true,
	ActorTypeContractor: true,
}

// ParseActorType constructs an ActorType from external input.
//
// Errors: returns CodeInvalidInput when the value is empty or unsupported.
func ParseActorType(s string) (ActorType, error) {
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "actor type cannot be empty")
	}
	t := ActorType(s)
	if !t.IsValid() {
		return "", dErrors.New(dErrors.CodeInvalidInput, "invalid actor type")
	}
	return t, nil
}

// IsValid checks if the actor type is one of the supported enum values.
func (t ActorType) IsValid() bool {
	return validActorTypes[t]
}

// String returns the string representation of the actor type.
func (t ActorType) String() string {
	return string(t)
}
