package middleware

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	id "trustgate/pkg/domain"
)

// TokenValidator validates HS256 session tokens issued by the marketplace's
// auth service. Claims carry the actor identity this core needs: subject,
// actor type, and role.
type TokenValidator struct {
	signingKey []byte
}

func NewTokenValidator(signingKey string) *TokenValidator {
	return &TokenValidator{signingKey: []byte(signingKey)}
}

func (v *TokenValidator) ValidateToken(tokenString string) (*JWTClaims, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return v.signingKey, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}

	sub, err := claims.GetSubject()
	if err != nil {
		return nil, fmt.Errorf("token missing subject: %w", err)
	}
	actorID, err := id.ParseActorID(sub)
	if err != nil {
		return nil, fmt.Errorf("token subject is not an actor id: %w", err)
	}

	out := &JWTClaims{ActorID: actorID, Role: "user"}
	if at, ok := claims["actor_type"].(string); ok {
		parsed, err := id.ParseActorType(at)
		if err != nil {
			return nil, fmt.Errorf("invalid actor_type claim: %w", err)
		}
		out.ActorType = parsed
	}
	if role, ok := claims["role"].(string); ok && role != "" {
		out.Role = role
	}
	return out, nil
}
