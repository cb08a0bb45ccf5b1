package middleware

import (
	"context"
	"fmt"

	"github.com/golang-jwt/jwt/v4"
)

func claimsFromContext(ctx context.Context) (jwt.MapClaims, error) {
	claims, ok := ctx.Value(userContextKey).(jwt.MapClaims)
	if !ok {
		return nil, ErrNoClaimsInContext
	}
	return claims, nil
}

// GetUserIDFromContext extracts the authenticated user's id from the claims
// stored by Authenticate. JSON numbers arrive as float64.
func GetUserIDFromContext(ctx context.Context) (int, error) {
	claims, err := claimsFromContext(ctx)
	if err != nil {
		return 0, err
	}
	raw, ok := claims["user_id"]
	if !ok {
		return 0, fmt.Errorf("%w: missing user_id", ErrInvalidClaim)
	}
	id, ok := raw.(float64)
	if !ok {
		return 0, fmt.Errorf("%w: user_id is %T", ErrInvalidClaim, raw)
	}
	return int(id), nil
}

func GetUserRoleFromContext(ctx context.Context) (string, error) {
	claims, err := claimsFromContext(ctx)
	if err != nil {
		return "", err
	}
	role, ok := claims["role"].(string)
	if !ok {
		return "", fmt.Errorf("%w: missing role", ErrInvalidClaim)
	}
	return role, nil
}
