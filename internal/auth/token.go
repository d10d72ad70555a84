package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ExpiryWarningWindow is how close to expiry a token must be before startup warns.
const ExpiryWarningWindow = 7 * 24 * time.Hour

var ErrTokenNotJWT = errors.New("token is not a JWT")

// TokenInfo holds the claims of a Home Assistant long-lived access token.
// Signatures are not checked; only the hub can verify its own tokens.
type TokenInfo struct {
	Issuer    string
	IssuedAt  *time.Time
	ExpiresAt *time.Time
}

// Expired reports whether the token expiry is at or before now.
func (info TokenInfo) Expired(now time.Time) bool {
	return info.ExpiresAt != nil && !info.ExpiresAt.After(now)
}

// ExpiresWithin reports whether the token expires within d of now.
func (info TokenInfo) ExpiresWithin(now time.Time, d time.Duration) bool {
	return info.ExpiresAt != nil && info.ExpiresAt.Before(now.Add(d))
}

// InspectToken decodes the registered claims of token without verifying it.
func InspectToken(token string) (TokenInfo, error) {
	claims := &jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return TokenInfo{}, ErrTokenNotJWT
	}

	info := TokenInfo{Issuer: claims.Issuer}
	if claims.IssuedAt != nil {
		issued := claims.IssuedAt.Time
		info.IssuedAt = &issued
	}
	if claims.ExpiresAt != nil {
		expires := claims.ExpiresAt.Time
		info.ExpiresAt = &expires
	}
	return info, nil
}
