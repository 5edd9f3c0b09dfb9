package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// JWTSigner issues and verifies bearer tokens for API clients. Claims carry
// only the principal id; everything else is loaded from the store on each
// request, so role or tenant changes take effect without reissuing tokens.
type JWTSigner struct {
	secret []byte
	issuer string
	ttl    time.Duration
}

// NewJWTSigner creates a signer for HS256 bearer tokens.
func NewJWTSigner(secret []byte, issuer string, ttl time.Duration) (*JWTSigner, error) {
	if len(secret) < 32 {
		return nil, fmt.Errorf("token signing secret must be at least 32 bytes")
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("token TTL must be greater than 0")
	}

	return &JWTSigner{
		secret: secret,
		issuer: issuer,
		ttl:    ttl,
	}, nil
}

// Issue creates a signed token whose subject is the principal id.
func (s *JWTSigner) Issue(principalID uuid.UUID) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   principalID.String(),
		Issuer:    s.issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return signed, nil
}

// Verify parses a token and returns the principal id from the subject claim.
func (s *JWTSigner) Verify(tokenStr string) (uuid.UUID, error) {
	parsed, err := jwt.ParseWithClaims(tokenStr, &jwt.RegisteredClaims{}, func(t *jwt.Token) (any, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("invalid signing method")
		}
		return s.secret, nil
	},
		jwt.WithIssuer(s.issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid token: %w", err)
	}

	claims, ok := parsed.Claims.(*jwt.RegisteredClaims)
	if !ok || claims.Subject == "" {
		return uuid.Nil, errors.New("invalid claims")
	}

	principalID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid subject claim: %w", err)
	}

	return principalID, nil
}
