package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/trentd187/community-chat/internal/models"
)

// issuer is written into every token and required when parsing.
const issuer = "community-chat"

// ErrInvalidToken is returned for tokens that are malformed, badly signed, expired,
// or missing a usable subject.
var ErrInvalidToken = errors.New("auth: invalid token")

// Claims is the payload of a login token. Subject holds the user's UUID.
type Claims struct {
	jwt.RegisteredClaims
	Username string `json:"username"`
}

// UserID parses the subject back into a UUID.
func (c *Claims) UserID() (uuid.UUID, error) {
	return uuid.Parse(c.Subject)
}

// IssueToken signs an HS256 token for user that expires ttl after now.
func IssueToken(secret []byte, user models.PublicUser, ttl time.Duration, now time.Time) (string, error) {
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   user.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Username: user.Username,
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("auth: sign token: %w", err)
	}
	return signed, nil
}

// ParseToken verifies the signature, algorithm, issuer and expiry of tokenStr and
// returns its claims.
func ParseToken(secret []byte, tokenStr string) (*Claims, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
	)

	claims := &Claims{}
	_, err := parser.ParseWithClaims(tokenStr, claims, func(*jwt.Token) (any, error) {
		return secret, nil
	})
	if err != nil {
		return nil, errors.Join(ErrInvalidToken, err)
	}
	if _, err := claims.UserID(); err != nil {
		return nil, errors.Join(ErrInvalidToken, err)
	}
	return claims, nil
}
