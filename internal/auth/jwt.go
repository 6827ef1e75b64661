package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = errors.New("invalid session token")

type Claims struct {
	UserID string `json:"userId"`
	jwt.RegisteredClaims
}

// Manager mints and verifies the signed session token that binds a request
// to an account id. The signing secret is injected once at construction and
// is read-only afterwards.
type Manager struct {
	secret     []byte
	sessionTTL time.Duration
}

// NewManager builds a Manager. A zero sessionTTL means tokens carry no
// expiry claim, matching the original session behavior; a positive TTL is
// the opt-in hardening knob.
func NewManager(secret string, sessionTTL time.Duration) *Manager {
	return &Manager{
		secret:     []byte(secret),
		sessionTTL: sessionTTL,
	}
}

func (m *Manager) Issue(accountID string) (string, error) {
	now := time.Now().UTC()

	claims := Claims{
		UserID: accountID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt: jwt.NewNumericDate(now),
			Subject:  accountID,
		},
	}

	if m.sessionTTL > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(m.sessionTTL))
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

// Verify checks the signature before trusting the decoded account id.
func (m *Manager) Verify(tokenStr string) (string, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		// Enforce HS256

		_, ok := t.Method.(*jwt.SigningMethodHMAC)

		if !ok {
			return nil, ErrInvalidToken
		}
		return m.secret, nil
	})

	if err != nil {
		return "", ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)

	if !ok || !token.Valid || claims.UserID == "" {
		return "", ErrInvalidToken
	}

	return claims.UserID, nil
}
