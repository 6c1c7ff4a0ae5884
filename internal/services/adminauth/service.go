package adminauth

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"

	"github.com/DevAniketIT/Playbharat/internal/domain/enums"
)

var ErrUnauthorized = errors.New("unauthorized")

// Identity is the authenticated moderator attached to a request after
// token validation.
type Identity struct {
	AdminID   int64
	Handle    string
	Role      enums.Role
	ExpiresAt time.Time
}

type tokenClaims struct {
	Handle string `json:"handle,omitempty"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// TokenManager issues and validates the HS256 bearer tokens moderators use
// against the moderation API. Tokens are minted out of band by modctl;
// there is no password flow in this backend.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenManager(secret string, ttl time.Duration) *TokenManager {
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	return &TokenManager{
		secret: []byte(strings.TrimSpace(secret)),
		ttl:    ttl,
		now:    time.Now,
	}
}

// SetNow overrides the manager clock. Tests only.
func (m *TokenManager) SetNow(now func() time.Time) {
	m.now = now
}

func (m *TokenManager) Issue(adminID int64, handle string, role enums.Role) (string, time.Time, error) {
	if len(m.secret) == 0 {
		return "", time.Time{}, fmt.Errorf("jwt secret is empty")
	}
	if adminID <= 0 {
		return "", time.Time{}, fmt.Errorf("invalid admin id %d", adminID)
	}
	if !role.CanModerate() {
		return "", time.Time{}, fmt.Errorf("role %q cannot hold a moderation token", role)
	}

	now := m.now().UTC()
	expiresAt := now.Add(m.ttl)
	claims := tokenClaims{
		Handle: handle,
		Role:   string(role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(adminID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, expiresAt, nil
}

func (m *TokenManager) Validate(raw string) (Identity, error) {
	if strings.TrimSpace(raw) == "" {
		return Identity{}, ErrUnauthorized
	}

	claims := &tokenClaims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(_ *jwt.Token) (interface{}, error) {
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}),
		jwt.WithTimeFunc(func() time.Time { return m.now().UTC() }),
	)
	if err != nil || token == nil || !token.Valid {
		return Identity{}, ErrUnauthorized
	}

	adminID, parseErr := strconv.ParseInt(claims.Subject, 10, 64)
	if parseErr != nil || adminID <= 0 {
		return Identity{}, ErrUnauthorized
	}
	role := enums.Role(claims.Role)
	if !role.CanModerate() {
		return Identity{}, ErrUnauthorized
	}
	if claims.ExpiresAt == nil {
		return Identity{}, ErrUnauthorized
	}

	return Identity{
		AdminID:   adminID,
		Handle:    claims.Handle,
		Role:      role,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}
