package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/fjod/athometyre/internal/domain"
)

var (
	ErrInvalidToken = errors.New("invalid session token")
	ErrEmptySecret  = errors.New("jwt secret is empty")
)

const DefaultTTL = 24 * time.Hour

// Claims carries the user id in the subject and the role.
type Claims struct {
	Role string `json:"role"`
	jwt.StandardClaims
}

// Tokens signs and verifies HS256 session tokens.
type Tokens struct {
	secret []byte
	now    func() time.Time
}

func NewTokens(secret string) (*Tokens, error) {
	if secret == "" {
		return nil, ErrEmptySecret
	}
	return &Tokens{secret: []byte(secret), now: time.Now}, nil
}

func (t *Tokens) Issue(userID int64, role domain.Role, ttl time.Duration) (string, error) {
	if !role.Valid() {
		return "", fmt.Errorf("unknown role %q", role)
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	now := t.now()
	claims := &Claims{
		Role: string(role),
		StandardClaims: jwt.StandardClaims{
			Subject:   strconv.FormatInt(userID, 10),
			IssuedAt:  now.Unix(),
			ExpiresAt: now.Add(ttl).Unix(),
			Issuer:    "athometyre",
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Parse verifies the token and returns the caller it identifies.
func (t *Tokens) Parse(token string) (domain.Identity, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(tok *jwt.Token) (interface{}, error) {
		if _, ok := tok.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", tok.Header["alg"])
		}
		return t.secret, nil
	})
	if err != nil || !parsed.Valid {
		return domain.Identity{}, ErrInvalidToken
	}

	userID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || userID <= 0 {
		return domain.Identity{}, ErrInvalidToken
	}
	role := domain.Role(claims.Role)
	if !role.Valid() {
		return domain.Identity{}, ErrInvalidToken
	}
	return domain.Identity{UserID: userID, Role: role}, nil
}
