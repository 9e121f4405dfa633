package auth

import (
	"testing"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/fjod/athometyre/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueAndParse(t *testing.T) {
	tokens, err := NewTokens("s3cret")
	require.NoError(t, err)

	tok, err := tokens.Issue(42, domain.RoleDealer, time.Hour)
	require.NoError(t, err)

	id, err := tokens.Parse(tok)
	require.NoError(t, err)
	assert.Equal(t, domain.Identity{UserID: 42, Role: domain.RoleDealer}, id)
	assert.False(t, id.IsAdmin())
}

func TestParse_Rejects(t *testing.T) {
	tokens, err := NewTokens("s3cret")
	require.NoError(t, err)
	other, err := NewTokens("other")
	require.NoError(t, err)

	foreign, err := other.Issue(1, domain.RoleAdmin, time.Hour)
	require.NoError(t, err)
	_, err = tokens.Parse(foreign)
	assert.ErrorIs(t, err, ErrInvalidToken, "wrong secret")

	tokens.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	expired, err := tokens.Issue(1, domain.RoleCustomer, time.Hour)
	require.NoError(t, err)
	tokens.now = time.Now
	_, err = tokens.Parse(expired)
	assert.ErrorIs(t, err, ErrInvalidToken, "expired")

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{Role: "ADMIN",
		StandardClaims: jwt.StandardClaims{Subject: "1"}}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = tokens.Parse(none)
	assert.ErrorIs(t, err, ErrInvalidToken, "alg none")

	bad, err := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{Role: "ROOT",
		StandardClaims: jwt.StandardClaims{Subject: "1"}}).SignedString([]byte("s3cret"))
	require.NoError(t, err)
	_, err = tokens.Parse(bad)
	assert.ErrorIs(t, err, ErrInvalidToken, "unknown role")

	_, err = tokens.Parse("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestNewTokens_EmptySecret(t *testing.T) {
	_, err := NewTokens("")
	assert.ErrorIs(t, err, ErrEmptySecret)
}

func TestIssue_UnknownRole(t *testing.T) {
	tokens, err := NewTokens("s3cret")
	require.NoError(t, err)
	_, err = tokens.Issue(1, "GUEST", 0)
	assert.Error(t, err)
}
