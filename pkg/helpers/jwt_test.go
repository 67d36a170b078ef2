package helpers

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newManager(now time.Time) *JWTManager {
	m := NewJWTManager("secret", map[string]time.Duration{"patient": 2 * time.Hour})
	m.now = func() time.Time { return now }
	return m
}

func TestJWT_IssueAndVerify(t *testing.T) {
	now := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	m := newManager(now)

	tok, exp, err := m.Issue("patient", "u1", WithEmail("u1@mail.io"), WithSessionID("sid-1"))
	require.NoError(t, err)
	assert.Equal(t, now.Add(2*time.Hour), exp)

	claims, err := m.Verify(tok, "patient")
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.Subject)
	assert.Equal(t, "u1@mail.io", claims.Email)
	assert.Equal(t, "sid-1", claims.SessionID)
	assert.Same(t, m, DefaultJWT())
}

func TestJWT_KindMismatch(t *testing.T) {
	m := newManager(time.Now())
	tok, _, err := m.Issue("doctor", "d1")
	require.NoError(t, err)

	_, err = m.Verify(tok, "patient")
	assert.ErrorIs(t, err, ErrTokenKind)
}

func TestJWT_ExpiredReturnsClaims(t *testing.T) {
	m := newManager(time.Now())
	tok, _, err := m.Issue("email_verify", "u1", WithTTL(-time.Minute))
	require.NoError(t, err)

	claims, err := m.Verify(tok, "email_verify")
	assert.ErrorIs(t, err, ErrTokenExpired)
	require.NotNil(t, claims)
	assert.Equal(t, "u1", claims.Subject)

	_, err = m.Verify(tok, "password_reset")
	assert.ErrorIs(t, err, ErrTokenKind)
}

func TestJWT_RejectsForeignSignature(t *testing.T) {
	other := NewJWTManager("other", nil)
	tok, _, err := other.Issue("patient", "u1")
	require.NoError(t, err)

	m := newManager(time.Now())
	_, err = m.Verify(tok, "patient")
	assert.ErrorIs(t, err, ErrTokenInvalid)
	_, err = m.Verify("not.a.token", "patient")
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestPassword(t *testing.T) {
	PasswordCost = bcrypt.MinCost
	t.Cleanup(func() { PasswordCost = bcrypt.DefaultCost })

	h, err := HashPassword("secret-123")
	require.NoError(t, err)
	assert.True(t, CompareHashAndPassword(h, "secret-123"))
	assert.False(t, CompareHashAndPassword(h, "secret-124"))
}
