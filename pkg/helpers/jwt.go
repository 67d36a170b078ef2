package helpers

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrTokenInvalid = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
	ErrTokenKind    = errors.New("token kind mismatch")
)

// JWTManager issues and verifies every token the service hands out. All
// kinds share one HMAC secret; the kind claim keeps them apart.
type JWTManager struct {
	Secret []byte
	TTLs   map[string]time.Duration

	now func() time.Time
}

var defaultManager *JWTManager

func NewJWTManager(secret string, ttls map[string]time.Duration) *JWTManager {
	m := &JWTManager{
		Secret: []byte(secret),
		TTLs:   ttls,
		now:    time.Now,
	}
	defaultManager = m
	return m
}

// DefaultJWT returns the last constructed JWTManager (used for auto-wiring routes)
func DefaultJWT() *JWTManager { return defaultManager }

// Claims is a tagged variant: Kind selects which principal or email flow
// the Subject belongs to.
type Claims struct {
	Kind      string `json:"kind"`
	Email     string `json:"email,omitempty"`
	SessionID string `json:"sid,omitempty"`
	jwt.RegisteredClaims
}

type ClaimOption func(*Claims, *time.Duration)

func WithEmail(email string) ClaimOption {
	return func(c *Claims, _ *time.Duration) { c.Email = email }
}

func WithSessionID(sid string) ClaimOption {
	return func(c *Claims, _ *time.Duration) { c.SessionID = sid }
}

func WithTTL(ttl time.Duration) ClaimOption {
	return func(_ *Claims, d *time.Duration) { *d = ttl }
}

// Issue signs a token of the given kind for subject.
func (m *JWTManager) Issue(kind, subject string, opts ...ClaimOption) (string, time.Time, error) {
	ttl, ok := m.TTLs[kind]
	if !ok {
		ttl = time.Hour
	}
	claims := &Claims{Kind: kind}
	for _, opt := range opts {
		opt(claims, &ttl)
	}
	now := m.clock()
	exp := now.Add(ttl)
	claims.Subject = subject
	claims.IssuedAt = jwt.NewNumericDate(now)
	claims.ExpiresAt = jwt.NewNumericDate(exp)

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	s, err := t.SignedString(m.Secret)
	return s, exp, err
}

// Verify parses tokenStr and checks it is of the expected kind.
// An expired but correctly signed token returns its claims together with
// ErrTokenExpired so callers can act on the subject.
func (m *JWTManager) Verify(tokenStr, kind string) (*Claims, error) {
	claims := &Claims{}
	tkn, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return m.Secret, nil
	}, jwt.WithTimeFunc(m.clock), jwt.WithExpirationRequired())
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) && claims.Kind != "" {
			if claims.Kind != kind {
				return nil, ErrTokenKind
			}
			return claims, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}
	if !tkn.Valid {
		return nil, ErrTokenInvalid
	}
	if claims.Kind != kind {
		return nil, ErrTokenKind
	}
	if claims.Subject == "" {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}

func (m *JWTManager) clock() time.Time {
	if m.now == nil {
		return time.Now()
	}
	return m.now()
}
