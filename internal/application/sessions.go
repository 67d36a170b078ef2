package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-physio-booking/internal/domain/entity"
	"github.com/oksasatya/go-physio-booking/pkg/helpers"
)

// Sessions issues principal tokens and tracks the live session id per
// principal in Redis. Without Redis tokens are trusted until they expire.
type Sessions struct {
	JWT    *helpers.JWTManager
	Redis  *redis.Client
	Logger *logrus.Logger
}

func NewSessions(jwt *helpers.JWTManager, rdb *redis.Client, logger *logrus.Logger) *Sessions {
	return &Sessions{JWT: jwt, Redis: rdb, Logger: logger}
}

// LoginResult is returned by every login-style operation.
type LoginResult struct {
	Token     string               `json:"token"`
	ExpiresAt time.Time            `json:"expires_at"`
	Kind      entity.PrincipalKind `json:"kind"`
	ID        string               `json:"id"`
	User      *entity.User         `json:"-"`
}

func sessionKey(kind entity.PrincipalKind, id string) string {
	return "session:" + string(kind) + ":" + id
}

func nowRFC3339() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}

// Issue signs a token of kind for id and records its session id. A token
// whose session could not be recorded is never handed out.
func (s *Sessions) Issue(ctx context.Context, kind entity.PrincipalKind, id, email, name string) (*LoginResult, error) {
	sid := uuid.NewString()
	token, exp, err := s.JWT.Issue(string(kind), id, helpers.WithSessionID(sid), helpers.WithEmail(email))
	if err != nil {
		if s.Logger != nil {
			s.Logger.WithError(err).WithField("principal", id).Error("generate token failed")
		}
		return nil, err
	}

	if s.Redis != nil {
		key := sessionKey(kind, id)
		pipe := s.Redis.Pipeline()
		pipe.HSet(ctx, key, map[string]any{
			"sid":        sid,
			"email":      email,
			"name":       name,
			"created_at": nowRFC3339(),
		})
		pipe.ExpireAt(ctx, key, exp)
		if _, rErr := pipe.Exec(ctx); rErr != nil {
			if s.Logger != nil {
				s.Logger.WithError(rErr).WithField("key", key).Error("store session failed")
			}
			return nil, fmt.Errorf("%w: store session: %v", ErrAdapter, rErr)
		}
	}
	return &LoginResult{Token: token, ExpiresAt: exp, Kind: kind, ID: id}, nil
}

// Active reports whether sid is the current session for the principal.
// A missing session is inactive; Redis errors fail open.
func (s *Sessions) Active(ctx context.Context, kind entity.PrincipalKind, id, sid string) bool {
	if s == nil || s.Redis == nil {
		return true
	}
	cur, err := s.Redis.HGet(ctx, sessionKey(kind, id), "sid").Result()
	if errors.Is(err, redis.Nil) {
		return false
	}
	if err != nil {
		if s.Logger != nil {
			s.Logger.WithError(err).Warn("session lookup failed")
		}
		return true
	}
	return cur == sid
}

// Revoke drops the principal's session; its outstanding tokens stop working.
func (s *Sessions) Revoke(ctx context.Context, kind entity.PrincipalKind, id string) error {
	if s == nil || s.Redis == nil {
		return nil
	}
	return s.Redis.Del(ctx, sessionKey(kind, id)).Err()
}
