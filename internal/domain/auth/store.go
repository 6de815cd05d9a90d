// internal/domain/auth/store.go
package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const sessionPrefix = "session:"

type RedisAuthStore struct {
	redis *redis.Client
	newID func() string
}

func NewAuthStore(redis *redis.Client) AuthStore {
	return &RedisAuthStore{
		redis: redis,
		newID: generateSessionID,
	}
}

func (s *RedisAuthStore) CreateSession(ctx context.Context, userID string, duration time.Duration) (string, error) {
	sessionID := s.newID()
	if err := s.redis.Set(ctx, sessionPrefix+sessionID, userID, duration).Err(); err != nil {
		return "", fmt.Errorf("store session: %w", err)
	}
	return sessionID, nil
}

func (s *RedisAuthStore) GetSession(ctx context.Context, sessionID string) *AuthResult {
	userID, err := s.redis.Get(ctx, sessionPrefix+sessionID).Result()
	if err != nil {
		return &AuthResult{Valid: false}
	}
	return &AuthResult{Valid: true, UserID: userID}
}

func (s *RedisAuthStore) DeleteSession(ctx context.Context, sessionID string) error {
	return s.redis.Del(ctx, sessionPrefix+sessionID).Err()
}

func generateSessionID() string {
	return uuid.NewString()
}
