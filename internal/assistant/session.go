package assistant

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/healthbot/clinic-scheduling/internal/llm"
)

// SessionStore keeps per-session conversation history so multi-turn
// booking flows survive across requests.
type SessionStore interface {
	Load(ctx context.Context, sessionID string) ([]llm.ChatMessage, error)
	Append(ctx context.Context, sessionID string, messages ...llm.ChatMessage) error
	Reset(ctx context.Context, sessionID string) error
}

// RedisSessionStore stores each session's history as a JSON array under a
// TTL'd key. History is trimmed to the most recent window so prompts stay
// bounded regardless of session length.
type RedisSessionStore struct {
	redis  *redis.Client
	ttl    time.Duration
	window int
}

func NewRedisSessionStore(client *redis.Client, ttl time.Duration, window int) *RedisSessionStore {
	if client == nil {
		panic("assistant: redis client cannot be nil")
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	if window <= 0 {
		window = 20
	}
	return &RedisSessionStore{
		redis:  client,
		ttl:    ttl,
		window: window,
	}
}

func (s *RedisSessionStore) Load(ctx context.Context, sessionID string) ([]llm.ChatMessage, error) {
	data, err := s.redis.Get(ctx, sessionKey(sessionID)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil // new session
		}
		return nil, fmt.Errorf("assistant: failed to load session history: %w", err)
	}

	var history []llm.ChatMessage
	if err := json.Unmarshal(data, &history); err != nil {
		return nil, fmt.Errorf("assistant: failed to decode session history: %w", err)
	}
	return history, nil
}

func (s *RedisSessionStore) Append(ctx context.Context, sessionID string, messages ...llm.ChatMessage) error {
	history, err := s.Load(ctx, sessionID)
	if err != nil {
		return err
	}

	history = append(history, messages...)
	if len(history) > s.window {
		history = history[len(history)-s.window:]
	}

	data, err := json.Marshal(history)
	if err != nil {
		return fmt.Errorf("assistant: failed to marshal session history: %w", err)
	}
	if err := s.redis.Set(ctx, sessionKey(sessionID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("assistant: failed to persist session history: %w", err)
	}
	return nil
}

func (s *RedisSessionStore) Reset(ctx context.Context, sessionID string) error {
	if err := s.redis.Del(ctx, sessionKey(sessionID)).Err(); err != nil {
		return fmt.Errorf("assistant: failed to reset session: %w", err)
	}
	return nil
}

func sessionKey(id string) string {
	return fmt.Sprintf("session:%s", id)
}
