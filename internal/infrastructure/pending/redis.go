package pending

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/localtourx-api/internal/domain"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "pending_registration:"

// RedisStore shares pending registrations between API instances. Redis
// expires each key when the registration's lifetime ends.
type RedisStore struct {
	client *redis.Client
	now    func() time.Time
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client, now: time.Now}
}

// NewRedisClient parses url, connects and pings.
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

func (s *RedisStore) Get(ctx context.Context, email string) (*domain.PendingRegistrant, error) {
	return s.decode(s.client.Get(ctx, pendingKey(email)).Bytes())
}

// Take removes and returns the entry for email with GETDEL, so of concurrent
// callers across instances only one receives it.
func (s *RedisStore) Take(ctx context.Context, email string) (*domain.PendingRegistrant, error) {
	return s.decode(s.client.GetDel(ctx, pendingKey(email)).Bytes())
}

func (s *RedisStore) decode(raw []byte, err error) (*domain.PendingRegistrant, error) {
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("pending registration not found: %w", domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("read pending registration: %w", err)
	}
	var p domain.PendingRegistrant
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("decode pending registration: %w", err)
	}
	// Redis expiry has millisecond granularity; the entry's own deadline wins.
	if p.Expired(s.now()) {
		return nil, fmt.Errorf("pending registration not found: %w", domain.ErrNotFound)
	}
	return &p, nil
}

// Put stores p with a TTL equal to its remaining lifetime, replacing any
// previous entry for the same email.
func (s *RedisStore) Put(ctx context.Context, p *domain.PendingRegistrant) error {
	ttl := p.ExpiresAt.Sub(s.now())
	if ttl <= 0 {
		return fmt.Errorf("pending registration already expired: %w", domain.ErrBadRequest)
	}
	raw, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode pending registration: %w", err)
	}
	if err := s.client.Set(ctx, pendingKey(p.Email), raw, ttl).Err(); err != nil {
		return fmt.Errorf("store pending registration: %w", err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, email string) error {
	if err := s.client.Del(ctx, pendingKey(email)).Err(); err != nil {
		return fmt.Errorf("delete pending registration: %w", err)
	}
	return nil
}

func pendingKey(email string) string {
	return keyPrefix + normalize(email)
}
