// Package pending holds unverified registrations until their OTP is confirmed
// or their lifetime runs out.
package pending

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/localtourx-api/internal/domain"
)

// MemoryStore keeps pending registrations in process memory, one per email.
// Expired entries are invisible to Get and removed by Sweep.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]domain.PendingRegistrant
	now     func() time.Time
}

// Option configures a MemoryStore.
type Option func(*MemoryStore)

// WithClock replaces time.Now as the store's notion of the current time.
func WithClock(now func() time.Time) Option {
	return func(s *MemoryStore) { s.now = now }
}

func NewMemoryStore(opts ...Option) *MemoryStore {
	s := &MemoryStore{entries: make(map[string]domain.PendingRegistrant), now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *MemoryStore) Get(_ context.Context, email string) (*domain.PendingRegistrant, error) {
	key := normalize(email)
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.entries[key]
	if !ok {
		return nil, fmt.Errorf("pending registration not found: %w", domain.ErrNotFound)
	}
	if p.Expired(s.now()) {
		delete(s.entries, key)
		return nil, fmt.Errorf("pending registration not found: %w", domain.ErrNotFound)
	}
	return &p, nil
}

// Put stores p, replacing any previous entry for the same email.
func (s *MemoryStore) Put(_ context.Context, p *domain.PendingRegistrant) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[normalize(p.Email)] = *p
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, email string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, normalize(email))
	return nil
}

// Take removes and returns the entry for email. Of concurrent callers only
// one receives it.
func (s *MemoryStore) Take(_ context.Context, email string) (*domain.PendingRegistrant, error) {
	key := normalize(email)
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.entries[key]
	if !ok {
		return nil, fmt.Errorf("pending registration not found: %w", domain.ErrNotFound)
	}
	delete(s.entries, key)
	if p.Expired(s.now()) {
		return nil, fmt.Errorf("pending registration not found: %w", domain.ErrNotFound)
	}
	return &p, nil
}

// Sweep drops every entry expired at now and returns how many were removed.
func (s *MemoryStore) Sweep(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for k, p := range s.entries {
		if p.Expired(now) {
			delete(s.entries, k)
			removed++
		}
	}
	return removed
}

// Run sweeps every interval until ctx is done.
func (s *MemoryStore) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.Sweep(s.now()); n > 0 {
				slog.Debug("swept pending registrations", "removed", n)
			}
		}
	}
}

func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

func normalize(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
