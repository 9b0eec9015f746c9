package pending

import (
	"context"
	"testing"
	"time"

	"github.com/localtourx-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newEntry(email, code string, now time.Time) *domain.PendingRegistrant {
	return &domain.PendingRegistrant{
		Name:         "Ann",
		Email:        email,
		Password:     "pw12345",
		Role:         domain.RoleTourist,
		OTP:          code,
		OTPExpiresAt: now.Add(10 * time.Minute),
		CreatedAt:    now,
		ExpiresAt:    now.Add(15 * time.Minute),
	}
}

func TestMemoryStore_PutReplaces(t *testing.T) {
	clock := &fakeClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	s := NewMemoryStore(WithClock(clock.Now))
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, newEntry("a@x.com", "111111", clock.t)))
	require.NoError(t, s.Put(ctx, newEntry("A@X.com", "222222", clock.t)))

	assert.Equal(t, 1, s.Len())
	got, err := s.Get(ctx, "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, "222222", got.OTP)
}

func TestMemoryStore_ExpiryIsExclusive(t *testing.T) {
	clock := &fakeClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	s := NewMemoryStore(WithClock(clock.Now))
	ctx := context.Background()
	require.NoError(t, s.Put(ctx, newEntry("a@x.com", "111111", clock.t)))

	clock.Advance(15*time.Minute - time.Nanosecond)
	_, err := s.Get(ctx, "a@x.com")
	require.NoError(t, err)

	clock.Advance(time.Nanosecond)
	_, err = s.Get(ctx, "a@x.com")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Equal(t, 0, s.Len())
}

func TestMemoryStore_Delete(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, s.Put(ctx, newEntry("a@x.com", "111111", time.Now())))

	require.NoError(t, s.Delete(ctx, "a@x.com"))
	_, err := s.Get(ctx, "a@x.com")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.NoError(t, s.Delete(ctx, "missing@x.com"))
}

func TestMemoryStore_Sweep(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	s := NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, s.Put(ctx, newEntry("old@x.com", "111111", start)))
	require.NoError(t, s.Put(ctx, newEntry("new@x.com", "222222", start.Add(10*time.Minute))))

	removed := s.Sweep(start.Add(15 * time.Minute))

	assert.Equal(t, 1, removed)
	assert.Equal(t, 1, s.Len())
}

func TestMemoryStore_RunStopsOnCancel(t *testing.T) {
	s := NewMemoryStore()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx, time.Millisecond)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestMemoryStore_TakeRemovesOnce(t *testing.T) {
	clock := &fakeClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	s := NewMemoryStore(WithClock(clock.Now))
	ctx := context.Background()
	require.NoError(t, s.Put(ctx, newEntry("a@x.com", "111111", clock.t)))

	got, err := s.Take(ctx, "A@x.com")
	require.NoError(t, err)
	assert.Equal(t, "111111", got.OTP)
	assert.Equal(t, 0, s.Len())

	_, err = s.Take(ctx, "a@x.com")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestMemoryStore_TakeExpired(t *testing.T) {
	clock := &fakeClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	s := NewMemoryStore(WithClock(clock.Now))
	ctx := context.Background()
	require.NoError(t, s.Put(ctx, newEntry("a@x.com", "111111", clock.t)))

	clock.Advance(15 * time.Minute)
	_, err := s.Take(ctx, "a@x.com")

	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Equal(t, 0, s.Len())
}
