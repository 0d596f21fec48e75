package rate

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestLimiter(t *testing.T, cfg Config) (*Limiter, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis start: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		rdb.Close()
		mr.Close()
	})
	return New(rdb, cfg), mr
}

func TestLoginBudgetPerEmail(t *testing.T) {
	l, _ := newTestLimiter(t, Config{MaxLoginAttempts: 3, LoginCooldownDuration: time.Minute})
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if err := l.IncrementLogin(ctx, "A@B.com", ""); err != nil {
			t.Fatalf("attempt %d: unexpected %v", i, err)
		}
		if err := l.CheckLogin(ctx, "a@b.com", ""); err != nil {
			t.Fatalf("check %d: unexpected %v", i, err)
		}
	}
	if err := l.IncrementLogin(ctx, "a@b.com", ""); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected third failure to exhaust budget, got %v", err)
	}
	if err := l.CheckLogin(ctx, "a@b.com", ""); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected check to be limited, got %v", err)
	}
	if err := l.CheckLogin(ctx, "other@b.com", ""); err != nil {
		t.Fatalf("other email must not be limited: %v", err)
	}

	n, err := l.LoginAttempts(ctx, "a@b.com")
	if err != nil || n != 3 {
		t.Fatalf("expected 3 attempts, got %d %v", n, err)
	}
}

func TestLoginWindowExpiresAndResets(t *testing.T) {
	l, mr := newTestLimiter(t, Config{MaxLoginAttempts: 1, LoginCooldownDuration: time.Minute})
	ctx := context.Background()

	_ = l.IncrementLogin(ctx, "a@b.com", "")
	if err := l.CheckLogin(ctx, "a@b.com", ""); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected limited, got %v", err)
	}
	mr.FastForward(time.Minute + time.Second)
	if err := l.CheckLogin(ctx, "a@b.com", ""); err != nil {
		t.Fatalf("expected window to expire, got %v", err)
	}

	_ = l.IncrementLogin(ctx, "a@b.com", "")
	if err := l.ResetLogin(ctx, "a@b.com", ""); err != nil {
		t.Fatalf("reset: %v", err)
	}
	if err := l.CheckLogin(ctx, "a@b.com", ""); err != nil {
		t.Fatalf("expected reset to clear budget, got %v", err)
	}
}

func TestLoginBudgetPerIP(t *testing.T) {
	l, _ := newTestLimiter(t, Config{EnableIPThrottle: true, MaxLoginAttempts: 2, LoginCooldownDuration: time.Minute})
	ctx := context.Background()

	_ = l.IncrementLogin(ctx, "one@b.com", "10.0.0.1")
	_ = l.IncrementLogin(ctx, "two@b.com", "10.0.0.1")
	if err := l.CheckLogin(ctx, "three@b.com", "10.0.0.1"); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected ip budget to be spent, got %v", err)
	}
	if err := l.CheckLogin(ctx, "three@b.com", "10.0.0.2"); err != nil {
		t.Fatalf("other ip must not be limited: %v", err)
	}
}

func TestLimiterWrapsRedisErrors(t *testing.T) {
	l, mr := newTestLimiter(t, Config{MaxLoginAttempts: 1, LoginCooldownDuration: time.Minute})
	mr.Close()
	if err := l.CheckLogin(context.Background(), "a@b.com", ""); !errors.Is(err, ErrRedisUnavailable) {
		t.Fatalf("expected ErrRedisUnavailable, got %v", err)
	}
}
