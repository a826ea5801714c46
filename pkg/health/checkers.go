package health

import (
	"context"
	"runtime"
	"time"

	"github.com/go-faster/errors"
)

// Pinger is implemented by connection pools such as pgxpool.Pool.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingCheck reports unhealthy while p cannot be reached.
func PingCheck(p Pinger) CheckFunc {
	return func(ctx context.Context) error {
		if err := p.Ping(ctx); err != nil {
			return errors.Wrap(err, "ping")
		}
		return nil
	}
}

// GoroutineCountCheck reports unhealthy when more than threshold goroutines
// are running, which usually means a leak.
func GoroutineCountCheck(threshold int) CheckFunc {
	return func(_ context.Context) error {
		if n := runtime.NumGoroutine(); n > threshold {
			return errors.Errorf("goroutine count %d exceeds threshold %d", n, threshold)
		}
		return nil
	}
}

// FreshnessCheck reports unhealthy when last returns a time older than maxAge
// or the zero time. Use it for caches refreshed in the background.
func FreshnessCheck(last func() time.Time, maxAge time.Duration, now func() time.Time) CheckFunc {
	return func(_ context.Context) error {
		at := last()
		if at.IsZero() {
			return errors.New("never refreshed")
		}
		if age := now().Sub(at); age > maxAge {
			return errors.Errorf("last refresh %s ago exceeds %s", age.Truncate(time.Second), maxAge)
		}
		return nil
	}
}
