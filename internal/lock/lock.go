package lock

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"
)

// ErrNotAcquired is returned when a lock stays held by someone else past the retry budget.
var ErrNotAcquired = errors.New("lock not acquired")

// Locker serializes check-and-write sections keyed by resource.
type Locker interface {
	Lock(ctx context.Context, key string) (unlock func(), err error)
}

func RoomKey(roomID int64) string {
	return fmt.Sprintf("room:%d", roomID)
}

// RetryPolicy defines exponential backoff parameters.
type RetryPolicy struct {
	MaxRetries    int
	InitialDelay  time.Duration
	MaxDelay      time.Duration
	BackoffFactor float64
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxRetries: 50, InitialDelay: 10 * time.Millisecond, MaxDelay: 250 * time.Millisecond, BackoffFactor: 1.5}
}

// NextDelay returns delay for a given attempt (1-based) with clamping.
func (r RetryPolicy) NextDelay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	if r.InitialDelay <= 0 {
		r.InitialDelay = 10 * time.Millisecond
	}
	if r.BackoffFactor <= 0 {
		r.BackoffFactor = 2
	}

	delay := float64(r.InitialDelay) * math.Pow(r.BackoffFactor, float64(attempt-1))
	d := time.Duration(delay)
	if r.MaxDelay > 0 && d > r.MaxDelay {
		d = r.MaxDelay
	}
	if d <= 0 {
		d = r.InitialDelay
	}
	return d
}
