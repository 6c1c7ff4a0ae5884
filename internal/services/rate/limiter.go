package rate

import (
	"context"
	"fmt"
	"strconv"
	"time"
)

const (
	minuteWindow = time.Minute
	hourWindow   = time.Hour
)

type WindowStore interface {
	IncrementWindow(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error)
	WindowState(ctx context.Context, key string) (int64, time.Duration, error)
}

// Limiter throttles moderation write actions per admin. Two fixed windows:
// a short one against scripted bursts and an hourly one against sustained
// mass actions. A zero limit disables that window.
type Limiter struct {
	store     WindowStore
	perMinute int
	perHour   int
}

func NewLimiter(store WindowStore, perMinute, perHour int) *Limiter {
	if perMinute < 0 {
		perMinute = 0
	}
	if perHour < 0 {
		perHour = 0
	}
	return &Limiter{
		store:     store,
		perMinute: perMinute,
		perHour:   perHour,
	}
}

// Enabled reports whether any window is configured. A fully disabled limiter
// lets the caller skip the Redis round trips.
func (l *Limiter) Enabled() bool {
	return l != nil && l.store != nil && (l.perMinute > 0 || l.perHour > 0)
}

// AllowAction counts one moderation action for the admin and reports whether
// it is within limits. When it is not, retryAfterSec says how long the admin
// has to wait. The action is counted either way; hammering a closed window
// does not open it sooner.
func (l *Limiter) AllowAction(ctx context.Context, adminID int64) (retryAfterSec int64, ok bool, err error) {
	if adminID <= 0 {
		return 0, false, fmt.Errorf("invalid admin id")
	}
	if l.store == nil {
		return 0, false, fmt.Errorf("rate limiter store is nil")
	}

	if l.perMinute > 0 {
		count, ttl, err := l.store.IncrementWindow(ctx, minuteKey(adminID), minuteWindow)
		if err != nil {
			return 0, false, err
		}
		if count > int64(l.perMinute) {
			retryAfterSec = maxInt64(retryAfterSec, ceilSeconds(ttl))
		}
	}

	if l.perHour > 0 {
		count, ttl, err := l.store.IncrementWindow(ctx, hourKey(adminID), hourWindow)
		if err != nil {
			return 0, false, err
		}
		if count > int64(l.perHour) {
			retryAfterSec = maxInt64(retryAfterSec, ceilSeconds(ttl))
		}
	}

	if retryAfterSec > 0 {
		return retryAfterSec, false, nil
	}
	return 0, true, nil
}

// RetryAfter reports the wait without counting an action. Serves read-only
// surfaces that want to show the throttle state.
func (l *Limiter) RetryAfter(ctx context.Context, adminID int64) (int64, error) {
	if adminID <= 0 {
		return 0, fmt.Errorf("invalid admin id")
	}
	if l.store == nil {
		return 0, fmt.Errorf("rate limiter store is nil")
	}

	retryAfterSec := int64(0)

	if l.perMinute > 0 {
		count, ttl, err := l.store.WindowState(ctx, minuteKey(adminID))
		if err != nil {
			return 0, err
		}
		if count >= int64(l.perMinute) {
			retryAfterSec = maxInt64(retryAfterSec, ceilSeconds(ttl))
		}
	}

	if l.perHour > 0 {
		count, ttl, err := l.store.WindowState(ctx, hourKey(adminID))
		if err != nil {
			return 0, err
		}
		if count >= int64(l.perHour) {
			retryAfterSec = maxInt64(retryAfterSec, ceilSeconds(ttl))
		}
	}

	return retryAfterSec, nil
}

func minuteKey(adminID int64) string {
	return "rate:modact:min:" + strconv.FormatInt(adminID, 10)
}

func hourKey(adminID int64) string {
	return "rate:modact:hour:" + strconv.FormatInt(adminID, 10)
}

func ceilSeconds(d time.Duration) int64 {
	if d <= 0 {
		return 0
	}
	sec := int64(d / time.Second)
	if d%time.Second != 0 {
		sec++
	}
	if sec <= 0 {
		sec = 1
	}
	return sec
}

func maxInt64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}
