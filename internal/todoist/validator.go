package todoist

import (
	"context"
	"sync"
	"time"
)

// DefaultValidateDelay is the quiet period TokenValidator waits for before
// hitting the API.
const DefaultValidateDelay = 500 * time.Millisecond

// TokenValidator checks API tokens as the user types them. Each call waits
// out a quiet period; a call that is overtaken by a newer one returns
// ErrStale instead of its result, so the caller only ever shows the verdict
// for the latest token.
type TokenValidator struct {
	delay time.Duration
	check func(ctx context.Context, token string) (*User, error)

	mu    sync.Mutex
	epoch uint64 // Incremented per Validate call; older calls are stale
}

// NewTokenValidator creates a validator that checks tokens against baseURL.
func NewTokenValidator(baseURL string, delay time.Duration) *TokenValidator {
	return &TokenValidator{
		delay: delay,
		check: func(ctx context.Context, token string) (*User, error) {
			c := NewClient(baseURL, token)
			c.MaxElapsed = 5 * time.Second
			return c.ValidateToken(ctx)
		},
	}
}

// Validate reports the user the token belongs to. An APIError with status
// 401 or 403 means the token was rejected.
func (v *TokenValidator) Validate(ctx context.Context, token string) (*User, error) {
	v.mu.Lock()
	v.epoch++
	epoch := v.epoch
	v.mu.Unlock()

	if v.delay > 0 {
		timer := time.NewTimer(v.delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
	if !v.current(epoch) {
		return nil, ErrStale
	}

	user, err := v.check(ctx, token)
	if !v.current(epoch) {
		return nil, ErrStale
	}
	return user, err
}

func (v *TokenValidator) current(epoch uint64) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.epoch == epoch
}
