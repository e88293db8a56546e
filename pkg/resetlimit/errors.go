package resetlimit

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrBlocked       = errors.New("reset requests temporarily blocked")
	ErrInvalidConfig = errors.New("invalid reset limiter config")
	ErrInvalidEmail  = errors.New("email is required")
)

// BlockedError carries the time at which requests are accepted again.
type BlockedError struct {
	Until time.Time
}

func (e *BlockedError) Error() string {
	return fmt.Sprintf("%s until %s", ErrBlocked, e.Until.UTC().Format(time.RFC3339))
}

func (e *BlockedError) Is(target error) bool { return target == ErrBlocked }

// RetryAfter returns the wait measured from now, never negative.
func (e *BlockedError) RetryAfter(now time.Time) time.Duration {
	return max(e.Until.Sub(now), 0)
}
