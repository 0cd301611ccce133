package state

import (
	"errors"
	"fmt"
	"time"
)

// Sentinel errors for the state package.
var (
	// ErrMalformedState is returned by Merge when the persisted record is not valid JSON.
	ErrMalformedState = errors.New("malformed session state")

	// ErrLockNotHeld is returned when releasing a lock this process does not own.
	ErrLockNotHeld = errors.New("state lock not held")
)

// LockContentionError reports that another invocation held the state lock for
// longer than the configured timeout.
type LockContentionError struct {
	LockPath string
	Waited   time.Duration
	Attempts int
	Timeout  time.Duration
}

func (err *LockContentionError) Error() string {
	return fmt.Sprintf(
		"session state contention: lock timeout (path=%s waited=%s attempts=%d timeout=%s)",
		err.LockPath,
		err.Waited.Truncate(time.Millisecond),
		err.Attempts,
		err.Timeout,
	)
}
