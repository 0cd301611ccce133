package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/boshu2/promptorch/cli/internal/storage"
)

// The host is expected to run hooks one at a time per project. The lock makes
// that assumption hold even when it does not: without it two overlapping
// invocations can both read the record, and the later write drops the
// earlier one's discovery_round increment.

// EnvLockStaleAfter overrides LockOptions.StaleAfter (a time.Duration string).
const EnvLockStaleAfter = "PO_LOCK_STALE_AFTER"

const defaultLockStaleAfter = 10 * time.Second

// LockOptions controls how long AcquireLock waits.
type LockOptions struct {
	// Timeout bounds the total wait before LockContentionError.
	Timeout time.Duration
	// Retry is the sleep between attempts.
	Retry time.Duration
	// StaleAfter is the lockfile age past which it is broken. Zero disables
	// the age check; a lock whose holder process is gone is broken regardless.
	StaleAfter time.Duration
}

// DefaultLockOptions returns the timing used by hook invocations, with
// StaleAfter taken from PO_LOCK_STALE_AFTER when set to a valid duration.
func DefaultLockOptions() LockOptions {
	return LockOptions{
		Timeout:    2 * time.Second,
		Retry:      50 * time.Millisecond,
		StaleAfter: parseLockDuration(EnvLockStaleAfter, defaultLockStaleAfter),
	}
}

func parseLockDuration(envName string, fallback time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(envName))
	if raw == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil || parsed <= 0 {
		return fallback
	}
	return parsed
}

// FileLock is a held lockfile.
type FileLock struct {
	Path   string
	Owner  string
	Waited time.Duration

	mu       sync.Mutex
	released bool
}

type lockMetadata struct {
	PID       int       `json:"pid"`
	Host      string    `json:"host,omitempty"`
	Owner     string    `json:"owner"`
	CreatedAt time.Time `json:"created_at"`
}

// AcquireLock creates path exclusively, waiting for a current holder to
// release it. The caller must call Release on every exit path.
func AcquireLock(ctx context.Context, path string, opts LockOptions) (*FileLock, error) {
	if err := storage.EnsureDir(filepath.Dir(path)); err != nil {
		return nil, fmt.Errorf("prepare state lock directory: %w", err)
	}

	owner := uuid.NewString()
	start := time.Now()
	attempts := 0
	for {
		attempts++
		f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
		if err == nil {
			if err := writeLockMetadata(f, owner); err != nil {
				_ = os.Remove(path) //nolint:errcheck // cleanup in error path
				return nil, fmt.Errorf("write state lock: %w", err)
			}
			return &FileLock{Path: path, Owner: owner, Waited: time.Since(start)}, nil
		}
		if !errors.Is(err, fs.ErrExist) {
			return nil, fmt.Errorf("acquire state lock: %w", err)
		}

		if staleOwner, stale := isStaleLock(path, time.Now(), opts.StaleAfter); stale && breakStaleLock(path, staleOwner) {
			continue
		}

		waited := time.Since(start)
		if waited >= opts.Timeout {
			return nil, &LockContentionError{
				LockPath: path,
				Waited:   waited,
				Attempts: attempts,
				Timeout:  opts.Timeout,
			}
		}

		timer := time.NewTimer(opts.Retry)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, fmt.Errorf("acquire state lock: %w", ctx.Err())
		case <-timer.C:
		}
	}
}

// Release removes the lockfile if this lock still owns it. Calling Release
// more than once is a no-op.
func (l *FileLock) Release() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.released {
		return nil
	}
	l.released = true

	data, err := os.ReadFile(l.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return ErrLockNotHeld
	}
	if err != nil {
		return fmt.Errorf("read state lock: %w", err)
	}
	var meta lockMetadata
	if err := json.Unmarshal(data, &meta); err != nil || meta.Owner != l.Owner {
		return ErrLockNotHeld
	}
	if err := os.Remove(l.Path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("release state lock: %w", err)
	}
	return nil
}

func writeLockMetadata(f *os.File, owner string) error {
	host, _ := os.Hostname()
	meta := lockMetadata{
		PID:       os.Getpid(),
		Host:      host,
		Owner:     owner,
		CreatedAt: time.Now().UTC(),
	}
	if err := json.NewEncoder(f).Encode(meta); err != nil {
		_ = f.Close() //nolint:errcheck // cleanup in error path
		return err
	}
	return f.Close()
}

func readLockMetadata(path string) (lockMetadata, error) {
	var meta lockMetadata
	data, err := os.ReadFile(path)
	if err != nil {
		return meta, err
	}
	err = json.Unmarshal(data, &meta)
	return meta, err
}

// isStaleLock reports whether the lock at path can be broken, and the owner
// recorded in it. A lock is stale when its holder process on this host is gone
// or when it is older than staleAfter.
func isStaleLock(path string, now time.Time, staleAfter time.Duration) (string, bool) {
	info, err := os.Stat(path)
	if err != nil {
		return "", false
	}
	meta, metaErr := readLockMetadata(path)
	if metaErr == nil && meta.PID > 0 && sameHost(meta.Host) && !processAlive(meta.PID) {
		return meta.Owner, true
	}
	if staleAfter <= 0 {
		return meta.Owner, false
	}
	return meta.Owner, now.Sub(info.ModTime()) > staleAfter
}

// breakStaleLock moves the lock aside and removes it if it still belongs to
// staleOwner. If another waiter replaced it in the meantime, that lock is put
// back. It reports whether the lock path was moved at all.
func breakStaleLock(path, staleOwner string) bool {
	aside := path + ".stale-" + uuid.NewString()
	if err := os.Rename(path, aside); err != nil {
		return false
	}
	if meta, _ := readLockMetadata(aside); meta.Owner != staleOwner {
		_ = os.Link(aside, path) //nolint:errcheck // fails only if a newer lock already exists
	}
	_ = os.Remove(aside) //nolint:errcheck // best effort
	return true
}

func sameHost(host string) bool {
	if host == "" {
		return true
	}
	local, err := os.Hostname()
	return err != nil || local == host
}

func processAlive(pid int) bool {
	p, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	err = p.Signal(syscall.Signal(0))
	if err == nil {
		return true
	}
	return !errors.Is(err, os.ErrProcessDone) && !errors.Is(err, syscall.ESRCH)
}
