package state

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/boshu2/promptorch/cli/internal/storage"
)

// Repository loads and saves the session record.
type Repository interface {
	// Load returns the persisted record merged over Default.
	Load() (SessionState, error)

	// Save replaces the persisted record.
	Save(SessionState) error

	// Delete removes the persisted record and reports whether one existed.
	Delete() (bool, error)
}

// Locker is implemented by repositories that can serialize a
// read-merge-write cycle across processes.
type Locker interface {
	Lock(ctx context.Context) (release func() error, err error)
}

// FileRepository stores the session record as a JSON file.
type FileRepository struct {
	// Path is the session file location.
	Path string

	logger *zap.Logger
	lock   LockOptions
}

// FileRepositoryOption configures a FileRepository.
type FileRepositoryOption func(*FileRepository)

// WithLogger sets the logger used for recoverable load problems.
func WithLogger(logger *zap.Logger) FileRepositoryOption {
	return func(r *FileRepository) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithLockOptions overrides the lock timing.
func WithLockOptions(opts LockOptions) FileRepositoryOption {
	return func(r *FileRepository) {
		r.lock = opts
	}
}

// NewFileRepository creates a repository backed by the file at path.
func NewFileRepository(path string, opts ...FileRepositoryOption) *FileRepository {
	r := &FileRepository{
		Path:   path,
		logger: zap.NewNop(),
		lock:   DefaultLockOptions(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Load reads the session file. A missing file yields Default. A file that
// exists but cannot be parsed also yields Default so an interrupted write
// never wedges the gate.
func (r *FileRepository) Load() (SessionState, error) {
	data, found, err := storage.ReadFile(r.Path)
	if err != nil {
		return Default(), err
	}
	if !found {
		return Default(), nil
	}

	st, err := Merge(Default(), data)
	if errors.Is(err, ErrMalformedState) {
		r.logger.Warn("ignoring unreadable session state",
			zap.String("path", r.Path),
			zap.Error(err),
		)
		return Default(), nil
	}
	return st, err
}

// Save writes st to the session file.
func (r *FileRepository) Save(st SessionState) error {
	return storage.WriteJSON(r.Path, st)
}

// Delete removes the session file if present.
func (r *FileRepository) Delete() (bool, error) {
	return storage.Remove(r.Path)
}

// Lock acquires the lockfile next to the session file.
func (r *FileRepository) Lock(ctx context.Context) (func() error, error) {
	l, err := AcquireLock(ctx, r.Path+".lock", r.lock)
	if err != nil {
		return nil, err
	}
	r.logger.Debug("acquired state lock",
		zap.String("path", l.Path),
		zap.Duration("waited", l.Waited),
	)
	return l.Release, nil
}

// WithLock runs fn while holding repo's lock when repo implements Locker, and
// runs it directly otherwise.
func WithLock(ctx context.Context, repo Repository, fn func() error) (err error) {
	locker, ok := repo.(Locker)
	if !ok {
		return fn()
	}
	release, err := locker.Lock(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if rerr := release(); rerr != nil && err == nil {
			err = rerr
		}
	}()
	return fn()
}

// Compile-time interface checks.
var (
	_ Repository = (*FileRepository)(nil)
	_ Locker     = (*FileRepository)(nil)
)
