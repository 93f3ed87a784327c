package binding

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"

	"github.com/dshills/cmdmgr/internal/command"
)

const (
	// DefaultLockTimeout is the default timeout for acquiring the file lock.
	DefaultLockTimeout = 5 * time.Second

	lockRetryDelay = 50 * time.Millisecond
)

// FileStore keeps bindings in a file, guarded by a sibling lock file so
// that several processes can share it.
type FileStore struct {
	path        string
	codec       Codec
	lock        *flock.Flock
	lockTimeout time.Duration
}

// NewFileStore creates a store for path. The format comes from the
// extension unless format is non-empty.
func NewFileStore(path string, format Format) (*FileStore, error) {
	if format == "" {
		f, err := FormatFromPath(path)
		if err != nil {
			return nil, err
		}
		format = f
	}
	codec, err := NewCodec(format)
	if err != nil {
		return nil, err
	}
	return &FileStore{
		path:        path,
		codec:       codec,
		lock:        flock.New(path + ".lock"),
		lockTimeout: DefaultLockTimeout,
	}, nil
}

// Path returns the bindings file path.
func (s *FileStore) Path() string {
	return s.path
}

// Codec returns the store's codec.
func (s *FileStore) Codec() Codec {
	return s.codec
}

// SetLockTimeout changes how long Load and Save wait for the lock.
func (s *FileStore) SetLockTimeout(d time.Duration) {
	s.lockTimeout = d
}

// Save writes the registry's bindings. The file is replaced atomically.
func (s *FileStore) Save(ctx context.Context, reg *command.Registry, p Policy) (int, error) {
	var buf bytes.Buffer
	n, err := Save(&buf, s.codec, reg, p)
	if err != nil {
		return 0, err
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return 0, fmt.Errorf("create bindings directory: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, s.lockTimeout)
	defer cancel()
	locked, err := s.lock.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		return 0, fmt.Errorf("acquire write lock: %w", err)
	}
	if !locked {
		return 0, fmt.Errorf("could not acquire write lock within %s", s.lockTimeout)
	}
	defer s.lock.Unlock()

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, buf.Bytes(), 0o644); err != nil {
		return 0, fmt.Errorf("write bindings: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		os.Remove(tmp)
		return 0, fmt.Errorf("replace bindings: %w", err)
	}
	return n, nil
}

// Load reads the file and applies its bindings. A missing file is not an
// error and applies nothing.
func (s *FileStore) Load(ctx context.Context, reg *command.Registry) (Report, error) {
	data, err := s.read(ctx)
	if err != nil {
		if os.IsNotExist(err) {
			return Report{}, nil
		}
		return Report{}, err
	}
	return Load(bytes.NewReader(data), s.codec, reg)
}

// Read decodes the file without applying it.
func (s *FileStore) Read(ctx context.Context) (Decoded, error) {
	data, err := s.read(ctx)
	if err != nil {
		return Decoded{}, err
	}
	return s.codec.Decode(bytes.NewReader(data))
}

func (s *FileStore) read(ctx context.Context) ([]byte, error) {
	if _, err := os.Stat(s.path); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.lockTimeout)
	defer cancel()
	locked, err := s.lock.TryRLockContext(ctx, lockRetryDelay)
	if err != nil {
		return nil, fmt.Errorf("acquire read lock: %w", err)
	}
	if !locked {
		return nil, fmt.Errorf("could not acquire read lock within %s", s.lockTimeout)
	}
	defer s.lock.Unlock()

	return os.ReadFile(s.path)
}
