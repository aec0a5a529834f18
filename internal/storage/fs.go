package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sync"
)

// FileExt is appended to a key to form its file name.
const FileExt = ".json"

// lockName is the file other processes sharing the directory lock on.
const lockName = ".lock"

var keyRe = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_-]*$`)

// FS implements Provider with one JSON file per key. Mutations hold an
// exclusive lock on <root>/.lock, so several processes (a running server
// and CLI commands) can share one directory.
type FS struct {
	root string // absolute path to the store directory

	mu sync.Mutex
}

// NewFS creates a new FS provider rooted at the given directory.
// The directory must already exist.
func NewFS(root string) (*FS, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("storage: resolve root: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("storage: stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("storage: root is not a directory: %s", abs)
	}
	return &FS{root: abs}, nil
}

// Root returns the absolute store directory.
func (f *FS) Root() string { return f.root }

// KeyFile returns the file name used for key.
func KeyFile(key string) string { return key + FileExt }

// keyPath maps a key to its file, rejecting anything that is not a plain
// identifier so a key can never leave the root.
func (f *FS) keyPath(key string) (string, error) {
	if !keyRe.MatchString(key) {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return filepath.Join(f.root, KeyFile(key)), nil
}

// Get returns the raw bytes stored under key.
func (f *FS) Get(key string) ([]byte, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.read(key)
}

// Set atomically replaces the value for key.
func (f *FS) Set(key string, value []byte) error {
	return f.exclusive(func() error {
		return f.write(key, value)
	})
}

// Delete removes keys.
func (f *FS) Delete(keys ...string) error {
	return f.exclusive(func() error {
		return f.remove(keys...)
	})
}

// Update runs fn against the current value and writes its result.
func (f *FS) Update(key string, fn UpdateFunc) error {
	return f.exclusive(func() error {
		current, _, err := f.read(key)
		if err != nil {
			return err
		}
		next, err := fn(current)
		if err != nil {
			return err
		}
		return f.write(key, next)
	})
}

// Take reads keys and removes them before releasing the lock.
func (f *FS) Take(keys ...string) (map[string][]byte, error) {
	out := make(map[string][]byte, len(keys))
	err := f.exclusive(func() error {
		for _, k := range keys {
			v, ok, err := f.read(k)
			if err != nil {
				return err
			}
			if ok {
				out[k] = v
			}
		}
		return f.remove(keys...)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// exclusive runs fn holding both the in-process mutex and the directory
// lock file.
func (f *FS) exclusive(fn func() error) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	lf, err := os.OpenFile(filepath.Join(f.root, lockName), os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return fmt.Errorf("storage: open lock: %w", err)
	}
	defer lf.Close()

	if err := lockFile(lf); err != nil {
		return fmt.Errorf("storage: lock: %w", err)
	}
	defer func() { _ = unlockFile(lf) }()

	return fn()
}

// Close is a no-op for the file system provider.
func (f *FS) Close() error { return nil }

func (f *FS) read(key string) ([]byte, bool, error) {
	abs, err := f.keyPath(key)
	if err != nil {
		return nil, false, err
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("storage: read %s: %w", key, err)
	}
	return data, true, nil
}

func (f *FS) write(key string, content []byte) error {
	abs, err := f.keyPath(key)
	if err != nil {
		return err
	}
	return WriteFileAtomic(abs, content)
}

// WriteFileAtomic stores content at path via tmp file → fsync → rename, so
// readers see either the old or the new content.
func WriteFileAtomic(path string, content []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".wordvault-tmp-*")
	if err != nil {
		return fmt.Errorf("storage: create temp: %w", err)
	}
	tmpName := tmp.Name()

	success := false
	defer func() {
		if !success {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(content); err != nil {
		return fmt.Errorf("storage: write temp: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("storage: fsync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("storage: close temp: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("storage: rename: %w", err)
	}
	success = true
	return nil
}

func (f *FS) remove(keys ...string) error {
	for _, k := range keys {
		abs, err := f.keyPath(k)
		if err != nil {
			return err
		}
		if err := os.Remove(abs); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("storage: delete %s: %w", k, err)
		}
	}
	return nil
}
