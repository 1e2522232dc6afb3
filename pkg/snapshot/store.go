package snapshot

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ErrNotFound is returned when a key has no snapshot.
var ErrNotFound = errors.New("snapshot not found")

// Store persists encoded snapshots under string keys.
type Store interface {
	Put(ctx context.Context, key string, s Snapshot) (int, error)
	Get(ctx context.Context, key string) (Snapshot, error)
	List(ctx context.Context, prefix string) ([]string, error)
}

// Key returns the conventional key for a snapshot: <run-id>/<iteration>.gems
func Key(s Snapshot) string {
	return fmt.Sprintf("%s/%08d.gems", s.RunID, s.Iteration)
}

// FileStore keeps snapshots as files below a root directory.
type FileStore struct {
	root  string
	codec Codec
}

// NewFileStore creates root if needed.
func NewFileStore(root string, codec Codec) (*FileStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create snapshot dir: %w", err)
	}
	return &FileStore{root: root, codec: codec}, nil
}

func (f *FileStore) path(key string) string {
	return filepath.Join(f.root, filepath.FromSlash(key))
}

// Put writes atomically via a temp file and rename. It returns the number of
// encoded bytes written.
func (f *FileStore) Put(ctx context.Context, key string, s Snapshot) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	data, err := Encode(s, f.codec)
	if err != nil {
		return 0, err
	}

	dst := f.path(key)
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return 0, err
	}
	tmp := dst + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return 0, err
	}
	if err := os.Rename(tmp, dst); err != nil {
		os.Remove(tmp)
		return 0, err
	}
	return len(data), nil
}

func (f *FileStore) Get(ctx context.Context, key string) (Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return Snapshot{}, err
	}
	data, err := os.ReadFile(f.path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return Snapshot{}, fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	if err != nil {
		return Snapshot{}, err
	}
	return Decode(data)
}

// List returns keys with the given prefix in lexical order.
func (f *FileStore) List(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	err := filepath.WalkDir(f.root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() || strings.HasSuffix(p, ".tmp") {
			return nil
		}
		rel, err := filepath.Rel(f.root, p)
		if err != nil {
			return err
		}
		key := filepath.ToSlash(rel)
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(keys)
	return keys, nil
}
