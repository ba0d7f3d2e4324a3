// Package snapshot persists the last-known product set between monitor
// cycles. The snapshot file is the only durable state in the system.
package snapshot

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	domain "github.com/cardwatch/cardwatch/pkg/types"
)

// Store persists and retrieves the last-known product snapshot.
type Store interface {
	// Load returns the persisted snapshot. A missing, unreadable, or
	// malformed file is treated as "no prior state" and yields an empty
	// snapshot, never an error.
	Load() (domain.Snapshot, error)

	// Save replaces the persisted snapshot with the given products,
	// indexed by key. Products with an empty key are dropped. The write
	// is atomic with respect to process interruption.
	Save(products []domain.Product) error
}

// FileStore implements Store on a single JSON file: a mapping from
// product key to the product record, mirroring what Load returns.
type FileStore struct {
	path string
	log  *slog.Logger
}

// FileStoreOption configures a FileStore.
type FileStoreOption func(*FileStore)

// WithLogger sets a custom logger.
func WithLogger(l *slog.Logger) FileStoreOption {
	return func(s *FileStore) {
		s.log = l
	}
}

// NewFileStore creates a FileStore persisting to the given path.
func NewFileStore(path string, opts ...FileStoreOption) *FileStore {
	s := &FileStore{
		path: path,
		log:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load reads the snapshot file. Absence or corruption is recovered
// locally as an empty snapshot so a damaged file can never wedge the
// monitor; the next Save rewrites it wholesale.
func (s *FileStore) Load() (domain.Snapshot, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			s.log.Warn("snapshot unreadable, starting fresh", "path", s.path, "error", err)
		}
		return domain.Snapshot{}, nil
	}

	snap := domain.Snapshot{}
	if err := json.Unmarshal(data, &snap); err != nil {
		s.log.Warn("snapshot corrupt, starting fresh", "path", s.path, "error", err)
		return domain.Snapshot{}, nil
	}

	return snap, nil
}

// Save writes the products to a temp file in the target directory and
// renames it over the snapshot path. Rename within one directory is
// atomic, so an interrupted Save leaves either the old or the new
// snapshot on disk, never a torn mixture.
func (s *FileStore) Save(products []domain.Product) error {
	snap := domain.Index(products)

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling snapshot: %w", err)
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp snapshot: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing temp snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing temp snapshot: %w", err)
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replacing snapshot: %w", err)
	}

	return nil
}
