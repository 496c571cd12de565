// Package jsonfile provides a driven.IndexStore that keeps the whole index in
// a single JSON document.
package jsonfile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
)

// Ensure IndexStore implements the interface.
var _ driven.IndexStore = (*IndexStore)(nil)

// record is the on-disk layout.
type record struct {
	Chunks     []domain.Chunk `json:"chunks"`
	Embeddings [][]float32    `json:"embeddings"`
	Model      string         `json:"model"`
	Dimension  int            `json:"dimension"`
	BuiltAt    time.Time      `json:"built_at"`
}

// IndexStore saves snapshots to a JSON file.
type IndexStore struct {
	path string
}

// NewIndexStore creates a store at path.
// If path is empty, defaults to ~/.docqa/data/index.json.
func NewIndexStore(path string) (*IndexStore, error) {
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("get home directory: %w", err)
		}
		path = filepath.Join(home, ".docqa", "data", "index.json")
	}
	return &IndexStore{path: path}, nil
}

// Save writes the snapshot to a temporary file and renames it into place.
func (s *IndexStore) Save(ctx context.Context, snapshot driven.IndexSnapshot) error {
	if len(snapshot.Chunks) != len(snapshot.Embeddings) {
		return &domain.CorruptIndexError{
			Chunks:  len(snapshot.Chunks),
			Vectors: len(snapshot.Embeddings),
			Reason:  "refusing to save mismatched snapshot",
		}
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.Marshal(record{
		Chunks:     snapshot.Chunks,
		Embeddings: snapshot.Embeddings,
		Model:      snapshot.Model,
		Dimension:  snapshot.Dimension,
		BuiltAt:    snapshot.BuiltAt.UTC(),
	})
	if err != nil {
		return fmt.Errorf("encode index: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return fmt.Errorf("create index directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write index: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("sync index: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close index: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace index: %w", err)
	}
	return nil
}

// Load reads the saved snapshot.
func (s *IndexStore) Load(ctx context.Context) (driven.IndexSnapshot, error) {
	if err := ctx.Err(); err != nil {
		return driven.IndexSnapshot{}, err
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return driven.IndexSnapshot{}, fmt.Errorf("%w: %s", domain.ErrIndexNotFound, s.path)
		}
		return driven.IndexSnapshot{}, fmt.Errorf("read index: %w", err)
	}

	var rec record
	if err := json.Unmarshal(data, &rec); err != nil {
		return driven.IndexSnapshot{}, &domain.CorruptIndexError{Reason: "decode " + s.path, Err: err}
	}
	if len(rec.Chunks) != len(rec.Embeddings) {
		return driven.IndexSnapshot{}, &domain.CorruptIndexError{
			Chunks:  len(rec.Chunks),
			Vectors: len(rec.Embeddings),
			Reason:  "chunk and embedding counts differ",
		}
	}

	return driven.IndexSnapshot{
		Chunks:     rec.Chunks,
		Embeddings: rec.Embeddings,
		Model:      rec.Model,
		Dimension:  rec.Dimension,
		BuiltAt:    rec.BuiltAt,
	}, nil
}

// Location returns the file path.
func (s *IndexStore) Location() string {
	return s.path
}

// Close is a no-op.
func (s *IndexStore) Close() error {
	return nil
}
