// Package export writes conversation histories to JSON or YAML files.
package export

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
)

// Ensure FileExporter implements the interface.
var _ driven.ConversationExporter = (*FileExporter)(nil)

// Format is an export file encoding.
type Format string

// Supported formats.
const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// document is the exported file layout.
type document struct {
	ExportedAt time.Time                 `json:"exported_at" yaml:"exported_at"`
	Turns      []domain.ConversationTurn `json:"turns" yaml:"turns"`
}

// FileExporter writes turns to a file whose extension selects the format.
type FileExporter struct {
	path   string
	format Format
	now    func() time.Time
}

// FormatFor returns the format for a file extension.
func FormatFor(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("%w: export format for %q (use .json, .yaml or .yml)",
			domain.ErrUnsupportedType, filepath.Base(path))
	}
}

// NewFileExporter creates an exporter for path.
func NewFileExporter(path string) (*FileExporter, error) {
	format, err := FormatFor(path)
	if err != nil {
		return nil, err
	}
	return &FileExporter{path: path, format: format, now: time.Now}, nil
}

// Path returns the destination file.
func (e *FileExporter) Path() string {
	return e.path
}

// Export encodes the turns and replaces the destination file atomically.
func (e *FileExporter) Export(ctx context.Context, turns []domain.ConversationTurn) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if turns == nil {
		turns = []domain.ConversationTurn{}
	}

	doc := document{ExportedAt: e.now().UTC(), Turns: turns}

	var (
		data []byte
		err  error
	)
	switch e.format {
	case FormatYAML:
		data, err = yaml.Marshal(doc)
	default:
		data, err = json.MarshalIndent(doc, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("encode %s: %w", e.format, err)
	}

	return writeAtomic(e.path, data)
}

// writeAtomic writes data next to path and renames it into place.
func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close %s: %w", path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace %s: %w", path, err)
	}
	return nil
}
