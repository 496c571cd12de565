package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/docqa/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.IndexStore = (*Store)(nil)

// index_meta keys.
const (
	metaModel     = "model"
	metaDimension = "dimension"
	metaBuiltAt   = "built_at"
	metaCount     = "count"
)

// Store persists an embedding index in a SQLite database.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore opens or creates the database at dbPath and runs migrations.
// If dbPath is empty, defaults to ~/.docqa/data/index.db.
func NewStore(dbPath string) (*Store, error) {
	if dbPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dbPath = filepath.Join(home, ".docqa", "data", "index.db")
	}

	// Ensure directory exists
	if err := os.MkdirAll(filepath.Dir(dbPath), 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	// Open database with WAL mode for better concurrency
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
	}

	// Run migrations
	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// Location returns the database file path.
func (s *Store) Location() string {
	return s.path
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys embed.FS) error {
	// Ensure schema_migrations table exists
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	// Get current version
	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	// Find all up migrations
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	// Sort and run migrations
	var upFiles []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// Extract version number (e.g., "001_index.up.sql" -> 1)
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue // Skip files that don't match pattern
		}

		if version <= currentVersion {
			continue // Already applied
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}

		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
	}

	return nil
}

// Save replaces the stored index in a single transaction.
func (s *Store) Save(ctx context.Context, snapshot driven.IndexSnapshot) error {
	if len(snapshot.Chunks) != len(snapshot.Embeddings) {
		return &domain.CorruptIndexError{
			Chunks:  len(snapshot.Chunks),
			Vectors: len(snapshot.Embeddings),
			Reason:  "refusing to save mismatched snapshot",
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	for _, stmt := range []string{"DELETE FROM embeddings", "DELETE FROM chunks", "DELETE FROM index_meta"} {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("clearing index: %w", err)
		}
	}

	chunkStmt, err := tx.PrepareContext(ctx,
		"INSERT INTO chunks (position, id, text, metadata) VALUES (?, ?, ?, ?)")
	if err != nil {
		return fmt.Errorf("preparing chunk insert: %w", err)
	}
	defer chunkStmt.Close()

	vecStmt, err := tx.PrepareContext(ctx, "INSERT INTO embeddings (position, vector) VALUES (?, ?)")
	if err != nil {
		return fmt.Errorf("preparing embedding insert: %w", err)
	}
	defer vecStmt.Close()

	for i, c := range snapshot.Chunks {
		metadata := c.Metadata
		if metadata == nil {
			metadata = map[string]string{}
		}
		metadataJSON, err := json.Marshal(metadata)
		if err != nil {
			return fmt.Errorf("marshalling metadata for %s: %w", c.ID, err)
		}
		if _, err := chunkStmt.ExecContext(ctx, i, c.ID, c.Text, string(metadataJSON)); err != nil {
			return fmt.Errorf("inserting chunk %s: %w", c.ID, err)
		}
		if _, err := vecStmt.ExecContext(ctx, i, float32SliceToBytes(snapshot.Embeddings[i])); err != nil {
			return fmt.Errorf("inserting embedding %d: %w", i, err)
		}
	}

	meta := map[string]string{
		metaModel:     snapshot.Model,
		metaDimension: strconv.Itoa(snapshot.Dimension),
		metaBuiltAt:   snapshot.BuiltAt.UTC().Format(time.RFC3339Nano),
		metaCount:     strconv.Itoa(len(snapshot.Chunks)),
	}
	for k, v := range meta {
		if _, err := tx.ExecContext(ctx, "INSERT INTO index_meta (key, value) VALUES (?, ?)", k, v); err != nil {
			return fmt.Errorf("writing index meta %s: %w", k, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing index: %w", err)
	}
	return nil
}

// Load reads the stored index.
// Returns domain.ErrIndexNotFound if nothing has been saved.
func (s *Store) Load(ctx context.Context) (driven.IndexSnapshot, error) {
	meta, err := s.loadMeta(ctx)
	if err != nil {
		return driven.IndexSnapshot{}, err
	}
	if _, ok := meta[metaCount]; !ok {
		return driven.IndexSnapshot{}, fmt.Errorf("%w: %s", domain.ErrIndexNotFound, s.path)
	}

	snap := driven.IndexSnapshot{Model: meta[metaModel]}
	count, err := strconv.Atoi(meta[metaCount])
	if err != nil {
		return snap, corrupt(0, 0, "invalid count", err)
	}
	if snap.Dimension, err = strconv.Atoi(meta[metaDimension]); err != nil {
		return snap, corrupt(count, 0, "invalid dimension", err)
	}
	if raw := meta[metaBuiltAt]; raw != "" {
		if snap.BuiltAt, err = time.Parse(time.RFC3339Nano, raw); err != nil {
			return snap, corrupt(count, 0, "invalid built_at", err)
		}
	}

	if snap.Chunks, err = s.loadChunks(ctx); err != nil {
		return snap, err
	}
	if snap.Embeddings, err = s.loadEmbeddings(ctx); err != nil {
		return snap, err
	}

	if len(snap.Chunks) != count || len(snap.Embeddings) != count {
		return snap, corrupt(len(snap.Chunks), len(snap.Embeddings),
			fmt.Sprintf("expected %d rows", count), nil)
	}
	return snap, nil
}

func (s *Store) loadMeta(ctx context.Context) (map[string]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT key, value FROM index_meta")
	if err != nil {
		return nil, fmt.Errorf("querying index meta: %w", err)
	}
	defer rows.Close()

	meta := make(map[string]string)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, fmt.Errorf("scanning index meta: %w", err)
		}
		meta[k] = v
	}
	return meta, rows.Err()
}

func (s *Store) loadChunks(ctx context.Context) ([]domain.Chunk, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT position, id, text, metadata FROM chunks ORDER BY position")
	if err != nil {
		return nil, fmt.Errorf("querying chunks: %w", err)
	}
	defer rows.Close()

	var chunks []domain.Chunk
	for rows.Next() {
		var (
			position     int
			c            domain.Chunk
			metadataJSON string
		)
		if err := rows.Scan(&position, &c.ID, &c.Text, &metadataJSON); err != nil {
			return nil, fmt.Errorf("scanning chunk: %w", err)
		}
		if position != len(chunks) {
			return nil, corrupt(len(chunks), 0, fmt.Sprintf("chunk position gap at %d", position), nil)
		}
		if err := json.Unmarshal([]byte(metadataJSON), &c.Metadata); err != nil {
			return nil, corrupt(len(chunks), 0, "invalid metadata for "+c.ID, err)
		}
		if len(c.Metadata) == 0 {
			c.Metadata = nil
		}
		chunks = append(chunks, c)
	}
	return chunks, rows.Err()
}

func (s *Store) loadEmbeddings(ctx context.Context) ([][]float32, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT position, vector FROM embeddings ORDER BY position")
	if err != nil {
		return nil, fmt.Errorf("querying embeddings: %w", err)
	}
	defer rows.Close()

	var vectors [][]float32
	for rows.Next() {
		var (
			position int
			blob     []byte
		)
		if err := rows.Scan(&position, &blob); err != nil {
			return nil, fmt.Errorf("scanning embedding: %w", err)
		}
		if position != len(vectors) {
			return nil, corrupt(0, len(vectors), fmt.Sprintf("embedding position gap at %d", position), nil)
		}
		if len(blob)%4 != 0 {
			return nil, corrupt(0, len(vectors), fmt.Sprintf("embedding %d has %d bytes", position, len(blob)), nil)
		}
		vectors = append(vectors, bytesToFloat32Slice(blob))
	}
	return vectors, rows.Err()
}

func corrupt(chunks, vectors int, reason string, err error) *domain.CorruptIndexError {
	return &domain.CorruptIndexError{Chunks: chunks, Vectors: vectors, Reason: reason, Err: err}
}

// ==================== Helper Functions ====================

// float32SliceToBytes converts a []float32 to a byte slice for storage.
func float32SliceToBytes(floats []float32) []byte {
	if len(floats) == 0 {
		return nil
	}
	buf := make([]byte, len(floats)*4)
	for i, f := range floats {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// bytesToFloat32Slice converts a byte slice back to []float32.
func bytesToFloat32Slice(data []byte) []float32 {
	if len(data) == 0 {
		return nil
	}
	floats := make([]float32, len(data)/4)
	for i := range floats {
		floats[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return floats
}
