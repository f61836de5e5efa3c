package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"

	"github.com/custodia-labs/normrag/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/normrag/internal/core/domain"
	"github.com/custodia-labs/normrag/internal/core/ports/driven"
)

// File names inside an index directory.
const (
	IndexFile    = "index.db"
	ManifestFile = "manifest.toml"
)

var _ driven.IndexStore = (*IndexStore)(nil)

// IndexStore persists a corpus index as index.db plus manifest.toml.
// The manifest is written last, so a directory without one is never
// treated as a built index.
type IndexStore struct{}

// NewIndexStore creates an index store.
func NewIndexStore() *IndexStore {
	return &IndexStore{}
}

// Exists reports whether both artifacts are present in dir.
func (s *IndexStore) Exists(dir string) bool {
	return isFile(filepath.Join(dir, IndexFile)) && isFile(filepath.Join(dir, ManifestFile))
}

// Save writes docs and chunks into dir/index.db, then the manifest.
func (s *IndexStore) Save(
	ctx context.Context,
	dir string,
	manifest domain.IndexManifest,
	docs []domain.Document,
	chunks []domain.Chunk,
) error {
	dbPath := filepath.Join(dir, IndexFile)
	if _, err := os.Stat(dbPath); err == nil {
		return fmt.Errorf("index already present in %s", dir)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating index directory: %w", err)
	}

	db, err := openDB(dbPath, migrations.Index())
	if err != nil {
		return err
	}
	if err := writeIndex(ctx, db, docs, chunks); err != nil {
		db.Close()
		return err
	}
	// Fold the WAL into the main file before the directory is published.
	if _, err := db.ExecContext(ctx, "PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
		db.Close()
		return fmt.Errorf("checkpointing index: %w", err)
	}
	if err := db.Close(); err != nil {
		return fmt.Errorf("closing index: %w", err)
	}

	data, err := toml.Marshal(manifest)
	if err != nil {
		return fmt.Errorf("encoding manifest: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, ManifestFile), data, 0o644); err != nil {
		return fmt.Errorf("writing manifest: %w", err)
	}
	return nil
}

func writeIndex(ctx context.Context, db *sql.DB, docs []domain.Document, chunks []domain.Chunk) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	docStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO documents (id, position, source_path, filename, title, format, content, metadata, loaded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing document statement: %w", err)
	}
	defer docStmt.Close()

	for i, doc := range docs {
		metadataJSON, err := marshalJSON(doc.Metadata)
		if err != nil {
			return fmt.Errorf("document %s metadata: %w", doc.Filename, err)
		}
		if _, err := docStmt.ExecContext(ctx, doc.ID, i, doc.SourcePath, doc.Filename, doc.Title,
			doc.Format.String(), doc.Content, metadataJSON, doc.LoadedAt); err != nil {
			return fmt.Errorf("saving document %s: %w", doc.Filename, err)
		}
	}

	chunkStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO chunks (id, seq, document_id, position, content, sections, embedding, metadata)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing chunk statement: %w", err)
	}
	defer chunkStmt.Close()

	for i, chunk := range chunks {
		if len(chunk.Embedding) == 0 {
			return fmt.Errorf("chunk %s has no embedding", chunk.ID)
		}
		sections := chunk.Sections
		if sections == nil {
			sections = []string{}
		}
		sectionsJSON, err := marshalJSON(sections)
		if err != nil {
			return fmt.Errorf("chunk %s sections: %w", chunk.ID, err)
		}
		metadataJSON, err := marshalJSON(chunk.Metadata)
		if err != nil {
			return fmt.Errorf("chunk %s metadata: %w", chunk.ID, err)
		}
		if _, err := chunkStmt.ExecContext(ctx, chunk.ID, i, chunk.DocumentID, chunk.Position, chunk.Content,
			sectionsJSON, float32SliceToBytes(chunk.Embedding), metadataJSON); err != nil {
			return fmt.Errorf("saving chunk %s: %w", chunk.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// ReadManifest decodes dir/manifest.toml.
func (s *IndexStore) ReadManifest(dir string) (*domain.IndexManifest, error) {
	data, err := os.ReadFile(filepath.Join(dir, ManifestFile))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", domain.ErrIndexMissing, dir)
		}
		return nil, fmt.Errorf("reading manifest: %w", err)
	}
	var manifest domain.IndexManifest
	if err := toml.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("decoding manifest: %w", err)
	}
	return &manifest, nil
}

// Load reads the whole index in dir.
func (s *IndexStore) Load(ctx context.Context, dir string) (*driven.StoredIndex, error) {
	if !s.Exists(dir) {
		return nil, fmt.Errorf("%w: %s", domain.ErrIndexMissing, dir)
	}
	manifest, err := s.ReadManifest(dir)
	if err != nil {
		return nil, err
	}

	db, err := openDB(filepath.Join(dir, IndexFile), migrations.Index())
	if err != nil {
		return nil, err
	}
	defer db.Close()

	docs, err := loadDocuments(ctx, db)
	if err != nil {
		return nil, err
	}
	chunks, err := loadChunks(ctx, db)
	if err != nil {
		return nil, err
	}

	return &driven.StoredIndex{
		Manifest:  *manifest,
		Documents: docs,
		Chunks:    chunks,
	}, nil
}

func loadDocuments(ctx context.Context, db *sql.DB) ([]domain.Document, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, source_path, filename, title, format, content, metadata, loaded_at
		FROM documents ORDER BY position
	`)
	if err != nil {
		return nil, fmt.Errorf("querying documents: %w", err)
	}
	defer rows.Close()

	var docs []domain.Document //nolint:prealloc // size unknown from query
	for rows.Next() {
		var doc domain.Document
		var format, metadataJSON string
		if err := rows.Scan(&doc.ID, &doc.SourcePath, &doc.Filename, &doc.Title, &format,
			&doc.Content, &metadataJSON, &doc.LoadedAt); err != nil {
			return nil, fmt.Errorf("scanning document: %w", err)
		}
		doc.Format = domain.Format(format)
		if doc.Metadata, err = unmarshalMetadata(metadataJSON); err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating documents: %w", err)
	}
	return docs, nil
}

func loadChunks(ctx context.Context, db *sql.DB) ([]domain.Chunk, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, document_id, position, content, sections, embedding, metadata
		FROM chunks ORDER BY seq
	`)
	if err != nil {
		return nil, fmt.Errorf("querying chunks: %w", err)
	}
	defer rows.Close()

	var chunks []domain.Chunk //nolint:prealloc // size unknown from query
	for rows.Next() {
		var chunk domain.Chunk
		var sectionsJSON, metadataJSON string
		var blob []byte
		if err := rows.Scan(&chunk.ID, &chunk.DocumentID, &chunk.Position, &chunk.Content,
			&sectionsJSON, &blob, &metadataJSON); err != nil {
			return nil, fmt.Errorf("scanning chunk: %w", err)
		}
		if err := json.Unmarshal([]byte(sectionsJSON), &chunk.Sections); err != nil {
			return nil, fmt.Errorf("chunk %s sections: %w", chunk.ID, err)
		}
		if chunk.Embedding, err = bytesToFloat32Slice(blob); err != nil {
			return nil, fmt.Errorf("chunk %s: %w", chunk.ID, err)
		}
		if chunk.Metadata, err = unmarshalMetadata(metadataJSON); err != nil {
			return nil, err
		}
		if chunk.Metadata == nil {
			chunk.Metadata = make(map[string]any)
		}
		// JSON decoding yields []any; keep the typed slice callers expect.
		chunk.Metadata[domain.MetaSections] = chunk.Sections
		chunks = append(chunks, chunk)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating chunks: %w", err)
	}
	return chunks, nil
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
