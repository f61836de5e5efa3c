// Package filesystem enumerates a local document collection and watches it
// for changes.
package filesystem

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/normrag/internal/core/domain"
	"github.com/custodia-labs/normrag/internal/core/ports/driven"
	"github.com/custodia-labs/normrag/internal/logger"
)

// Ensure Connector implements the interface.
var _ driven.Connector = (*Connector)(nil)

// ConnectorType is the identifier reported by Type.
const ConnectorType = "filesystem"

// ErrClosed is returned by Watch after Close.
var ErrClosed = errors.New("connector closed")

// mimeTypes maps recognised extensions to the MIME type used for
// normaliser dispatch. Files with any other extension are skipped.
var mimeTypes = map[string]string{
	".pdf":      "application/pdf",
	".txt":      "text/plain",
	".md":       "text/markdown",
	".markdown": "text/markdown",
}

// Connector reads documents from a directory tree.
type Connector struct {
	rootPath string

	mu      sync.Mutex
	watcher *fsnotify.Watcher
	closed  bool
}

// New creates a connector rooted at rootPath. file:// URIs are accepted.
func New(rootPath string) *Connector {
	return &Connector{rootPath: LocalPath(rootPath)}
}

// Type returns the connector type identifier.
func (c *Connector) Type() string {
	return ConnectorType
}

// RootPath returns the collection root.
func (c *Connector) RootPath() string {
	return c.rootPath
}

// Validate checks that the root exists and is a directory.
func (c *Connector) Validate(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	info, err := os.Stat(c.rootPath)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s does not exist", domain.ErrCorpusNotFound, c.rootPath)
		}
		return fmt.Errorf("stat %s: %w", c.rootPath, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: %s is not a directory", domain.ErrCorpusNotFound, c.rootPath)
	}
	return nil
}

// FullSync walks the tree in lexical order and emits every recognised file.
// Both channels are closed when the walk ends. A failure to read one file
// is reported on the error channel and the walk continues.
func (c *Connector) FullSync(ctx context.Context) (<-chan domain.RawDocument, <-chan error) {
	docs := make(chan domain.RawDocument)
	errs := make(chan error, 1)

	go func() {
		defer close(docs)
		defer close(errs)

		if err := c.Validate(ctx); err != nil {
			errs <- err
			return
		}

		walkErr := filepath.WalkDir(c.rootPath, func(path string, d fs.DirEntry, err error) error {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			if err != nil {
				if path == c.rootPath {
					return err
				}
				return send(ctx, errs, fmt.Errorf("walk %s: %w", path, err))
			}
			if path != c.rootPath && isHidden(d.Name()) {
				if d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
			if d.IsDir() {
				return nil
			}

			mimeType := detectMIMEType(path)
			if mimeType == "" {
				logger.Debug("Skipping unsupported file %s", path)
				return nil
			}

			doc, err := readDocument(path, mimeType)
			if err != nil {
				return send(ctx, errs, err)
			}

			select {
			case docs <- *doc:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		})
		if walkErr != nil {
			select {
			case errs <- walkErr:
			case <-ctx.Done():
			}
		}
	}()

	return docs, errs
}

// Watch reports file changes under the root until ctx is cancelled or the
// connector is closed. New subdirectories are watched as they appear.
func (c *Connector) Watch(ctx context.Context) (<-chan domain.RawDocumentChange, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil, ErrClosed
	}
	if err := c.Validate(ctx); err != nil {
		return nil, err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := addTree(watcher, c.rootPath); err != nil {
		watcher.Close()
		return nil, err
	}
	if c.watcher != nil {
		c.watcher.Close()
	}
	c.watcher = watcher

	changes := make(chan domain.RawDocumentChange)
	go func() {
		defer close(changes)
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Has(fsnotify.Create) && isDir(event.Name) && !isHidden(filepath.Base(event.Name)) {
					if err := addTree(watcher, event.Name); err != nil {
						logger.Warn("Failed to watch %s: %v", event.Name, err)
					}
					continue
				}
				change := c.handleFsEvent(event)
				if change == nil {
					continue
				}
				select {
				case changes <- *change:
				case <-ctx.Done():
					return
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Warn("Watcher error: %v", err)
			}
		}
	}()

	return changes, nil
}

// Close stops any active watcher. It is safe to call more than once.
func (c *Connector) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.closed = true
	if c.watcher == nil {
		return nil
	}
	err := c.watcher.Close()
	c.watcher = nil
	return err
}

// handleFsEvent converts an fsnotify event into a document change.
// Returns nil for events that do not affect a recognised file.
func (c *Connector) handleFsEvent(event fsnotify.Event) *domain.RawDocumentChange {
	rel, err := filepath.Rel(c.rootPath, event.Name)
	if err != nil || isHidden(rel) {
		return nil
	}
	mimeType := detectMIMEType(event.Name)
	if mimeType == "" {
		return nil
	}

	switch {
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		return &domain.RawDocumentChange{
			Type: domain.ChangeDeleted,
			Document: domain.RawDocument{
				URI:      event.Name,
				MIMEType: mimeType,
			},
		}
	case event.Has(fsnotify.Create), event.Has(fsnotify.Write):
		if isDir(event.Name) {
			return nil
		}
		doc, err := readDocument(event.Name, mimeType)
		if err != nil {
			logger.Debug("Skipping change for %s: %v", event.Name, err)
			return nil
		}
		changeType := domain.ChangeUpdated
		if event.Has(fsnotify.Create) {
			changeType = domain.ChangeCreated
		}
		return &domain.RawDocumentChange{Type: changeType, Document: *doc}
	default:
		return nil
	}
}

func readDocument(path, mimeType string) (*domain.RawDocument, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return &domain.RawDocument{
		URI:      path,
		MIMEType: mimeType,
		Content:  content,
		Metadata: map[string]any{
			domain.MetaFilename: filepath.Base(path),
			domain.MetaSource:   path,
			"extension":         strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), "."),
			"size":              info.Size(),
			"modified":          info.ModTime(),
		},
	}, nil
}

// addTree watches dir and every non-hidden directory below it.
func addTree(watcher *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != dir && isHidden(d.Name()) {
			return filepath.SkipDir
		}
		if err := watcher.Add(path); err != nil {
			return fmt.Errorf("watch %s: %w", path, err)
		}
		return nil
	})
}

// send delivers a per-file error without blocking the walk forever.
func send(ctx context.Context, errs chan<- error, err error) error {
	select {
	case errs <- err:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// detectMIMEType returns the MIME type for a recognised extension, or "".
func detectMIMEType(path string) string {
	return mimeTypes[strings.ToLower(filepath.Ext(path))]
}

// isHidden reports whether any element of path starts with a dot.
// "." and ".." are not hidden.
func isHidden(path string) bool {
	for _, part := range strings.Split(filepath.ToSlash(path), "/") {
		if part != "." && part != ".." && strings.HasPrefix(part, ".") {
			return true
		}
	}
	return false
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// Factory creates filesystem connectors.
type Factory struct{}

// Ensure Factory implements the interface.
var _ driven.ConnectorFactory = Factory{}

// Create returns a connector rooted at root.
func (Factory) Create(root string) (driven.Connector, error) {
	return New(root), nil
}
