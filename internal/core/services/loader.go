package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/custodia-labs/normrag/internal/core/domain"
	"github.com/custodia-labs/normrag/internal/core/ports/driven"
	"github.com/custodia-labs/normrag/internal/logger"
)

// Loader reads every recognised file under a corpus root into documents.
type Loader struct {
	connectors driven.ConnectorFactory
	registry   driven.NormaliserRegistry
}

// NewLoader creates a loader.
func NewLoader(connectors driven.ConnectorFactory, registry driven.NormaliserRegistry) *Loader {
	return &Loader{
		connectors: connectors,
		registry:   registry,
	}
}

// Load walks root and normalises each file. A file that cannot be read or
// normalised is logged, recorded in the result and skipped. Only a missing
// root or a cancelled context fails the whole load. An empty result is valid.
func (l *Loader) Load(ctx context.Context, root string) (*domain.LoadResult, error) {
	connector, err := l.connectors.Create(root)
	if err != nil {
		return nil, fmt.Errorf("create connector: %w", err)
	}
	defer connector.Close()

	if err := connector.Validate(ctx); err != nil {
		return nil, err
	}

	logger.Section("Loading " + root)

	result := &domain.LoadResult{}
	docsCh, errsCh := connector.FullSync(ctx)

	for docsCh != nil || errsCh != nil {
		select {
		case raw, ok := <-docsCh:
			if !ok {
				docsCh = nil
				continue
			}
			normalised, err := l.registry.Normalise(ctx, &raw)
			if err != nil {
				l.fail(result, raw.URI, err)
				continue
			}
			result.Documents = append(result.Documents, normalised.Document)
			logger.Debug("Loaded %s (%d chars)", raw.URI, len([]rune(normalised.Document.Content)))
		case err, ok := <-errsCh:
			if !ok {
				errsCh = nil
				continue
			}
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil, err
			}
			l.fail(result, "", err)
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	logger.Info("Loaded %d documents from %s (%d skipped)", len(result.Documents), root, len(result.Failures))
	return result, nil
}

func (l *Loader) fail(result *domain.LoadResult, path string, err error) {
	if path == "" {
		logger.Warn("Skipping file: %v", err)
	} else {
		logger.Warn("Skipping %s: %v", path, err)
	}
	result.Failures = append(result.Failures, domain.LoadFailure{Path: path, Err: err})
}
