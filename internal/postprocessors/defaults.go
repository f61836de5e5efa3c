package postprocessors

import (
	"fmt"
	"strconv"

	"github.com/custodia-labs/normrag/internal/core/ports/driven"
	"github.com/custodia-labs/normrag/internal/postprocessors/chunker"
	"github.com/custodia-labs/normrag/internal/postprocessors/sections"
)

// Processor names used in pipeline configs.
const (
	ChunkerName  = "chunker"
	SectionsName = "sections"
)

// RegisterDefaults registers the chunker and the section annotator.
func RegisterDefaults(r *Registry) {
	r.Register(ChunkerName, buildChunker)
	r.Register(SectionsName, buildSections)
}

// buildChunker reads chunk_size and overlap, both in characters.
// Missing keys keep the chunker defaults.
func buildChunker(cfg map[string]any) (driven.PostProcessor, error) {
	var opts []chunker.Option

	size, ok, err := intOption(cfg, "chunk_size")
	if err != nil {
		return nil, err
	}
	if ok {
		if size <= 0 {
			return nil, fmt.Errorf("chunk_size must be positive, got %d", size)
		}
		opts = append(opts, chunker.WithChunkSize(size))
	}

	overlap, ok, err := intOption(cfg, "overlap")
	if err != nil {
		return nil, err
	}
	if ok {
		if overlap < 0 {
			return nil, fmt.Errorf("overlap must not be negative, got %d", overlap)
		}
		opts = append(opts, chunker.WithOverlap(overlap))
	}

	return chunker.New(opts...), nil
}

func buildSections(_ map[string]any) (driven.PostProcessor, error) {
	return sections.New(), nil
}

// intOption reads an integer that may have been decoded from TOML, JSON
// or an environment variable.
func intOption(cfg map[string]any, key string) (int, bool, error) {
	val, ok := cfg[key]
	if !ok {
		return 0, false, nil
	}

	switch v := val.(type) {
	case int:
		return v, true, nil
	case int64:
		return int(v), true, nil
	case float64:
		return int(v), true, nil
	case string:
		n, err := strconv.Atoi(v)
		if err != nil {
			return 0, false, fmt.Errorf("%s: %q is not an integer", key, v)
		}
		return n, true, nil
	default:
		return 0, false, fmt.Errorf("%s: unsupported value type %T", key, val)
	}
}
