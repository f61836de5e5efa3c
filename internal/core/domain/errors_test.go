package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestErrors_Existence tests that all error variables exist and are not nil
func TestErrors_Existence(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"ErrNotFound", ErrNotFound},
		{"ErrInvalidInput", ErrInvalidInput},
		{"ErrUnsupportedType", ErrUnsupportedType},
		{"ErrCorpusNotFound", ErrCorpusNotFound},
		{"ErrEmptyCorpus", ErrEmptyCorpus},
		{"ErrIndexMissing", ErrIndexMissing},
		{"ErrBuildInProgress", ErrBuildInProgress},
		{"ErrEmbeddingUnavailable", ErrEmbeddingUnavailable},
		{"ErrLLMUnavailable", ErrLLMUnavailable},
		{"ErrGeneration", ErrGeneration},
		{"ErrTimedOut", ErrTimedOut},
		{"ErrPoolClosed", ErrPoolClosed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotNil(t, tt.err)
			assert.NotEmpty(t, tt.err.Error())
		})
	}
}

// TestErrTimedOut tests the literal timeout sentinel
func TestErrTimedOut(t *testing.T) {
	assert.Equal(t, "timed out", ErrTimedOut.Error())

	wrapped := fmt.Errorf("generate: %w", ErrTimedOut)
	assert.True(t, errors.Is(wrapped, ErrTimedOut))
	assert.False(t, errors.Is(wrapped, ErrGeneration))
}

// TestErrors_Distinct tests that sentinels never match each other
func TestErrors_Distinct(t *testing.T) {
	assert.False(t, errors.Is(ErrEmptyCorpus, ErrCorpusNotFound))
	assert.False(t, errors.Is(ErrIndexMissing, ErrNotFound))
	assert.False(t, errors.Is(ErrEmbeddingUnavailable, ErrLLMUnavailable))
}
