// Package ai provides factory functions for creating AI service adapters.
package ai

import (
	"context"
	"errors"
	"fmt"
	"time"

	ollamaembed "github.com/custodia-labs/normrag/internal/adapters/driven/embedding/ollama"
	openaiembed "github.com/custodia-labs/normrag/internal/adapters/driven/embedding/openai"
	anthropicllm "github.com/custodia-labs/normrag/internal/adapters/driven/llm/anthropic"
	ollamallm "github.com/custodia-labs/normrag/internal/adapters/driven/llm/ollama"
	openaillm "github.com/custodia-labs/normrag/internal/adapters/driven/llm/openai"
	"github.com/custodia-labs/normrag/internal/core/domain"
	"github.com/custodia-labs/normrag/internal/core/ports/driven"
)

// PingTimeout is the maximum time to wait for service connectivity validation.
const PingTimeout = 5 * time.Second

// ErrNotConfigured is returned when a required provider has no usable settings.
var ErrNotConfigured = errors.New("provider not configured")

const (
	embeddingHint = "check that the embedding service is reachable, or fix embedding.* with 'normrag config show'"
	llmHint       = "check that the LLM service is reachable, or fix llm.* with 'normrag config show'"
)

// CreateAndValidateEmbeddingService creates the embedding service and pings it.
// Every failure, including missing configuration, wraps domain.ErrEmbeddingUnavailable.
func CreateAndValidateEmbeddingService(ctx context.Context, settings *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	svc, err := CreateEmbeddingService(settings)
	if err != nil {
		return nil, fmt.Errorf("%w: %w (%s)", domain.ErrEmbeddingUnavailable, err, embeddingHint)
	}
	if svc == nil {
		return nil, fmt.Errorf("%w: %w (%s)", domain.ErrEmbeddingUnavailable, ErrNotConfigured, embeddingHint)
	}

	if err := ping(ctx, svc.Ping); err != nil {
		_ = svc.Close()
		return nil, fmt.Errorf("%w: service unreachable: %w (%s)", domain.ErrEmbeddingUnavailable, err, embeddingHint)
	}
	return svc, nil
}

// CreateAndValidateLLMService creates the LLM service and pings it.
// Every failure, including missing configuration, wraps domain.ErrLLMUnavailable.
func CreateAndValidateLLMService(ctx context.Context, settings *domain.LLMSettings) (driven.LLMService, error) {
	svc, err := CreateLLMService(settings)
	if err != nil {
		return nil, fmt.Errorf("%w: %w (%s)", domain.ErrLLMUnavailable, err, llmHint)
	}
	if svc == nil {
		return nil, fmt.Errorf("%w: %w (%s)", domain.ErrLLMUnavailable, ErrNotConfigured, llmHint)
	}

	if err := ping(ctx, svc.Ping); err != nil {
		_ = svc.Close()
		return nil, fmt.Errorf("%w: service unreachable: %w (%s)", domain.ErrLLMUnavailable, err, llmHint)
	}
	return svc, nil
}

func ping(ctx context.Context, fn func(context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, PingTimeout)
	defer cancel()
	return fn(ctx)
}

// CreateEmbeddingService creates the embedding service named by settings.
// Returns nil if the provider is not configured.
func CreateEmbeddingService(settings *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	if settings == nil {
		return nil, nil
	}
	if settings.Provider == domain.AIProviderAnthropic {
		return nil, errors.New("anthropic does not support embeddings, use ollama or openai")
	}
	if !settings.IsConfigured() {
		return nil, nil
	}

	switch settings.Provider {
	case domain.AIProviderOllama:
		return ollamaembed.NewEmbeddingService(ollamaembed.Config{
			BaseURL:    settings.BaseURL,
			Model:      settings.Model,
			Dimensions: domain.EmbeddingDimensions()[settings.Model],
			RateLimit:  settings.RateLimit,
		}), nil

	case domain.AIProviderOpenAI:
		return openaiembed.NewEmbeddingService(openaiembed.Config{
			APIKey:    settings.APIKey,
			BaseURL:   settings.BaseURL,
			Model:     settings.Model,
			RateLimit: settings.RateLimit,
		})

	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", settings.Provider)
	}
}

// CreateLLMService creates the LLM service named by settings.
// Returns nil if the provider is not configured.
func CreateLLMService(settings *domain.LLMSettings) (driven.LLMService, error) {
	if settings == nil || !settings.IsConfigured() {
		return nil, nil
	}

	switch settings.Provider {
	case domain.AIProviderOllama:
		return ollamallm.NewLLMService(ollamallm.Config{
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		}), nil

	case domain.AIProviderOpenAI:
		return openaillm.NewLLMService(openaillm.Config{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		})

	case domain.AIProviderAnthropic:
		return anthropicllm.NewLLMService(anthropicllm.Config{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		})

	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", settings.Provider)
	}
}
