package mcp

import (
	"github.com/custodia-labs/normrag/internal/core/domain"
	"github.com/custodia-labs/normrag/internal/core/ports/driving"
)

// IndexStatusReader reports whether a corpus index is persisted.
type IndexStatusReader interface {
	Status(corpus domain.Corpus, persistPath string) domain.IndexStatus
}

// Ports aggregates the driving ports required by the MCP server.
type Ports struct {
	// Chat answers search and TT requests.
	Chat driving.ChatService

	// Indexes backs the index status resource. Optional.
	Indexes IndexStatusReader

	// Corpora locates the indexes reported by the status resource.
	Corpora domain.CorpusSettings
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Chat == nil {
		return ErrMissingChatService
	}
	return nil
}
