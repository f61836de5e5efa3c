package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/normrag/internal/core/domain"
)

const (
	// uriScheme is the custom URI scheme for normrag resources.
	uriScheme = "normrag://"
)

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "indexes",
		Name:        "indexes",
		Description: "Build status of the normative and TT corpus indexes",
		MIMEType:    "application/json",
	}, s.handleIndexesResource)

	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "sessions",
		Name:        "sessions",
		Description: "Chat sessions, most recently updated first",
		MIMEType:    "application/json",
	}, s.handleSessionsResource)

	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "sessions/{sessionId}",
		Name:        "session-transcript",
		Description: "Transcript of a chat session",
		MIMEType:    "text/plain",
	}, s.handleSessionResource)
}

// indexInfos reports every corpus index, normative first.
func (s *Server) indexInfos() []indexInfo {
	infos := make([]indexInfo, 0, len(domain.AllCorpora()))
	for _, corpus := range domain.AllCorpora() {
		st := s.ports.Indexes.Status(corpus, s.ports.Corpora.Index(corpus))
		info := indexInfo{Corpus: corpus.String(), Path: st.PersistPath, Built: st.Built}
		if st.Manifest != nil {
			info.Documents = st.Manifest.Documents
			info.Chunks = st.Manifest.Chunks
			info.EmbeddingModel = st.Manifest.EmbeddingModel
			builtAt := st.Manifest.BuiltAt
			info.BuiltAt = &builtAt
		}
		infos = append(infos, info)
	}
	return infos
}

type indexInfo struct {
	Corpus         string     `json:"corpus"`
	Path           string     `json:"path"`
	Built          bool       `json:"built"`
	Documents      int        `json:"documents,omitempty"`
	Chunks         int        `json:"chunks,omitempty"`
	EmbeddingModel string     `json:"embedding_model,omitempty"`
	BuiltAt        *time.Time `json:"built_at,omitempty"`
}

// handleIndexesResource reports the status of every corpus index.
func (s *Server) handleIndexesResource(
	_ context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	if s.ports.Indexes == nil {
		return jsonResult(req.Params.URI, "[]"), nil
	}

	infos := s.indexInfos()
	data, err := json.MarshalIndent(infos, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling indexes: %w", err)
	}
	return jsonResult(req.Params.URI, string(data)), nil
}

// handleSessionsResource lists chat sessions.
func (s *Server) handleSessionsResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	sessions, err := s.ports.Chat.Sessions(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing sessions: %w", err)
	}

	type sessionInfo struct {
		ID        string    `json:"id"`
		Title     string    `json:"title"`
		Messages  int       `json:"messages"`
		UpdatedAt time.Time `json:"updated_at"`
	}

	infos := make([]sessionInfo, len(sessions))
	for i := range sessions {
		infos[i] = sessionInfo{
			ID:        sessions[i].ID,
			Title:     sessions[i].Title,
			Messages:  len(sessions[i].Messages),
			UpdatedAt: sessions[i].UpdatedAt,
		}
	}

	data, err := json.MarshalIndent(infos, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling sessions: %w", err)
	}
	return jsonResult(req.Params.URI, string(data)), nil
}

// handleSessionResource returns the transcript of one session.
func (s *Server) handleSessionResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	// normrag://sessions/{sessionId}
	id := extractSessionID(req.Params.URI)
	if id == "" {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	session, err := s.ports.Chat.Session(ctx, id)
	if err != nil {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      req.Params.URI,
			MIMEType: "text/plain",
			Text:     transcript(session),
		}},
	}, nil
}

// transcript renders session messages one block per turn.
func transcript(session *domain.ChatSession) string {
	var b strings.Builder
	b.WriteString(session.Title)
	b.WriteString("\n")
	for _, m := range session.Messages {
		fmt.Fprintf(&b, "\n[%s", m.Role)
		if m.Mode != "" {
			fmt.Fprintf(&b, ", %s", m.Mode)
		}
		b.WriteString("]\n")
		b.WriteString(m.Content)
		b.WriteString("\n")
	}
	return b.String()
}

// extractSessionID extracts the session ID from a URI like normrag://sessions/{sessionId}.
func extractSessionID(uri string) string {
	const prefix = uriScheme + "sessions/"

	if !strings.HasPrefix(uri, prefix) {
		return ""
	}
	id := strings.TrimPrefix(uri, prefix)
	if strings.Contains(id, "/") {
		return ""
	}
	return id
}

func jsonResult(uri, text string) *mcp.ReadResourceResult {
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "application/json",
			Text:     text,
		}},
	}
}
