package mcp

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/normrag/internal/core/domain"
)

// Tool names.
const (
	toolSearchNorms     = "search_norms"
	toolGenerateTT      = "generate_tt"
	toolRetrieveContext = "retrieve_context"
)

// AskInput is the input schema for the search_norms and generate_tt tools.
type AskInput struct {
	Query     string `json:"query" jsonschema:"the question or requirement request, in Russian"`
	SessionID string `json:"session_id,omitempty" jsonschema:"chat session to continue; a new session is started when empty"`
}

// AskOutput is the output schema for the search_norms and generate_tt tools.
type AskOutput struct {
	Answer    string         `json:"answer"`
	Mode      string         `json:"mode"`
	SessionID string         `json:"session_id"`
	IsError   bool           `json:"is_error,omitempty"`
	TimedOut  bool           `json:"timed_out,omitempty"`
	Sources   []SourceOutput `json:"sources,omitempty"`
}

// SourceOutput names a document that contributed context.
type SourceOutput struct {
	Document string   `json:"document"`
	Sections []string `json:"sections,omitempty"`
}

// ContextInput is the input schema for the retrieve_context tool.
type ContextInput struct {
	Query string `json:"query" jsonschema:"the query to retrieve context for"`
	Mode  string `json:"mode,omitempty" jsonschema:"auto, search or tt (default auto)"`
}

// ContextOutput is the output schema for the retrieve_context tool.
type ContextOutput struct {
	Mode    string `json:"mode"`
	Context string `json:"context"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        toolSearchNorms,
		Description: "Answer a question strictly from the indexed regulatory documents, citing documents and sections",
	}, s.handleSearchNorms)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        toolGenerateTT,
		Description: "Draft technical requirements from the reference TT documents and the regulatory corpus",
	}, s.handleGenerateTT)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        toolRetrieveContext,
		Description: "Return the formatted context block retrieved for a query, without generating an answer",
	}, s.handleRetrieveContext)
}

func (s *Server) handleSearchNorms(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AskInput,
) (*mcp.CallToolResult, AskOutput, error) {
	return s.ask(ctx, input, domain.UIModeSearch)
}

func (s *Server) handleGenerateTT(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AskInput,
) (*mcp.CallToolResult, AskOutput, error) {
	return s.ask(ctx, input, domain.UIModeTT)
}

// ask runs one chat turn in a fixed mode. Error replies are returned as
// output so the assistant sees the user-facing message.
func (s *Server) ask(ctx context.Context, input AskInput, ui domain.UIMode) (*mcp.CallToolResult, AskOutput, error) {
	reply, err := s.ports.Chat.Ask(ctx, input.SessionID, input.Query, ui)
	if err != nil {
		return nil, AskOutput{}, err
	}

	output := AskOutput{
		Answer:    reply.Content,
		Mode:      reply.Mode.String(),
		SessionID: reply.SessionID,
		IsError:   reply.IsError,
		TimedOut:  reply.TimedOut,
	}
	for _, src := range reply.Sources {
		output.Sources = append(output.Sources, SourceOutput{
			Document: src.Filename,
			Sections: src.Sections,
		})
	}
	return nil, output, nil
}

func (s *Server) handleRetrieveContext(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ContextInput,
) (*mcp.CallToolResult, ContextOutput, error) {
	ui := domain.UIModeAuto
	if input.Mode != "" {
		ui = domain.UIMode(input.Mode)
	}
	if !ui.IsValid() {
		return nil, ContextOutput{}, fmt.Errorf("%w: unknown mode %q", domain.ErrInvalidInput, input.Mode)
	}

	mode, block, err := s.ports.Chat.Context(ctx, input.Query, ui)
	if err != nil {
		return nil, ContextOutput{}, err
	}
	return nil, ContextOutput{Mode: mode.String(), Context: block}, nil
}
