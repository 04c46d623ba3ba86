package mcp

import (
	"context"
	"errors"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/extractors"
)

// AskInput is the input schema for the ask tool.
type AskInput struct {
	Question string `json:"question" jsonschema:"the question to answer"`
	Context  string `json:"context,omitempty" jsonschema:"optional context to answer from instead of the ingested documents"`
	TopK     int    `json:"top_k,omitempty" jsonschema:"number of passages to retrieve (default 3)"`
}

// AskOutput is the output schema for the ask tool.
type AskOutput struct {
	Answer            string           `json:"answer"`
	Confidence        float64          `json:"confidence"`
	SupportingContext string           `json:"supporting_context,omitempty"`
	Warnings          []domain.Warning `json:"warnings"`
	Sources           []domain.Source  `json:"sources,omitempty"`
}

// SummarizeInput is the input schema for the summarize tool.
type SummarizeInput struct {
	Text         string `json:"text" jsonschema:"the text to summarise"`
	MaxSentences int    `json:"max_sentences,omitempty" jsonschema:"maximum sentences in the summary (default 5)"`
}

// SummarizeOutput is the output schema for the summarize tool.
type SummarizeOutput struct {
	Summary string `json:"summary"`
}

// IngestInput is the input schema for the ingest_file tool.
type IngestInput struct {
	Paths []string `json:"paths" jsonschema:"local paths of PDF, DOCX, HTML, Markdown or text files"`
}

// IngestOutput is the output schema for the ingest_file tool.
type IngestOutput struct {
	DocumentIDs []string `json:"document_ids"`
	Names       []string `json:"names"`
	Chunks      int      `json:"chunks"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "ask",
		Description: "Answer a question from the ingested documents, with hallucination warnings",
	}, s.handleAsk)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "ingest_file",
		Description: "Replace the current document session with the given local files",
	}, s.handleIngest)

	if s.ports.Summary != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "summarize",
			Description: "Summarise a passage of text",
		}, s.handleSummarize)
	}
}

// handleAsk handles the ask tool invocation.
func (s *Server) handleAsk(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AskInput,
) (*mcp.CallToolResult, AskOutput, error) {
	answer, err := s.ports.QA.Ask(ctx, domain.Query{
		Question: input.Question,
		Context:  input.Context,
		TopK:     input.TopK,
	})
	if err != nil {
		return nil, AskOutput{}, toolError(err)
	}

	output := AskOutput{
		Answer:            answer.Text,
		Confidence:        answer.Confidence,
		SupportingContext: answer.SupportingContext,
		Warnings:          answer.Warnings,
		Sources:           answer.Sources,
	}
	if output.Warnings == nil {
		output.Warnings = []domain.Warning{}
	}
	return nil, output, nil
}

// handleIngest handles the ingest_file tool invocation.
func (s *Server) handleIngest(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input IngestInput,
) (*mcp.CallToolResult, IngestOutput, error) {
	uploads, err := extractors.ReadFiles(s.ports.MaxFileBytes, input.Paths...)
	if err != nil {
		return nil, IngestOutput{}, toolError(err)
	}

	res, err := s.ports.Document.Ingest(ctx, uploads)
	if err != nil {
		return nil, IngestOutput{}, toolError(err)
	}

	output := IngestOutput{
		DocumentIDs: make([]string, len(res.Documents)),
		Names:       make([]string, len(res.Documents)),
		Chunks:      res.ChunkCount,
	}
	for i := range res.Documents {
		output.DocumentIDs[i] = res.Documents[i].ID
		output.Names[i] = res.Documents[i].Name
	}
	return nil, output, nil
}

// handleSummarize handles the summarize tool invocation.
func (s *Server) handleSummarize(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SummarizeInput,
) (*mcp.CallToolResult, SummarizeOutput, error) {
	summary, err := s.ports.Summary.Summarise(ctx, input.Text, input.MaxSentences)
	if err != nil {
		return nil, SummarizeOutput{}, toolError(err)
	}
	return nil, SummarizeOutput{Summary: summary}, nil
}

// toolError reduces err to its client-safe message.
func toolError(err error) error {
	return errors.New(domain.NewRequestError(err).Message)
}
