package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	// URIScheme is the custom URI scheme for docqa resources.
	uriScheme = "docqa://"

	sessionURI = uriScheme + "session"
)

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	s.server.AddResource(&mcp.Resource{
		URI:         sessionURI,
		Name:        "session",
		Description: "The ingested documents, chunk count and embedding model of the current session",
		MIMEType:    "application/json",
	}, s.handleSessionResource)
}

// handleSessionResource returns the current document session.
func (s *Server) handleSessionResource(
	_ context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	if req.Params.URI != sessionURI {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	info := s.ports.Document.Current()
	if info.DocumentIDs == nil {
		info.DocumentIDs = []string{}
		info.DocumentNames = []string{}
	}

	data, err := json.MarshalIndent(info, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling session: %w", err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}
