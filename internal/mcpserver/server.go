// Package mcpserver exposes the document Q&A and code documentation
// pipelines as MCP tools over stdio.
package mcpserver

import (
	"context"

	"github.com/mark3labs/mcp-go/server"

	"github.com/dshills/docassist/internal/rag"
)

const (
	// ServerName is the MCP server name.
	ServerName = "docassist"
	// ServerVersion is the current server version.
	ServerVersion = "1.0.0"
)

// Server wraps the MCP server with application dependencies.
type Server struct {
	mcp *server.MCPServer
	svc *rag.Service
}

// NewServer creates an MCP server around an assembled service.
func NewServer(svc *rag.Service) *Server {
	s := &Server{
		mcp: server.NewMCPServer(ServerName, ServerVersion),
		svc: svc,
	}
	s.registerTools()
	return s
}

// Serve starts the MCP server on stdio and blocks until shutdown.
func (s *Server) Serve(ctx context.Context) error {
	defer func() { _ = s.svc.Close() }()
	return server.ServeStdio(s.mcp)
}

// registerTools registers all MCP tools.
func (s *Server) registerTools() {
	s.mcp.AddTool(ingestDocumentsTool(), s.handleIngestDocuments)
	s.mcp.AddTool(askQuestionTool(), s.handleAskQuestion)
	s.mcp.AddTool(generateDocsTool(), s.handleGenerateDocs)
	s.mcp.AddTool(knowledgeBaseStatusTool(), s.handleKnowledgeBaseStatus)
	s.mcp.AddTool(resetCollectionTool(), s.handleResetCollection)
}
