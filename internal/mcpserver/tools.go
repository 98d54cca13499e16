package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/dshills/docassist/internal/rag"
	"github.com/dshills/docassist/pkg/types"
)

// MCP error codes
const (
	ErrorCodeInvalidParams     = -32602 // Invalid method parameters
	ErrorCodeInternalError     = -32603 // Internal JSON-RPC error
	ErrorCodeIngestInProgress  = -32001 // Another write operation is already running
	ErrorCodeEmptyQuestion     = -32002 // Question parameter is empty
	ErrorCodeInputTooLarge     = -32003 // Source file exceeds the analysis size limit
	ErrorCodeUnsupportedFormat = -32004 // File format is not supported
)

// handleIngestDocuments handles the ingest_documents tool invocation.
func (s *Server) handleIngestDocuments(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	rawPaths, ok := args["paths"].([]interface{})
	if !ok || len(rawPaths) == 0 {
		return nil, newMCPError(ErrorCodeInvalidParams, "paths parameter is required", map[string]interface{}{
			"param":  "paths",
			"reason": "missing or empty",
		})
	}

	files := make([]rag.FileInput, 0, len(rawPaths))
	for _, raw := range rawPaths {
		path, ok := raw.(string)
		if !ok || path == "" {
			return nil, newMCPError(ErrorCodeInvalidParams, "paths must be non-empty strings", nil)
		}
		if err := validateFile(path); err != nil {
			return nil, newMCPError(ErrorCodeInvalidParams, "invalid path", map[string]interface{}{
				"param":  "paths",
				"path":   path,
				"reason": err.Error(),
			})
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, newMCPError(ErrorCodeInternalError, "failed to read file", map[string]interface{}{
				"path":  path,
				"error": err.Error(),
			})
		}
		files = append(files, rag.FileInput{Name: filepath.Base(path), Data: data})
	}

	report, err := s.svc.IngestFiles(ctx, files)
	if err != nil {
		if errors.Is(err, rag.ErrIngestInProgress) {
			return nil, newMCPError(ErrorCodeIngestInProgress, err.Error(), nil)
		}
		return nil, newMCPError(ErrorCodeInternalError, "ingestion failed", map[string]interface{}{
			"error": err.Error(),
		})
	}

	return mcp.NewToolResultText(formatJSON(report)), nil
}

// handleAskQuestion handles the ask_question tool invocation.
func (s *Server) handleAskQuestion(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	question, ok := args["question"].(string)
	if !ok || question == "" {
		return nil, newMCPError(ErrorCodeEmptyQuestion, "question parameter is required and cannot be empty", map[string]interface{}{
			"param":  "question",
			"reason": "missing or empty",
		})
	}

	answer, err := s.svc.Ask(ctx, question)
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "question answering failed", map[string]interface{}{
			"error": err.Error(),
		})
	}

	return mcp.NewToolResultText(formatJSON(answer)), nil
}

// handleGenerateDocs handles the generate_docs tool invocation.
func (s *Server) handleGenerateDocs(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	path, ok := args["path"].(string)
	if !ok || path == "" {
		return nil, newMCPError(ErrorCodeInvalidParams, "path parameter is required", map[string]interface{}{
			"param":  "path",
			"reason": "missing or empty",
		})
	}
	if err := validateFile(path); err != nil {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid path", map[string]interface{}{
			"param":  "path",
			"reason": err.Error(),
		})
	}

	language := getStringDefault(args, "language", "")
	includeSummaries := getBoolDefault(args, "include_summaries", false)

	code, err := os.ReadFile(path)
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "failed to read file", map[string]interface{}{
			"path":  path,
			"error": err.Error(),
		})
	}

	doc, table, err := s.svc.GenerateDocs(ctx, filepath.Base(path), code, language, includeSummaries)
	if err != nil {
		if errors.Is(err, types.ErrInputTooLarge) {
			return nil, newMCPError(ErrorCodeInputTooLarge, err.Error(), map[string]interface{}{
				"path": path,
			})
		}
		return nil, newMCPError(ErrorCodeInternalError, "documentation generation failed", map[string]interface{}{
			"error": err.Error(),
		})
	}

	response := map[string]interface{}{
		"source":       doc.SourceName,
		"language":     table.Language,
		"parse_status": string(table.Status),
		"sections":     doc.Sections,
		"markdown":     doc.Markdown,
	}
	if len(table.Warnings) > 0 {
		response["warnings"] = table.Warnings
	}

	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleKnowledgeBaseStatus handles the knowledge_base_status tool invocation.
func (s *Server) handleKnowledgeBaseStatus(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	stats, err := s.svc.Stats(ctx)
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "failed to read collection state", map[string]interface{}{
			"error": err.Error(),
		})
	}

	suggested, err := s.svc.SuggestedQuestions(ctx)
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "failed to build suggestions", map[string]interface{}{
			"error": err.Error(),
		})
	}

	response := map[string]interface{}{
		"collection":          stats.Collection,
		"chunk_count":         stats.ChunkCount,
		"sources":             stats.Sources,
		"embedding_dimension": stats.Dimension,
	}
	if len(suggested) > 0 {
		response["suggested_questions"] = suggested
	}

	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleResetCollection handles the reset_collection tool invocation.
func (s *Server) handleResetCollection(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	if confirm, _ := args["confirm"].(bool); !confirm {
		return nil, newMCPError(ErrorCodeInvalidParams, "confirm must be true to reset the collection", map[string]interface{}{
			"param": "confirm",
		})
	}

	if err := s.svc.ResetCollection(ctx); err != nil {
		if errors.Is(err, rag.ErrIngestInProgress) {
			return nil, newMCPError(ErrorCodeIngestInProgress, err.Error(), nil)
		}
		return nil, newMCPError(ErrorCodeInternalError, "reset failed", map[string]interface{}{
			"error": err.Error(),
		})
	}

	return mcp.NewToolResultText(formatJSON(map[string]interface{}{
		"reset": true,
	})), nil
}

// Helper functions

// newMCPError creates a properly formatted MCP error.
func newMCPError(code int, message string, data interface{}) error {
	return &MCPError{
		Code:    code,
		Message: message,
		Data:    data,
	}
}

// MCPError represents an MCP protocol error.
type MCPError struct {
	Code    int
	Message string
	Data    interface{}
}

func (e *MCPError) Error() string {
	return fmt.Sprintf("MCP error %d: %s", e.Code, e.Message)
}

// validateFile checks that a path names a readable regular file.
func validateFile(path string) error {
	if !filepath.IsAbs(path) {
		return ErrPathNotAbsolute
	}
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return ErrPathNotFound
	}
	if err != nil {
		return ErrPathNotReadable
	}
	if info.IsDir() {
		return ErrPathIsDirectory
	}
	return nil
}

// formatJSON formats a response value as indented JSON.
func formatJSON(data interface{}) string {
	bytes, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", data)
	}
	return string(bytes)
}

// getBoolDefault extracts a boolean parameter with a default value.
func getBoolDefault(args map[string]interface{}, key string, defaultValue bool) bool {
	if val, ok := args[key].(bool); ok {
		return val
	}
	return defaultValue
}

// getStringDefault extracts a string parameter with a default value.
func getStringDefault(args map[string]interface{}, key string, defaultValue string) string {
	if val, ok := args[key].(string); ok {
		return val
	}
	return defaultValue
}

// Validation helpers

var (
	ErrPathNotAbsolute = errors.New("path must be absolute")
	ErrPathNotFound    = errors.New("path does not exist")
	ErrPathNotReadable = errors.New("path is not readable")
	ErrPathIsDirectory = errors.New("path is a directory, not a file")
)
