package mcpserver

import (
	"github.com/mark3labs/mcp-go/mcp"
)

// ingestDocumentsTool returns the tool definition for ingest_documents.
func ingestDocumentsTool() mcp.Tool {
	return mcp.Tool{
		Name:        "ingest_documents",
		Description: "Load documentation files (txt, md, pdf, docx, or source code) into the knowledge base",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"paths": map[string]interface{}{
					"type":        "array",
					"description": "Absolute paths of files to ingest",
					"items": map[string]interface{}{
						"type": "string",
					},
				},
			},
			Required: []string{"paths"},
		},
	}
}

// askQuestionTool returns the tool definition for ask_question.
func askQuestionTool() mcp.Tool {
	return mcp.Tool{
		Name:        "ask_question",
		Description: "Answer a question from the ingested documentation, with cited sources and a confidence band",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"question": map[string]interface{}{
					"type":        "string",
					"description": "The question to answer",
				},
			},
			Required: []string{"question"},
		},
	}
}

// generateDocsTool returns the tool definition for generate_docs.
func generateDocsTool() mcp.Tool {
	return mcp.Tool{
		Name:        "generate_docs",
		Description: "Analyze a source-code file and render structural markdown documentation (classes, functions, endpoints, tests)",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"path": map[string]interface{}{
					"type":        "string",
					"description": "Absolute path of the source file to document",
				},
				"language": map[string]interface{}{
					"type":        "string",
					"description": "Language hint (e.g. python, go, js); inferred from the file extension when omitted",
				},
				"include_summaries": map[string]interface{}{
					"type":        "boolean",
					"description": "If true, ask the generation capability for a one-paragraph summary per symbol",
					"default":     false,
				},
			},
			Required: []string{"path"},
		},
	}
}

// knowledgeBaseStatusTool returns the tool definition for knowledge_base_status.
func knowledgeBaseStatusTool() mcp.Tool {
	return mcp.Tool{
		Name:        "knowledge_base_status",
		Description: "Report the collection name, chunk count, indexed sources, and suggested questions",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}
}

// resetCollectionTool returns the tool definition for reset_collection.
func resetCollectionTool() mcp.Tool {
	return mcp.Tool{
		Name:        "reset_collection",
		Description: "Remove every indexed entry from the knowledge base. Source files are not touched.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"confirm": map[string]interface{}{
					"type":        "boolean",
					"description": "Must be true; guards against accidental resets",
				},
			},
			Required: []string{"confirm"},
		},
	}
}
