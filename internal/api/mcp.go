package api

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/arpel/helpdesk/internal/recordlog"
)

// MCPDeps holds dependencies for the MCP server.
type MCPDeps struct {
	KB       Searcher
	Records  RecordReader
	Ingestor Ingester
	TopK     int
}

// NewMCPServer creates an MCP server exposing the knowledge base and the
// session record logs as tools and resources.
func NewMCPServer(deps MCPDeps) *server.MCPServer {
	if deps.TopK <= 0 {
		deps.TopK = 5
	}

	s := server.NewMCPServer(
		"helpdesk",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithInstructions("helpdesk — internal support knowledge base and session records."),
		server.WithRecovery(),
	)

	s.AddTool(
		mcp.NewTool("kb_search",
			mcp.WithDescription("Semantically search the support knowledge base and return relevant passages with provenance."),
			mcp.WithString("query", mcp.Description("Search query"), mcp.Required()),
			mcp.WithNumber("limit", mcp.Description("Maximum number of passages (default 5)")),
		),
		mcpKBSearch(deps),
	)

	s.AddTool(
		mcp.NewTool("add_knowledge",
			mcp.WithDescription("Index a piece of support content into the knowledge base."),
			mcp.WithString("source", mcp.Description("Name identifying where the content came from"), mcp.Required()),
			mcp.WithString("content", mcp.Description("The text content to index"), mcp.Required()),
		),
		mcpAddKnowledge(deps),
	)

	s.AddTool(
		mcp.NewTool("list_records",
			mcp.WithDescription("Return all records from a session record collection (faq_sessions, ticket_ai, or ticket_escalations)."),
			mcp.WithString("collection", mcp.Description("Collection name"), mcp.Required()),
		),
		mcpListRecords(deps),
	)

	s.AddResource(
		mcp.NewResource(
			"helpdesk://escalations",
			"Escalated Tickets",
			mcp.WithResourceDescription("All escalation records awaiting team action, as JSON"),
			mcp.WithMIMEType("application/json"),
		),
		mcpResourceEscalations(deps),
	)

	return s
}

func mcpKBSearch(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		query, err := req.RequireString("query")
		if err != nil {
			return mcpError("query is required"), nil
		}

		limit := req.GetInt("limit", deps.TopK)
		if limit <= 0 {
			limit = deps.TopK
		}
		if limit > 50 {
			limit = 50
		}

		passages, err := deps.KB.Search(ctx, query, limit)
		if err != nil {
			return mcpError(fmt.Sprintf("search failed: %v", err)), nil
		}
		if len(passages) == 0 {
			return mcpText("[]"), nil
		}

		type passageResult struct {
			Text   string  `json:"text"`
			Source string  `json:"source"`
			Page   int     `json:"page"`
			Score  float32 `json:"score"`
		}
		results := make([]passageResult, len(passages))
		for i, p := range passages {
			results[i] = passageResult{Text: p.Text, Source: p.Source, Page: p.Page, Score: p.Score}
		}

		b, err := json.Marshal(results)
		if err != nil {
			return mcpError(fmt.Sprintf("failed to marshal results: %v", err)), nil
		}
		return mcpText(string(b)), nil
	}
}

func mcpAddKnowledge(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		source, err := req.RequireString("source")
		if err != nil {
			return mcpError("source is required"), nil
		}
		content, err := req.RequireString("content")
		if err != nil {
			return mcpError("content is required"), nil
		}

		n, err := deps.Ingestor.IngestText(ctx, source, content)
		if err != nil {
			return mcpError(fmt.Sprintf("failed to index: %v", err)), nil
		}
		return mcpText(fmt.Sprintf("Indexed %d chunks from %s", n, source)), nil
	}
}

func mcpListRecords(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		collection, err := req.RequireString("collection")
		if err != nil {
			return mcpError("collection is required"), nil
		}
		if !validCollection(collection) {
			return mcpError(fmt.Sprintf("unknown collection %q", collection)), nil
		}

		records := deps.Records.Read(collection)
		if records == nil {
			return mcpText("[]"), nil
		}

		b, err := json.Marshal(records)
		if err != nil {
			return mcpError(fmt.Sprintf("failed to marshal records: %v", err)), nil
		}
		return mcpText(string(b)), nil
	}
}

func mcpResourceEscalations(deps MCPDeps) server.ResourceHandlerFunc {
	return func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		records := deps.Records.Read(recordlog.CollectionEscalations)
		if records == nil {
			records = []json.RawMessage{}
		}

		b, err := json.Marshal(records)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal escalations: %w", err)
		}

		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      req.Params.URI,
				MIMEType: "application/json",
				Text:     string(b),
			},
		}, nil
	}
}

func mcpText(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

func mcpError(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: msg},
		},
		IsError: true,
	}
}
