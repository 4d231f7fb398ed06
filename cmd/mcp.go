package cmd

import (
	"context"
	"fmt"
	"strings"

	"codeatlas/internal/explain"
	"codeatlas/internal/retrieval"
	"codeatlas/internal/vectorstore"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start an MCP server exposing codebase search and explanation tools",
	RunE:  runMCP,
}

func runMCP(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.log.Sync()

	engine, store, err := a.newRetriever()
	if err != nil {
		return err
	}
	defer store.Close()

	chat, err := a.newChat()
	if err != nil {
		return err
	}
	composer := explain.NewComposer(engine, chat, a.cfg.LLM.Temperature, a.cfg.LLM.MaxTokens, a.log)

	s := mcpserver.NewMCPServer("codeatlas", "1.0.0", mcpserver.WithToolCapabilities(false))

	s.AddTool(searchCodebaseTool(), makeSearchHandler(engine, a.cfg.TopK))
	s.AddTool(explainFunctionTool(), makeExplainHandler(composer))

	return mcpserver.ServeStdio(s)
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}

var readOnlyAnnotation = mcp.ToolAnnotation{
	ReadOnlyHint:    mcp.ToBoolPtr(true),
	DestructiveHint: mcp.ToBoolPtr(false),
	IdempotentHint:  mcp.ToBoolPtr(true),
	OpenWorldHint:   mcp.ToBoolPtr(false),
}

func searchCodebaseTool() mcp.Tool {
	return mcp.NewTool("search_codebase",
		mcp.WithDescription("Semantically search the indexed codebase. Returns file, function definition, and function call chunks relevant to the query."),
		mcp.WithToolAnnotation(readOnlyAnnotation),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Natural language query to search the codebase"),
		),
		mcp.WithNumber("k",
			mcp.Description("Maximum number of chunks to return"),
		),
	)
}

func explainFunctionTool() mcp.Tool {
	return mcp.NewTool("explain_function",
		mcp.WithDescription("Explain a function's purpose, parameters, and call relationships using the indexed codebase and the configured LLM."),
		mcp.WithToolAnnotation(readOnlyAnnotation),
		mcp.WithString("function",
			mcp.Required(),
			mcp.Description("Name of the function to explain"),
		),
	)
}

func makeSearchHandler(engine *retrieval.Engine, defaultTopK int) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		query := req.GetString("query", "")
		if query == "" {
			return mcp.NewToolResultError("query is required"), nil
		}
		k := req.GetInt("k", defaultTopK)

		chunks, err := engine.Retrieve(ctx, query, k)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("search failed: %v", err)), nil
		}
		return mcp.NewToolResultText(formatSearchResults(query, chunks)), nil
	}
}

func makeExplainHandler(composer *explain.Composer) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		name := req.GetString("function", "")
		if name == "" {
			return mcp.NewToolResultError("function is required"), nil
		}

		explanation, err := composer.ExplainFunction(ctx, name)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("explain failed: %v", err)), nil
		}
		return mcp.NewToolResultText(explanation), nil
	}
}

func formatSearchResults(query string, chunks []vectorstore.Metadata) string {
	if len(chunks) == 0 {
		return fmt.Sprintf("No results found for query: %q", query)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "## Search results for %q (%d chunks)\n\n", query, len(chunks))
	for i, c := range chunks {
		fmt.Fprintf(&sb, "### Result %d: `%s`\n\n", i+1, c.Filename)
		fmt.Fprintf(&sb, "**Type:** %s\n\n```\n%s\n```\n\n", c.Type, c.Content)
	}
	return sb.String()
}
