// Command wheel-mcp exposes the research engine as an MCP tool over stdio so
// coding agents can ask for a technology landscape without talking HTTP.
// Each call runs against a fresh in-memory graph; the live Neo4j store stays
// behind the API server.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/thewheel/research-engine/engine/graph"
	"github.com/thewheel/research-engine/engine/research"
	"github.com/thewheel/research-engine/engine/source"
)

const version = "1.0.0"

func main() {
	_ = godotenv.Load()

	// Logs go to stderr; stdout belongs to the MCP transport.
	log := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(log)

	s := server.NewMCPServer(
		"wheel-research",
		version,
		server.WithToolCapabilities(true),
		server.WithRecovery(),
	)

	tool := newLandscapeTool(log)
	s.AddTool(tool.Definition(), tool.Handle)

	if err := server.ServeStdio(s); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// landscapeTool handles the research_landscape MCP tool.
type landscapeTool struct {
	log *slog.Logger
}

func newLandscapeTool(log *slog.Logger) *landscapeTool {
	return &landscapeTool{log: log}
}

// Definition returns the MCP tool definition for research_landscape.
func (t *landscapeTool) Definition() mcp.Tool {
	return mcp.NewTool("research_landscape",
		mcp.WithDescription(
			"Research the open-source landscape for a technology area. Searches public "+
				"repositories, extracts architectural components, and reports underexplored "+
				"(blue ocean) topics.",
		),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Search query, e.g. 'web framework' or 'machine learning'"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Max projects to analyze (default: 5)"),
		),
		mcp.WithString("language",
			mcp.Description("Filter by primary language, e.g. 'go' or 'python'"),
		),
	)
}

// Handle processes a research_landscape call.
func (t *landscapeTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query := req.GetString("query", "")
	if query == "" {
		return mcp.NewToolResultError("'query' is required"), nil
	}
	limit := intArg(req, "limit", research.DefaultLimit)
	language := req.GetString("language", "")

	store := graph.NewMemory()
	adapter := source.NewGitHub(
		source.WithToken(os.Getenv("GITHUB_TOKEN")),
		source.WithLogger(t.log),
	)
	svc := research.New(research.Deps{
		Source: adapter,
		Store:  store,
		Logger: t.log,
	})

	report, err := svc.Run(ctx, research.Request{
		Query: query,
		Limit: limit,
		Filters: source.Filters{
			Language: language,
			Limit:    limit,
		},
	})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("research failed: %v", err)), nil
	}

	nodes, links, err := store.Landscape(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("landscape failed: %v", err)), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# Research landscape for %q\n\n", query)
	fmt.Fprintf(&b, "Analyzed %d projects (%d graph nodes, %d links).\n\n", report.ProjectsIngested, len(nodes), len(links))

	fmt.Fprintf(&b, "## Projects\n\n")
	for _, p := range report.Projects {
		fmt.Fprintf(&b, "- **%s** (%d stars", p.Name, p.Stars)
		if p.Language != "" {
			fmt.Fprintf(&b, ", %s", p.Language)
		}
		b.WriteString(")")
		if len(p.Components) > 0 {
			names := make([]string, 0, len(p.Components))
			for _, c := range p.Components {
				names = append(names, c.Name)
			}
			fmt.Fprintf(&b, " — components: %s", strings.Join(names, ", "))
		}
		b.WriteString("\n")
	}

	if len(report.Oceans) > 0 {
		fmt.Fprintf(&b, "\n## Blue oceans\n\n")
		fmt.Fprintf(&b, "Topics with many projects but few distinct components — promising areas to build in:\n\n")
		for _, o := range report.Oceans {
			fmt.Fprintf(&b, "- **%s**: score %.2f (%d projects, %d components)\n",
				o.Topic, o.Score, o.ProjectCount, o.ComponentCount)
		}
	} else {
		b.WriteString("\nNo blue ocean topics found (need at least 2 projects sharing a topic).\n")
	}

	return mcp.NewToolResultText(b.String()), nil
}

// intArg reads a numeric argument; JSON numbers arrive as float64.
func intArg(req mcp.CallToolRequest, key string, def int) int {
	args := req.GetArguments()
	if v, ok := args[key].(float64); ok {
		return int(v)
	}
	return def
}
