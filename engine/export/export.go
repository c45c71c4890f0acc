// Package export serializes the knowledge graph for the D3 visualization.
// The output is a JS assignment rather than plain JSON so the page can be
// opened straight from disk without tripping browser CORS rules.
package export

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/thewheel/research-engine/engine/domain"
	"github.com/thewheel/research-engine/engine/graph"
)

// graphData is the shape consumed by the visualization.
type graphData struct {
	Nodes []domain.Node `json:"nodes"`
	Links []domain.Link `json:"links"`
}

// Landscape writes the full graph to path as `const graphData = {...};`.
// Links with unresolved targets are already filtered by the store.
func Landscape(ctx context.Context, store graph.Store, path string, log *slog.Logger) error {
	if log == nil {
		log = slog.Default()
	}

	nodes, links, err := store.Landscape(ctx)
	if err != nil {
		return fmt.Errorf("landscape query: %w", err)
	}
	if nodes == nil {
		nodes = []domain.Node{}
	}
	if links == nil {
		links = []domain.Link{}
	}

	data, err := json.MarshalIndent(graphData{Nodes: nodes, Links: links}, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal landscape: %w", err)
	}

	out := append([]byte("const graphData = "), data...)
	out = append(out, ';')
	if err := os.WriteFile(path, out, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}

	log.Info("landscape exported", "path", path, "nodes", len(nodes), "links", len(links))
	return nil
}
