// Package source provides adapters for public source-code hosting services.
// An adapter turns a query plus filters into an ordered list of normalized
// project records; the GitHub adapter adds a seeded fallback catalog so the
// pipeline keeps working when the live API is rate-limited or unreachable.
package source

import (
	"context"

	"github.com/thewheel/research-engine/engine/domain"
)

// Searcher is the capability the orchestrator needs from a source adapter.
type Searcher interface {
	Search(ctx context.Context, query string, f Filters) ([]domain.Project, error)
}

// Adapter is the full source-adapter contract: search plus metadata
// normalization from a raw response item.
type Adapter interface {
	Searcher
	ExtractMetadata(raw map[string]any) domain.Project
}

// Filters narrows a search. Zero values mean "no constraint".
type Filters struct {
	Language string `json:"language,omitempty"`
	Stars    string `json:"stars,omitempty"` // ">=N" or "N+"
	Pushed   string `json:"pushed,omitempty"`
	Topic    string `json:"topic,omitempty"`
	Limit    int    `json:"limit,omitempty"`
}
