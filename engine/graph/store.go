// Package graph provides the labeled-property-graph persistence layer for the
// research engine: idempotent project/component writes, the blue-ocean scan,
// and the landscape export query. Two implementations share the Store
// interface: Neo4jStore speaks Cypher against a live backend, MemoryStore is
// an in-process stand-in that keeps tests offline.
package graph

import (
	"context"

	"github.com/thewheel/research-engine/engine/domain"
)

// Store is the typed operation set over the knowledge graph. All write
// operations are merges keyed by identity attributes (Project.url,
// Author.username, Topic.name, Component.name); repeated execution with
// identical input never duplicates nodes or edges.
type Store interface {
	// SaveProject merges the project, its author, and its topics.
	SaveProject(ctx context.Context, p domain.Project) error

	// LinkComponents merges each component and its USES edge from the
	// project. The project itself is merged by url first, so calling this
	// before SaveProject cannot dangle.
	LinkComponents(ctx context.Context, projectURL string, comps []domain.Component) error

	// BlueOceans returns up to five topics ranked by
	// project_count / (distinct component_count + 1), descending.
	// Only topics tagging at least two projects qualify.
	BlueOceans(ctx context.Context) ([]domain.Ocean, error)

	// Landscape returns every node and every link with a resolvable target.
	Landscape(ctx context.Context) ([]domain.Node, []domain.Link, error)
}
