// Package strategy surfaces under-standardized topics ("blue oceans") from
// the knowledge graph: many projects, few shared components, high score.
package strategy

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/thewheel/research-engine/engine/domain"
	"github.com/thewheel/research-engine/engine/graph"
)

// Advisor runs strategy queries against the graph store.
type Advisor struct {
	store graph.Store
	log   *slog.Logger
}

// New creates an Advisor.
func New(store graph.Store, log *slog.Logger) *Advisor {
	if log == nil {
		log = slog.Default()
	}
	return &Advisor{store: store, log: log}
}

// IdentifyBlueOceans returns up to five topics ranked by
// project_count / (component_count + 1), descending.
func (a *Advisor) IdentifyBlueOceans(ctx context.Context) ([]domain.Ocean, error) {
	oceans, err := a.store.BlueOceans(ctx)
	if err != nil {
		return nil, fmt.Errorf("blue ocean scan: %w", err)
	}
	for _, o := range oceans {
		a.log.Info("blue ocean found",
			"topic", o.Topic,
			"projects", o.ProjectCount,
			"components", o.ComponentCount,
			"score", o.Score,
		)
	}
	return oceans, nil
}
