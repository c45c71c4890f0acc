package graph

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/thewheel/research-engine/engine/domain"
)

// Cypher statements. All writes are MERGEs on identity keys; each statement
// runs as a single auto-commit transaction so a project and its edges land
// together.
const (
	saveProjectCypher = `
MERGE (p:Project {url: $url})
SET p.name = $name,
    p.description = $description,
    p.stars = $stars,
    p.primary_language = $language
MERGE (a:Author {username: $author})
MERGE (a)-[:CREATED]->(p)
WITH p
UNWIND $topics AS topic
MERGE (t:Topic {name: topic})
MERGE (p)-[:TAGGED_WITH]->(t)`

	// Same statement without the author block, for records with no owner.
	saveProjectNoAuthorCypher = `
MERGE (p:Project {url: $url})
SET p.name = $name,
    p.description = $description,
    p.stars = $stars,
    p.primary_language = $language
WITH p
UNWIND $topics AS topic
MERGE (t:Topic {name: topic})
MERGE (p)-[:TAGGED_WITH]->(t)`

	linkComponentsCypher = `
MERGE (p:Project {url: $url})
WITH p
UNWIND $components AS component
MERGE (c:Component {name: component.name})
SET c.type = component.type
MERGE (p)-[:USES]->(c)`

	// The second MATCH rebinds projects under a fresh variable so the
	// distinct-component aggregation is explicit.
	blueOceanCypher = `
MATCH (p:Project)-[:TAGGED_WITH]->(t:Topic)
WITH t, count(DISTINCT p) AS project_count
WHERE project_count >= 2
MATCH (q:Project)-[:TAGGED_WITH]->(t)
OPTIONAL MATCH (q)-[:USES]->(c:Component)
WITH t, project_count, count(DISTINCT c) AS component_count
RETURN t.name AS topic,
       project_count,
       component_count,
       toFloat(project_count) / (component_count + 1) AS blue_ocean_score
ORDER BY blue_ocean_score DESC
LIMIT 5`

	landscapeCypher = `
MATCH (n)
OPTIONAL MATCH (n)-[r]->(m)
RETURN collect(DISTINCT {id: id(n), name: n.name, type: labels(n)[0], url: n.url}) AS nodes,
       collect(DISTINCT {source: id(n), target: id(m), type: type(r)}) AS links`
)

// result is the minimal interface needed from a neo4j result.
type result interface {
	Next(ctx context.Context) bool
	Record() *neo4j.Record
	Err() error
}

// runner is the minimal interface needed from a neo4j session.
type runner interface {
	Run(ctx context.Context, cypher string, params map[string]any) (result, error)
	Close(ctx context.Context) error
}

// neo4jSessionAdapter adapts neo4j.SessionWithContext to the runner interface.
type neo4jSessionAdapter struct {
	sess neo4j.SessionWithContext
}

func (a *neo4jSessionAdapter) Run(ctx context.Context, cypher string, params map[string]any) (result, error) {
	return a.sess.Run(ctx, cypher, params)
}

func (a *neo4jSessionAdapter) Close(ctx context.Context) error {
	return a.sess.Close(ctx)
}

// Neo4jStore implements Store against a live Neo4j backend.
type Neo4jStore struct {
	driver     neo4j.DriverWithContext
	newSession func(ctx context.Context) runner // for testing
}

// NewNeo4j creates a Store bound to an existing driver. The caller owns the
// driver lifecycle.
func NewNeo4j(driver neo4j.DriverWithContext) *Neo4jStore {
	return &Neo4jStore{driver: driver}
}

var _ Store = (*Neo4jStore)(nil)

func (s *Neo4jStore) session(ctx context.Context) (runner, error) {
	if s.newSession != nil {
		return s.newSession(ctx), nil
	}
	if s.driver == nil {
		return nil, domain.ErrNotInitialized
	}
	return &neo4jSessionAdapter{sess: s.driver.NewSession(ctx, neo4j.SessionConfig{})}, nil
}

// SaveProject merges the project node, its author, and its topics.
func (s *Neo4jStore) SaveProject(ctx context.Context, p domain.Project) error {
	sess, err := s.session(ctx)
	if err != nil {
		return err
	}
	defer sess.Close(ctx)

	cypher := saveProjectCypher
	params := saveProjectParams(p)
	if p.Author == "" {
		cypher = saveProjectNoAuthorCypher
		delete(params, "author")
	}
	if _, err := sess.Run(ctx, cypher, params); err != nil {
		return fmt.Errorf("save project %q: %w", p.URL, err)
	}
	return nil
}

// LinkComponents merges components and their USES edges from the project.
func (s *Neo4jStore) LinkComponents(ctx context.Context, projectURL string, comps []domain.Component) error {
	if len(comps) == 0 {
		return nil
	}
	sess, err := s.session(ctx)
	if err != nil {
		return err
	}
	defer sess.Close(ctx)

	if _, err := sess.Run(ctx, linkComponentsCypher, map[string]any{
		"url":        projectURL,
		"components": componentsParam(comps),
	}); err != nil {
		return fmt.Errorf("link components for %q: %w", projectURL, err)
	}
	return nil
}

// BlueOceans runs the scoring query and collects ranked rows.
func (s *Neo4jStore) BlueOceans(ctx context.Context) ([]domain.Ocean, error) {
	sess, err := s.session(ctx)
	if err != nil {
		return nil, err
	}
	defer sess.Close(ctx)

	res, err := sess.Run(ctx, blueOceanCypher, nil)
	if err != nil {
		return nil, fmt.Errorf("blue ocean scan: %w", err)
	}

	var oceans []domain.Ocean
	for res.Next(ctx) {
		rec := res.Record()
		oceans = append(oceans, domain.Ocean{
			Topic:          stringField(rec, "topic"),
			ProjectCount:   intField(rec, "project_count"),
			ComponentCount: intField(rec, "component_count"),
			Score:          floatField(rec, "blue_ocean_score"),
		})
	}
	return oceans, res.Err()
}

// Landscape collects every node plus every link whose target resolved.
func (s *Neo4jStore) Landscape(ctx context.Context) ([]domain.Node, []domain.Link, error) {
	sess, err := s.session(ctx)
	if err != nil {
		return nil, nil, err
	}
	defer sess.Close(ctx)

	res, err := sess.Run(ctx, landscapeCypher, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("landscape query: %w", err)
	}
	if !res.Next(ctx) {
		if err := res.Err(); err != nil {
			return nil, nil, err
		}
		return nil, nil, nil
	}
	rec := res.Record()

	var nodes []domain.Node
	if raw, ok := rec.Get("nodes"); ok {
		if list, ok := raw.([]any); ok {
			for _, item := range list {
				m, ok := item.(map[string]any)
				if !ok {
					continue
				}
				nodes = append(nodes, domain.Node{
					ID:   int64Val(m["id"]),
					Name: strVal(m["name"]),
					Type: strVal(m["type"]),
					URL:  strVal(m["url"]),
				})
			}
		}
	}

	var links []domain.Link
	if raw, ok := rec.Get("links"); ok {
		if list, ok := raw.([]any); ok {
			for _, item := range list {
				m, ok := item.(map[string]any)
				if !ok {
					continue
				}
				// OPTIONAL MATCH leaves unmatched rows with a null target.
				if m["target"] == nil {
					continue
				}
				links = append(links, domain.Link{
					Source: int64Val(m["source"]),
					Target: int64Val(m["target"]),
					Type:   strVal(m["type"]),
				})
			}
		}
	}
	return nodes, links, nil
}

// --- parameter and record helpers ---

func saveProjectParams(p domain.Project) map[string]any {
	topics := make([]any, len(p.Topics))
	for i, t := range p.Topics {
		topics[i] = t
	}
	return map[string]any{
		"url":         p.URL,
		"name":        p.Name,
		"description": p.Description,
		"stars":       p.Stars,
		"language":    p.Language,
		"author":      p.Author,
		"topics":      topics,
	}
}

func componentsParam(comps []domain.Component) []any {
	out := make([]any, len(comps))
	for i, c := range comps {
		out[i] = map[string]any{"name": c.Name, "type": c.Type}
	}
	return out
}

func stringField(rec *neo4j.Record, key string) string {
	if v, ok := rec.Get(key); ok {
		return strVal(v)
	}
	return ""
}

func intField(rec *neo4j.Record, key string) int {
	if v, ok := rec.Get(key); ok {
		return int(int64Val(v))
	}
	return 0
}

func floatField(rec *neo4j.Record, key string) float64 {
	if v, ok := rec.Get(key); ok {
		switch n := v.(type) {
		case float64:
			return n
		case int64:
			return float64(n)
		}
	}
	return 0
}

func strVal(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

func int64Val(v any) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case int:
		return int64(n)
	case float64:
		return int64(n)
	}
	return 0
}
