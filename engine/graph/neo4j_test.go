package graph

import (
	"context"
	"strings"
	"testing"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/thewheel/research-engine/engine/domain"
)

// fakeResult replays prepared records.
type fakeResult struct {
	records []*neo4j.Record
	idx     int
	err     error
}

func (r *fakeResult) Next(context.Context) bool {
	if r.idx < len(r.records) {
		r.idx++
		return true
	}
	return false
}

func (r *fakeResult) Record() *neo4j.Record { return r.records[r.idx-1] }
func (r *fakeResult) Err() error            { return r.err }

type capturedCall struct {
	cypher string
	params map[string]any
}

// fakeSession captures Run calls and returns a canned result.
type fakeSession struct {
	calls  []capturedCall
	res    *fakeResult
	runErr error
	closed bool
}

func (s *fakeSession) Run(_ context.Context, cypher string, params map[string]any) (result, error) {
	s.calls = append(s.calls, capturedCall{cypher: cypher, params: params})
	if s.runErr != nil {
		return nil, s.runErr
	}
	if s.res == nil {
		return &fakeResult{}, nil
	}
	return s.res, nil
}

func (s *fakeSession) Close(context.Context) error {
	s.closed = true
	return nil
}

func storeWithSession(sess *fakeSession) *Neo4jStore {
	return &Neo4jStore{newSession: func(context.Context) runner { return sess }}
}

func record(keys []string, values []any) *neo4j.Record {
	return &neo4j.Record{Keys: keys, Values: values}
}

func TestNeo4jSaveProjectParams(t *testing.T) {
	sess := &fakeSession{}
	s := storeWithSession(sess)

	p := domain.Project{
		Name:        "gin-gonic/gin",
		URL:         "https://github.com/gin-gonic/gin",
		Description: "Gin is a HTTP web framework written in Go (Golang).",
		Stars:       75000,
		Author:      "gin-gonic",
		Language:    "go",
		Topics:      []string{"web", "golang"},
	}
	if err := s.SaveProject(context.Background(), p); err != nil {
		t.Fatal(err)
	}
	if len(sess.calls) != 1 {
		t.Fatalf("got %d calls, want 1", len(sess.calls))
	}
	call := sess.calls[0]
	if !strings.Contains(call.cypher, "MERGE (p:Project {url: $url})") {
		t.Errorf("cypher does not merge by url:\n%s", call.cypher)
	}
	if !strings.Contains(call.cypher, "MERGE (a:Author {username: $author})") {
		t.Errorf("cypher missing author merge:\n%s", call.cypher)
	}
	if call.params["url"] != p.URL || call.params["author"] != "gin-gonic" {
		t.Errorf("params = %v", call.params)
	}
	if call.params["stars"] != 75000 {
		t.Errorf("stars param = %v", call.params["stars"])
	}
	topics, ok := call.params["topics"].([]any)
	if !ok || len(topics) != 2 {
		t.Errorf("topics param = %v", call.params["topics"])
	}
	if !sess.closed {
		t.Error("session not closed")
	}
}

func TestNeo4jSaveProjectWithoutAuthor(t *testing.T) {
	sess := &fakeSession{}
	s := storeWithSession(sess)

	p := domain.Project{Name: "x", URL: "https://example.com/x"}
	if err := s.SaveProject(context.Background(), p); err != nil {
		t.Fatal(err)
	}
	call := sess.calls[0]
	if strings.Contains(call.cypher, "Author") {
		t.Errorf("author block present for authorless project:\n%s", call.cypher)
	}
	if _, ok := call.params["author"]; ok {
		t.Error("author param present for authorless project")
	}
}

func TestNeo4jLinkComponents(t *testing.T) {
	sess := &fakeSession{}
	s := storeWithSession(sess)

	comps := []domain.Component{
		{Name: "REST API", Type: domain.TypeInterface},
		{Name: "Database Layer", Type: domain.TypeStorage},
	}
	url := "https://github.com/gin-gonic/gin"
	if err := s.LinkComponents(context.Background(), url, comps); err != nil {
		t.Fatal(err)
	}
	call := sess.calls[0]
	// The project is merged first so the USES edge cannot dangle.
	if !strings.Contains(call.cypher, "MERGE (p:Project {url: $url})") {
		t.Errorf("cypher does not merge project first:\n%s", call.cypher)
	}
	got, ok := call.params["components"].([]any)
	if !ok || len(got) != 2 {
		t.Fatalf("components param = %v", call.params["components"])
	}
	first, _ := got[0].(map[string]any)
	if first["name"] != "REST API" || first["type"] != domain.TypeInterface {
		t.Errorf("component param = %v", first)
	}
}

func TestNeo4jLinkComponentsEmptyIsNoop(t *testing.T) {
	sess := &fakeSession{}
	s := storeWithSession(sess)

	if err := s.LinkComponents(context.Background(), "u", nil); err != nil {
		t.Fatal(err)
	}
	if len(sess.calls) != 0 {
		t.Fatalf("expected no session calls, got %d", len(sess.calls))
	}
}

func TestNeo4jBlueOceans(t *testing.T) {
	keys := []string{"topic", "project_count", "component_count", "blue_ocean_score"}
	sess := &fakeSession{res: &fakeResult{records: []*neo4j.Record{
		record(keys, []any{"machine-learning", int64(3), int64(1), 1.5}),
		record(keys, []any{"web", int64(4), int64(3), 1.0}),
	}}}
	s := storeWithSession(sess)

	oceans, err := s.BlueOceans(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(oceans) != 2 {
		t.Fatalf("got %d oceans, want 2", len(oceans))
	}
	want := domain.Ocean{Topic: "machine-learning", ProjectCount: 3, ComponentCount: 1, Score: 1.5}
	if oceans[0] != want {
		t.Errorf("ocean[0] = %+v, want %+v", oceans[0], want)
	}
	if !strings.Contains(sess.calls[0].cypher, "LIMIT 5") {
		t.Error("ranking query must cap at 5")
	}
}

func TestNeo4jLandscapeFiltersNullTargets(t *testing.T) {
	rec := record([]string{"nodes", "links"}, []any{
		[]any{
			map[string]any{"id": int64(1), "name": "django/django", "type": "Project", "url": "u"},
			map[string]any{"id": int64(2), "name": "web", "type": "Topic", "url": nil},
		},
		[]any{
			map[string]any{"source": int64(1), "target": int64(2), "type": "TAGGED_WITH"},
			// OPTIONAL MATCH row for a node with no outgoing edges.
			map[string]any{"source": int64(2), "target": nil, "type": nil},
		},
	})
	sess := &fakeSession{res: &fakeResult{records: []*neo4j.Record{rec}}}
	s := storeWithSession(sess)

	nodes, links, err := s.Landscape(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(nodes) != 2 {
		t.Fatalf("got %d nodes, want 2", len(nodes))
	}
	if len(links) != 1 {
		t.Fatalf("got %d links, want null-target row dropped: %v", len(links), links)
	}
	if links[0].Type != domain.RelTaggedWith {
		t.Errorf("link type = %q", links[0].Type)
	}
}

func TestNeo4jLandscapeEmptyGraph(t *testing.T) {
	sess := &fakeSession{res: &fakeResult{}}
	s := storeWithSession(sess)

	nodes, links, err := s.Landscape(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if nodes != nil || links != nil {
		t.Fatalf("expected empty result, got %v / %v", nodes, links)
	}
}
