package research

import (
	"context"
	"errors"
	"testing"

	"github.com/thewheel/research-engine/engine/domain"
	"github.com/thewheel/research-engine/engine/graph"
	"github.com/thewheel/research-engine/engine/source"
)

// stubSearcher returns canned projects.
type stubSearcher struct {
	projects []domain.Project
	err      error
	calls    int
}

func (s *stubSearcher) Search(context.Context, string, source.Filters) ([]domain.Project, error) {
	s.calls++
	return s.projects, s.err
}

// failStore errors on the first write operation.
type failStore struct {
	graph.Store
	saveErr error
}

func (s *failStore) SaveProject(context.Context, domain.Project) error { return s.saveErr }

func webProjects() []domain.Project {
	return []domain.Project{
		{
			Name:        "django/django",
			URL:         "https://github.com/django/django",
			Description: "Web framework with auth and a database ORM",
			Stars:       76000,
			Author:      "django",
			Language:    "python",
			Topics:      []string{"web"},
		},
		{
			Name:        "gin-gonic/gin",
			URL:         "https://github.com/gin-gonic/gin",
			Description: "HTTP api framework",
			Stars:       75000,
			Author:      "gin-gonic",
			Language:    "go",
			Topics:      []string{"web"},
		},
	}
}

func TestRunEmptyQuery(t *testing.T) {
	svc := New(Deps{Source: &stubSearcher{}, Store: graph.NewMemory()})
	if _, err := svc.Run(context.Background(), Request{Query: "   "}); !errors.Is(err, ErrEmptyQuery) {
		t.Fatalf("got %v, want ErrEmptyQuery", err)
	}
}

func TestRunIngestsAndScores(t *testing.T) {
	store := graph.NewMemory()
	svc := New(Deps{Source: &stubSearcher{projects: webProjects()}, Store: store})

	report, err := svc.Run(context.Background(), Request{Query: "web"})
	if err != nil {
		t.Fatal(err)
	}
	if report.RunID == "" {
		t.Error("missing run id")
	}
	if report.Query != "web" {
		t.Errorf("query = %q", report.Query)
	}
	if report.ProjectsIngested != 2 || len(report.Projects) != 2 {
		t.Fatalf("ingested = %d, projects = %d", report.ProjectsIngested, len(report.Projects))
	}

	// Components were extracted before persisting.
	django := report.Projects[0]
	if len(django.Components) == 0 {
		t.Fatal("expected components extracted for django")
	}
	if django.Components[0].Name != "Database Layer" {
		t.Errorf("first django component = %q", django.Components[0].Name)
	}

	// Both projects share the web topic, so the scan finds one ocean.
	if len(report.Oceans) != 1 || report.Oceans[0].Topic != "web" {
		t.Fatalf("oceans = %+v", report.Oceans)
	}
	if report.Oceans[0].ProjectCount != 2 {
		t.Errorf("ocean project count = %d", report.Oceans[0].ProjectCount)
	}
}

func TestRunIsIdempotent(t *testing.T) {
	store := graph.NewMemory()
	src := &stubSearcher{projects: webProjects()}
	svc := New(Deps{Source: src, Store: store})

	if _, err := svc.Run(context.Background(), Request{Query: "web"}); err != nil {
		t.Fatal(err)
	}
	nodes1, links1, _ := store.Landscape(context.Background())

	if _, err := svc.Run(context.Background(), Request{Query: "web"}); err != nil {
		t.Fatal(err)
	}
	nodes2, links2, _ := store.Landscape(context.Background())

	if len(nodes1) != len(nodes2) || len(links1) != len(links2) {
		t.Fatalf("second run grew the graph: %d/%d nodes, %d/%d links",
			len(nodes1), len(nodes2), len(links1), len(links2))
	}
}

func TestRunAppliesLimit(t *testing.T) {
	store := graph.NewMemory()
	svc := New(Deps{Source: &stubSearcher{projects: webProjects()}, Store: store})

	report, err := svc.Run(context.Background(), Request{Query: "web", Limit: 1})
	if err != nil {
		t.Fatal(err)
	}
	if report.ProjectsIngested != 1 {
		t.Fatalf("ingested = %d, want 1", report.ProjectsIngested)
	}
}

func TestRunSearchFailureAborts(t *testing.T) {
	svc := New(Deps{
		Source: &stubSearcher{err: errors.New("boom")},
		Store:  graph.NewMemory(),
	})
	if _, err := svc.Run(context.Background(), Request{Query: "web"}); err == nil {
		t.Fatal("expected error")
	}
}

func TestRunStoreFailureAborts(t *testing.T) {
	saveErr := errors.New("neo4j down")
	svc := New(Deps{
		Source: &stubSearcher{projects: webProjects()},
		Store:  &failStore{Store: graph.NewMemory(), saveErr: saveErr},
	})
	_, err := svc.Run(context.Background(), Request{Query: "web"})
	if !errors.Is(err, saveErr) {
		t.Fatalf("got %v, want wrapped store error", err)
	}
}

func TestRunRejectsInvalidProject(t *testing.T) {
	svc := New(Deps{
		Source: &stubSearcher{projects: []domain.Project{{Name: "no-url"}}},
		Store:  graph.NewMemory(),
	})
	_, err := svc.Run(context.Background(), Request{Query: "web"})
	if !errors.Is(err, domain.ErrMissingURL) {
		t.Fatalf("got %v, want ErrMissingURL", err)
	}
}
