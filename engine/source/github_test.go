package source

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestBuildQuery(t *testing.T) {
	tests := []struct {
		name    string
		query   string
		filters Filters
		want    string
	}{
		{"bare", "web framework", Filters{}, "web framework"},
		{"language", "web", Filters{Language: "python"}, "web language:python"},
		{"all clauses ordered", "web",
			Filters{Language: "go", Stars: ">=100", Pushed: ">2024-01-01", Topic: "cli"},
			"web language:go stars:>=100 pushed:>2024-01-01 topic:cli"},
		{"limit is not a clause", "web", Filters{Limit: 3}, "web"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := buildQuery(tt.query, tt.filters); got != tt.want {
				t.Errorf("buildQuery = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSearchLive(t *testing.T) {
	var gotReq *http.Request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotReq = r
		json.NewEncoder(w).Encode(map[string]any{
			"items": []map[string]any{
				{
					"full_name":        "gin-gonic/gin",
					"html_url":         "https://github.com/gin-gonic/gin",
					"description":      "Gin is a HTTP web framework written in Go (Golang).",
					"stargazers_count": float64(75000),
					"language":         "Go",
					"owner":            map[string]any{"login": "gin-gonic"},
					"topics":           []any{"web", "golang"},
				},
			},
		})
	}))
	defer srv.Close()

	a := NewGitHub(WithBaseURL(srv.URL), WithToken("tok"))
	got, err := a.Search(context.Background(), "web", Filters{Language: "go", Limit: 3})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d projects, want 1", len(got))
	}
	p := got[0]
	if p.Name != "gin-gonic/gin" || p.Author != "gin-gonic" || p.Language != "go" || p.Stars != 75000 {
		t.Errorf("normalized project = %+v", p)
	}

	q := gotReq.URL.Query()
	if q.Get("q") != "web language:go" {
		t.Errorf("q param = %q", q.Get("q"))
	}
	if q.Get("per_page") != "3" {
		t.Errorf("per_page = %q, want 3", q.Get("per_page"))
	}
	if gotReq.Header.Get("Authorization") != "Bearer tok" {
		t.Errorf("auth header = %q", gotReq.Header.Get("Authorization"))
	}
	if gotReq.Header.Get("Accept") != "application/vnd.github.v3+json" {
		t.Errorf("accept header = %q", gotReq.Header.Get("Accept"))
	}
}

func TestSearchPerPageClamps(t *testing.T) {
	var perPage string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		perPage = r.URL.Query().Get("per_page")
		w.Write([]byte(`{"items":[]}`))
	}))
	defer srv.Close()

	a := NewGitHub(WithBaseURL(srv.URL))
	if _, err := a.Search(context.Background(), "x", Filters{Limit: 500}); err != nil {
		t.Fatal(err)
	}
	if perPage != "100" {
		t.Errorf("per_page = %q, want clamped to 100", perPage)
	}
}

func TestSearchRateLimitFallsBack(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	a := NewGitHub(WithBaseURL(srv.URL))
	got, err := a.Search(context.Background(), "web", Filters{Language: "python"})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].Name != "django/django" {
		t.Fatalf("fallback results = %v, want django/django", names(got))
	}
}

func TestSearchServerErrorFallsBack(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	a := NewGitHub(WithBaseURL(srv.URL))
	got, err := a.Search(context.Background(), "machine", Filters{})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) == 0 {
		t.Fatal("expected catalog fallback results")
	}
}

func TestSearchTransportErrorFallsBack(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {}))
	srv.Close() // connection refused from here on

	a := NewGitHub(WithBaseURL(srv.URL))
	got, err := a.Search(context.Background(), "web", Filters{})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) == 0 {
		t.Fatal("expected catalog fallback results")
	}
}

func TestSearchCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	a := NewGitHub()
	if _, err := a.Search(ctx, "web", Filters{}); err == nil {
		t.Fatal("expected context error, not fallback")
	}
}

func TestExtractMetadata(t *testing.T) {
	a := NewGitHub()

	t.Run("live shape", func(t *testing.T) {
		p := a.ExtractMetadata(map[string]any{
			"full_name":        "pytorch/pytorch",
			"html_url":         "https://github.com/pytorch/pytorch",
			"description":      "Tensors and Dynamic neural networks",
			"stargazers_count": float64(78000),
			"language":         "Python",
			"owner":            map[string]any{"login": "pytorch"},
			"topics":           []any{"machine-learning"},
		})
		if p.Name != "pytorch/pytorch" || p.URL != "https://github.com/pytorch/pytorch" {
			t.Errorf("identity fields = %+v", p)
		}
		if p.Stars != 78000 || p.Author != "pytorch" || p.Language != "python" {
			t.Errorf("metadata fields = %+v", p)
		}
		if len(p.Topics) != 1 || p.Topics[0] != "machine-learning" {
			t.Errorf("topics = %v", p.Topics)
		}
	})

	t.Run("seed shape", func(t *testing.T) {
		p := a.ExtractMetadata(map[string]any{
			"name":   "x/y",
			"url":    "https://example.com/x/y",
			"stars":  42,
			"author": "x",
		})
		if p.Name != "x/y" || p.Stars != 42 || p.Author != "x" {
			t.Errorf("seed shape = %+v", p)
		}
	})

	t.Run("missing description gets placeholder", func(t *testing.T) {
		p := a.ExtractMetadata(map[string]any{"name": "x"})
		if p.Description != "No description available" {
			t.Errorf("description = %q", p.Description)
		}
	})

	t.Run("null description gets placeholder", func(t *testing.T) {
		p := a.ExtractMetadata(map[string]any{"name": "x", "description": nil})
		if p.Description != "No description available" {
			t.Errorf("description = %q", p.Description)
		}
	})

	t.Run("empty description stays empty", func(t *testing.T) {
		p := a.ExtractMetadata(map[string]any{"name": "x", "description": ""})
		if p.Description != "" {
			t.Errorf("description = %q, want empty", p.Description)
		}
	})
}
