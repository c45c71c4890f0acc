// Package main implements The Wheel API server: the HTTP front controller
// over the research engine.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/nats-io/nats.go"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/thewheel/research-engine/engine/graph"
	"github.com/thewheel/research-engine/engine/research"
	"github.com/thewheel/research-engine/engine/source"
	"github.com/thewheel/research-engine/pkg/metrics"
	"github.com/thewheel/research-engine/pkg/mid"
)

// Config holds all environment-based configuration.
type Config struct {
	Port        string
	GraphMode   string // "mock" or "live"
	Neo4jURL    string
	Neo4jUser   string
	Neo4jPass   string
	GitHubToken string
	NATSURL     string
	CORSOrigin  string
}

func loadConfig() Config {
	return Config{
		Port:        envOr("PORT", "8080"),
		GraphMode:   envOr("GRAPH_MODE", "mock"),
		Neo4jURL:    envOr("NEO4J_URL", "neo4j://localhost:7687"),
		Neo4jUser:   envOr("NEO4J_USER", "neo4j"),
		Neo4jPass:   envOr("NEO4J_PASS", "password"),
		GitHubToken: os.Getenv("GITHUB_TOKEN"),
		NATSURL:     os.Getenv("NATS_URL"),
		CORSOrigin:  envOr("CORS_ORIGIN", "*"),
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func main() {
	_ = godotenv.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg := loadConfig()

	if err := run(cfg, logger); err != nil {
		logger.Error("server exited with error", "err", err)
		os.Exit(1)
	}
}

func run(cfg Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- Graph store ---
	var store graph.Store
	if cfg.GraphMode == "live" {
		driver, err := neo4j.NewDriverWithContext(cfg.Neo4jURL, neo4j.BasicAuth(cfg.Neo4jUser, cfg.Neo4jPass, ""))
		if err != nil {
			return fmt.Errorf("neo4j driver: %w", err)
		}
		defer driver.Close(ctx)
		if err := driver.VerifyConnectivity(ctx); err != nil {
			return fmt.Errorf("neo4j verify: %w", err)
		}
		store = graph.NewNeo4j(driver)
		logger.Info("graph store bound", "mode", "live", "url", cfg.Neo4jURL)
	} else {
		store = graph.NewMemory()
		logger.Info("graph store bound", "mode", "mock")
	}

	// --- Optional NATS eventing ---
	var nc *nats.Conn
	if cfg.NATSURL != "" {
		var err error
		nc, err = nats.Connect(cfg.NATSURL, nats.Name("wheel-api"))
		if err != nil {
			logger.Warn("nats connect failed, eventing disabled", "error", err)
		} else {
			defer nc.Close()
		}
	}

	// --- Research service ---
	met := metrics.New()
	adapter := source.NewGitHub(
		source.WithToken(cfg.GitHubToken),
		source.WithLogger(logger),
	)
	svc := research.New(research.Deps{
		Source:  adapter,
		Store:   store,
		Events:  nc,
		Metrics: met,
		Logger:  logger,
	})

	// --- HTTP server ---
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/health", handleHealth)
	mux.HandleFunc("POST /api/search", handleSearch(svc, logger))
	mux.Handle("GET /metrics", met.Handler())

	handler := mid.Chain(mux,
		mid.Recover(logger),
		mid.Logger(logger),
		mid.CORS(cfg.CORSOrigin),
	)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("api server starting", "port", cfg.Port)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return err
		}
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	shutCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutCtx)
}

// --- Handlers ---

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"status":  "healthy",
		"service": "The Wheel API",
	})
}

// SearchRequest is the JSON body for POST /api/search.
type SearchRequest struct {
	Query   string         `json:"query"`
	Filters source.Filters `json:"filters"`
}

// SearchResponse is the graph payload the web UI renders.
type SearchResponse struct {
	Nodes         []apiNode `json:"nodes"`
	Links         []apiLink `json:"links"`
	Query         string    `json:"query"`
	TotalProjects int       `json:"total_projects"`
}

// apiNode ids are synthetic, monotonically increasing, and scoped to one
// response; they are unrelated to graph store ids.
type apiNode struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Type        string `json:"type"`
	URL         string `json:"url,omitempty"`
	Description string `json:"description,omitempty"`
	Stars       int    `json:"stars,omitempty"`
	Language    string `json:"language,omitempty"`
	Category    string `json:"category,omitempty"`
}

type apiLink struct {
	Source int `json:"source"`
	Target int `json:"target"`
}

func handleSearch(svc *research.Service, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req SearchRequest
		// An empty body is treated like an empty object so the missing-query
		// error below stays consistent.
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if req.Query == "" {
			writeError(w, http.StatusBadRequest, "Query is required")
			return
		}

		report, err := svc.Run(r.Context(), research.Request{
			Query:   req.Query,
			Limit:   req.Filters.Limit,
			Filters: req.Filters,
		})
		if err != nil {
			logger.Error("research failed", "query", req.Query, "err", err)
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(buildGraphResponse(req.Query, report))
	}
}

// buildGraphResponse flattens the report into response-scoped nodes and
// links. The inter-project links at the end are visualization glue only and
// never touch the persisted graph.
func buildGraphResponse(query string, report research.Report) SearchResponse {
	resp := SearchResponse{
		Nodes:         []apiNode{},
		Links:         []apiLink{},
		Query:         query,
		TotalProjects: len(report.Projects),
	}

	nextID := 1
	componentIDs := make(map[string]int)
	projectIDs := make([]int, 0, len(report.Projects))

	for _, p := range report.Projects {
		projectID := nextID
		nextID++
		projectIDs = append(projectIDs, projectID)
		resp.Nodes = append(resp.Nodes, apiNode{
			ID:          projectID,
			Name:        p.Name,
			Type:        "Project",
			URL:         p.URL,
			Description: p.Description,
			Stars:       p.Stars,
			Language:    p.Language,
		})

		for _, c := range p.Components {
			id, ok := componentIDs[c.Name]
			if !ok {
				id = nextID
				nextID++
				componentIDs[c.Name] = id
				resp.Nodes = append(resp.Nodes, apiNode{
					ID:       id,
					Name:     c.Name,
					Type:     "Component",
					Category: c.Type,
				})
			}
			resp.Links = append(resp.Links, apiLink{Source: projectID, Target: id})
		}
	}

	for i := 0; i+1 < len(projectIDs); i++ {
		resp.Links = append(resp.Links, apiLink{Source: projectIDs[i], Target: projectIDs[i+1]})
	}
	return resp
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
