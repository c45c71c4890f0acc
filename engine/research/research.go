// Package research drives a full research run: search the hosting service,
// extract components from each project, persist the subgraph, then scan for
// blue oceans. Runs are synchronous; writes happen in search-result order.
package research

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/thewheel/research-engine/engine/analyze"
	"github.com/thewheel/research-engine/engine/domain"
	"github.com/thewheel/research-engine/engine/graph"
	"github.com/thewheel/research-engine/engine/source"
	"github.com/thewheel/research-engine/engine/strategy"
	"github.com/thewheel/research-engine/pkg/fn"
	"github.com/thewheel/research-engine/pkg/metrics"
	"github.com/thewheel/research-engine/pkg/natsutil"
)

// IngestedSubject is the NATS subject for per-project ingest events.
const IngestedSubject = "wheel.research.ingested"

// DefaultLimit caps a run when the caller does not ask for one.
const DefaultLimit = 5

// ErrEmptyQuery rejects runs without a query.
var ErrEmptyQuery = errors.New("query is required")

// Graph writes are idempotent merges, so a short retry is safe.
var writeRetry = fn.RetryOpts{
	MaxAttempts: 2,
	InitialWait: 200 * time.Millisecond,
	MaxWait:     time.Second,
	Jitter:      true,
}

// Event is published for every project written to the graph.
type Event struct {
	RunID      string    `json:"run_id"`
	Name       string    `json:"name"`
	URL        string    `json:"url"`
	Components int       `json:"components"`
	IngestedAt time.Time `json:"ingested_at"`
}

// Request describes one research run.
type Request struct {
	Query   string         `json:"query"`
	Limit   int            `json:"limit"`
	Filters source.Filters `json:"filters"`
}

// Report is the result bundle of a research run.
type Report struct {
	RunID            string           `json:"run_id"`
	Query            string           `json:"query"`
	Projects         []domain.Project `json:"projects"`
	ProjectsIngested int              `json:"projects_ingested"`
	Oceans           []domain.Ocean   `json:"oceans"`
}

// Deps holds the external dependencies for the orchestrator.
type Deps struct {
	Source  source.Searcher
	Store   graph.Store
	Events  *nats.Conn        // optional; nil disables eventing
	Metrics *metrics.Registry // optional
	Logger  *slog.Logger
}

// Service orchestrates research runs.
type Service struct {
	source source.Searcher
	store  graph.Store
	adv    *strategy.Advisor
	events *nats.Conn
	log    *slog.Logger

	mRuns     *metrics.Counter
	mIngested *metrics.Counter
	mFailed   *metrics.Counter
}

// New creates a Service from its dependencies.
func New(deps Deps) *Service {
	log := deps.Logger
	if log == nil {
		log = slog.Default()
	}
	s := &Service{
		source: deps.Source,
		store:  deps.Store,
		adv:    strategy.New(deps.Store, log),
		events: deps.Events,
		log:    log,
	}
	if deps.Metrics != nil {
		s.mRuns = deps.Metrics.Counter("wheel_research_runs_total", "Research runs started")
		s.mIngested = deps.Metrics.Counter("wheel_research_projects_ingested_total", "Projects written to the graph")
		s.mFailed = deps.Metrics.Counter("wheel_research_runs_failed_total", "Research runs that returned an error")
	}
	return s
}

// Run executes one research pass. Per-project failures abort the run;
// already-merged nodes stay behind, which is harmless since a retry merges
// over them.
func (s *Service) Run(ctx context.Context, req Request) (Report, error) {
	if strings.TrimSpace(req.Query) == "" {
		return Report{}, ErrEmptyQuery
	}
	limit := req.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}
	inc(s.mRuns)

	runID := uuid.NewString()
	s.log.Info("research run starting", "run_id", runID, "query", req.Query, "limit", limit)

	projects, err := s.source.Search(ctx, req.Query, req.Filters)
	if err != nil {
		inc(s.mFailed)
		return Report{}, fmt.Errorf("research failed: search: %w", err)
	}
	if len(projects) > limit {
		projects = projects[:limit]
	}

	pipeline := s.ingestPipeline()

	ingested := make([]domain.Project, 0, len(projects))
	for _, p := range projects {
		enriched, err := pipeline(ctx, p).Unwrap()
		if err != nil {
			inc(s.mFailed)
			return Report{}, fmt.Errorf("research failed: ingest %q: %w", p.Name, err)
		}
		ingested = append(ingested, enriched)
		inc(s.mIngested)
		s.publish(ctx, runID, enriched)
	}

	oceans, err := s.adv.IdentifyBlueOceans(ctx)
	if err != nil {
		inc(s.mFailed)
		return Report{}, fmt.Errorf("research failed: %w", err)
	}

	s.log.Info("research run complete",
		"run_id", runID,
		"projects", len(ingested),
		"oceans", len(oceans),
	)
	return Report{
		RunID:            runID,
		Query:            req.Query,
		Projects:         ingested,
		ProjectsIngested: len(ingested),
		Oceans:           oceans,
	}, nil
}

// ingestPipeline composes validate -> extract -> save -> link. Save runs
// before link so the USES edge always lands on an existing project.
func (s *Service) ingestPipeline() fn.Stage[domain.Project, domain.Project] {
	validate := func(_ context.Context, p domain.Project) fn.Result[domain.Project] {
		if err := domain.ValidateProject(p); err != nil {
			return fn.Err[domain.Project](err)
		}
		return fn.Ok(p)
	}

	extract := fn.MapStage(func(p domain.Project) domain.Project {
		p.Components = analyze.Components(p)
		return p
	})

	save := func(ctx context.Context, p domain.Project) fn.Result[domain.Project] {
		if err := s.store.SaveProject(ctx, p); err != nil {
			return fn.Err[domain.Project](err)
		}
		return fn.Ok(p)
	}

	link := func(ctx context.Context, p domain.Project) fn.Result[domain.Project] {
		if err := s.store.LinkComponents(ctx, p.URL, p.Components); err != nil {
			return fn.Err[domain.Project](err)
		}
		return fn.Ok(p)
	}

	return fn.Then(
		fn.Traced("research.validate", validate),
		fn.Then(
			fn.Traced("research.extract", extract),
			fn.Then(
				fn.Traced("research.save", fn.RetryStage(writeRetry, save)),
				fn.Traced("research.link", fn.RetryStage(writeRetry, link)),
			),
		),
	)
}

// publish emits an ingest event; failures are logged, never fatal.
func (s *Service) publish(ctx context.Context, runID string, p domain.Project) {
	if s.events == nil {
		return
	}
	ev := Event{
		RunID:      runID,
		Name:       p.Name,
		URL:        p.URL,
		Components: len(p.Components),
		IngestedAt: time.Now().UTC(),
	}
	if err := natsutil.Publish(ctx, s.events, IngestedSubject, ev); err != nil {
		s.log.Warn("ingest event publish failed", "run_id", runID, "error", err)
	}
}

func inc(c *metrics.Counter) {
	if c != nil {
		c.Inc()
	}
}
