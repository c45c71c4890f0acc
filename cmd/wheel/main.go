// Command wheel runs one research pass from the terminal: search the hosting
// service, persist the landscape, print blue oceans, and export the
// visualization data file.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/thewheel/research-engine/engine/export"
	"github.com/thewheel/research-engine/engine/graph"
	"github.com/thewheel/research-engine/engine/research"
	"github.com/thewheel/research-engine/engine/source"
)

func main() {
	var (
		limit     = flag.Int("limit", 5, "number of projects to analyze")
		mock      = flag.Bool("mock", false, "run against the in-memory graph store")
		language  = flag.String("language", "", "language filter")
		stars     = flag.String("stars", "", `stars filter (">=N" or "N+")`)
		topic     = flag.String("topic", "", "topic filter")
		out       = flag.String("out", "data.js", "visualization data file (empty to skip export)")
		neo4jURL  = flag.String("neo4j", envOr("NEO4J_URL", "neo4j://localhost:7687"), "Neo4j bolt URL")
		neo4jUser = flag.String("neo4j-user", envOr("NEO4J_USER", "neo4j"), "Neo4j username")
		neo4jPass = flag.String("neo4j-pass", envOr("NEO4J_PASS", "password"), "Neo4j password")
	)
	_ = godotenv.Load()
	flag.Parse()

	if flag.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "usage: wheel [flags] <query>")
		flag.PrintDefaults()
		os.Exit(2)
	}
	query := flag.Arg(0)

	log := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var store graph.Store
	if *mock {
		store = graph.NewMemory()
		log.Info("using in-memory graph store")
	} else {
		driver, err := neo4j.NewDriverWithContext(*neo4jURL, neo4j.BasicAuth(*neo4jUser, *neo4jPass, ""))
		if err != nil {
			log.Error("neo4j driver", "error", err)
			os.Exit(1)
		}
		defer driver.Close(ctx)
		if err := driver.VerifyConnectivity(ctx); err != nil {
			log.Error("neo4j unreachable (try -mock)", "error", err)
			os.Exit(1)
		}
		store = graph.NewNeo4j(driver)
	}

	adapter := source.NewGitHub(
		source.WithToken(os.Getenv("GITHUB_TOKEN")),
		source.WithLogger(log),
	)
	svc := research.New(research.Deps{
		Source: adapter,
		Store:  store,
		Logger: log,
	})

	report, err := svc.Run(ctx, research.Request{
		Query: query,
		Limit: *limit,
		Filters: source.Filters{
			Language: *language,
			Stars:    *stars,
			Topic:    *topic,
			Limit:    *limit,
		},
	})
	if err != nil {
		log.Error("research failed", "error", err)
		os.Exit(1)
	}

	fmt.Printf("Research complete: %d projects ingested for %q\n", report.ProjectsIngested, query)
	for _, p := range report.Projects {
		fmt.Printf("  %-40s %7d stars  %d components\n", p.Name, p.Stars, len(p.Components))
	}
	if len(report.Oceans) > 0 {
		fmt.Println("\nBlue oceans:")
		for _, o := range report.Oceans {
			fmt.Printf("  %-24s score %.2f  (%d projects, %d components)\n",
				o.Topic, o.Score, o.ProjectCount, o.ComponentCount)
		}
	}

	if *out != "" {
		if err := export.Landscape(ctx, store, *out, log); err != nil {
			log.Error("export failed", "error", err)
			os.Exit(1)
		}
		fmt.Printf("\nLandscape written to %s\n", *out)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
