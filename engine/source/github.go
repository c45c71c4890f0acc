package source

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/thewheel/research-engine/engine/domain"
	"github.com/thewheel/research-engine/pkg/resilience"
	"golang.org/x/time/rate"
)

const (
	defaultBaseURL = "https://api.github.com/search/repositories"
	userAgent      = "TheWheel-Research-Engine/1.0"

	// Unauthenticated search allows 10 requests/minute.
	searchInterval = 6 * time.Second

	requestTimeout = 10 * time.Second
)

// GitHubAdapter searches the GitHub repository search API. Upstream failures
// (rate limit, non-200, transport errors) are recovered locally against the
// seeded catalog; Search only returns an error on context cancellation.
type GitHubAdapter struct {
	baseURL string
	token   string
	client  *http.Client
	limiter *rate.Limiter
	breaker *resilience.Breaker
	log     *slog.Logger
}

// Option configures a GitHubAdapter.
type Option func(*GitHubAdapter)

// WithToken attaches a bearer token to outgoing requests.
func WithToken(token string) Option {
	return func(a *GitHubAdapter) { a.token = token }
}

// WithBaseURL overrides the search endpoint (tests point this at httptest).
func WithBaseURL(u string) Option {
	return func(a *GitHubAdapter) { a.baseURL = u }
}

// WithLogger sets the adapter logger.
func WithLogger(log *slog.Logger) Option {
	return func(a *GitHubAdapter) { a.log = log }
}

// NewGitHub creates a GitHubAdapter.
func NewGitHub(opts ...Option) *GitHubAdapter {
	a := &GitHubAdapter{
		baseURL: defaultBaseURL,
		client:  &http.Client{Timeout: requestTimeout},
		limiter: rate.NewLimiter(rate.Every(searchInterval), 3),
		breaker: resilience.NewBreaker(resilience.DefaultBreakerOpts),
		log:     slog.Default(),
	}
	for _, o := range opts {
		o(a)
	}
	return a
}

var _ Adapter = (*GitHubAdapter)(nil)

// buildQuery appends recognized filter clauses to the base query.
// Clause order is fixed: language, stars, pushed, topic.
func buildQuery(query string, f Filters) string {
	var b strings.Builder
	b.WriteString(query)
	if f.Language != "" {
		b.WriteString(" language:" + f.Language)
	}
	if f.Stars != "" {
		b.WriteString(" stars:" + f.Stars)
	}
	if f.Pushed != "" {
		b.WriteString(" pushed:" + f.Pushed)
	}
	if f.Topic != "" {
		b.WriteString(" topic:" + f.Topic)
	}
	return b.String()
}

// Search queries the live API, falling back to the seeded catalog on any
// upstream failure.
func (a *GitHubAdapter) Search(ctx context.Context, query string, f Filters) ([]domain.Project, error) {
	qualified := buildQuery(query, f)

	var projects []domain.Project
	err := a.breaker.Call(ctx, func(ctx context.Context) error {
		var liveErr error
		projects, liveErr = a.searchLive(ctx, qualified, f)
		return liveErr
	})
	if err == nil {
		a.log.Info("github search ok", "query", qualified, "results", len(projects))
		return projects, nil
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	switch {
	case errors.Is(err, domain.ErrRateLimited):
		a.log.Warn("rate limit exceeded, using fallback catalog", "query", query)
	case errors.Is(err, resilience.ErrCircuitOpen):
		a.log.Warn("search circuit open, using fallback catalog", "query", query)
	default:
		a.log.Warn("github search failed, using fallback catalog", "query", query, "error", err)
	}
	return a.searchCatalog(query, f), nil
}

func (a *GitHubAdapter) searchLive(ctx context.Context, qualified string, f Filters) ([]domain.Project, error) {
	if err := a.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	perPage := f.Limit
	if perPage <= 0 {
		perPage = 10
	}
	if perPage > 100 {
		perPage = 100
	}

	params := url.Values{
		"q":        {qualified},
		"sort":     {"stars"},
		"order":    {"desc"},
		"per_page": {strconv.Itoa(perPage)},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/vnd.github.v3+json")
	req.Header.Set("User-Agent", userAgent)
	if a.token != "" {
		req.Header.Set("Authorization", "Bearer "+a.token)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusForbidden {
		return nil, domain.ErrRateLimited
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", domain.ErrUpstream, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUpstream, err)
	}

	var sr struct {
		Items []map[string]any `json:"items"`
	}
	if err := json.Unmarshal(body, &sr); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUpstream, err)
	}

	projects := make([]domain.Project, 0, len(sr.Items))
	for _, item := range sr.Items {
		projects = append(projects, a.ExtractMetadata(item))
	}
	return projects, nil
}

// ExtractMetadata maps a raw repository item to a Project. It tolerates both
// the live API shape (full_name, html_url, stargazers_count, owner.login)
// and the seeded shape (name, url, stars, author).
func (a *GitHubAdapter) ExtractMetadata(raw map[string]any) domain.Project {
	p := domain.Project{
		Name:     firstString(raw, "full_name", "name"),
		URL:      firstString(raw, "html_url", "url"),
		Stars:    firstInt(raw, "stargazers_count", "stars"),
		Author:   firstString(raw, "author"),
		Language: strings.ToLower(firstString(raw, "language")),
		Topics:   stringSlice(raw["topics"]),
	}
	// A missing or null description gets a placeholder; an explicitly empty
	// one stays empty.
	if desc, ok := raw["description"].(string); ok {
		p.Description = desc
	} else {
		p.Description = "No description available"
	}
	if owner, ok := raw["owner"].(map[string]any); ok {
		if login, ok := owner["login"].(string); ok && login != "" {
			p.Author = login
		}
	}
	return p
}

func firstString(raw map[string]any, keys ...string) string {
	for _, k := range keys {
		if s, ok := raw[k].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

func firstInt(raw map[string]any, keys ...string) int {
	for _, k := range keys {
		switch n := raw[k].(type) {
		case float64:
			return int(n)
		case int:
			return n
		case int64:
			return int(n)
		}
	}
	return 0
}

func stringSlice(v any) []string {
	switch list := v.(type) {
	case []string:
		return list
	case []any:
		out := make([]string, 0, len(list))
		for _, item := range list {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}
