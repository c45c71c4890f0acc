package source

import (
	"strconv"
	"strings"

	"github.com/thewheel/research-engine/engine/domain"
)

// fallbackCatalog is the seeded repository list used when the live API is
// unavailable. Order matters: results preserve catalog order.
var fallbackCatalog = []domain.Project{
	{
		Name:        "facebook/react",
		URL:         "https://github.com/facebook/react",
		Description: "A declarative, efficient, and flexible JavaScript library for building user interfaces.",
		Stars:       220000,
		Author:      "facebook",
		Language:    "javascript",
		Topics:      []string{"javascript", "react", "frontend"},
	},
	{
		Name:        "vuejs/vue",
		URL:         "https://github.com/vuejs/vue",
		Description: "Vue.js is a progressive, incrementally-adoptable JavaScript framework for building UI on the web.",
		Stars:       207000,
		Author:      "vuejs",
		Language:    "javascript",
		Topics:      []string{"javascript", "vue", "frontend"},
	},
	{
		Name:        "tensorflow/tensorflow",
		URL:         "https://github.com/tensorflow/tensorflow",
		Description: "An Open Source Machine Learning Framework for Everyone",
		Stars:       185000,
		Author:      "tensorflow",
		Language:    "python",
		Topics:      []string{"machine-learning", "tensorflow", "python"},
	},
	{
		Name:        "pytorch/pytorch",
		URL:         "https://github.com/pytorch/pytorch",
		Description: "Tensors and Dynamic neural networks in Python with strong GPU acceleration",
		Stars:       78000,
		Author:      "pytorch",
		Language:    "python",
		Topics:      []string{"machine-learning", "pytorch", "python"},
	},
	{
		Name:        "django/django",
		URL:         "https://github.com/django/django",
		Description: "The Web framework for perfectionists with deadlines.",
		Stars:       76000,
		Author:      "django",
		Language:    "python",
		Topics:      []string{"web", "django", "python"},
	},
	{
		Name:        "expressjs/express",
		URL:         "https://github.com/expressjs/express",
		Description: "Fast, unopinionated, minimalist web framework for node.",
		Stars:       64000,
		Author:      "expressjs",
		Language:    "javascript",
		Topics:      []string{"web", "express", "nodejs"},
	},
	{
		Name:        "gin-gonic/gin",
		URL:         "https://github.com/gin-gonic/gin",
		Description: "Gin is a HTTP web framework written in Go (Golang).",
		Stars:       75000,
		Author:      "gin-gonic",
		Language:    "go",
		Topics:      []string{"web", "gin", "golang"},
	},
	{
		Name:        "scikit-learn/scikit-learn",
		URL:         "https://github.com/scikit-learn/scikit-learn",
		Description: "scikit-learn: machine learning in Python",
		Stars:       58000,
		Author:      "scikit-learn",
		Language:    "python",
		Topics:      []string{"machine-learning", "python", "scikit-learn"},
	},
}

// searchCatalog filters the seeded catalog: query substring match against
// name, description, or any topic (case-insensitive), then language and
// stars filters, then the limit (default 5).
func (a *GitHubAdapter) searchCatalog(query string, f Filters) []domain.Project {
	q := strings.ToLower(query)

	var out []domain.Project
	for _, p := range fallbackCatalog {
		if !matchesQuery(p, q) {
			continue
		}
		if f.Language != "" && p.Language != strings.ToLower(f.Language) {
			continue
		}
		if f.Stars != "" {
			if min, ok := parseMinStars(f.Stars); ok && p.Stars < min {
				continue
			}
		}
		out = append(out, p)
	}

	limit := f.Limit
	if limit <= 0 {
		limit = 5
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

func matchesQuery(p domain.Project, q string) bool {
	if strings.Contains(strings.ToLower(p.Name), q) ||
		strings.Contains(strings.ToLower(p.Description), q) {
		return true
	}
	for _, t := range p.Topics {
		if strings.Contains(strings.ToLower(t), q) {
			return true
		}
	}
	return false
}

// parseMinStars parses a stars filter of the form ">=N" or "N+".
func parseMinStars(s string) (int, bool) {
	s = strings.TrimPrefix(s, ">=")
	s = strings.TrimSuffix(s, "+")
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, false
	}
	return n, true
}
