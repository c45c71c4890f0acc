// Package analyze maps project records to reusable architectural components.
// Extraction is a deliberate literal-substring heuristic over the project
// description; it never invents names outside the rule table.
package analyze

import (
	"strings"

	"github.com/thewheel/research-engine/engine/domain"
)

// rule maps a description substring to a component.
type rule struct {
	key       string
	component domain.Component
}

// rules is ordered; extraction emits components in this order. A slice, not
// a map, so the emission order is stable.
var rules = []rule{
	{"api", domain.Component{Name: "REST API", Type: domain.TypeInterface}},
	{"database", domain.Component{Name: "Database Layer", Type: domain.TypeStorage}},
	{"auth", domain.Component{Name: "Authentication System", Type: domain.TypeSecurity}},
	{"ui", domain.Component{Name: "User Interface", Type: domain.TypeFrontend}},
	{"cli", domain.Component{Name: "Command Line Tool", Type: domain.TypeInterface}},
	{"docker", domain.Component{Name: "Containerization", Type: domain.TypeDevOps}},
	{"neo4j", domain.Component{Name: "Graph Database", Type: domain.TypeStorage}},
}

// Components extracts components from a project's description. Each rule
// fires at most once regardless of how often its key appears; an empty
// description yields nothing.
func Components(p domain.Project) []domain.Component {
	desc := strings.ToLower(p.Description)
	if desc == "" {
		return nil
	}

	var out []domain.Component
	for _, r := range rules {
		if strings.Contains(desc, r.key) {
			out = append(out, r.component)
		}
	}
	return out
}
