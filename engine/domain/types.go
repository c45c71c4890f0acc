// Package domain defines core domain types, constants, and validation for the
// research engine pipeline. It acts as the validation gate at pipeline entry points.
package domain

// Component type vocabulary. The extractor only ever emits these; anything
// else fails validation.
const (
	TypeInterface = "Interface"
	TypeStorage   = "Storage"
	TypeSecurity  = "Security"
	TypeFrontend  = "Frontend"
	TypeDevOps    = "DevOps"
)

// ValidComponentTypes is the set of recognised component types.
var ValidComponentTypes = map[string]bool{
	TypeInterface: true, TypeStorage: true, TypeSecurity: true,
	TypeFrontend: true, TypeDevOps: true,
}

// Project is a normalized repository record. Its canonical identity is URL;
// re-ingesting a project with the same URL must never duplicate graph state.
type Project struct {
	Name        string      `json:"name"`
	URL         string      `json:"url"`
	Description string      `json:"description"`
	Stars       int         `json:"stars"`
	Author      string      `json:"author"`
	Language    string      `json:"language"`
	Topics      []string    `json:"topics"`
	Components  []Component `json:"components,omitempty"`
}

// Component is a reusable architectural building block inferred from a
// project description. Unique by Name.
type Component struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// Ocean is one row of the blue-ocean scan: a topic with many projects but
// few shared components, heuristically under-standardized.
type Ocean struct {
	Topic          string  `json:"topic"`
	ProjectCount   int     `json:"project_count"`
	ComponentCount int     `json:"component_count"`
	Score          float64 `json:"blue_ocean_score"`
}

// Node is a graph node as seen by the landscape export.
type Node struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Type string `json:"type"`
	URL  string `json:"url"`
}

// Link is a directed edge between two landscape nodes.
type Link struct {
	Source int64  `json:"source"`
	Target int64  `json:"target"`
	Type   string `json:"type"`
}

// Relationship types written by the graph store.
const (
	RelCreated    = "CREATED"
	RelTaggedWith = "TAGGED_WITH"
	RelUses       = "USES"
)
