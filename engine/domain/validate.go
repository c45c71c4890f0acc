package domain

import (
	"fmt"
	"strings"
)

// ValidateProject checks a normalized project record before it is written
// to the graph.
func ValidateProject(p Project) error {
	if strings.TrimSpace(p.URL) == "" {
		return NewValidationError("url", p.URL, ErrMissingURL)
	}
	if strings.TrimSpace(p.Name) == "" {
		return NewValidationError("name", p.Name, ErrInvalidProject)
	}
	if p.Stars < 0 {
		return NewValidationError("stars", fmt.Sprintf("%d", p.Stars), ErrNegativeStars)
	}
	for _, c := range p.Components {
		if err := ValidateComponent(c); err != nil {
			return err
		}
	}
	return nil
}

// ValidateComponent checks that a component carries a name and a type from
// the closed vocabulary.
func ValidateComponent(c Component) error {
	if strings.TrimSpace(c.Name) == "" {
		return NewValidationError("name", c.Name, ErrInvalidComponent)
	}
	if !ValidComponentTypes[c.Type] {
		return NewValidationError("type", c.Type, ErrUnknownType)
	}
	return nil
}
