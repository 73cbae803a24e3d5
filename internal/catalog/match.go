package catalog

import (
	"errors"
	"fmt"
	"strings"

	"github.com/agnivade/levenshtein"
)

// MaxSuggestionDistance bounds how far a typo may be from a label before no
// suggestion is offered.
const MaxSuggestionDistance = 3

// ErrUnknownEntity is returned by Match when nothing in the catalog fits.
var ErrUnknownEntity = errors.New("catalog: unknown entity")

// NoMatchError carries the closest label for an unresolved query, if any.
type NoMatchError struct {
	Query      string
	Suggestion string
}

func (e *NoMatchError) Error() string {
	if e.Suggestion != "" {
		return fmt.Sprintf("no factor named %q (did you mean %s?)", e.Query, e.Suggestion)
	}
	return fmt.Sprintf("no factor named %q", e.Query)
}

func (e *NoMatchError) Unwrap() error { return ErrUnknownEntity }

// Match resolves a typed query against entity identifiers and labels,
// ignoring case. Only entities accepted by filter are considered; a nil
// filter accepts every entity.
func (c *Catalog) Match(query string, filter func(Entity) bool) (Entity, error) {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return Entity{}, &NoMatchError{Query: query}
	}
	best := ""
	bestDist := MaxSuggestionDistance + 1
	for _, e := range c.entities {
		if filter != nil && !filter(e) {
			continue
		}
		label := strings.ToLower(e.Label)
		if strings.ToLower(e.ID) == q || label == q {
			return e, nil
		}
		if d := levenshtein.ComputeDistance(q, label); d < bestDist {
			best, bestDist = e.Label, d
		}
	}
	return Entity{}, &NoMatchError{Query: strings.TrimSpace(query), Suggestion: best}
}
