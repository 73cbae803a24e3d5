// Package catalog holds the immutable set of molecular factors (entities) and
// named complexes that the stepper can show. The catalog is decoded once from
// YAML and never changes afterwards.
package catalog

import (
	"bytes"
	_ "embed"
	"fmt"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// DefaultHome is used for entities that declare no home position.
var DefaultHome = Point{X: 50, Y: 50}

//go:embed catalog.yaml
var defaultCatalogYAML []byte

var (
	defaultOnce    sync.Once
	defaultCatalog *Catalog
)

// Point is a position in the logical canvas coordinate space.
type Point struct {
	X int `yaml:"x"`
	Y int `yaml:"y"`
}

// Info is the descriptive payload attached to an entity or complex. Body is
// opaque rich text; interpreting markup is left to the presentation layer.
type Info struct {
	Title string
	Body  string
}

// Entity is a single molecular factor icon.
type Entity struct {
	ID    string
	Label string
	Layer int
	Home  Point
	Info  Info
}

// Complex groups several entities under one descriptive card.
type Complex struct {
	ID         string
	Label      string
	Info       Info
	Components []string
}

type entityDoc struct {
	ID    string `yaml:"id"`
	Label string `yaml:"label"`
	Layer int    `yaml:"layer"`
	Home  *Point `yaml:"home,omitempty"`
	Title string `yaml:"title"`
	Body  string `yaml:"body"`
}

type complexDoc struct {
	ID         string   `yaml:"id"`
	Label      string   `yaml:"label"`
	Title      string   `yaml:"title"`
	Body       string   `yaml:"body"`
	Components []string `yaml:"components"`
}

type catalogDoc struct {
	Entities  []entityDoc  `yaml:"entities"`
	Complexes []complexDoc `yaml:"complexes"`
}

// Catalog indexes entities and complexes by identifier while preserving the
// declaration order.
type Catalog struct {
	entities     []Entity
	index        map[string]int
	complexes    []Complex
	complexIndex map[string]int
}

// Parse decodes and validates a catalog document.
func Parse(data []byte) (*Catalog, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, fmt.Errorf("catalog: document is empty")
	}
	var doc catalogDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("catalog: decode: %w", err)
	}
	if len(doc.Entities) == 0 {
		return nil, fmt.Errorf("catalog: at least one entity is required")
	}
	c := &Catalog{
		entities:     make([]Entity, 0, len(doc.Entities)),
		index:        make(map[string]int, len(doc.Entities)),
		complexes:    make([]Complex, 0, len(doc.Complexes)),
		complexIndex: make(map[string]int, len(doc.Complexes)),
	}
	for i, raw := range doc.Entities {
		id := strings.TrimSpace(raw.ID)
		if id == "" {
			return nil, fmt.Errorf("catalog: entities[%d]: id is required", i)
		}
		if _, dup := c.index[id]; dup {
			return nil, fmt.Errorf("catalog: entities[%d]: duplicate id %q", i, id)
		}
		label := strings.TrimSpace(raw.Label)
		if label == "" {
			label = id
		}
		home := DefaultHome
		if raw.Home != nil {
			home = *raw.Home
		}
		c.index[id] = len(c.entities)
		c.entities = append(c.entities, Entity{
			ID:    id,
			Label: label,
			Layer: raw.Layer,
			Home:  home,
			Info:  Info{Title: strings.TrimSpace(raw.Title), Body: strings.TrimSpace(raw.Body)},
		})
	}
	for i, raw := range doc.Complexes {
		id := strings.TrimSpace(raw.ID)
		if id == "" {
			return nil, fmt.Errorf("catalog: complexes[%d]: id is required", i)
		}
		if _, clash := c.index[id]; clash {
			return nil, fmt.Errorf("catalog: complexes[%d]: id %q collides with an entity", i, id)
		}
		if _, dup := c.complexIndex[id]; dup {
			return nil, fmt.Errorf("catalog: complexes[%d]: duplicate id %q", i, id)
		}
		for _, member := range raw.Components {
			if _, ok := c.index[member]; !ok {
				return nil, fmt.Errorf("catalog: complex %s references unknown entity %q", id, member)
			}
		}
		c.complexIndex[id] = len(c.complexes)
		c.complexes = append(c.complexes, Complex{
			ID:         id,
			Label:      strings.TrimSpace(raw.Label),
			Info:       Info{Title: strings.TrimSpace(raw.Title), Body: strings.TrimSpace(raw.Body)},
			Components: append([]string(nil), raw.Components...),
		})
	}
	return c, nil
}

// MustParse is Parse for documents that are known to be valid.
func MustParse(data []byte) *Catalog {
	c, err := Parse(data)
	if err != nil {
		panic(err)
	}
	return c
}

// Default returns the embedded catalog.
func Default() *Catalog {
	defaultOnce.Do(func() {
		defaultCatalog = MustParse(defaultCatalogYAML)
	})
	return defaultCatalog
}

// Entities returns every entity in declaration order.
func (c *Catalog) Entities() []Entity {
	out := make([]Entity, len(c.entities))
	copy(out, c.entities)
	return out
}

// Entity looks up an entity by identifier.
func (c *Catalog) Entity(id string) (Entity, bool) {
	idx, ok := c.index[id]
	if !ok {
		return Entity{}, false
	}
	return c.entities[idx], true
}

// Has reports whether id names an entity.
func (c *Catalog) Has(id string) bool {
	_, ok := c.index[id]
	return ok
}

// Order returns the declaration position of an entity, or -1.
func (c *Catalog) Order(id string) int {
	if idx, ok := c.index[id]; ok {
		return idx
	}
	return -1
}

// Complex looks up a complex by identifier.
func (c *Catalog) Complex(id string) (Complex, bool) {
	idx, ok := c.complexIndex[id]
	if !ok {
		return Complex{}, false
	}
	cx := c.complexes[idx]
	cx.Components = append([]string(nil), cx.Components...)
	return cx, true
}

// Complexes returns every complex in declaration order.
func (c *Catalog) Complexes() []Complex {
	out := make([]Complex, 0, len(c.complexes))
	for _, cx := range c.complexes {
		cx.Components = append([]string(nil), cx.Components...)
		out = append(out, cx)
	}
	return out
}

// Label returns the display label for id, falling back to id itself.
func (c *Catalog) Label(id string) string {
	if e, ok := c.Entity(id); ok {
		return e.Label
	}
	return id
}
