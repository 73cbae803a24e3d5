// Package stages defines the fixed sequence of initiation stages shared by
// the guided and interactive drivers, plus the convergence windows that pull
// factors together while a complex assembles.
package stages

import (
	"fmt"
	"strings"

	"github.com/kingrea/translation-initiation/internal/catalog"
)

// Stage is one step of the animation.
type Stage struct {
	Index       int      `yaml:"index"`
	Title       string   `yaml:"title"`
	Description string   `yaml:"description"`
	Add         []string `yaml:"add,omitempty"`
	Remove      []string `yaml:"remove,omitempty"`
	Required    []string `yaml:"required,omitempty"`
	Panel       []string `yaml:"panel,omitempty"`
}

// AutoAdvance reports whether the stage has nothing to select.
func (s Stage) AutoAdvance() bool { return len(s.Required) == 0 }

// Clone returns a deep copy of the stage.
func (s Stage) Clone() Stage {
	s.Add = cloneStrings(s.Add)
	s.Remove = cloneStrings(s.Remove)
	s.Required = cloneStrings(s.Required)
	s.Panel = cloneStrings(s.Panel)
	return s
}

// Completion is the record shown once the learner steps past the last stage.
type Completion struct {
	Title       string `yaml:"title"`
	Description string `yaml:"description"`
}

// Window pins its members to a shared point for stages in [From, To).
type Window struct {
	Name    string        `yaml:"name"`
	From    int           `yaml:"from"`
	To      int           `yaml:"to"`
	Members []string      `yaml:"members"`
	Point   catalog.Point `yaml:"point"`
}

// Covers reports whether stage falls inside the window.
func (w Window) Covers(stage int) bool { return stage >= w.From && stage < w.To }

// Has reports whether id is a member of the window.
func (w Window) Has(id string) bool {
	for _, m := range w.Members {
		if m == id {
			return true
		}
	}
	return false
}

func (w Window) overlaps(other Window) bool {
	return w.From < other.To && other.From < w.To
}

// Table is the immutable stage sequence. Obtain one through Default or the
// loaders; the zero value is not usable.
type Table struct {
	Stages     []Stage    `yaml:"stages"`
	Completion Completion `yaml:"completion"`
	Windows    []Window   `yaml:"windows,omitempty"`

	catalog *catalog.Catalog
}

// Clone returns a deep copy of the table bound to the same catalog.
func (t Table) Clone() Table {
	clone := Table{Completion: t.Completion, catalog: t.catalog}
	if len(t.Stages) > 0 {
		clone.Stages = make([]Stage, len(t.Stages))
		for i, st := range t.Stages {
			clone.Stages[i] = st.Clone()
		}
	}
	if len(t.Windows) > 0 {
		clone.Windows = make([]Window, len(t.Windows))
		for i, w := range t.Windows {
			w.Members = cloneStrings(w.Members)
			clone.Windows[i] = w
		}
	}
	return clone
}

// Normalized clones the table, trims identifiers, binds it to cat (the
// embedded catalog when nil) and validates the result.
func (t Table) Normalized(cat *catalog.Catalog) (Table, error) {
	clone := t.Clone()
	if cat == nil {
		cat = catalog.Default()
	}
	clone.catalog = cat
	for i := range clone.Stages {
		st := &clone.Stages[i]
		st.Title = strings.TrimSpace(st.Title)
		st.Description = strings.TrimSpace(st.Description)
		st.Add = trimIDs(st.Add)
		st.Remove = trimIDs(st.Remove)
		st.Required = trimIDs(st.Required)
		st.Panel = trimIDs(st.Panel)
	}
	for i := range clone.Windows {
		clone.Windows[i].Name = strings.TrimSpace(clone.Windows[i].Name)
		clone.Windows[i].Members = trimIDs(clone.Windows[i].Members)
	}
	clone.Completion.Title = strings.TrimSpace(clone.Completion.Title)
	clone.Completion.Description = strings.TrimSpace(clone.Completion.Description)
	if err := clone.Validate(); err != nil {
		return Table{}, err
	}
	return clone, nil
}

// Validate ensures the table is self-consistent and only references entities
// the bound catalog knows about.
func (t Table) Validate() error {
	cat := t.Catalog()
	if len(t.Stages) == 0 {
		return fmt.Errorf("stages: at least one stage is required")
	}
	present := Set{}
	requiredBy := map[string]int{}
	for i, st := range t.Stages {
		if st.Index != i {
			return fmt.Errorf("stages: stage[%d]: index %d is out of sequence", i, st.Index)
		}
		if st.Title == "" {
			return fmt.Errorf("stages: stage %d: title is required", i)
		}
		for _, id := range st.Remove {
			if !cat.Has(id) {
				return fmt.Errorf("stages: stage %d: remove references unknown entity %q", i, id)
			}
			if !present.Has(id) {
				return fmt.Errorf("stages: stage %d: removes %s which is not on stage", i, id)
			}
			delete(present, id)
		}
		for _, id := range st.Add {
			if !cat.Has(id) {
				return fmt.Errorf("stages: stage %d: add references unknown entity %q", i, id)
			}
			present[id] = struct{}{}
		}
		for _, id := range st.Required {
			if !cat.Has(id) {
				return fmt.Errorf("stages: stage %d: required references unknown entity %q", i, id)
			}
			if prev, dup := requiredBy[id]; dup {
				return fmt.Errorf("stages: stage %d: %s is already required by stage %d", i, id, prev)
			}
			if !present.Has(id) {
				return fmt.Errorf("stages: stage %d: requires %s which is not on stage", i, id)
			}
			requiredBy[id] = i
		}
		for _, id := range st.Panel {
			if cat.Has(id) {
				continue
			}
			if _, ok := cat.Complex(id); !ok {
				return fmt.Errorf("stages: stage %d: panel references unknown card %q", i, id)
			}
		}
	}
	for i, w := range t.Windows {
		if w.Name == "" {
			return fmt.Errorf("stages: window[%d]: name is required", i)
		}
		if w.From < 0 || w.From >= w.To {
			return fmt.Errorf("stages: window %s: range [%d,%d) is empty or negative", w.Name, w.From, w.To)
		}
		if len(w.Members) == 0 {
			return fmt.Errorf("stages: window %s: at least one member is required", w.Name)
		}
		for _, id := range w.Members {
			if !cat.Has(id) {
				return fmt.Errorf("stages: window %s: unknown member %q", w.Name, id)
			}
		}
		for _, other := range t.Windows[:i] {
			if !w.overlaps(other) {
				continue
			}
			for _, id := range w.Members {
				if other.Has(id) {
					return fmt.Errorf("stages: windows %s and %s both claim %s over overlapping stages", other.Name, w.Name, id)
				}
			}
		}
	}
	return nil
}

// Catalog returns the catalog the table was validated against.
func (t Table) Catalog() *catalog.Catalog {
	if t.catalog == nil {
		return catalog.Default()
	}
	return t.catalog
}

// Len returns the number of stages.
func (t Table) Len() int { return len(t.Stages) }

// Last returns the index of the final stage.
func (t Table) Last() int { return len(t.Stages) - 1 }

// Clamp maps any integer onto a valid stage index.
func (t Table) Clamp(index int) int {
	if index < 0 {
		return 0
	}
	if last := t.Last(); index > last {
		return last
	}
	return index
}

// Stage returns the stage at index (clamped).
func (t Table) Stage(index int) Stage {
	return t.Stages[t.Clamp(index)]
}

// Required returns a copy of the required list for a stage.
func (t Table) Required(index int) []string {
	return cloneStrings(t.Stage(index).Required)
}

// RequiredSet returns the required entities of a stage as a Set.
func (t Table) RequiredSet(index int) Set {
	return NewSet(t.Stage(index).Required...)
}

// RequiredFrom returns every entity required by stage index or any later one.
func (t Table) RequiredFrom(index int) Set {
	out := Set{}
	for i := t.Clamp(index); i < len(t.Stages); i++ {
		for _, id := range t.Stages[i].Required {
			out[id] = struct{}{}
		}
	}
	return out
}

// AllRequired returns every entity that some stage asks the learner to pick.
func (t Table) AllRequired() Set {
	return t.RequiredFrom(0)
}

// WindowFor returns the first window covering stage that lists id.
func (t Table) WindowFor(id string, stage int) (Window, bool) {
	for _, w := range t.Windows {
		if w.Covers(stage) && w.Has(id) {
			return w, true
		}
	}
	return Window{}, false
}

func trimIDs(ids []string) []string {
	if len(ids) == 0 {
		return nil
	}
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if trimmed := strings.TrimSpace(id); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func cloneStrings(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}
