package resolver

import (
	"fmt"
	"strings"

	"github.com/kingrea/translation-initiation/internal/catalog"
	"github.com/kingrea/translation-initiation/internal/stages"
)

// Mode selects which driver a view is computed for.
type Mode string

const (
	ModeGuided      Mode = "guided"
	ModeInteractive Mode = "interactive"
)

// ParseMode accepts the textual mode names used by flags and config.
func ParseMode(value string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(value))) {
	case ModeGuided:
		return ModeGuided, nil
	case ModeInteractive:
		return ModeInteractive, nil
	default:
		return "", fmt.Errorf("resolver: unknown mode %q (want guided or interactive)", value)
	}
}

// VisibleEntity is an entity drawn at a stage.
type VisibleEntity struct {
	ID       string
	Label    string
	Layer    int
	Position catalog.Point
	// Window names the convergence window pinning the entity, if any.
	Window string
}

// Meta is the descriptive content for a stage.
type Meta struct {
	Title         string
	Description   string
	IsAutoAdvance bool
	IsFinal       bool
}

// Card is one entry in the stage info panel.
type Card struct {
	ID         string
	Label      string
	Title      string
	Body       string
	Complex    bool
	Components []string
}

// View is the full derived state of one stage.
type View struct {
	Stage   int
	Mode    Mode
	Visible []VisibleEntity
	Meta    Meta
	Panel   []Card
}

// Has reports whether id is visible in the view.
func (v View) Has(id string) bool {
	for _, e := range v.Visible {
		if e.ID == id {
			return true
		}
	}
	return false
}

// IDs returns the visible identifiers in catalog order.
func (v View) IDs() []string {
	out := make([]string, len(v.Visible))
	for i, e := range v.Visible {
		out[i] = e.ID
	}
	return out
}

// Resolver computes views over a fixed stage table.
type Resolver struct {
	table        stages.Table
	catalog      *catalog.Catalog
	present      []stages.Set
	requiredFrom []stages.Set
}

// New precomputes the accretion of every stage in table.
func New(table stages.Table) *Resolver {
	r := &Resolver{
		table:        table.Clone(),
		catalog:      table.Catalog(),
		present:      make([]stages.Set, table.Len()),
		requiredFrom: make([]stages.Set, table.Len()),
	}
	current := stages.Set{}
	for i, st := range r.table.Stages {
		for _, id := range st.Remove {
			delete(current, id)
		}
		for _, id := range st.Add {
			current[id] = struct{}{}
		}
		r.present[i] = current.Clone()
	}
	for i := range r.table.Stages {
		r.requiredFrom[i] = r.table.RequiredFrom(i)
	}
	return r
}

// Table returns the table the resolver was built from.
func (r *Resolver) Table() stages.Table { return r.table }

// Last returns the final stage index.
func (r *Resolver) Last() int { return r.table.Last() }

// Visible returns the identifiers drawn at a stage. In interactive mode an
// entity that this or a later stage still asks the learner to pick stays
// hidden until it is selected.
func (r *Resolver) Visible(mode Mode, stage int, selected stages.Set) stages.Set {
	stage = r.table.Clamp(stage)
	out := r.present[stage].Clone()
	if mode != ModeInteractive {
		return out
	}
	for id := range out {
		if r.requiredFrom[stage].Has(id) && !selected.Has(id) {
			delete(out, id)
		}
	}
	return out
}

// PositionOf returns where id sits at stage: the point of the first window
// covering the stage that lists id, otherwise the entity's home.
func (r *Resolver) PositionOf(id string, stage int) catalog.Point {
	if w, ok := r.table.WindowFor(id, r.table.Clamp(stage)); ok {
		return w.Point
	}
	if e, ok := r.catalog.Entity(id); ok {
		return e.Home
	}
	return catalog.DefaultHome
}

// ComputeView derives the complete view for a stage. Out of range indices are
// clamped; selected may be nil.
func (r *Resolver) ComputeView(mode Mode, stage int, selected stages.Set) View {
	stage = r.table.Clamp(stage)
	if mode != ModeInteractive {
		mode = ModeGuided
	}
	visible := r.Visible(mode, stage, selected)
	view := View{
		Stage:   stage,
		Mode:    mode,
		Visible: make([]VisibleEntity, 0, len(visible)),
		Meta:    r.meta(stage),
		Panel:   r.panel(stage),
	}
	for _, e := range r.catalog.Entities() {
		if !visible.Has(e.ID) {
			continue
		}
		ve := VisibleEntity{ID: e.ID, Label: e.Label, Layer: e.Layer, Position: e.Home}
		if w, ok := r.table.WindowFor(e.ID, stage); ok {
			ve.Position = w.Point
			ve.Window = w.Name
		}
		view.Visible = append(view.Visible, ve)
	}
	return view
}

// Completion returns the record shown after the final stage.
func (r *Resolver) Completion() Meta {
	return Meta{
		Title:       r.table.Completion.Title,
		Description: r.table.Completion.Description,
		IsFinal:     true,
	}
}

func (r *Resolver) meta(stage int) Meta {
	st := r.table.Stage(stage)
	return Meta{
		Title:         st.Title,
		Description:   st.Description,
		IsAutoAdvance: st.AutoAdvance(),
		IsFinal:       stage == r.table.Last(),
	}
}

func (r *Resolver) panel(stage int) []Card {
	ids := r.table.Stage(stage).Panel
	cards := make([]Card, 0, len(ids))
	for _, id := range ids {
		if e, ok := r.catalog.Entity(id); ok {
			cards = append(cards, Card{ID: e.ID, Label: e.Label, Title: e.Info.Title, Body: e.Info.Body})
			continue
		}
		if cx, ok := r.catalog.Complex(id); ok {
			cards = append(cards, Card{
				ID:         cx.ID,
				Label:      cx.Label,
				Title:      cx.Info.Title,
				Body:       cx.Info.Body,
				Complex:    true,
				Components: cx.Components,
			})
		}
	}
	return cards
}
