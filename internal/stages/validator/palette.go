package validator

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/kingrea/translation-initiation/internal/catalog"
	"github.com/kingrea/translation-initiation/internal/stages"
)

var eifLabel = regexp.MustCompile(`(?i)^eIF(\d+)([A-Z]?)(?:-(.+))?$`)

type paletteKey struct {
	eif     bool
	number  int
	letter  string
	subtype int
	order   int
}

func keyFor(e catalog.Entity, order int) paletteKey {
	m := eifLabel.FindStringSubmatch(e.Label)
	if m == nil {
		return paletteKey{order: order}
	}
	n, _ := strconv.Atoi(m[1])
	return paletteKey{
		eif:     true,
		number:  n,
		letter:  strings.ToUpper(m[2]),
		subtype: subtypeRank(m[3]),
		order:   order,
	}
}

func subtypeRank(s string) int {
	switch strings.ToUpper(s) {
	case "":
		return 0
	case "CTD":
		return 1
	case "NTD":
		return 2
	default:
		return 3
	}
}

func (a paletteKey) less(b paletteKey) bool {
	if a.eif != b.eif {
		return a.eif
	}
	if a.eif {
		if a.number != b.number {
			return a.number < b.number
		}
		if a.letter != b.letter {
			return a.letter < b.letter
		}
		if a.subtype != b.subtype {
			return a.subtype < b.subtype
		}
	}
	return a.order < b.order
}

// Palette returns every entity some stage asks the learner to pick, with eIF
// factors first (by number, letter suffix, then domain) and the rest in
// catalog order.
func Palette(table stages.Table, cat *catalog.Catalog) []catalog.Entity {
	return sortForPalette(table.AllRequired(), cat)
}

// Available returns the entities the stage still needs, in palette order.
func Available(table stages.Table, cat *catalog.Catalog, stage int, selected stages.Set) []catalog.Entity {
	remaining := stages.Set{}
	for _, id := range table.Stage(stage).Required {
		if !selected.Has(id) {
			remaining[id] = struct{}{}
		}
	}
	return sortForPalette(remaining, cat)
}

func sortForPalette(ids stages.Set, cat *catalog.Catalog) []catalog.Entity {
	if cat == nil {
		cat = catalog.Default()
	}
	type item struct {
		entity catalog.Entity
		key    paletteKey
	}
	items := make([]item, 0, len(ids))
	for _, e := range cat.Entities() {
		if !ids.Has(e.ID) {
			continue
		}
		items = append(items, item{entity: e, key: keyFor(e, cat.Order(e.ID))})
	}
	sort.SliceStable(items, func(i, j int) bool { return items[i].key.less(items[j].key) })
	out := make([]catalog.Entity, len(items))
	for i, it := range items {
		out[i] = it.entity
	}
	return out
}
