package tui

import (
	"sort"
	"strings"

	"github.com/kingrea/translation-initiation/internal/catalog"
	"github.com/kingrea/translation-initiation/internal/stages/resolver"
)

// stageCanvas maps the logical coordinate space onto a character grid.
type stageCanvas struct {
	logicalWidth  int
	logicalHeight int
	cols          int
	rows          int
}

type canvasGroup struct {
	point  catalog.Point
	labels []string
	top    int
}

func newStageCanvas(logicalWidth, logicalHeight, cols, rows int) stageCanvas {
	return stageCanvas{
		logicalWidth:  max(1, logicalWidth),
		logicalHeight: max(1, logicalHeight),
		cols:          max(8, cols),
		rows:          max(4, rows),
	}
}

func (c stageCanvas) cell(p catalog.Point) (int, int) {
	col := p.X * c.cols / c.logicalWidth
	row := p.Y * c.rows / c.logicalHeight
	return min(max(col, 0), c.cols-1), min(max(row, 0), c.rows-1)
}

// render draws every visible entity. Entities sharing a point are listed
// top-down in layer order; groups whose top entity has a lower layer are
// drawn last so they win any overlap.
func (c stageCanvas) render(visible []resolver.VisibleEntity) string {
	grid := make([][]rune, c.rows)
	for i := range grid {
		grid[i] = []rune(strings.Repeat(" ", c.cols))
	}
	byPoint := map[catalog.Point]*canvasGroup{}
	var groups []*canvasGroup
	ordered := append([]resolver.VisibleEntity(nil), visible...)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Layer < ordered[j].Layer })
	for _, e := range ordered {
		g, ok := byPoint[e.Position]
		if !ok {
			g = &canvasGroup{point: e.Position, top: e.Layer}
			byPoint[e.Position] = g
			groups = append(groups, g)
		}
		g.labels = append(g.labels, e.Label)
	}
	sort.SliceStable(groups, func(i, j int) bool { return groups[i].top > groups[j].top })
	for _, g := range groups {
		col, row := c.cell(g.point)
		for i, label := range g.labels {
			r := row + i
			if r >= c.rows {
				break
			}
			writeAt(grid[r], col, "["+label+"]")
		}
	}
	lines := make([]string, len(grid))
	for i, line := range grid {
		lines[i] = strings.TrimRight(string(line), " ")
	}
	return strings.Join(lines, "\n")
}

func writeAt(line []rune, col int, text string) {
	runes := []rune(text)
	if col+len(runes) > len(line) {
		col = max(0, len(line)-len(runes))
	}
	for i, r := range runes {
		if col+i >= len(line) {
			return
		}
		line[col+i] = r
	}
}
