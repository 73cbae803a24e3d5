package tui

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/kingrea/translation-initiation/internal/celebration"
	"github.com/kingrea/translation-initiation/internal/session"
	"github.com/kingrea/translation-initiation/internal/stages/resolver"
	"github.com/kingrea/translation-initiation/internal/stages/validator"
)

const (
	canvasRows    = 14
	logPanelLines = 6
)

var (
	accentColor = lipgloss.Color("#5B8DEF")
	headerColor = lipgloss.Color("#FF6B6B")
	borderColor = lipgloss.Color("#444444")
	mutedColor  = lipgloss.Color("#888888")
	goodColor   = lipgloss.Color("#4CAF50")
	badColor    = lipgloss.Color("#E57373")

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(borderColor).
			Padding(0, 1)
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(accentColor)
	mutedStyle = lipgloss.NewStyle().Foreground(mutedColor)
	goodStyle  = lipgloss.NewStyle().Foreground(goodColor)
	badStyle   = lipgloss.NewStyle().Foreground(badColor).Bold(true)
	boldText   = func(s string) string { return lipgloss.NewStyle().Bold(true).Render(s) }
)

// View renders the current state to a string.
func (a *App) View() string {
	width := a.width
	if width <= 0 {
		width = 100
	}
	header := lipgloss.NewStyle().
		Bold(true).
		Foreground(headerColor).
		MarginBottom(1).
		Render("⬡ TRANSLATION INITIATION")

	var content string
	scope := scopeGuided
	switch a.state {
	case stateWelcome:
		content = a.renderWelcome(width)
		scope = scopeWelcome
	case stateGuided:
		content = a.renderStage(width)
	case stateInteractive:
		content = a.renderStage(width)
		scope = scopeInteractive
	case stateCelebration:
		content = a.renderCertificate(width)
		scope = scopeCelebration
	}

	sections := []string{header, content}
	if logPanel := a.renderLogPanel(width); logPanel != "" {
		sections = append(sections, logPanel)
	}
	if a.statusMsg != "" {
		sections = append(sections, lipgloss.NewStyle().Foreground(mutedColor).Render(a.statusMsg))
	}
	sections = append(sections, a.help.View(a.keys.withScope(scope)))
	return strings.Join(sections, "\n")
}

func (a *App) renderWelcome(width int) string {
	lines := []string{
		titleStyle.Render("What's your favorite gene?"),
		mutedStyle.Render("Walk its mRNA through eukaryotic translation initiation, from a free 40S subunit to an 80S ribosome poised at the start codon."),
		"",
		a.nameInput.View(),
	}
	if a.nameErr != "" {
		lines = append(lines, badStyle.Render(a.nameErr))
	}
	lines = append(lines, "", mutedStyle.Render(fmt.Sprintf("Mode: %s (tab inside a run switches)", a.mode)))
	return boxStyle.Width(max(30, min(width-2, 80))).Render(strings.Join(lines, "\n"))
}

func (a *App) renderStage(width int) string {
	view, meta := a.currentView()
	rightWidth := max(30, width/3)
	leftWidth := width - rightWidth - 4
	if leftWidth < 40 {
		leftWidth = width - 2
		rightWidth = 0
	}

	left := lipgloss.JoinVertical(lipgloss.Left,
		a.renderStageHeader(view, meta),
		"",
		a.renderCanvas(view, leftWidth-4),
		a.renderTimeline(view.Stage),
	)
	leftBox := boxStyle.Width(max(20, leftWidth)).Render(left)
	if rightWidth == 0 {
		return lipgloss.JoinVertical(lipgloss.Left, leftBox, a.renderSidePanel(view, leftWidth))
	}
	rightBox := a.renderSidePanel(view, rightWidth)
	return lipgloss.JoinHorizontal(lipgloss.Top, leftBox, rightBox)
}

func (a *App) renderSidePanel(view resolver.View, width int) string {
	var body string
	if a.state == stateInteractive {
		body = a.renderPalette(view, width-4)
	} else {
		body = a.renderInfoPanel(view, width-4)
	}
	return boxStyle.Width(max(20, width)).Render(body)
}

func (a *App) renderStageHeader(view resolver.View, meta resolver.Meta) string {
	last := a.table.Last()
	counter := fmt.Sprintf("Stage %d/%d · %s", view.Stage, last, view.Mode)
	if a.state == stateGuided && a.navigator != nil && a.navigator.Autoplay() {
		counter += " · autoplay"
	}
	if a.subject != "" {
		counter += " · " + a.subject
	}
	ratio := 0.0
	if last > 0 {
		ratio = float64(view.Stage) / float64(last)
	}
	if meta.IsFinal && (a.navigatorFinished() || a.interactiveComplete()) {
		ratio = 1
	}
	lines := []string{
		mutedStyle.Render(counter),
		a.progress.ViewAs(ratio),
		titleStyle.Render(meta.Title),
		flattenMarkup(meta.Description, boldText),
	}
	if meta.IsAutoAdvance && a.state == stateInteractive {
		lines = append(lines, mutedStyle.Render("Nothing to pick here, watch the complex move on."))
	}
	return strings.Join(lines, "\n")
}

func (a *App) navigatorFinished() bool {
	return a.state == stateGuided && a.navigator != nil && a.navigator.Finished()
}

func (a *App) interactiveComplete() bool {
	return a.state == stateInteractive && a.interactive != nil && a.interactive.Phase() == session.PhaseComplete
}

func (a *App) renderCanvas(view resolver.View, width int) string {
	canvas := newStageCanvas(
		a.config.Settings.Canvas.Width,
		a.config.Settings.Canvas.Height,
		max(40, width),
		canvasRows,
	)
	out := canvas.render(view.Visible)
	windows := map[string]bool{}
	var names []string
	for _, e := range view.Visible {
		if e.Window != "" && !windows[e.Window] {
			windows[e.Window] = true
			names = append(names, e.Window)
		}
	}
	if len(names) > 0 {
		out += "\n" + mutedStyle.Render("converging: "+strings.Join(names, ", "))
	}
	return out
}

// renderTimeline draws one marker per stage: done, current, upcoming. Stages
// that advance on their own are drawn hollow.
func (a *App) renderTimeline(current int) string {
	var b strings.Builder
	for i, st := range a.table.Stages {
		marker := "●"
		if st.AutoAdvance() {
			marker = "○"
		}
		switch {
		case i == current:
			b.WriteString(titleStyle.Render("◉"))
		case i < current:
			b.WriteString(goodStyle.Render(marker))
		default:
			b.WriteString(mutedStyle.Render(marker))
		}
		if i < a.table.Last() {
			b.WriteString(mutedStyle.Render("─"))
		}
	}
	return b.String()
}

func (a *App) renderInfoPanel(view resolver.View, width int) string {
	if len(view.Panel) == 0 {
		return mutedStyle.Render("No factors to describe at this stage.")
	}
	var blocks []string
	for _, card := range view.Panel {
		head := titleStyle.Render(card.Label)
		if card.Title != "" && card.Title != card.Label {
			head += " " + mutedStyle.Render(flattenMarkup(card.Title, nil))
		}
		lines := []string{head}
		if card.Complex && len(card.Components) > 0 {
			labels := make([]string, len(card.Components))
			for i, id := range card.Components {
				labels[i] = a.catalog.Label(id)
			}
			lines = append(lines, mutedStyle.Render("made of "+strings.Join(labels, " + ")))
		}
		if body := flattenMarkup(card.Body, boldText); body != "" {
			lines = append(lines, body)
		}
		blocks = append(blocks, lipgloss.NewStyle().Width(max(20, width)).Render(strings.Join(lines, "\n")))
	}
	return strings.Join(blocks, "\n\n")
}

func (a *App) renderPalette(view resolver.View, width int) string {
	if a.interactive == nil {
		return ""
	}
	selected := a.interactive.Selected()
	rejected := a.interactive.Rejected()
	remaining := len(validator.Available(a.table, a.catalog, view.Stage, selected))
	lines := []string{
		titleStyle.Render("Factors"),
		mutedStyle.Render(fmt.Sprintf("%d still needed at this stage", remaining)),
		"",
	}
	for i, e := range a.palette {
		marker := "  "
		label := e.Label
		switch {
		case selected.Has(e.ID):
			marker = goodStyle.Render("✓ ")
			label = goodStyle.Render(label)
		case rejected.Has(e.ID):
			marker = badStyle.Render("✗ ")
			label = badStyle.Render(label)
		}
		pointer := "  "
		if i == a.paletteCursor {
			pointer = titleStyle.Render("› ")
		}
		lines = append(lines, pointer+marker+label)
	}
	lines = append(lines, "", a.search.View())
	return lipgloss.NewStyle().Width(max(20, width)).Render(strings.Join(lines, "\n"))
}

func (a *App) renderCertificate(width int) string {
	if a.certificate == nil {
		return ""
	}
	cert := *a.certificate
	lines := []string{
		titleStyle.Render("🎉 Congratulations!"),
		"",
		boldText(cert.Headline()),
		mutedStyle.Render(cert.Dateline()),
		"",
		lipgloss.NewStyle().Italic(true).Render("“" + cert.Quote.Text + "”"),
		mutedStyle.Render(cert.Attribution()),
		"",
		mutedStyle.Render(celebration.Footer),
		mutedStyle.Render("certificate: " + cert.FileName),
	}
	return boxStyle.Width(max(30, min(width-2, 80))).Render(strings.Join(lines, "\n"))
}

func (a *App) renderLogPanel(width int) string {
	if a.logbook == nil {
		return ""
	}
	lines, total := a.logbook.Tail(logPanelLines)
	if len(lines) == 0 {
		return ""
	}
	fileName := filepath.Base(a.logbook.Path())
	if fileName == "." || fileName == "" {
		fileName = "log"
	}
	head := titleStyle.Render(fmt.Sprintf("LOG · %s · %d entries", fileName, total))
	body := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#AAAAAA")).
		Render(strings.Join(lines, "\n"))
	return boxStyle.Width(max(20, width-2)).Render(fmt.Sprintf("%s\n%s", head, body))
}
