// internal/tui/app.go
//
// This is the main TUI (Terminal User Interface) for the translation
// initiation stepper. It uses bubbletea, which follows The Elm Architecture:
//
// 1. Model: Your application state
// 2. Update: A function that updates state based on messages
// 3. View: A function that renders state to a string
//
// The flow is: User Input -> Message -> Update -> New Model -> View -> Screen
//
// Delayed effects (stage transitions, fading wrong picks, autoplay) are owned
// by the session package as explicit tasks. The app only turns each scheduled
// task into a tea.Tick and hands it back when the tick arrives.

package tui

import (
	"errors"
	"math/rand/v2"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/kingrea/translation-initiation/internal/catalog"
	"github.com/kingrea/translation-initiation/internal/celebration"
	"github.com/kingrea/translation-initiation/internal/config"
	"github.com/kingrea/translation-initiation/internal/logbook"
	"github.com/kingrea/translation-initiation/internal/session"
	"github.com/kingrea/translation-initiation/internal/stages"
	"github.com/kingrea/translation-initiation/internal/stages/resolver"
	"github.com/kingrea/translation-initiation/internal/stages/validator"
)

// appState represents which "screen" we're on
type appState int

const (
	stateWelcome     appState = iota // Gene name entry
	stateGuided                      // Free stepping through the stages
	stateInteractive                 // Pick-the-factors quiz
	stateCelebration                 // Certificate after an interactive run
)

// taskOwner records which driver scheduled a task so a late tick from a
// driver that is no longer on screen can be dropped.
type taskOwner int

const (
	ownerGuided taskOwner = iota
	ownerInteractive
)

// jumpWindow is how long a leading digit waits for a second one, so stages
// 10 and up can be typed directly.
const jumpWindow = 800 * time.Millisecond

// emptyNamePrompt is shown when the learner submits a blank gene name.
const emptyNamePrompt = "Please enter your favorite gene name"

type taskFiredMsg struct {
	owner taskOwner
	task  session.Task
}

// AppOption customizes App construction for tests and alternate runtimes.
type AppOption func(*App)

// WithSubject skips the welcome screen and starts straight away for the
// given gene name.
func WithSubject(subject string) AppOption {
	return func(a *App) {
		if s, err := session.NormalizeSubject(subject); err == nil {
			a.subject = s
			a.skipWelcome = true
		}
	}
}

// WithMode overrides the configured launch mode.
func WithMode(mode resolver.Mode) AppOption {
	return func(a *App) {
		if mode == resolver.ModeGuided || mode == resolver.ModeInteractive {
			a.mode = mode
		}
	}
}

// WithRand fixes the source used to pick certificate quotes.
func WithRand(rng *rand.Rand) AppOption {
	return func(a *App) {
		if rng != nil {
			a.rng = rng
		}
	}
}

// WithSessionOptions forwards options to every session the app creates.
func WithSessionOptions(opts ...session.Option) AppOption {
	return func(a *App) {
		a.sessionOpts = append(a.sessionOpts, opts...)
	}
}

// App is the main application model. In bubbletea, this holds ALL your state.
type App struct {
	state    appState
	config   *config.Config
	logbook  *logbook.Logbook
	catalog  *catalog.Catalog
	table    stages.Table
	resolver *resolver.Resolver
	palette  []catalog.Entity

	mode        resolver.Mode
	subject     string
	skipWelcome bool
	rng         *rand.Rand
	clock       func() time.Time
	sessionOpts []session.Option

	navigator   *session.Navigator
	interactive *session.Interactive
	certificate *celebration.Certificate

	// UI components
	keys          keyMap
	help          help.Model
	progress      progress.Model
	nameInput     textinput.Model
	search        textinput.Model
	paletteCursor int
	jumpPrefix    int // leading digit awaiting a second one, 0 when none
	jumpAt        time.Time
	nameErr       string
	statusMsg     string
	lastLogStatus string

	// Window size (we get this from bubbletea)
	width  int
	height int
}

// NewApp creates a new App instance rooted at baseDir.
func NewApp(baseDir string, opts ...AppOption) (*App, error) {
	cfg, err := config.NewConfig(baseDir)
	if err != nil {
		return nil, err
	}
	table, err := stages.Load(cfg.StagesPath())
	if err != nil {
		return nil, err
	}
	mode, err := resolver.ParseMode(cfg.Mode())
	if err != nil {
		return nil, err
	}
	lb, err := logbook.New(cfg.LogPath())
	if err == nil {
		lb.Info("Session opened · mode: %s · %d stages", mode, table.Len())
	}

	nameInput := newTextInput("e.g. TP53", "gene › ")
	nameInput.CharLimit = 40
	nameInput.Focus()
	search := newTextInput("type a factor, or ↑/↓ and enter", "pick › ")
	search.CharLimit = 24

	a := &App{
		state:     stateWelcome,
		config:    cfg,
		logbook:   lb,
		catalog:   table.Catalog(),
		table:     table,
		resolver:  resolver.New(table),
		mode:      mode,
		keys:      newKeyMap(),
		help:      help.New(),
		progress:  progress.New(progress.WithDefaultGradient(), progress.WithWidth(40), progress.WithoutPercentage()),
		nameInput: nameInput,
		search:    search,
	}
	a.palette = validator.Palette(a.table, a.catalog)
	for _, opt := range opts {
		if opt != nil {
			opt(a)
		}
	}
	if a.clock == nil {
		a.clock = time.Now
	}
	if a.rng == nil {
		a.rng = rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0x1f2e3d))
	}
	return a, nil
}

func newTextInput(placeholder, prompt string) textinput.Model {
	input := textinput.New()
	input.Placeholder = placeholder
	input.Prompt = prompt
	input.Cursor.SetMode(cursor.CursorStatic)
	return input
}

func (a *App) logInfo(format string, args ...any) {
	if a.logbook == nil {
		return
	}
	a.logbook.Info(format, args...)
}

func (a *App) logWarn(format string, args ...any) {
	if a.logbook == nil {
		return
	}
	a.logbook.Warn(format, args...)
}

func (a *App) logError(format string, args ...any) {
	if a.logbook == nil {
		return
	}
	a.logbook.Error(format, args...)
}

func (a *App) logProgress(status string) {
	status = strings.TrimSpace(status)
	if status == "" || status == a.lastLogStatus {
		return
	}
	a.lastLogStatus = status
	a.logInfo(status)
}

// Init is called once when the program starts.
func (a *App) Init() tea.Cmd {
	if a.skipWelcome {
		return a.startRun()
	}
	return nil
}

// Update is called when a message is received.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.help.Width = msg.Width
		a.progress.Width = max(20, min(60, msg.Width/2))
		return a, nil

	case taskFiredMsg:
		return a, a.handleTask(msg)

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return a, tea.Quit
		}
		switch a.state {
		case stateWelcome:
			return a.updateWelcome(msg)
		case stateGuided:
			return a.updateGuided(msg)
		case stateInteractive:
			return a.updateInteractive(msg)
		case stateCelebration:
			return a.updateCelebration(msg)
		}
	}
	return a, nil
}

func (a *App) updateWelcome(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	keys := a.keys.withScope(scopeWelcome)
	switch {
	case key.Matches(msg, keys.Quit):
		return a, tea.Quit
	case key.Matches(msg, keys.Submit):
		subject, err := session.NormalizeSubject(a.nameInput.Value())
		if err != nil {
			a.nameErr = err.Error()
			if errors.Is(err, session.ErrEmptySubject) {
				a.nameErr = emptyNamePrompt
			}
			return a, nil
		}
		a.subject = subject
		a.nameErr = ""
		a.logInfo("Gene chosen: %s", subject)
		return a, a.startRun()
	case key.Matches(msg, keys.Skip):
		a.subject = ""
		a.nameErr = ""
		a.logInfo("Exploring without a gene name")
		return a, a.startRun()
	}
	var cmd tea.Cmd
	a.nameInput, cmd = a.nameInput.Update(msg)
	if strings.TrimSpace(a.nameInput.Value()) != "" {
		a.nameErr = ""
	}
	return a, cmd
}

// startRun builds fresh drivers for the current subject and opens the
// configured mode.
func (a *App) startRun() tea.Cmd {
	opts := append([]session.Option{
		session.WithDelays(session.Delays{
			Transition:  a.config.TransitionDelay(),
			Rejection:   a.config.RejectionDelay(),
			Celebration: a.config.CelebrationDelay(),
			Autoplay:    a.config.AutoplayInterval(),
		}),
		session.WithSubject(a.subject),
	}, a.sessionOpts...)
	a.navigator = session.NewNavigator(a.resolver, opts...)
	a.interactive = session.NewInteractive(a.resolver, opts...)
	a.certificate = nil
	a.statusMsg = ""
	a.nameInput.Blur()
	if a.mode == resolver.ModeInteractive {
		return a.enterInteractive()
	}
	return a.enterGuided()
}

func (a *App) enterGuided() tea.Cmd {
	a.state = stateGuided
	a.mode = resolver.ModeGuided
	a.search.Blur()
	a.navigator.Reset()
	a.logProgress(a.stageStatus(a.navigator.Stage()))
	return nil
}

func (a *App) enterInteractive() tea.Cmd {
	a.state = stateInteractive
	a.mode = resolver.ModeInteractive
	a.search.Reset()
	a.search.Focus()
	a.paletteCursor = 0
	eff := a.interactive.Reset()
	a.logProgress(a.stageStatus(a.interactive.Stage()))
	return a.applyEffects(ownerInteractive, eff)
}

// switchMode flips between guided and interactive. Both drivers restart so
// no task from the old mode can fire into the new one.
func (a *App) switchMode() tea.Cmd {
	next := resolver.ModeInteractive
	if a.mode == resolver.ModeInteractive {
		next = resolver.ModeGuided
	}
	if err := a.config.SetMode(string(next)); err != nil {
		a.logError("Failed to persist mode: %v", err)
	}
	a.logInfo("Switched to %s mode", next)
	if next == resolver.ModeInteractive {
		a.navigator.Reset()
		return a.enterInteractive()
	}
	a.interactive.Timers().CancelAll()
	return a.enterGuided()
}

// jumpTarget turns a typed digit into a stage index. A digit that can begin a
// two-digit stage number jumps at once and is remembered; a second digit typed
// within jumpWindow completes the number when that stage exists.
func (a *App) jumpTarget(digit int) int {
	now := a.clock()
	last := a.table.Last()
	target := digit
	if a.jumpPrefix > 0 && now.Sub(a.jumpAt) <= jumpWindow {
		if combined := a.jumpPrefix*10 + digit; combined <= last {
			target = combined
		}
	}
	a.jumpPrefix = 0
	if target > 0 && target*10 <= last {
		a.jumpPrefix = target
		a.jumpAt = now
	}
	return target
}

func (a *App) updateGuided(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	keys := a.keys.withScope(scopeGuided)
	nav := a.navigator
	if !key.Matches(msg, keys.Jump) {
		a.jumpPrefix = 0
	}
	switch {
	case key.Matches(msg, keys.Quit):
		return a, tea.Quit
	case key.Matches(msg, keys.SwitchMode):
		return a, a.switchMode()
	case key.Matches(msg, keys.Next):
		return a, a.applyEffects(ownerGuided, nav.Next())
	case key.Matches(msg, keys.Prev):
		nav.Prev()
	case key.Matches(msg, keys.Jump):
		digit, err := strconv.Atoi(msg.String())
		if err != nil {
			return a, nil
		}
		eff := nav.Jump(a.jumpTarget(digit))
		a.logProgress(a.stageStatus(nav.Stage()))
		return a, a.applyEffects(ownerGuided, eff)
	case key.Matches(msg, keys.Last):
		eff := nav.Jump(a.table.Last())
		a.logProgress(a.stageStatus(nav.Stage()))
		return a, a.applyEffects(ownerGuided, eff)
	case key.Matches(msg, keys.Autoplay):
		eff := nav.ToggleAutoplay()
		if nav.Autoplay() {
			a.statusMsg = "Autoplay on"
		} else {
			a.statusMsg = "Autoplay off"
		}
		a.logInfo("%s at stage %d", a.statusMsg, nav.Stage())
		return a, a.applyEffects(ownerGuided, eff)
	case key.Matches(msg, keys.Reset):
		nav.Reset()
		a.statusMsg = "Back to the beginning"
		a.logInfo("Guided run reset")
	default:
		return a, nil
	}
	a.logProgress(a.stageStatus(nav.Stage()))
	return a, nil
}

func (a *App) updateInteractive(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	keys := a.keys.withScope(scopeInteractive)
	switch {
	case key.Matches(msg, keys.Quit):
		return a, tea.Quit
	case key.Matches(msg, keys.SwitchMode):
		return a, a.switchMode()
	case key.Matches(msg, keys.Reset):
		a.statusMsg = "Starting over"
		a.logInfo("Interactive run reset")
		return a, a.enterInteractive()
	case key.Matches(msg, keys.Up):
		a.movePaletteCursor(-1)
		return a, nil
	case key.Matches(msg, keys.Down):
		a.movePaletteCursor(1)
		return a, nil
	case key.Matches(msg, keys.Pick):
		return a, a.pick()
	}
	var cmd tea.Cmd
	a.search, cmd = a.search.Update(msg)
	return a, cmd
}

func (a *App) movePaletteCursor(delta int) {
	if len(a.palette) == 0 {
		return
	}
	a.paletteCursor = (a.paletteCursor + delta + len(a.palette)) % len(a.palette)
}

// pick resolves the typed query (or the highlighted palette entry) and
// clicks it.
func (a *App) pick() tea.Cmd {
	if a.interactive == nil || len(a.palette) == 0 {
		return nil
	}
	query := strings.TrimSpace(a.search.Value())
	id := a.palette[min(a.paletteCursor, len(a.palette)-1)].ID
	if query != "" {
		inPalette := func(e catalog.Entity) bool {
			for _, p := range a.palette {
				if p.ID == e.ID {
					return true
				}
			}
			return false
		}
		ent, err := a.catalog.Match(query, inPalette)
		if err != nil {
			a.statusMsg = err.Error()
			var noMatch *catalog.NoMatchError
			if errors.As(err, &noMatch) {
				a.logWarn("Unknown factor %q", noMatch.Query)
			}
			return nil
		}
		id = ent.ID
	}
	a.search.Reset()

	stage := a.interactive.Stage()
	res, eff := a.interactive.Click(id)
	label := a.catalog.Label(id)
	switch res.Outcome {
	case validator.OutcomeAccepted:
		a.statusMsg = "✓ " + label
		a.logInfo("Stage %d: picked %s", stage, label)
		if res.StageComplete {
			a.statusMsg = "✓ " + label + " · stage complete"
			a.logInfo("Stage %d complete", stage)
		}
	case validator.OutcomeRejected:
		a.statusMsg = "✗ " + label + " is not needed here"
		a.logWarn("Stage %d: wrong pick %s", stage, label)
	case validator.OutcomeIgnored:
		switch a.interactive.Phase() {
		case session.PhaseComplete:
			a.statusMsg = "Run complete · ctrl+r to start over"
		case session.PhaseTransitioning:
			a.statusMsg = "Hold on, the complex is still moving"
		}
	}
	return a.applyEffects(ownerInteractive, eff)
}

func (a *App) updateCelebration(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	keys := a.keys.withScope(scopeCelebration)
	switch {
	case key.Matches(msg, keys.Another):
		a.logInfo("Starting over with a new gene")
		a.state = stateWelcome
		a.subject = ""
		a.certificate = nil
		a.statusMsg = ""
		a.nameInput.Reset()
		a.nameInput.Focus()
		if a.interactive != nil {
			a.interactive.Timers().CancelAll()
		}
		return a, nil
	case key.Matches(msg, keys.Back):
		a.state = stateInteractive
		a.search.Focus()
		return a, nil
	case key.Matches(msg, keys.Quit):
		return a, tea.Quit
	}
	return a, nil
}

// handleTask hands a due task back to the driver that scheduled it.
func (a *App) handleTask(msg taskFiredMsg) tea.Cmd {
	switch msg.owner {
	case ownerGuided:
		if a.navigator == nil || a.state != stateGuided {
			return nil
		}
		eff := a.navigator.Fire(msg.task)
		a.logProgress(a.stageStatus(a.navigator.Stage()))
		return a.applyEffects(ownerGuided, eff)
	case ownerInteractive:
		if a.interactive == nil || a.state != stateInteractive {
			return nil
		}
		before := a.interactive.Stage()
		eff := a.interactive.Fire(msg.task)
		if a.interactive.Stage() != before {
			a.statusMsg = ""
			a.logProgress(a.stageStatus(a.interactive.Stage()))
		}
		if a.interactive.Phase() == session.PhaseComplete {
			a.logProgress("Translation initiation complete")
		}
		return a.applyEffects(ownerInteractive, eff)
	}
	return nil
}

// applyEffects arms a tick for every scheduled task and reacts to a
// completion.
func (a *App) applyEffects(owner taskOwner, eff session.Effects) tea.Cmd {
	if eff.Completion != nil {
		a.complete(owner, *eff.Completion)
	}
	var cmds []tea.Cmd
	for _, task := range eff.Schedule {
		cmds = append(cmds, tickTask(owner, task))
	}
	return tea.Batch(cmds...)
}

func tickTask(owner taskOwner, task session.Task) tea.Cmd {
	return tea.Tick(task.Delay, func(time.Time) tea.Msg {
		return taskFiredMsg{owner: owner, task: task}
	})
}

func (a *App) complete(owner taskOwner, c session.Completion) {
	if owner == ownerGuided {
		a.statusMsg = "Translation initiation complete · ← to go back, r to restart"
		a.logProgress("Guided run complete")
		return
	}
	cert := celebration.New(c, a.rng)
	a.certificate = &cert
	a.state = stateCelebration
	a.search.Blur()
	a.logInfo("Certificate for %s (%s)", cert.Subject, cert.FileName)
}

func (a *App) stageStatus(stage int) string {
	return "Stage " + strconv.Itoa(stage) + ": " + a.table.Stage(stage).Title
}

// currentView returns the view and meta of the active driver.
func (a *App) currentView() (resolver.View, resolver.Meta) {
	switch a.state {
	case stateInteractive, stateCelebration:
		if a.interactive != nil {
			return a.interactive.View(), a.interactive.Meta()
		}
	case stateGuided:
		if a.navigator != nil {
			return a.navigator.View(), a.navigator.Meta()
		}
	}
	view := a.resolver.ComputeView(resolver.ModeGuided, 0, nil)
	return view, view.Meta
}
