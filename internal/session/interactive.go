package session

import (
	"time"

	"github.com/kingrea/translation-initiation/internal/stages"
	"github.com/kingrea/translation-initiation/internal/stages/resolver"
	"github.com/kingrea/translation-initiation/internal/stages/validator"
)

// Phase is the interactive state machine's current state.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseTransitioning
	PhaseComplete
)

func (p Phase) String() string {
	switch p {
	case PhaseTransitioning:
		return "transitioning"
	case PhaseComplete:
		return "complete"
	default:
		return "idle"
	}
}

// Interactive drives interactive mode, where each stage only advances once
// the learner has picked every factor it requires.
type Interactive struct {
	resolver *resolver.Resolver
	table    stages.Table
	timers   *Timers
	clock    func() time.Time
	delays   Delays
	subject  string
	newID    func() string

	sessionID string
	stage     int
	phase     Phase
	selected  stages.Set
	rejected  stages.Set
	signaled  bool
}

// NewInteractive creates a session positioned before its first stage. Call
// Start to arm the first stage.
func NewInteractive(r *resolver.Resolver, opts ...Option) *Interactive {
	o := buildOptions(opts)
	s := &Interactive{
		resolver: r,
		table:    r.Table(),
		timers:   NewTimers(o.clock),
		clock:    o.clock,
		delays:   o.delays,
		subject:  o.subject,
		newID:    o.newID,
	}
	s.clear()
	return s
}

// FirstStage is where interactive runs begin; stage 0 has nothing to pick.
func (s *Interactive) FirstStage() int {
	return s.table.Clamp(1)
}

// Start arms the current stage. Auto-advancing stages schedule their
// transition immediately.
func (s *Interactive) Start() Effects {
	return s.arrive()
}

// Reset discards all state, cancels every pending task and starts over.
func (s *Interactive) Reset() Effects {
	s.clear()
	return s.arrive()
}

func (s *Interactive) clear() {
	s.timers.CancelAll()
	s.sessionID = s.newID()
	s.stage = s.FirstStage()
	s.phase = PhaseIdle
	s.selected = stages.Set{}
	s.rejected = stages.Set{}
	s.signaled = false
}

// Stage returns the current stage index.
func (s *Interactive) Stage() int { return s.stage }

// Phase returns the state machine phase.
func (s *Interactive) Phase() Phase { return s.phase }

// SessionID identifies the current run.
func (s *Interactive) SessionID() string { return s.sessionID }

// Subject returns the learner's gene name, if any.
func (s *Interactive) Subject() string { return s.subject }

// Selected returns a copy of the accepted selections for this stage.
func (s *Interactive) Selected() stages.Set { return s.selected.Clone() }

// Rejected returns a copy of the wrong picks still being flagged.
func (s *Interactive) Rejected() stages.Set { return s.rejected.Clone() }

// Animating reports whether clicks are currently ignored.
func (s *Interactive) Animating() bool { return s.phase != PhaseIdle }

// Timers exposes the pending task registry.
func (s *Interactive) Timers() *Timers { return s.timers }

// View computes the interactive view of the current stage.
func (s *Interactive) View() resolver.View {
	return s.resolver.ComputeView(resolver.ModeInteractive, s.stage, s.selected)
}

// Meta returns the stage meta, or the completion record once complete.
func (s *Interactive) Meta() resolver.Meta {
	if s.phase == PhaseComplete {
		return s.resolver.Completion()
	}
	return s.View().Meta
}

// Click applies a pick and returns the validator's verdict.
func (s *Interactive) Click(id string) (validator.Result, Effects) {
	res := validator.ValidateClick(s.table, validator.Click{
		Stage:     s.stage,
		Selected:  s.selected,
		Rejected:  s.rejected,
		Clicked:   id,
		Animating: s.Animating(),
	})
	var eff Effects
	switch res.Outcome {
	case validator.OutcomeAccepted:
		s.selected, s.rejected = res.Selected, res.Rejected
		s.timers.CancelKind(TaskClearRejection, id)
		if res.StageComplete {
			s.phase = PhaseTransitioning
			eff.Schedule = append(eff.Schedule, s.timers.Schedule(TaskTransition, "", s.delays.Transition))
		}
	case validator.OutcomeRejected:
		s.rejected = res.Rejected
		eff.Schedule = append(eff.Schedule, s.timers.Schedule(TaskClearRejection, id, s.delays.Rejection))
	}
	return res, eff
}

// Fire applies a task that has come due. Canceled or stale tasks are no-ops.
func (s *Interactive) Fire(task Task) Effects {
	if !s.timers.Fire(task) {
		return Effects{}
	}
	switch task.Kind {
	case TaskClearRejection:
		delete(s.rejected, task.Entity)
	case TaskTransition:
		return s.advance()
	case TaskCelebrate:
		return s.complete()
	}
	return Effects{}
}

func (s *Interactive) advance() Effects {
	s.timers.CancelKind(TaskClearRejection, "")
	s.selected = stages.Set{}
	s.rejected = stages.Set{}
	if s.stage >= s.table.Last() {
		s.phase = PhaseComplete
		if s.subject == "" {
			return Effects{}
		}
		return Effects{Schedule: []Task{s.timers.Schedule(TaskCelebrate, "", s.delays.Celebration)}}
	}
	s.stage++
	return s.arrive()
}

func (s *Interactive) arrive() Effects {
	s.phase = PhaseIdle
	if !s.table.Stage(s.stage).AutoAdvance() {
		return Effects{}
	}
	s.phase = PhaseTransitioning
	return Effects{Schedule: []Task{s.timers.Schedule(TaskTransition, "", s.delays.Transition)}}
}

func (s *Interactive) complete() Effects {
	if s.signaled {
		return Effects{}
	}
	s.signaled = true
	return Effects{Completion: &Completion{SessionID: s.sessionID, Subject: s.subject, CompletedAt: s.clock()}}
}
