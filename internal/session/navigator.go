package session

import (
	"time"

	"github.com/kingrea/translation-initiation/internal/stages/resolver"
)

// Navigator drives guided mode: free movement across the stages plus an
// optional autoplay that steps forward on a fixed interval.
type Navigator struct {
	resolver *resolver.Resolver
	timers   *Timers
	clock    func() time.Time
	delays   Delays
	subject  string
	newID    func() string

	sessionID string
	stage     int
	finished  bool
	signaled  bool
	autoplay  bool
}

// NewNavigator starts a guided run at stage 0.
func NewNavigator(r *resolver.Resolver, opts ...Option) *Navigator {
	o := buildOptions(opts)
	n := &Navigator{
		resolver: r,
		timers:   NewTimers(o.clock),
		clock:    o.clock,
		delays:   o.delays,
		subject:  o.subject,
		newID:    o.newID,
	}
	n.sessionID = n.newID()
	return n
}

// Stage returns the current stage index.
func (n *Navigator) Stage() int { return n.stage }

// SessionID identifies the current run.
func (n *Navigator) SessionID() string { return n.sessionID }

// Finished reports whether the learner has stepped past the final stage.
func (n *Navigator) Finished() bool { return n.finished }

// Autoplay reports whether autoplay is running.
func (n *Navigator) Autoplay() bool { return n.autoplay }

// Timers exposes the pending task registry.
func (n *Navigator) Timers() *Timers { return n.timers }

// View computes the guided view of the current stage.
func (n *Navigator) View() resolver.View {
	return n.resolver.ComputeView(resolver.ModeGuided, n.stage, nil)
}

// Meta returns the stage meta, or the completion record once finished.
func (n *Navigator) Meta() resolver.Meta {
	if n.finished {
		return n.resolver.Completion()
	}
	return n.View().Meta
}

// Next advances one stage. At the final stage the stage index stays put and
// completion is signaled, once per run.
func (n *Navigator) Next() Effects {
	if n.stage >= n.resolver.Last() {
		return n.finish()
	}
	n.stage++
	var eff Effects
	if n.autoplay {
		n.timers.CancelKind(TaskAutoplay, "")
		eff.Schedule = append(eff.Schedule, n.timers.Schedule(TaskAutoplay, "", n.delays.Autoplay))
	}
	return eff
}

func (n *Navigator) finish() Effects {
	var eff Effects
	n.finished = true
	n.stopAutoplay()
	if !n.signaled {
		n.signaled = true
		eff.Completion = &Completion{SessionID: n.sessionID, Subject: n.subject, CompletedAt: n.clock()}
	}
	return eff
}

// Prev steps back one stage, leaving the completion record if it is shown.
func (n *Navigator) Prev() {
	if n.finished {
		n.finished = false
		return
	}
	n.stage = n.resolver.Table().Clamp(n.stage - 1)
}

// Jump moves directly to stage index. Indices below 0 clamp to the first
// stage; indices past the last stage land on it and finish the run, exactly
// like stepping past it with Next.
func (n *Navigator) Jump(index int) Effects {
	if index > n.resolver.Last() {
		n.stage = n.resolver.Last()
		return n.finish()
	}
	n.finished = false
	n.stage = n.resolver.Table().Clamp(index)
	return Effects{}
}

// Reset returns to stage 0, stops autoplay and cancels every pending task.
func (n *Navigator) Reset() {
	n.timers.CancelAll()
	n.stage = 0
	n.finished = false
	n.signaled = false
	n.autoplay = false
	n.sessionID = n.newID()
}

// ToggleAutoplay starts or stops autoplay.
func (n *Navigator) ToggleAutoplay() Effects {
	if n.autoplay {
		n.stopAutoplay()
		return Effects{}
	}
	if n.finished {
		return Effects{}
	}
	n.autoplay = true
	return Effects{Schedule: []Task{n.timers.Schedule(TaskAutoplay, "", n.delays.Autoplay)}}
}

// Fire applies a task that has come due. Canceled tasks are ignored.
func (n *Navigator) Fire(task Task) Effects {
	if !n.timers.Fire(task) {
		return Effects{}
	}
	if task.Kind == TaskAutoplay && n.autoplay {
		return n.Next()
	}
	return Effects{}
}

func (n *Navigator) stopAutoplay() {
	n.autoplay = false
	n.timers.CancelKind(TaskAutoplay, "")
}
