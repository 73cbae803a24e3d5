package session

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/kingrea/translation-initiation/internal/stages"
	"github.com/kingrea/translation-initiation/internal/stages/resolver"
	"github.com/kingrea/translation-initiation/internal/stages/validator"
)

var fixedNow = time.Date(2025, time.March, 14, 15, 4, 0, 0, time.UTC)

func fixedClock() time.Time { return fixedNow }

func counterIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("run-%d", n)
	}
}

func newResolver() *resolver.Resolver {
	return resolver.New(stages.Default())
}

func TestNormalizeSubject(t *testing.T) {
	got, err := NormalizeSubject("  TP53 ")
	if err != nil || got != "TP53" {
		t.Fatalf("NormalizeSubject = %q, %v", got, err)
	}
	if _, err := NormalizeSubject(" \t\n"); !errors.Is(err, ErrEmptySubject) {
		t.Fatalf("expected ErrEmptySubject, got %v", err)
	}
	if msg := ErrEmptySubject.Error(); msg != strings.ToLower(msg) {
		t.Fatalf("error strings should be lower case, got %q", msg)
	}
}

func TestTimersIgnoreTasksFromAnotherRegistry(t *testing.T) {
	old := NewTimers(fixedClock)
	stale := old.Schedule(TaskTransition, "", time.Second)

	fresh := NewTimers(fixedClock)
	current := fresh.Schedule(TaskTransition, "", time.Second)
	if stale.ID != current.ID || stale.Generation != current.Generation {
		t.Fatalf("test needs colliding IDs, got %d/%d and %d/%d", stale.ID, stale.Generation, current.ID, current.Generation)
	}
	if fresh.Pending(stale) || fresh.Fire(stale) {
		t.Fatalf("task from another registry claimed a fresh task")
	}
	if !fresh.Pending(current) {
		t.Fatalf("fresh task should still be pending")
	}

	forged := current
	forged.Kind = TaskAutoplay
	if fresh.Fire(forged) {
		t.Fatalf("task with a different kind fired")
	}
	forged = current
	forged.Entity = "eIF4E"
	if fresh.Fire(forged) {
		t.Fatalf("task with a different entity fired")
	}
	if !fresh.Fire(current) {
		t.Fatalf("genuine task should fire")
	}
}

func TestTimersFireOnlyPendingTasks(t *testing.T) {
	timers := NewTimers(fixedClock)
	a := timers.Schedule(TaskTransition, "", time.Second)
	b := timers.Schedule(TaskClearRejection, "x", 2*time.Second)
	if a.Due != fixedNow.Add(time.Second) {
		t.Fatalf("unexpected due time %v", a.Due)
	}
	if !timers.Fire(a) {
		t.Fatalf("expected first fire to succeed")
	}
	if timers.Fire(a) {
		t.Fatalf("task fired twice")
	}
	timers.Cancel(b)
	if timers.Fire(b) || timers.Len() != 0 {
		t.Fatalf("canceled task should not fire")
	}
	c := timers.Schedule(TaskAutoplay, "", time.Second)
	timers.CancelAll()
	if timers.Fire(c) {
		t.Fatalf("task from previous generation fired")
	}
	d := timers.Schedule(TaskClearRejection, "a", time.Second)
	e := timers.Schedule(TaskClearRejection, "b", time.Second)
	timers.CancelKind(TaskClearRejection, "a")
	if timers.Pending(d) || !timers.Pending(e) {
		t.Fatalf("CancelKind removed the wrong task")
	}
	if tasks := timers.Tasks(); len(tasks) != 1 || tasks[0].ID != e.ID {
		t.Fatalf("unexpected outstanding tasks: %+v", tasks)
	}
}

func TestNavigatorNextClampsAndSignalsOnce(t *testing.T) {
	nav := NewNavigator(newResolver(), WithClock(fixedClock), WithSubject("BRCA1"))
	for i := 0; i < 12; i++ {
		if eff := nav.Next(); eff.Completion != nil {
			t.Fatalf("completion signaled early at stage %d", nav.Stage())
		}
	}
	if nav.Stage() != 12 {
		t.Fatalf("expected stage 12, got %d", nav.Stage())
	}
	eff := nav.Next()
	if eff.Completion == nil || eff.Completion.Subject != "BRCA1" || !eff.Completion.CompletedAt.Equal(fixedNow) {
		t.Fatalf("expected completion signal, got %+v", eff.Completion)
	}
	if nav.Stage() != 12 || !nav.Finished() {
		t.Fatalf("stage should stay at 12 and show completion")
	}
	if nav.Meta().Title != "Translation Initiation Complete" {
		t.Fatalf("unexpected completion meta %+v", nav.Meta())
	}
	if again := nav.Next(); again.Completion != nil {
		t.Fatalf("completion signaled twice")
	}
	nav.Prev()
	if nav.Finished() || nav.Stage() != 12 {
		t.Fatalf("Prev should leave the completion record first")
	}
	if again := nav.Next(); again.Completion != nil {
		t.Fatalf("completion signaled again before reset")
	}
	nav.Reset()
	if nav.Stage() != 0 || nav.Finished() {
		t.Fatalf("reset should return to stage 0")
	}
	nav.Jump(12)
	if eff := nav.Next(); eff.Completion == nil {
		t.Fatalf("expected a fresh completion after reset")
	}
}

func TestNavigatorPrevAndJumpClamp(t *testing.T) {
	nav := NewNavigator(newResolver())
	nav.Prev()
	if nav.Stage() != 0 {
		t.Fatalf("Prev at 0 should clamp, got %d", nav.Stage())
	}
	nav.Jump(99)
	if nav.Stage() != 12 {
		t.Fatalf("Jump(99) should clamp to 12, got %d", nav.Stage())
	}
	nav.Jump(-5)
	if nav.Stage() != 0 || nav.Finished() {
		t.Fatalf("Jump(-5) should clamp to 0, got %d", nav.Stage())
	}
}

func TestNavigatorJumpPastLastFinishesOnce(t *testing.T) {
	nav := NewNavigator(newResolver(), WithClock(fixedClock), WithSubject("TP53"))
	eff := nav.Jump(13)
	if nav.Stage() != 12 || !nav.Finished() {
		t.Fatalf("Jump(13) = stage %d finished %v, want 12 true", nav.Stage(), nav.Finished())
	}
	if eff.Completion == nil || eff.Completion.Subject != "TP53" {
		t.Fatalf("expected completion from Jump(13), got %+v", eff.Completion)
	}
	if nav.Meta().Title != "Translation Initiation Complete" {
		t.Fatalf("unexpected meta after Jump(13): %+v", nav.Meta())
	}
	for i := 0; i < 3; i++ {
		if again := nav.Next(); again.Completion != nil || nav.Stage() != 12 {
			t.Fatalf("Next after Jump(13) signaled again or moved: stage %d", nav.Stage())
		}
	}
	if again := nav.Jump(13); again.Completion != nil {
		t.Fatalf("second Jump(13) signaled again")
	}
	if eff := nav.Jump(12); eff.Completion != nil || nav.Finished() {
		t.Fatalf("Jump(12) should show the last stage, not the completion record")
	}
}

func TestNavigatorJumpPastLastStopsAutoplay(t *testing.T) {
	nav := NewNavigator(newResolver())
	nav.ToggleAutoplay()
	nav.Jump(20)
	if nav.Autoplay() || nav.Timers().Has(TaskAutoplay) {
		t.Fatalf("finishing through Jump should stop autoplay")
	}
}

func TestNavigatorAutoplay(t *testing.T) {
	nav := NewNavigator(newResolver(), WithClock(fixedClock), WithDelays(Delays{Autoplay: 10 * time.Millisecond}))
	eff := nav.ToggleAutoplay()
	if len(eff.Schedule) != 1 || eff.Schedule[0].Kind != TaskAutoplay || eff.Schedule[0].Delay != 10*time.Millisecond {
		t.Fatalf("unexpected autoplay schedule: %+v", eff.Schedule)
	}
	task := eff.Schedule[0]
	for steps := 0; steps < 20 && !nav.Finished(); steps++ {
		eff = nav.Fire(task)
		if len(eff.Schedule) > 0 {
			task = eff.Schedule[0]
		}
	}
	if !nav.Finished() || nav.Autoplay() {
		t.Fatalf("autoplay should stop at completion: finished=%v autoplay=%v", nav.Finished(), nav.Autoplay())
	}
	if nav.Timers().Len() != 0 {
		t.Fatalf("expected no pending tasks after completion")
	}
}

func TestNavigatorResetCancelsAutoplay(t *testing.T) {
	nav := NewNavigator(newResolver())
	eff := nav.ToggleAutoplay()
	nav.Reset()
	if out := nav.Fire(eff.Schedule[0]); len(out.Schedule) != 0 || nav.Stage() != 0 {
		t.Fatalf("stale autoplay tick mutated state after reset")
	}
	nav.ToggleAutoplay()
	nav.ToggleAutoplay()
	if nav.Autoplay() || nav.Timers().Has(TaskAutoplay) {
		t.Fatalf("toggling twice should stop autoplay")
	}
}

func TestNavigatorSessionIDsChangeOnReset(t *testing.T) {
	nav := NewNavigator(newResolver(), WithIDGenerator(counterIDs()))
	first := nav.SessionID()
	nav.Reset()
	if nav.SessionID() == first {
		t.Fatalf("expected a new session id after reset")
	}
	if NewNavigator(newResolver()).SessionID() == "" {
		t.Fatalf("default generator should produce an id")
	}
}

func pickAll(t *testing.T, s *Interactive) Task {
	t.Helper()
	var transition Task
	found := false
	for _, id := range stages.Default().Required(s.Stage()) {
		res, eff := s.Click(id)
		if res.Outcome != validator.OutcomeAccepted {
			t.Fatalf("stage %d click %s: expected accepted, got %s", s.Stage(), id, res.Outcome)
		}
		for _, task := range eff.Schedule {
			if task.Kind == TaskTransition {
				transition, found = task, true
			}
		}
	}
	if !found {
		t.Fatalf("stage %d: no transition scheduled", s.Stage())
	}
	return transition
}

func TestInteractiveStartsAtRibosomeRecruitment(t *testing.T) {
	s := NewInteractive(newResolver())
	if eff := s.Start(); len(eff.Schedule) != 0 {
		t.Fatalf("stage 1 is gated and should not schedule anything")
	}
	if s.Stage() != 1 || s.Phase() != PhaseIdle {
		t.Fatalf("expected idle at stage 1, got %d %s", s.Stage(), s.Phase())
	}
}

func TestInteractiveScenario(t *testing.T) {
	s := NewInteractive(newResolver(), WithClock(fixedClock))
	s.Start()
	res, eff := s.Click("18-eEFs")
	if res.Outcome != validator.OutcomeRejected || !s.Rejected().Has("18-eEFs") {
		t.Fatalf("expected eEFs rejected")
	}
	if len(eff.Schedule) != 1 || eff.Schedule[0].Kind != TaskClearRejection || eff.Schedule[0].Entity != "18-eEFs" {
		t.Fatalf("expected rejection clear task, got %+v", eff.Schedule)
	}
	clearTask := eff.Schedule[0]
	if res, eff := s.Click("18-eEFs"); res.Outcome != validator.OutcomeIgnored || len(eff.Schedule) != 0 {
		t.Fatalf("re-clicking a flagged factor should be ignored without a new timer")
	}
	s.Fire(clearTask)
	if s.Rejected().Len() != 0 {
		t.Fatalf("rejection should clear when its task fires")
	}

	transition := pickAll(t, s)
	if s.Phase() != PhaseTransitioning || !s.Animating() {
		t.Fatalf("expected transitioning after the last pick")
	}
	if res, _ := s.Click("15-eIF2"); res.Outcome != validator.OutcomeIgnored {
		t.Fatalf("clicks during a transition should be ignored")
	}
	s.Fire(transition)
	if s.Stage() != 2 || s.Phase() != PhaseIdle {
		t.Fatalf("expected idle at stage 2, got %d %s", s.Stage(), s.Phase())
	}
	if s.Selected().Len() != 0 || s.Rejected().Len() != 0 {
		t.Fatalf("selection should clear on advance")
	}
	view := s.View()
	if !view.Has("17-eIF3") || view.Has("15-eIF2") {
		t.Fatalf("unexpected stage 2 view: %v", view.IDs())
	}
}

func TestInteractiveAutoStagesTransitionOnArrival(t *testing.T) {
	s := NewInteractive(newResolver())
	s.Start()
	s.Fire(pickAll(t, s))
	eff := s.Fire(pickAll(t, s))
	if s.Stage() != 3 || s.Phase() != PhaseTransitioning {
		t.Fatalf("auto stage 3 should start transitioning on arrival, got %d %s", s.Stage(), s.Phase())
	}
	if len(eff.Schedule) != 1 || eff.Schedule[0].Kind != TaskTransition {
		t.Fatalf("expected transition task on arrival, got %+v", eff.Schedule)
	}
	s.Fire(eff.Schedule[0])
	if s.Stage() != 4 || s.Phase() != PhaseIdle {
		t.Fatalf("expected idle at stage 4, got %d %s", s.Stage(), s.Phase())
	}
}

func runToEnd(t *testing.T, s *Interactive) Effects {
	t.Helper()
	var last Effects
	pending := s.Start().Schedule
	for guard := 0; guard < 100 && s.Phase() != PhaseComplete; guard++ {
		if len(pending) == 0 {
			pending = []Task{pickAll(t, s)}
		}
		task := pending[0]
		pending = pending[1:]
		last = s.Fire(task)
		pending = append(pending, last.Schedule...)
	}
	if s.Phase() != PhaseComplete {
		t.Fatalf("session never completed, stuck at %d", s.Stage())
	}
	return last
}

func TestInteractiveCompletionWithSubject(t *testing.T) {
	s := NewInteractive(newResolver(), WithClock(fixedClock), WithSubject("TP53"), WithIDGenerator(counterIDs()))
	eff := runToEnd(t, s)
	if s.Stage() != 12 {
		t.Fatalf("expected final stage 12, got %d", s.Stage())
	}
	if len(eff.Schedule) != 1 || eff.Schedule[0].Kind != TaskCelebrate {
		t.Fatalf("expected celebration task, got %+v", eff.Schedule)
	}
	done := s.Fire(eff.Schedule[0])
	if done.Completion == nil || done.Completion.Subject != "TP53" || done.Completion.SessionID != s.SessionID() {
		t.Fatalf("unexpected completion %+v", done.Completion)
	}
	if s.Meta().Title != "Translation Initiation Complete" {
		t.Fatalf("unexpected final meta %+v", s.Meta())
	}
}

func TestInteractiveCompletionWithoutSubject(t *testing.T) {
	s := NewInteractive(newResolver())
	eff := runToEnd(t, s)
	if len(eff.Schedule) != 0 || eff.Completion != nil {
		t.Fatalf("no celebration expected without a subject, got %+v", eff)
	}
}

func TestInteractiveResetCancelsPendingTasks(t *testing.T) {
	s := NewInteractive(newResolver())
	s.Start()
	_, eff := s.Click("20-60s")
	rejection := eff.Schedule[0]
	transition := pickAll(t, s)
	s.Reset()
	if s.Timers().Len() != 0 {
		t.Fatalf("reset should cancel pending tasks")
	}
	s.Fire(transition)
	s.Fire(rejection)
	if s.Stage() != 1 || s.Phase() != PhaseIdle || s.Selected().Len() != 0 || s.Rejected().Len() != 0 {
		t.Fatalf("stale tasks mutated state after reset: stage=%d phase=%s", s.Stage(), s.Phase())
	}
}
