package session

import (
	"sort"
	"time"

	"github.com/google/uuid"
)

// TaskKind names the effect a scheduled task has when it fires.
type TaskKind string

const (
	TaskTransition     TaskKind = "transition"
	TaskClearRejection TaskKind = "clear-rejection"
	TaskCelebrate      TaskKind = "celebrate"
	TaskAutoplay       TaskKind = "autoplay"
)

// Task is a pending delayed effect. The host arms a real timer for it and
// hands it back through Fire once the delay has elapsed.
type Task struct {
	ID         uint64
	Kind       TaskKind
	Entity     string
	Delay      time.Duration
	Due        time.Time
	Generation uint64
	Registry   string
}

// Timers is the registry of outstanding tasks for one session. A task only
// takes effect if it is still registered when it fires, so canceling is a
// matter of forgetting it.
type Timers struct {
	clock      func() time.Time
	token      string
	nextID     uint64
	generation uint64
	pending    map[uint64]Task
}

// NewTimers creates an empty registry. A nil clock defaults to time.Now.
func NewTimers(clock func() time.Time) *Timers {
	if clock == nil {
		clock = time.Now
	}
	return &Timers{clock: clock, token: uuid.NewString(), pending: map[uint64]Task{}}
}

// Schedule registers a new task due after delay.
func (t *Timers) Schedule(kind TaskKind, entity string, delay time.Duration) Task {
	t.nextID++
	task := Task{
		ID:         t.nextID,
		Kind:       kind,
		Entity:     entity,
		Delay:      delay,
		Due:        t.clock().Add(delay),
		Generation: t.generation,
		Registry:   t.token,
	}
	t.pending[task.ID] = task
	return task
}

// Pending reports whether task is still registered. Tasks handed out by a
// different registry never match, even when their IDs collide.
func (t *Timers) Pending(task Task) bool {
	current, ok := t.pending[task.ID]
	return ok &&
		current.Registry == task.Registry &&
		current.Generation == task.Generation &&
		current.Kind == task.Kind &&
		current.Entity == task.Entity
}

// Fire claims task. It returns false, and the caller must skip the effect,
// when the task was canceled or already fired.
func (t *Timers) Fire(task Task) bool {
	if !t.Pending(task) {
		return false
	}
	delete(t.pending, task.ID)
	return true
}

// Cancel drops a single task.
func (t *Timers) Cancel(task Task) {
	if t.Pending(task) {
		delete(t.pending, task.ID)
	}
}

// CancelKind drops every task of the given kind, optionally restricted to one
// entity when entity is not empty.
func (t *Timers) CancelKind(kind TaskKind, entity string) {
	for id, task := range t.pending {
		if task.Kind != kind {
			continue
		}
		if entity != "" && task.Entity != entity {
			continue
		}
		delete(t.pending, id)
	}
}

// CancelAll drops every task and starts a new generation.
func (t *Timers) CancelAll() {
	t.pending = map[uint64]Task{}
	t.generation++
}

// Len returns the number of outstanding tasks.
func (t *Timers) Len() int { return len(t.pending) }

// Tasks lists outstanding tasks in scheduling order.
func (t *Timers) Tasks() []Task {
	out := make([]Task, 0, len(t.pending))
	for _, task := range t.pending {
		out = append(out, task)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Has reports whether a task of kind is outstanding.
func (t *Timers) Has(kind TaskKind) bool {
	for _, task := range t.pending {
		if task.Kind == kind {
			return true
		}
	}
	return false
}
