// Package session owns the mutable state of one visualization run: the
// current stage, the learner's selections and the delayed effects that are
// still waiting to fire. The stage table, resolver and validator stay pure;
// everything that changes over time lives here.
package session

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Default delays between an event and its delayed effect.
const (
	DefaultTransitionDelay  = 1500 * time.Millisecond
	DefaultRejectionDelay   = 1000 * time.Millisecond
	DefaultCelebrationDelay = 500 * time.Millisecond
	DefaultAutoplayInterval = 2500 * time.Millisecond
)

// ErrEmptySubject is returned when the learner's gene name is blank.
var ErrEmptySubject = errors.New("session: gene name is empty")

// Delays configures how long each delayed effect waits.
type Delays struct {
	Transition  time.Duration
	Rejection   time.Duration
	Celebration time.Duration
	Autoplay    time.Duration
}

// DefaultDelays returns the stock timings.
func DefaultDelays() Delays {
	return Delays{
		Transition:  DefaultTransitionDelay,
		Rejection:   DefaultRejectionDelay,
		Celebration: DefaultCelebrationDelay,
		Autoplay:    DefaultAutoplayInterval,
	}
}

func (d Delays) withDefaults() Delays {
	def := DefaultDelays()
	if d.Transition <= 0 {
		d.Transition = def.Transition
	}
	if d.Rejection <= 0 {
		d.Rejection = def.Rejection
	}
	if d.Celebration <= 0 {
		d.Celebration = def.Celebration
	}
	if d.Autoplay <= 0 {
		d.Autoplay = def.Autoplay
	}
	return d
}

// Completion is emitted once when a run finishes.
type Completion struct {
	SessionID   string
	Subject     string
	CompletedAt time.Time
}

// Effects lists what the host has to do after a state change: arm timers
// for the scheduled tasks and, when Completion is set, hand it to the
// celebration screen.
type Effects struct {
	Schedule   []Task
	Completion *Completion
}

type options struct {
	clock   func() time.Time
	delays  Delays
	subject string
	newID   func() string
}

// Option customizes a navigator or interactive session.
type Option func(*options)

// WithClock injects a deterministic clock (primarily for tests).
func WithClock(clock func() time.Time) Option {
	return func(o *options) {
		if clock != nil {
			o.clock = clock
		}
	}
}

// WithDelays overrides the default timings. Zero fields keep their defaults.
func WithDelays(d Delays) Option {
	return func(o *options) {
		o.delays = d
	}
}

// WithSubject records the learner's gene name for the completion record.
func WithSubject(subject string) Option {
	return func(o *options) {
		o.subject = strings.TrimSpace(subject)
	}
}

// WithIDGenerator replaces the random session identifier source.
func WithIDGenerator(gen func() string) Option {
	return func(o *options) {
		if gen != nil {
			o.newID = gen
		}
	}
}

func buildOptions(opts []Option) options {
	o := options{
		clock: time.Now,
		newID: func() string { return uuid.NewString() },
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	o.delays = o.delays.withDefaults()
	return o
}

// NormalizeSubject trims the gene name and rejects blank input.
func NormalizeSubject(raw string) (string, error) {
	subject := strings.TrimSpace(raw)
	if subject == "" {
		return "", ErrEmptySubject
	}
	return subject, nil
}
