package validator

import (
	"github.com/kingrea/translation-initiation/internal/stages"
)

// Outcome classifies a click.
type Outcome int

const (
	OutcomeIgnored Outcome = iota
	OutcomeAccepted
	OutcomeRejected
)

func (o Outcome) String() string {
	switch o {
	case OutcomeAccepted:
		return "accepted"
	case OutcomeRejected:
		return "rejected"
	default:
		return "ignored"
	}
}

// Click is the input to ValidateClick. Selected and Rejected are never
// modified.
type Click struct {
	Stage     int
	Selected  stages.Set
	Rejected  stages.Set
	Clicked   string
	Animating bool
}

// Result carries fresh copies of the selection sets after a click.
type Result struct {
	Outcome       Outcome
	Selected      stages.Set
	Rejected      stages.Set
	StageComplete bool
}

// ValidateClick classifies a click against the required set of the stage.
func ValidateClick(table stages.Table, click Click) Result {
	res := Result{
		Outcome:  OutcomeIgnored,
		Selected: click.Selected.Clone(),
		Rejected: click.Rejected.Clone(),
	}
	switch {
	case click.Animating, click.Clicked == "":
	case click.Selected.Has(click.Clicked), click.Rejected.Has(click.Clicked):
	case table.RequiredSet(click.Stage).Has(click.Clicked):
		res.Outcome = OutcomeAccepted
		res.Selected[click.Clicked] = struct{}{}
		delete(res.Rejected, click.Clicked)
	default:
		res.Outcome = OutcomeRejected
		res.Rejected[click.Clicked] = struct{}{}
	}
	res.StageComplete = IsComplete(table, click.Stage, res.Selected)
	return res
}

// IsComplete reports whether every entity the stage requires is selected.
// Stages without requirements are never complete through selection.
func IsComplete(table stages.Table, stage int, selected stages.Set) bool {
	required := table.Stage(stage).Required
	if len(required) == 0 {
		return false
	}
	return selected.ContainsAll(required)
}
