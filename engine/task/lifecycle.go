package task

import (
	"fmt"
	"sort"
	"strings"
)

// validTransitions is the directed transition table. It is intentionally
// not transitively closed: DONE and CANCELLED can be reopened or resumed,
// but NEW can never jump straight to DONE.
var validTransitions = map[Status][]Status{
	StatusNew:        {StatusInProgress, StatusCancelled},
	StatusInProgress: {StatusDone, StatusCancelled},
	StatusDone:       {StatusNew, StatusInProgress},
	StatusCancelled:  {StatusNew, StatusInProgress},
}

// InvalidTransitionError is the typed, recoverable rejection of a status
// change. It names the valid destinations from the current state.
type InvalidTransitionError struct {
	From  Status
	To    Status
	Valid []Status
}

func (e *InvalidTransitionError) Error() string {
	names := make([]string, len(e.Valid))
	for i, s := range e.Valid {
		names[i] = string(s)
	}
	return fmt.Sprintf("cannot transition from %s to %s; valid transitions: %s",
		e.From, e.To, strings.Join(names, ", "))
}

// ValidTransitions returns the sorted set of statuses reachable from the
// current one.
func ValidTransitions(from Status) []Status {
	targets := validTransitions[from]
	out := make([]Status, len(targets))
	copy(out, targets)
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// CanTransition reports whether from may move to to. A transition to the
// current status is always accepted as a no-op.
func CanTransition(from, to Status) bool {
	if from == to {
		return true
	}
	for _, valid := range validTransitions[from] {
		if valid == to {
			return true
		}
	}
	return false
}

// ValidateTransition returns a typed *InvalidTransitionError when the pair
// is absent from the table.
func ValidateTransition(from, to Status) error {
	if CanTransition(from, to) {
		return nil
	}
	return &InvalidTransitionError{From: from, To: to, Valid: ValidTransitions(from)}
}
