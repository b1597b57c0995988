package task

import (
	"context"

	"github.com/fieldops/dispatch/engine/core"
)

// Repository is the persistence collaborator for tasks and their audit
// trail. Implementations must not leak driver types; the core treats
// storage technology as out of scope.
type Repository interface {
	Create(ctx context.Context, t *Task) error
	GetByID(ctx context.Context, id core.ID) (*Task, error)
	Update(ctx context.Context, t *Task) error
	List(ctx context.Context, filter *Filter) ([]*Task, error)
	// NextSequence yields the next value of the internal numbering
	// sequence, used when a message carries no external ticket id.
	NextSequence(ctx context.Context) (int64, error)
	AppendTransition(ctx context.Context, rec *TransitionRecord) error
	ListTransitions(ctx context.Context, taskID core.ID) ([]*TransitionRecord, error)
}
