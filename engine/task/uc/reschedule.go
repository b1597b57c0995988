package uc

import (
	"context"
	"fmt"
	"time"

	"github.com/fieldops/dispatch/engine/core"
	"github.com/fieldops/dispatch/engine/task"
	"github.com/fieldops/dispatch/engine/user"
)

// RescheduleInput updates a task's planned date; nil clears it.
type RescheduleInput struct {
	TaskID      core.ID
	PlannedDate *time.Time
	ActorID     *core.ID
}

// Reschedule mutates the planned date and records the change. It emits no
// notifications.
type Reschedule struct {
	tasks task.Repository
	users user.Repository
	input *RescheduleInput
}

func NewReschedule(tasks task.Repository, users user.Repository, input *RescheduleInput) *Reschedule {
	return &Reschedule{tasks: tasks, users: users, input: input}
}

func (uc *Reschedule) Execute(ctx context.Context) (*task.Task, error) {
	t, err := uc.tasks.GetByID(ctx, uc.input.TaskID)
	if err != nil {
		return nil, err
	}
	t.PlannedDate = uc.input.PlannedDate
	t.UpdatedAt = time.Now().UTC()
	if err := uc.tasks.Update(ctx, t); err != nil {
		return nil, fmt.Errorf("failed to update task: %w", err)
	}
	if err := uc.appendRecord(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

func (uc *Reschedule) appendRecord(ctx context.Context, t *task.Task) error {
	id, err := core.NewID()
	if err != nil {
		return fmt.Errorf("failed to generate transition id: %w", err)
	}
	formatted := "не указана"
	if uc.input.PlannedDate != nil {
		formatted = uc.input.PlannedDate.Format("02.01.2006")
	}
	actor := resolveActor(ctx, uc.users, uc.input.ActorID)
	rec := &task.TransitionRecord{
		ID:        id,
		TaskID:    t.ID,
		Kind:      task.TransitionSchedule,
		Author:    authorName(actor),
		Note:      "Планируемая дата: " + formatted,
		CreatedAt: time.Now().UTC(),
	}
	if actor != nil {
		rec.AuthorID = &actor.ID
	}
	if err := uc.tasks.AppendTransition(ctx, rec); err != nil {
		return fmt.Errorf("failed to append transition record: %w", err)
	}
	return nil
}
