package uc

import (
	"context"
	"fmt"
	"time"

	"github.com/fieldops/dispatch/engine/core"
	"github.com/fieldops/dispatch/engine/notification"
	"github.com/fieldops/dispatch/engine/task"
	"github.com/fieldops/dispatch/engine/user"
	"github.com/fieldops/dispatch/pkg/logger"
)

// UpdateStatusInput changes a task's lifecycle status.
type UpdateStatusInput struct {
	TaskID    core.ID
	NewStatus task.Status
	Note      string
	ActorID   *core.ID
}

// UpdateStatus validates the transition against the lifecycle table,
// maintains the completed_at invariant, appends the audit record and emits
// notification intents.
type UpdateStatus struct {
	tasks      task.Repository
	users      user.Repository
	dispatcher notification.Dispatcher
	input      *UpdateStatusInput
}

func NewUpdateStatus(
	tasks task.Repository,
	users user.Repository,
	dispatcher notification.Dispatcher,
	input *UpdateStatusInput,
) *UpdateStatus {
	return &UpdateStatus{tasks: tasks, users: users, dispatcher: dispatcher, input: input}
}

func (uc *UpdateStatus) Execute(ctx context.Context) (*task.Task, error) {
	log := logger.FromContext(ctx)
	t, err := uc.tasks.GetByID(ctx, uc.input.TaskID)
	if err != nil {
		return nil, err
	}
	oldStatus := t.Status
	newStatus := uc.input.NewStatus
	if err := task.ValidateTransition(oldStatus, newStatus); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	t.Status = newStatus
	t.UpdatedAt = now
	// completed_at is non-null iff the task is DONE; any other transition
	// clears it.
	switch {
	case newStatus == task.StatusDone && oldStatus != task.StatusDone:
		t.CompletedAt = &now
	case newStatus != task.StatusDone:
		t.CompletedAt = nil
	}
	if err := uc.tasks.Update(ctx, t); err != nil {
		return nil, fmt.Errorf("failed to update task: %w", err)
	}

	actor := resolveActor(ctx, uc.users, uc.input.ActorID)
	note := uc.input.Note
	if note == "" {
		note = fmt.Sprintf("Статус изменён: %s → %s", oldStatus.DisplayName(), newStatus.DisplayName())
	}
	if err := uc.appendRecord(ctx, t, oldStatus, newStatus, actor, note); err != nil {
		return nil, err
	}

	uc.notify(ctx, t, oldStatus, newStatus, actor)
	log.Info("task status changed",
		"task_number", t.TaskNumber,
		"old_status", oldStatus,
		"new_status", newStatus,
		"author", authorName(actor))
	return t, nil
}

func (uc *UpdateStatus) appendRecord(
	ctx context.Context,
	t *task.Task,
	oldStatus, newStatus task.Status,
	actor *user.User,
	note string,
) error {
	id, err := core.NewID()
	if err != nil {
		return fmt.Errorf("failed to generate transition id: %w", err)
	}
	rec := &task.TransitionRecord{
		ID:        id,
		TaskID:    t.ID,
		Kind:      task.TransitionStatus,
		OldStatus: oldStatus,
		NewStatus: newStatus,
		Author:    authorName(actor),
		Note:      note,
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

// notify is fire-and-forget: dispatcher failures never affect the use
// case's own result.
func (uc *UpdateStatus) notify(
	ctx context.Context,
	t *task.Task,
	oldStatus, newStatus task.Status,
	actor *user.User,
) {
	if uc.dispatcher == nil {
		return
	}
	var privileged []*user.User
	reopened := newStatus == task.StatusNew || newStatus == task.StatusInProgress
	if reopened && actor != nil && !actor.Role.Privileged() && uc.users != nil {
		list, err := uc.users.ListPrivileged(ctx)
		if err != nil {
			logger.FromContext(ctx).Warn("failed to list privileged users for notification", "error", err)
		} else {
			privileged = list
		}
	}
	intents := notification.StatusChangeIntents(t, oldStatus, newStatus, actor, privileged)
	if len(intents) > 0 {
		uc.dispatcher.Dispatch(ctx, intents...)
	}
}
