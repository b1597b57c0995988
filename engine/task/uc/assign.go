package uc

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fieldops/dispatch/engine/core"
	"github.com/fieldops/dispatch/engine/notification"
	"github.com/fieldops/dispatch/engine/task"
	"github.com/fieldops/dispatch/engine/user"
	"github.com/fieldops/dispatch/pkg/logger"
)

// AssignInput moves a task to a new assignee; nil unassigns it.
type AssignInput struct {
	TaskID     core.ID
	AssigneeID *core.ID
	ActorID    *core.ID
}

// Assign validates the target user, records the change when the assignee
// actually changed, and notifies the new assignee unless they assigned the
// task to themselves.
type Assign struct {
	tasks      task.Repository
	users      user.Repository
	dispatcher notification.Dispatcher
	input      *AssignInput
}

func NewAssign(
	tasks task.Repository,
	users user.Repository,
	dispatcher notification.Dispatcher,
	input *AssignInput,
) *Assign {
	return &Assign{tasks: tasks, users: users, dispatcher: dispatcher, input: input}
}

func (uc *Assign) Execute(ctx context.Context) (*task.Task, error) {
	t, err := uc.tasks.GetByID(ctx, uc.input.TaskID)
	if err != nil {
		return nil, err
	}
	oldAssigneeID := t.AssignedUserID

	var assignee *user.User
	if uc.input.AssigneeID != nil && !uc.input.AssigneeID.IsZero() {
		assignee, err = uc.users.GetByID(ctx, *uc.input.AssigneeID)
		if err != nil {
			if errors.Is(err, ErrUserNotFound) {
				return nil, ErrUserNotFound
			}
			return nil, fmt.Errorf("failed to load assignee: %w", err)
		}
		t.AssignedUserID = &assignee.ID
	} else {
		t.AssignedUserID = nil
	}
	t.UpdatedAt = time.Now().UTC()
	if err := uc.tasks.Update(ctx, t); err != nil {
		return nil, fmt.Errorf("failed to update task: %w", err)
	}

	changed := !sameAssignee(oldAssigneeID, t.AssignedUserID)
	actor := resolveActor(ctx, uc.users, uc.input.ActorID)
	if changed {
		if err := uc.appendRecord(ctx, t, oldAssigneeID, assignee, actor); err != nil {
			return nil, err
		}
		if uc.dispatcher != nil {
			if intent := notification.AssignmentIntent(t, assignee, actor); intent != nil {
				uc.dispatcher.Dispatch(ctx, intent)
			}
		}
		logger.FromContext(ctx).Info("task reassigned",
			"task_number", t.TaskNumber,
			"assignee", assigneeName(assignee),
			"author", authorName(actor))
	}
	return t, nil
}

func (uc *Assign) appendRecord(
	ctx context.Context,
	t *task.Task,
	oldAssigneeID *core.ID,
	assignee *user.User,
	actor *user.User,
) error {
	id, err := core.NewID()
	if err != nil {
		return fmt.Errorf("failed to generate transition id: %w", err)
	}
	oldName := uc.lookupName(ctx, oldAssigneeID)
	rec := &task.TransitionRecord{
		ID:          id,
		TaskID:      t.ID,
		Kind:        task.TransitionAssignment,
		OldAssignee: oldAssigneeID,
		NewAssignee: t.AssignedUserID,
		Author:      authorName(actor),
		Note:        fmt.Sprintf("Назначение изменено: %s → %s", oldName, assigneeName(assignee)),
		CreatedAt:   time.Now().UTC(),
	}
	if actor != nil {
		rec.AuthorID = &actor.ID
	}
	if err := uc.tasks.AppendTransition(ctx, rec); err != nil {
		return fmt.Errorf("failed to append transition record: %w", err)
	}
	return nil
}

func (uc *Assign) lookupName(ctx context.Context, id *core.ID) string {
	if id == nil || id.IsZero() {
		return "Не назначен"
	}
	u, err := uc.users.GetByID(ctx, *id)
	if err != nil {
		return id.String()
	}
	return u.DisplayName()
}

func assigneeName(assignee *user.User) string {
	if assignee == nil {
		return "Не назначен"
	}
	return assignee.DisplayName()
}

func sameAssignee(a, b *core.ID) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
