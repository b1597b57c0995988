package uc

import (
	"context"

	"github.com/fieldops/dispatch/engine/core"
	"github.com/fieldops/dispatch/engine/task"
)

// GetTask loads a single task by id.
type GetTask struct {
	tasks  task.Repository
	taskID core.ID
}

func NewGetTask(tasks task.Repository, taskID core.ID) *GetTask {
	return &GetTask{tasks: tasks, taskID: taskID}
}

func (uc *GetTask) Execute(ctx context.Context) (*task.Task, error) {
	return uc.tasks.GetByID(ctx, uc.taskID)
}

// GetTransitions loads a task's audit trail.
type GetTransitions struct {
	tasks  task.Repository
	taskID core.ID
}

func NewGetTransitions(tasks task.Repository, taskID core.ID) *GetTransitions {
	return &GetTransitions{tasks: tasks, taskID: taskID}
}

func (uc *GetTransitions) Execute(ctx context.Context) ([]*task.TransitionRecord, error) {
	if _, err := uc.tasks.GetByID(ctx, uc.taskID); err != nil {
		return nil, err
	}
	return uc.tasks.ListTransitions(ctx, uc.taskID)
}
