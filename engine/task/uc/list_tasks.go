package uc

import (
	"context"

	"github.com/fieldops/dispatch/engine/task"
)

// ListTasks returns tasks matching the filter, ordered by priority and
// recency.
type ListTasks struct {
	tasks  task.Repository
	filter *task.Filter
}

func NewListTasks(tasks task.Repository, filter *task.Filter) *ListTasks {
	if filter == nil {
		filter = &task.Filter{}
	}
	return &ListTasks{tasks: tasks, filter: filter}
}

func (uc *ListTasks) Execute(ctx context.Context) ([]*task.Task, error) {
	return uc.tasks.List(ctx, uc.filter)
}
