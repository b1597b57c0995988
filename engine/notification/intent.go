// Package notification models the orchestrator's outbound notification
// decisions. The core only decides whom and when to notify; delivery is
// owned by the Dispatcher collaborator and never affects the enclosing use
// case.
package notification

import (
	"context"
	"fmt"

	"github.com/fieldops/dispatch/engine/core"
	"github.com/fieldops/dispatch/engine/task"
	"github.com/fieldops/dispatch/engine/user"
	"github.com/fieldops/dispatch/pkg/logger"
)

// Category classifies an intent for the delivery side.
type Category string

const (
	CategoryTask   Category = "task"
	CategoryAlert  Category = "alert"
	CategorySystem Category = "system"
)

// Intent is a single notification decision. It is an output of the
// orchestrator, not data the core stores.
type Intent struct {
	RecipientID core.ID  `json:"recipient_id"`
	Title       string   `json:"title"`
	Body        string   `json:"body"`
	Category    Category `json:"category"`
	TaskID      core.ID  `json:"task_id"`
}

// Dispatcher owns actual delivery. Dispatch is fire-and-forget from the
// orchestrator's perspective.
type Dispatcher interface {
	Dispatch(ctx context.Context, intents ...*Intent)
}

// LogDispatcher logs intents instead of delivering them. Useful as the
// default wiring and in tests.
type LogDispatcher struct{}

func (LogDispatcher) Dispatch(ctx context.Context, intents ...*Intent) {
	log := logger.FromContext(ctx)
	for _, intent := range intents {
		log.Info("notification intent",
			"recipient_id", intent.RecipientID,
			"category", intent.Category,
			"title", intent.Title,
			"task_id", intent.TaskID)
	}
}

// StatusChangeIntents builds the intents for an accepted status change:
// one for the assignee when the actor is someone else, and — when the task
// is reopened by a non-privileged actor — one for every active privileged
// user except the actor.
func StatusChangeIntents(
	t *task.Task,
	oldStatus, newStatus task.Status,
	actor *user.User,
	privileged []*user.User,
) []*Intent {
	title, body := statusChangeText(t, oldStatus, newStatus)
	if actor != nil {
		body += "\nИзменил: " + actor.DisplayName()
	}
	intents := make([]*Intent, 0, 1+len(privileged))
	if t.AssignedUserID != nil && (actor == nil || *t.AssignedUserID != actor.ID) {
		intents = append(intents, &Intent{
			RecipientID: *t.AssignedUserID,
			Title:       title,
			Body:        body,
			Category:    CategoryTask,
			TaskID:      t.ID,
		})
	}
	reopened := newStatus == task.StatusNew || newStatus == task.StatusInProgress
	if reopened && actor != nil && !actor.Role.Privileged() {
		for _, u := range privileged {
			if u.ID == actor.ID {
				continue
			}
			intents = append(intents, &Intent{
				RecipientID: u.ID,
				Title:       title,
				Body:        body,
				Category:    CategoryTask,
				TaskID:      t.ID,
			})
		}
	}
	return intents
}

func statusChangeText(t *task.Task, oldStatus, newStatus task.Status) (title, body string) {
	number := t.TaskNumber
	if number == "" {
		number = t.ID.String()
	}
	switch newStatus {
	case task.StatusDone:
		return "✅ Заявка выполнена", fmt.Sprintf("Заявка №%s - %s выполнена", number, t.Title)
	case task.StatusInProgress:
		return "🔄 Заявка в работе", fmt.Sprintf("Заявка №%s - %s взята в работу", number, t.Title)
	case task.StatusCancelled:
		return "❌ Заявка отменена", fmt.Sprintf("Заявка №%s - %s отменена", number, t.Title)
	case task.StatusNew:
		return "📋 Новая заявка", fmt.Sprintf("Заявка №%s - %s", number, t.Title)
	default:
		return "🔔 Статус заявки изменён", fmt.Sprintf("Заявка №%s: %s → %s", number, oldStatus, newStatus)
	}
}

// AssignmentIntent builds the intent for an assignment change. Returns nil
// for self-assignment. Emergency tasks escalate to the alert category.
func AssignmentIntent(t *task.Task, assignee *user.User, actor *user.User) *Intent {
	if assignee == nil || (actor != nil && assignee.ID == actor.ID) {
		return nil
	}
	number := t.TaskNumber
	if number == "" {
		number = t.ID.String()
	}
	title := "📋 Вам назначена заявка"
	category := CategoryTask
	if t.Priority == task.PriorityEmergency {
		title = "⚠️ СРОЧНАЯ заявка!"
		category = CategoryAlert
	}
	body := fmt.Sprintf("Заявка №%s - %s\nАдрес: %s", number, t.Title, t.Address)
	if actor != nil {
		body += "\nНазначил: " + actor.DisplayName()
	}
	return &Intent{
		RecipientID: assignee.ID,
		Title:       title,
		Body:        body,
		Category:    category,
		TaskID:      t.ID,
	}
}
