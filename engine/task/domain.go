package task

import (
	"fmt"
	"strings"
	"time"

	"github.com/fieldops/dispatch/engine/core"
	"github.com/fieldops/dispatch/engine/geo"
)

// Status is the lifecycle state of a task. NEW doubles as the initial
// state; there is no distinct terminal state.
type Status string

const (
	StatusNew        Status = "NEW"
	StatusInProgress Status = "IN_PROGRESS"
	StatusDone       Status = "DONE"
	StatusCancelled  Status = "CANCELLED"
)

// Valid checks if the status is a known value.
func (s Status) Valid() bool {
	switch s {
	case StatusNew, StatusInProgress, StatusDone, StatusCancelled:
		return true
	default:
		return false
	}
}

// DisplayName returns the dispatcher-facing Russian name.
func (s Status) DisplayName() string {
	switch s {
	case StatusNew:
		return "Новая"
	case StatusInProgress:
		return "В работе"
	case StatusDone:
		return "Выполнена"
	case StatusCancelled:
		return "Отменена"
	default:
		return string(s)
	}
}

// ParseStatus normalizes the string form of a status at the boundary.
func ParseStatus(s string) (Status, error) {
	status := Status(strings.ToUpper(strings.TrimSpace(s)))
	if !status.Valid() {
		return "", fmt.Errorf("unknown status %q", s)
	}
	return status, nil
}

// Priority is the urgency of a task. The canonical representation is the
// tagged name; legacy numeric aliases (1=Плановая … 4=Аварийная) are
// accepted only by ParsePriority and normalized immediately.
type Priority string

const (
	PriorityPlanned   Priority = "PLANNED"
	PriorityCurrent   Priority = "CURRENT"
	PriorityUrgent    Priority = "URGENT"
	PriorityEmergency Priority = "EMERGENCY"
)

// Valid checks if the priority is a known value.
func (p Priority) Valid() bool {
	switch p {
	case PriorityPlanned, PriorityCurrent, PriorityUrgent, PriorityEmergency:
		return true
	default:
		return false
	}
}

// Rank returns the numeric urgency, 1 (lowest) to 4 (highest).
func (p Priority) Rank() int {
	switch p {
	case PriorityEmergency:
		return 4
	case PriorityUrgent:
		return 3
	case PriorityCurrent:
		return 2
	default:
		return 1
	}
}

// DisplayName returns the dispatcher-facing Russian name.
func (p Priority) DisplayName() string {
	switch p {
	case PriorityEmergency:
		return "Аварийная"
	case PriorityUrgent:
		return "Срочная"
	case PriorityCurrent:
		return "Текущая"
	default:
		return "Плановая"
	}
}

// ParsePriority normalizes canonical names and legacy numeric aliases.
func ParsePriority(s string) (Priority, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "1", string(PriorityPlanned):
		return PriorityPlanned, nil
	case "2", string(PriorityCurrent):
		return PriorityCurrent, nil
	case "3", string(PriorityUrgent):
		return PriorityUrgent, nil
	case "4", string(PriorityEmergency):
		return PriorityEmergency, nil
	default:
		return "", fmt.Errorf("unknown priority %q", s)
	}
}

// PriorityFromText extracts the priority signal from free text, defaulting
// to the lowest urgency when no signal is present.
func PriorityFromText(text string) Priority {
	lower := strings.ToLower(text)
	switch {
	case strings.Contains(lower, "аварийн"):
		return PriorityEmergency
	case strings.Contains(lower, "срочн"):
		return PriorityUrgent
	case strings.Contains(lower, "текущ"):
		return PriorityCurrent
	default:
		return PriorityPlanned
	}
}

// Task is the dispatched work item. It is created once and mutated only
// through the use cases in uc; TaskNumber is set exactly once at creation.
type Task struct {
	ID             core.ID        `json:"id" db:"id"`
	TaskNumber     string         `json:"task_number" db:"task_number"`
	Title          string         `json:"title" db:"title"`
	Address        string         `json:"address" db:"address"`
	Description    string         `json:"description" db:"description"`
	Coordinate     geo.Coordinate `json:"coordinate"`
	Status         Status         `json:"status" db:"status"`
	Priority       Priority       `json:"priority" db:"priority"`
	ContactName    string         `json:"contact_name,omitempty" db:"contact_name"`
	ContactPhone   string         `json:"contact_phone,omitempty" db:"contact_phone"`
	AssignedUserID *core.ID       `json:"assigned_user_id,omitempty" db:"assigned_user_id"`
	PlannedDate    *time.Time     `json:"planned_date,omitempty" db:"planned_date"`
	CreatedAt      time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at" db:"updated_at"`
	CompletedAt    *time.Time     `json:"completed_at,omitempty" db:"completed_at"`
}

// TransitionKind tags audit-trail entries by the change they record.
type TransitionKind string

const (
	TransitionStatus     TransitionKind = "status"
	TransitionAssignment TransitionKind = "assignment"
	TransitionSchedule   TransitionKind = "schedule"
)

// TransitionRecord is one append-only audit-trail entry: exactly one per
// accepted status change, assignment change or reschedule.
type TransitionRecord struct {
	ID          core.ID        `json:"id" db:"id"`
	TaskID      core.ID        `json:"task_id" db:"task_id"`
	Kind        TransitionKind `json:"kind" db:"kind"`
	OldStatus   Status         `json:"old_status,omitempty" db:"old_status"`
	NewStatus   Status         `json:"new_status,omitempty" db:"new_status"`
	OldAssignee *core.ID       `json:"old_assignee,omitempty" db:"old_assignee"`
	NewAssignee *core.ID       `json:"new_assignee,omitempty" db:"new_assignee"`
	Author      string         `json:"author" db:"author"`
	AuthorID    *core.ID       `json:"author_id,omitempty" db:"author_id"`
	Note        string         `json:"note" db:"note"`
	CreatedAt   time.Time      `json:"created_at" db:"created_at"`
}

// Filter narrows task listings.
type Filter struct {
	Status     *Status
	AssigneeID *core.ID
}
