package uc

import (
	"context"
	"fmt"
	"time"

	"github.com/fieldops/dispatch/engine/core"
	"github.com/fieldops/dispatch/engine/message"
	"github.com/fieldops/dispatch/engine/task"
	"github.com/fieldops/dispatch/engine/user"
	"github.com/fieldops/dispatch/pkg/logger"
)

// CreateFromTextInput is the ingestion payload. Source and Sender tag the
// originating channel; they are not persisted on the task itself.
type CreateFromTextInput struct {
	Text           string     `json:"text"`
	Source         string     `json:"source,omitempty"`
	Sender         string     `json:"sender,omitempty"`
	AssignedUserID *core.ID   `json:"assigned_user_id,omitempty"`
	Priority       string     `json:"priority,omitempty"`
	PlannedDate    *time.Time `json:"planned_date,omitempty"`
}

// CreateFromTextOutput returns the persisted task together with the parse
// result so callers can show what was recognized.
type CreateFromTextOutput struct {
	Task   *task.Task            `json:"task"`
	Parsed *message.ParsedFields `json:"parsed_data"`
}

// CreateFromText is the ingestion use case: parse, geocode, resolve
// priority and task number, persist.
type CreateFromText struct {
	tasks     task.Repository
	users     user.Repository
	geocoder  Geocoder
	input     *CreateFromTextInput
	minLength int
}

func NewCreateFromText(
	tasks task.Repository,
	users user.Repository,
	geocoder Geocoder,
	input *CreateFromTextInput,
	minLength int,
) *CreateFromText {
	return &CreateFromText{
		tasks:     tasks,
		users:     users,
		geocoder:  geocoder,
		input:     input,
		minLength: minLength,
	}
}

func (uc *CreateFromText) Execute(ctx context.Context) (*CreateFromTextOutput, error) {
	log := logger.FromContext(ctx)
	parsed, err := NewPreview(uc.input.Text, uc.minLength).Execute(ctx)
	if err != nil {
		return nil, err
	}

	// Geocoding is best-effort: an unresolved address carries the sentinel
	// coordinate and the task is created anyway for manual correction.
	coord := uc.geocoder.Resolve(ctx, parsed.Address)

	priority := parsed.Priority
	if uc.input.Priority != "" {
		override, perr := task.ParsePriority(uc.input.Priority)
		if perr != nil {
			return nil, fmt.Errorf("%w: %s", ErrInvalidInput, perr)
		}
		priority = override
	}

	taskNumber, err := uc.resolveTaskNumber(ctx, parsed)
	if err != nil {
		return nil, err
	}

	assigneeID, err := uc.resolveAssignee(ctx)
	if err != nil {
		return nil, err
	}

	id, err := core.NewID()
	if err != nil {
		return nil, fmt.Errorf("failed to generate task id: %w", err)
	}
	now := time.Now().UTC()
	t := &task.Task{
		ID:             id,
		TaskNumber:     taskNumber,
		Title:          parsed.Title,
		Address:        parsed.Address,
		Description:    parsed.Description,
		Coordinate:     coord,
		Status:         task.StatusNew,
		Priority:       priority,
		ContactName:    parsed.ContactName,
		ContactPhone:   parsed.ContactPhone,
		AssignedUserID: assigneeID,
		PlannedDate:    uc.input.PlannedDate,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := uc.tasks.Create(ctx, t); err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}
	log.Info("task created",
		"task_number", t.TaskNumber,
		"priority", t.Priority,
		"source", uc.input.Source,
		"resolved", !coord.IsZero())
	return &CreateFromTextOutput{Task: t, Parsed: parsed}, nil
}

// resolveTaskNumber prefers the external ticket id; messages without one
// get an internal sequence number. The number is set exactly once here and
// never changes.
func (uc *CreateFromText) resolveTaskNumber(ctx context.Context, parsed *message.ParsedFields) (string, error) {
	if parsed.ExternalID != "" {
		return parsed.ExternalID, nil
	}
	if n := message.ExtractTicketNumber(parsed.Title, parsed.Address, parsed.Description); n != "" {
		return n, nil
	}
	seq, err := uc.tasks.NextSequence(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to generate task number: %w", err)
	}
	return fmt.Sprintf("Z-%05d", seq), nil
}

// resolveAssignee validates a requested assignee. An unknown id is dropped
// rather than failing ingestion: a reviewable unassigned task beats a
// rejected report.
func (uc *CreateFromText) resolveAssignee(ctx context.Context) (*core.ID, error) {
	if uc.input.AssignedUserID == nil || uc.input.AssignedUserID.IsZero() {
		return nil, nil
	}
	if _, err := uc.users.GetByID(ctx, *uc.input.AssignedUserID); err != nil {
		logger.FromContext(ctx).Warn("assignee not found, creating unassigned",
			"assigned_user_id", *uc.input.AssignedUserID)
		return nil, nil
	}
	return uc.input.AssignedUserID, nil
}
