package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/fieldops/dispatch/engine/core"
	"github.com/fieldops/dispatch/engine/geo"
	"github.com/fieldops/dispatch/engine/task"
	"github.com/fieldops/dispatch/engine/task/uc"
)

var taskColumns = []string{
	"id",
	"task_number",
	"title",
	"address",
	"description",
	"lat",
	"lon",
	"status",
	"priority",
	"contact_name",
	"contact_phone",
	"assigned_user_id",
	"planned_date",
	"created_at",
	"updated_at",
	"completed_at",
}

// priorityRankSQL orders rows by urgency; the stored form is the tagged
// name, so ranking needs an explicit mapping.
const priorityRankSQL = "CASE priority " +
	"WHEN 'EMERGENCY' THEN 4 WHEN 'URGENT' THEN 3 WHEN 'CURRENT' THEN 2 ELSE 1 END DESC"

// DB is the minimal database interface the repos depend on (pgxpool or
// pgxmock).
type DB interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// TaskRepo implements task.Repository backed by a pgx-compatible pool.
type TaskRepo struct {
	db DB
}

func NewTaskRepo(db DB) *TaskRepo {
	return &TaskRepo{db: db}
}

// taskDB is the row shape; the coordinate is flattened into lat/lon.
type taskDB struct {
	ID             core.ID       `db:"id"`
	TaskNumber     string        `db:"task_number"`
	Title          string        `db:"title"`
	Address        string        `db:"address"`
	Description    string        `db:"description"`
	Lat            float64       `db:"lat"`
	Lon            float64       `db:"lon"`
	Status         task.Status   `db:"status"`
	Priority       string        `db:"priority"`
	ContactName    string        `db:"contact_name"`
	ContactPhone   string        `db:"contact_phone"`
	AssignedUserID *core.ID      `db:"assigned_user_id"`
	PlannedDate    *time.Time    `db:"planned_date"`
	CreatedAt      time.Time     `db:"created_at"`
	UpdatedAt      time.Time     `db:"updated_at"`
	CompletedAt    *time.Time    `db:"completed_at"`
}

func (d *taskDB) toTask() *task.Task {
	// Legacy rows may carry numeric priorities; normalize at the boundary.
	priority := task.Priority(d.Priority)
	if !priority.Valid() {
		if p, err := task.ParsePriority(d.Priority); err == nil {
			priority = p
		} else {
			priority = task.PriorityCurrent
		}
	}
	return &task.Task{
		ID:             d.ID,
		TaskNumber:     d.TaskNumber,
		Title:          d.Title,
		Address:        d.Address,
		Description:    d.Description,
		Coordinate:     geo.Coordinate{Lat: d.Lat, Lon: d.Lon},
		Status:         d.Status,
		Priority:       priority,
		ContactName:    d.ContactName,
		ContactPhone:   d.ContactPhone,
		AssignedUserID: d.AssignedUserID,
		PlannedDate:    d.PlannedDate,
		CreatedAt:      d.CreatedAt,
		UpdatedAt:      d.UpdatedAt,
		CompletedAt:    d.CompletedAt,
	}
}

func taskValues(t *task.Task) []any {
	return []any{
		t.ID,
		t.TaskNumber,
		t.Title,
		t.Address,
		t.Description,
		t.Coordinate.Lat,
		t.Coordinate.Lon,
		t.Status,
		t.Priority,
		t.ContactName,
		t.ContactPhone,
		t.AssignedUserID,
		t.PlannedDate,
		t.CreatedAt,
		t.UpdatedAt,
		t.CompletedAt,
	}
}

func (r *TaskRepo) Create(ctx context.Context, t *task.Task) error {
	sql, args, err := squirrel.Insert("tasks").
		Columns(taskColumns...).
		Values(taskValues(t)...).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("building insert query: %w", err)
	}
	if _, err := r.db.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("inserting task: %w", err)
	}
	return nil
}

func (r *TaskRepo) GetByID(ctx context.Context, id core.ID) (*task.Task, error) {
	sql, args, err := squirrel.Select(taskColumns...).
		From("tasks").
		Where(squirrel.Eq{"id": id}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building query: %w", err)
	}
	var row taskDB
	if err := pgxscan.Get(ctx, r.db, &row, sql, args...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, uc.ErrTaskNotFound
		}
		return nil, fmt.Errorf("scanning task: %w", err)
	}
	return row.toTask(), nil
}

func (r *TaskRepo) Update(ctx context.Context, t *task.Task) error {
	sql, args, err := squirrel.Update("tasks").
		Set("title", t.Title).
		Set("address", t.Address).
		Set("description", t.Description).
		Set("lat", t.Coordinate.Lat).
		Set("lon", t.Coordinate.Lon).
		Set("status", t.Status).
		Set("priority", t.Priority).
		Set("contact_name", t.ContactName).
		Set("contact_phone", t.ContactPhone).
		Set("assigned_user_id", t.AssignedUserID).
		Set("planned_date", t.PlannedDate).
		Set("updated_at", t.UpdatedAt).
		Set("completed_at", t.CompletedAt).
		Where(squirrel.Eq{"id": t.ID}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("building update query: %w", err)
	}
	tag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("updating task: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return uc.ErrTaskNotFound
	}
	return nil
}

func (r *TaskRepo) List(ctx context.Context, filter *task.Filter) ([]*task.Task, error) {
	sb := squirrel.Select(taskColumns...).
		From("tasks").
		OrderBy(priorityRankSQL, "created_at DESC").
		PlaceholderFormat(squirrel.Dollar)
	sb = applyTaskFilter(sb, filter)
	sql, args, err := sb.ToSql()
	if err != nil {
		return nil, fmt.Errorf("building query: %w", err)
	}
	var rows []*taskDB
	if err := pgxscan.Select(ctx, r.db, &rows, sql, args...); err != nil {
		return nil, fmt.Errorf("scanning tasks: %w", err)
	}
	out := make([]*task.Task, len(rows))
	for i, row := range rows {
		out[i] = row.toTask()
	}
	return out, nil
}

func applyTaskFilter(sb squirrel.SelectBuilder, filter *task.Filter) squirrel.SelectBuilder {
	if filter == nil {
		return sb
	}
	if filter.Status != nil {
		sb = sb.Where(squirrel.Eq{"status": *filter.Status})
	}
	if filter.AssigneeID != nil {
		sb = sb.Where(squirrel.Eq{"assigned_user_id": *filter.AssigneeID})
	}
	return sb
}

func (r *TaskRepo) NextSequence(ctx context.Context) (int64, error) {
	var seq int64
	if err := r.db.QueryRow(ctx, "SELECT nextval('task_number_seq')").Scan(&seq); err != nil {
		return 0, fmt.Errorf("advancing task number sequence: %w", err)
	}
	return seq, nil
}

var transitionColumns = []string{
	"id",
	"task_id",
	"kind",
	"old_status",
	"new_status",
	"old_assignee",
	"new_assignee",
	"author",
	"author_id",
	"note",
	"created_at",
}

type transitionDB struct {
	ID          core.ID             `db:"id"`
	TaskID      core.ID             `db:"task_id"`
	Kind        task.TransitionKind `db:"kind"`
	OldStatus   task.Status         `db:"old_status"`
	NewStatus   task.Status         `db:"new_status"`
	OldAssignee *core.ID            `db:"old_assignee"`
	NewAssignee *core.ID            `db:"new_assignee"`
	Author      string              `db:"author"`
	AuthorID    *core.ID            `db:"author_id"`
	Note        string              `db:"note"`
	CreatedAt   time.Time           `db:"created_at"`
}

func (d *transitionDB) toRecord() *task.TransitionRecord {
	return &task.TransitionRecord{
		ID:          d.ID,
		TaskID:      d.TaskID,
		Kind:        d.Kind,
		OldStatus:   d.OldStatus,
		NewStatus:   d.NewStatus,
		OldAssignee: d.OldAssignee,
		NewAssignee: d.NewAssignee,
		Author:      d.Author,
		AuthorID:    d.AuthorID,
		Note:        d.Note,
		CreatedAt:   d.CreatedAt,
	}
}

func (r *TaskRepo) AppendTransition(ctx context.Context, rec *task.TransitionRecord) error {
	sql, args, err := squirrel.Insert("task_transitions").
		Columns(transitionColumns...).
		Values(
			rec.ID,
			rec.TaskID,
			rec.Kind,
			rec.OldStatus,
			rec.NewStatus,
			rec.OldAssignee,
			rec.NewAssignee,
			rec.Author,
			rec.AuthorID,
			rec.Note,
			rec.CreatedAt,
		).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("building insert query: %w", err)
	}
	if _, err := r.db.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("inserting transition: %w", err)
	}
	return nil
}

func (r *TaskRepo) ListTransitions(ctx context.Context, taskID core.ID) ([]*task.TransitionRecord, error) {
	sql, args, err := squirrel.Select(transitionColumns...).
		From("task_transitions").
		Where(squirrel.Eq{"task_id": taskID}).
		OrderBy("created_at ASC").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building query: %w", err)
	}
	var rows []*transitionDB
	if err := pgxscan.Select(ctx, r.db, &rows, sql, args...); err != nil {
		return nil, fmt.Errorf("scanning transitions: %w", err)
	}
	out := make([]*task.TransitionRecord, len(rows))
	for i, row := range rows {
		out[i] = row.toRecord()
	}
	return out, nil
}
