package uc

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldops/dispatch/engine/core"
	"github.com/fieldops/dispatch/engine/geo"
	"github.com/fieldops/dispatch/engine/notification"
	"github.com/fieldops/dispatch/engine/task"
	"github.com/fieldops/dispatch/engine/user"
)

type memTaskRepo struct {
	tasks       map[core.ID]*task.Task
	transitions []*task.TransitionRecord
	seq         int64
}

func newMemTaskRepo() *memTaskRepo {
	return &memTaskRepo{tasks: make(map[core.ID]*task.Task)}
}

func (r *memTaskRepo) Create(_ context.Context, t *task.Task) error {
	r.tasks[t.ID] = t
	return nil
}

func (r *memTaskRepo) GetByID(_ context.Context, id core.ID) (*task.Task, error) {
	t, ok := r.tasks[id]
	if !ok {
		return nil, ErrTaskNotFound
	}
	copied := *t
	return &copied, nil
}

func (r *memTaskRepo) Update(_ context.Context, t *task.Task) error {
	if _, ok := r.tasks[t.ID]; !ok {
		return ErrTaskNotFound
	}
	copied := *t
	r.tasks[t.ID] = &copied
	return nil
}

func (r *memTaskRepo) List(_ context.Context, filter *task.Filter) ([]*task.Task, error) {
	out := make([]*task.Task, 0, len(r.tasks))
	for _, t := range r.tasks {
		if filter != nil && filter.Status != nil && t.Status != *filter.Status {
			continue
		}
		if filter != nil && filter.AssigneeID != nil {
			if t.AssignedUserID == nil || *t.AssignedUserID != *filter.AssigneeID {
				continue
			}
		}
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TaskNumber < out[j].TaskNumber })
	return out, nil
}

func (r *memTaskRepo) NextSequence(_ context.Context) (int64, error) {
	r.seq++
	return r.seq, nil
}

func (r *memTaskRepo) AppendTransition(_ context.Context, rec *task.TransitionRecord) error {
	r.transitions = append(r.transitions, rec)
	return nil
}

func (r *memTaskRepo) ListTransitions(_ context.Context, taskID core.ID) ([]*task.TransitionRecord, error) {
	var out []*task.TransitionRecord
	for _, rec := range r.transitions {
		if rec.TaskID == taskID {
			out = append(out, rec)
		}
	}
	return out, nil
}

type memUserRepo struct {
	users map[core.ID]*user.User
}

func newMemUserRepo(users ...*user.User) *memUserRepo {
	r := &memUserRepo{users: make(map[core.ID]*user.User)}
	for _, u := range users {
		r.users[u.ID] = u
	}
	return r
}

func (r *memUserRepo) GetByID(_ context.Context, id core.ID) (*user.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	return u, nil
}

func (r *memUserRepo) ListPrivileged(_ context.Context) ([]*user.User, error) {
	var out []*user.User
	for _, u := range r.users {
		if u.IsActive && u.Role.Privileged() {
			out = append(out, u)
		}
	}
	return out, nil
}

type recordingDispatcher struct {
	intents []*notification.Intent
}

func (d *recordingDispatcher) Dispatch(_ context.Context, intents ...*notification.Intent) {
	d.intents = append(d.intents, intents...)
}

type stubGeocoder struct {
	coord geo.Coordinate
	calls []string
}

func (g *stubGeocoder) Resolve(_ context.Context, address string) geo.Coordinate {
	g.calls = append(g.calls, address)
	return g.coord
}

func testUser(role user.Role, name string) *user.User {
	return &user.User{
		ID:       core.MustNewID(),
		Username: name,
		FullName: name,
		Role:     role,
		IsActive: true,
	}
}

func seedTask(t *testing.T, repo *memTaskRepo, status task.Status) *task.Task {
	t.Helper()
	tk := &task.Task{
		ID:         core.MustNewID(),
		TaskNumber: "1173544",
		Title:      "1173544 Брелки",
		Address:    "Центральная ул., д.3, подъезд 1",
		Status:     status,
		Priority:   task.PriorityCurrent,
		CreatedAt:  time.Now().UTC(),
		UpdatedAt:  time.Now().UTC(),
	}
	require.NoError(t, repo.Create(context.Background(), tk))
	return tk
}

const dispatcherMessage = "№1173544 Текущая. Центральная ул., д.3, подъезд 1. Брелки. " +
	"Не работает брелок. кв.45 +79110000000"

func TestCreateFromText(t *testing.T) {
	t.Run("Should create a NEW task from a dispatcher message", func(t *testing.T) {
		tasks := newMemTaskRepo()
		geocoder := &stubGeocoder{coord: geo.Coordinate{Lat: 59.93, Lon: 30.33}}
		out, err := NewCreateFromText(tasks, newMemUserRepo(), geocoder, &CreateFromTextInput{
			Text: dispatcherMessage,
		}, 0).Execute(context.Background())
		require.NoError(t, err)
		require.NotNil(t, out.Task)
		require.NotNil(t, out.Parsed)

		assert.Equal(t, task.StatusNew, out.Task.Status)
		assert.Equal(t, "1173544", out.Task.TaskNumber)
		assert.Equal(t, task.PriorityCurrent, out.Task.Priority)
		assert.Equal(t, "+79110000000", out.Task.ContactPhone)
		assert.Equal(t, geo.Coordinate{Lat: 59.93, Lon: 30.33}, out.Task.Coordinate)
		assert.Nil(t, out.Task.CompletedAt)
		assert.Len(t, geocoder.calls, 1)

		stored, err := tasks.GetByID(context.Background(), out.Task.ID)
		require.NoError(t, err)
		assert.Equal(t, out.Task.TaskNumber, stored.TaskNumber)
	})

	t.Run("Should fall back to the internal sequence without an external id", func(t *testing.T) {
		tasks := newMemTaskRepo()
		out, err := NewCreateFromText(tasks, newMemUserRepo(), &stubGeocoder{}, &CreateFromTextInput{
			Text: "Невский проспект, д.10\nНе работает домофон на первом этаже",
		}, 0).Execute(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "Z-00001", out.Task.TaskNumber)
	})

	t.Run("Should carry the sentinel coordinate when geocoding fails", func(t *testing.T) {
		tasks := newMemTaskRepo()
		out, err := NewCreateFromText(tasks, newMemUserRepo(), &stubGeocoder{coord: geo.Unresolved},
			&CreateFromTextInput{Text: dispatcherMessage}, 0).Execute(context.Background())
		require.NoError(t, err)
		assert.True(t, out.Task.Coordinate.IsZero())
	})

	t.Run("Should apply an explicit priority override", func(t *testing.T) {
		tasks := newMemTaskRepo()
		out, err := NewCreateFromText(tasks, newMemUserRepo(), &stubGeocoder{}, &CreateFromTextInput{
			Text:     dispatcherMessage,
			Priority: "4",
		}, 0).Execute(context.Background())
		require.NoError(t, err)
		assert.Equal(t, task.PriorityEmergency, out.Task.Priority)
	})

	t.Run("Should reject an unknown priority override", func(t *testing.T) {
		_, err := NewCreateFromText(newMemTaskRepo(), newMemUserRepo(), &stubGeocoder{},
			&CreateFromTextInput{Text: dispatcherMessage, Priority: "критическая"}, 0).
			Execute(context.Background())
		assert.ErrorIs(t, err, ErrInvalidInput)
	})

	t.Run("Should drop an unknown assignee instead of failing", func(t *testing.T) {
		tasks := newMemTaskRepo()
		ghost := core.MustNewID()
		out, err := NewCreateFromText(tasks, newMemUserRepo(), &stubGeocoder{}, &CreateFromTextInput{
			Text:           dispatcherMessage,
			AssignedUserID: &ghost,
		}, 0).Execute(context.Background())
		require.NoError(t, err)
		assert.Nil(t, out.Task.AssignedUserID)
	})

	t.Run("Should keep a known assignee", func(t *testing.T) {
		worker := testUser(user.RoleWorker, "Иван Петров")
		out, err := NewCreateFromText(newMemTaskRepo(), newMemUserRepo(worker), &stubGeocoder{},
			&CreateFromTextInput{Text: dispatcherMessage, AssignedUserID: &worker.ID}, 0).
			Execute(context.Background())
		require.NoError(t, err)
		require.NotNil(t, out.Task.AssignedUserID)
		assert.Equal(t, worker.ID, *out.Task.AssignedUserID)
	})

	t.Run("Should reject a message below the minimum length", func(t *testing.T) {
		tasks := newMemTaskRepo()
		_, err := NewCreateFromText(tasks, newMemUserRepo(), &stubGeocoder{},
			&CreateFromTextInput{Text: "коротко"}, 0).Execute(context.Background())
		assert.ErrorIs(t, err, ErrMessageTooShort)
		assert.Empty(t, tasks.tasks)
	})
}

func TestPreview(t *testing.T) {
	t.Run("Should parse without persisting anything", func(t *testing.T) {
		parsed, err := NewPreview(dispatcherMessage, 0).Execute(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "1173544", parsed.ExternalID)
		assert.Equal(t, task.PriorityCurrent, parsed.Priority)
	})

	t.Run("Should reject short input before parsing", func(t *testing.T) {
		_, err := NewPreview("   кв.45   ", 0).Execute(context.Background())
		assert.ErrorIs(t, err, ErrMessageTooShort)
	})
}

func TestUpdateStatus(t *testing.T) {
	t.Run("Should apply a valid transition and append one record", func(t *testing.T) {
		tasks := newMemTaskRepo()
		tk := seedTask(t, tasks, task.StatusNew)
		dispatcher := &recordingDispatcher{}
		out, err := NewUpdateStatus(tasks, newMemUserRepo(), dispatcher, &UpdateStatusInput{
			TaskID:    tk.ID,
			NewStatus: task.StatusInProgress,
		}).Execute(context.Background())
		require.NoError(t, err)
		assert.Equal(t, task.StatusInProgress, out.Status)

		recs, err := tasks.ListTransitions(context.Background(), tk.ID)
		require.NoError(t, err)
		require.Len(t, recs, 1)
		assert.Equal(t, task.TransitionStatus, recs[0].Kind)
		assert.Equal(t, task.StatusNew, recs[0].OldStatus)
		assert.Equal(t, task.StatusInProgress, recs[0].NewStatus)
		assert.Equal(t, "Сотрудник", recs[0].Author)
	})

	t.Run("Should reject a forbidden transition with the valid destinations", func(t *testing.T) {
		tasks := newMemTaskRepo()
		tk := seedTask(t, tasks, task.StatusNew)
		_, err := NewUpdateStatus(tasks, newMemUserRepo(), nil, &UpdateStatusInput{
			TaskID:    tk.ID,
			NewStatus: task.StatusDone,
		}).Execute(context.Background())
		var invalid *task.InvalidTransitionError
		require.ErrorAs(t, err, &invalid)
		assert.Equal(t, task.StatusNew, invalid.From)
		assert.Equal(t, task.StatusDone, invalid.To)

		stored, err := tasks.GetByID(context.Background(), tk.ID)
		require.NoError(t, err)
		assert.Equal(t, task.StatusNew, stored.Status)
		recs, _ := tasks.ListTransitions(context.Background(), tk.ID)
		assert.Empty(t, recs)
	})

	t.Run("Should treat a self-transition as an accepted no-op", func(t *testing.T) {
		tasks := newMemTaskRepo()
		tk := seedTask(t, tasks, task.StatusDone)
		done := time.Now().UTC().Add(-time.Hour)
		tk.CompletedAt = &done
		require.NoError(t, tasks.Update(context.Background(), tk))

		out, err := NewUpdateStatus(tasks, newMemUserRepo(), nil, &UpdateStatusInput{
			TaskID:    tk.ID,
			NewStatus: task.StatusDone,
		}).Execute(context.Background())
		require.NoError(t, err)
		assert.Equal(t, task.StatusDone, out.Status)
		require.NotNil(t, out.CompletedAt)
		assert.Equal(t, done, *out.CompletedAt)
	})

	t.Run("Should set completed_at when the task is done", func(t *testing.T) {
		tasks := newMemTaskRepo()
		tk := seedTask(t, tasks, task.StatusInProgress)
		out, err := NewUpdateStatus(tasks, newMemUserRepo(), nil, &UpdateStatusInput{
			TaskID:    tk.ID,
			NewStatus: task.StatusDone,
		}).Execute(context.Background())
		require.NoError(t, err)
		require.NotNil(t, out.CompletedAt)
	})

	t.Run("Should clear completed_at on reopen", func(t *testing.T) {
		tasks := newMemTaskRepo()
		tk := seedTask(t, tasks, task.StatusDone)
		done := time.Now().UTC()
		tk.CompletedAt = &done
		require.NoError(t, tasks.Update(context.Background(), tk))

		out, err := NewUpdateStatus(tasks, newMemUserRepo(), nil, &UpdateStatusInput{
			TaskID:    tk.ID,
			NewStatus: task.StatusInProgress,
		}).Execute(context.Background())
		require.NoError(t, err)
		assert.Nil(t, out.CompletedAt)
	})

	t.Run("Should notify the assignee when someone else changes the status", func(t *testing.T) {
		worker := testUser(user.RoleWorker, "Иван Петров")
		admin := testUser(user.RoleAdmin, "Анна Смирнова")
		tasks := newMemTaskRepo()
		tk := seedTask(t, tasks, task.StatusNew)
		tk.AssignedUserID = &worker.ID
		require.NoError(t, tasks.Update(context.Background(), tk))

		dispatcher := &recordingDispatcher{}
		_, err := NewUpdateStatus(tasks, newMemUserRepo(worker, admin), dispatcher, &UpdateStatusInput{
			TaskID:    tk.ID,
			NewStatus: task.StatusCancelled,
			ActorID:   &admin.ID,
		}).Execute(context.Background())
		require.NoError(t, err)
		require.Len(t, dispatcher.intents, 1)
		assert.Equal(t, worker.ID, dispatcher.intents[0].RecipientID)
		assert.Contains(t, dispatcher.intents[0].Body, "Изменил: Анна Смирнова")
	})

	t.Run("Should fan out to privileged users when a worker reopens a task", func(t *testing.T) {
		worker := testUser(user.RoleWorker, "Иван Петров")
		admin := testUser(user.RoleAdmin, "Анна Смирнова")
		dispatcherUser := testUser(user.RoleDispatcher, "Ольга Кузнецова")
		tasks := newMemTaskRepo()
		tk := seedTask(t, tasks, task.StatusDone)

		dispatcher := &recordingDispatcher{}
		_, err := NewUpdateStatus(tasks, newMemUserRepo(worker, admin, dispatcherUser), dispatcher,
			&UpdateStatusInput{
				TaskID:    tk.ID,
				NewStatus: task.StatusInProgress,
				ActorID:   &worker.ID,
			}).Execute(context.Background())
		require.NoError(t, err)

		recipients := make(map[core.ID]bool)
		for _, intent := range dispatcher.intents {
			recipients[intent.RecipientID] = true
		}
		assert.True(t, recipients[admin.ID])
		assert.True(t, recipients[dispatcherUser.ID])
		assert.False(t, recipients[worker.ID])
	})

	t.Run("Should not fan out when a privileged actor reopens", func(t *testing.T) {
		admin := testUser(user.RoleAdmin, "Анна Смирнова")
		other := testUser(user.RoleDispatcher, "Ольга Кузнецова")
		tasks := newMemTaskRepo()
		tk := seedTask(t, tasks, task.StatusCancelled)

		dispatcher := &recordingDispatcher{}
		_, err := NewUpdateStatus(tasks, newMemUserRepo(admin, other), dispatcher, &UpdateStatusInput{
			TaskID:    tk.ID,
			NewStatus: task.StatusNew,
			ActorID:   &admin.ID,
		}).Execute(context.Background())
		require.NoError(t, err)
		assert.Empty(t, dispatcher.intents)
	})

	t.Run("Should return not found for an unknown task", func(t *testing.T) {
		_, err := NewUpdateStatus(newMemTaskRepo(), newMemUserRepo(), nil, &UpdateStatusInput{
			TaskID:    core.MustNewID(),
			NewStatus: task.StatusInProgress,
		}).Execute(context.Background())
		assert.ErrorIs(t, err, ErrTaskNotFound)
	})
}

func TestAssign(t *testing.T) {
	t.Run("Should assign, record and notify the new assignee", func(t *testing.T) {
		worker := testUser(user.RoleWorker, "Иван Петров")
		admin := testUser(user.RoleAdmin, "Анна Смирнова")
		tasks := newMemTaskRepo()
		tk := seedTask(t, tasks, task.StatusNew)

		dispatcher := &recordingDispatcher{}
		out, err := NewAssign(tasks, newMemUserRepo(worker, admin), dispatcher, &AssignInput{
			TaskID:     tk.ID,
			AssigneeID: &worker.ID,
			ActorID:    &admin.ID,
		}).Execute(context.Background())
		require.NoError(t, err)
		require.NotNil(t, out.AssignedUserID)
		assert.Equal(t, worker.ID, *out.AssignedUserID)

		recs, _ := tasks.ListTransitions(context.Background(), tk.ID)
		require.Len(t, recs, 1)
		assert.Equal(t, task.TransitionAssignment, recs[0].Kind)
		assert.Contains(t, recs[0].Note, "Иван Петров")

		require.Len(t, dispatcher.intents, 1)
		assert.Equal(t, worker.ID, dispatcher.intents[0].RecipientID)
		assert.Equal(t, notification.CategoryTask, dispatcher.intents[0].Category)
	})

	t.Run("Should escalate emergency assignments to the alert category", func(t *testing.T) {
		worker := testUser(user.RoleWorker, "Иван Петров")
		tasks := newMemTaskRepo()
		tk := seedTask(t, tasks, task.StatusNew)
		tk.Priority = task.PriorityEmergency
		require.NoError(t, tasks.Update(context.Background(), tk))

		dispatcher := &recordingDispatcher{}
		_, err := NewAssign(tasks, newMemUserRepo(worker), dispatcher, &AssignInput{
			TaskID:     tk.ID,
			AssigneeID: &worker.ID,
		}).Execute(context.Background())
		require.NoError(t, err)
		require.Len(t, dispatcher.intents, 1)
		assert.Equal(t, notification.CategoryAlert, dispatcher.intents[0].Category)
	})

	t.Run("Should not notify on self-assignment but still record it", func(t *testing.T) {
		worker := testUser(user.RoleWorker, "Иван Петров")
		tasks := newMemTaskRepo()
		tk := seedTask(t, tasks, task.StatusNew)

		dispatcher := &recordingDispatcher{}
		_, err := NewAssign(tasks, newMemUserRepo(worker), dispatcher, &AssignInput{
			TaskID:     tk.ID,
			AssigneeID: &worker.ID,
			ActorID:    &worker.ID,
		}).Execute(context.Background())
		require.NoError(t, err)
		assert.Empty(t, dispatcher.intents)
		recs, _ := tasks.ListTransitions(context.Background(), tk.ID)
		assert.Len(t, recs, 1)
	})

	t.Run("Should not record when the assignee did not change", func(t *testing.T) {
		worker := testUser(user.RoleWorker, "Иван Петров")
		tasks := newMemTaskRepo()
		tk := seedTask(t, tasks, task.StatusNew)
		tk.AssignedUserID = &worker.ID
		require.NoError(t, tasks.Update(context.Background(), tk))

		dispatcher := &recordingDispatcher{}
		_, err := NewAssign(tasks, newMemUserRepo(worker), dispatcher, &AssignInput{
			TaskID:     tk.ID,
			AssigneeID: &worker.ID,
		}).Execute(context.Background())
		require.NoError(t, err)
		assert.Empty(t, dispatcher.intents)
		recs, _ := tasks.ListTransitions(context.Background(), tk.ID)
		assert.Empty(t, recs)
	})

	t.Run("Should unassign with a nil assignee", func(t *testing.T) {
		worker := testUser(user.RoleWorker, "Иван Петров")
		tasks := newMemTaskRepo()
		tk := seedTask(t, tasks, task.StatusNew)
		tk.AssignedUserID = &worker.ID
		require.NoError(t, tasks.Update(context.Background(), tk))

		out, err := NewAssign(tasks, newMemUserRepo(worker), &recordingDispatcher{}, &AssignInput{
			TaskID: tk.ID,
		}).Execute(context.Background())
		require.NoError(t, err)
		assert.Nil(t, out.AssignedUserID)
		recs, _ := tasks.ListTransitions(context.Background(), tk.ID)
		require.Len(t, recs, 1)
		assert.Contains(t, recs[0].Note, "Не назначен")
	})

	t.Run("Should reject an unknown assignee", func(t *testing.T) {
		tasks := newMemTaskRepo()
		tk := seedTask(t, tasks, task.StatusNew)
		ghost := core.MustNewID()
		_, err := NewAssign(tasks, newMemUserRepo(), nil, &AssignInput{
			TaskID:     tk.ID,
			AssigneeID: &ghost,
		}).Execute(context.Background())
		assert.ErrorIs(t, err, ErrUserNotFound)
	})
}

func TestReschedule(t *testing.T) {
	t.Run("Should set the planned date and record it", func(t *testing.T) {
		tasks := newMemTaskRepo()
		tk := seedTask(t, tasks, task.StatusNew)
		planned := time.Date(2026, 9, 15, 0, 0, 0, 0, time.UTC)

		out, err := NewReschedule(tasks, newMemUserRepo(), &RescheduleInput{
			TaskID:      tk.ID,
			PlannedDate: &planned,
		}).Execute(context.Background())
		require.NoError(t, err)
		require.NotNil(t, out.PlannedDate)
		assert.Equal(t, planned, *out.PlannedDate)

		recs, _ := tasks.ListTransitions(context.Background(), tk.ID)
		require.Len(t, recs, 1)
		assert.Equal(t, task.TransitionSchedule, recs[0].Kind)
		assert.Contains(t, recs[0].Note, "15.09.2026")
	})

	t.Run("Should clear the planned date with a nil input", func(t *testing.T) {
		tasks := newMemTaskRepo()
		tk := seedTask(t, tasks, task.StatusNew)
		planned := time.Now().UTC()
		tk.PlannedDate = &planned
		require.NoError(t, tasks.Update(context.Background(), tk))

		out, err := NewReschedule(tasks, newMemUserRepo(), &RescheduleInput{TaskID: tk.ID}).
			Execute(context.Background())
		require.NoError(t, err)
		assert.Nil(t, out.PlannedDate)
		recs, _ := tasks.ListTransitions(context.Background(), tk.ID)
		require.Len(t, recs, 1)
		assert.Contains(t, recs[0].Note, "не указана")
	})
}

func TestGetAndList(t *testing.T) {
	t.Run("Should return not found for an unknown id", func(t *testing.T) {
		_, err := NewGetTask(newMemTaskRepo(), core.MustNewID()).Execute(context.Background())
		assert.True(t, errors.Is(err, ErrTaskNotFound))
	})

	t.Run("Should filter the listing by status", func(t *testing.T) {
		tasks := newMemTaskRepo()
		seedTask(t, tasks, task.StatusNew)
		done := seedTask(t, tasks, task.StatusDone)
		done.TaskNumber = "Z-00002"
		require.NoError(t, tasks.Update(context.Background(), done))

		status := task.StatusDone
		out, err := NewListTasks(tasks, &task.Filter{Status: &status}).Execute(context.Background())
		require.NoError(t, err)
		require.Len(t, out, 1)
		assert.Equal(t, "Z-00002", out[0].TaskNumber)
	})

	t.Run("Should list transitions for an existing task only", func(t *testing.T) {
		tasks := newMemTaskRepo()
		tk := seedTask(t, tasks, task.StatusNew)
		_, err := NewUpdateStatus(tasks, newMemUserRepo(), nil, &UpdateStatusInput{
			TaskID:    tk.ID,
			NewStatus: task.StatusInProgress,
		}).Execute(context.Background())
		require.NoError(t, err)

		recs, err := NewGetTransitions(tasks, tk.ID).Execute(context.Background())
		require.NoError(t, err)
		assert.Len(t, recs, 1)

		_, err = NewGetTransitions(tasks, core.MustNewID()).Execute(context.Background())
		assert.ErrorIs(t, err, ErrTaskNotFound)
	})
}
