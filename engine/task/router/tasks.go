package taskrouter

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fieldops/dispatch/engine/core"
	"github.com/fieldops/dispatch/engine/infra/server/router"
	"github.com/fieldops/dispatch/engine/task"
	"github.com/fieldops/dispatch/engine/task/uc"
)

// getTaskID extracts and validates the task_id path parameter. It writes
// the error response itself and returns the zero ID on failure.
func getTaskID(c *gin.Context) core.ID {
	id, err := core.ParseID(c.Param("task_id"))
	if err != nil {
		router.RespondWithError(c, http.StatusBadRequest,
			router.NewRequestError(http.StatusBadRequest, "invalid task id", err))
		return ""
	}
	return id
}

// respondUCError maps use-case errors onto the HTTP surface: not-found
// sentinels to 404, input rejections to 400, lifecycle rejections to 422
// with the valid destinations in the details.
func respondUCError(c *gin.Context, err error) {
	var invalid *task.InvalidTransitionError
	switch {
	case errors.Is(err, uc.ErrTaskNotFound):
		router.RespondWithError(c, http.StatusNotFound,
			router.NewRequestError(http.StatusNotFound, "task not found", err))
	case errors.Is(err, uc.ErrUserNotFound):
		router.RespondWithError(c, http.StatusNotFound,
			router.NewRequestError(http.StatusNotFound, "user not found", err))
	case errors.Is(err, uc.ErrMessageTooShort):
		router.RespondWithError(c, http.StatusBadRequest,
			router.NewRequestError(http.StatusBadRequest, "message is too short", err))
	case errors.Is(err, uc.ErrInvalidInput):
		router.RespondWithError(c, http.StatusBadRequest,
			router.NewRequestError(http.StatusBadRequest, "invalid input", err))
	case errors.As(err, &invalid):
		router.RespondWithError(c, http.StatusUnprocessableEntity,
			router.NewRequestError(http.StatusUnprocessableEntity, "invalid status transition", invalid))
	default:
		router.RespondWithError(c, http.StatusInternalServerError,
			router.NewRequestError(http.StatusInternalServerError, "internal error", err))
	}
}

// createFromText ingests a free-text problem report and persists a task.
func createFromText(c *gin.Context) {
	state := router.GetAppState(c)
	if state == nil {
		return
	}
	var req CreateFromTextRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		router.RespondWithError(c, http.StatusBadRequest,
			router.NewRequestError(http.StatusBadRequest, "invalid request body", err))
		return
	}
	input := &uc.CreateFromTextInput{
		Text:           req.Text,
		Source:         req.Source,
		Sender:         req.Sender,
		AssignedUserID: req.AssignedUserID,
		Priority:       req.Priority,
		PlannedDate:    req.PlannedDate,
	}
	out, err := uc.NewCreateFromText(
		state.Tasks, state.Users, state.Geocoder, input,
		state.Config.Limits.MinMessageLength,
	).Execute(c.Request.Context())
	if err != nil {
		respondUCError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"success":     true,
		"task":        out.Task,
		"parsed_data": out.Parsed,
	})
}

// parseMessage runs the parser alone so dispatchers can preview what will
// be recognized before committing a task.
func parseMessage(c *gin.Context) {
	state := router.GetAppState(c)
	if state == nil {
		return
	}
	var req ParseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		router.RespondWithError(c, http.StatusBadRequest,
			router.NewRequestError(http.StatusBadRequest, "invalid request body", err))
		return
	}
	parsed, err := uc.NewPreview(req.Text, state.Config.Limits.MinMessageLength).
		Execute(c.Request.Context())
	if err != nil {
		respondUCError(c, err)
		return
	}
	router.RespondOK(c, "message parsed", parsed)
}

// listTasks returns tasks, optionally filtered by status and assignee.
func listTasks(c *gin.Context) {
	state := router.GetAppState(c)
	if state == nil {
		return
	}
	filter := &task.Filter{}
	if raw := c.Query("status"); raw != "" {
		status, err := task.ParseStatus(raw)
		if err != nil {
			router.RespondWithError(c, http.StatusBadRequest,
				router.NewRequestError(http.StatusBadRequest, "invalid status filter", err))
			return
		}
		filter.Status = &status
	}
	if raw := c.Query("assigned_user_id"); raw != "" {
		id, err := core.ParseID(raw)
		if err != nil {
			router.RespondWithError(c, http.StatusBadRequest,
				router.NewRequestError(http.StatusBadRequest, "invalid assignee filter", err))
			return
		}
		filter.AssigneeID = &id
	}
	tasks, err := uc.NewListTasks(state.Tasks, filter).Execute(c.Request.Context())
	if err != nil {
		respondUCError(c, err)
		return
	}
	router.RespondOK(c, "tasks retrieved", gin.H{"tasks": tasks})
}

// getTask returns a single task by id.
func getTask(c *gin.Context) {
	taskID := getTaskID(c)
	if taskID.IsZero() {
		return
	}
	state := router.GetAppState(c)
	if state == nil {
		return
	}
	t, err := uc.NewGetTask(state.Tasks, taskID).Execute(c.Request.Context())
	if err != nil {
		respondUCError(c, err)
		return
	}
	router.RespondOK(c, "task retrieved", t)
}

// getTransitions returns a task's audit trail, oldest first.
func getTransitions(c *gin.Context) {
	taskID := getTaskID(c)
	if taskID.IsZero() {
		return
	}
	state := router.GetAppState(c)
	if state == nil {
		return
	}
	recs, err := uc.NewGetTransitions(state.Tasks, taskID).Execute(c.Request.Context())
	if err != nil {
		respondUCError(c, err)
		return
	}
	router.RespondOK(c, "transitions retrieved", gin.H{"transitions": recs})
}

// updateStatus moves a task through its lifecycle.
func updateStatus(c *gin.Context) {
	taskID := getTaskID(c)
	if taskID.IsZero() {
		return
	}
	state := router.GetAppState(c)
	if state == nil {
		return
	}
	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		router.RespondWithError(c, http.StatusBadRequest,
			router.NewRequestError(http.StatusBadRequest, "invalid request body", err))
		return
	}
	status, err := task.ParseStatus(req.Status)
	if err != nil {
		router.RespondWithError(c, http.StatusBadRequest,
			router.NewRequestError(http.StatusBadRequest, "invalid status", err))
		return
	}
	t, err := uc.NewUpdateStatus(state.Tasks, state.Users, state.Notifier, &uc.UpdateStatusInput{
		TaskID:    taskID,
		NewStatus: status,
		Note:      req.Note,
		ActorID:   req.ActorID,
	}).Execute(c.Request.Context())
	if err != nil {
		respondUCError(c, err)
		return
	}
	router.RespondOK(c, "status updated", t)
}

// assignTask changes or clears the assignee.
func assignTask(c *gin.Context) {
	taskID := getTaskID(c)
	if taskID.IsZero() {
		return
	}
	state := router.GetAppState(c)
	if state == nil {
		return
	}
	var req AssignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		router.RespondWithError(c, http.StatusBadRequest,
			router.NewRequestError(http.StatusBadRequest, "invalid request body", err))
		return
	}
	t, err := uc.NewAssign(state.Tasks, state.Users, state.Notifier, &uc.AssignInput{
		TaskID:     taskID,
		AssigneeID: req.AssignedUserID,
		ActorID:    req.ActorID,
	}).Execute(c.Request.Context())
	if err != nil {
		respondUCError(c, err)
		return
	}
	router.RespondOK(c, "task assigned", t)
}

// rescheduleTask sets or clears the planned date.
func rescheduleTask(c *gin.Context) {
	taskID := getTaskID(c)
	if taskID.IsZero() {
		return
	}
	state := router.GetAppState(c)
	if state == nil {
		return
	}
	var req RescheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		router.RespondWithError(c, http.StatusBadRequest,
			router.NewRequestError(http.StatusBadRequest, "invalid request body", err))
		return
	}
	t, err := uc.NewReschedule(state.Tasks, state.Users, &uc.RescheduleInput{
		TaskID:      taskID,
		PlannedDate: req.PlannedDate,
		ActorID:     req.ActorID,
	}).Execute(c.Request.Context())
	if err != nil {
		respondUCError(c, err)
		return
	}
	router.RespondOK(c, "task rescheduled", t)
}
