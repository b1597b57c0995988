package taskrouter

import "github.com/gin-gonic/gin"

// Register mounts the task routes. The ingest middleware (rate limiting)
// guards only the endpoints that accept free-text reports.
func Register(apiBase *gin.RouterGroup, ingest ...gin.HandlerFunc) {
	chain := func(h gin.HandlerFunc) []gin.HandlerFunc {
		out := make([]gin.HandlerFunc, 0, len(ingest)+1)
		out = append(out, ingest...)
		return append(out, h)
	}
	tasksGroup := apiBase.Group("/tasks")
	{
		// POST /api/v0/tasks/from-text
		// Ingest a free-text problem report
		tasksGroup.POST("/from-text", chain(createFromText)...)

		// POST /api/v0/tasks/parse
		// Preview the parse result without persisting
		tasksGroup.POST("/parse", chain(parseMessage)...)

		// GET /api/v0/tasks
		// List tasks, filterable by status and assignee
		tasksGroup.GET("", listTasks)

		// GET /api/v0/tasks/:task_id
		// Get a single task
		tasksGroup.GET("/:task_id", getTask)

		// GET /api/v0/tasks/:task_id/transitions
		// Get the audit trail
		tasksGroup.GET("/:task_id/transitions", getTransitions)

		// PATCH /api/v0/tasks/:task_id/status
		// Change the lifecycle status
		tasksGroup.PATCH("/:task_id/status", updateStatus)

		// PATCH /api/v0/tasks/:task_id/assign
		// Change or clear the assignee
		tasksGroup.PATCH("/:task_id/assign", assignTask)

		// PATCH /api/v0/tasks/:task_id/reschedule
		// Set or clear the planned date
		tasksGroup.PATCH("/:task_id/reschedule", rescheduleTask)
	}
}
