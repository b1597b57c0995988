package taskrouter

import (
	"time"

	"github.com/fieldops/dispatch/engine/core"
)

// CreateFromTextRequest is the ingestion payload. Source and Sender tag the
// originating channel for logging.
type CreateFromTextRequest struct {
	Text           string     `json:"text" binding:"required"`
	Source         string     `json:"source"`
	Sender         string     `json:"sender"`
	AssignedUserID *core.ID   `json:"assigned_user_id"`
	Priority       string     `json:"priority"`
	PlannedDate    *time.Time `json:"planned_date"`
}

type ParseRequest struct {
	Text string `json:"text" binding:"required"`
}

type UpdateStatusRequest struct {
	Status  string   `json:"status" binding:"required"`
	Note    string   `json:"note"`
	ActorID *core.ID `json:"actor_id"`
}

type AssignRequest struct {
	AssignedUserID *core.ID `json:"assigned_user_id"`
	ActorID        *core.ID `json:"actor_id"`
}

type RescheduleRequest struct {
	PlannedDate *time.Time `json:"planned_date"`
	ActorID     *core.ID   `json:"actor_id"`
}
