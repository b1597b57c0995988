package appstate

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"

	"github.com/fieldops/dispatch/engine/notification"
	"github.com/fieldops/dispatch/engine/task"
	"github.com/fieldops/dispatch/engine/task/uc"
	"github.com/fieldops/dispatch/engine/user"
	"github.com/fieldops/dispatch/pkg/config"
)

type contextKey string

const stateKey contextKey = "app_state"

// State carries the wired collaborators that request handlers need. It is
// attached to every request context by the server middleware.
type State struct {
	Config   *config.Config
	Tasks    task.Repository
	Users    user.Repository
	Geocoder uc.Geocoder
	Notifier notification.Dispatcher
}

func NewState(
	cfg *config.Config,
	tasks task.Repository,
	users user.Repository,
	geocoder uc.Geocoder,
	notifier notification.Dispatcher,
) (*State, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if tasks == nil {
		return nil, fmt.Errorf("task repository is required")
	}
	if geocoder == nil {
		return nil, fmt.Errorf("geocoder is required")
	}
	if notifier == nil {
		notifier = notification.LogDispatcher{}
	}
	return &State{
		Config:   cfg,
		Tasks:    tasks,
		Users:    users,
		Geocoder: geocoder,
		Notifier: notifier,
	}, nil
}

func WithState(ctx context.Context, state *State) context.Context {
	return context.WithValue(ctx, stateKey, state)
}

func GetState(ctx context.Context) (*State, error) {
	state, ok := ctx.Value(stateKey).(*State)
	if !ok {
		return nil, fmt.Errorf("app state not found in context")
	}
	return state, nil
}

// StateMiddleware attaches the state to every request context.
func StateMiddleware(state *State) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request = c.Request.WithContext(WithState(c.Request.Context(), state))
		c.Next()
	}
}
