package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fieldops/dispatch/engine/infra/server/appstate"
)

// Response is the standard envelope for every JSON reply.
type Response struct {
	Success bool       `json:"success"`
	Message string     `json:"message,omitempty"`
	Data    any        `json:"data,omitempty"`
	Error   *ErrorInfo `json:"error,omitempty"`
}

func RespondOK(c *gin.Context, message string, data any) {
	c.JSON(http.StatusOK, Response{Success: true, Message: message, Data: data})
}

func RespondCreated(c *gin.Context, message string, data any) {
	c.JSON(http.StatusCreated, Response{Success: true, Message: message, Data: data})
}

func RespondWithError(c *gin.Context, statusCode int, reqErr *RequestError) {
	c.AbortWithStatusJSON(statusCode, Response{Success: false, Error: reqErr.GetErrorInfo()})
}

// GetAppState pulls the application state out of the request context and
// fails the request when the middleware did not run.
func GetAppState(c *gin.Context) *appstate.State {
	state, err := appstate.GetState(c.Request.Context())
	if err != nil {
		RespondWithError(c, http.StatusInternalServerError,
			NewRequestError(http.StatusInternalServerError, ErrMsgAppStateNotInitialized, err))
		return nil
	}
	return state
}
