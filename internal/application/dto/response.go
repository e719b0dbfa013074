package dto

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/crowdlens/crowdlens/pkg/errors"
)

// ErrorBody is the uniform error payload of the API.
type ErrorBody struct {
	Error   string                 `json:"error"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// ErrorResponse converts any error into its API payload.
func ErrorResponse(err error) ErrorBody {
	if appErr, ok := errors.AsAppError(err); ok {
		return ErrorBody{
			Error:   string(appErr.Code()),
			Message: appErr.Message,
			Details: appErr.Details,
		}
	}
	return ErrorBody{
		Error:   string(errors.CodeInternal),
		Message: err.Error(),
	}
}

// SendError writes the error payload with the status derived from the error
// code. Unclassified errors map to 500.
func SendError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	if appErr, ok := errors.AsAppError(err); ok {
		status = appErr.HTTPStatus()
	}
	c.JSON(status, ErrorResponse(err))
}
