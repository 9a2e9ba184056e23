package diag

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/injector/errors"
)

// DataResponse is the success envelope.
type DataResponse struct {
	Data any `json:"data"`
}

// RespondWithError renders err. An *errors.AppError anywhere in the chain
// sets the status and body; anything else is a 500.
func RespondWithError(c *gin.Context, err error) {
	if appErr, ok := errors.AsAppError(err); ok {
		c.JSON(errors.StatusOf(appErr), appErr.ToResponse())
		return
	}
	c.JSON(http.StatusInternalServerError, errors.Internal(err).ToResponse())
}

// RespondOK sends a 200 response wrapping data.
func RespondOK(c *gin.Context, data any) {
	c.JSON(http.StatusOK, DataResponse{Data: data})
}
