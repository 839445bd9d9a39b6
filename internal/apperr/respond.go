package apperr

import (
	"errors"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/aura-elections/backend/pkg/response"
)

// Respond writes the response envelope matching err's class.
// Store failures are logged and answered with a generic message.
func Respond(c *gin.Context, logger *zap.Logger, err error) {
	switch {
	case IsValidation(err):
		response.BadRequest(c, err.Error())
	case errors.Is(err, ErrNotFound):
		response.NotFound(c, err.Error())
	case errors.Is(err, ErrDuplicateVote), errors.Is(err, ErrConflict):
		response.Conflict(c, err.Error())
	case errors.Is(err, ErrForbidden):
		response.Forbidden(c, err.Error())
	default:
		if logger != nil {
			logger.Error("request failed",
				zap.String("path", c.FullPath()),
				zap.Error(err),
			)
		}
		response.Internal(c, "internal error")
	}
}
