package httpgin

import (
	"errors"
	"math"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/kirinyoku/park-go/internal/domain"
)

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrDuplicateHold),
		errors.Is(err, domain.ErrCapacityExceeded),
		errors.Is(err, domain.ErrInvalidTransition),
		errors.Is(err, domain.ErrStorageConflict):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// respondErr writes err as {error, code}. Internal failures hide their
// reason; they and invalid transitions are attached to the context so the
// logging middleware reports them.
func respondErr(c *gin.Context, err error) {
	if err == nil {
		c.Status(http.StatusNoContent)
		return
	}

	status := statusFor(err)

	var de *domain.Error
	if errors.As(err, &de) && de.RetryAfter > 0 {
		c.Header("Retry-After", strconv.Itoa(int(math.Ceil(de.RetryAfter.Seconds()))))
	}

	if status == http.StatusInternalServerError || errors.Is(err, domain.ErrInvalidTransition) {
		_ = c.Error(err)
	}

	msg := domain.Reason(err)
	if status == http.StatusInternalServerError {
		msg = "internal error"
	}

	c.AbortWithStatusJSON(status, ErrorResponse{Error: msg, Code: domain.Code(err)})
}

func badRequest(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, ErrorResponse{Error: msg, Code: "validation_error"})
}
