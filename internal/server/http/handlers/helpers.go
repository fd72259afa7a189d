package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	domainErrors "github.com/polkiloo/autoorder/internal/domain/errors"
	"github.com/polkiloo/autoorder/internal/server/http/dto"
	"github.com/polkiloo/autoorder/internal/server/http/middleware"
)

// CurrentUserID extracts authenticated user identifier from context.
func CurrentUserID(c *gin.Context) int64 {
	val, ok := c.Get(middleware.UserIDContextKey)
	if !ok {
		return 0
	}
	id, _ := val.(int64)
	return id
}

// statusFor maps domain errors to HTTP statuses.
func statusFor(err error) int {
	var se *domainErrors.SupplierError
	switch {
	case errors.Is(err, domainErrors.ErrMissingOrderID),
		errors.Is(err, domainErrors.ErrEmptyItems),
		errors.Is(err, domainErrors.ErrInvalidAddress),
		errors.Is(err, domainErrors.ErrInvalidItem),
		errors.Is(err, domainErrors.ErrUnsupportedSupplier),
		errors.Is(err, domainErrors.ErrCredentialsMissing),
		errors.Is(err, domainErrors.ErrInvalidCredentials):
		return http.StatusBadRequest
	case errors.Is(err, domainErrors.ErrNotFound),
		errors.Is(err, domainErrors.ErrUnknownSupplierOrder):
		return http.StatusNotFound
	case errors.Is(err, domainErrors.ErrAlreadyQueued),
		errors.Is(err, domainErrors.ErrQueueState):
		return http.StatusConflict
	case errors.As(err, &se):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func abortWithError(c *gin.Context, err error) {
	status := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		msg = http.StatusText(status)
	}
	c.AbortWithStatusJSON(status, dto.ErrorResponse{Success: false, Error: msg})
}
