package response

import (
	"context"
	"errors"
	"net/http"

	"orderpay/internal/gateway"
	"orderpay/internal/infrastructure/lock"
	"orderpay/internal/repository"
	"orderpay/internal/service"

	"github.com/gin-gonic/gin"
)

// ErrorBody is the JSON shape of every non-2xx response.
type ErrorBody struct {
	Error string `json:"error"`
}

func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, data)
}

func Error(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, ErrorBody{Error: message})
}

func ParamError(c *gin.Context, message string) {
	Error(c, http.StatusBadRequest, message)
}

func ServerError(c *gin.Context, message string) {
	Error(c, http.StatusInternalServerError, message)
}

// FromError writes the status matching err's class.
func FromError(c *gin.Context, err error) {
	status, message := Classify(err)
	Error(c, status, message)
}

// Classify maps a service error to an HTTP status and a client-safe message.
func Classify(err error) (int, string) {
	var apiErr *gateway.APIError

	switch {
	case errors.Is(err, service.ErrInvalidInput):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, repository.ErrOrderNotFound):
		return http.StatusNotFound, "order not found"
	case errors.Is(err, lock.ErrLockFailed),
		errors.Is(err, repository.ErrOrderStatusInvalid),
		errors.Is(err, repository.ErrDuplicateOrder):
		return http.StatusConflict, err.Error()
	case errors.Is(err, gateway.ErrTimeout):
		return http.StatusGatewayTimeout, "payment gateway timed out, please retry"
	case errors.As(err, &apiErr):
		return http.StatusBadGateway, "payment gateway rejected the request"
	case errors.Is(err, service.ErrGatewayUnavailable):
		return http.StatusBadGateway, "payment gateway unavailable"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "request timed out"
	default:
		return http.StatusInternalServerError, "internal server error"
	}
}
