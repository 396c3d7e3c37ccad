package handlers

import (
	"errors"
	"net/http"

	"github.com/5inee/predict-battle/internal/services"

	"github.com/gin-gonic/gin"
)

type ErrorResponse struct {
	Error string `json:"error" example:"something went wrong"`
}

type MessageResponse struct {
	Message string `json:"message" example:"operation successful"`
}

// writeServiceError maps service sentinels to HTTP statuses. Unknown
// errors are reported as retryable server errors.
func writeServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrSessionNotFound),
		errors.Is(err, services.ErrUserNotFound),
		errors.Is(err, services.ErrGuestNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: err.Error()})
	case errors.Is(err, services.ErrInvalidSecret):
		c.JSON(http.StatusForbidden, ErrorResponse{Error: err.Error()})
	case errors.Is(err, services.ErrInvalidLogin):
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: err.Error()})
	case errors.Is(err, services.ErrEmptyQuestion),
		errors.Is(err, services.ErrInvalidMaxPlayers),
		errors.Is(err, services.ErrEmptyPrediction),
		errors.Is(err, services.ErrSessionFull),
		errors.Is(err, services.ErrSessionClosed),
		errors.Is(err, services.ErrUsernameTaken):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "server error"})
	}
}
