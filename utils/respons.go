package utils

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sharedtab/tab-engine/apperrors"
)

type JSONResponse struct {
	Status  bool        `json:"status"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func RespondJSON(c *gin.Context, code int, message string, data interface{}) {
	c.JSON(code, JSONResponse{
		Status:  code >= 200 && code < 300,
		Message: message,
		Data:    data,
	})
}

func RespondError(c *gin.Context, code int, err error) {
	c.JSON(code, JSONResponse{
		Status:  false,
		Message: err.Error(),
	})
}

// RespondAppError maps the engine error taxonomy onto HTTP statuses.
func RespondAppError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, apperrors.ErrInvalidInput):
		RespondError(c, http.StatusBadRequest, err)
	case errors.Is(err, apperrors.ErrNotFound):
		RespondError(c, http.StatusNotFound, err)
	case errors.Is(err, apperrors.ErrConflict):
		RespondError(c, http.StatusConflict, err)
	case errors.Is(err, apperrors.ErrNoPermission):
		RespondError(c, http.StatusForbidden, err)
	case errors.Is(err, apperrors.ErrUnavailable):
		RespondError(c, http.StatusServiceUnavailable, err)
	default:
		RespondError(c, http.StatusInternalServerError, err)
	}
}
