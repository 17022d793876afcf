package http

import (
	"errors"
	"net/http"

	"github.com/EmanElbedwihy/OMS/internal/entity"
	"github.com/EmanElbedwihy/OMS/internal/logging"
	"github.com/gin-gonic/gin"
)

type errorResp struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// writeError maps a domain error kind to its status code. Anything else is a
// 500 whose cause is logged, not returned.
func writeError(c *gin.Context, err error) {
	status, code := http.StatusInternalServerError, "internal_error"
	switch {
	case errors.Is(err, entity.ErrNotFound):
		status, code = http.StatusNotFound, "not_found"
	case errors.Is(err, entity.ErrConflict):
		status, code = http.StatusConflict, "conflict"
	case errors.Is(err, entity.ErrGone):
		status, code = http.StatusGone, "gone"
	case errors.Is(err, entity.ErrValidation):
		status, code = http.StatusBadRequest, "validation_failed"
	}

	if status == http.StatusInternalServerError {
		_ = c.Error(err)
		logging.From(c).Error("request failed", "err", err)
		c.AbortWithStatusJSON(status, errorResp{Error: code, Message: "internal server error"})
		return
	}
	c.AbortWithStatusJSON(status, errorResp{Error: code, Message: err.Error()})
}

func badRequest(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, errorResp{Error: "validation_failed", Message: msg})
}
