package v1

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"prodplan/internal/model"
	"prodplan/internal/schedule"
	"prodplan/internal/store"
)

// statusFor 输入错误 400，记录不存在 404，其余 500
func statusFor(err error) int {
	var (
		valErr   *model.ValidationError
		rangeErr *schedule.RangeError
	)
	switch {
	case errors.As(err, &valErr), errors.As(err, &rangeErr):
		return http.StatusBadRequest
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) fail(c *gin.Context, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.log.Error("request failed", "path", c.FullPath(), "error", err)
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": msg})
}
