package v1

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"prodplan/internal/store"
)

// StatusResponse 系统状态响应
type StatusResponse struct {
	Status           string  `json:"status"`
	Projects         int     `json:"projects"`
	Generations      int     `json:"generations"`
	PendingDownloads int     `json:"pendingDownloads"`
	IncludeDashboard bool    `json:"includeDashboard"` // 默认是否生成看板
	UptimeSeconds    float64 `json:"uptimeSeconds"`
}

// GetStatus 获取系统状态
// GET /api/status
func (h *Handler) GetStatus(c *gin.Context) {
	resp := StatusResponse{
		Status:           "ok",
		PendingDownloads: h.downloads.count(),
		IncludeDashboard: h.generator.Options().IncludeDashboard,
		UptimeSeconds:    time.Since(h.startedAt).Seconds(),
	}
	stats, err := h.store.Stats()
	if err != nil {
		h.log.Warn("read stats failed", "error", err)
		resp.Status = "degraded"
	} else {
		resp.Projects = stats.Projects
		resp.Generations = stats.Generations
	}
	c.JSON(http.StatusOK, resp)
}

// ListGenerations 生成记录
// GET /api/generations?projectId=&limit=
func (h *Handler) ListGenerations(c *gin.Context) {
	q := store.GenerationQuery{ProjectID: c.Query("projectId"), Limit: 100}
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			badRequest(c, "limit 必须为正整数")
			return
		}
		q.Limit = n
	}
	items, err := h.store.ListGenerations(q)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items, "total": len(items)})
}
