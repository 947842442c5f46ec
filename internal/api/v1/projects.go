package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"prodplan/internal/model"
)

// ListProjects 项目列表
// GET /api/projects
func (h *Handler) ListProjects(c *gin.Context) {
	items, err := h.store.ListProjects()
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items, "total": len(items)})
}

// SaveProject 新建（POST）或覆盖（PUT /:id）项目定义
// POST /api/projects
// PUT /api/projects/:id
func (h *Handler) SaveProject(c *gin.Context) {
	var def model.ProjectData
	if err := c.ShouldBindJSON(&def); err != nil {
		badRequest(c, "请求格式错误: "+err.Error())
		return
	}
	if err := def.Validate(); err != nil {
		h.fail(c, err)
		return
	}

	id := c.Param("id")
	if id != "" {
		if _, err := h.store.GetProject(id); err != nil {
			h.fail(c, err)
			return
		}
	}
	rec, err := h.store.SaveProject(&def, id)
	if err != nil {
		h.fail(c, err)
		return
	}

	status := http.StatusOK
	if id == "" {
		status = http.StatusCreated
	}
	c.JSON(status, rec)
}

// GetProject 项目详情
// GET /api/projects/:id
func (h *Handler) GetProject(c *gin.Context) {
	rec, err := h.store.GetProject(c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

// DeleteProject 删除项目
// DELETE /api/projects/:id
func (h *Handler) DeleteProject(c *gin.Context) {
	if err := h.store.DeleteProject(c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// projectGenerateRequest 对已保存项目生成时的可选参数
type projectGenerateRequest struct {
	UploadedActuals  []model.ActualDataItem `json:"uploadedActuals,omitempty"`
	IncludeDashboard *bool                  `json:"includeDashboard,omitempty"`
}

// GenerateProject 用已保存的定义生成 xlsx
// POST /api/projects/:id/generate
func (h *Handler) GenerateProject(c *gin.Context) {
	var req projectGenerateRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "请求格式错误: "+err.Error())
			return
		}
	}

	rec, err := h.store.GetProject(c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	res, err := h.run(h.generatorFor(req.IncludeDashboard), rec.ID, mergedProject(rec.Definition, req.UploadedActuals))
	if err != nil {
		h.fail(c, err)
		return
	}
	writeWorkbook(c, res)
}
