package v1

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"prodplan/internal/model"
	"prodplan/internal/schedule"
	"prodplan/internal/store"
	"prodplan/internal/workbook"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// GenerateRequest 生成请求：规划器输出 + 上传解析出的实际数据
type GenerateRequest struct {
	Project          *model.ProjectData     `json:"project"`
	UploadedActuals  []model.ActualDataItem `json:"uploadedActuals,omitempty"`
	IncludeDashboard *bool                  `json:"includeDashboard,omitempty"`
}

// mergedProject 返回合并上传数据后的项目副本（不修改请求中的项目）
func mergedProject(p *model.ProjectData, uploaded []model.ActualDataItem) *model.ProjectData {
	cp := *p
	cp.ActualData = schedule.MergeActuals(p.ActualData, uploaded)
	return &cp
}

func (h *Handler) generatorFor(include *bool) *workbook.Generator {
	if include == nil {
		return h.generator
	}
	return h.generator.WithDashboard(*include)
}

func bindGenerateRequest(c *gin.Context) (*GenerateRequest, bool) {
	var req GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "请求格式错误: "+err.Error())
		return nil, false
	}
	if req.Project == nil {
		badRequest(c, "缺少 project")
		return nil, false
	}
	return &req, true
}

// run 生成并记录结果
func (h *Handler) run(gen *workbook.Generator, projectID string, p *model.ProjectData) (*workbook.Result, error) {
	res, err := gen.Generate(p)
	var rec *store.GenerationRecord
	if err != nil {
		rec = store.FailedGeneration(projectID, p.Name, err)
	} else {
		rec = store.SucceededGeneration(projectID, res.Summary)
	}
	if recErr := h.store.CreateGeneration(rec); recErr != nil {
		h.log.Warn("record generation failed", "project", p.Name, "error", recErr)
	}
	return res, err
}

// contentDisposition 附件头，非 ASCII 文件名走 filename*
func contentDisposition(fileName string) string {
	ascii := strings.Map(func(r rune) rune {
		if r > 0x7e || r < 0x20 || r == '"' || r == '\\' {
			return '_'
		}
		return r
	}, fileName)
	return fmt.Sprintf("attachment; filename=\"%s\"; filename*=UTF-8''%s", ascii, url.PathEscape(fileName))
}

func writeWorkbook(c *gin.Context, res *workbook.Result) {
	c.Header("Content-Disposition", contentDisposition(res.FileName))
	c.Header("X-Plan-Rows", fmt.Sprint(res.Summary.Rows))
	c.Data(http.StatusOK, xlsxContentType, res.Data)
}

// GeneratePlan 直接返回 xlsx
// POST /api/plans/generate
func (h *Handler) GeneratePlan(c *gin.Context) {
	req, ok := bindGenerateRequest(c)
	if !ok {
		return
	}
	res, err := h.run(h.generatorFor(req.IncludeDashboard), "", mergedProject(req.Project, req.UploadedActuals))
	if err != nil {
		h.fail(c, err)
		return
	}
	writeWorkbook(c, res)
}

// PreviewItem 排程预览行
type PreviewItem struct {
	Date   string         `json:"date"`
	Name   string         `json:"name"`
	Actual *float64       `json:"actual"`
	Target float64        `json:"target"`
	Values map[string]any `json:"values,omitempty"`
}

// PreviewResponse 排程预览
type PreviewResponse struct {
	Days           int           `json:"days"`
	Resources      int           `json:"resources"`
	Rows           int           `json:"rows"`
	Weeks          []int         `json:"weeks"`
	Goal           float64       `json:"goal"`
	TargetTotal    float64       `json:"targetTotal"`
	MatchedActuals int           `json:"matchedActuals"`
	Items          []PreviewItem `json:"items"`
}

// PreviewPlan 只展开排程与目标，不生成工作簿
// POST /api/plans/preview
func (h *Handler) PreviewPlan(c *gin.Context) {
	req, ok := bindGenerateRequest(c)
	if !ok {
		return
	}
	p := mergedProject(req.Project, req.UploadedActuals)
	if err := p.Validate(); err != nil {
		h.fail(c, err)
		return
	}
	from, to, err := schedule.ParseRange(p.StartDate, p.EndDate)
	if err != nil {
		h.fail(c, err)
		return
	}
	items, err := schedule.Expand(p)
	if err != nil {
		h.fail(c, err)
		return
	}
	schedule.Distribute(items, p.Goal)

	resp := PreviewResponse{
		Days:           len(schedule.Days(from, to)),
		Resources:      len(p.Resources),
		Rows:           len(items),
		Weeks:          schedule.ISOWeeks(items),
		Goal:           p.Goal,
		TargetTotal:    schedule.TargetTotal(items),
		MatchedActuals: schedule.CountMatched(items),
		Items:          make([]PreviewItem, 0, len(items)),
	}
	if resp.Weeks == nil {
		resp.Weeks = []int{}
	}
	for _, it := range items {
		resp.Items = append(resp.Items, PreviewItem{
			Date:   it.Date.Format("2006-01-02"),
			Name:   it.Name,
			Actual: it.Actual,
			Target: it.Target,
			Values: it.Values,
		})
	}
	c.JSON(http.StatusOK, resp)
}

// ExportResponse 导出结果（下载地址一次有效）
type ExportResponse struct {
	DownloadURL string                  `json:"downloadUrl"`
	FileName    string                  `json:"fileName"`
	ExpiresAt   time.Time               `json:"expiresAt"`
	Summary     model.GenerationSummary `json:"summary"`
}

// stage 生成结果写入暂存目录并签发下载令牌
func (h *Handler) stage(c *gin.Context, res *workbook.Result) (*ExportResponse, error) {
	if err := os.MkdirAll(h.exportDir, 0755); err != nil {
		return nil, fmt.Errorf("create export dir: %w", err)
	}
	tmp, err := os.CreateTemp(h.exportDir, "prodplan_export_*.xlsx")
	if err != nil {
		return nil, fmt.Errorf("create export file: %w", err)
	}
	if _, err := tmp.Write(res.Data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return nil, fmt.Errorf("write export file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return nil, fmt.Errorf("write export file: %w", err)
	}

	token, expiresAt := h.downloads.put(filepath.Clean(tmp.Name()), res.FileName, h.ttl)
	return &ExportResponse{
		DownloadURL: downloadPrefix(c) + "/plans/download/" + token,
		FileName:    res.FileName,
		ExpiresAt:   expiresAt,
		Summary:     res.Summary,
	}, nil
}

func downloadPrefix(c *gin.Context) string {
	if strings.HasPrefix(c.Request.URL.Path, "/api/v1/") {
		return "/api/v1"
	}
	return "/api"
}

// ExportPlan 生成后返回一次性下载地址
// POST /api/plans/export
func (h *Handler) ExportPlan(c *gin.Context) {
	req, ok := bindGenerateRequest(c)
	if !ok {
		return
	}
	res, err := h.run(h.generatorFor(req.IncludeDashboard), "", mergedProject(req.Project, req.UploadedActuals))
	if err != nil {
		h.fail(c, err)
		return
	}
	resp, err := h.stage(c, res)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

type exportProgressEvent struct {
	Type      string    `json:"type"`
	Message   string    `json:"message"`
	Data      any       `json:"data"`
	Timestamp time.Time `json:"timestamp"`
}

// ExportPlanStream 导出（SSE 进度 + 完成后提供下载地址）
// POST /api/plans/export/stream
func (h *Handler) ExportPlanStream(c *gin.Context) {
	req, ok := bindGenerateRequest(c)
	if !ok {
		return
	}

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "不支持流式响应"})
		return
	}
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)

	send := func(typ, msg string, data any) {
		b, err := json.Marshal(exportProgressEvent{Type: typ, Message: msg, Data: data, Timestamp: time.Now()})
		if err != nil {
			return
		}
		fmt.Fprintf(c.Writer, "data: %s\n\n", b)
		flusher.Flush()
	}

	p := mergedProject(req.Project, req.UploadedActuals)
	send("start", "开始生成", map[string]any{"project": p.Name})

	gen := h.generatorFor(req.IncludeDashboard).WithProgress(func(pr workbook.Progress) {
		send("progress", pr.Stage, map[string]any{"percent": pr.Percent})
	})
	res, err := h.run(gen, "", p)
	if err != nil {
		send("error", "生成失败: "+err.Error(), map[string]any{"status": statusFor(err)})
		return
	}
	resp, err := h.stage(c, res)
	if err != nil {
		send("error", "写入导出文件失败: "+err.Error(), map[string]any{})
		return
	}
	send("done", "生成完成", resp)
}

// DownloadPlan 下载导出的文件（一次性）
// GET /api/plans/download/:token
func (h *Handler) DownloadPlan(c *gin.Context) {
	token := c.Param("token")
	if token == "" {
		badRequest(c, "缺少 token")
		return
	}
	item, ok := h.downloads.take(token)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "下载链接已失效"})
		return
	}
	defer func() { _ = os.Remove(item.filePath) }()

	data, err := os.ReadFile(item.filePath)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "导出文件不存在"})
		return
	}
	c.Header("Content-Disposition", contentDisposition(item.fileName))
	c.Data(http.StatusOK, xlsxContentType, data)
}
