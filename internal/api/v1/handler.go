package v1

import (
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/gin-gonic/gin"

	"prodplan/internal/store"
	"prodplan/internal/workbook"
)

// Options 处理器选项
type Options struct {
	// ExportDir 一次性下载文件暂存目录，空则使用系统临时目录
	ExportDir   string
	DownloadTTL time.Duration
	Logger      *slog.Logger
}

// Handler V1 API 处理器
type Handler struct {
	store     *store.Store
	generator *workbook.Generator
	downloads *downloadStore
	exportDir string
	ttl       time.Duration
	log       *slog.Logger
	startedAt time.Time
}

// NewHandler 创建 V1 API 处理器
func NewHandler(st *store.Store, gen *workbook.Generator, opts Options) *Handler {
	if opts.ExportDir == "" {
		opts.ExportDir = os.TempDir()
	}
	if opts.DownloadTTL <= 0 {
		opts.DownloadTTL = 10 * time.Minute
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Handler{
		store:     st,
		generator: gen,
		downloads: newDownloadStore(),
		exportDir: opts.ExportDir,
		ttl:       opts.DownloadTTL,
		log:       opts.Logger,
		startedAt: time.Now(),
	}
}

// RegisterRoutes 注册 V1 API 路由
func (h *Handler) RegisterRoutes(router *gin.RouterGroup) {
	// 系统状态
	router.GET("/status", h.GetStatus)

	// 计划生成
	router.POST("/plans/generate", h.GeneratePlan)
	router.POST("/plans/preview", h.PreviewPlan)
	router.POST("/plans/export", h.ExportPlan)
	router.POST("/plans/export/stream", h.ExportPlanStream)
	router.GET("/plans/download/:token", h.DownloadPlan)

	// 项目管理
	router.GET("/projects", h.ListProjects)
	router.POST("/projects", h.SaveProject)
	router.GET("/projects/:id", h.GetProject)
	router.PUT("/projects/:id", h.SaveProject)
	router.DELETE("/projects/:id", h.DeleteProject)
	router.POST("/projects/:id/generate", h.GenerateProject)

	// 生成记录
	router.GET("/generations", h.ListGenerations)
}

// Close 清理未被下载的暂存文件
func (h *Handler) Close() {
	h.downloads.purgeAll()
}
