package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	v1 "prodplan/internal/api/v1"
	"prodplan/internal/config"
	"prodplan/internal/store"
	"prodplan/internal/workbook"
)

// Server HTTP服务器
type Server struct {
	router *gin.Engine
	store  *store.Store
	v1     *v1.Handler
	log    *slog.Logger

	mu   sync.Mutex
	http *http.Server
}

// NewServer 创建服务器；store 与 generator 由调用方创建并负责关闭 store
func NewServer(cfg *config.AppConfig, st *store.Store, gen *workbook.Generator, logger *slog.Logger) *Server {
	devMode := cfg.Server.DevMode
	if !devMode {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	if devMode {
		router.Use(gin.Logger())
	} else {
		router.Use(requestLogger(logger))
	}

	v1Handler := v1.NewHandler(st, gen, v1.Options{
		ExportDir:   config.ExportDir(config.ResolveDataDir(cfg)),
		DownloadTTL: time.Duration(cfg.Export.DownloadTTLMinutes) * time.Minute,
		Logger:      logger,
	})

	s := &Server{
		router: router,
		store:  st,
		v1:     v1Handler,
		log:    logger,
	}
	s.setupRoutes()
	return s
}

// setupRoutes 设置路由
func (s *Server) setupRoutes() {
	// CORS
	s.router.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")
		c.Header("Access-Control-Expose-Headers", "Content-Disposition, X-Plan-Rows")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	})

	// /api 与 /api/v1 挂同一组路由
	s.v1.RegisterRoutes(s.router.Group("/api"))
	s.v1.RegisterRoutes(s.router.Group("/api/v1"))

	s.router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"service": "prodplan", "api": "/api"})
	})
	s.router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	})
}

// requestLogger 非开发模式下用 slog 输出访问日志
func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		level := slog.LevelInfo
		if c.Writer.Status() >= http.StatusInternalServerError {
			level = slog.LevelError
		}
		logger.Log(c.Request.Context(), level, "http request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"bytes", c.Writer.Size(),
			"elapsed", time.Since(start))
	}
}

// Handler 返回 http.Handler（用于测试）
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run 启动服务器，Shutdown 后返回 nil
func (s *Server) Run(addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.mu.Lock()
	s.http = srv
	s.mu.Unlock()
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown 优雅关闭并清理未下载的导出文件
func (s *Server) Shutdown(ctx context.Context) error {
	defer s.v1.Close()
	s.mu.Lock()
	srv := s.http
	s.mu.Unlock()
	if srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}

// GetStore 获取存储（用于测试）
func (s *Server) GetStore() *store.Store {
	return s.store
}
