package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"prodplan/internal/config"
	"prodplan/internal/server"
	"prodplan/internal/store"
	"prodplan/internal/util"
	"prodplan/internal/workbook"
)

func newServeCmd(a *app) *cobra.Command {
	var (
		port    int
		devMode bool
		dataDir string
		noOpen  bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := a.cfg
			// 命令行参数覆盖配置（config.toml 显式配置的端口优先）
			if port > 0 && !a.info.PortSpecified {
				cfg.Server.Port = port
			}
			if devMode {
				cfg.Server.DevMode = true
			}
			if dataDir != "" {
				cfg.Data.DataDir = dataDir
			}

			dir, err := config.EnsureDataDir(cfg)
			if err != nil {
				return fmt.Errorf("creating data directory: %w", err)
			}
			st, err := store.New(config.DatabasePath(dir))
			if err != nil {
				return fmt.Errorf("opening database: %w", err)
			}
			defer st.Close()

			gen := workbook.NewGenerator(a.generatorOptions())
			srv := server.NewServer(cfg, st, gen, a.logger)

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			addr := fmt.Sprintf(":%d", cfg.Server.Port)
			url := fmt.Sprintf("http://localhost:%d/api/status", cfg.Server.Port)
			errCh := make(chan error, 1)
			go func() {
				a.logger.Info("服务启动", "addr", addr, "data_dir", dir, "dev", cfg.Server.DevMode)
				errCh <- srv.Run(addr)
			}()

			if !cfg.Server.DevMode && !noOpen {
				if err := util.OpenBrowserWithFallback(url); err != nil {
					a.logger.Info("无法自动打开浏览器，请手动访问", "url", url)
				}
			}

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
			}

			a.logger.Info("正在关闭服务...")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	}

	cmd.Flags().IntVar(&port, "port", 0, "服务端口 (config.toml 优先；仅当未显式配置 port 时生效)")
	cmd.Flags().BoolVar(&devMode, "dev", false, "开发模式")
	cmd.Flags().StringVar(&dataDir, "data-dir", "", "数据目录 (覆盖配置文件)")
	cmd.Flags().BoolVar(&noOpen, "no-open", false, "不自动打开浏览器")
	return cmd
}
