package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"prodplan/internal/config"
	"prodplan/internal/workbook"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// app 命令间共享的配置与日志
type app struct {
	configPath string
	logLevel   string

	cfg    *config.AppConfig
	info   config.LoadConfigInfo
	logger *slog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "prodplan",
		Short:         "Production plan workbook generator",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init(cmd.ErrOrStderr())
		},
	}
	root.PersistentFlags().StringVar(&a.configPath, "config", "", "配置文件路径 (默认: 可执行文件同目录 config.toml)")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "info", "日志级别: debug|info|warn|error")

	root.AddCommand(
		newServeCmd(a),
		newGenerateCmd(a),
	)
	return root
}

func (a *app) init(logOut io.Writer) error {
	level, err := parseLevel(a.logLevel)
	if err != nil {
		return err
	}
	a.logger = slog.New(slog.NewTextHandler(logOut, &slog.HandlerOptions{Level: level}))

	path := a.configPath
	if path == "" {
		path = config.DefaultPath()
	}
	cfg, info, err := config.LoadFile(path)
	if err != nil {
		if a.configPath != "" {
			return fmt.Errorf("loading config: %w", err)
		}
		a.logger.Warn("加载配置失败，使用默认配置", "path", path, "error", err)
		cfg, info = config.DefaultConfig(), config.LoadConfigInfo{Path: path}
	}
	a.cfg, a.info = cfg, info
	a.logger.Debug("config loaded", "path", info.Path, "found", info.FileFound)
	return nil
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return 0, fmt.Errorf("invalid --log-level %q", s)
	}
	return level, nil
}

// generatorOptions 由 [workbook] 配置构造生成选项
func (a *app) generatorOptions() workbook.Options {
	w := a.cfg.Workbook
	return workbook.Options{
		IncludeDashboard:   w.IncludeDashboard,
		TableStyle:         w.TableStyle,
		DefaultColumnWidth: w.DefaultColumnWidth,
		DateFormat:         w.DateFormat,
		Logger:             a.logger,
	}
}
