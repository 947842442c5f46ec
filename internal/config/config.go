package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// 环境变量覆盖
const (
	EnvDataDir          = "PRODPLAN_DATA_DIR"
	EnvIncludeDashboard = "PRODPLAN_INCLUDE_DASHBOARD"
)

// AppConfig 应用配置
type AppConfig struct {
	Server   ServerConfig   `toml:"server"`
	Data     DataConfig     `toml:"data"`
	Workbook WorkbookConfig `toml:"workbook"`
	Export   ExportConfig   `toml:"export"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Port    int  `toml:"port"`
	DevMode bool `toml:"dev_mode"`
}

// DataConfig 数据配置
type DataConfig struct {
	DataDir string `toml:"data_dir"`
}

// WorkbookConfig 工作簿生成配置
type WorkbookConfig struct {
	IncludeDashboard   bool    `toml:"include_dashboard"`
	TableStyle         string  `toml:"table_style"`
	DefaultColumnWidth float64 `toml:"default_column_width"`
	DateFormat         string  `toml:"date_format"`
}

// ExportConfig 导出下载配置
type ExportConfig struct {
	DownloadTTLMinutes int `toml:"download_ttl_minutes"`
}

// LoadConfigInfo 配置加载元信息
type LoadConfigInfo struct {
	Path          string
	FileFound     bool
	PortSpecified bool
}

// DefaultConfig 默认配置
func DefaultConfig() *AppConfig {
	return &AppConfig{
		Server: ServerConfig{
			Port:    20261,
			DevMode: false,
		},
		Data: DataConfig{
			DataDir: "data",
		},
		Workbook: WorkbookConfig{
			IncludeDashboard:   true,
			TableStyle:         "TableStyleMedium2",
			DefaultColumnWidth: 14,
			DateFormat:         "yyyy-mm-dd",
		},
		Export: ExportConfig{
			DownloadTTLMinutes: 10,
		},
	}
}

func isPortSpecifiedInToml(data []byte) bool {
	var raw map[string]any
	if err := toml.Unmarshal(data, &raw); err != nil {
		return false
	}

	serverMap, ok := raw["server"].(map[string]any)
	if !ok {
		return false
	}
	_, ok = serverMap["port"]
	return ok
}

// GetExeDir 获取可执行文件所在目录
func GetExeDir() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", err
	}
	return filepath.Dir(exe), nil
}

// DefaultPath 可执行文件同目录下的 config.toml
func DefaultPath() string {
	exeDir, err := GetExeDir()
	if err != nil {
		// 无法获取可执行文件目录，使用当前目录
		exeDir = "."
	}
	return filepath.Join(exeDir, "config.toml")
}

// LoadConfigWithInfo 从可执行文件同目录的 config.toml 加载配置
func LoadConfigWithInfo() (*AppConfig, LoadConfigInfo, error) {
	return LoadFile(DefaultPath())
}

// LoadFile 从指定路径加载配置；文件不存在时使用默认配置，环境变量总是生效
func LoadFile(path string) (*AppConfig, LoadConfigInfo, error) {
	info := LoadConfigInfo{Path: path}
	config := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		info.FileFound = true
		info.PortSpecified = isPortSpecifiedInToml(data)
		if err := toml.Unmarshal(data, config); err != nil {
			return nil, info, fmt.Errorf("parse %s: %w", path, err)
		}
	case os.IsNotExist(err):
		// 配置文件不存在，使用默认配置
	default:
		return nil, info, err
	}

	if err := applyEnv(config); err != nil {
		return nil, info, err
	}
	return config, info, nil
}

// applyEnv 环境变量覆盖（用于容器 / 本地运行）
func applyEnv(config *AppConfig) error {
	if v := strings.TrimSpace(os.Getenv(EnvDataDir)); v != "" {
		config.Data.DataDir = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvIncludeDashboard)); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%s=%q: %w", EnvIncludeDashboard, v, err)
		}
		config.Workbook.IncludeDashboard = b
	}
	return nil
}

// LoadConfig 从 config.toml 加载配置
// 配置文件位于可执行文件同目录下
func LoadConfig() (*AppConfig, error) {
	config, _, err := LoadConfigWithInfo()
	return config, err
}

// SaveConfig 保存配置到指定路径
func SaveConfig(config *AppConfig, path string) error {
	data, err := toml.Marshal(config)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// ResolveDataDir 数据目录：绝对路径原样使用，相对路径相对可执行文件目录
func ResolveDataDir(config *AppConfig) string {
	if filepath.IsAbs(config.Data.DataDir) {
		return config.Data.DataDir
	}
	exeDir, err := GetExeDir()
	if err != nil {
		exeDir = "."
	}
	return filepath.Join(exeDir, config.Data.DataDir)
}

// EnsureDataDir 确保数据目录及导出子目录存在
func EnsureDataDir(config *AppConfig) (string, error) {
	dataDir := ResolveDataDir(config)
	if err := os.MkdirAll(filepath.Join(dataDir, "exports"), 0755); err != nil {
		return "", err
	}
	return dataDir, nil
}

// DatabasePath SQLite 数据库文件
func DatabasePath(dataDir string) string {
	return filepath.Join(dataDir, "prodplan.db")
}

// ExportDir 一次性下载文件的暂存目录
func ExportDir(dataDir string) string {
	return filepath.Join(dataDir, "exports")
}
