package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadFileMissingUsesDefaults(t *testing.T) {
	t.Setenv(EnvDataDir, "")
	t.Setenv(EnvIncludeDashboard, "")

	cfg, info, err := LoadFile(filepath.Join(t.TempDir(), "config.toml"))
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if info.FileFound || info.PortSpecified {
		t.Fatalf("info=%+v", info)
	}
	def := DefaultConfig()
	if *cfg != *def {
		t.Fatalf("cfg=%+v, want defaults %+v", cfg, def)
	}
}

func TestLoadFileOverridesAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[server]
port = 9000

[workbook]
include_dashboard = true
table_style = "TableStyleLight9"

[export]
download_ttl_minutes = 3
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv(EnvDataDir, "/srv/prodplan")
	t.Setenv(EnvIncludeDashboard, "false")

	cfg, info, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if !info.FileFound || !info.PortSpecified {
		t.Fatalf("info=%+v", info)
	}
	if cfg.Server.Port != 9000 || cfg.Workbook.TableStyle != "TableStyleLight9" || cfg.Export.DownloadTTLMinutes != 3 {
		t.Fatalf("cfg=%+v", cfg)
	}
	// 未出现在文件中的字段保持默认
	if cfg.Workbook.DefaultColumnWidth != 14 || cfg.Workbook.DateFormat != "yyyy-mm-dd" {
		t.Fatalf("defaults lost: %+v", cfg.Workbook)
	}
	if cfg.Data.DataDir != "/srv/prodplan" || cfg.Workbook.IncludeDashboard {
		t.Fatalf("env not applied: %+v", cfg)
	}
	if got := ResolveDataDir(cfg); got != "/srv/prodplan" {
		t.Fatalf("ResolveDataDir=%q", got)
	}
}

func TestLoadFileRejectsBadInput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[server\nport = "), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, _, err := LoadFile(path); err == nil {
		t.Fatalf("expected parse error")
	}

	t.Setenv(EnvIncludeDashboard, "sometimes")
	if _, _, err := LoadFile(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Fatalf("expected env parse error")
	}
}

func TestSaveConfigRoundTrip(t *testing.T) {
	t.Setenv(EnvDataDir, "")
	t.Setenv(EnvIncludeDashboard, "")

	path := filepath.Join(t.TempDir(), "config.toml")
	cfg := DefaultConfig()
	cfg.Server.Port = 8088
	cfg.Workbook.IncludeDashboard = false
	if err := SaveConfig(cfg, path); err != nil {
		t.Fatalf("SaveConfig: %v", err)
	}
	loaded, info, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if !info.PortSpecified || *loaded != *cfg {
		t.Fatalf("loaded=%+v, want %+v", loaded, cfg)
	}
}

func TestEnsureDataDir(t *testing.T) {
	dir := t.TempDir()
	cfg := DefaultConfig()
	cfg.Data.DataDir = filepath.Join(dir, "data")
	got, err := EnsureDataDir(cfg)
	if err != nil {
		t.Fatalf("EnsureDataDir: %v", err)
	}
	if fi, err := os.Stat(ExportDir(got)); err != nil || !fi.IsDir() {
		t.Fatalf("exports dir missing: %v", err)
	}
	if DatabasePath(got) != filepath.Join(dir, "data", "prodplan.db") {
		t.Fatalf("DatabasePath=%q", DatabasePath(got))
	}
}
