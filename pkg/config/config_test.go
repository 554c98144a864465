package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"

	"github.com/unowned-ai/dermavision/pkg/analysis"
	"github.com/unowned-ai/dermavision/pkg/utils"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, name := range []string{"DERMAVISION_API_KEY", "API_KEY", "GEMINI_API_KEY", "DERMAVISION_MODEL", "DERMAVISION_DB", "DERMAVISION_SYNC", "DERMAVISION_LOG_LEVEL"} {
		t.Setenv(name, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(New())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.APIKey != "" {
		t.Errorf("Expected no API key, got %q", cfg.APIKey)
	}
	if cfg.Model != analysis.DefaultModel {
		t.Errorf("Expected model %s, got %s", analysis.DefaultModel, cfg.Model)
	}
	if cfg.DBPath != utils.GetDefaultDBPathOnly() {
		t.Errorf("Expected default db path, got %s", cfg.DBPath)
	}
	if !cfg.WAL || cfg.Sync != "NORMAL" || cfg.LogLevel != "info" {
		t.Errorf("Unexpected defaults: %+v", cfg)
	}
}

func TestLoadAPIKeyFromEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("GEMINI_API_KEY", "gemini-key")

	cfg, err := Load(New())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.APIKey != "gemini-key" {
		t.Errorf("Expected key from GEMINI_API_KEY, got %q", cfg.APIKey)
	}

	t.Setenv("DERMAVISION_API_KEY", "own-key")
	cfg, err = Load(New())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.APIKey != "own-key" {
		t.Errorf("Expected DERMAVISION_API_KEY to win, got %q", cfg.APIKey)
	}
}

func TestReadFileAndPrecedence(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "model: gemini-2.5-pro\nsync: full\nlog_level: DEBUG\napi_key: file-key\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	v := New()
	if err := ReadFile(v, path); err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	t.Setenv("DERMAVISION_MODEL", "gemini-env")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("log-level", "info", "")
	if err := flags.Parse([]string{"--log-level", "warn"}); err != nil {
		t.Fatalf("Failed to parse flags: %v", err)
	}
	if err := v.BindPFlag(KeyLogLevel, flags.Lookup("log-level")); err != nil {
		t.Fatalf("BindPFlag failed: %v", err)
	}

	cfg, err := Load(v)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Model != "gemini-env" {
		t.Errorf("Expected env to override file, got %s", cfg.Model)
	}
	if cfg.Sync != "FULL" {
		t.Errorf("Expected sync FULL from file, got %s", cfg.Sync)
	}
	if cfg.LogLevel != "warn" {
		t.Errorf("Expected flag to override file, got %s", cfg.LogLevel)
	}
	if cfg.APIKey != "file-key" {
		t.Errorf("Expected API key from file, got %q", cfg.APIKey)
	}
}

func TestReadFileMissingExplicitPath(t *testing.T) {
	v := New()
	if err := ReadFile(v, filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatalf("Expected an error for a missing explicit config file")
	}
}
