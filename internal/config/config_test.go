package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfigMissingFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	cfg, err := LoadConfig(filepath.Join(dir, "config.yaml"))
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.Home != dir {
		t.Errorf("Home = %q, want %q", cfg.Home, dir)
	}
	if want := filepath.Join(dir, "auth.json"); cfg.AuthFile != want {
		t.Errorf("AuthFile = %q, want %q", cfg.AuthFile, want)
	}
	if want := filepath.Join(dir, "sessions"); cfg.SessionsDir != want {
		t.Errorf("SessionsDir = %q, want %q", cfg.SessionsDir, want)
	}
	if cfg.HelperTimeoutSeconds != 0 {
		t.Errorf("HelperTimeoutSeconds = %d, want 0", cfg.HelperTimeoutSeconds)
	}
}

func TestLoadConfigFromFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
auth-file: creds/auth.json
sessions-dir: /var/lib/codelane/sessions
proxy-url: socks5://127.0.0.1:1080
helper-path: /opt/codelane/codelane-helper
helper-timeout-seconds: 300
logging-to-file: true
debug: true
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if want := filepath.Join(dir, "creds", "auth.json"); cfg.AuthFile != want {
		t.Errorf("AuthFile = %q, want relative path resolved to %q", cfg.AuthFile, want)
	}
	if cfg.SessionsDir != "/var/lib/codelane/sessions" {
		t.Errorf("SessionsDir = %q, want absolute path kept", cfg.SessionsDir)
	}
	if cfg.ProxyURL != "socks5://127.0.0.1:1080" {
		t.Errorf("ProxyURL = %q", cfg.ProxyURL)
	}
	if cfg.HelperPath != "/opt/codelane/codelane-helper" {
		t.Errorf("HelperPath = %q", cfg.HelperPath)
	}
	if cfg.HelperTimeoutSeconds != 300 {
		t.Errorf("HelperTimeoutSeconds = %d, want 300", cfg.HelperTimeoutSeconds)
	}
	if !cfg.LoggingToFile || !cfg.Debug {
		t.Errorf("LoggingToFile/Debug = %v/%v, want both true", cfg.LoggingToFile, cfg.Debug)
	}
}

func TestLoadConfigInvalidYAML(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("helper-timeout-seconds: [not, a, number]\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := LoadConfig(path); err == nil {
		t.Fatal("LoadConfig() succeeded on invalid YAML")
	}
}

func TestLogDir(t *testing.T) {
	t.Parallel()

	cfg := &Config{Home: "/home/u/.codelane"}
	if want := filepath.Join("/home/u/.codelane", "logs"); cfg.LogDir() != want {
		t.Errorf("LogDir() = %q, want %q", cfg.LogDir(), want)
	}
}
