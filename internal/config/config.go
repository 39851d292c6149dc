// Package config provides configuration management for the codelane CLI.
// It handles loading and parsing the YAML configuration file and provides
// structured access to application settings including the codelane home
// directory, credential file location, sessions directory, proxy
// configuration, and logging behavior.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultHomeDirName is the per-user directory holding all codelane state.
const DefaultHomeDirName = ".codelane"

// Config represents the application's configuration, loaded from a YAML file.
type Config struct {
	// Home is the resolved codelane home directory. It is derived at load
	// time and never read from the file itself.
	Home string `yaml:"-"`

	// AuthFile is the path of the persisted credential file. Relative paths
	// are resolved against Home. Defaults to "<home>/auth.json".
	AuthFile string `yaml:"auth-file,omitempty"`

	// SessionsDir is the root directory holding recorded session rollout
	// files. Defaults to "<home>/sessions".
	SessionsDir string `yaml:"sessions-dir,omitempty"`

	// ProxyURL is the URL of an optional proxy server to use for outbound
	// requests (http, https, or socks5).
	ProxyURL string `yaml:"proxy-url,omitempty"`

	// HelperPath overrides the location of the login helper binary. When
	// empty the helper is looked up next to the CLI executable.
	HelperPath string `yaml:"helper-path,omitempty"`

	// HelperTimeoutSeconds bounds how long a login attempt waits for the
	// interactive helper. <= 0 disables the timeout.
	HelperTimeoutSeconds int `yaml:"helper-timeout-seconds,omitempty"`

	// LoggingToFile switches log output from stdout to a rotating file under
	// "<home>/logs".
	LoggingToFile bool `yaml:"logging-to-file,omitempty"`

	// Debug enables debug-level logging.
	Debug bool `yaml:"debug,omitempty"`
}

// DefaultHome returns the default codelane home directory for the current user.
func DefaultHome() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("config: resolve user home: %w", err)
	}
	return filepath.Join(home, DefaultHomeDirName), nil
}

// LoadConfig reads the configuration from the given path. A missing file is
// not an error; defaults are applied in that case. An empty path loads
// "<default home>/config.yaml".
func LoadConfig(configFile string) (*Config, error) {
	cfg := &Config{}

	if strings.TrimSpace(configFile) == "" {
		home, err := DefaultHome()
		if err != nil {
			return nil, err
		}
		cfg.Home = home
		configFile = filepath.Join(home, "config.yaml")
	} else {
		cfg.Home = filepath.Dir(configFile)
	}

	data, err := os.ReadFile(configFile)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("config: read %s: %w", configFile, err)
		}
	} else if err = yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", configFile, err)
	}

	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.AuthFile == "" {
		c.AuthFile = "auth.json"
	}
	if !filepath.IsAbs(c.AuthFile) {
		c.AuthFile = filepath.Join(c.Home, c.AuthFile)
	}
	if c.SessionsDir == "" {
		c.SessionsDir = "sessions"
	}
	if !filepath.IsAbs(c.SessionsDir) {
		c.SessionsDir = filepath.Join(c.Home, c.SessionsDir)
	}
}

// LogDir returns the directory used for application logs.
func (c *Config) LogDir() string {
	return filepath.Join(c.Home, "logs")
}
