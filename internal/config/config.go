// Package config handles the ~/.todochimp data directory and config.yaml.
// File values are the baseline; CHIMP_* environment variables win over them
// so tokens never have to live on disk.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	// DataDirName is the directory created under the user's home.
	DataDirName = ".todochimp"

	defaultAPIBaseURL = "http://localhost:5000"
	defaultPageSize   = 20
)

const defaultConfigYAML = `# todochimp client configuration
version: 1

api:
  base_url: http://localhost:5000

ai:
  base_url: ""
  # api_key is usually supplied via CHIMP_AI_KEY instead of this file.
  api_key: ""

dashboard:
  page_size: 20
`

// APIConfig points the client at the TodoChimp backend.
type APIConfig struct {
	BaseURL string `yaml:"base_url"`
}

// AIConfig points the description generator at the AI call service.
type AIConfig struct {
	BaseURL string `yaml:"base_url"`
	APIKey  string `yaml:"api_key,omitempty"`
}

// DashboardConfig captures task-list preferences.
type DashboardConfig struct {
	PageSize int `yaml:"page_size"`
}

// FileConfig models config.yaml.
type FileConfig struct {
	Version   int             `yaml:"version"`
	API       APIConfig       `yaml:"api"`
	AI        AIConfig        `yaml:"ai"`
	Dashboard DashboardConfig `yaml:"dashboard"`
}

// Config holds the resolved runtime configuration.
type Config struct {
	// DataDir is where the client keeps config.yaml, logs/ and state.db.
	DataDir string

	File FileConfig
}

// InitDataDir creates the data directory structure. Called once at startup.
func InitDataDir(dataDir string) error {
	dirs := []string{
		filepath.Join(dataDir, "logs"),
		filepath.Join(dataDir, "state"),
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return ensureConfigFile(filepath.Join(dataDir, "config.yaml"))
}

// DefaultDataDir resolves the data directory: CHIMP_HOME when set, otherwise
// ~/.todochimp.
func DefaultDataDir() (string, error) {
	if dir := strings.TrimSpace(os.Getenv("CHIMP_HOME")); dir != "" {
		return filepath.Clean(dir), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("config: resolve home dir: %w", err)
	}
	return filepath.Join(home, DataDirName), nil
}

// New loads configuration for the given data directory.
func New(dataDir string) (*Config, error) {
	cfg := &Config{
		DataDir: dataDir,
		File:    defaultFileConfig(),
	}
	if err := cfg.loadFile(); err != nil {
		return nil, err
	}
	cfg.applyEnv()
	if err := cfg.File.validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

// APIBaseURL returns the backend base URL without a trailing slash.
func (c *Config) APIBaseURL() string {
	return strings.TrimRight(c.File.API.BaseURL, "/")
}

// AIBaseURL returns the AI service base URL without a trailing slash.
// Empty means the generate action is unavailable.
func (c *Config) AIBaseURL() string {
	return strings.TrimRight(c.File.AI.BaseURL, "/")
}

// AIAPIKey returns the key sent to the AI service.
func (c *Config) AIAPIKey() string {
	return c.File.AI.APIKey
}

// PageSize returns the dashboard page size.
func (c *Config) PageSize() int {
	return c.File.Dashboard.PageSize
}

// LogPath returns the client log file location.
func (c *Config) LogPath() string {
	return filepath.Join(c.DataDir, "logs", "client.log")
}

// StatePath returns the sqlite state database location.
func (c *Config) StatePath() string {
	return filepath.Join(c.DataDir, "state", "state.db")
}

// ConfigPath returns the on-disk location of config.yaml.
func (c *Config) ConfigPath() string {
	return filepath.Join(c.DataDir, "config.yaml")
}

// SetPageSize updates the dashboard page size and persists it.
func (c *Config) SetPageSize(size int) error {
	if size < 1 {
		return fmt.Errorf("config: page size must be >= 1")
	}
	c.File.Dashboard.PageSize = size
	return c.saveFile()
}

func (c *Config) loadFile() error {
	path := c.ConfigPath()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("config: read %s: %w", path, err)
	}
	var parsed FileConfig
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}
	parsed.applyDefaults()
	parsed.normalize()
	c.File = parsed
	return nil
}

func (c *Config) applyEnv() {
	if v := strings.TrimSpace(os.Getenv("CHIMP_API_URL")); v != "" {
		c.File.API.BaseURL = v
	}
	if v := strings.TrimSpace(os.Getenv("CHIMP_AI_URL")); v != "" {
		c.File.AI.BaseURL = v
	}
	if v := strings.TrimSpace(os.Getenv("CHIMP_AI_KEY")); v != "" {
		c.File.AI.APIKey = v
	}
	if v := strings.TrimSpace(os.Getenv("CHIMP_PAGE_SIZE")); v != "" {
		if size, err := strconv.Atoi(v); err == nil && size > 0 {
			c.File.Dashboard.PageSize = size
		}
	}
	c.File.normalize()
}

func (c *Config) saveFile() error {
	if c == nil {
		return fmt.Errorf("config: nil receiver")
	}
	c.File.applyDefaults()
	c.File.normalize()
	if err := c.File.validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if err := os.MkdirAll(c.DataDir, 0o755); err != nil {
		return fmt.Errorf("config: ensure data dir: %w", err)
	}
	data, err := yaml.Marshal(c.File)
	if err != nil {
		return fmt.Errorf("config: encode config: %w", err)
	}
	if err := os.WriteFile(c.ConfigPath(), data, 0o644); err != nil {
		return fmt.Errorf("config: write config: %w", err)
	}
	return nil
}

func defaultFileConfig() FileConfig {
	return FileConfig{
		Version:   1,
		API:       APIConfig{BaseURL: defaultAPIBaseURL},
		Dashboard: DashboardConfig{PageSize: defaultPageSize},
	}
}

func (fc *FileConfig) applyDefaults() {
	if fc.Version == 0 {
		fc.Version = 1
	}
	if strings.TrimSpace(fc.API.BaseURL) == "" {
		fc.API.BaseURL = defaultAPIBaseURL
	}
	if fc.Dashboard.PageSize == 0 {
		fc.Dashboard.PageSize = defaultPageSize
	}
}

func (fc *FileConfig) normalize() {
	fc.API.BaseURL = strings.TrimRight(strings.TrimSpace(fc.API.BaseURL), "/")
	fc.AI.BaseURL = strings.TrimRight(strings.TrimSpace(fc.AI.BaseURL), "/")
	fc.AI.APIKey = strings.TrimSpace(fc.AI.APIKey)
}

func (fc FileConfig) validate() error {
	if fc.Version < 1 {
		return fmt.Errorf("version must be >= 1")
	}
	if err := validateURL("api.base_url", fc.API.BaseURL, true); err != nil {
		return err
	}
	if err := validateURL("ai.base_url", fc.AI.BaseURL, false); err != nil {
		return err
	}
	if fc.Dashboard.PageSize < 1 {
		return fmt.Errorf("dashboard.page_size must be >= 1")
	}
	return nil
}

func validateURL(field, value string, required bool) error {
	if strings.TrimSpace(value) == "" {
		if required {
			return fmt.Errorf("%s is required", field)
		}
		return nil
	}
	parsed, err := url.Parse(value)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("%s must be an absolute URL", field)
	}
	return nil
}

func ensureConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return os.WriteFile(path, []byte(defaultConfigYAML), 0o644)
}
