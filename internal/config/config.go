package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Prediction ordering policies accepted by session.predict_ordering.
const (
	OrderingLatestIssued = "latest-issued"
	OrderingLastResolved = "last-resolved"
)

// DefaultBaseURL is where the demo relief service listens out of the box.
const DefaultBaseURL = "http://localhost:5001"

// Config mirrors the YAML schema. Missing sections fall back to Default().
type Config struct {
	Version int         `yaml:"version"`
	Service Service     `yaml:"service"`
	Network Network     `yaml:"network"`
	General General     `yaml:"general"`
	Session SessionConf `yaml:"session"`
	Logging Logging     `yaml:"logging"`
	Metrics Metrics     `yaml:"metrics"`
	Journal JournalConf `yaml:"journal"`
	UI      UI          `yaml:"ui"`
}

type Service struct {
	BaseURL    string `yaml:"base_url"`
	SamplePath string `yaml:"sample_path"` // relative to base_url
}

type Network struct {
	// TimeoutSeconds bounds a whole request. 0 leaves requests unbounded.
	TimeoutSeconds int    `yaml:"timeout_seconds"`
	UserAgent      string `yaml:"user_agent"`
}

type General struct {
	DataRoot string `yaml:"data_root"`
}

type SessionConf struct {
	DefaultRegion   string `yaml:"default_region"`
	PredictOrdering string `yaml:"predict_ordering"` // latest-issued | last-resolved
}

type Logging struct {
	Level  string `yaml:"level"`  // debug|info|warn|error
	Format string `yaml:"format"` // human|json
	File   string `yaml:"file"`   // TUI log destination; empty discards
}

type Metrics struct {
	PrometheusTextfile PromTextfile `yaml:"prometheus_textfile"`
}

type PromTextfile struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

type JournalConf struct {
	Enabled bool `yaml:"enabled"`
}

type UI struct {
	Theme string `yaml:"theme"` // dark|light
}

// Default returns the configuration used when no config file exists.
func Default() *Config {
	dataRoot := filepath.Join(os.TempDir(), "reliefctl")
	if h, err := os.UserHomeDir(); err == nil && h != "" {
		dataRoot = filepath.Join(h, ".local", "share", "reliefctl")
	}
	return &Config{
		Version: 1,
		Service: Service{BaseURL: DefaultBaseURL, SamplePath: "/sample/sample_disasters.csv"},
		General: General{DataRoot: dataRoot},
		Session: SessionConf{DefaultRegion: "Riverside", PredictOrdering: OrderingLatestIssued},
		Logging: Logging{Level: "info", Format: "human"},
		Journal: JournalConf{Enabled: true},
		UI:      UI{Theme: "dark"},
	}
}

// DefaultPath resolves the config location from RELIEF_CONFIG or the user's config dir.
func DefaultPath() string {
	if env := strings.TrimSpace(os.Getenv("RELIEF_CONFIG")); env != "" {
		return env
	}
	if h, err := os.UserHomeDir(); err == nil && h != "" {
		return filepath.Join(h, ".config", "reliefctl", "config.yml")
	}
	return ""
}

// Load reads, parses, expands, and validates a YAML config file.
// Fields the file leaves empty keep their Default() values.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}
	expanded, err := expandTilde(path)
	if err != nil {
		return nil, err
	}
	b, err := os.ReadFile(expanded)
	if err != nil {
		return nil, err
	}
	// Expand ${ENV} placeholders before unmarshalling
	b = []byte(os.ExpandEnv(string(b)))
	c := Default()
	if err := yaml.Unmarshal(b, c); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := c.finish(); err != nil {
		return nil, err
	}
	return c, nil
}

// LoadOrDefault loads path when it exists. When the file is missing and
// explicit is false, the defaults are returned instead.
func LoadOrDefault(path string, explicit bool) (*Config, error) {
	if path != "" {
		c, err := Load(path)
		if err == nil {
			return c, nil
		}
		if explicit || !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	} else if explicit {
		return nil, errors.New("config path is empty")
	}
	c := Default()
	if err := c.finish(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Config) finish() error {
	if env := strings.TrimSpace(os.Getenv("RELIEF_BASE_URL")); env != "" {
		c.Service.BaseURL = env
	}
	c.Service.BaseURL = strings.TrimRight(strings.TrimSpace(c.Service.BaseURL), "/")
	if err := c.expandPaths(); err != nil {
		return err
	}
	return c.Validate()
}

func (c *Config) expandPaths() error {
	var err error
	if c.General.DataRoot, err = expandTilde(c.General.DataRoot); err != nil {
		return err
	}
	if c.Logging.File, err = expandTilde(c.Logging.File); err != nil {
		return err
	}
	if c.Metrics.PrometheusTextfile.Path, err = expandTilde(c.Metrics.PrometheusTextfile.Path); err != nil {
		return err
	}
	return nil
}

func (c *Config) Validate() error {
	if c.Version != 1 {
		return fmt.Errorf("unsupported config version: %d", c.Version)
	}
	if c.Service.BaseURL == "" {
		return errors.New("service.base_url is required")
	}
	u, err := url.Parse(c.Service.BaseURL)
	if err != nil {
		return fmt.Errorf("service.base_url: %w", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("service.base_url must be an absolute http(s) URL: %s", c.Service.BaseURL)
	}
	if u.RawQuery != "" || u.Fragment != "" {
		return fmt.Errorf("service.base_url must not carry a query or fragment")
	}
	if c.Service.SamplePath != "" && !strings.HasPrefix(c.Service.SamplePath, "/") {
		return fmt.Errorf("service.sample_path must start with /: %s", c.Service.SamplePath)
	}
	if c.Network.TimeoutSeconds < 0 {
		return fmt.Errorf("network.timeout_seconds must be >= 0")
	}
	switch strings.ToLower(c.Session.PredictOrdering) {
	case "", OrderingLatestIssued, OrderingLastResolved:
		// ok
	default:
		return fmt.Errorf("session.predict_ordering invalid: %s", c.Session.PredictOrdering)
	}
	switch strings.ToLower(c.Logging.Level) {
	case "", "debug", "info", "warn", "error":
		// ok
	default:
		return fmt.Errorf("logging.level invalid: %s", c.Logging.Level)
	}
	switch strings.ToLower(c.Logging.Format) {
	case "", "human", "json":
		// ok
	default:
		return fmt.Errorf("logging.format invalid: %s", c.Logging.Format)
	}
	switch strings.ToLower(c.UI.Theme) {
	case "", "dark", "light":
		// ok
	default:
		return fmt.Errorf("ui.theme invalid: %s", c.UI.Theme)
	}
	if c.Metrics.PrometheusTextfile.Enabled && c.Metrics.PrometheusTextfile.Path == "" {
		return errors.New("metrics.prometheus_textfile.path is required when enabled")
	}
	if c.Journal.Enabled && c.General.DataRoot == "" {
		return errors.New("general.data_root is required when the journal is enabled")
	}
	return nil
}

// LastResolvedWins reports whether the legacy ordering policy is configured.
func (c *Config) LastResolvedWins() bool {
	return strings.EqualFold(c.Session.PredictOrdering, OrderingLastResolved)
}

// SampleURL is the absolute address of the sample CSV.
func (c *Config) SampleURL() string {
	p := c.Service.SamplePath
	if p == "" {
		p = "/sample/sample_disasters.csv"
	}
	return c.Service.BaseURL + p
}

func expandTilde(p string) (string, error) {
	if p == "" {
		return "", nil
	}
	if p[0] != '~' {
		return p, nil
	}
	h, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	if p == "~" {
		return h, nil
	}
	return filepath.Join(h, p[2:]), nil
}

// EnsureDir creates path and its parents when path is set.
func EnsureDir(path string, perm fs.FileMode) error {
	if path == "" {
		return nil
	}
	return os.MkdirAll(path, perm)
}
