package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, lines ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	if err := os.WriteFile(path, []byte(strings.Join(lines, "\n")), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	t.Setenv("RELIEF_BASE_URL", "")
	tmp := t.TempDir()
	path := writeConfig(t,
		"version: 1",
		"service:",
		"  base_url: \"http://relief.internal:8080/\"",
		"general:",
		"  data_root: \""+tmp+"\"",
	)
	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if c.Service.BaseURL != "http://relief.internal:8080" {
		t.Fatalf("trailing slash not trimmed: %q", c.Service.BaseURL)
	}
	if c.Session.DefaultRegion != "Riverside" {
		t.Fatalf("default region = %q", c.Session.DefaultRegion)
	}
	if c.LastResolvedWins() {
		t.Fatalf("expected latest-issued ordering by default")
	}
	if got := c.SampleURL(); got != "http://relief.internal:8080/sample/sample_disasters.csv" {
		t.Fatalf("SampleURL = %q", got)
	}
}

func TestLoadExpandsEnv(t *testing.T) {
	t.Setenv("RELIEF_BASE_URL", "")
	t.Setenv("RELIEF_TEST_HOST", "relief.example.org")
	path := writeConfig(t,
		"version: 1",
		"service:",
		"  base_url: \"https://${RELIEF_TEST_HOST}\"",
		"session:",
		"  predict_ordering: last-resolved",
	)
	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.Service.BaseURL != "https://relief.example.org" {
		t.Fatalf("base_url = %q", c.Service.BaseURL)
	}
	if !c.LastResolvedWins() {
		t.Fatalf("expected last-resolved ordering")
	}
}

func TestBaseURLEnvOverride(t *testing.T) {
	t.Setenv("RELIEF_BASE_URL", "http://override:9000")
	path := writeConfig(t, "version: 1")
	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.Service.BaseURL != "http://override:9000" {
		t.Fatalf("base_url = %q", c.Service.BaseURL)
	}
}

func TestValidateRejects(t *testing.T) {
	t.Setenv("RELIEF_BASE_URL", "")
	cases := map[string][]string{
		"version":  {"version: 2"},
		"scheme":   {"version: 1", "service:", "  base_url: ftp://x"},
		"relative": {"version: 1", "service:", "  base_url: /api"},
		"ordering": {"version: 1", "session:", "  predict_ordering: first"},
		"level":    {"version: 1", "logging:", "  level: loud"},
		"timeout":  {"version: 1", "network:", "  timeout_seconds: -1"},
		"metrics":  {"version: 1", "metrics:", "  prometheus_textfile:", "    enabled: true"},
		"sample":   {"version: 1", "service:", "  sample_path: sample.csv"},
		"theme":    {"version: 1", "ui:", "  theme: neon"},
	}
	for name, lines := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := Load(writeConfig(t, lines...)); err == nil {
				t.Fatalf("expected validation error")
			}
		})
	}
}

func TestLoadOrDefault(t *testing.T) {
	t.Setenv("RELIEF_BASE_URL", "")
	missing := filepath.Join(t.TempDir(), "nope.yml")
	c, err := LoadOrDefault(missing, false)
	if err != nil {
		t.Fatalf("implicit missing config should fall back: %v", err)
	}
	if c.Service.BaseURL != DefaultBaseURL {
		t.Fatalf("base_url = %q", c.Service.BaseURL)
	}
	if _, err := LoadOrDefault(missing, true); err == nil {
		t.Fatalf("explicit missing config should fail")
	}
	bad := writeConfig(t, "version: [")
	if _, err := LoadOrDefault(bad, false); err == nil {
		t.Fatalf("malformed config should fail even when implicit")
	}
}
