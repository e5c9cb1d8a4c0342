package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"reliefctl/internal/journal"
	"reliefctl/internal/session"
	"reliefctl/internal/testutil"
)

type harness struct {
	cfgPath string
	dir     string
	out     *bytes.Buffer
}

func newHarness(t *testing.T, baseURL string) *harness {
	t.Helper()
	t.Setenv("RELIEF_BASE_URL", "")
	t.Setenv("RELIEF_CONFIG", "")
	dir := t.TempDir()
	cfg := strings.Join([]string{
		"version: 1",
		"service:",
		"  base_url: " + baseURL,
		"general:",
		"  data_root: " + filepath.Join(dir, "data"),
		"metrics:",
		"  prometheus_textfile:",
		"    enabled: true",
		"    path: " + filepath.Join(dir, "metrics", "reliefctl.prom"),
		"",
	}, "\n")
	path := filepath.Join(dir, "config.yml")
	if err := os.WriteFile(path, []byte(cfg), 0o644); err != nil {
		t.Fatal(err)
	}
	h := &harness{cfgPath: path, dir: dir, out: &bytes.Buffer{}}
	oldOut, oldErr := stdout, stderr
	stdout, stderr = h.out, io.Discard
	t.Cleanup(func() { stdout, stderr = oldOut, oldErr })
	return h
}

func (h *harness) run(args ...string) error {
	h.out.Reset()
	full := append([]string{args[0], "--config", h.cfgPath}, args[1:]...)
	return run(context.Background(), full)
}

func TestRegionsCommand(t *testing.T) {
	ts := testutil.NewReliefService()
	defer ts.Close()
	h := newHarness(t, ts.URL)

	if err := h.run("regions"); err != nil {
		t.Fatalf("regions: %v", err)
	}
	want := "Greenfield — population 3,000\nHarborview — population 4,500\nRiverside — population 6,000\n"
	if h.out.String() != want {
		t.Fatalf("output:\n%s\nwant:\n%s", h.out.String(), want)
	}

	if err := h.run("regions", "--json"); err != nil {
		t.Fatalf("regions --json: %v", err)
	}
	var regions []session.Region
	if err := json.Unmarshal(h.out.Bytes(), &regions); err != nil || len(regions) != 3 {
		t.Fatalf("json regions = %v err=%v", regions, err)
	}
}

func TestRegionsUnreachable(t *testing.T) {
	h := newHarness(t, "http://127.0.0.1:1")
	if err := h.run("regions"); err == nil {
		t.Fatalf("expected error")
	}
	if !strings.Contains(h.out.String(), "No regions loaded") {
		t.Fatalf("output = %q", h.out.String())
	}
}

func TestPredictCommand(t *testing.T) {
	ts := testutil.NewReliefService()
	defer ts.Close()
	h := newHarness(t, ts.URL)

	if err := h.run("predict", "Riverside"); err != nil {
		t.Fatalf("predict: %v", err)
	}
	if !strings.HasPrefix(h.out.String(), `Riverside: {"confidence":0.9`) {
		t.Fatalf("output = %q", h.out.String())
	}

	if err := h.run("predict", "Riverside", "Harborview"); err != nil {
		t.Fatalf("predict two: %v", err)
	}
	if !strings.Contains(h.out.String(), "shown: ") || ts.CountPath("/api/disaster/predict") != 3 {
		t.Fatalf("output = %q, predict calls = %d", h.out.String(), ts.CountPath("/api/disaster/predict"))
	}
}

func TestPredictEmptyRegion(t *testing.T) {
	ts := testutil.NewReliefService()
	defer ts.Close()
	h := newHarness(t, ts.URL)

	err := h.run("predict", "--json", "")
	if err == nil {
		t.Fatalf("expected failure for empty region")
	}
	var line predictLine
	if jerr := json.Unmarshal(h.out.Bytes(), &line); jerr != nil {
		t.Fatalf("decode %q: %v", h.out.String(), jerr)
	}
	if line.Status != "failed" || !strings.Contains(line.Error, "region param required") {
		t.Fatalf("line = %+v", line)
	}
}

func TestUploadJournalAndMetrics(t *testing.T) {
	ts := testutil.NewReliefService()
	defer ts.Close()
	h := newHarness(t, ts.URL)
	csv := testutil.TempFile(t, "events.csv", testutil.EventsCSV)

	if err := h.run("upload", csv); err != nil {
		t.Fatalf("upload: %v", err)
	}
	if strings.TrimSpace(h.out.String()) != "Inserted: 2" {
		t.Fatalf("output = %q", h.out.String())
	}

	if err := h.run("history", "--json"); err != nil {
		t.Fatalf("history: %v", err)
	}
	var entries []journal.Entry
	if err := json.Unmarshal(h.out.Bytes(), &entries); err != nil {
		t.Fatalf("decode history: %v", err)
	}
	if len(entries) != 1 || entries[0].Kind != journal.KindUpload || entries[0].Outcome != journal.OutcomeOK {
		t.Fatalf("entries = %+v", entries)
	}

	b, err := os.ReadFile(filepath.Join(h.dir, "metrics", "reliefctl.prom"))
	if err != nil {
		t.Fatalf("metrics file: %v", err)
	}
	if !strings.Contains(string(b), `reliefctl_uploads_total{outcome="ok"} 1`) {
		t.Fatalf("metrics:\n%s", b)
	}
}

func TestUploadWithoutFile(t *testing.T) {
	ts := testutil.NewReliefService()
	defer ts.Close()
	h := newHarness(t, ts.URL)
	if err := h.run("upload"); err == nil {
		t.Fatalf("expected error")
	}
	if strings.TrimSpace(h.out.String()) != session.StatusChooseFile {
		t.Fatalf("output = %q", h.out.String())
	}
	if ts.CountPath("/api/disaster/upload") != 0 {
		t.Fatalf("upload reached the service")
	}
}

func TestSampleNoOpen(t *testing.T) {
	h := newHarness(t, "http://relief.local:5001")
	if err := h.run("sample", "--no-open"); err != nil {
		t.Fatal(err)
	}
	if got := strings.TrimSpace(h.out.String()); got != "http://relief.local:5001/sample/sample_disasters.csv" {
		t.Fatalf("sample url = %q", got)
	}
}

func TestConfigCommands(t *testing.T) {
	h := newHarness(t, "http://relief.local:5001")
	if err := run(context.Background(), []string{"config", "validate", "--config", h.cfgPath}); err != nil {
		t.Fatalf("config validate: %v", err)
	}
	if err := run(context.Background(), []string{"config", "print", "--config", h.cfgPath}); err != nil {
		t.Fatalf("config print: %v", err)
	}
	if !strings.Contains(h.out.String(), "base_url: http://relief.local:5001") {
		t.Fatalf("print output:\n%s", h.out.String())
	}
	if err := run(context.Background(), []string{"config", "validate", "--config", filepath.Join(h.dir, "missing.yml")}); err == nil {
		t.Fatalf("explicit missing config should fail")
	}
}

func TestDoctorReportsUnreachableService(t *testing.T) {
	h := newHarness(t, "http://127.0.0.1:1")
	err := h.run("doctor", "--timeout", "2s")
	if err == nil || !strings.Contains(err.Error(), "checks failed") {
		t.Fatalf("err = %v", err)
	}
	if !strings.Contains(h.out.String(), "✗ Service is reachable") {
		t.Fatalf("output:\n%s", h.out.String())
	}
}

func TestDoctorHealthy(t *testing.T) {
	ts := testutil.NewReliefService()
	defer ts.Close()
	h := newHarness(t, ts.URL)
	if err := h.run("doctor"); err != nil {
		t.Fatalf("doctor: %v\n%s", err, h.out.String())
	}
	if !strings.Contains(h.out.String(), "3 regions, total population 13,500") {
		t.Fatalf("output:\n%s", h.out.String())
	}
}

func TestUnknownCommand(t *testing.T) {
	newHarness(t, "http://x")
	if err := run(context.Background(), []string{"bogus"}); err == nil {
		t.Fatalf("expected error")
	}
}
