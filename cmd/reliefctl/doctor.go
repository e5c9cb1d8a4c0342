package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"reliefctl/internal/config"
	"reliefctl/internal/journal"
	"reliefctl/internal/relief"
	"reliefctl/internal/system"
)

// Check represents a single diagnostic check
type Check struct {
	Name        string
	Run         func(ctx context.Context) CheckResult
	Critical    bool // If true, failure means the client cannot work
	Description string
}

// CheckResult represents the result of a diagnostic check
type CheckResult struct {
	Passed     bool
	Warning    bool // Passed but with warnings
	Message    string
	Suggestion string
}

func handleDoctor(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("doctor", flag.ContinueOnError)
	cf := addCommonFlags(fs)
	verbose := fs.Bool("verbose", false, "Show detailed output for each check")
	timeout := fs.Duration("timeout", 5*time.Second, "per-check network timeout")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, cfgPath, cfgErr := cf.load()
	var client *relief.Client
	if cfgErr == nil {
		client = relief.New(cfg, cf.logger(cfg, stderr).Named("relief"))
	}

	fmt.Fprintln(stdout, "Running reliefctl diagnostics...")
	fmt.Fprintln(stdout)

	checks := []Check{
		{
			Name:        "Config loads",
			Critical:    true,
			Description: "The config file (or built-in defaults) must parse and validate",
			Run: func(ctx context.Context) CheckResult {
				if cfgErr != nil {
					return CheckResult{
						Message:    "Config could not be loaded",
						Suggestion: fmt.Sprintf("%v\n\nRun 'reliefctl config validate' for details", cfgErr),
					}
				}
				if _, err := os.Stat(cfgPath); err != nil {
					return CheckResult{Passed: true, Warning: true, Message: "No config file; using defaults"}
				}
				return CheckResult{Passed: true, Message: fmt.Sprintf("Loaded: %s", cfgPath)}
			},
		},
		{
			Name:        "Service port accepts connections",
			Description: "The host in service.base_url must resolve and accept TCP",
			Run: func(ctx context.Context) CheckResult {
				if cfg == nil {
					return CheckResult{Message: "Skipped: no config"}
				}
				ctx, cancel := context.WithTimeout(ctx, *timeout)
				defer cancel()
				if err := system.CheckServiceReachable(ctx, cfg.Service.BaseURL); err != nil {
					return CheckResult{Message: "TCP connection failed", Suggestion: err.Error()}
				}
				return CheckResult{Passed: true, Message: fmt.Sprintf("Connected to %s", cfg.Service.BaseURL)}
			},
		},
		{
			Name:        "Proxy settings",
			Description: "Proxies from the environment apply to every service call",
			Run: func(ctx context.Context) CheckResult {
				proxies := system.DetectProxySettings()
				if len(proxies) == 0 {
					return CheckResult{Passed: true, Message: "No proxy configured"}
				}
				return CheckResult{
					Passed:     true,
					Warning:    true,
					Message:    "Proxy variables set: " + strings.Join(system.ProxyNames(proxies), ", "),
					Suggestion: "Add the service host to NO_PROXY if it is on your local network",
				}
			},
		},
		{
			Name:        "Service is reachable",
			Critical:    true,
			Description: "The relief service must answer its health endpoint",
			Run: func(ctx context.Context) CheckResult {
				if client == nil {
					return CheckResult{Message: "Skipped: no config"}
				}
				ctx, cancel := context.WithTimeout(ctx, *timeout)
				defer cancel()
				start := time.Now()
				h, err := client.Health(ctx)
				if err != nil {
					return CheckResult{
						Message:    fmt.Sprintf("No answer from %s", client.BaseURL()),
						Suggestion: relief.Explain(err, client.BaseURL()).Error(),
					}
				}
				res := CheckResult{Passed: true, Message: fmt.Sprintf("%s answered %q in %s", client.BaseURL(), h.Status, time.Since(start).Round(time.Millisecond))}
				if h.Status != "ok" {
					res.Warning = true
				}
				return res
			},
		},
		{
			Name:        "Regions are available",
			Description: "Predictions are most useful against a known region",
			Run: func(ctx context.Context) CheckResult {
				if client == nil {
					return CheckResult{Message: "Skipped: no config"}
				}
				ctx, cancel := context.WithTimeout(ctx, *timeout)
				defer cancel()
				regions, err := client.ListRegions(ctx)
				if err != nil {
					return CheckResult{Message: "Region list unavailable", Suggestion: relief.Explain(err, client.BaseURL()).Error()}
				}
				if len(regions) == 0 {
					return CheckResult{Passed: true, Warning: true, Message: "Service knows no regions", Suggestion: "Seed the service database with regions"}
				}
				var pop int64
				for _, r := range regions {
					pop += r.Population
				}
				return CheckResult{Passed: true, Message: fmt.Sprintf("%d regions, total population %s", len(regions), humanize.Comma(pop))}
			},
		},
		{
			Name:        "Journal is writable",
			Description: "Activity history is kept under general.data_root",
			Run: func(ctx context.Context) CheckResult {
				if cfg == nil {
					return CheckResult{Message: "Skipped: no config"}
				}
				return checkJournal(cfg)
			},
		},
	}

	passedCount, failedCount, warningCount := 0, 0, 0
	for _, check := range checks {
		if *verbose {
			fmt.Fprintf(stdout, "[ ] %s...\n", check.Name)
		}
		start := time.Now()
		result := check.Run(ctx)
		duration := time.Since(start)

		symbol := "✓"
		switch {
		case !result.Passed && check.Critical:
			symbol = "✗"
			failedCount++
		case !result.Passed:
			symbol = "⚠"
			warningCount++
		case result.Warning:
			symbol = "⚠"
			warningCount++
			passedCount++
		default:
			passedCount++
		}

		fmt.Fprintf(stdout, "%s %s", symbol, check.Name)
		if *verbose {
			fmt.Fprintf(stdout, " (%.2fs)", duration.Seconds())
		}
		fmt.Fprintln(stdout)
		if result.Message != "" {
			fmt.Fprintf(stdout, "  %s\n", result.Message)
		}
		if result.Suggestion != "" {
			for _, line := range strings.Split(result.Suggestion, "\n") {
				fmt.Fprintf(stdout, "  → %s\n", line)
			}
		}
		if *verbose || !result.Passed || result.Warning {
			fmt.Fprintln(stdout)
		}
	}

	fmt.Fprintf(stdout, "\nDiagnostic Summary:\n")
	fmt.Fprintf(stdout, "  Total checks: %d\n", len(checks))
	fmt.Fprintf(stdout, "  Passed:       %d\n", passedCount)
	fmt.Fprintf(stdout, "  Warnings:     %d\n", warningCount)
	fmt.Fprintf(stdout, "  Failed:       %d\n", failedCount)

	if failedCount > 0 {
		fmt.Fprintln(stdout, "\n⚠ Some critical checks failed. reliefctl cannot reach a working service.")
		return fmt.Errorf("%d checks failed", failedCount)
	}
	if warningCount > 0 {
		fmt.Fprintln(stdout, "\n⚠ Some checks have warnings. reliefctl will work but some features may be limited.")
	} else {
		fmt.Fprintln(stdout, "\n✓ All checks passed! reliefctl is ready to use.")
	}
	return nil
}

// minJournalSpace is the free space below which the journal check warns.
const minJournalSpace = 16 << 20

func checkJournal(cfg *config.Config) CheckResult {
	if !cfg.Journal.Enabled {
		return CheckResult{Passed: true, Warning: true, Message: "Journal disabled"}
	}
	db, err := journal.Open(cfg)
	if err != nil {
		return CheckResult{
			Message:    fmt.Sprintf("Cannot open %s", filepath.Join(cfg.General.DataRoot, journal.FileName)),
			Suggestion: err.Error(),
		}
	}
	defer func() { _ = db.Close() }()
	n, err := db.List(0)
	if err != nil {
		return CheckResult{Message: "Journal unreadable", Suggestion: err.Error()}
	}
	res := CheckResult{Passed: true, Message: fmt.Sprintf("%s (%d entries)", db.Path, len(n))}
	if ok, avail, err := system.HasSufficientSpace(cfg.General.DataRoot, minJournalSpace); err == nil && !ok {
		res.Warning = true
		res.Suggestion = fmt.Sprintf("Only %s free under %s", humanize.Bytes(avail), cfg.General.DataRoot)
	}
	return res
}
