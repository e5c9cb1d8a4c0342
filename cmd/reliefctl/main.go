package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"

	"reliefctl/internal/config"
	friendlyerrors "reliefctl/internal/errors"
	"reliefctl/internal/journal"
	"reliefctl/internal/logging"
	"reliefctl/internal/metrics"
	"reliefctl/internal/relief"
	"reliefctl/internal/session"
)

var version = "dev"

// Output targets, swapped in tests.
var (
	stdout io.Writer = os.Stdout
	stderr io.Writer = os.Stderr
)

func main() {
	// A .env next to the binary's working dir may supply RELIEF_* settings.
	_ = godotenv.Load()
	relief.Version = version

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	if err := run(ctx, os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return handleTUI(ctx, nil)
	}
	cmd := args[0]
	switch cmd {
	case "tui":
		return handleTUI(ctx, args[1:])
	case "regions":
		return handleRegions(ctx, args[1:])
	case "predict":
		return handlePredict(ctx, args[1:])
	case "upload":
		return handleUpload(ctx, args[1:])
	case "sample":
		return handleSample(ctx, args[1:])
	case "history":
		return handleHistory(ctx, args[1:])
	case "doctor":
		return handleDoctor(ctx, args[1:])
	case "config":
		return handleConfig(ctx, args[1:])
	case "completion":
		return handleCompletion(ctx, args[1:])
	case "version":
		fmt.Fprintln(stdout, version)
		return nil
	case "help", "-h", "--help":
		usage()
		return nil
	default:
		usage()
		return fmt.Errorf("unknown command: %s", cmd)
	}
}

func usage() {
	fmt.Fprintln(stdout, strings.TrimSpace(`reliefctl - client for the disaster relief allocation service

Usage:
  reliefctl [command] [flags]

Commands:
  tui               Interactive session (default when no command is given)
  regions           List regions known to the service
  predict REGION... Predict needs for one or more regions in one session
  upload FILE       Upload a disaster events CSV
  sample            Print (and open) the sample events CSV link
  history           Show the local activity journal
  doctor            Check config, service reachability, and the journal
  config validate   Validate the config file
  config print      Print the effective config
  completion        Generate shell completion scripts (bash|zsh|fish)
  version           Print version
  help              Show this help

Flags:
  --config PATH     Path to YAML config file (or RELIEF_CONFIG; default: ~/.config/reliefctl/config.yml)
  --log-level L     Log level: debug|info|warn|error (per command)
  --json            JSON output and JSON log lines (per command)

Environment:
  RELIEF_BASE_URL   Overrides service.base_url
`))
}

// commonFlags are accepted by every command that talks to the service.
type commonFlags struct {
	cfgPath  *string
	logLevel *string
	jsonOut  *bool
}

func addCommonFlags(fs *flag.FlagSet) *commonFlags {
	return &commonFlags{
		cfgPath:  fs.String("config", "", "Path to YAML config file"),
		logLevel: fs.String("log-level", "", "log level (default from config)"),
		jsonOut:  fs.Bool("json", false, "json output"),
	}
}

func (cf *commonFlags) load() (*config.Config, string, error) {
	path := *cf.cfgPath
	explicit := path != ""
	if !explicit {
		path = config.DefaultPath()
	}
	c, err := config.LoadOrDefault(path, explicit)
	if err != nil {
		return nil, path, friendlyerrors.ConfigError(path, err)
	}
	return c, path, nil
}

func (cf *commonFlags) logger(c *config.Config, w io.Writer) *logging.Logger {
	level := c.Logging.Level
	if *cf.logLevel != "" {
		level = *cf.logLevel
	}
	return logging.NewWithWriter(level, *cf.jsonOut || c.Logging.Format == "json", w)
}

// app bundles what a command needs to run one session against the service.
type app struct {
	cfg     *config.Config
	log     *logging.Logger
	client  *relief.Client
	journal *journal.DB
	rec     *journal.Recorder
	metrics *metrics.Manager
}

func (cf *commonFlags) open(logTo io.Writer) (*app, error) {
	c, _, err := cf.load()
	if err != nil {
		return nil, err
	}
	log := cf.logger(c, logTo)
	a := &app{
		cfg:     c,
		log:     log,
		client:  relief.New(c, log.Named("relief")),
		metrics: metrics.New(c),
	}
	if c.Journal.Enabled {
		db, err := journal.Open(c)
		if err != nil {
			// The journal is a convenience; a broken one must not block the session.
			log.Warnf("journal disabled: %v", friendlyerrors.DatabaseError(err).Message)
		} else {
			a.journal = db
			a.rec = journal.NewRecorder(db, log.Named("journal"))
		}
	}
	return a, nil
}

func (a *app) newSession(extra ...session.Observer) *session.Session {
	obs := []session.Observer{a.metrics}
	if a.rec != nil {
		obs = append(obs, a.rec)
	}
	obs = append(obs, extra...)
	return session.New(a.client,
		session.WithLogger(a.log.Named("session")),
		session.WithLastResolvedWins(a.cfg.LastResolvedWins()),
		session.WithRegion(a.cfg.Session.DefaultRegion),
		session.WithObservers(obs...),
	)
}

func (a *app) close() {
	if err := a.metrics.Write(); err != nil {
		a.log.Warnf("metrics: %v", err)
	}
	if err := a.journal.Close(); err != nil {
		a.log.Warnf("journal: %v", err)
	}
}

// explain turns transport failures into operator-facing errors.
func (a *app) explain(err error) error {
	if err == nil {
		return nil
	}
	return relief.Explain(err, a.cfg.Service.BaseURL)
}
