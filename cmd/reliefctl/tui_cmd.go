package main

import (
	"context"
	"errors"
	"flag"
	"io"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"

	"reliefctl/internal/sample"
	ui "reliefctl/internal/tui"
)

func handleTUI(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("tui", flag.ContinueOnError)
	cf := addCommonFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	c, _, err := cf.load()
	if err != nil {
		return err
	}

	// Logs would corrupt the screen; send them to logging.file or nowhere.
	var logTo io.Writer = io.Discard
	if c.Logging.File != "" {
		if err := os.MkdirAll(filepath.Dir(c.Logging.File), 0o755); err != nil {
			return err
		}
		f, err := os.OpenFile(c.Logging.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return err
		}
		defer func() { _ = f.Close() }()
		logTo = f
	}
	a, err := cf.open(logTo)
	if err != nil {
		return err
	}
	defer a.close()

	m := ui.New(ui.Options{
		Context: ctx,
		Session: a.newSession(),
		Sample:  sample.NewTrigger(a.client.SampleURL(), nil, a.log.Named("sample")),
		Theme:   a.cfg.UI.Theme,
		BaseURL: a.client.BaseURL(),
		Log:     a.log.Named("tui"),
	})
	p := tea.NewProgram(m, tea.WithContext(ctx), tea.WithAltScreen())
	_, err = p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
