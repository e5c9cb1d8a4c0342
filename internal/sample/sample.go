// Package sample hands the operator a direct link to the sample events CSV.
package sample

import (
	"fmt"
	"os/exec"
	"runtime"

	"reliefctl/internal/logging"
)

// Opener opens a URL outside this process.
type Opener interface {
	Open(url string) error
}

// OpenerFunc adapts a function to Opener.
type OpenerFunc func(url string) error

func (f OpenerFunc) Open(url string) error { return f(url) }

// Browser opens URLs with the platform's default handler.
type Browser struct{}

func (Browser) Open(url string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	case "linux", "freebsd", "openbsd", "netbsd":
		cmd = exec.Command("xdg-open", url)
	default:
		return fmt.Errorf("unsupported OS: %s", runtime.GOOS)
	}
	if err := cmd.Start(); err != nil {
		return err
	}
	go func() { _ = cmd.Wait() }()
	return nil
}

// Trigger points the operator at the sample file. It never touches session
// state and its outcome is not reported back.
type Trigger struct {
	URL    string
	Opener Opener
	log    *logging.Logger
}

func NewTrigger(url string, opener Opener, log *logging.Logger) *Trigger {
	if opener == nil {
		opener = Browser{}
	}
	return &Trigger{URL: url, Opener: opener, log: log}
}

// Fire asks the opener to open the sample URL. Failures are logged at debug.
func (t *Trigger) Fire() {
	if t == nil || t.URL == "" {
		return
	}
	if err := t.Opener.Open(t.URL); err != nil {
		t.log.Debugf("open %s: %v", logging.SanitizeURL(t.URL), err)
	}
}
