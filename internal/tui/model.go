// Package tui is the interactive front end over a relief session.
package tui

import (
	"context"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"reliefctl/internal/logging"
	"reliefctl/internal/sample"
	"reliefctl/internal/session"
)

type focus int

const (
	focusRegion focus = iota
	focusFile
)

// Options wires a Model to its collaborators.
type Options struct {
	Context context.Context
	Session *session.Session
	Sample  *sample.Trigger
	Theme   string
	BaseURL string
	Log     *logging.Logger
	// Clipboard replaces the system clipboard, mainly for tests.
	Clipboard func(string) error
}

// Model implements tea.Model. Session events come back to Update as
// messages, so all state changes happen on the program's goroutine.
type Model struct {
	ctx     context.Context
	sess    *session.Session
	trigger *sample.Trigger
	log     *logging.Logger
	th      Theme
	baseURL string
	copy    func(string) error

	region   textinput.Model
	file     textinput.Model
	spin     spinner.Model
	focus    focus
	spinning bool
	fileErr  string
	flash    string
	width    int
	height   int
	quitting bool
}

type copiedMsg struct{ err error }

func New(opts Options) *Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	if opts.Clipboard == nil {
		opts.Clipboard = copyToClipboard
	}
	region := textinput.New()
	region.Placeholder = "Region name"
	region.Prompt = "Region: "
	region.CharLimit = 128
	region.SetValue(opts.Session.State().RegionName)
	region.Focus()

	file := textinput.New()
	file.Placeholder = "/path/to/events.csv"
	file.Prompt = "CSV: "
	file.CharLimit = 4096

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return &Model{
		ctx:     ctx,
		sess:    opts.Session,
		trigger: opts.Sample,
		log:     opts.Log,
		th:      themeByName(opts.Theme),
		baseURL: opts.BaseURL,
		copy:    opts.Clipboard,
		region:  region,
		file:    file,
		spin:    sp,
	}
}

func (m *Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, jobCmd(m.sess.LoadRegions(m.ctx)))
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	return m.update(msg)
}

func (m *Model) View() string {
	return m.render()
}

// State exposes the session state the view renders.
func (m *Model) State() session.State { return m.sess.State() }

// jobCmd runs a session job as a bubbletea command; its event is fed back
// through Update.
func jobCmd(job session.Job) tea.Cmd {
	if job == nil {
		return nil
	}
	return func() tea.Msg { return job() }
}
