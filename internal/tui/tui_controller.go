package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"reliefctl/internal/session"
)

func (m *Model) update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case session.Event:
		m.sess.Handle(msg)
		return m, m.ensureSpinner()

	case spinner.TickMsg:
		if !m.busy() {
			m.spinning = false
			return m, nil
		}
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case copiedMsg:
		if msg.err != nil {
			m.flash = "Copy failed: " + msg.err.Error()
		} else {
			m.flash = "Prediction copied"
		}
		return m, nil
	}

	// Cursor blink and other input housekeeping.
	var cmd tea.Cmd
	if m.focus == focusFile {
		m.file, cmd = m.file.Update(msg)
	} else {
		m.region, cmd = m.region.Update(msg)
	}
	return m, cmd
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "esc":
		m.quitting = true
		return m, tea.Quit
	case "tab", "shift+tab":
		m.toggleFocus()
		return m, nil
	case "ctrl+o":
		m.flash = ""
		return m, m.sampleCmd()
	case "ctrl+u":
		m.flash = ""
		job := m.sess.Upload(m.ctx)
		return m, tea.Batch(jobCmd(job), m.ensureSpinner())
	case "ctrl+y":
		return m, m.copyCmd()
	case "enter":
		m.flash = ""
		if m.focus == focusFile {
			m.selectFile()
			return m, nil
		}
		job := m.sess.Predict(m.ctx, m.region.Value())
		return m, tea.Batch(jobCmd(job), m.ensureSpinner())
	}

	var cmd tea.Cmd
	if m.focus == focusFile {
		m.file, cmd = m.file.Update(msg)
	} else {
		m.region, cmd = m.region.Update(msg)
	}
	return m, cmd
}

func (m *Model) toggleFocus() {
	if m.focus == focusRegion {
		m.focus = focusFile
		m.region.Blur()
		m.file.Focus()
		return
	}
	m.focus = focusRegion
	m.file.Blur()
	m.region.Focus()
}

// selectFile replaces the selected file. A bad path leaves the previous
// selection in place.
func (m *Model) selectFile() {
	path := strings.TrimSpace(m.file.Value())
	if path == "" {
		m.fileErr = "enter a path to a CSV file"
		return
	}
	f, err := session.FileFromPath(path)
	if err != nil {
		m.fileErr = err.Error()
		return
	}
	m.fileErr = ""
	m.sess.SelectFile(f)
}

func (m *Model) sampleCmd() tea.Cmd {
	t := m.trigger
	if t == nil {
		return nil
	}
	return func() tea.Msg {
		t.Fire()
		return nil
	}
}

func (m *Model) copyCmd() tea.Cmd {
	st := m.sess.State()
	if st.Prediction.Kind != session.PredictionReady {
		m.flash = "Nothing to copy yet"
		return nil
	}
	text := prettyJSON(st.Prediction.Payload)
	cp := m.copy
	return func() tea.Msg { return copiedMsg{err: cp(text)} }
}

func (m *Model) busy() bool {
	st := m.sess.State()
	return st.Prediction.Kind == session.PredictionPending || st.Upload.Kind == session.UploadSubmitting
}

// ensureSpinner starts the spinner tick loop when work is in flight and the
// loop is not already running.
func (m *Model) ensureSpinner() tea.Cmd {
	if m.spinning || !m.busy() {
		return nil
	}
	m.spinning = true
	return m.spin.Tick
}
