package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"reliefctl/internal/session"
)

const (
	maxHints        = 3
	maxRegionsShown = 12
)

func (m *Model) render() string {
	if m.quitting {
		return ""
	}
	st := m.sess.State()
	sections := []string{
		m.renderHeader(),
		m.renderRegionPanel(st),
		m.renderPrediction(st),
		m.renderUpload(st),
		m.renderFooter(),
	}
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m *Model) renderHeader() string {
	title := m.th.title.Render("Disaster Relief Allocation")
	return m.th.border.Render(lipgloss.JoinHorizontal(lipgloss.Top, title+"  ", m.th.label.Render(m.baseURL)))
}

func (m *Model) renderRegionPanel(st session.State) string {
	var b strings.Builder
	b.WriteString(m.heading("Region", m.focus == focusRegion))
	b.WriteString("\n")
	b.WriteString(m.region.View())
	b.WriteString("\n")
	if hints := regionHints(m.region.Value(), st.Regions, maxHints); len(hints) > 0 {
		b.WriteString(m.th.label.Render("did you mean: " + strings.Join(hints, ", ")))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(m.th.head.Render("Regions"))
	b.WriteString("\n")
	switch {
	case !st.RegionsLoaded && st.RegionsRequested():
		b.WriteString(m.th.placeholder.Render("Loading regions..."))
	case len(st.Regions) == 0:
		b.WriteString(m.th.placeholder.Render("No regions loaded"))
	default:
		for i, r := range st.Regions {
			if i == maxRegionsShown {
				b.WriteString(m.th.label.Render("... and " + humanize.Comma(int64(len(st.Regions)-i)) + " more"))
				break
			}
			b.WriteString(regionLine(r))
			b.WriteString("\n")
		}
	}
	return m.th.border.Render(strings.TrimRight(b.String(), "\n"))
}

func (m *Model) renderPrediction(st session.State) string {
	var b strings.Builder
	b.WriteString(m.th.head.Render("Prediction"))
	p := st.Prediction
	if p.Region != "" || p.Kind != session.PredictionNone {
		b.WriteString(m.th.label.Render("  " + quoteRegion(p.Region)))
	}
	b.WriteString("\n")
	switch p.Kind {
	case session.PredictionPending:
		b.WriteString(m.spin.View() + " predicting...")
	case session.PredictionReady:
		b.WriteString(prettyJSON(p.Payload))
	case session.PredictionFailed:
		b.WriteString(m.th.bad.Render("prediction unavailable: " + p.Reason))
	default:
		b.WriteString(m.th.placeholder.Render("No prediction yet"))
	}
	return m.th.border.Render(b.String())
}

func (m *Model) renderUpload(st session.State) string {
	var b strings.Builder
	b.WriteString(m.heading("Upload events CSV", m.focus == focusFile))
	b.WriteString("\n")
	b.WriteString(m.file.View())
	b.WriteString("\n")
	if m.fileErr != "" {
		b.WriteString(m.th.bad.Render(m.fileErr))
		b.WriteString("\n")
	}
	if st.File != nil {
		name := truncateMiddle(st.File.Name, 48)
		b.WriteString(m.th.label.Render("selected: " + name + " (" + humanize.Bytes(uint64(st.File.Size)) + ")"))
	} else {
		b.WriteString(m.th.placeholder.Render("no file selected"))
	}
	if status := st.Upload.Status(); status != "" {
		b.WriteString("\n")
		switch st.Upload.Kind {
		case session.UploadSubmitting:
			b.WriteString(m.spin.View() + " " + status)
		case session.UploadResolvedOK:
			b.WriteString(m.th.ok.Render(status))
		default:
			b.WriteString(m.th.bad.Render(status))
		}
	}
	return m.th.border.Render(b.String())
}

func (m *Model) renderFooter() string {
	keys := "enter: predict/select • tab: switch field • ctrl+u: upload • ctrl+o: sample CSV • ctrl+y: copy • esc: quit"
	if m.flash != "" {
		return m.th.footer.Render(m.flash + "  |  " + keys)
	}
	return m.th.footer.Render(keys)
}

func (m *Model) heading(s string, focused bool) string {
	if focused {
		return m.th.focused.Render("> " + s)
	}
	return m.th.head.Render("  " + s)
}

func quoteRegion(name string) string {
	if name == "" {
		return `(empty region)`
	}
	return `"` + name + `"`
}
