package dashboard

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/rileyhilliard/commandcenter/internal/summary"
)

const cardWidth = 38

// renderDashboard renders the complete dashboard view.
func (m Model) renderDashboard() string {
	if m.login != nil {
		return m.renderLogin()
	}
	if m.showHelp {
		return m.renderHelpOverlay()
	}

	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n\n")

	if m.viewMode == ViewDetail {
		if m.viewportReady {
			b.WriteString(m.detailViewport.View())
		} else {
			b.WriteString(m.renderDetail())
		}
	} else {
		b.WriteString(m.renderGatewayCards())
	}

	b.WriteString("\n")
	b.WriteString(m.renderFooter())
	return b.String()
}

// renderHeader renders the title and summary stats.
func (m Model) renderHeader() string {
	title := lipgloss.NewStyle().
		Foreground(ColorAccent).
		Bold(true).
		Render(m.title)

	updateText := "waiting"
	if !m.lastUpdate.IsZero() {
		updateText = formatAgo(time.Since(m.lastUpdate))
	}

	stats := lipgloss.NewStyle().
		Foreground(ColorTextSecondary).
		Render(fmt.Sprintf(" | %d gateways | %d live | last update %s",
			len(m.snap.Gateways), m.LiveCount(), updateText))

	header := HeaderStyle.Render(title + stats)
	if m.lastErr != nil {
		header += "\n" + ErrorStyle.Render("refresh failed: "+m.lastErr.Error())
	}
	return header
}

func formatAgo(d time.Duration) string {
	secs := int(d.Seconds())
	switch {
	case secs <= 0:
		return "just now"
	case secs == 1:
		return "1s ago"
	default:
		return fmt.Sprintf("%ds ago", secs)
	}
}

// renderGatewayCards renders the grid of gateway cards.
func (m Model) renderGatewayCards() string {
	if len(m.snap.Gateways) == 0 {
		return LabelStyle.Render("No gateways yet")
	}

	cards := make([]string, 0, len(m.snap.Gateways))
	for i, g := range m.snap.Gateways {
		cards = append(cards, m.renderCard(g, i == m.selected))
	}
	return m.layoutCards(cards)
}

// layoutCards arranges cards in rows based on terminal width.
func (m Model) layoutCards(cards []string) string {
	perRow := 1
	if m.width > 0 {
		perRow = max(m.width/(cardWidth+3), 1)
	}

	var rows []string
	for i := 0; i < len(cards); i += perRow {
		end := min(i+perRow, len(cards))
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, cards[i:end]...))
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

// renderCard renders one gateway's summary.
func (m Model) renderCard(g GatewayView, selected bool) string {
	var lines []string
	lines = append(lines, statusGlyph(g.Status)+" "+GatewayNameStyle.Render(g.Name)+" "+
		LabelStyle.Render(g.Status.String()))

	if g.Status == GatewayWaiting {
		lines = append(lines, LabelStyle.Render("no summary data yet"))
	} else {
		lines = append(lines, metricLine("sessions", g.Sessions.String()))
		if len(g.SessionHistory) > 1 {
			lines = append(lines, "          "+RenderSparkline(g.SessionHistory, cardWidth-14, false))
		}
		if cpu, ok := g.CPUPercent.Float(); ok {
			lines = append(lines, LabelStyle.Render(fmt.Sprintf("%-10s", "cpu"))+
				MetricStyle(cpu).Render(fmt.Sprintf("%.1f%%", cpu)))
			if len(g.CPUHistory) > 1 {
				lines = append(lines, "          "+RenderSparkline(g.CPUHistory, cardWidth-14, true))
			}
		}
		if g.HasHeap {
			lines = append(lines, LabelStyle.Render(fmt.Sprintf("%-10s", "heap"))+
				MetricStyle(g.HeapPercent).Render(fmt.Sprintf("%.1f%%", g.HeapPercent)))
		}
		if in, ok := g.BytesIn.Float(); ok {
			out, _ := g.BytesOut.Float()
			lines = append(lines, metricLine("traffic", formatBytes(int64(in))+" in / "+formatBytes(int64(out))+" out"))
		}
		for _, svc := range g.Services {
			name := svc.Name
			if svc.Stopped {
				name = StatusStoppedStyle.Render(name)
			}
			lines = append(lines, "  "+name+" "+LabelStyle.Render(svc.State)+" "+ValueStyle.Render(svc.Sessions.String()))
		}
	}

	style := CardStyle
	if selected {
		style = CardSelectedStyle
	}
	return style.Width(cardWidth).Render(strings.Join(lines, "\n"))
}

func metricLine(label, value string) string {
	return LabelStyle.Render(fmt.Sprintf("%-10s", label)) + ValueStyle.Render(value)
}

func statusGlyph(s GatewayStatus) string {
	switch s {
	case GatewayLive:
		return StatusLiveStyle.Render(StatusLive)
	case GatewayStopped:
		return StatusStoppedStyle.Render(StatusStopped)
	default:
		return StatusWaitingStyle.Render(StatusWaiting)
	}
}

// updateDetailViewportContent refreshes the detail viewport after the
// snapshot or selection changed.
func (m *Model) updateDetailViewportContent() {
	if !m.viewportReady {
		return
	}
	m.detailViewport.SetContent(m.renderDetail())
}

// renderDetail lists every store of the selected gateway.
func (m Model) renderDetail() string {
	name := m.Selected()
	g, ok := m.snap.Gateway(name)
	if !ok {
		return LabelStyle.Render("No gateway selected")
	}

	var b strings.Builder
	b.WriteString(statusGlyph(g.Status) + " " + GatewayNameStyle.Render(g.Name) + "\n")
	for _, s := range g.Stores {
		b.WriteString("\n")
		b.WriteString(renderStore(s))
	}
	return b.String()
}

func renderStore(s StoreView) string {
	var b strings.Builder
	heading := s.ID
	if s.Stopped {
		heading += " (stopped)"
	}
	b.WriteString(SectionStyle.Render(heading))
	if s.ReadTime != 0 {
		b.WriteString(LabelStyle.Render("  read " + time.UnixMilli(s.ReadTime).Format(time.TimeOnly)))
	}
	b.WriteString("\n")

	if len(s.Rows) == 0 {
		b.WriteString(LabelStyle.Render("  no data") + "\n")
		return b.String()
	}

	for i, row := range s.Rows {
		if s.Kind.Shape() == summary.ShapeIndexed {
			key := fmt.Sprintf("#%d", i)
			if i < len(s.Keys) {
				key = s.Keys[i]
			}
			b.WriteString("  " + GatewayNameStyle.Render(key) + "\n")
		}
		for j, field := range s.Fields {
			b.WriteString("    " + LabelStyle.Render(fmt.Sprintf("%-32s", field)) + ValueStyle.Render(row[j]) + "\n")
		}
	}
	return b.String()
}

// renderLogin shows the login form centered on screen.
func (m Model) renderLogin() string {
	box := LoginBoxStyle.Render(m.login.form.View() + "\n" + LabelStyle.Render("esc to cancel"))
	if m.width == 0 || m.height == 0 {
		return box
	}
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
}

// renderFooter renders the keyboard hint footer.
func (m Model) renderFooter() string {
	hints := []string{"q quit", "r refresh", "↑↓ select", "enter details", "? help"}
	if m.viewMode == ViewDetail {
		hints = []string{"esc back", "↑↓ scroll", "q quit"}
	}
	return FooterStyle.Render(strings.Join(hints, " | "))
}

// formatBytes formats a byte count as a human-readable string.
func formatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}

	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}

	units := []string{"KB", "MB", "GB", "TB", "PB"}
	return fmt.Sprintf("%.1f %s", float64(bytes)/float64(div), units[exp])
}
