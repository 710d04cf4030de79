package dashboard

import (
	"context"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/rileyhilliard/commandcenter/internal/login"
)

// Model is the Bubble Tea model for the command center dashboard.
type Model struct {
	source   Source
	interval time.Duration
	title    string

	snap       Snapshot
	lastErr    error
	selected   int
	width      int
	height     int
	lastUpdate time.Time
	quitting   bool
	viewMode   ViewMode
	showHelp   bool

	login *loginForm

	detailViewport viewport.Model
	viewportReady  bool
}

// loginForm is the huh form of an outstanding login request.
type loginForm struct {
	prompt login.Prompt
	form   *huh.Form
	result *login.Result
	done   func(login.Result)
}

// tickMsg signals a periodic refresh.
type tickMsg time.Time

// snapshotMsg carries a fresh snapshot from the source.
type snapshotMsg struct {
	snap Snapshot
	err  error
}

// NewModel creates a dashboard reading snapshots from source every interval.
func NewModel(source Source, interval time.Duration, title string) Model {
	if interval <= 0 {
		interval = time.Second
	}
	if title == "" {
		title = "commandcenter"
	}
	return Model{
		source:   source,
		interval: interval,
		title:    title,
	}
}

// Init starts the tick timer and takes the first snapshot.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.tickCmd(), m.refreshCmd())
}

// Update handles messages and updates the model state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case LoginRequestMsg:
		return m.startLogin(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		headerHeight := 3
		footerHeight := 2
		viewportHeight := max(m.height-headerHeight-footerHeight, 1)
		if !m.viewportReady {
			m.detailViewport = viewport.New(m.width, viewportHeight)
			m.detailViewport.YPosition = headerHeight
			m.viewportReady = true
		} else {
			m.detailViewport.Width = m.width
			m.detailViewport.Height = viewportHeight
		}
		if m.viewMode == ViewDetail {
			m.updateDetailViewportContent()
		}
		if m.login != nil {
			return m.updateLogin(msg)
		}
		return m, nil

	case tickMsg:
		return m, tea.Batch(m.tickCmd(), m.refreshCmd())

	case snapshotMsg:
		if msg.err != nil {
			m.lastErr = msg.err
			return m, nil
		}
		m.lastErr = nil
		m.snap = msg.snap
		m.lastUpdate = msg.snap.Taken
		if n := len(m.snap.Gateways); m.selected >= n {
			m.selected = max(n-1, 0)
		}
		if m.viewMode == ViewDetail {
			m.updateDetailViewportContent()
		}
		return m, nil

	case tea.KeyMsg:
		if m.login != nil {
			if msg.String() == KeyQuitAlt {
				m.cancelLogin()
				m.quitting = true
				return m, tea.Quit
			}
			if msg.String() == KeyCollapse {
				m.cancelLogin()
				return m, nil
			}
			return m.updateLogin(msg)
		}
		if handled, cmd := m.HandleKeyMsg(msg); handled {
			return m, cmd
		}
		if m.viewMode == ViewDetail {
			var cmd tea.Cmd
			m.detailViewport, cmd = m.detailViewport.Update(msg)
			return m, cmd
		}
		return m, nil
	}

	if m.login != nil {
		return m.updateLogin(msg)
	}
	return m, nil
}

// View renders the dashboard.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	return m.renderDashboard()
}

// Selected returns the name of the selected gateway, or "" when none.
func (m Model) Selected() string {
	if m.selected < 0 || m.selected >= len(m.snap.Gateways) {
		return ""
	}
	return m.snap.Gateways[m.selected].Name
}

// LiveCount returns how many gateways are reporting.
func (m Model) LiveCount() int {
	n := 0
	for _, g := range m.snap.Gateways {
		if g.Status == GatewayLive {
			n++
		}
	}
	return n
}

// LoggingIn reports whether a login form is showing.
func (m Model) LoggingIn() bool {
	return m.login != nil
}

func (m Model) tickCmd() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// refreshCmd asks the source for a snapshot, bounded by the refresh interval.
func (m Model) refreshCmd() tea.Cmd {
	source, timeout := m.source, m.interval
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		snap, err := source.Snapshot(ctx)
		return snapshotMsg{snap: snap, err: err}
	}
}

// startLogin replaces any form already showing; the older request is
// answered as cancelled.
func (m Model) startLogin(msg LoginRequestMsg) (tea.Model, tea.Cmd) {
	m.cancelLogin()

	lf := &loginForm{prompt: msg.Prompt, done: msg.Done, result: &login.Result{}}
	lf.form = login.NewForm(msg.Prompt, lf.result)
	m.login = lf
	m.showHelp = false
	return m, lf.form.Init()
}

func (m *Model) cancelLogin() {
	if m.login == nil {
		return
	}
	m.login.done(login.Result{ConnectionURL: m.login.prompt.ConnectionURL, Cancelled: true})
	m.login = nil
}

func (m Model) updateLogin(msg tea.Msg) (tea.Model, tea.Cmd) {
	lf := m.login
	model, cmd := lf.form.Update(msg)
	if f, ok := model.(*huh.Form); ok {
		lf.form = f
	}

	switch lf.form.State {
	case huh.StateCompleted:
		res := *lf.result
		res.Username = strings.TrimSpace(res.Username)
		res.ConnectionURL = strings.TrimSpace(res.ConnectionURL)
		lf.done(res)
		m.login = nil
		return m, nil
	case huh.StateAborted:
		m.cancelLogin()
		return m, nil
	}
	return m, cmd
}
