package ui

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/pulseview/pulseview/internal/backend"
	"github.com/pulseview/pulseview/internal/config"
	"github.com/pulseview/pulseview/internal/models"
	"github.com/pulseview/pulseview/internal/state"
	"github.com/pulseview/pulseview/internal/ui/keys"
	"github.com/pulseview/pulseview/internal/ui/styles"
	"github.com/pulseview/pulseview/internal/ui/views"
)

// AppMode represents the current mode of the application
type AppMode int

const (
	ModeNormal AppMode = iota
	ModeHelp
)

// Tab represents the available tabs
type Tab int

const (
	TabOverview Tab = iota
	TabLive
	TabLogs
	TabSessions
)

func (t Tab) String() string {
	names := []string{"Overview", "Live", "Logs", "Sessions"}
	if int(t) < len(names) {
		return names[t]
	}
	return "Unknown"
}

const (
	healthProbeEvery = 5 * time.Second
	logsRefreshEvery = 3 * time.Second
	streamChanSize   = 64
)

// ============================================================================
// Messages
// ============================================================================

// StreamMsg carries one stream snapshot from the poller or socket.
type StreamMsg struct {
	Data *models.StreamData
}

// StreamErrMsg carries a non-fatal stream fetch failure.
type StreamErrMsg struct {
	Err error
}

// SocketClosedMsg is sent when the websocket connection (or an attempt)
// ends.
type SocketClosedMsg struct {
	Err error
}

// HealthMsg carries a health probe result; Status is nil when the
// backend is unreachable.
type HealthMsg struct {
	Status   *models.SystemStatus
	ProbedAt time.Time
}

// ConnectResultMsg carries the device registration result.
type ConnectResultMsg struct {
	Resp *models.ConnectionResponse
	Err  error
}

// PredictionMsg carries an on-demand prediction result.
type PredictionMsg struct {
	Resp *models.PredictionResponse
	Err  error
}

// LogsMsg carries a processing-log fetch result.
type LogsMsg struct {
	List *models.ProcessingLogList
	Err  error
}

// SessionMsg carries a session create/get result.
type SessionMsg struct {
	Resp *models.SessionResponse
	Err  error
}

type healthTickMsg struct{}
type logsTickMsg struct{}

// App is the main application model
type App struct {
	cfg     *config.Config
	backend backend.Backend
	baseURL string
	log     *slog.Logger
	mock    bool

	mode      AppMode
	activeTab Tab
	width     int
	height    int
	keys      keys.KeyMap

	overview *views.OverviewView
	live     *views.LiveView
	logsView *views.LogsView

	transport models.TransportMode
	follow    bool

	// Stream plumbing. Poller/socket callbacks push into these
	// channels; tea commands pump them back into Update.
	streamCh chan *models.StreamData
	errCh    chan error
	closeCh  chan error

	poller *backend.StreamPoller
	socket *backend.StreamSocket

	sessions   []*models.SessionResponse
	socketDown string

	runCtx    context.Context
	runCancel context.CancelFunc
}

// NewApp creates a new application instance
func NewApp(cfg *config.Config, uiState *state.State, be backend.Backend, baseURL string, mock bool, log *slog.Logger) *App {
	transport := cfg.Backend.Transport
	if uiState.Transport != "" {
		transport = models.TransportMode(uiState.Transport)
	}
	// The mock variant has no socket endpoint to dial.
	if mock {
		transport = models.TransportPolling
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &App{
		cfg:       cfg,
		backend:   be,
		baseURL:   baseURL,
		log:       log,
		mock:      mock,
		activeTab: Tab(uiState.ActiveTab),
		keys:      keys.DefaultKeyMap(),
		overview:  views.NewOverviewView(baseURL),
		live:      views.NewLiveView(),
		logsView:  views.NewLogsView(80, 20, cfg.UI.LogTailLines),
		transport: transport,
		follow:    uiState.Follow,
		streamCh:  make(chan *models.StreamData, streamChanSize),
		errCh:     make(chan error, 8),
		closeCh:   make(chan error, 8),
		runCtx:    ctx,
		runCancel: cancel,
	}
}

// GetState returns the current UI state for persistence
func (a *App) GetState() *state.State {
	return &state.State{
		ActiveTab:    int(a.activeTab),
		Follow:       a.follow,
		Transport:    string(a.transport),
		WindowWidth:  a.width,
		WindowHeight: a.height,
	}
}

// Shutdown stops the stream transport and releases resources.
func (a *App) Shutdown() {
	a.stopTransport()
	a.runCancel()
}

// Init implements tea.Model
func (a *App) Init() tea.Cmd {
	a.startTransport()
	return tea.Batch(
		a.probeHealth(),
		a.registerDevice(),
		a.fetchLogs(),
		a.waitForStream(),
		a.waitForStreamErr(),
		a.waitForClose(),
		a.scheduleHealthTick(),
		a.scheduleLogsTick(),
	)
}

// ============================================================================
// Transport lifecycle
// ============================================================================

func (a *App) startTransport() {
	if a.transport == models.TransportWebSocket {
		a.startSocket()
		return
	}
	a.startPoller()
}

func (a *App) stopTransport() {
	if a.poller != nil {
		a.poller.Stop()
		a.poller = nil
	}
	if a.socket != nil {
		a.socket.Disconnect()
		a.socket = nil
	}
}

func (a *App) startPoller() {
	interval := time.Duration(a.cfg.Backend.PollIntervalMs) * time.Millisecond
	p, err := backend.StartPoller(a.runCtx, backend.PollerConfig{
		Fetch:    a.backend.FetchStream,
		Interval: interval,
		Logger:   a.log,
		OnData: func(d *models.StreamData) {
			select {
			case a.streamCh <- d:
			default: // UI is behind, drop the sample
			}
		},
		OnError: func(err error) {
			select {
			case a.errCh <- err:
			default:
			}
		},
	})
	if err != nil {
		a.log.Error("failed to start stream poller", "error", err)
		return
	}
	a.poller = p
}

func (a *App) startSocket() {
	s, err := backend.NewStreamSocket(backend.SocketConfig{
		URL:    backend.StreamSocketURL(a.baseURL),
		Logger: a.log,
		OnData: func(d *models.StreamData) {
			select {
			case a.streamCh <- d:
			default:
			}
		},
		OnError: func(err error) {
			select {
			case a.errCh <- err:
			default:
			}
		},
		OnClose: func(err error) {
			select {
			case a.closeCh <- err:
			default:
			}
		},
	})
	if err != nil {
		a.log.Error("failed to create stream socket", "error", err)
		return
	}
	a.socket = s
	s.Connect(a.runCtx)
}

// ============================================================================
// Commands
// ============================================================================

func (a *App) waitForStream() tea.Cmd {
	return func() tea.Msg {
		d, ok := <-a.streamCh
		if !ok {
			return nil
		}
		return StreamMsg{Data: d}
	}
}

func (a *App) waitForStreamErr() tea.Cmd {
	return func() tea.Msg {
		err, ok := <-a.errCh
		if !ok {
			return nil
		}
		return StreamErrMsg{Err: err}
	}
}

func (a *App) waitForClose() tea.Cmd {
	return func() tea.Msg {
		err, ok := <-a.closeCh
		if !ok {
			return nil
		}
		return SocketClosedMsg{Err: err}
	}
}

func (a *App) probeHealth() tea.Cmd {
	return func() tea.Msg {
		status := a.backend.CheckHealth(a.runCtx)
		return HealthMsg{Status: status, ProbedAt: time.Now()}
	}
}

func (a *App) registerDevice() tea.Cmd {
	req := models.ConnectionRequest{
		DeviceID:   a.cfg.Device.DeviceID,
		DeviceType: a.cfg.Device.DeviceType,
		AppVersion: a.cfg.Device.AppVersion,
		UserID:     a.cfg.Device.UserID,
	}
	return func() tea.Msg {
		resp, err := a.backend.Connect(a.runCtx, req)
		return ConnectResultMsg{Resp: resp, Err: err}
	}
}

func (a *App) fetchPrediction() tea.Cmd {
	return func() tea.Msg {
		resp, err := a.backend.FetchPrediction(a.runCtx)
		return PredictionMsg{Resp: resp, Err: err}
	}
}

func (a *App) fetchLogs() tea.Cmd {
	limit := a.cfg.UI.LogTailLines
	return func() tea.Msg {
		list, err := a.backend.ProcessingLogs(a.runCtx, limit)
		return LogsMsg{List: list, Err: err}
	}
}

func (a *App) createSession() tea.Cmd {
	req := models.SessionRequest{
		DeviceID: a.cfg.Device.DeviceID,
		UserID:   a.cfg.Device.UserID,
		Kind:     "monitoring",
	}
	return func() tea.Msg {
		resp, err := a.backend.CreateSession(a.runCtx, req)
		return SessionMsg{Resp: resp, Err: err}
	}
}

func (a *App) scheduleHealthTick() tea.Cmd {
	return tea.Tick(healthProbeEvery, func(time.Time) tea.Msg { return healthTickMsg{} })
}

func (a *App) scheduleLogsTick() tea.Cmd {
	return tea.Tick(logsRefreshEvery, func(time.Time) tea.Msg { return logsTickMsg{} })
}

// ============================================================================
// Update
// ============================================================================

// Update implements tea.Model
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		contentW := a.width - 4
		contentH := a.height - 7
		a.overview.SetSize(contentW, contentH)
		a.live.SetSize(contentW, contentH)
		a.logsView.SetSize(contentW, contentH)

	case tea.KeyMsg:
		if a.mode == ModeHelp {
			if key.Matches(msg, a.keys.Escape) || key.Matches(msg, a.keys.Help) || msg.String() == "q" {
				a.mode = ModeNormal
			}
			return a, nil
		}

		switch {
		case key.Matches(msg, a.keys.Quit):
			a.Shutdown()
			return a, tea.Quit

		case key.Matches(msg, a.keys.Help):
			a.mode = ModeHelp

		case key.Matches(msg, a.keys.Tab1):
			a.activeTab = TabOverview
		case key.Matches(msg, a.keys.Tab2):
			a.activeTab = TabLive
		case key.Matches(msg, a.keys.Tab3):
			a.activeTab = TabLogs
		case key.Matches(msg, a.keys.Tab4):
			a.activeTab = TabSessions

		case key.Matches(msg, a.keys.NextTab):
			a.activeTab = (a.activeTab + 1) % 4

		case key.Matches(msg, a.keys.ToggleFollow):
			a.follow = !a.follow
			a.logsView.SetFollow(a.follow)

		case key.Matches(msg, a.keys.ToggleTransport):
			if !a.mock {
				cmds = append(cmds, a.switchTransport())
			}

		case key.Matches(msg, a.keys.Reconnect):
			a.stopTransport()
			a.live.Reset()
			a.socketDown = ""
			a.startTransport()
			cmds = append(cmds, a.probeHealth())

		case key.Matches(msg, a.keys.Predict):
			cmds = append(cmds, a.fetchPrediction())

		case msg.String() == "n" && a.activeTab == TabSessions:
			cmds = append(cmds, a.createSession())

		default:
			if a.activeTab == TabLogs {
				cmds = append(cmds, a.logsView.Update(msg))
			}
		}

	case StreamMsg:
		a.live.Push(msg.Data)
		a.socketDown = ""
		cmds = append(cmds, a.waitForStream())

	case StreamErrMsg:
		a.overview.SetError(msg.Err.Error())
		cmds = append(cmds, a.waitForStreamErr())

	case SocketClosedMsg:
		if msg.Err != nil {
			a.socketDown = msg.Err.Error()
		} else {
			a.socketDown = "connection closed"
		}
		cmds = append(cmds, a.waitForClose())

	case HealthMsg:
		a.overview.SetHealth(msg.Status, msg.ProbedAt)
		a.overview.SetTransport(a.transport)

	case ConnectResultMsg:
		if msg.Err != nil {
			a.overview.SetError("Device registration failed: " + msg.Err.Error())
		} else {
			a.overview.SetConnection(msg.Resp)
		}

	case PredictionMsg:
		if msg.Err != nil {
			a.overview.SetError("Prediction failed: " + msg.Err.Error())
		} else {
			a.overview.SetPrediction(msg.Resp)
			a.overview.SetError("")
		}

	case LogsMsg:
		// Log fetch failures are not surfaced as errors; the tab just
		// keeps its previous contents.
		if msg.Err == nil {
			a.logsView.Replace(msg.List)
		}

	case SessionMsg:
		if msg.Err != nil {
			a.overview.SetError("Session call failed: " + msg.Err.Error())
		} else {
			a.sessions = append(a.sessions, msg.Resp)
		}

	case healthTickMsg:
		cmds = append(cmds, a.probeHealth(), a.scheduleHealthTick())

	case logsTickMsg:
		cmds = append(cmds, a.fetchLogs(), a.scheduleLogsTick())
	}

	return a, tea.Batch(cmds...)
}

// switchTransport flips between polling and websocket delivery.
func (a *App) switchTransport() tea.Cmd {
	a.stopTransport()
	if a.transport == models.TransportPolling {
		a.transport = models.TransportWebSocket
	} else {
		a.transport = models.TransportPolling
	}
	a.overview.SetTransport(a.transport)
	a.socketDown = ""
	a.startTransport()
	return a.probeHealth()
}

// ============================================================================
// View
// ============================================================================

// View implements tea.Model
func (a *App) View() string {
	if a.width == 0 || a.height == 0 {
		return "Initializing..."
	}

	if a.mode == ModeHelp {
		return a.renderHelp()
	}

	header := styles.TitleStyle.Render("pulseview") +
		styles.Muted.Render("  "+a.baseURL)
	tabs := a.renderTabs()

	contentHeight := a.height - 6
	var content string
	switch a.activeTab {
	case TabOverview:
		content = a.overview.Render()
	case TabLive:
		content = a.live.Render()
	case TabLogs:
		content = a.logsView.Render()
	case TabSessions:
		content = a.renderSessionsTab()
	}

	pane := styles.PaneBorder.
		Width(a.width - 2).
		Height(contentHeight).
		Render(content)

	return lipgloss.JoinVertical(lipgloss.Left, header, tabs, pane, a.renderBottomBar())
}

func (a *App) renderTabs() string {
	var tabs []string
	for _, t := range []Tab{TabOverview, TabLive, TabLogs, TabSessions} {
		if t == a.activeTab {
			tabs = append(tabs, styles.ActiveTab.Render(t.String()))
		} else {
			tabs = append(tabs, styles.InactiveTab.Render(t.String()))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}

func (a *App) renderSessionsTab() string {
	var lines []string
	lines = append(lines, styles.SectionStyle.Render("Sessions"))
	if len(a.sessions) == 0 {
		lines = append(lines, styles.Muted.Render("  No sessions. Press n to create one."))
	}
	for _, s := range a.sessions {
		badge := styles.Muted.Render("closed")
		if s.Active {
			badge = styles.StatusOK.Render("active")
		}
		lines = append(lines, fmt.Sprintf("  %-20s %-12s %s  %s",
			s.SessionID, s.Kind, badge, styles.Muted.Render(s.CreatedAt.Format("15:04:05"))))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func (a *App) renderBottomBar() string {
	mode := string(a.transport)
	if a.mock {
		mode += " (mock)"
	}
	status := styles.Muted.Render(" " + mode)
	if a.socketDown != "" {
		status += "  " + styles.StatusDown.Render("stream down: "+a.socketDown)
	}
	hints := styles.Muted.Render("  q quit · ? help · r reconnect · w transport · p predict")
	return status + hints
}

func (a *App) renderHelp() string {
	var lines []string
	lines = append(lines, styles.TitleStyle.Render("pulseview — keys"))
	lines = append(lines, "")
	for _, group := range a.keys.FullHelp() {
		for _, b := range group {
			lines = append(lines, fmt.Sprintf("  %-12s %s",
				styles.Primary.Render(b.Help().Key), b.Help().Desc))
		}
		lines = append(lines, "")
	}
	lines = append(lines, styles.Muted.Render("  esc to close"))
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}
