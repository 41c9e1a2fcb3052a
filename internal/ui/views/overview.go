package views

import (
	"fmt"
	"sort"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/pulseview/pulseview/internal/models"
	"github.com/pulseview/pulseview/internal/ui/styles"
)

// OverviewView displays backend health and connection info
type OverviewView struct {
	width  int
	height int

	baseURL    string
	transport  models.TransportMode
	status     *models.SystemStatus
	connection *models.ConnectionResponse
	prediction *models.PredictionResponse
	lastProbe  time.Time
	lastError  string
}

// NewOverviewView creates a new overview view
func NewOverviewView(baseURL string) *OverviewView {
	return &OverviewView{baseURL: baseURL}
}

// SetSize sets the view dimensions
func (v *OverviewView) SetSize(width, height int) {
	v.width = width
	v.height = height
}

// SetHealth records the latest health probe result. nil means the
// backend was unreachable.
func (v *OverviewView) SetHealth(status *models.SystemStatus, probedAt time.Time) {
	v.status = status
	v.lastProbe = probedAt
}

// SetConnection records the device registration result
func (v *OverviewView) SetConnection(conn *models.ConnectionResponse) {
	v.connection = conn
}

// SetPrediction records the latest on-demand prediction
func (v *OverviewView) SetPrediction(p *models.PredictionResponse) {
	v.prediction = p
}

// SetTransport records the active stream transport
func (v *OverviewView) SetTransport(t models.TransportMode) {
	v.transport = t
}

// SetError records a user-facing failure from a one-shot call
func (v *OverviewView) SetError(msg string) {
	v.lastError = msg
}

// Render returns the overview tab content
func (v *OverviewView) Render() string {
	var lines []string

	lines = append(lines, styles.SectionStyle.Render("Backend"))
	lines = append(lines, "  URL:        "+v.baseURL)
	lines = append(lines, "  Transport:  "+string(v.transport))

	if v.status == nil {
		lines = append(lines, "  Status:     "+styles.StatusDown.Render("NOT CONNECTED"))
		if !v.lastProbe.IsZero() {
			lines = append(lines, styles.Muted.Render("  Last probe failed at "+v.lastProbe.Format("15:04:05")))
		}
		lines = append(lines, "")
		lines = append(lines, styles.Muted.Render("  Press r to retry."))
	} else {
		badge := styles.StatusOK.Render("HEALTHY")
		if v.status.Status != "healthy" {
			badge = styles.StatusDegraded.Render(v.status.Status)
		}
		lines = append(lines, "  Status:     "+badge)
		if v.status.Version != "" {
			lines = append(lines, "  Version:    "+v.status.Version)
		}
		if v.status.UptimeSeconds > 0 {
			lines = append(lines, "  Uptime:     "+formatUptime(v.status.UptimeSeconds))
		}
		lines = append(lines, fmt.Sprintf("  Devices:    %d connected", v.status.ConnectedDevices))
		lines = append(lines, fmt.Sprintf("  Samples:    %d processed", v.status.ProcessedSamples))

		if len(v.status.Services) > 0 {
			lines = append(lines, "")
			lines = append(lines, styles.SectionStyle.Render("Services"))
			names := make([]string, 0, len(v.status.Services))
			for name := range v.status.Services {
				names = append(names, name)
			}
			sort.Strings(names)
			for _, name := range names {
				badge := styles.StatusOK.Render("up")
				if !v.status.Services[name] {
					badge = styles.StatusDown.Render("down")
				}
				lines = append(lines, fmt.Sprintf("  %-10s %s", name, badge))
			}
		}
	}

	if v.connection != nil {
		lines = append(lines, "")
		lines = append(lines, styles.SectionStyle.Render("Device registration"))
		lines = append(lines, "  Status:     "+v.connection.Status)
		if v.connection.SessionID != "" {
			// Display-only; the backend does not correlate later
			// calls by this id.
			lines = append(lines, "  Session:    "+styles.Muted.Render(v.connection.SessionID))
		}
	}

	if v.prediction != nil {
		lines = append(lines, "")
		lines = append(lines, styles.SectionStyle.Render("Prediction"))
		lines = append(lines, fmt.Sprintf("  %s (%.0f%%) over %s",
			v.prediction.State, v.prediction.Confidence*100, v.prediction.Horizon))
		if v.prediction.Advice != "" {
			lines = append(lines, "  "+styles.Muted.Render(v.prediction.Advice))
		}
	}

	if v.lastError != "" {
		lines = append(lines, "")
		lines = append(lines, styles.LogError.Render("  "+v.lastError))
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func formatUptime(seconds float64) string {
	d := time.Duration(seconds) * time.Second
	if d < time.Hour {
		return fmt.Sprintf("%dm", int(d.Minutes()))
	}
	return fmt.Sprintf("%dh%dm", int(d.Hours()), int(d.Minutes())%60)
}
