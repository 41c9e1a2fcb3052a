package views

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/pulseview/pulseview/internal/models"
	"github.com/pulseview/pulseview/internal/ui/styles"
)

// LogsView displays backend processing-pipeline logs in a viewport.
type LogsView struct {
	viewport viewport.Model
	logs     []models.ProcessingLog
	follow   bool
	maxLines int
	width    int
	height   int
}

// NewLogsView creates a new logs view
func NewLogsView(width, height, maxLines int) *LogsView {
	vp := viewport.New(width, height)
	return &LogsView{
		viewport: vp,
		follow:   true,
		maxLines: maxLines,
		width:    width,
		height:   height,
	}
}

// SetSize updates the view dimensions
func (v *LogsView) SetSize(width, height int) {
	v.width = width
	v.height = height
	v.viewport.Width = width
	v.viewport.Height = height
	v.updateContent()
}

// SetFollow toggles auto-scroll to the newest entry
func (v *LogsView) SetFollow(follow bool) {
	v.follow = follow
	if follow {
		v.viewport.GotoBottom()
	}
}

// Replace swaps in a freshly fetched log list.
func (v *LogsView) Replace(list *models.ProcessingLogList) {
	if list == nil {
		return
	}
	v.logs = list.Logs
	if v.maxLines > 0 && len(v.logs) > v.maxLines {
		v.logs = v.logs[len(v.logs)-v.maxLines:]
	}
	v.updateContent()
}

// Update forwards scroll events to the viewport
func (v *LogsView) Update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	v.viewport, cmd = v.viewport.Update(msg)
	return cmd
}

// Render returns the logs tab content
func (v *LogsView) Render() string {
	if len(v.logs) == 0 {
		return styles.Muted.Render("No processing logs yet.")
	}
	return v.viewport.View()
}

func (v *LogsView) updateContent() {
	var b strings.Builder
	for _, l := range v.logs {
		line := fmt.Sprintf("%s %-6s %-7s %s",
			styles.Muted.Render(l.Timestamp.Format("15:04:05")),
			l.Layer,
			styles.ForLogLevel(l.Level).Render(l.Level),
			l.Message)
		if l.DurationMs > 0 {
			line += styles.Muted.Render(fmt.Sprintf(" (%.1fms)", l.DurationMs))
		}
		b.WriteString(line)
		b.WriteByte('\n')
	}
	v.viewport.SetContent(b.String())
	if v.follow {
		v.viewport.GotoBottom()
	}
}
