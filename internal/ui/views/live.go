package views

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/pulseview/pulseview/internal/models"
	"github.com/pulseview/pulseview/internal/ui/styles"
)

// historyLen bounds the per-signal history kept for the trend bars.
const historyLen = 60

// LiveView renders the live biosignal stream: current readings, layer
// results, LIA insight, and a short heart-rate trend.
type LiveView struct {
	width  int
	height int

	latest    *models.StreamData
	hrHistory []float64
}

// NewLiveView creates a new live view
func NewLiveView() *LiveView {
	return &LiveView{}
}

// SetSize sets the view dimensions
func (v *LiveView) SetSize(width, height int) {
	v.width = width
	v.height = height
}

// Push adds a snapshot to the view. Snapshots are display-only and are
// not retained beyond the trend history.
func (v *LiveView) Push(d *models.StreamData) {
	v.latest = d
	v.hrHistory = append(v.hrHistory, d.Raw.HeartRate)
	if len(v.hrHistory) > historyLen {
		v.hrHistory = v.hrHistory[1:]
	}
}

// Reset clears the view, e.g. on reconnect.
func (v *LiveView) Reset() {
	v.latest = nil
	v.hrHistory = nil
}

// Render returns the live tab content
func (v *LiveView) Render() string {
	if v.latest == nil {
		return styles.Muted.Render("Waiting for stream data...")
	}
	d := v.latest

	var lines []string
	lines = append(lines, styles.SectionStyle.Render("Vitals"))
	lines = append(lines, vital("Heart rate", "%.0f", d.Raw.HeartRate, "bpm"))
	lines = append(lines, vital("HRV", "%.0f", d.Raw.HRV, "ms"))
	lines = append(lines, vital("EDA", "%.2f", d.Raw.EDA, "µS"))
	lines = append(lines, vital("Skin temp", "%.1f", d.Raw.SkinTemp, "°C"))
	lines = append(lines, vital("Motion", "%.2f", d.Raw.AccelMag, "g"))
	lines = append(lines, "")

	if len(v.hrHistory) > 1 {
		lines = append(lines, styles.SectionStyle.Render("Heart rate trend"))
		lines = append(lines, "  "+sparkline(v.hrHistory, min(v.width-4, historyLen)))
		lines = append(lines, "")
	}

	lines = append(lines, styles.SectionStyle.Render("Processing layers"))
	if d.Layer1 != nil {
		lines = append(lines, fmt.Sprintf("  Quality:    %.0f%% (%d artifacts)",
			d.Layer1.QualityScore*100, d.Layer1.ArtifactsFound))
	}
	if d.Layer2 != nil {
		lines = append(lines, fmt.Sprintf("  LF/HF:      %.2f  stress index %.2f",
			d.Layer2.LFHFRatio, d.Layer2.StressIdx))
	}
	if d.Layer3 != nil {
		lines = append(lines, fmt.Sprintf("  Circadian:  %s (alignment %.0f%%)",
			d.Layer3.Phase, d.Layer3.AlignmentScore*100))
	}
	lines = append(lines, "")

	if ins := d.Insights; ins != nil {
		lines = append(lines, styles.SectionStyle.Render("LIA insight"))
		state := styles.StatusOK
		if ins.State != "calm" {
			state = styles.StatusDegraded
		}
		lines = append(lines, "  State:      "+state.Render(ins.State)+
			styles.Muted.Render(fmt.Sprintf(" (%.0f%% confidence)", ins.Confidence*100)))
		if ins.Advice != "" {
			lines = append(lines, "  "+styles.Muted.Render(ins.Advice))
		}
	}

	lines = append(lines, "")
	lines = append(lines, styles.Muted.Render("Last sample: "+d.Timestamp.Format("15:04:05")))

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func vital(label, format string, value float64, unit string) string {
	return "  " + styles.VitalLabel.Render(label) +
		styles.VitalValue.Render(fmt.Sprintf(format, value)) + " " +
		styles.VitalUnit.Render(unit)
}

var sparkRunes = []rune("▁▂▃▄▅▆▇█")

// sparkline renders values as a unicode bar strip scaled to its own
// min/max, keeping only the most recent width samples.
func sparkline(values []float64, width int) string {
	if width < 1 {
		width = 1
	}
	if len(values) > width {
		values = values[len(values)-width:]
	}

	lo, hi := values[0], values[0]
	for _, v := range values {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	span := hi - lo
	if span == 0 {
		span = 1
	}

	var b strings.Builder
	for _, v := range values {
		idx := int((v - lo) / span * float64(len(sparkRunes)-1))
		b.WriteRune(sparkRunes[idx])
	}
	return b.String()
}
