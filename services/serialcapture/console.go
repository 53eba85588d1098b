package serialcapture

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var sparkBlocks = []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

var (
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	tempStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("208")).Bold(true)
	humidStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Bold(true)
	sparkStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("78"))
	dimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("236"))
)

// Sparkline draws values as block characters scaled to [lo, hi], padded
// on the left to width.
func Sparkline(values []float64, width int) string {
	if width <= 0 {
		return ""
	}
	if len(values) > width {
		values = values[len(values)-width:]
	}
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range values {
		lo, hi = math.Min(lo, v), math.Max(hi, v)
	}
	span := hi - lo
	if span <= 0 {
		span = 1
	}
	var sb strings.Builder
	sb.WriteString(dimStyle.Render(strings.Repeat("╌", width-len(values))))
	var blocks strings.Builder
	for _, v := range values {
		idx := int((v - lo) / span * 7)
		blocks.WriteRune(sparkBlocks[max(0, min(7, idx))])
	}
	sb.WriteString(sparkStyle.Render(blocks.String()))
	return sb.String()
}

// Render formats the console status line.
func Render(temp, humid float64, h *History) string {
	return fmt.Sprintf("%s %s  %s %s  %s",
		labelStyle.Render("Temp:"), tempStyle.Render(fmt.Sprint(temp)),
		labelStyle.Render("Humid:"), humidStyle.Render(fmt.Sprint(humid)),
		Sparkline(h.Values(), h.max),
	)
}
