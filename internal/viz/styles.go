package viz

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Styles is the set of lipgloss styles derived from one Theme.
type Styles struct {
	Title  lipgloss.Style
	Header lipgloss.Style
	Label  lipgloss.Style
	Value  lipgloss.Style
	Muted  lipgloss.Style
	OK     lipgloss.Style
	Warn   lipgloss.Style
	Fault  lipgloss.Style
	Panel  lipgloss.Style
}

func NewStyles(t Theme) Styles {
	return Styles{
		Title: lipgloss.NewStyle().Bold(true).Foreground(t.Primary),
		Header: lipgloss.NewStyle().
			Bold(true).
			Foreground(t.Text).
			BorderStyle(lipgloss.NormalBorder()).
			BorderBottom(true).
			BorderForeground(t.Muted),
		Label: lipgloss.NewStyle().Foreground(t.Muted).Width(12),
		Value: lipgloss.NewStyle().Foreground(t.Text),
		Muted: lipgloss.NewStyle().Foreground(t.Muted),
		OK:    lipgloss.NewStyle().Bold(true).Foreground(t.Success),
		Warn:  lipgloss.NewStyle().Bold(true).Foreground(t.Warning),
		Fault: lipgloss.NewStyle().Bold(true).Foreground(t.Error),
		Panel: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(t.Muted).
			Padding(0, 1),
	}
}

// Field renders one "label value" line.
func (s Styles) Field(label, value string) string {
	return s.Label.Render(label) + s.Value.Render(value)
}

// Deflection renders v in [-limit, limit] as a bar centered on zero.
// Values past the limit are drawn saturated in the fault color.
func (s Styles) Deflection(v, limit float64, width int) string {
	if width < 3 {
		width = 3
	}
	half := width / 2
	if limit <= 0 {
		limit = 1
	}
	r := v / limit
	saturated := r > 1 || r < -1
	r = max(-1, min(1, r))
	n := int(r * float64(half))

	cells := []rune(strings.Repeat("─", width))
	cells[half] = '┼'
	if n > 0 {
		for i := half + 1; i <= half+n; i++ {
			cells[i] = '█'
		}
	} else {
		for i := half + n; i < half; i++ {
			cells[i] = '█'
		}
	}
	bar := string(cells)
	if saturated {
		return s.Fault.Render(bar)
	}
	return s.OK.Render(bar)
}

// Sparkline renders values scaled to their own range, sampled to width.
func (s Styles) Sparkline(values []float64, width int) string {
	if len(values) == 0 || width <= 0 {
		return strings.Repeat("─", max(width, 0))
	}
	chars := []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

	lo, hi := values[0], values[0]
	for _, v := range values {
		lo = min(lo, v)
		hi = max(hi, v)
	}
	rng := hi - lo
	if rng == 0 {
		rng = 1
	}

	step := max(len(values)/width, 1)
	var b strings.Builder
	for i := 0; i < width && i*step < len(values); i++ {
		norm := (values[i*step] - lo) / rng
		idx := max(0, min(len(chars)-1, int(norm*float64(len(chars)-1))))
		b.WriteRune(chars[idx])
	}
	return s.Value.Render(b.String())
}

// Vector formats a state or control vector with fixed precision.
func Vector(v []float64) string {
	parts := make([]string, len(v))
	for i, x := range v {
		parts[i] = fmt.Sprintf("%+.4f", x)
	}
	return "[" + strings.Join(parts, " ") + "]"
}
