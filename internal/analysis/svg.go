package analysis

import (
	"fmt"
	"strings"
)

// PhasePortraitToSVG draws the portrait as a single SVG path with a 10%
// margin on each axis, a marker at the final point and the axis labels in
// the corners.
func PhasePortraitToSVG(portrait *PhasePortrait2D, width, height int, stroke string) string {
	if portrait == nil || len(portrait.Points) < 2 {
		return ""
	}
	points := portrait.Points
	w := portrait.window(0.1)

	project := func(x, y float64) (float64, float64) {
		return (x - w.minX) / w.spanX * float64(width), float64(height) - (y-w.minY)/w.spanY*float64(height)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
<path fill="none" stroke="%s" stroke-width="1.5" d="`, width, height, width, height, stroke)

	for i, p := range points {
		x, y := project(p.X, p.Y)
		if i == 0 {
			fmt.Fprintf(&sb, "M%.1f,%.1f", x, y)
		} else {
			fmt.Fprintf(&sb, " L%.1f,%.1f", x, y)
		}
	}
	sb.WriteString(`"/>` + "\n")

	ex, ey := project(points[len(points)-1].X, points[len(points)-1].Y)
	fmt.Fprintf(&sb, `<circle cx="%.1f" cy="%.1f" r="3" fill="%s"/>`+"\n", ex, ey, stroke)
	fmt.Fprintf(&sb, `<text x="4" y="14" fill="#888888" font-family="monospace" font-size="12">%s</text>`+"\n", portrait.YLabel)
	fmt.Fprintf(&sb, `<text x="%d" y="%d" fill="#888888" font-family="monospace" font-size="12" text-anchor="end">%s</text>`+"\n</svg>", width-4, height-4, portrait.XLabel)
	return sb.String()
}
