package analysis

import (
	"fmt"
	"strings"

	"github.com/san-kum/flightctl/internal/dynamo"
)

type Point struct{ X, Y float64 }

// PhasePortrait2D is one state component plotted against another.
type PhasePortrait2D struct {
	XIndex, YIndex int
	XLabel, YLabel string
	Points         []Point
}

// PhasePortrait collects components xIdx and yIdx of a recorded
// trajectory, e.g. pitch against pitch rate. labels name the state
// components; missing names fall back to x0, x1, ...
func PhasePortrait(states []dynamo.State, xIdx, yIdx int, labels []string) *PhasePortrait2D {
	if len(states) == 0 || xIdx < 0 || yIdx < 0 || xIdx >= len(states[0]) || yIdx >= len(states[0]) {
		return nil
	}

	portrait := &PhasePortrait2D{
		XIndex: xIdx,
		YIndex: yIdx,
		XLabel: axisLabel(labels, xIdx),
		YLabel: axisLabel(labels, yIdx),
		Points: make([]Point, 0, len(states)),
	}
	for _, x := range states {
		portrait.Points = append(portrait.Points, Point{X: x[xIdx], Y: x[yIdx]})
	}
	return portrait
}

func axisLabel(labels []string, i int) string {
	if i < len(labels) && labels[i] != "" {
		return labels[i]
	}
	return fmt.Sprintf("x%d", i)
}

// window is the plotted region of a portrait.
type window struct {
	minX, minY   float64
	spanX, spanY float64
}

// window returns the bounding box of the points widened by margin of its
// span on every side. A flat axis gets a unit span.
func (p *PhasePortrait2D) window(margin float64) window {
	minX, maxX := p.Points[0].X, p.Points[0].X
	minY, maxY := p.Points[0].Y, p.Points[0].Y
	for _, pt := range p.Points {
		minX, maxX = min(minX, pt.X), max(maxX, pt.X)
		minY, maxY = min(minY, pt.Y), max(maxY, pt.Y)
	}

	rangeX, rangeY := maxX-minX, maxY-minY
	if rangeX == 0 {
		rangeX = 1
	}
	if rangeY == 0 {
		rangeY = 1
	}
	return window{
		minX:  minX - rangeX*margin,
		minY:  minY - rangeY*margin,
		spanX: rangeX * (1 + 2*margin),
		spanY: rangeY * (1 + 2*margin),
	}
}

func (w window) maxX() float64 { return w.minX + w.spanX }
func (w window) maxY() float64 { return w.minY + w.spanY }

// gutter is the width of the y tick labels, "%+9.3f ".
const gutter = 10

// PhasePortraitToASCII renders the portrait in a width×height plot area
// with y ticks on the left, the x range underneath and both axes named
// by their state labels. The trajectory starts at 'o' and ends at '●';
// zero lines are drawn where they fall inside the plot.
func PhasePortraitToASCII(portrait *PhasePortrait2D, width, height int) string {
	if portrait == nil || len(portrait.Points) == 0 || width < 2 || height < 2 {
		return ""
	}
	w := portrait.window(0.1)

	cell := func(x, y float64) (row, col int) {
		col = int((x - w.minX) / w.spanX * float64(width-1))
		row = height - 1 - int((y-w.minY)/w.spanY*float64(height-1))
		return row, col
	}
	grid := make([][]rune, height)
	for i := range grid {
		grid[i] = []rune(strings.Repeat(" ", width))
	}
	put := func(row, col int, r rune) {
		if row >= 0 && row < height && col >= 0 && col < width {
			grid[row][col] = r
		}
	}

	if w.minX <= 0 && w.maxX() >= 0 {
		_, col := cell(0, w.minY)
		for row := range grid {
			put(row, col, '│')
		}
	}
	if w.minY <= 0 && w.maxY() >= 0 {
		row, _ := cell(w.minX, 0)
		for col := 0; col < width; col++ {
			if row >= 0 && row < height && grid[row][col] == '│' {
				put(row, col, '┼')
			} else {
				put(row, col, '─')
			}
		}
	}

	for _, p := range portrait.Points {
		row, col := cell(p.X, p.Y)
		put(row, col, '•')
	}
	first, last := portrait.Points[0], portrait.Points[len(portrait.Points)-1]
	row, col := cell(last.X, last.Y)
	put(row, col, '●')
	row, col = cell(first.X, first.Y)
	put(row, col, 'o')

	pad := strings.Repeat(" ", gutter)
	var sb strings.Builder
	sb.WriteString(pad + portrait.YLabel + "\n")
	for i, line := range grid {
		switch i {
		case 0:
			fmt.Fprintf(&sb, "%+9.3f ┤", w.maxY())
		case height - 1:
			fmt.Fprintf(&sb, "%+9.3f ┤", w.minY)
		default:
			sb.WriteString(pad + "│")
		}
		sb.WriteString(string(line))
		sb.WriteByte('\n')
	}
	sb.WriteString(pad + "└" + strings.Repeat("─", width) + "\n")

	lo, hi := fmt.Sprintf("%+.3f", w.minX), fmt.Sprintf("%+.3f", w.maxX())
	sb.WriteString(pad + lo + strings.Repeat(" ", max(1, width+1-len(lo)-len(hi))) + hi + "\n")
	sb.WriteString(pad + portrait.XLabel + "\n")
	return sb.String()
}
