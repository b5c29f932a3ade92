package viz

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/flightctl/internal/dynamo"
)

const (
	width           = 60
	height          = 20
	historyCapacity = 600
	frameRate       = 60
)

// Loop is a closed loop that can be stepped one tick at a time.
type Loop interface {
	Reset() error
	Step(x dynamo.State, t float64) (dynamo.State, dynamo.Control, error)
	Phase() string
}

// Snapshot stores one tick for replay.
type Snapshot struct {
	State   dynamo.State
	Control dynamo.Control
	Time    float64
}

type TickMsg time.Time

// Model steps a Loop in real time and renders it.
type Model struct {
	loop   Loop
	name   string
	labels []string
	x0     dynamo.State
	state  dynamo.State
	u      dynamo.Control
	t, dt  float64

	// Axis is the state index charted and Rate the index a gust kicks.
	Axis int
	Rate int
	// FinLimit scales the control deflection gauge.
	FinLimit float64
	// Holding reports whether the control law is in fault hold.
	Holding func() bool

	tunable       dynamo.Configurable
	initialParams map[string]float64
	paramKeys     []string
	selected      int

	canvas   *Canvas
	theme    Theme
	styles   Styles
	history  []Snapshot
	playHead int
	running  bool
	halted   error
	showHelp bool
}

// NewModel prepares a live view of loop starting at x0. name selects the
// vehicle drawing; labels name the state components.
func NewModel(loop Loop, x0 dynamo.State, dt float64, name string, labels []string) Model {
	m := Model{
		loop:     loop,
		name:     name,
		labels:   labels,
		x0:       x0.Clone(),
		dt:       dt,
		Rate:     len(x0) - 1,
		FinLimit: 1,
		canvas:   NewCanvas(width, height),
		history:  make([]Snapshot, 0, historyCapacity),
		playHead: -1,
		running:  true,
	}
	m.SetTheme(ThemeConsole)
	m.reset()
	return m
}

// Tune lets the view adjust plant parameters at runtime. The control
// law keeps the gain it was synthesized with.
func (m *Model) Tune(c dynamo.Configurable) {
	m.tunable = c
	m.initialParams = c.GetParams()
	m.paramKeys = m.paramKeys[:0]
	for k := range m.initialParams {
		m.paramKeys = append(m.paramKeys, k)
	}
	sort.Strings(m.paramKeys)
	m.selected = 0
}

func (m *Model) SetTheme(t Theme) {
	m.theme = t
	m.styles = NewStyles(t)
}

func (m Model) Init() tea.Cmd { return tick() }

func tick() tea.Cmd {
	return tea.Tick(time.Second/frameRate, func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ":
			m.running = !m.running
		case "r":
			m.reset()
		case "g":
			m.gust(0.2)
		case "[":
			m.scrub(-1)
		case "]":
			m.scrub(1)
		case "t":
			m.SetTheme(NextTheme(m.theme))
		case "tab":
			if len(m.paramKeys) > 0 {
				m.selected = (m.selected + 1) % len(m.paramKeys)
			}
		case "up", "k":
			m.adjustParam(1.05)
		case "down", "j":
			m.adjustParam(0.95)
		case "?":
			m.showHelp = !m.showHelp
		}
	case TickMsg:
		if m.running {
			if m.playHead == -1 {
				m.advance(m.stepsPerFrame())
			} else {
				m.playHead++
				if m.playHead >= len(m.history) {
					m.playHead = -1
				}
			}
		}
		return m, tick()
	}
	return m, nil
}

// stepsPerFrame keeps simulated time in step with wall time.
func (m *Model) stepsPerFrame() int {
	return max(1, int(math.Round(1/(frameRate*m.dt))))
}

func (m *Model) advance(n int) {
	for i := 0; i < n && m.halted == nil; i++ {
		next, u, err := m.loop.Step(m.state, m.t)
		m.u = u
		if err != nil {
			m.halted = err
			m.running = false
			return
		}
		m.state = next
		m.t += m.dt
		m.record()
	}
}

func (m *Model) record() {
	m.history = append(m.history, Snapshot{State: m.state.Clone(), Control: m.u.Clone(), Time: m.t})
	if len(m.history) > historyCapacity {
		m.history = m.history[1:]
	}
}

func (m *Model) adjustParam(factor float64) {
	if m.tunable == nil || len(m.paramKeys) == 0 {
		return
	}
	key := m.paramKeys[m.selected]
	// a rejected value leaves the parameter unchanged
	_ = m.tunable.SetParam(key, m.tunable.GetParams()[key]*factor)
}

func (m *Model) gust(rate float64) {
	if m.Rate < 0 || m.Rate >= len(m.state) {
		return
	}
	m.state = m.state.Clone()
	m.state[m.Rate] += rate
}

// scrub moves the playback position through history.
func (m *Model) scrub(dir int) {
	if m.playHead == -1 {
		if len(m.history) == 0 {
			return
		}
		m.playHead = len(m.history) - 1
		m.running = false
	}
	m.playHead += dir
	if m.playHead < 0 {
		m.playHead = 0
	}
	if m.playHead >= len(m.history) {
		m.playHead = -1
	}
}

func (m *Model) reset() {
	for k, v := range m.initialParams {
		_ = m.tunable.SetParam(k, v)
	}
	m.halted = m.loop.Reset()
	m.state = m.x0.Clone()
	m.u = nil
	m.t = 0
	m.history = m.history[:0]
	m.playHead = -1
}

// current returns the tick on screen: the replay position or the live state.
func (m *Model) current() Snapshot {
	if m.playHead >= 0 && m.playHead < len(m.history) {
		return m.history[m.playHead]
	}
	return Snapshot{State: m.state, Control: m.u, Time: m.t}
}

func (m Model) View() string {
	snap := m.current()
	m.draw(snap)
	st := m.styles

	var s strings.Builder
	s.WriteString(st.Header.Render(strings.ToUpper(m.name)) + "\n")
	s.WriteString(m.status() + "\n\n")
	s.WriteString(st.Field("Time", fmt.Sprintf("%.2fs", snap.Time)) + "\n")
	s.WriteString(st.Field("Phase", m.loop.Phase()) + "\n")
	for i, v := range snap.State {
		s.WriteString(st.Field(m.label(i), fmt.Sprintf("%+.4f", v)) + "\n")
	}
	if len(snap.Control) > 0 {
		s.WriteString(st.Field("Control", Vector(snap.Control)) + "\n")
		s.WriteString(st.Label.Render("") + st.Deflection(snap.Control[0], m.FinLimit, 21) + "\n")
	}

	if m.tunable != nil {
		s.WriteString("\n" + st.Title.Render("PARAMETERS") + "\n")
		params := m.tunable.GetParams()
		for i, k := range m.paramKeys {
			line := fmt.Sprintf("%-14s %.4g", k, params[k])
			if i == m.selected {
				s.WriteString(st.Warn.Render("> "+line) + "\n")
			} else {
				s.WriteString("  " + st.Muted.Render(line) + "\n")
			}
		}
	}

	if series := m.series(); len(series) > 1 {
		chart := asciigraph.Plot(series, asciigraph.Height(6), asciigraph.Width(40), asciigraph.Caption(m.label(m.Axis)))
		s.WriteString("\n" + st.Value.Render(chart) + "\n")
	}
	s.WriteString(st.Muted.Render("\nSP:Pause R:Reset G:Gust T:Theme\nTab/↑↓:Tune [ ]:Replay ?:Help Q:Quit"))

	canvasView := lipgloss.NewStyle().Padding(1, 2).Render(m.canvas.String())
	main := lipgloss.JoinHorizontal(lipgloss.Top, canvasView, st.Panel.Render(s.String()))
	if m.showHelp {
		return st.Panel.Render(help) + "\n" + main
	}
	return main
}

const help = `Space  pause/resume
R      reset to launch state
G      gust on the rate axis
T      cycle themes
Tab    select plant parameter
Up/K   increase parameter 5%
Down/J decrease parameter 5%
[ ]    step through history
Q      quit`

func (m *Model) status() string {
	st := m.styles
	switch {
	case m.halted != nil:
		return st.Fault.Render("HALTED: " + m.halted.Error())
	case m.Holding != nil && m.Holding():
		return st.Fault.Render("FAULT HOLD")
	case m.playHead != -1:
		return st.Warn.Render(fmt.Sprintf("REPLAY (%.2fs)", m.history[m.playHead].Time-m.t))
	case !m.running:
		return st.Warn.Render("PAUSED")
	}
	return st.OK.Render("RUNNING")
}

func (m *Model) label(i int) string {
	if i < len(m.labels) {
		return m.labels[i]
	}
	return fmt.Sprintf("x%d", i)
}

func (m *Model) series() []float64 {
	end := len(m.history)
	if m.playHead >= 0 {
		end = m.playHead + 1
	}
	out := make([]float64, 0, end)
	for _, h := range m.history[:end] {
		if m.Axis < len(h.State) {
			out = append(out, h.State[m.Axis])
		}
	}
	return out
}

func (m *Model) draw(snap Snapshot) {
	m.canvas.Clear()
	switch m.name {
	case "pitch":
		m.drawRocket(snap)
	default:
		m.drawBars(snap.State)
	}
}

// drawRocket draws the airframe at its pitch angle, displaced by drift,
// with the canard deflection at the nose.
func (m *Model) drawRocket(snap Snapshot) {
	x := snap.State
	if len(x) < 3 {
		return
	}
	w, h := m.canvas.Dots()
	cx := w/2 + int(math.Max(-float64(w)/3, math.Min(float64(w)/3, x[0]*20)))
	cy := h / 2

	// vertical reference
	for y := 0; y < h; y += 3 {
		m.canvas.Set(w/2, y)
	}

	theta := x[2]
	const body = 24.0
	tx, ty := m.canvas.DrawRay(cx, cy, theta+math.Pi, body)
	nx, ny := m.canvas.DrawRay(cx, cy, theta, body)

	// tail fins
	m.canvas.DrawRay(tx, ty, theta+math.Pi+0.6, 6)
	m.canvas.DrawRay(tx, ty, theta+math.Pi-0.6, 6)

	if len(snap.Control) > 0 {
		fin := snap.Control[0]
		m.canvas.DrawRay(nx, ny, theta+math.Pi/2+fin, 4)
		m.canvas.DrawRay(nx, ny, theta-math.Pi/2+fin, 4)
	}
}

// drawBars draws each state component as a vertical bar about the midline.
func (m *Model) drawBars(x dynamo.State) {
	w, h := m.canvas.Dots()
	cy := h / 2
	barWidth, gap := 8, 4
	startX := (w - len(x)*(barWidth+gap)) / 2
	m.canvas.DrawLine(0, cy, w-1, cy)
	for i, v := range x {
		bh := max(-cy, min(cy, int(v*10)))
		bx := startX + i*(barWidth+gap)
		lo, hi := cy-bh, cy
		if bh < 0 {
			lo, hi = cy, cy-bh
		}
		for y := lo; y <= hi; y++ {
			m.canvas.DrawLine(bx, y, bx+barWidth-1, y)
		}
	}
}
