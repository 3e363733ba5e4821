package tui

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/san-kum/robosim/internal/geom"
	"github.com/san-kum/robosim/internal/render"
	"github.com/san-kum/robosim/internal/sim"
)

var (
	cyan    = lipgloss.NewStyle().Foreground(lipgloss.Color("86"))
	white   = lipgloss.NewStyle().Foreground(lipgloss.Color("255"))
	dim     = lipgloss.NewStyle().Foreground(lipgloss.Color("242"))
	dimmer  = lipgloss.NewStyle().Foreground(lipgloss.Color("238"))
	green   = lipgloss.NewStyle().Foreground(lipgloss.Color("82"))
	yellow  = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
	red     = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	magenta = lipgloss.NewStyle().Foreground(lipgloss.Color("213"))
)

const historyLen = 60

type model struct {
	sim   *sim.Simulator
	title string

	paused bool
	done   bool
	err    error
	speed  float64

	last     sim.Frame
	selected int
	// history holds recent linear speeds of the selected robot.
	history   []float64
	lastFrame time.Time
	fps       float64

	width  int
	height int
}

func newModel(s *sim.Simulator, title string) model {
	return model{
		sim:     s,
		title:   title,
		speed:   1.0,
		history: make([]float64, 0, historyLen),
		width:   80,
		height:  24,
	}
}

type tickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(16*time.Millisecond, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m model) Init() tea.Cmd { return tick() }

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case tickMsg:
		if !m.paused && !m.done {
			now := time.Now()
			if !m.lastFrame.IsZero() {
				if dt := now.Sub(m.lastFrame).Seconds(); dt > 0 {
					m.fps = 1.0 / dt
				}
			}
			m.lastFrame = now
			steps := int(m.speed)
			if steps < 1 {
				steps = 1
			}
			for i := 0; i < steps && !m.done; i++ {
				m.step()
			}
		}
		return m, tick()
	}
	return m, nil
}

func (m model) handleKey(msg tea.KeyMsg) (model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c", "esc":
		return m, tea.Quit
	case " ", "p":
		m.paused = !m.paused
	case "s", ".":
		if m.paused && !m.done {
			m.step()
		}
	case "r":
		m.reset()
		return m, tea.ClearScreen
	case "tab":
		if n := len(m.last.Robots); n > 0 {
			m.selected = (m.selected + 1) % n
			m.history = m.history[:0]
		}
	case "+", "=":
		m.speed = math.Min(m.speed*2, 16)
	case "-", "_":
		m.speed = math.Max(m.speed/2, 0.25)
	case "0":
		m.speed = 1.0
	}
	return m, nil
}

func (m *model) step() {
	frame, err := m.sim.Step()
	m.last = frame
	if m.selected < len(frame.Robots) {
		if cmd := frame.Robots[m.selected].Command; len(cmd) > 0 {
			m.history = append(m.history, commandSpeed(cmd))
			if len(m.history) > historyLen {
				m.history = m.history[1:]
			}
		}
	}
	if err != nil {
		m.err = err
		m.done = true
		return
	}
	if m.sim.Time() >= m.sim.Config().Duration-m.sim.Config().Dt/2 {
		m.done = true
	}
}

func (m *model) reset() {
	if err := m.sim.Reset(); err != nil {
		m.err = err
		m.done = true
		return
	}
	m.last = sim.Frame{}
	m.history = m.history[:0]
	m.err = nil
	m.done = false
	m.speed = 1.0
	m.lastFrame = time.Time{}
}

// commandSpeed is the mean magnitude of a command vector's first two entries.
func commandSpeed(cmd []float64) float64 {
	if len(cmd) == 1 {
		return math.Abs(cmd[0])
	}
	return (math.Abs(cmd[0]) + math.Abs(cmd[1])) / 2
}

func (m model) View() string {
	cw := m.width - 6
	ch := m.height - 10 - len(m.last.Robots)
	if cw < 40 {
		cw = 40
	}
	if ch < 10 {
		ch = 10
	}

	var b strings.Builder

	statusIcon := green.Render("●")
	statusText := green.Render("running")
	switch {
	case m.err != nil && errors.Is(m.err, sim.ErrCollision):
		statusIcon, statusText = red.Render("✕"), red.Render("collision")
	case m.err != nil:
		statusIcon, statusText = red.Render("✕"), red.Render("error")
	case m.done:
		statusIcon, statusText = dim.Render("■"), dim.Render("finished")
	case m.paused:
		statusIcon, statusText = yellow.Render("○"), yellow.Render("paused")
	}
	b.WriteString(fmt.Sprintf("\n   %s %s  %s\n", statusIcon, cyan.Render(m.title), statusText))

	duration := m.sim.Config().Duration
	progress := math.Min(m.sim.Time()/duration, 1)
	barWidth := 36
	filled := int(progress * float64(barWidth))
	timeStr := fmt.Sprintf("%.1fs/%.0fs", m.sim.Time(), duration)
	bar := cyan.Render(strings.Repeat("━", filled)) + dimmer.Render(strings.Repeat("─", barWidth-filled))
	b.WriteString(fmt.Sprintf("   %s %s  %s  %s\n\n", bar, dim.Render(timeStr),
		dim.Render(fmt.Sprintf("x%g", m.speed)), dim.Render(fmt.Sprintf("%.0ffps", m.fps))))

	for _, line := range strings.Split(strings.TrimRight(m.canvas(cw, ch).String(), "\n"), "\n") {
		b.WriteString("   " + line + "\n")
	}
	b.WriteString("\n")

	for i, r := range m.last.Robots {
		marker := "  "
		name := dim.Render(fmt.Sprintf("%-10s", r.Name))
		if i == m.selected {
			marker = cyan.Render("▸ ")
			name = white.Render(fmt.Sprintf("%-10s", r.Name))
		}
		state := magenta.Render(fmt.Sprintf("%-16s", r.State))
		if r.Collided {
			state = red.Render(fmt.Sprintf("%-16s", "collided"))
		}
		b.WriteString(fmt.Sprintf("   %s%s %s %s\n", marker, name, state,
			dim.Render(fmt.Sprintf("x=%.2f y=%.2f θ=%.2f", r.Pose.X, r.Pose.Y, r.Pose.Theta))))
		if r.Error != "" {
			b.WriteString("     " + red.Render(r.Error) + "\n")
		}
	}

	if len(m.history) > 1 {
		b.WriteString(fmt.Sprintf("   %s %s\n", dim.Render("|u|"), cyan.Render(sparkline(m.history, 24))))
	}
	if m.err != nil {
		b.WriteString("   " + red.Render(m.err.Error()) + "\n")
	}

	b.WriteString("\n" + dim.Render("   space pause  s step  ±speed  tab robot  r reset  q quit") + "\n")

	return b.String()
}

// canvas draws the world framed around its obstacles and robots.
func (m model) canvas(w, h int) *render.Canvas {
	var extra []geom.Point
	for _, a := range m.sim.Agents() {
		extra = append(extra, a.Pose().Position())
	}
	lo, hi := m.sim.World().Bounds(extra...)
	const margin = 0.2
	lo = geom.Point{X: lo.X - margin, Y: lo.Y - margin}
	hi = geom.Point{X: hi.X + margin, Y: hi.Y + margin}

	c := render.NewCanvas(w, h, lo, hi)
	m.sim.Draw(c)
	return c
}

func sparkline(data []float64, width int) string {
	if len(data) == 0 {
		return ""
	}
	chars := []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}
	minVal, maxVal := data[0], data[0]
	for _, v := range data {
		minVal = math.Min(minVal, v)
		maxVal = math.Max(maxVal, v)
	}
	rang := maxVal - minVal
	if rang == 0 {
		rang = 1
	}
	start := 0
	if len(data) > width {
		start = len(data) - width
	}
	var sb strings.Builder
	for _, v := range data[start:] {
		idx := int((v - minVal) / rang * 7)
		idx = max(0, min(idx, 7))
		sb.WriteRune(chars[idx])
	}
	return sb.String()
}

// Run shows s in an interactive full-screen view until the user quits.
func Run(s *sim.Simulator, title string) error {
	p := tea.NewProgram(newModel(s, title), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
