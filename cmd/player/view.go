package player

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/gigurra/cornwall-player/cmd/player/project"
	"github.com/gigurra/cornwall-player/cmd/player/transport"
	"github.com/mattn/go-runewidth"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15"))
	ruleStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	keyStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15"))
	playingStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("0")).Background(lipgloss.Color("46"))
	stoppedStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15")).Background(lipgloss.Color("240"))
	barStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("51"))
	clockStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("15"))
	progressDone = lipgloss.NewStyle().Foreground(lipgloss.Color("51"))
	meterGreen   = lipgloss.NewStyle().Foreground(lipgloss.Color("46"))
	meterYellow  = lipgloss.NewStyle().Foreground(lipgloss.Color("226"))
	meterRed     = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	soloStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("0")).Background(lipgloss.Color("226"))
	muteStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("0")).Background(lipgloss.Color("196"))
	loopOnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("51"))
	finishStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
)

const (
	defaultWidth   = 80
	trackNameWidth = 16
	// Levels are scaled up so typical program material fills a visible part of the bar.
	meterGain = 3.0
)

type tickMsg time.Time

type model struct {
	clock    *transport.Clock
	tracks   []project.Track
	tick     time.Duration
	width    int
	finished bool
	err      error
}

func newModel(clock *transport.Clock, tracks []project.Track, tick time.Duration) model {
	return model{
		clock:  clock,
		tracks: tracks,
		tick:   tick,
	}
}

func (m model) Init() tea.Cmd {
	return tickCmd(m.tick)
}

func tickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case " ":
			m.finished = false
			if err := m.clock.TogglePlay(); err != nil {
				m.err = err
				return m, tea.Quit
			}
		case "q", "esc", "ctrl+c":
			return m, tea.Quit
		case "l", "L":
			m.clock.ToggleLoop()
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width

	case tickMsg:
		wasPlaying := m.clock.Playing()
		if err := m.clock.Tick(); err != nil {
			m.err = err
			return m, tea.Quit
		}
		if wasPlaying && !m.clock.Playing() {
			m.finished = true
		}
		return m, tickCmd(m.tick)
	}

	return m, nil
}

func (m model) View() string {
	width := m.width
	if width < 20 {
		width = defaultWidth
	}
	rule := ruleStyle.Render(strings.Repeat("─", width))

	var b strings.Builder

	// Header
	proj := m.clock.Project()
	b.WriteString(titleStyle.Render("  C O R N W A L L   ─   " + strings.ToUpper(proj.Name)))
	b.WriteString("\n")
	b.WriteString(rule)
	b.WriteString("\n\n")

	// Transport
	b.WriteString(m.renderTransportLine())
	b.WriteString("\n\n")
	b.WriteString(renderProgress(m.clock.Progress(), m.clock.Playing(), width-4))
	b.WriteString("\n")
	b.WriteString(rule)
	b.WriteString("\n\n")

	// Meters
	left, right := m.clock.Levels()
	meterWidth := max(1, width-8)
	b.WriteString(dimStyle.Render("  L "))
	b.WriteString(renderMeter(left, meterWidth))
	b.WriteString("\n\n")
	b.WriteString(dimStyle.Render("  R "))
	b.WriteString(renderMeter(right, meterWidth))
	b.WriteString("\n")
	b.WriteString(rule)
	b.WriteString("\n\n")

	// Tracks
	for _, t := range m.tracks {
		b.WriteString(renderTrack(t))
		b.WriteString("\n")
	}
	b.WriteString(rule)
	b.WriteString("\n")

	// Footer
	b.WriteString(keyStyle.Render("  SPACE"))
	b.WriteString(dimStyle.Render(" play/stop"))
	b.WriteString(keyStyle.Render("    q"))
	b.WriteString(dimStyle.Render(" quit"))
	b.WriteString(keyStyle.Render("    L"))
	if m.clock.Looping() {
		b.WriteString(loopOnStyle.Render(" loop ◆"))
	} else {
		b.WriteString(dimStyle.Render(" loop ◇"))
	}
	if m.finished {
		b.WriteString(finishStyle.Render("    finished"))
	}
	b.WriteString("\n")

	return b.String()
}

func (m model) renderTransportLine() string {
	var b strings.Builder
	if m.clock.Playing() {
		b.WriteString(playingStyle.Render("  ▶ PLAYING "))
	} else {
		b.WriteString(stoppedStyle.Render("  ■ STOPPED "))
	}
	b.WriteString("  ")

	bar, beat := m.clock.BarBeat()
	b.WriteString(barStyle.Render(fmt.Sprintf("  BAR %3d . %d   ", bar, beat)))
	b.WriteString(clockStyle.Render(transport.FormatClock(m.clock.Position())))

	proj := m.clock.Project()
	b.WriteString(dimStyle.Render(fmt.Sprintf("  %g BPM  %s  ", proj.BPM, proj.TimeSig)))
	return b.String()
}

func renderProgress(progress float64, playing bool, width int) string {
	width = max(1, width)
	filled := int(progress * float64(width))

	var b strings.Builder
	b.WriteString("  ")
	for i := 0; i < width; i++ {
		switch {
		case i < filled:
			b.WriteString(progressDone.Render("━"))
		case i == filled && playing:
			b.WriteString(clockStyle.Render("╸"))
		default:
			b.WriteString(ruleStyle.Render("─"))
		}
	}
	return b.String()
}

func renderMeter(level float64, width int) string {
	filled := int(min(level*meterGain, 1) * float64(width))

	var b strings.Builder
	for i := 0; i < width; i++ {
		if i >= filled {
			b.WriteString(ruleStyle.Render("░"))
			continue
		}
		ratio := float64(i) / float64(width)
		switch {
		case ratio < 0.6:
			b.WriteString(meterGreen.Render("█"))
		case ratio < 0.85:
			b.WriteString(meterYellow.Render("█"))
		default:
			b.WriteString(meterRed.Render("█"))
		}
	}
	return b.String()
}

func renderTrack(t project.Track) string {
	badge := "   "
	switch {
	case t.Solo:
		badge = soloStyle.Render(" S ")
	case t.Mute:
		badge = muteStyle.Render(" M ")
	}

	name := runewidth.FillRight(runewidth.Truncate(t.Name, trackNameWidth, "…"), trackNameWidth)

	return dimStyle.Render(fmt.Sprintf("  %2d ", t.ID)) +
		badge + " " +
		titleStyle.UnsetBold().Render(name) +
		dimStyle.Render(fmt.Sprintf("  vol %-4s", fmt.Sprintf("%.1f", t.Volume))) +
		dimStyle.Render(fmt.Sprintf("  pan %-5s", fmt.Sprintf("%.1f", t.Pan))) +
		dimStyle.Render("  "+t.SourceName())
}
