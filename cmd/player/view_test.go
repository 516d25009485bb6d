package player

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/gigurra/cornwall-player/cmd/player/meter"
	"github.com/gigurra/cornwall-player/cmd/player/output"
	"github.com/gigurra/cornwall-player/cmd/player/project"
	"github.com/gigurra/cornwall-player/cmd/player/status"
	"github.com/gigurra/cornwall-player/cmd/player/transport"
)

type testClock struct {
	now time.Time
}

func (c *testClock) Now() time.Time { return c.now }

func newTestModel(t *testing.T, looping bool) (model, *testClock, string) {
	t.Helper()
	stateDir := t.TempDir()
	tc := &testClock{now: time.Unix(1_700_000_000, 0)}
	levels := &meter.Levels{
		Left:  []float64{0.1, 0.2},
		Right: []float64{0.3, 0.4},
		Chunk: 500 * time.Millisecond,
	}
	clock := transport.New(
		transport.Source{Path: "/songs/mix.wav", Duration: time.Second},
		project.Project{Name: "folk jam", BPM: 120, SampleRate: 44100, TimeSig: "4/4"},
		output.Silent{},
		levels,
		status.NewPublisher(stateDir),
		transport.Options{Looping: looping, Now: tc.Now},
	)
	tracks := []project.Track{
		{ID: 1, Name: "Fiddle", Volume: 0.8, Pan: -0.5, Solo: true},
		{ID: 2, Name: "Bodhrán with a very long name", Volume: 1, Mute: true},
	}
	return newModel(clock, tracks, 33*time.Millisecond), tc, stateDir
}

func press(m model, key tea.KeyMsg) (model, tea.Cmd) {
	next, cmd := m.Update(key)
	return next.(model), cmd
}

func runeKey(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

func TestModel_SpaceTogglesPlayback(t *testing.T) {
	m, _, stateDir := newTestModel(t, true)

	m, _ = press(m, tea.KeyMsg{Type: tea.KeySpace})
	if !m.clock.Playing() {
		t.Fatalf("expected playing after space")
	}

	m, _ = press(m, tea.KeyMsg{Type: tea.KeySpace})
	if m.clock.Playing() {
		t.Fatalf("expected stopped after second space")
	}
	if _, active := status.Read(stateDir); active {
		t.Errorf("status file should be cleared after stop")
	}
}

func TestModel_QuitKeys(t *testing.T) {
	for _, key := range []tea.KeyMsg{runeKey('q'), {Type: tea.KeyEsc}, {Type: tea.KeyCtrlC}} {
		m, _, _ := newTestModel(t, true)
		_, cmd := press(m, key)
		if cmd == nil {
			t.Errorf("%q: expected quit command", key.String())
			continue
		}
		if _, ok := cmd().(tea.QuitMsg); !ok {
			t.Errorf("%q: expected tea.QuitMsg", key.String())
		}
	}
}

func TestModel_LoopKeys(t *testing.T) {
	m, _, _ := newTestModel(t, true)

	m, _ = press(m, runeKey('l'))
	if m.clock.Looping() {
		t.Errorf("expected loop off after l")
	}
	m, _ = press(m, runeKey('L'))
	if !m.clock.Looping() {
		t.Errorf("expected loop on after L")
	}
}

func TestModel_TickPublishesAndFinishes(t *testing.T) {
	m, tc, stateDir := newTestModel(t, false)
	m, _ = press(m, tea.KeyMsg{Type: tea.KeySpace})

	tc.now = tc.now.Add(600 * time.Millisecond)
	next, cmd := m.Update(tickMsg(tc.now))
	m = next.(model)
	if cmd == nil {
		t.Fatalf("expected next tick to be scheduled")
	}
	s, active := status.Read(stateDir)
	if !active || !s.Playing {
		t.Fatalf("expected a published playing status, got %+v active=%v", s, active)
	}
	if s.LevelL != 0.2 || s.LevelR != 0.4 {
		t.Errorf("levels = %v/%v, want 0.2/0.4", s.LevelL, s.LevelR)
	}

	tc.now = tc.now.Add(time.Second)
	next, _ = m.Update(tickMsg(tc.now))
	m = next.(model)
	if m.clock.Playing() || !m.finished {
		t.Errorf("expected finished and stopped, playing=%v finished=%v", m.clock.Playing(), m.finished)
	}
	if _, active := status.Read(stateDir); active {
		t.Errorf("status file should be cleared at the end")
	}
}

func TestModel_WindowSize(t *testing.T) {
	m, _, _ := newTestModel(t, true)
	next, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	if next.(model).width != 100 {
		t.Errorf("width = %d, want 100", next.(model).width)
	}
}

func TestView(t *testing.T) {
	m, _, _ := newTestModel(t, true)
	view := m.View()

	for _, want := range []string{
		"FOLK JAM",
		"STOPPED",
		"BAR   1 . 1",
		"00:00.0",
		"120 BPM",
		"4/4",
		"Fiddle",
		"(empty)",
		"loop ◆",
	} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q:\n%s", want, view)
		}
	}

	m, _ = press(m, tea.KeyMsg{Type: tea.KeySpace})
	if view := m.View(); !strings.Contains(view, "PLAYING") {
		t.Errorf("view should show PLAYING after space:\n%s", view)
	}
}

func TestRenderMeter(t *testing.T) {
	tests := []struct {
		level float64
		width int
		full  int
	}{
		{0, 10, 0},
		{0.1, 10, 3},
		{0.5, 10, 10},
		{1, 10, 10},
	}
	for _, tt := range tests {
		got := renderMeter(tt.level, tt.width)
		if n := strings.Count(got, "█"); n != tt.full {
			t.Errorf("renderMeter(%v, %d) has %d filled cells, want %d", tt.level, tt.width, n, tt.full)
		}
		if n := strings.Count(got, "█") + strings.Count(got, "░"); n != tt.width {
			t.Errorf("renderMeter(%v, %d) has %d cells, want %d", tt.level, tt.width, n, tt.width)
		}
	}
}

func TestRenderTrack(t *testing.T) {
	got := renderTrack(project.Track{ID: 3, Name: "Bodhrán with a very long name", Volume: 1, Pan: 0.5, Mute: true})
	if !strings.Contains(got, " M ") {
		t.Errorf("expected mute badge in %q", got)
	}
	if !strings.Contains(got, "…") {
		t.Errorf("expected truncated name in %q", got)
	}
	if !strings.Contains(got, "vol 1.0") || !strings.Contains(got, "pan 0.5") {
		t.Errorf("expected volume and pan in %q", got)
	}
}
