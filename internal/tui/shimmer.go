package tui

import (
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// shimmerTickMsg is sent when the shimmer should advance
type shimmerTickMsg struct{ gen int }

// Shimmer sweeps a highlight across the title of the card being dragged
type Shimmer struct {
	interval time.Duration
	width    int // highlighted runes
	pos      int
	active   bool
	reduced  bool
	gen      int
}

// NewShimmer returns an idle shimmer. TASKBOARD_REDUCE_MOTION=1 renders a
// static highlight instead.
func NewShimmer() *Shimmer {
	return &Shimmer{
		interval: 90 * time.Millisecond,
		width:    4,
		reduced:  os.Getenv("TASKBOARD_REDUCE_MOTION") == "1",
	}
}

// Start resets the sweep and returns the first tick, or nil when already running
func (s *Shimmer) Start() tea.Cmd {
	if s.active {
		return nil
	}
	s.active = true
	s.pos = 0
	s.gen++
	if s.reduced {
		return nil
	}
	return s.tick()
}

// Stop ends the animation; the next tick is dropped
func (s *Shimmer) Stop() {
	s.active = false
}

// Advance moves the highlight and schedules the next tick. Ticks from an
// earlier Start are dropped.
func (s *Shimmer) Advance(msg shimmerTickMsg) tea.Cmd {
	if !s.active || s.reduced || msg.gen != s.gen {
		return nil
	}
	s.pos++
	return s.tick()
}

func (s *Shimmer) tick() tea.Cmd {
	gen := s.gen
	return tea.Tick(s.interval, func(time.Time) tea.Msg { return shimmerTickMsg{gen: gen} })
}

// Render draws text with the highlight at the current position
func (s *Shimmer) Render(text string, base lipgloss.Style) string {
	if !s.active {
		return base.Render(text)
	}
	bright := base.Foreground(lipgloss.Color(ColorAccentBright)).Bold(true)
	if s.reduced {
		return bright.Render(text)
	}

	runes := []rune(text)
	if len(runes) == 0 {
		return ""
	}
	// sweep past the end so the highlight fully leaves before wrapping
	cycle := len(runes) + s.width
	start := s.pos%cycle - s.width
	var b strings.Builder
	for i, r := range runes {
		if i >= start && i < start+s.width {
			b.WriteString(bright.Render(string(r)))
		} else {
			b.WriteString(base.Render(string(r)))
		}
	}
	return b.String()
}
