package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// timer schedules one-shot ticks for a single purpose. Starting or
// stopping it bumps the generation, so ticks from an earlier start are
// recognized as stale and ignored.
type timer struct {
	gen int
}

func (t *timer) start(d time.Duration, msg func(gen int) tea.Msg) tea.Cmd {
	t.gen++
	gen := t.gen
	return tea.Tick(d, func(time.Time) tea.Msg { return msg(gen) })
}

func (t *timer) stop() {
	t.gen++
}

func (t *timer) current(gen int) bool {
	return gen == t.gen
}
