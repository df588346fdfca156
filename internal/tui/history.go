package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

const confirmWindowSeconds = 3

// historyPane lists recent topics. Picking the topic already on screen
// must be repeated within the confirmation window before it re-runs.
type historyPane struct {
	cursor  int
	pending string
	confirm timer
}

func (h *historyPane) clamp(n int) {
	if h.cursor >= n {
		h.cursor = n - 1
	}
	if h.cursor < 0 {
		h.cursor = 0
	}
}

// choose reports whether topic should be searched now. A first pick of
// current arms the confirmation and returns false.
func (h *historyPane) choose(topic, current string) bool {
	if topic != current || h.pending == topic {
		h.pending = ""
		h.confirm.stop()
		return true
	}
	h.pending = topic
	return false
}

func (h *historyPane) expire(gen int) {
	if h.confirm.current(gen) {
		h.pending = ""
	}
}

func renderHistory(history []string, cursor int, pending string, width, height int) string {
	if len(history) == 0 {
		return lipglossCenter("אין היסטוריית חיפוש", width, height)
	}

	start, end := visibleRange(len(history), cursor, height-2, 1)

	var lines []string
	lines = append(lines, headerStyle.Render("חיפושים אחרונים"), "")
	for i := start; i < end; i++ {
		item := truncateStr(history[i], width-6)
		if i == cursor {
			lines = append(lines, historySelectedStyle.Render("> "+item))
		} else {
			lines = append(lines, historyItemStyle.Render("  "+item))
		}
	}
	if pending != "" {
		lines = append(lines, "", noticeStyle.Render("לחצו שוב על enter כדי לרענן את הנושא הנוכחי"))
	}

	return lipgloss.NewStyle().Width(width).Height(height).Render(strings.Join(lines, "\n"))
}
