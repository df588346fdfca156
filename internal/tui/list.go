package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/IDAN2468D/NovaNews/internal/classify"
	"github.com/IDAN2468D/NovaNews/internal/news"
)

// ago renders how long before now t was, in Hebrew.
func ago(t, now time.Time) string {
	if t.IsZero() {
		return "טרם עודכן"
	}
	d := now.Sub(t)
	switch {
	case d < time.Minute:
		return "עכשיו"
	case d < time.Hour:
		return fmt.Sprintf("לפני %d דק׳", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("לפני %d שע׳", int(d.Hours()))
	default:
		return t.Format("02/01 15:04")
	}
}

func renderListItem(a news.Article, selected bool, width int) string {
	if width < 10 {
		width = 30
	}

	marker := "  "
	if a.Priority == news.PriorityHigh {
		marker = priorityHighStyle.Render("! ")
	}

	var title string
	if selected {
		title = itemSelectedStyle.Render("> " + truncateStr(a.Title, width-4))
	} else {
		title = marker + itemTitleStyle.Render(truncateStr(a.Title, width-4))
	}

	meta := "  " + itemSourceStyle.Render(classify.Label(a.Category))
	if a.SourceName != "" {
		meta += " " + itemTimeStyle.Render("· "+a.SourceName)
	}
	if a.PublishedAt != "" {
		meta += " " + itemTimeStyle.Render("· "+a.PublishedAt)
	}

	return title + "\n" + meta
}

func truncateStr(s string, n int) string {
	if n <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	if n <= 3 {
		return string(runes[:n])
	}
	return string(runes[:n-3]) + "..."
}

// visibleRange returns the [start, end) window of n items of the given
// height that keeps cursor on screen.
func visibleRange(n, cursor, height, itemHeight int) (int, int) {
	visible := height / itemHeight
	if visible < 1 {
		visible = 1
	}
	start := 0
	if cursor >= visible {
		start = cursor - visible + 1
	}
	end := start + visible
	if end > n {
		end = n
		start = end - visible
		if start < 0 {
			start = 0
		}
	}
	return start, end
}

func renderList(articles []news.Article, cursor int, height int, width int) string {
	if len(articles) == 0 {
		return lipglossCenter("אין כתבות להצגה", width, height)
	}

	// Each item is 2 lines + 1 blank line = 3 lines
	start, end := visibleRange(len(articles), cursor, height, 3)

	var b strings.Builder
	for i := start; i < end; i++ {
		b.WriteString(renderListItem(articles[i], i == cursor, width))
		if i < end-1 {
			b.WriteString("\n")
		}
	}

	return b.String()
}

func lipglossCenter(s string, width, height int) string {
	pad := (width - len([]rune(s))) / 2
	if pad < 0 {
		pad = 0
	}
	return strings.Repeat("\n", height/3) + strings.Repeat(" ", pad) + s
}
