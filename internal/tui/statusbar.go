package tui

import (
	"fmt"

	"github.com/IDAN2468D/NovaNews/internal/classify"
	"github.com/IDAN2468D/NovaNews/internal/schedule"
	"github.com/charmbracelet/lipgloss"
)

func modeLabel(m schedule.Mode) string {
	switch m {
	case schedule.Fast:
		return "רענון מהיר"
	case schedule.Hourly:
		return "רענון שעתי"
	case schedule.Daily:
		return "רענון יומי"
	default:
		return "רענון כבוי"
	}
}

// formatCountdown renders seconds as m:ss, or h:mm:ss from an hour up.
func formatCountdown(secs int) string {
	if secs < 0 {
		secs = 0
	}
	h, m, s := secs/3600, secs/60%60, secs%60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}

type headerInfo struct {
	topic     string
	mode      schedule.Mode
	remaining int
	status    string
	spinner   string
	updated   string
}

func renderHeader(h headerInfo, width int) string {
	left := headerStyle.Render("NovaNews") + headerMetaStyle.Render(" · "+h.topic)

	right := headerMetaStyle.Render(modeLabel(h.mode))
	if h.mode != schedule.Off {
		right += " " + countdownStyle.Render(formatCountdown(h.remaining))
	}
	if h.spinner != "" {
		right += "  " + spinnerStyle.Render(h.spinner) + " " + headerMetaStyle.Render(h.status)
	} else {
		right += headerMetaStyle.Render("  " + h.status + " · " + h.updated)
	}
	right += " "

	gap := width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 0 {
		gap = 0
	}
	return left + fmt.Sprintf("%*s", gap, "") + right
}

func renderStatusBar(articleCount int, category classify.Category, streak int, width int, hints string) string {
	streakAccentStyle := lipgloss.NewStyle().
		Foreground(colorAccent).
		Bold(true)

	left := fmt.Sprintf(" %d כתבות", articleCount)
	if category != "" {
		left += " · " + categoryLabel(category)
	}
	if streak >= 1 {
		left += fmt.Sprintf(" · %s %d", streakAccentStyle.Render("רצף"), streak)
	}

	right := " " + hints + " "

	gap := width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 0 {
		gap = 0
	}

	bar := left + fmt.Sprintf("%*s", gap, "") + right

	return statusBarStyle.Width(width).Render(bar)
}
