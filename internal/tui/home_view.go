package tui

import (
	"fmt"
	"strings"

	"github.com/IDAN2468D/NovaNews/internal/digest"
	"github.com/charmbracelet/lipgloss"
)

var asciiLogo = []string{
	`███╗   ██╗ ██████╗ ██╗   ██╗ █████╗ `,
	`████╗  ██║██╔═══██╗██║   ██║██╔══██╗`,
	`██╔██╗ ██║██║   ██║██║   ██║███████║`,
	`██║╚██╗██║██║   ██║╚██╗ ██╔╝██╔══██║`,
	`██║ ╚████║╚██████╔╝ ╚████╔╝ ██║  ██║`,
	`╚═╝  ╚═══╝ ╚═════╝   ╚═══╝  ╚═╝  ╚═╝`,
}

func renderHomeScreen(width, height int, ov digest.Overview, topic string, streak int, updateVersion string) string {
	logoStyle := lipgloss.NewStyle().Foreground(colorAccent)
	keyStyle := lipgloss.NewStyle().Foreground(colorAccent).Bold(true)
	labelStyle := lipgloss.NewStyle().Foreground(colorText)
	dimStyle := lipgloss.NewStyle().Foreground(colorDim)

	var lines []string

	for _, l := range asciiLogo {
		lines = append(lines, logoStyle.Render(l))
	}
	lines = append(lines, "")
	lines = append(lines, "          "+labelStyle.Render(ov.Greeting))
	if ov.Count > 0 {
		lines = append(lines, "          "+dimStyle.Render(fmt.Sprintf("%d כתבות על \"%s\"", ov.Count, topic)))
		if ov.Categories != "" {
			lines = append(lines, "          "+dimStyle.Render("נושאים: "+ov.Categories))
		}
		if ov.Sources != "" {
			lines = append(lines, "          "+dimStyle.Render("מקורות: "+ov.Sources))
		}
	}
	if streak >= 1 {
		lines = append(lines, "          "+dimStyle.Render(fmt.Sprintf("רצף קריאה: %d ימים", streak)))
	}
	lines = append(lines, "")

	lines = append(lines, "          "+keyStyle.Render("[e]")+"  "+labelStyle.Render("לוח החדשות"))
	lines = append(lines, "          "+keyStyle.Render("[/]")+"  "+labelStyle.Render("חיפוש נושא"))
	lines = append(lines, "          "+keyStyle.Render("[H]")+"  "+labelStyle.Render("היסטוריה"))
	lines = append(lines, "")
	lines = append(lines, "          "+keyStyle.Render("[q]")+"  "+labelStyle.Render("יציאה"))

	if updateVersion != "" {
		lines = append(lines, "")
		lines = append(lines, "          "+logoStyle.Render("גרסה חדשה זמינה: v"+updateVersion))
	}

	content := strings.Join(lines, "\n")
	contentHeight := strings.Count(content, "\n") + 1

	topPad := (height - contentHeight) / 3
	if topPad < 0 {
		topPad = 0
	}

	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Top,
		strings.Repeat("\n", topPad)+content)
}
