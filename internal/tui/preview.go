package tui

import (
	"fmt"
	"strings"

	"github.com/IDAN2468D/NovaNews/internal/classify"
	"github.com/IDAN2468D/NovaNews/internal/digest"
	"github.com/IDAN2468D/NovaNews/internal/news"
	"github.com/charmbracelet/lipgloss"
)

func articleMeta(a *news.Article) string {
	parts := []string{classify.Label(a.Category)}
	if a.SourceName != "" {
		parts = append(parts, a.SourceName)
	}
	if a.PublishedAt != "" {
		parts = append(parts, a.PublishedAt)
	}
	parts = append(parts, fmt.Sprintf("%d דק׳ קריאה", digest.ReadingTime(a.Summary)))
	return strings.Join(parts, " · ")
}

func renderPreview(article *news.Article, width, height, scroll int) string {
	if article == nil {
		return lipglossCenter("בחרו כתבה", width, height)
	}

	contentWidth := width - 2
	if contentWidth < 10 {
		contentWidth = 10
	}

	title := previewTitleStyle.Width(contentWidth).Render(article.Title)
	source := previewSourceStyle.Render(articleMeta(article))

	desc := article.Summary
	if desc == "" {
		desc = "(אין תקציר)"
	}

	body := previewBodyStyle.Width(contentWidth).Render(wrapText(desc, contentWidth))
	parts := []string{title, source, "", body}
	if article.SourceURL != "" {
		parts = append(parts, "", previewLinkStyle.Width(contentWidth).Render("למקור: "+article.SourceURL))
	}

	content := lipgloss.JoinVertical(lipgloss.Left, parts...)
	return clip(content, height, scroll)
}

// clip applies a scroll offset and pads or cuts content to height lines.
func clip(content string, height, scroll int) string {
	lines := strings.Split(content, "\n")
	if scroll > 0 && scroll < len(lines) {
		lines = lines[scroll:]
	}

	if len(lines) < height {
		lines = append(lines, make([]string, height-len(lines))...)
	} else if len(lines) > height {
		lines = lines[:height]
	}

	return strings.Join(lines, "\n")
}

func wrapText(s string, width int) string {
	if width <= 0 {
		return s
	}
	words := strings.Fields(s)
	if len(words) == 0 {
		return ""
	}

	var lines []string
	line := words[0]
	for _, w := range words[1:] {
		if len([]rune(line))+1+len([]rune(w)) > width {
			lines = append(lines, line)
			line = w
		} else {
			line += " " + w
		}
	}
	lines = append(lines, line)
	return strings.Join(lines, "\n")
}

// renderFocus shows a single article as a centered card.
func renderFocus(article *news.Article, index, total, width, height int) string {
	if article == nil {
		return lipglossCenter("אין כתבות להצגה", width, height)
	}

	cardWidth := width * 2 / 3
	if cardWidth < 40 {
		cardWidth = width - 4
	}
	inner := cardWidth - 8

	counter := helpDimStyle.Render(fmt.Sprintf("%d / %d", index+1, total))
	title := previewTitleStyle.Width(inner).Render(article.Title)
	meta := previewSourceStyle.Render(articleMeta(article))
	body := previewBodyStyle.Width(inner).Render(wrapText(article.Summary, inner))

	card := focusCardStyle.Width(cardWidth).Render(
		lipgloss.JoinVertical(lipgloss.Left, counter, "", title, meta, body),
	)
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, card)
}
