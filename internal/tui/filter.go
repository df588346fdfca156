package tui

import (
	"strings"

	"github.com/IDAN2468D/NovaNews/internal/classify"
	"github.com/charmbracelet/lipgloss"
)

// filterBar holds the category tabs. Index 0 is "all".
type filterBar struct {
	categories []classify.Category
	cursor     int
}

func newFilterBar() filterBar {
	return filterBar{categories: append([]classify.Category{""}, classify.AllCategories()...)}
}

func (f *filterBar) moveLeft() {
	if f.cursor > 0 {
		f.cursor--
	}
}

func (f *filterBar) moveRight() {
	if f.cursor < len(f.categories)-1 {
		f.cursor++
	}
}

func (f filterBar) selected() classify.Category {
	return f.categories[f.cursor]
}

// sync moves the cursor onto the active category.
func (f *filterBar) sync(active classify.Category) {
	for i, c := range f.categories {
		if c == active {
			f.cursor = i
			return
		}
	}
	f.cursor = 0
}

func categoryLabel(c classify.Category) string {
	if c == "" {
		return "הכל"
	}
	return classify.Label(c)
}

func (f filterBar) View(active classify.Category, editing bool, width int) string {
	var tabs []string
	for i, c := range f.categories {
		label := categoryLabel(c)
		switch {
		case editing && i == f.cursor:
			tabs = append(tabs, tabActiveStyle.Render("["+label+"]"))
		case c == active:
			tabs = append(tabs, tabActiveStyle.Render(label))
		default:
			tabs = append(tabs, tabInactiveStyle.Render(label))
		}
	}

	sep := tabSeparatorStyle.Render(" ")
	bar := " " + strings.Join(tabs, sep)
	return lipgloss.NewStyle().Width(width).Render(bar)
}
