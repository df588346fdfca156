// Package digest renders article lists for the clipboard, JSON export and
// the home-screen overview.
package digest

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/IDAN2468D/NovaNews/internal/classify"
	"github.com/IDAN2468D/NovaNews/internal/news"
)

// Text builds the clipboard digest: a numbered title line per article,
// the link on its own line when present, and a blank line between
// articles.
func Text(articles []news.Article) string {
	var sb strings.Builder
	for i, a := range articles {
		if i > 0 {
			sb.WriteString("\n")
		}
		fmt.Fprintf(&sb, "%d. %s\n", i+1, a.Title)
		if a.SourceURL != "" {
			sb.WriteString(a.SourceURL)
			sb.WriteString("\n")
		}
	}
	return sb.String()
}

// FileName is the export file name for the given day.
func FileName(now time.Time) string {
	return "novanews-" + now.Format("2006-01-02") + ".json"
}

// Export writes articles as an indented JSON array to dir and returns the
// file path. An existing export for the same day is overwritten.
func Export(dir string, articles []news.Article, now time.Time) (string, error) {
	if articles == nil {
		articles = []news.Article{}
	}
	data, err := json.MarshalIndent(articles, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encoding export: %w", err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating export dir: %w", err)
	}
	path := filepath.Join(dir, FileName(now))
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return "", fmt.Errorf("writing export: %w", err)
	}
	return path, nil
}

// Overview is the summary line set shown on the home screen.
type Overview struct {
	Greeting   string
	Count      int
	Categories string
	Sources    string
}

func NewOverview(articles []news.Article, now time.Time) Overview {
	o := Overview{Greeting: greeting(now), Count: len(articles)}
	if len(articles) == 0 {
		return o
	}

	cats := make([]string, 0, len(articles))
	srcs := make([]string, 0, len(articles))
	for _, a := range articles {
		cats = append(cats, classify.Label(a.Category))
		if a.SourceName != "" {
			srcs = append(srcs, a.SourceName)
		}
	}
	o.Categories = topCounts(cats, 3)
	o.Sources = topCounts(srcs, 3)
	return o
}

// ReadingTime estimates minutes to read text at 200 words per minute,
// never less than one.
func ReadingTime(text string) int {
	minutes := len(strings.Fields(text)) / 200
	if minutes < 1 {
		minutes = 1
	}
	return minutes
}

func greeting(now time.Time) string {
	hour := now.Hour()
	switch {
	case hour < 12:
		return "בוקר טוב"
	case hour < 17:
		return "צהריים טובים"
	default:
		return "ערב טוב"
	}
}

// topCounts returns the limit most frequent values as "name (n)" joined
// by commas. Ties keep first-seen order.
func topCounts(values []string, limit int) string {
	counts := map[string]int{}
	var order []string
	for _, v := range values {
		if counts[v] == 0 {
			order = append(order, v)
		}
		counts[v]++
	}

	sort.SliceStable(order, func(i, j int) bool {
		return counts[order[i]] > counts[order[j]]
	})
	if len(order) > limit {
		order = order[:limit]
	}

	parts := make([]string, len(order))
	for i, name := range order {
		parts[i] = fmt.Sprintf("%s (%d)", name, counts[name])
	}
	return strings.Join(parts, ", ")
}
