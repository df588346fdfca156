package news

import (
	"net/url"
	"strings"

	"github.com/IDAN2468D/NovaNews/internal/classify"
	"golang.org/x/net/publicsuffix"
)

// Priority is the collaborator-supplied importance of an article.
type Priority string

const (
	PriorityHigh   Priority = "High"
	PriorityMedium Priority = "Medium"
	PriorityLow    Priority = "Low"
)

// ParsePriority returns the matching Priority, or "" for anything else.
func ParsePriority(raw string) Priority {
	for _, p := range []Priority{PriorityHigh, PriorityMedium, PriorityLow} {
		if strings.EqualFold(strings.TrimSpace(raw), string(p)) {
			return p
		}
	}
	return ""
}

// ImageSourceName labels records produced by image analysis.
const ImageSourceName = "Image analysis"

// Article is a single news record as shown on the dashboard.
type Article struct {
	Title       string            `json:"title"`
	Summary     string            `json:"summary"`
	Category    classify.Category `json:"category"`
	PublishedAt string            `json:"publishedAt"`
	SourceURL   string            `json:"sourceUrl,omitempty"`
	SourceName  string            `json:"sourceName,omitempty"`
	Priority    Priority          `json:"priority,omitempty"`
}

// WithLink sets the source URL and derives the source name from it.
func (a Article) WithLink(link string) Article {
	a.SourceURL = link
	a.SourceName = SourceName(link)
	return a
}

// WithSource is WithLink with a known publisher name. An empty name falls
// back to the name derived from link.
func (a Article) WithSource(link, name string) Article {
	a = a.WithLink(link)
	if name = strings.TrimSpace(name); name != "" {
		a.SourceName = strings.TrimPrefix(strings.ToLower(name), "www.")
	}
	return a
}

// SourceName returns the registrable domain of rawURL ("bbc.co.uk" for
// "https://www.bbc.co.uk/news"), or "" when it has no host.
func SourceName(rawURL string) string {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || u.Hostname() == "" {
		return ""
	}
	host := strings.ToLower(u.Hostname())
	domain, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil {
		return strings.TrimPrefix(host, "www.")
	}
	return domain
}
