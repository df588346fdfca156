// Package feed fetches RSS and Atom headlines for the no-AI headlines
// provider.
package feed

import (
	"context"
	"fmt"
	"html"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/IDAN2468D/NovaNews/internal/config"
	"github.com/microcosm-cc/bluemonday"
	"github.com/mmcdole/gofeed"
	"golang.org/x/sync/errgroup"
)

const (
	maxAge        = 7 * 24 * time.Hour
	maxConcurrent = 4
)

type Item struct {
	Source      string
	Title       string
	Link        string
	Description string
	Published   time.Time
}

type Fetcher interface {
	Fetch(ctx context.Context, source config.Source) ([]Item, error)
}

type RSSFetcher struct {
	parser *gofeed.Parser
	now    func() time.Time
}

func NewRSSFetcher() *RSSFetcher {
	return &RSSFetcher{parser: gofeed.NewParser(), now: time.Now}
}

func (f *RSSFetcher) Fetch(ctx context.Context, source config.Source) ([]Item, error) {
	feed, err := f.parser.ParseURLWithContext(source.URL, ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", source.Name, err)
	}

	now := f.now()
	cutoff := now.Add(-maxAge)
	items := make([]Item, 0, len(feed.Items))
	for _, it := range feed.Items {
		pub := now
		if it.PublishedParsed != nil {
			pub = *it.PublishedParsed
		} else if it.UpdatedParsed != nil {
			pub = *it.UpdatedParsed
		}
		if pub.Before(cutoff) {
			continue
		}

		desc := it.Description
		if desc == "" {
			desc = it.Content
		}

		items = append(items, Item{
			Source:      source.Name,
			Title:       stripHTML(it.Title),
			Link:        it.Link,
			Description: truncate(stripHTML(desc), 300),
			Published:   pub,
		})
	}
	return items, nil
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	if n <= 3 {
		return string(runes[:n])
	}
	return string(runes[:n-3]) + "..."
}

var strict = func() *bluemonday.Policy {
	p := bluemonday.StrictPolicy()
	p.AddSpaceWhenStrippingTag(true)
	return p
}()

func stripHTML(s string) string {
	text := html.UnescapeString(strict.Sanitize(s))
	return strings.Join(strings.Fields(text), " ")
}

type FetchResult struct {
	Items  []Item
	Errors []error
}

// FetchAll fetches every source concurrently. A failing source is
// reported in Errors and does not affect the others. Items are sorted
// newest first.
func FetchAll(ctx context.Context, fetcher Fetcher, sources []config.Source) FetchResult {
	var (
		mu     sync.Mutex
		result FetchResult
	)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrent)
	for _, src := range sources {
		g.Go(func() error {
			items, err := fetcher.Fetch(ctx, src)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				result.Errors = append(result.Errors, err)
				return nil
			}
			result.Items = append(result.Items, items...)
			return nil
		})
	}
	_ = g.Wait()

	sort.SliceStable(result.Items, func(i, j int) bool {
		return result.Items[i].Published.After(result.Items[j].Published)
	})
	return result
}

// Match keeps items whose title or description mentions any word of
// topic. Words shorter than two runes are ignored; a topic with no usable
// words matches everything.
func Match(items []Item, topic string) []Item {
	var words []string
	for _, w := range strings.Fields(strings.ToLower(topic)) {
		if len([]rune(w)) >= 2 {
			words = append(words, w)
		}
	}
	if len(words) == 0 {
		return items
	}

	var out []Item
	for _, it := range items {
		text := strings.ToLower(it.Title + " " + it.Description)
		for _, w := range words {
			if strings.Contains(text, w) {
				out = append(out, it)
				break
			}
		}
	}
	return out
}
