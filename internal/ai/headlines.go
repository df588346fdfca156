package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/IDAN2468D/NovaNews/internal/classify"
	"github.com/IDAN2468D/NovaNews/internal/config"
	"github.com/IDAN2468D/NovaNews/internal/feed"
)

const (
	headlinesSearchLimit   = 10
	headlinesResearchLimit = 25
)

// ErrNoImageSupport is returned by providers that cannot look at images.
var ErrNoImageSupport = errors.New("image analysis needs an AI provider")

// Headlines answers from configured RSS feeds instead of a model. It
// emits the same JSON shape a model would so the normalizer treats both
// alike.
type Headlines struct {
	fetcher feed.Fetcher
	sources []config.Source
	now     func() time.Time
}

func NewHeadlines(fetcher feed.Fetcher, sources []config.Source) *Headlines {
	return &Headlines{fetcher: fetcher, sources: sources, now: time.Now}
}

func (h *Headlines) Search(ctx context.Context, topic string) (Response, error) {
	return h.collect(ctx, topic, headlinesSearchLimit)
}

func (h *Headlines) Research(ctx context.Context, topic string) (Response, error) {
	return h.collect(ctx, topic, headlinesResearchLimit)
}

func (h *Headlines) AnalyzeImage(context.Context, []byte, string) (Response, error) {
	return Response{}, ErrNoImageSupport
}

type headlineRecord struct {
	Title       string `json:"title"`
	Summary     string `json:"summary"`
	Category    string `json:"category"`
	PublishedAt string `json:"publishedAt"`
	SourceName  string `json:"sourceName"`
}

func (h *Headlines) collect(ctx context.Context, topic string, limit int) (Response, error) {
	if len(h.sources) == 0 {
		return Response{}, fmt.Errorf("no enabled feed sources: %w", ErrNotConfigured)
	}

	res := feed.FetchAll(ctx, h.fetcher, h.sources)
	if len(res.Items) == 0 && len(res.Errors) > 0 {
		return Response{}, fmt.Errorf("fetching headlines: %w", errors.Join(res.Errors...))
	}

	items := feed.Match(res.Items, topic)
	if len(items) > limit {
		items = items[:limit]
	}

	now := h.now()
	records := make([]headlineRecord, 0, len(items))
	links := make([]string, 0, len(items))
	for _, it := range items {
		records = append(records, headlineRecord{
			Title:       it.Title,
			Summary:     it.Description,
			Category:    string(classify.General),
			PublishedAt: relativeTime(now, it.Published),
			SourceName:  it.Source,
		})
		links = append(links, it.Link)
	}

	data, err := json.Marshal(records)
	if err != nil {
		return Response{}, err
	}
	return Response{Text: string(data), Links: links}, nil
}

func relativeTime(now, t time.Time) string {
	d := now.Sub(t)
	switch {
	case d < time.Minute:
		return "עכשיו"
	case d < time.Hour:
		return fmt.Sprintf("לפני %d דקות", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("לפני %d שעות", int(d.Hours()))
	default:
		return fmt.Sprintf("לפני %d ימים", int(d.Hours()/24))
	}
}
