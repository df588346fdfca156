// Package ai implements the fetch collaborators: services that search for
// news about a topic, research it in depth or describe a news image, and
// return free-form text for the normalizer.
package ai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/IDAN2468D/NovaNews/internal/classify"
	"github.com/IDAN2468D/NovaNews/internal/config"
	"github.com/IDAN2468D/NovaNews/internal/feed"
)

var (
	// ErrNotConfigured is returned when the selected provider has no API key.
	ErrNotConfigured = errors.New("AI not configured")
	// ErrEmptyResponse is returned when the service answered with no text.
	ErrEmptyResponse = errors.New("empty AI response")
)

// Response is the raw collaborator output. Links are grounding URLs in
// the order the service reported them.
type Response struct {
	Text  string
	Links []string
	// Sources names the publisher of Links[i] when the provider knows it
	// better than the link's host does, and is "" otherwise.
	Sources []string
}

// Provider fetches news text for the dashboard.
type Provider interface {
	Search(ctx context.Context, topic string) (Response, error)
	Research(ctx context.Context, topic string) (Response, error)
	AnalyzeImage(ctx context.Context, data []byte, mime string) (Response, error)
}

// New creates the Provider selected in cfg.
func New(ctx context.Context, cfg *config.Config) (Provider, error) {
	if cfg == nil {
		return nil, ErrNotConfigured
	}
	if cfg.AI.Provider == "headlines" {
		return NewHeadlines(feed.NewRSSFetcher(), cfg.EnabledSources()), nil
	}

	apiKey := cfg.AIKey()
	if apiKey == "" {
		return nil, ErrNotConfigured
	}

	switch cfg.AI.Provider {
	case "gemini", "":
		return newGemini(ctx, apiKey, modelOr(cfg.AI.Model, "gemini-2.5-flash"), cfg.AI.BaseURL)
	case "openai":
		return newOpenAI(apiKey, modelOr(cfg.AI.Model, "gpt-4o-mini"), cfg.AI.BaseURL), nil
	case "claude":
		return &claudeProvider{
			apiKey:  apiKey,
			model:   modelOr(cfg.AI.Model, "claude-haiku-4-5-20251001"),
			baseURL: strings.TrimRight(orDefault(cfg.AI.BaseURL, "https://api.anthropic.com"), "/"),
			client:  &http.Client{Timeout: 90 * time.Second},
		}, nil
	default:
		return nil, fmt.Errorf("unknown AI provider: %q (valid: gemini, openai, claude, headlines)", cfg.AI.Provider)
	}
}

func modelOr(model, def string) string {
	return orDefault(model, def)
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

const recordShape = `Each item is an object with the fields:
"title", "summary" (2-3 sentences), "category" (one of: %s), "publishedAt" (a short relative time such as "לפני שעתיים"), "sourceUrl" and "priority" (High, Medium or Low).
Write title and summary in Hebrew. Respond with ONLY a JSON array, no prose.`

const searchPrompt = `Find the 6 most important current news stories about: %s

` + recordShape

const researchPrompt = `Research the topic "%s" in depth using several independent sources. Return 8 items covering background, the latest developments, analysis and what to watch next.

` + recordShape

const imagePrompt = `This image is a news photo or a screenshot of a news item. Describe the news event it shows.
Respond with ONLY one JSON object with the fields "title", "summary" (3-4 sentences), "category" (one of: %s) and "publishedAt" (use "עכשיו" when unknown). Write in Hebrew.`

func categoryList() string {
	names := make([]string, 0, len(classify.AllCategories()))
	for _, c := range classify.AllCategories() {
		names = append(names, string(c))
	}
	return strings.Join(names, ", ")
}

func searchText(topic string) string {
	return fmt.Sprintf(searchPrompt, topic, categoryList())
}

func researchText(topic string) string {
	return fmt.Sprintf(researchPrompt, topic, categoryList())
}

func imageText() string {
	return fmt.Sprintf(imagePrompt, categoryList())
}
