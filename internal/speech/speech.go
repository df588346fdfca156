// Package speech turns article text into audio and plays it.
package speech

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/IDAN2468D/NovaNews/internal/config"
	"github.com/IDAN2468D/NovaNews/internal/news"
)

// MaxRunes is the longest text sent for synthesis.
const MaxRunes = 1500

var (
	// ErrNoAudio is returned when the service answered without audio data.
	ErrNoAudio = errors.New("no audio in speech response")
	// ErrDisabled is returned by New when speech is turned off in config.
	ErrDisabled = errors.New("speech disabled")
)

// Speaker synthesizes speech. The returned bytes are a complete audio
// file (WAV or MP3).
type Speaker interface {
	Speak(ctx context.Context, text, voice string) ([]byte, error)
}

// New creates the Speaker selected in cfg, wrapped in an in-memory cache.
func New(ctx context.Context, cfg *config.Config) (Speaker, error) {
	var (
		s   Speaker
		err error
	)
	switch cfg.Speech.Provider {
	case "none":
		return nil, ErrDisabled
	case "gcloud":
		s, err = newGCloud(ctx, cfg.Speech.APIKey)
	case "gemini", "":
		key := cfg.SpeechKey()
		if key == "" {
			return nil, fmt.Errorf("gemini speech needs an API key: %w", ErrDisabled)
		}
		s, err = newGemini(ctx, key, "")
	default:
		return nil, fmt.Errorf("unknown speech provider %q", cfg.Speech.Provider)
	}
	if err != nil {
		return nil, err
	}
	return NewCached(s, DefaultCacheTTL), nil
}

// Truncate shortens text to at most MaxRunes runes.
func Truncate(text string) string {
	runes := []rune(text)
	if len(runes) <= MaxRunes {
		return text
	}
	return string(runes[:MaxRunes])
}

// ArticleText is what gets read aloud for an article.
func ArticleText(a news.Article) string {
	title := strings.TrimSpace(a.Title)
	summary := strings.TrimSpace(a.Summary)
	switch {
	case title == "":
		return summary
	case summary == "":
		return title
	case strings.HasSuffix(title, ".") || strings.HasSuffix(title, "?") || strings.HasSuffix(title, "!"):
		return title + " " + summary
	default:
		return title + ". " + summary
	}
}
