package speech

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// DefaultCacheTTL is how long synthesized audio is kept in memory.
const DefaultCacheTTL = 24 * time.Hour

// Cached memoizes audio per voice and text.
type Cached struct {
	next  Speaker
	cache *gocache.Cache
}

func NewCached(next Speaker, ttl time.Duration) *Cached {
	return &Cached{next: next, cache: gocache.New(ttl, ttl/2)}
}

func (c *Cached) Speak(ctx context.Context, text, voice string) ([]byte, error) {
	text = Truncate(text)
	key := cacheKey(text, voice)
	if v, ok := c.cache.Get(key); ok {
		return v.([]byte), nil
	}
	audio, err := c.next.Speak(ctx, text, voice)
	if err != nil {
		return nil, err
	}
	c.cache.SetDefault(key, audio)
	return audio, nil
}

func cacheKey(text, voice string) string {
	h := sha256.Sum256([]byte(voice + "\x00" + text))
	return hex.EncodeToString(h[:])
}
