package cache

import (
	"time"

	"github.com/IDAN2468D/NovaNews/internal/news"
)

// Article is a cached record together with the topic it was fetched for.
type Article struct {
	news.Article
	ID        string
	Topic     string
	Position  int
	FetchedAt time.Time
}

type QueryOpts struct {
	Topic    string
	Since    time.Time
	Search   string
	Category string
	Limit    int
}
