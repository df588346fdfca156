package normalize

import (
	"strconv"
	"strings"

	"github.com/IDAN2468D/NovaNews/internal/classify"
	"github.com/IDAN2468D/NovaNews/internal/news"
)

// Outcome tags a Result.
type Outcome int

const (
	Unparseable Outcome = iota
	Empty
	OK
)

func (o Outcome) String() string {
	switch o {
	case OK:
		return "ok"
	case Empty:
		return "empty"
	default:
		return "unparseable"
	}
}

// Result is the outcome of normalizing one response. Articles is non-empty
// only when Outcome is OK.
type Result struct {
	Outcome  Outcome
	Articles []news.Article
}

// LinkMode selects how grounding links are zipped onto records.
type LinkMode int

const (
	// LinksByIndex gives record i link i, and no grounding link past the end.
	LinksByIndex LinkMode = iota
	// LinksCycle gives record i link i mod len(links).
	LinksCycle
)

// listKeys are the object keys checked for a nested article array.
var listKeys = []string{"news", "articles", "items", "results"}

// Articles normalizes raw into article records and attaches links.
func Articles(raw string, links []string, mode LinkMode) Result {
	return GroundedArticles(raw, links, nil, mode)
}

// GroundedArticles is Articles with sources[i] naming the publisher of
// links[i]. A missing or empty source is derived from the link.
func GroundedArticles(raw string, links, sources []string, mode LinkMode) Result {
	if strings.TrimSpace(raw) == "" {
		return Result{Outcome: Empty}
	}
	v, ok := Parse(raw)
	if !ok {
		return Result{Outcome: Unparseable}
	}

	var articles []news.Article
	for _, el := range elements(v) {
		obj, ok := el.(map[string]any)
		if !ok {
			continue
		}
		articles = append(articles, toArticle(obj))
	}
	if len(articles) == 0 {
		return Result{Outcome: Empty}
	}

	assignLinks(articles, links, sources, mode)
	return Result{Outcome: OK, Articles: articles}
}

// Image normalizes an image-analysis response into at most one record.
func Image(raw string) Result {
	res := Articles(raw, nil, LinksByIndex)
	if res.Outcome != OK {
		return res
	}
	a := res.Articles[0]
	a.SourceURL = ""
	a.SourceName = news.ImageSourceName
	return Result{Outcome: OK, Articles: []news.Article{a}}
}

func elements(v any) []any {
	switch t := v.(type) {
	case []any:
		return t
	case map[string]any:
		for _, k := range listKeys {
			if list, ok := t[k].([]any); ok {
				return list
			}
		}
		return []any{t}
	}
	return nil
}

func assignLinks(articles []news.Article, links, sources []string, mode LinkMode) {
	if len(links) == 0 {
		return
	}
	for i := range articles {
		j := i
		switch mode {
		case LinksCycle:
			j = i % len(links)
		default:
			if i >= len(links) {
				continue
			}
		}
		name := ""
		if j < len(sources) {
			name = sources[j]
		}
		articles[i] = articles[i].WithSource(links[j], name)
	}
}

func toArticle(obj map[string]any) news.Article {
	a := news.Article{
		Title:       field(obj, "title", "headline"),
		Summary:     field(obj, "summary", "description", "content"),
		Category:    classify.Normalize(field(obj, "category")),
		PublishedAt: field(obj, "publishedAt", "published_at", "time", "date"),
		SourceURL:   field(obj, "sourceUrl", "source_url", "url", "link"),
		SourceName:  field(obj, "sourceName", "source_name", "source"),
		Priority:    news.ParsePriority(field(obj, "priority")),
	}
	if a.SourceURL != "" && a.SourceName == "" {
		a.SourceName = news.SourceName(a.SourceURL)
	}
	return a
}

// field returns the first key present in obj as a string. Numbers and
// booleans are formatted; nested values count as missing.
func field(obj map[string]any, keys ...string) string {
	for _, k := range keys {
		v, ok := obj[k]
		if !ok {
			continue
		}
		switch t := v.(type) {
		case string:
			return strings.TrimSpace(t)
		case float64:
			return strconv.FormatFloat(t, 'f', -1, 64)
		case bool:
			return strconv.FormatBool(t)
		}
	}
	return ""
}
