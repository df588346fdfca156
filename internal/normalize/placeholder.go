package normalize

import (
	"github.com/IDAN2468D/NovaNews/internal/classify"
	"github.com/IDAN2468D/NovaNews/internal/news"
)

const (
	parseFailedTitle   = "שגיאה בעיבוד הנתונים"
	parseFailedSummary = "לא הצלחנו לפענח את התשובה שהתקבלה. נסו לחפש שוב."
	fetchFailedTitle   = "שגיאה בטעינת החדשות"
	fetchFailedSummary = "אירעה תקלה בעת הבאת החדשות. נסו שוב בעוד מספר רגעים."
	nowLabel           = "עכשיו"
)

// Placeholder is shown when a response could not be parsed.
func Placeholder() news.Article {
	return news.Article{
		Title:       parseFailedTitle,
		Summary:     parseFailedSummary,
		Category:    classify.General,
		PublishedAt: nowLabel,
	}
}

// ErrorPlaceholder is shown when the collaborator call itself failed.
func ErrorPlaceholder() news.Article {
	return news.Article{
		Title:       fetchFailedTitle,
		Summary:     fetchFailedSummary,
		Category:    classify.General,
		PublishedAt: nowLabel,
	}
}

// IsPlaceholder reports whether a was produced by Placeholder or
// ErrorPlaceholder.
func IsPlaceholder(a news.Article) bool {
	return a == Placeholder() || a == ErrorPlaceholder()
}

// OrPlaceholder returns the articles of r, a single Placeholder when r is
// Unparseable, and nil when it is Empty.
func (r Result) OrPlaceholder() []news.Article {
	switch r.Outcome {
	case OK:
		return r.Articles
	case Empty:
		return nil
	}
	return []news.Article{Placeholder()}
}
