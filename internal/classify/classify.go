package classify

import (
	"fmt"
	"sort"
	"strings"
)

// Category is one of the fixed article labels.
type Category string

const (
	Politics      Category = "Politics"
	Technology    Category = "Technology"
	Sports        Category = "Sports"
	Economy       Category = "Economy"
	Health        Category = "Health"
	Entertainment Category = "Entertainment"
	Science       Category = "Science"
	World         Category = "World"
	General       Category = "General"
)

// AllCategories returns all valid categories in canonical order.
func AllCategories() []Category {
	return []Category{Politics, Technology, Sports, Economy, Health, Entertainment, Science, World, General}
}

// hebrewLabels are the display labels the model is asked to echo back.
var hebrewLabels = map[Category]string{
	Politics:      "פוליטיקה",
	Technology:    "טכנולוגיה",
	Sports:        "ספורט",
	Economy:       "כלכלה",
	Health:        "בריאות",
	Entertainment: "בידור",
	Science:       "מדע",
	World:         "עולם",
	General:       "כללי",
}

// Label returns the Hebrew display label for a category.
func Label(c Category) string {
	if l, ok := hebrewLabels[c]; ok {
		return l
	}
	return hebrewLabels[General]
}

// Normalize maps a raw category value to a Category. Only the canonical
// English names (any case) and the Hebrew labels are recognized; anything
// else, including the empty string, is General.
func Normalize(raw string) Category {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return General
	}
	for _, cat := range AllCategories() {
		if strings.EqualFold(string(cat), raw) || hebrewLabels[cat] == raw {
			return cat
		}
	}
	return General
}

// FilterAliases maps short CLI flags to full category names.
var FilterAliases = map[string]Category{
	"politics": Politics,
	"tech":     Technology,
	"sports":   Sports,
	"econ":     Economy,
	"business": Economy,
	"health":   Health,
	"fun":      Entertainment,
	"science":  Science,
	"world":    World,
	"general":  General,
}

// ResolveAlias maps a CLI alias to a Category.
func ResolveAlias(alias string) (Category, error) {
	alias = strings.ToLower(strings.TrimSpace(alias))
	if cat, ok := FilterAliases[alias]; ok {
		return cat, nil
	}
	// Also accept full category names (case-insensitive)
	for _, cat := range AllCategories() {
		if strings.EqualFold(string(cat), alias) {
			return cat, nil
		}
	}
	valid := make([]string, 0, len(FilterAliases))
	for k := range FilterAliases {
		valid = append(valid, k)
	}
	sort.Strings(valid)
	return "", fmt.Errorf("unknown category %q (valid: %s)", alias, strings.Join(valid, ", "))
}
