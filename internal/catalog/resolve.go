package catalog

import (
	"strings"

	"github.com/zapfield/zapfield/internal/models"
)

// accentReplacer folds the accented characters that appear in Portuguese
// catalog names. Full Unicode folding is overkill for menu labels.
var accentReplacer = strings.NewReplacer(
	"á", "a", "à", "a", "â", "a", "ã", "a",
	"é", "e", "ê", "e",
	"í", "i",
	"ó", "o", "ô", "o", "õ", "o",
	"ú", "u", "ü", "u",
	"ç", "c",
)

// Normalize lowercases and strips accents for name comparisons.
func Normalize(s string) string {
	return accentReplacer.Replace(strings.ToLower(strings.TrimSpace(s)))
}

// nameMatches reports whether the entry name contains the query,
// case- and accent-insensitively.
func nameMatches(name, query string) bool {
	q := Normalize(query)
	if q == "" {
		return false
	}
	return strings.Contains(Normalize(name), q)
}

// ResolveCategory finds the first category whose name contains the query.
// Input order is catalog order, so first match is the documented tie-break.
func ResolveCategory(cats []models.Category, query string) (*models.Category, bool) {
	for i := range cats {
		if nameMatches(cats[i].Name, query) {
			return &cats[i], true
		}
	}
	return nil, false
}

// ResolveSubcategory finds the first subcategory whose name contains the query.
func ResolveSubcategory(subs []models.Subcategory, query string) (*models.Subcategory, bool) {
	for i := range subs {
		if nameMatches(subs[i].Name, query) {
			return &subs[i], true
		}
	}
	return nil, false
}

// ResolveItem finds the first item whose name contains the query.
func ResolveItem(items []models.Item, query string) (*models.Item, bool) {
	for i := range items {
		if nameMatches(items[i].Name, query) {
			return &items[i], true
		}
	}
	return nil, false
}
