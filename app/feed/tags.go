package feed

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const MaxTagLength = 20

// NormalizeTags turns raw feed categories into at most max slug-like tags:
// lowercase, letters and digits only, MaxTagLength runes long, first
// occurrence wins.
func NormalizeTags(categories []string, max int) []string {
	if max <= 0 {
		return []string{}
	}

	lower := cases.Lower(language.Und)
	seen := make(map[string]bool, len(categories))
	tags := make([]string, 0, min(len(categories), max))

	for _, category := range categories {
		// Lowercasing first keeps the result stable under a second pass:
		// folding can emit combining marks that the filter then drops.
		tag := strings.Map(func(r rune) rune {
			if unicode.IsLetter(r) || unicode.IsDigit(r) {
				return r
			}
			return -1
		}, lower.String(strings.TrimSpace(category)))

		if runes := []rune(tag); len(runes) > MaxTagLength {
			tag = string(runes[:MaxTagLength])
		}

		if tag == "" || seen[tag] {
			continue
		}
		seen[tag] = true
		tags = append(tags, tag)

		if len(tags) == max {
			break
		}
	}

	return tags
}
