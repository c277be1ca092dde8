// Package amenity turns free-text requests into feature-store tag values.
package amenity

import "strings"

// TriggerPhrases are stripped from requests before the synonym lookup. They
// are also the phrases that route an utterance to the nearby search.
var TriggerPhrases = []string{"find nearest", "nearby", "where is", "find"}

// synonyms maps common request terms to OSM tag values.
var synonyms = map[string]string{
	"restaurant":  "restaurant",
	"hospital":    "hospital",
	"pharmacy":    "pharmacy",
	"atm":         "atm",
	"bank":        "bank",
	"cafe":        "cafe",
	"school":      "school",
	"gas station": "fuel",
	"police":      "police",
	"parking":     "parking",
}

// Normalize lower-cases raw, removes the first occurrence of each trigger
// phrase and maps the remainder through the synonym table. Unknown terms
// pass through trimmed.
//
// Removal is substring based, so a trigger embedded in a longer word is
// removed too ("nearbyshop" becomes "shop").
func Normalize(raw string) string {
	keyword := strings.ToLower(raw)
	for _, phrase := range TriggerPhrases {
		keyword = strings.TrimSpace(strings.Replace(keyword, phrase, "", 1))
	}
	if tag, ok := synonyms[keyword]; ok {
		return tag
	}
	return keyword
}

// Matches reports whether text contains any trigger phrase.
func Matches(text string) bool {
	lower := strings.ToLower(text)
	for _, phrase := range TriggerPhrases {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	return false
}
