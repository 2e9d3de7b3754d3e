// Package textnorm cleans free-text symptom input and model output lines.
package textnorm

import "strings"

// noise is the list of bullet and markdown tokens stripped from a line.
// Order matters: "1." is removed before the line is trimmed.
var noise = strings.NewReplacer(
	"-", "",
	"*", "",
	"•", "",
	"1.", "",
	"2.", "",
	"3.", "",
	"4.", "",
)

// Clean removes noise tokens and surrounding whitespace but keeps the
// original casing, so entries shown to users read naturally.
func Clean(text string) string {
	return strings.TrimSpace(noise.Replace(strings.TrimSpace(text)))
}

// Normalize lower-cases text and removes noise tokens. It never fails;
// empty input yields empty output.
func Normalize(text string) string {
	return strings.ToLower(Clean(text))
}

// ContainsAny reports whether text contains any of the terms.
func ContainsAny(text string, terms []string) bool {
	for _, t := range terms {
		if t != "" && strings.Contains(text, t) {
			return true
		}
	}
	return false
}
