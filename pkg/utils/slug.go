package utils

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	// multipleSpaces matches runs of literal spaces only, tabs and newlines are left alone.
	multipleSpaces = regexp.MustCompile(` +`)
	// nonWord matches runs of anything that cannot appear in a slug.
	nonWord = regexp.MustCompile(`[^a-z0-9_]+`)
)

// asciiFolder decomposes compatibility characters and drops everything outside ASCII,
// so "Ñandú" becomes "Nandu".
var asciiFolder = transform.Chain( //nolint:gochecknoglobals // -
	norm.NFKD,
	runes.Remove(runes.Predicate(func(r rune) bool { return r > unicode.MaxASCII })),
)

// CleanName collapses repeated spaces and trims the result.
// An empty name becomes "-" so that every entity has something to display.
func CleanName(s string) string {
	s = strings.TrimSpace(multipleSpaces.ReplaceAllString(s, " "))
	if s == "" {
		return "-"
	}
	return s
}

// Slugify returns the URL slug for a display name. Letters are folded to lowercase
// ASCII and every run of other characters becomes a single dash.
func Slugify(s string) string {
	folded, _, err := transform.String(asciiFolder, CleanName(s))
	if err != nil {
		folded = s
	}

	slug := nonWord.ReplaceAllString(strings.ToLower(folded), " ")
	slug = strings.Join(strings.Fields(slug), "-")
	if slug == "" {
		return "-"
	}
	return slug
}

// CleanSlug returns both the cleaned display name and its slug.
func CleanSlug(s string) (string, string) {
	name := CleanName(s)
	return name, Slugify(name)
}

// Truncate cuts s to at most n runes.
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
