package nameutil

import (
	"math/rand"
	"path/filepath"
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var LowerCaser = cases.Lower(language.English)
var TitleCaser = cases.Title(language.English)

var nonKeyChars = regexp.MustCompile(`[^a-z0-9-]+`)
var dashRuns = regexp.MustCompile(`-{2,}`)

const keySuffixAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

// Slug turns free text like a product name into a URL-safe lowercase slug.
func Slug(text string) string {
	slug := LowerCaser.String(strings.TrimSpace(text))
	slug = strings.ReplaceAll(slug, " ", "-")
	slug = nonKeyChars.ReplaceAllString(slug, "")
	slug = dashRuns.ReplaceAllString(slug, "-")
	slug = strings.Trim(slug, "-")
	if slug == "" {
		return "item"
	}
	if len(slug) > 60 {
		slug = strings.Trim(slug[:60], "-")
	}
	return slug
}

// RandomSuffix returns a short random tail to keep object keys unique
// without leaking anything about their contents.
func RandomSuffix(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = keySuffixAlphabet[rand.Intn(len(keySuffixAlphabet))]
	}
	return string(b)
}

// ObjectKey builds a storage key from a filename: slugged base name, random
// suffix, original extension preserved when it looks like one.
func ObjectKey(fileName string) string {
	ext := strings.ToLower(filepath.Ext(fileName))
	base := strings.TrimSuffix(fileName, filepath.Ext(fileName))
	if len(ext) > 6 {
		ext = ""
	}
	return Slug(base) + "-" + RandomSuffix(8) + ext
}
