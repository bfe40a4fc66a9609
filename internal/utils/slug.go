package utils

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/google/uuid"
)

// Slugify converts a display name into a URL-safe slug.
// "Kitchen Starter Set" -> "kitchen-starter-set"
func Slugify(name string) string {
	var b strings.Builder
	lastDash := true // suppress a leading dash
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			lastDash = false
		case !lastDash:
			b.WriteByte('-')
			lastDash = true
		}
	}
	return strings.TrimRight(b.String(), "-")
}

// SuffixSlug appends a numeric suffix for collision resolution.
// ("kitchen-starter-set", 2) -> "kitchen-starter-set-2"
func SuffixSlug(slug string, n int) string {
	return fmt.Sprintf("%s-%d", slug, n)
}

// GenerateSKU produces a unique SKU with the given prefix.
// Format: PREFIX-XXXXXXXX (uppercase hex from a random UUID).
func GenerateSKU(prefix string) string {
	raw := strings.ReplaceAll(uuid.NewString(), "-", "")
	return fmt.Sprintf("%s-%s", prefix, strings.ToUpper(raw[:8]))
}
