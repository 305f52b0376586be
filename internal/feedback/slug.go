package feedback

import (
	"regexp"
	"strings"
)

var (
	slugDisallowed = regexp.MustCompile(`[^a-z0-9\s-]+`)
	slugWhitespace = regexp.MustCompile(`\s+`)
	slugHyphens    = regexp.MustCompile(`-+`)
)

// DeriveSlug turns a title into a URL-safe slug: lower-cased, stripped of everything but
// letters, digits, whitespace and hyphens, whitespace runs and hyphen runs collapsed to a single
// hyphen, and leading or trailing hyphens trimmed. DeriveSlug(DeriveSlug(s)) == DeriveSlug(s).
func DeriveSlug(input string) string {
	lower := strings.ToLower(input)
	cleaned := slugDisallowed.ReplaceAllString(lower, "")
	hyphenated := slugWhitespace.ReplaceAllString(cleaned, "-")
	collapsed := slugHyphens.ReplaceAllString(hyphenated, "-")
	return strings.Trim(collapsed, "-")
}
