// Package htmlsanitize strips markup from user-supplied labels (file names,
// display names) before they are stored and echoed back to browsers.
package htmlsanitize

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// strict removes every tag and attribute.
var strict = bluemonday.StrictPolicy()

// maxPasses bounds re-sanitizing of entity-encoded markup.
const maxPasses = 4

// PlainText returns s with all HTML removed and surrounding whitespace trimmed.
// Entities are unescaped so "a & b" round-trips; the result is sanitized again
// until stable so encoded tags ("&lt;script&gt;") cannot come back as markup.
func PlainText(s string) string {
	out := s
	for range maxPasses {
		next := html.UnescapeString(strict.Sanitize(out))
		if next == out {
			return strings.TrimSpace(out)
		}
		out = next
	}
	// Still changing: keep it escaped.
	return strings.TrimSpace(strict.Sanitize(out))
}
