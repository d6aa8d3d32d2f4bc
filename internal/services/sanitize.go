package services

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// plainText strips every tag, dropping script and style bodies.
var plainText = bluemonday.StrictPolicy()

// sanitizeText reduces user input shown on public pages to trimmed plain
// text. Entities are decoded again so the stored value is not double-escaped
// when rendered.
func sanitizeText(s string) string {
	return strings.TrimSpace(html.UnescapeString(plainText.Sanitize(s)))
}
