package site

import (
	"html"
	"html/template"

	"github.com/microcosm-cc/bluemonday"
)

// Portfolio copy may carry light inline formatting. Links are not allowed
// because linked project cards are already anchors.
//
//nolint:gochecknoglobals // policies are safe for concurrent use
var (
	inlinePolicy = bluemonday.NewPolicy().AllowElements("b", "strong", "i", "em", "code", "br")
	plainPolicy  = bluemonday.StrictPolicy()
)

// inlineHTML keeps the allowed formatting tags of s and drops the rest.
func inlineHTML(s string) template.HTML {
	return template.HTML(inlinePolicy.Sanitize(s)) //nolint:gosec // sanitized above
}

// plainText drops every tag of s, for attributes such as meta descriptions.
func plainText(s string) string {
	return html.UnescapeString(plainPolicy.Sanitize(s))
}
