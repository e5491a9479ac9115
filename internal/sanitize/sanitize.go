// Package sanitize strips markup from user-supplied text before it is stored.
// Recipe names and descriptions and profile names are plain text in
// Foodgram; any HTML a client submits is removed with a bluemonday strict
// policy so nothing executable ever reaches a browser that renders it.
package sanitize

import (
	"html"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

// policy is the shared strict policy, built on first use.
var (
	policy     *bluemonday.Policy
	policyOnce sync.Once
)

func getPolicy() *bluemonday.Policy {
	policyOnce.Do(func() {
		policy = bluemonday.StrictPolicy()
	})
	return policy
}

// Text removes all HTML tags from input and trims surrounding whitespace.
// bluemonday escapes the characters it keeps, so the result is unescaped
// back to plain text; "Salt & pepper" stays "Salt & pepper".
func Text(input string) string {
	if input == "" {
		return ""
	}
	cleaned := getPolicy().Sanitize(input)
	return strings.TrimSpace(html.UnescapeString(cleaned))
}
