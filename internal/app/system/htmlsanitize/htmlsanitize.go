// Package htmlsanitize strips markup from text that arrives from the school
// system scraper (subject names, assignment titles, user names) so that only
// plain text is stored.
package htmlsanitize

import (
	"html"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

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

// PlainText removes every HTML element, decodes entities and collapses runs
// of whitespace to single spaces. Templates escape the result on output.
func PlainText(s string) string {
	if s == "" {
		return ""
	}
	stripped := html.UnescapeString(getPolicy().Sanitize(s))
	return strings.Join(strings.Fields(stripped), " ")
}

// IsPlainText reports whether s looks free of markup.
func IsPlainText(s string) bool {
	return !strings.Contains(s, "<") || !strings.Contains(s, ">")
}
