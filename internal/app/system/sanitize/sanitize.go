// Package sanitize strips markup from free-text input fields. Request notes
// and hospital names/addresses are stored and later rendered by API clients,
// so anything that looks like HTML is removed outright.
package sanitize

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var policy = bluemonday.StrictPolicy()

// Text removes all HTML from s and trims surrounding whitespace.
func Text(s string) string {
	return strings.TrimSpace(policy.Sanitize(s))
}
