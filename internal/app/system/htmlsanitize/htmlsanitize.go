// internal/app/system/htmlsanitize/htmlsanitize.go

// Package htmlsanitize strips dangerous markup from user-supplied rich text
// before it is stored. Descriptions may carry simple formatting; everything
// else (scripts, event handlers, javascript: URLs) is removed.
package htmlsanitize

import "github.com/microcosm-cc/bluemonday"

var (
	policy = bluemonday.UGCPolicy()
	strict = bluemonday.StrictPolicy()
)

// Sanitize returns s with unsafe HTML removed. Safe formatting tags,
// links (with rel="nofollow" enforced), and tables survive.
func Sanitize(s string) string {
	return policy.Sanitize(s)
}

// Strip removes all markup. Used for plain-text fields such as titles,
// poll options, and participant names.
func Strip(s string) string {
	return strict.Sanitize(s)
}
