// Package sanitize turns user input into plain text before it is stored.
// Repositories assume their input went through here.
package sanitize

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// strict drops every tag. A Policy is safe for concurrent use once built and
// must not be changed afterwards.
var strict = func() *bluemonday.Policy {
	p := bluemonday.StrictPolicy()
	p.AddSpaceWhenStrippingTag(true)
	return p
}()

func plain(s string) string {
	s = html.UnescapeString(strict.Sanitize(s))
	return strings.ReplaceAll(s, "\u00a0", " ")
}

// Line is for single-line fields such as note titles and category names:
// markup is stripped and all whitespace, line breaks included, collapses to
// single spaces.
func Line(s string) string {
	return strings.Join(strings.Fields(plain(s)), " ")
}

// Content is for note bodies: markup is stripped but indentation and blank
// lines survive. Trailing whitespace is dropped.
func Content(s string) string {
	lines := strings.Split(plain(s), "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t\r")
	}
	return strings.TrimRight(strings.Join(lines, "\n"), "\n")
}
