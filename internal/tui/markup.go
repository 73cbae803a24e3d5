package tui

import (
	"regexp"
	"strings"
)

var (
	breakTag    = regexp.MustCompile(`(?i)<br\s*/?>`)
	boldTag     = regexp.MustCompile(`(?is)<b>(.*?)</b>`)
	supTag      = regexp.MustCompile(`(?is)<sup>(.*?)</sup>`)
	anyTag      = regexp.MustCompile(`<[^>]+>`)
	blankSpaces = regexp.MustCompile(`[ \t]+`)
)

// flattenMarkup turns the small set of tags used in factor descriptions into
// terminal text. Bold spans go through bold; superscripts become ^text.
func flattenMarkup(body string, bold func(string) string) string {
	if bold == nil {
		bold = func(s string) string { return s }
	}
	out := breakTag.ReplaceAllString(body, "\n")
	out = boldTag.ReplaceAllStringFunc(out, func(m string) string {
		return bold(boldTag.FindStringSubmatch(m)[1])
	})
	out = supTag.ReplaceAllString(out, "^$1")
	out = anyTag.ReplaceAllString(out, "")
	lines := strings.Split(out, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(blankSpaces.ReplaceAllString(line, " "))
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}
