package cleaner

import (
	"regexp"
	"strings"
	"unicode"
)

var (
	bareMarkerRe  = regexp.MustCompile(`^(?:[-•·*]|\d+\.|#+)$`)
	headingLineRe = regexp.MustCompile(`^#{1,6} \S`)
	multiSpaceRe  = regexp.MustCompile(`[ \t]{2,}`)
)

const fence = "```"

// Normalize cleans renderer output line by line: surrounding whitespace
// is trimmed, space runs squeezed, bare list markers and empty headings
// dropped, blank runs collapsed to one blank line and headings padded by
// one blank line. Lines inside ``` fences keep their content and only
// lose trailing whitespace. It returns "" when fewer than minWords words
// remain. Normalize(Normalize(s)) == Normalize(s).
func Normalize(text string, minWords int) string {
	var (
		out         []string
		blank       bool
		prevHeading bool
		inFence     bool
	)
	emit := func(line string, heading bool) {
		if len(out) > 0 && (blank || heading || prevHeading) {
			out = append(out, "")
		}
		out = append(out, line)
		blank, prevHeading = false, heading
	}

	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimFunc(line, unicode.IsSpace)
		if strings.HasPrefix(trimmed, fence) {
			inFence = !inFence
			emit(trimmed, false)
			continue
		}
		if inFence {
			if code := strings.TrimRightFunc(line, unicode.IsSpace); code != "" {
				emit(code, false)
			} else {
				blank = true
			}
			continue
		}

		trimmed = multiSpaceRe.ReplaceAllString(trimmed, " ")
		if trimmed == "" || bareMarkerRe.MatchString(trimmed) {
			blank = true
			continue
		}
		emit(trimmed, headingLineRe.MatchString(trimmed))
	}

	text = strings.Join(out, "\n")
	if wordCount(text) < minWords {
		return ""
	}
	return text
}
