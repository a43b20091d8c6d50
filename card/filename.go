package card

import (
	"regexp"
	"strings"
)

const unnamed = "unnamed_character"

var (
	reservedRe   = regexp.MustCompile(`[<>:"/\\|?*]`)
	whitespaceRe = regexp.MustCompile(`\s+`)
)

// SanitizeFilename turns a character name into a file name stem: markdown
// emphasis and reserved characters are dropped, whitespace becomes "_"
// and the result is capped at 100 runes.
func SanitizeFilename(name string) string {
	name = strings.TrimSpace(name)
	name = reservedRe.ReplaceAllString(name, "")
	name = whitespaceRe.ReplaceAllString(name, "_")
	name = truncateRunes(name, maxNameRunes)
	if strings.Trim(name, "_.") == "" {
		return unnamed
	}
	return name
}
