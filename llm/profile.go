package llm

import (
	"regexp"
	"strings"

	"github.com/use-agent/charscrape/models"
)

// Response labels, in the order the prompt asks for them.
const (
	KeyName        = "NAME"
	KeyDescription = "DESCRIPTION"
	KeyPersonality = "PERSONALITY_SUMMARY"
	KeyScenario    = "SCENARIO"
	KeyGreeting    = "GREETING_MESSAGE"
	KeyExamples    = "EXAMPLE_MESSAGES"
)

// labelRe matches a label at the start of a line. Models like to dress
// labels up as "**NAME:**" or "## NAME:", so leading markers are allowed.
var labelRe = regexp.MustCompile(`(?im)^[ \t*#_]*(NAME|DESCRIPTION|PERSONALITY_SUMMARY|SCENARIO|GREETING_MESSAGE|EXAMPLE_MESSAGES)[ \t*_]*:`)

// ParseFields splits a labelled model response into label → value. Labels
// are matched case-insensitively and returned upper-cased. A value runs
// until the next label line. The first occurrence of a label wins.
func ParseFields(text string) map[string]string {
	fields := make(map[string]string)
	matches := labelRe.FindAllStringSubmatchIndex(text, -1)
	for i, m := range matches {
		key := strings.ToUpper(text[m[2]:m[3]])
		end := len(text)
		if i+1 < len(matches) {
			end = matches[i+1][0]
		}
		if _, seen := fields[key]; seen {
			continue
		}
		fields[key] = cleanValue(text[m[1]:end])
	}
	return fields
}

// ParseProfile maps a labelled model response onto a Profile.
func ParseProfile(text string) *models.Profile {
	f := ParseFields(text)
	return &models.Profile{
		Name:        f[KeyName],
		Description: f[KeyDescription],
		Personality: f[KeyPersonality],
		Scenario:    f[KeyScenario],
		Greeting:    f[KeyGreeting],
		Examples:    f[KeyExamples],
	}
}

func cleanValue(v string) string {
	v = strings.TrimSpace(v)
	v = strings.ReplaceAll(v, "**", "")
	v = strings.ReplaceAll(v, "*", "")
	return strings.TrimSpace(v)
}
