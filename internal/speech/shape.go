package speech

import (
	"regexp"
	"strings"
)

var (
	emphasisRe    = regexp.MustCompile(`\*[^*]+\*`)
	parentheticRe = regexp.MustCompile(`\([^)]*\)`)
	spaceRe       = regexp.MustCompile(`\s+`)
	percentRe     = regexp.MustCompile(`(\d+)%`)
)

// Shape prepares text for the synthesizer. Markdown emphasis and
// parentheticals are never read aloud; human-like mode also spells out
// percentages.
func Shape(text string, human bool) string {
	out := emphasisRe.ReplaceAllString(text, "")
	out = parentheticRe.ReplaceAllString(out, "")
	out = strings.TrimSpace(spaceRe.ReplaceAllString(out, " "))

	if human {
		out = percentRe.ReplaceAllString(out, "$1 percent")
	}
	return out
}
