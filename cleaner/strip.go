package cleaner

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"
)

var (
	nonContentTags = cascadia.MustCompile("script, style, noscript, meta, link, iframe, svg, canvas")
	landmarkTags   = cascadia.MustCompile("nav, footer, aside, header")
	tableCells     = cascadia.MustCompile("td, th")
)

// noiseClassPatterns and noiseIDPatterns are matched case-insensitively as
// substrings of each class token and of the id.
var noiseClassPatterns = []string{
	"sidebar", "advertisement", "ads", "menu", "navigation", "social",
	"mw-editsection", "noprint", "navbox", "metadata", "reference",
	"reflist", "external", "breadcrumb", "cookie", "popup", "modal",
	"overlay", "banner", "alert", "notice", "warning", "hidden",
	"offscreen", "sr-only", "visually-hidden", "skip", "jump",
}

var noiseIDPatterns = []string{
	"sidebar", "ad-container", "comments", "respond", "footer",
	"header", "nav", "navigation", "menu", "search", "login",
	"signup", "newsletter", "subscription", "share", "social",
}

// stripNonContent removes script-like tags and comments from the whole
// document. It runs before region detection so markup that never renders
// does not dilute the density score.
func stripNonContent(doc *goquery.Document) {
	doc.FindMatcher(nonContentTags).Remove()
	for _, n := range doc.Nodes {
		removeComments(n)
	}
}

// stripNoise removes boilerplate inside the content region. Landmarks are
// dropped only below landmarkMax words and pattern matches only below
// patternMax words, so long content sharing a tag or class name survives.
func stripNoise(region *goquery.Selection, landmarkMax, patternMax int) {
	region.FindMatcher(landmarkTags).Each(func(_ int, s *goquery.Selection) {
		if wordCount(s.Text()) < landmarkMax {
			s.Remove()
		}
	})

	region.Find("[class], [id]").FilterFunction(func(_ int, s *goquery.Selection) bool {
		return isNoise(s.Get(0))
	}).Each(func(_ int, s *goquery.Selection) {
		if wordCount(s.Text()) < patternMax {
			s.Remove()
		}
	})
}

func isNoise(n *html.Node) bool {
	for _, class := range strings.Fields(strings.ToLower(attr(n, "class"))) {
		for _, p := range noiseClassPatterns {
			if strings.Contains(class, p) {
				return true
			}
		}
	}
	if id := strings.ToLower(attr(n, "id")); id != "" {
		for _, p := range noiseIDPatterns {
			if strings.Contains(id, p) {
				return true
			}
		}
	}
	return false
}

// prepareCells replaces every table cell in the region with its cleaned
// text. Cells are visited in reverse document order so a nested table's
// cells are already flat text when the enclosing cell is cleaned.
func prepareCells(region *goquery.Selection) {
	cells := region.FindMatcher(tableCells)
	for i := cells.Length() - 1; i >= 0; i-- {
		cell := cells.Eq(i)
		cell.SetText(cleanCellText(cell))
	}
}
