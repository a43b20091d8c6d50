package cleaner

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

var (
	imageFileRe     = regexp.MustCompile(`(?i)\.(png|jpe?g|gif|svg|webp)$`)
	imageSuffixRe   = regexp.MustCompile(`(?i)\s*(icon|logo|image|photo|picture)\.?\s*$`)
	imagePrefixRe   = regexp.MustCompile(`(?i)^\s*(icon|logo|image|photo|picture)\s*[:|-]?\s*`)
	markerRe        = regexp.MustCompile(`(?i)edit|\[\d+\]|\[citation|^\[\w\]$`)
	editLinkRe      = regexp.MustCompile(`(?i)^(edit|source|citation)$`)
	editStatsRe     = regexp.MustCompile(`(?i)\(\s*edit\s*(?:stats?)?\s*\)`)
	inlineNoticeRe  = regexp.MustCompile(`(?i)\[\s*(?:edit|citation needed|dubious|clarification needed)\s*\]`)
	leadingBulletRe = regexp.MustCompile(`^\s*[·•]\s*`)
	trailingPipeRe  = regexp.MustCompile(`\s*\|\s*$`)
	punctOnlyRe     = regexp.MustCompile(`^[\s\-–—·•|]*$`)
)

// cleanCellText flattens a table cell to one line of text. Meaningful image
// alt text becomes "[alt]", citation and edit markers are dropped, links
// become their text, nested tables become "a / b | c / d" and lists
// become "x, y, z".
func cleanCellText(cell *goquery.Selection) string {
	cell.Find("img").Each(func(_ int, img *goquery.Selection) {
		if label := imageLabel(img); label != "" {
			img.ReplaceWithNodes(textNode("[" + label + "]"))
			return
		}
		img.Remove()
	})

	cell.Find("sup, small").Each(func(_ int, s *goquery.Selection) {
		if markerRe.MatchString(strings.TrimSpace(s.Text())) {
			s.Remove()
		}
	})

	cell.Find("a").Each(func(_ int, a *goquery.Selection) {
		text := strings.TrimSpace(a.Text())
		if text == "" || editLinkRe.MatchString(text) {
			a.Remove()
			return
		}
		a.ReplaceWithNodes(textNode(text))
	})

	cell.Find("table").Each(func(_ int, t *goquery.Selection) {
		var rows []string
		t.Find("tr").Each(func(_ int, tr *goquery.Selection) {
			var cells []string
			tr.Find("td, th").Each(func(_ int, c *goquery.Selection) {
				if text := joinedText(c.Get(0)); text != "" {
					cells = append(cells, text)
				}
			})
			if len(cells) > 0 {
				rows = append(rows, strings.Join(cells, " / "))
			}
		})
		if len(rows) == 0 {
			t.Remove()
			return
		}
		t.ReplaceWithNodes(textNode(strings.Join(rows, " | ")))
	})

	var lists []string
	cell.Find("ul, ol").Each(func(_ int, l *goquery.Selection) {
		if l.ParentsUntilSelection(cell).Filter("ul, ol").Length() > 0 {
			return
		}
		var items []string
		l.Find("li").Each(func(_ int, li *goquery.Selection) {
			if text := strings.TrimSpace(li.Text()); text != "" {
				items = append(items, collapseSpace(text))
			}
		})
		if len(items) > 0 {
			lists = append(lists, strings.Join(items, ", "))
			l.Remove()
		}
	})

	text := joinedText(cell.Get(0))
	if len(lists) > 0 {
		text = strings.TrimSpace(text + " " + strings.Join(lists, " "))
	}

	text = collapseSpace(text)
	text = editStatsRe.ReplaceAllString(text, "")
	text = inlineNoticeRe.ReplaceAllString(text, "")
	text = leadingBulletRe.ReplaceAllString(text, "")
	text = trailingPipeRe.ReplaceAllString(text, "")

	if punctOnlyRe.MatchString(text) {
		return ""
	}
	return strings.TrimSpace(text)
}

// imageLabel returns the readable alt (or title) text of an image, or ""
// for decorative images and bare file names.
func imageLabel(img *goquery.Selection) string {
	label := img.AttrOr("alt", "")
	if label == "" {
		label = img.AttrOr("title", "")
	}
	if label == "" || imageFileRe.MatchString(label) {
		return ""
	}
	label = imageSuffixRe.ReplaceAllString(label, "")
	label = imagePrefixRe.ReplaceAllString(label, "")
	label = strings.TrimSpace(label)
	if len([]rune(label)) <= 1 {
		return ""
	}
	return label
}

func textNode(s string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: s}
}
