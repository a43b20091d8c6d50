package cleaner

import (
	"log/slog"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
)

// regionSelectors are the generic main-content containers, semantic tags
// first, then common CMS and wiki conventions.
var regionSelectors = []string{
	"main", "article", `[role="main"]`, `[role="article"]`,
	"#content", "#main-content", ".main-content", "#mw-body", ".content", ".bodyContent",
	".post-content", "#vector-body", "#mw-content-text", `div[role="main"]`,
	".entry-content", ".article-content", ".page-content", ".story-body",
	".article-body", ".post-body", `[itemprop="articleBody"]`,
}

var regionMatchers = compileSelectors(regionSelectors)

// compileSelectors drops selectors cascadia cannot parse.
func compileSelectors(selectors []string) []cascadia.Selector {
	out := make([]cascadia.Selector, 0, len(selectors))
	for _, s := range selectors {
		m, err := cascadia.Compile(s)
		if err != nil {
			slog.Warn("cleaner: ignoring invalid selector", "selector", s, "error", err)
			continue
		}
		out = append(out, m)
	}
	return out
}

// regionScore rates a candidate by text density and word count:
// density*100 + min(words, 1000)/10.
func regionScore(s *goquery.Selection) float64 {
	markup, err := goquery.OuterHtml(s)
	if err != nil {
		return 0
	}
	htmlLen := utf8.RuneCountInString(markup)
	if htmlLen == 0 {
		return 0
	}
	density := float64(strippedLen(s.Get(0))) / float64(htmlLen)
	words := min(wordCount(s.Text()), 1000)
	return density*100 + float64(words)/10
}

// detectRegion returns the first match of each candidate selector with
// the highest score. When nothing reaches floor it falls back to <body>,
// or the whole document when there is no body.
func detectRegion(doc *goquery.Document, matchers []cascadia.Selector, floor float64) *goquery.Selection {
	var (
		best      *goquery.Selection
		bestScore float64
	)
	for _, m := range matchers {
		candidate := doc.FindMatcher(m).First()
		if candidate.Length() == 0 {
			continue
		}
		if score := regionScore(candidate); score > bestScore {
			best, bestScore = candidate, score
		}
	}

	// A score equal to floor is accepted.
	if best == nil || bestScore < floor {
		if body := doc.Find("body").First(); body.Length() > 0 {
			return body
		}
		return doc.Selection
	}
	return best
}
