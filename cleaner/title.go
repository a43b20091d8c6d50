package cleaner

import (
	"log/slog"
	nurl "net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"
)

// UntitledPage is used when no title can be found anywhere on a page.
const UntitledPage = "Untitled Page"

// resolveTitle picks the page title: the title reported by the fetcher,
// then og:title, then the readability article title, then the first <h1>.
// It must run before stripping, which removes <meta>.
func resolveTitle(doc *goquery.Document, rawHTML, fetched, sourceURL string) string {
	if t := collapseSpace(fetched); t != "" {
		return t
	}
	if og, ok := doc.Find(`meta[property="og:title"]`).First().Attr("content"); ok {
		if t := collapseSpace(og); t != "" {
			return t
		}
	}
	if t := readabilityTitle(rawHTML, sourceURL); t != "" {
		return t
	}
	if t := collapseSpace(doc.Find("h1").First().Text()); t != "" {
		return t
	}
	return UntitledPage
}

func readabilityTitle(rawHTML, sourceURL string) string {
	var pageURL *nurl.URL
	if sourceURL != "" {
		u, err := nurl.Parse(sourceURL)
		if err != nil {
			slog.Debug("readability: invalid source URL", "url", sourceURL, "error", err)
		} else {
			pageURL = u
		}
	}

	article, err := readability.FromReader(strings.NewReader(rawHTML), pageURL)
	if err != nil {
		slog.Debug("readability: title extraction failed", "url", sourceURL, "error", err)
		return ""
	}
	return collapseSpace(article.Title)
}
