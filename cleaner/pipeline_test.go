package cleaner

import (
	"fmt"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/use-agent/charscrape/models"
)

const article = "The lighthouse keeper wrote every evening about the storms that rolled in from the northern sea, " +
	"recording wind, tide, and the ships that passed safely beyond the rocks."

func page(body string) string {
	return "<html><head><title>Test page</title></head><body>" + body + "</body></html>"
}

func words(n int, word string) string {
	return strings.TrimSpace(strings.Repeat(word+" ", n))
}

func parse(t *testing.T, markup string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	require.NoError(t, err)
	return doc
}

func TestExtract_SingleParagraph(t *testing.T) {
	t.Parallel()

	text := "The quick brown fox jumps over the lazy dog near the quiet riverbank"
	got, err := NewCleaner(DefaultOptions()).Extract(page("<p>" + text + "</p>"))

	require.NoError(t, err)
	assert.Equal(t, text, got)
}

func TestExtract_TooFewWords(t *testing.T) {
	t.Parallel()

	_, err := NewCleaner(DefaultOptions()).Extract(page("<div><p>Only six words live in here</p></div><footer>Copyright</footer>"))

	require.Error(t, err)
	assert.Equal(t, models.ErrCodeContentTooShort, models.CodeOf(err))
}

func TestExtract_ShortWordsParagraph(t *testing.T) {
	t.Parallel()

	// Eleven words, well under fifty characters.
	text := "I am a cat and so are we all in it"
	got, err := NewCleaner(DefaultOptions()).Extract("<p>" + text + "</p>")

	require.NoError(t, err)
	assert.Equal(t, text, got)
}

func TestExtract_Sidebar(t *testing.T) {
	t.Parallel()

	c := NewCleaner(DefaultOptions())

	got, err := c.Extract(page(`<main><p>` + article + `</p><div class="sidebar">Follow us on social media</div></main>`))
	require.NoError(t, err)
	assert.Contains(t, got, "lighthouse keeper")
	assert.NotContains(t, got, "Follow us")

	long := "Embedded story " + words(200, "saga")
	got, err = c.Extract(page(`<main><p>` + article + `</p><div class="sidebar">` + long + `</div></main>`))
	require.NoError(t, err)
	assert.Contains(t, got, "Embedded story saga saga")
}

func TestExtract_Landmarks(t *testing.T) {
	t.Parallel()

	got, err := NewCleaner(DefaultOptions()).Extract(page(
		`<nav>Home About Contact</nav>` +
			`<article><header>` + words(60, "preface") + `</header><p>` + article + `</p>` +
			`<aside>Related posts</aside><footer>All rights reserved</footer></article>`,
	))

	require.NoError(t, err)
	assert.Contains(t, got, "preface preface")
	assert.NotContains(t, got, "Home About")
	assert.NotContains(t, got, "Related posts")
	assert.NotContains(t, got, "All rights reserved")
}

func TestExtract_InfoboxTable(t *testing.T) {
	t.Parallel()

	var b strings.Builder
	b.WriteString(`<article><h1>Ada Lovelace</h1><p>` + article + `</p>`)
	b.WriteString(`<table class="infobox"><thead><tr><th>Year</th><th>Event</th><th>Place</th></tr></thead><tbody>`)
	for i := 1; i <= 5; i++ {
		fmt.Fprintf(&b, `<tr><td>18%d0</td><td>Event number %d<sup>[%d]</sup></td><td><a href="/wiki/London">London</a></td></tr>`, i+1, i, i)
	}
	b.WriteString(`</tbody></table></article>`)

	got, err := NewCleaner(DefaultOptions()).Extract(page(b.String()))
	require.NoError(t, err)

	lines := pipeLines(got)
	require.Len(t, lines, 2+5)
	assert.Equal(t, "| Year | Event | Place |", lines[0])
	assert.Contains(t, lines[1], "---|---|---")
	assert.Equal(t, "| 1820 | Event number 1 | London |", lines[2])
	assert.True(t, strings.HasPrefix(got, "# Ada Lovelace\n\n"), got)
}

func TestExtract_StripsScriptsAndComments(t *testing.T) {
	t.Parallel()

	got, err := NewCleaner(DefaultOptions()).Extract(page(
		`<script>var tracking = "secret words here";</script><!-- hidden comment text -->` +
			`<p>` + article + `</p><noscript>Enable JavaScript</noscript>`,
	))

	require.NoError(t, err)
	assert.NotContains(t, got, "tracking")
	assert.NotContains(t, got, "hidden comment")
	assert.NotContains(t, got, "Enable JavaScript")
}

func TestDetectRegion(t *testing.T) {
	t.Parallel()

	t.Run("density beats selector order", func(t *testing.T) {
		doc := parse(t, page(`<main><a href="/">Home</a></main><div id="content"><p>`+article+` `+article+`</p></div>`))
		stripNonContent(doc)

		region := detectRegion(doc, regionMatchers, 10)

		assert.Equal(t, "content", region.AttrOr("id", ""))
	})

	t.Run("falls back to body below floor", func(t *testing.T) {
		doc := parse(t, page(`<div class="wrapper"><p>`+article+`</p></div>`))

		region := detectRegion(doc, regionMatchers, 10)

		assert.Equal(t, "body", goquery.NodeName(region))
	})

	t.Run("site selectors are scored first", func(t *testing.T) {
		doc := parse(t, page(`<div id="mw-content-text"><div class="mw-parser-output"><p>`+article+`</p></div></div>`))
		matchers := append(compileSelectors([]string{"#mw-content-text .mw-parser-output"}), regionMatchers...)

		region := detectRegion(doc, matchers, 10)

		assert.True(t, region.HasClass("mw-parser-output"))
	})
}

func TestCompileSelectors_SkipsInvalid(t *testing.T) {
	t.Parallel()

	assert.Len(t, compileSelectors([]string{"main", "div[", ".ok"}), 2)
}

func TestPrepareCells(t *testing.T) {
	t.Parallel()

	doc := parse(t, `<table><tr>
		<td><img alt="Flag Icon" src="f.png"> France<sup>[1]</sup></td>
		<td><a href="/paris">Paris</a> <a href="/edit">edit</a></td>
		<td><table><tr><td>a</td><td>b</td></tr><tr><td>c</td><td>d</td></tr></table></td>
		<td>Tags: <ul><li>x</li><li>y</li></ul></td>
		<td> • </td>
		<td><img alt="portrait.jpg"><img alt="I"> Named [citation needed]</td>
	</tr></table>`)

	prepareCells(doc.Find("body"))

	var got []string
	doc.Find("td").Each(func(_ int, s *goquery.Selection) {
		got = append(got, s.Text())
	})
	assert.Equal(t, []string{"[Flag] France", "Paris", "a / b | c / d", "Tags: x, y", "", "Named"}, got)
}

func TestStripNoise_Patterns(t *testing.T) {
	t.Parallel()

	doc := parse(t, page(`<div id="root">
		<span class="mw-editsection">[edit]</span>
		<div id="newsletter-signup">Subscribe now</div>
		<p class="lead">`+article+`</p>
		<div class="Cookie-Banner">We use cookies</div>
	</div>`))
	root := doc.Find("#root")

	stripNoise(root, 50, 20)

	text := root.Text()
	assert.Contains(t, text, "lighthouse")
	assert.NotContains(t, text, "[edit]")
	assert.NotContains(t, text, "Subscribe")
	assert.NotContains(t, text, "cookies")
}

func TestExtractPage_Title(t *testing.T) {
	t.Parallel()

	c := NewCleaner(DefaultOptions())
	body := "<p>" + article + "</p>"

	tests := []struct {
		name    string
		html    string
		fetched string
		want    string
	}{
		{"fetched title wins", page(body), "  Fetched   Title ", "Fetched Title"},
		{"og title", `<html><head><title>Doc</title><meta property="og:title" content="Open Graph Name"></head><body>` + body + `</body></html>`, "", "Open Graph Name"},
		{"first heading", `<html><body><h1>Heading Name</h1>` + body + `</body></html>`, "", "Heading Name"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			p, err := c.ExtractPage(tt.html, tt.fetched, "https://example.com/page")

			require.NoError(t, err)
			assert.Equal(t, tt.want, p.Title)
			assert.Contains(t, p.Text, "lighthouse keeper")
		})
	}
}

func TestEstimateTokens(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 0, EstimateTokens(""))
	assert.Equal(t, 1, EstimateTokens("hi"))
	assert.Equal(t, 3, EstimateTokens("123456789"))
}
