package cleaner

import (
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html"
)

type nodeKind int

const (
	kindContainer nodeKind = iota
	kindText
	kindSkip
	kindHeading
	kindParagraph
	kindDiv
	kindList
	kindListItem
	kindTable
	kindQuote
	kindPre
	kindCode
	kindStrong
	kindEm
	kindUnderline
	kindStrike
	kindLink
	kindBreak
	kindRule
)

func kindOf(n *html.Node) nodeKind {
	switch n.Type {
	case html.TextNode:
		return kindText
	case html.DocumentNode:
		return kindContainer
	case html.ElementNode:
	default:
		return kindSkip
	}

	switch n.Data {
	case "h1", "h2", "h3", "h4", "h5", "h6":
		return kindHeading
	case "p":
		return kindParagraph
	case "div":
		return kindDiv
	case "ul", "ol":
		return kindList
	case "li":
		return kindListItem
	case "table":
		return kindTable
	case "blockquote":
		return kindQuote
	case "pre":
		return kindPre
	case "code":
		return kindCode
	case "strong", "b":
		return kindStrong
	case "em", "i":
		return kindEm
	case "u":
		return kindUnderline
	case "s", "strike", "del":
		return kindStrike
	case "a":
		return kindLink
	case "br":
		return kindBreak
	case "hr":
		return kindRule
	case "head", "title", "script", "style", "noscript", "template",
		"iframe", "svg", "canvas", "button", "select", "input", "textarea":
		return kindSkip
	default:
		return kindContainer
	}
}

var (
	numericRe  = regexp.MustCompile(`^\d+\.?$`)
	citationRe = regexp.MustCompile(`^\[\d+\]$`)
)

// renderer turns a cleaned subtree into text. It holds only read-only
// table limits and never mutates the tree.
type renderer struct {
	maxRows  int
	maxCols  int
	maxEmpty int
}

func (r renderer) render(n *html.Node) string {
	kind := kindOf(n)
	switch kind {
	case kindSkip:
		return ""
	case kindText:
		text := collapseSpace(n.Data)
		if punctOnlyRe.MatchString(text) {
			return ""
		}
		return text
	case kindBreak:
		return "\n"
	case kindRule:
		return "\n---\n"
	}

	if !hasText(n) {
		return ""
	}

	switch kind {
	case kindTable:
		return r.table(n)
	case kindPre:
		code := strings.Trim(rawText(n), "\n")
		return "\n```\n" + code + "\n```\n"
	case kindCode:
		return "`" + strings.TrimSpace(rawText(n)) + "`"
	case kindQuote:
		return quote(r.children(n))
	case kindList:
		return r.list(n)
	}

	content := strings.TrimSpace(r.children(n))
	if content == "" {
		return ""
	}

	switch kind {
	case kindHeading:
		content = collapseSpace(content)
		if utf8.RuneCountInString(content) < 2 || numericRe.MatchString(content) {
			return ""
		}
		level := int(n.Data[1] - '0')
		return "\n" + strings.Repeat("#", level) + " " + content + "\n"
	case kindParagraph:
		return "\n" + content + "\n"
	case kindDiv:
		if utf8.RuneCountInString(content) > 50 || strings.Contains(content, "\n") {
			return "\n" + content + "\n"
		}
		return content
	case kindListItem:
		return "- " + content + "\n"
	case kindStrong:
		return "**" + content + "**"
	case kindEm:
		return "*" + content + "*"
	case kindUnderline:
		return "<u>" + content + "</u>"
	case kindStrike:
		return "~~" + content + "~~"
	case kindLink:
		return link(content, attr(n, "href"))
	default:
		return content
	}
}

func (r renderer) children(n *html.Node) string {
	var parts []string
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if s := r.render(c); s != "" {
			parts = append(parts, s)
		}
	}
	return joinInline(parts)
}

// list numbers ordered items from the start attribute (default 1) and
// marks unordered items with a dash. Nested lists are rendered flat.
func (r renderer) list(n *html.Node) string {
	ordered := n.Data == "ol"
	num := 1
	if start, err := strconv.Atoi(attr(n, "start")); err == nil {
		num = start
	}

	var parts []string
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if !isElement(c, "li") {
			if s := r.render(c); s != "" {
				parts = append(parts, s)
			}
			continue
		}
		content := strings.TrimSpace(r.children(c))
		if content == "" {
			continue
		}
		marker := "- "
		if ordered {
			marker = strconv.Itoa(num) + ". "
			num++
		}
		parts = append(parts, marker+content+"\n")
	}
	if len(parts) == 0 {
		return ""
	}
	return "\n" + joinInline(parts)
}

func link(text, href string) string {
	href = strings.TrimSpace(href)
	if citationRe.MatchString(text) {
		return text
	}
	if href != "" && !strings.HasPrefix(href, "#") &&
		!strings.HasPrefix(strings.ToLower(href), "javascript:") &&
		utf8.RuneCountInString(text) > 2 {
		return "[" + text + "](" + href + ")"
	}
	return "[" + text + "]"
}

func quote(content string) string {
	var lines []string
	for _, line := range strings.Split(content, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, "> "+line)
		}
	}
	if len(lines) == 0 {
		return ""
	}
	return "\n" + strings.Join(lines, "\n") + "\n"
}

// joinInline joins rendered siblings with single spaces, except at line
// boundaries and around punctuation that hugs its neighbour.
func joinInline(parts []string) string {
	var b strings.Builder
	var prev rune
	for _, p := range parts {
		if p == "" {
			continue
		}
		next, _ := utf8.DecodeRuneInString(p)
		if b.Len() > 0 && needsSpace(prev, next) {
			b.WriteByte(' ')
		}
		b.WriteString(p)
		prev, _ = utf8.DecodeLastRuneInString(p)
	}
	return b.String()
}

func needsSpace(prev, next rune) bool {
	if prev == '\n' || next == '\n' {
		return false
	}
	if strings.ContainsRune(".,;:!?)]}", next) {
		return false
	}
	return !strings.ContainsRune("([{", prev)
}
