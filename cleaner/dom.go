package cleaner

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html"
)

// walkText calls fn for every text node under n, in document order.
func walkText(n *html.Node, fn func(string)) {
	if n.Type == html.TextNode {
		fn(n.Data)
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walkText(c, fn)
	}
}

// joinedText returns the trimmed text nodes under n joined by single spaces.
func joinedText(n *html.Node) string {
	var parts []string
	walkText(n, func(s string) {
		if s = strings.TrimSpace(s); s != "" {
			parts = append(parts, s)
		}
	})
	return collapseSpace(strings.Join(parts, " "))
}

// strippedLen is the rune count of the trimmed text nodes under n.
func strippedLen(n *html.Node) int {
	total := 0
	walkText(n, func(s string) {
		total += utf8.RuneCountInString(strings.TrimSpace(s))
	})
	return total
}

// rawText returns the text under n exactly as it appears in the markup.
func rawText(n *html.Node) string {
	var b strings.Builder
	walkText(n, func(s string) { b.WriteString(s) })
	return b.String()
}

func hasText(n *html.Node) bool {
	found := false
	walkText(n, func(s string) {
		if !found && strings.TrimSpace(s) != "" {
			found = true
		}
	})
	return found
}

func wordCount(s string) int {
	return len(strings.Fields(s))
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func isElement(n *html.Node, tags ...string) bool {
	if n == nil || n.Type != html.ElementNode {
		return false
	}
	for _, t := range tags {
		if n.Data == t {
			return true
		}
	}
	return false
}

// closest returns the nearest ancestor of n (excluding n) with the tag.
func closest(n *html.Node, tag string) *html.Node {
	for p := n.Parent; p != nil; p = p.Parent {
		if isElement(p, tag) {
			return p
		}
	}
	return nil
}

func removeComments(n *html.Node) {
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		if c.Type == html.CommentNode {
			n.RemoveChild(c)
		} else {
			removeComments(c)
		}
		c = next
	}
}
