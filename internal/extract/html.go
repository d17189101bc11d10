// Package extract turns race-entry and horse-history pages into racing entities.
package extract

import (
	"bytes"
	"io"
	"strings"

	"github.com/k3a/html2text"
	"golang.org/x/net/html"
	"golang.org/x/text/width"
)

// parseDocument parses an HTML document. A nil node means nothing usable was read.
func parseDocument(r io.Reader) *html.Node {
	if r == nil {
		return nil
	}
	doc, err := html.Parse(r)
	if err != nil {
		return nil
	}
	return doc
}

// findAll traverses the tree below n and returns every element matching fn, in document order.
func findAll(n *html.Node, fn func(*html.Node) bool) []*html.Node {
	var found []*html.Node

	var traverse func(*html.Node)
	traverse = func(node *html.Node) {
		if node.Type == html.ElementNode && fn(node) {
			found = append(found, node)
		}
		for child := node.FirstChild; child != nil; child = child.NextSibling {
			traverse(child)
		}
	}

	if n != nil {
		traverse(n)
	}
	return found
}

// findFirst returns the first element below n matching fn.
func findFirst(n *html.Node, fn func(*html.Node) bool) *html.Node {
	if n == nil {
		return nil
	}
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		if child.Type == html.ElementNode && fn(child) {
			return child
		}
		if found := findFirst(child, fn); found != nil {
			return found
		}
	}
	return nil
}

// children returns the direct element children of n with the given tag.
func children(n *html.Node, tag string) []*html.Node {
	var out []*html.Node
	if n == nil {
		return out
	}
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		if child.Type == html.ElementNode && child.Data == tag {
			out = append(out, child)
		}
	}
	return out
}

// attr returns the value of the named attribute, or "".
func attr(n *html.Node, key string) string {
	if n == nil {
		return ""
	}
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

// hasClass reports whether n carries cls as one of its class tokens.
func hasClass(n *html.Node, cls string) bool {
	for _, token := range strings.Fields(attr(n, "class")) {
		if token == cls {
			return true
		}
	}
	return false
}

// classContains reports whether n's class attribute contains substr anywhere.
func classContains(n *html.Node, substr string) bool {
	return strings.Contains(attr(n, "class"), substr)
}

func isTag(tag string) func(*html.Node) bool {
	return func(n *html.Node) bool { return n.Data == tag }
}

func tagWithClass(tag, cls string) func(*html.Node) bool {
	return func(n *html.Node) bool { return n.Data == tag && hasClass(n, cls) }
}

func tagWithClassContaining(tag, substr string) func(*html.Node) bool {
	return func(n *html.Node) bool { return n.Data == tag && classContains(n, substr) }
}

func withClass(cls string) func(*html.Node) bool {
	return func(n *html.Node) bool { return hasClass(n, cls) }
}

func tagWithIDPrefix(tag, prefix string) func(*html.Node) bool {
	return func(n *html.Node) bool { return n.Data == tag && strings.HasPrefix(attr(n, "id"), prefix) }
}

// textOf returns the text below n with every text node trimmed and concatenated.
// Full-width digits and latin letters are folded to their narrow forms.
func textOf(n *html.Node) string {
	if n == nil {
		return ""
	}
	var b strings.Builder
	var collect func(*html.Node)
	collect = func(node *html.Node) {
		if node.Type == html.TextNode {
			b.WriteString(strings.TrimSpace(node.Data))
		}
		for child := node.FirstChild; child != nil; child = child.NextSibling {
			collect(child)
		}
	}
	collect(n)
	return normalizeText(b.String())
}

// blockText flattens a metadata block to plain text with its spacing kept.
func blockText(n *html.Node) string {
	if n == nil {
		return ""
	}
	var buf bytes.Buffer
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		if err := html.Render(&buf, child); err != nil {
			return textOf(n)
		}
	}
	return normalizeText(html2text.HTML2Text(buf.String()))
}

// linkOrText prefers the text of the first anchor inside n.
func linkOrText(n *html.Node) string {
	if link := findFirst(n, isTag("a")); link != nil {
		return textOf(link)
	}
	return textOf(n)
}

func normalizeText(s string) string {
	return strings.TrimSpace(width.Fold.String(s))
}
