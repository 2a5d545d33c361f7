package extract

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"
)

// extractHTML returns the text of an HTML fragment or document, skipping
// non-content elements. Block elements are separated by a space.
func extractHTML(body string) (string, error) {
	doc, err := html.Parse(strings.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("parse html: %w", err)
	}
	var buf strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			buf.WriteString(n.Data)
			return
		case html.ElementNode:
			switch n.Data {
			case "script", "style", "noscript", "template", "head":
				return
			case "br", "hr":
				buf.WriteByte(' ')
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
		if n.Type == html.ElementNode && isBlock(n.Data) {
			buf.WriteByte(' ')
		}
	}
	walk(doc)
	return collapseSpace(strings.ToValidUTF8(buf.String(), "�")), nil
}

func isBlock(tag string) bool {
	switch tag {
	case "p", "div", "li", "ul", "ol", "td", "th", "tr", "table", "blockquote", "pre",
		"h1", "h2", "h3", "h4", "h5", "h6", "section", "article", "header", "footer",
		"figure", "figcaption", "dd", "dt":
		return true
	}
	return false
}
