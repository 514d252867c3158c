// Package mailtext turns email bodies into plain text for classification.
package mailtext

import (
	"strings"

	"golang.org/x/net/html"
)

const maxDepth = 200

// FromHTML extracts the visible text of an HTML document. Block elements
// become line breaks; script and style content is dropped.
func FromHTML(doc string) string {
	root, err := html.Parse(strings.NewReader(doc))
	if err != nil {
		return doc
	}

	var sb strings.Builder
	extractText(root, &sb, 0)
	return clean(sb.String())
}

// Body returns the text to classify, preferring plain text over HTML
func Body(plain, htmlBody string) string {
	if strings.TrimSpace(plain) != "" {
		return plain
	}
	if htmlBody != "" {
		return FromHTML(htmlBody)
	}
	return ""
}

func extractText(n *html.Node, sb *strings.Builder, depth int) {
	if depth > maxDepth {
		return
	}

	switch n.Type {
	case html.TextNode:
		if text := strings.TrimSpace(n.Data); text != "" {
			sb.WriteString(text)
			sb.WriteString(" ")
		}
	case html.CommentNode:
		return
	case html.ElementNode:
		switch n.Data {
		case "script", "style", "noscript", "head", "svg":
			return
		case "br", "p", "div", "tr", "li", "h1", "h2", "h3", "h4", "h5", "h6", "table":
			sb.WriteString("\n")
		}
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		extractText(c, sb, depth+1)
	}

	if n.Type == html.ElementNode {
		switch n.Data {
		case "p", "div", "tr", "li", "h1", "h2", "h3", "h4", "h5", "h6", "table":
			sb.WriteString("\n")
		}
	}
}

// clean trims every line and drops empty ones
func clean(s string) string {
	lines := strings.Split(s, "\n")
	out := lines[:0]
	for _, line := range lines {
		line = strings.Join(strings.Fields(line), " ")
		if line != "" {
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n")
}
