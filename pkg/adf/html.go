package adf

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

var blockElements = map[string]bool{
	"p": true, "div": true, "li": true, "tr": true, "pre": true, "blockquote": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
}

// FlattenHTML converts Jira's rendered HTML into plain text. Line breaks and
// block elements become newlines; everything else keeps only its text.
func FlattenHTML(src string) string {
	if strings.TrimSpace(src) == "" {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(src))
	if err != nil {
		return ""
	}

	var b strings.Builder
	for _, n := range doc.Find("body").Nodes {
		walkHTML(&b, n)
	}
	return strings.TrimSpace(b.String())
}

func walkHTML(b *strings.Builder, n *html.Node) {
	switch n.Type {
	case html.TextNode:
		b.WriteString(n.Data)
		return
	case html.ElementNode:
		if n.Data == "br" {
			b.WriteByte('\n')
			return
		}
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walkHTML(b, c)
	}

	if n.Type == html.ElementNode && blockElements[n.Data] {
		if s := b.String(); s != "" && !strings.HasSuffix(s, "\n") {
			b.WriteByte('\n')
		}
	}
}
