// Package extract turns raw crossword and trivia pages into archive records.
//
// Both extractors work over a goquery document. Text is always read through
// NormalizedText so inline markup never glues neighbouring words together.
package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// NormalizedText returns the visible text below every node in sel. Adjacent
// text nodes are always separated by a space, whitespace runs collapse to one
// space, and the result is trimmed. An empty selection yields "".
func NormalizedText(sel *goquery.Selection) string {
	if sel == nil || sel.Length() == 0 {
		return ""
	}
	var fragments []string
	for _, n := range sel.Nodes {
		collectText(n, &fragments)
	}
	return strings.Join(strings.Fields(strings.Join(fragments, " ")), " ")
}

func collectText(n *html.Node, fragments *[]string) {
	switch n.Type {
	case html.TextNode:
		*fragments = append(*fragments, n.Data)
		return
	case html.CommentNode, html.DoctypeNode:
		return
	case html.ElementNode:
		if n.DataAtom == atom.Script || n.DataAtom == atom.Style {
			return
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectText(c, fragments)
	}
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
