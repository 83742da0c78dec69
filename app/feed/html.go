package feed

import (
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// parseFragment parses an HTML snippet; the html5 parser places it under <body>.
func parseFragment(fragment string) *goquery.Document {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		// The html5 parser only fails on reader errors.
		doc, _ = goquery.NewDocumentFromReader(strings.NewReader(""))
	}
	return doc
}

func fragmentHTML(doc *goquery.Document) string {
	out, err := doc.Find("body").Html()
	if err != nil {
		return ""
	}
	return out
}

func visibleText(fragment string) string {
	if fragment == "" {
		return ""
	}
	return strings.TrimSpace(parseFragment(fragment).Find("body").Text())
}

func visibleLength(fragment string) int {
	return utf8.RuneCountInString(visibleText(fragment))
}

// RemoveImages drops <picture>, image-bearing <figure> and <img> elements.
func RemoveImages(fragment string) string {
	if strings.TrimSpace(fragment) == "" {
		return ""
	}

	doc := parseFragment(fragment)
	doc.Find("picture").Remove()
	doc.Find("figure").FilterFunction(func(_ int, s *goquery.Selection) bool {
		return s.Find("img").Length() > 0
	}).Remove()
	doc.Find("img").Remove()

	return fragmentHTML(doc)
}

// unwrap replaces n with its children.
func unwrap(n *html.Node) {
	parent := n.Parent
	if parent == nil {
		return
	}
	for child := n.FirstChild; child != nil; {
		next := child.NextSibling
		n.RemoveChild(child)
		parent.InsertBefore(child, n)
		child = next
	}
	parent.RemoveChild(n)
}
