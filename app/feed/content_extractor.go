package feed

import (
	"bytes"
	"context"
	"html"
	"log/slog"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-shiori/go-readability"
)

const paragraphSelector = "article p, div[class*='entry-content'] p, div[class*='post__content'] p, div[class*='content'] p"

var boilerplatePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)appeared first on`),
	regexp.MustCompile(`(?i)^the post\b`),
	regexp.MustCompile(`(?i)continue reading`),
}

type bodyField struct {
	name string
	get  func(Item) string
}

// bodyCascade lists the feed-supplied body fields, most complete first.
var bodyCascade = []bodyField{
	{"content:encoded", func(i Item) string { return i.ContentEncoded }},
	{"content", func(i Item) string { return i.Content }},
	{"description", func(i Item) string { return i.Description }},
	{"summary", func(i Item) string { return i.Summary }},
}

// PrimaryBody returns the first non-empty body field of the cascade.
func PrimaryBody(item Item) string {
	body, _ := primaryBody(item)
	return body
}

func primaryBody(item Item) (string, string) {
	for _, field := range bodyCascade {
		if value := field.get(item); strings.TrimSpace(value) != "" {
			return value, field.name
		}
	}
	return "", ""
}

type ContentExtractor struct {
	minChars      int
	maxParagraphs int
}

func NewContentExtractor(minChars, maxParagraphs int) *ContentExtractor {
	return &ContentExtractor{
		minChars:      minChars,
		maxParagraphs: maxParagraphs,
	}
}

// Run picks the best available body for item with images already removed.
// Short bodies fall back to a longer description or summary and finally to
// paragraphs scraped from the article page at link.
func (e *ContentExtractor) Run(ctx context.Context, item Item, link string, pages PageSource) string {
	raw, source := primaryBody(item)

	body := RemoveImages(raw)
	if strings.TrimSpace(body) == "" && raw != "" {
		body = html.EscapeString(visibleText(raw))
	}
	length := visibleLength(body)

	for _, field := range bodyCascade[2:] {
		if length >= e.minChars {
			break
		}
		candidate := RemoveImages(field.get(item))
		if candidateLength := visibleLength(candidate); candidateLength > length {
			body, length, source = candidate, candidateLength, field.name
		}
	}

	if length < e.minChars && link != "" && pages != nil {
		if paragraphs := e.scrapeParagraphs(ctx, pages, link); paragraphs != "" {
			body, length, source = paragraphs, visibleLength(paragraphs), "page"
		}
	}

	slog.Debug("Body extracted", "link", link, "source", source, "length", length)

	return body
}

func (e *ContentExtractor) scrapeParagraphs(ctx context.Context, pages PageSource, link string) string {
	page, err := pages.Page(ctx, link)
	if err != nil {
		slog.Debug("Article page unavailable for body fallback", "link", link, "error", err)
		return ""
	}

	if paragraphs := e.paragraphs(page.Doc.Selection); paragraphs != "" {
		return paragraphs
	}

	// No known content container; let readability locate the article.
	pageURL, err := url.Parse(page.URL)
	if err != nil {
		return ""
	}
	article, err := readability.FromReader(bytes.NewReader(page.Raw), pageURL)
	if err != nil || article.Content == "" {
		slog.Debug("Readability found no article", "link", link, "error", err)
		return ""
	}

	return e.collect(parseFragment(article.Content).Find("p"))
}

func (e *ContentExtractor) paragraphs(root *goquery.Selection) string {
	return e.collect(root.Find(paragraphSelector))
}

func (e *ContentExtractor) collect(nodes *goquery.Selection) string {
	var cleaned []string

	nodes.EachWithBreak(func(_ int, p *goquery.Selection) bool {
		inner, err := p.Html()
		if err != nil {
			return true
		}
		inner = strings.TrimSpace(inner)
		text := strings.TrimSpace(p.Text())
		if inner == "" || text == "" || isBoilerplate(text) {
			return true
		}

		cleaned = append(cleaned, "<p>"+inner+"</p>")
		return len(cleaned) < e.maxParagraphs
	})

	return strings.Join(cleaned, "\n")
}

func isBoilerplate(text string) bool {
	for _, pattern := range boilerplatePatterns {
		if pattern.MatchString(text) {
			return true
		}
	}
	return false
}
