package feed

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

var (
	readMorePattern     = regexp.MustCompile(`(?i)read full (story|article)`)
	emphasisTagsPattern = regexp.MustCompile(`(?i)</?(?:em|i|strong|b)>`)
)

// Transformer turns an extracted body into the stored article body.
type Transformer struct {
	shortChars int
}

func NewTransformer(shortChars int) *Transformer {
	return &Transformer{shortChars: shortChars}
}

func (t *Transformer) Run(body, link string) string {
	body = RemoveImages(body)
	body = stripInlineFormatting(body)
	body = t.emphasizeShort(body)
	return appendReadMore(body, link)
}

func stripInlineFormatting(fragment string) string {
	if strings.TrimSpace(fragment) == "" {
		return fragment
	}

	doc := parseFragment(fragment)
	doc.Find("em, i, strong, b").Each(func(_ int, s *goquery.Selection) {
		unwrap(s.Get(0))
	})

	// Feeds sometimes double-escape markup inside link text.
	doc.Find("a").Each(func(_ int, s *goquery.Selection) {
		inner, err := s.Html()
		if err != nil {
			return
		}
		s.SetHtml(emphasisTagsPattern.ReplaceAllString(html.UnescapeString(inner), ""))
	})

	return fragmentHTML(doc)
}

// emphasizeShort wraps each top-level node of a short body in <strong>,
// leaving "Read full story" style trailers as they are.
func (t *Transformer) emphasizeShort(fragment string) string {
	if strings.TrimSpace(fragment) == "" {
		return fragment
	}

	var main, readMore []*goquery.Selection
	parseFragment(fragment).Find("body").Contents().Each(func(_ int, s *goquery.Selection) {
		node := s.Get(0)
		text := s.Text()
		switch {
		case node.Type == html.TextNode && strings.TrimSpace(text) == "":
		case readMorePattern.MatchString(text):
			readMore = append(readMore, s)
		default:
			main = append(main, s)
		}
	})

	var mainText strings.Builder
	for _, s := range main {
		mainText.WriteString(s.Text())
	}
	if len(main) == 0 || utf8.RuneCountInString(strings.TrimSpace(mainText.String())) >= t.shortChars {
		return fragment
	}

	parts := make([]string, 0, len(main))
	for _, s := range main {
		parts = append(parts, "<strong>"+outerHTML(s)+"</strong>")
	}
	result := strings.Join(parts, "\n")

	if len(readMore) > 0 {
		trailers := make([]string, 0, len(readMore))
		for _, s := range readMore {
			trailers = append(trailers, outerHTML(s))
		}
		result += "\n" + strings.Join(trailers, "\n")
	}

	return result
}

func appendReadMore(body, link string) string {
	if link == "" {
		return body
	}
	host := HostOf(link)
	if host == "" || strings.Contains(body, host) {
		return body
	}
	return fmt.Sprintf("%s\n\nRead the full article on [%s](%s).", strings.TrimSpace(body), host, link)
}

func outerHTML(s *goquery.Selection) string {
	out, err := goquery.OuterHtml(s)
	if err != nil {
		return ""
	}
	return out
}
