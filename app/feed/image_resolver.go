package feed

import (
	"context"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// sizedImagePattern matches WordPress-style size suffixes such as -1200x630.
var sizedImagePattern = regexp.MustCompile(`(?i)[-_](\d{3,4})x(\d{3,4})(?:[._-]|$)`)

var socialImageSelectors = []string{
	"meta[property='og:image']",
	"meta[property='og:image:secure_url']",
	"meta[name='twitter:image']",
}

type ImageResolver struct {
	minWidth  int
	minHeight int
}

func NewImageResolver(minWidth, minHeight int) *ImageResolver {
	return &ImageResolver{
		minWidth:  minWidth,
		minHeight: minHeight,
	}
}

// Run returns the cover image URL for item, or "" when none is found.
// Stages, first hit wins: image enclosure, image media:content, first <img>
// in body, then the article page's social card or a sized page image.
func (r *ImageResolver) Run(ctx context.Context, item Item, body, link string, pages PageSource) string {
	stages := []func() string{
		func() string { return firstMedia(item, MediaEnclosure) },
		func() string { return firstMedia(item, MediaContent) },
		func() string { return firstInlineImage(body) },
	}

	for _, stage := range stages {
		if image := stage(); image != "" {
			return Absolutize(link, image)
		}
	}

	if link == "" || pages == nil {
		return ""
	}

	page, err := pages.Page(ctx, link)
	if err != nil {
		slog.Debug("Article page unavailable for image lookup", "link", link, "error", err)
		return ""
	}

	return r.fromPage(page)
}

func firstMedia(item Item, kind MediaKind) string {
	for _, media := range item.Media {
		if media.Kind == kind && media.URL != "" && strings.HasPrefix(strings.ToLower(media.Type), "image/") {
			return media.URL
		}
	}
	return ""
}

func firstInlineImage(fragment string) string {
	if strings.TrimSpace(fragment) == "" {
		return ""
	}
	src, _ := parseFragment(fragment).Find("img[src]").First().Attr("src")
	return strings.TrimSpace(src)
}

func (r *ImageResolver) fromPage(page *Page) string {
	doc := page.Doc

	if social := firstMetaContent(doc, socialImageSelectors...); social != "" {
		width := metaInt(doc, "meta[property='og:image:width']")
		height := metaInt(doc, "meta[property='og:image:height']")
		if width == 0 || height == 0 || r.largeEnough(width, height) {
			return Absolutize(page.URL, social)
		}
		slog.Debug("Social image below size floor", "url", social, "width", width, "height", height)
	}

	return r.pickPageImage(doc, page.URL)
}

// pickPageImage prefers a page image whose filename encodes a size above the
// floor, then any sized image, then the first image.
func (r *ImageResolver) pickPageImage(doc *goquery.Document, base string) string {
	var candidates, sized []string
	seen := make(map[string]bool)

	doc.Find("img[src]").Each(func(_ int, img *goquery.Selection) {
		src, _ := img.Attr("src")
		src = Absolutize(base, src)
		if src == "" || seen[src] {
			return
		}
		seen[src] = true
		candidates = append(candidates, src)
		if sizedImagePattern.MatchString(src) {
			sized = append(sized, src)
		}
	})

	for _, src := range sized {
		match := sizedImagePattern.FindStringSubmatch(src)
		width, _ := strconv.Atoi(match[1])
		height, _ := strconv.Atoi(match[2])
		if r.largeEnough(width, height) {
			return src
		}
	}

	if len(sized) > 0 {
		return sized[0]
	}
	if len(candidates) > 0 {
		return candidates[0]
	}
	return ""
}

func (r *ImageResolver) largeEnough(width, height int) bool {
	return width >= r.minWidth && height >= r.minHeight
}

func firstMetaContent(doc *goquery.Document, selectors ...string) string {
	for _, selector := range selectors {
		if content, ok := doc.Find(selector).First().Attr("content"); ok && strings.TrimSpace(content) != "" {
			return strings.TrimSpace(content)
		}
	}
	return ""
}

func metaInt(doc *goquery.Document, selector string) int {
	value, err := strconv.Atoi(firstMetaContent(doc, selector))
	if err != nil {
		return 0
	}
	return value
}
