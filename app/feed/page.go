package feed

import (
	"bytes"
	"context"
	"fmt"

	"github.com/PuerkitoBio/goquery"
)

// Page is a fetched article page.
type Page struct {
	URL string // final URL after redirects
	Raw []byte
	Doc *goquery.Document
}

// PageSource loads article pages for the scraping fallbacks.
type PageSource interface {
	Page(ctx context.Context, rawURL string) (*Page, error)
}

// PageCache fetches each page at most once. It is meant to live for a single
// item so content and image fallbacks share one request; it is not safe for
// concurrent use.
type PageCache struct {
	getter Getter
	pages  map[string]*Page
	errs   map[string]error
}

func NewPageCache(getter Getter) *PageCache {
	return &PageCache{
		getter: getter,
		pages:  make(map[string]*Page),
		errs:   make(map[string]error),
	}
}

func (c *PageCache) Page(ctx context.Context, rawURL string) (*Page, error) {
	if page, ok := c.pages[rawURL]; ok {
		return page, nil
	}
	if err, ok := c.errs[rawURL]; ok {
		return nil, err
	}

	page, err := c.load(ctx, rawURL)
	if err != nil {
		c.errs[rawURL] = err
		return nil, err
	}

	c.pages[rawURL] = page
	return page, nil
}

func (c *PageCache) load(ctx context.Context, rawURL string) (*Page, error) {
	resp, err := c.getter.Get(ctx, rawURL)
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(resp.Body))
	if err != nil {
		return nil, fmt.Errorf("failed to parse page %s: %w", rawURL, err)
	}

	return &Page{
		URL: resp.FinalURL,
		Raw: resp.Body,
		Doc: doc,
	}, nil
}
