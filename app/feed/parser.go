package feed

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/mmcdole/gofeed"
	ext "github.com/mmcdole/gofeed/extensions"
)

var ErrParse = errors.New("unparseable feed")

type ParseError struct {
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%v: %v", ErrParse, e.Err)
}

func (e *ParseError) Unwrap() []error {
	return []error{ErrParse, e.Err}
}

type Parser struct {
	gofeedParser *gofeed.Parser
}

func NewParser() *Parser {
	return &Parser{
		gofeedParser: gofeed.NewParser(),
	}
}

// Run returns RSS items or Atom entries in document order. Input that cannot
// be recovered yields no items and a *ParseError.
func (p *Parser) Run(data []byte) ([]Item, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return []Item{}, &ParseError{Err: errors.New("empty document")}
	}

	feed, err := p.gofeedParser.Parse(bytes.NewReader(data))
	if err != nil {
		return []Item{}, &ParseError{Err: err}
	}

	atom := feed.FeedType == "atom"

	items := make([]Item, 0, len(feed.Items))
	for _, item := range feed.Items {
		if item == nil {
			continue
		}
		items = append(items, p.normalizeItem(item, atom))
	}

	return items, nil
}

func (p *Parser) normalizeItem(item *gofeed.Item, atom bool) Item {
	normalized := Item{
		Title: strings.TrimSpace(item.Title),
		Link:  strings.TrimSpace(item.Link),
	}

	// gofeed folds content:encoded and Atom content into Content, and RSS
	// description and Atom summary into Description.
	if atom {
		normalized.Content = item.Content
		normalized.Summary = item.Description
	} else {
		normalized.ContentEncoded = item.Content
		normalized.Description = item.Description
	}

	if normalized.Link == "" && len(item.Links) > 0 {
		normalized.Link = strings.TrimSpace(item.Links[0])
	}

	for _, category := range item.Categories {
		if category = strings.TrimSpace(category); category != "" {
			normalized.Categories = append(normalized.Categories, category)
		}
	}

	for _, enclosure := range item.Enclosures {
		if enclosure == nil || enclosure.URL == "" {
			continue
		}
		normalized.Media = append(normalized.Media, Media{
			Kind: MediaEnclosure,
			URL:  strings.TrimSpace(enclosure.URL),
			Type: strings.TrimSpace(enclosure.Type),
		})
	}

	normalized.Media = append(normalized.Media, mediaContents(item.Extensions)...)

	return normalized
}

func mediaContents(extensions ext.Extensions) []Media {
	media, ok := extensions["media"]
	if !ok {
		return nil
	}

	var result []Media
	collect := func(list []ext.Extension) {
		for _, content := range list {
			url := strings.TrimSpace(content.Attrs["url"])
			if url == "" {
				continue
			}
			result = append(result, Media{
				Kind: MediaContent,
				URL:  url,
				Type: strings.TrimSpace(content.Attrs["type"]),
			})
		}
	}

	collect(media["content"])
	for _, group := range media["group"] {
		collect(group.Children["content"])
	}

	return result
}
