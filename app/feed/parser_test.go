package feed

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestParseRSS2(t *testing.T) {
	rssData := `<?xml version="1.0"?>
<rss version="2.0" xmlns:content="http://purl.org/rss/1.0/modules/content/" xmlns:media="http://search.yahoo.com/mrss/">
  <channel>
    <title>Test Feed</title>
    <link>https://example.com</link>
    <description>Test Description</description>
    <item>
      <title>  Test Item 1  </title>
      <link>https://example.com/item1</link>
      <description>Short teaser</description>
      <content:encoded><![CDATA[<p>Full <em>body</em> of the first item.</p>]]></content:encoded>
      <category>Technology</category>
      <category>  </category>
      <category>Programming</category>
      <enclosure url="https://cdn.example.com/cover.jpg" type="image/jpeg" length="1234"/>
      <media:content url="https://cdn.example.com/media.png" type="image/png"/>
    </item>
    <item>
      <title>Test Item 2</title>
      <link>https://example.com/item2</link>
      <description>Test Item 2 Description</description>
    </item>
  </channel>
</rss>`

	items, err := NewParser().Run([]byte(rssData))
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if len(items) != 2 {
		t.Fatalf("Expected 2 items, got: %d", len(items))
	}

	item1 := items[0]
	if item1.Title != "Test Item 1" {
		t.Errorf("Expected title 'Test Item 1', got: %q", item1.Title)
	}
	if item1.Link != "https://example.com/item1" {
		t.Errorf("Expected link 'https://example.com/item1', got: %s", item1.Link)
	}
	if !strings.Contains(item1.ContentEncoded, "Full <em>body</em>") {
		t.Errorf("Expected content:encoded body, got: %q", item1.ContentEncoded)
	}
	if item1.Description != "Short teaser" {
		t.Errorf("Expected description 'Short teaser', got: %q", item1.Description)
	}
	if item1.Content != "" || item1.Summary != "" {
		t.Errorf("Expected Atom fields to stay empty for RSS, got content=%q summary=%q", item1.Content, item1.Summary)
	}
	if fmt.Sprint(item1.Categories) != "[Technology Programming]" {
		t.Errorf("Expected categories [Technology Programming], got: %v", item1.Categories)
	}

	if len(item1.Media) < 2 {
		t.Fatalf("Expected enclosure and media:content, got: %+v", item1.Media)
	}
	if item1.Media[0].Kind != MediaEnclosure || item1.Media[0].URL != "https://cdn.example.com/cover.jpg" || item1.Media[0].Type != "image/jpeg" {
		t.Errorf("Unexpected first media: %+v", item1.Media[0])
	}

	foundMediaContent := false
	for _, media := range item1.Media {
		if media.Kind == MediaContent && media.URL == "https://cdn.example.com/media.png" && media.Type == "image/png" {
			foundMediaContent = true
		}
	}
	if !foundMediaContent {
		t.Errorf("Expected media:content descriptor, got: %+v", item1.Media)
	}

	if items[1].Title != "Test Item 2" || len(items[1].Media) != 0 {
		t.Errorf("Unexpected second item: %+v", items[1])
	}
}

func TestParseAtom(t *testing.T) {
	atomData := `<?xml version="1.0" encoding="utf-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <title>Atom Feed</title>
  <link href="https://example.com/"/>
  <updated>2024-01-01T12:00:00Z</updated>
  <id>urn:uuid:feed</id>
  <entry>
    <title>Atom Entry</title>
    <link rel="alternate" href="https://example.com/atom-entry"/>
    <id>urn:uuid:entry-1</id>
    <updated>2024-01-01T12:00:00Z</updated>
    <summary>Entry summary</summary>
    <content type="html">&lt;p&gt;Entry content&lt;/p&gt;</content>
    <category term="Jazz"/>
  </entry>
</feed>`

	items, err := NewParser().Run([]byte(atomData))
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if len(items) != 1 {
		t.Fatalf("Expected 1 item, got: %d", len(items))
	}

	item := items[0]
	if item.Link != "https://example.com/atom-entry" {
		t.Errorf("Expected link from link/@href, got: %s", item.Link)
	}
	if !strings.Contains(item.Content, "Entry content") {
		t.Errorf("Expected Atom content, got: %q", item.Content)
	}
	if item.Summary != "Entry summary" {
		t.Errorf("Expected Atom summary, got: %q", item.Summary)
	}
	if item.ContentEncoded != "" || item.Description != "" {
		t.Errorf("Expected RSS fields to stay empty for Atom, got: %+v", item)
	}
	if len(item.Categories) != 1 || item.Categories[0] != "Jazz" {
		t.Errorf("Expected categories [Jazz], got: %v", item.Categories)
	}
}

func TestParseKeepsDocumentOrder(t *testing.T) {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0"?><rss version="2.0"><channel><title>t</title>`)
	for i := 0; i < 15; i++ {
		fmt.Fprintf(&b, `<item><title>Item %d</title><link>https://example.com/%d</link></item>`, i, i)
	}
	b.WriteString(`</channel></rss>`)

	items, err := NewParser().Run([]byte(b.String()))
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if len(items) != 15 {
		t.Fatalf("Expected 15 items, got: %d", len(items))
	}
	for i, item := range items {
		if want := fmt.Sprintf("https://example.com/%d", i); item.Link != want {
			t.Errorf("Item %d: expected link %s, got %s", i, want, item.Link)
		}
	}
}

func TestParseInvalidFeed(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"empty", ""},
		{"whitespace", "   \n"},
		{"not xml", "this is not a feed at all"},
		{"html page", "<html><body><p>hello</p></body></html>"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			items, err := NewParser().Run([]byte(tt.data))
			if err == nil {
				t.Fatal("Expected parse error")
			}
			if !errors.Is(err, ErrParse) {
				t.Errorf("Expected error to wrap ErrParse, got: %v", err)
			}
			if items == nil || len(items) != 0 {
				t.Errorf("Expected empty item slice, got: %v", items)
			}
		})
	}
}

func TestParseRSSWithHTMLEntities(t *testing.T) {
	rssData := `<?xml version="1.0"?>
<rss version="2.0">
  <channel>
    <title>Entities</title>
    <item>
      <title>Rock &amp; Roll</title>
      <link>https://example.com/rock?utm_source=rss&amp;id=7</link>
      <description>&lt;p&gt;Escaped &amp;amp; body&lt;/p&gt;</description>
    </item>
  </channel>
</rss>`

	items, err := NewParser().Run([]byte(rssData))
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("Expected 1 item, got: %d", len(items))
	}

	if items[0].Title != "Rock & Roll" {
		t.Errorf("Expected decoded title, got: %q", items[0].Title)
	}
	if items[0].Link != "https://example.com/rock?utm_source=rss&id=7" {
		t.Errorf("Expected decoded link, got: %q", items[0].Link)
	}
	if !strings.Contains(items[0].Description, "<p>") {
		t.Errorf("Expected description markup to be unescaped once, got: %q", items[0].Description)
	}
}
