package feed

import (
	"strings"
	"testing"
)

func TestTransformerShortBody(t *testing.T) {
	transformer := NewTransformer(150)

	got := transformer.Run(`<p>Short <em>teaser</em> text.</p><img src="cover.jpg"/>`, "https://www.example.com/post")

	want := "<strong><p>Short teaser text.</p></strong>\n\nRead the full article on [example.com](https://www.example.com/post)."
	if got != want {
		t.Errorf("Unexpected body:\n got: %q\nwant: %q", got, want)
	}
}

func TestTransformerLongBody(t *testing.T) {
	transformer := NewTransformer(150)
	text := strings.Repeat("word ", 40)

	got := transformer.Run("<p>"+text+"<b>bold</b></p>", "https://news.example.org/a")

	if strings.Contains(got, "<strong>") || strings.Contains(got, "<b>") {
		t.Errorf("Expected no emphasis markup in long body, got: %q", got)
	}
	if !strings.HasSuffix(got, "\n\nRead the full article on [news.example.org](https://news.example.org/a).") {
		t.Errorf("Expected read-more suffix, got: %q", got)
	}
}

func TestTransformerKeepsReadMoreTrailer(t *testing.T) {
	transformer := NewTransformer(150)

	body := `<p>Tiny snippet.</p>
<p><a href="https://example.com/x">Read full story</a></p>`

	got := transformer.Run(body, "https://example.com/x")

	want := "<strong><p>Tiny snippet.</p></strong>\n<p><a href=\"https://example.com/x\">Read full story</a></p>"
	if got != want {
		t.Errorf("Unexpected body:\n got: %q\nwant: %q", got, want)
	}
}

func TestTransformerUnescapesLinkText(t *testing.T) {
	transformer := NewTransformer(0)

	got := transformer.Run(`<p><a href="https://other.org/">&lt;em&gt;Title&lt;/em&gt; here</a></p>`, "")

	if got != `<p><a href="https://other.org/">Title here</a></p>` {
		t.Errorf("Unexpected body: %q", got)
	}
}

func TestTransformerSkipsSuffixWhenHostReferenced(t *testing.T) {
	transformer := NewTransformer(0)

	body := `<p>See <a href="https://example.com/post">the original</a>.</p>`
	got := transformer.Run(body, "https://www.example.com/post")

	if strings.Contains(got, "Read the full article") {
		t.Errorf("Expected no suffix, got: %q", got)
	}
}

func TestTransformerRemovesImages(t *testing.T) {
	transformer := NewTransformer(0)

	got := transformer.Run(`<picture><source srcset="a.webp"/><img src="a.jpg"/></picture><p>text</p><figure><img src="b.jpg"/></figure>`, "")

	if got != "<p>text</p>" {
		t.Errorf("Unexpected body: %q", got)
	}
}
