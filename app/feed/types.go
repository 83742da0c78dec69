package feed

import (
	"time"
)

// Feed processing types

type MediaKind string

const (
	MediaEnclosure MediaKind = "enclosure"
	MediaContent   MediaKind = "media:content"
)

// Media is an enclosure or media:content descriptor attached to an item.
type Media struct {
	Kind MediaKind
	URL  string
	Type string // MIME type
}

// Item is one entry of a fetched feed. It is discarded after processing.
type Item struct {
	Title string
	Link  string

	// Raw body candidates in cascade order; any of them may be empty.
	ContentEncoded string // RSS content:encoded
	Content        string // Atom content
	Description    string // RSS description
	Summary        string // Atom summary

	Categories []string
	Media      []Media
}

// Configuration types

type Config struct {
	Name        string         // Derived from filename (without .yml extension)
	URL         string         `yaml:"url"`
	BotUsername string         `yaml:"bot_username"`
	Settings    ConfigSettings `yaml:"settings"`
}

type ConfigSettings struct {
	Enabled         bool `yaml:"enabled"`
	RefreshInterval int  `yaml:"refresh_interval"` // seconds
	MaxItems        int  `yaml:"max_items"`        // newest items examined per import, 0 = global default
}

func (s ConfigSettings) GetRefreshInterval() time.Duration {
	if s.RefreshInterval <= 0 {
		return time.Hour
	}
	return time.Duration(s.RefreshInterval) * time.Second
}
