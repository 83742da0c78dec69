package importer

import "time"

// Config holds every threshold of the import pipeline.
type Config struct {
	MaxItems       int // newest items examined per feed unless the feed overrides it
	MaxTags        int
	MinBodyChars   int // bodies shorter than this fall back to other fields or the page
	ShortBodyChars int // bodies shorter than this are emphasized
	MaxParagraphs  int // paragraphs scraped from the article page
	MinImageWidth  int
	MinImageHeight int
	LeaseDuration  time.Duration
	BatchSize      int // due feeds picked per ImportAll
}

func DefaultConfig() Config {
	return Config{
		MaxItems:       10,
		MaxTags:        4,
		MinBodyChars:   60,
		ShortBodyChars: 150,
		MaxParagraphs:  3,
		MinImageWidth:  600,
		MinImageHeight: 315,
		LeaseDuration:  5 * time.Minute,
		BatchSize:      50,
	}
}
