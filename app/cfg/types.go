package cfg

import "time"

type Cfg struct {
	// Database configuration
	DBPath string

	// Application configuration
	FeedsDir          string
	Port              string
	WorkerCount       int
	SchedulerInterval int
	LeaseDuration     time.Duration
	APIAccessKey      string

	// Fetching
	UserAgent      string
	ConnectTimeout time.Duration
	ReadTimeout    time.Duration
	MaxRedirects   int
	FetchRate      float64

	// Import pipeline
	MaxItems       int
	MaxTags        int
	MinBodyChars   int
	ShortBodyChars int
	MaxParagraphs  int
	MinImageWidth  int
	MinImageHeight int

	// Application metadata
	Timezone string
	Debug    bool
	Once     bool
	Version  string
}
