package cfg

import (
	"cmp"
	"fmt"
	"time"

	"github.com/jessevdk/go-flags"
	"github.com/joho/godotenv"
)

// Version is set at build time via -ldflags
var Version = "dev"

// DefaultUserAgent looks like a desktop browser; several feed hosts reject obvious bots.
const DefaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/119 Safari/537.36"

func GetVersion() string {
	return cmp.Or(Version, "unknown")
}

type rawCfg struct {
	// Database configuration
	DBPath string `long:"db-path" env:"DB_PATH" default:"./data/rss-importer.db" description:"SQLite database file"`

	// Application configuration
	FeedsDir          string `long:"feeds-dir" env:"FEEDS_DIR" default:"./feeds" description:"Directory containing feed configuration files"`
	Port              string `long:"port" env:"PORT" default:"8080" description:"HTTP server port"`
	WorkerCount       int    `long:"worker-count" env:"WORKER_COUNT" default:"5" description:"Number of background workers for feed imports"`
	SchedulerInterval int    `long:"scheduler-interval" env:"SCHEDULER_INTERVAL" default:"30" description:"Scheduler interval in seconds"`
	LeaseDuration     int    `long:"lease-duration" env:"LEASE_DURATION" default:"300" description:"Per-feed import lease in seconds"`
	APIAccessKey      string `long:"api-key" env:"API_ACCESS_KEY" description:"API access key for authentication (optional)"`

	// Fetching
	UserAgent      string  `long:"user-agent" env:"USER_AGENT" description:"User agent string for HTTP requests"`
	ConnectTimeout int     `long:"connect-timeout" env:"CONNECT_TIMEOUT" default:"10" description:"Connect timeout in seconds"`
	ReadTimeout    int     `long:"read-timeout" env:"READ_TIMEOUT" default:"10" description:"Read timeout in seconds"`
	MaxRedirects   int     `long:"max-redirects" env:"MAX_REDIRECTS" default:"5" description:"Maximum redirect hops per request"`
	FetchRate      float64 `long:"fetch-rate" env:"FETCH_RATE" default:"0" description:"Outbound requests per second (0 = unlimited)"`

	// Import pipeline
	MaxItems       int `long:"max-items" env:"MAX_ITEMS" default:"10" description:"Newest items examined per feed"`
	MaxTags        int `long:"max-tags" env:"MAX_TAGS" default:"4" description:"Maximum tags per article"`
	MinBodyChars   int `long:"min-body-chars" env:"MIN_BODY_CHARS" default:"60" description:"Visible characters below which body fallbacks kick in"`
	ShortBodyChars int `long:"short-body-chars" env:"SHORT_BODY_CHARS" default:"150" description:"Visible characters below which a body is emphasized"`
	MaxParagraphs  int `long:"max-paragraphs" env:"MAX_PARAGRAPHS" default:"3" description:"Paragraphs scraped from the article page"`
	MinImageWidth  int `long:"min-image-width" env:"MIN_IMAGE_WIDTH" default:"600" description:"Minimum accepted cover image width"`
	MinImageHeight int `long:"min-image-height" env:"MIN_IMAGE_HEIGHT" default:"315" description:"Minimum accepted cover image height"`

	// Application metadata
	Timezone string `long:"timezone" env:"TZ" default:"UTC" description:"Timezone for timestamps (e.g., UTC, America/New_York)"`
	Debug    bool   `long:"debug" env:"DEBUG" description:"Enable debug logging"`
	Once     bool   `long:"once" env:"RUN_ONCE" description:"Import all due feeds once and exit"`
}

var globalCfg *Cfg

func Load() (*Cfg, error) {
	// A missing .env file is the normal case outside development.
	_ = godotenv.Load()

	return parse(nil)
}

func parse(args []string) (*Cfg, error) {
	var raw rawCfg

	parser := flags.NewParser(&raw, flags.Default)

	var err error
	if args == nil {
		_, err = parser.Parse()
	} else {
		_, err = parser.ParseArgs(args)
	}
	if err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				return nil, nil
			}
		}
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	cfg := &Cfg{
		DBPath:            raw.DBPath,
		FeedsDir:          raw.FeedsDir,
		Port:              raw.Port,
		WorkerCount:       raw.WorkerCount,
		SchedulerInterval: raw.SchedulerInterval,
		LeaseDuration:     time.Duration(raw.LeaseDuration) * time.Second,
		APIAccessKey:      raw.APIAccessKey,
		UserAgent:         cmp.Or(raw.UserAgent, DefaultUserAgent),
		ConnectTimeout:    time.Duration(raw.ConnectTimeout) * time.Second,
		ReadTimeout:       time.Duration(raw.ReadTimeout) * time.Second,
		MaxRedirects:      raw.MaxRedirects,
		FetchRate:         raw.FetchRate,
		MaxItems:          raw.MaxItems,
		MaxTags:           raw.MaxTags,
		MinBodyChars:      raw.MinBodyChars,
		ShortBodyChars:    raw.ShortBodyChars,
		MaxParagraphs:     raw.MaxParagraphs,
		MinImageWidth:     raw.MinImageWidth,
		MinImageHeight:    raw.MinImageHeight,
		Timezone:          raw.Timezone,
		Debug:             raw.Debug,
		Once:              raw.Once,
		Version:           GetVersion(),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	if err := applyTimezone(cfg.Timezone); err != nil {
		fmt.Printf("Warning: Invalid timezone '%s', using system default: %v\n", cfg.Timezone, err)
	}

	globalCfg = cfg

	return cfg, nil
}

func Get() *Cfg {
	if globalCfg == nil {
		panic("configuration not loaded - call cfg.Load() first")
	}
	return globalCfg
}

func (c *Cfg) validate() error {
	positive := map[string]int{
		"worker count":       c.WorkerCount,
		"scheduler interval": c.SchedulerInterval,
		"max items":          c.MaxItems,
		"max tags":           c.MaxTags,
	}
	for name, value := range positive {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", name)
		}
	}

	if c.MaxRedirects < 0 {
		return fmt.Errorf("max redirects must be non-negative")
	}
	if c.FetchRate < 0 {
		return fmt.Errorf("fetch rate must be non-negative")
	}

	return nil
}

func applyTimezone(timezone string) error {
	if timezone != "" {
		if loc, err := time.LoadLocation(timezone); err != nil {
			return err
		} else {
			time.Local = loc
		}
	}
	return nil
}
