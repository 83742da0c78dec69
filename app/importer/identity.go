package importer

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/lysyi3m/rss-importer/app/database"
	"github.com/lysyi3m/rss-importer/app/feed"
)

const maxUsernameSuffix = 100

type importerAssigner interface {
	SetImporter(feedID, importerID string) error
}

// Provisioner creates the bot importer of a feed on its first import.
type Provisioner struct {
	importers database.ImporterRepository
	feeds     importerAssigner
}

var _ IdentityProvider = (*Provisioner)(nil)

func NewProvisioner(importers database.ImporterRepository, feeds importerAssigner) *Provisioner {
	return &Provisioner{
		importers: importers,
		feeds:     feeds,
	}
}

// EnsureImporter returns the feed's importer. A feed without one gets a new
// importer named after its bot username, suffixed 1..100 when taken.
func (p *Provisioner) EnsureImporter(f database.Feed) (*database.Importer, error) {
	if f.ImporterID != "" {
		importer, err := p.importers.GetImporter(f.ImporterID)
		if err != nil {
			return nil, err
		}
		if importer != nil {
			return importer, nil
		}
		slog.Warn("Feed importer missing, provisioning a new one", "feed", f.Name, "importer_id", f.ImporterID)
	}

	base := strings.TrimSpace(f.BotUsername)
	if base == "" {
		return nil, fmt.Errorf("%w: feed %s has no bot username", ErrNoImporter, f.Name)
	}

	name := botName(f.FeedURL)

	for suffix := 0; suffix <= maxUsernameSuffix; suffix++ {
		username := base
		if suffix > 0 {
			username = fmt.Sprintf("%s%d", base, suffix)
		}

		importer, err := p.importers.CreateImporter(username, name)
		if errors.Is(err, database.ErrDuplicateUsername) {
			continue
		}
		if err != nil {
			return nil, err
		}

		if err := p.feeds.SetImporter(f.ID, importer.ID); err != nil {
			return nil, fmt.Errorf("failed to attach importer to feed: %w", err)
		}

		slog.Info("Importer provisioned", "feed", f.Name, "username", importer.Username)
		return importer, nil
	}

	return nil, fmt.Errorf("%w: no free username for %q", ErrNoImporter, base)
}

func botName(feedURL string) string {
	if host := feed.HostOf(feedURL); host != "" {
		return fmt.Sprintf("RSS Bot (%s)", host)
	}
	return "RSS Feed Bot"
}
