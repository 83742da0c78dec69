package feed

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestConfigCacheLoadValidConfig(t *testing.T) {
	tempDir := t.TempDir()

	writeConfig(t, tempDir, "jazz.yml", `
url: "https://example.com/feed.xml"
bot_username: "jazz_bot"

settings:
  enabled: true
  refresh_interval: 1800
  max_items: 5
`)

	configCache := NewConfigCache(tempDir)
	if err := configCache.Run(); err != nil {
		t.Fatal(err)
	}

	if configCache.GetConfigCount() != 1 {
		t.Errorf("Expected 1 feedConfig, got %d", configCache.GetConfigCount())
	}

	feedConfig, err := configCache.GetConfig("jazz")
	if err != nil {
		t.Fatal(err)
	}

	if feedConfig.Name != "jazz" {
		t.Errorf("Expected name 'jazz', got '%s'", feedConfig.Name)
	}
	if feedConfig.URL != "https://example.com/feed.xml" {
		t.Errorf("Expected URL 'https://example.com/feed.xml', got '%s'", feedConfig.URL)
	}
	if feedConfig.BotUsername != "jazz_bot" {
		t.Errorf("Expected bot username 'jazz_bot', got '%s'", feedConfig.BotUsername)
	}
	if feedConfig.Settings.GetRefreshInterval() != 30*time.Minute {
		t.Errorf("Expected refresh interval 30m, got %v", feedConfig.Settings.GetRefreshInterval())
	}
	if feedConfig.Settings.MaxItems != 5 {
		t.Errorf("Expected max items 5, got %d", feedConfig.Settings.MaxItems)
	}
}

func TestConfigCacheLoadConfigWithDefaults(t *testing.T) {
	tempDir := t.TempDir()

	writeConfig(t, tempDir, "test.yml", `
url: "https://example.com/feed.xml"

settings:
  enabled: true
`)

	configCache := NewConfigCache(tempDir)
	if err := configCache.Run(); err != nil {
		t.Fatal(err)
	}

	feedConfig, err := configCache.GetConfig("test")
	if err != nil {
		t.Fatal(err)
	}

	if feedConfig.Settings.RefreshInterval != 3600 {
		t.Errorf("Expected default refresh interval 3600, got %d", feedConfig.Settings.RefreshInterval)
	}
	if feedConfig.Settings.MaxItems != 0 {
		t.Errorf("Expected max items 0 (use global default), got %d", feedConfig.Settings.MaxItems)
	}
	if feedConfig.BotUsername != "" {
		t.Errorf("Expected empty bot username, got '%s'", feedConfig.BotUsername)
	}
}

func TestConfigCacheInvalidConfig(t *testing.T) {
	tempDir := t.TempDir()

	writeConfig(t, tempDir, "invalid.yml", `
settings:
  enabled: true
`)

	configCache := NewConfigCache(tempDir)
	if err := configCache.Run(); err == nil {
		t.Error("Expected error for invalid feedConfig")
	}
}

func TestConfigCacheMissingDirectory(t *testing.T) {
	configCache := NewConfigCache(filepath.Join(t.TempDir(), "missing"))
	if err := configCache.Run(); err != nil {
		t.Fatal(err)
	}
	if configCache.GetConfigCount() != 0 {
		t.Errorf("Expected 0 feedConfigs, got %d", configCache.GetConfigCount())
	}
}

func TestConfigCacheReloadConfig(t *testing.T) {
	tempDir := t.TempDir()

	configFile := writeConfig(t, tempDir, "test.yml", `
url: "https://example.com/feed.xml"
settings:
  enabled: true
`)

	configCache := NewConfigCache(tempDir)
	if err := configCache.Run(); err != nil {
		t.Fatal(err)
	}

	writeConfig(t, tempDir, "test.yml", `
url: "https://example.com/new-feed.xml"
settings:
  enabled: false
  max_items: 1
`)

	reloadedConfig, err := configCache.LoadConfig("test")
	if err != nil {
		t.Fatal(err)
	}

	if reloadedConfig.URL != "https://example.com/new-feed.xml" {
		t.Errorf("Expected updated URL, got '%s'", reloadedConfig.URL)
	}
	if reloadedConfig.Settings.Enabled {
		t.Error("Expected feed to be disabled after reload")
	}
	if reloadedConfig.Settings.MaxItems != 1 {
		t.Errorf("Expected updated max_items 1, got %d", reloadedConfig.Settings.MaxItems)
	}

	if _, err := configCache.LoadConfig("nonexistent"); err == nil {
		t.Error("Expected error for non-existent config")
	}

	if err := os.WriteFile(configFile, []byte(`invalid yaml content`), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := configCache.LoadConfig("test"); err == nil {
		t.Error("Expected error for invalid config file")
	}
}

func TestConfigCacheGetEnabledConfigs(t *testing.T) {
	tempDir := t.TempDir()

	writeConfig(t, tempDir, "on.yml", `
url: "https://example.com/on.xml"
settings:
  enabled: true
`)
	writeConfig(t, tempDir, "off.yml", `
url: "https://example.com/off.xml"
settings:
  enabled: false
`)

	configCache := NewConfigCache(tempDir)
	if err := configCache.Run(); err != nil {
		t.Fatal(err)
	}

	allConfigs := configCache.GetConfigs()
	if len(allConfigs) != 2 {
		t.Errorf("Expected 2 configs, got %d", len(allConfigs))
	}

	delete(allConfigs, "on")
	if configCache.GetConfigCount() != 2 {
		t.Error("Modifying returned configs map affected the cache")
	}

	enabled := configCache.GetEnabledConfigs()
	if len(enabled) != 1 {
		t.Fatalf("Expected 1 enabled config, got %d", len(enabled))
	}
	if _, ok := enabled["on"]; !ok {
		t.Error("Expected 'on' to be enabled")
	}
}

func TestConfigCacheValidateConfig(t *testing.T) {
	configCache := NewConfigCache("")

	if err := configCache.validateConfig(nil); err == nil {
		t.Error("Expected error for nil feedConfig, got none")
	}

	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{"valid", Config{Name: "f", URL: "https://example.com/feed.xml", BotUsername: "f_bot"}, false},
		{"empty name", Config{URL: "https://example.com/feed.xml"}, true},
		{"empty url", Config{Name: "f"}, true},
		{"relative url", Config{Name: "f", URL: "/feed.xml"}, true},
		{"ftp url", Config{Name: "f", URL: "ftp://example.com/feed.xml"}, true},
		{"negative refresh", Config{Name: "f", URL: "https://example.com", Settings: ConfigSettings{RefreshInterval: -1}}, true},
		{"negative max items", Config{Name: "f", URL: "https://example.com", Settings: ConfigSettings{MaxItems: -1}}, true},
		{"bad bot username", Config{Name: "f", URL: "https://example.com", BotUsername: "jazz bot!"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := tt.config
			err := configCache.validateConfig(&cfg)
			if (err != nil) != tt.wantErr {
				t.Errorf("validateConfig() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
