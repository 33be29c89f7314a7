package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

type Config struct {
	WorkingDir string         `toml:"working_dir"`
	Storage    StorageConfig  `toml:"storage"`
	Mail       MailConfig     `toml:"mail"`
	Feed       FeedConfig     `toml:"feed"`
	Sources    []SourceConfig `toml:"sources"`
}

type StorageConfig struct {
	Type string `toml:"type"`
	Path string `toml:"path"`
}

type MailConfig struct {
	Enabled       bool   `toml:"enabled"`
	Host          string `toml:"host"`
	Port          int    `toml:"port"`
	Username      string `toml:"username"`
	Password      string `toml:"password"`
	UseTLS        bool   `toml:"use_tls"`
	Sender        string `toml:"sender"`
	Receiver      string `toml:"receiver"`
	MaxPerSession int    `toml:"max_per_session"`
}

type FeedConfig struct {
	Enabled    bool   `toml:"enabled"`
	Path       string `toml:"path"`
	MaxEntries int    `toml:"max_entries"`
}

type SourceConfig struct {
	Name          string        `toml:"name"`
	Diff          bool          `toml:"diff"`
	KeepAllHashes bool          `toml:"keep_all_hashes"`
	Receiver      string        `toml:"receiver"`
	Stages        []StageConfig `toml:"stages"`
	PostRun       []StageConfig `toml:"post_run"`
}

type StageConfig struct {
	Type     string                 `toml:"type"`
	Settings map[string]interface{} `toml:"settings"`
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	// Pre-seed so an absent max_per_session means unlimited while an
	// explicit 0 stays a zero budget.
	config := Config{Mail: MailConfig{MaxPerSession: -1}}
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &config, nil
}

func validateConfig(config *Config) error {
	if config.WorkingDir == "" {
		config.WorkingDir = "./webwatch-data"
	}

	if config.Storage.Type == "" {
		config.Storage.Type = "file"
	}

	if config.Mail.Enabled {
		if config.Mail.Host == "" {
			return fmt.Errorf("mail is enabled but host is not set")
		}
		if config.Mail.Sender == "" {
			return fmt.Errorf("mail is enabled but sender is not set")
		}
		if config.Mail.Receiver == "" {
			return fmt.Errorf("mail is enabled but receiver is not set")
		}
		if config.Mail.Port == 0 {
			config.Mail.Port = 587
		}
	}

	if config.Feed.Path == "" {
		config.Feed.Path = "feed.xml"
	}
	if config.Feed.MaxEntries == 0 {
		config.Feed.MaxEntries = 100
	}

	if len(config.Sources) == 0 {
		return fmt.Errorf("at least one source must be configured")
	}
	names := make(map[string]struct{}, len(config.Sources))
	for _, src := range config.Sources {
		if src.Name == "" {
			return fmt.Errorf("every source needs a name")
		}
		if _, dup := names[src.Name]; dup {
			return fmt.Errorf("duplicate source name: %s", src.Name)
		}
		names[src.Name] = struct{}{}
		if len(src.Stages) == 0 {
			return fmt.Errorf("source %s: no stages configured", src.Name)
		}
	}

	return nil
}

// StoragePath resolves where the selected backend keeps its data.
func (c *Config) StoragePath() string {
	if c.Storage.Path != "" {
		return c.Storage.Path
	}
	if c.Storage.Type == "sqlite" {
		return filepath.Join(c.WorkingDir, "webwatch.db")
	}
	return c.WorkingDir
}

// FeedPath resolves the feed file location, relative paths landing under
// the working directory.
func (c *Config) FeedPath() string {
	if filepath.IsAbs(c.Feed.Path) {
		return c.Feed.Path
	}
	return filepath.Join(c.WorkingDir, c.Feed.Path)
}

func GetString(settings map[string]interface{}, key string, defaultValue string) string {
	if val, ok := settings[key]; ok {
		if str, ok := val.(string); ok {
			return str
		}
	}
	return defaultValue
}

func GetInt(settings map[string]interface{}, key string, defaultValue int) int {
	if val, ok := settings[key]; ok {
		if i, ok := val.(int64); ok {
			return int(i)
		}
		if i, ok := val.(int); ok {
			return i
		}
	}
	return defaultValue
}

func GetBool(settings map[string]interface{}, key string, defaultValue bool) bool {
	if val, ok := settings[key]; ok {
		if b, ok := val.(bool); ok {
			return b
		}
	}
	return defaultValue
}

func GetDuration(settings map[string]interface{}, key string, defaultValue time.Duration) time.Duration {
	if val, ok := settings[key]; ok {
		if str, ok := val.(string); ok {
			if d, err := time.ParseDuration(str); err == nil {
				return d
			}
		}
	}
	return defaultValue
}
