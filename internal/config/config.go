package config

import (
	"embed"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/IDAN2468D/NovaNews/internal/schedule"
	"github.com/adrg/xdg"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

//go:embed default_config.yaml
var defaultConfigFS embed.FS

const (
	envAIKey     = "NOVANEWS_AI_KEY"
	envSpeechKey = "NOVANEWS_SPEECH_KEY"
)

type Source struct {
	Name    string `yaml:"name"`
	Type    string `yaml:"type"`
	URL     string `yaml:"url"`
	Enabled bool   `yaml:"enabled"`
}

type AIConfig struct {
	Provider string `yaml:"provider"` // "gemini", "openai", "claude" or "headlines"
	APIKey   string `yaml:"api_key"`
	Model    string `yaml:"model"`
	BaseURL  string `yaml:"base_url,omitempty"`
}

type SpeechConfig struct {
	Provider string `yaml:"provider"` // "gemini" or "gcloud"
	APIKey   string `yaml:"api_key"`
	Voice    string `yaml:"voice"`
}

type PrefsConfig struct {
	Backend  string `yaml:"backend"` // "sqlite" or "redis"
	RedisURL string `yaml:"redis_url,omitempty"`
}

type Config struct {
	DefaultTopic string       `yaml:"default_topic"`
	RefreshMode  string       `yaml:"refresh_mode"`
	Retention    string       `yaml:"retention"`
	HistorySize  int          `yaml:"history_size,omitempty"`
	LogLevel     string       `yaml:"log_level,omitempty"`
	ExportDir    string       `yaml:"export_dir,omitempty"`
	AI           AIConfig     `yaml:"ai"`
	Speech       SpeechConfig `yaml:"speech"`
	Prefs        PrefsConfig  `yaml:"prefs"`
	Sources      []Source     `yaml:"sources"`
}

// AIEnabled returns true if the configured provider can run: either it
// needs no key or a key is available.
func (c *Config) AIEnabled() bool {
	return c.AI.Provider == "headlines" || c.AIKey() != ""
}

// AIKey returns the resolved API key (config or env var).
func (c *Config) AIKey() string {
	if c.AI.APIKey != "" {
		return c.AI.APIKey
	}
	return os.Getenv(envAIKey)
}

// SpeechKey returns the speech API key, falling back to the AI key.
func (c *Config) SpeechKey() string {
	if c.Speech.APIKey != "" {
		return c.Speech.APIKey
	}
	if k := os.Getenv(envSpeechKey); k != "" {
		return k
	}
	return c.AIKey()
}

// InitialRefreshMode is used when no refresh mode has been persisted yet.
func (c *Config) InitialRefreshMode() schedule.Mode {
	m, err := schedule.ParseMode(c.RefreshMode)
	if err != nil {
		return schedule.Off
	}
	return m
}

func (c *Config) RetentionDuration() time.Duration {
	if c.Retention == "" {
		return 30 * 24 * time.Hour
	}
	// Support "Nd" day syntax
	if len(c.Retention) > 1 && c.Retention[len(c.Retention)-1] == 'd' {
		var days int
		if _, err := fmt.Sscanf(c.Retention, "%dd", &days); err == nil {
			return time.Duration(days) * 24 * time.Hour
		}
	}
	d, err := time.ParseDuration(c.Retention)
	if err != nil {
		return 30 * 24 * time.Hour
	}
	return d
}

// GetHistorySize returns the search history bound, defaulting to 10.
func (c *Config) GetHistorySize() int {
	if c.HistorySize <= 0 {
		return 10
	}
	return c.HistorySize
}

func (c *Config) EnabledSources() []Source {
	var out []Source
	for _, s := range c.Sources {
		if s.Enabled {
			out = append(out, s)
		}
	}
	return out
}

func (c *Config) SourceNames() []string {
	var names []string
	for _, s := range c.EnabledSources() {
		names = append(names, s.Name)
	}
	return names
}

// GetExportDir returns the export directory, defaulting to the user's
// download directory.
func (c *Config) GetExportDir() string {
	if c.ExportDir != "" {
		return c.ExportDir
	}
	if xdg.UserDirs.Download != "" {
		return xdg.UserDirs.Download
	}
	return "."
}

func DefaultConfigPath() string {
	return filepath.Join(xdg.ConfigHome, "novanews", "config.yaml")
}

func CachePath() string {
	return filepath.Join(xdg.CacheHome, "novanews", "novanews.db")
}

func LogPath() string {
	return filepath.Join(xdg.StateHome, "novanews", "novanews.log")
}

func loadDefaults() (*Config, error) {
	data, err := defaultConfigFS.ReadFile("default_config.yaml")
	if err != nil {
		return nil, fmt.Errorf("reading embedded config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded config: %w", err)
	}
	return &cfg, nil
}

// Load reads the config at path (or the default path), writing the
// embedded defaults there on first run. A .env file in the working
// directory is loaded into the environment first, if present.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	defaults, err := loadDefaults()
	if err != nil {
		return nil, err
	}

	if path == "" {
		path = DefaultConfigPath()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			// Non-fatal: just use embedded defaults
			_ = writeDefaults(path)
			return defaults, nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	applyDefaults(&cfg, defaults)
	mergeDefaultSources(&cfg, defaults)

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func writeDefaults(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, _ := defaultConfigFS.ReadFile("default_config.yaml")
	return os.WriteFile(path, data, 0o644)
}

// applyDefaults fills unset scalar settings from defaults.
func applyDefaults(cfg, defaults *Config) {
	if cfg.DefaultTopic == "" {
		cfg.DefaultTopic = defaults.DefaultTopic
	}
	if cfg.RefreshMode == "" {
		cfg.RefreshMode = defaults.RefreshMode
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = defaults.LogLevel
	}
	if cfg.AI.Provider == "" {
		cfg.AI.Provider = defaults.AI.Provider
	}
	if cfg.Speech.Provider == "" {
		cfg.Speech.Provider = defaults.Speech.Provider
	}
	if cfg.Speech.Voice == "" {
		cfg.Speech.Voice = defaults.Speech.Voice
	}
	if cfg.Prefs.Backend == "" {
		cfg.Prefs.Backend = defaults.Prefs.Backend
	}
}

// mergeDefaultSources appends default sources the user does not have and
// refreshes the type and URL of ones they share by name.
func mergeDefaultSources(cfg, defaults *Config) {
	index := make(map[string]int, len(cfg.Sources))
	for i, s := range cfg.Sources {
		index[s.Name] = i
	}
	for _, d := range defaults.Sources {
		if i, ok := index[d.Name]; ok {
			cfg.Sources[i].URL = d.URL
			cfg.Sources[i].Type = d.Type
			continue
		}
		cfg.Sources = append(cfg.Sources, d)
	}
}

func validate(cfg *Config) error {
	validTypes := map[string]bool{"rss": true, "atom": true}
	for i, s := range cfg.Sources {
		if s.Name == "" {
			return fmt.Errorf("source %d: name is required", i)
		}
		if s.URL == "" {
			return fmt.Errorf("source %q: url is required", s.Name)
		}
		u, err := url.Parse(s.URL)
		if err != nil {
			return fmt.Errorf("source %q: invalid url: %w", s.Name, err)
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return fmt.Errorf("source %q: url scheme must be http or https, got %q", s.Name, u.Scheme)
		}
		if !validTypes[s.Type] {
			return fmt.Errorf("source %q: unknown type %q (valid: rss, atom)", s.Name, s.Type)
		}
	}

	switch cfg.AI.Provider {
	case "", "gemini", "openai", "claude", "headlines":
	default:
		return fmt.Errorf("unknown ai provider %q (valid: gemini, openai, claude, headlines)", cfg.AI.Provider)
	}
	switch cfg.Speech.Provider {
	case "", "gemini", "gcloud", "none":
	default:
		return fmt.Errorf("unknown speech provider %q (valid: gemini, gcloud, none)", cfg.Speech.Provider)
	}
	switch cfg.Prefs.Backend {
	case "", "sqlite":
	case "redis":
		if strings.TrimSpace(cfg.Prefs.RedisURL) == "" {
			return fmt.Errorf("prefs backend redis requires redis_url")
		}
	default:
		return fmt.Errorf("unknown prefs backend %q (valid: sqlite, redis)", cfg.Prefs.Backend)
	}
	if cfg.RefreshMode != "" {
		if _, err := schedule.ParseMode(cfg.RefreshMode); err != nil {
			return err
		}
	}
	return nil
}
