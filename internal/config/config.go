package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/csspublisher/internal/foundation/errors"
)

// Config represents the application configuration.
type Config struct {
	Source      SourceConfig      `yaml:"source"`
	Workspace   WorkspaceConfig   `yaml:"workspace"`
	Destination DestinationConfig `yaml:"destination"`
	Logging     LoggingConfig     `yaml:"logging"`
	History     HistoryConfig     `yaml:"history,omitempty"`
	Events      EventsConfig      `yaml:"events,omitempty"`
	Daemon      DaemonConfig      `yaml:"daemon,omitempty"`
}

// SourceConfig describes the repository holding the style sources.
type SourceConfig struct {
	URL  string      `yaml:"url"`
	Auth *AuthConfig `yaml:"auth,omitempty"`
	// TrustAnyServerIdentity disables TLS certificate verification for the
	// clone. Only set it for operator-controlled source hosts.
	TrustAnyServerIdentity bool     `yaml:"trust_any_server_identity"`
	EntryFile              string   `yaml:"entry_file"`
	AssetDir               string   `yaml:"asset_dir"`
	LoadPaths              []string `yaml:"load_paths,omitempty"`
}

// WorkspaceConfig locates the scratch checkout. The directory is wiped at the
// start of every run.
type WorkspaceConfig struct {
	Dir string `yaml:"dir"`
}

// DestinationConfig identifies the subreddit and the API credentials used to
// publish to it.
type DestinationConfig struct {
	Subreddit    string `yaml:"subreddit"`
	UserAgent    string `yaml:"user_agent,omitempty"`
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
	RefreshToken string `yaml:"refresh_token"`
	APIURL       string `yaml:"api_url,omitempty"`
	TokenURL     string `yaml:"token_url,omitempty"`
}

// LoggingConfig controls the slog handler built at startup.
type LoggingConfig struct {
	Level  LogLevel  `yaml:"level"`
	Format LogFormat `yaml:"format"`
}

// HistoryConfig enables the SQLite run history when Path is set.
type HistoryConfig struct {
	Path string `yaml:"path,omitempty"`
}

// EventsConfig enables outcome broadcast over NATS when NATSURL is set.
type EventsConfig struct {
	NATSURL string `yaml:"nats_url,omitempty"`
	Subject string `yaml:"subject,omitempty"`
}

// DaemonConfig configures the watch command.
type DaemonConfig struct {
	Interval    time.Duration `yaml:"interval,omitempty"`
	MetricsAddr string        `yaml:"metrics_addr,omitempty"`
}

// EntryPath returns the entry stylesheet path inside a checkout.
func (c *Config) EntryPath(root string) string {
	return filepath.Join(root, filepath.FromSlash(c.Source.EntryFile))
}

// AssetPath returns the asset directory inside a checkout, or "" when no
// asset directory is configured.
func (c *Config) AssetPath(root string) string {
	if c.Source.AssetDir == "" {
		return ""
	}
	return filepath.Join(root, filepath.FromSlash(c.Source.AssetDir))
}

// Load loads configuration from the specified file.
func Load(configPath string) (*Config, error) {
	loadEnvFiles()

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.ConfigError("configuration file not found").
				WithContext("path", configPath).
				Build()
		}
		return nil, errors.ConfigError("failed to read config file").
			WithCause(err).
			WithContext("path", configPath).
			Build()
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, err
	}
	if err := cfg.validateWorkspace(configPath); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Parse decodes YAML configuration, expanding environment variables, then
// applies defaults and validates.
func Parse(data []byte) (*Config, error) {
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, errors.ConfigError("failed to unmarshal config").WithCause(err).Build()
	}
	applyDefaults(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Init writes an example configuration file.
func Init(configPath string, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return errors.ValidationError("configuration file already exists (use --force to overwrite)").
			WithContext("path", configPath).
			Build()
	}

	data, err := yaml.Marshal(Example())
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(configPath, data, 0o600); err != nil {
		return errors.FileSystemError("failed to write config file").
			WithCause(err).
			WithContext("path", configPath).
			Build()
	}
	return nil
}

// Example returns the configuration written by Init.
func Example() *Config {
	return &Config{
		Source: SourceConfig{
			URL:                    "https://github.com/example/subreddit-stylesheet.git",
			Auth:                   &AuthConfig{Type: AuthTypeToken, Token: "${GITHUB_TOKEN}"},
			TrustAnyServerIdentity: true,
			EntryFile:              "scss/main.scss",
			AssetDir:               "images",
		},
		Workspace: WorkspaceConfig{Dir: "./repo"},
		Destination: DestinationConfig{
			Subreddit:    "example",
			UserAgent:    DefaultUserAgent,
			ClientID:     "${REDDIT_CLIENT_ID}",
			ClientSecret: "${REDDIT_CLIENT_SECRET}",
			RefreshToken: "${REDDIT_REFRESH_TOKEN}",
		},
		Logging: LoggingConfig{Level: LogLevelInfo, Format: LogFormatText},
		Events:  EventsConfig{Subject: DefaultEventSubject},
		Daemon:  DaemonConfig{Interval: DefaultInterval, MetricsAddr: ":9090"},
	}
}
