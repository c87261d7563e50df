package config

import (
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"git.home.luguber.info/inful/csspublisher/internal/foundation/errors"
)

// Validate checks that every field a run depends on is present and sane.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Source.URL) == "" {
		return invalid("source.url is required")
	}
	if _, err := url.Parse(c.Source.URL); err != nil {
		return errors.ConfigError("source.url is not a valid URL").WithCause(err).Build()
	}
	if c.Source.EntryFile == "" {
		return invalid("source.entry_file is required")
	}
	if escapes(c.Source.EntryFile) {
		return invalid("source.entry_file must stay inside the repository")
	}
	if c.Source.AssetDir != "" && escapes(c.Source.AssetDir) {
		return invalid("source.asset_dir must stay inside the repository")
	}
	if err := c.Source.Auth.validate(); err != nil {
		return err
	}
	if c.Destination.Subreddit == "" {
		return invalid("destination.subreddit is required")
	}
	return c.validateWorkspace("")
}

// validateWorkspace rejects scratch directories whose removal would take
// something else with it. Reset wipes the directory on every run.
func (c *Config) validateWorkspace(configPath string) error {
	if why := unsafeWorkspace(c.Workspace.Dir, configPath); why != "" {
		return errors.ConfigError("workspace.dir "+why).
			WithContext("dir", c.Workspace.Dir).
			Build()
	}
	return nil
}

func unsafeWorkspace(dir, configPath string) string {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "cannot be resolved"
	}
	if filepath.Dir(abs) == abs {
		return "is the filesystem root"
	}
	if cwd, err := os.Getwd(); err == nil && within(abs, cwd) {
		return "contains the working directory"
	}
	if home, err := os.UserHomeDir(); err == nil && home != "" && within(abs, home) {
		return "contains the home directory"
	}
	if configPath != "" {
		if cp, err := filepath.Abs(configPath); err == nil && within(abs, cp) {
			return "contains the configuration file"
		}
	}
	return ""
}

// within reports whether path is dir or lies below it.
func within(dir, path string) bool {
	rel, err := filepath.Rel(dir, path)
	return err == nil && !escapes(rel)
}

func (a *AuthConfig) validate() error {
	if a == nil {
		return nil
	}
	switch a.Type {
	case AuthTypeNone:
		return nil
	case AuthTypeToken:
		if a.Token == "" {
			return invalid("source.auth.token is required for token authentication")
		}
	case AuthTypeBasic:
		if a.Username == "" || a.Password == "" {
			return invalid("source.auth.username and password are required for basic authentication")
		}
	default:
		return errors.ConfigError("unsupported source.auth.type").WithContext("type", string(a.Type)).Build()
	}
	return nil
}

func escapes(rel string) bool {
	if filepath.IsAbs(rel) {
		return true
	}
	clean := filepath.Clean(filepath.FromSlash(rel))
	return clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator))
}

func invalid(message string) error {
	return errors.ConfigError(message).Build()
}
