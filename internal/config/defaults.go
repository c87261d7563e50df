package config

import "time"

const (
	DefaultWorkspaceDir  = "./repo"
	DefaultUserAgent     = "csspublisher"
	DefaultAPIURL        = "https://oauth.reddit.com"
	DefaultTokenURL      = "https://www.reddit.com/api/v1/access_token"
	DefaultEventSubject  = "csspublisher.runs"
	DefaultInterval      = 15 * time.Minute
	DefaultMetricsAddr   = ":9090"
	DefaultPublishedName = "subreddit.css"
)

func applyDefaults(cfg *Config) {
	if cfg.Workspace.Dir == "" {
		cfg.Workspace.Dir = DefaultWorkspaceDir
	}
	if cfg.Source.Auth == nil {
		cfg.Source.Auth = &AuthConfig{Type: AuthTypeNone}
	}
	if cfg.Source.Auth.Type == "" {
		if cfg.Source.Auth.Token != "" {
			cfg.Source.Auth.Type = AuthTypeToken
		} else {
			cfg.Source.Auth.Type = AuthTypeNone
		}
	}
	if cfg.Destination.UserAgent == "" {
		cfg.Destination.UserAgent = DefaultUserAgent
	}
	if cfg.Destination.APIURL == "" {
		cfg.Destination.APIURL = DefaultAPIURL
	}
	if cfg.Destination.TokenURL == "" {
		cfg.Destination.TokenURL = DefaultTokenURL
	}
	cfg.Logging.Level = NormalizeLogLevel(string(cfg.Logging.Level))
	cfg.Logging.Format = NormalizeLogFormat(string(cfg.Logging.Format))
	if cfg.Events.Subject == "" {
		cfg.Events.Subject = DefaultEventSubject
	}
	if cfg.Daemon.Interval <= 0 {
		cfg.Daemon.Interval = DefaultInterval
	}
	if cfg.Daemon.MetricsAddr == "" {
		cfg.Daemon.MetricsAddr = DefaultMetricsAddr
	}
}
