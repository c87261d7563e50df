package commands

import (
	"time"

	"git.home.luguber.info/inful/csspublisher/internal/config"
	"git.home.luguber.info/inful/csspublisher/internal/foundation/errors"
)

func applyWatchOverrides(dc *config.DaemonConfig, interval, addr string) error {
	if interval != "" {
		d, err := time.ParseDuration(interval)
		if err != nil || d <= 0 {
			return errors.ValidationError("invalid --interval").
				WithCause(err).
				WithContext("interval", interval).
				Build()
		}
		dc.Interval = d
	}
	if addr != "" {
		dc.MetricsAddr = addr
	}
	return nil
}
