package cmd

import (
	"fmt"
	"time"

	"github.com/sljivkov/dextick/config"
)

// windowOption overrides the configured window with the non-empty flag values
func windowOption(timeAgo, interval string) config.Option {
	return func(c *config.Config) error {
		if timeAgo != "" {
			d, err := time.ParseDuration(timeAgo)
			if err != nil {
				return fmt.Errorf("invalid time-ago: %w", err)
			}

			c.TimeAgo = d
		}

		if interval != "" {
			d, err := time.ParseDuration(interval)
			if err != nil {
				return fmt.Errorf("invalid interval: %w", err)
			}

			c.Interval = d
		}

		return nil
	}
}
