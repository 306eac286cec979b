package auth

import "log/slog"

// Option configures the Controller.
type Option func(*Controller)

// WithLogger sets the structured logger. Nil loggers are ignored.
func WithLogger(log *slog.Logger) Option {
	return func(c *Controller) {
		if log != nil {
			c.log = log
		}
	}
}

// WithWatchBuffer sets the channel depth for state watchers. Watchers
// whose buffer fills up lose intermediate snapshots instead of
// blocking the controller.
func WithWatchBuffer(size int) Option {
	return func(c *Controller) {
		if size > 0 {
			c.watchBuffer = size
		}
	}
}
