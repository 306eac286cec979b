package auth

import (
	"context"
	"errors"

	"github.com/dmitrymomot/authkit/pkg/sessionstore"
)

// Restorer feeds provider session-change notifications into the
// Controller to restore a previously active session on process start.
//
// The session marker decides whether restoration is attempted at all:
// no marker means the last session ended with a sign-out, so there is
// nothing to restore and the provider stream is never subscribed. When
// a marker exists, every change event is applied; the provider, not
// the marker, is the authority on whether a session is actually active.
type Restorer struct {
	ctrl *Controller
}

// NewRestorer creates a Restorer over the controller's collaborators.
func NewRestorer(ctrl *Controller) *Restorer {
	return &Restorer{ctrl: ctrl}
}

// Run blocks processing session-change events until the context is
// cancelled or the provider closes the stream. It returns immediately
// with a nil error when no session marker is stored.
//
// The subscription delivers the current session value first, so a
// process that starts with an ambient provider session restores it
// without any explicit sign-in.
func (r *Restorer) Run(ctx context.Context) error {
	c := r.ctrl

	if _, err := c.marker.Get(ctx); err != nil {
		if errors.Is(err, sessionstore.ErrNoMarker) {
			c.log.DebugContext(ctx, "no session marker, skipping restore")
			return nil
		}
		c.log.ErrorContext(ctx, "session marker read failed", "error", err)
		return errors.Join(ErrPersistence, err)
	}

	c.apply(func(s *State) { s.Status = StatusRestoring })

	changes := c.provider.SessionChanges(ctx)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case change, ok := <-changes:
			if !ok {
				return nil
			}
			c.restore(ctx, change)
		}
	}
}
