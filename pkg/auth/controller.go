package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/dmitrymomot/authkit/pkg/credential"
	"github.com/dmitrymomot/authkit/pkg/profile"
	"github.com/dmitrymomot/authkit/pkg/sessionstore"
)

// VerificationNotifier triggers delivery of a verification message for
// a credential. Implemented by email.VerificationMailer.
type VerificationNotifier interface {
	SendVerification(ctx context.Context, email string) error
}

// defaultWatchBuffer is the channel depth handed to state watchers.
const defaultWatchBuffer = 16

// Controller owns the session state machine. It is the single writer of
// State; collaborator calls run outside the state lock and their
// completions are applied on return, so no two completions mutate State
// concurrently.
type Controller struct {
	provider credential.Provider
	profiles profile.Store
	marker   sessionstore.Store
	notifier VerificationNotifier
	log      *slog.Logger

	watchBuffer int

	mu    sync.Mutex
	state State
	hub   *stateHub
}

// New creates a Controller over the given collaborators. The initial
// state is SignedOut.
func New(
	provider credential.Provider,
	profiles profile.Store,
	marker sessionstore.Store,
	notifier VerificationNotifier,
	opts ...Option,
) *Controller {
	c := &Controller{
		provider:    provider,
		profiles:    profiles,
		marker:      marker,
		notifier:    notifier,
		log:         slog.Default(),
		watchBuffer: defaultWatchBuffer,
		state:       State{Status: StatusSignedOut},
	}

	for _, opt := range opts {
		opt(c)
	}

	c.hub = newStateHub(c.watchBuffer)
	return c
}

// State returns a snapshot of the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.clone()
}

// Watch subscribes to state snapshots. The channel receives the current
// state immediately and a new snapshot after every state change, until
// the context is cancelled. Slow watchers lose intermediate snapshots
// rather than blocking the controller.
func (c *Controller) Watch(ctx context.Context) <-chan State {
	c.mu.Lock()
	current := c.state.clone()
	c.mu.Unlock()
	return c.hub.subscribe(ctx, current)
}

// Close shuts down the watcher hub. The controller itself holds no
// other resources.
func (c *Controller) Close() error {
	c.hub.close()
	return nil
}

// apply mutates the state under the lock and publishes the resulting
// snapshot. Publishing is non-blocking, so holding the lock keeps
// snapshot order consistent with state order.
func (c *Controller) apply(mutate func(*State)) {
	c.mu.Lock()
	defer c.mu.Unlock()

	mutate(&c.state)
	c.hub.publish(c.state.clone())
}

// SignUp registers a new account, persists its profile, and sends a
// verification email, in that order. Each step starts only after the
// previous one's completion. A failure after account creation is
// reported but the already-created credential is not rolled back.
func (c *Controller) SignUp(ctx context.Context, name, email, password string) error {
	c.apply(func(s *State) { s.Status = StatusRegistering })

	id, err := c.provider.Create(ctx, email, password)
	if err != nil {
		c.log.ErrorContext(ctx, "sign-up failed", "error", err)
		c.apply(func(s *State) {
			s.Status = StatusSignedOut
			s.IsRegistered = false
			s.LastMessage = err.Error()
		})
		return errors.Join(ErrCredential, err)
	}

	prof := profile.Profile{
		ID:          id.ID,
		DisplayName: name,
		Email:       email,
		Secret:      password,
		Verified:    id.Verified,
	}

	if err := c.profiles.Save(ctx, prof); err != nil {
		// The credential exists even though the profile does not.
		c.log.ErrorContext(ctx, "profile save failed after sign-up", "id", id.ID, "error", err)
		c.apply(func(s *State) {
			s.Status = StatusSignedOut
			s.Identity = &id
			s.IsRegistered = true
			s.LastMessage = err.Error()
		})
		return errors.Join(ErrPersistence, err)
	}

	c.apply(func(s *State) {
		s.Status = StatusAuthenticated
		s.Identity = &id
		s.CurrentProfile = &prof
		s.IsRegistered = true
		s.LastMessage = ""
	})
	c.log.InfoContext(ctx, "account registered", "id", id.ID)

	return c.sendVerification(ctx, email)
}

// SignIn authenticates the credentials, persists the session marker,
// and replaces the provisional profile with the durable one. The marker
// is written only after the provider confirms the session.
func (c *Controller) SignIn(ctx context.Context, email, password string) error {
	c.apply(func(s *State) { s.Status = StatusAuthenticating })

	id, err := c.provider.Authenticate(ctx, email, password)
	if err != nil {
		c.log.ErrorContext(ctx, "sign-in failed", "error", err)
		c.apply(func(s *State) {
			s.Status = StatusSignedOut
			s.IsAuthenticated = false
			s.LastMessage = err.Error()
		})
		return errors.Join(ErrCredential, err)
	}

	prov := provisionalProfile(id)
	c.apply(func(s *State) {
		s.Status = StatusAuthenticated
		s.Identity = &id
		s.CurrentProfile = &prov
		s.IsAuthenticated = true
		s.LastMessage = ""
	})
	c.log.InfoContext(ctx, "signed in", "id", id.ID)

	if err := c.marker.Set(ctx, id.ID); err != nil {
		c.log.ErrorContext(ctx, "session marker write failed", "id", id.ID, "error", err)
		c.apply(func(s *State) { s.LastMessage = err.Error() })
		return errors.Join(ErrPersistence, err)
	}

	return c.FetchProfile(ctx)
}

// SignOut ends the provider session and clears the local session. On
// provider failure the local state is left untouched so the client does
// not desynchronize from a provider that still considers the session
// active.
func (c *Controller) SignOut(ctx context.Context) error {
	if err := c.provider.Deauthenticate(ctx); err != nil {
		c.log.ErrorContext(ctx, "sign-out failed", "error", err)
		c.apply(func(s *State) { s.LastMessage = err.Error() })
		return errors.Join(ErrCredential, err)
	}

	clearErr := c.marker.Clear(ctx)

	c.apply(func(s *State) {
		s.Status = StatusSignedOut
		s.CurrentProfile = nil
		s.Identity = nil
		s.IsAuthenticated = false
		s.IsRegistered = false
		s.PasswordResetRequested = false
		s.LastMessage = ""
		if clearErr != nil {
			s.LastMessage = clearErr.Error()
		}
	})
	c.log.InfoContext(ctx, "signed out")

	if clearErr != nil {
		c.log.ErrorContext(ctx, "session marker clear failed", "error", clearErr)
		return errors.Join(ErrPersistence, clearErr)
	}
	return nil
}

// SendVerification sends a verification email for the currently active
// credential. Success is reported as an informational message, not a
// state transition.
func (c *Controller) SendVerification(ctx context.Context) error {
	id, ok := c.provider.CurrentIdentity(ctx)
	if !ok {
		return ErrPreconditionNotMet
	}
	return c.sendVerification(ctx, id.Email)
}

func (c *Controller) sendVerification(ctx context.Context, email string) error {
	if err := c.notifier.SendVerification(ctx, email); err != nil {
		c.log.ErrorContext(ctx, "verification send failed", "error", err)
		c.apply(func(s *State) { s.LastMessage = err.Error() })
		return errors.Join(ErrNotification, err)
	}

	c.apply(func(s *State) {
		s.LastMessage = fmt.Sprintf("verification email sent to %s", email)
	})
	return nil
}

// SaveProfile persists the current in-memory profile. Requires a
// current profile.
func (c *Controller) SaveProfile(ctx context.Context) error {
	c.mu.Lock()
	var prof *profile.Profile
	if c.state.CurrentProfile != nil {
		p := *c.state.CurrentProfile
		prof = &p
	}
	c.mu.Unlock()

	if prof == nil {
		return ErrPreconditionNotMet
	}

	if err := c.profiles.Save(ctx, *prof); err != nil {
		c.log.ErrorContext(ctx, "profile save failed", "id", prof.ID, "error", err)
		c.apply(func(s *State) { s.LastMessage = err.Error() })
		return errors.Join(ErrPersistence, err)
	}
	return nil
}

// FetchProfile retrieves the durable profile for the active provider
// identity and replaces the current profile wholesale. On failure the
// previous profile is left untouched.
func (c *Controller) FetchProfile(ctx context.Context) error {
	id, ok := c.provider.CurrentIdentity(ctx)
	if !ok {
		return ErrPreconditionNotMet
	}

	p, err := c.profiles.Fetch(ctx, id.ID)
	if err != nil {
		c.log.ErrorContext(ctx, "profile fetch failed", "id", id.ID, "error", err)
		c.apply(func(s *State) { s.LastMessage = err.Error() })
		return errors.Join(ErrPersistence, err)
	}

	c.apply(func(s *State) { s.CurrentProfile = &p })
	return nil
}

// RefreshVerificationStatus reconciles the provider-reported verified
// flag with the durable record. Requires a current profile whose ID
// matches the provider's active identity, which guards against acting
// on a stale profile after an identity switch. When the flags already
// agree this is a no-op, so repeated calls produce no further durable
// writes.
func (c *Controller) RefreshVerificationStatus(ctx context.Context) error {
	c.mu.Lock()
	var curID string
	var curVerified bool
	hasProfile := c.state.CurrentProfile != nil
	if hasProfile {
		curID = c.state.CurrentProfile.ID
		curVerified = c.state.CurrentProfile.Verified
	}
	c.mu.Unlock()

	if !hasProfile {
		return ErrPreconditionNotMet
	}

	id, ok := c.provider.CurrentIdentity(ctx)
	if !ok || id.ID != curID {
		return ErrPreconditionNotMet
	}

	if id.Verified == curVerified {
		return nil
	}

	if err := c.profiles.UpdateVerification(ctx, curID, id.Verified); err != nil {
		c.log.ErrorContext(ctx, "verification update failed", "id", curID, "error", err)
		c.apply(func(s *State) { s.LastMessage = err.Error() })
		return errors.Join(ErrPersistence, err)
	}
	c.log.InfoContext(ctx, "verification status reconciled", "id", curID, "verified", id.Verified)

	return c.FetchProfile(ctx)
}

// ResetPassword asks the provider to deliver a password-reset message.
func (c *Controller) ResetPassword(ctx context.Context, email string) error {
	if err := c.provider.SendPasswordReset(ctx, email); err != nil {
		c.log.ErrorContext(ctx, "password reset request failed", "error", err)
		c.apply(func(s *State) {
			s.PasswordResetRequested = false
			s.LastMessage = err.Error()
		})
		return errors.Join(ErrCredential, err)
	}

	c.apply(func(s *State) {
		s.PasswordResetRequested = true
		s.LastMessage = fmt.Sprintf("password reset email sent to %s", email)
	})
	return nil
}

// FetchByVerification lists profiles by verification status into the
// FilteredProfiles slot. It never touches the current profile or the
// search results.
func (c *Controller) FetchByVerification(ctx context.Context, verified bool) error {
	list, err := c.profiles.QueryByVerification(ctx, verified)
	if err != nil {
		c.log.ErrorContext(ctx, "verification query failed", "error", err)
		c.apply(func(s *State) { s.LastMessage = err.Error() })
		return errors.Join(ErrPersistence, err)
	}

	c.apply(func(s *State) { s.FilteredProfiles = list })
	return nil
}

// Search lists profiles matching the free-text query into the
// SearchResults slot. It never touches the current profile or the
// filtered profiles.
func (c *Controller) Search(ctx context.Context, query string) error {
	list, err := c.profiles.Search(ctx, query)
	if err != nil {
		c.log.ErrorContext(ctx, "profile search failed", "error", err)
		c.apply(func(s *State) { s.LastMessage = err.Error() })
		return errors.Join(ErrPersistence, err)
	}

	c.apply(func(s *State) { s.SearchResults = list })
	return nil
}

// FetchAllProfiles lists every profile into the AllProfiles slot.
func (c *Controller) FetchAllProfiles(ctx context.Context) error {
	list, err := c.profiles.FetchAll(ctx)
	if err != nil {
		c.log.ErrorContext(ctx, "profile list failed", "error", err)
		c.apply(func(s *State) { s.LastMessage = err.Error() })
		return errors.Join(ErrPersistence, err)
	}

	c.apply(func(s *State) { s.AllProfiles = list })
	return nil
}

// restore applies one session-change event from the provider stream.
// An active identity counts as an implicit successful restoration; an
// absent one is an explicit no-session condition, never a silent drop.
func (c *Controller) restore(ctx context.Context, change credential.SessionChange) {
	if !change.Active {
		c.log.WarnContext(ctx, "session restore found no active session")
		c.apply(func(s *State) {
			s.Status = StatusSignedOut
			s.CurrentProfile = nil
			s.Identity = nil
			s.IsAuthenticated = false
			s.LastMessage = ErrSessionRestore.Error()
		})
		return
	}

	id := change.Identity
	prov := provisionalProfile(id)
	c.apply(func(s *State) {
		s.Status = StatusAuthenticated
		s.Identity = &id
		s.CurrentProfile = &prov
		s.IsAuthenticated = true
		s.LastMessage = ""
	})
	c.log.InfoContext(ctx, "session restored", "id", id.ID)

	// Failure surfaces through LastMessage; the provisional profile stays.
	_ = c.FetchProfile(ctx)
}

// provisionalProfile builds a profile from provider-reported fields
// before the durable record has been fetched. The display name is
// intentionally unknown at this point.
func provisionalProfile(id credential.Identity) profile.Profile {
	return profile.Profile{
		ID:       id.ID,
		Email:    id.Email,
		Verified: id.Verified,
	}
}
