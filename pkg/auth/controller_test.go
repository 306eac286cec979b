package auth_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/authkit/pkg/auth"
	"github.com/dmitrymomot/authkit/pkg/credential"
	"github.com/dmitrymomot/authkit/pkg/profile"
	"github.com/dmitrymomot/authkit/pkg/sessionstore"
)

type stubNotifier struct {
	mu   sync.Mutex
	sent []string
	err  error
}

func (n *stubNotifier) SendVerification(ctx context.Context, email string) error {
	if n.err != nil {
		return n.err
	}
	n.mu.Lock()
	n.sent = append(n.sent, email)
	n.mu.Unlock()
	return nil
}

func (n *stubNotifier) sentTo() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.sent...)
}

// fakeProvider is a scriptable credential provider for failure paths
// the in-memory reference provider cannot produce on demand.
type fakeProvider struct {
	mu        sync.Mutex
	identity  credential.Identity
	active    bool
	createErr error
	authErr   error
	deauthErr error
	resetErr  error
}

func (p *fakeProvider) Create(ctx context.Context, email, password string) (credential.Identity, error) {
	if p.createErr != nil {
		return credential.Identity{}, p.createErr
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.active = true
	return p.identity, nil
}

func (p *fakeProvider) Authenticate(ctx context.Context, email, password string) (credential.Identity, error) {
	if p.authErr != nil {
		return credential.Identity{}, p.authErr
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.active = true
	return p.identity, nil
}

func (p *fakeProvider) Deauthenticate(ctx context.Context) error {
	if p.deauthErr != nil {
		return p.deauthErr
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.active = false
	return nil
}

func (p *fakeProvider) SendPasswordReset(ctx context.Context, email string) error {
	return p.resetErr
}

func (p *fakeProvider) CurrentIdentity(ctx context.Context) (credential.Identity, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.active {
		return credential.Identity{}, false
	}
	return p.identity, true
}

func (p *fakeProvider) SessionChanges(ctx context.Context) <-chan credential.SessionChange {
	ch := make(chan credential.SessionChange, 1)
	p.mu.Lock()
	ch <- credential.SessionChange{Identity: p.identity, Active: p.active}
	p.mu.Unlock()
	return ch
}

// flakyStore wraps a Store with injectable per-method failures and an
// update counter.
type flakyStore struct {
	profile.Store

	mu          sync.Mutex
	updateCalls int
	saveErr     error
	fetchErr    error
	updateErr   error
	queryErr    error
	searchErr   error
}

func (s *flakyStore) Save(ctx context.Context, p profile.Profile) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	return s.Store.Save(ctx, p)
}

func (s *flakyStore) Fetch(ctx context.Context, id string) (profile.Profile, error) {
	if s.fetchErr != nil {
		return profile.Profile{}, s.fetchErr
	}
	return s.Store.Fetch(ctx, id)
}

func (s *flakyStore) UpdateVerification(ctx context.Context, id string, verified bool) error {
	s.mu.Lock()
	s.updateCalls++
	s.mu.Unlock()
	if s.updateErr != nil {
		return s.updateErr
	}
	return s.Store.UpdateVerification(ctx, id, verified)
}

func (s *flakyStore) QueryByVerification(ctx context.Context, verified bool) ([]profile.Profile, error) {
	if s.queryErr != nil {
		return nil, s.queryErr
	}
	return s.Store.QueryByVerification(ctx, verified)
}

func (s *flakyStore) Search(ctx context.Context, query string) ([]profile.Profile, error) {
	if s.searchErr != nil {
		return nil, s.searchErr
	}
	return s.Store.Search(ctx, query)
}

func (s *flakyStore) updates() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updateCalls
}

type fixture struct {
	provider *credential.LocalProvider
	profiles *flakyStore
	marker   *sessionstore.MemoryStore
	notifier *stubNotifier
	ctrl     *auth.Controller
}

func setup(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		provider: credential.NewLocalProvider(),
		profiles: &flakyStore{Store: profile.NewMemoryStore()},
		marker:   sessionstore.NewMemoryStore(),
		notifier: &stubNotifier{},
	}
	f.ctrl = auth.New(f.provider, f.profiles, f.marker, f.notifier)
	t.Cleanup(func() { _ = f.ctrl.Close() })
	return f
}

func TestController_SignUp(t *testing.T) {
	ctx := context.Background()

	t.Run("registers, saves profile, sends verification", func(t *testing.T) {
		f := setup(t)

		err := f.ctrl.SignUp(ctx, "Ann", "ann@x.com", "pw1")
		require.NoError(t, err)

		state := f.ctrl.State()
		assert.Equal(t, auth.StatusAuthenticated, state.Status)
		assert.True(t, state.IsRegistered)
		assert.False(t, state.IsAuthenticated)
		require.NotNil(t, state.CurrentProfile)
		assert.NotEmpty(t, state.CurrentProfile.ID)
		assert.Equal(t, "Ann", state.CurrentProfile.DisplayName)
		assert.Equal(t, "ann@x.com", state.CurrentProfile.Email)
		assert.False(t, state.CurrentProfile.Verified)

		// Exactly one durable save and one verification send.
		saved, err := f.profiles.Fetch(ctx, state.CurrentProfile.ID)
		require.NoError(t, err)
		assert.Equal(t, "Ann", saved.DisplayName)
		assert.Equal(t, []string{"ann@x.com"}, f.notifier.sentTo())
	})

	t.Run("credential failure leaves signed out", func(t *testing.T) {
		f := setup(t)
		_, err := f.provider.Create(ctx, "ann@x.com", "pw1")
		require.NoError(t, err)

		err = f.ctrl.SignUp(ctx, "Ann", "ann@x.com", "pw2")
		require.ErrorIs(t, err, auth.ErrCredential)

		state := f.ctrl.State()
		assert.Equal(t, auth.StatusSignedOut, state.Status)
		assert.False(t, state.IsRegistered)
		assert.NotEmpty(t, state.LastMessage)
		assert.Empty(t, f.notifier.sentTo())
	})

	t.Run("save failure is reported without rolling back the credential", func(t *testing.T) {
		f := setup(t)
		f.profiles.saveErr = errors.New("store offline")

		err := f.ctrl.SignUp(ctx, "Ann", "ann@x.com", "pw1")
		require.ErrorIs(t, err, auth.ErrPersistence)

		state := f.ctrl.State()
		assert.Equal(t, auth.StatusSignedOut, state.Status)
		assert.Equal(t, "store offline", state.LastMessage)
		assert.Empty(t, f.notifier.sentTo())

		// The credential survived: signing in with it succeeds.
		_, authErr := f.provider.Authenticate(ctx, "ann@x.com", "pw1")
		assert.NoError(t, authErr)
	})

	t.Run("notification failure keeps the registered session", func(t *testing.T) {
		f := setup(t)
		f.notifier.err = errors.New("smtp down")

		err := f.ctrl.SignUp(ctx, "Ann", "ann@x.com", "pw1")
		require.ErrorIs(t, err, auth.ErrNotification)

		state := f.ctrl.State()
		assert.Equal(t, auth.StatusAuthenticated, state.Status)
		assert.True(t, state.IsRegistered)
		assert.Equal(t, "smtp down", state.LastMessage)
	})
}

func TestController_SignIn(t *testing.T) {
	ctx := context.Background()

	t.Run("authenticates, persists marker, fetches durable profile", func(t *testing.T) {
		f := setup(t)
		id, err := f.provider.Create(ctx, "ann@x.com", "pw1")
		require.NoError(t, err)
		require.NoError(t, f.profiles.Save(ctx, profile.Profile{
			ID: id.ID, DisplayName: "Ann", Email: "ann@x.com",
		}))

		require.NoError(t, f.ctrl.SignIn(ctx, "ann@x.com", "pw1"))

		state := f.ctrl.State()
		assert.True(t, state.IsAuthenticated)
		assert.Equal(t, auth.StatusAuthenticated, state.Status)
		require.NotNil(t, state.CurrentProfile)
		// The durable record overwrote the provisional profile.
		assert.Equal(t, "Ann", state.CurrentProfile.DisplayName)

		marker, err := f.marker.Get(ctx)
		require.NoError(t, err)
		assert.Equal(t, id.ID, marker)
	})

	t.Run("keeps provisional profile when durable record is missing", func(t *testing.T) {
		f := setup(t)
		_, err := f.provider.Create(ctx, "ann@x.com", "pw1")
		require.NoError(t, err)

		err = f.ctrl.SignIn(ctx, "ann@x.com", "pw1")
		require.ErrorIs(t, err, auth.ErrPersistence)

		state := f.ctrl.State()
		assert.True(t, state.IsAuthenticated)
		require.NotNil(t, state.CurrentProfile)
		assert.Empty(t, state.CurrentProfile.DisplayName)
		assert.Equal(t, "ann@x.com", state.CurrentProfile.Email)
	})

	t.Run("credential failure writes no marker", func(t *testing.T) {
		f := setup(t)
		_, err := f.provider.Create(ctx, "ann@x.com", "pw1")
		require.NoError(t, err)

		err = f.ctrl.SignIn(ctx, "ann@x.com", "wrong")
		require.ErrorIs(t, err, auth.ErrCredential)

		state := f.ctrl.State()
		assert.False(t, state.IsAuthenticated)
		assert.NotEmpty(t, state.LastMessage)

		_, err = f.marker.Get(ctx)
		assert.ErrorIs(t, err, sessionstore.ErrNoMarker)
	})
}

func TestController_SignOut(t *testing.T) {
	ctx := context.Background()

	t.Run("clears session and marker", func(t *testing.T) {
		f := setup(t)
		_, err := f.provider.Create(ctx, "ann@x.com", "pw1")
		require.NoError(t, err)
		id, err := f.provider.Authenticate(ctx, "ann@x.com", "pw1")
		require.NoError(t, err)
		require.NoError(t, f.profiles.Save(ctx, profile.Profile{ID: id.ID, Email: "ann@x.com"}))
		require.NoError(t, f.ctrl.SignIn(ctx, "ann@x.com", "pw1"))

		require.NoError(t, f.ctrl.SignOut(ctx))

		state := f.ctrl.State()
		assert.False(t, state.IsAuthenticated)
		assert.Equal(t, auth.StatusSignedOut, state.Status)
		assert.Nil(t, state.CurrentProfile)
		assert.Nil(t, state.Identity)

		_, err = f.marker.Get(ctx)
		assert.ErrorIs(t, err, sessionstore.ErrNoMarker)
	})

	t.Run("provider failure leaves local state untouched", func(t *testing.T) {
		provider := &fakeProvider{
			identity:  credential.Identity{ID: "u1", Email: "ann@x.com"},
			deauthErr: errors.New("provider unreachable"),
		}
		profiles := &flakyStore{Store: profile.NewMemoryStore()}
		require.NoError(t, profiles.Save(ctx, profile.Profile{ID: "u1", DisplayName: "Ann", Email: "ann@x.com"}))
		marker := sessionstore.NewMemoryStore()
		ctrl := auth.New(provider, profiles, marker, &stubNotifier{})
		t.Cleanup(func() { _ = ctrl.Close() })

		require.NoError(t, ctrl.SignIn(ctx, "ann@x.com", "pw1"))

		err := ctrl.SignOut(ctx)
		require.ErrorIs(t, err, auth.ErrCredential)

		state := ctrl.State()
		assert.True(t, state.IsAuthenticated)
		assert.NotNil(t, state.CurrentProfile)
		assert.Equal(t, "provider unreachable", state.LastMessage)

		// The marker survives a failed sign-out.
		id, err := marker.Get(ctx)
		require.NoError(t, err)
		assert.Equal(t, "u1", id)
	})
}

func TestController_SendVerification(t *testing.T) {
	ctx := context.Background()

	t.Run("requires an active session", func(t *testing.T) {
		f := setup(t)
		err := f.ctrl.SendVerification(ctx)
		assert.ErrorIs(t, err, auth.ErrPreconditionNotMet)
	})

	t.Run("reports success as an informational message", func(t *testing.T) {
		f := setup(t)
		require.NoError(t, f.ctrl.SignUp(ctx, "Ann", "ann@x.com", "pw1"))

		require.NoError(t, f.ctrl.SendVerification(ctx))

		state := f.ctrl.State()
		assert.Contains(t, state.LastMessage, "verification email sent")
		assert.Equal(t, auth.StatusAuthenticated, state.Status)
		assert.Equal(t, []string{"ann@x.com", "ann@x.com"}, f.notifier.sentTo())
	})
}

func TestController_SaveProfile(t *testing.T) {
	ctx := context.Background()

	t.Run("requires a current profile", func(t *testing.T) {
		f := setup(t)
		err := f.ctrl.SaveProfile(ctx)
		assert.ErrorIs(t, err, auth.ErrPreconditionNotMet)
	})

	t.Run("persists the current profile", func(t *testing.T) {
		f := setup(t)
		require.NoError(t, f.ctrl.SignUp(ctx, "Ann", "ann@x.com", "pw1"))

		require.NoError(t, f.ctrl.SaveProfile(ctx))

		state := f.ctrl.State()
		saved, err := f.profiles.Fetch(ctx, state.CurrentProfile.ID)
		require.NoError(t, err)
		assert.Equal(t, "Ann", saved.DisplayName)
	})

	t.Run("surfaces store failures", func(t *testing.T) {
		f := setup(t)
		require.NoError(t, f.ctrl.SignUp(ctx, "Ann", "ann@x.com", "pw1"))
		f.profiles.saveErr = errors.New("store offline")

		err := f.ctrl.SaveProfile(ctx)
		require.ErrorIs(t, err, auth.ErrPersistence)
		assert.Equal(t, "store offline", f.ctrl.State().LastMessage)
	})
}

func TestController_RefreshVerificationStatus(t *testing.T) {
	ctx := context.Background()

	t.Run("requires a current profile", func(t *testing.T) {
		f := setup(t)
		err := f.ctrl.RefreshVerificationStatus(ctx)
		assert.ErrorIs(t, err, auth.ErrPreconditionNotMet)
		assert.Zero(t, f.profiles.updates())
	})

	t.Run("no-op when provider identity differs from current profile", func(t *testing.T) {
		provider := &fakeProvider{identity: credential.Identity{ID: "u2", Email: "bob@x.com", Verified: true}}
		profiles := &flakyStore{Store: profile.NewMemoryStore()}
		require.NoError(t, profiles.Save(ctx, profile.Profile{ID: "u1", DisplayName: "Ann"}))
		require.NoError(t, profiles.Save(ctx, profile.Profile{ID: "u2", DisplayName: "Bob"}))
		ctrl := auth.New(provider, profiles, sessionstore.NewMemoryStore(), &stubNotifier{})
		t.Cleanup(func() { _ = ctrl.Close() })

		// Session belongs to u1; then the provider session switches to u2.
		provider.identity = credential.Identity{ID: "u1", Email: "ann@x.com"}
		require.NoError(t, ctrl.SignIn(ctx, "ann@x.com", "pw1"))
		provider.identity = credential.Identity{ID: "u2", Email: "bob@x.com", Verified: true}

		err := ctrl.RefreshVerificationStatus(ctx)
		assert.ErrorIs(t, err, auth.ErrPreconditionNotMet)
		assert.Zero(t, profiles.updates())
	})

	t.Run("reconciles a divergent flag exactly once", func(t *testing.T) {
		f := setup(t)
		require.NoError(t, f.ctrl.SignUp(ctx, "Ann", "ann@x.com", "pw1"))
		require.NoError(t, f.provider.MarkVerified("ann@x.com"))

		require.NoError(t, f.ctrl.RefreshVerificationStatus(ctx))

		state := f.ctrl.State()
		require.NotNil(t, state.CurrentProfile)
		assert.True(t, state.CurrentProfile.Verified)
		assert.Equal(t, 1, f.profiles.updates())

		// Idempotent: a second refresh produces no second durable write.
		require.NoError(t, f.ctrl.RefreshVerificationStatus(ctx))
		assert.Equal(t, 1, f.profiles.updates())
	})

	t.Run("matching flags write nothing", func(t *testing.T) {
		f := setup(t)
		require.NoError(t, f.ctrl.SignUp(ctx, "Ann", "ann@x.com", "pw1"))

		require.NoError(t, f.ctrl.RefreshVerificationStatus(ctx))
		assert.Zero(t, f.profiles.updates())
	})
}

func TestController_ResetPassword(t *testing.T) {
	ctx := context.Background()

	t.Run("marks the request on success", func(t *testing.T) {
		f := setup(t)
		_, err := f.provider.Create(ctx, "ann@x.com", "pw1")
		require.NoError(t, err)

		require.NoError(t, f.ctrl.ResetPassword(ctx, "ann@x.com"))

		state := f.ctrl.State()
		assert.True(t, state.PasswordResetRequested)
		assert.Contains(t, state.LastMessage, "password reset email sent")
	})

	t.Run("clears the flag on failure", func(t *testing.T) {
		f := setup(t)

		err := f.ctrl.ResetPassword(ctx, "nobody@x.com")
		require.ErrorIs(t, err, auth.ErrCredential)

		state := f.ctrl.State()
		assert.False(t, state.PasswordResetRequested)
		assert.NotEmpty(t, state.LastMessage)
	})
}

func TestController_QuerySlots(t *testing.T) {
	ctx := context.Background()

	seed := func(t *testing.T, f *fixture) {
		t.Helper()
		require.NoError(t, f.profiles.Save(ctx, profile.Profile{ID: "u1", DisplayName: "Ann", Email: "ann@x.com", Verified: true}))
		require.NoError(t, f.profiles.Save(ctx, profile.Profile{ID: "u2", DisplayName: "Bob", Email: "bob@x.com"}))
		require.NoError(t, f.profiles.Save(ctx, profile.Profile{ID: "u3", DisplayName: "Cid", Email: "cid@y.org", Verified: true}))
	}

	t.Run("filter and search fill independent slots", func(t *testing.T) {
		f := setup(t)
		seed(t, f)

		require.NoError(t, f.ctrl.FetchByVerification(ctx, true))
		require.NoError(t, f.ctrl.Search(ctx, "bob"))

		state := f.ctrl.State()
		require.Len(t, state.FilteredProfiles, 2)
		assert.Equal(t, "Ann", state.FilteredProfiles[0].DisplayName)
		assert.Equal(t, "Cid", state.FilteredProfiles[1].DisplayName)
		require.Len(t, state.SearchResults, 1)
		assert.Equal(t, "Bob", state.SearchResults[0].DisplayName)

		// Neither read-through touched the session fields or the other slot.
		assert.Nil(t, state.CurrentProfile)
		assert.False(t, state.IsAuthenticated)
	})

	t.Run("a failed search leaves the previous results in place", func(t *testing.T) {
		f := setup(t)
		seed(t, f)
		require.NoError(t, f.ctrl.Search(ctx, "ann"))
		f.profiles.searchErr = errors.New("index offline")

		err := f.ctrl.Search(ctx, "bob")
		require.ErrorIs(t, err, auth.ErrPersistence)

		state := f.ctrl.State()
		require.Len(t, state.SearchResults, 1)
		assert.Equal(t, "Ann", state.SearchResults[0].DisplayName)
	})

	t.Run("fetch all fills its own slot", func(t *testing.T) {
		f := setup(t)
		seed(t, f)

		require.NoError(t, f.ctrl.FetchAllProfiles(ctx))
		assert.Len(t, f.ctrl.State().AllProfiles, 3)
	})
}

func TestController_Watch(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	f := setup(t)
	watch := f.ctrl.Watch(ctx)

	// The current state arrives first.
	first := <-watch
	assert.Equal(t, auth.StatusSignedOut, first.Status)

	require.NoError(t, f.ctrl.SignUp(ctx, "Ann", "ann@x.com", "pw1"))

	var last auth.State
	for len(watch) > 0 {
		last = <-watch
	}
	assert.Equal(t, auth.StatusAuthenticated, last.Status)
	assert.True(t, last.IsRegistered)
}
