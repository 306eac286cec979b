package credential_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/authkit/pkg/credential"
)

func TestLocalProvider_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("assigns an identity and signs in", func(t *testing.T) {
		p := credential.NewLocalProvider()

		id, err := p.Create(ctx, "ann@x.com", "pw1")
		require.NoError(t, err)
		assert.NotEmpty(t, id.ID)
		assert.Equal(t, "ann@x.com", id.Email)
		assert.False(t, id.Verified)

		current, ok := p.CurrentIdentity(ctx)
		require.True(t, ok)
		assert.Equal(t, id, current)
	})

	t.Run("rejects a duplicate email", func(t *testing.T) {
		p := credential.NewLocalProvider()
		_, err := p.Create(ctx, "ann@x.com", "pw1")
		require.NoError(t, err)

		_, err = p.Create(ctx, "ann@x.com", "pw2")
		assert.ErrorIs(t, err, credential.ErrEmailTaken)
	})
}

func TestLocalProvider_Authenticate(t *testing.T) {
	ctx := context.Background()

	t.Run("accepts the original password", func(t *testing.T) {
		p := credential.NewLocalProvider()
		created, err := p.Create(ctx, "ann@x.com", "pw1")
		require.NoError(t, err)
		require.NoError(t, p.Deauthenticate(ctx))

		id, err := p.Authenticate(ctx, "ann@x.com", "pw1")
		require.NoError(t, err)
		assert.Equal(t, created.ID, id.ID)

		_, ok := p.CurrentIdentity(ctx)
		assert.True(t, ok)
	})

	t.Run("rejects a wrong password", func(t *testing.T) {
		p := credential.NewLocalProvider()
		_, err := p.Create(ctx, "ann@x.com", "pw1")
		require.NoError(t, err)

		_, err = p.Authenticate(ctx, "ann@x.com", "wrong")
		assert.ErrorIs(t, err, credential.ErrInvalidCredentials)
	})

	t.Run("rejects an unknown email", func(t *testing.T) {
		p := credential.NewLocalProvider()
		_, err := p.Authenticate(ctx, "nobody@x.com", "pw1")
		assert.ErrorIs(t, err, credential.ErrInvalidCredentials)
	})
}

func TestLocalProvider_Deauthenticate(t *testing.T) {
	ctx := context.Background()

	t.Run("ends the session", func(t *testing.T) {
		p := credential.NewLocalProvider()
		_, err := p.Create(ctx, "ann@x.com", "pw1")
		require.NoError(t, err)

		require.NoError(t, p.Deauthenticate(ctx))
		_, ok := p.CurrentIdentity(ctx)
		assert.False(t, ok)
	})

	t.Run("fails without a session", func(t *testing.T) {
		p := credential.NewLocalProvider()
		assert.ErrorIs(t, p.Deauthenticate(ctx), credential.ErrNoActiveSession)
	})
}

func TestLocalProvider_SendPasswordReset(t *testing.T) {
	ctx := context.Background()
	p := credential.NewLocalProvider()
	_, err := p.Create(ctx, "ann@x.com", "pw1")
	require.NoError(t, err)

	assert.NoError(t, p.SendPasswordReset(ctx, "ann@x.com"))
	assert.ErrorIs(t, p.SendPasswordReset(ctx, "nobody@x.com"), credential.ErrAccountNotFound)
}

func TestLocalProvider_MarkVerified(t *testing.T) {
	ctx := context.Background()
	p := credential.NewLocalProvider()
	id, err := p.Create(ctx, "ann@x.com", "pw1")
	require.NoError(t, err)
	require.False(t, id.Verified)

	require.NoError(t, p.MarkVerified("ann@x.com"))

	// The ambient session reports the new flag without re-authentication.
	current, ok := p.CurrentIdentity(ctx)
	require.True(t, ok)
	assert.True(t, current.Verified)

	assert.ErrorIs(t, p.MarkVerified("nobody@x.com"), credential.ErrAccountNotFound)
}

func TestLocalProvider_SessionChanges(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	p := credential.NewLocalProvider()

	t.Run("delivers the current value at subscription", func(t *testing.T) {
		ch := p.SessionChanges(ctx)

		select {
		case change := <-ch:
			assert.False(t, change.Active)
		case <-time.After(time.Second):
			t.Fatal("no initial session change delivered")
		}
	})

	t.Run("delivers subsequent changes", func(t *testing.T) {
		ch := p.SessionChanges(ctx)
		<-ch // initial value

		id, err := p.Create(ctx, "ann@x.com", "pw1")
		require.NoError(t, err)

		select {
		case change := <-ch:
			require.True(t, change.Active)
			assert.Equal(t, id.ID, change.Identity.ID)
		case <-time.After(time.Second):
			t.Fatal("no session change after create")
		}

		require.NoError(t, p.Deauthenticate(ctx))

		select {
		case change := <-ch:
			assert.False(t, change.Active)
		case <-time.After(time.Second):
			t.Fatal("no session change after deauthenticate")
		}
	})

	t.Run("closes the channel on context cancellation", func(t *testing.T) {
		subCtx, subCancel := context.WithCancel(context.Background())
		ch := p.SessionChanges(subCtx)
		<-ch // initial value

		subCancel()

		select {
		case _, ok := <-ch:
			assert.False(t, ok)
		case <-time.After(time.Second):
			t.Fatal("channel not closed after cancellation")
		}
	})
}
