package credential

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// subscriberBuffer is the channel depth for session-change subscribers.
// When a subscriber's buffer is full, events are dropped for that
// subscriber rather than blocking the provider.
const subscriberBuffer = 8

type account struct {
	id       string
	email    string
	hash     []byte
	verified bool
}

// LocalProvider is an in-memory Provider backed by bcrypt password
// hashes. Identities are uuid-assigned at account creation. All methods
// are safe for concurrent use.
type LocalProvider struct {
	mu       sync.RWMutex
	accounts map[string]*account // keyed by email
	current  *Identity
	subs     map[chan SessionChange]struct{}
}

// NewLocalProvider creates an empty in-memory credential provider.
func NewLocalProvider() *LocalProvider {
	return &LocalProvider{
		accounts: make(map[string]*account),
		subs:     make(map[chan SessionChange]struct{}),
	}
}

// Create registers a new account and signs it in. The new account
// starts unverified.
func (p *LocalProvider) Create(ctx context.Context, email, password string) (Identity, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return Identity{}, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if _, exists := p.accounts[email]; exists {
		return Identity{}, ErrEmailTaken
	}

	acc := &account{
		id:    uuid.NewString(),
		email: email,
		hash:  hash,
	}
	p.accounts[email] = acc

	id := acc.identity()
	p.current = &id
	p.notifyLocked()

	return id, nil
}

// Authenticate verifies the credentials and establishes a session.
func (p *LocalProvider) Authenticate(ctx context.Context, email, password string) (Identity, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	acc, exists := p.accounts[email]
	if !exists {
		return Identity{}, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(acc.hash, []byte(password)); err != nil {
		return Identity{}, ErrInvalidCredentials
	}

	id := acc.identity()
	p.current = &id
	p.notifyLocked()

	return id, nil
}

// Deauthenticate ends the current session.
func (p *LocalProvider) Deauthenticate(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.current == nil {
		return ErrNoActiveSession
	}

	p.current = nil
	p.notifyLocked()
	return nil
}

// SendPasswordReset succeeds when an account exists for the email. The
// reference implementation records nothing; delivery belongs to a real
// provider.
func (p *LocalProvider) SendPasswordReset(ctx context.Context, email string) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if _, exists := p.accounts[email]; !exists {
		return ErrAccountNotFound
	}
	return nil
}

// CurrentIdentity reports the identity of the active session, if any.
func (p *LocalProvider) CurrentIdentity(ctx context.Context) (Identity, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.current == nil {
		return Identity{}, false
	}
	return *p.current, true
}

// SessionChanges subscribes to session-change notifications. The
// channel receives the current session value immediately, then every
// subsequent change until the context is cancelled.
func (p *LocalProvider) SessionChanges(ctx context.Context) <-chan SessionChange {
	ch := make(chan SessionChange, subscriberBuffer)

	p.mu.Lock()
	p.subs[ch] = struct{}{}
	ch <- p.changeLocked()
	p.mu.Unlock()

	if ctx.Done() != nil {
		go func() {
			<-ctx.Done()
			p.mu.Lock()
			if _, ok := p.subs[ch]; ok {
				delete(p.subs, ch)
				close(ch)
			}
			p.mu.Unlock()
		}()
	}

	return ch
}

// MarkVerified flips the verified flag on an account, standing in for
// the user following the verification link at the real provider. The
// ambient session picks up the new flag without re-authentication.
func (p *LocalProvider) MarkVerified(email string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	acc, exists := p.accounts[email]
	if !exists {
		return ErrAccountNotFound
	}

	acc.verified = true
	if p.current != nil && p.current.ID == acc.id {
		id := acc.identity()
		p.current = &id
	}
	return nil
}

func (a *account) identity() Identity {
	return Identity{ID: a.id, Email: a.email, Verified: a.verified}
}

func (p *LocalProvider) changeLocked() SessionChange {
	if p.current == nil {
		return SessionChange{}
	}
	return SessionChange{Identity: *p.current, Active: true}
}

// notifyLocked fans the current session out to all subscribers. Callers
// must hold p.mu. Slow subscribers lose events instead of blocking.
func (p *LocalProvider) notifyLocked() {
	change := p.changeLocked()
	for ch := range p.subs {
		select {
		case ch <- change:
		default:
		}
	}
}
