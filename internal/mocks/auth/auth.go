package auth

// Package auth contains simple hand-written test doubles for auth ports.
// These are lightweight and suitable for unit tests without codegen.

import (
	"context"
	"sync"

	domainauth "github.com/target/zenithflow/internal/domain/auth"
	apperrors "github.com/target/zenithflow/internal/errors"
	"github.com/target/zenithflow/internal/ports"
)

// Ensure compile-time conformance to ports.
var (
	_ ports.AuthGateway  = (*FakeGateway)(nil)
	_ ports.SessionStore = (*MemorySessionStore)(nil)
)

// FakeGateway is a scriptable AuthGateway. Tests push session events with Emit
// and control RestoreSession through RestoreFunc.
type FakeGateway struct {
	RestoreFunc func(ctx context.Context) (*domainauth.Session, error)
	SignInFunc  func(ctx context.Context, email, password string) (*domainauth.Session, error)
	SignUpFunc  func(ctx context.Context, in ports.SignUpInput) (*ports.SignUpResult, error)
	SignOutFunc func(ctx context.Context) error

	mu           sync.Mutex
	listeners    map[int]func(domainauth.SessionEvent)
	nextID       int
	restoreCalls int
	subscribes   int
	unsubscribes int
}

// NewFakeGateway returns a gateway whose restore finds no session.
func NewFakeGateway() *FakeGateway {
	return &FakeGateway{listeners: make(map[int]func(domainauth.SessionEvent))}
}

func (g *FakeGateway) RestoreSession(ctx context.Context) (*domainauth.Session, error) {
	g.mu.Lock()
	g.restoreCalls++
	fn := g.RestoreFunc
	g.mu.Unlock()

	if fn != nil {
		return fn(ctx)
	}
	return nil, nil
}

func (g *FakeGateway) Subscribe(fn func(domainauth.SessionEvent)) func() {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.listeners == nil {
		g.listeners = make(map[int]func(domainauth.SessionEvent))
	}
	id := g.nextID
	g.nextID++
	g.listeners[id] = fn
	g.subscribes++

	var once sync.Once
	return func() {
		once.Do(func() {
			g.mu.Lock()
			defer g.mu.Unlock()
			delete(g.listeners, id)
			g.unsubscribes++
		})
	}
}

// Emit delivers ev to every subscriber in registration order.
func (g *FakeGateway) Emit(ev domainauth.SessionEvent) {
	g.mu.Lock()
	fns := make([]func(domainauth.SessionEvent), 0, len(g.listeners))
	for i := 0; i < g.nextID; i++ {
		if fn, ok := g.listeners[i]; ok {
			fns = append(fns, fn)
		}
	}
	g.mu.Unlock()

	for _, fn := range fns {
		fn(ev)
	}
}

func (g *FakeGateway) SignIn(ctx context.Context, email, password string) (*domainauth.Session, error) {
	if g.SignInFunc != nil {
		return g.SignInFunc(ctx, email, password)
	}
	sess := &domainauth.Session{
		AccessToken: "token-" + email,
		Identity:    domainauth.Identity{ID: "user-" + email, Email: email},
	}
	g.Emit(domainauth.SessionEvent{Kind: domainauth.EventSignedIn, Session: sess})
	return sess, nil
}

func (g *FakeGateway) SignUp(ctx context.Context, in ports.SignUpInput) (*ports.SignUpResult, error) {
	if g.SignUpFunc != nil {
		return g.SignUpFunc(ctx, in)
	}
	return &ports.SignUpResult{PendingConfirmation: true}, nil
}

func (g *FakeGateway) SignOut(ctx context.Context) error {
	if g.SignOutFunc != nil {
		return g.SignOutFunc(ctx)
	}
	g.Emit(domainauth.SessionEvent{Kind: domainauth.EventSignedOut})
	return nil
}

// RestoreCalls reports how many times RestoreSession was invoked.
func (g *FakeGateway) RestoreCalls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.restoreCalls
}

// Subscribers reports the number of active subscriptions.
func (g *FakeGateway) Subscribers() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.listeners)
}

// Subscribes reports how many times Subscribe was invoked.
func (g *FakeGateway) Subscribes() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.subscribes
}

// MemorySessionStore is an in-memory session store for unit tests.
type MemorySessionStore struct {
	mu       sync.Mutex
	sessions map[string]domainauth.Session
}

// NewMemorySessionStore creates a new in-memory session store.
func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{sessions: make(map[string]domainauth.Session)}
}

func (m *MemorySessionStore) Save(_ context.Context, key string, sess domainauth.Session) error {
	if key == "" {
		return apperrors.Validation("session key cannot be empty")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[key] = sess
	return nil
}

func (m *MemorySessionStore) Get(_ context.Context, key string) (domainauth.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sess, ok := m.sessions[key]
	if !ok {
		return domainauth.Session{}, apperrors.NotFound("session not found")
	}
	return sess, nil
}

func (m *MemorySessionStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, key)
	return nil
}

// ProfileFunc adapts a function to the profile source used by the synchronizer.
type ProfileFunc func(ctx context.Context, identityID string) *domainauth.Profile

func (f ProfileFunc) Resolve(ctx context.Context, identityID string) *domainauth.Profile {
	return f(ctx, identityID)
}

// GatedProfiles returns profiles from a fixed table once the identity's gate
// is released. Identities without a gate resolve immediately.
type GatedProfiles struct {
	mu       sync.Mutex
	profiles map[string]*domainauth.Profile
	gates    map[string]chan struct{}
	calls    map[string]int
}

// NewGatedProfiles creates a GatedProfiles backed by profiles.
func NewGatedProfiles(profiles map[string]*domainauth.Profile) *GatedProfiles {
	return &GatedProfiles{
		profiles: profiles,
		gates:    make(map[string]chan struct{}),
		calls:    make(map[string]int),
	}
}

// Hold makes lookups for id block until Release(id).
func (p *GatedProfiles) Hold(id string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.gates[id] = make(chan struct{})
}

// Release unblocks lookups for id.
func (p *GatedProfiles) Release(id string) {
	p.mu.Lock()
	gate, ok := p.gates[id]
	delete(p.gates, id)
	p.mu.Unlock()
	if ok {
		close(gate)
	}
}

// Calls reports how many lookups started for id.
func (p *GatedProfiles) Calls(id string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls[id]
}

// Resolve ignores cancellation on purpose so tests can deliver late results.
func (p *GatedProfiles) Resolve(_ context.Context, id string) *domainauth.Profile {
	p.mu.Lock()
	p.calls[id]++
	gate := p.gates[id]
	profile := p.profiles[id]
	p.mu.Unlock()

	if gate != nil {
		<-gate
	}
	return profile.Clone()
}
