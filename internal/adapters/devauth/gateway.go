package devauth

// Package devauth provides a config-driven AuthGateway for local development.
// Accounts live in memory; sessions optionally persist through a SessionStore
// so separate CLI invocations share a sign-in.

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/target/zenithflow/internal/adapters/sessionhub"
	domainauth "github.com/target/zenithflow/internal/domain/auth"
	apperrors "github.com/target/zenithflow/internal/errors"
	"github.com/target/zenithflow/internal/ports"
)

var _ ports.AuthGateway = (*Gateway)(nil)

// Config controls the dev gateway behavior.
// UserID and Email are required.
type Config struct {
	UserID   string
	Email    string
	Password string
	// SignedIn seeds a restorable session for the configured identity.
	SignedIn        bool
	SessionDuration time.Duration // default 8h when zero

	// Store and SessionKey are optional; without a store the session lives only
	// as long as the Gateway.
	Store      ports.SessionStore
	SessionKey string

	Logger *slog.Logger
}

type account struct {
	identity domainauth.Identity
	password string
}

// Gateway implements ports.AuthGateway without any network calls.
type Gateway struct {
	hub        sessionhub.Hub
	store      ports.SessionStore
	sessionKey string
	duration   time.Duration
	logger     *slog.Logger
	now        func() time.Time

	mu       sync.Mutex
	accounts map[string]account // keyed by lower-cased email
	current  *domainauth.Session
}

// NewGateway constructs a dev gateway from Config.
func NewGateway(cfg Config) (*Gateway, error) {
	if cfg.UserID == "" {
		return nil, errors.New("dev auth: UserID is required")
	}
	if cfg.Email == "" {
		return nil, errors.New("dev auth: Email is required")
	}
	dur := cfg.SessionDuration
	if dur == 0 {
		dur = 8 * time.Hour
	}
	key := cfg.SessionKey
	if key == "" {
		key = "dev"
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	g := &Gateway{
		store:      cfg.Store,
		sessionKey: key,
		duration:   dur,
		logger:     logger.With("component", "devauth"),
		now:        time.Now,
		accounts:   make(map[string]account),
	}
	ident := domainauth.Identity{ID: cfg.UserID, Email: cfg.Email}
	g.accounts[strings.ToLower(cfg.Email)] = account{identity: ident, password: cfg.Password}
	if cfg.SignedIn {
		g.current = g.issue(ident)
	}
	return g, nil
}

// RestoreSession returns the stored session, falling back to the in-memory one.
func (g *Gateway) RestoreSession(ctx context.Context) (*domainauth.Session, error) {
	if g.store != nil {
		sess, err := g.store.Get(ctx, g.sessionKey)
		switch {
		case err == nil:
			g.setCurrent(&sess)
			return &sess, nil
		case !apperrors.IsNotFound(err):
			return nil, err
		}
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if g.current == nil {
		return nil, nil
	}
	sess := *g.current
	return &sess, nil
}

func (g *Gateway) Subscribe(fn func(domainauth.SessionEvent)) func() {
	return g.hub.Subscribe(fn)
}

// SignIn checks email and password against the configured accounts.
func (g *Gateway) SignIn(ctx context.Context, email, password string) (*domainauth.Session, error) {
	g.mu.Lock()
	acct, ok := g.accounts[strings.ToLower(strings.TrimSpace(email))]
	g.mu.Unlock()
	if !ok || acct.password != password {
		return nil, apperrors.New(apperrors.ErrCodeInvalidCredentials, "Invalid login credentials")
	}

	sess := g.issue(acct.identity)
	if err := g.persist(ctx, sess); err != nil {
		return nil, err
	}
	g.setCurrent(sess)
	g.logger.DebugContext(ctx, "dev sign in", "identity_id", sess.IdentityID())
	g.hub.Emit(domainauth.SessionEvent{Kind: domainauth.EventSignedIn, Session: sess})
	return sess, nil
}

// SignUp registers a new in-memory account and signs it in immediately.
func (g *Gateway) SignUp(ctx context.Context, in ports.SignUpInput) (*ports.SignUpResult, error) {
	key := strings.ToLower(strings.TrimSpace(in.Email))
	g.mu.Lock()
	if _, exists := g.accounts[key]; exists {
		g.mu.Unlock()
		return nil, apperrors.Conflict("User already registered")
	}
	ident := domainauth.Identity{ID: uuid.NewString(), Email: strings.TrimSpace(in.Email)}
	g.accounts[key] = account{identity: ident, password: in.Password}
	g.mu.Unlock()

	sess := g.issue(ident)
	if err := g.persist(ctx, sess); err != nil {
		return nil, err
	}
	g.setCurrent(sess)
	g.hub.Emit(domainauth.SessionEvent{Kind: domainauth.EventSignedIn, Session: sess})
	return &ports.SignUpResult{Session: sess}, nil
}

func (g *Gateway) SignOut(ctx context.Context) error {
	if g.store != nil {
		if err := g.store.Delete(ctx, g.sessionKey); err != nil {
			return err
		}
	}
	g.setCurrent(nil)
	g.hub.Emit(domainauth.SessionEvent{Kind: domainauth.EventSignedOut})
	return nil
}

func (g *Gateway) issue(ident domainauth.Identity) *domainauth.Session {
	now := g.now().UTC()
	return &domainauth.Session{
		AccessToken:  "dev-" + uuid.NewString(),
		RefreshToken: "dev-refresh-" + uuid.NewString(),
		Identity:     ident,
		IssuedAt:     now,
		ExpiresAt:    now.Add(g.duration),
	}
}

func (g *Gateway) persist(ctx context.Context, sess *domainauth.Session) error {
	if g.store == nil {
		return nil
	}
	return g.store.Save(ctx, g.sessionKey, *sess)
}

func (g *Gateway) setCurrent(sess *domainauth.Session) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if sess == nil {
		g.current = nil
		return
	}
	cp := *sess
	g.current = &cp
}
