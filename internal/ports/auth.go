package ports

// Package ports defines interfaces (hexagonal ports) to the remote gateway.
// Implementations live in internal/adapters and internal/data; orchestration in internal/service.

import (
	"context"

	domainauth "github.com/target/zenithflow/internal/domain/auth"
)

// SignUpInput groups parameters for creating an account.
type SignUpInput struct {
	Email       string
	Password    string
	DisplayName string
}

// SignUpResult is either an issued session or a pending e-mail confirmation.
type SignUpResult struct {
	Session             *domainauth.Session
	PendingConfirmation bool
}

// AuthGateway issues, refreshes and terminates sessions and streams session changes.
type AuthGateway interface {
	// RestoreSession returns the previously persisted session, or nil when there is none.
	RestoreSession(ctx context.Context) (*domainauth.Session, error)

	// Subscribe registers fn for every session change and returns a function that
	// removes the registration. Events reach fn in order on the emitting
	// goroutine, so a slow fn delays later subscribers and the emitter; fn
	// should hand off quickly and may block only to apply backpressure.
	Subscribe(fn func(domainauth.SessionEvent)) (unsubscribe func())

	SignIn(ctx context.Context, email, password string) (*domainauth.Session, error)
	SignUp(ctx context.Context, in SignUpInput) (*SignUpResult, error)
	SignOut(ctx context.Context) error
}

// SessionStore persists the current session so it can be restored on the next start.
type SessionStore interface {
	Save(ctx context.Context, key string, sess domainauth.Session) error
	Get(ctx context.Context, key string) (domainauth.Session, error)
	Delete(ctx context.Context, key string) error
}

// SessionEventBus carries session change events between processes sharing a session.
type SessionEventBus interface {
	Publish(ctx context.Context, ev domainauth.SessionEvent) error
	// Listen blocks delivering events to fn until ctx is done.
	Listen(ctx context.Context, fn func(domainauth.SessionEvent)) error
}
