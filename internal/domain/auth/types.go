package auth

// Package auth contains domain-level types for authentication, sessions and
// authorization profiles. It is pure and free of framework/adapter concerns.

import "time"

// Role represents an application's authorization role.
// Keep string form for easy persistence.
type Role string

const (
	RoleSuperadmin    Role = "superadmin"
	RoleBranchManager Role = "branch_manager"
	RoleInstructor    Role = "instructor"
	RoleClient        Role = "client"

	// RoleNone is the least-privileged value used whenever no profile is resolved.
	RoleNone Role = ""
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleSuperadmin, RoleBranchManager, RoleInstructor, RoleClient:
		return true
	default:
		return false
	}
}

// Identity is the minimal authenticated principal.
type Identity struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// Session is a credential-backed handle issued by the gateway.
type Session struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	Identity     Identity  `json:"identity"`
	IssuedAt     time.Time `json:"issued_at"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// IdentityID returns the session principal id, or empty for a nil session.
func (s *Session) IdentityID() string {
	if s == nil {
		return ""
	}
	return s.Identity.ID
}

// Expired reports whether the session is past its expiry at now.
// A zero ExpiresAt never expires.
func (s *Session) Expired(now time.Time) bool {
	return s != nil && !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

// Organization is the tenant a profile belongs to.
type Organization struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Profile is the authorization and tenancy record for an identity.
type Profile struct {
	ID             string        `json:"id"`
	FullName       string        `json:"full_name"`
	Role           Role          `json:"role"`
	AvatarURL      string        `json:"avatar_url,omitempty"`
	LocationID     *string       `json:"location_id,omitempty"`
	OrganizationID *string       `json:"organization_id,omitempty"`
	Organization   *Organization `json:"organization,omitempty"`
}

// RoleOf returns the role of p, or RoleNone when p is nil or carries an unknown role.
func RoleOf(p *Profile) Role {
	if p == nil || !p.Role.Valid() {
		return RoleNone
	}
	return p.Role
}

// EventKind names a session change notification.
type EventKind string

const (
	EventInitialSession EventKind = "INITIAL_SESSION"
	EventSignedIn       EventKind = "SIGNED_IN"
	EventSignedOut      EventKind = "SIGNED_OUT"
	EventTokenRefreshed EventKind = "TOKEN_REFRESHED"
	EventUserUpdated    EventKind = "USER_UPDATED"
)

// SessionEvent is one entry of the gateway change stream. Session is nil when
// the event leaves the client unauthenticated.
type SessionEvent struct {
	Kind    EventKind `json:"kind"`
	Session *Session  `json:"session,omitempty"`
	// Origin identifies the process that produced the event; used to drop echoes
	// on shared channels.
	Origin string `json:"origin,omitempty"`
}
