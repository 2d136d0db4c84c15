package auth

// SyncState is the coarse state of the session synchronizer.
type SyncState string

const (
	StateInitializing SyncState = "initializing"
	StateReady        SyncState = "ready"
	StateDegraded     SyncState = "degraded"
)

// DegradedReason explains a degraded state.
type DegradedReason string

// ReasonConfig marks a missing or placeholder gateway configuration. It is terminal.
const ReasonConfig DegradedReason = "config"

// SyncStatus drives whether consumers may trust the profile.
type SyncStatus struct {
	State   SyncState      `json:"state"`
	Reason  DegradedReason `json:"reason,omitempty"`
	Message string         `json:"message,omitempty"`
}

// Initializing returns the initial status.
func Initializing() SyncStatus { return SyncStatus{State: StateInitializing} }

// Ready returns the ready status.
func Ready() SyncStatus { return SyncStatus{State: StateReady} }

// Degraded returns a degraded status with reason and message.
func Degraded(reason DegradedReason, message string) SyncStatus {
	return SyncStatus{State: StateDegraded, Reason: reason, Message: message}
}

func (s SyncStatus) IsReady() bool        { return s.State == StateReady }
func (s SyncStatus) IsInitializing() bool { return s.State == StateInitializing }
func (s SyncStatus) IsDegraded() bool     { return s.State == StateDegraded }

// Snapshot is a read-only copy of the synchronized session tuple.
type Snapshot struct {
	Session  *Session
	Identity *Identity
	Profile  *Profile
	Status   SyncStatus
	// Generation increases every time a session change is applied.
	Generation uint64
	// ProfileLoading is set while a profile lookup for Identity is in flight.
	ProfileLoading bool
}

// Role returns the resolved role, or RoleNone when no profile is resolved.
func (s Snapshot) Role() Role { return RoleOf(s.Profile) }

// IsAdmin reports whether the resolved role is superadmin.
func (s Snapshot) IsAdmin() bool { return s.Role() == RoleSuperadmin }

// IsBranchManager reports whether the resolved role is branch_manager.
func (s Snapshot) IsBranchManager() bool { return s.Role() == RoleBranchManager }

// IdentityID returns the current identity id or empty when unauthenticated.
func (s Snapshot) IdentityID() string {
	if s.Identity == nil {
		return ""
	}
	return s.Identity.ID
}

// Clone returns a deep copy so callers cannot mutate synchronizer state.
func (s Snapshot) Clone() Snapshot {
	out := s
	if s.Session != nil {
		sess := *s.Session
		out.Session = &sess
	}
	if s.Identity != nil {
		id := *s.Identity
		out.Identity = &id
	}
	out.Profile = s.Profile.Clone()
	return out
}

// Clone returns a deep copy of p.
func (p *Profile) Clone() *Profile {
	if p == nil {
		return nil
	}
	out := *p
	if p.LocationID != nil {
		v := *p.LocationID
		out.LocationID = &v
	}
	if p.OrganizationID != nil {
		v := *p.OrganizationID
		out.OrganizationID = &v
	}
	if p.Organization != nil {
		org := *p.Organization
		out.Organization = &org
	}
	return &out
}
