package service

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	domainauth "github.com/target/zenithflow/internal/domain/auth"
	apperrors "github.com/target/zenithflow/internal/errors"
	"github.com/target/zenithflow/internal/ports"
)

// ProfileSource resolves the authorization profile for an identity.
type ProfileSource interface {
	Resolve(ctx context.Context, identityID string) *domainauth.Profile
}

// profileInvalidator is implemented by sources that share in-flight lookups.
type profileInvalidator interface {
	Invalidate(identityID string)
}

// DefaultProfileLookupTimeout bounds a shared profile lookup.
const DefaultProfileLookupTimeout = 10 * time.Second

// ProfileResolverOptions groups dependencies for ProfileResolver.
type ProfileResolverOptions struct {
	Profiles ports.ProfileRepository
	// Timeout bounds each repository lookup (default DefaultProfileLookupTimeout).
	Timeout time.Duration
	Logger  *slog.Logger
}

// ProfileResolver fetches profiles with their organization in one lookup.
// Concurrent lookups for the same identity share a single repository call.
type ProfileResolver struct {
	profiles ports.ProfileRepository
	timeout  time.Duration
	logger   *slog.Logger
	group    singleflight.Group
}

var _ ProfileSource = (*ProfileResolver)(nil)

// NewProfileResolver constructs a ProfileResolver.
func NewProfileResolver(opts ProfileResolverOptions) *ProfileResolver {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultProfileLookupTimeout
	}
	return &ProfileResolver{
		profiles: opts.Profiles,
		timeout:  timeout,
		logger:   logger.With("component", "profile_resolver"),
	}
}

// Resolve returns the profile for identityID, or nil when it is missing or the
// lookup fails. It never returns an error: the absence of a profile is not an
// authentication failure.
func (r *ProfileResolver) Resolve(ctx context.Context, identityID string) *domainauth.Profile {
	if identityID == "" || r.profiles == nil || ctx.Err() != nil {
		return nil
	}

	// The shared lookup outlives any one caller: a caller that gives up must not
	// fail the lookup for callers that joined it.
	ch := r.group.DoChan(identityID, func() (any, error) {
		lookupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.timeout)
		defer cancel()
		return r.profiles.GetProfile(lookupCtx, identityID)
	})

	var res singleflight.Result
	select {
	case res = <-ch:
	case <-ctx.Done():
		r.logger.DebugContext(ctx, "profile lookup abandoned", "identity_id", identityID, "error", ctx.Err())
		return nil
	}

	if res.Err != nil {
		if apperrors.IsNotFound(res.Err) {
			r.logger.DebugContext(ctx, "no profile for identity", "identity_id", identityID)
		} else {
			r.logger.WarnContext(ctx, "profile lookup failed", "identity_id", identityID, "error", res.Err)
		}
		return nil
	}

	profile, _ := res.Val.(*domainauth.Profile)
	// Shared results must not alias between callers.
	return profile.Clone()
}

// Invalidate detaches any in-flight lookup for identityID so the next Resolve
// reads the repository again. Use it after the profile was written.
func (r *ProfileResolver) Invalidate(identityID string) {
	r.group.Forget(identityID)
}
