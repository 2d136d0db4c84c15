package gotrue

import (
	"context"
	"errors"

	domainauth "github.com/target/zenithflow/internal/domain/auth"
	apperrors "github.com/target/zenithflow/internal/errors"
	"github.com/target/zenithflow/internal/ports"
)

// RestoreSession loads the persisted session, refreshing it when the access
// token has expired. A session whose refresh token the server no longer
// accepts is dropped and reported as absent.
func (c *Client) RestoreSession(ctx context.Context) (*domainauth.Session, error) {
	sess, err := c.load(ctx)
	if err != nil || sess == nil {
		return nil, err
	}

	fresh, refreshed, err := c.ensureFresh(ctx, sess)
	if err != nil {
		if apperrors.IsInvalidCredentials(err) || errors.Is(err, errNoRefreshToken) {
			c.logger.InfoContext(ctx, "stored session can no longer be refreshed", "error", err)
			c.forget(ctx)
			return nil, nil
		}
		return nil, err
	}
	if err := c.verify(ctx, fresh); err != nil {
		return nil, err
	}

	c.setCurrent(fresh)
	if refreshed {
		c.persist(ctx, fresh)
		c.publish(ctx, domainauth.SessionEvent{Kind: domainauth.EventTokenRefreshed, Session: fresh})
	}
	return fresh, nil
}

func (c *Client) Subscribe(fn func(domainauth.SessionEvent)) func() {
	return c.hub.Subscribe(fn)
}

// SignIn exchanges email and password for a session.
func (c *Client) SignIn(ctx context.Context, email, password string) (*domainauth.Session, error) {
	var tr tokenResponse
	body := map[string]string{"email": email, "password": password}
	if err := c.post(ctx, "/token?grant_type=password", "", body, &tr); err != nil {
		return nil, err
	}
	sess, err := c.sessionFromToken(tr)
	if err != nil {
		return nil, err
	}
	if err := c.verify(ctx, sess); err != nil {
		return nil, err
	}

	c.apply(ctx, domainauth.SessionEvent{Kind: domainauth.EventSignedIn, Session: sess})
	return sess, nil
}

// SignUp registers an account. Projects that require e-mail confirmation
// answer without a session.
func (c *Client) SignUp(ctx context.Context, in ports.SignUpInput) (*ports.SignUpResult, error) {
	body := map[string]any{
		"email":    in.Email,
		"password": in.Password,
		"data":     map[string]string{"full_name": in.DisplayName},
	}
	var resp signUpResponse
	if err := c.post(ctx, "/signup", "", body, &resp); err != nil {
		return nil, err
	}
	if resp.AccessToken == "" {
		c.logger.InfoContext(ctx, "sign up pending confirmation", "user_id", resp.ID)
		return &ports.SignUpResult{PendingConfirmation: true}, nil
	}

	sess, err := c.sessionFromToken(resp.tokenResponse)
	if err != nil {
		return nil, err
	}
	if err := c.verify(ctx, sess); err != nil {
		return nil, err
	}
	c.apply(ctx, domainauth.SessionEvent{Kind: domainauth.EventSignedIn, Session: sess})
	return &ports.SignUpResult{Session: sess}, nil
}

// SignOut revokes the session on the server and clears it locally. A server
// that no longer knows the session counts as signed out.
func (c *Client) SignOut(ctx context.Context) error {
	sess := c.Current()
	if sess == nil {
		var err error
		if sess, err = c.load(ctx); err != nil {
			return err
		}
	}
	if sess != nil {
		if err := c.post(ctx, "/logout", sess.AccessToken, nil, nil); err != nil && !isSessionGone(err) {
			return err
		}
	}

	c.apply(ctx, domainauth.SessionEvent{Kind: domainauth.EventSignedOut})
	return nil
}

// Current returns a copy of the in-memory session, or nil.
func (c *Client) Current() *domainauth.Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current == nil {
		return nil
	}
	sess := *c.current
	return &sess
}

// RelayEvents applies session events published by other processes until ctx
// is done. It returns immediately when no bus is configured.
func (c *Client) RelayEvents(ctx context.Context) error {
	if c.bus == nil {
		return nil
	}
	return c.bus.Listen(ctx, func(ev domainauth.SessionEvent) {
		if ev.Origin == c.origin {
			return
		}
		c.logger.DebugContext(ctx, "relayed session event", "kind", ev.Kind, "origin", ev.Origin)
		c.setCurrent(ev.Session)
		c.hub.Emit(ev)
	})
}

// apply records a local session change, persists it, notifies subscribers
// and publishes it for other processes.
func (c *Client) apply(ctx context.Context, ev domainauth.SessionEvent) {
	c.setCurrent(ev.Session)
	if ev.Session != nil {
		c.persist(ctx, ev.Session)
	} else {
		c.forget(ctx)
	}
	c.hub.Emit(ev)
	c.publish(ctx, ev)
}

func (c *Client) publish(ctx context.Context, ev domainauth.SessionEvent) {
	if c.bus == nil {
		return
	}
	ev.Origin = c.origin
	if err := c.bus.Publish(ctx, ev); err != nil {
		c.logger.WarnContext(ctx, "publish session event failed", "kind", ev.Kind, "error", err)
	}
}

func (c *Client) load(ctx context.Context) (*domainauth.Session, error) {
	if c.store == nil {
		return c.Current(), nil
	}
	sess, err := c.store.Get(ctx, c.sessionKey)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return &sess, nil
}

func (c *Client) persist(ctx context.Context, sess *domainauth.Session) {
	if c.store == nil {
		return
	}
	if err := c.store.Save(ctx, c.sessionKey, *sess); err != nil {
		c.logger.WarnContext(ctx, "persist session failed", "error", err)
	}
}

func (c *Client) forget(ctx context.Context) {
	c.setCurrent(nil)
	if c.store == nil {
		return
	}
	if err := c.store.Delete(ctx, c.sessionKey); err != nil {
		c.logger.WarnContext(ctx, "delete stored session failed", "error", err)
	}
}

func (c *Client) setCurrent(sess *domainauth.Session) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if sess == nil {
		c.current = nil
		return
	}
	cp := *sess
	c.current = &cp
}
