package gotrue

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	jmespath "github.com/jmespath-community/go-jmespath"
	"golang.org/x/oauth2"

	domainauth "github.com/target/zenithflow/internal/domain/auth"
	apperrors "github.com/target/zenithflow/internal/errors"
)

type userResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// tokenResponse is the body of the token endpoint and of an auto-confirmed
// sign-up.
type tokenResponse struct {
	AccessToken  string        `json:"access_token"`
	TokenType    string        `json:"token_type"`
	ExpiresIn    int64         `json:"expires_in"`
	ExpiresAt    int64         `json:"expires_at"`
	RefreshToken string        `json:"refresh_token"`
	User         *userResponse `json:"user"`
}

// signUpResponse is either a tokenResponse or, when e-mail confirmation is
// required, the bare user object.
type signUpResponse struct {
	tokenResponse
	ID                 string  `json:"id"`
	Email              string  `json:"email"`
	ConfirmationSentAt *string `json:"confirmation_sent_at"`
}

// sessionFromToken builds a Session from a token response. Identity comes
// from the user object when present, otherwise from the access token claims.
func (c *Client) sessionFromToken(tr tokenResponse) (*domainauth.Session, error) {
	if tr.AccessToken == "" {
		return nil, apperrors.New(apperrors.ErrCodeNetwork, "gateway response carries no access token")
	}

	// Signature checks, when enabled, happen in verify against the key set.
	token, _, err := jwt.NewParser().ParseUnverified(tr.AccessToken, jwt.MapClaims{})
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeNetwork, "malformed access token")
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, apperrors.New(apperrors.ErrCodeNetwork, "malformed access token claims")
	}

	now := c.now().UTC()
	sess := &domainauth.Session{
		AccessToken:  tr.AccessToken,
		RefreshToken: tr.RefreshToken,
		IssuedAt:     now,
	}
	if iat, err := claims.GetIssuedAt(); err == nil && iat != nil {
		sess.IssuedAt = iat.UTC()
	}
	switch {
	case tr.ExpiresAt > 0:
		sess.ExpiresAt = time.Unix(tr.ExpiresAt, 0).UTC()
	case tr.ExpiresIn > 0:
		sess.ExpiresAt = now.Add(time.Duration(tr.ExpiresIn) * time.Second)
	default:
		if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
			sess.ExpiresAt = exp.UTC()
		}
	}

	if tr.User != nil && tr.User.ID != "" {
		sess.Identity = domainauth.Identity{ID: tr.User.ID, Email: tr.User.Email}
	} else {
		sess.Identity = c.identityFromClaims(claims)
	}
	if sess.Identity.ID == "" {
		return nil, apperrors.New(apperrors.ErrCodeNetwork, "access token carries no identity")
	}
	return sess, nil
}

func (c *Client) identityFromClaims(claims jwt.MapClaims) domainauth.Identity {
	data := map[string]any(claims)
	return domainauth.Identity{
		ID:    searchString(c.idExpr, data),
		Email: searchString(c.emailExpr, data),
	}
}

func searchString(expr string, data any) string {
	v, err := jmespath.Search(expr, data)
	if err != nil {
		return ""
	}
	switch s := v.(type) {
	case string:
		return strings.TrimSpace(s)
	case nil:
		return ""
	default:
		return fmt.Sprint(s)
	}
}

// verify checks the access token signature, issuer and expiry when token
// verification is enabled.
func (c *Client) verify(ctx context.Context, sess *domainauth.Session) error {
	if c.verifier == nil {
		return nil
	}
	if _, err := c.verifier.Verify(ctx, sess.AccessToken); err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeUnauthenticated, "access token rejected")
	}
	return nil
}

func oauthToken(sess *domainauth.Session) *oauth2.Token {
	return &oauth2.Token{
		AccessToken:  sess.AccessToken,
		TokenType:    "bearer",
		RefreshToken: sess.RefreshToken,
		Expiry:       sess.ExpiresAt,
	}
}

// refreshSource is an oauth2.TokenSource backed by the refresh_token grant.
// It remembers the session built from the last refresh.
type refreshSource struct {
	ctx          context.Context
	client       *Client
	refreshToken string
	refreshed    *domainauth.Session
}

func (r *refreshSource) Token() (*oauth2.Token, error) {
	if r.refreshToken == "" {
		return nil, errNoRefreshToken
	}
	sess, err := r.client.refresh(r.ctx, r.refreshToken)
	if err != nil {
		return nil, err
	}
	r.refreshed = sess
	return oauthToken(sess), nil
}

// ensureFresh returns sess unchanged while its access token is valid, or a
// refreshed session. The bool reports whether a refresh happened.
func (c *Client) ensureFresh(ctx context.Context, sess *domainauth.Session) (*domainauth.Session, bool, error) {
	src := &refreshSource{ctx: ctx, client: c, refreshToken: sess.RefreshToken}
	if _, err := oauth2.ReuseTokenSource(oauthToken(sess), src).Token(); err != nil {
		return nil, false, err
	}
	if src.refreshed == nil {
		return sess, false, nil
	}
	return src.refreshed, true, nil
}

func (c *Client) refresh(ctx context.Context, refreshToken string) (*domainauth.Session, error) {
	var tr tokenResponse
	body := map[string]string{"refresh_token": refreshToken}
	if err := c.post(ctx, "/token?grant_type=refresh_token", "", body, &tr); err != nil {
		return nil, err
	}
	return c.sessionFromToken(tr)
}
