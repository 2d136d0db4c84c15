package gotrue

// Package gotrue implements ports.AuthGateway against a GoTrue-compatible auth
// API (the /auth/v1 surface of a hosted backend).

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	gooidc "github.com/coreos/go-oidc/v3/oidc"
	"github.com/google/uuid"
	jmespath "github.com/jmespath-community/go-jmespath"

	"github.com/target/zenithflow/config"
	"github.com/target/zenithflow/internal/adapters/sessionhub"
	domainauth "github.com/target/zenithflow/internal/domain/auth"
	apperrors "github.com/target/zenithflow/internal/errors"
	"github.com/target/zenithflow/internal/ports"
)

const authPath = "/auth/v1"

// maxErrorBody caps how much of an error response is read.
const maxErrorBody = 64 << 10

var _ ports.AuthGateway = (*Client)(nil)

// Options configures a Client. Config is required; the rest are optional.
type Options struct {
	Config     config.GatewayConfig
	HTTPClient *http.Client
	// Store persists the session between runs. Without it the session lives
	// only in memory.
	Store ports.SessionStore
	// Bus relays session events to other processes sharing Store.
	Bus    ports.SessionEventBus
	Logger *slog.Logger
	Now    func() time.Time
}

// Client talks to the auth API, keeps the current session and fans session
// events out to subscribers.
type Client struct {
	baseURL    string
	anonKey    string
	sessionKey string
	idExpr     string
	emailExpr  string
	http       *http.Client
	store      ports.SessionStore
	bus        ports.SessionEventBus
	verifier   *gooidc.IDTokenVerifier
	logger     *slog.Logger
	now        func() time.Time

	// origin tags events this process publishes so the relay can drop echoes.
	origin string
	hub    sessionhub.Hub

	mu      sync.Mutex
	current *domainauth.Session
}

// NewClient validates the gateway configuration and builds a Client.
func NewClient(opts Options) (*Client, error) {
	cfg := opts.Config
	cfg.Sanitize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	for _, expr := range []string{cfg.IdentityIDExpr, cfg.IdentityEmailExpr} {
		if _, err := jmespath.Compile(expr); err != nil {
			return nil, fmt.Errorf("compile identity expression %q: %w", expr, err)
		}
	}

	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: cfg.Timeout}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	c := &Client{
		baseURL:    cfg.URL,
		anonKey:    cfg.AnonKey,
		sessionKey: cfg.SessionKey,
		idExpr:     cfg.IdentityIDExpr,
		emailExpr:  cfg.IdentityEmailExpr,
		http:       hc,
		store:      opts.Store,
		bus:        opts.Bus,
		logger:     logger.With("component", "gotrue"),
		now:        now,
		origin:     uuid.NewString(),
	}

	if cfg.VerifyTokens {
		// The key set outlives any single request, so it gets its own context.
		keyCtx := gooidc.ClientContext(context.Background(), hc)
		keySet := gooidc.NewRemoteKeySet(keyCtx, cfg.JWKSURL())
		c.verifier = gooidc.NewVerifier(cfg.Issuer(), keySet, &gooidc.Config{
			SkipClientIDCheck:    true,
			SupportedSigningAlgs: []string{gooidc.RS256, gooidc.ES256},
			Now:                  now,
		})
	}
	return c, nil
}

// apiError covers the error body shapes the auth API has used across versions.
type apiError struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
	ErrorCode        string `json:"error_code"`
	Msg              string `json:"msg"`
	Message          string `json:"message"`
}

func (e apiError) text() string {
	for _, s := range []string{e.Msg, e.ErrorDescription, e.Message, e.Error} {
		if s != "" {
			return s
		}
	}
	return ""
}

func (c *Client) post(ctx context.Context, path, bearer string, in, out any) error {
	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode gateway request: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+authPath+path, body)
	if err != nil {
		return fmt.Errorf("create gateway request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("apikey", c.anonKey)
	if bearer == "" {
		bearer = c.anonKey
	}
	req.Header.Set("Authorization", "Bearer "+bearer)

	resp, err := c.http.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return apperrors.Wrap(err, apperrors.ErrCodeNetwork, "gateway request failed")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decodeError(resp)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeNetwork, "decode gateway response")
	}
	return nil
}

// decodeError maps an error response to an AppError whose message is the
// gateway's own text.
func decodeError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	var ae apiError
	_ = json.Unmarshal(raw, &ae)

	msg := ae.text()
	if msg == "" {
		msg = strings.TrimSpace(string(raw))
	}
	if msg == "" {
		msg = http.StatusText(resp.StatusCode)
	}

	switch {
	case ae.Error == "invalid_grant" || ae.ErrorCode == "invalid_credentials":
		return apperrors.New(apperrors.ErrCodeInvalidCredentials, msg)
	case ae.ErrorCode == "user_already_exists" || ae.ErrorCode == "email_exists":
		return apperrors.Conflict(msg)
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return apperrors.New(apperrors.ErrCodeUnauthenticated, msg)
	case resp.StatusCode == http.StatusNotFound:
		return apperrors.NotFound(msg)
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return apperrors.New(apperrors.ErrCodeNetwork, msg)
	default:
		return apperrors.Validation(msg)
	}
}

// isSessionGone reports whether err means the server no longer knows the
// session, which sign-out treats as success.
func isSessionGone(err error) bool {
	return apperrors.GetCode(err) == apperrors.ErrCodeUnauthenticated || apperrors.IsNotFound(err)
}

var errNoRefreshToken = errors.New("session has no refresh token")
