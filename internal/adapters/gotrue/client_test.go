package gotrue

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/target/zenithflow/config"
	domainauth "github.com/target/zenithflow/internal/domain/auth"
	apperrors "github.com/target/zenithflow/internal/errors"
	authmocks "github.com/target/zenithflow/internal/mocks/auth"
	"github.com/target/zenithflow/internal/ports"
)

const testAnonKey = "anon-test-key"

func hsToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return signed
}

func userClaims(sub, email string) jwt.MapClaims {
	now := time.Now()
	return jwt.MapClaims{
		"sub":   sub,
		"email": email,
		"iat":   now.Unix(),
		"exp":   now.Add(time.Hour).Unix(),
	}
}

func tokenBody(t *testing.T, sub, email, refresh string, withUser bool) map[string]any {
	t.Helper()
	body := map[string]any{
		"access_token":  hsToken(t, userClaims(sub, email)),
		"token_type":    "bearer",
		"expires_in":    3600,
		"refresh_token": refresh,
	}
	if withUser {
		body["user"] = map[string]any{"id": sub, "email": email}
	}
	return body
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func decodeBody(t *testing.T, r *http.Request) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
	return body
}

func newTestClient(t *testing.T, handler http.Handler, mutate func(*Options)) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	opts := Options{
		Config: config.GatewayConfig{URL: srv.URL, AnonKey: testAnonKey},
		Store:  authmocks.NewMemorySessionStore(),
	}
	if mutate != nil {
		mutate(&opts)
	}
	c, err := NewClient(opts)
	require.NoError(t, err)
	return c, srv
}

func failHandler(t *testing.T) http.Handler {
	return http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected request %s %s", r.Method, r.URL.String())
	})
}

func TestNewClient_RejectsPlaceholderConfig(t *testing.T) {
	_, err := NewClient(Options{Config: config.GatewayConfig{
		URL:     "https://UPDATE_THIS.supabase.co",
		AnonKey: "key",
	}})
	require.Error(t, err)
	assert.ErrorIs(t, err, config.ErrGatewayNotConfigured)

	_, err = NewClient(Options{Config: config.GatewayConfig{URL: "https://abc.example.com"}})
	assert.ErrorIs(t, err, config.ErrGatewayNotConfigured)
}

func TestNewClient_RejectsBadIdentityExpression(t *testing.T) {
	_, err := NewClient(Options{Config: config.GatewayConfig{
		URL:            "https://abc.example.com",
		AnonKey:        "key",
		IdentityIDExpr: "sub[",
	}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "compile identity expression")
}

func TestClient_SignIn(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/auth/v1/token", r.URL.Path)
		assert.Equal(t, "password", r.URL.Query().Get("grant_type"))
		assert.Equal(t, testAnonKey, r.Header.Get("apikey"))
		assert.Equal(t, "Bearer "+testAnonKey, r.Header.Get("Authorization"))

		body := decodeBody(t, r)
		assert.Equal(t, "ana@example.com", body["email"])
		assert.Equal(t, "secret1", body["password"])
		writeJSON(w, http.StatusOK, tokenBody(t, "user-ana", "ana@example.com", "refresh-ana", true))
	})
	store := authmocks.NewMemorySessionStore()
	c, _ := newTestClient(t, handler, func(o *Options) { o.Store = store })

	var events []domainauth.SessionEvent
	c.Subscribe(func(ev domainauth.SessionEvent) { events = append(events, ev) })

	sess, err := c.SignIn(context.Background(), "ana@example.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, "user-ana", sess.IdentityID())
	assert.Equal(t, "ana@example.com", sess.Identity.Email)
	assert.Equal(t, "refresh-ana", sess.RefreshToken)
	assert.WithinDuration(t, time.Now().Add(time.Hour), sess.ExpiresAt, 5*time.Second)

	require.Len(t, events, 1)
	assert.Equal(t, domainauth.EventSignedIn, events[0].Kind)

	stored, err := store.Get(context.Background(), "default")
	require.NoError(t, err)
	assert.Equal(t, sess.AccessToken, stored.AccessToken)
}

func TestClient_SignInErrors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    any
		check   func(error) bool
		message string
	}{
		{
			name:    "legacy invalid grant",
			status:  http.StatusBadRequest,
			body:    map[string]any{"error": "invalid_grant", "error_description": "Invalid login credentials"},
			check:   apperrors.IsInvalidCredentials,
			message: "Invalid login credentials",
		},
		{
			name:    "error code body",
			status:  http.StatusBadRequest,
			body:    map[string]any{"code": 400, "error_code": "invalid_credentials", "msg": "Invalid login credentials"},
			check:   apperrors.IsInvalidCredentials,
			message: "Invalid login credentials",
		},
		{
			name:    "unconfirmed email",
			status:  http.StatusBadRequest,
			body:    map[string]any{"code": 400, "error_code": "email_not_confirmed", "msg": "Email not confirmed"},
			check:   apperrors.IsValidation,
			message: "Email not confirmed",
		},
		{
			name:    "server error",
			status:  http.StatusBadGateway,
			body:    map[string]any{"message": "upstream unavailable"},
			check:   apperrors.IsNetwork,
			message: "upstream unavailable",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				writeJSON(w, tt.status, tt.body)
			})
			c, _ := newTestClient(t, handler, nil)

			sess, err := c.SignIn(context.Background(), "ana@example.com", "wrong")
			require.Error(t, err)
			assert.Nil(t, sess)
			assert.True(t, tt.check(err), "unexpected error class: %v", err)
			assert.Equal(t, tt.message, err.Error())
			assert.Nil(t, c.Current())
		})
	}
}

func TestClient_NetworkFailure(t *testing.T) {
	c, srv := newTestClient(t, failHandler(t), nil)
	srv.Close()

	_, err := c.SignIn(context.Background(), "ana@example.com", "secret1")
	require.Error(t, err)
	assert.True(t, apperrors.IsNetwork(err))
}

func TestClient_IdentityFromClaims(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		claims := userClaims("user-claims", "")
		claims["user_metadata"] = map[string]any{"contact": "claims@example.com"}
		writeJSON(w, http.StatusOK, map[string]any{
			"access_token":  hsToken(t, claims),
			"expires_in":    3600,
			"refresh_token": "r",
		})
	})
	c, _ := newTestClient(t, handler, func(o *Options) {
		o.Config.IdentityEmailExpr = "user_metadata.contact"
	})

	sess, err := c.SignIn(context.Background(), "x@example.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, domainauth.Identity{ID: "user-claims", Email: "claims@example.com"}, sess.Identity)
}

func TestClient_MalformedAccessToken(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"access_token": "not-a-jwt", "expires_in": 3600})
	})
	c, _ := newTestClient(t, handler, nil)

	_, err := c.SignIn(context.Background(), "x@example.com", "secret1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "malformed access token")
}

func TestClient_SignUpPendingConfirmation(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/auth/v1/signup", r.URL.Path)
		body := decodeBody(t, r)
		assert.Equal(t, "new@example.com", body["email"])
		assert.Equal(t, map[string]any{"full_name": "New Member"}, body["data"])
		writeJSON(w, http.StatusOK, map[string]any{
			"id":                   "user-new",
			"email":                "new@example.com",
			"confirmation_sent_at": time.Now().Format(time.RFC3339),
		})
	})
	c, _ := newTestClient(t, handler, nil)
	var events int
	c.Subscribe(func(domainauth.SessionEvent) { events++ })

	res, err := c.SignUp(context.Background(), ports.SignUpInput{
		Email: "new@example.com", Password: "secret1", DisplayName: "New Member",
	})
	require.NoError(t, err)
	assert.True(t, res.PendingConfirmation)
	assert.Nil(t, res.Session)
	assert.Zero(t, events)
}

func TestClient_SignUpAutoConfirmed(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, tokenBody(t, "user-new", "new@example.com", "refresh-new", true))
	})
	c, _ := newTestClient(t, handler, nil)

	res, err := c.SignUp(context.Background(), ports.SignUpInput{
		Email: "new@example.com", Password: "secret1", DisplayName: "New Member",
	})
	require.NoError(t, err)
	assert.False(t, res.PendingConfirmation)
	require.NotNil(t, res.Session)
	assert.Equal(t, "user-new", res.Session.IdentityID())
	assert.Equal(t, "user-new", c.Current().IdentityID())
}

func TestClient_SignUpExistingUser(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"code": 422, "error_code": "user_already_exists", "msg": "User already registered",
		})
	})
	c, _ := newTestClient(t, handler, nil)

	_, err := c.SignUp(context.Background(), ports.SignUpInput{Email: "a@example.com", Password: "secret1"})
	require.Error(t, err)
	assert.True(t, apperrors.IsConflict(err))
	assert.Equal(t, "User already registered", err.Error())
}

func TestClient_RestoreWithoutStoredSession(t *testing.T) {
	c, _ := newTestClient(t, failHandler(t), nil)

	sess, err := c.RestoreSession(context.Background())
	require.NoError(t, err)
	assert.Nil(t, sess)
}

func TestClient_RestoreValidSessionSkipsNetwork(t *testing.T) {
	store := authmocks.NewMemorySessionStore()
	stored := domainauth.Session{
		AccessToken:  "stored-access",
		RefreshToken: "stored-refresh",
		Identity:     domainauth.Identity{ID: "user-ana"},
		ExpiresAt:    time.Now().Add(time.Hour),
	}
	require.NoError(t, store.Save(context.Background(), "default", stored))
	c, _ := newTestClient(t, failHandler(t), func(o *Options) { o.Store = store })

	sess, err := c.RestoreSession(context.Background())
	require.NoError(t, err)
	require.NotNil(t, sess)
	assert.Equal(t, "stored-access", sess.AccessToken)
	assert.Equal(t, "user-ana", c.Current().IdentityID())
}

func TestClient_RestoreRefreshesExpiredSession(t *testing.T) {
	var calls atomic.Int32
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, "refresh_token", r.URL.Query().Get("grant_type"))
		assert.Equal(t, "old-refresh", decodeBody(t, r)["refresh_token"])
		writeJSON(w, http.StatusOK, tokenBody(t, "user-ana", "ana@example.com", "new-refresh", true))
	})
	store := authmocks.NewMemorySessionStore()
	require.NoError(t, store.Save(context.Background(), "default", domainauth.Session{
		AccessToken:  "old-access",
		RefreshToken: "old-refresh",
		Identity:     domainauth.Identity{ID: "user-ana"},
		ExpiresAt:    time.Now().Add(-time.Minute),
	}))
	c, _ := newTestClient(t, handler, func(o *Options) { o.Store = store })

	sess, err := c.RestoreSession(context.Background())
	require.NoError(t, err)
	require.NotNil(t, sess)
	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, "new-refresh", sess.RefreshToken)
	assert.NotEqual(t, "old-access", sess.AccessToken)

	stored, err := store.Get(context.Background(), "default")
	require.NoError(t, err)
	assert.Equal(t, sess.AccessToken, stored.AccessToken)
}

func TestClient_RestoreDropsRevokedSession(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"error": "invalid_grant", "error_description": "Invalid Refresh Token: Refresh Token Not Found",
		})
	})
	store := authmocks.NewMemorySessionStore()
	require.NoError(t, store.Save(context.Background(), "default", domainauth.Session{
		AccessToken:  "old-access",
		RefreshToken: "revoked",
		Identity:     domainauth.Identity{ID: "user-ana"},
		ExpiresAt:    time.Now().Add(-time.Minute),
	}))
	c, _ := newTestClient(t, handler, func(o *Options) { o.Store = store })

	sess, err := c.RestoreSession(context.Background())
	require.NoError(t, err)
	assert.Nil(t, sess)

	_, err = store.Get(context.Background(), "default")
	assert.True(t, apperrors.IsNotFound(err))
}

func TestClient_RestoreSurfacesTransportFailure(t *testing.T) {
	store := authmocks.NewMemorySessionStore()
	require.NoError(t, store.Save(context.Background(), "default", domainauth.Session{
		AccessToken:  "old-access",
		RefreshToken: "old-refresh",
		Identity:     domainauth.Identity{ID: "user-ana"},
		ExpiresAt:    time.Now().Add(-time.Minute),
	}))
	c, srv := newTestClient(t, failHandler(t), func(o *Options) { o.Store = store })
	srv.Close()

	_, err := c.RestoreSession(context.Background())
	require.Error(t, err)
	assert.True(t, apperrors.IsNetwork(err))

	// The stored session survives for the next attempt.
	_, err = store.Get(context.Background(), "default")
	assert.NoError(t, err)
}

func TestClient_SignOut(t *testing.T) {
	logoutAuth := make(chan string, 1)
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/auth/v1/token":
			writeJSON(w, http.StatusOK, tokenBody(t, "user-ana", "ana@example.com", "r", true))
		case "/auth/v1/logout":
			logoutAuth <- r.Header.Get("Authorization")
			w.WriteHeader(http.StatusNoContent)
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	})
	store := authmocks.NewMemorySessionStore()
	c, _ := newTestClient(t, handler, func(o *Options) { o.Store = store })

	sess, err := c.SignIn(context.Background(), "ana@example.com", "secret1")
	require.NoError(t, err)

	var kinds []domainauth.EventKind
	c.Subscribe(func(ev domainauth.SessionEvent) { kinds = append(kinds, ev.Kind) })

	require.NoError(t, c.SignOut(context.Background()))
	assert.Equal(t, "Bearer "+sess.AccessToken, <-logoutAuth)
	assert.Nil(t, c.Current())
	assert.Equal(t, []domainauth.EventKind{domainauth.EventSignedOut}, kinds)

	_, err = store.Get(context.Background(), "default")
	assert.True(t, apperrors.IsNotFound(err))
}

func TestClient_SignOutWithExpiredServerSession(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"msg": "invalid JWT"})
	})
	store := authmocks.NewMemorySessionStore()
	require.NoError(t, store.Save(context.Background(), "default", domainauth.Session{
		AccessToken: "stale", RefreshToken: "r", Identity: domainauth.Identity{ID: "user-ana"},
	}))
	c, _ := newTestClient(t, handler, func(o *Options) { o.Store = store })

	require.NoError(t, c.SignOut(context.Background()))
	_, err := store.Get(context.Background(), "default")
	assert.True(t, apperrors.IsNotFound(err))
}

func TestClient_SignOutKeepsSessionOnServerFailure(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusInternalServerError, map[string]any{"msg": "boom"})
	})
	store := authmocks.NewMemorySessionStore()
	require.NoError(t, store.Save(context.Background(), "default", domainauth.Session{
		AccessToken: "a", RefreshToken: "r", Identity: domainauth.Identity{ID: "user-ana"},
	}))
	c, _ := newTestClient(t, handler, func(o *Options) { o.Store = store })

	err := c.SignOut(context.Background())
	require.Error(t, err)
	assert.Equal(t, "boom", err.Error())

	_, err = store.Get(context.Background(), "default")
	assert.NoError(t, err)
}

// recordingBus is an in-memory SessionEventBus.
type recordingBus struct {
	mu        sync.Mutex
	published []domainauth.SessionEvent
	listening chan func(domainauth.SessionEvent)
}

func newRecordingBus() *recordingBus {
	return &recordingBus{listening: make(chan func(domainauth.SessionEvent), 1)}
}

func (b *recordingBus) Publish(_ context.Context, ev domainauth.SessionEvent) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.published = append(b.published, ev)
	return nil
}

func (b *recordingBus) Listen(ctx context.Context, fn func(domainauth.SessionEvent)) error {
	b.listening <- fn
	<-ctx.Done()
	return nil
}

func (b *recordingBus) Published() []domainauth.SessionEvent {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]domainauth.SessionEvent(nil), b.published...)
}

func TestClient_RelayEvents(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, tokenBody(t, "user-ana", "ana@example.com", "r", true))
	})
	bus := newRecordingBus()
	c, _ := newTestClient(t, handler, func(o *Options) { o.Bus = bus })

	_, err := c.SignIn(context.Background(), "ana@example.com", "secret1")
	require.NoError(t, err)
	published := bus.Published()
	require.Len(t, published, 1)
	assert.Equal(t, domainauth.EventSignedIn, published[0].Kind)
	assert.NotEmpty(t, published[0].Origin)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- c.RelayEvents(ctx) }()
	deliver := <-bus.listening

	var mu sync.Mutex
	var kinds []domainauth.EventKind
	c.Subscribe(func(ev domainauth.SessionEvent) {
		mu.Lock()
		defer mu.Unlock()
		kinds = append(kinds, ev.Kind)
	})

	// An echo of our own event is dropped.
	deliver(published[0])
	// Another process signed out.
	deliver(domainauth.SessionEvent{Kind: domainauth.EventSignedOut, Origin: "other-process"})

	mu.Lock()
	assert.Equal(t, []domainauth.EventKind{domainauth.EventSignedOut}, kinds)
	mu.Unlock()
	assert.Nil(t, c.Current())

	cancel()
	require.NoError(t, <-done)
}

func TestClient_RelayEventsWithoutBus(t *testing.T) {
	c, _ := newTestClient(t, failHandler(t), nil)
	assert.NoError(t, c.RelayEvents(context.Background()))
}

func rsaJWKS(t *testing.T, key *rsa.PrivateKey, kid string) map[string]any {
	t.Helper()
	return map[string]any{"keys": []map[string]any{{
		"kty": "RSA",
		"kid": kid,
		"alg": "RS256",
		"use": "sig",
		"n":   base64.RawURLEncoding.EncodeToString(key.N.Bytes()),
		"e":   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(key.E)).Bytes()),
	}}}
}

func TestClient_VerifyTokens(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	var issuer atomic.Value
	var signed atomic.Bool
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/v1/.well-known/jwks.json", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, rsaJWKS(t, key, "key-1"))
	})
	mux.HandleFunc("/auth/v1/token", func(w http.ResponseWriter, _ *http.Request) {
		claims := userClaims("user-ana", "ana@example.com")
		claims["iss"] = issuer.Load()
		claims["aud"] = "authenticated"

		var access string
		if signed.Load() {
			tok := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
			tok.Header["kid"] = "key-1"
			s, signErr := tok.SignedString(key)
			require.NoError(t, signErr)
			access = s
		} else {
			access = hsToken(t, claims)
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"access_token":  access,
			"expires_in":    3600,
			"refresh_token": "r",
			"user":          map[string]any{"id": "user-ana", "email": "ana@example.com"},
		})
	})

	c, srv := newTestClient(t, mux, func(o *Options) { o.Config.VerifyTokens = true })
	issuer.Store(srv.URL + "/auth/v1")

	signed.Store(true)
	sess, err := c.SignIn(context.Background(), "ana@example.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, "user-ana", sess.IdentityID())

	signed.Store(false)
	_, err = c.SignIn(context.Background(), "ana@example.com", "secret1")
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeUnauthenticated, apperrors.GetCode(err))
}

func TestClient_SignUpVerifiesTokens(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	var issuer atomic.Value
	var signed atomic.Bool
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/v1/.well-known/jwks.json", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, rsaJWKS(t, key, "key-1"))
	})
	mux.HandleFunc("/auth/v1/signup", func(w http.ResponseWriter, _ *http.Request) {
		claims := userClaims("user-new", "new@example.com")
		claims["iss"] = issuer.Load()
		claims["aud"] = "authenticated"

		access := hsToken(t, claims)
		if signed.Load() {
			tok := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
			tok.Header["kid"] = "key-1"
			s, signErr := tok.SignedString(key)
			require.NoError(t, signErr)
			access = s
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"access_token":  access,
			"expires_in":    3600,
			"refresh_token": "r",
			"user":          map[string]any{"id": "user-new", "email": "new@example.com"},
		})
	})

	c, srv := newTestClient(t, mux, func(o *Options) { o.Config.VerifyTokens = true })
	issuer.Store(srv.URL + "/auth/v1")
	var events atomic.Int32
	c.Subscribe(func(domainauth.SessionEvent) { events.Add(1) })

	in := ports.SignUpInput{Email: "new@example.com", Password: "secret1", DisplayName: "New Member"}

	_, err = c.SignUp(context.Background(), in)
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeUnauthenticated, apperrors.GetCode(err))
	assert.Nil(t, c.Current(), "unverified signup session must not be applied")
	assert.Zero(t, events.Load())
	stored, err := c.load(context.Background())
	require.NoError(t, err)
	assert.Nil(t, stored, "unverified signup session must not be persisted")

	signed.Store(true)
	res, err := c.SignUp(context.Background(), in)
	require.NoError(t, err)
	require.NotNil(t, res.Session)
	assert.Equal(t, "user-new", c.Current().IdentityID())
	assert.Equal(t, int32(1), events.Load())
}
