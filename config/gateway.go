package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
)

// ErrGatewayNotConfigured is returned by GatewayConfig.Validate when the endpoint
// or key is absent or still holds a template placeholder.
var ErrGatewayNotConfigured = errors.New("gateway is not configured")

// placeholderMarkers are substrings left behind by project templates.
var placeholderMarkers = []string{"update_this", "placeholder", "your-project", "your_project"}

// GatewayConfig describes the remote auth + relational backend.
type GatewayConfig struct {
	// URL is the project base URL, e.g. https://abc.supabase.co.
	URL string `env:"URL"`

	// AnonKey is the public API key sent with every auth request.
	AnonKey string `env:"ANON_KEY"`

	// Timeout bounds each HTTP call to the auth API.
	Timeout time.Duration `env:"TIMEOUT" envDefault:"10s"`

	// VerifyTokens enables access token signature checks against the JWKS endpoint.
	VerifyTokens bool `env:"VERIFY_TOKENS" envDefault:"false"`

	// JWKSPath is appended to URL to locate the signing keys.
	JWKSPath string `env:"JWKS_PATH" envDefault:"/auth/v1/.well-known/jwks.json"`

	// IdentityIDExpr and IdentityEmailExpr are JMESPath expressions evaluated against
	// access token claims when a response carries no user object.
	IdentityIDExpr    string `env:"IDENTITY_ID_EXPR"    envDefault:"sub"`
	IdentityEmailExpr string `env:"IDENTITY_EMAIL_EXPR" envDefault:"email"`

	// SessionKey names the persisted session slot for this client.
	SessionKey string `env:"SESSION_KEY" envDefault:"default"`
}

// Sanitize trims values and restores defaults for empty fields.
func (g *GatewayConfig) Sanitize() {
	g.URL = strings.TrimRight(strings.TrimSpace(g.URL), "/")
	g.AnonKey = strings.TrimSpace(g.AnonKey)
	if g.Timeout <= 0 {
		g.Timeout = 10 * time.Second
	}
	if g.JWKSPath == "" {
		g.JWKSPath = "/auth/v1/.well-known/jwks.json"
	}
	if g.IdentityIDExpr == "" {
		g.IdentityIDExpr = "sub"
	}
	if g.IdentityEmailExpr == "" {
		g.IdentityEmailExpr = "email"
	}
	if g.SessionKey = strings.TrimSpace(g.SessionKey); g.SessionKey == "" {
		g.SessionKey = "default"
	}
}

// Validate returns an error wrapping ErrGatewayNotConfigured when the gateway
// endpoint or key is missing, malformed, or a placeholder.
func (g *GatewayConfig) Validate() error {
	if g.URL == "" {
		return fmt.Errorf("%w: GATEWAY_URL is empty", ErrGatewayNotConfigured)
	}
	if g.AnonKey == "" {
		return fmt.Errorf("%w: GATEWAY_ANON_KEY is empty", ErrGatewayNotConfigured)
	}
	if IsPlaceholder(g.URL) {
		return fmt.Errorf("%w: GATEWAY_URL holds a placeholder value", ErrGatewayNotConfigured)
	}
	if IsPlaceholder(g.AnonKey) {
		return fmt.Errorf("%w: GATEWAY_ANON_KEY holds a placeholder value", ErrGatewayNotConfigured)
	}
	u, err := url.Parse(g.URL)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("%w: GATEWAY_URL %q is not an http(s) URL", ErrGatewayNotConfigured, g.URL)
	}
	return nil
}

// Issuer returns the token issuer expected on access tokens.
func (g *GatewayConfig) Issuer() string {
	return g.URL + "/auth/v1"
}

// JWKSURL returns the absolute signing key endpoint.
func (g *GatewayConfig) JWKSURL() string {
	return g.URL + g.JWKSPath
}

// IsPlaceholder reports whether v looks like an unedited template value.
func IsPlaceholder(v string) bool {
	lower := strings.ToLower(v)
	for _, m := range placeholderMarkers {
		if strings.Contains(lower, m) {
			return true
		}
	}
	return false
}
