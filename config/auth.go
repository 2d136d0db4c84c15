package config

import (
	"fmt"
	"strings"
)

// AuthMode represents the authentication mode for the application.
type AuthMode string

const (
	// AuthModeGateway authenticates against the remote gateway auth API.
	AuthModeGateway AuthMode = "gateway"
	// AuthModeMock uses an in-process identity (for development only).
	AuthModeMock AuthMode = "mock"
)

// UnmarshalText implements encoding.TextUnmarshaler for AuthMode.
func (a *AuthMode) UnmarshalText(text []byte) error {
	v := strings.ToLower(string(text))
	switch v {
	case "gateway", "mock":
		*a = AuthMode(v)
		return nil
	default:
		return fmt.Errorf("invalid AuthMode: %q (valid options: gateway, mock)", v)
	}
}

// DevAuthConfig controls mock/dev authentication identity.
// Used when AUTH_MODE=mock for development and testing.
type DevAuthConfig struct {
	UserID   string `env:"USER_ID"   envDefault:"dev-user"`
	Email    string `env:"EMAIL"     envDefault:"dev@example.com"`
	Password string `env:"PASSWORD"  envDefault:"dev-password"`
	// SignedIn starts the dev gateway with a restorable session.
	SignedIn bool `env:"SIGNED_IN" envDefault:"true"`
}

// AuthConfig groups all authentication-related configuration.
type AuthConfig struct {
	// Mode determines which AuthGateway implementation is wired.
	Mode AuthMode `env:"AUTH_MODE" envDefault:"gateway"`

	// DevAuth configuration (used when Mode=mock).
	DevAuth DevAuthConfig `envPrefix:"DEV_AUTH_"`
}
