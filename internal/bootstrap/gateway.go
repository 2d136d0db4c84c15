package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/redis/go-redis/v9"

	"github.com/target/zenithflow/config"
	"github.com/target/zenithflow/internal/adapters/devauth"
	"github.com/target/zenithflow/internal/adapters/gotrue"
	redisadapter "github.com/target/zenithflow/internal/adapters/redis"
	"github.com/target/zenithflow/internal/ports"
)

const devSessionKey = "dev"

// GatewayDeps groups inputs for BuildGateway.
type GatewayDeps struct {
	Config *config.AppConfig
	// Redis is optional. When set, sessions are persisted and session events
	// are shared with other processes.
	Redis      redis.UniversalClient
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// Gateway bundles the selected auth gateway with its background relay.
type Gateway struct {
	Auth ports.AuthGateway
	// ConfigErr explains why the remote gateway cannot be used. Auth is nil
	// whenever ConfigErr is set.
	ConfigErr error
	// Mode is the auth mode that produced Auth.
	Mode config.AuthMode

	relay func(context.Context) error
}

// Relay forwards session events from other processes until ctx is done.
func (g Gateway) Relay(ctx context.Context) error {
	if g.relay == nil {
		return nil
	}
	return g.relay(ctx)
}

// BuildGateway selects the auth gateway for the configured mode. An unusable
// gateway configuration is not an error here: it is reported through
// Gateway.ConfigErr so the caller can enter the degraded state instead of
// failing to start.
func BuildGateway(deps GatewayDeps) (Gateway, error) {
	cfg := deps.Config
	if cfg == nil {
		return Gateway{}, errors.New("build gateway: config is required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	store, bus := sessionAdapters(deps.Redis, cfg.Redis, logger)

	if cfg.Auth.Mode == config.AuthModeMock {
		dev := cfg.Auth.DevAuth
		gw, err := devauth.NewGateway(devauth.Config{
			UserID:     dev.UserID,
			Email:      dev.Email,
			Password:   dev.Password,
			SignedIn:   dev.SignedIn,
			Store:      store,
			SessionKey: devSessionKey,
			Logger:     logger,
		})
		if err != nil {
			return Gateway{}, fmt.Errorf("build dev gateway: %w", err)
		}
		logger.Warn("using in-process dev auth gateway", "email", dev.Email)
		return Gateway{Auth: gw, Mode: config.AuthModeMock}, nil
	}

	if cfgErr := cfg.GatewayError(); cfgErr != nil {
		return Gateway{ConfigErr: cfgErr, Mode: config.AuthModeGateway}, nil
	}

	client, err := gotrue.NewClient(gotrue.Options{
		Config:     cfg.Gateway,
		HTTPClient: deps.HTTPClient,
		Store:      store,
		Bus:        bus,
		Logger:     logger,
	})
	if err != nil {
		return Gateway{}, fmt.Errorf("build gateway client: %w", err)
	}
	return Gateway{Auth: client, Mode: config.AuthModeGateway, relay: client.RelayEvents}, nil
}

// sessionAdapters returns nil interfaces when Redis is unavailable so that
// adapters see a true nil rather than a typed nil pointer.
func sessionAdapters(
	client redis.UniversalClient,
	cfg config.RedisConfig,
	logger *slog.Logger,
) (ports.SessionStore, ports.SessionEventBus) {
	if client == nil {
		return nil, nil
	}
	store := redisadapter.NewSessionStore(client, redisadapter.SessionStoreOptions{
		Prefix: cfg.SessionPrefix,
		TTL:    cfg.SessionTTL,
	})
	bus := redisadapter.NewEventBus(client, redisadapter.EventBusOptions{
		Channel: cfg.EventsChannel,
		Logger:  logger,
	})
	return store, bus
}
