package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/target/zenithflow/config"
	"github.com/target/zenithflow/internal/data"
	domainauth "github.com/target/zenithflow/internal/domain/auth"
	"github.com/target/zenithflow/internal/observability/statsd"
	"github.com/target/zenithflow/internal/service"
)

// AppDeps groups dependencies for NewApp.
type AppDeps struct {
	Config *config.AppConfig
	// DB is optional; without it profile lookups resolve to nil and the
	// booking and settings services are not built.
	DB         *sql.DB
	Redis      redis.UniversalClient
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// App holds the wired client core.
type App struct {
	Gateway  Gateway
	Sync     *service.Synchronizer
	Auth     *service.AuthService
	Booking  *service.BookingService
	Settings *service.SettingsService
	Notices  *service.NoticeBoard
	Metrics  *statsd.Client

	logger *slog.Logger
}

// NewApp wires the gateway, repositories and services. It does not start
// anything; call Start.
func NewApp(deps AppDeps) (*App, error) {
	if deps.Config == nil {
		return nil, errors.New("new app: config is required")
	}
	cfg := deps.Config
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	metricsClient, err := statsd.FromConfig(cfg.Observability.Metrics, logger)
	if err != nil {
		// Metrics are optional; keep running with a disabled sink.
		logger.Warn("statsd unavailable; metrics disabled", "error", err)
	}

	gw, err := BuildGateway(GatewayDeps{
		Config:     cfg,
		Redis:      deps.Redis,
		HTTPClient: deps.HTTPClient,
		Logger:     logger,
	})
	if err != nil {
		closeMetrics(metricsClient, logger)
		return nil, err
	}

	app := &App{
		Gateway: gw,
		Notices: service.NewNoticeBoard(cfg.Booking.NoticeTTL),
		Metrics: metricsClient,
		logger:  logger,
	}

	var profiles service.ProfileSource
	if deps.DB != nil {
		profiles = service.NewProfileResolver(service.ProfileResolverOptions{
			Profiles: data.NewProfileRepo(deps.DB),
			Logger:   logger,
		})
	}

	app.Sync = service.NewSynchronizer(service.SynchronizerOptions{
		Gateway:         gw.Auth,
		Profiles:        profiles,
		ConfigErr:       gw.ConfigErr,
		RecoveryTimeout: cfg.Sync.RecoveryTimeout,
		Logger:          logger,
		Metrics:         app.metricsSink(),
	})
	app.Auth = service.NewAuthService(service.AuthServiceOptions{
		Gateway:   gw.Auth,
		ConfigErr: gw.ConfigErr,
		Logger:    logger,
	})

	if deps.DB != nil {
		app.Booking = service.NewBookingService(service.BookingServiceOptions{
			Bookings: data.NewBookingRepo(deps.DB),
			Schedule: data.NewScheduleRepo(deps.DB),
			Identity: app.Sync,
			Logger:   logger,
			Metrics:  app.metricsSink(),
		})
		app.Settings = service.NewSettingsService(service.SettingsServiceOptions{
			Profiles:  data.NewProfileRepo(deps.DB),
			Locations: data.NewLocationRepo(deps.DB),
			Refresher: app.Sync,
			Logger:    logger,
		})
	}

	return app, nil
}

// metricsSink hides a nil client behind a nil interface.
func (a *App) metricsSink() statsd.Sink {
	if a.Metrics == nil {
		return nil
	}
	return a.Metrics
}

// Start begins session synchronization. ctx bounds the synchronizer's
// lifetime, so it should outlive the command.
func (a *App) Start(ctx context.Context) error {
	if err := a.Sync.Start(ctx); err != nil {
		return fmt.Errorf("start session sync: %w", err)
	}
	return nil
}

// Watch relays session events from other processes and calls fn with every
// snapshot change until ctx is done or the synchronizer closes.
func (a *App) Watch(ctx context.Context, fn func(domainauth.Snapshot)) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := a.Gateway.Relay(gctx); err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("relay session events: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		updates, stop := a.Sync.Watch()
		defer stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case snap, ok := <-updates:
				if !ok {
					return nil
				}
				fn(snap)
			}
		}
	})

	return g.Wait()
}

// Close stops the synchronizer and releases the notice timer and metrics
// connection.
func (a *App) Close() error {
	var errs []error
	if a.Sync != nil {
		if err := a.Sync.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if a.Notices != nil {
		a.Notices.Close()
	}
	if a.Metrics != nil {
		if err := a.Metrics.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close metrics: %w", err))
		}
	}
	return errors.Join(errs...)
}

func closeMetrics(c *statsd.Client, logger *slog.Logger) {
	if c == nil {
		return
	}
	if err := c.Close(); err != nil {
		logger.Warn("close metrics failed", "error", err)
	}
}
