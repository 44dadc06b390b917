package app

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/upb/authgate/config"
	"github.com/upb/authgate/internal/auth"
	"github.com/upb/authgate/internal/observability"
	"github.com/upb/authgate/middleware"
	"github.com/upb/authgate/repositories"
	"github.com/upb/authgate/repositories/memory"
	"github.com/upb/authgate/repositories/postgres"
	"github.com/upb/authgate/repositories/redis"
	"github.com/upb/authgate/services/identity"
	"github.com/upb/authgate/services/revocation"
	"github.com/upb/authgate/services/session"
	"go.uber.org/zap"
)

// Dependencies holds all application dependencies.
// This is the central wiring point for dependency injection.
type Dependencies struct {
	// Infrastructure
	Config *config.Config
	DB     *postgres.DB
	Logger *zap.Logger

	// Repository Factory (nil unless a backend is postgres)
	RepoFactory *postgres.RepositoryFactory

	// Repositories
	Users       repositories.UserRepository
	Revocations repositories.RevocationRepository

	// Observability (nil when metrics are disabled)
	Metrics *observability.Metrics

	// Auth
	Codec          *auth.Codec
	Gate           *auth.Gate
	AuthMiddleware *middleware.AuthMiddleware
	Sessions       *session.Service

	closers []func() error
	purger  *revocation.Purger
	stop    context.CancelFunc
	wg      sync.WaitGroup
}

// NewDependencies creates and wires up all application dependencies.
func NewDependencies(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Dependencies, error) {
	deps := &Dependencies{
		Config: cfg,
		Logger: logger,
	}

	if cfg.Observability.MetricsEnabled {
		deps.Metrics = observability.NewMetrics(prometheus.NewRegistry())
	}

	if cfg.NeedsDatabase() {
		if err := deps.initDatabase(ctx, cfg); err != nil {
			return nil, fmt.Errorf("failed to initialize database: %w", err)
		}
	}

	if err := deps.initRepositories(ctx, cfg); err != nil {
		_ = deps.Close(ctx)
		return nil, fmt.Errorf("failed to initialize repositories: %w", err)
	}

	if err := deps.initAuth(cfg); err != nil {
		_ = deps.Close(ctx)
		return nil, fmt.Errorf("failed to initialize auth: %w", err)
	}

	deps.purger = revocation.NewPurger(deps.Revocations, cfg.Auth.PurgeInterval, logger)

	logger.Info("all dependencies initialized successfully",
		zap.String("revocation_backend", cfg.Auth.RevocationBackend),
		zap.String("identity_backend", cfg.Auth.IdentityBackend),
		zap.Bool("metrics", deps.Metrics != nil),
	)
	return deps, nil
}

// initDatabase initializes the PostgreSQL database connection and factory
func (d *Dependencies) initDatabase(ctx context.Context, cfg *config.Config) error {
	factory, err := postgres.NewRepositoryFactory(cfg, d.Logger)
	if err != nil {
		return fmt.Errorf("failed to create repository factory: %w", err)
	}

	d.RepoFactory = factory
	d.DB = factory.GetDB()
	d.closers = append(d.closers, factory.Close)

	if err := d.DB.InitSchema(ctx); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}
	return nil
}

// initRepositories selects the identity store and revocation registry
func (d *Dependencies) initRepositories(ctx context.Context, cfg *config.Config) error {
	switch cfg.Auth.IdentityBackend {
	case config.BackendPostgres:
		d.Users = d.RepoFactory.Users()
	case config.BackendMemory:
		store := memory.NewIdentityStore()
		if err := store.Seed(ctx, cfg.Auth.SeedUsers); err != nil {
			return fmt.Errorf("failed to seed identities: %w", err)
		}
		d.Users = store
		d.Logger.Warn("using in-memory identity store", zap.Int("seeded", len(cfg.Auth.SeedUsers)))
	default:
		return fmt.Errorf("unknown identity backend %q", cfg.Auth.IdentityBackend)
	}

	switch cfg.Auth.RevocationBackend {
	case config.BackendRedis:
		client, err := redis.NewClient(cfg.Redis)
		if err != nil {
			return err
		}
		store := redis.NewRevocationStore(client, cfg.Redis.KeyPrefix, d.Logger)
		d.closers = append(d.closers, store.Close)
		if err := store.Ping(ctx); err != nil {
			return fmt.Errorf("redis ping failed: %w", err)
		}
		d.Revocations = store
	case config.BackendPostgres:
		d.Revocations = d.RepoFactory.Revocations()
	case config.BackendMemory:
		d.Revocations = memory.NewRevocationStore(nil)
		d.Logger.Warn("using in-memory revocation registry; revocations are not shared between replicas")
	default:
		return fmt.Errorf("unknown revocation backend %q", cfg.Auth.RevocationBackend)
	}

	d.Logger.Info("repositories initialized")
	return nil
}

func (d *Dependencies) initAuth(cfg *config.Config) error {
	codec, err := auth.NewCodec(auth.CodecConfig{
		Secret: []byte(cfg.Auth.SigningSecret),
		Issuer: cfg.Auth.Issuer,
		Leeway: cfg.Auth.Leeway,
	})
	if err != nil {
		return err
	}
	d.Codec = codec

	resolver := identity.NewCoalescingResolver(d.Users, cfg.Auth.IdentityTimeout)
	d.Gate = auth.NewGate(codec, d.Revocations, resolver, auth.GateConfig{
		RevocationTimeout: cfg.Auth.RevocationTimeout,
		IdentityTimeout:   cfg.Auth.IdentityTimeout,
		Observer:          d.Metrics.ObserveStage,
	})

	d.AuthMiddleware = middleware.NewAuthMiddleware(d.Gate, d.Logger,
		middleware.WithDecisionRecorder(d.Metrics),
		middleware.WithDiagnostics(!cfg.IsProduction()),
	)
	d.Sessions = session.NewService(d.Users, d.Revocations, d.Logger,
		session.WithIdentityCache(resolver),
	)

	d.Logger.Info("auth gate initialized", zap.String("issuer", cfg.Auth.Issuer))
	return nil
}

// ReadinessPinger returns the revocation registry as a health probe, if it supports one
func (d *Dependencies) ReadinessPinger() repositories.Pinger {
	pinger, _ := d.Revocations.(repositories.Pinger)
	return pinger
}

// StartBackground launches the revocation purge loop. Close stops it.
func (d *Dependencies) StartBackground(ctx context.Context) {
	if d.purger == nil || d.stop != nil {
		return
	}
	ctx, d.stop = context.WithCancel(ctx)
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		d.purger.Run(ctx)
	}()
}

// Close gracefully shuts down all dependencies
func (d *Dependencies) Close(ctx context.Context) error {
	d.Logger.Info("shutting down dependencies")

	if d.stop != nil {
		d.stop()
		d.wg.Wait()
	}

	var errs []error
	for i := len(d.closers) - 1; i >= 0; i-- {
		if err := d.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	d.closers = nil

	// Sync logger
	if d.Logger != nil {
		_ = d.Logger.Sync()
	}

	if len(errs) > 0 {
		return fmt.Errorf("errors during shutdown: %w", errors.Join(errs...))
	}
	return nil
}
