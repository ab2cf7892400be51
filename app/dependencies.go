package app

import (
	"context"
	"fmt"

	"github.com/sm4rtm4art/go-api-template/cloud"
	"github.com/sm4rtm4art/go-api-template/config"
	"github.com/sm4rtm4art/go-api-template/middleware"
	"github.com/sm4rtm4art/go-api-template/models"
	"github.com/sm4rtm4art/go-api-template/repositories"
	"github.com/sm4rtm4art/go-api-template/repositories/postgres"
	"github.com/sm4rtm4art/go-api-template/services"
	"go.uber.org/zap"
)

// Dependencies holds all application dependencies.
// This is the central wiring point for dependency injection.
type Dependencies struct {
	// Infrastructure
	Config *config.Config
	DB     *postgres.DB
	Logger *zap.Logger

	// Repository Factory
	RepoFactory *postgres.RepositoryFactory

	// Repositories
	Users     repositories.UserRepository
	Content   repositories.ContentRepository
	TxManager repositories.TransactionManager

	// Cloud provider abstraction
	Cloud cloud.Service

	// Auth
	Tokens         *services.TokenService
	AuthMiddleware *middleware.AuthMiddleware
}

// NewDependencies creates and wires up all application dependencies
func NewDependencies(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Dependencies, error) {
	deps := &Dependencies{
		Config: cfg,
		Logger: logger,
	}

	// Initialize PostgreSQL
	if err := deps.initDatabase(ctx, cfg); err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	// Initialize repositories
	deps.initRepositories()

	// Initialize the cloud provider service
	deps.initCloud(cfg)

	// Initialize auth
	deps.initAuth(cfg)

	logger.Info("all dependencies initialized successfully")
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

	// Test the connection
	if err := d.DB.PingContext(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}

	if err := d.DB.InitSchema(ctx); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}

	return nil
}

// initRepositories initializes all repository instances
func (d *Dependencies) initRepositories() {
	repos := d.RepoFactory.NewRepositories()

	d.Users = repos.Users
	d.Content = repos.Content
	d.TxManager = d.RepoFactory.GetTransactionManager()

	d.Logger.Info("repositories initialized")
}

// initCloud selects the cloud provider service. Unknown providers fall
// back to the local backend rather than failing startup.
func (d *Dependencies) initCloud(cfg *config.Config) {
	d.Cloud = cloud.NewService(&cfg.Cloud, d.Logger)
	d.Logger.Info("cloud provider selected",
		zap.String("provider", d.Cloud.Name()))
}

// initAuth wires the token service and authentication middleware
func (d *Dependencies) initAuth(cfg *config.Config) {
	d.Tokens = services.NewTokenService(cfg.JWT, d.Logger)
	d.AuthMiddleware = middleware.NewAuthMiddleware(d.Tokens, userLoaderFunc(d), d.Logger)
	d.Logger.Info("auth initialized")
}

// userLoaderFunc defers user lookups to the repository wired at init
// time, so AuthMiddleware construction does not depend on ordering.
func userLoaderFunc(d *Dependencies) middleware.UserLoader {
	return &depsUserLoader{deps: d}
}

type depsUserLoader struct {
	deps *Dependencies
}

func (l *depsUserLoader) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return l.deps.Users.GetByUsername(ctx, username)
}

// Close gracefully shuts down all dependencies
func (d *Dependencies) Close(ctx context.Context) error {
	d.Logger.Info("shutting down dependencies")

	var errs []error

	// Close cloud provider clients
	if d.Cloud != nil {
		if err := d.Cloud.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close cloud clients: %w", err))
		}
	}

	// Close database connection
	if d.RepoFactory != nil {
		if err := d.RepoFactory.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close database: %w", err))
		} else {
			d.Logger.Info("database connection closed")
		}
	}

	// Sync logger
	if d.Logger != nil {
		_ = d.Logger.Sync()
	}

	if len(errs) > 0 {
		return fmt.Errorf("errors during shutdown: %v", errs)
	}

	return nil
}
