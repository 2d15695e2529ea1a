package di

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/wire"
	"gorm.io/gorm"

	"github.com/productapp/catalog-backend/internal/app"
	"github.com/productapp/catalog-backend/internal/config"
	"github.com/productapp/catalog-backend/internal/database"
	"github.com/productapp/catalog-backend/internal/health"
	"github.com/productapp/catalog-backend/internal/http/handler"
	"github.com/productapp/catalog-backend/internal/http/router"
	"github.com/productapp/catalog-backend/internal/observability"
	"github.com/productapp/catalog-backend/internal/repository"
	"github.com/productapp/catalog-backend/internal/service"
)

var ConfigSet = wire.NewSet(config.Load)

var ObservabilitySet = wire.NewSet(
	provideObservabilityRuntime,
	provideAppLogger,
)

var RuntimeInfraSet = wire.NewSet(
	provideRuntimeDB,
	provideAssetStore,
	provideReadinessProbeRunner,
)

var RepositorySet = wire.NewSet(
	repository.NewProductRepository,
	repository.NewUserRepository,
)

var ServiceSet = wire.NewSet(
	service.NewCatalogService,
	service.NewAuthService,
	wire.Bind(new(service.CatalogServiceInterface), new(*service.CatalogServiceImpl)),
	wire.Bind(new(service.AuthServiceInterface), new(*service.AuthServiceImpl)),
)

var HTTPSet = wire.NewSet(
	handler.NewProductHandler,
	handler.NewAuthHandler,
	handler.NewAssetHandler,
	provideRouterDependencies,
	router.NewRouter,
	provideHTTPServer,
)

var AppSet = wire.NewSet(provideApp)

// MigrationRunner backs the seed tool: it opens the database, applies the
// schema and inserts the starter data without starting the HTTP server.
type MigrationRunner struct {
	db *gorm.DB
}

func NewMigrationRunner(db *gorm.DB) *MigrationRunner {
	return &MigrationRunner{db: db}
}

func (m *MigrationRunner) Run() error {
	if err := database.Migrate(m.db); err != nil {
		return err
	}
	if err := database.Seed(m.db); err != nil {
		return err
	}
	fmt.Println("migration complete")
	return nil
}

func provideObservabilityRuntime(cfg *config.Config) (*observability.Runtime, error) {
	bootstrapLogger := observability.NewBootstrapLogger(cfg)
	return observability.InitRuntime(context.Background(), cfg, bootstrapLogger)
}

func provideAppLogger(cfg *config.Config, runtime *observability.Runtime) *slog.Logger {
	return observability.InitLogger(cfg, runtime.LoggerProvider)
}

func provideOpenDB(cfg *config.Config) (*gorm.DB, error) {
	return database.Open(cfg)
}

func provideRuntimeDB(cfg *config.Config) (*gorm.DB, error) {
	db, err := database.Open(cfg)
	if err != nil {
		return nil, err
	}
	if err := database.Migrate(db); err != nil {
		return nil, err
	}
	if err := database.Seed(db); err != nil {
		return nil, err
	}
	return db, nil
}

func provideAssetStore(cfg *config.Config) (service.AssetStore, error) {
	switch cfg.StorageBackend {
	case config.StorageBackendMinio:
		return service.NewMinioAssetStore(
			cfg.MinioEndpoint,
			cfg.MinioAccessKey,
			cfg.MinioSecretKey,
			cfg.MinioBucket,
			cfg.MinioUseSSL,
			cfg.MaxUploadBytes,
		)
	default:
		return service.NewLocalAssetStore(cfg.UploadDir, cfg.MaxUploadBytes)
	}
}

func provideRouterDependencies(
	authHandler *handler.AuthHandler,
	productHandler *handler.ProductHandler,
	assetHandler *handler.AssetHandler,
	readiness *health.ProbeRunner,
	cfg *config.Config,
) router.Dependencies {
	return router.Dependencies{
		AuthHandler:      authHandler,
		ProductHandler:   productHandler,
		AssetHandler:     assetHandler,
		CORSOrigins:      cfg.CORSAllowedOrigins,
		AuthRateLimitRPM: cfg.AuthRateLimitPerMin,
		APIRateLimitRPM:  cfg.APIRateLimitPerMin,
		StaticImageDir:   cfg.StaticImageDir,
		Readiness:        readiness,
		EnableOTelHTTP:   cfg.OTELMetricsEnabled || cfg.OTELTracingEnabled,
	}
}

func provideHTTPServer(cfg *config.Config, h http.Handler) *http.Server {
	return &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           h,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
	}
}

func provideReadinessProbeRunner(cfg *config.Config, db *gorm.DB, store service.AssetStore) *health.ProbeRunner {
	checkers := make([]health.Checker, 0, 2)
	if c := health.NewDBChecker(db); c != nil {
		checkers = append(checkers, c)
	}
	if c := health.NewAssetStoreChecker(store); c != nil {
		checkers = append(checkers, c)
	}
	return health.NewProbeRunner(cfg.ReadinessProbeTimeout, cfg.ServerStartGracePeriod, checkers...)
}

func provideApp(
	cfg *config.Config,
	logger *slog.Logger,
	server *http.Server,
	runtime *observability.Runtime,
	db *gorm.DB,
	readiness *health.ProbeRunner,
) *app.App {
	return app.New(cfg, logger, server, runtime, db, readiness)
}
