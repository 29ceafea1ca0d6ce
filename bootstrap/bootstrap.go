// Package bootstrap wires all dependencies and starts the host.
// The extension catalog and recipe harvest are built eagerly here,
// during composition, so their cost never lands on the first inbound
// request.
package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/artpar/shellhost/adapters/clock"
	"github.com/artpar/shellhost/adapters/hasher"
	"github.com/artpar/shellhost/adapters/idgen"
	"github.com/artpar/shellhost/adapters/metrics"
	"github.com/artpar/shellhost/adapters/shell"
	"github.com/artpar/shellhost/adapters/sqlite"
	"github.com/artpar/shellhost/app"
	"github.com/artpar/shellhost/config"
	"github.com/artpar/shellhost/core/catalog"
	"github.com/artpar/shellhost/core/feature"
	"github.com/artpar/shellhost/core/recipe"
	"github.com/artpar/shellhost/domain/tenant"
	"github.com/artpar/shellhost/ports"
	"github.com/artpar/shellhost/web"
)

// Environment variable names for bootstrap configuration.
const (
	EnvLogLevel  = "SHELLHOST_LOG_LEVEL"
	EnvLogFormat = "SHELLHOST_LOG_FORMAT"
)

// App represents the running host.
type App struct {
	Logger     zerolog.Logger
	Holder     *config.Holder
	Catalog    *catalog.Manager
	Pools      *sqlite.Pools
	Shell      *shell.Host
	Setup      *app.SetupService
	Executor   *recipe.Executor
	Metrics    *metrics.Collector
	HTTPServer *http.Server

	shutdown       context.Context
	cancelShutdown context.CancelFunc
}

// New creates and initializes the host from a config file.
func New(configPath string) (*App, error) {
	logger := setupLoggerFromEnv()

	holder, err := config.NewHolder(configPath, logger)
	if err != nil {
		return nil, fmt.Errorf("init config: %w", err)
	}

	return NewWithConfig(holder, logger)
}

// NewWithConfig creates and initializes the host from a loaded config
// holder.
func NewWithConfig(holder *config.Holder, logger zerolog.Logger) (*App, error) {
	cfg := holder.Get()

	logger.Info().Msg("initializing shellhost")

	shutdown, cancel := context.WithCancel(context.Background())
	a := &App{
		Logger:         logger,
		Holder:         holder,
		shutdown:       shutdown,
		cancelShutdown: cancel,
	}

	if cfg.Metrics.Enabled {
		a.Metrics = metrics.New()
		logger.Info().Msg("prometheus metrics enabled")
	}

	// Eager one-time catalog build. Slightly longer startup in
	// exchange for zero first-request latency from this subsystem.
	start := time.Now()
	a.Catalog = catalog.NewManager(feature.NewResolver(), cfg.Extensions.Roots, logger)
	if a.Metrics != nil {
		report := a.Catalog.Report()
		a.Metrics.CatalogBuildDuration.Observe(time.Since(start).Seconds())
		a.Metrics.CatalogEntries.Set(float64(report.Entries))
		a.Metrics.CatalogSkipped.WithLabelValues("missing").Add(float64(report.SkippedMissing))
		a.Metrics.CatalogSkipped.WithLabelValues("malformed").Add(float64(report.Malformed))
	}

	a.Pools = sqlite.NewPools()
	a.Shell = shell.NewHost(a.Catalog, a.Pools, logger)

	a.Executor = recipe.NewExecutor(logger)
	registerBuiltinSteps(a.Executor, a.Catalog, a.Metrics, logger)

	a.Setup = app.NewSetupService(app.SetupDeps{
		Shell:     a.Shell,
		Validator: sqlite.NewValidator(logger),
		Executor:  a.Executor,
		Harvesters: []ports.RecipeHarvester{
			recipe.NewFileHarvester(cfg.Recipes.Roots, logger),
		},
		IDGen:  idgen.UUID{},
		Clock:  clock.Real{},
		Hasher: hasher.NewBcrypt(0),
		PoolClosers: map[string]ports.PoolCloser{
			"sqlite": a.Pools,
		},
		Logger: logger,
	})

	logger.Info().
		Int("setup_recipes", len(a.Setup.ListSetupRecipes(shutdown))).
		Msg("setup recipes harvested")

	a.seedTenants(cfg)
	holder.OnChange(func(newCfg *config.Config) {
		a.seedTenants(newCfg)
	})

	a.initHTTPServer(cfg)
	return a, nil
}

// seedTenants registers the tenants declared in configuration with
// the shell host. Tenants already known keep their runtime state.
func (a *App) seedTenants(cfg *config.Config) {
	ctx := context.Background()
	for _, tc := range cfg.Tenants {
		if _, ok := a.Shell.Settings(tc.Name); ok {
			continue
		}
		settings := &tenant.Config{
			Name:             tc.Name,
			State:            tenant.ParseState(tc.State),
			DatabaseProvider: tc.DatabaseProvider,
			ConnectionString: tc.ConnectionString,
			TablePrefix:      tc.TablePrefix,
			Schema:           tc.Schema,
			RecipeName:       tc.RecipeName,
		}
		if err := a.Shell.UpdateSettings(ctx, settings); err != nil {
			a.Logger.Warn().Err(err).Str("tenant", tc.Name).Msg("failed to register tenant")
			continue
		}
		a.Logger.Info().
			Str("tenant", tc.Name).
			Str("state", settings.State.String()).
			Msg("tenant registered")
	}
}

func (a *App) initHTTPServer(cfg *config.Config) {
	adminHandler := web.NewHandler(web.Deps{
		Catalog:  a.Catalog,
		Setup:    a.Setup,
		Shell:    a.Shell,
		Metrics:  a.Metrics,
		Logger:   a.Logger,
		Shutdown: a.shutdown,
	})

	r := chi.NewRouter()
	r.Mount("/api", adminHandler.Router())
	if a.Metrics != nil {
		path := cfg.Metrics.Path
		if path == "" {
			path = "/metrics"
		}
		r.Handle(path, promhttp.Handler())
	}

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	a.HTTPServer = &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	a.Logger.Info().Str("addr", addr).Msg("http server configured")
}

// Run starts the HTTP server and blocks until shutdown.
func (a *App) Run() error {
	errCh := make(chan error, 1)
	go func() {
		a.Logger.Info().
			Str("addr", a.HTTPServer.Addr).
			Msg("starting http server")
		if err := a.HTTPServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case sig := <-quit:
		a.Logger.Info().Str("signal", sig.String()).Msg("shutting down")
	}

	return a.Shutdown()
}

// Shutdown gracefully stops the host. In-flight recipe executions are
// cancelled, which rolls their tenants back.
func (a *App) Shutdown() error {
	a.cancelShutdown()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if a.HTTPServer != nil {
		if err := a.HTTPServer.Shutdown(ctx); err != nil {
			a.Logger.Error().Err(err).Msg("http server shutdown error")
		}
	}

	if a.Holder != nil {
		a.Holder.Stop()
	}

	if a.Pools != nil {
		if err := a.Pools.Close(); err != nil {
			a.Logger.Error().Err(err).Msg("tenant pools close error")
		}
	}

	a.Logger.Info().Msg("shutdown complete")
	return nil
}

func setupLoggerFromEnv() zerolog.Logger {
	levelStr := os.Getenv(EnvLogLevel)
	if levelStr == "" {
		levelStr = "info"
	}

	level, err := zerolog.ParseLevel(levelStr)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	format := os.Getenv(EnvLogFormat)
	if format == "console" {
		output := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
		return zerolog.New(output).With().Timestamp().Logger()
	}

	return zerolog.New(os.Stdout).With().Timestamp().Logger()
}
