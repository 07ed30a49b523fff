package app

import (
	"context"
	"fmt"
	"net"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/yungbote/interview-coach/internal/data/db"
	apphttp "github.com/yungbote/interview-coach/internal/http"
	"github.com/yungbote/interview-coach/internal/observability"
	"github.com/yungbote/interview-coach/internal/pkg/logger"
)

const shutdownTimeout = 15 * time.Second

var initOTel = observability.InitOTel

func stopOtel(shutdown func(context.Context) error) {
	if shutdown == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = shutdown(ctx)
}

type App struct {
	Log      *logger.Logger
	DB       *db.Service
	Server   *apphttp.Server
	Cfg      Config
	Clients  Clients
	Repos    Repos
	Services Services

	shutdownOtel func(context.Context) error
}

func New(ctx context.Context) (*App, error) {
	cfg, err := LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	log, err := logger.New(cfg.Mode)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	return NewWithConfig(ctx, log, cfg)
}

// NewWithConfig wires the application from an already loaded configuration.
func NewWithConfig(ctx context.Context, log *logger.Logger, cfg Config) (*App, error) {
	if cfg.UsesDevSecret() {
		log.Warn("JWT_SECRET not set; using the development secret")
	}

	shutdownOtel := initOTel(ctx, log, observability.OtelConfig{
		Enabled:     cfg.Otel.Enabled,
		ServiceName: cfg.ServiceName,
		Environment: cfg.Mode,
		Version:     cfg.Version,
		Endpoint:    cfg.Otel.Endpoint,
		Headers:     observability.ParseHeaders(cfg.Otel.Headers),
		Insecure:    cfg.Otel.Insecure,
		SampleRatio: cfg.Otel.SampleRatio,
	})

	var (
		dbService *db.Service
		clients   Clients
	)
	// fail releases whatever was started before the error.
	fail := func(err error) (*App, error) {
		clients.Close()
		if dbService != nil {
			_ = dbService.Close()
		}
		stopOtel(shutdownOtel)
		log.Sync()
		return nil, err
	}

	dbService, err := db.Open(db.Options{
		Driver:       cfg.Database.Driver,
		DSN:          cfg.Database.DSN(),
		MaxOpenConns: cfg.Database.MaxOpenConns,
		SlowQuery:    cfg.Database.SlowQuery,
	}, log)
	if err != nil {
		return fail(fmt.Errorf("init database: %w", err))
	}
	if err := db.AutoMigrateAll(dbService.DB()); err != nil {
		return fail(fmt.Errorf("automigrate: %w", err))
	}

	clients, err = wireClients(log, cfg)
	if err != nil {
		return fail(err)
	}

	reposet := wireRepos(dbService.DB(), log)
	serviceset, err := wireServices(log, cfg, reposet, clients)
	if err != nil {
		return fail(err)
	}

	handlerset := wireHandlers(log, serviceset, dbService)
	middleware := wireMiddleware(log, serviceset)
	server := apphttp.NewServer(net.JoinHostPort("", cfg.Port), routerConfig(log, cfg, handlerset, middleware))

	return &App{
		Log:          log,
		DB:           dbService,
		Server:       server,
		Cfg:          cfg,
		Clients:      clients,
		Repos:        reposet,
		Services:     serviceset,
		shutdownOtel: shutdownOtel,
	}, nil
}

// Run serves HTTP until ctx is cancelled, then drains in-flight requests.
func (a *App) Run(ctx context.Context) error {
	if a == nil || a.Server == nil {
		return fmt.Errorf("app not initialized")
	}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.Log.Info("server listening", "addr", a.Server.Addr(), "ai_provider", a.Cfg.AI.Provider, "db_driver", a.Cfg.Database.Driver)
		return a.Server.Run()
	})
	g.Go(func() error {
		<-gctx.Done()
		a.Log.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return a.Server.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func (a *App) Close() {
	if a == nil {
		return
	}
	a.Clients.Close()
	if a.DB != nil {
		_ = a.DB.Close()
	}
	stopOtel(a.shutdownOtel)
	if a.Log != nil {
		a.Log.Sync()
	}
}
