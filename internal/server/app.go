// Package server assembles the clouddrive process: database, migrations,
// blob storage, mail, services and the HTTP and gRPC health endpoints.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/clouddrive/internal/logging"
	"github.com/dmitrijs2005/clouddrive/internal/server/auth"
	"github.com/dmitrijs2005/clouddrive/internal/server/blob"
	"github.com/dmitrijs2005/clouddrive/internal/server/config"
	"github.com/dmitrijs2005/clouddrive/internal/server/httpapi"
	"github.com/dmitrijs2005/clouddrive/internal/server/mailer"
	"github.com/dmitrijs2005/clouddrive/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/clouddrive/internal/server/services"

	gs "github.com/dmitrijs2005/clouddrive/internal/server/grpc"
)

// openDB is a seam for tests.
var openDB = func(dsn string) (*sql.DB, error) {
	return sql.Open("pgx", dsn)
}

type App struct {
	config  *config.Config
	logger  logging.Logger
	db      *sql.DB
	users   *services.UserService
	tree    *services.TreeService
	handler http.Handler
}

// NewApp opens the database, applies pending migrations and builds every
// service. The caller owns the returned App and must Close it.
func NewApp(ctx context.Context, c *config.Config, logger logging.Logger) (*App, error) {
	if c.SecretKey == config.DefaultSecretKey {
		logger.Warn(ctx, "default secret key in use, tokens can be forged; set CLOUDDRIVE_SECRET_KEY")
	}

	db, err := openDB(c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrations: %w", err)
	}

	blobs, err := blob.NewFromConfig(ctx, c)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("blob store init error: %w", err)
	}

	mail, err := mailer.NewFromConfig(c, logger)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("mailer init error: %w", err)
	}

	tokens := auth.NewTokenService([]byte(c.SecretKey))
	us := services.NewUserService(db, rm, tokens, mail, blobs, c, logger)
	ts := services.NewTreeService(db, rm, blobs, logger)

	sessions := httpapi.NewSessionManager(tokens, us, httpapi.SessionOptions{
		CookieName:  c.CookieName,
		Secure:      c.CookieSecure,
		TTL:         c.SessionTokenValidityDuration,
		RememberTTL: c.RememberTokenValidityDuration,
	}, logger.With("module", "session"))
	h := httpapi.NewHandler(us, ts, sessions, logger.With("module", "httpapi"))

	return &App{
		config:  c,
		logger:  logger,
		db:      db,
		users:   us,
		tree:    ts,
		handler: httpapi.NewRouter(h, sessions, logger, c.CORSOrigins),
	}, nil
}

func (app *App) Users() *services.UserService {
	return app.users
}

func (app *App) Close() error {
	return app.db.Close()
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	s := httpapi.NewServer(app.config.HTTPAddr, app.handler, app.logger)
	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) startGRPCServer(ctx context.Context, cancelFunc context.CancelFunc) {
	s := gs.NewGRPCServer(app.config.GRPCAddr, app.logger, app.db)
	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

// Run serves until a signal arrives, ctx is cancelled or a server fails,
// then closes the database.
func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	if app.config.GRPCAddr != "" {
		wg.Add(1)
		go func() {
			defer wg.Done()
			app.startGRPCServer(ctx, cancelFunc)
		}()
	}

	wg.Wait()

	if err := app.Close(); err != nil {
		app.logger.Error(ctx, "db close error", "error", err)
	}
	app.logger.Info(ctx, "App stopped")
}
