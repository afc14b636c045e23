// Package server wires the TaskFlow server together: it opens the database,
// applies migrations, builds services and runs the HTTP and gRPC endpoints
// until the process is signalled to stop.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/taskflow/internal/dbx"
	"github.com/dmitrijs2005/taskflow/internal/logging"
	"github.com/dmitrijs2005/taskflow/internal/server/config"
	"github.com/dmitrijs2005/taskflow/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/taskflow/internal/server/rest"
	"github.com/dmitrijs2005/taskflow/internal/server/services"

	gs "github.com/dmitrijs2005/taskflow/internal/server/grpc"
)

type App struct {
	config        *config.Config
	logger        logging.Logger
	db            *sql.DB
	userService   *services.UserService
	taskService   *services.TaskService
	healthService *services.HealthService
}

func NewApp(c *config.Config) (*App, error) {
	return newApp(context.Background(), c, os.Stdout)
}

func newApp(ctx context.Context, c *config.Config, out io.Writer) (*App, error) {

	logger := logging.New(out, c.LogLevel, c.LogFormat)

	db, dialect, err := dbx.Open(c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm, err := repomanager.NewRepositoryManager(dialect)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db init error: %w", err)
	}

	if err := rm.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migration error: %w", err)
	}

	if !c.IsProduction() && c.SecretKey == config.DefaultSecretKey {
		logger.Warn(ctx, "Using the default JWT secret key, set JWT_SECRET_KEY outside development")
	}

	return &App{
		config:        c,
		logger:        logger,
		db:            db,
		userService:   services.NewUserService(db, rm, c),
		taskService:   services.NewTaskService(db, rm),
		healthService: services.NewHealthService(db),
	}, nil
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

func (app *App) startRESTServer(ctx context.Context, cancelFunc context.CancelFunc) {

	s := rest.NewServer(app.config.EndpointAddrHTTP, app.logger, app.userService, app.taskService, app.healthService, rest.Options{
		CORSAllowOrigins: app.config.CORSAllowOrigins,
		HideForeignTasks: app.config.HideForeignTasks,
	})

	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) startGRPCServer(ctx context.Context, cancelFunc context.CancelFunc) {

	s := gs.NewGRPCServer(app.config.EndpointAddrGRPC, app.logger, app.healthService, gs.DefaultCheckInterval)

	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

// Run blocks until ctx is cancelled, a signal arrives, or one of the servers
// fails. The database is closed once both servers have stopped.
func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...", "environment", app.config.Environment)

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startRESTServer(ctx, cancelFunc)
	}()

	if app.config.EndpointAddrGRPC != "" {
		wg.Add(1)
		go func() {
			defer wg.Done()
			app.startGRPCServer(ctx, cancelFunc)
		}()
	}

	wg.Wait()

	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, "Error closing database", "error", err)
	}

	app.logger.Info(ctx, "App stopped")
}
