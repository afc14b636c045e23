// Package rest exposes the TaskFlow HTTP API on fiber: authentication,
// task CRUD with filters, and health probes.
package rest

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/dmitrijs2005/taskflow/internal/logging"
	"github.com/dmitrijs2005/taskflow/internal/server/models"
	"github.com/dmitrijs2005/taskflow/internal/server/services"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

const shutdownTimeout = 10 * time.Second

type UserService interface {
	Register(ctx context.Context, email, password string) (*models.User, error)
	Login(ctx context.Context, email, password string) (*services.Token, error)
	Validate(ctx context.Context, token string) (*models.User, error)
}

type TaskService interface {
	Create(ctx context.Context, ownerID string, fields services.TaskFields) (*models.Task, error)
	List(ctx context.Context, ownerID string, filter models.TaskFilter) ([]*models.Task, error)
	Get(ctx context.Context, taskID, ownerID string) (*models.Task, error)
	Update(ctx context.Context, taskID, ownerID string, patch services.TaskPatch) (*models.Task, error)
	UpdateStatus(ctx context.Context, taskID, ownerID string, status models.TaskStatus) (*models.Task, error)
	Delete(ctx context.Context, taskID, ownerID string) (bool, error)
}

type HealthService interface {
	Check(ctx context.Context) (services.Health, error)
}

// Options tune behaviour that is not part of the service layer.
type Options struct {
	CORSAllowOrigins string
	// HideForeignTasks answers 404 instead of 403 for tasks of other users.
	HideForeignTasks bool
}

type Server struct {
	address string
	app     *fiber.App
	logger  logging.Logger
}

func NewServer(address string, l logging.Logger, us UserService, ts TaskService, hs HealthService, opts Options) *Server {
	logger := l.With("module", "rest_server")

	app := fiber.New(fiber.Config{
		AppName:               "TaskFlow",
		DisableStartupMessage: true,
		ErrorHandler:          ErrorHandler(logger, opts.HideForeignTasks),
		ReadTimeout:           15 * time.Second,
		WriteTimeout:          15 * time.Second,
		IdleTimeout:           60 * time.Second,
	})

	app.Use(RequestIDMiddleware())
	app.Use(LoggerMiddleware(logger))
	app.Use(recover.New())
	app.Use(CorsMiddleware(opts.CORSAllowOrigins))

	h := &handlers{users: us, tasks: ts, health: hs, logger: logger}
	registerRoutes(app, h, RequireAuth(us, logger))

	return &Server{address: address, app: app, logger: logger}
}

func registerRoutes(app *fiber.App, h *handlers, protected fiber.Handler) {
	app.Get("/", h.root)
	app.Get("/health", h.healthCheck)

	authGroup := app.Group("/auth")
	authGroup.Post("/register", h.register)
	authGroup.Post("/login", h.login)

	tasks := app.Group("/tasks", protected)
	tasks.Get("/", h.listTasks)
	tasks.Post("/", h.createTask)
	tasks.Get("/:id", h.getTask)
	tasks.Put("/:id", h.updateTask)
	tasks.Patch("/:id/status", h.updateTaskStatus)
	tasks.Delete("/:id", h.deleteTask)
}

// Run serves until ctx is cancelled, then shuts down gracefully.
// Handler exposes the API as a net/http handler, for embedding the server
// in an httptest.Server or another mux.
func (s *Server) Handler() http.Handler {
	return adaptor.FiberApp(s.app)
}

func (s *Server) Run(ctx context.Context) error {

	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.app.Listener(listen)
	}()

	s.logger.Info(ctx, "Starting REST server", "address", listen.Addr().String())

	select {
	case <-ctx.Done():
		s.logger.Info(ctx, "Stopping REST server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return s.app.ShutdownWithContext(shutdownCtx)
	case err := <-errCh:
		return err
	}
}
