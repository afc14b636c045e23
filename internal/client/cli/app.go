package cli

import (
	"bufio"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/dmitrijs2005/taskflow/internal/client/client"
	"github.com/dmitrijs2005/taskflow/internal/client/config"
	"github.com/dmitrijs2005/taskflow/internal/client/services"
)

type App struct {
	config      *config.Config
	authService services.AuthService
	taskService services.TaskService
	db          *sql.DB
	reader      *bufio.Reader
	out         io.Writer
}

func NewApp(c *config.Config) (*App, error) {

	ctx := context.Background()

	db, err := client.InitDatabase(ctx, c.SessionDB)
	if err != nil {
		return nil, fmt.Errorf("error initializing session database: %w", err)
	}

	apiClient := client.NewHTTPClient(c.ServerURL, c.RequestTimeout)

	as := services.NewAuthService(apiClient, db)
	ts := services.NewTaskService(apiClient, as)

	return &App{
		config:      c,
		authService: as,
		taskService: ts,
		db:          db,
		reader:      bufio.NewReader(os.Stdin),
		out:         os.Stdout,
	}, nil
}

func (a *App) Run(ctx context.Context) {
	if a.db != nil {
		defer a.db.Close()
	}

	fmt.Fprintf(a.out, "Welcome to TaskFlow CLI, server %s (type 'help' for commands)\n", a.config.ServerURL)

	if s, err := a.authService.Restore(ctx); err == nil {
		fmt.Fprintf(a.out, "Resumed session of %s\n", s.Email)
	} else if !errors.Is(err, services.ErrNotLoggedIn) {
		fmt.Fprintf(a.out, "Could not restore session: %v\n", err)
	}

	runREPL(ctx, a, a.getStatus, a.reader, a.out)
}

func (a *App) isLoggedIn() bool {
	_, err := a.authService.Current()
	return err == nil
}

func (a *App) getStatus() string {
	s, err := a.authService.Current()
	if err != nil {
		return ""
	}
	return fmt.Sprintf("(%s)", s.Email)
}

// describeError turns service errors into user-facing lines.
func describeError(err error) string {
	var apiErr *client.APIError
	switch {
	case errors.Is(err, services.ErrNotLoggedIn):
		return "Please login first"
	case errors.Is(err, services.ErrBadCredentials):
		return "Incorrect email or password"
	case errors.Is(err, client.ErrUnauthorized) && errors.As(err, &apiErr):
		return "Session is no longer valid, please login again (" + apiErr.Message + ")"
	case errors.Is(err, client.ErrUnavailable):
		return "Server unavailable: " + err.Error()
	case errors.As(err, &apiErr):
		return "Error: " + apiErr.Error()
	default:
		return "Error: " + err.Error()
	}
}
