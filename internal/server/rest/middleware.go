package rest

import (
	"errors"
	"strings"
	"time"

	"github.com/dmitrijs2005/taskflow/internal/common"
	"github.com/dmitrijs2005/taskflow/internal/logging"
	"github.com/dmitrijs2005/taskflow/internal/server/models"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/google/uuid"
)

const (
	RequestIDHeader = "X-Request-ID"

	localsRequestID = "request_id"
	localsUser      = "user"
)

// RequestIDMiddleware echoes the client's X-Request-ID or assigns a new one,
// and makes it visible to loggers through the user context.
func RequestIDMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		requestID := c.Get(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}

		c.Set(RequestIDHeader, requestID)
		c.SetUserContext(logging.ContextWithRequestID(c.UserContext(), requestID))
		c.Locals(localsRequestID, requestID)

		return c.Next()
	}
}

// LoggerMiddleware logs every request with its status and latency. Client
// errors log at warn, server errors at error.
func LoggerMiddleware(logger logging.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		logger.Debug(c.UserContext(), "Request started",
			"method", c.Method(),
			"path", c.Path(),
			"ip", c.IP(),
		)

		err := c.Next()
		if err != nil {
			// Render now so the logged status is the one the client gets.
			if herr := c.App().ErrorHandler(c, err); herr != nil {
				_ = c.SendStatus(fiber.StatusInternalServerError)
			}
			err = nil
		}

		status := c.Response().StatusCode()
		logFunc := logger.Info
		if status >= 500 {
			logFunc = logger.Error
		} else if status >= 400 {
			logFunc = logger.Warn
		}

		logFunc(c.UserContext(), "Request completed",
			"method", c.Method(),
			"path", c.Path(),
			"status", status,
			"latency", time.Since(start).String(),
			"bytes", len(c.Response().Body()),
		)

		return err
	}
}

func CorsMiddleware(allowOrigins string) fiber.Handler {
	if allowOrigins == "" {
		allowOrigins = "*"
	}
	return cors.New(cors.Config{
		AllowOrigins:  allowOrigins,
		AllowMethods:  "GET,POST,PUT,PATCH,DELETE,OPTIONS,HEAD",
		AllowHeaders:  "Origin,Content-Type,Accept,Authorization," + RequestIDHeader,
		ExposeHeaders: RequestIDHeader,
	})
}

// RequireAuth resolves the bearer token to a user and stores it in locals.
func RequireAuth(users UserService, logger logging.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx := c.UserContext()

		token, ok := bearerToken(c.Get(common.AuthorizationHeaderName))
		if !ok {
			return errorJSON(c, fiber.StatusUnauthorized, ErrCodeUnauthorized, "not authenticated", nil)
		}

		user, err := users.Validate(ctx, token)
		if err != nil {
			if errors.Is(err, common.ErrInvalidToken) || errors.Is(err, common.ErrTokenExpired) || errors.Is(err, common.ErrUserNotFound) {
				logger.Warn(ctx, "Token validation failed", "error", err)
			}
			return err
		}

		c.Locals(localsUser, user)
		return c.Next()
	}
}

func bearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, common.BearerScheme) {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// currentUser returns the user set by RequireAuth.
func currentUser(c *fiber.Ctx) *models.User {
	u, _ := c.Locals(localsUser).(*models.User)
	return u
}
