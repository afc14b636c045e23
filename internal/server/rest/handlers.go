package rest

import (
	"github.com/dmitrijs2005/taskflow/internal/common"
	"github.com/dmitrijs2005/taskflow/internal/logging"
	"github.com/dmitrijs2005/taskflow/internal/server/models"
	"github.com/dmitrijs2005/taskflow/internal/server/services"
	"github.com/gofiber/fiber/v2"
)

type handlers struct {
	users  UserService
	tasks  TaskService
	health HealthService
	logger logging.Logger
}

// parseRequest decodes the JSON body into req and validates it.
func (h *handlers) parseRequest(c *fiber.Ctx, req any) error {
	if err := c.BodyParser(req); err != nil {
		h.logger.Warn(c.UserContext(), "Invalid request body", "error", err)
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if n, ok := req.(normalizer); ok {
		n.normalize()
	}
	return validateStruct(req)
}

func (h *handlers) root(c *fiber.Ctx) error {
	return c.JSON(RootResponse{Message: "TaskFlow API", Version: common.Version, Status: "running"})
}

func (h *handlers) healthCheck(c *fiber.Ctx) error {
	health, err := h.health.Check(c.UserContext())
	status := fiber.StatusOK
	if err != nil {
		h.logger.Warn(c.UserContext(), "Health check failed", "error", err)
		status = fiber.StatusServiceUnavailable
	}
	return c.Status(status).JSON(HealthResponse{Status: health.Status, Version: health.Version})
}

func (h *handlers) register(c *fiber.Ctx) error {
	ctx := c.UserContext()

	var req RegisterRequest
	if err := h.parseRequest(c, &req); err != nil {
		return err
	}

	user, err := h.users.Register(ctx, req.Email, req.Password)
	if err != nil {
		return err
	}

	h.logger.Info(ctx, "User registered", "user_id", user.ID)
	return c.Status(fiber.StatusCreated).JSON(UserResponse{ID: user.ID, Email: user.Email, CreatedAt: user.CreatedAt})
}

func (h *handlers) login(c *fiber.Ctx) error {
	ctx := c.UserContext()

	var req LoginRequest
	if err := h.parseRequest(c, &req); err != nil {
		return err
	}

	token, err := h.users.Login(ctx, req.Email, req.Password)
	if err != nil {
		return err
	}

	return c.JSON(TokenResponse{AccessToken: token.AccessToken, TokenType: token.TokenType, ExpiresAt: token.ExpiresAt})
}

func (h *handlers) listTasks(c *fiber.Ctx) error {
	user := currentUser(c)

	filter := models.TaskFilter{
		Status:   models.TaskStatus(c.Query("status")),
		Priority: models.TaskPriority(c.Query("priority")),
		Search:   c.Query("search"),
	}

	list, err := h.tasks.List(c.UserContext(), user.ID, filter)
	if err != nil {
		return err
	}

	resp := make([]TaskResponse, 0, len(list))
	for _, t := range list {
		resp = append(resp, TaskToResponse(t))
	}
	return c.JSON(resp)
}

func (h *handlers) createTask(c *fiber.Ctx) error {
	ctx := c.UserContext()
	user := currentUser(c)

	var req CreateTaskRequest
	if err := h.parseRequest(c, &req); err != nil {
		return err
	}

	task, err := h.tasks.Create(ctx, user.ID, services.TaskFields{
		Title:       req.Title,
		Description: req.Description,
		Status:      models.TaskStatus(req.Status),
		Priority:    models.TaskPriority(req.Priority),
		DueDate:     req.DueDate.ptr(),
	})
	if err != nil {
		return err
	}

	h.logger.Info(ctx, "Task created", "task_id", task.ID, "user_id", user.ID)
	return c.Status(fiber.StatusCreated).JSON(TaskToResponse(task))
}

func (h *handlers) getTask(c *fiber.Ctx) error {
	task, err := h.tasks.Get(c.UserContext(), c.Params("id"), currentUser(c).ID)
	if err != nil {
		return err
	}
	return c.JSON(TaskToResponse(task))
}

func (h *handlers) updateTask(c *fiber.Ctx) error {
	ctx := c.UserContext()
	user := currentUser(c)

	var req UpdateTaskRequest
	if err := h.parseRequest(c, &req); err != nil {
		return err
	}

	patch := services.TaskPatch{
		Title:       req.Title,
		Description: req.Description,
		DueDate:     req.DueDate.ptr(),
	}
	if req.Status != nil {
		s := models.TaskStatus(*req.Status)
		patch.Status = &s
	}
	if req.Priority != nil {
		p := models.TaskPriority(*req.Priority)
		patch.Priority = &p
	}

	task, err := h.tasks.Update(ctx, c.Params("id"), user.ID, patch)
	if err != nil {
		return err
	}

	h.logger.Info(ctx, "Task updated", "task_id", task.ID, "user_id", user.ID)
	return c.JSON(TaskToResponse(task))
}

func (h *handlers) updateTaskStatus(c *fiber.Ctx) error {
	ctx := c.UserContext()
	user := currentUser(c)

	var req UpdateStatusRequest
	if err := h.parseRequest(c, &req); err != nil {
		return err
	}

	task, err := h.tasks.UpdateStatus(ctx, c.Params("id"), user.ID, models.TaskStatus(req.Status))
	if err != nil {
		return err
	}

	h.logger.Info(ctx, "Task status changed", "task_id", task.ID, "status", task.Status)
	return c.JSON(TaskToResponse(task))
}

func (h *handlers) deleteTask(c *fiber.Ctx) error {
	ctx := c.UserContext()
	user := currentUser(c)

	ok, err := h.tasks.Delete(ctx, c.Params("id"), user.ID)
	if err != nil {
		return err
	}

	h.logger.Info(ctx, "Task deleted", "task_id", c.Params("id"), "user_id", user.ID)
	return c.JSON(DeleteResponse{Success: ok})
}
