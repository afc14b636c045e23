package rest

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/dmitrijs2005/taskflow/internal/server/models"
	"github.com/go-playground/validator/v10"
)

type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// normalizer is implemented by requests that clean up input before validation.
type normalizer interface {
	normalize()
}

func (r *RegisterRequest) normalize() { r.Email = strings.TrimSpace(r.Email) }

func (r *LoginRequest) normalize() { r.Email = strings.TrimSpace(r.Email) }

type CreateTaskRequest struct {
	Title       string    `json:"title" validate:"required"`
	Description *string   `json:"description" validate:"omitempty,max=1000"`
	Status      string    `json:"status" validate:"omitempty,oneof=pending in_progress completed"`
	Priority    string    `json:"priority" validate:"omitempty,oneof=low medium high"`
	DueDate     *DateTime `json:"due_date"`
}

// UpdateTaskRequest is a partial update: absent fields stay unchanged.
type UpdateTaskRequest struct {
	Title       *string   `json:"title"`
	Description *string   `json:"description" validate:"omitempty,max=1000"`
	Status      *string   `json:"status" validate:"omitempty,oneof=pending in_progress completed"`
	Priority    *string   `json:"priority" validate:"omitempty,oneof=low medium high"`
	DueDate     *DateTime `json:"due_date"`
}

type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=pending in_progress completed"`
}

type UserResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

type TokenResponse struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
}

type TaskResponse struct {
	ID          string     `json:"id"`
	UserID      string     `json:"user_id"`
	Title       string     `json:"title"`
	Description *string    `json:"description"`
	Status      string     `json:"status"`
	Priority    string     `json:"priority"`
	DueDate     *time.Time `json:"due_date"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

type DeleteResponse struct {
	Success bool `json:"success"`
}

type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

type RootResponse struct {
	Message string `json:"message"`
	Version string `json:"version"`
	Status  string `json:"status"`
}

func TaskToResponse(t *models.Task) TaskResponse {
	return TaskResponse{
		ID:          t.ID,
		UserID:      t.UserID,
		Title:       t.Title,
		Description: t.Description,
		Status:      string(t.Status),
		Priority:    string(t.Priority),
		DueDate:     t.DueDate,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}

// DateTime accepts RFC 3339 timestamps as well as zone-less
// "2006-01-02T15:04:05" and plain dates; zone-less values are taken as UTC.
type DateTime struct {
	time.Time
}

var dateTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func (d *DateTime) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "null" || s == "" {
		return nil
	}
	for _, layout := range dateTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			d.Time = t.UTC()
			return nil
		}
	}
	return fmt.Errorf("invalid datetime %q", s)
}

func (d *DateTime) ptr() *time.Time {
	if d == nil || d.IsZero() {
		return nil
	}
	t := d.Time
	return &t
}

var validate = newValidator()

// newValidator reports fields under their JSON names.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// validateStruct runs the validate tags of req and reports the failing
// fields by their JSON names.
func validateStruct(req any) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	fields := make([]FieldError, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, FieldError{Field: fe.Field(), Message: fieldMessage(fe)})
	}
	return &requestValidationError{fields: fields}
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return "must be at least " + fe.Param() + " characters"
	case "max":
		return "must be at most " + fe.Param() + " characters"
	case "oneof":
		return "must be one of: " + strings.ReplaceAll(fe.Param(), " ", ", ")
	}
	return "is invalid"
}
