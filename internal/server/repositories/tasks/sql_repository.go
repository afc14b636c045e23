// Package tasks persists tasks and answers owner-scoped listing queries
// with optional equality filters and a case-insensitive text search.
package tasks

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/taskflow/internal/common"
	"github.com/dmitrijs2005/taskflow/internal/dbx"
	"github.com/dmitrijs2005/taskflow/internal/server/models"
)

const taskColumns = `id, user_id, title, description, status, priority, due_date, created_at, updated_at`

// SQLRepository implements task storage over a dbx.DBTX (*sql.DB or *sql.Tx).
type SQLRepository struct {
	db      dbx.DBTX
	dialect dbx.Dialect
}

func NewSQLRepository(db dbx.DBTX, dialect dbx.Dialect) *SQLRepository {
	return &SQLRepository{db: db, dialect: dialect}
}

func (r *SQLRepository) Create(ctx context.Context, task *models.Task) (*models.Task, error) {
	query :=
		`INSERT INTO tasks (` + taskColumns + `)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 `

	_, err := r.db.ExecContext(ctx, query,
		task.ID, task.UserID, task.Title, task.Description, string(task.Status), string(task.Priority),
		task.DueDate, task.CreatedAt, task.UpdatedAt)
	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return nil, common.ErrAlreadyExists
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return task, nil
}

func (r *SQLRepository) Get(ctx context.Context, id string, forUpdate bool) (*models.Task, error) {
	query :=
		`SELECT ` + taskColumns + ` FROM tasks
		 WHERE id = $1`
	if forUpdate && r.dialect == dbx.DialectPostgres {
		query += ` FOR UPDATE`
	}

	task, err := scanTask(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return task, nil
}

// List returns the tasks of userID matching every non-zero filter field,
// newest first. An empty result is an empty slice.
func (r *SQLRepository) List(ctx context.Context, userID string, filter models.TaskFilter) ([]*models.Task, error) {
	args := []any{userID}
	conds := []string{"user_id = $1"}

	if filter.Status != "" {
		args = append(args, string(filter.Status))
		conds = append(conds, fmt.Sprintf("status = $%d", len(args)))
	}
	if filter.Priority != "" {
		args = append(args, string(filter.Priority))
		conds = append(conds, fmt.Sprintf("priority = $%d", len(args)))
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		args = append(args, "%"+escapeLike(strings.ToLower(search))+"%")
		n, lower := len(args), dbx.LowerFunc(r.dialect)
		conds = append(conds, fmt.Sprintf(
			`(%[1]s(title) LIKE $%[2]d ESCAPE '\' OR %[1]s(COALESCE(description, '')) LIKE $%[2]d ESCAPE '\')`, lower, n))
	}

	query := `SELECT ` + taskColumns + ` FROM tasks
		 WHERE ` + strings.Join(conds, " AND ") + `
		 ORDER BY created_at DESC, id`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := make([]*models.Task, 0)
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, task)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

// Update overwrites the mutable columns of task. Owner and creation time
// never change.
func (r *SQLRepository) Update(ctx context.Context, task *models.Task) (*models.Task, error) {
	query :=
		`UPDATE tasks
		 SET title = $2, description = $3, status = $4, priority = $5, due_date = $6, updated_at = $7
		 WHERE id = $1
		 `

	res, err := r.db.ExecContext(ctx, query,
		task.ID, task.Title, task.Description, string(task.Status), string(task.Priority),
		task.DueDate, task.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	if err := expectOneRow(res); err != nil {
		return nil, err
	}
	return task, nil
}

func (r *SQLRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return expectOneRow(res)
}

func expectOneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	switch n {
	case 1:
		return nil
	case 0:
		return common.ErrNotFound
	default:
		return fmt.Errorf("unexpected rows affected: %d", n)
	}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTask(s scanner) (*models.Task, error) {
	var (
		t           models.Task
		status      string
		priority    string
		description sql.NullString
		dueDate     sql.NullTime
	)
	if err := s.Scan(&t.ID, &t.UserID, &t.Title, &description, &status, &priority,
		&dueDate, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return nil, err
	}

	t.Status = models.TaskStatus(status)
	t.Priority = models.TaskPriority(priority)
	if description.Valid {
		t.Description = &description.String
	}
	if dueDate.Valid {
		d := dueDate.Time.UTC()
		t.DueDate = &d
	}
	t.CreatedAt = t.CreatedAt.UTC()
	t.UpdatedAt = t.UpdatedAt.UTC()
	return &t, nil
}

// escapeLike makes s match literally inside a LIKE pattern using '\' as
// the escape character.
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
