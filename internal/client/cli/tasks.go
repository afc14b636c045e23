package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/taskflow/internal/client/models"
)

var (
	getOptionalText = GetOptionalText
	getMultiline    = GetMultiline
	confirm         = Confirm
)

var errUsage = errors.New("usage")

func usage(s string) error {
	return fmt.Errorf("%w: %s", errUsage, s)
}

// parseListArgs reads key=value filters. search takes the rest of the
// line, so "search=buy milk" searches for "buy milk".
func parseListArgs(args []string) (models.TaskFilter, error) {
	var f models.TaskFilter

	for i, arg := range args {
		key, value, ok := strings.Cut(arg, "=")
		if !ok {
			return f, usage("list [status=..] [priority=..] [search=..]")
		}

		switch key {
		case "status":
			f.Status = value
		case "priority":
			f.Priority = value
		case "search":
			f.Search = strings.Join(append([]string{value}, args[i+1:]...), " ")
			return f, nil
		default:
			return f, fmt.Errorf("unknown filter %q", key)
		}
	}

	return f, nil
}

func (a *App) List(ctx context.Context, args []string) error {
	filter, err := parseListArgs(args)
	if err != nil {
		return err
	}

	list, err := a.taskService.List(ctx, filter)
	if err != nil {
		return err
	}

	printTaskTable(a.out, list)
	return nil
}

func (a *App) Add(ctx context.Context) error {
	title, err := getSimpleText(a.reader, "Title", a.out)
	if err != nil {
		return err
	}
	if title == "" {
		return errors.New("title must not be empty")
	}

	in := models.TaskInput{Title: &title}

	description, err := getMultiline(a.reader, "Description (optional)", a.out)
	if err != nil {
		return err
	}
	if description != "" {
		in.Description = &description
	}

	if in.Priority, err = getOptionalText(a.reader, "Priority: low, medium, high (blank for medium)", a.out); err != nil {
		return err
	}
	if in.Status, err = getOptionalText(a.reader, "Status: pending, in_progress, completed (blank for pending)", a.out); err != nil {
		return err
	}
	if in.DueDate, err = getOptionalText(a.reader, "Due date: YYYY-MM-DD or RFC3339 (optional)", a.out); err != nil {
		return err
	}

	t, err := a.taskService.Create(ctx, in)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "Created task %s\n", t.ID)
	return nil
}

func (a *App) Show(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return usage("show <id>")
	}

	t, err := a.taskService.Get(ctx, args[0])
	if err != nil {
		return err
	}

	printTask(a.out, t)
	return nil
}

// Update prompts for every field; blank answers keep the current value.
func (a *App) Update(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return usage("update <id>")
	}
	id := args[0]

	current, err := a.taskService.Get(ctx, id)
	if err != nil {
		return err
	}
	printTask(a.out, current)
	fmt.Fprintln(a.out, "Leave a field blank to keep its value.")

	var in models.TaskInput
	if in.Title, err = getOptionalText(a.reader, "Title", a.out); err != nil {
		return err
	}
	if in.Description, err = getOptionalText(a.reader, "Description", a.out); err != nil {
		return err
	}
	if in.Priority, err = getOptionalText(a.reader, "Priority", a.out); err != nil {
		return err
	}
	if in.Status, err = getOptionalText(a.reader, "Status", a.out); err != nil {
		return err
	}
	if in.DueDate, err = getOptionalText(a.reader, "Due date", a.out); err != nil {
		return err
	}

	if in == (models.TaskInput{}) {
		fmt.Fprintln(a.out, "Nothing to update")
		return nil
	}

	t, err := a.taskService.Update(ctx, id, in)
	if err != nil {
		return err
	}

	fmt.Fprintln(a.out, "Updated")
	printTask(a.out, t)
	return nil
}

func (a *App) Status(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return usage("status <id> <pending|in_progress|completed>")
	}

	t, err := a.taskService.UpdateStatus(ctx, args[0], args[1])
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "Task %s is now %s\n", t.ID, t.Status)
	return nil
}

func (a *App) Delete(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return usage("delete <id>")
	}

	ok, err := confirm(a.reader, fmt.Sprintf("Delete task %s?", args[0]), a.out)
	if err != nil {
		return err
	}
	if !ok {
		fmt.Fprintln(a.out, "Cancelled")
		return nil
	}

	if err := a.taskService.Delete(ctx, args[0]); err != nil {
		return err
	}

	fmt.Fprintln(a.out, "Deleted")
	return nil
}
