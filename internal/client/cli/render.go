package cli

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/dmitrijs2005/taskflow/internal/client/models"
)

const titleColumnWidth = 40

func formatDue(t *time.Time) string {
	if t == nil {
		return "-"
	}
	if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 {
		return t.Format(time.DateOnly)
	}
	return t.Local().Format(time.DateTime)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

func printTaskTable(w io.Writer, list []*models.Task) {
	if len(list) == 0 {
		fmt.Fprintln(w, "No tasks")
		return
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSTATUS\tPRIORITY\tDUE\tTITLE")
	for _, t := range list {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", t.ID, t.Status, t.Priority, formatDue(t.DueDate), truncate(t.Title, titleColumnWidth))
	}
	_ = tw.Flush()
}

func printTask(w io.Writer, t *models.Task) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "ID:\t%s\n", t.ID)
	fmt.Fprintf(tw, "Title:\t%s\n", t.Title)
	if t.Description != nil {
		fmt.Fprintf(tw, "Description:\t%s\n", *t.Description)
	}
	fmt.Fprintf(tw, "Status:\t%s\n", t.Status)
	fmt.Fprintf(tw, "Priority:\t%s\n", t.Priority)
	fmt.Fprintf(tw, "Due:\t%s\n", formatDue(t.DueDate))
	fmt.Fprintf(tw, "Created:\t%s\n", t.CreatedAt.Local().Format(time.DateTime))
	fmt.Fprintf(tw, "Updated:\t%s\n", t.UpdatedAt.Local().Format(time.DateTime))
	_ = tw.Flush()
}
