package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	isLoggedIn() bool
	Register(ctx context.Context) error
	Login(ctx context.Context) error
	Logout(ctx context.Context) error
	WhoAmI(ctx context.Context) error
	List(ctx context.Context, args []string) error
	Add(ctx context.Context) error
	Show(ctx context.Context, args []string) error
	Update(ctx context.Context, args []string) error
	Status(ctx context.Context, args []string) error
	Delete(ctx context.Context, args []string) error
	Health(ctx context.Context) error
}

const (
	helpLoggedOut = "Available commands: register, login, health, help, exit"
	helpLoggedIn  = "Available commands: (l)ist [status=..] [priority=..] [search=..], add, show <id>, update <id>, status <id> <value>, delete <id>, whoami, logout, health, help, exit"
)

// runREPL starts a simple read–eval–print loop for the TaskFlow CLI.
//
// It reads a line, parses the first token as the command and the rest as
// arguments, and dispatches to methods on 'a'. Errors returned by handlers
// are printed and the loop continues. The loop exits on EOF or when the
// user types "exit" or "quit".
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader, w io.Writer) {
	for {
		if ctx.Err() != nil {
			return
		}

		fmt.Fprintf(w, "taskflow %s> ", statusFn())
		line, err := reader.ReadString('\n')
		if err != nil && (!errors.Is(err, io.EOF) || line == "") {
			fmt.Fprintln(w)
			return
		}

		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		var cmdErr error
		switch cmd {
		case "help":
			if a.isLoggedIn() {
				fmt.Fprintln(w, helpLoggedIn)
			} else {
				fmt.Fprintln(w, helpLoggedOut)
			}
		case "register":
			cmdErr = a.Register(ctx)
		case "login":
			cmdErr = a.Login(ctx)
		case "logout":
			cmdErr = a.Logout(ctx)
		case "whoami":
			cmdErr = a.WhoAmI(ctx)
		case "l", "list":
			cmdErr = a.List(ctx, args)
		case "add":
			cmdErr = a.Add(ctx)
		case "show":
			cmdErr = a.Show(ctx, args)
		case "update":
			cmdErr = a.Update(ctx, args)
		case "status":
			cmdErr = a.Status(ctx, args)
		case "delete":
			cmdErr = a.Delete(ctx, args)
		case "health":
			cmdErr = a.Health(ctx)
		case "exit", "quit":
			fmt.Fprintln(w, "Bye!")
			return
		default:
			fmt.Fprintln(w, "Unknown command:", cmd)
		}

		if cmdErr != nil {
			fmt.Fprintln(w, describeError(cmdErr))
		}

		if err != nil {
			return
		}
	}
}
