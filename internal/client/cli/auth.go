package cli

import (
	"context"
	"fmt"
	"time"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
// They point to interactive input helpers and can be swapped in tests.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

// Register prompts for an email and password and creates the account.
// It does not log in.
func (a *App) Register(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}

	password, err := getPassword(a.reader, a.out)
	if err != nil {
		return err
	}

	u, err := a.authService.Register(ctx, email, password)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "Registered %s, you can login now\n", u.Email)
	return nil
}

// Login prompts for credentials and stores the resulting session.
func (a *App) Login(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}

	password, err := getPassword(a.reader, a.out)
	if err != nil {
		return err
	}

	s, err := a.authService.Login(ctx, email, password)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "Logged in as %s (session valid until %s)\n", s.Email, s.ExpiresAt.Local().Format(time.DateTime))
	return nil
}

func (a *App) Logout(ctx context.Context) error {
	if err := a.authService.Logout(ctx); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Logged out")
	return nil
}

func (a *App) WhoAmI(_ context.Context) error {
	s, err := a.authService.Current()
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "%s (session valid until %s)\n", s.Email, s.ExpiresAt.Local().Format(time.DateTime))
	return nil
}

func (a *App) Health(ctx context.Context) error {
	h, err := a.authService.Health(ctx)
	if h != nil {
		fmt.Fprintf(a.out, "Server %s, version %s\n", h.Status, h.Version)
	}
	return err
}
