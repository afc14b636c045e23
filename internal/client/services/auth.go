// Package services contains application services for the TaskFlow client.
// This file defines the authentication service: register, login, logout and
// the persisted session that survives CLI restarts.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/taskflow/internal/client/client"
	"github.com/dmitrijs2005/taskflow/internal/client/models"
	"github.com/dmitrijs2005/taskflow/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/taskflow/internal/dbx"
)

const (
	keyAccessToken = "access_token"
	keyEmail       = "email"
	keyExpiresAt   = "expires_at"
)

var (
	ErrNotLoggedIn    = errors.New("not logged in")
	ErrBadCredentials = errors.New("incorrect email or password")
)

// Session is the locally persisted login state.
type Session struct {
	Email     string
	Token     string
	ExpiresAt time.Time
}

// AuthService defines authentication operations for the CLI.
//
// Contract:
//   - Restore: load a saved, unexpired session and hand its token to the client.
//   - Login: authenticate against the server and persist the session.
//   - Logout / ClearSession: forget the session locally.
//   - Current: the active session or ErrNotLoggedIn.
type AuthService interface {
	Register(ctx context.Context, email, password string) (*models.User, error)
	Login(ctx context.Context, email, password string) (*Session, error)
	Logout(ctx context.Context) error
	ClearSession(ctx context.Context) error
	Restore(ctx context.Context) (*Session, error)
	Current() (*Session, error)
	Health(ctx context.Context) (*models.Health, error)
}

type authService struct {
	client client.Client
	db     *sql.DB
	now    func() time.Time

	session *Session
}

func NewAuthService(c client.Client, db *sql.DB) AuthService {
	return &authService{client: c, db: db, now: time.Now}
}

func (a *authService) repo(db dbx.DBTX) metadata.Repository {
	return metadata.NewSQLiteRepository(db)
}

func (a *authService) Register(ctx context.Context, email, password string) (*models.User, error) {
	u, err := a.client.Register(ctx, strings.TrimSpace(email), password)
	if err != nil {
		return nil, fmt.Errorf("register error: %w", err)
	}
	return u, nil
}

func (a *authService) Login(ctx context.Context, email, password string) (*Session, error) {
	tok, err := a.client.Login(ctx, strings.TrimSpace(email), password)
	if errors.Is(err, client.ErrUnauthorized) {
		return nil, ErrBadCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("login error: %w", err)
	}

	s := &Session{Email: strings.ToLower(strings.TrimSpace(email)), Token: tok.AccessToken, ExpiresAt: tok.ExpiresAt.UTC()}
	if err := a.saveSession(ctx, s); err != nil {
		return nil, fmt.Errorf("session saving error: %w", err)
	}

	a.client.SetToken(s.Token)
	a.session = s
	return s, nil
}

// saveSession writes all session keys in a single transaction.
func (a *authService) saveSession(ctx context.Context, s *Session) error {
	return dbx.WithTx(ctx, a.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		r := a.repo(tx)
		if err := r.Set(ctx, keyEmail, []byte(s.Email)); err != nil {
			return err
		}
		if err := r.Set(ctx, keyAccessToken, []byte(s.Token)); err != nil {
			return err
		}
		return r.Set(ctx, keyExpiresAt, []byte(s.ExpiresAt.Format(time.RFC3339Nano)))
	})
}

func (a *authService) Logout(ctx context.Context) error {
	if a.session == nil {
		return ErrNotLoggedIn
	}
	return a.ClearSession(ctx)
}

func (a *authService) ClearSession(ctx context.Context) error {
	a.client.SetToken("")
	a.session = nil

	return dbx.WithTx(ctx, a.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		r := a.repo(tx)
		for _, k := range []string{keyAccessToken, keyEmail, keyExpiresAt} {
			if err := r.Delete(ctx, k); err != nil {
				return err
			}
		}
		return nil
	})
}

// Restore returns ErrNotLoggedIn when no usable session is stored. An
// expired session is removed.
func (a *authService) Restore(ctx context.Context) (*Session, error) {
	r := a.repo(a.db)

	token, err := r.Get(ctx, keyAccessToken)
	if errors.Is(err, metadata.ErrKeyNotFound) || (err == nil && len(token) == 0) {
		return nil, ErrNotLoggedIn
	}
	if err != nil {
		return nil, err
	}

	email, err := r.Get(ctx, keyEmail)
	if err != nil && !errors.Is(err, metadata.ErrKeyNotFound) {
		return nil, err
	}

	s := &Session{Email: string(email), Token: string(token)}

	rawExp, err := r.Get(ctx, keyExpiresAt)
	if err == nil {
		if exp, perr := time.Parse(time.RFC3339Nano, string(rawExp)); perr == nil {
			s.ExpiresAt = exp
		}
	}

	if !s.ExpiresAt.IsZero() && !a.now().Before(s.ExpiresAt) {
		if err := a.ClearSession(ctx); err != nil {
			return nil, err
		}
		return nil, ErrNotLoggedIn
	}

	a.client.SetToken(s.Token)
	a.session = s
	return s, nil
}

func (a *authService) Current() (*Session, error) {
	if a.session == nil {
		return nil, ErrNotLoggedIn
	}
	return a.session, nil
}

func (a *authService) Health(ctx context.Context) (*models.Health, error) {
	return a.client.Health(ctx)
}
