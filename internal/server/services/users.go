package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/taskflow/internal/common"
	"github.com/dmitrijs2005/taskflow/internal/server/auth"
	"github.com/dmitrijs2005/taskflow/internal/server/config"
	"github.com/dmitrijs2005/taskflow/internal/server/models"
	"github.com/dmitrijs2005/taskflow/internal/server/repositories/repomanager"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

const (
	PasswordMinLength = 8
	// bcrypt ignores input past 72 bytes.
	PasswordMaxLength = 72
	EmailMaxLength    = 255
)

var validate = validator.New()

// Token is an issued access token.
type Token struct {
	AccessToken string
	TokenType   string
	ExpiresAt   time.Time
}

type UserService struct {
	db                          *sql.DB
	repomanager                 repomanager.RepositoryManager
	jwtSecret                   []byte
	accessTokenValidityDuration time.Duration
	bcryptCost                  int
	now                         func() time.Time

	dummyOnce sync.Once
	dummyHash string
}

func NewUserService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config) *UserService {
	return &UserService{
		db:                          db,
		repomanager:                 m,
		jwtSecret:                   []byte(cfg.SecretKey),
		accessTokenValidityDuration: cfg.AccessTokenValidityDuration,
		bcryptCost:                  cfg.BcryptCost,
		now:                         time.Now,
	}
}

// NormalizeEmail trims and lower-cases an address; emails are compared in
// this form everywhere.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validateEmail(email string) error {
	if err := validate.Var(email, fmt.Sprintf("required,email,max=%d", EmailMaxLength)); err != nil {
		return fmt.Errorf("%w: invalid email address", common.ErrValidation)
	}
	return nil
}

func validatePassword(password string) error {
	if len(password) < PasswordMinLength {
		return fmt.Errorf("%w: password must be at least %d characters", common.ErrValidation, PasswordMinLength)
	}
	if len(password) > PasswordMaxLength {
		return fmt.Errorf("%w: password must be at most %d bytes", common.ErrValidation, PasswordMaxLength)
	}
	return nil
}

// Register creates an account. The email must not be taken in any letter case.
func (s *UserService) Register(ctx context.Context, email, password string) (*models.User, error) {
	email = NormalizeEmail(email)
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	if err := validatePassword(password); err != nil {
		return nil, err
	}

	repo := s.repomanager.Users(s.db)

	_, err := repo.GetByEmail(ctx, email)
	switch {
	case err == nil:
		return nil, fmt.Errorf("%w: email already registered", common.ErrAlreadyExists)
	case !errors.Is(err, common.ErrNotFound):
		return nil, fmt.Errorf("error looking up user: %w", err)
	}

	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("error hashing password: %w", err)
	}

	now := s.now().UTC().Truncate(time.Microsecond)
	user := &models.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	user, err = repo.Create(ctx, user)
	if err != nil {
		if errors.Is(err, common.ErrAlreadyExists) {
			return nil, fmt.Errorf("%w: email already registered", common.ErrAlreadyExists)
		}
		return nil, fmt.Errorf("error creating user: %w", err)
	}

	return user, nil
}

// Login checks credentials and issues an access token. Unknown email and
// wrong password both return common.ErrUnauthorized.
func (s *UserService) Login(ctx context.Context, email, password string) (*Token, error) {
	email = NormalizeEmail(email)

	repo := s.repomanager.Users(s.db)
	user, err := repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			s.burnPasswordCheck(password)
			return nil, common.ErrUnauthorized
		}
		return nil, fmt.Errorf("error looking up user: %w", err)
	}

	ok, err := auth.CheckPassword(user.PasswordHash, password)
	if err != nil {
		return nil, fmt.Errorf("error checking password: %w", err)
	}
	if !ok {
		return nil, common.ErrUnauthorized
	}

	accessToken, expiresAt, err := auth.GenerateToken(user.ID, s.jwtSecret, s.now(), s.accessTokenValidityDuration)
	if err != nil {
		return nil, fmt.Errorf("error generating token: %w", err)
	}

	return &Token{AccessToken: accessToken, TokenType: common.TokenType, ExpiresAt: expiresAt.UTC()}, nil
}

// burnPasswordCheck spends about as long as a real password comparison so
// unknown emails answer in similar time.
func (s *UserService) burnPasswordCheck(password string) {
	s.dummyOnce.Do(func() {
		s.dummyHash, _ = auth.HashPassword("taskflow-placeholder", s.bcryptCost)
	})
	_, _ = auth.CheckPassword(s.dummyHash, password)
}

// Validate resolves a bearer token to its user.
func (s *UserService) Validate(ctx context.Context, token string) (*models.User, error) {
	userID, err := auth.GetUserIDFromToken(token, s.jwtSecret)
	if err != nil {
		return nil, err
	}

	user, err := s.repomanager.Users(s.db).GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrUserNotFound
		}
		return nil, fmt.Errorf("error looking up user: %w", err)
	}

	return user, nil
}
