package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/birlikkoshan/todo-api/internal/auth"
	dom "github.com/birlikkoshan/todo-api/internal/domain"
	"github.com/birlikkoshan/todo-api/internal/repo"
	"github.com/birlikkoshan/todo-api/internal/utils"
)

var ErrInvalidCredentials = errors.New("invalid email or password")
var ErrEmailTaken = errors.New("email already registered")

// TokenSigner issues access tokens for authenticated users.
type TokenSigner interface {
	Issue(u dom.User) (string, error)
}

// AuthResult is returned by Register and Login.
type AuthResult struct {
	User  dom.User
	Token string
}

// UserService handles user auth logic.
type UserService struct {
	repo       repo.UserRepo
	tokens     TokenSigner
	bcryptCost int
	log        *slog.Logger
}

// NewUserService returns a new UserService.
func NewUserService(repo repo.UserRepo, tokens TokenSigner, bcryptCost int, log *slog.Logger) *UserService {
	return &UserService{repo: repo, tokens: tokens, bcryptCost: bcryptCost, log: log}
}

// Register creates a new user with hashed password and issues a token.
func (s *UserService) Register(ctx context.Context, email, password string, name *string) (AuthResult, error) {
	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		return AuthResult{}, err
	}
	u, err := s.repo.Create(ctx, dom.User{
		Email:        normalizeEmail(email),
		PasswordHash: hash,
		Name:         name,
	})
	if err != nil {
		if utils.IsUniqueViolation(err) {
			return AuthResult{}, ErrEmailTaken
		}
		return AuthResult{}, err
	}
	s.log.InfoContext(ctx, "user registered", "user_id", u.ID)
	return s.issue(u)
}

// Login checks email and password and issues a token.
func (s *UserService) Login(ctx context.Context, email, password string) (AuthResult, error) {
	u, err := s.repo.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return AuthResult{}, ErrInvalidCredentials
		}
		return AuthResult{}, err
	}
	if !auth.CheckPassword(u.PasswordHash, password) {
		return AuthResult{}, ErrInvalidCredentials
	}
	s.log.InfoContext(ctx, "user logged in", "user_id", u.ID)
	return s.issue(u)
}

func (s *UserService) issue(u dom.User) (AuthResult, error) {
	token, err := s.tokens.Issue(u)
	if err != nil {
		return AuthResult{}, err
	}
	return AuthResult{User: u, Token: token}, nil
}

// normalizeEmail trims surrounding space; case is kept as stored.
func normalizeEmail(email string) string {
	return strings.TrimSpace(email)
}
