package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"soulbalance/internal/auth"
	"soulbalance/internal/data"

	"github.com/google/uuid"
)

var usernameInvalidChars = regexp.MustCompile(`[^A-Za-z0-9_]+`)

// accountInput is a new account as submitted by a visitor or an operator.
type accountInput struct {
	Username string `form:"username" validate:"required,min=3,max=50,wordchars"`
	Email    string `form:"email" validate:"required,email"`
	Password string `form:"password" validate:"min=8"`
}

var accountMessages = messages{
	"username": "Username must be 3-50 characters: letters, numbers and underscores only",
	"email":    "Please enter a valid email address",
	"password": "Password must be at least 8 characters",
}

type loginInput struct {
	Email    string `form:"email" validate:"required"`
	Password string `form:"password" validate:"required"`
}

var loginMessages = messages{
	"email":    "Email and password are required",
	"password": "Email and password are required",
}

var errInvalidCredentials = newError(ErrUnauthenticated, "Invalid email or password")

// UserService handles registration and login.
type UserService struct {
	users UserRepository
}

// NewUserService creates a new UserService.
func NewUserService(users UserRepository) *UserService {
	return &UserService{users: users}
}

// Register creates an account with the default role.
func (s *UserService) Register(ctx context.Context, username, email, password string) (*data.User, error) {
	return s.CreateUser(ctx, username, email, password, data.RoleUser)
}

// CreateUser validates and stores an account with the given role.
func (s *UserService) CreateUser(ctx context.Context, username, email, password, role string) (*data.User, error) {
	in := accountInput{
		Username: strings.TrimSpace(username),
		Email:    strings.TrimSpace(strings.ToLower(email)),
		Password: password,
	}
	if err := firstInvalid(in, accountMessages); err != nil {
		return nil, err
	}
	if !validRole(role) {
		return nil, newError(ErrInvalid, fmt.Sprintf("Unknown role %q", role))
	}
	username, email = in.Username, in.Email

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	user := &data.User{Username: username, Email: email, Password: hash, Role: role}
	if _, err := s.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, data.ErrDuplicate) {
			return nil, newError(ErrConflict, "Username or email already exists")
		}
		return nil, err
	}
	return user, nil
}

// SetRole changes the role of the account registered under email.
func (s *UserService) SetRole(ctx context.Context, email, role string) error {
	if !validRole(role) {
		return newError(ErrInvalid, fmt.Sprintf("Unknown role %q", role))
	}
	err := s.users.SetRole(ctx, strings.TrimSpace(strings.ToLower(email)), role)
	if errors.Is(err, data.ErrNotFound) {
		return newError(ErrNotFound, "User not found")
	}
	return err
}

// Login checks an e-mail and password pair.
func (s *UserService) Login(ctx context.Context, email, password string) (*data.User, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if err := firstInvalid(loginInput{Email: email, Password: password}, loginMessages); err != nil {
		return nil, err
	}
	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, data.ErrNotFound) {
			return nil, errInvalidCredentials
		}
		return nil, err
	}
	if !auth.CheckPassword(user.Password, password) {
		return nil, errInvalidCredentials
	}
	return user, nil
}

// FindOrCreateSSO returns the account for an identity from the single sign-on
// provider, creating one with an unusable password on first login.
func (s *UserService) FindOrCreateSSO(ctx context.Context, id *auth.Identity) (*data.User, error) {
	email := strings.TrimSpace(strings.ToLower(id.Email))
	user, err := s.users.GetUserByEmail(ctx, email)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, data.ErrNotFound) {
		return nil, err
	}

	base := usernameInvalidChars.ReplaceAllString(id.Username, "_")
	if base == "" {
		base = strings.SplitN(email, "@", 2)[0]
		base = usernameInvalidChars.ReplaceAllString(base, "_")
	}
	if len(base) < 3 {
		base += "_sso"
	}
	if len(base) > 40 {
		base = base[:40]
	}

	hash, err := auth.HashPassword(uuid.NewString())
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	username := base
	for attempt := 0; attempt < 5; attempt++ {
		user = &data.User{Username: username, Email: email, Password: hash, Role: data.RoleUser}
		_, err = s.users.CreateUser(ctx, user)
		if err == nil {
			return user, nil
		}
		if !errors.Is(err, data.ErrDuplicate) {
			return nil, err
		}
		username = fmt.Sprintf("%s_%s", base, uuid.NewString()[:6])
	}
	return nil, newError(ErrConflict, "Could not allocate a username for this account")
}
