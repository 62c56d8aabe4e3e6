package auth

import (
	"context"
	"errors"
	"log/slog"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/Anveeka07/TaskManager/internal/domain"
	"github.com/Anveeka07/TaskManager/internal/repository"
	"github.com/Anveeka07/TaskManager/internal/service/credential"
)

// Password bounds. bcrypt only reads the first 72 bytes of its input.
const (
	MinPasswordLength = 6
	MaxPasswordBytes  = 72
)

// Client-facing messages.
const (
	msgRegisterRequired = "Name, email and password are required"
	msgInvalidEmail     = "Please enter a valid email"
	msgPasswordTooShort = "Password must be at least 6 characters"
	msgPasswordTooLong  = "Password must be at most 72 bytes"
	msgUserExists       = "User already exists"
	msgLoginRequired    = "Email and password are required"
	msgInvalidCreds     = "Invalid credentials"
	msgUserNotFound     = "User not found"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Service handles authentication workflows.
type Service struct {
	users    repository.UserRepository
	creds    credential.Service
	validate *validator.Validate
	logger   *slog.Logger
	now      func() time.Time

	// decoyHash is compared against on unknown emails so both login failures cost one bcrypt run.
	decoyHash func() []byte
}

// New constructs a Service.
func New(users repository.UserRepository, creds credential.Service, logger *slog.Logger) Service {
	if logger == nil {
		logger = slog.Default()
	}
	return Service{
		users:    users,
		creds:    creds,
		validate: validator.New(),
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
		decoyHash: sync.OnceValue(func() []byte {
			hash, err := creds.Hash("decoy-password-never-issued")
			if err != nil {
				logger.Error("decoy hash unavailable", "error", err)
			}
			return hash
		}),
	}
}

// RegisterInput is the registration payload.
type RegisterInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginInput is the login payload.
type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Session is returned after a successful registration or login.
type Session struct {
	Token string             `json:"token"`
	User  domain.UserSummary `json:"user"`
}

// Register creates an account and signs the new user in.
func (s Service) Register(ctx context.Context, in RegisterInput) (Session, error) {
	name := strings.TrimSpace(in.Name)
	email := NormalizeEmail(in.Email)
	if name == "" || email == "" || in.Password == "" {
		return Session{}, domain.Validation(msgRegisterRequired)
	}
	if !s.ValidEmail(email) {
		return Session{}, domain.Validation(msgInvalidEmail)
	}
	if len(in.Password) < MinPasswordLength {
		return Session{}, domain.Validation(msgPasswordTooShort)
	}
	if len(in.Password) > MaxPasswordBytes {
		return Session{}, domain.Validation(msgPasswordTooLong)
	}

	// The pre-check gives a clean message; the unique index still decides races.
	if _, err := s.users.GetUserByEmail(ctx, email); err == nil {
		return Session{}, domain.Conflict(msgUserExists)
	} else if !errors.Is(err, repository.ErrNotFound) {
		return Session{}, domain.Internal("lookup user by email", err)
	}

	hash, err := s.creds.Hash(in.Password)
	if err != nil {
		return Session{}, domain.Internal("hash password", err)
	}
	user := &domain.User{
		ID:           uuid.NewString(),
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    s.now(),
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return Session{}, domain.Conflict(msgUserExists)
		}
		return Session{}, domain.Internal("create user", err)
	}
	token, err := s.creds.IssueToken(user.ID)
	if err != nil {
		return Session{}, domain.Internal("issue token", err)
	}
	s.logger.InfoContext(ctx, "user registered", "user_id", user.ID)
	return Session{Token: token, User: user.Summary()}, nil
}

// Login authenticates a user. Unknown emails and wrong passwords are indistinguishable.
func (s Service) Login(ctx context.Context, in LoginInput) (Session, error) {
	email := NormalizeEmail(in.Email)
	if email == "" || in.Password == "" {
		return Session{}, domain.Validation(msgLoginRequired)
	}
	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.creds.Verify(in.Password, s.decoyHash())
			return Session{}, domain.Unauthorized(msgInvalidCreds)
		}
		return Session{}, domain.Internal("lookup user by email", err)
	}
	if !s.creds.Verify(in.Password, user.PasswordHash) {
		s.logger.WarnContext(ctx, "login rejected", "user_id", user.ID)
		return Session{}, domain.Unauthorized(msgInvalidCreds)
	}
	token, err := s.creds.IssueToken(user.ID)
	if err != nil {
		return Session{}, domain.Internal("issue token", err)
	}
	s.logger.InfoContext(ctx, "user logged in", "user_id", user.ID)
	return Session{Token: token, User: user.Summary()}, nil
}

// Profile returns the public view of the user bound to a verified token.
func (s Service) Profile(ctx context.Context, userID string) (domain.UserSummary, error) {
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.UserSummary{}, domain.NotFound(msgUserNotFound)
		}
		return domain.UserSummary{}, domain.Internal("lookup user by id", err)
	}
	return user.Summary(), nil
}

// Authenticate resolves a bearer token to a user identifier without touching storage.
func (s Service) Authenticate(token string) (string, error) {
	userID, err := s.creds.VerifyToken(token)
	if err != nil {
		return "", domain.Unauthorized("Unauthorized")
	}
	return userID, nil
}

// ValidEmail applies the structural pattern and the validator's email rule.
func (s Service) ValidEmail(email string) bool {
	if !emailPattern.MatchString(email) {
		return false
	}
	return s.validate.Var(email, "required,email") == nil
}

// NormalizeEmail trims and lower-cases an address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
