package auth

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/linac-qa/backend/internal/audit"
	"github.com/linac-qa/backend/internal/metrics"
	"github.com/linac-qa/backend/internal/storage/models"
	"github.com/linac-qa/backend/internal/storage/sqlite"
	"github.com/linac-qa/backend/pkg/logger"
)

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrAccountDisabled    = errors.New("account is disabled")
	ErrDuplicateUser      = errors.New("username or email already in use")
	ErrUnknownRole        = errors.New("unknown role")
	ErrNotFound           = errors.New("user not found")
)

type Service struct {
	store      *sqlite.Client
	trail      *audit.Trail
	secret     string
	sessionTTL time.Duration
}

func NewService(store *sqlite.Client, trail *audit.Trail, secret string, sessionTTL time.Duration) *Service {
	return &Service{store: store, trail: trail, secret: secret, sessionTTL: sessionTTL}
}

func (s *Service) SessionTTL() time.Duration {
	return s.sessionTTL
}

func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// Login verifies credentials and returns the user with a signed session
// token. Failed attempts are counted but deliberately not audited, so the
// trail cannot be flooded with junk usernames.
func (s *Service) Login(username, password, ip string) (*models.User, string, error) {
	user, err := s.store.GetUserByUsername(username)
	if err != nil {
		return nil, "", err
	}
	if user == nil || !CheckPassword(user.HashedPassword, password) {
		metrics.LoginAttempts.WithLabelValues("failure").Inc()
		return nil, "", ErrInvalidCredentials
	}
	if !user.Active {
		metrics.LoginAttempts.WithLabelValues("disabled").Inc()
		return nil, "", ErrAccountDisabled
	}

	now := time.Now()
	if err := s.store.UpdateLastLogin(user.ID, now); err != nil {
		return nil, "", err
	}
	user.LastLogin = &now

	token, err := NewSessionToken(s.secret, user.ID, user.Username, s.sessionTTL)
	if err != nil {
		return nil, "", err
	}

	s.trail.Append(user.Username, audit.ActionLogin, "User logged in", ip)
	metrics.LoginAttempts.WithLabelValues("success").Inc()
	return user, token, nil
}

func (s *Service) Logout(username, ip string) {
	s.trail.Append(username, audit.ActionLogout, "User logged out", ip)
}

// CurrentUser resolves a session token into an active user.
func (s *Service) CurrentUser(token string) (*models.User, error) {
	claims, err := ParseSessionToken(s.secret, token)
	if err != nil {
		return nil, err
	}

	user, err := s.store.GetUser(claims.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil || !user.Active {
		return nil, ErrInvalidToken
	}
	return user, nil
}

// SaveUserInput creates a user when ID is zero, otherwise updates.
// Password is rehashed only when non-empty.
type SaveUserInput struct {
	ID       int64
	Username string
	Email    string
	FullName string
	Role     string
	Active   bool
	Password string
}

func (s *Service) SaveUser(input SaveUserInput, actingUser, ip string) (*models.User, error) {
	if _, ok := ParseRole(input.Role); !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownRole, input.Role)
	}

	taken, err := s.store.UserExists(input.Username, input.Email, input.ID)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrDuplicateUser
	}

	var user *models.User
	if input.ID == 0 {
		if input.Password == "" {
			return nil, errors.New("password required for new user")
		}
		hash, err := HashPassword(input.Password)
		if err != nil {
			return nil, err
		}
		user = &models.User{
			Username:       input.Username,
			Email:          input.Email,
			HashedPassword: hash,
			FullName:       input.FullName,
			Role:           input.Role,
			Active:         input.Active,
		}
		if err := s.store.InsertUser(user); err != nil {
			return nil, err
		}
	} else {
		user, err = s.store.GetUser(input.ID)
		if err != nil {
			return nil, err
		}
		if user == nil {
			return nil, ErrNotFound
		}
		user.Username = input.Username
		user.Email = input.Email
		user.FullName = input.FullName
		user.Role = input.Role
		user.Active = input.Active
		if input.Password != "" {
			hash, err := HashPassword(input.Password)
			if err != nil {
				return nil, err
			}
			user.HashedPassword = hash
		}
		if err := s.store.UpdateUser(user); err != nil {
			return nil, err
		}
	}

	s.trail.Append(actingUser, audit.ActionSaveUser, fmt.Sprintf("User saved: %s", user.Username), ip)
	return user, nil
}

func (s *Service) ListUsers() ([]models.User, error) {
	return s.store.ListUsers()
}

// Bootstrap creates the default admin account when the users table is
// empty. The password must be changed immediately after first login.
func (s *Service) Bootstrap() error {
	count, err := s.store.CountUsers()
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	hash, err := HashPassword("changeme123")
	if err != nil {
		return err
	}
	admin := &models.User{
		Username:       "admin",
		Email:          "admin@hospital.local",
		HashedPassword: hash,
		FullName:       "System Administrator",
		Role:           string(RoleAdmin),
		Active:         true,
	}
	if err := s.store.InsertUser(admin); err != nil {
		return err
	}

	logger.Warn("Default admin user created, change the password immediately",
		zap.String("username", admin.Username))
	return nil
}
