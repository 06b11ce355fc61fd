package service

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"student-portal/backend/internal/audit"
	"student-portal/backend/internal/security"
	userdomain "student-portal/backend/internal/user/domain"
)

// Sentinel errors for the auth service; callers map them to response codes.
var (
	ErrInvalidCredentials     = errors.New("invalid credentials")
	ErrUsernameTaken          = errors.New("username already registered")
	ErrEmailAlreadyRegistered = errors.New("email already registered")
	ErrUnknownRole            = errors.New("unknown role")
	ErrUserNotFound           = errors.New("user not found")
)

// LoginResult holds the outcome of a successful Login.
type LoginResult struct {
	Token string
	User  *userdomain.User
}

// RegisterInput carries the fields needed to create an account.
type RegisterInput struct {
	Username  string
	Password  string
	FirstName string
	LastName  string
	Email     string
	RoleName  string
}

// UserRepo is the minimal user repository needed by the auth service.
type UserRepo interface {
	GetByID(ctx context.Context, id string) (*userdomain.User, error)
	GetByUsername(ctx context.Context, username string) (*userdomain.User, error)
	GetByEmail(ctx context.Context, email string) (*userdomain.User, error)
	Create(ctx context.Context, u *userdomain.User) error
	UpdateLastAccess(ctx context.Context, id string, at time.Time) error
	Deactivate(ctx context.Context, id string, at time.Time) error
	GetRoleByName(ctx context.Context, name string) (*userdomain.Role, error)
}

// Sessions is the session lifecycle surface needed by the auth service.
type Sessions interface {
	IssueSession(ctx context.Context, ident security.Identity, sourceAddress string) (string, error)
	Revoke(ctx context.Context, token string) (bool, error)
	DeactivateIdentity(ctx context.Context, identityID string) error
}

// AuthService implements account registration, password login, logout, and
// administrative deactivation.
type AuthService struct {
	userRepo UserRepo
	sessions Sessions
	hasher   *security.Hasher
	auditLog audit.AuditLogger
}

// NewAuthService returns an AuthService with the given dependencies.
// auditLog may be nil to disable audit events.
func NewAuthService(userRepo UserRepo, sessions Sessions, hasher *security.Hasher, auditLog audit.AuditLogger) *AuthService {
	return &AuthService{
		userRepo: userRepo,
		sessions: sessions,
		hasher:   hasher,
		auditLog: auditLog,
	}
}

// Register creates a user account with the given role. The caller is
// responsible for authorizing who may create which roles.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*userdomain.User, error) {
	username := strings.TrimSpace(strings.ToLower(in.Username))
	email := strings.TrimSpace(strings.ToLower(in.Email))
	if err := validateUsername(username); err != nil {
		return nil, err
	}
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	if err := validatePassword(in.Password); err != nil {
		return nil, err
	}
	if existing, err := s.userRepo.GetByUsername(ctx, username); err != nil {
		return nil, err
	} else if existing != nil {
		return nil, ErrUsernameTaken
	}
	if existing, err := s.userRepo.GetByEmail(ctx, email); err != nil {
		return nil, err
	} else if existing != nil {
		return nil, ErrEmailAlreadyRegistered
	}
	role, err := s.userRepo.GetRoleByName(ctx, in.RoleName)
	if err != nil {
		return nil, err
	}
	if role == nil || !role.Active {
		return nil, ErrUnknownRole
	}
	hashed, err := s.hasher.Hash([]byte(in.Password))
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	user := &userdomain.User{
		ID:           uuid.New().String(),
		Username:     username,
		PasswordHash: hashed,
		FirstName:    strings.TrimSpace(in.FirstName),
		LastName:     strings.TrimSpace(in.LastName),
		Email:        email,
		RoleID:       role.ID,
		RoleName:     role.Name,
		Active:       true,
		CreatedAt:    now,
	}
	if err := user.Validate(); err != nil {
		return nil, err
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}
	s.logEvent(ctx, user.ID, "register", "user", "", "role="+role.Name)
	return user, nil
}

// Login authenticates with username/password and issues a session bound to
// the caller's network origin. Unknown users, inactive accounts, and wrong
// passwords all collapse into ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, username, password, sourceAddress string) (*LoginResult, error) {
	username = strings.TrimSpace(strings.ToLower(username))
	if username == "" || password == "" {
		return nil, ErrInvalidCredentials
	}
	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if user == nil || !user.Active {
		s.logEvent(ctx, "", "login_failure", "session", sourceAddress, "username="+username)
		return nil, ErrInvalidCredentials
	}
	if err := s.hasher.Compare(user.PasswordHash, []byte(password)); err != nil {
		s.logEvent(ctx, user.ID, "login_failure", "session", sourceAddress, "")
		return nil, ErrInvalidCredentials
	}

	now := time.Now().UTC()
	if err := s.userRepo.UpdateLastAccess(ctx, user.ID, now); err != nil {
		return nil, err
	}
	token, err := s.sessions.IssueSession(ctx, security.Identity{
		ID:        user.ID,
		Username:  user.Username,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Role:      user.RoleName,
	}, sourceAddress)
	if err != nil {
		return nil, err
	}
	s.logEvent(ctx, user.ID, "login", "session", sourceAddress, "")
	user.LastAccessAt = &now
	return &LoginResult{Token: token, User: user}, nil
}

// Logout revokes the presented session. Returns false without error when the
// token has no active session, so repeated logouts are harmless.
func (s *AuthService) Logout(ctx context.Context, token, sourceAddress string) (bool, error) {
	ok, err := s.sessions.Revoke(ctx, token)
	if err != nil {
		return false, err
	}
	if ok {
		s.logEvent(ctx, "", "logout", "session", sourceAddress, "")
	}
	return ok, nil
}

// Deactivate marks the account inactive and terminates all of its sessions.
// actorID identifies the administrator performing the action.
func (s *AuthService) Deactivate(ctx context.Context, userID, actorID, sourceAddress string) error {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if user == nil {
		return ErrUserNotFound
	}
	if err := s.userRepo.Deactivate(ctx, userID, time.Now().UTC()); err != nil {
		return err
	}
	if err := s.sessions.DeactivateIdentity(ctx, userID); err != nil {
		return err
	}
	s.logEvent(ctx, actorID, "deactivate", "user", sourceAddress, "target="+userID)
	return nil
}

func (s *AuthService) logEvent(ctx context.Context, userID, action, resource, ip, detail string) {
	if s.auditLog == nil {
		return
	}
	s.auditLog.LogEvent(ctx, userID, action, resource, ip, detail)
}

func validateUsername(username string) error {
	if len(username) < 3 {
		return errors.New("username must be at least 3 characters")
	}
	const pattern = `^[a-z0-9._-]+$`
	if ok, _ := regexp.MatchString(pattern, username); !ok {
		return errors.New("username may only contain letters, digits, dots, hyphens, and underscores")
	}
	return nil
}

func validateEmail(email string) error {
	if email == "" {
		return errors.New("email is required")
	}
	const simpleEmail = `^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`
	if ok, _ := regexp.MatchString(simpleEmail, email); !ok {
		return errors.New("invalid email format")
	}
	return nil
}

func validatePassword(password string) error {
	if len(password) < 8 {
		return errors.New("password must be at least 8 characters")
	}
	var hasUpper, hasLower, hasNumber bool
	for _, r := range password {
		switch {
		case r >= 'A' && r <= 'Z':
			hasUpper = true
		case r >= 'a' && r <= 'z':
			hasLower = true
		case r >= '0' && r <= '9':
			hasNumber = true
		}
	}
	if !hasUpper {
		return errors.New("password must contain at least one uppercase letter")
	}
	if !hasLower {
		return errors.New("password must contain at least one lowercase letter")
	}
	if !hasNumber {
		return errors.New("password must contain at least one number")
	}
	return nil
}
