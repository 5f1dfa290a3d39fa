package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/Skotchmaster/campus_food/internal/models"
	"github.com/Skotchmaster/campus_food/internal/repo"
	"github.com/Skotchmaster/campus_food/pkg/hash"
	"github.com/Skotchmaster/campus_food/pkg/logging"
	"github.com/Skotchmaster/campus_food/pkg/tokens"
)

const (
	MinPasswordLen = 6

	defaultUserTopic = "user_events"
)

type AuthRepo interface {
	CreateUser(ctx context.Context, u *models.User) error
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	GetUserByID(ctx context.Context, id uint) (*models.User, error)
	UsernameExists(ctx context.Context, username string) (bool, error)
	SetUserStatus(ctx context.Context, id uint, status string) error

	AddRefreshToken(ctx context.Context, t *models.RefreshToken) error
	FindRefreshToken(ctx context.Context, token string) (*models.RefreshToken, error)
	DeleteRefreshTokenByID(ctx context.Context, id uint) error
	DeleteRefreshToken(ctx context.Context, token string) (int64, error)
	DeleteExpiredRefreshTokens(ctx context.Context, now time.Time) (int64, error)
}

type AuthService struct {
	Repo   AuthRepo
	Hasher hash.PasswordHasher
	Tokens *tokens.Issuer
	Events EventPublisher
	Topic  string
	Now    func() time.Time
}

type RegisterInput struct {
	Username  string
	Password  string
	IsAdmin   bool
	RealName  string
	StudentID string
	College   string
	Major     string
	Grade     string
	Phone     string
}

type RegisterResult struct {
	UserID   uint   `json:"userId"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

type LoginResult struct {
	UserID       uint      `json:"userId"`
	Username     string    `json:"username"`
	Role         string    `json:"role"`
	AccessToken  string    `json:"accessToken"`
	RefreshToken string    `json:"refreshToken"`
	AccessExp    time.Time `json:"-"`
	RefreshExp   time.Time `json:"-"`
}

type RefreshResult struct {
	AccessToken string    `json:"accessToken"`
	AccessExp   time.Time `json:"-"`
}

func (s *AuthService) now() time.Time {
	if s.Now == nil {
		return time.Now().UTC()
	}
	return s.Now().UTC()
}

func (s *AuthService) topic() string {
	if s.Topic == "" {
		return defaultUserTopic
	}
	return s.Topic
}

func optional(v string) *string {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	return &v
}

func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*RegisterResult, error) {
	l := logging.FromContext(ctx).With("svc", "auth.register", "username", in.Username)

	if in.Username == "" || in.Password == "" {
		return nil, newErr(ErrValidation, "username and password are required")
	}
	if len([]rune(in.Password)) < MinPasswordLen {
		return nil, newErr(ErrValidation, "password must be at least 6 characters")
	}

	pwHash, err := s.Hasher.Hash(in.Password)
	if err != nil {
		l.Error("register_error", "status", 500, "reason", "cannot hash the password", "error", err)
		return nil, internal("registration failed", err)
	}

	role := models.RoleUser
	if in.IsAdmin {
		role = models.RoleAdmin
	}

	user := models.User{
		Username:     in.Username,
		PasswordHash: pwHash,
		Role:         role,
		Status:       models.StatusActive,
		RealName:     optional(in.RealName),
		StudentID:    optional(in.StudentID),
		College:      optional(in.College),
		Major:        optional(in.Major),
		Grade:        optional(in.Grade),
		Phone:        optional(in.Phone),
	}

	if err := s.Repo.CreateUser(ctx, &user); err != nil {
		if errors.Is(err, repo.ErrDuplicateKey) {
			return nil, s.conflictFor(ctx, in.Username)
		}
		l.Error("register_error", "status", 500, "reason", "cannot insert user", "error", err)
		return nil, internal("registration failed", err)
	}

	l.Info("register_success", "user_id", user.ID, "role", role)
	s.publish(ctx, EventUserRegistered, user.ID, user.Username, user.Role)

	return &RegisterResult{UserID: user.ID, Username: user.Username, Role: user.Role}, nil
}

// conflictFor names the unique constraint a failed insert ran into.
func (s *AuthService) conflictFor(ctx context.Context, username string) error {
	taken, err := s.Repo.UsernameExists(ctx, username)
	if err == nil && !taken {
		return newErr(ErrConflict, "student id already registered")
	}
	return newErr(ErrConflict, "username already registered")
}

func (s *AuthService) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	l := logging.FromContext(ctx).With("svc", "auth.login", "username", username)

	if username == "" || password == "" {
		return nil, newErr(ErrValidation, "username and password are required")
	}

	invalid := newErr(ErrAuth, "invalid username or password")

	user, err := s.Repo.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			l.Warn("login_failed", "status", 401, "reason", "unknown user")
			return nil, invalid
		}
		l.Error("login_failed", "status", 500, "error", err)
		return nil, internal("login failed", err)
	}

	if !s.Hasher.Check(user.PasswordHash, password) {
		l.Warn("login_failed", "status", 401, "reason", "wrong password")
		return nil, invalid
	}

	if !user.Active() {
		l.Warn("login_failed", "status", 403, "reason", "account disabled")
		return nil, newErr(ErrForbidden, "account disabled")
	}

	accessToken, accessExp, err := s.Tokens.Issue(user.ID, user.Username, user.Role)
	if err != nil {
		l.Error("login_failed", "status", 500, "reason", "cannot sign access token", "error", err)
		return nil, internal("login failed", err)
	}

	refreshToken, err := tokens.NewRefreshToken()
	if err != nil {
		l.Error("login_failed", "status", 500, "reason", "cannot generate refresh token", "error", err)
		return nil, internal("login failed", err)
	}
	refreshExp := s.now().Add(tokens.RefreshTTL)

	// the caller keeps a working access token even when this insert fails
	if err := s.Repo.AddRefreshToken(ctx, &models.RefreshToken{
		UserID:    user.ID,
		Token:     refreshToken,
		ExpiresAt: refreshExp,
	}); err != nil {
		l.Error("store_refresh_token_failed", "user_id", user.ID, "error", err)
	}

	l.Info("login_success", "user_id", user.ID)
	s.publish(ctx, EventUserLoggedIn, user.ID, user.Username, user.Role)

	return &LoginResult{
		UserID:       user.ID,
		Username:     user.Username,
		Role:         user.Role,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		AccessExp:    accessExp,
		RefreshExp:   refreshExp,
	}, nil
}

// Refresh mints a new access token. The refresh token itself is left as is.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*RefreshResult, error) {
	l := logging.FromContext(ctx).With("svc", "auth.refresh")

	if refreshToken == "" {
		return nil, newErr(ErrValidation, "refreshToken is required")
	}

	rec, err := s.Repo.FindRefreshToken(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			l.Warn("refresh_failed", "status", 401, "reason", "unknown refresh token")
			return nil, newErr(ErrAuth, "invalid refresh token")
		}
		l.Error("refresh_failed", "status", 500, "error", err)
		return nil, internal("refresh failed", err)
	}

	if rec.Expired(s.now()) {
		if err := s.Repo.DeleteRefreshTokenByID(ctx, rec.ID); err != nil {
			l.Error("delete_expired_refresh_failed", "token_id", rec.ID, "error", err)
		}
		l.Warn("refresh_failed", "status", 401, "reason", "refresh token expired", "user_id", rec.UserID)
		return nil, newErr(ErrAuth, "refresh token expired")
	}

	user, err := s.Repo.GetUserByID(ctx, rec.UserID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			l.Warn("refresh_failed", "status", 404, "reason", "user removed", "user_id", rec.UserID)
			return nil, newErr(ErrNotFound, "user not found")
		}
		l.Error("refresh_failed", "status", 500, "error", err)
		return nil, internal("refresh failed", err)
	}

	accessToken, accessExp, err := s.Tokens.Issue(user.ID, user.Username, user.Role)
	if err != nil {
		l.Error("refresh_failed", "status", 500, "reason", "cannot sign access token", "error", err)
		return nil, internal("refresh failed", err)
	}

	l.Info("refresh_success", "user_id", user.ID)
	return &RefreshResult{AccessToken: accessToken, AccessExp: accessExp}, nil
}

// Logout forgets refreshToken. Unknown tokens are not an error.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	l := logging.FromContext(ctx).With("svc", "auth.logout")

	if refreshToken == "" {
		return newErr(ErrValidation, "refreshToken is required")
	}

	var userID uint
	if rec, err := s.Repo.FindRefreshToken(ctx, refreshToken); err == nil {
		userID = rec.UserID
	}

	n, err := s.Repo.DeleteRefreshToken(ctx, refreshToken)
	if err != nil {
		l.Error("logout_failed", "status", 500, "reason", "cannot delete refresh token", "error", err)
		return internal("logout failed", err)
	}

	l.Info("logout_success", "removed", n)
	if n > 0 {
		s.publish(ctx, EventUserLoggedOut, userID, "", "")
	}
	return nil
}

func (s *AuthService) GetUser(ctx context.Context, id uint) (*models.User, error) {
	user, err := s.Repo.GetUserByID(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, newErr(ErrNotFound, "user not found")
		}
		logging.FromContext(ctx).Error("get_user_failed", "user_id", id, "error", err)
		return nil, internal("cannot load user", err)
	}
	return user, nil
}

// SeedAdmin creates an active admin account unless username is already taken.
func (s *AuthService) SeedAdmin(ctx context.Context, username, password string) (bool, error) {
	_, err := s.Register(ctx, RegisterInput{Username: username, Password: password, IsAdmin: true})
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, ErrConflict):
		return false, nil
	default:
		return false, err
	}
}

func (s *AuthService) SetUserStatus(ctx context.Context, username, status string) error {
	if status != models.StatusActive && status != models.StatusDisabled {
		return newErr(ErrValidation, "unknown status "+status)
	}
	user, err := s.Repo.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return newErr(ErrNotFound, "user not found")
		}
		return internal("cannot load user", err)
	}
	if err := s.Repo.SetUserStatus(ctx, user.ID, status); err != nil {
		return internal("cannot update status", err)
	}
	logging.FromContext(ctx).Info("user_status_changed", "user_id", user.ID, "status", status)
	return nil
}

// PurgeExpired removes refresh tokens whose expiry has passed.
func (s *AuthService) PurgeExpired(ctx context.Context) (int64, error) {
	n, err := s.Repo.DeleteExpiredRefreshTokens(ctx, s.now())
	if err != nil {
		return 0, internal("purge failed", err)
	}
	return n, nil
}
