// Package auth implements signup, login, session verification and the
// self-service account operations.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/text/unicode/norm"

	"movietrack/internal/database"
	"movietrack/internal/validation"
	"movietrack/models"
)

var (
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrIncorrectPassword  = errors.New("current password is incorrect")
	ErrAccountBanned      = errors.New("account is banned")
	ErrUserNotFound       = errors.New("user not found")
	ErrAdminProtected     = errors.New("admin accounts cannot be deleted")
)

// UserStore is the persistence the auth flows need.
type UserStore interface {
	Create(ctx context.Context, u *models.User) error
	FindByID(ctx context.Context, id string) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	UpdateLastLogin(ctx context.Context, id string, at time.Time) error
	UpdateName(ctx context.Context, id, name string, at time.Time) error
	UpdatePasswordHash(ctx context.Context, id, hash string, at time.Time) error
	UpdateRole(ctx context.Context, id string, role models.Role, at time.Time) error
	UpdateNotificationPreferences(ctx context.Context, id string, prefs models.NotificationPreferences, at time.Time) error
}

// AccountDeleter removes a user together with everything they own.
type AccountDeleter interface {
	DeleteUserCascade(ctx context.Context, userID string) (*database.CascadeResult, error)
}

// AuditLogger receives best-effort audit entries.
type AuditLogger interface {
	Log(user *models.User, action models.ActivityAction, details, ip string)
}

var (
	_ UserStore      = (*database.UserRepository)(nil)
	_ AccountDeleter = (*database.DB)(nil)
)

// Service implements the credential flows.
type Service struct {
	users      UserStore
	accounts   AccountDeleter
	tokens     *TokenIssuer
	audit      AuditLogger
	bcryptCost int
	now        func() time.Time
}

// NewService wires the auth flows. A zero bcryptCost selects bcrypt.DefaultCost.
func NewService(users UserStore, accounts AccountDeleter, tokens *TokenIssuer, audit AuditLogger, bcryptCost int) *Service {
	if bcryptCost == 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	return &Service{
		users:      users,
		accounts:   accounts,
		tokens:     tokens,
		audit:      audit,
		bcryptCost: bcryptCost,
		now:        time.Now,
	}
}

// NormaliseName trims and NFC-normalises a display name.
func NormaliseName(name string) string {
	return norm.NFC.String(strings.TrimSpace(name))
}

// NormaliseEmail trims and lowercases an email address.
func NormaliseEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Signup creates an active user account and returns a session for it.
func (s *Service) Signup(ctx context.Context, req models.SignupRequest, ip string) (*models.AuthResponse, error) {
	req.Name = NormaliseName(req.Name)
	req.Email = NormaliseEmail(req.Email)
	if err := validation.Struct(req); err != nil {
		return nil, err
	}

	if _, err := s.users.FindByEmail(ctx, req.Email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, database.ErrNotFound) {
		return nil, err
	}

	hash, err := s.hashPassword(req.Password, "password")
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	user := &models.User{
		ID:           uuid.NewString(),
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: hash,
		Role:         models.RoleUser,
		Status:       models.StatusActive,
		NotificationPreferences: models.NotificationPreferences{
			MutedTypes: []models.AnnouncementType{},
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.users.Create(ctx, user); err != nil {
		// The unique index catches a signup racing the lookup above.
		if errors.Is(err, database.ErrDuplicate) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	log.Printf("[auth] registered user id=%s", user.ID)
	s.audit.Log(user, models.ActionRegister, "New user registered", ip)

	return s.session(user)
}

// Login verifies credentials and returns a session. Unknown emails and wrong
// passwords produce the same error.
func (s *Service) Login(ctx context.Context, req models.LoginRequest, ip string) (*models.AuthResponse, error) {
	req.Email = NormaliseEmail(req.Email)
	if err := validation.Struct(req); err != nil {
		return nil, err
	}

	user, err := s.users.FindByEmail(ctx, req.Email)
	if errors.Is(err, database.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		return nil, ErrInvalidCredentials
	}
	if user.IsBanned() {
		return nil, ErrAccountBanned
	}

	now := s.now().UTC()
	if err := s.users.UpdateLastLogin(ctx, user.ID, now); err != nil {
		return nil, fmt.Errorf("update last login: %w", err)
	}
	user.LastLogin = &now

	s.audit.Log(user, models.ActionLogin, "User logged in", ip)
	return s.session(user)
}

// Logout audits a client-side token discard.
func (s *Service) Logout(user *models.User, ip string) {
	s.audit.Log(user, models.ActionLogout, "User logged out", ip)
}

// Authenticate resolves a bearer token to its user. Unknown users are
// reported as ErrInvalidToken.
func (s *Service) Authenticate(ctx context.Context, token string) (*models.User, error) {
	userID, err := s.tokens.Verify(token)
	if err != nil {
		return nil, err
	}
	user, err := s.users.FindByID(ctx, userID)
	if errors.Is(err, database.ErrNotFound) {
		return nil, ErrInvalidToken
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

// UpdateProfile changes the display name.
func (s *Service) UpdateProfile(ctx context.Context, user *models.User, req models.UpdateProfileRequest, ip string) (*models.User, error) {
	req.Name = NormaliseName(req.Name)
	if err := validation.Struct(req); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	if err := s.users.UpdateName(ctx, user.ID, req.Name, now); err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}

	updated := *user
	updated.Name = req.Name
	updated.UpdatedAt = now
	s.audit.Log(&updated, models.ActionProfileUpdate, fmt.Sprintf("Name changed from %q to %q", user.Name, req.Name), ip)
	return &updated, nil
}

// ChangePassword replaces the password after checking the current one.
func (s *Service) ChangePassword(ctx context.Context, user *models.User, req models.ChangePasswordRequest, ip string) error {
	if err := validation.Struct(req); err != nil {
		return err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.CurrentPassword)) != nil {
		return ErrIncorrectPassword
	}

	hash, err := s.hashPassword(req.NewPassword, "newPassword")
	if err != nil {
		return err
	}
	if err := s.users.UpdatePasswordHash(ctx, user.ID, hash, s.now().UTC()); err != nil {
		return fmt.Errorf("change password: %w", err)
	}

	s.audit.Log(user, models.ActionPasswordChange, "Password changed", ip)
	return nil
}

// ResetPassword sets a new password for the account matching both email and
// display name exactly. The display name is not a secret, so this is a weak
// proof of identity.
func (s *Service) ResetPassword(ctx context.Context, req models.ResetPasswordRequest, ip string) error {
	req.Email = NormaliseEmail(req.Email)
	req.Name = NormaliseName(req.Name)
	if err := validation.Struct(req); err != nil {
		return err
	}

	user, err := s.users.FindByEmail(ctx, req.Email)
	if errors.Is(err, database.ErrNotFound) {
		return ErrUserNotFound
	}
	if err != nil {
		return err
	}
	if user.Name != req.Name {
		return ErrUserNotFound
	}

	hash, err := s.hashPassword(req.NewPassword, "newPassword")
	if err != nil {
		return err
	}
	if err := s.users.UpdatePasswordHash(ctx, user.ID, hash, s.now().UTC()); err != nil {
		return fmt.Errorf("reset password: %w", err)
	}

	log.Printf("[auth] password reset for user id=%s from %s", user.ID, ip)
	s.audit.Log(user, models.ActionPasswordReset, "Password reset via recovery form", ip)
	return nil
}

// DeleteAccount removes the caller's account, movies and audit history.
// Admin accounts must be demoted first.
func (s *Service) DeleteAccount(ctx context.Context, user *models.User, ip string) error {
	if user.IsAdmin() {
		return ErrAdminProtected
	}
	result, err := s.accounts.DeleteUserCascade(ctx, user.ID)
	if errors.Is(err, database.ErrNotFound) {
		return ErrUserNotFound
	}
	if err != nil {
		return fmt.Errorf("delete account: %w", err)
	}
	log.Printf("[auth] account deleted id=%s movies=%d logs=%d from %s", user.ID, result.Movies, result.ActivityLogs, ip)
	return nil
}

// UpdateNotificationPreferences stores which announcement types the user mutes.
func (s *Service) UpdateNotificationPreferences(ctx context.Context, user *models.User, req models.NotificationPreferencesRequest) (models.NotificationPreferences, error) {
	if err := validation.Struct(req); err != nil {
		return models.NotificationPreferences{}, err
	}

	prefs := models.NotificationPreferences{
		MutedTypes: dedupeTypes(req.MutedTypes),
		MuteUntil:  req.MuteUntil,
	}
	if prefs.MuteUntil != nil {
		t := prefs.MuteUntil.UTC()
		prefs.MuteUntil = &t
	}
	if err := s.users.UpdateNotificationPreferences(ctx, user.ID, prefs, s.now().UTC()); err != nil {
		return models.NotificationPreferences{}, fmt.Errorf("update notification preferences: %w", err)
	}
	return prefs, nil
}

// Promote grants the admin role to the account with email. Used by the CLI.
func (s *Service) Promote(ctx context.Context, email string) (*models.User, error) {
	user, err := s.users.FindByEmail(ctx, NormaliseEmail(email))
	if errors.Is(err, database.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	if user.IsAdmin() {
		return user, nil
	}
	now := s.now().UTC()
	if err := s.users.UpdateRole(ctx, user.ID, models.RoleAdmin, now); err != nil {
		return nil, fmt.Errorf("promote user: %w", err)
	}
	user.Role = models.RoleAdmin
	user.Status = models.StatusActive
	user.UpdatedAt = now
	log.Printf("[auth] promoted user id=%s to admin", user.ID)
	return user, nil
}

// CreateAdmin registers an admin account directly. Used by the CLI.
func (s *Service) CreateAdmin(ctx context.Context, req models.SignupRequest) (*models.User, error) {
	resp, err := s.Signup(ctx, req, "cli")
	if err != nil {
		return nil, err
	}
	return s.Promote(ctx, resp.User.Email)
}

func (s *Service) session(user *models.User) (*models.AuthResponse, error) {
	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, err
	}
	return &models.AuthResponse{Token: token, User: user}, nil
}

func (s *Service) hashPassword(password, field string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return "", validation.New(field, field+" must be at most 72 bytes")
	}
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

func dedupeTypes(in []models.AnnouncementType) []models.AnnouncementType {
	seen := make(map[models.AnnouncementType]bool, len(in))
	out := make([]models.AnnouncementType, 0, len(in))
	for _, t := range in {
		if !seen[t] {
			seen[t] = true
			out = append(out, t)
		}
	}
	return out
}
