package application

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-physio-booking/internal/domain/entity"
	repo "github.com/oksasatya/go-physio-booking/internal/domain/repository"
	"github.com/oksasatya/go-physio-booking/pkg/helpers"
)

// UserService covers the patient account: registration, email
// verification, login, password reset and profile.
type UserService struct {
	Repo     repo.UserRepository
	Audit    repo.AuditRepository
	JWT      *helpers.JWTManager
	Sessions *Sessions
	Images   ImageStore
	Notify   *Notifications
	Logger   *logrus.Logger

	ResetTTL time.Duration
	Now      func() time.Time
}

func NewUserService(r repo.UserRepository, audit repo.AuditRepository, jwt *helpers.JWTManager, sessions *Sessions, images ImageStore, notify *Notifications, logger *logrus.Logger, resetTTL time.Duration) *UserService {
	if resetTTL <= 0 {
		resetTTL = time.Hour
	}
	return &UserService{
		Repo:     r,
		Audit:    audit,
		JWT:      jwt,
		Sessions: sessions,
		Images:   images,
		Notify:   notify,
		Logger:   logger,
		ResetTTL: resetTTL,
		Now:      time.Now,
	}
}

// RequestMeta is the caller context recorded in the audit trail.
type RequestMeta struct {
	IP        string
	UserAgent string
}

func (s *UserService) now() time.Time {
	if s.Now == nil {
		return time.Now()
	}
	return s.Now()
}

func (s *UserService) audit(ctx context.Context, u *entity.User, action string, meta RequestMeta, extra map[string]any) {
	if s.Audit == nil {
		return
	}
	err := s.Audit.Insert(ctx, repo.AuditEntry{
		UserID:    u.ID,
		Email:     u.Email,
		Action:    action,
		IP:        meta.IP,
		UserAgent: meta.UserAgent,
		Metadata:  extra,
	})
	if err != nil && s.Logger != nil {
		s.Logger.WithError(err).WithField("action", action).Warn("audit insert failed")
	}
}

type RegisterInput struct {
	Name     string
	Email    string
	Password string
}

// Register creates an unverified patient and emails a verification link.
func (s *UserService) Register(ctx context.Context, in RegisterInput, meta RequestMeta) (*entity.User, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = normalizeEmail(in.Email)
	if in.Name == "" || in.Email == "" || in.Password == "" {
		return nil, validationf("missing details")
	}
	if !validEmail(in.Email) {
		return nil, validationf("please enter a valid email")
	}
	if len(in.Password) < 8 {
		return nil, validationf("please enter a strong password")
	}
	if _, err := s.Repo.GetByEmail(ctx, in.Email); err == nil {
		return nil, fmt.Errorf("%w: user already exists", ErrConflict)
	} else if !errors.Is(err, repo.ErrNotFound) {
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	hash, err := helpers.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()
	u := &entity.User{
		ID:        uuid.NewString(),
		Name:      in.Name,
		Email:     in.Email,
		Password:  hash,
		CreatedAt: now,
		UpdatedAt: now,
	}
	token, exp, err := s.JWT.Issue(string(entity.KindEmailVerify), u.ID, helpers.WithEmail(u.Email))
	if err != nil {
		return nil, err
	}
	u.VerificationToken = token

	if err := s.Repo.Create(ctx, u); err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			return nil, fmt.Errorf("%w: user already exists", ErrConflict)
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	s.audit(ctx, u, "register", meta, nil)
	s.Notify.VerifyEmail(ctx, u, token, exp)
	return u, nil
}

// Login authenticates a verified patient.
func (s *UserService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	u, err := s.Repo.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	if !helpers.CompareHashAndPassword(u.Password, password) {
		return nil, ErrInvalidCredentials
	}
	if !u.IsVerified {
		return nil, ErrEmailNotVerified
	}
	res, err := s.Sessions.Issue(ctx, entity.KindPatient, u.ID, u.Email, u.Name)
	if err != nil {
		return nil, err
	}
	res.User = u
	return res, nil
}

// VerifyEmail consumes an email_verify token and logs the patient in.
// An expired link for an unverified account triggers one fresh email and
// returns ErrVerificationResent.
func (s *UserService) VerifyEmail(ctx context.Context, token string, meta RequestMeta) (*LoginResult, error) {
	claims, err := s.JWT.Verify(strings.TrimSpace(token), string(entity.KindEmailVerify))
	if errors.Is(err, helpers.ErrTokenExpired) && claims != nil {
		return nil, s.resendVerification(ctx, claims.Subject)
	}
	if err != nil {
		return nil, err
	}

	u, err := s.Repo.GetByID(ctx, claims.Subject)
	if err != nil {
		return nil, lookupErr("user", err)
	}
	if u.IsVerified {
		return nil, fmt.Errorf("%w: user is already verified", ErrConflict)
	}
	if u.VerificationToken != "" && u.VerificationToken != token {
		// superseded by a newer link
		return nil, helpers.ErrTokenInvalid
	}
	u.IsVerified = true
	u.VerificationToken = ""
	u.UpdatedAt = s.now().UTC()
	if err := s.Repo.Update(ctx, u); err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}
	s.audit(ctx, u, "verify_email", meta, nil)

	res, err := s.Sessions.Issue(ctx, entity.KindPatient, u.ID, u.Email, u.Name)
	if err != nil {
		return nil, err
	}
	res.User = u
	return res, nil
}

func (s *UserService) resendVerification(ctx context.Context, userID string) error {
	u, err := s.Repo.GetByID(ctx, userID)
	if err != nil {
		return lookupErr("user", err)
	}
	if u.IsVerified {
		return fmt.Errorf("%w: user is already verified", ErrConflict)
	}
	token, exp, err := s.JWT.Issue(string(entity.KindEmailVerify), u.ID, helpers.WithEmail(u.Email))
	if err != nil {
		return err
	}
	u.VerificationToken = token
	u.UpdatedAt = s.now().UTC()
	if err := s.Repo.Update(ctx, u); err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	s.Notify.VerifyEmail(ctx, u, token, exp)
	return ErrVerificationResent
}

// ForgotPassword stores a fresh reset token on the user and emails it.
func (s *UserService) ForgotPassword(ctx context.Context, email string, meta RequestMeta) error {
	u, err := s.Repo.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return lookupErr("user", err)
	}
	token, exp, err := s.JWT.Issue(string(entity.KindPasswordReset), u.ID, helpers.WithTTL(s.ResetTTL))
	if err != nil {
		return err
	}
	u.ResetPasswordToken = token
	u.ResetPasswordExpires = exp
	u.UpdatedAt = s.now().UTC()
	if err := s.Repo.Update(ctx, u); err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	s.audit(ctx, u, "forgot_password", meta, nil)
	s.Notify.PasswordReset(ctx, u, token, exp)
	return nil
}

type ResetPasswordInput struct {
	Token           string
	NewPassword     string
	ConfirmPassword string
}

// ResetPassword accepts only the most recently issued, unexpired reset token.
func (s *UserService) ResetPassword(ctx context.Context, in ResetPasswordInput, meta RequestMeta) error {
	token := strings.TrimSpace(in.Token)
	if token == "" {
		return helpers.ErrTokenInvalid
	}
	claims, err := s.JWT.Verify(token, string(entity.KindPasswordReset))
	if err != nil {
		return err
	}
	u, err := s.Repo.GetByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return helpers.ErrTokenInvalid
		}
		return fmt.Errorf("lookup user: %w", err)
	}
	if !u.ResetTokenValid(token, s.now()) {
		return helpers.ErrTokenInvalid
	}
	if in.NewPassword != in.ConfirmPassword {
		return validationf("passwords do not match")
	}
	if len(in.NewPassword) < 8 {
		return validationf("please enter a strong password")
	}

	hash, err := helpers.HashPassword(in.NewPassword)
	if err != nil {
		return err
	}
	u.Password = hash
	u.ResetPasswordToken = ""
	u.ResetPasswordExpires = time.Time{}
	u.UpdatedAt = s.now().UTC()
	if err := s.Repo.Update(ctx, u); err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	s.audit(ctx, u, "reset_password", meta, nil)
	if err := s.Sessions.Revoke(ctx, entity.KindPatient, u.ID); err != nil && s.Logger != nil {
		s.Logger.WithError(err).WithField("user_id", u.ID).Warn("revoke session failed")
	}
	return nil
}

func (s *UserService) GetProfile(ctx context.Context, userID string) (*entity.User, error) {
	u, err := s.Repo.GetByID(ctx, userID)
	if err != nil {
		return nil, lookupErr("user", err)
	}
	return u, nil
}

type UpdateProfileInput struct {
	Name    string
	Phone   string
	Address entity.Address
	DOB     string
	Gender  string
}

// UpdateProfile replaces the editable profile fields and, when img is set,
// the profile image.
func (s *UserService) UpdateProfile(ctx context.Context, userID string, in UpdateProfileInput, img *ImageUpload) (*entity.User, error) {
	if strings.TrimSpace(in.Name) == "" || in.Phone == "" || in.DOB == "" || in.Gender == "" {
		return nil, validationf("data missing")
	}
	u, err := s.Repo.GetByID(ctx, userID)
	if err != nil {
		return nil, lookupErr("user", err)
	}
	u.Name = strings.TrimSpace(in.Name)
	u.Phone = in.Phone
	u.Address = in.Address
	u.DOB = in.DOB
	u.Gender = in.Gender

	if img != nil {
		url, err := uploadImage(ctx, s.Images, "users", u.ID, img)
		if err != nil {
			if errors.Is(err, ErrValidation) {
				return nil, err
			}
			return nil, fmt.Errorf("%w: upload image: %v", ErrAdapter, err)
		}
		u.Image = url
	}
	u.UpdatedAt = s.now().UTC()
	if err := s.Repo.Update(ctx, u); err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}
	return u, nil
}

// Logout drops the patient's session.
func (s *UserService) Logout(ctx context.Context, userID string) error {
	return s.Sessions.Revoke(ctx, entity.KindPatient, userID)
}

func normalizeEmail(e string) string {
	return strings.ToLower(strings.TrimSpace(e))
}

func validEmail(e string) bool {
	addr, err := mail.ParseAddress(e)
	return err == nil && addr.Address == e
}
