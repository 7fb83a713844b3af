package services

import (
	"context"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"campusmart/internal/apperr"
	"campusmart/internal/auth"
	"campusmart/internal/domain"
	applog "campusmart/internal/log"
	"campusmart/internal/repos"
	"campusmart/internal/validate"
)

const (
	otpTTL   = 10 * time.Minute
	resetTTL = time.Hour
)

type AuthService struct {
	Users  *repos.UserRepo
	Tokens *auth.TokenService
	Mail   Mailer
	// AdminEmails are granted the admin role when they register.
	AdminEmails []string
	BcryptCost  int
}

func NewAuthService(users *repos.UserRepo, tokens *auth.TokenService, mail Mailer, adminEmails []string) *AuthService {
	return &AuthService{Users: users, Tokens: tokens, Mail: mail, AdminEmails: adminEmails}
}

type RegisterInput struct {
	Name     string `json:"name" validate:"required,min=2,max=80"`
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,password"`
	Phone    string `json:"phone" validate:"omitempty,phone"`
	Role     string `json:"role" validate:"omitempty,oneof=buyer seller service_provider"`
}

func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*domain.User, error) {
	if err := validate.Struct(in); err != nil {
		return nil, err
	}
	email, ok := validate.Email(in.Email)
	if !ok {
		return nil, apperr.BadRequest("email must be a valid email")
	}
	hash, err := auth.HashPassword(in.Password, s.BcryptCost)
	if err != nil {
		return nil, errors.Wrap(err, "hash password")
	}

	roles := []string{domain.RoleBuyer}
	if in.Role != "" && in.Role != domain.RoleBuyer {
		roles = append(roles, in.Role)
	}
	if slices.Contains(s.AdminEmails, email) {
		roles = append(roles, domain.RoleAdmin)
	}

	now := domain.Now()
	u := &domain.User{
		ID:        uuid.NewString(),
		Email:     email,
		Name:      strings.TrimSpace(in.Name),
		Phone:     strings.TrimSpace(in.Phone),
		Hash:      hash,
		RolesCSV:  domain.JoinRoles(roles),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.Users.Create(ctx, u); err != nil {
		return nil, err
	}
	if err := s.issueOTP(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *AuthService) issueOTP(ctx context.Context, u *domain.User) error {
	code, err := auth.NewOTP()
	if err != nil {
		return errors.Wrap(err, "generate otp")
	}
	exp := time.Now().UTC().Add(otpTTL).Format(time.RFC3339)
	if err := s.Users.SetOTP(ctx, u.ID, auth.Digest(code), exp); err != nil {
		return err
	}
	if err := s.Mail.SendOTP(ctx, u.Email, u.Name, code, otpTTL); err != nil {
		// The account exists either way; the user can ask for a new code.
		applog.Logger().Error("mail.otp.failed", "user_id", u.ID, "error", err)
	}
	return nil
}

func (s *AuthService) VerifyOTP(ctx context.Context, email, code string) (*domain.User, error) {
	email, ok := validate.Email(email)
	if !ok {
		return nil, apperr.BadRequest("email must be a valid email")
	}
	if _, ok := validate.OTP(code); !ok {
		return nil, apperr.ErrInvalidOTP
	}
	u, err := s.Users.ByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, apperr.ErrInvalidOTP
		}
		return nil, err
	}
	if u.IsVerified {
		return u, nil
	}
	sec, err := s.Users.Secrets(ctx, u.ID)
	if err != nil {
		return nil, err
	}
	if expired(sec.OTPExpiresAt) || !auth.DigestEqual(sec.OTPHash, strings.TrimSpace(code)) {
		return nil, apperr.ErrInvalidOTP
	}
	if err := s.Users.MarkVerified(ctx, u.ID); err != nil {
		return nil, err
	}
	u.IsVerified = true
	return u, nil
}

// ResendOTP silently ignores unknown or already verified addresses.
func (s *AuthService) ResendOTP(ctx context.Context, email string) error {
	email, ok := validate.Email(email)
	if !ok {
		return apperr.BadRequest("email must be a valid email")
	}
	u, err := s.Users.ByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil
		}
		return err
	}
	if u.IsVerified {
		return nil
	}
	return s.issueOTP(ctx, u)
}

type LoginInput struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// Login checks credentials and returns a signed token.
func (s *AuthService) Login(ctx context.Context, in LoginInput) (string, *domain.User, error) {
	if err := validate.Struct(in); err != nil {
		return "", nil, err
	}
	email, ok := validate.Email(in.Email)
	if !ok {
		return "", nil, apperr.ErrInvalidCredentials
	}
	u, err := s.Users.ByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return "", nil, apperr.ErrInvalidCredentials
		}
		return "", nil, err
	}
	if !auth.CheckPassword(u.Hash, in.Password) {
		return "", nil, apperr.ErrInvalidCredentials
	}
	if !u.IsVerified {
		return "", nil, apperr.ErrNotVerified
	}
	tok, err := s.Tokens.Issue(u.ID, u.Roles())
	if err != nil {
		return "", nil, errors.Wrap(err, "issue token")
	}
	return tok, u, nil
}

// Authenticate resolves a bearer/cookie token to the current user row.
// Roles come from the database so admin changes apply immediately.
func (s *AuthService) Authenticate(ctx context.Context, raw string) (*domain.User, error) {
	claims, err := s.Tokens.Parse(raw)
	if err != nil {
		return nil, apperr.ErrUnauthorized.WithMessage("invalid or expired token")
	}
	u, err := s.Users.ByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, apperr.ErrUnauthorized.WithMessage("account no longer exists")
		}
		return nil, err
	}
	return u, nil
}

// ForgotPassword never reveals whether the address is registered.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	email, ok := validate.Email(email)
	if !ok {
		return apperr.BadRequest("email must be a valid email")
	}
	u, err := s.Users.ByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil
		}
		return err
	}
	token, err := auth.NewToken(32)
	if err != nil {
		return errors.Wrap(err, "generate reset token")
	}
	exp := time.Now().UTC().Add(resetTTL).Format(time.RFC3339)
	if err := s.Users.SetReset(ctx, u.ID, auth.Digest(token), exp); err != nil {
		return err
	}
	if err := s.Mail.SendPasswordReset(ctx, u.Email, u.Name, token); err != nil {
		applog.Logger().Error("mail.reset.failed", "user_id", u.ID, "error", err)
	}
	return nil
}

type ResetPasswordInput struct {
	Email    string `json:"email" validate:"required"`
	Token    string `json:"token" validate:"required"`
	Password string `json:"password" validate:"required,password"`
}

func (s *AuthService) ResetPassword(ctx context.Context, in ResetPasswordInput) error {
	if err := validate.Struct(in); err != nil {
		return err
	}
	email, _ := validate.Email(in.Email)
	u, err := s.Users.ByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return apperr.ErrInvalidResetToken
		}
		return err
	}
	sec, err := s.Users.Secrets(ctx, u.ID)
	if err != nil {
		return err
	}
	if expired(sec.ResetExpiresAt) || !auth.DigestEqual(sec.ResetHash, in.Token) {
		return apperr.ErrInvalidResetToken
	}
	hash, err := auth.HashPassword(in.Password, s.BcryptCost)
	if err != nil {
		return errors.Wrap(err, "hash password")
	}
	return s.Users.UpdatePassword(ctx, u.ID, hash)
}

type ChangePasswordInput struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,password"`
}

func (s *AuthService) ChangePassword(ctx context.Context, userID string, in ChangePasswordInput) error {
	if err := validate.Struct(in); err != nil {
		return err
	}
	u, err := s.Users.ByID(ctx, userID)
	if err != nil {
		return err
	}
	if !auth.CheckPassword(u.Hash, in.CurrentPassword) {
		return apperr.ErrInvalidCredentials.WithMessage("current password is incorrect")
	}
	hash, err := auth.HashPassword(in.NewPassword, s.BcryptCost)
	if err != nil {
		return errors.Wrap(err, "hash password")
	}
	return s.Users.UpdatePassword(ctx, u.ID, hash)
}

type ProfileInput struct {
	Name   *string `json:"name" validate:"omitempty,min=2,max=80"`
	Phone  *string `json:"phone" validate:"omitempty,phone"`
	Avatar *string `json:"avatar" validate:"omitempty,max=500"`
}

func (s *AuthService) UpdateProfile(ctx context.Context, userID string, in ProfileInput) (*domain.User, error) {
	if err := validate.Struct(in); err != nil {
		return nil, err
	}
	u, err := s.Users.ByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if in.Name != nil {
		u.Name = strings.TrimSpace(*in.Name)
	}
	if in.Phone != nil {
		u.Phone = strings.TrimSpace(*in.Phone)
	}
	if in.Avatar != nil {
		u.Avatar = strings.TrimSpace(*in.Avatar)
	}
	if err := s.Users.UpdateProfile(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// expired treats a missing or unparsable expiry as expired.
func expired(ts string) bool {
	t, err := time.Parse(time.RFC3339, ts)
	return err != nil || time.Now().After(t)
}
