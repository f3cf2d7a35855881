package usecase

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"contacts-api/internal/data/cached"
	"contacts-api/internal/data/entity"
	"contacts-api/internal/data/repository"
	"contacts-api/internal/dto/request"
	"contacts-api/internal/dto/response"
	"contacts-api/pkg/mailer"
	"contacts-api/pkg/token"
	"contacts-api/pkg/utils"

	"go.uber.org/zap"
)

const passwordResetMessage = "If the email exists, a password reset link has been sent"

type TokenIssuer interface {
	TokenVerifier
	Issue(subject string, purpose token.Purpose, ttl time.Duration) (string, error)
}

type AuthService interface {
	Register(ctx context.Context, req *request.RegisterRequest) (*response.UserResponse, error)
	Login(ctx context.Context, req *request.LoginRequest) (*response.TokenResponse, error)
	SendOTP(ctx context.Context, email string) error
	VerifyEmail(ctx context.Context, req *request.VerifyEmailRequest) error
	RequestPasswordReset(ctx context.Context, email string) (*response.MessageResponse, error)
	ResetPassword(ctx context.Context, req *request.PasswordResetConfirmRequest) (*response.MessageResponse, error)
}

type authService struct {
	repo   *repository.Repository
	cache  *cached.EntityCache
	tokens TokenIssuer
	mail   mailer.Mailer
	config *utils.Config
	log    *zap.Logger
}

func NewAuthService(
	repo *repository.Repository,
	cache *cached.EntityCache,
	tokens TokenIssuer,
	mail mailer.Mailer,
	config *utils.Config,
	log *zap.Logger,
) AuthService {
	return &authService{
		repo:   repo,
		cache:  cache,
		tokens: tokens,
		mail:   mail,
		config: config,
		log:    log.With(zap.String("service", "auth")),
	}
}

// Register always creates a regular, active, unverified account.
func (s *authService) Register(ctx context.Context, req *request.RegisterRequest) (*response.UserResponse, error) {
	email := strings.TrimSpace(req.Email)

	existingUser, err := s.repo.User.FindByEmail(ctx, email)
	if err != nil {
		s.log.Error("Failed to check email", zap.Error(err), zap.String("email", email))
		return nil, newError(ErrStoreUnavailable, "Failed to create account")
	}
	if existingUser != nil {
		return nil, newError(ErrConflict, "The user with this email already exists in the system.")
	}

	hashedPassword, err := utils.HashPassword(req.Password)
	if err != nil {
		s.log.Error("Failed to hash password", zap.Error(err))
		return nil, newError(ErrBadRequest, "Failed to process password")
	}

	user := &entity.User{
		Email:        email,
		PasswordHash: hashedPassword,
		IsActive:     true,
		IsVerified:   false,
		Role:         entity.RoleUser,
	}

	if err := s.repo.User.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, newError(ErrConflict, "The user with this email already exists in the system.")
		}
		s.log.Error("Failed to create user", zap.Error(err), zap.String("email", email))
		return nil, newError(ErrStoreUnavailable, "Failed to create account")
	}

	s.log.Info("User registered",
		zap.Int64("user_id", user.ID),
		zap.String("email", user.Email))

	resp := response.UserToResponse(user)
	return &resp, nil
}

func (s *authService) Login(ctx context.Context, req *request.LoginRequest) (*response.TokenResponse, error) {
	user, err := s.repo.User.FindByEmail(ctx, strings.TrimSpace(req.Email))
	if err != nil {
		s.log.Error("Failed to find user by email", zap.Error(err), zap.String("email", req.Email))
		return nil, newError(ErrStoreUnavailable, "Failed to log in")
	}

	if user == nil || !utils.CheckPasswordHash(req.Password, user.PasswordHash) {
		s.log.Warn("Invalid credentials", zap.String("email", req.Email))
		return nil, newError(ErrUnauthenticated, "Incorrect email or password")
	}

	if err := RequireActive(user); err != nil {
		s.log.Warn("Inactive user tried to login", zap.Int64("user_id", user.ID))
		return nil, err
	}

	ttl := time.Duration(s.config.JWT.AccessTTLMinutes) * time.Minute
	accessToken, err := s.tokens.Issue(user.Email, token.PurposeAccess, ttl)
	if err != nil {
		s.log.Error("Failed to issue access token", zap.Error(err), zap.Int64("user_id", user.ID))
		return nil, fmt.Errorf("issue access token: %w", err)
	}

	s.log.Info("User logged in", zap.Int64("user_id", user.ID))

	return &response.TokenResponse{
		AccessToken: accessToken,
		TokenType:   "bearer",
	}, nil
}

func (s *authService) SendOTP(ctx context.Context, email string) error {
	user, err := s.repo.User.FindByEmail(ctx, email)
	if err != nil {
		s.log.Error("Failed to find user for OTP", zap.Error(err), zap.String("email", email))
		return newError(ErrStoreUnavailable, "Failed to send OTP")
	}
	if user == nil {
		return newError(ErrNotFound, "User not found")
	}
	if user.IsVerified {
		return newError(ErrBadRequest, "Email already verified")
	}

	code, err := utils.GenerateOTP(s.config.OTP.Length)
	if err != nil {
		return fmt.Errorf("generate OTP: %w", err)
	}
	expiresAt := time.Now().Add(time.Duration(s.config.OTP.ExpiryMinutes) * time.Minute)

	otp := &entity.OTP{
		UserID:    user.ID,
		Email:     user.Email,
		OTPCode:   code,
		OTPType:   entity.OTPTypeEmailVerification,
		ExpiresAt: expiresAt,
	}

	if err := s.repo.OTP.Create(ctx, otp); err != nil {
		s.log.Error("Failed to save OTP", zap.Error(err), zap.String("email", email))
		return newError(ErrStoreUnavailable, "Failed to send OTP")
	}

	msg := mailer.Message{
		To:      user.Email,
		Subject: "Verify your email",
		Body: fmt.Sprintf("Your verification code is %s. It expires at %s.",
			code, expiresAt.UTC().Format(time.RFC1123)),
	}
	if err := s.mail.Send(ctx, msg); err != nil {
		s.log.Error("Failed to send OTP email", zap.Error(err), zap.String("email", email))
		return fmt.Errorf("send OTP email: %w", err)
	}

	s.log.Info("OTP sent", zap.String("email", email), zap.Time("expires_at", expiresAt))
	return nil
}

func (s *authService) VerifyEmail(ctx context.Context, req *request.VerifyEmailRequest) error {
	otp, err := s.repo.OTP.FindValidOTP(ctx, req.Email, req.OTP, entity.OTPTypeEmailVerification)
	if err != nil {
		s.log.Error("Failed to find OTP", zap.Error(err), zap.String("email", req.Email))
		return newError(ErrStoreUnavailable, "Failed to verify OTP")
	}
	if otp == nil {
		return newError(ErrBadRequest, "Invalid or expired OTP")
	}

	if err := s.repo.OTP.MarkAsUsed(ctx, otp.ID); err != nil {
		s.log.Warn("Failed to mark OTP as used", zap.Error(err), zap.Int64("otp_id", otp.ID))
	}

	user, err := s.repo.User.FindByID(ctx, otp.UserID)
	if err != nil {
		s.log.Error("Failed to load user for verification", zap.Error(err), zap.Int64("user_id", otp.UserID))
		return newError(ErrStoreUnavailable, "Failed to verify email")
	}
	if user == nil {
		return newError(ErrNotFound, "User not found")
	}

	user.IsVerified = true
	if err := s.repo.User.Update(ctx, user); err != nil {
		s.log.Error("Failed to update user verification", zap.Error(err), zap.Int64("user_id", user.ID))
		return newError(ErrStoreUnavailable, "Failed to verify email")
	}

	s.cache.InvalidateUser(ctx, user.ID, user.Email)

	s.log.Info("Email verified",
		zap.String("email", user.Email),
		zap.Int64("user_id", user.ID))

	return nil
}

// RequestPasswordReset answers the same way whether or not the account exists.
func (s *authService) RequestPasswordReset(ctx context.Context, email string) (*response.MessageResponse, error) {
	user, err := s.repo.User.FindByEmail(ctx, email)
	if err != nil {
		s.log.Error("Failed to find user for password reset", zap.Error(err), zap.String("email", email))
		return nil, newError(ErrStoreUnavailable, "Failed to request password reset")
	}

	if user != nil {
		s.sendPasswordReset(ctx, user)
	}

	return &response.MessageResponse{Message: passwordResetMessage}, nil
}

func (s *authService) ResetPassword(ctx context.Context, req *request.PasswordResetConfirmRequest) (*response.MessageResponse, error) {
	claims, err := s.tokens.Verify(req.Token, token.PurposeReset)
	if err != nil {
		s.log.Warn("Invalid password reset token", zap.Error(err))
		return nil, newError(ErrBadRequest, "Invalid token")
	}

	user, err := s.repo.User.FindByEmail(ctx, claims.Subject)
	if err != nil {
		s.log.Error("Failed to find user for password reset", zap.Error(err))
		return nil, newError(ErrStoreUnavailable, "Failed to reset password")
	}
	if user == nil {
		return nil, newError(ErrNotFound, "User not found")
	}

	hash, err := utils.HashPassword(req.NewPassword)
	if err != nil {
		s.log.Error("Failed to hash password", zap.Error(err))
		return nil, newError(ErrBadRequest, "Failed to process password")
	}
	user.PasswordHash = hash

	if err := s.repo.User.Update(ctx, user); err != nil {
		s.log.Error("Failed to store new password", zap.Error(err), zap.Int64("user_id", user.ID))
		return nil, newError(ErrStoreUnavailable, "Failed to reset password")
	}

	s.cache.InvalidateUser(ctx, user.ID, user.Email)

	s.log.Info("Password reset", zap.Int64("user_id", user.ID))

	return &response.MessageResponse{Message: "Password updated successfully"}, nil
}

func (s *authService) sendPasswordReset(ctx context.Context, user *entity.User) {
	ttl := time.Duration(s.config.JWT.ResetTTLHours) * time.Hour
	resetToken, err := s.tokens.Issue(user.Email, token.PurposeReset, ttl)
	if err != nil {
		s.log.Error("Failed to issue reset token", zap.Error(err), zap.Int64("user_id", user.ID))
		return
	}

	link := strings.TrimRight(s.config.Email.ServerHost, "/") + "/reset-password?token=" + url.QueryEscape(resetToken)
	msg := mailer.Message{
		To:      user.Email,
		Subject: "Password reset",
		Body: fmt.Sprintf("Use the link below to reset your password. It is valid for %d hour(s).\n\n%s",
			s.config.JWT.ResetTTLHours, link),
	}

	if err := s.mail.Send(ctx, msg); err != nil {
		s.log.Error("Failed to send password reset email", zap.Error(err), zap.Int64("user_id", user.ID))
	}
}
