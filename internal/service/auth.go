package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"unicode/utf8"

	domainauth "github.com/target/zenithflow/internal/domain/auth"
	apperrors "github.com/target/zenithflow/internal/errors"
	"github.com/target/zenithflow/internal/ports"
)

// MinPasswordLength is the shortest password accepted on sign-up.
const MinPasswordLength = 6

// AuthServiceOptions groups dependencies for AuthService.
type AuthServiceOptions struct {
	Gateway ports.AuthGateway
	// ConfigErr short-circuits every operation before any network call.
	ConfigErr error
	Logger    *slog.Logger
}

// AuthService validates credentials locally and forwards sign-in, sign-up and
// sign-out to the gateway. Session state changes reach the synchronizer through
// the gateway's event stream, not through return values.
type AuthService struct {
	gateway   ports.AuthGateway
	configErr error
	logger    *slog.Logger
}

// NewAuthService constructs a new AuthService.
func NewAuthService(opts AuthServiceOptions) *AuthService {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthService{
		gateway:   opts.Gateway,
		configErr: opts.ConfigErr,
		logger:    logger.With("component", "auth"),
	}
}

// SignIn authenticates with email and password.
func (s *AuthService) SignIn(ctx context.Context, email, password string) (*domainauth.Session, error) {
	if err := s.checkConfig(); err != nil {
		return nil, err
	}

	email = strings.TrimSpace(email)
	if email == "" {
		return nil, apperrors.ValidationField("email", "email is required")
	}
	if password == "" {
		return nil, apperrors.ValidationField("password", "password is required")
	}

	sess, err := s.gateway.SignIn(ctx, email, password)
	if err != nil {
		s.logger.InfoContext(ctx, "sign in failed", "email", email, "error", err)
		return nil, gatewayError("sign in", err)
	}

	s.logger.InfoContext(ctx, "signed in", "identity_id", sess.IdentityID())
	return sess, nil
}

// SignUp creates an account. The result carries either a session or a pending
// e-mail confirmation.
func (s *AuthService) SignUp(ctx context.Context, email, password, fullName string) (*ports.SignUpResult, error) {
	if err := s.checkConfig(); err != nil {
		return nil, err
	}

	in := ports.SignUpInput{
		Email:       strings.TrimSpace(email),
		Password:    password,
		DisplayName: strings.TrimSpace(fullName),
	}
	if err := validateSignUp(in); err != nil {
		return nil, err
	}

	res, err := s.gateway.SignUp(ctx, in)
	if err != nil {
		s.logger.InfoContext(ctx, "sign up failed", "email", in.Email, "error", err)
		return nil, gatewayError("sign up", err)
	}

	s.logger.InfoContext(ctx, "signed up",
		"email", in.Email,
		"pending_confirmation", res.PendingConfirmation,
	)
	return res, nil
}

// SignOut ends the current session.
func (s *AuthService) SignOut(ctx context.Context) error {
	if err := s.checkConfig(); err != nil {
		return err
	}
	if err := s.gateway.SignOut(ctx); err != nil {
		return gatewayError("sign out", err)
	}
	return nil
}

func (s *AuthService) checkConfig() error {
	if s.configErr != nil {
		return apperrors.Config(s.configErr.Error(), fmt.Errorf("%w: %w", ErrConfig, s.configErr))
	}
	if s.gateway == nil {
		return apperrors.Config("auth gateway is not available", ErrConfig)
	}
	return nil
}

func validateSignUp(in ports.SignUpInput) error {
	if in.Email == "" {
		return apperrors.ValidationField("email", "email is required")
	}
	if _, err := mail.ParseAddress(in.Email); err != nil {
		return apperrors.ValidationField("email", "email is not valid")
	}
	if utf8.RuneCountInString(in.Password) < MinPasswordLength {
		return apperrors.ValidationField("password", fmt.Sprintf("password must be at least %d characters", MinPasswordLength))
	}
	if in.DisplayName == "" {
		return apperrors.ValidationField("full_name", "full name is required")
	}
	return nil
}

// gatewayError keeps the gateway message intact and adds the service sentinel
// for rejected credentials.
func gatewayError(op string, err error) error {
	if apperrors.IsInvalidCredentials(err) && !errors.Is(err, ErrInvalidCredentials) {
		return fmt.Errorf("%s: %w: %w", op, ErrInvalidCredentials, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}
