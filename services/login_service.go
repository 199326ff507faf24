package services

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/pilab-dev/shadow-login/domain"
	"github.com/pilab-dev/shadow-login/internal/audit"
	"github.com/pilab-dev/shadow-login/internal/federation"
	"github.com/pilab-dev/shadow-login/internal/metrics"
	"github.com/pilab-dev/shadow-login/log"
)

// ProfileResolver maps the raw attributes of a login to a profile.
type ProfileResolver interface {
	Resolve(ctx context.Context, registrationID string, attrs federation.Attributes, token *federation.AccessToken) domain.ProviderProfile
}

// UserProvisioner reconciles a profile with the stored user.
type UserProvisioner interface {
	GetOrCreate(ctx context.Context, profile domain.ProviderProfile) (*domain.User, error)
}

// LoginRequest is what the authentication layer hands over after a completed
// provider callback.
type LoginRequest struct {
	RegistrationID string
	Attributes     federation.Attributes
	Token          *federation.AccessToken
}

// LoginService runs the post-callback pipeline: resolve, then provision.
type LoginService struct {
	resolver    ProfileResolver
	provisioner UserProvisioner
	logger      log.Logger
	tracer      trace.Tracer
}

// NewLoginService creates a new LoginService.
func NewLoginService(resolver ProfileResolver, provisioner UserProvisioner, logger log.Logger) *LoginService {
	return &LoginService{
		resolver:    resolver,
		provisioner: provisioner,
		logger:      logger,
		tracer:      otel.Tracer("github.com/pilab-dev/shadow-login/services"),
	}
}

// CompleteLogin returns the canonical user for a completed login. Any failure
// is reported as ErrAuthenticationFailed and leaves no partial user behind.
func (s *LoginService) CompleteLogin(ctx context.Context, req LoginRequest) (*domain.User, error) {
	ctx, span := s.tracer.Start(ctx, "LoginService.CompleteLogin",
		trace.WithAttributes(attribute.String("registration_id", req.RegistrationID)))
	defer span.End()

	profile := s.resolver.Resolve(ctx, req.RegistrationID, req.Attributes, req.Token)

	user, err := s.provisioner.GetOrCreate(ctx, profile)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "provisioning failed")
		metrics.LoginFailureTotal.WithLabelValues(req.RegistrationID).Inc()
		audit.Log("login", audit.ActionLogin, "", identity(profile), req.RegistrationID, false, err)
		s.logger.Error(ctx, "login failed", err, log.Fields{
			"registration_id": req.RegistrationID,
			"provider":        profile.Provider,
		})
		return nil, fmt.Errorf("%w: %w", ErrAuthenticationFailed, err)
	}

	span.SetAttributes(attribute.String("user_id", user.ID))
	metrics.LoginSuccessTotal.WithLabelValues(user.Provider).Inc()
	audit.Log("login", audit.ActionLogin, user.ID, identity(profile), req.RegistrationID, true, nil)
	s.logger.Info(ctx, "login completed", log.Fields{
		"user_id":  user.ID,
		"provider": user.Provider,
	})

	return user, nil
}
