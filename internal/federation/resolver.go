package federation

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/pilab-dev/shadow-login/domain"
	"github.com/pilab-dev/shadow-login/log"
)

// Resolver turns the raw attributes of a completed login into a canonical
// profile. It never fails: unknown providers get the fallback mapping.
type Resolver struct {
	emails EmailResolver
	logger log.Logger
	tracer trace.Tracer
}

// NewResolver creates a Resolver. emails may be nil, which disables the
// GitHub secondary email lookup.
func NewResolver(emails EmailResolver, logger log.Logger) *Resolver {
	return &Resolver{
		emails: emails,
		logger: logger,
		tracer: otel.Tracer("github.com/pilab-dev/shadow-login/internal/federation"),
	}
}

// Resolve maps attrs according to the variant of registrationID. token may be
// nil when the adapter has no access token to offer.
func (r *Resolver) Resolve(
	ctx context.Context, registrationID string, attrs Attributes, token *AccessToken,
) domain.ProviderProfile {
	variant := VariantFor(registrationID)

	ctx, span := r.tracer.Start(ctx, "federation.Resolve", trace.WithAttributes(
		attribute.String("registration_id", registrationID),
		attribute.String("variant", variant.String()),
	))
	defer span.End()

	var profile domain.ProviderProfile
	switch variant {
	case VariantGitHub:
		profile = MapFromGithub(attrs)
		if profile.Email == nil && token.HasScope(ScopeGitHubEmail) && r.emails != nil {
			profile.Email = r.emails.ResolveEmail(ctx, *token)
			span.SetAttributes(attribute.Bool("email_lookup", true))
		}
	case VariantAzure:
		profile = MapFromAzure(attrs)
	default:
		profile = MapFallback(registrationID, attrs)
	}

	r.logger.Debug(ctx, "resolved provider profile", log.Fields{
		"registration_id": registrationID,
		"variant":         variant.String(),
		"provider":        profile.Provider,
		"external_id":     profile.ExternalID,
		"has_email":       profile.Email != nil,
	})

	return profile
}
