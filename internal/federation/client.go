package federation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"
	githubOAuth2 "golang.org/x/oauth2/github"

	"github.com/pilab-dev/shadow-login/log"
)

// Registration is the client configuration for one login provider.
type Registration struct {
	ID           string   `mapstructure:"id"`
	ClientID     string   `mapstructure:"client_id"`
	ClientSecret string   `mapstructure:"client_secret"`
	Scopes       []string `mapstructure:"scopes"`
	// Issuer enables OIDC discovery. Azure derives it from Tenant when empty.
	Issuer string `mapstructure:"issuer"`
	Tenant string `mapstructure:"tenant"`
	// AuthURL, TokenURL and UserInfoURL override the discovered or built-in
	// endpoints.
	AuthURL     string `mapstructure:"auth_url"`
	TokenURL    string `mapstructure:"token_url"`
	UserInfoURL string `mapstructure:"userinfo_url"`
}

// Login is what a completed authorization-code exchange yields.
type Login struct {
	RegistrationID string
	Attributes     Attributes
	Token          AccessToken
}

type registration struct {
	cfg         Registration
	variant     Variant
	endpoint    oauth2.Endpoint
	verifier    *oidc.IDTokenVerifier
	userInfoURL string
}

func (r *registration) oauth2Config(redirectURL string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     r.cfg.ClientID,
		ClientSecret: r.cfg.ClientSecret,
		RedirectURL:  redirectURL,
		Scopes:       r.cfg.Scopes,
		Endpoint:     r.endpoint,
	}
}

// Client drives the authorization-code flow for the configured providers and
// collects the raw attributes of the signed-in user.
type Client struct {
	registrations map[string]*registration
	order         []string
	logger        log.Logger
}

// NewClient prepares every registration. OIDC registrations run discovery
// against their issuer, so ctx bounds startup.
func NewClient(ctx context.Context, regs []Registration, logger log.Logger) (*Client, error) {
	c := &Client{
		registrations: make(map[string]*registration, len(regs)),
		logger:        logger,
	}

	for _, cfg := range regs {
		reg, err := newRegistration(ctx, cfg)
		if err != nil {
			return nil, err
		}
		key := strings.ToLower(cfg.ID)
		c.registrations[key] = reg
		c.order = append(c.order, cfg.ID)
		logger.Info(ctx, "registered login provider", log.Fields{
			"registration_id": cfg.ID,
			"variant":         reg.variant.String(),
		})
	}

	return c, nil
}

func newRegistration(ctx context.Context, cfg Registration) (*registration, error) {
	if cfg.ID == "" || cfg.ClientID == "" {
		return nil, fmt.Errorf("%w: registration %q needs an id and a client id", ErrProviderMisconfigured, cfg.ID)
	}

	reg := &registration{cfg: cfg, variant: VariantFor(cfg.ID)}

	issuer := cfg.Issuer
	if issuer == "" && reg.variant == VariantAzure && cfg.Tenant != "" {
		issuer = fmt.Sprintf("https://login.microsoftonline.com/%s/v2.0", cfg.Tenant)
	}

	switch {
	case reg.variant == VariantGitHub && issuer == "":
		reg.endpoint = githubOAuth2.Endpoint
	case issuer != "":
		provider, err := oidc.NewProvider(ctx, issuer)
		if err != nil {
			return nil, fmt.Errorf("%w: oidc discovery for %q: %v", ErrProviderMisconfigured, cfg.ID, err)
		}
		reg.endpoint = provider.Endpoint()
		reg.verifier = provider.Verifier(&oidc.Config{ClientID: cfg.ClientID})
		reg.userInfoURL = provider.UserInfoEndpoint()
	default:
		if cfg.AuthURL == "" || cfg.TokenURL == "" || cfg.UserInfoURL == "" {
			return nil, fmt.Errorf("%w: registration %q has no issuer and no endpoints", ErrProviderMisconfigured, cfg.ID)
		}
	}

	if cfg.AuthURL != "" {
		reg.endpoint.AuthURL = cfg.AuthURL
	}
	if cfg.TokenURL != "" {
		reg.endpoint.TokenURL = cfg.TokenURL
	}
	if cfg.UserInfoURL != "" {
		reg.userInfoURL = cfg.UserInfoURL
	}

	return reg, nil
}

// RegistrationIDs lists the configured providers in configuration order.
func (c *Client) RegistrationIDs() []string {
	return append([]string(nil), c.order...)
}

func (c *Client) lookup(registrationID string) (*registration, error) {
	reg, ok := c.registrations[strings.ToLower(registrationID)]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrProviderNotFound, registrationID)
	}

	return reg, nil
}

// AuthCodeURL returns the provider URL the browser is sent to.
func (c *Client) AuthCodeURL(registrationID, state, redirectURL string) (string, error) {
	reg, err := c.lookup(registrationID)
	if err != nil {
		return "", err
	}

	return reg.oauth2Config(redirectURL).AuthCodeURL(state), nil
}

// Exchange trades the authorization code for a token and collects the raw
// attributes of the user.
func (c *Client) Exchange(ctx context.Context, registrationID, code, redirectURL string) (*Login, error) {
	reg, err := c.lookup(registrationID)
	if err != nil {
		return nil, err
	}

	conf := reg.oauth2Config(redirectURL)
	tok, err := conf.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExchangeCodeFailed, err)
	}

	var attrs Attributes
	switch {
	case reg.verifier != nil:
		attrs, err = c.fetchOIDCClaims(ctx, reg, conf, tok)
	case reg.userInfoURL != "":
		attrs, err = fetchUserInfo(ctx, conf.Client(ctx, tok), reg.userInfoURL)
	default:
		attrs, err = FetchGitHubUser(ctx, conf.Client(ctx, tok))
	}
	if err != nil {
		return nil, err
	}

	return &Login{
		RegistrationID: reg.cfg.ID,
		Attributes:     attrs,
		Token: AccessToken{
			Value:  tok.AccessToken,
			Scopes: grantedScopes(tok, reg.cfg.Scopes),
		},
	}, nil
}

// fetchOIDCClaims returns the verified ID token claims, completed by any
// userinfo claims the ID token did not carry.
func (c *Client) fetchOIDCClaims(
	ctx context.Context, reg *registration, conf *oauth2.Config, tok *oauth2.Token,
) (Attributes, error) {
	rawIDToken, ok := tok.Extra("id_token").(string)
	if !ok || rawIDToken == "" {
		return nil, fmt.Errorf("%w: token response has no id_token", ErrFetchUserInfoFailed)
	}

	idToken, err := reg.verifier.Verify(ctx, rawIDToken)
	if err != nil {
		return nil, fmt.Errorf("%w: id token verification: %v", ErrFetchUserInfoFailed, err)
	}

	var claims json.RawMessage
	if err := idToken.Claims(&claims); err != nil {
		return nil, fmt.Errorf("%w: id token claims: %v", ErrFetchUserInfoFailed, err)
	}
	attrs, err := decodeAttributes(claims)
	if err != nil {
		return nil, fmt.Errorf("%w: id token claims: %v", ErrFetchUserInfoFailed, err)
	}

	if reg.userInfoURL == "" {
		return attrs, nil
	}

	body, err := getJSON(ctx, conf.Client(ctx, tok), reg.userInfoURL)
	if err != nil {
		c.logger.Warn(ctx, "userinfo request failed, using id token claims only", log.Fields{
			"registration_id": reg.cfg.ID,
			"error":           err.Error(),
		})
		return attrs, nil
	}
	extra, err := decodeAttributes(body)
	if err != nil {
		c.logger.Warn(ctx, "malformed userinfo response, using id token claims only", log.Fields{
			"registration_id": reg.cfg.ID,
			"error":           err.Error(),
		})
		return attrs, nil
	}
	for k, v := range extra {
		if _, exists := attrs[k]; !exists {
			attrs[k] = v
		}
	}

	return attrs, nil
}

// grantedScopes prefers the scope the provider reports on the token and falls
// back to the requested ones when it reports none.
func grantedScopes(tok *oauth2.Token, requested []string) []string {
	if raw, ok := tok.Extra("scope").(string); ok {
		if scopes := ParseScopes(raw); len(scopes) > 0 {
			return scopes
		}
	}

	return append([]string(nil), requested...)
}

func fetchUserInfo(ctx context.Context, client *http.Client, url string) (Attributes, error) {
	body, err := getJSON(ctx, client, url)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetchUserInfoFailed, err)
	}
	attrs, err := decodeAttributes(body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetchUserInfoFailed, err)
	}

	return attrs, nil
}

func decodeAttributes(body []byte) (Attributes, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var attrs Attributes
	if err := dec.Decode(&attrs); err != nil {
		return nil, err
	}
	if attrs == nil {
		attrs = Attributes{}
	}

	return attrs, nil
}
