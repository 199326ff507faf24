package federation

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"golang.org/x/oauth2"

	"github.com/pilab-dev/shadow-login/cache"
	"github.com/pilab-dev/shadow-login/log"
)

var (
	GithubUserInfoEndpoint   = "https://api.github.com/user"
	GithubUserEmailsEndpoint = "https://api.github.com/user/emails"
)

// DefaultEmailLookupTimeout bounds the secondary email call so a slow
// provider cannot stall a login.
const DefaultEmailLookupTimeout = 5 * time.Second

// GitHubEmail is one entry of the GitHub /user/emails response.
type GitHubEmail struct {
	Email    string `json:"email"`
	Primary  bool   `json:"primary"`
	Verified bool   `json:"verified"`
}

// SelectEmail picks the primary verified address, then the first verified
// one, then the first listed. It returns nil for an empty list.
func SelectEmail(emails []GitHubEmail) *string {
	if len(emails) == 0 {
		return nil
	}
	for _, e := range emails {
		if e.Primary && e.Verified {
			return &e.Email
		}
	}
	for _, e := range emails {
		if e.Verified {
			return &e.Email
		}
	}
	first := emails[0].Email

	return &first
}

// EmailResolver looks up an email address the primary attribute set omitted.
//
//go:generate go run go.uber.org/mock/mockgen -source=$GOFILE -destination=mock/mock_$GOFILE -package=mock_$GOPACKAGE EmailResolver
type EmailResolver interface {
	// ResolveEmail never fails; a failed lookup yields nil.
	ResolveEmail(ctx context.Context, token AccessToken) *string
}

// GitHubEmailResolver reads the authenticated user's addresses from GitHub.
type GitHubEmailResolver struct {
	logger     log.Logger
	timeout    time.Duration
	httpClient *http.Client
	store      cache.EmailStore
	storeTTL   time.Duration
	duration   metric.Float64Histogram
}

// EmailResolverOption configures a GitHubEmailResolver.
type EmailResolverOption func(*GitHubEmailResolver)

// WithLookupTimeout overrides DefaultEmailLookupTimeout.
func WithLookupTimeout(d time.Duration) EmailResolverOption {
	return func(r *GitHubEmailResolver) {
		if d > 0 {
			r.timeout = d
		}
	}
}

// WithHTTPClient sets the base transport client the bearer client wraps.
func WithHTTPClient(c *http.Client) EmailResolverOption {
	return func(r *GitHubEmailResolver) {
		r.httpClient = c
	}
}

// WithEmailStore caches successful lookups per access token for ttl.
func WithEmailStore(store cache.EmailStore, ttl time.Duration) EmailResolverOption {
	return func(r *GitHubEmailResolver) {
		r.store = store
		r.storeTTL = ttl
	}
}

// NewGitHubEmailResolver creates a resolver with a fixed lookup timeout and no retry.
func NewGitHubEmailResolver(logger log.Logger, opts ...EmailResolverOption) *GitHubEmailResolver {
	r := &GitHubEmailResolver{
		logger:  logger,
		timeout: DefaultEmailLookupTimeout,
	}
	for _, opt := range opts {
		opt(r)
	}

	duration, err := otel.Meter("github.com/pilab-dev/shadow-login/internal/federation").Float64Histogram(
		"shadow_login.github.email_lookup.duration",
		metric.WithDescription("Duration of GitHub secondary email lookups."),
		metric.WithUnit("s"),
	)
	if err != nil {
		logger.Warn(context.Background(), "failed to create email lookup histogram", log.Fields{"error": err.Error()})
	}
	r.duration = duration

	return r
}

// ResolveEmail implements EmailResolver. Lookup failures are logged at debug
// level and degrade to "no email known".
func (r *GitHubEmailResolver) ResolveEmail(ctx context.Context, token AccessToken) *string {
	if token.Value == "" {
		return nil
	}
	if r.store != nil {
		if email, ok := r.store.Get(ctx, token.Value); ok {
			return &email
		}
	}

	start := time.Now()
	emails, err := r.fetchEmails(ctx, token.Value)
	r.observe(ctx, start, err)
	if err != nil {
		r.logger.Debug(ctx, "github email lookup failed", log.Fields{"error": err.Error()})
		return nil
	}

	email := SelectEmail(emails)
	if email != nil && r.store != nil {
		if err := r.store.Set(ctx, token.Value, *email, r.storeTTL); err != nil {
			r.logger.Debug(ctx, "failed to cache github email", log.Fields{"error": err.Error()})
		}
	}

	return email
}

func (r *GitHubEmailResolver) observe(ctx context.Context, start time.Time, err error) {
	if r.duration == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	r.duration.Record(ctx, time.Since(start).Seconds(),
		metric.WithAttributes(attribute.String("outcome", outcome)))
}

func (r *GitHubEmailResolver) fetchEmails(ctx context.Context, accessToken string) ([]GitHubEmail, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	body, err := getJSON(ctx, r.bearerClient(ctx, accessToken), GithubUserEmailsEndpoint)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEmailLookupFailed, err)
	}

	var emails []GitHubEmail
	if err := json.Unmarshal(body, &emails); err != nil {
		return nil, fmt.Errorf("%w: malformed response: %v", ErrEmailLookupFailed, err)
	}

	return emails, nil
}

func (r *GitHubEmailResolver) bearerClient(ctx context.Context, accessToken string) *http.Client {
	if r.httpClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, r.httpClient)
	}
	client := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: accessToken,
		TokenType:   "Bearer",
	}))
	client.Timeout = r.timeout

	return client
}

// FetchGitHubUser reads the /user attributes with an authenticated client.
// Numbers are kept as json.Number so ids stringify exactly.
func FetchGitHubUser(ctx context.Context, client *http.Client) (Attributes, error) {
	body, err := getJSON(ctx, client, GithubUserInfoEndpoint)
	if err != nil {
		return nil, fmt.Errorf("%w: github: %v", ErrFetchUserInfoFailed, err)
	}

	attrs, err := decodeAttributes(body)
	if err != nil {
		return nil, fmt.Errorf("%w: github: %v", ErrFetchUserInfoFailed, err)
	}

	return attrs, nil
}

func getJSON(ctx context.Context, client *http.Client, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("status %d", resp.StatusCode)
	}

	return body, nil
}
