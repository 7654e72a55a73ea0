package oauth2

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/oauth2"
)

// CallTimeout bounds both outbound provider calls (token exchange and
// profile fetch). A provider that never answers must not hold the
// request open forever.
const CallTimeout = 10 * time.Second

// FetchProfileFunc reduces a provider's userinfo response to a Profile.
type FetchProfileFunc func(ctx context.Context, p *Provider, token *oauth2.Token) (*Profile, error)

// Profile is the normalized identity every provider reduces to.
type Profile struct {
	ExternalID  string
	Email       string
	DisplayName string
	AvatarURL   string
}

// Provider performs the three-legged authorization-code exchange against
// one configured provider.
type Provider struct {
	Name string

	// UserInfoURL is the URL to fetch user info from. Can be overridden
	// for testing.
	UserInfoURL string

	// EmailListURL is the secondary lookup for providers that may return
	// no public email. Empty for providers that always do.
	EmailListURL string

	config oauth2.Config
	fetch  FetchProfileFunc
	client *http.Client
}

// New creates a provider from an explicit configuration. The named
// constructors NewGoogle and NewGithub cover the built-in providers.
func New(name string, config oauth2.Config, userInfoURL string, fetch FetchProfileFunc) *Provider {
	return &Provider{
		Name:        name,
		UserInfoURL: userInfoURL,
		config:      config,
		fetch:       fetch,
		client:      &http.Client{Timeout: CallTimeout},
	}
}

// Configured reports whether the provider can start a flow at all.
func (p *Provider) Configured() bool {
	return p != nil && p.config.ClientID != ""
}

// AuthCodeURL builds the provider's authorization URL carrying the
// caller's state nonce. The caller must persist the nonce in the pending
// session before redirecting.
func (p *Provider) AuthCodeURL(state string) string {
	return p.config.AuthCodeURL(state)
}

// SetEndpoint overrides the provider's endpoints. Used by tests.
func (p *Provider) SetEndpoint(endpoint oauth2.Endpoint) {
	p.config.Endpoint = endpoint
}

// SetHTTPClient overrides the outbound HTTP client. Used by tests.
func (p *Provider) SetHTTPClient(client *http.Client) {
	p.client = client
}

// Exchange trades the authorization code for an access token with one
// synchronous call to the provider's token endpoint.
func (p *Provider) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	ctx, cancel := context.WithTimeout(ctx, CallTimeout)
	defer cancel()
	ctx = context.WithValue(ctx, oauth2.HTTPClient, p.client)

	token, err := p.config.Exchange(ctx, code)
	if err != nil {
		return nil, &ExchangeError{Provider: p.Name, Err: err}
	}
	if token.AccessToken == "" {
		return nil, &ExchangeError{Provider: p.Name, Err: errors.New("no access token in response")}
	}
	return token, nil
}

// FetchProfile calls the provider's userinfo endpoint and returns the
// normalized identity.
func (p *Provider) FetchProfile(ctx context.Context, token *oauth2.Token) (*Profile, error) {
	if p.fetch == nil {
		return nil, &ProfileError{Provider: p.Name, Err: errors.New("no profile fetcher configured")}
	}
	ctx, cancel := context.WithTimeout(ctx, CallTimeout)
	defer cancel()

	profile, err := p.fetch(ctx, p, token)
	if err != nil {
		return nil, &ProfileError{Provider: p.Name, Err: err}
	}
	return profile, nil
}

// get performs an authorized GET against a provider API endpoint.
func (p *Provider) get(ctx context.Context, token *oauth2.Token, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token.AccessToken)
	req.Header.Set("Accept", "application/json")

	response, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed getting user info: %w", err)
	}
	defer response.Body.Close()

	if response.StatusCode < 200 || response.StatusCode > 299 {
		return nil, fmt.Errorf("userinfo request returned %s", response.Status)
	}

	contents, err := io.ReadAll(response.Body)
	if err != nil {
		return nil, fmt.Errorf("failed read response: %w", err)
	}
	return contents, nil
}
